package pcm

// Waveform is the display-ready preview of a merged buffer: a time axis in
// seconds paired with normalized amplitudes in [-1, 1]. Both slices always
// have equal length. It is derived once per merge and never mutated.
type Waveform struct {
	Times      []float64
	Amplitudes []float64
}

// Normalize divides samples in place by their peak absolute value. A silent
// input (peak 0) uses a divisor of 1 so the result stays all zero instead of
// dividing by zero.
func Normalize(samples []float64) {
	peak := Peak(samples)
	if peak <= 0 {
		peak = 1
	}
	for i := range samples {
		samples[i] /= peak
	}
}

// TimeAxis returns n evenly spaced points over [0, n/sampleRate] seconds.
func TimeAxis(n, sampleRate int) []float64 {
	out := make([]float64, n)
	if n == 0 || sampleRate == 0 {
		return out
	}
	total := float64(n) / float64(sampleRate)
	if n == 1 {
		return out
	}
	step := total / float64(n-1)
	for i := range out {
		out[i] = float64(i) * step
	}
	return out
}

// Decimate reduces a waveform to at most maxPoints points, keeping the
// sample with the largest magnitude in each bucket so transients survive.
// maxPoints <= 0 disables decimation.
func Decimate(w Waveform, maxPoints int) Waveform {
	n := len(w.Amplitudes)
	if maxPoints <= 0 || n <= maxPoints {
		return w
	}
	times := make([]float64, 0, maxPoints)
	amps := make([]float64, 0, maxPoints)
	for i := 0; i < maxPoints; i++ {
		lo := i * n / maxPoints
		hi := (i + 1) * n / maxPoints
		if hi <= lo {
			hi = lo + 1
		}
		best := lo
		for j := lo + 1; j < hi && j < n; j++ {
			if abs(w.Amplitudes[j]) > abs(w.Amplitudes[best]) {
				best = j
			}
		}
		times = append(times, w.Times[best])
		amps = append(amps, w.Amplitudes[best])
	}
	return Waveform{Times: times, Amplitudes: amps}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
