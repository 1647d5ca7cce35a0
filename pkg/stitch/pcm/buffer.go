package pcm

import "math"

// Format describes the PCM layout of a buffer: sample rate in Hz,
// interleaved channel count and bits per sample.
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// DefaultFormat is the canonical format used when a merge starts with a
// generated segment and no decoded source has established one yet.
var DefaultFormat = Format{SampleRate: 44100, Channels: 2, BitDepth: 16}

// Buffer holds interleaved integer PCM samples in the given format.
type Buffer struct {
	Format Format
	Data   []int
}

// Silence returns a buffer of zero samples spanning durationMs in the given
// format. Negative durations yield an empty buffer.
func Silence(durationMs int64, f Format) *Buffer {
	if durationMs < 0 {
		durationMs = 0
	}
	frames := int(durationMs * int64(f.SampleRate) / 1000)
	return &Buffer{
		Format: f,
		Data:   make([]int, frames*f.Channels),
	}
}

// Frames returns the number of sample frames (samples per channel).
func (b *Buffer) Frames() int {
	if b == nil || b.Format.Channels == 0 {
		return 0
	}
	return len(b.Data) / b.Format.Channels
}

// DurationMs returns the buffer length in milliseconds.
func (b *Buffer) DurationMs() int64 {
	if b == nil || b.Format.SampleRate == 0 {
		return 0
	}
	return int64(b.Frames()) * 1000 / int64(b.Format.SampleRate)
}

// Append concatenates other onto b. Both buffers must share b's format;
// callers establish a canonical format before appending.
func (b *Buffer) Append(other *Buffer) {
	if other == nil || len(other.Data) == 0 {
		return
	}
	b.Data = append(b.Data, other.Data...)
}

// SliceMs returns the sub-buffer covering [fromMs, toMs). Bounds are clamped
// to the buffer; an inverted or out-of-range window yields an empty buffer,
// never a panic.
func (b *Buffer) SliceMs(fromMs, toMs int64) *Buffer {
	if b == nil || b.Format.SampleRate == 0 || b.Format.Channels == 0 {
		return &Buffer{Format: DefaultFormat}
	}
	frames := int64(b.Frames())
	from := fromMs * int64(b.Format.SampleRate) / 1000
	to := toMs * int64(b.Format.SampleRate) / 1000
	if from < 0 {
		from = 0
	}
	if to > frames {
		to = frames
	}
	if from >= to {
		return &Buffer{Format: b.Format}
	}
	ch := int64(b.Format.Channels)
	return &Buffer{
		Format: b.Format,
		Data:   b.Data[from*ch : to*ch],
	}
}

// SamplesFloat64 copies the interleaved samples into a float64 slice.
func (b *Buffer) SamplesFloat64() []float64 {
	if b == nil {
		return nil
	}
	out := make([]float64, len(b.Data))
	for i, s := range b.Data {
		out[i] = float64(s)
	}
	return out
}

// DownmixMono folds interleaved samples down to one channel by averaging.
// Mono input is returned unchanged.
func DownmixMono(interleaved []float64, channels int) []float64 {
	if channels <= 1 {
		return interleaved
	}
	frames := len(interleaved) / channels
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += interleaved[i*channels+c]
		}
		out[i] = sum / float64(channels)
	}
	return out
}

// Peak returns the maximum absolute amplitude in samples.
func Peak(samples []float64) float64 {
	var peak float64
	for _, s := range samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	return peak
}

// RMS returns the root mean square amplitude of samples.
func RMS(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// MeterLevel computes a 0-100 loudness reading for a short buffer window:
// RMS relative to the window's own peak, so the meter tracks the clip's
// loudness envelope rather than an absolute scale. A silent or empty window
// reads 0.
func MeterLevel(b *Buffer) int {
	if b == nil || len(b.Data) == 0 {
		return 0
	}
	mono := DownmixMono(b.SamplesFloat64(), b.Format.Channels)
	peak := Peak(mono)
	if peak <= 0 {
		peak = 1
	}
	level := int(math.Round(100 * RMS(mono) / peak))
	if level > 100 {
		level = 100
	}
	return level
}
