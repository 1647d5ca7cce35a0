package merge

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trackstitch/trackstitch/pkg/stitch/pcm"
	"github.com/trackstitch/trackstitch/pkg/stitch/timeline"
)

// Decoder is the slice of the audio-codec collaborator the pipeline needs.
type Decoder interface {
	Decode(ctx context.Context, path string, want *pcm.Format) (*pcm.Buffer, error)
}

// Logger is the narrow logging surface accepted by the pipeline.
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}

// EventKind discriminates pipeline events.
type EventKind int

const (
	// EventProgress carries a fractional progress value in [0, 100].
	EventProgress EventKind = iota
	// EventCompleted carries the merged audio and its waveform preview.
	EventCompleted
	// EventFailed carries a human-readable error message.
	EventFailed
	// EventCancelled acknowledges a user-requested abort. It is not an
	// error and carries no message.
	EventCancelled
)

// Event is one message posted by the worker to the control context. A job
// emits any number of Progress events followed by exactly one terminal
// event (Completed, Failed or Cancelled), then closes its channel.
type Event struct {
	Kind     EventKind
	Progress int
	Audio    *pcm.Buffer
	Waveform pcm.Waveform
	Err      string
}

// Job is one in-flight merge over an immutable timeline snapshot.
type Job struct {
	ID string

	events chan Event
	cancel context.CancelFunc
	done   chan struct{}
}

// Events returns the job's event stream. The channel is closed after the
// terminal event.
func (j *Job) Events() <-chan Event { return j.events }

// Cancel requests a cooperative abort. The worker observes it at the next
// checkpoint and terminates with a Cancelled event.
func (j *Job) Cancel() { j.cancel() }

// Wait blocks until the worker has stopped or the timeout elapses. It
// reports whether the worker stopped in time; a false return is the bounded
// graceful-stop window expiring.
func (j *Job) Wait(timeout time.Duration) bool {
	select {
	case <-j.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Pipeline runs merge jobs on a dedicated worker goroutine, one at a time.
// Results travel back to the control context only through the job's event
// channel; the worker never touches shared state.
type Pipeline struct {
	dec           Decoder
	log           Logger
	previewPoints int
	defaultFormat pcm.Format

	mu     sync.Mutex
	active *Job
}

// NewPipeline returns a pipeline decoding through dec. previewPoints caps
// the waveform preview length (0 keeps every sample).
func NewPipeline(dec Decoder, log Logger, previewPoints int) *Pipeline {
	return &Pipeline{
		dec:           dec,
		log:           log,
		previewPoints: previewPoints,
		defaultFormat: pcm.DefaultFormat,
	}
}

// Submit starts a merge over the given snapshot. While a job is active,
// submission is a no-op: the existing handle is returned with started ==
// false and nothing is queued.
func (p *Pipeline) Submit(entries []timeline.Entry) (job *Job, started bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.active != nil {
		return p.active, false
	}

	ctx, cancel := context.WithCancel(context.Background())
	j := &Job{
		ID:     uuid.NewString(),
		events: make(chan Event, 128),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	p.active = j

	go p.run(ctx, j, entries)
	return j, true
}

// Active returns the currently running job, if any.
func (p *Pipeline) Active() *Job {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

func (p *Pipeline) run(ctx context.Context, j *Job, entries []timeline.Entry) {
	defer func() {
		p.mu.Lock()
		p.active = nil
		p.mu.Unlock()
		close(j.events)
		close(j.done)
	}()

	if p.log != nil {
		p.log.Infof("merge %s: %d entries", j.ID, len(entries))
	}

	var merged *pcm.Buffer
	total := len(entries)

	for idx, e := range entries {
		// Cancellation is checked before each entry.
		if ctx.Err() != nil {
			j.events <- Event{Kind: EventCancelled}
			return
		}
		j.events <- Event{Kind: EventProgress, Progress: idx * 80 / total}

		switch e.Kind {
		case timeline.KindSilence:
			if e.SilenceMs <= 0 {
				continue // zero-duration gap is a no-op
			}
			f := p.defaultFormat
			if merged != nil {
				f = merged.Format
			}
			seg := pcm.Silence(e.SilenceMs, f)
			if merged == nil {
				merged = seg
			} else {
				merged.Append(seg)
			}

		case timeline.KindSource:
			var want *pcm.Format
			if merged != nil {
				want = &merged.Format
			}
			seg, err := p.dec.Decode(ctx, e.Path, want)
			if err != nil {
				if ctx.Err() != nil {
					j.events <- Event{Kind: EventCancelled}
					return
				}
				// A decode failure aborts the whole job; no partial merge.
				if p.log != nil {
					p.log.Errorf("merge %s: %v", j.ID, err)
				}
				j.events <- Event{Kind: EventFailed, Err: err.Error()}
				return
			}
			if merged == nil {
				merged = seg
			} else {
				merged.Append(seg)
			}
		}
	}

	// A timeline of only zero-duration silences (or no entries at all)
	// yields a successful empty merge.
	if merged == nil {
		merged = &pcm.Buffer{Format: p.defaultFormat}
	}

	// Waveform derivation spans progress [80, 100] through four fixed
	// checkpoints; cancellation is re-checked at each one.
	if ctx.Err() != nil {
		j.events <- Event{Kind: EventCancelled}
		return
	}
	j.events <- Event{Kind: EventProgress, Progress: 85}
	raw := merged.SamplesFloat64()

	if ctx.Err() != nil {
		j.events <- Event{Kind: EventCancelled}
		return
	}
	j.events <- Event{Kind: EventProgress, Progress: 90}
	mono := pcm.DownmixMono(raw, merged.Format.Channels)

	if ctx.Err() != nil {
		j.events <- Event{Kind: EventCancelled}
		return
	}
	j.events <- Event{Kind: EventProgress, Progress: 95}
	pcm.Normalize(mono)
	w := pcm.Waveform{
		Times:      pcm.TimeAxis(len(mono), merged.Format.SampleRate),
		Amplitudes: mono,
	}
	w = pcm.Decimate(w, p.previewPoints)

	if ctx.Err() != nil {
		j.events <- Event{Kind: EventCancelled}
		return
	}
	j.events <- Event{Kind: EventProgress, Progress: 100}

	if p.log != nil {
		p.log.Infof("merge %s: done, %dms", j.ID, merged.DurationMs())
	}
	j.events <- Event{Kind: EventCompleted, Audio: merged, Waveform: w}
}
