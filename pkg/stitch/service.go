package stitch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/trackstitch/trackstitch/pkg/logger"
	"github.com/trackstitch/trackstitch/pkg/stitch/codec"
	"github.com/trackstitch/trackstitch/pkg/stitch/export"
	"github.com/trackstitch/trackstitch/pkg/stitch/merge"
	"github.com/trackstitch/trackstitch/pkg/stitch/pcm"
	"github.com/trackstitch/trackstitch/pkg/stitch/storage"
	"github.com/trackstitch/trackstitch/pkg/stitch/timeline"
	"github.com/trackstitch/trackstitch/pkg/stitch/transport"
	"github.com/trackstitch/trackstitch/pkg/stitch/update"
)

// ErrTimelineEmpty is returned when a merge is requested with no entries.
var ErrTimelineEmpty = errors.New("timeline is empty: add audio files first")

// MergeOutcome is the terminal result of a finished merge.
type MergeOutcome int

const (
	// MergeCompleted means the merged audio and preview are installed.
	MergeCompleted MergeOutcome = iota
	// MergeCancelled means the job was aborted on request: no result, no
	// error, prior merged audio untouched.
	MergeCancelled
)

// cancelWait bounds the graceful-stop window after a cancellation request.
const cancelWait = 3 * time.Second

// Service is the control-context facade over the timeline, the merge
// pipeline, the transport and the export gate. All of its methods are meant
// to be called from a single goroutine; background work communicates back
// only through job event channels.
type Service struct {
	cfg      *Config
	log      Logger
	settings Settings
	codec    Codec
	resolver *codec.Resolver

	timeline  *timeline.Timeline
	pipeline  *merge.Pipeline
	transport *transport.Controller
	gate      *export.Gate
	checker   *update.Checker

	ownSettings bool
	merged      *pcm.Buffer
	waveform    pcm.Waveform
	previewPath string
}

// NewService wires a service from options.
func NewService(opts ...Option) (*Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.S()
	}

	s := &Service{
		cfg:      cfg,
		log:      cfg.Logger,
		timeline: timeline.New(),
		checker:  update.NewChecker(cfg.GitHubRepo),
	}

	if cfg.Settings != nil {
		s.settings = cfg.Settings
	} else {
		store, err := storage.Open(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening settings store: %w", err)
		}
		s.settings = store
		s.ownSettings = true
	}

	override, _, err := s.settings.Get(storage.KeyFFmpegPath)
	if err != nil {
		s.log.Warnf("reading ffmpeg override: %v", err)
	}
	s.resolver = &codec.Resolver{
		Override: override,
		Prompt:   cfg.Prompt,
		Persist: func(path string) error {
			return s.settings.Set(storage.KeyFFmpegPath, path)
		},
	}

	if cfg.Codec != nil {
		s.codec = cfg.Codec
	} else {
		s.codec = codec.NewFFmpeg(s.resolver, cfg.TempDir)
	}

	s.pipeline = merge.NewPipeline(s.codec, s.log, cfg.PreviewPoints)
	s.gate = export.NewGate(s.codec, s.resolver)
	if cfg.Player != nil {
		s.transport = transport.NewController(cfg.Player, cfg.Display)
	} else if cfg.Display != nil {
		s.transport = transport.NewController(nil, cfg.Display)
	}

	return s, nil
}

// Timeline returns the merge recipe for direct manipulation.
func (s *Service) Timeline() *timeline.Timeline { return s.timeline }

// Transport returns the playback controller, or nil when the service was
// built without a player or display.
func (s *Service) Transport() *transport.Controller { return s.transport }

// Merged returns the most recent successful merge, if any.
func (s *Service) Merged() *pcm.Buffer { return s.merged }

// Waveform returns the preview derived from the most recent merge.
func (s *Service) Waveform() pcm.Waveform { return s.waveform }

// PreviewPath returns the location of the transient preview WAV.
func (s *Service) PreviewPath() string { return s.previewPath }

// Merge submits the current timeline snapshot to the pipeline. While a job
// is already running the existing handle is returned with started == false.
func (s *Service) Merge() (*merge.Job, bool, error) {
	if s.timeline.Len() == 0 {
		return nil, false, ErrTimelineEmpty
	}
	job, started := s.pipeline.Submit(s.timeline.Snapshot())
	return job, started, nil
}

// MergeAndWait runs a merge to completion, invoking onProgress (when
// non-nil) for each progress event. Cancelling ctx cancels the job; the
// outcome is then MergeCancelled with prior merged audio left untouched.
func (s *Service) MergeAndWait(ctx context.Context, onProgress func(int)) (MergeOutcome, error) {
	job, started, err := s.Merge()
	if err != nil {
		return MergeCancelled, err
	}
	if !started {
		return MergeCancelled, errors.New("a merge is already running")
	}

	events := job.Events()
	for {
		select {
		case <-ctx.Done():
			job.Cancel()
			if !job.Wait(cancelWait) {
				s.log.Warnf("merge %s did not stop within %s", job.ID, cancelWait)
				return MergeCancelled, nil
			}
			// The worker may have finished before observing the cancel;
			// honor a completed result that raced in.
			for ev := range events {
				if ev.Kind == merge.EventCompleted {
					s.installMerge(ev.Audio, ev.Waveform)
					return MergeCompleted, nil
				}
			}
			return MergeCancelled, nil
		case ev, ok := <-events:
			if !ok {
				return MergeCancelled, nil
			}
			switch ev.Kind {
			case merge.EventProgress:
				if onProgress != nil {
					onProgress(ev.Progress)
				}
			case merge.EventCompleted:
				s.installMerge(ev.Audio, ev.Waveform)
				return MergeCompleted, nil
			case merge.EventFailed:
				return MergeCancelled, fmt.Errorf("merge failed: %s", ev.Err)
			case merge.EventCancelled:
				return MergeCancelled, nil
			}
		}
	}
}

// installMerge replaces the held result wholesale, writes the transient
// preview artifact and hands it to the transport.
func (s *Service) installMerge(buf *pcm.Buffer, w pcm.Waveform) {
	s.merged = buf
	s.waveform = w

	path := codec.PreviewPath(s.cfg.TempDir)
	if len(buf.Data) > 0 {
		if err := codec.WriteWAV(buf, path); err != nil {
			s.log.Warnf("writing preview artifact: %v", err)
			path = ""
		}
	} else {
		path = ""
	}
	s.previewPath = path

	if s.transport != nil {
		if err := s.transport.SetMedia(buf, path); err != nil {
			s.log.Warnf("loading preview into player: %v", err)
		}
	}
	s.log.Infof("merge installed: %dms, preview %q", buf.DurationMs(), path)
}

// Export encodes the current merged audio to dst in the given format
// ("mp3" or "wav").
func (s *Service) Export(ctx context.Context, dst, format string) error {
	return s.gate.Export(ctx, s.merged, dst, format)
}

// SetEncoderPath records a user-supplied ffmpeg path, persisting it so it
// survives restarts.
func (s *Service) SetEncoderPath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("ffmpeg path: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("ffmpeg path %s is a directory", path)
	}
	if err := s.settings.Set(storage.KeyFFmpegPath, path); err != nil {
		return err
	}
	s.resolver.SetOverride(path)
	return nil
}

// CheckForUpdates fetches the latest release. Automatic checks (manual ==
// false) run at most once per day, gated by the persisted last-check
// timestamp, and fail silently; manual checks always run and surface
// errors. The returned bool reports whether the release is newer than the
// running version.
func (s *Service) CheckForUpdates(ctx context.Context, manual bool) (*update.Release, bool, error) {
	if !manual {
		last, err := s.settings.GetInt64(storage.KeyLastUpdateCheck)
		if err != nil {
			s.log.Debugf("reading last update check: %v", err)
		}
		if !s.checker.Due(last) {
			return nil, false, nil
		}
	}

	rel, err := s.checker.Latest(ctx)
	if err != nil {
		if manual {
			return nil, false, err
		}
		s.log.Debugf("automatic update check: %v", err)
		return nil, false, nil
	}

	if err := s.settings.SetInt64(storage.KeyLastUpdateCheck, time.Now().Unix()); err != nil {
		s.log.Warnf("recording update check time: %v", err)
	}
	return rel, update.IsNewer(s.cfg.AppVersion, rel.TagName), nil
}

// Close releases the transport tick and the settings store (when the
// service opened it itself).
func (s *Service) Close() error {
	if s.transport != nil {
		s.transport.Close()
	}
	if s.ownSettings {
		return s.settings.Close()
	}
	return nil
}
