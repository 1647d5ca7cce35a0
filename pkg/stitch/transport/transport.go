package transport

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/trackstitch/trackstitch/pkg/stitch/pcm"
)

// ErrNoMedia is returned when playback is requested before any merge has
// produced something to play.
var ErrNoMedia = errors.New("no merged audio loaded")

// meterWindowMs is the trailing slice of the merged buffer fed to the
// volume meter on each tick.
const meterWindowMs = 50

// DefaultTickInterval is how often the transport refreshes position, time
// label and meter while playing.
const DefaultTickInterval = 50 * time.Millisecond

// State is the transport position in its lifecycle.
type State int

const (
	Idle State = iota
	Stopped
	Playing
	Paused
	Seeking
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Seeking:
		return "seeking"
	default:
		return "unknown"
	}
}

// PlayerState mirrors the external media player's reported state.
type PlayerState int

const (
	PlayerStopped PlayerState = iota
	PlayerPlaying
	PlayerPaused
)

// Player is the external media-playback collaborator.
type Player interface {
	Load(path string) error
	Play() error
	Pause() error
	Stop() error
	SetPosition(ms int64) error
	Position() int64
}

// Display receives the transport's view updates: seek range, position,
// elapsed/total label and meter level.
type Display interface {
	SetRange(durationMs int64)
	SetPosition(ms int64)
	SetTimeLabel(label string)
	SetMeter(level int)
}

// NopDisplay discards all view updates.
type NopDisplay struct{}

func (NopDisplay) SetRange(int64)      {}
func (NopDisplay) SetPosition(int64)   {}
func (NopDisplay) SetTimeLabel(string) {}
func (NopDisplay) SetMeter(int)        {}

// Controller keeps the transport position, the seek control, the time label
// and the volume meter mutually consistent while the player advances
// asynchronously. All state lives behind one mutex; the periodic tick runs
// on its own goroutine and never overlaps itself.
type Controller struct {
	mu sync.Mutex

	player  Player
	display Display

	state                State
	positionMs           int64
	durationMs           int64
	stateBeforeSeek      State
	wasPlayingBeforeSeek bool

	media        *pcm.Buffer
	tickInterval time.Duration
	tickStop     chan struct{}
}

// NewController returns a transport in the Idle state. display may be nil.
func NewController(player Player, display Display) *Controller {
	if display == nil {
		display = NopDisplay{}
	}
	return &Controller{
		player:       player,
		display:      display,
		state:        Idle,
		tickInterval: DefaultTickInterval,
	}
}

// SetTickInterval overrides the tick period. Only meaningful before play.
func (c *Controller) SetTickInterval(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d > 0 {
		c.tickInterval = d
	}
}

// SetMedia installs a freshly merged buffer and its preview artifact,
// replacing any previous media wholesale. The transport moves to Stopped
// with the position reset.
func (c *Controller) SetMedia(buf *pcm.Buffer, previewPath string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopTickLocked()
	if c.player != nil {
		c.player.Stop()
		if previewPath != "" {
			if err := c.player.Load(previewPath); err != nil {
				return err
			}
		}
	}
	c.media = buf
	c.positionMs = 0
	c.durationMs = buf.DurationMs()
	c.state = Stopped
	c.display.SetRange(c.durationMs)
	c.refreshLocked()
	return nil
}

// State returns the current transport state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Position returns the current position in milliseconds.
func (c *Controller) Position() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.positionMs
}

// Duration returns the media duration in milliseconds.
func (c *Controller) Duration() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.durationMs
}

// Play starts playback from the current position. Valid from Stopped or
// Paused; a non-zero position is committed to the player before starting.
func (c *Controller) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.media == nil {
		return ErrNoMedia
	}
	if c.state != Stopped && c.state != Paused {
		return fmt.Errorf("cannot play from state %s", c.state)
	}
	if c.player != nil {
		if c.positionMs > 0 {
			if err := c.player.SetPosition(c.positionMs); err != nil {
				return err
			}
		}
		if err := c.player.Play(); err != nil {
			return err
		}
	}
	c.state = Playing
	c.startTickLocked()
	return nil
}

// Pause suspends playback, keeping the position.
func (c *Controller) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Playing {
		return nil
	}
	if c.player != nil {
		if err := c.player.Pause(); err != nil {
			return err
		}
	}
	c.state = Paused
	c.stopTickLocked()
	return nil
}

// Stop halts playback from any state and resets the position to zero.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.player != nil {
		c.player.Stop()
	}
	c.stopTickLocked()
	c.state = Stopped
	c.positionMs = 0
	c.refreshLocked()
	return nil
}

// BeginSeek enters the drag state. Playback and the tick halt; whether the
// transport was playing is remembered so EndSeek can resume it.
func (c *Controller) BeginSeek() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.wasPlayingBeforeSeek = c.state == Playing
	c.stateBeforeSeek = c.state
	if c.player != nil {
		c.player.Stop()
	}
	c.stopTickLocked()
	c.state = Seeking
}

// UpdateSeek tracks a drag in progress. Only the displayed position moves;
// the player is deliberately left alone until EndSeek commits.
func (c *Controller) UpdateSeek(ms int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Seeking {
		return
	}
	c.positionMs = c.clampLocked(ms)
	c.display.SetTimeLabel(c.timeLabelLocked())
}

// EndSeek commits the dragged position to the player exactly once and
// resumes playback if the drag interrupted it; otherwise the transport
// falls back to its pre-drag state.
func (c *Controller) EndSeek(ms int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Seeking {
		return nil
	}
	c.positionMs = c.clampLocked(ms)
	c.display.SetTimeLabel(c.timeLabelLocked())

	resume := c.wasPlayingBeforeSeek && c.media != nil
	c.wasPlayingBeforeSeek = false

	if c.player != nil {
		if err := c.player.SetPosition(c.positionMs); err != nil {
			return err
		}
	}
	if resume {
		if c.player != nil {
			if err := c.player.Play(); err != nil {
				return err
			}
		}
		c.state = Playing
		c.startTickLocked()
		return nil
	}
	if c.stateBeforeSeek == Paused {
		c.state = Paused
	} else {
		c.state = Stopped
	}
	return nil
}

// OnPlayerPosition handles the player's asynchronous position callback.
// Drag-in-progress values are authoritative, so the callback is ignored
// while Seeking.
func (c *Controller) OnPlayerPosition(ms int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Seeking {
		return
	}
	c.positionMs = c.clampLocked(ms)
	c.refreshLocked()
}

// OnPlayerDuration handles the player's duration callback and resizes the
// seek range.
func (c *Controller) OnPlayerDuration(ms int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ms < 0 {
		ms = 0
	}
	c.durationMs = ms
	c.display.SetRange(ms)
	c.display.SetTimeLabel(c.timeLabelLocked())
}

// OnPlayerState follows the player's own state changes: the tick runs only
// while the player reports playing. A player that stops on its own (end of
// media) moves the transport to Stopped without resetting the position.
func (c *Controller) OnPlayerState(st PlayerState) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if st == PlayerPlaying {
		if c.state == Playing {
			c.startTickLocked()
		}
		return
	}
	c.stopTickLocked()
	if c.state == Playing {
		if st == PlayerPaused {
			c.state = Paused
		} else {
			c.state = Stopped
		}
	}
}

// Tick performs one refresh step: re-read the player position, update the
// seek visuals and time label, and recompute the meter from the trailing
// window of the merged buffer. It is driven by the internal ticker but
// exposed for callers that schedule their own refresh.
func (c *Controller) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Playing || c.media == nil {
		return
	}
	if c.player != nil {
		c.positionMs = c.clampLocked(c.player.Position())
	}
	c.refreshLocked()
	c.display.SetMeter(c.meterLocked())
}

// meterLocked computes the live volume level from the last meterWindowMs of
// media before the current position. Any fault while slicing near a buffer
// boundary degrades to a zero reading.
func (c *Controller) meterLocked() (level int) {
	defer func() {
		if r := recover(); r != nil {
			level = 0
		}
	}()
	window := c.media.SliceMs(c.positionMs-meterWindowMs, c.positionMs)
	return pcm.MeterLevel(window)
}

func (c *Controller) refreshLocked() {
	c.display.SetPosition(c.positionMs)
	c.display.SetTimeLabel(c.timeLabelLocked())
}

func (c *Controller) timeLabelLocked() string {
	return FormatMs(c.positionMs) + " / " + FormatMs(c.durationMs)
}

func (c *Controller) clampLocked(ms int64) int64 {
	if ms < 0 {
		return 0
	}
	if c.durationMs > 0 && ms > c.durationMs {
		return c.durationMs
	}
	return ms
}

func (c *Controller) startTickLocked() {
	if c.tickStop != nil {
		return
	}
	stop := make(chan struct{})
	c.tickStop = stop
	interval := c.tickInterval
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				c.Tick()
			}
		}
	}()
}

func (c *Controller) stopTickLocked() {
	if c.tickStop != nil {
		close(c.tickStop)
		c.tickStop = nil
	}
}

// Close stops the tick goroutine.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTickLocked()
}

// FormatMs renders a millisecond position as mm:ss.
func FormatMs(ms int64) string {
	sec := ms / 1000
	return fmt.Sprintf("%02d:%02d", sec/60, sec%60)
}
