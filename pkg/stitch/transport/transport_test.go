package transport

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/trackstitch/trackstitch/pkg/stitch/pcm"
)

type fakePlayer struct {
	mu sync.Mutex

	loaded   string
	playing  bool
	position int64

	playCalls        int
	pauseCalls       int
	stopCalls        int
	setPositionCalls []int64
}

func (p *fakePlayer) Load(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loaded = path
	return nil
}

func (p *fakePlayer) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = true
	p.playCalls++
	return nil
}

func (p *fakePlayer) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = false
	p.pauseCalls++
	return nil
}

func (p *fakePlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = false
	p.stopCalls++
	return nil
}

func (p *fakePlayer) SetPosition(ms int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.position = ms
	p.setPositionCalls = append(p.setPositionCalls, ms)
	return nil
}

func (p *fakePlayer) Position() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position
}

func (p *fakePlayer) seeks() []int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]int64, len(p.setPositionCalls))
	copy(out, p.setPositionCalls)
	return out
}

type recordingDisplay struct {
	mu sync.Mutex

	rangeMs    int64
	positionMs int64
	label      string
	meter      int
	meterSet   bool
}

func (d *recordingDisplay) SetRange(ms int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rangeMs = ms
}

func (d *recordingDisplay) SetPosition(ms int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.positionMs = ms
}

func (d *recordingDisplay) SetTimeLabel(label string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.label = label
}

func (d *recordingDisplay) SetMeter(level int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.meter = level
	d.meterSet = true
}

// newTestController wires a controller to fakes with the periodic tick
// effectively disabled so tests drive Tick by hand.
func newTestController(t *testing.T, durationMs int64) (*Controller, *fakePlayer, *recordingDisplay) {
	t.Helper()
	p := &fakePlayer{}
	d := &recordingDisplay{}
	c := NewController(p, d)
	c.SetTickInterval(time.Hour)
	t.Cleanup(c.Close)

	buf := pcm.Silence(durationMs, pcm.DefaultFormat)
	if err := c.SetMedia(buf, "/tmp/preview.wav"); err != nil {
		t.Fatalf("SetMedia: %v", err)
	}
	return c, p, d
}

func TestPlayWithoutMedia(t *testing.T) {
	c := NewController(&fakePlayer{}, nil)
	if err := c.Play(); !errors.Is(err, ErrNoMedia) {
		t.Errorf("Play error = %v, want ErrNoMedia", err)
	}
	if c.State() != Idle {
		t.Errorf("state = %s, want idle", c.State())
	}
}

func TestSetMediaResetsTransport(t *testing.T) {
	c, p, d := newTestController(t, 3000)

	if c.State() != Stopped {
		t.Errorf("state = %s, want stopped", c.State())
	}
	if p.loaded != "/tmp/preview.wav" {
		t.Errorf("loaded = %q", p.loaded)
	}
	if d.rangeMs != 3000 {
		t.Errorf("range = %d, want 3000", d.rangeMs)
	}
	if d.label != "00:00 / 00:03" {
		t.Errorf("label = %q, want 00:00 / 00:03", d.label)
	}
}

func TestPlayPauseStop(t *testing.T) {
	c, p, _ := newTestController(t, 3000)

	if err := c.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if c.State() != Playing {
		t.Fatalf("state = %s, want playing", c.State())
	}
	if len(p.seeks()) != 0 {
		t.Error("play from position 0 should not seek the player")
	}

	if err := c.Pause(); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if c.State() != Paused {
		t.Fatalf("state = %s, want paused", c.State())
	}

	// Resuming from a non-zero position commits it first.
	c.OnPlayerPosition(1200)
	if err := c.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if seeks := p.seeks(); len(seeks) != 1 || seeks[0] != 1200 {
		t.Errorf("seeks = %v, want [1200]", seeks)
	}

	if err := c.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if c.State() != Stopped {
		t.Errorf("state = %s, want stopped", c.State())
	}
	if c.Position() != 0 {
		t.Errorf("position = %d after stop, want 0", c.Position())
	}
}

func TestPlayFromPlayingIsRejected(t *testing.T) {
	c, _, _ := newTestController(t, 3000)
	if err := c.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if err := c.Play(); err == nil {
		t.Error("second Play while playing should error")
	}
}

func TestSeekDragCommitsOnce(t *testing.T) {
	c, p, _ := newTestController(t, 10000)
	if err := c.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}

	c.BeginSeek()
	if c.State() != Seeking {
		t.Fatalf("state = %s, want seeking", c.State())
	}

	// The drag only moves the display; the player is untouched.
	c.UpdateSeek(2000)
	c.UpdateSeek(4000)
	c.UpdateSeek(6000)
	if len(p.seeks()) != 0 {
		t.Fatalf("seeks during drag = %v, want none", p.seeks())
	}

	if err := c.EndSeek(6500); err != nil {
		t.Fatalf("EndSeek: %v", err)
	}
	if seeks := p.seeks(); len(seeks) != 1 || seeks[0] != 6500 {
		t.Errorf("seeks = %v, want exactly [6500]", seeks)
	}
	if c.State() != Playing {
		t.Errorf("state = %s, want playing resumed", c.State())
	}
	if c.Position() != 6500 {
		t.Errorf("position = %d, want 6500", c.Position())
	}
}

func TestSeekWhilePausedStaysPaused(t *testing.T) {
	c, _, _ := newTestController(t, 10000)
	if err := c.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if err := c.Pause(); err != nil {
		t.Fatalf("Pause: %v", err)
	}

	c.BeginSeek()
	c.UpdateSeek(3000)
	if err := c.EndSeek(3000); err != nil {
		t.Fatalf("EndSeek: %v", err)
	}
	if c.State() != Paused {
		t.Errorf("state = %s, want paused", c.State())
	}
}

func TestSeekClampsToDuration(t *testing.T) {
	c, p, _ := newTestController(t, 5000)

	c.BeginSeek()
	c.UpdateSeek(99999)
	if err := c.EndSeek(99999); err != nil {
		t.Fatalf("EndSeek: %v", err)
	}
	if c.Position() != 5000 {
		t.Errorf("position = %d, want clamped 5000", c.Position())
	}
	if seeks := p.seeks(); len(seeks) != 1 || seeks[0] != 5000 {
		t.Errorf("seeks = %v, want [5000]", seeks)
	}
}

func TestPlayerPositionIgnoredWhileSeeking(t *testing.T) {
	c, _, _ := newTestController(t, 10000)

	c.BeginSeek()
	c.UpdateSeek(4000)
	c.OnPlayerPosition(800) // stale async callback mid-drag
	if c.Position() != 4000 {
		t.Errorf("position = %d, want drag value 4000", c.Position())
	}
	if err := c.EndSeek(4000); err != nil {
		t.Fatalf("EndSeek: %v", err)
	}

	c.OnPlayerPosition(4200)
	if c.Position() != 4200 {
		t.Errorf("position = %d after drag ended, want 4200", c.Position())
	}
}

func TestEndOfMediaKeepsPosition(t *testing.T) {
	c, _, _ := newTestController(t, 3000)
	if err := c.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}
	c.OnPlayerPosition(3000)

	c.OnPlayerState(PlayerStopped)
	if c.State() != Stopped {
		t.Errorf("state = %s, want stopped", c.State())
	}
	if c.Position() != 3000 {
		t.Errorf("position = %d, want preserved 3000", c.Position())
	}
}

func TestTickUpdatesMeter(t *testing.T) {
	c, p, d := newTestController(t, 2000)
	if err := c.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}

	t.Run("silent media reads zero", func(t *testing.T) {
		p.SetPosition(1000)
		c.Tick()
		if !d.meterSet {
			t.Fatal("meter never updated")
		}
		if d.meter != 0 {
			t.Errorf("meter = %d for silence, want 0", d.meter)
		}
	})

	t.Run("position zero does not panic", func(t *testing.T) {
		p.SetPosition(0)
		c.Tick()
		if d.meter != 0 {
			t.Errorf("meter = %d, want 0", d.meter)
		}
	})

	t.Run("loud window moves the meter", func(t *testing.T) {
		buf := pcm.Silence(2000, pcm.DefaultFormat)
		for i := range buf.Data {
			buf.Data[i] = 8000
		}
		if err := c.SetMedia(buf, ""); err != nil {
			t.Fatalf("SetMedia: %v", err)
		}
		if err := c.Play(); err != nil {
			t.Fatalf("Play: %v", err)
		}
		p.SetPosition(1000)
		c.Tick()
		if d.meter != 100 {
			t.Errorf("meter = %d for constant amplitude, want 100", d.meter)
		}
	})
}

func TestTickIgnoredWhenNotPlaying(t *testing.T) {
	c, p, d := newTestController(t, 2000)
	p.SetPosition(500)
	c.Tick()
	if d.meterSet {
		t.Error("meter updated while stopped")
	}
	if c.Position() != 0 {
		t.Errorf("position = %d, want 0", c.Position())
	}
}

func TestFormatMs(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{0, "00:00"},
		{999, "00:00"},
		{1000, "00:01"},
		{61000, "01:01"},
		{600000, "10:00"},
	}
	for _, tt := range tests {
		if got := FormatMs(tt.ms); got != tt.want {
			t.Errorf("FormatMs(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}
