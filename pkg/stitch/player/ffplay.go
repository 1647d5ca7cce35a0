package player

import (
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"github.com/trackstitch/trackstitch/pkg/stitch/transport"
)

// FFPlay plays a local file by shelling out to ffplay. Position is tracked
// from wall time plus the seek offset; pausing or seeking restarts the
// process at the new offset. It satisfies transport.Player and notifies a
// listener when the process exits on its own (end of media).
type FFPlay struct {
	bin      string
	listener func(transport.PlayerState)

	mu        sync.Mutex
	path      string
	cmd       *exec.Cmd
	offsetMs  int64
	startedAt time.Time
	playing   bool
	gen       int
}

// NewFFPlay returns a player using the given ffplay binary ("ffplay" to use
// PATH).
func NewFFPlay(bin string) *FFPlay {
	if bin == "" {
		bin = "ffplay"
	}
	return &FFPlay{bin: bin}
}

// SetStateListener registers a callback for asynchronous state changes.
// It is invoked outside the player's lock.
func (p *FFPlay) SetStateListener(fn func(transport.PlayerState)) {
	p.mu.Lock()
	p.listener = fn
	p.mu.Unlock()
}

// Load points the player at a local file. Any current playback stops.
func (p *FFPlay) Load(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.killLocked()
	p.path = path
	p.offsetMs = 0
	p.playing = false
	return nil
}

// Play starts (or resumes) playback from the current offset.
func (p *FFPlay) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.path == "" {
		return errors.New("no media loaded")
	}
	if p.playing {
		return nil
	}
	return p.spawnLocked()
}

// Pause stops the process, keeping the position for the next Play.
func (p *FFPlay) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.playing {
		p.offsetMs = p.positionLocked()
		p.killLocked()
	}
	return nil
}

// Stop ends playback and rewinds to the start.
func (p *FFPlay) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.killLocked()
	p.offsetMs = 0
	return nil
}

// SetPosition moves the playhead. If playing, the process restarts at the
// new offset.
func (p *FFPlay) SetPosition(ms int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if ms < 0 {
		ms = 0
	}
	p.offsetMs = ms
	if p.playing {
		p.killLocked()
		return p.spawnLocked()
	}
	return nil
}

// Position returns the playhead position in milliseconds.
func (p *FFPlay) Position() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.positionLocked()
}

func (p *FFPlay) positionLocked() int64 {
	if !p.playing {
		return p.offsetMs
	}
	return p.offsetMs + time.Since(p.startedAt).Milliseconds()
}

func (p *FFPlay) spawnLocked() error {
	args := []string{"-nodisp", "-autoexit", "-loglevel", "quiet"}
	if p.offsetMs > 0 {
		args = append(args, "-ss", formatSeconds(p.offsetMs))
	}
	args = append(args, p.path)

	cmd := exec.Command(p.bin, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	p.cmd = cmd
	p.startedAt = time.Now()
	p.playing = true
	p.gen++
	gen := p.gen

	go func() {
		cmd.Wait()
		p.mu.Lock()
		// A newer generation means we killed this process ourselves.
		natural := p.gen == gen && p.playing
		if natural {
			p.offsetMs = 0
			p.playing = false
			p.cmd = nil
		}
		fn := p.listener
		p.mu.Unlock()
		if natural && fn != nil {
			fn(transport.PlayerStopped)
		}
	}()
	return nil
}

func (p *FFPlay) killLocked() {
	if p.cmd != nil && p.cmd.Process != nil {
		p.gen++ // mark the pending Wait as self-inflicted
		p.cmd.Process.Kill()
	}
	p.cmd = nil
	p.playing = false
}

// formatSeconds renders milliseconds the way ffplay's -ss flag expects.
func formatSeconds(ms int64) string {
	return fmt.Sprintf("%.3f", float64(ms)/1000.0)
}
