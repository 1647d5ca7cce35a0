package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/trackstitch/trackstitch/pkg/stitch"
	"github.com/trackstitch/trackstitch/pkg/stitch/player"
	"github.com/trackstitch/trackstitch/pkg/stitch/transport"
)

var playCmd = &cobra.Command{
	Use:   "play <entry>...",
	Short: "Merge and play the result through ffplay",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)
}

// terminalDisplay renders transport updates as a single status line with a
// crude level bar.
type terminalDisplay struct {
	mu    sync.Mutex
	label string
	meter int
}

func (d *terminalDisplay) SetRange(int64)    {}
func (d *terminalDisplay) SetPosition(int64) {}

func (d *terminalDisplay) SetTimeLabel(label string) {
	d.mu.Lock()
	d.label = label
	d.renderLocked()
	d.mu.Unlock()
}

func (d *terminalDisplay) SetMeter(level int) {
	d.mu.Lock()
	d.meter = level
	d.renderLocked()
	d.mu.Unlock()
}

func (d *terminalDisplay) renderLocked() {
	bar := strings.Repeat("|", d.meter/5)
	fmt.Fprintf(os.Stderr, "\r%s [%-20s]", d.label, bar)
}

func runPlay(cmd *cobra.Command, args []string) error {
	ffplay := player.NewFFPlay("")
	display := &terminalDisplay{}

	svc, err := stitch.NewService(
		stitch.WithTempDir(cfg.TempDir),
		stitch.WithDBPath(cfg.DBPath),
		stitch.WithAppVersion(cfg.AppVersion),
		stitch.WithGitHubRepo(cfg.GitHubRepo),
		stitch.WithPreviewPoints(cfg.PreviewPoints),
		stitch.WithEncoderPrompt(promptForFFmpeg),
		stitch.WithPlayer(ffplay),
		stitch.WithDisplay(display),
	)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := parseEntries(svc.Timeline(), args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	outcome, err := svc.MergeAndWait(ctx, func(p int) {
		fmt.Fprintf(os.Stderr, "\rmerging... %3d%%", p)
	})
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}
	if outcome == stitch.MergeCancelled || svc.PreviewPath() == "" {
		return nil
	}

	tc := svc.Transport()
	done := make(chan struct{})
	ffplay.SetStateListener(func(st transport.PlayerState) {
		tc.OnPlayerState(st)
		if st == transport.PlayerStopped {
			close(done)
		}
	})

	if err := tc.Play(); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		tc.Stop()
	case <-done:
	}
	fmt.Fprintln(os.Stderr)
	return nil
}
