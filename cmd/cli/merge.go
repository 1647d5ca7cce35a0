package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/trackstitch/trackstitch/pkg/stitch"
	"github.com/trackstitch/trackstitch/pkg/stitch/codec"
	"github.com/trackstitch/trackstitch/pkg/stitch/timeline"
)

const silencePrefix = "silence:"

var (
	outPath   string
	outFormat string
	keepWAV   bool
)

var mergeCmd = &cobra.Command{
	Use:   "merge <entry>...",
	Short: "Merge clips and silence gaps into one track",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runMerge,
}

func init() {
	mergeCmd.Flags().StringVarP(&outPath, "out", "o", "", "export the merged track to this path")
	mergeCmd.Flags().StringVar(&outFormat, "format", "", "export format: mp3 or wav (default from --out extension)")
	mergeCmd.Flags().BoolVar(&keepWAV, "keep-preview", false, "print the preview WAV location instead of deleting it")
	rootCmd.AddCommand(mergeCmd)
}

// parseEntries turns command arguments into timeline entries. Silence
// markers use the form silence:<duration>.
func parseEntries(tl *timeline.Timeline, args []string) error {
	for _, arg := range args {
		if strings.HasPrefix(strings.ToLower(arg), silencePrefix) {
			d, err := time.ParseDuration(arg[len(silencePrefix):])
			if err != nil {
				return fmt.Errorf("bad silence marker %q: %w", arg, err)
			}
			tl.Append(timeline.Silence(d.Milliseconds()))
			continue
		}
		if !codec.SupportedSource(arg) {
			return fmt.Errorf("unsupported audio file: %s", arg)
		}
		if _, err := os.Stat(arg); err != nil {
			return fmt.Errorf("source file: %w", err)
		}
		tl.Append(timeline.SourceFile(arg))
	}
	return nil
}

// promptForFFmpeg asks on the terminal for an ffmpeg path when the
// resolution chain comes up empty.
func promptForFFmpeg() (string, error) {
	fmt.Fprint(os.Stderr, "ffmpeg not found; enter its path (empty to abort): ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func newService() (*stitch.Service, error) {
	return stitch.NewService(
		stitch.WithTempDir(cfg.TempDir),
		stitch.WithDBPath(cfg.DBPath),
		stitch.WithAppVersion(cfg.AppVersion),
		stitch.WithGitHubRepo(cfg.GitHubRepo),
		stitch.WithPreviewPoints(cfg.PreviewPoints),
		stitch.WithEncoderPrompt(promptForFFmpeg),
	)
}

func runMerge(cmd *cobra.Command, args []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	defer svc.Close()

	if cfg.FFmpegPath != "" {
		if err := svc.SetEncoderPath(cfg.FFmpegPath); err != nil {
			return err
		}
	}
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
	if outcome == stitch.MergeCancelled {
		return nil
	}

	merged := svc.Merged()
	fmt.Printf("merged %d entries into %s\n",
		svc.Timeline().Len(), formatDuration(merged.DurationMs()))
	if svc.PreviewPath() != "" {
		if keepWAV {
			fmt.Printf("preview: %s\n", svc.PreviewPath())
		} else {
			defer os.Remove(svc.PreviewPath())
		}
	}

	if outPath == "" {
		return nil
	}
	format := outFormat
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(outPath), ".")
		if format == "" {
			format = "mp3"
		}
	}
	if err := svc.Export(ctx, outPath, format); err != nil {
		return err
	}
	fmt.Printf("exported: %s\n", outPath)
	return nil
}

func formatDuration(ms int64) string {
	return (time.Duration(ms) * time.Millisecond).String()
}
