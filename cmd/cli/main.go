package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/trackstitch/trackstitch/config"
	"github.com/trackstitch/trackstitch/pkg/logger"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "trackstitch",
	Short: "Stitch audio clips and silence gaps into one track.",
	Long: `trackstitch assembles an ordered list of audio clips and silence
gaps into a single track, previews it and exports it as MP3 or WAV.

Timeline entries are given as arguments: audio file paths, or silence
markers of the form silence:<duration> (e.g. silence:1.5s, silence:500ms).`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Init(logger.Config{
			Level:      cfg.LogLevel,
			OutputPath: cfg.LogPath,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     14,
		})
	},
}

func init() {
	cfg = config.Load()
	rootCmd.PersistentFlags().StringVar(&cfg.DBPath, "db", cfg.DBPath, "settings database path")
	rootCmd.PersistentFlags().StringVar(&cfg.TempDir, "temp", cfg.TempDir, "directory for temporary files")
}

func main() {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
