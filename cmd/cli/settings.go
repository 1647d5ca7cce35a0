package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var setFFmpegCmd = &cobra.Command{
	Use:   "set-ffmpeg <path>",
	Short: "Set and persist the ffmpeg binary path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		defer svc.Close()

		if err := svc.SetEncoderPath(args[0]); err != nil {
			return err
		}
		fmt.Println("ffmpeg path saved")
		return nil
	},
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Check for a newer release",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		defer svc.Close()

		rel, newer, err := svc.CheckForUpdates(context.Background(), true)
		if err != nil {
			return fmt.Errorf("update check: %w", err)
		}
		if newer {
			fmt.Printf("new version available: %s\n%s\n", rel.TagName, rel.HTMLURL)
		} else {
			fmt.Printf("already up to date (version %s)\n", cfg.AppVersion)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setFFmpegCmd)
	rootCmd.AddCommand(updateCmd)
}
