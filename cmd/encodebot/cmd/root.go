// Package cmd implements the CLI commands for encodebot.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/lumenmedia/encodebot/internal/version"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:     "encodebot",
	Short:   "Chat-driven media transcoding toolkit",
	Version: version.Short(),
	Long: `encodebot runs media operations (transcode, trim, crop, merge and more)
through a supervised ffmpeg pipeline with live progress reporting.

The run command executes a single operation locally; chat frontends embed
the same job coordinator behind their own transport.`,
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("executing root command: %w", err)
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		initLogging(cmd)
	}
}

// initLogging configures the process-wide slog default from the root flags.
func initLogging(cmd *cobra.Command) {
	levelName, _ := cmd.Flags().GetString("log-level")
	formatName, _ := cmd.Flags().GetString("log-format")

	var level slog.Level
	if err := level.UnmarshalText([]byte(levelName)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if formatName == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
