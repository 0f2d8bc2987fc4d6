// Package main provides the entry point for the framestack CLI tool.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/framestack/cmd/framestack/commands"
	"github.com/Sumatoshi-tech/framestack/pkg/version"
)

var verbose bool

func main() {
	version.InitBinaryVersion()

	rootCmd := &cobra.Command{
		Use:   "framestack",
		Short: "Framestack - uniform lazy access to image sequences",
		Long: `Framestack opens directories of images, globs, video containers and
frame stacks behind one lazy, indexable sequence interface.

Commands:
  info      Inspect a sequence's length, shape, dtype, and metadata
  formats   List the registered format backends
  export    Re-encode a sequence (optionally transformed) as a rawstack file
  plot      Render a per-frame mean-intensity chart`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}

			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("config", "", "config file path")

	rootCmd.AddCommand(commands.NewInfoCommand())
	rootCmd.AddCommand(commands.NewFormatsCommand())
	rootCmd.AddCommand(commands.NewExportCommand())
	rootCmd.AddCommand(commands.NewPlotCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "framestack %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
