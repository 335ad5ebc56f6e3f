// Package cmd defines and implements the CLI commands for the discovery executable.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discovery",
		Short: "Content discovery pipeline for the fan-club site.",
		Long: `discovery is the scheduled ingestion tool for the fan-club content site.
Given a topic query it fans out to the enabled content sources, deduplicates
candidates against stored content, persists new items with their media
references, and advances the incremental search cursor.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is environment-only)")

	cmd.AddCommand(newDiscoverCmd())

	return cmd
}

// Execute is the main entry point. A fatal run failure exits non-zero so the
// external scheduler's monitoring can alert.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
