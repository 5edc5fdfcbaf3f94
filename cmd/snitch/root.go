package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for snitch.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snitch",
		Short: "Concurrent Gopher crawler and search index",
		Long: `snitch crawls Gopher space and stores every menu and text file it finds
in a SQLite full-text index that can be searched afterwards.

A crawl runs until it is interrupted. Addresses that were discovered but
not fetched stay in the database, and --seed-from-db picks them up again.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewSearchCmd())
	cmd.AddCommand(NewStatsCmd())
	cmd.AddCommand(NewFetchCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
