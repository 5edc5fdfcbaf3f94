package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewStatsCmd creates the stats command.
func NewStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show what the crawl database contains",
		Long: `Stats summarizes the crawl database: how many addresses are known, how
many were fetched, how many menus are still waiting to be crawled, and
(with --verbose or a report format) the breakdown by item type.

Examples:
  snitch stats
  snitch stats -v
  snitch stats --markdown > STATS.md`,
		Args: cobra.NoArgs,
		RunE: runStatsCmd,
	}

	addDBFlag(cmd)
	addLogFlags(cmd)
	addReportFlags(cmd)

	return cmd
}

// runStatsCmd executes the stats command.
func runStatsCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.ValidateOutput(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	db, err := openExistingDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	stats, err := db.Stats(cmd.Context())
	if err != nil {
		return err
	}
	newLogger(cmd, cfg).Debug("read database stats", "path", db.Path(), "pages", stats.Pages)

	_, err = newReportWriter(cmd.OutOrStdout(), cfg).WriteStats(stats)
	return err
}
