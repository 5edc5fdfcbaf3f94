package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/snitch/internal/config"
	"github.com/nao1215/snitch/internal/search"
)

const (
	flagLimit  = "limit"
	flagNoStem = "no-stem"
)

// errInvalidLimit is returned when --limit is not positive.
var errInvalidLimit = errors.New("limit must be positive")

// NewSearchCmd creates the search command.
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <terms...>",
		Short: "Search the crawl database",
		Long: `Search looks up pages whose text contains all of the given terms.

Terms are stemmed, so "running" also finds "run" and "runs", and each
term matches as a prefix. Punctuation is ignored; quoting and boolean
operators are not supported.

Examples:
  # Find pages about phlogs
  snitch search phlog

  # All terms must match
  snitch search weather forecast

  # Markdown output, for pasting into a gopher hole's README
  snitch search -m retro computing`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSearchCmd,
	}

	addDBFlag(cmd)
	addLogFlags(cmd)
	addReportFlags(cmd)

	cmd.Flags().IntP(flagLimit, "n", config.DefaultSearchLimit,
		"Maximum number of results")
	cmd.Flags().Bool(flagNoStem, false,
		"Match terms literally instead of by their stem")

	return cmd
}

// runSearchCmd executes the search command.
func runSearchCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.SearchLimit, err = cmd.Flags().GetInt(flagLimit); err != nil {
		return err
	}
	if cfg.NoStem, err = cmd.Flags().GetBool(flagNoStem); err != nil {
		return err
	}

	if err := cfg.ValidateOutput(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if cfg.SearchLimit <= 0 {
		return fmt.Errorf("configuration error: %w", errInvalidLimit)
	}

	logger := newLogger(cmd, cfg)

	raw := strings.Join(args, " ")
	match, err := search.BuildQuery(raw, search.WithStemming(!cfg.NoStem))
	if err != nil {
		return fmt.Errorf("invalid query %q: %w", raw, err)
	}
	logger.Debug("built full-text query", "query", raw, "match", match)

	db, err := openExistingDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	hits, err := db.Search(cmd.Context(), match, cfg.SearchLimit)
	if err != nil {
		return err
	}

	_, err = newReportWriter(cmd.OutOrStdout(), cfg).WriteSearch(raw, hits)
	return err
}
