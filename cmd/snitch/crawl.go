package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nao1215/snitch/internal/config"
	"github.com/nao1215/snitch/internal/crawler"
	"github.com/nao1215/snitch/internal/database"
	"github.com/nao1215/snitch/internal/gopher"
	"github.com/nao1215/snitch/internal/tor"
)

const flagSeedFromDB = "seed-from-db"

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [seed-url...]",
		Short: "Crawl Gopher space and index what is found",
		Long: `Crawl fetches every menu and text file reachable from the seeds and stores
them in the database. It runs until interrupted (Ctrl-C or SIGTERM).

Binary files, images and other non-text items are recorded but not
downloaded. Links to .onion hosts are only followed through a proxy.

Examples:
  # Crawl from a well-known hole
  snitch crawl gopher://gopher.floodgap.com

  # Continue an interrupted crawl
  snitch crawl --seed-from-db

  # Crawl through a local Tor daemon, including onion gopher holes
  snitch crawl --proxy gopher://gopher.floodgap.com

  # Crawl through an embedded Tor daemon
  snitch crawl --embedded-tor gopher://gopher.floodgap.com`,
		Args: cobra.ArbitraryArgs,
		RunE: runCrawlCmd,
	}

	addDBFlag(cmd)
	addLogFlags(cmd)
	addProxyFlags(cmd)

	cmd.Flags().BoolP(flagSeedFromDB, "d", false,
		"Queue menus that are in the database but were never fetched")
	cmd.Flags().IntP(config.FlagThreads, "t", config.DefaultWorkers,
		"Number of concurrent fetchers")
	cmd.Flags().Int(config.FlagQueueLimit, 0,
		"Maximum number of queued addresses, 0 for unbounded")
	cmd.Flags().Int(config.FlagMaxDepth, config.DefaultMaxSelectorDepth,
		"Do not follow links of selectors with this many '/' or more")
	cmd.Flags().Duration(config.FlagStatsInterval, config.DefaultStatsInterval,
		"How often crawl progress is logged")
	cmd.Flags().Int64(config.FlagMaxBodySize, config.DefaultMaxBodySize,
		"Maximum number of bytes of a text file to index")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildCrawlConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := newLogger(cmd, cfg).With("run", uuid.NewString())
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runCrawl(ctx, cfg, logger, cmd.OutOrStdout())
}

// buildCrawlConfig adds the crawl flags to the common configuration.
// Seeds from the command line come before seeds from the config file.
func buildCrawlConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	changed := flags.Changed

	// Values the config file already set win over flag defaults.
	if cfg.SeedFromDB, err = flags.GetBool(flagSeedFromDB); err != nil {
		return nil, err
	}
	if changed(config.FlagThreads) {
		if cfg.Workers, err = flags.GetInt(config.FlagThreads); err != nil {
			return nil, err
		}
	}
	if changed(config.FlagQueueLimit) {
		if cfg.QueueLimit, err = flags.GetInt(config.FlagQueueLimit); err != nil {
			return nil, err
		}
	}
	if changed(config.FlagMaxDepth) {
		if cfg.MaxSelectorDepth, err = flags.GetInt(config.FlagMaxDepth); err != nil {
			return nil, err
		}
	}
	if changed(config.FlagStatsInterval) {
		if cfg.StatsInterval, err = flags.GetDuration(config.FlagStatsInterval); err != nil {
			return nil, err
		}
	}
	if changed(config.FlagMaxBodySize) {
		if cfg.MaxBodySize, err = flags.GetInt64(config.FlagMaxBodySize); err != nil {
			return nil, err
		}
	}

	cfg.Seeds = append(append([]string{}, args...), cfg.Seeds...)
	return cfg, nil
}

// runCrawl opens the database, connects the proxy and runs the spider
// until ctx is cancelled.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) error {
	db, err := database.Open(cfg.DBPath, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	logger.Info("database opened", "path", db.Path())

	proxyClient, stopProxy, err := connectProxy(ctx, cfg, logger)
	defer stopProxy()
	if err != nil {
		return err
	}

	var clientOpts []gopher.ClientOption
	if proxyClient != nil {
		clientOpts = append(clientOpts, gopher.WithDialer(proxyClient))
	}
	reachable := tor.ReachableHost(proxyClient != nil)

	spider := crawler.NewSpider(gopher.NewClient(clientOpts...), db,
		crawler.WithLogger(logger),
		crawler.WithWorkers(cfg.Workers),
		crawler.WithMaxSelectorDepth(cfg.MaxSelectorDepth),
		crawler.WithStatsInterval(cfg.StatsInterval),
		crawler.WithQueueLimit(cfg.QueueLimit),
		crawler.WithMaxBodySize(cfg.MaxBodySize),
		crawler.WithLinkFilter(func(u gopher.URL) bool {
			return reachable(u.Host)
		}),
	)

	if err := spider.Run(ctx, cfg.Seeds, cfg.SeedFromDB); err != nil {
		return err
	}

	st := spider.Stats()
	fmt.Fprintf(out, "Visited %d addresses, stored %d pages, %d failed, %d still queued\n",
		st.Visited, st.Stored, st.Failed, st.Queued)
	return nil
}
