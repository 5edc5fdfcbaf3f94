package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/snitch/internal/frontier"
	"github.com/nao1215/snitch/internal/gopher"
)

const (
	// DefaultWorkers is the number of concurrent fetchers.
	DefaultWorkers = 10

	// DefaultMaxSelectorDepth is the number of '/' in a selector at which
	// a page is still stored but its links are no longer followed.
	// Generated menus can nest forever; real ones never get this deep.
	DefaultMaxSelectorDepth = 50

	// DefaultStatsInterval is how often progress is logged.
	DefaultStatsInterval = 30 * time.Second

	// DefaultMaxBodySize limits how much of a text file is indexed.
	DefaultMaxBodySize int64 = 5 * 1024 * 1024
)

// Spider coordinates a crawl.
//
// A Spider can run one crawl at a time. Stats may be called from any
// goroutine while Run is in progress.
type Spider struct {
	fetcher Fetcher
	store   Store
	logger  *slog.Logger

	workers          int
	maxSelectorDepth int
	statsInterval    time.Duration
	queueLimit       int
	maxBodySize      int64
	linkFilter       func(gopher.URL) bool

	stats counters
	queue atomic.Pointer[frontier.Queue]
}

// counters are updated by the coordinator and workers and read by Stats.
type counters struct {
	visited  atomic.Int64
	stored   atomic.Int64
	followed atomic.Int64
	failed   atomic.Int64
	storeErr atomic.Int64
	filtered atomic.Int64
}

// Stats is a snapshot of crawl progress.
type Stats struct {
	// Visited is the number of distinct addresses seen.
	Visited int64

	// Stored is the number of pages whose text was persisted.
	Stored int64

	// Followed is the number of links pushed onto the frontier.
	Followed int64

	// Failed is the number of addresses that could not be fetched.
	Failed int64

	// StoreErrors is the number of failed store writes.
	StoreErrors int64

	// Filtered is the number of addresses rejected by the link filter.
	Filtered int64

	// Queued is the current frontier length.
	Queued int

	// Dropped is the number of links the frontier refused.
	Dropped int64
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithWorkers sets the number of concurrent workers.
func WithWorkers(n int) SpiderOption {
	return func(s *Spider) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMaxSelectorDepth sets the depth guard.
func WithMaxSelectorDepth(depth int) SpiderOption {
	return func(s *Spider) {
		if depth > 0 {
			s.maxSelectorDepth = depth
		}
	}
}

// WithStatsInterval sets how often progress is logged.
func WithStatsInterval(d time.Duration) SpiderOption {
	return func(s *Spider) {
		if d > 0 {
			s.statsInterval = d
		}
	}
}

// WithQueueLimit caps the frontier. Links that do not fit stay in the
// store as stubs and are picked up by a later run seeded from the store.
// Zero means unbounded.
func WithQueueLimit(n int) SpiderOption {
	return func(s *Spider) {
		if n >= 0 {
			s.queueLimit = n
		}
	}
}

// WithMaxBodySize sets how many bytes of a text file are kept.
func WithMaxBodySize(n int64) SpiderOption {
	return func(s *Spider) {
		if n > 0 {
			s.maxBodySize = n
		}
	}
}

// WithLinkFilter drops addresses for which keep returns false. Dropped
// addresses are neither stored nor fetched.
func WithLinkFilter(keep func(gopher.URL) bool) SpiderOption {
	return func(s *Spider) {
		s.linkFilter = keep
	}
}

// NewSpider creates a Spider that fetches with fetcher and persists into
// store.
func NewSpider(fetcher Fetcher, store Store, opts ...SpiderOption) *Spider {
	s := &Spider{
		fetcher:          fetcher,
		store:            store,
		logger:           slog.Default(),
		workers:          DefaultWorkers,
		maxSelectorDepth: DefaultMaxSelectorDepth,
		statsInterval:    DefaultStatsInterval,
		maxBodySize:      DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run crawls from seeds until ctx is cancelled.
//
// When seedFromStore is true, menus the store knows about but never
// fetched are queued before seeds. Seeds that do not parse are logged and
// skipped. Run returns nil once ctx is done and all workers have exited;
// the only error it returns is a failure to load seeds from the store.
func (s *Spider) Run(ctx context.Context, seeds []string, seedFromStore bool) error {
	queue := frontier.New(frontier.WithLimit(s.queueLimit))
	s.queue.Store(queue)

	if seedFromStore {
		pending, err := s.store.PendingMenus(ctx)
		if err != nil {
			return fmt.Errorf("failed to load seeds from store: %w", err)
		}
		s.logger.Info("loaded pending menus from store", "count", len(pending))
		seeds = append(pending, seeds...)
	}

	visited := make(map[gopher.URL]struct{}, len(seeds))
	for _, raw := range seeds {
		u, err := gopher.ParseURL(raw)
		if err != nil {
			s.logger.Warn("skipping invalid seed", "seed", raw, "error", err)
			continue
		}
		s.enqueue(ctx, queue, visited, u)
	}
	s.logger.Info("crawl started", "seeds", queue.Len(), "workers", s.workers)

	results := make(chan Page, s.workers)
	g, gctx := errgroup.WithContext(ctx)
	for i := range s.workers {
		w := &worker{
			id:          i,
			fetcher:     s.fetcher,
			queue:       queue,
			results:     results,
			logger:      s.logger,
			maxBodySize: s.maxBodySize,
			stats:       &s.stats,
		}
		g.Go(func() error {
			w.run(gctx)
			return nil
		})
	}

	ticker := time.NewTicker(s.statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = g.Wait() //nolint:errcheck // workers never return errors
			s.logProgress("crawl stopped")
			return nil
		case page := <-results:
			s.handle(ctx, queue, visited, page)
		case <-ticker.C:
			s.logProgress("crawl progress")
		}
	}
}

// handle persists one result and schedules its unseen links.
func (s *Spider) handle(ctx context.Context, queue *frontier.Queue, visited map[gopher.URL]struct{}, page Page) {
	follow := true
	if depth := page.URL.Depth(); depth >= s.maxSelectorDepth {
		s.logger.Debug("not following links of deep selector", "url", page.URL.String(), "depth", depth)
		follow = false
	}

	if page.Text != nil {
		if err := s.store.StorePage(ctx, page.URL, *page.Text); err != nil {
			s.stats.storeErr.Add(1)
			s.logger.Error("failed to store page", "url", page.URL.String(), "error", err)
		} else {
			s.stats.stored.Add(1)
		}
	}

	if !follow {
		return
	}
	for _, link := range page.Links {
		s.enqueue(ctx, queue, visited, link)
	}
}

// enqueue stubs and pushes u unless it was seen before.
// Must only be called from Run's goroutine.
func (s *Spider) enqueue(ctx context.Context, queue *frontier.Queue, visited map[gopher.URL]struct{}, u gopher.URL) {
	if _, seen := visited[u]; seen {
		return
	}
	visited[u] = struct{}{}
	if s.linkFilter != nil && !s.linkFilter(u) {
		s.stats.filtered.Add(1)
		s.logger.Debug("filtered address", "url", u.String())
		return
	}
	s.stats.visited.Add(1)

	if err := s.store.StoreURLStub(ctx, u); err != nil {
		s.stats.storeErr.Add(1)
		s.logger.Error("failed to store url stub", "url", u.String(), "error", err)
	}

	if !queue.Push(u) {
		s.logger.Debug("frontier full, leaving address in store", "url", u.String())
		return
	}
	s.stats.followed.Add(1)
}

// Stats returns a snapshot of the crawl counters.
func (s *Spider) Stats() Stats {
	st := Stats{
		Visited:     s.stats.visited.Load(),
		Stored:      s.stats.stored.Load(),
		Followed:    s.stats.followed.Load(),
		Failed:      s.stats.failed.Load(),
		StoreErrors: s.stats.storeErr.Load(),
		Filtered:    s.stats.filtered.Load(),
	}
	if q := s.queue.Load(); q != nil {
		st.Queued = q.Len()
		st.Dropped = q.Dropped()
	}
	return st
}

func (s *Spider) logProgress(msg string) {
	st := s.Stats()
	s.logger.Info(msg,
		"queued", st.Queued,
		"visited", st.Visited,
		"stored", st.Stored,
		"failed", st.Failed,
		"filtered", st.Filtered,
		"dropped", st.Dropped,
	)
}
