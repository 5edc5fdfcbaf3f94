// Package crawler walks Gopher space.
//
// # Architecture
//
// A crawl has one coordinator and a pool of workers connected by two
// queues:
//
//	coordinator --(frontier.Queue)--> workers --(chan Page)--> coordinator
//
// Workers pop an address, fetch it and send back a Page with the text to
// index and the links found. The coordinator is the only goroutine that
// touches the visited set and the store: it persists each Page, and for
// every link it has not seen before it records a stub row and pushes the
// link onto the frontier. No lock guards the visited set.
//
// The frontier is unbounded, so the coordinator never blocks on a push
// while workers block on sending results back to it.
//
// # Lifetime
//
// Gopher space is a graph with cycles and generated menus, so a crawl has
// no natural end. Spider.Run returns when its context is cancelled, after
// every worker has exited.
//
// # Usage
//
//	spider := crawler.NewSpider(gopher.NewClient(), db, crawler.WithWorkers(10))
//	err := spider.Run(ctx, []string{"gopher://gopher.floodgap.com"}, false)
package crawler
