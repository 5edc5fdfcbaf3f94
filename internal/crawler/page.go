package crawler

import (
	"context"
	"io"

	"github.com/nao1215/snitch/internal/gopher"
)

// Page is the result of fetching one address.
type Page struct {
	// URL is the address that was fetched.
	URL gopher.URL

	// Text is the content to index: the document body for text files,
	// the joined labels for menus. It is nil for items that are not
	// fetched (binaries, images, telnet sessions, ...).
	Text *string

	// Links are the addresses a menu points at, in menu order.
	Links []gopher.URL
}

// Fetcher retrieves the raw response for an address.
// *gopher.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context, u gopher.URL, query string) (io.ReadCloser, error)
}

// Store persists crawl results.
// *database.CrawlDB implements it.
type Store interface {
	// StorePage records the text of a fetched page.
	StorePage(ctx context.Context, u gopher.URL, text string) error

	// StoreURLStub records a discovered address that has not been fetched.
	StoreURLStub(ctx context.Context, u gopher.URL) error

	// PendingMenus lists menus that were discovered but never fetched.
	PendingMenus(ctx context.Context) ([]string, error)
}
