package crawler

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/nao1215/snitch/internal/frontier"
	"github.com/nao1215/snitch/internal/gopher"
)

// handler turns an address into a Page.
type handler func(ctx context.Context, w *worker, u gopher.URL) (Page, error)

// handlerFor selects how an item type is crawled. Adding an item type to
// the gopher package means adding it here too.
func handlerFor(t gopher.ItemType) handler {
	switch t {
	case gopher.ItemTextFile:
		return fetchText
	case gopher.ItemSubmenu:
		return fetchMenu
	case gopher.ItemNameserver, gopher.ItemError, gopher.ItemBinHex, gopher.ItemDOS,
		gopher.ItemUuencoded, gopher.ItemSearch, gopher.ItemTelnet, gopher.ItemBinary,
		gopher.ItemMirror, gopher.ItemGIF, gopher.ItemImage, gopher.ItemTelnet3270,
		gopher.ItemBitmap, gopher.ItemMovie, gopher.ItemSound, gopher.ItemDoc,
		gopher.ItemHTML, gopher.ItemInfo, gopher.ItemPNG, gopher.ItemRTF,
		gopher.ItemWAV, gopher.ItemPDF, gopher.ItemXML, gopher.ItemUnknown:
		return skip
	default:
		return skip
	}
}

// fetchText reads a document body, up to the configured size.
func fetchText(ctx context.Context, w *worker, u gopher.URL) (Page, error) {
	body, err := w.fetcher.Fetch(ctx, u, "")
	if err != nil {
		return Page{}, err
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, w.maxBodySize+1))
	if err != nil {
		return Page{}, fmt.Errorf("failed to read text file: %w", err)
	}
	if int64(len(data)) > w.maxBodySize {
		w.logger.Debug("truncating text file", "url", u.String(), "limit", w.maxBodySize)
		data = data[:w.maxBodySize]
	}

	text := string(data)
	return Page{URL: u, Text: &text}, nil
}

// fetchMenu parses a menu into its labels and links.
func fetchMenu(ctx context.Context, w *worker, u gopher.URL) (Page, error) {
	body, err := w.fetcher.Fetch(ctx, u, "")
	if err != nil {
		return Page{}, err
	}
	defer body.Close()

	menu, err := gopher.ParseMenu(body, gopher.WithMenuLogger(w.logger.With("url", u.String())))
	if err != nil {
		return Page{}, err
	}

	text := menu.Labels()
	return Page{URL: u, Text: &text, Links: menu.Links()}, nil
}

// skip records an item without fetching it.
func skip(_ context.Context, _ *worker, u gopher.URL) (Page, error) {
	return Page{URL: u}, nil
}

// worker fetches addresses from the frontier until its context ends.
type worker struct {
	id          int
	fetcher     Fetcher
	queue       *frontier.Queue
	results     chan<- Page
	logger      *slog.Logger
	maxBodySize int64
	stats       *counters
}

// run is the worker loop. A failed address is logged and counted; it
// never stops the worker.
func (w *worker) run(ctx context.Context) {
	w.logger.Debug("worker started", "worker", w.id)
	defer w.logger.Debug("worker stopped", "worker", w.id)

	for {
		u, err := w.queue.Pop(ctx)
		if err != nil {
			return
		}

		page, err := handlerFor(u.Type)(ctx, w, u)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.stats.failed.Add(1)
			w.logger.Warn("failed to fetch", "url", u.String(), "error", err)
			continue
		}
		w.logger.Debug("fetched", "worker", w.id, "url", u.String())

		select {
		case w.results <- page:
		case <-ctx.Done():
			w.logger.Debug("dropping result on shutdown", "url", u.String())
			return
		}
	}
}
