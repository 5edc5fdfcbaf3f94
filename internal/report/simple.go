package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/snitch/internal/database"
)

// SimpleWriter outputs human-readable text for terminal display.
type SimpleWriter struct {
	baseWriter

	// verbose prints the per-type breakdown.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables the per-type breakdown in stats output.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteStats outputs the database summary.
func (w *SimpleWriter) WriteStats(stats *database.Stats) (int, error) {
	var sb strings.Builder

	sb.WriteString("CRAWL DATABASE\n")
	sb.WriteString(strings.Repeat("=", 40) + "\n")
	fmt.Fprintf(&sb, "%-16s %d\n", "Known addresses:", stats.Pages)
	fmt.Fprintf(&sb, "%-16s %d\n", "Fetched:", stats.Fetched)
	fmt.Fprintf(&sb, "%-16s %d\n", "Pending:", stats.Pending)
	fmt.Fprintf(&sb, "%-16s %d\n", "Pending menus:", stats.PendingMenus)

	if w.verbose && len(stats.ByType) > 0 {
		sb.WriteString("\nBy item type\n")
		sb.WriteString(strings.Repeat("-", 40) + "\n")
		for _, tc := range typeCounts(stats) {
			fmt.Fprintf(&sb, "  %s %-12s %d\n", tc.Code, tc.Name, tc.Count)
		}
	}

	return io.WriteString(w.output, sb.String())
}

// WriteSearch outputs one block per hit.
func (w *SimpleWriter) WriteSearch(query string, hits []database.SearchResult) (int, error) {
	var sb strings.Builder

	if len(hits) == 0 {
		fmt.Fprintf(&sb, "No results for %q\n", query)
		return io.WriteString(w.output, sb.String())
	}

	fmt.Fprintf(&sb, "%d result(s) for %q\n\n", len(hits), query)
	for i, h := range hits {
		fmt.Fprintf(&sb, "%2d. %s\n", i+1, h.URL)
		fmt.Fprintf(&sb, "    %s\n", strings.Join(strings.Fields(h.Snippet), " "))
	}

	return io.WriteString(w.output, sb.String())
}
