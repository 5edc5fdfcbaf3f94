package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/snitch/internal/database"
)

// JSONWriter outputs reports in JSON format.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithPrettyPrint enables pretty-printed JSON.
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

type statsJSON struct {
	Pages        int         `json:"pages"`
	Fetched      int         `json:"fetched"`
	Pending      int         `json:"pending"`
	PendingMenus int         `json:"pending_menus"`
	ByType       []typeCount `json:"by_type"`
}

type hitJSON struct {
	URL     string  `json:"url"`
	Type    string  `json:"type"`
	Snippet string  `json:"snippet"`
	Rank    float64 `json:"rank"`
}

type searchJSON struct {
	Query string    `json:"query"`
	Hits  []hitJSON `json:"hits"`
}

// WriteStats outputs the database summary as a JSON object.
func (w *JSONWriter) WriteStats(stats *database.Stats) (int, error) {
	return w.encode(statsJSON{
		Pages:        stats.Pages,
		Fetched:      stats.Fetched,
		Pending:      stats.Pending,
		PendingMenus: stats.PendingMenus,
		ByType:       typeCounts(stats),
	})
}

// WriteSearch outputs the hits as a JSON object.
func (w *JSONWriter) WriteSearch(query string, hits []database.SearchResult) (int, error) {
	out := searchJSON{Query: query, Hits: make([]hitJSON, len(hits))}
	for i, h := range hits {
		out.Hits[i] = hitJSON(h)
	}
	return w.encode(out)
}

func (w *JSONWriter) encode(v any) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}
	return w.output.Write(append(data, '\n'))
}
