package report

import (
	"io"
	"sort"

	"github.com/nao1215/snitch/internal/database"
	"github.com/nao1215/snitch/internal/gopher"
)

// Writer renders reports.
type Writer interface {
	// WriteStats outputs a summary of the crawl database.
	// Returns the number of bytes written and any error encountered.
	WriteStats(stats *database.Stats) (int, error)

	// WriteSearch outputs the hits of a search for query.
	WriteSearch(query string, hits []database.SearchResult) (int, error)
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// typeCount is one row of the per-type breakdown.
type typeCount struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// typeCounts orders the per-type counts by count, then by code.
func typeCounts(stats *database.Stats) []typeCount {
	counts := make([]typeCount, 0, len(stats.ByType))
	for code, n := range stats.ByType {
		counts = append(counts, typeCount{Code: code, Name: typeName(code), Count: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Code < counts[j].Code
	})
	return counts
}

// typeName returns the display name of a stored item type code.
func typeName(code string) string {
	if len(code) != 1 {
		return gopher.ItemUnknown.Name()
	}
	return gopher.ItemTypeFromChar(code[0]).Name()
}

// truncateString truncates a string to maxLen runes with ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
