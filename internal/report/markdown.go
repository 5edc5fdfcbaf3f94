package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/snitch/internal/database"
)

// MarkdownWriter outputs reports in Markdown format.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// WriteStats outputs the database summary with a per-type table and chart.
func (w *MarkdownWriter) WriteStats(stats *database.Stats) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Crawl Database")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Known addresses", strconv.Itoa(stats.Pages)},
			{"Fetched", strconv.Itoa(stats.Fetched)},
			{"Pending", strconv.Itoa(stats.Pending)},
			{"Pending menus", strconv.Itoa(stats.PendingMenus)},
		},
	})
	md.PlainText("")

	if stats.PendingMenus > 0 {
		md.Note(fmt.Sprintf("%d menu(s) are still pending. Run `snitch crawl --seed-from-db` to resume.", stats.PendingMenus))
		md.PlainText("")
	}

	w.writeTypes(md, stats)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeTypes writes the per-type breakdown.
func (w *MarkdownWriter) writeTypes(md *markdown.Markdown, stats *database.Stats) {
	md.H2("Item Types")
	md.PlainText("")

	counts := typeCounts(stats)
	if len(counts) == 0 {
		md.PlainText("The database is empty.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(counts))
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Addresses by item type"),
		piechart.WithShowData(true),
	)
	for i, tc := range counts {
		rows[i] = []string{"`" + tc.Code + "`", tc.Name, strconv.Itoa(tc.Count)}
		chart.LabelAndIntValue(tc.Name, uint64(tc.Count)) //nolint:gosec // counts are never negative
	}

	md.Table(markdown.TableSet{
		Header: []string{"Code", "Type", "Count"},
		Rows:   rows,
	})
	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// WriteSearch outputs the hits as a table.
func (w *MarkdownWriter) WriteSearch(query string, hits []database.SearchResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Search: " + query)
	md.PlainText("")

	if len(hits) == 0 {
		md.Tip("No results. Try fewer terms or --no-stem.")
		md.PlainText("")
	} else {
		rows := make([][]string, len(hits))
		for i, h := range hits {
			rows[i] = []string{
				strconv.Itoa(i + 1),
				"`" + h.URL + "`",
				typeName(h.Type),
				escapeCell(truncateString(strings.Join(strings.Fields(h.Snippet), " "), 80)),
			}
		}
		md.Table(markdown.TableSet{
			Header: []string{"#", "URL", "Type", "Snippet"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [snitch](https://github.com/nao1215/snitch)*")
}

// escapeCell keeps server text from breaking the table layout.
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
