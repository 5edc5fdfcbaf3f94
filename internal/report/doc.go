// Package report renders crawl database summaries and search results.
//
// Writers implement the Writer interface:
//   - SimpleWriter: plain text for the terminal
//   - MarkdownWriter: Markdown for sharing, with a Mermaid chart of item types
//   - JSONWriter: JSON for other tools
package report
