// Package database provides the SQLite store the crawler writes into.
//
// The store has two tables:
//   - pages: one row per known address (url, item type, content_id)
//   - page_content: an FTS5 virtual table holding fetched text
//
// A page row with a NULL content_id is a stub: the address has been
// discovered but not fetched yet. Stubs are what a later run re-seeds from.
//
// The database runs in WAL mode, so `snitch search` can read while a crawl
// is writing.
package database
