package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/snitch/internal/gopher"
)

// ErrNotFound is returned by Open when CreateIfNotExists is false and the
// database file does not exist.
var ErrNotFound = errors.New("database not found")

// CrawlDB stores crawled pages and their full-text index.
//
// CrawlDB is safe for concurrent use, but the crawler issues all writes
// from a single goroutine and the pool is limited to one connection, so
// transactions never interleave.
type CrawlDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// path is the path to the SQLite database file.
	path string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file and its parent directory
	// if they don't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging so readers do not block the
	// crawler while it writes.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the database file at path.
func Open(path string, opts Options) (*CrawlDB, error) {
	if !opts.CreateIfNotExists {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrNotFound, path)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite takes pragmas as _pragma query parameters.
	// mode=rw refuses to create a missing file, mode=rwc allows it.
	mode := "rw"
	if opts.CreateIfNotExists {
		mode = "rwc"
	}
	dsn := path + "?mode=" + mode + "&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; a single connection also keeps
	// last_insert_rowid() tied to the transaction that produced it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:   db,
		path: path,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// Path returns the database file path.
func (cdb *CrawlDB) Path() string {
	return cdb.path
}

// createTables creates the schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS pages (
		url TEXT PRIMARY KEY,
		type TEXT,
		content_id INTEGER NULL
	);

	CREATE INDEX IF NOT EXISTS idx_pages_pending ON pages(type) WHERE content_id IS NULL;

	CREATE VIRTUAL TABLE IF NOT EXISTS page_content USING fts5(content, tokenize = 'unicode61');
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// StorePage stores the text of a fetched page.
//
// Within one transaction the text is added to the full-text index and the
// page row is pointed at it. If the page already had content, the row is
// re-pointed (last write wins) and the old content is removed from the
// index so stale text cannot match searches.
func (cdb *CrawlDB) StorePage(ctx context.Context, u gopher.URL, text string) (err error) {
	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback() //nolint:errcheck // the original error is more useful
		}
	}()

	url := u.String()

	var previous sql.NullInt64
	err = tx.QueryRowContext(ctx, `SELECT content_id FROM pages WHERE url = ?`, url).Scan(&previous)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to look up page: %w", err)
	}

	result, err := tx.ExecContext(ctx, `INSERT INTO page_content(content) VALUES (?)`, normalizeText(text))
	if err != nil {
		return fmt.Errorf("failed to insert page content: %w", err)
	}
	contentID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get content id: %w", err)
	}

	query := `
	INSERT INTO pages (url, type, content_id) VALUES (?, ?, ?)
	ON CONFLICT(url) DO UPDATE SET content_id = excluded.content_id
	`
	if _, err = tx.ExecContext(ctx, query, url, u.Type.String(), contentID); err != nil {
		return fmt.Errorf("failed to upsert page: %w", err)
	}

	if previous.Valid && previous.Int64 != contentID {
		if _, err = tx.ExecContext(ctx, `DELETE FROM page_content WHERE rowid = ?`, previous.Int64); err != nil {
			return fmt.Errorf("failed to delete previous content: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit page: %w", err)
	}
	return nil
}

// StoreURLStub records that u is known but not fetched yet.
// An existing row, fetched or not, is left untouched.
func (cdb *CrawlDB) StoreURLStub(ctx context.Context, u gopher.URL) error {
	query := `
	INSERT INTO pages (url, type, content_id) VALUES (?, ?, NULL)
	ON CONFLICT(url) DO NOTHING
	`
	if _, err := cdb.db.ExecContext(ctx, query, u.String(), u.Type.String()); err != nil {
		return fmt.Errorf("failed to store url stub: %w", err)
	}
	return nil
}

// PendingMenus returns the URLs of menus that were discovered but never
// fetched. They are the natural seeds for resuming a crawl.
func (cdb *CrawlDB) PendingMenus(ctx context.Context) ([]string, error) {
	rows, err := cdb.db.QueryContext(ctx,
		`SELECT url FROM pages WHERE type = ? AND content_id IS NULL ORDER BY url`,
		gopher.ItemSubmenu.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending menus: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("failed to scan pending menu: %w", err)
		}
		urls = append(urls, url)
	}

	return urls, rows.Err()
}

// PageRecord is a stored page row.
type PageRecord struct {
	// URL is the canonical address string.
	URL string

	// Type is the item type code as stored.
	Type string

	// Content is the indexed text, nil for a stub.
	Content *string
}

// GetPage returns the page stored under the canonical url, or nil if there
// is none.
func (cdb *CrawlDB) GetPage(ctx context.Context, url string) (*PageRecord, error) {
	query := `
	SELECT p.url, p.type, c.content
	FROM pages p
	LEFT JOIN page_content c ON c.rowid = p.content_id
	WHERE p.url = ?
	`

	var (
		record  PageRecord
		content sql.NullString
	)
	err := cdb.db.QueryRowContext(ctx, query, url).Scan(&record.URL, &record.Type, &content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get page: %w", err)
	}
	if content.Valid {
		record.Content = &content.String
	}

	return &record, nil
}

// SearchResult is one full-text search hit.
type SearchResult struct {
	// URL is the canonical address of the matching page.
	URL string

	// Type is the item type code of the page.
	Type string

	// Snippet is an excerpt with matches wrapped in [ and ].
	Snippet string

	// Rank is the bm25 score; lower is better.
	Rank float64
}

// Search runs an FTS5 MATCH expression against stored page text and
// returns up to limit hits, best first.
func (cdb *CrawlDB) Search(ctx context.Context, match string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
	SELECT p.url, p.type, snippet(page_content, 0, '[', ']', '...', 16), bm25(page_content)
	FROM page_content
	JOIN pages p ON p.content_id = page_content.rowid
	WHERE page_content MATCH ?
	ORDER BY bm25(page_content)
	LIMIT ?
	`

	rows, err := cdb.db.QueryContext(ctx, query, match, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	defer rows.Close()

	results := make([]SearchResult, 0)
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.URL, &r.Type, &r.Snippet, &r.Rank); err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		results = append(results, r)
	}

	return results, rows.Err()
}

// Stats summarizes the store.
type Stats struct {
	// Pages is the number of known addresses.
	Pages int

	// Fetched is the number of pages with indexed content.
	Fetched int

	// Pending is the number of stubs.
	Pending int

	// PendingMenus is the number of stubs that are menus.
	PendingMenus int

	// ByType counts pages per item type code.
	ByType map[string]int
}

// Stats returns counts over the pages table.
func (cdb *CrawlDB) Stats(ctx context.Context) (*Stats, error) {
	query := `
	SELECT type, COUNT(*), COUNT(content_id)
	FROM pages
	GROUP BY type
	ORDER BY type
	`

	rows, err := cdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	defer rows.Close()

	stats := &Stats{ByType: make(map[string]int)}
	for rows.Next() {
		var (
			typ            sql.NullString
			total, fetched int
		)
		if err := rows.Scan(&typ, &total, &fetched); err != nil {
			return nil, fmt.Errorf("failed to scan stats: %w", err)
		}
		stats.ByType[typ.String] = total
		stats.Pages += total
		stats.Fetched += fetched
		stats.Pending += total - fetched
		if typ.String == gopher.ItemSubmenu.String() {
			stats.PendingMenus += total - fetched
		}
	}

	return stats, rows.Err()
}

// normalizeText makes text safe and consistent for the index: invalid
// UTF-8 is replaced and the result is put in Unicode NFC so that composed
// and decomposed spellings of a word match the same query.
func normalizeText(text string) string {
	return norm.NFC.String(strings.ToValidUTF8(text, "�"))
}
