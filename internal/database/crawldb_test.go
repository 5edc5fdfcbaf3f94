package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/snitch/internal/gopher"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *CrawlDB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "snitch.db"), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "newdir", "subdir", "snitch.db")
		db, err := Open(path, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(path); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
		if db.Path() != path {
			t.Errorf("Path() = %q, want %q", db.Path(), path)
		}
	})

	t.Run("CreateIfNotExists=false returns error when database does not exist", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "nonexistent")
		_, err := Open(filepath.Join(dir, "snitch.db"), Options{CreateIfNotExists: false, EnableWAL: true})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if _, statErr := os.Stat(dir); !os.IsNotExist(statErr) {
			t.Error("directory should not have been created")
		}
	})

	t.Run("CreateIfNotExists=false opens existing database", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "snitch.db")
		db1, err := Open(path, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		u := gopher.MustParseURL("gopher://example.com/0/readme")
		if err := db1.StorePage(context.Background(), u, "persisted"); err != nil {
			t.Fatalf("failed to store page: %v", err)
		}
		db1.Close()

		db2, err := Open(path, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to open existing database: %v", err)
		}
		defer db2.Close()

		page, err := db2.GetPage(context.Background(), u.String())
		if err != nil {
			t.Fatalf("failed to get page: %v", err)
		}
		if page == nil || page.Content == nil || *page.Content != "persisted" {
			t.Errorf("page = %+v", page)
		}
	})
}

func TestStorePage(t *testing.T) {
	t.Parallel()

	t.Run("stores text and type", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()
		u := gopher.MustParseURL("gopher://example.com/0/about.txt")

		if err := db.StorePage(ctx, u, "about this hole"); err != nil {
			t.Fatalf("StorePage failed: %v", err)
		}

		page, err := db.GetPage(ctx, "gopher://example.com:70/0/about.txt")
		if err != nil {
			t.Fatalf("GetPage failed: %v", err)
		}
		if page == nil {
			t.Fatal("expected page")
		}
		if page.Type != "0" {
			t.Errorf("Type = %q, want %q", page.Type, "0")
		}
		if page.Content == nil || *page.Content != "about this hole" {
			t.Errorf("Content = %v", page.Content)
		}
	})

	t.Run("last write wins", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()
		u := gopher.MustParseURL("gopher://example.com/1/news")

		if err := db.StorePage(ctx, u, "old headline"); err != nil {
			t.Fatalf("StorePage failed: %v", err)
		}
		if err := db.StorePage(ctx, u, "new headline"); err != nil {
			t.Fatalf("StorePage failed: %v", err)
		}

		page, err := db.GetPage(ctx, u.String())
		if err != nil {
			t.Fatalf("GetPage failed: %v", err)
		}
		if *page.Content != "new headline" {
			t.Errorf("Content = %q", *page.Content)
		}

		stats, err := db.Stats(ctx)
		if err != nil {
			t.Fatalf("Stats failed: %v", err)
		}
		if stats.Pages != 1 {
			t.Errorf("Pages = %d, want 1", stats.Pages)
		}

		hits, err := db.Search(ctx, "old", 10)
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if len(hits) != 0 {
			t.Errorf("stale content still searchable: %+v", hits)
		}
	})

	t.Run("stub becomes fetched", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()
		u := gopher.MustParseURL("gopher://example.com/1/menu")

		if err := db.StoreURLStub(ctx, u); err != nil {
			t.Fatalf("StoreURLStub failed: %v", err)
		}
		page, err := db.GetPage(ctx, u.String())
		if err != nil {
			t.Fatalf("GetPage failed: %v", err)
		}
		if page == nil || page.Content != nil {
			t.Fatalf("expected stub, got %+v", page)
		}

		if err := db.StorePage(ctx, u, "menu labels"); err != nil {
			t.Fatalf("StorePage failed: %v", err)
		}
		page, err = db.GetPage(ctx, u.String())
		if err != nil {
			t.Fatalf("GetPage failed: %v", err)
		}
		if page.Content == nil || *page.Content != "menu labels" {
			t.Errorf("Content = %v", page.Content)
		}
	})

	t.Run("invalid utf8 is replaced", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()
		u := gopher.MustParseURL("gopher://example.com/0/latin1")

		if err := db.StorePage(ctx, u, "caf\xe9"); err != nil {
			t.Fatalf("StorePage failed: %v", err)
		}
		page, err := db.GetPage(ctx, u.String())
		if err != nil {
			t.Fatalf("GetPage failed: %v", err)
		}
		if *page.Content != "caf�" {
			t.Errorf("Content = %q", *page.Content)
		}
	})
}

func TestStoreURLStub(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	u := gopher.MustParseURL("gopher://example.com/0/doc")

	if err := db.StorePage(ctx, u, "content"); err != nil {
		t.Fatalf("StorePage failed: %v", err)
	}
	if err := db.StoreURLStub(ctx, u); err != nil {
		t.Fatalf("StoreURLStub on existing row failed: %v", err)
	}
	if err := db.StoreURLStub(ctx, u); err != nil {
		t.Fatalf("second StoreURLStub failed: %v", err)
	}

	page, err := db.GetPage(ctx, u.String())
	if err != nil {
		t.Fatalf("GetPage failed: %v", err)
	}
	if page.Content == nil || *page.Content != "content" {
		t.Errorf("stub must not clear content, got %v", page.Content)
	}
}

func TestPendingMenus(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	stubs := []string{
		"gopher://a.example/1/pending",
		"gopher://b.example/0/pending-text",
		"gopher://c.example/1/fetched",
		"gopher://d.example",
	}
	for _, s := range stubs {
		if err := db.StoreURLStub(ctx, gopher.MustParseURL(s)); err != nil {
			t.Fatalf("StoreURLStub failed: %v", err)
		}
	}
	if err := db.StorePage(ctx, gopher.MustParseURL("gopher://c.example/1/fetched"), "x"); err != nil {
		t.Fatalf("StorePage failed: %v", err)
	}

	got, err := db.PendingMenus(ctx)
	if err != nil {
		t.Fatalf("PendingMenus failed: %v", err)
	}
	want := []string{"gopher://a.example:70/1/pending", "gopher://d.example:70"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("PendingMenus() = %v, want %v", got, want)
	}
}

func TestPendingMenusResumeSameAddress(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	entry, err := gopher.ParseDirEntry("1Dir\t/dir \thost.example\t70")
	if err != nil {
		t.Fatalf("ParseDirEntry failed: %v", err)
	}
	if err := db.StoreURLStub(ctx, *entry.URL); err != nil {
		t.Fatalf("StoreURLStub failed: %v", err)
	}

	pending, err := db.PendingMenus(ctx)
	if err != nil {
		t.Fatalf("PendingMenus failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("PendingMenus() = %v, want one address", pending)
	}

	resumed, err := gopher.ParseURL(pending[0])
	if err != nil {
		t.Fatalf("ParseURL failed: %v", err)
	}
	if resumed != *entry.URL {
		t.Fatalf("resumed %+v, want %+v", resumed, *entry.URL)
	}

	if err := db.StorePage(ctx, resumed, "contents"); err != nil {
		t.Fatalf("StorePage failed: %v", err)
	}
	pending, err = db.PendingMenus(ctx)
	if err != nil {
		t.Fatalf("PendingMenus failed: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("PendingMenus() after fetch = %v, want none", pending)
	}
}

func TestSearch(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	pages := map[string]string{
		"gopher://a.example/0/gophers.txt": "Gophers dig burrows in the prairie",
		"gopher://b.example/0/phlog.txt":   "My phlog is about retro computing",
		"gopher://c.example/1/":            "Welcome\nGophers of the world unite",
	}
	for raw, text := range pages {
		if err := db.StorePage(ctx, gopher.MustParseURL(raw), text); err != nil {
			t.Fatalf("StorePage failed: %v", err)
		}
	}

	hits, err := db.Search(ctx, "gophers", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d: %+v", len(hits), hits)
	}
	for _, h := range hits {
		if !strings.Contains(h.Snippet, "[Gophers]") {
			t.Errorf("snippet %q does not highlight the match", h.Snippet)
		}
	}

	hits, err = db.Search(ctx, "retro", 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 1 || hits[0].URL != "gopher://b.example:70/0/phlog.txt" {
		t.Errorf("hits = %+v", hits)
	}

	if _, err := db.Search(ctx, `"unterminated`, 10); err == nil {
		t.Error("expected error for malformed MATCH expression")
	}
}

func TestStats(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	for _, s := range []string{"gopher://a.example/1/x", "gopher://a.example/1/y", "gopher://a.example/0/z", "gopher://a.example/9/bin"} {
		if err := db.StoreURLStub(ctx, gopher.MustParseURL(s)); err != nil {
			t.Fatalf("StoreURLStub failed: %v", err)
		}
	}
	if err := db.StorePage(ctx, gopher.MustParseURL("gopher://a.example/1/x"), "x"); err != nil {
		t.Fatalf("StorePage failed: %v", err)
	}

	stats, err := db.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Pages != 4 || stats.Fetched != 1 || stats.Pending != 3 || stats.PendingMenus != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.ByType["1"] != 2 || stats.ByType["0"] != 1 || stats.ByType["9"] != 1 {
		t.Errorf("ByType = %v", stats.ByType)
	}
}
