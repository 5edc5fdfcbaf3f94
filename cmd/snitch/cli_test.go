package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/snitch/internal/config"
	"github.com/nao1215/snitch/internal/database"
	"github.com/nao1215/snitch/internal/gopher"
)

// startGopherServer serves a tiny gopher hole on localhost and returns
// its root URL.
func startGopherServer(t *testing.T) string {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0") //nolint:noctx // test code
	if err != nil {
		t.Fatalf("failed to start gopher server: %v", err)
	}
	t.Cleanup(func() { listener.Close() })

	host, port, err := net.SplitHostPort(listener.Addr().String())
	if err != nil {
		t.Fatalf("failed to split address: %v", err)
	}
	link := func(typ, label, selector string) string {
		return typ + label + "\t" + selector + "\t" + host + "\t" + port + "\r\n"
	}

	pages := map[string]string{
		"": "iWelcome to the test hole\t\terror.host\t1\r\n" +
			link("0", "About gophers", "/gophers.txt") +
			link("1", "Archive", "/archive") +
			link("9", "Tarball", "/files/hole.tar") +
			".\r\n",
		"/gophers.txt": "Gophers dig tunnels under the garden.\r\n",
		"/archive": "iNothing archived yet\t\terror.host\t1\r\n" +
			link("1", "Home", "") +
			".\r\n",
	}

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				line, err := bufio.NewReader(conn).ReadString('\n')
				if err != nil {
					return
				}
				selector, _, _ := strings.Cut(strings.TrimRight(line, "\r\n"), "\t")
				body, ok := pages[selector]
				if !ok {
					body = "3Not found\t\terror.host\t1\r\n.\r\n"
				}
				_, _ = io.WriteString(conn, body)
			}()
		}
	}()

	return "gopher://" + net.JoinHostPort(host, port)
}

// execute runs the root command with args and returns what it printed
// to stdout.
func execute(ctx context.Context, args ...string) (string, error) {
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

// crawlFor runs a crawl that is stopped after d.
func crawlFor(t *testing.T, d time.Duration, args ...string) string {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()

	out, err := execute(ctx, append([]string{"crawl"}, args...)...)
	if err != nil {
		t.Fatalf("crawl failed: %v", err)
	}
	return out
}

func TestCrawlSearchStats(t *testing.T) {
	t.Parallel()

	root := startGopherServer(t)
	dbPath := filepath.Join(t.TempDir(), "crawl", "snitch.db")
	cfgPath := writeConfig(t, "workers: 2\nstatsInterval: 100ms\n")

	out := crawlFor(t, 2*time.Second, "-c", cfgPath, "--db", dbPath, root)
	if !strings.Contains(out, "stored 3 pages") {
		t.Errorf("unexpected crawl summary %q", out)
	}

	t.Run("stats", func(t *testing.T) {
		t.Parallel()

		out, err := execute(context.Background(), "stats", "-c", cfgPath, "--db", dbPath, "--json")
		if err != nil {
			t.Fatalf("stats failed: %v", err)
		}

		var stats struct {
			Pages        int `json:"pages"`
			Fetched      int `json:"fetched"`
			Pending      int `json:"pending"`
			PendingMenus int `json:"pending_menus"`
		}
		if err := json.Unmarshal([]byte(out), &stats); err != nil {
			t.Fatalf("invalid JSON %q: %v", out, err)
		}
		// The tarball is recorded but never fetched.
		if stats.Pages != 4 || stats.Fetched != 3 || stats.Pending != 1 || stats.PendingMenus != 0 {
			t.Errorf("unexpected stats %+v", stats)
		}
	})

	t.Run("search", func(t *testing.T) {
		t.Parallel()

		out, err := execute(context.Background(), "search", "-c", cfgPath, "--db", dbPath, "--json", "tunnel")
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}

		var result struct {
			Query string `json:"query"`
			Hits  []struct {
				URL  string `json:"url"`
				Type string `json:"type"`
			} `json:"hits"`
		}
		if err := json.Unmarshal([]byte(out), &result); err != nil {
			t.Fatalf("invalid JSON %q: %v", out, err)
		}
		if result.Query != "tunnel" || len(result.Hits) != 1 {
			t.Fatalf("unexpected result %+v", result)
		}
		if want := root + "/0/gophers.txt"; result.Hits[0].URL != want || result.Hits[0].Type != "0" {
			t.Errorf("hit = %+v, want %s", result.Hits[0], want)
		}
	})

	t.Run("search plain text", func(t *testing.T) {
		t.Parallel()

		out, err := execute(context.Background(), "search", "-c", cfgPath, "--db", dbPath, "nothing", "archived")
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if !strings.Contains(out, root+"/1/archive") {
			t.Errorf("expected archive hit, got %q", out)
		}
	})

	t.Run("resume finds nothing pending", func(t *testing.T) {
		t.Parallel()

		db, err := database.Open(dbPath, database.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		pending, err := db.PendingMenus(context.Background())
		if err != nil {
			t.Fatalf("PendingMenus failed: %v", err)
		}
		if len(pending) != 0 {
			t.Errorf("unexpected pending menus %v", pending)
		}
	})
}

func TestCrawlErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		args []string
		want error
	}{
		{"no seeds", nil, config.ErrNoSeeds},
		{"zero threads", []string{"-t", "0", "gopher://a.example"}, config.ErrInvalidWorkers},
		{"proxy and embedded tor", []string{"--proxy", "--embedded-tor", "gopher://a.example"}, config.ErrConflictingProxy},
		{"bad log format", []string{"--log-format", "xml", "gopher://a.example"}, config.ErrInvalidLogFormat},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			args := append([]string{"crawl", "-c", writeConfig(t, ""), "--db", filepath.Join(t.TempDir(), "x.db")}, tc.args...)
			_, err := execute(context.Background(), args...)
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}

	t.Run("unreachable proxy", func(t *testing.T) {
		t.Parallel()

		_, err := execute(context.Background(), "crawl", "-c", writeConfig(t, ""),
			"--db", filepath.Join(t.TempDir(), "x.db"), "--proxy=127.0.0.1:59995", "gopher://a.example")
		if err == nil || !strings.Contains(err.Error(), "proxy check failed") {
			t.Errorf("expected proxy check error, got %v", err)
		}
	})
}

func TestSearchErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		args []string
		want error
	}{
		{"missing database", []string{"gopher"}, database.ErrNotFound},
		{"conflicting formats", []string{"--json", "--markdown", "gopher"}, config.ErrConflictingReportFormats},
		{"zero limit", []string{"-n", "0", "gopher"}, errInvalidLimit},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			args := append([]string{"search", "-c", writeConfig(t, ""), "--db", filepath.Join(t.TempDir(), "missing.db")}, tc.args...)
			_, err := execute(context.Background(), args...)
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}

	t.Run("punctuation only", func(t *testing.T) {
		t.Parallel()

		_, err := execute(context.Background(), "search", "-c", writeConfig(t, ""), "--db", filepath.Join(t.TempDir(), "x.db"), "&&")
		if err == nil || !strings.Contains(err.Error(), "invalid query") {
			t.Errorf("expected invalid query error, got %v", err)
		}
	})
}

func TestStatsMissingDatabase(t *testing.T) {
	t.Parallel()

	_, err := execute(context.Background(), "stats", "-c", writeConfig(t, ""), "--db", filepath.Join(t.TempDir(), "missing.db"))
	if !errors.Is(err, database.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFetch(t *testing.T) {
	t.Parallel()

	root := startGopherServer(t)

	t.Run("renders a menu", func(t *testing.T) {
		t.Parallel()

		out, err := execute(context.Background(), "fetch", "-c", writeConfig(t, ""), root)
		if err != nil {
			t.Fatalf("fetch failed: %v", err)
		}
		for _, want := range []string{
			menuIndent + "Welcome to the test hole\n",
			"[text]   About gophers  <" + root + "/0/gophers.txt>\n",
			"[menu]   Archive  <" + root + "/1/archive>\n",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q, got %q", want, out)
			}
		}
	})

	t.Run("copies a text file", func(t *testing.T) {
		t.Parallel()

		out, err := execute(context.Background(), "fetch", "-c", writeConfig(t, ""), root+"/0/gophers.txt")
		if err != nil {
			t.Fatalf("fetch failed: %v", err)
		}
		if out != "Gophers dig tunnels under the garden.\r\n" {
			t.Errorf("unexpected body %q", out)
		}
	})

	t.Run("reports server errors", func(t *testing.T) {
		t.Parallel()

		_, err := execute(context.Background(), "fetch", "-c", writeConfig(t, ""), root+"/0/missing.txt")
		if !errors.Is(err, gopher.ErrServer) {
			t.Errorf("expected ErrServer, got %v", err)
		}
	})

	t.Run("rejects an invalid URL", func(t *testing.T) {
		t.Parallel()

		_, err := execute(context.Background(), "fetch", "gopher://")
		if !errors.Is(err, gopher.ErrInvalidURL) {
			t.Errorf("expected ErrInvalidURL, got %v", err)
		}
	})
}
