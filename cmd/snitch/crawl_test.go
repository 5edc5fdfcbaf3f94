package main

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/nao1215/snitch/internal/config"
)

// writeConfig writes a configuration file and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".snitch")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

// parseCrawlConfig parses args as the crawl command would.
func parseCrawlConfig(t *testing.T, args ...string) (*config.Config, error) {
	t.Helper()

	cmd := NewCrawlCmd()
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}
	return buildCrawlConfig(cmd, cmd.Flags().Args())
}

func TestNewCrawlCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCrawlCmd()

	testCases := []struct {
		name      string
		shorthand string
		defValue  string
	}{
		{config.FlagDB, "f", config.DefaultDBPath()},
		{flagSeedFromDB, "d", "false"},
		{config.FlagThreads, "t", "10"},
		{config.FlagQueueLimit, "", "0"},
		{config.FlagMaxDepth, "", "50"},
		{config.FlagStatsInterval, "", "30s"},
		{config.FlagMaxBodySize, "", "5242880"},
		{config.FlagProxy, "", ""},
		{config.FlagEmbeddedTor, "", "false"},
		{flagTorTimeout, "", "3m0s"},
		{flagConfig, "c", ""},
		{config.FlagLogFormat, "", "text"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			flag := cmd.Flags().Lookup(tc.name)
			if flag == nil {
				t.Fatalf("expected %s flag", tc.name)
			}
			if flag.Shorthand != tc.shorthand {
				t.Errorf("shorthand = %q, want %q", flag.Shorthand, tc.shorthand)
			}
			if flag.DefValue != tc.defValue {
				t.Errorf("default = %q, want %q", flag.DefValue, tc.defValue)
			}
		})
	}
}

func TestBuildCrawlConfig(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		cfg, err := parseCrawlConfig(t, "-c", writeConfig(t, ""), "gopher://a.example")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !slices.Equal(cfg.Seeds, []string{"gopher://a.example"}) {
			t.Errorf("Seeds = %v", cfg.Seeds)
		}
		if cfg.Workers != config.DefaultWorkers || cfg.MaxSelectorDepth != config.DefaultMaxSelectorDepth ||
			cfg.StatsInterval != config.DefaultStatsInterval || cfg.QueueLimit != 0 {
			t.Errorf("unexpected defaults: %+v", cfg)
		}
		if cfg.DBPath != config.DefaultDBPath() {
			t.Errorf("DBPath = %q", cfg.DBPath)
		}
		if cfg.ProxyAddress != "" || cfg.EmbeddedTor || cfg.SeedFromDB {
			t.Errorf("unexpected proxy or seed settings: %+v", cfg)
		}
	})

	t.Run("flags win over the config file", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, `
seeds:
  - gopher://b.example
workers: 3
maxSelectorDepth: 7
statsInterval: 1m
proxy: 127.0.0.1:9150
logFormat: json
`)
		cfg, err := parseCrawlConfig(t, "-c", path, "-t", "5", "-d", "--queue-limit", "100", "gopher://a.example")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !slices.Equal(cfg.Seeds, []string{"gopher://a.example", "gopher://b.example"}) {
			t.Errorf("Seeds = %v", cfg.Seeds)
		}
		if cfg.Workers != 5 {
			t.Errorf("Workers = %d, want 5 from flag", cfg.Workers)
		}
		if cfg.MaxSelectorDepth != 7 {
			t.Errorf("MaxSelectorDepth = %d, want 7 from file", cfg.MaxSelectorDepth)
		}
		if cfg.StatsInterval != time.Minute {
			t.Errorf("StatsInterval = %v, want 1m from file", cfg.StatsInterval)
		}
		if cfg.QueueLimit != 100 || !cfg.SeedFromDB {
			t.Errorf("QueueLimit = %d, SeedFromDB = %v", cfg.QueueLimit, cfg.SeedFromDB)
		}
		if cfg.ProxyAddress != "127.0.0.1:9150" || cfg.LogFormat != config.LogFormatJSON {
			t.Errorf("ProxyAddress = %q, LogFormat = %q", cfg.ProxyAddress, cfg.LogFormat)
		}
	})

	t.Run("embedded tor flag overrides file proxy", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "proxy: 127.0.0.1:9150\n")
		cfg, err := parseCrawlConfig(t, "-c", path, "--embedded-tor", "gopher://a.example")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.ProxyAddress != "" || !cfg.EmbeddedTor {
			t.Errorf("ProxyAddress = %q, EmbeddedTor = %v", cfg.ProxyAddress, cfg.EmbeddedTor)
		}
	})

	t.Run("bare proxy flag uses the local Tor address", func(t *testing.T) {
		t.Parallel()

		cfg, err := parseCrawlConfig(t, "-c", writeConfig(t, ""), "--proxy", "gopher://a.example")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.ProxyAddress != config.DefaultTorProxyAddress {
			t.Errorf("ProxyAddress = %q, want %q", cfg.ProxyAddress, config.DefaultTorProxyAddress)
		}
		if !slices.Equal(cfg.Seeds, []string{"gopher://a.example"}) {
			t.Errorf("Seeds = %v", cfg.Seeds)
		}
	})

	t.Run("proxy flag with value", func(t *testing.T) {
		t.Parallel()

		cfg, err := parseCrawlConfig(t, "-c", writeConfig(t, ""), "--proxy=socks5://u:p@10.0.0.1:1080")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.ProxyAddress != "socks5://u:p@10.0.0.1:1080" {
			t.Errorf("ProxyAddress = %q", cfg.ProxyAddress)
		}
	})

	t.Run("explicit config file must exist", func(t *testing.T) {
		t.Parallel()

		_, err := parseCrawlConfig(t, "-c", filepath.Join(t.TempDir(), "missing.yaml"))
		if !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("invalid config file", func(t *testing.T) {
		t.Parallel()

		_, err := parseCrawlConfig(t, "-c", writeConfig(t, "workers: [nope"))
		if err == nil {
			t.Error("expected parse error")
		}
	})
}
