package config

import (
	"path/filepath"
	"slices"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultTorProxyAddress is the standard Tor SOCKS5 proxy address.
	// It is used when --proxy is given without a value.
	DefaultTorProxyAddress = "127.0.0.1:9050"

	// DefaultWorkers is the number of concurrent fetchers. Gopher servers
	// are small and often run on hobby hardware; ten connections at a time
	// is plenty.
	DefaultWorkers = 10

	// DefaultMaxSelectorDepth is the number of '/' in a selector beyond
	// which links are no longer followed. Generated menus can nest without
	// end; hand-made holes rarely go deeper than a handful of levels.
	DefaultMaxSelectorDepth = 50

	// DefaultStatsInterval is how often the crawler logs its progress.
	DefaultStatsInterval = 30 * time.Second

	// DefaultMaxBodySize limits how much of a text file is indexed.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultSearchLimit is the number of search hits shown.
	DefaultSearchLimit = 20

	// DefaultTorStartupTimeout is the maximum time to wait for the embedded
	// Tor daemon to bootstrap.
	DefaultTorStartupTimeout = 3 * time.Minute

	// DefaultDBFile is the database file name inside the data directory.
	DefaultDBFile = "snitch.db"

	// AppName is the application name used for XDG directory paths.
	AppName = "snitch"
)

// Log formats accepted by LogFormat.
const (
	LogFormatText   = "text"
	LogFormatJSON   = "json"
	LogFormatPretty = "pretty"
)

// Config holds all configuration options for snitch.
// It is populated from CLI flags and the optional configuration file and
// passed down explicitly rather than kept in global state.
type Config struct {
	// Seeds are the gopher URLs the crawl starts from.
	Seeds []string

	// SeedFromDB queues the menus the database knows about but never
	// fetched, so an interrupted crawl can continue.
	SeedFromDB bool

	// DBPath is the SQLite database file.
	// Defaults to snitch.db in the XDG data directory.
	DBPath string

	// Workers is the number of concurrent fetchers.
	Workers int

	// MaxSelectorDepth is the depth guard: pages whose selector has this
	// many '/' or more are stored but their links are not followed.
	MaxSelectorDepth int

	// StatsInterval is how often crawl progress is logged.
	StatsInterval time.Duration

	// QueueLimit caps the frontier. Zero means unbounded.
	QueueLimit int

	// MaxBodySize is the maximum number of bytes of a text file to index.
	// Set to 0 to use the default (5MB).
	MaxBodySize int64

	// ProxyAddress is a SOCKS5 proxy in "host:port" form. Empty means
	// direct connections.
	ProxyAddress string

	// EmbeddedTor starts a private Tor daemon and routes all connections
	// through it, which also makes .onion gopher holes reachable.
	EmbeddedTor bool

	// TorStartupTimeout is the maximum time to wait for the embedded Tor
	// daemon to bootstrap.
	TorStartupTimeout time.Duration

	// Verbose enables debug logging.
	Verbose bool

	// LogFormat selects the log handler: text, json or pretty.
	LogFormat string

	// ConfigFilePath is the path to the configuration file.
	// If empty, .snitch is searched in the current and home directories.
	ConfigFilePath string

	// JSONReport selects JSON output for search and stats.
	JSONReport bool

	// MarkdownReport selects Markdown output for search and stats.
	MarkdownReport bool

	// SearchLimit is the maximum number of search hits.
	SearchLimit int

	// NoStem disables stemming of search terms.
	NoStem bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		DBPath:            DefaultDBPath(),
		Workers:           DefaultWorkers,
		MaxSelectorDepth:  DefaultMaxSelectorDepth,
		StatsInterval:     DefaultStatsInterval,
		MaxBodySize:       DefaultMaxBodySize,
		TorStartupTimeout: DefaultTorStartupTimeout,
		LogFormat:         LogFormatText,
		SearchLimit:       DefaultSearchLimit,
	}
}

// XDGDataDir returns the XDG data directory for snitch.
// On Linux: ~/.local/share/snitch
// On macOS: ~/Library/Application Support/snitch
// On Windows: %LOCALAPPDATA%\snitch
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// DefaultDBPath returns the default database file path.
func DefaultDBPath() string {
	return filepath.Join(XDGDataDir(), DefaultDBFile)
}

// Validate checks that the configuration can run a crawl.
// It returns the first problem found.
func (c *Config) Validate() error {
	if len(c.Seeds) == 0 && !c.SeedFromDB {
		return ErrNoSeeds
	}

	if c.DBPath == "" {
		return ErrEmptyDBPath
	}

	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}

	if c.MaxSelectorDepth <= 0 {
		return ErrInvalidMaxSelectorDepth
	}

	if c.StatsInterval <= 0 {
		return ErrInvalidStatsInterval
	}

	if c.QueueLimit < 0 {
		return ErrInvalidQueueLimit
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.ProxyAddress != "" && c.EmbeddedTor {
		return ErrConflictingProxy
	}

	return c.ValidateOutput()
}

// ValidateOutput checks the settings shared by every command: the
// database path, log format and report format.
func (c *Config) ValidateOutput() error {
	if c.DBPath == "" {
		return ErrEmptyDBPath
	}

	if !slices.Contains([]string{LogFormatText, LogFormatJSON, LogFormatPretty}, c.LogFormat) {
		return ErrInvalidLogFormat
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}
