package config

import "time"

// File represents the structure of the .snitch configuration file.
// Every field is optional; zero values leave the configuration unchanged.
type File struct {
	// Seeds are added to the seeds given on the command line.
	Seeds []string `yaml:"seeds,omitempty"`

	// DB is the database file path.
	DB string `yaml:"db,omitempty"`

	// Workers is the number of concurrent fetchers.
	Workers int `yaml:"workers,omitempty"`

	// MaxSelectorDepth is the depth guard.
	MaxSelectorDepth int `yaml:"maxSelectorDepth,omitempty"`

	// StatsInterval is how often progress is logged, e.g. "1m".
	StatsInterval time.Duration `yaml:"statsInterval,omitempty"`

	// QueueLimit caps the frontier.
	QueueLimit int `yaml:"queueLimit,omitempty"`

	// MaxBodySize is the maximum number of bytes of a text file to index.
	MaxBodySize int64 `yaml:"maxBodySize,omitempty"`

	// Proxy is a SOCKS5 proxy address.
	Proxy string `yaml:"proxy,omitempty"`

	// EmbeddedTor starts a private Tor daemon.
	EmbeddedTor bool `yaml:"embeddedTor,omitempty"`

	// LogFormat is text, json or pretty.
	LogFormat string `yaml:"logFormat,omitempty"`
}

// Flag names that a configuration file value can stand in for.
const (
	FlagDB            = "db"
	FlagThreads       = "threads"
	FlagMaxDepth      = "max-depth"
	FlagStatsInterval = "stats-interval"
	FlagQueueLimit    = "queue-limit"
	FlagMaxBodySize   = "max-body-size"
	FlagProxy         = "proxy"
	FlagEmbeddedTor   = "embedded-tor"
	FlagLogFormat     = "log-format"
)

// ApplyTo merges the file into c. Command line flags win: a value is only
// taken from the file when changed reports that its flag was not set.
// Seeds are always appended.
func (f *File) ApplyTo(c *Config, changed func(flag string) bool) {
	c.Seeds = append(c.Seeds, f.Seeds...)

	if f.DB != "" && !changed(FlagDB) {
		c.DBPath = f.DB
	}
	if f.Workers != 0 && !changed(FlagThreads) {
		c.Workers = f.Workers
	}
	if f.MaxSelectorDepth != 0 && !changed(FlagMaxDepth) {
		c.MaxSelectorDepth = f.MaxSelectorDepth
	}
	if f.StatsInterval != 0 && !changed(FlagStatsInterval) {
		c.StatsInterval = f.StatsInterval
	}
	if f.QueueLimit != 0 && !changed(FlagQueueLimit) {
		c.QueueLimit = f.QueueLimit
	}
	if f.MaxBodySize != 0 && !changed(FlagMaxBodySize) {
		c.MaxBodySize = f.MaxBodySize
	}
	if f.Proxy != "" && !changed(FlagProxy) && !changed(FlagEmbeddedTor) {
		c.ProxyAddress = f.Proxy
	}
	if f.EmbeddedTor && !changed(FlagEmbeddedTor) && !changed(FlagProxy) {
		c.EmbeddedTor = true
	}
	if f.LogFormat != "" && !changed(FlagLogFormat) {
		c.LogFormat = f.LogFormat
	}
}
