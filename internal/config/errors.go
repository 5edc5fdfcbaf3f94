package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate and Config.ValidateOutput.
var (
	// ErrNoSeeds is returned when a crawl has neither seed URLs nor
	// --seed-from-db.
	ErrNoSeeds = errors.New("no seeds specified: provide gopher URLs or use --seed-from-db")

	// ErrInvalidWorkers is returned when the worker count is not positive.
	ErrInvalidWorkers = errors.New("invalid worker count: must be positive")

	// ErrInvalidMaxSelectorDepth is returned when the depth guard is not positive.
	ErrInvalidMaxSelectorDepth = errors.New("invalid max selector depth: must be positive")

	// ErrInvalidStatsInterval is returned when the progress interval is not positive.
	ErrInvalidStatsInterval = errors.New("invalid stats interval: must be positive")

	// ErrInvalidQueueLimit is returned when the queue limit is negative.
	// Use 0 for an unbounded queue.
	ErrInvalidQueueLimit = errors.New("invalid queue limit: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// A negative body size is invalid; use 0 to use the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrConflictingProxy is returned when both --proxy and --embedded-tor
	// are specified.
	ErrConflictingProxy = errors.New("conflicting transports: --proxy and --embedded-tor cannot be used together")

	// ErrInvalidLogFormat is returned for a log format other than text,
	// json or pretty.
	ErrInvalidLogFormat = errors.New("invalid log format: must be text, json or pretty")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrEmptyDBPath is returned when the database path is empty.
	ErrEmptyDBPath = errors.New("database path must not be empty")
)
