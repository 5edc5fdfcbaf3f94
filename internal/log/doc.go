// Package log provides logging for snitch on top of the standard slog
// package.
//
// A crawler logs text it does not control: menu labels, selectors and
// server error messages. SecureHandler wraps any slog.Handler and, before
// a record reaches it:
//   - escapes control characters (ANSI escape sequences, CR/LF) in the
//     message and in string, error and Stringer attributes
//   - truncates very long values
//   - masks proxy passwords embedded in URLs and values under keys such
//     as "password" or "token"
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, log.FormatPretty, verbose)
//	slog.SetDefault(logger)
//
// The returned logger is a plain *slog.Logger and can be handed to tornago
// and other slog-based libraries.
package log
