package log

import (
	"io"
	"log/slog"
	"time"

	charmlog "github.com/charmbracelet/log"
)

// Log formats understood by NewLogger.
const (
	FormatText   = "text"
	FormatJSON   = "json"
	FormatPretty = "pretty"
)

// NewLogger creates a sanitizing slog.Logger writing to w.
//
// format selects the output: "json" for slog's JSON handler, "pretty" for
// a colored human-oriented console handler, anything else for slog's text
// handler. verbose lowers the level to Debug; otherwise Info is logged,
// since a crawl's progress lines are its main output.
func NewLogger(w io.Writer, format string, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	switch format {
	case FormatJSON:
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	case FormatPretty:
		charmLevel := charmlog.InfoLevel
		if verbose {
			charmLevel = charmlog.DebugLevel
		}
		handler = charmlog.NewWithOptions(w, charmlog.Options{
			Level:           charmLevel,
			ReportTimestamp: true,
			TimeFormat:      time.TimeOnly,
		})
	default:
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	}

	return slog.New(NewSecureHandler(handler))
}

// NewSecureLogger creates a sanitizing text logger.
// It is shorthand for NewLogger(w, FormatText, verbose).
func NewSecureLogger(w io.Writer, verbose bool) *slog.Logger {
	return NewLogger(w, FormatText, verbose)
}
