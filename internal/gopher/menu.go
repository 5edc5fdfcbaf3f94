package gopher

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// maxLineSize bounds a single menu line. Longer lines are skipped, not
// buffered.
const maxLineSize = 64 * 1024

// DirEntry is one line of a Gopher menu.
type DirEntry struct {
	// Type is the item type taken from the first character of the line.
	Type ItemType

	// Label is the display string.
	Label string

	// URL is the address the entry points at.
	// It is nil for informational lines, which are display-only.
	URL *URL
}

// ParseDirEntry parses a menu line of the form
//
//	<type><label>\t<selector>\t<host>\t<port>
//
// Trailing CR/LF is ignored and fields after the port (Gopher+ markers)
// are discarded. A line with fewer than four fields, or with an empty first
// field, returns ErrInvalidEntry. An unrecognized type character is not an
// error here: the entry comes back as ItemUnknown and callers decide what
// to do with it.
func ParseDirEntry(line string) (DirEntry, error) {
	line = strings.TrimRight(line, "\r\n")
	fields := strings.SplitN(line, "\t", 5)
	if len(fields) < 4 || fields[0] == "" {
		return DirEntry{}, fmt.Errorf("%w: %q", ErrInvalidEntry, line)
	}

	t := ItemTypeFromChar(fields[0][0])
	e := DirEntry{
		Type:  t,
		Label: fields[0][1:],
	}
	if t != ItemInfo {
		u := NewURL(fields[2], fields[3], t, fields[1])
		e.URL = &u
	}
	return e, nil
}

// Menu is a parsed directory listing in server order.
type Menu struct {
	Entries []DirEntry
}

// Labels returns the labels of all entries joined by newlines.
// This is the text the crawler indexes for a menu.
func (m *Menu) Labels() string {
	labels := make([]string, len(m.Entries))
	for i, e := range m.Entries {
		labels[i] = e.Label
	}
	return strings.Join(labels, "\n")
}

// Links returns the addresses of all linked entries in menu order.
// Duplicates are kept; deduplication is the crawler's job.
func (m *Menu) Links() []URL {
	links := make([]URL, 0, len(m.Entries))
	for _, e := range m.Entries {
		if e.URL != nil {
			links = append(links, *e.URL)
		}
	}
	return links
}

// MenuOption configures ParseMenu.
type MenuOption func(*menuParser)

// WithMenuLogger sets the logger that receives dropped-line reports.
func WithMenuLogger(logger *slog.Logger) MenuOption {
	return func(p *menuParser) {
		p.logger = logger
	}
}

type menuParser struct {
	logger *slog.Logger
}

// ParseMenu reads a menu until a line consisting of "." or the end of the
// stream.
//
// Malformed lines, lines longer than 64 KiB and lines with an unknown type
// are dropped and logged at debug level; real servers emit them routinely and one bad line must not
// cost the whole listing. Consecutive informational lines are merged into a
// single entry joined by '\n', which keeps multi-line ASCII art intact.
//
// Only a read failure is returned as an error.
func ParseMenu(r io.Reader, opts ...MenuOption) (*Menu, error) {
	p := &menuParser{logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}

	br := bufio.NewReader(r)
	menu := &Menu{Entries: make([]DirEntry, 0)}
	for {
		line, tooLong, err := readLine(br)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return menu, fmt.Errorf("failed to read menu: %w", err)
		}
		if tooLong {
			p.logger.Debug("dropping over-long menu line", "limit", maxLineSize)
			continue
		}
		if line == "." {
			break
		}

		entry, err := ParseDirEntry(line)
		if err != nil {
			p.logger.Debug("dropping menu line", "line", line, "error", err)
			continue
		}
		if entry.Type == ItemUnknown {
			p.logger.Debug("dropping menu line with unknown type", "line", line)
			continue
		}

		if entry.Type == ItemInfo && len(menu.Entries) > 0 {
			last := &menu.Entries[len(menu.Entries)-1]
			if last.Type == ItemInfo {
				last.Label += "\n" + entry.Label
				continue
			}
		}
		menu.Entries = append(menu.Entries, entry)
	}

	return menu, nil
}

// readLine returns the next line without its CR/LF terminator. A line
// longer than maxLineSize is read to its end and discarded, with tooLong
// set. The last line of a stream does not need a terminator; io.EOF is
// returned only once nothing is left.
func readLine(r *bufio.Reader) (line string, tooLong bool, err error) {
	var buf []byte
	for {
		var chunk []byte
		chunk, err = r.ReadSlice('\n')
		if !tooLong {
			if len(buf)+len(chunk) > maxLineSize+len("\r\n") {
				tooLong = true
				buf = nil
			} else {
				buf = append(buf, chunk...)
			}
		}

		switch {
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if len(buf) == 0 && !tooLong {
				return "", false, io.EOF
			}
		case err != nil:
			return "", false, err
		}
		return strings.TrimRight(string(buf), "\r\n"), tooLong, nil
	}
}
