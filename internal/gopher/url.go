package gopher

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"unicode"
)

const (
	// DefaultPort is the well-known Gopher port.
	DefaultPort uint16 = 70

	// scheme is the URL scheme prefix written by URL.String.
	scheme = "gopher://"
)

// URL addresses one Gopher resource.
// It is a comparable value: two URLs are equal when host, port, type and
// selector are all equal, so URL can be used directly as a map key.
type URL struct {
	// Host is the server host name or IP address.
	Host string

	// Port is the TCP port, DefaultPort unless specified.
	Port uint16

	// Type is the item type of the resource.
	Type ItemType

	// Selector is the opaque path string sent to the server.
	Selector string
}

// NewURL builds a URL from the fields of a menu line.
// A port that is not a valid uint16 falls back to DefaultPort.
func NewURL(host, port string, t ItemType, selector string) URL {
	return URL{
		Host:     host,
		Port:     parsePort(port),
		Type:     t,
		Selector: selector,
	}
}

// ParseURL parses an address of the form
//
//	[gopher://]host[:port][/<type><selector>]
//
// The host is everything up to the first ':' or '/'. A port that does not
// fit in a uint16 is silently replaced by DefaultPort. When the type and
// selector are absent the URL points at the server's root menu.
//
// Surrounding whitespace is ignored around the host and port, but the
// selector is kept byte for byte: servers do publish selectors that end in
// a space, and String must round-trip them.
//
// ParseURL fails with ErrInvalidURL only when no host can be found.
func ParseURL(s string) (URL, error) {
	rest := strings.TrimLeftFunc(s, unicode.IsSpace)
	if len(rest) >= len(scheme) && strings.EqualFold(rest[:len(scheme)], scheme) {
		rest = rest[len(scheme):]
	}

	host := rest
	rest = ""
	if i := strings.IndexAny(host, ":/"); i >= 0 {
		host, rest = host[:i], host[i:]
	}
	host = strings.TrimRightFunc(host, unicode.IsSpace)
	if host == "" {
		return URL{}, fmt.Errorf("%w: %q", ErrInvalidURL, s)
	}

	u := URL{
		Host: host,
		Port: DefaultPort,
		Type: ItemSubmenu,
	}

	if strings.HasPrefix(rest, ":") {
		port := rest[1:]
		rest = ""
		if i := strings.IndexByte(port, '/'); i >= 0 {
			port, rest = port[:i], port[i:]
		}
		u.Port = parsePort(strings.TrimRightFunc(port, unicode.IsSpace))
	}

	// rest is now either empty or "/<type><selector>". A lone "/" is the
	// root menu, same as no path at all.
	if len(rest) > 1 {
		u.Type = ItemTypeFromChar(rest[1])
		u.Selector = rest[2:]
	}

	return u, nil
}

// MustParseURL is like ParseURL but panics on error.
// Use only for known-valid addresses in tests or initialization.
func MustParseURL(s string) URL {
	u, err := ParseURL(s)
	if err != nil {
		panic(err)
	}
	return u
}

// String returns the canonical form gopher://host:port/<type><selector>.
//
// The root menu of a server (a submenu with an empty selector) is written
// without the "/1" suffix so that a bare address prints the way it was
// typed. Every other URL keeps its type character, even with an empty
// selector: dropping it would turn "gopher://h:70/0" into the root menu on
// reparse, and ParseURL(u.String()) == u must hold for all URLs.
func (u URL) String() string {
	var b strings.Builder
	b.Grow(len(scheme) + len(u.Host) + len(u.Selector) + 8)
	b.WriteString(scheme)
	b.WriteString(u.Host)
	b.WriteByte(':')
	b.WriteString(strconv.FormatUint(uint64(u.Port), 10))
	if u.Selector == "" && u.Type == ItemSubmenu {
		return b.String()
	}
	b.WriteByte('/')
	b.WriteByte(u.Type.Char())
	b.WriteString(u.Selector)
	return b.String()
}

// HostPort returns the "host:port" dial address.
func (u URL) HostPort() string {
	return net.JoinHostPort(u.Host, strconv.FormatUint(uint64(u.Port), 10))
}

// Depth returns the number of '/' characters in the selector.
// Generated menus tend to grow their selectors without bound, so the
// crawler uses this as a cheap recursion guard.
func (u URL) Depth() int {
	return strings.Count(u.Selector, "/")
}

// parsePort converts a decimal port, falling back to DefaultPort.
func parsePort(s string) uint16 {
	p, err := strconv.ParseUint(strings.TrimSpace(s), 10, 16)
	if err != nil {
		return DefaultPort
	}
	return uint16(p)
}
