package gopher

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"

	"golang.org/x/net/proxy"
)

// DefaultPeekSize is how much of a response Client inspects for an
// in-band error line before handing the stream to the caller.
const DefaultPeekSize = 256

// Client fetches Gopher resources.
// Every Fetch opens a fresh connection; Gopher servers close the connection
// after each response, so there is nothing to pool.
//
// Client is safe for concurrent use.
type Client struct {
	// dialer opens TCP connections, directly or through a SOCKS5 proxy.
	dialer proxy.ContextDialer

	// peekSize is the number of bytes read ahead to detect error responses.
	peekSize int
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithDialer routes connections through the given dialer, for example a
// SOCKS5 dialer from golang.org/x/net/proxy or the tor package.
func WithDialer(d proxy.ContextDialer) ClientOption {
	return func(c *Client) {
		if d != nil {
			c.dialer = d
		}
	}
}

// WithPeekSize sets the read-ahead used for error detection.
func WithPeekSize(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.peekSize = n
		}
	}
}

// NewClient creates a Client that dials directly unless WithDialer is given.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		dialer:   proxy.Direct,
		peekSize: DefaultPeekSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch requests u and returns the response body.
//
// The request line is the selector, or "selector\tquery" when query is not
// empty, terminated by CRLF. Before returning, Fetch does one read of at
// most the peek size and checks whether the response starts with an error line ('3');
// if so it returns a *FetchError carrying the server's message, which
// matches ErrServer. Otherwise the peeked bytes are replayed in front of
// the rest of the connection, so the caller sees the complete response.
//
// Fetch sets no deadlines. Cancelling ctx closes the connection, which
// unblocks any pending read. The caller must Close the returned body.
func (c *Client) Fetch(ctx context.Context, u URL, query string) (io.ReadCloser, error) {
	conn, err := c.dialer.DialContext(ctx, "tcp", u.HostPort())
	if err != nil {
		return nil, &FetchError{URL: u, Op: opDial, Err: err}
	}
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close() //nolint:errcheck // unblocks readers on cancellation
	})
	fail := func(op string, err error) (io.ReadCloser, error) {
		stop()
		_ = conn.Close() //nolint:errcheck // the request already failed
		return nil, &FetchError{URL: u, Op: op, Err: err}
	}

	request := u.Selector
	if query != "" {
		request += "\t" + query
	}
	if _, err := io.WriteString(conn, request+"\r\n"); err != nil {
		return fail(opWrite, err)
	}

	// One read only: a server may send a short error line and then hold
	// the connection open.
	peek := make([]byte, c.peekSize)
	n, err := conn.Read(peek)
	if err != nil && !errors.Is(err, io.EOF) {
		return fail(opRead, err)
	}
	peek = peek[:n]

	if msg, ok := serverError(peek); ok {
		stop()
		_ = conn.Close() //nolint:errcheck // response fully consumed
		return nil, &FetchError{URL: u, Op: opServer, Msg: msg}
	}

	return &body{
		Reader: io.MultiReader(bytes.NewReader(peek), conn),
		conn:   conn,
		stop:   stop,
	}, nil
}

// serverError reports whether a response begins with an error entry and
// returns the server's message.
func serverError(peek []byte) (string, bool) {
	if len(peek) == 0 || ItemTypeFromChar(peek[0]) != ItemError {
		return "", false
	}
	line := peek
	if i := bytes.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	entry, err := ParseDirEntry(string(line))
	if err != nil {
		return "", false
	}
	return entry.Label, true
}

// body is the response stream returned by Fetch.
type body struct {
	io.Reader
	conn net.Conn
	stop func() bool
}

// Close releases the connection.
func (b *body) Close() error {
	b.stop()
	return b.conn.Close()
}
