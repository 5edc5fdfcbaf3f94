package gopher

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidURL is returned when no host can be isolated from an address string.
	ErrInvalidURL = errors.New("invalid gopher URL")

	// ErrInvalidEntry is returned for a menu line that does not have the
	// four tab-separated fields of a directory entry.
	ErrInvalidEntry = errors.New("invalid directory entry")

	// ErrServer matches a FetchError caused by an in-band error line ('3')
	// rather than by a network failure.
	ErrServer = errors.New("gopher server error")
)

// FetchError describes a failed request. Op is one of "dial", "write",
// "read" or "server". For "server", Msg holds the label the server sent.
type FetchError struct {
	URL URL
	Op  string
	Msg string
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.Op == opServer {
		return fmt.Sprintf("%s: %s", e.URL, e.Msg)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

// Unwrap returns the underlying cause. Server errors unwrap to ErrServer.
func (e *FetchError) Unwrap() error {
	if e.Op == opServer {
		return ErrServer
	}
	return e.Err
}

const (
	opDial   = "dial"
	opWrite  = "write"
	opRead   = "read"
	opServer = "server"
)
