// Package gopher implements the client side of the Gopher protocol (RFC 1436)
// used by the crawler.
//
// # Components
//
//   - ItemType: the single-character item codes found in menus and URLs
//   - URL: a comparable gopher://host:port/<type><selector> address
//   - DirEntry and Menu: a parsed directory listing
//   - Client: opens one connection per request and returns the response body
//
// Gopher has no status line. A server reports failure by answering with a
// single menu line of type '3', so Client peeks at the start of every
// response and turns such a line into a FetchError.
//
// # Usage
//
//	u, err := gopher.ParseURL("gopher://gopher.floodgap.com/1/world")
//	body, err := gopher.NewClient().Fetch(ctx, u, "")
//	menu, err := gopher.ParseMenu(body)
package gopher
