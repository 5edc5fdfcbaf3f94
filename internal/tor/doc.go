// Package tor connects the crawler to a SOCKS5 proxy, usually Tor.
//
// Client is a proxy.ContextDialer that the gopher client dials through.
// EmbeddedTor starts a private Tor daemon with tornago when no system
// daemon is available. ReachableHost filters out onion addresses that
// cannot be dialed, so the crawler does not queue them.
package tor
