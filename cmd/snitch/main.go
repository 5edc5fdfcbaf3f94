// Package main provides the entry point for the snitch CLI.
//
// snitch crawls Gopher space, indexes every menu and text file it finds
// into a SQLite full-text index, and searches that index.
//
// Usage:
//
//	snitch crawl gopher://gopher.floodgap.com
//	snitch search "phlog"
//	snitch stats
//
// See --help for all available options.
package main

// main is the entry point for snitch.
func main() {
	Execute()
}
