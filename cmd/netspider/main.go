// Package main provides the entry point for the netspider CLI.
//
// netspider walks a professional social network from a signed-in account,
// following endorsements from profile to profile, and keeps its frontier
// and visited sets in a store so an interrupted crawl resumes where its
// last checkpoint left it.
//
// Usage:
//
//	netspider init
//	netspider crawl
//	netspider status
//
// See --help for all available options.
package main

// main is the entry point for netspider.
func main() {
	Execute()
}
