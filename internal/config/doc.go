// Package config provides the configuration of netspider: the site and
// credentials to crawl, where crawl state is stored, and the tunables of
// the browser, the crawl loop, pacing, events and metrics.
package config
