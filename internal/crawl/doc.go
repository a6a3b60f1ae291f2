// Package crawl runs a crawl job over a list of seed domains.
//
// Domains are crawled one after another in input order. For each domain the
// Orchestrator acquires a fetch session from a fetcher.Launcher, hands it to
// a frontier.Scheduler and releases the session when the scheduler returns.
// A domain whose launch, crawl or task panics is reported and left out of
// the result; the job carries on with the next domain.
//
// Per-domain depth, concurrency, headers and User-Agent overrides come from
// the site configuration file (config.File).
package crawl
