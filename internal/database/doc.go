// Package database provides SQLite-based crawl history for prodcrawl.
//
// The CrawlDB stores, per successfully crawled domain of a job:
//   - a run row with counters and per-depth statistics
//   - the product URLs in accumulation order
//   - the URLs that failed to fetch
//
// The history command lists and diffs these runs.
//
// Design decision: We use SQLite (via modernc.org/sqlite) because:
// 1. The database is a single file in the XDG data directory
// 2. The CGO-free driver allows easy cross-compilation
// 3. WAL mode provides good concurrent read performance
package database
