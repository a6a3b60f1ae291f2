// Package model defines the data structures shared by the crawler, the
// report writers and the history database.
//
// This package contains the following main types:
//   - URLSet: an insertion-ordered set of URLs (visited set, product set)
//   - DomainResult: the outcome of crawling one seed domain
//   - CrawlResult: the ordered domain -> product URLs mapping of a crawl job
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The crawl, report and database packages all need these
// types, so centralizing them prevents import cycles.
package model
