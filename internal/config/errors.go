package config

import "errors"

// Configuration errors.
// These errors are returned by Config.Validate() and the loaders, and
// can be matched with errors.Is().
var (
	// ErrNoDomainsFile is returned when no seed list path is configured.
	ErrNoDomainsFile = errors.New("no domains file specified: use --domains")

	// ErrNoOutputFile is returned when no output path is configured.
	ErrNoOutputFile = errors.New("no output file specified: use --output")

	// ErrInvalidDepth is returned when the crawl depth is below 1.
	ErrInvalidDepth = errors.New("invalid depth: must be at least 1")

	// ErrInvalidConcurrency is returned when the concurrency is negative.
	// Use 0 for the strategy default.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be non-negative")

	// ErrInvalidTimeout is returned when a timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidRateLimit is returned when the rate limit is negative.
	ErrInvalidRateLimit = errors.New("invalid rate limit: must be non-negative")

	// ErrInvalidSummary is returned for an unknown summary format.
	ErrInvalidSummary = errors.New("invalid summary format: expected text, markdown or none")

	// ErrDomainsUnreadable is returned when the seed list cannot be read.
	// It is the only fatal error of a crawl run.
	ErrDomainsUnreadable = errors.New("cannot read domains file")

	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")
)
