package frontier

import "errors"

var (
	// ErrEmptyDomain is returned when Crawl is called without a seed URL.
	ErrEmptyDomain = errors.New("domain must not be empty")

	// ErrNilFetcher is returned when Crawl is called without a fetcher.
	ErrNilFetcher = errors.New("fetcher must not be nil")

	// ErrTaskPanic is returned when a fetch task panicked.
	ErrTaskPanic = errors.New("fetch task panicked")
)
