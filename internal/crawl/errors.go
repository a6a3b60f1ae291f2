package crawl

import "errors"

// ErrDomainPanic is returned for a domain whose crawl panicked outside the
// scheduler's fetch tasks.
var ErrDomainPanic = errors.New("domain crawl panicked")
