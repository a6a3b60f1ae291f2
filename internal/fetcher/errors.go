package fetcher

import (
	"errors"
	"fmt"
)

// Fetcher errors.
// Only ErrBrowserLaunch and ErrUnknownStrategy leave this package; the
// others are logged by the fetchers and surface as "no content".
var (
	// ErrUnknownStrategy is returned when a strategy name is not recognized.
	ErrUnknownStrategy = errors.New("unknown fetch strategy: expected plain or rendered")

	// ErrBrowserLaunch is returned when the headless browser cannot be started.
	ErrBrowserLaunch = errors.New("failed to launch browser")

	// ErrInvalidProxy is returned when the proxy URL cannot be used.
	ErrInvalidProxy = errors.New("invalid proxy: expected http://, https:// or socks5:// URL")
)

// StatusError reports a response outside the 2xx range.
type StatusError struct {
	// Code is the HTTP status code of the response.
	Code int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d", e.Code)
}
