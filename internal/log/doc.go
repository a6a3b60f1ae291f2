// Package log builds the slog loggers used by prodcrawl.
//
// Every logger wraps its handler in a RedactingHandler, which masks:
//   - attributes with sensitive keys (Authorization, Cookie, token, ...)
//   - bearer, basic and JWT credentials detected by pattern
//   - sensitive query parameters and userinfo passwords inside URLs,
//     including URLs quoted in error messages
//
// Crawled links are logged verbatim by the fetchers, so this is the one
// place where signed or session-bearing URLs are cleaned.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, verbose)
//	logger.Warn("fetch failed", "url", "https://shop.test/p/1?sid=abc")
//	// url="https://shop.test/p/1?sid=***REDACTED***"
package log
