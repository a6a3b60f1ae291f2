// Package fetcher retrieves the HTML of a page for the crawler.
//
// # Strategies
//
// Two interchangeable strategies satisfy the same Fetcher interface:
//   - plain: an HTTP GET with a browser-like User-Agent (HTTPFetcher)
//   - rendered: a DOM snapshot taken from a headless browser (BrowserSession)
//
// The strategy is a deployment-time choice made once through NewLauncher.
// The crawler never branches on it.
//
// # Failures
//
// A fetch either returns HTML or reports "no content". Network errors,
// non-2xx responses and navigation timeouts are logged here, together with
// the failing URL, and are never returned to the caller as errors.
//
// # Lifecycle
//
// A Launcher acquires the per-domain resources and returns a Session. The
// rendered strategy starts one browser per Session and shares it across
// concurrent fetches; each fetch opens and always releases its own isolated
// page. Callers must Close the Session on every exit path.
//
// # Usage
//
//	l, err := fetcher.NewLauncher(fetcher.StrategyPlain, fetcher.WithTimeout(30*time.Second))
//	session, err := l.Launch(ctx)
//	defer session.Close()
//	html, ok := session.Fetch(ctx, "http://shop.test")
package fetcher
