package fetcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/proxy"
)

// maxRedirects stops redirect loops while still following normal redirects.
const maxRedirects = 10

// HTTPLauncher creates plain HTTP sessions.
//
// Design decision: the HTTP client is built per Launch rather than shared
// process-wide, so each domain crawl starts with a fresh connection pool
// and the session boundary matches the rendered strategy.
type HTTPLauncher struct {
	opts     options
	proxyURL *url.URL
}

// NewHTTPLauncher validates the options and returns an HTTPLauncher.
func NewHTTPLauncher(opts ...Option) (*HTTPLauncher, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	proxyURL, err := validateProxy(o.proxy)
	if err != nil {
		return nil, err
	}
	return &HTTPLauncher{opts: o, proxyURL: proxyURL}, nil
}

// Launch returns a session backed by a new HTTP client.
func (l *HTTPLauncher) Launch(_ context.Context) (Session, error) {
	client, err := newHTTPClient(l.opts, l.proxyURL)
	if err != nil {
		return nil, err
	}
	f := NewHTTPFetcher(client, l.opts.userAgent, l.opts.headers, l.opts.maxBodySize, l.opts.logger)
	return limitSession(f, l.opts.rateLimit), nil
}

// newHTTPClient builds the transport, routing it through the proxy if set.
func newHTTPClient(o options, proxyURL *url.URL) (*http.Client, error) {
	transport := &http.Transport{
		DialContext:         (&net.Dialer{Timeout: o.requestTimeout}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 16,
		IdleConnTimeout:     30 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	if proxyURL != nil {
		switch proxyURL.Scheme {
		case "http", "https":
			transport.Proxy = http.ProxyURL(proxyURL)
		default:
			dialer, err := proxy.FromURL(proxyURL, proxy.Direct)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidProxy, err)
			}
			if cd, ok := dialer.(proxy.ContextDialer); ok {
				transport.DialContext = cd.DialContext
			} else {
				transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
					return dialer.Dial(network, addr)
				}
			}
		}
	}

	return &http.Client{
		Transport: transport,
		Timeout:   o.requestTimeout,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}, nil
}

// HTTPFetcher fetches pages with a single GET request and no retries.
// It is safe for concurrent use.
type HTTPFetcher struct {
	client      *http.Client
	userAgent   string
	headers     map[string]string
	maxBodySize int64
	logger      *slog.Logger
}

// NewHTTPFetcher returns a fetcher that uses client for every request.
// Zero values fall back to the package defaults.
func NewHTTPFetcher(client *http.Client, userAgent string, headers map[string]string, maxBodySize int64, logger *slog.Logger) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: DefaultRequestTimeout}
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if maxBodySize <= 0 {
		maxBodySize = DefaultMaxBodySize
	}
	if logger == nil {
		logger = defaultOptions().logger
	}
	return &HTTPFetcher{
		client:      client,
		userAgent:   userAgent,
		headers:     headers,
		maxBodySize: maxBodySize,
		logger:      logger,
	}
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) (string, bool) {
	body, err := f.get(ctx, pageURL)
	if err != nil {
		f.logger.Warn("fetch failed", "url", pageURL, "error", err)
		return "", false
	}
	return body, true
}

func (f *HTTPFetcher) get(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	for key, value := range f.headers {
		req.Header.Set(key, value)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	return string(body), nil
}

// Close implements Session. The plain strategy holds no per-domain resources
// besides idle connections.
func (f *HTTPFetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}
