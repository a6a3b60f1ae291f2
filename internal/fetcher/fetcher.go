package fetcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DefaultUserAgent is the browser-like User-Agent sent by both strategies.
// Many storefronts serve a stripped page or a 403 to unknown agents.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

const (
	// DefaultRequestTimeout bounds a single plain HTTP request.
	DefaultRequestTimeout = 30 * time.Second

	// DefaultNavigationTimeout bounds a single rendered navigation.
	DefaultNavigationTimeout = 30 * time.Second

	// DefaultMaxBodySize caps how much of a response body is read.
	DefaultMaxBodySize int64 = 5 * 1024 * 1024
)

// Fetcher retrieves the HTML of one URL.
// ok is false when no content could be obtained. The reason has already
// been logged by the implementation.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (html string, ok bool)
}

// Session is a Fetcher bound to resources acquired for one domain crawl.
// Close releases them and must be called on every exit path.
type Session interface {
	Fetcher
	Close() error
}

// Launcher acquires a Session. A Launch error is a domain-level failure.
type Launcher interface {
	Launch(ctx context.Context) (Session, error)
}

// Strategy selects how pages are fetched.
type Strategy string

const (
	// StrategyPlain fetches pages with a plain HTTP GET.
	StrategyPlain Strategy = "plain"
	// StrategyRendered fetches the DOM snapshot from a headless browser.
	StrategyRendered Strategy = "rendered"
)

// ParseStrategy converts a strategy name into a Strategy.
// Matching is case-insensitive and ignores surrounding spaces.
func ParseStrategy(name string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(name))) {
	case StrategyPlain:
		return StrategyPlain, nil
	case StrategyRendered:
		return StrategyRendered, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// String returns the strategy name.
func (s Strategy) String() string {
	return string(s)
}

// DefaultConcurrency returns the batch size used when none is configured.
// A browser page costs far more than an HTTP request, so rendered crawls
// run narrower batches.
func (s Strategy) DefaultConcurrency() int {
	if s == StrategyRendered {
		return 5
	}
	return 10
}

// options holds the settings shared by both launchers.
type options struct {
	userAgent      string
	headers        map[string]string
	requestTimeout time.Duration
	navTimeout     time.Duration
	maxBodySize    int64
	proxy          string
	browserBin     string
	headless       bool
	rateLimit      float64
	logger         *slog.Logger
}

func defaultOptions() options {
	return options{
		userAgent:      DefaultUserAgent,
		requestTimeout: DefaultRequestTimeout,
		navTimeout:     DefaultNavigationTimeout,
		maxBodySize:    DefaultMaxBodySize,
		headless:       true,
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Option configures a Launcher.
type Option func(*options)

// WithUserAgent overrides the User-Agent header. Empty keeps the default.
func WithUserAgent(ua string) Option {
	return func(o *options) {
		if ua != "" {
			o.userAgent = ua
		}
	}
}

// WithHeaders adds headers to every request. Later calls merge over earlier ones.
func WithHeaders(headers map[string]string) Option {
	return func(o *options) {
		if len(headers) == 0 {
			return
		}
		if o.headers == nil {
			o.headers = make(map[string]string, len(headers))
		}
		maps.Copy(o.headers, headers)
	}
}

// WithTimeout sets the plain HTTP request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.requestTimeout = d
		}
	}
}

// WithNavigationTimeout sets the rendered navigation timeout.
func WithNavigationTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.navTimeout = d
		}
	}
}

// WithMaxBodySize caps how many bytes of a response body are read.
func WithMaxBodySize(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxBodySize = n
		}
	}
}

// WithProxy routes traffic through an http://, https:// or socks5:// proxy.
func WithProxy(proxyURL string) Option {
	return func(o *options) {
		o.proxy = proxyURL
	}
}

// WithBrowserBin sets the browser executable for the rendered strategy.
// Empty lets go-rod find or download one.
func WithBrowserBin(path string) Option {
	return func(o *options) {
		o.browserBin = path
	}
}

// WithHeadless toggles headless mode for the rendered strategy.
func WithHeadless(headless bool) Option {
	return func(o *options) {
		o.headless = headless
	}
}

// WithRateLimit caps fetches per second for each session. rps <= 0 is unlimited.
func WithRateLimit(rps float64) Option {
	return func(o *options) {
		o.rateLimit = rps
	}
}

// WithLogger sets the logger used to report fetch failures.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewLauncher returns the Launcher for the given strategy.
func NewLauncher(strategy Strategy, opts ...Option) (Launcher, error) {
	switch strategy {
	case StrategyPlain:
		return NewHTTPLauncher(opts...)
	case StrategyRendered:
		return NewBrowserLauncher(opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, string(strategy))
	}
}

// validateProxy checks that a proxy URL is usable by either strategy.
func validateProxy(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProxy, err)
	}
	switch u.Scheme {
	case "http", "https", "socks5", "socks5h":
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidProxy, raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host in %q", ErrInvalidProxy, raw)
	}
	return u, nil
}

// RateLimited wraps f so that fetches start no faster than rps per second.
// rps <= 0 returns f unchanged. A fetch whose context ends while waiting
// for a token reports no content.
func RateLimited(f Fetcher, rps float64) Fetcher {
	if rps <= 0 {
		return f
	}
	return &rateLimitedFetcher{
		next:    f,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

type rateLimitedFetcher struct {
	next    Fetcher
	limiter *rate.Limiter
}

func (r *rateLimitedFetcher) Fetch(ctx context.Context, pageURL string) (string, bool) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", false
	}
	return r.next.Fetch(ctx, pageURL)
}

// rateLimitedSession applies a limiter to a Session while keeping its Close.
type rateLimitedSession struct {
	Session
	limited Fetcher
}

func (s *rateLimitedSession) Fetch(ctx context.Context, pageURL string) (string, bool) {
	return s.limited.Fetch(ctx, pageURL)
}

// limitSession wraps s when a rate limit is configured.
func limitSession(s Session, rps float64) Session {
	if rps <= 0 {
		return s
	}
	return &rateLimitedSession{Session: s, limited: RateLimited(s, rps)}
}
