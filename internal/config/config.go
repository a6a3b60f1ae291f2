package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/nao1215/prodcrawl/internal/fetcher"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "prodcrawl"

	// DefaultDomainsFile is the newline-delimited seed list read by crawl.
	DefaultDomainsFile = "domains.txt"

	// DefaultOutputFile is where the domain -> products mapping is written.
	DefaultOutputFile = "output.json"

	// DefaultMaxDepth is the number of breadth-first levels crawled.
	// Depth 2 covers the seed page and the category pages it links to,
	// which is where most storefronts list their products.
	DefaultMaxDepth = 2

	// DefaultRequestTimeout bounds a single plain HTTP request.
	DefaultRequestTimeout = fetcher.DefaultRequestTimeout

	// DefaultNavigationTimeout bounds a single rendered navigation.
	DefaultNavigationTimeout = fetcher.DefaultNavigationTimeout

	// DefaultMaxBodySize limits the maximum response body size to read.
	// 5MB is sufficient for most HTML pages while preventing memory exhaustion
	// from unexpectedly large responses.
	DefaultMaxBodySize = fetcher.DefaultMaxBodySize

	// DefaultUserAgent is a desktop browser agent. Storefronts commonly
	// block or degrade responses for crawler agents.
	DefaultUserAgent = fetcher.DefaultUserAgent
)

// Summary formats printed after a crawl.
const (
	SummaryText     = "text"
	SummaryMarkdown = "markdown"
	SummaryNone     = "none"
)

// Config holds all configuration options for prodcrawl.
// This struct is populated from CLI flags and passed through the
// application rather than kept in global state.
//
// Design decision: We use a single flat struct instead of nested structs
// for simplicity. The number of options is manageable.
type Config struct {
	// DomainsFile is the path of the newline-delimited seed list.
	DomainsFile string

	// OutputFile is the path of the JSON output. Parent directories are
	// created and an existing file is overwritten.
	OutputFile string

	// MaxDepth is the number of breadth-first levels to traverse.
	// 1 fetches only the seed page.
	MaxDepth int

	// Concurrency bounds the fetches in flight per batch.
	// 0 means the strategy default (10 plain, 5 rendered).
	Concurrency int

	// Strategy selects plain HTTP or rendered browser fetching.
	Strategy string

	// RequestTimeout bounds a single plain HTTP request.
	RequestTimeout time.Duration

	// NavigationTimeout bounds a single rendered navigation.
	NavigationTimeout time.Duration

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64

	// RateLimit caps fetches per second per domain. 0 disables it.
	RateLimit float64

	// Proxy is an optional http://, https:// or socks5:// proxy URL.
	Proxy string

	// BrowserBin is the browser executable for the rendered strategy.
	// Empty lets the browser driver locate or download one.
	BrowserBin string

	// StrictHost requires category links to stay on the seed's host, in
	// addition to sharing its string prefix.
	StrictHost bool

	// Summary is the console summary format: text, markdown or none.
	Summary string

	// SaveHistory stores finished results in the history database.
	SaveHistory bool

	// DBDir is the directory holding the history database.
	// Defaults to the XDG data directory (~/.local/share/prodcrawl on Linux).
	DBDir string

	// ConfigFilePath is the path to the site configuration file.
	// If empty, the tool searches for .prodcrawl in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// SiteConfigs holds per-domain overrides loaded from the config file.
	SiteConfigs *File

	// Verbose enables debug-level logging.
	Verbose bool

	// JSONLogs switches the log handler from text to JSON.
	JSONLogs bool
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero. This also serves as
// documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		DomainsFile:       DefaultDomainsFile,
		OutputFile:        DefaultOutputFile,
		MaxDepth:          DefaultMaxDepth,
		Strategy:          string(fetcher.StrategyPlain),
		RequestTimeout:    DefaultRequestTimeout,
		NavigationTimeout: DefaultNavigationTimeout,
		UserAgent:         DefaultUserAgent,
		MaxBodySize:       DefaultMaxBodySize,
		Summary:           SummaryText,
		SaveHistory:       true,
		DBDir:             XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for prodcrawl.
// On Linux: ~/.local/share/prodcrawl
// On macOS: ~/Library/Application Support/prodcrawl
// On Windows: %LOCALAPPDATA%\prodcrawl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for prodcrawl.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// FetchStrategy returns the parsed Strategy. Call Validate first.
func (c *Config) FetchStrategy() fetcher.Strategy {
	s, err := fetcher.ParseStrategy(c.Strategy)
	if err != nil {
		return fetcher.StrategyPlain
	}
	return s
}

// EffectiveConcurrency returns Concurrency, or the strategy default when unset.
func (c *Config) EffectiveConcurrency() int {
	if c.Concurrency > 0 {
		return c.Concurrency
	}
	return c.FetchStrategy().DefaultConcurrency()
}

// FetcherOptions converts the fetch-related settings into fetcher options.
func (c *Config) FetcherOptions() []fetcher.Option {
	return []fetcher.Option{
		fetcher.WithUserAgent(c.UserAgent),
		fetcher.WithTimeout(c.RequestTimeout),
		fetcher.WithNavigationTimeout(c.NavigationTimeout),
		fetcher.WithMaxBodySize(c.MaxBodySize),
		fetcher.WithRateLimit(c.RateLimit),
		fetcher.WithProxy(c.Proxy),
		fetcher.WithBrowserBin(c.BrowserBin),
	}
}

// Validate checks if the configuration is valid.
// It returns the first problem found as a sentinel error.
//
// Design decision: We validate once after CLI parsing, before any crawl
// begins, so that mistakes fail fast with a clear message.
func (c *Config) Validate() error {
	if c.DomainsFile == "" {
		return ErrNoDomainsFile
	}
	if c.OutputFile == "" {
		return ErrNoOutputFile
	}
	if c.MaxDepth < 1 {
		return ErrInvalidDepth
	}
	if c.Concurrency < 0 {
		return ErrInvalidConcurrency
	}
	if _, err := fetcher.ParseStrategy(c.Strategy); err != nil {
		return err
	}
	if c.RequestTimeout <= 0 || c.NavigationTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.RateLimit < 0 {
		return ErrInvalidRateLimit
	}
	switch c.Summary {
	case SummaryText, SummaryMarkdown, SummaryNone:
	default:
		return ErrInvalidSummary
	}
	return nil
}
