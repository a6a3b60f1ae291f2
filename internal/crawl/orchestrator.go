package crawl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/nao1215/prodcrawl/internal/classifier"
	"github.com/nao1215/prodcrawl/internal/config"
	"github.com/nao1215/prodcrawl/internal/fetcher"
	"github.com/nao1215/prodcrawl/internal/frontier"
	"github.com/nao1215/prodcrawl/internal/model"
)

// LauncherFactory builds the Launcher used for one domain.
// site holds the merged overrides for that domain.
type LauncherFactory func(domain string, site config.SiteConfig) (fetcher.Launcher, error)

// Orchestrator crawls seed domains sequentially and collects their products.
//
// Design decision: domains are processed one at a time. Concurrency lives
// inside a domain crawl (the scheduler's batches), and a rendered crawl
// already owns a whole browser per domain. Running domains in parallel
// would multiply browsers and make progress output interleave.
type Orchestrator struct {
	strategy    fetcher.Strategy
	fetchOpts   []fetcher.Option
	sites       *config.File
	maxDepth    int
	concurrency int
	strictHost  bool

	// newLauncher creates a launcher per domain. Tests replace it.
	newLauncher LauncherFactory

	// progress receives the user-facing progress lines.
	progress io.Writer

	logger *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithStrategy selects the fetch strategy.
func WithStrategy(s fetcher.Strategy) Option {
	return func(o *Orchestrator) {
		o.strategy = s
	}
}

// WithFetchOptions appends options passed to every launcher.
func WithFetchOptions(opts ...fetcher.Option) Option {
	return func(o *Orchestrator) {
		o.fetchOpts = append(o.fetchOpts, opts...)
	}
}

// WithSiteConfigs sets the per-domain overrides.
func WithSiteConfigs(f *config.File) Option {
	return func(o *Orchestrator) {
		o.sites = f
	}
}

// WithMaxDepth sets the default crawl depth. Values below 1 are ignored.
func WithMaxDepth(depth int) Option {
	return func(o *Orchestrator) {
		if depth > 0 {
			o.maxDepth = depth
		}
	}
}

// WithConcurrency sets the default batch size. 0 keeps the strategy default.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithStrictHost keeps category links on the seed's host.
func WithStrictHost(strict bool) Option {
	return func(o *Orchestrator) {
		o.strictHost = strict
	}
}

// WithLauncherFactory replaces how launchers are built.
func WithLauncherFactory(f LauncherFactory) Option {
	return func(o *Orchestrator) {
		if f != nil {
			o.newLauncher = f
		}
	}
}

// WithProgress sets where progress lines are printed. nil silences them.
func WithProgress(w io.Writer) Option {
	return func(o *Orchestrator) {
		if w == nil {
			w = io.Discard
		}
		o.progress = w
	}
}

// WithLogger sets the logger passed down to fetchers and schedulers.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// New creates an Orchestrator using the plain strategy and depth 2.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		strategy: fetcher.StrategyPlain,
		maxDepth: frontier.DefaultMaxDepth,
		progress: io.Discard,
		logger:   slog.Default(),
	}
	o.newLauncher = o.defaultLauncher

	for _, opt := range opts {
		opt(o)
	}
	return o
}

// NewFromConfig creates an Orchestrator from validated CLI configuration.
// Extra options are applied last.
func NewFromConfig(cfg *config.Config, opts ...Option) *Orchestrator {
	base := []Option{
		WithStrategy(cfg.FetchStrategy()),
		WithFetchOptions(cfg.FetcherOptions()...),
		WithSiteConfigs(cfg.SiteConfigs),
		WithMaxDepth(cfg.MaxDepth),
		WithConcurrency(cfg.Concurrency),
		WithStrictHost(cfg.StrictHost),
	}
	return New(append(base, opts...)...)
}

// defaultLauncher builds a launcher for the configured strategy, layering
// the site's User-Agent and headers over the global fetch options.
func (o *Orchestrator) defaultLauncher(_ string, site config.SiteConfig) (fetcher.Launcher, error) {
	opts := slices.Clone(o.fetchOpts)
	opts = append(opts,
		fetcher.WithLogger(o.logger),
		fetcher.WithUserAgent(site.UserAgent),
		fetcher.WithHeaders(site.Headers),
	)
	return fetcher.NewLauncher(o.strategy, opts...)
}

// schedulerFor returns a scheduler with the domain's depth and concurrency.
func (o *Orchestrator) schedulerFor(site config.SiteConfig) *frontier.Scheduler {
	depth := o.maxDepth
	if site.Depth > 0 {
		depth = site.Depth
	}
	concurrency := o.concurrency
	if site.Concurrency > 0 {
		concurrency = site.Concurrency
	}
	if concurrency <= 0 {
		concurrency = o.strategy.DefaultConcurrency()
	}

	return frontier.NewScheduler(
		frontier.WithMaxDepth(depth),
		frontier.WithMaxConcurrency(concurrency),
		frontier.WithClassifier(classifier.Classifier{StrictHost: o.strictHost}),
		frontier.WithLogger(o.logger),
	)
}

// Run crawls domains in order and returns the domain -> products mapping.
//
// Failed domains are printed, logged and recorded in result.Failures; they
// get no mapping entry. When ctx ends, Run stops before the next domain and
// returns what it has together with the context error. The domain being
// crawled at that moment keeps the products found so far.
func (o *Orchestrator) Run(ctx context.Context, domains []string) (*model.CrawlResult, error) {
	result := model.NewCrawlResult()
	defer func() {
		result.FinishedAt = time.Now()
	}()

	o.logger.Info("starting crawl job",
		"domains", len(domains),
		"strategy", o.strategy.String(),
		"max_depth", o.maxDepth,
	)

	for i, domain := range domains {
		if err := ctx.Err(); err != nil {
			o.logger.Warn("crawl job interrupted", "remaining", len(domains)-i)
			return result, err
		}

		fmt.Fprintf(o.progress, "Starting crawl for domain: %s\n", domain)

		dr, err := o.crawlDomain(ctx, domain)
		if ctxErr := ctx.Err(); ctxErr != nil {
			switch {
			case err != nil && !isContextErr(err):
				o.recordFailure(result, domain, err)
			case dr != nil:
				result.Add(dr)
				fmt.Fprintf(o.progress, "Interrupted %s after %d product URLs\n", domain, len(dr.Products))
			}
			o.logger.Warn("crawl job interrupted", "domain", domain, "remaining", len(domains)-i-1)
			return result, ctxErr
		}
		if err != nil {
			o.recordFailure(result, domain, err)
			continue
		}

		result.Add(dr)
		fmt.Fprintf(o.progress, "Found %d product URLs for %s\n", len(dr.Products), domain)
		o.logger.Info("domain crawl complete",
			"domain", domain,
			"products", len(dr.Products),
			"fetched", dr.Stats.PagesFetched,
			"failed", dr.Stats.PagesFailed,
			"elapsed", dr.Stats.Duration,
		)
	}

	return result, nil
}

// recordFailure reports a failed domain and leaves it out of the mapping.
func (o *Orchestrator) recordFailure(result *model.CrawlResult, domain string, err error) {
	fmt.Fprintf(o.progress, "Error crawling domain %s: %v\n", domain, err)
	o.logger.Error("domain crawl failed", "domain", domain, "error", err)
	result.AddFailure(domain, err)
}

// isContextErr reports whether err only says the run was cancelled or timed out.
func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// crawlDomain crawls one domain inside its own session. The session is
// closed on every path, including a panic, which is turned into an error.
// On a scheduler error the partial result is returned alongside it.
func (o *Orchestrator) crawlDomain(ctx context.Context, domain string) (dr *model.DomainResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			dr = nil
			err = fmt.Errorf("%w: %v", ErrDomainPanic, r)
		}
	}()

	site := o.sites.GetSiteConfig(domain)

	launcher, err := o.newLauncher(domain, site)
	if err != nil {
		return nil, fmt.Errorf("failed to create fetcher: %w", err)
	}

	session, err := launcher.Launch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to launch fetcher: %w", err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			o.logger.Warn("failed to close fetch session", "domain", domain, "error", cerr)
		}
	}()

	outcome, err := o.schedulerFor(site).Crawl(ctx, domain, session)
	if outcome != nil {
		dr = outcome.DomainResult()
	}
	return dr, err
}
