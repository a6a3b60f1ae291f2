package frontier

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/nao1215/prodcrawl/internal/classifier"
	"github.com/nao1215/prodcrawl/internal/fetcher"
	"github.com/nao1215/prodcrawl/internal/model"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultMaxDepth is the number of levels crawled when none is configured.
	DefaultMaxDepth = 2

	// DefaultMaxConcurrency is the batch size used when none is configured.
	DefaultMaxConcurrency = 10
)

// Scheduler crawls one domain breadth-first up to a fixed depth.
// A Scheduler holds no per-crawl state and may be reused for any number of
// domains, one Crawl at a time or concurrently.
//
// Design decision: fetch tasks return their links as values instead of
// writing into shared sets. The fold after each batch is the only writer,
// which removes the need for locks and makes batch results independent of
// goroutine scheduling.
type Scheduler struct {
	// maxDepth is the number of levels fetched. 1 fetches only the seed.
	maxDepth int

	// maxConcurrency bounds the batch size and so the fetches in flight.
	maxConcurrency int

	classifier classifier.Classifier
	logger     *slog.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithMaxDepth sets how many levels are fetched. Values below 1 are ignored.
func WithMaxDepth(depth int) Option {
	return func(s *Scheduler) {
		if depth > 0 {
			s.maxDepth = depth
		}
	}
}

// WithMaxConcurrency sets the batch size. Values below 1 are ignored.
func WithMaxConcurrency(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.maxConcurrency = n
		}
	}
}

// WithClassifier replaces the default link classifier.
func WithClassifier(c classifier.Classifier) Option {
	return func(s *Scheduler) {
		s.classifier = c
	}
}

// WithLogger sets the logger used for per-depth progress.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewScheduler creates a Scheduler with depth 2 and batches of 10.
func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{
		maxDepth:       DefaultMaxDepth,
		maxConcurrency: DefaultMaxConcurrency,
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxDepth returns the configured depth.
func (s *Scheduler) MaxDepth() int {
	return s.maxDepth
}

// MaxConcurrency returns the configured batch size.
func (s *Scheduler) MaxConcurrency() int {
	return s.maxConcurrency
}

// Outcome is what a Crawl accumulated.
type Outcome struct {
	Domain   string
	Products []string
	Stats    model.CrawlStats
}

// DomainResult converts the outcome into its output record.
func (o *Outcome) DomainResult() *model.DomainResult {
	return &model.DomainResult{
		Domain:   o.Domain,
		Products: o.Products,
		Stats:    o.Stats,
	}
}

// pageResult is what a single fetch task hands back to the fold.
type pageResult struct {
	url        string
	fetched    bool
	products   []string
	categories []string
	panicked   any
}

// crawlState is owned by the control flow of one Crawl call.
type crawlState struct {
	visited  *model.URLSet
	products *model.URLSet
	stats    model.CrawlStats
}

func (st *crawlState) outcome(domain string, started time.Time) *Outcome {
	st.stats.URLsVisited = st.visited.Len()
	st.stats.Duration = time.Since(started)
	return &Outcome{
		Domain:   domain,
		Products: st.products.Values(),
		Stats:    st.stats,
	}
}

// Crawl fetches domain and the category pages reachable from it, level by
// level, and returns every product URL seen.
//
// Page failures are data: they are counted and the crawl moves on. Crawl
// returns an error only for invalid arguments, a panicking fetch task, or
// a context that ends between batches. In the last two cases the partial
// outcome is returned together with the error.
func (s *Scheduler) Crawl(ctx context.Context, domain string, f fetcher.Fetcher) (*Outcome, error) {
	if domain == "" {
		return nil, ErrEmptyDomain
	}
	if f == nil {
		return nil, ErrNilFetcher
	}

	started := time.Now()
	st := &crawlState{
		visited:  model.NewURLSet(),
		products: model.NewURLSet(),
		stats:    model.CrawlStats{MaxDepth: s.maxDepth},
	}

	frontier := []string{domain}
	for depth := 0; depth < s.maxDepth && len(frontier) > 0; depth++ {
		pending := make([]string, 0, len(frontier))
		for _, u := range frontier {
			if st.visited.Add(u) {
				pending = append(pending, u)
			}
		}

		lastLevel := depth == s.maxDepth-1
		next := model.NewURLSet()
		ds := model.DepthStats{Depth: depth, Dispatched: len(pending)}

		s.logger.Debug("crawling depth",
			"domain", domain,
			"depth", depth,
			"urls", len(pending),
		)

		for start := 0; start < len(pending); start += s.maxConcurrency {
			if err := ctx.Err(); err != nil {
				st.stats.Depths = append(st.stats.Depths, ds)
				return st.outcome(domain, started), err
			}

			end := min(start+s.maxConcurrency, len(pending))
			results := s.runBatch(ctx, domain, pending[start:end], f)

			for _, r := range results {
				if r.panicked != nil {
					st.stats.Depths = append(st.stats.Depths, ds)
					return st.outcome(domain, started), fmt.Errorf("%w: %s: %v", ErrTaskPanic, r.url, r.panicked)
				}
				if !r.fetched {
					ds.Failed++
					st.stats.PagesFailed++
					st.stats.FailedURLs = append(st.stats.FailedURLs, r.url)
					continue
				}
				st.stats.PagesFetched++
				ds.Products += st.products.AddAll(r.products...)
				if !lastLevel {
					next.AddAll(r.categories...)
				}
			}
		}

		ds.Discovered = next.Len()
		st.stats.Depths = append(st.stats.Depths, ds)

		s.logger.Debug("depth complete",
			"domain", domain,
			"depth", depth,
			"fetched", ds.Dispatched-ds.Failed,
			"failed", ds.Failed,
			"new_products", ds.Products,
			"next_frontier", ds.Discovered,
		)

		frontier = next.Values()
	}

	return st.outcome(domain, started), nil
}

// runBatch fetches every URL in batch concurrently and waits for all of
// them. results[i] belongs to batch[i].
func (s *Scheduler) runBatch(ctx context.Context, domain string, batch []string, f fetcher.Fetcher) []pageResult {
	results := make([]pageResult, len(batch))

	var g errgroup.Group
	g.SetLimit(s.maxConcurrency)

	for i, pageURL := range batch {
		g.Go(func() error {
			results[i] = s.visit(ctx, domain, pageURL, f)
			return nil
		})
	}

	// Tasks never return errors; failures travel in the results.
	_ = g.Wait()

	return results
}

// visit fetches and classifies one page.
func (s *Scheduler) visit(ctx context.Context, domain, pageURL string, f fetcher.Fetcher) (r pageResult) {
	r.url = pageURL
	defer func() {
		if p := recover(); p != nil {
			r = pageResult{url: pageURL, panicked: p}
		}
	}()

	html, ok := f.Fetch(ctx, pageURL)
	if !ok {
		return r
	}

	links := s.classifier.Classify(html, pageURL, domain)
	r.fetched = true
	r.products = links.Products
	r.categories = links.Categories
	return r
}
