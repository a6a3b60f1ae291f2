package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// DepthStats summarizes one breadth-first level of a domain crawl.
type DepthStats struct {
	// Depth is the 0-indexed level; depth 0 is the seed itself.
	Depth int `json:"depth"`

	// Dispatched is the number of fetches issued at this depth.
	Dispatched int `json:"dispatched"`

	// Failed is the number of fetches that produced no content.
	Failed int `json:"failed"`

	// Products is the number of product URLs first seen at this depth.
	Products int `json:"products"`

	// Discovered is the size of the frontier handed to the next depth.
	Discovered int `json:"discovered"`
}

// CrawlStats holds per-domain counters collected by the scheduler.
type CrawlStats struct {
	// MaxDepth is the depth bound the domain was crawled with, after
	// per-site overrides.
	MaxDepth     int           `json:"max_depth,omitempty"`
	PagesFetched int           `json:"pages_fetched"`
	PagesFailed  int           `json:"pages_failed"`
	URLsVisited  int           `json:"urls_visited"`
	Duration     time.Duration `json:"duration"`
	Depths       []DepthStats  `json:"depths,omitempty"`
	FailedURLs   []string      `json:"failed_urls,omitempty"`
}

// DomainResult is the outcome of crawling a single seed domain.
type DomainResult struct {
	// Domain is the seed string exactly as it appeared in the input list.
	Domain string `json:"domain"`

	// Products lists product URLs in the order they were accumulated.
	Products []string `json:"products"`

	// Stats is informational only and is not part of the output file.
	Stats CrawlStats `json:"stats"`
}

// DomainFailure records a domain whose crawl failed as a whole.
type DomainFailure struct {
	Domain string `json:"domain"`
	Error  string `json:"error"`
}

// CrawlResult is the ordered domain -> product URLs mapping produced by a
// crawl job. Domains keep the order in which they were added.
//
// Design decision: We do not use a plain map[string][]string because
// encoding/json sorts map keys, and the output file must list domains in
// input order.
type CrawlResult struct {
	StartedAt  time.Time
	FinishedAt time.Time

	// Failures lists domains omitted from the mapping, in input order.
	Failures []DomainFailure

	domains []*DomainResult
	index   map[string]int
}

// NewCrawlResult creates an empty result stamped with the current time.
func NewCrawlResult() *CrawlResult {
	return &CrawlResult{
		StartedAt: time.Now(),
		index:     make(map[string]int),
	}
}

// Add inserts or replaces the entry for dr.Domain.
// A replaced entry keeps its original position.
func (r *CrawlResult) Add(dr *DomainResult) {
	if r.index == nil {
		r.index = make(map[string]int)
	}
	if dr.Products == nil {
		dr.Products = []string{}
	}
	if i, ok := r.index[dr.Domain]; ok {
		r.domains[i] = dr
		return
	}
	r.index[dr.Domain] = len(r.domains)
	r.domains = append(r.domains, dr)
}

// AddFailure records a failed domain. The domain gets no mapping entry.
func (r *CrawlResult) AddFailure(domain string, err error) {
	r.Failures = append(r.Failures, DomainFailure{Domain: domain, Error: err.Error()})
}

// Get returns the entry for domain.
func (r *CrawlResult) Get(domain string) (*DomainResult, bool) {
	i, ok := r.index[domain]
	if !ok {
		return nil, false
	}
	return r.domains[i], true
}

// Domains returns the entries in insertion order.
func (r *CrawlResult) Domains() []*DomainResult {
	out := make([]*DomainResult, len(r.domains))
	copy(out, r.domains)
	return out
}

// Len returns the number of successfully crawled domains.
func (r *CrawlResult) Len() int {
	return len(r.domains)
}

// TotalProducts returns the number of product URLs across all domains.
func (r *CrawlResult) TotalProducts() int {
	total := 0
	for _, d := range r.domains {
		total += len(d.Products)
	}
	return total
}

// Elapsed returns the wall time of the crawl job.
func (r *CrawlResult) Elapsed() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// MarshalJSON encodes the result as a JSON object mapping each domain to its
// product URL array, keeping insertion order. Query separators in URLs are
// left unescaped; callers wanting "&" instead of "\u0026" in the final
// document must also disable HTML escaping on their encoder.
func (r *CrawlResult) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	buf.WriteByte('{')
	for i, d := range r.domains {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := enc.Encode(d.Domain); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		products := d.Products
		if products == nil {
			products = []string{}
		}
		if err := enc.Encode(products); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object written by MarshalJSON, preserving key order.
func (r *CrawlResult) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("crawl result must be a JSON object")
	}

	r.domains = nil
	r.index = make(map[string]int)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		domain, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("unexpected key token %v", keyTok)
		}
		var products []string
		if err := dec.Decode(&products); err != nil {
			return fmt.Errorf("failed to decode products for %s: %w", domain, err)
		}
		r.Add(&DomainResult{Domain: domain, Products: products})
	}

	_, err = dec.Token()
	return err
}
