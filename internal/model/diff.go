package model

import "time"

// RunSummary identifies one stored crawl of a domain.
type RunSummary struct {
	ID           int64     `json:"id"`
	Domain       string    `json:"domain"`
	StartedAt    time.Time `json:"started_at"`
	Products     int       `json:"products"`
	PagesFetched int       `json:"pages_fetched"`
	PagesFailed  int       `json:"pages_failed"`
}

// ProductDiff compares the product sets of two runs of the same domain.
type ProductDiff struct {
	Domain   string     `json:"domain"`
	Previous RunSummary `json:"previous"`
	Current  RunSummary `json:"current"`

	// Added lists products of Current missing from Previous, in Current order.
	Added []string `json:"added"`

	// Removed lists products of Previous missing from Current, in Previous order.
	Removed []string `json:"removed"`

	// Unchanged counts products present in both runs.
	Unchanged int `json:"unchanged"`
}

// HasChanges reports whether any product was added or removed.
func (d *ProductDiff) HasChanges() bool {
	return len(d.Added) > 0 || len(d.Removed) > 0
}

// DiffProducts computes the added and removed products between two runs.
// Both result slices are non-nil.
func DiffProducts(previous, current []string) (added, removed []string, unchanged int) {
	prev := NewURLSet(previous...)
	cur := NewURLSet(current...)

	added = []string{}
	for _, u := range cur.Values() {
		if prev.Has(u) {
			unchanged++
			continue
		}
		added = append(added, u)
	}

	removed = []string{}
	for _, u := range prev.Values() {
		if !cur.Has(u) {
			removed = append(removed, u)
		}
	}
	return added, removed, unchanged
}
