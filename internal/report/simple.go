package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/prodcrawl/internal/model"
)

// SimpleWriter outputs human-readable text summaries for the terminal.
//
// Design decision: We use plain text with ASCII rules rather than ANSI
// colors so the output pipes cleanly into files and other tools.
type SimpleWriter struct {
	baseWriter

	// verbose adds per-depth statistics and failed URLs.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables per-depth details in the output.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs a crawl summary.
func (w *SimpleWriter) Write(result *model.CrawlResult) (int, error) {
	var sb strings.Builder

	rule(&sb, "=")
	sb.WriteString("CRAWL SUMMARY\n")
	rule(&sb, "=")
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "Domains crawled:  %d\n", result.Len())
	fmt.Fprintf(&sb, "Domains failed:   %d\n", len(result.Failures))
	fmt.Fprintf(&sb, "Product URLs:     %d\n", result.TotalProducts())
	fmt.Fprintf(&sb, "Elapsed:          %s\n", result.Elapsed().Round(time.Millisecond))
	sb.WriteString("\n")

	if result.Len() > 0 {
		rule(&sb, "-")
		sb.WriteString("DOMAINS\n")
		rule(&sb, "-")
		sb.WriteString("\n")
		for _, d := range result.Domains() {
			fmt.Fprintf(&sb, "  [+] %s\n", d.Domain)
			fmt.Fprintf(&sb, "      products: %d  pages: %d fetched, %d failed  time: %s\n",
				len(d.Products), d.Stats.PagesFetched, d.Stats.PagesFailed,
				d.Stats.Duration.Round(time.Millisecond))
			if w.verbose {
				w.writeDepths(&sb, d.Stats)
			}
		}
		sb.WriteString("\n")
	}

	if len(result.Failures) > 0 {
		rule(&sb, "-")
		sb.WriteString("FAILED DOMAINS\n")
		rule(&sb, "-")
		sb.WriteString("\n")
		for _, f := range result.Failures {
			fmt.Fprintf(&sb, "  [!] %s\n      %s\n", f.Domain, f.Error)
		}
		sb.WriteString("\n")
	}

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeDepths(sb *strings.Builder, stats model.CrawlStats) {
	for _, ds := range stats.Depths {
		fmt.Fprintf(sb, "      depth %d: %d dispatched, %d failed, %d new products, %d queued\n",
			ds.Depth, ds.Dispatched, ds.Failed, ds.Products, ds.Discovered)
	}
	for _, u := range stats.FailedURLs {
		fmt.Fprintf(sb, "      failed: %s\n", u)
	}
}

// WriteDiff outputs the product changes between two runs.
func (w *SimpleWriter) WriteDiff(diff *model.ProductDiff) (int, error) {
	var sb strings.Builder

	rule(&sb, "=")
	fmt.Fprintf(&sb, "PRODUCT CHANGES: %s\n", diff.Domain)
	rule(&sb, "=")
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "Previous run: #%d  %s  (%d products)\n",
		diff.Previous.ID, diff.Previous.StartedAt.Format("2006-01-02 15:04:05"), diff.Previous.Products)
	fmt.Fprintf(&sb, "Current run:  #%d  %s  (%d products)\n",
		diff.Current.ID, diff.Current.StartedAt.Format("2006-01-02 15:04:05"), diff.Current.Products)
	sb.WriteString("\n")

	if !diff.HasChanges() {
		fmt.Fprintf(&sb, "No changes (%d products unchanged)\n", diff.Unchanged)
		return io.WriteString(w.output, sb.String())
	}

	fmt.Fprintf(&sb, "Added: %d  Removed: %d  Unchanged: %d\n\n", len(diff.Added), len(diff.Removed), diff.Unchanged)
	for _, u := range diff.Added {
		fmt.Fprintf(&sb, "  + %s\n", u)
	}
	for _, u := range diff.Removed {
		fmt.Fprintf(&sb, "  - %s\n", u)
	}

	return io.WriteString(w.output, sb.String())
}

func rule(sb *strings.Builder, ch string) {
	sb.WriteString(strings.Repeat(ch, 70))
	sb.WriteString("\n")
}
