package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nao1215/prodcrawl/internal/model"
)

// Writer defines the interface for report output.
// Implementations render crawl results and history diffs in one format.
//
// Design decision: We use an interface so the crawl and history commands
// pick a format once and write to stdout or a file with the same API.
type Writer interface {
	// Write renders a finished (or partial) crawl job.
	Write(result *model.CrawlResult) (int, error)

	// WriteDiff renders the product changes between two runs of a domain.
	WriteDiff(diff *model.ProductDiff) (int, error)
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// WriteFile writes result as pretty-printed JSON to path.
// Missing parent directories are created and an existing file is replaced.
func WriteFile(path string, result *model.CrawlResult) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if _, err := NewJSONWriter(f, WithPrettyPrint()).Write(result); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	return nil
}
