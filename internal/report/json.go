package report

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/nao1215/prodcrawl/internal/model"
)

// JSONWriter writes a crawl result as the bare domain -> product URLs object,
// which is the output file contract, and history diffs as a single object.
// Every document ends with a newline. HTML escaping is disabled so product
// URLs keep their "&" query separators.
type JSONWriter struct {
	baseWriter
	prefix string
	indent string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent indents nested levels with indent, each line starting with prefix.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.prefix, w.indent = prefix, indent
	}
}

// WithPrettyPrint is WithIndent("", "  "), the layout of the output file.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter. Output is compact unless an indent option is given.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the domain -> products mapping.
func (w *JSONWriter) Write(result *model.CrawlResult) (int, error) {
	return w.encode(result)
}

// WriteDiff outputs the diff object.
func (w *JSONWriter) WriteDiff(diff *model.ProductDiff) (int, error) {
	return w.encode(diff)
}

// encode buffers the whole document so a marshal error writes nothing.
func (w *JSONWriter) encode(v any) (int, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if w.prefix != "" || w.indent != "" {
		enc.SetIndent(w.prefix, w.indent)
	}
	if err := enc.Encode(v); err != nil {
		return 0, err
	}
	return w.output.Write(buf.Bytes())
}
