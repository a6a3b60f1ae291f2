package report

import (
	"bytes"
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/prodcrawl/internal/model"
)

// MarkdownWriter outputs summaries in GitHub Flavored Markdown.
// This format is meant for pasting into issues and pull requests.
//
// Design decision: We use the nao1215/markdown library for fluent
// markdown generation, which gives escaped tables and alerts.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs a crawl summary with one table row per domain.
func (w *MarkdownWriter) Write(result *model.CrawlResult) (int, error) {
	var buf bytes.Buffer
	md := markdown.NewMarkdown(&buf)

	md.H1("Crawl Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Domains crawled", strconv.Itoa(result.Len())},
			{"Domains failed", strconv.Itoa(len(result.Failures))},
			{"Product URLs", strconv.Itoa(result.TotalProducts())},
			{"Elapsed", result.Elapsed().Round(time.Millisecond).String()},
		},
	})
	md.PlainText("")

	if result.Len() > 0 {
		rows := make([][]string, 0, result.Len())
		for _, d := range result.Domains() {
			rows = append(rows, []string{
				"`" + d.Domain + "`",
				strconv.Itoa(len(d.Products)),
				strconv.Itoa(d.Stats.PagesFetched),
				strconv.Itoa(d.Stats.PagesFailed),
				d.Stats.Duration.Round(time.Millisecond).String(),
			})
		}
		md.H2("Domains")
		md.PlainText("")
		md.Table(markdown.TableSet{
			Header: []string{"Domain", "Products", "Pages fetched", "Pages failed", "Time"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	if len(result.Failures) > 0 {
		md.H2("Failed Domains")
		md.PlainText("")
		for _, f := range result.Failures {
			md.Warningf("`%s`: %s", f.Domain, f.Error)
		}
		md.PlainText("")
	}

	return w.flush(md, &buf)
}

// WriteDiff outputs the product changes between two runs.
func (w *MarkdownWriter) WriteDiff(diff *model.ProductDiff) (int, error) {
	var buf bytes.Buffer
	md := markdown.NewMarkdown(&buf)

	md.H1("Product Changes: " + diff.Domain)
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Run", "ID", "Started", "Products"},
		Rows: [][]string{
			{"Previous", strconv.FormatInt(diff.Previous.ID, 10), diff.Previous.StartedAt.Format("2006-01-02 15:04:05"), strconv.Itoa(diff.Previous.Products)},
			{"Current", strconv.FormatInt(diff.Current.ID, 10), diff.Current.StartedAt.Format("2006-01-02 15:04:05"), strconv.Itoa(diff.Current.Products)},
		},
	})
	md.PlainText("")

	if !diff.HasChanges() {
		md.Note("No products were added or removed.")
		md.PlainText("")
		return w.flush(md, &buf)
	}

	if len(diff.Added) > 0 {
		md.H2("Added (" + strconv.Itoa(len(diff.Added)) + ")")
		md.PlainText("")
		md.BulletList(diff.Added...)
		md.PlainText("")
	}
	if len(diff.Removed) > 0 {
		md.H2("Removed (" + strconv.Itoa(len(diff.Removed)) + ")")
		md.PlainText("")
		md.BulletList(diff.Removed...)
		md.PlainText("")
	}

	return w.flush(md, &buf)
}

// flush builds the document into buf and copies it to the output.
func (w *MarkdownWriter) flush(md *markdown.Markdown, buf *bytes.Buffer) (int, error) {
	if err := md.Build(); err != nil {
		return 0, err
	}
	return w.output.Write(buf.Bytes())
}
