// Package report renders crawl results and history diffs.
//
// Three formats share the Writer interface:
//   - JSONWriter: the domain -> product URLs object, the output file format
//   - SimpleWriter: a plain text summary for the terminal
//   - MarkdownWriter: GitHub Flavored Markdown tables
//
// WriteFile writes the output file, creating parent directories.
package report
