package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/prodcrawl/internal/config"
	"github.com/nao1215/prodcrawl/internal/database"
	"github.com/nao1215/prodcrawl/internal/report"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
// It reads runs stored by previous crawls and diffs their product sets.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [domain]",
		Short: "Compare product URLs with previous crawls",
		Long: `History shows how the product URLs of a domain changed between crawls.

Every finished crawl stores its results in a local database. By default this
command compares the two most recent runs of a domain and lists the product
URLs that were added and removed.

The domain must be given exactly as it appears in the domains file.

Examples:
  # Compare the two latest runs of a domain
  prodcrawl history https://shop.example.com

  # List stored runs for a domain
  prodcrawl history --list https://shop.example.com

  # Output the comparison as JSON
  prodcrawl history --json https://shop.example.com

  # List every domain in the database
  prodcrawl history --list-domains`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("list", "l", false,
		"List stored runs for the specified domain")
	cmd.Flags().BoolP("list-domains", "L", false,
		"List every domain with stored runs")
	cmd.Flags().BoolP("json", "j", false,
		"Output the comparison as JSON")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output the comparison as Markdown")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")

	cmd.MarkFlagsMutuallyExclusive("json", "markdown")

	return cmd
}

func runHistoryCmd(cmd *cobra.Command, args []string) error {
	listDomains, err := cmd.Flags().GetBool("list-domains")
	if err != nil {
		return err
	}

	// Validate arguments before opening the database.
	var domain string
	if !listDomains {
		if len(args) == 0 {
			return errors.New("domain is required (use --list-domains to see stored domains)")
		}
		domain = strings.TrimSpace(args[0])
	}

	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	if listDomains {
		return listStoredDomains(ctx, out, db)
	}

	list, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	if list {
		return listRuns(ctx, out, db, domain)
	}

	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}

	diff, err := db.DiffLatest(ctx, domain)
	if err != nil {
		return fmt.Errorf("failed to compare runs: %w", err)
	}

	var w report.Writer
	switch {
	case jsonOutput:
		w = report.NewJSONWriter(out, report.WithPrettyPrint())
	case markdownOutput:
		w = report.NewMarkdownWriter(out)
	default:
		w = report.NewSimpleWriter(out)
	}
	_, err = w.WriteDiff(diff)
	return err
}

// listStoredDomains prints every domain that has stored runs.
func listStoredDomains(ctx context.Context, out io.Writer, db *database.CrawlDB) error {
	domains, err := db.ListDomains(ctx)
	if err != nil {
		return fmt.Errorf("failed to list domains: %w", err)
	}

	if len(domains) == 0 {
		fmt.Fprintln(out, "No crawled domains found in the database.")
		fmt.Fprintln(out, "\nUse 'prodcrawl crawl' to crawl your seed domains.")
		return nil
	}

	fmt.Fprintf(out, "Crawled domains (%d):\n\n", len(domains))
	for _, d := range domains {
		fmt.Fprintf(out, "  • %s\n", d)
	}
	fmt.Fprintln(out, "\nUse 'prodcrawl history --list <domain>' to see the runs of a domain.")

	return nil
}

// listRuns prints the stored runs of domain, newest first.
func listRuns(ctx context.Context, out io.Writer, db *database.CrawlDB, domain string) error {
	runs, err := db.GetRunHistory(ctx, domain)
	if err != nil {
		return fmt.Errorf("failed to get run history: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintf(out, "No runs found for %s\n", domain)
		return nil
	}

	fmt.Fprintf(out, "Run history for %s (%d runs):\n\n", domain, len(runs))
	fmt.Fprintf(out, "  %-6s  %-20s  %8s  %8s  %8s\n", "ID", "Date", "Products", "Fetched", "Failed")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 58))

	for _, r := range runs {
		fmt.Fprintf(out, "  %-6d  %-20s  %8d  %8d  %8d\n",
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Products,
			r.PagesFetched,
			r.PagesFailed,
		)
	}

	fmt.Fprintf(out, "\nUse 'prodcrawl history %s' to compare the latest two runs.\n", domain)
	return nil
}
