package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nao1215/prodcrawl/internal/config"
	"github.com/nao1215/prodcrawl/internal/crawl"
	"github.com/nao1215/prodcrawl/internal/database"
	"github.com/nao1215/prodcrawl/internal/model"
	"github.com/nao1215/prodcrawl/internal/report"
	"github.com/spf13/cobra"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl seed domains and collect product URLs",
		Long: `Crawl reads seed domains from a newline-delimited file and crawls each one
breadth-first up to the configured depth.

Every fetched page is classified: links whose path contains /product/, /item/,
/p/, /details/ or /prod/ are recorded as products, and links that start with
the seed domain are crawled at the next depth. Links to /about, /contact,
/privacy, /blog, mailto: and document downloads are never followed.

Domains that fail as a whole are reported and left out of the output.
On Ctrl+C the crawl stops and the results gathered so far are written.

Examples:
  # Crawl the domains in domains.txt and write output.json
  prodcrawl crawl

  # Render pages in a headless browser, three levels deep
  prodcrawl crawl -s rendered -d 3 -i shops.txt -o out/products.json

  # Route requests through a SOCKS5 proxy at 2 requests per second
  prodcrawl crawl --proxy socks5://127.0.0.1:1080 --rate 2

Configuration file (.prodcrawl) example:
  defaults:
    depth: 2
  sites:
    "https://shop.example.com":
      concurrency: 4
      headers:
        Accept-Language: "de-DE"`,
		Args: cobra.NoArgs,
		RunE: runCrawlCmd,
	}

	cmd.Flags().StringP("domains", "i", config.DefaultDomainsFile,
		"Newline-delimited file of seed domains")
	cmd.Flags().StringP("output", "o", config.DefaultOutputFile,
		"JSON output file (parent directories are created)")

	cmd.Flags().IntP("depth", "d", config.DefaultMaxDepth,
		"Number of breadth-first levels to crawl")
	cmd.Flags().IntP("concurrency", "n", 0,
		"Fetches in flight per batch (0 = 10 for plain, 5 for rendered)")
	cmd.Flags().StringP("strategy", "s", "plain",
		"Fetch strategy: plain or rendered")
	cmd.Flags().Bool("strict-host", false,
		"Only follow category links on the seed's host")

	cmd.Flags().DurationP("timeout", "t", config.DefaultRequestTimeout,
		"Timeout for each plain HTTP request")
	cmd.Flags().Duration("nav-timeout", config.DefaultNavigationTimeout,
		"Timeout for each rendered page navigation")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with every request")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum response body size in bytes")
	cmd.Flags().Float64("rate", 0,
		"Maximum fetches per second per domain (0 = unlimited)")
	cmd.Flags().String("proxy", "",
		"Proxy URL (http://, https:// or socks5://)")
	cmd.Flags().String("browser-bin", "",
		"Browser executable for the rendered strategy")

	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .prodcrawl in current or home directory)")
	cmd.Flags().String("summary", config.SummaryText,
		"Console summary format: text, markdown or none")
	cmd.Flags().Bool("no-history", false,
		"Do not store this run in the history database")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")

	return cmd
}

func runCrawlCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg.Verbose, cfg.JSONLogs)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runCrawl(ctx, cfg, cmd.OutOrStdout(), logger)
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.DomainsFile, err = flags.GetString("domains"); err != nil {
		return nil, err
	}
	if cfg.OutputFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.MaxDepth, err = flags.GetInt("depth"); err != nil {
		return nil, err
	}
	if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
		return nil, err
	}
	if cfg.Strategy, err = flags.GetString("strategy"); err != nil {
		return nil, err
	}
	if cfg.StrictHost, err = flags.GetBool("strict-host"); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.NavigationTimeout, err = flags.GetDuration("nav-timeout"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.MaxBodySize, err = flags.GetInt64("max-body-size"); err != nil {
		return nil, err
	}
	if cfg.RateLimit, err = flags.GetFloat64("rate"); err != nil {
		return nil, err
	}
	if cfg.Proxy, err = flags.GetString("proxy"); err != nil {
		return nil, err
	}
	if cfg.BrowserBin, err = flags.GetString("browser-bin"); err != nil {
		return nil, err
	}
	if cfg.Summary, err = flags.GetString("summary"); err != nil {
		return nil, err
	}
	noHistory, err := flags.GetBool("no-history")
	if err != nil {
		return nil, err
	}
	cfg.SaveHistory = !noHistory
	if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}

	cfg.Verbose = getBoolFlag(cmd, "verbose")
	cfg.JSONLogs = getBoolFlag(cmd, "json-logs")

	// An explicitly given config file must exist; a missing default one is fine.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	default:
		cfg.SiteConfigs = &config.File{Sites: make(map[string]config.SiteConfig)}
	}

	return cfg, nil
}

// runCrawl executes a crawl job. The output file is written even when the
// job was interrupted; only an unreadable domains file prevents that.
func runCrawl(ctx context.Context, cfg *config.Config, out io.Writer, logger *slog.Logger) error {
	domains, err := config.ReadDomains(cfg.DomainsFile)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Loaded %d domains from %s (strategy: %s, depth: %d, concurrency: %d)\n\n",
		len(domains), cfg.DomainsFile, cfg.FetchStrategy(), cfg.MaxDepth, cfg.EffectiveConcurrency())

	orch := crawl.NewFromConfig(cfg,
		crawl.WithLogger(logger),
		crawl.WithProgress(out),
	)

	result, runErr := orch.Run(ctx, domains)

	if err := report.WriteFile(cfg.OutputFile, result); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	fmt.Fprintf(out, "\nWrote %d domains (%d product URLs) to %s in %s\n\n",
		result.Len(), result.TotalProducts(), cfg.OutputFile, result.Elapsed().Round(time.Millisecond))

	if err := printSummary(out, cfg, result); err != nil {
		logger.Error("failed to print summary", "error", err)
	}

	if runErr != nil {
		return fmt.Errorf("crawl interrupted: %w", runErr)
	}

	if cfg.SaveHistory {
		if err := saveHistory(ctx, cfg, result, logger); err != nil {
			logger.Error("failed to save crawl history", "error", err)
		}
	}

	return nil
}

// printSummary renders the console summary in the configured format.
func printSummary(out io.Writer, cfg *config.Config, result *model.CrawlResult) error {
	var w report.Writer
	switch cfg.Summary {
	case config.SummaryMarkdown:
		w = report.NewMarkdownWriter(out)
	case config.SummaryText:
		w = report.NewSimpleWriter(out, report.WithVerbose(cfg.Verbose))
	default:
		return nil
	}
	_, err := w.Write(result)
	return err
}

// saveHistory stores every successfully crawled domain as a run.
func saveHistory(ctx context.Context, cfg *config.Config, result *model.CrawlResult, logger *slog.Logger) error {
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ids, err := db.SaveCrawlResult(ctx, result, cfg.FetchStrategy().String(), cfg.MaxDepth)
	if err != nil {
		return err
	}

	logger.Info("crawl history saved", "runs", len(ids), "db", db.Path())
	return nil
}
