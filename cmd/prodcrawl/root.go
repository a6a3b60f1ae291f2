package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	plog "github.com/nao1215/prodcrawl/internal/log"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for prodcrawl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prodcrawl",
		Short: "Harvest product page URLs from storefronts",
		Long: `prodcrawl runs breadth-first, depth-bounded crawls over a list of seed
domains and collects the URLs of product detail pages.

Pages are fetched either with plain HTTP requests or through a headless
browser that returns the rendered DOM. Results are written as a JSON object
mapping each seed domain to its product URLs.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("json-logs", false, "Emit logs as JSON")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getBoolFlag reads a flag from the command, falling back to the root's
// persistent flags.
func getBoolFlag(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		v, err = cmd.Root().PersistentFlags().GetBool(name)
		if err != nil {
			return false
		}
	}
	return v
}

// setupLogger creates the structured logger for a command run.
func setupLogger(w io.Writer, verbose, jsonLogs bool) *slog.Logger {
	if jsonLogs {
		return plog.NewJSONLogger(w, verbose)
	}
	return plog.NewLogger(w, verbose)
}
