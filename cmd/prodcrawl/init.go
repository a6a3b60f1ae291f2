package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/prodcrawl/internal/config"
	"github.com/spf13/cobra"
)

//go:embed templates/prodcrawl.yaml
var configTemplate embed.FS

const templatePath = "templates/prodcrawl.yaml"

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a .prodcrawl configuration file",
		Long: `Init writes a commented .prodcrawl configuration file.

The file holds default crawl settings and per-domain overrides for depth,
concurrency, User-Agent and extra request headers.

Examples:
  # Create .prodcrawl in the current directory
  prodcrawl init

  # Create the file at a specific path
  prodcrawl init -o configs/shops.yaml

  # Overwrite an existing file
  prodcrawl init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	if dir := filepath.Dir(outputPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to set per-domain overrides such as:")
	fmt.Fprintln(out, "  - crawl depth and concurrency")
	fmt.Fprintln(out, "  - User-Agent and extra request headers")

	return nil
}
