package main

import (
	"bytes"
	"slices"
	"strings"
	"testing"
)

func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "prodcrawl" {
			t.Errorf("expected use 'prodcrawl', got %q", cmd.Use)
		}
		if cmd.Short == "" || cmd.Long == "" || cmd.Version == "" {
			t.Error("expected descriptions and version to be set")
		}
	})

	t.Run("has global flags", func(t *testing.T) {
		t.Parallel()

		verbose := cmd.PersistentFlags().Lookup("verbose")
		if verbose == nil || verbose.Shorthand != "v" || verbose.DefValue != "false" {
			t.Errorf("unexpected verbose flag: %+v", verbose)
		}
		if cmd.PersistentFlags().Lookup("json-logs") == nil {
			t.Error("expected json-logs flag")
		}
	})

	t.Run("has subcommands", func(t *testing.T) {
		t.Parallel()

		var names []string
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}
		for _, want := range []string{"crawl", "history", "init", "version"} {
			if !slices.Contains(names, want) {
				t.Errorf("missing subcommand %q in %v", want, names)
			}
		}
	})

	t.Run("silences usage and errors", func(t *testing.T) {
		t.Parallel()
		if !cmd.SilenceUsage || !cmd.SilenceErrors {
			t.Error("expected SilenceUsage and SilenceErrors to be true")
		}
	})
}

func TestGetBoolFlag(t *testing.T) {
	t.Parallel()

	root := NewRootCmd()
	root.SetArgs([]string{"-v", "version"})
	root.SetOut(&bytes.Buffer{})
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	version, _, err := root.Find([]string{"version"})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if !getBoolFlag(version, "verbose") {
		t.Error("expected verbose to be read from the root's persistent flags")
	}
	if getBoolFlag(version, "no-such-flag") {
		t.Error("unknown flag must read as false")
	}
}

func TestSetupLogger(t *testing.T) {
	t.Parallel()

	t.Run("text", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := setupLogger(&buf, false, false)
		logger.Debug("hidden")
		logger.Info("fetch failed", "url", "https://shop.test/p/1?token=abc")

		out := buf.String()
		if strings.Contains(out, "hidden") {
			t.Error("debug output without verbose")
		}
		if strings.Contains(out, "abc") {
			t.Errorf("token leaked into logs: %s", out)
		}
	})

	t.Run("json verbose", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		setupLogger(&buf, true, true).Debug("depth complete", "depth", 1)
		if !strings.HasPrefix(buf.String(), "{") || !strings.Contains(buf.String(), `"depth":1`) {
			t.Errorf("unexpected JSON log: %s", buf.String())
		}
	})
}
