package config

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/prodcrawl/internal/fetcher"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected default values.
// Changes to defaults must be intentional: these tests fail when they change.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default DomainsFile is domains.txt", func(t *testing.T) {
		t.Parallel()
		if cfg.DomainsFile != "domains.txt" {
			t.Errorf("expected DomainsFile to be 'domains.txt', got '%s'", cfg.DomainsFile)
		}
	})

	t.Run("default OutputFile is output.json", func(t *testing.T) {
		t.Parallel()
		if cfg.OutputFile != "output.json" {
			t.Errorf("expected OutputFile to be 'output.json', got '%s'", cfg.OutputFile)
		}
	})

	t.Run("default MaxDepth is 2", func(t *testing.T) {
		t.Parallel()
		if cfg.MaxDepth != 2 {
			t.Errorf("expected MaxDepth to be 2, got %d", cfg.MaxDepth)
		}
	})

	t.Run("default Strategy is plain", func(t *testing.T) {
		t.Parallel()
		if cfg.Strategy != "plain" {
			t.Errorf("expected Strategy to be 'plain', got '%s'", cfg.Strategy)
		}
	})

	t.Run("default timeouts are 30 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.RequestTimeout != 30*time.Second {
			t.Errorf("expected RequestTimeout to be 30s, got %v", cfg.RequestTimeout)
		}
		if cfg.NavigationTimeout != 30*time.Second {
			t.Errorf("expected NavigationTimeout to be 30s, got %v", cfg.NavigationTimeout)
		}
	})

	t.Run("default Concurrency defers to the strategy", func(t *testing.T) {
		t.Parallel()
		if cfg.Concurrency != 0 {
			t.Errorf("expected Concurrency to be 0, got %d", cfg.Concurrency)
		}
	})

	t.Run("default UserAgent looks like a browser", func(t *testing.T) {
		t.Parallel()
		if !strings.HasPrefix(cfg.UserAgent, "Mozilla/5.0") {
			t.Errorf("expected browser-like UserAgent, got %q", cfg.UserAgent)
		}
	})

	t.Run("default MaxBodySize is 5MB", func(t *testing.T) {
		t.Parallel()
		if cfg.MaxBodySize != 5*1024*1024 {
			t.Errorf("expected MaxBodySize to be 5MB, got %d", cfg.MaxBodySize)
		}
	})

	t.Run("history is on by default", func(t *testing.T) {
		t.Parallel()
		if !cfg.SaveHistory {
			t.Error("expected SaveHistory to be true")
		}
		if cfg.DBDir != XDGDataDir() {
			t.Errorf("expected DBDir to be %q, got %q", XDGDataDir(), cfg.DBDir)
		}
	})

	t.Run("default config is valid", func(t *testing.T) {
		t.Parallel()
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})
}

// TestConfigValidate tests the Validate method with various configurations.
// Each test case is designed to test one specific validation rule.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{name: "empty domains file", modify: func(c *Config) { c.DomainsFile = "" }, wantErr: ErrNoDomainsFile},
		{name: "empty output file", modify: func(c *Config) { c.OutputFile = "" }, wantErr: ErrNoOutputFile},
		{name: "zero depth", modify: func(c *Config) { c.MaxDepth = 0 }, wantErr: ErrInvalidDepth},
		{name: "negative depth", modify: func(c *Config) { c.MaxDepth = -1 }, wantErr: ErrInvalidDepth},
		{name: "negative concurrency", modify: func(c *Config) { c.Concurrency = -1 }, wantErr: ErrInvalidConcurrency},
		{name: "unknown strategy", modify: func(c *Config) { c.Strategy = "telepathy" }, wantErr: fetcher.ErrUnknownStrategy},
		{name: "zero request timeout", modify: func(c *Config) { c.RequestTimeout = 0 }, wantErr: ErrInvalidTimeout},
		{name: "negative navigation timeout", modify: func(c *Config) { c.NavigationTimeout = -time.Second }, wantErr: ErrInvalidTimeout},
		{name: "negative body size", modify: func(c *Config) { c.MaxBodySize = -1 }, wantErr: ErrInvalidMaxBodySize},
		{name: "negative rate limit", modify: func(c *Config) { c.RateLimit = -0.5 }, wantErr: ErrInvalidRateLimit},
		{name: "unknown summary", modify: func(c *Config) { c.Summary = "html" }, wantErr: ErrInvalidSummary},
		{name: "rendered strategy", modify: func(c *Config) { c.Strategy = "rendered" }},
		{name: "depth 1", modify: func(c *Config) { c.MaxDepth = 1 }},
		{name: "markdown summary", modify: func(c *Config) { c.Summary = SummaryMarkdown }},
		{name: "no summary", modify: func(c *Config) { c.Summary = SummaryNone }},
		{name: "fractional rate", modify: func(c *Config) { c.RateLimit = 0.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := NewConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestEffectiveConcurrency(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		strategy    string
		concurrency int
		want        int
	}{
		{name: "plain default", strategy: "plain", want: 10},
		{name: "rendered default", strategy: "rendered", want: 5},
		{name: "explicit wins", strategy: "rendered", concurrency: 3, want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := NewConfig()
			cfg.Strategy = tt.strategy
			cfg.Concurrency = tt.concurrency
			if got := cfg.EffectiveConcurrency(); got != tt.want {
				t.Errorf("EffectiveConcurrency() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFetcherOptions(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	cfg.Proxy = "ftp://bad"

	// The options must carry the proxy through to the launcher.
	_, err := fetcher.NewLauncher(cfg.FetchStrategy(), cfg.FetcherOptions()...)
	if !errors.Is(err, fetcher.ErrInvalidProxy) {
		t.Errorf("expected ErrInvalidProxy, got %v", err)
	}

	cfg.Proxy = ""
	if _, err := fetcher.NewLauncher(cfg.FetchStrategy(), cfg.FetcherOptions()...); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// TestFileGetSiteConfig tests merging site entries over defaults.
func TestFileGetSiteConfig(t *testing.T) {
	t.Parallel()

	cf := &File{
		Defaults: SiteConfig{
			Depth:     3,
			Headers:   map[string]string{"Accept-Language": "en"},
			UserAgent: "default-agent",
		},
		Sites: map[string]SiteConfig{
			"http://shop.test": {
				Concurrency: 2,
				Headers:     map[string]string{"X-Region": "eu"},
			},
			"https://deep.test": {
				Depth:     5,
				UserAgent: "deep-agent",
				Headers:   map[string]string{"Accept-Language": "de"},
			},
		},
	}

	t.Run("unknown domain gets defaults", func(t *testing.T) {
		t.Parallel()

		sc := cf.GetSiteConfig("http://other.test")
		if sc.Depth != 3 || sc.Concurrency != 0 || sc.UserAgent != "default-agent" {
			t.Errorf("got %+v, want defaults", sc)
		}
	})

	t.Run("site values override and headers merge", func(t *testing.T) {
		t.Parallel()

		sc := cf.GetSiteConfig("http://shop.test")
		if sc.Depth != 3 {
			t.Errorf("Depth = %d, want 3 from defaults", sc.Depth)
		}
		if sc.Concurrency != 2 {
			t.Errorf("Concurrency = %d, want 2", sc.Concurrency)
		}
		if sc.Headers["Accept-Language"] != "en" || sc.Headers["X-Region"] != "eu" {
			t.Errorf("Headers = %v, want merged", sc.Headers)
		}
	})

	t.Run("site header overrides default header", func(t *testing.T) {
		t.Parallel()

		sc := cf.GetSiteConfig("https://deep.test")
		if sc.Depth != 5 || sc.UserAgent != "deep-agent" {
			t.Errorf("got %+v", sc)
		}
		if sc.Headers["Accept-Language"] != "de" {
			t.Errorf("Accept-Language = %q, want de", sc.Headers["Accept-Language"])
		}
	})

	t.Run("merging does not modify the defaults", func(t *testing.T) {
		t.Parallel()

		cf := &File{
			Defaults: SiteConfig{Headers: map[string]string{"A": "1"}},
			Sites:    map[string]SiteConfig{"x": {Headers: map[string]string{"B": "2"}}},
		}
		_ = cf.GetSiteConfig("x")
		if len(cf.Defaults.Headers) != 1 {
			t.Errorf("defaults headers changed to %v", cf.Defaults.Headers)
		}
	})

	t.Run("nil file yields empty config", func(t *testing.T) {
		t.Parallel()

		var nilFile *File
		sc := nilFile.GetSiteConfig("http://shop.test")
		if sc.Depth != 0 || sc.Concurrency != 0 || sc.Headers != nil {
			t.Errorf("got %+v, want zero value", sc)
		}
	})
}

// TestLoadConfigFile tests reading the YAML configuration file.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFile(filepath.Join(t.TempDir(), ".prodcrawl"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if cfg != nil {
			t.Error("expected nil config when file not found")
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".prodcrawl")
		content := `defaults:
  depth: 3
  userAgent: "Mozilla/5.0 test"
sites:
  "https://shop.test":
    depth: 1
    concurrency: 4
    headers:
      Accept-Language: "ja"
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Defaults.Depth != 3 {
			t.Errorf("expected default depth 3, got %d", cfg.Defaults.Depth)
		}
		if cfg.Defaults.UserAgent != "Mozilla/5.0 test" {
			t.Errorf("expected default user agent, got %q", cfg.Defaults.UserAgent)
		}

		site, ok := cfg.Sites["https://shop.test"]
		if !ok {
			t.Fatal("expected https://shop.test in sites")
		}
		if site.Depth != 1 || site.Concurrency != 4 {
			t.Errorf("expected depth 1 and concurrency 4, got %+v", site)
		}
		if site.Headers["Accept-Language"] != "ja" {
			t.Errorf("expected Accept-Language header")
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".prodcrawl")
		if err := os.WriteFile(configPath, []byte(`invalid: yaml: content: [}`), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfigFile(configPath); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})

	t.Run("rejects negative values", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".prodcrawl")
		content := `sites:
  "http://shop.test":
    concurrency: -2
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadConfigFile(configPath)
		if !errors.Is(err, ErrInvalidSiteConfig) {
			t.Errorf("expected ErrInvalidSiteConfig, got %v", err)
		}
	})

	t.Run("rejects unknown keys", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".prodcrawl")
		if err := os.WriteFile(configPath, []byte("defaults:\n  concurency: 3\n"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfigFile(configPath); err == nil {
			t.Error("expected error for misspelled key")
		}
	})

	t.Run("empty file is an empty config", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".prodcrawl")
		if err := os.WriteFile(configPath, nil, 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Sites == nil || cfg.Defaults.Depth != 0 {
			t.Errorf("unexpected config: %+v", cfg)
		}
	})

	t.Run("initializes nil Sites map", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".prodcrawl")
		if err := os.WriteFile(configPath, []byte("defaults:\n  depth: 2\n"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Sites == nil {
			t.Error("expected Sites map to be initialized")
		}
	})
}

// TestFindConfigFile tests the FindConfigFile function.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(configPath, []byte("defaults: {}"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if result := FindConfigFile(configPath); result != configPath {
			t.Errorf("expected %q, got %q", configPath, result)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()

		if result := FindConfigFile(filepath.Join(t.TempDir(), "missing.yaml")); result != "" {
			t.Errorf("expected empty string, got %q", result)
		}
	})

	t.Run("explicit directory is not a config file", func(t *testing.T) {
		t.Parallel()

		if result := FindConfigFile(t.TempDir()); result != "" {
			t.Errorf("expected empty string for a directory, got %q", result)
		}
	})

	t.Run("default candidates end with the XDG config file", func(t *testing.T) {
		t.Parallel()

		candidates := configCandidates()
		if len(candidates) == 0 {
			t.Fatal("expected candidates")
		}
		want := filepath.Join(XDGConfigDir(), "config.yaml")
		if got := candidates[len(candidates)-1]; got != want {
			t.Errorf("last candidate = %q, want %q", got, want)
		}
	})
}

func TestReadDomains(t *testing.T) {
	t.Parallel()

	t.Run("trims lines and skips blanks and comments", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "domains.txt")
		content := "http://shop.test\n\n  https://store.test  \r\n# disabled\n\t\nhttp://shop.test\nhttp://last.test"
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write domains: %v", err)
		}

		got, err := ReadDomains(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"http://shop.test", "https://store.test", "http://shop.test", "http://last.test"}
		if !slices.Equal(got, want) {
			t.Errorf("ReadDomains() = %v, want %v", got, want)
		}
	})

	t.Run("empty file yields no domains", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "domains.txt")
		if err := os.WriteFile(path, nil, 0600); err != nil {
			t.Fatalf("failed to write domains: %v", err)
		}

		got, err := ReadDomains(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("ReadDomains() = %v, want empty", got)
		}
	})

	t.Run("missing file wraps ErrDomainsUnreadable", func(t *testing.T) {
		t.Parallel()

		_, err := ReadDomains(filepath.Join(t.TempDir(), "missing.txt"))
		if !errors.Is(err, ErrDomainsUnreadable) {
			t.Errorf("expected ErrDomainsUnreadable, got %v", err)
		}
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected the underlying not-exist error to be kept, got %v", err)
		}
	})

	t.Run("directory is unreadable", func(t *testing.T) {
		t.Parallel()

		_, err := ReadDomains(t.TempDir())
		if !errors.Is(err, ErrDomainsUnreadable) {
			t.Errorf("expected ErrDomainsUnreadable, got %v", err)
		}
	})
}

// TestXDGDirs tests XDG directory functions.
func TestXDGDirs(t *testing.T) {
	t.Parallel()

	if !strings.HasSuffix(XDGDataDir(), AppName) {
		t.Errorf("XDGDataDir() = %q, want suffix %q", XDGDataDir(), AppName)
	}
	if !strings.HasSuffix(XDGConfigDir(), AppName) {
		t.Errorf("XDGConfigDir() = %q, want suffix %q", XDGConfigDir(), AppName)
	}
}
