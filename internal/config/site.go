package config

import (
	"errors"
	"fmt"
	"maps"
)

// ErrInvalidSiteConfig is returned when a site entry has impossible values.
var ErrInvalidSiteConfig = errors.New("invalid site configuration")

// SiteConfig holds per-domain crawl overrides.
// Zero values mean "not set" and fall through to the next level.
type SiteConfig struct {
	// Depth overrides the global crawl depth for this domain.
	Depth int `yaml:"depth,omitempty"`

	// Concurrency overrides the global batch size for this domain.
	Concurrency int `yaml:"concurrency,omitempty"`

	// Headers are custom HTTP headers to include in requests to this domain.
	Headers map[string]string `yaml:"headers,omitempty"`

	// UserAgent overrides the User-Agent header for this domain.
	UserAgent string `yaml:"userAgent,omitempty"`
}

// File represents the structure of the .prodcrawl configuration file.
type File struct {
	// Sites maps seed domains, exactly as written in the domains file,
	// to their overrides.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults applies to every domain unless overridden in Sites.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// Validate rejects negative depth or concurrency anywhere in the file.
func (cf *File) Validate() error {
	if err := cf.Defaults.validate(); err != nil {
		return fmt.Errorf("defaults: %w", err)
	}
	for domain, sc := range cf.Sites {
		if err := sc.validate(); err != nil {
			return fmt.Errorf("site %s: %w", domain, err)
		}
	}
	return nil
}

func (sc SiteConfig) validate() error {
	if sc.Depth < 0 {
		return fmt.Errorf("%w: depth must be non-negative", ErrInvalidSiteConfig)
	}
	if sc.Concurrency < 0 {
		return fmt.Errorf("%w: concurrency must be non-negative", ErrInvalidSiteConfig)
	}
	return nil
}

// GetSiteConfig returns the configuration for a domain, merging the
// site-specific entry over the defaults. A nil File yields an empty config.
func (cf *File) GetSiteConfig(domain string) SiteConfig {
	if cf == nil {
		return SiteConfig{}
	}

	result := cf.Defaults
	result.Headers = maps.Clone(cf.Defaults.Headers)

	siteConfig, ok := cf.Sites[domain]
	if !ok {
		return result
	}

	if siteConfig.Depth != 0 {
		result.Depth = siteConfig.Depth
	}
	if siteConfig.Concurrency != 0 {
		result.Concurrency = siteConfig.Concurrency
	}
	if siteConfig.UserAgent != "" {
		result.UserAgent = siteConfig.UserAgent
	}
	if len(siteConfig.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string, len(siteConfig.Headers))
		}
		maps.Copy(result.Headers, siteConfig.Headers)
	}

	return result
}
