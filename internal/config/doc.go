// Package config provides configuration structures and utilities for prodcrawl.
// It defines the crawl options set from CLI flags, the per-domain overrides
// read from the .prodcrawl YAML file, and the seed list reader.
package config
