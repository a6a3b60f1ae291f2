package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// ReadDomains reads the newline-delimited seed list at path.
// Lines are trimmed and blank lines are skipped. Lines starting with '#'
// are comments. Seeds are returned exactly as written otherwise, in file
// order, duplicates included.
//
// Any failure to read the file wraps ErrDomainsUnreadable.
func ReadDomains(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided path is intentional
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDomainsUnreadable, err)
	}
	defer f.Close()

	var domains []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		domains = append(domains, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDomainsUnreadable, err)
	}

	return domains, nil
}
