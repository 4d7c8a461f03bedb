package utils

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// ParseFileTypes splits a comma separated list of file patterns and checks
// that each one compiles as a glob. Blank entries are dropped.
func ParseFileTypes(raw string) ([]string, error) {
	var patterns []string
	for _, part := range strings.Split(raw, ",") {
		pattern := strings.TrimSpace(part)
		if pattern == "" {
			continue
		}
		if _, err := glob.Compile(pattern, '/'); err != nil {
			return nil, fmt.Errorf("invalid file type pattern %q: %w", pattern, err)
		}
		patterns = append(patterns, pattern)
	}
	return patterns, nil
}
