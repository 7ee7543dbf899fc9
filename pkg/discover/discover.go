// Package discover locates assembly files on disk from glob patterns.
package discover

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Assemblies expands the given doublestar patterns into a deduplicated,
// sorted list of assembly file paths. Patterns without glob metacharacters
// are treated as literal paths and must exist. The sorted order keeps
// extraction input deterministic across filesystems.
func Assemblies(patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var paths []string

	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		if !hasMeta(pattern) {
			if _, err := os.Stat(pattern); err != nil {
				return nil, fmt.Errorf("assembly path %s: %w", pattern, err)
			}
			if _, ok := seen[pattern]; !ok {
				seen[pattern] = struct{}{}
				paths = append(paths, pattern)
			}
			continue
		}

		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid assembly pattern %q: %w", pattern, err)
		}
		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil || info.IsDir() {
				continue
			}
			if _, ok := seen[match]; !ok {
				seen[match] = struct{}{}
				paths = append(paths, match)
			}
		}
	}

	sort.Strings(paths)
	return paths, nil
}

// hasMeta reports whether the pattern contains doublestar metacharacters.
func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}
