// Package ignore provides gitignore-style skip rules for referenced
// assembly paths using go-git's pattern matcher.
package ignore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// IgnoreFileName is the per-project skip-rule file read from the working
// directory.
const IgnoreFileName = ".assetliftignore"

// Matcher decides which referenced assemblies the extractor should not
// load. Skipping is an optimization (base libraries never carry recognized
// embedded resources), so a failed rule load degrades to matching nothing.
type Matcher struct {
	matcher gitignore.Matcher
}

// NewMatcher creates a matcher with layered skip rules:
// 1. built-in base-library patterns
// 2. <root>/.assetliftignore (project overrides)
// 3. ~/.assetlift/.assetliftignore (user overrides)
func NewMatcher(root string) (*Matcher, error) {
	var allPatterns []gitignore.Pattern

	// Base-library assemblies that never carry extractable resources.
	defaultPatterns := []string{"System.*", "mscorlib.dll", "netstandard.dll"}
	for _, pattern := range defaultPatterns {
		allPatterns = append(allPatterns, gitignore.ParsePattern(pattern, nil))
	}

	if projectPatterns, err := readIgnoreFile(filepath.Join(root, IgnoreFileName)); err == nil {
		for _, pattern := range projectPatterns {
			allPatterns = append(allPatterns, gitignore.ParsePattern(pattern, nil))
		}
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		userIgnorePath := filepath.Join(homeDir, ".assetlift", IgnoreFileName)
		if userPatterns, err := readIgnoreFile(userIgnorePath); err == nil {
			for _, pattern := range userPatterns {
				allPatterns = append(allPatterns, gitignore.ParsePattern(pattern, nil))
			}
		}
	}

	return &Matcher{
		matcher: gitignore.NewMatcher(allPatterns),
	}, nil
}

// readIgnoreFile reads patterns from a text file (like .assetliftignore)
func readIgnoreFile(path string) ([]string, error) {
	// Only allow reading known ignore files in controlled locations
	cleaned := filepath.Clean(path)
	if !strings.HasSuffix(cleaned, string(os.PathSeparator)+IgnoreFileName) {
		return nil, fmt.Errorf("disallowed ignore file path: %s", cleaned)
	}
	content, err := os.ReadFile(cleaned) // #nosec G304 -- path cleaned and allowlisted
	if err != nil {
		return nil, err
	}

	var patterns []string
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}

	return patterns, nil
}

// IsIgnored checks if an assembly path should be skipped. Matching runs
// against the file's base name so rules apply regardless of which build
// output directory the assembly sits in.
func (m *Matcher) IsIgnored(path string) bool {
	base := filepath.Base(path)
	if base == "" || base == "." {
		return false
	}
	return m.matcher.Match([]string{base}, false)
}
