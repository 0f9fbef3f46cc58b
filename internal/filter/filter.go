// Package filter decides which workspace paths are ignored by auto-commit.
//
// Patterns are doublestar globs: "**" spans any number of path segments and
// "*" matches within a single segment. Matching is anchored, so a pattern
// must describe the whole slash-separated path relative to the workspace root.
package filter

import (
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Normalize converts rel to the slash-separated form patterns are matched
// against, dropping any leading "./".
func Normalize(rel string) string {
	rel = filepath.ToSlash(rel)
	for strings.HasPrefix(rel, "./") {
		rel = rel[2:]
	}
	return rel
}

// IsExcluded reports whether rel matches any of patterns.
// A pattern that cannot be parsed matches nothing; it is logged when log is
// non-nil and never causes an error.
func IsExcluded(rel string, patterns []string, log *slog.Logger) bool {
	rel = Normalize(rel)
	for _, pattern := range patterns {
		matched, err := doublestar.Match(filepath.ToSlash(pattern), rel)
		if err != nil {
			if log != nil {
				log.Warn("ignoring invalid exclude pattern", "pattern", pattern, "error", err)
			}
			continue
		}
		if matched {
			return true
		}
	}
	return false
}

// Invalid returns the patterns that doublestar cannot parse.
func Invalid(patterns []string) []string {
	var bad []string
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(filepath.ToSlash(pattern)) {
			bad = append(bad, pattern)
		}
	}
	return bad
}
