// Package tracker accumulates the workspace paths that changed since the last
// successful commit.
package tracker

import (
	"fmt"
	"log/slog"

	"github.com/fakeyudi/autocommit/internal/filter"
)

// Tracker is an insertion-ordered set of relative paths.
// It is not safe for concurrent use; the session loop owns it.
type Tracker struct {
	patterns []string
	log      *slog.Logger
	order    []string
	seen     map[string]struct{}
}

// New returns an empty Tracker that ignores paths matching patterns.
func New(patterns []string, log *slog.Logger) *Tracker {
	t := &Tracker{log: log, seen: make(map[string]struct{})}
	t.SetPatterns(patterns)
	return t
}

// SetPatterns replaces the exclusion patterns. Already recorded paths are kept.
func (t *Tracker) SetPatterns(patterns []string) {
	t.patterns = append([]string(nil), patterns...)
}

// Excluded reports whether rel would be ignored by Record.
func (t *Tracker) Excluded(rel string) bool {
	return filter.IsExcluded(rel, t.patterns, t.log)
}

// Record adds rel unless it is excluded or already present.
// It reports whether the set grew.
func (t *Tracker) Record(rel string) bool {
	rel = filter.Normalize(rel)
	if rel == "" || t.Excluded(rel) {
		return false
	}
	if _, ok := t.seen[rel]; ok {
		return false
	}
	t.seen[rel] = struct{}{}
	t.order = append(t.order, rel)
	return true
}

// Count returns the number of distinct recorded paths.
func (t *Tracker) Count() int {
	return len(t.order)
}

// Paths returns a copy of the recorded paths in insertion order.
func (t *Tracker) Paths() []string {
	return append([]string(nil), t.order...)
}

// Summary returns the first max recorded paths and how many were left out.
// A negative max is treated as zero.
func (t *Tracker) Summary(max int) Summary {
	if max < 0 {
		max = 0
	}
	n := len(t.order)
	if n > max {
		n = max
	}
	return Summary{
		Paths:   append([]string(nil), t.order[:n]...),
		Omitted: len(t.order) - n,
	}
}

// Clear empties the tracker.
func (t *Tracker) Clear() {
	t.order = nil
	t.seen = make(map[string]struct{})
}

// Summary is a truncated view of the tracked paths.
type Summary struct {
	Paths   []string
	Omitted int
}

// Lines renders the summary as commit-message bullets.
func (s Summary) Lines() []string {
	lines := make([]string, 0, len(s.Paths)+1)
	for _, p := range s.Paths {
		lines = append(lines, "- "+p)
	}
	if s.Omitted > 0 {
		lines = append(lines, fmt.Sprintf("... and %d more", s.Omitted))
	}
	return lines
}
