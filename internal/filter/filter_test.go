package filter

import (
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func TestIsExcluded(t *testing.T) {
	patterns := []string{"**/node_modules/**", "*.log", "build/*", "**/.git/**"}

	cases := []struct {
		path string
		want bool
	}{
		{"node_modules/pkg/index.js", true},
		{"web/node_modules/pkg/index.js", true},
		{"debug.log", true},
		{"logs/debug.log", false}, // "*" does not cross a segment
		{"build/out.bin", true},
		{"build/sub/out.bin", false},
		{".git/index", true},
		{"src/main.go", false},
		{"./debug.log", true},
	}

	for _, tc := range cases {
		if got := IsExcluded(tc.path, patterns, nil); got != tc.want {
			t.Errorf("IsExcluded(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestInvalidPatternMatchesNothing(t *testing.T) {
	patterns := []string{"[unterminated"}
	if IsExcluded("[unterminated", patterns, nil) {
		t.Error("invalid pattern should match nothing")
	}
	if bad := Invalid(patterns); len(bad) != 1 {
		t.Errorf("Invalid: want 1 bad pattern, got %v", bad)
	}
	if bad := Invalid([]string{"**/*.go", "docs/*"}); len(bad) != 0 {
		t.Errorf("Invalid: want none, got %v", bad)
	}
}

// Feature: autocommit, Property 1: Recursive patterns match at any depth
func TestRecursivePatternMatchesAnyDepth(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ext := rapid.StringMatching(`[a-z]{2,4}`).Draw(t, "ext")
		depth := rapid.IntRange(0, 5).Draw(t, "depth")

		segments := make([]string, 0, depth+1)
		for i := 0; i < depth; i++ {
			segments = append(segments, rapid.StringMatching(`[a-z]{1,6}`).Draw(t, "dir"))
		}
		segments = append(segments, rapid.StringMatching(`[a-z]{1,6}`).Draw(t, "stem")+"."+ext)
		path := strings.Join(segments, "/")

		if !IsExcluded(path, []string{"**/*." + ext}, nil) {
			t.Fatalf("path %q should match **/*.%s", path, ext)
		}
		if IsExcluded(path, []string{"**/*." + ext + "x"}, nil) {
			t.Fatalf("path %q should not match **/*.%sx", path, ext)
		}
	})
}
