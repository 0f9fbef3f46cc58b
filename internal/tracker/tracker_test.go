package tracker

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"
)

func TestRecordDeduplicates(t *testing.T) {
	tr := New(nil, nil)
	if !tr.Record("a.go") {
		t.Fatal("first Record should add the path")
	}
	if tr.Record("a.go") {
		t.Error("duplicate Record should not add the path")
	}
	if tr.Record("./a.go") {
		t.Error("./ prefixed duplicate should collapse")
	}
	if tr.Count() != 1 {
		t.Errorf("Count: want 1, got %d", tr.Count())
	}
}

func TestRecordSkipsExcluded(t *testing.T) {
	tr := New([]string{"**/*.log"}, nil)
	if tr.Record("logs/app.log") {
		t.Error("excluded path should not be recorded")
	}
	if tr.Count() != 0 {
		t.Errorf("Count: want 0, got %d", tr.Count())
	}
}

func TestSummaryLines(t *testing.T) {
	tr := New(nil, nil)
	for _, p := range []string{"a.go", "b.go", "c.go"} {
		tr.Record(p)
	}

	s := tr.Summary(2)
	got := s.Lines()
	want := []string{"- a.go", "- b.go", "... and 1 more"}
	if len(got) != len(want) {
		t.Fatalf("Lines: want %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Lines[%d]: want %q, got %q", i, want[i], got[i])
		}
	}

	if s := tr.Summary(0); len(s.Paths) != 0 || s.Omitted != 3 {
		t.Errorf("Summary(0): want 0 paths and 3 omitted, got %+v", s)
	}
}

func TestClear(t *testing.T) {
	tr := New(nil, nil)
	tr.Record("a.go")
	tr.Clear()
	if tr.Count() != 0 {
		t.Errorf("Count after Clear: want 0, got %d", tr.Count())
	}
	if !tr.Record("a.go") {
		t.Error("path should be recordable again after Clear")
	}
}

// Feature: autocommit, Property 2: Summary keeps insertion order and truncates
func TestSummaryPreservesInsertionOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 30).Draw(t, "n")
		max := rapid.IntRange(0, 40).Draw(t, "max")

		tr := New(nil, nil)
		var distinct []string
		seen := map[string]bool{}
		for i := 0; i < n; i++ {
			p := fmt.Sprintf("dir/file%d.go", rapid.IntRange(0, 15).Draw(t, "file"))
			tr.Record(p)
			if !seen[p] {
				seen[p] = true
				distinct = append(distinct, p)
			}
		}

		if tr.Count() != len(distinct) {
			t.Fatalf("Count: want %d, got %d", len(distinct), tr.Count())
		}

		s := tr.Summary(max)
		wantShown := len(distinct)
		if wantShown > max {
			wantShown = max
		}
		if len(s.Paths) != wantShown {
			t.Fatalf("Summary paths: want %d, got %d", wantShown, len(s.Paths))
		}
		if s.Omitted != len(distinct)-wantShown {
			t.Fatalf("Omitted: want %d, got %d", len(distinct)-wantShown, s.Omitted)
		}
		for i, p := range s.Paths {
			if p != distinct[i] {
				t.Fatalf("Summary[%d]: want %q, got %q", i, distinct[i], p)
			}
		}
	})
}

// Feature: autocommit, Property 3: Excluded paths never enter the tracker
func TestExcludedNeverRecorded(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ext := rapid.StringMatching(`[a-z]{2,4}`).Draw(t, "ext")
		tr := New([]string{"**/*." + ext}, nil)

		n := rapid.IntRange(1, 10).Draw(t, "n")
		for i := 0; i < n; i++ {
			dir := rapid.StringMatching(`[a-z]{1,6}`).Draw(t, "dir")
			stem := rapid.StringMatching(`[a-z]{1,6}`).Draw(t, "stem")
			if tr.Record(dir + "/" + stem + "." + ext) {
				t.Fatalf("excluded path was recorded")
			}
		}
		if tr.Count() != 0 {
			t.Fatalf("Count: want 0, got %d", tr.Count())
		}
	})
}
