package session_test

import (
	"errors"
	"os"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/fakeyudi/autocommit/internal/session"
)

// generateTime produces an arbitrary time.Time value truncated to seconds.
func generateTime(t *rapid.T, label string) time.Time {
	sec := rapid.Int64Range(0, 1_700_000_000).Draw(t, label)
	return time.Unix(sec, 0).UTC()
}

// generateSnapshot produces an arbitrary Snapshot value.
func generateSnapshot(t *rapid.T) *session.Snapshot {
	s := &session.Snapshot{
		SessionID:   rapid.StringMatching(`[0-9a-f-]{36}`).Draw(t, "session_id"),
		PID:         rapid.IntRange(1, 1<<22).Draw(t, "pid"),
		Root:        rapid.StringN(1, 100, -1).Draw(t, "root"),
		State:       session.State(rapid.IntRange(0, 1).Draw(t, "state")),
		Pending:     rapid.IntRange(0, 1000).Draw(t, "pending"),
		StartTime:   generateTime(t, "start"),
		Commits:     rapid.IntRange(0, 1000).Draw(t, "commits"),
		Pushes:      rapid.IntRange(0, 1000).Draw(t, "pushes"),
		Failures:    rapid.IntRange(0, 1000).Draw(t, "failures"),
		LastOutcome: rapid.StringN(0, 80, -1).Draw(t, "last_outcome"),
		UpdatedAt:   generateTime(t, "updated"),
	}
	if rapid.Bool().Draw(t, "has_last_commit") {
		lc := generateTime(t, "last_commit")
		s.LastCommit = &lc
	}
	return s
}

// Feature: autocommit, Property 6: Status snapshot round-trip
func TestSnapshotPersistenceRoundTrip(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	store, err := session.NewStore("/work/project")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	rapid.Check(t, func(t *rapid.T) {
		original := generateSnapshot(t)

		if err := store.Save(original); err != nil {
			t.Fatalf("Save: %v", err)
		}
		loaded, err := store.Load()
		if err != nil {
			t.Fatalf("Load: %v", err)
		}

		if loaded.SessionID != original.SessionID || loaded.PID != original.PID || loaded.Root != original.Root {
			t.Errorf("identity mismatch: got %+v, want %+v", loaded, original)
		}
		if loaded.State != original.State {
			t.Errorf("State mismatch: got %v, want %v", loaded.State, original.State)
		}
		if loaded.Pending != original.Pending || loaded.Commits != original.Commits ||
			loaded.Pushes != original.Pushes || loaded.Failures != original.Failures {
			t.Errorf("counter mismatch: got %+v, want %+v", loaded, original)
		}
		if loaded.LastOutcome != original.LastOutcome {
			t.Errorf("LastOutcome mismatch: got %q, want %q", loaded.LastOutcome, original.LastOutcome)
		}
		if !loaded.StartTime.Equal(original.StartTime) || !loaded.UpdatedAt.Equal(original.UpdatedAt) {
			t.Errorf("time mismatch: got %v/%v, want %v/%v", loaded.StartTime, loaded.UpdatedAt, original.StartTime, original.UpdatedAt)
		}
		if (loaded.LastCommit == nil) != (original.LastCommit == nil) {
			t.Errorf("LastCommit nil mismatch: got %v, want %v", loaded.LastCommit, original.LastCommit)
		} else if loaded.LastCommit != nil && !loaded.LastCommit.Equal(*original.LastCommit) {
			t.Errorf("LastCommit mismatch: got %v, want %v", *loaded.LastCommit, *original.LastCommit)
		}
	})
}

func TestStoresAreKeyedByRoot(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	a, err := session.NewStore("/work/a")
	if err != nil {
		t.Fatal(err)
	}
	b, err := session.NewStore("/work/b")
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Save(&session.Snapshot{Root: "/work/a"}); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Load(); !errors.Is(err, session.ErrNoSession) {
		t.Errorf("store for another root should be empty, got %v", err)
	}
}

func TestLoadReturnsErrNoSession(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	store, err := session.NewStore("/work/project")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if _, err := store.Load(); !errors.Is(err, session.ErrNoSession) {
		t.Errorf("expected ErrNoSession, got: %v", err)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	store, err := session.NewStore("/work/project")
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Save(&session.Snapshot{Root: "/work/project"}); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
	if _, err := store.Load(); !errors.Is(err, session.ErrNoSession) {
		t.Errorf("expected ErrNoSession after Delete, got %v", err)
	}
}

// TestNewStoreFailsInUnwritableDirectory verifies that the data directory
// must be creatable.
func TestNewStoreFailsInUnwritableDirectory(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("running as root; permission checks are ineffective")
	}

	tmp := t.TempDir()
	if err := os.Chmod(tmp, 0o000); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { os.Chmod(tmp, 0o755) })
	t.Setenv("XDG_DATA_HOME", tmp)

	if _, err := session.NewStore("/work/project"); err == nil {
		t.Fatal("expected error creating store in unwritable directory, got nil")
	}
}

func TestStateText(t *testing.T) {
	var s session.State
	if err := s.UnmarshalText([]byte("enabled")); err != nil || s != session.Enabled {
		t.Errorf("UnmarshalText(enabled) = %v, %v", s, err)
	}
	if err := s.UnmarshalText([]byte("bogus")); err == nil {
		t.Error("expected error for unknown state")
	}
	if got, _ := session.Disabled.MarshalText(); string(got) != "disabled" {
		t.Errorf("MarshalText = %q", got)
	}
}
