package report

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fakeyudi/autocommit/internal/config"
	"github.com/fakeyudi/autocommit/internal/session"
)

func sampleSnapshot() *session.Snapshot {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	last := start.Add(90 * time.Minute)
	return &session.Snapshot{
		SessionID:   "3f2c1d9e-0000-4000-8000-000000000000",
		PID:         4242,
		Root:        "/work/project",
		State:       session.Enabled,
		Pending:     3,
		StartTime:   start,
		LastCommit:  &last,
		Commits:     5,
		Pushes:      4,
		Failures:    1,
		LastOutcome: "Committed and pushed 2 file(s).",
		UpdatedAt:   last,
	}
}

func TestTextRenderer(t *testing.T) {
	now := time.Date(2024, 3, 1, 11, 0, 0, 0, time.UTC)
	r := &TextRenderer{Now: func() time.Time { return now }}

	out, err := r.Render(sampleSnapshot())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	text := string(out)
	for _, want := range []string{
		"Auto-commit: enabled",
		"/work/project",
		"Running for: 2h0m0s",
		"3 file(s)",
		"2024-03-01 10:30:00 (30m0s ago)",
		"5 (4 pushed, 1 failed attempts)",
		"Committed and pushed 2 file(s).",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestTextRendererNeverCommitted(t *testing.T) {
	s := &session.Snapshot{Root: "/w", State: session.Disabled}
	out, err := (&TextRenderer{}).Render(s)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), "never") || !strings.Contains(string(out), "disabled") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestJSONRendererUsesStateNames(t *testing.T) {
	out, err := (&JSONRenderer{}).Render(sampleSnapshot())
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(out, &raw); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if raw["state"] != "enabled" {
		t.Errorf("state: want enabled, got %v", raw["state"])
	}
	if raw["pending"] != float64(3) {
		t.Errorf("pending: want 3, got %v", raw["pending"])
	}
}

func TestForFormat(t *testing.T) {
	if _, err := ForFormat("xml"); err == nil {
		t.Error("expected error for unknown format")
	}
	for _, f := range []string{"", "text", "json"} {
		if _, err := ForFormat(f); err != nil {
			t.Errorf("ForFormat(%q): %v", f, err)
		}
	}
}

func TestConfigYAMLUsesFileKeys(t *testing.T) {
	out, err := Config(config.Defaults(), "yaml")
	if err != nil {
		t.Fatal(err)
	}
	var back config.Config
	if err := yaml.Unmarshal(out, &back); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if back.CommitDelayMs != 30000 || !strings.Contains(string(out), "commitDelayMs: 30000") {
		t.Errorf("unexpected yaml:\n%s", out)
	}
	if _, err := Config(config.Defaults(), "toml"); err == nil {
		t.Error("expected error for unknown format")
	}
}
