// Package report renders session status and configuration for the CLI.
package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fakeyudi/autocommit/internal/config"
	"github.com/fakeyudi/autocommit/internal/session"
)

// Renderer serializes a status snapshot to bytes.
type Renderer interface {
	Render(s *session.Snapshot) ([]byte, error)
}

// ForFormat returns the renderer for "text" or "json".
func ForFormat(format string) (Renderer, error) {
	switch format {
	case "", "text":
		return &TextRenderer{Now: time.Now}, nil
	case "json":
		return &JSONRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown format %q (want text or json)", format)
	}
}

// JSONRenderer renders a snapshot as indented JSON.
type JSONRenderer struct{}

func (r *JSONRenderer) Render(s *session.Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// TextRenderer renders a snapshot as aligned "label: value" lines.
type TextRenderer struct {
	Now func() time.Time
}

func (r *TextRenderer) Render(s *session.Snapshot) ([]byte, error) {
	now := time.Now()
	if r.Now != nil {
		now = r.Now()
	}

	var sb strings.Builder
	line := func(label, value string) {
		fmt.Fprintf(&sb, "%-12s %s\n", label+":", value)
	}

	line("Auto-commit", s.State.String())
	line("Root", s.Root)
	if s.SessionID != "" {
		line("Session", s.SessionID)
	}
	line("PID", fmt.Sprint(s.PID))
	if !s.StartTime.IsZero() {
		line("Running for", now.Sub(s.StartTime).Round(time.Second).String())
	}
	line("Pending", fmt.Sprintf("%d file(s)", s.Pending))
	if s.LastCommit != nil {
		line("Last commit", fmt.Sprintf("%s (%s ago)",
			s.LastCommit.Format("2006-01-02 15:04:05"),
			now.Sub(*s.LastCommit).Round(time.Second)))
	} else {
		line("Last commit", "never")
	}
	line("Commits", fmt.Sprintf("%d (%d pushed, %d failed attempts)", s.Commits, s.Pushes, s.Failures))
	if s.LastOutcome != "" {
		line("Last result", s.LastOutcome)
	}
	return []byte(sb.String()), nil
}

// Config renders cfg as "yaml" (default) or "json" using the config file keys.
func Config(cfg config.Config, format string) ([]byte, error) {
	switch format {
	case "", "yaml":
		return yaml.Marshal(cfg)
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("unknown format %q (want yaml or json)", format)
	}
}
