package session

import (
	"fmt"
	"time"
)

// State is the auto-commit lifecycle state.
type State int

const (
	Disabled State = iota
	Enabled
)

func (s State) String() string {
	if s == Enabled {
		return "enabled"
	}
	return "disabled"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "enabled":
		*s = Enabled
	case "disabled":
		*s = Disabled
	default:
		return fmt.Errorf("unknown session state %q", text)
	}
	return nil
}

// Session is the per-enable state; it exists only while Enabled.
type Session struct {
	ID        string
	Root      string
	StartTime time.Time
}

// Snapshot is the published view of a controller, persisted for the
// status and stop commands.
type Snapshot struct {
	SessionID   string     `json:"session_id,omitempty"`
	PID         int        `json:"pid"`
	Root        string     `json:"root"`
	State       State      `json:"state"`
	Pending     int        `json:"pending"`
	StartTime   time.Time  `json:"start_time,omitzero"`
	LastCommit  *time.Time `json:"last_commit,omitempty"`
	Commits     int        `json:"commits"`
	Pushes      int        `json:"pushes"`
	Failures    int        `json:"failures"`
	LastOutcome string     `json:"last_outcome,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
