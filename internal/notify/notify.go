// Package notify defines the collaborators the auto-commit core reports to:
// a Notifier for messages and the status indicator, and a Prompter for
// yes/no and free-text questions.
package notify

import (
	"context"
	"time"
)

// Level is the severity of a notification.
type Level int

const (
	Info Level = iota
	Warning
	Error
)

func (l Level) String() string {
	switch l {
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "info"
	}
}

// Status is the persistent indicator: enabled flag, pending count and last
// commit time.
type Status struct {
	Enabled    bool
	Root       string
	Pending    int
	LastCommit time.Time
}

// Notifier shows messages and the status indicator.
type Notifier interface {
	Notify(level Level, msg string)
	Status(s Status)
}

// Prompter asks the user questions. Input returns "" when the user cancels.
type Prompter interface {
	Confirm(ctx context.Context, question string) (bool, error)
	Input(ctx context.Context, question, placeholder string) (string, error)
}

// Multi fans every call out to each notifier in order.
type Multi []Notifier

func (m Multi) Notify(level Level, msg string) {
	for _, n := range m {
		n.Notify(level, msg)
	}
}

func (m Multi) Status(s Status) {
	for _, n := range m {
		n.Status(s)
	}
}

// Discard drops every notification.
var Discard Notifier = discard{}

type discard struct{}

func (discard) Notify(Level, string) {}
func (discard) Status(Status)        {}
