package orchestrator

import (
	"errors"
	"fmt"
	"time"

	"github.com/fakeyudi/autocommit/internal/config"
	"github.com/fakeyudi/autocommit/internal/gitexec"
	"github.com/fakeyudi/autocommit/internal/notify"
)

// Kind classifies the result of one commit attempt.
type Kind int

const (
	Committed Kind = iota
	NothingToCommit
	Failed
)

func (k Kind) String() string {
	switch k {
	case Committed:
		return "committed"
	case NothingToCommit:
		return "nothing to commit"
	default:
		return "failed"
	}
}

// Step names a stage of a commit attempt.
type Step string

const (
	StepVerify Step = "verify"
	StepStatus Step = "status"
	StepStage  Step = "stage"
	StepCommit Step = "commit"
	StepPush   Step = "push"
)

// StepError records which step of an attempt failed.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Outcome is the result of one commit attempt.
type Outcome struct {
	Kind   Kind
	Pushed bool
	Forced bool
	// Step is the failing step when Kind is Failed.
	Step Step
	Err  error
	// PushErr is set when the commit succeeded but the push did not.
	PushErr     error
	Note        string
	Files       int
	Message     string
	CommittedAt time.Time
}

// RepositoryVanished reports whether the attempt failed because the
// repository metadata disappeared.
func (o Outcome) RepositoryVanished() bool {
	return o.Kind == Failed && errors.Is(o.Err, gitexec.ErrRepositoryVanished)
}

// Summary is a one-line description of the outcome.
func (o Outcome) Summary() string {
	switch o.Kind {
	case Committed:
		switch {
		case o.Pushed:
			return fmt.Sprintf("Committed and pushed %d file(s).", o.Files)
		case o.PushErr != nil:
			return fmt.Sprintf("Committed %d file(s), but push failed: %v", o.Files, o.PushErr)
		case o.Note != "":
			return fmt.Sprintf("Committed %d file(s) (%s).", o.Files, o.Note)
		default:
			return fmt.Sprintf("Committed %d file(s).", o.Files)
		}
	case NothingToCommit:
		return "No changes to commit."
	default:
		return "Auto-commit failed: " + o.Err.Error()
	}
}

// Report sends at most one notification for o.
func Report(n notify.Notifier, o Outcome, cfg config.Config) {
	switch o.Kind {
	case Failed:
		n.Notify(notify.Error, o.Summary())
	case Committed:
		if o.PushErr != nil {
			n.Notify(notify.Warning, o.Summary())
		} else if cfg.NotifyOnCommit {
			n.Notify(notify.Info, o.Summary())
		}
	case NothingToCommit:
		if o.Forced {
			n.Notify(notify.Info, o.Summary())
		}
	}
}
