package gitexec

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRepositoryVanished is returned when the repository metadata
	// directory disappeared while auto-commit was running.
	ErrRepositoryVanished = errors.New("repository metadata directory is missing")

	// ErrTimedOut is returned when a single git invocation exceeded its
	// configured timeout.
	ErrTimedOut = errors.New("git command timed out")
)

// CommandError describes a failed git invocation.
type CommandError struct {
	Args     []string
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error
}

func (e *CommandError) Error() string {
	msg := "git"
	if len(e.Args) > 0 {
		msg += " " + e.Args[0]
	}
	msg += " failed"
	if out := e.Output(); out != "" {
		msg = fmt.Sprintf("%s: %s", msg, out)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Output returns the trimmed stderr, or stdout when stderr is empty.
// git writes "nothing to commit" to stdout, most other failures to stderr.
func (e *CommandError) Output() string {
	if s := strings.TrimSpace(e.Stderr); s != "" {
		return s
	}
	return strings.TrimSpace(e.Stdout)
}

// IsNothingToCommit reports whether err is git refusing to create an empty
// commit.
func IsNothingToCommit(err error) bool {
	if err == nil {
		return false
	}
	text := err.Error()
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		text = cmdErr.Stdout + "\n" + cmdErr.Stderr + "\n" + text
	}
	text = strings.ToLower(text)
	return strings.Contains(text, "nothing to commit") || strings.Contains(text, "nothing added to commit")
}
