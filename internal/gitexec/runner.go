package gitexec

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
)

// MaxOutputBytes caps how much of a command's stdout and stderr is kept.
const MaxOutputBytes = 10 << 20

// Runner executes git with args in workDir and returns its stdout.
// This abstraction allows mocking in tests.
type Runner func(ctx context.Context, workDir string, args ...string) (string, error)

// DefaultRunner runs git as a real subprocess. Messages are forced to the C
// locale so that output text can be matched reliably.
func DefaultRunner(ctx context.Context, workDir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = workDir
	cmd.Env = append(os.Environ(), "LC_ALL=C", "GIT_TERMINAL_PROMPT=0")

	stdout := &cappedBuffer{limit: MaxOutputBytes}
	stderr := &cappedBuffer{limit: MaxOutputBytes}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		cmdErr := &CommandError{
			Args:     args,
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
			ExitCode: -1,
			Err:      err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			cmdErr.ExitCode = exitErr.ExitCode()
		}
		return "", cmdErr
	}
	return stdout.String(), nil
}

// cappedBuffer keeps the first limit bytes written to it and silently drops
// the rest, so a chatty command can neither fail nor exhaust memory.
type cappedBuffer struct {
	buf   bytes.Buffer
	limit int
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	if room := b.limit - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *cappedBuffer) String() string {
	return b.buf.String()
}
