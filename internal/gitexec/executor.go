// Package gitexec runs git commands against a workspace with bounded retries.
//
// Every invocation re-checks that the repository metadata directory still
// exists before it runs; losing the repository is reported as
// ErrRepositoryVanished and is never retried. Other failures are retried up
// to MaxRetries times with a fixed delay. When the final failure is git
// reporting that there is nothing to commit, Execute returns the
// NothingToCommit sentinel with a nil error instead of failing.
package gitexec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// NothingToCommit is the sentinel stdout returned by Execute when git had
// nothing to commit.
const NothingToCommit = "nothing to commit"

// Executor runs git commands through a Runner.
type Executor struct {
	Runner     Runner
	MaxRetries int
	RetryDelay time.Duration
	// Timeout bounds a single attempt. Zero means no timeout.
	Timeout time.Duration
	Logger  *slog.Logger

	// sleep waits between attempts; overridable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// New returns an Executor backed by the real git binary.
func New(maxRetries int, retryDelay, timeout time.Duration, logger *slog.Logger) *Executor {
	return &Executor{
		Runner:     DefaultRunner,
		MaxRetries: maxRetries,
		RetryDelay: retryDelay,
		Timeout:    timeout,
		Logger:     logger,
	}
}

// HasRepository reports whether root contains git metadata. A ".git" file
// (worktrees, submodules) counts as well as a directory.
func HasRepository(root string) bool {
	_, err := os.Stat(filepath.Join(root, ".git"))
	return err == nil
}

// Execute runs git args in root. See the package documentation for the
// retry and sentinel rules.
func (e *Executor) Execute(ctx context.Context, root string, args ...string) (string, error) {
	runner := e.Runner
	if runner == nil {
		runner = DefaultRunner
	}
	logger := e.logger()

	for attempt := 1; ; attempt++ {
		if !HasRepository(root) {
			return "", fmt.Errorf("git %s in %s: %w", strings.Join(args, " "), root, ErrRepositoryVanished)
		}

		out, err := e.runOnce(ctx, runner, root, args)
		if err == nil {
			if attempt > 1 {
				logger.Info("git command succeeded after retry", "args", args, "attempt", attempt)
			}
			return out, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}

		if attempt <= e.MaxRetries {
			logger.Warn("git command failed, retrying",
				"args", args, "attempt", attempt, "max_retries", e.MaxRetries, "delay", e.RetryDelay, "error", err)
			if werr := e.wait(ctx, e.RetryDelay); werr != nil {
				return "", werr
			}
			continue
		}

		if IsNothingToCommit(err) {
			logger.Debug("git reported nothing to commit", "args", args)
			return NothingToCommit, nil
		}

		logger.Error("git command failed", "args", args, "attempts", attempt, "error", err)
		return "", err
	}
}

func (e *Executor) runOnce(ctx context.Context, runner Runner, root string, args []string) (string, error) {
	if e.Timeout <= 0 {
		return runner(ctx, root, args...)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	out, err := runner(attemptCtx, root, args...)
	if err != nil && ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return "", fmt.Errorf("git %s after %s: %w", strings.Join(args, " "), e.Timeout, ErrTimedOut)
	}
	return out, err
}

func (e *Executor) wait(ctx context.Context, d time.Duration) error {
	if e.sleep != nil {
		return e.sleep(ctx, d)
	}
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (e *Executor) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
