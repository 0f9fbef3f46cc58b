// Package repo verifies and establishes the preconditions for auto-commit:
// the git binary, the repository itself and its remotes.
package repo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/fakeyudi/autocommit/internal/gitexec"
)

var (
	// ErrToolUnavailable is returned when git cannot be invoked.
	ErrToolUnavailable = errors.New("git is not available")

	// ErrNotARepository is returned when the workspace is not a git
	// repository and was not initialized.
	ErrNotARepository = errors.New("not a git repository")
)

// Bot identity used for the initial commit of a freshly created repository.
const (
	BotName  = "Auto Commit Bot"
	BotEmail = "autocommit@localhost"
)

// DefaultIgnore is written to .gitignore by Initialize when none exists.
const DefaultIgnore = `# Dependencies
node_modules/
vendor/

# Build output
dist/
out/
build/

# Logs
*.log

# Environment
.env
.env.local

# OS files
.DS_Store
Thumbs.db
`

// Guard answers precondition questions about a workspace.
type Guard struct {
	// Runner executes single git commands without retries.
	Runner gitexec.Runner
	// LookPath resolves the git binary; exec.LookPath when nil.
	LookPath func(file string) (string, error)
	Logger   *slog.Logger
}

// NewGuard returns a Guard backed by the real git binary.
func NewGuard(logger *slog.Logger) *Guard {
	return &Guard{Runner: gitexec.DefaultRunner, LookPath: exec.LookPath, Logger: logger}
}

// EnsureToolAvailable verifies that git can be invoked.
func (g *Guard) EnsureToolAvailable(ctx context.Context) error {
	lookPath := g.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	if _, err := lookPath("git"); err != nil {
		return fmt.Errorf("%w: %v", ErrToolUnavailable, err)
	}
	out, err := g.run(ctx, "", "--version")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrToolUnavailable, err)
	}
	g.logger().Debug("git available", "version", strings.TrimSpace(out))
	return nil
}

// IsRepository reports whether root is a git repository. It looks for the
// metadata directory first and asks git when that is inconclusive.
func (g *Guard) IsRepository(ctx context.Context, root string) bool {
	if gitexec.HasRepository(root) {
		return true
	}
	out, err := g.run(ctx, root, "rev-parse", "--is-inside-work-tree")
	if err != nil {
		return false
	}
	return strings.TrimSpace(out) == "true"
}

// Initialize creates a repository in root, writes a default .gitignore when
// none exists and makes an initial commit as the bot identity. A failed
// initial commit does not undo the repository; Initialize succeeds as long
// as the metadata directory exists afterwards.
func (g *Guard) Initialize(ctx context.Context, root string) error {
	logger := g.logger()

	if _, err := g.run(ctx, root, "init"); err != nil {
		return fmt.Errorf("git init: %w", err)
	}

	ignorePath := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(ignorePath); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(ignorePath, []byte(DefaultIgnore), 0o644); err != nil {
			logger.Warn("could not write default .gitignore", "path", ignorePath, "error", err)
		}
	}

	if _, err := g.run(ctx, root, "add", ".gitignore"); err != nil {
		logger.Warn("could not stage .gitignore", "error", err)
	}
	_, err := g.run(ctx, root,
		"-c", "user.name="+BotName,
		"-c", "user.email="+BotEmail,
		"commit", "--allow-empty", "-m", "Initial commit")
	if err != nil {
		logger.Warn("initial commit failed", "error", err)
	}

	if !gitexec.HasRepository(root) {
		return fmt.Errorf("initialize %s: %w", root, ErrNotARepository)
	}
	return nil
}

// Remotes lists the configured remote names.
func (g *Guard) Remotes(ctx context.Context, root string) ([]string, error) {
	out, err := g.run(ctx, root, "remote")
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// RemoteExists reports whether at least one remote is configured.
// Any failure is treated as "no remote".
func (g *Guard) RemoteExists(ctx context.Context, root string) bool {
	remotes, err := g.Remotes(ctx, root)
	if err != nil {
		g.logger().Debug("listing remotes failed", "error", err)
		return false
	}
	return len(remotes) > 0
}

// PushRemote picks the remote to push to: origin when present, otherwise the
// first configured remote. ok is false when there is none.
func (g *Guard) PushRemote(ctx context.Context, root string) (name string, ok bool) {
	remotes, err := g.Remotes(ctx, root)
	if err != nil || len(remotes) == 0 {
		return "", false
	}
	for _, r := range remotes {
		if r == "origin" {
			return r, true
		}
	}
	return remotes[0], true
}

// CurrentBranch returns the branch HEAD points at, including a branch with
// no commits yet. ok is false when HEAD is detached or git fails.
func (g *Guard) CurrentBranch(ctx context.Context, root string) (name string, ok bool) {
	out, err := g.run(ctx, root, "symbolic-ref", "--short", "-q", "HEAD")
	name = strings.TrimSpace(out)
	if err != nil || name == "" {
		return "", false
	}
	return name, true
}

// TopLevel returns the root of the work tree containing dir.
func (g *Guard) TopLevel(ctx context.Context, dir string) (string, error) {
	out, err := g.run(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	top := strings.TrimSpace(out)
	if top == "" {
		return "", fmt.Errorf("%s: %w", dir, ErrNotARepository)
	}
	return filepath.Clean(top), nil
}

// AddRemote configures a new remote.
func (g *Guard) AddRemote(ctx context.Context, root, name, url string) error {
	if _, err := g.run(ctx, root, "remote", "add", name, url); err != nil {
		return fmt.Errorf("add remote %s: %w", name, err)
	}
	return nil
}

func (g *Guard) run(ctx context.Context, root string, args ...string) (string, error) {
	runner := g.Runner
	if runner == nil {
		runner = gitexec.DefaultRunner
	}
	return runner(ctx, root, args...)
}

func (g *Guard) logger() *slog.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// splitLines splits command output into trimmed, non-empty lines.
func splitLines(output string) []string {
	lines := strings.Split(output, "\n")
	result := make([]string, 0, len(lines))
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			result = append(result, l)
		}
	}
	return result
}
