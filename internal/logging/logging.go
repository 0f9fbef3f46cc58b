// Package logging sets up the slog logger that receives verbose diagnostics.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// DefaultPath returns $XDG_STATE_HOME/autocommit/autocommit.log, falling
// back to ~/.local/state/autocommit/autocommit.log.
func DefaultPath() (string, error) {
	base := os.Getenv("XDG_STATE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(base, "autocommit", "autocommit.log"), nil
}

// Open returns a text logger appending to path, at debug level when debug
// is set. The returned closer releases the file. An empty path uses
// DefaultPath. AUTOCOMMIT_DEBUG=1 forces debug level.
func Open(path string, debug bool) (*slog.Logger, io.Closer, error) {
	if os.Getenv("AUTOCOMMIT_DEBUG") == "1" {
		debug = true
	}
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get log path: %w", err)
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create log file: %w", err)
	}
	return New(f, debug).With("pid", os.Getpid()), f, nil
}

// New returns a text logger writing to w.
func New(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
