package cmd

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/autocommit/internal/session"
)

var stopCmd = &cobra.Command{
	Use:   "stop [dir]",
	Short: "Stop the auto-commit watcher running for a working tree",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := resolveWorkTree(cmd.Context(), args)
		if err != nil {
			return err
		}
		store, err := session.NewStore(root)
		if err != nil {
			return err
		}

		s, err := store.Load()
		if err != nil {
			if errors.Is(err, session.ErrNoSession) {
				return fmt.Errorf("no active session for %s", root)
			}
			return err
		}

		if !processAlive(s.PID) {
			if err := store.Delete(); err != nil {
				return err
			}
			cmd.Printf("Removed stale session for %s (pid %d was not running).\n", root, s.PID)
			return nil
		}

		proc, err := os.FindProcess(s.PID)
		if err != nil {
			return err
		}
		if err := proc.Signal(syscall.SIGTERM); err != nil {
			return fmt.Errorf("signalling pid %d: %w", s.PID, err)
		}
		logger.Info("stop requested", "root", root, "pid", s.PID)
		cmd.Printf("Stopping auto-commit for %s (pid %d).\n", root, s.PID)
		return nil
	},
}

// processAlive reports whether pid names a running process.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

func init() {
	rootCmd.AddCommand(stopCmd)
}
