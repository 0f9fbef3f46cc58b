package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/autocommit/internal/report"
	"github.com/fakeyudi/autocommit/internal/session"
)

var statusFormat string

var statusCmd = &cobra.Command{
	Use:   "status [dir]",
	Short: "Show the auto-commit status of a working tree",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		renderer, err := report.ForFormat(statusFormat)
		if err != nil {
			return err
		}
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
			if !errors.Is(err, session.ErrNoSession) {
				return err
			}
			if statusFormat != "json" {
				cmd.Printf("auto-commit is not running for %s\n", root)
				return nil
			}
			s = &session.Snapshot{Root: root, State: session.Disabled}
		} else if !processAlive(s.PID) {
			// The watcher died without cleaning up.
			s.State = session.Disabled
			s.LastOutcome = "watcher is no longer running"
		}

		data, err := renderer.Render(s)
		if err != nil {
			return err
		}
		cmd.Print(string(data))
		return nil
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusFormat, "format", "text", "output format: text or json")
	rootCmd.AddCommand(statusCmd)
}
