package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/autocommit/internal/config"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Edit the global auto-commit defaults interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !interactive() {
			return fmt.Errorf("setup needs an interactive terminal")
		}
		return runSetup(cmd)
	},
}

// runSetup runs the setup form seeded with the current global settings and
// saves the answers to the global config file.
func runSetup(cmd *cobra.Command) error {
	global, err := config.LoadGlobal()
	if err != nil {
		// A broken file is replaced rather than blocking setup.
		fmt.Fprintf(cmd.ErrOrStderr(), "  ⚠ %v (starting from defaults)\n", err)
		global = nil
	}

	f, err := config.RunSetup(config.Merge(global, nil))
	if err != nil {
		return fmt.Errorf("setup cancelled: %w", err)
	}

	path, err := config.GlobalPath()
	if err != nil {
		return err
	}
	if err := config.Save(path, f); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	logger.Info("global config saved", "path", path)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "  ✓ Saved %s\n", path)
	fmt.Fprintln(out, "  Run 'autocommit watch' in a repository to begin.")
	fmt.Fprintln(out)
	return nil
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
