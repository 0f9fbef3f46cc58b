package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/autocommit/internal/config"
	"github.com/fakeyudi/autocommit/internal/repo"
)

var initWriteConfig bool

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Prepare a directory for auto-commit",
	Long: `Initializes a git repository in dir when there is none and, with
--config, writes a project config file holding the current settings.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := resolveRoot(args)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		guard := repo.NewGuard(logger)
		if err := guard.EnsureToolAvailable(ctx); err != nil {
			return err
		}

		if guard.IsRepository(ctx, root) {
			cmd.Printf("%s is already a git repository\n", root)
		} else {
			if err := guard.Initialize(ctx, root); err != nil {
				return err
			}
			cmd.Printf("Initialized git repository in %s\n", root)
		}

		if !initWriteConfig {
			return nil
		}
		path := config.ProjectPath(root)
		if _, err := os.Stat(path); err == nil {
			cmd.Printf("Keeping existing %s\n", path)
			return nil
		}
		cfg, err := config.Load(root)
		if err != nil {
			return err
		}
		if err := config.Save(path, config.FileFrom(cfg)); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		cmd.Printf("Wrote %s\n", path)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initWriteConfig, "config", false, "also write a project config file")
	rootCmd.AddCommand(initCmd)
}
