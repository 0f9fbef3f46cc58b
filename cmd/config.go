package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/autocommit/internal/config"
	"github.com/fakeyudi/autocommit/internal/report"
)

var (
	configEdit   bool
	configGlobal bool
	configFormat string
)

var configCmd = &cobra.Command{
	Use:   "config [dir]",
	Short: "Show or edit the effective auto-commit configuration",
	Long: `Prints the configuration that applies to dir: defaults, overridden by
the global file, overridden by the project file.

With --edit the project file (or the global file with --global) is opened
in $VISUAL or $EDITOR, created from the defaults if it does not exist.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := resolveWorkTree(cmd.Context(), args)
		if err != nil {
			return err
		}
		if configEdit {
			return editConfig(cmd, root)
		}

		cfg, err := loadMerged(root)
		if err != nil {
			return err
		}
		data, err := report.Config(cfg, configFormat)
		if err != nil {
			return err
		}
		cmd.Print(string(data))
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
		}
		return nil
	},
}

func editConfig(cmd *cobra.Command, root string) error {
	path := config.ProjectPath(root)
	if configGlobal {
		p, err := config.GlobalPath()
		if err != nil {
			return err
		}
		path = p
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := config.Save(path, config.FileFrom(config.Defaults())); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
		logger.Info("config created", "path", path)
	}

	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}
	// Editors are often configured with arguments ("code --wait").
	fields := strings.Fields(editor)
	c := exec.CommandContext(cmd.Context(), fields[0], append(fields[1:], path)...)
	c.Stdin = os.Stdin
	c.Stdout = cmd.OutOrStdout()
	c.Stderr = cmd.ErrOrStderr()
	if err := c.Run(); err != nil {
		return fmt.Errorf("running %s: %w", editor, err)
	}
	return nil
}

func init() {
	configCmd.Flags().BoolVar(&configEdit, "edit", false, "open the config file in an editor")
	configCmd.Flags().BoolVar(&configGlobal, "global", false, "with --edit, edit the global file")
	configCmd.Flags().StringVar(&configFormat, "format", "yaml", "output format: yaml or json")
	rootCmd.AddCommand(configCmd)
}
