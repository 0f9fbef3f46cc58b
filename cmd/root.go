package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/autocommit/internal/config"
	"github.com/fakeyudi/autocommit/internal/gitexec"
	"github.com/fakeyudi/autocommit/internal/logging"
	"github.com/fakeyudi/autocommit/internal/notify"
	"github.com/fakeyudi/autocommit/internal/repo"
)

var (
	debugFlag   bool
	logFileFlag string
)

// logger receives verbose diagnostics, populated in PersistentPreRunE.
var logger = logging.Discard()

var logCloser io.Closer

var rootCmd = &cobra.Command{
	Use:           "autocommit",
	Short:         "Commit and push a working tree automatically once edits settle",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, closer, err := logging.Open(logFileFlag, debugFlag)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v (logging disabled)\n", err)
			l = logging.Discard()
		}
		logger = l.With("command", cmd.Name())
		logCloser = closer

		// First run: no global config yet → offer the setup wizard, but only
		// when a person is at the terminal.
		if cmd.Name() == "watch" && !globalConfigExists() && interactive() {
			fmt.Fprintln(cmd.OutOrStdout())
			fmt.Fprintln(cmd.OutOrStdout(), "  Welcome to autocommit! Looks like this is your first time.")
			if err := runSetup(cmd); err != nil {
				return err
			}
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			logCloser.Close()
			logCloser = nil
		}
	},
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "log debug diagnostics")
	rootCmd.PersistentFlags().StringVar(&logFileFlag, "log-file", "", "log file (default $XDG_STATE_HOME/autocommit/autocommit.log)")
}

// resolveRoot returns the absolute workspace directory from the optional
// [dir] argument, defaulting to the current directory.
func resolveRoot(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	// git reports work tree paths with symlinks resolved.
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", abs)
	}
	return abs, nil
}

// resolveWorkTree returns the top level of the work tree containing the
// [dir] argument, so commands run from a subdirectory find the same session
// as commands run from the root. A directory outside any work tree is
// returned unchanged.
func resolveWorkTree(ctx context.Context, args []string) (string, error) {
	dir, err := resolveRoot(args)
	if err != nil {
		return "", err
	}
	if gitexec.HasRepository(dir) {
		return dir, nil
	}
	top, err := repo.NewGuard(logger).TopLevel(ctx, dir)
	if err != nil {
		logger.Debug("not inside a work tree", "dir", dir, "error", err)
		return dir, nil
	}
	return top, nil
}

// loadMerged reads and merges the config files for root without validating,
// for reloads and display where the caller reports invalid values itself.
func loadMerged(root string) (config.Config, error) {
	global, err := config.LoadGlobal()
	if err != nil {
		return config.Config{}, fmt.Errorf("loading global config: %w", err)
	}
	project, err := config.LoadProject(root)
	if err != nil {
		return config.Config{}, fmt.Errorf("loading project config: %w", err)
	}
	return config.Merge(global, project), nil
}

func globalConfigExists() bool {
	p, err := config.GlobalPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

func interactive() bool {
	return term.IsTerminal(os.Stdin.Fd()) && term.IsTerminal(os.Stdout.Fd())
}

// prompterFor picks how questions are answered: --yes answers yes, a
// terminal gets huh forms, anything else declines.
func prompterFor(yes bool) notify.Prompter {
	switch {
	case yes:
		return notify.Fixed{Answer: true}
	case interactive():
		return notify.Form{}
	default:
		return notify.Fixed{}
	}
}
