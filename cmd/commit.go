package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/autocommit/internal/config"
	"github.com/fakeyudi/autocommit/internal/gitexec"
	"github.com/fakeyudi/autocommit/internal/notify"
	"github.com/fakeyudi/autocommit/internal/orchestrator"
	"github.com/fakeyudi/autocommit/internal/repo"
	"github.com/fakeyudi/autocommit/internal/session"
	"github.com/fakeyudi/autocommit/internal/tracker"
)

var commitYes bool

var commitCmd = &cobra.Command{
	Use:   "commit [dir]",
	Short: "Commit (and push) the working tree once, right now",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		guard := repo.NewGuard(logger)
		if err := guard.EnsureToolAvailable(ctx); err != nil {
			return err
		}
		root, err := resolveWorkTree(ctx, args)
		if err != nil {
			return err
		}
		if !gitexec.HasRepository(root) {
			return fmt.Errorf("%s is not inside a git repository", root)
		}

		// A running watcher owns the tree; send it through that instead.
		if store, err := session.NewStore(root); err == nil {
			if s, err := store.Load(); err == nil && processAlive(s.PID) {
				return fmt.Errorf("auto-commit is already watching %s (pid %d)", root, s.PID)
			} else if err != nil && !errors.Is(err, session.ErrNoSession) {
				logger.Warn("reading session", "err", err)
			}
		}

		cfg, err := config.Load(root)
		if err != nil {
			return err
		}

		exec := gitexec.New(cfg.MaxRetries, cfg.RetryDelay(), cfg.CommandTimeout(), logger)
		t := tracker.New(cfg.ExcludePatterns, logger)
		status, err := exec.Execute(ctx, root, "status", "--porcelain")
		if err != nil {
			return err
		}
		for _, p := range repo.StatusPaths(status) {
			t.Record(p)
		}

		orch := orchestrator.New(exec, guard, prompterFor(commitYes), logger)
		outcome := orch.Run(ctx, orchestrator.Request{
			Root:    root,
			Config:  cfg,
			Tracker: t,
			Forced:  true,
		})
		orchestrator.Report(notify.NewConsole(cmd.OutOrStdout()), outcome, cfg)

		if outcome.Kind == orchestrator.Failed {
			return outcome.Err
		}
		return nil
	},
}

func init() {
	commitCmd.Flags().BoolVarP(&commitYes, "yes", "y", false, "answer yes to every question")
	rootCmd.AddCommand(commitCmd)
}
