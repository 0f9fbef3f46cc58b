package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/fakeyudi/autocommit/internal/config"
	"github.com/fakeyudi/autocommit/internal/notify"
	"github.com/fakeyudi/autocommit/internal/session"
	"github.com/fakeyudi/autocommit/internal/tui"
	"github.com/fakeyudi/autocommit/internal/watch"
)

var (
	watchTUI bool
	watchYes bool
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Watch a working tree and commit after it has been quiet for a while",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := resolveWorkTree(cmd.Context(), args)
		if err != nil {
			return err
		}
		cfg, err := config.Load(root)
		if err != nil {
			return err
		}

		store, err := session.NewStore(root)
		if err != nil {
			return err
		}
		if s, err := store.Load(); err == nil && s.PID != os.Getpid() && processAlive(s.PID) {
			return fmt.Errorf("auto-commit is already running for %s (pid %d)", root, s.PID)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		if watchTUI {
			return runDashboard(ctx, cancel, root, cfg, store)
		}
		return runConsole(ctx, cmd, root, cfg, store)
	},
}

func runConsole(ctx context.Context, cmd *cobra.Command, root string, cfg config.Config, store session.Store) error {
	notifier := notify.NewConsole(cmd.OutOrStdout())
	ctrl := session.NewController(session.Options{
		Config:   cfg,
		Notifier: notifier,
		Prompter: prompterFor(watchYes),
		Store:    store,
		Logger:   logger,
	})

	if err := ctrl.Enable(ctx, root); err != nil {
		store.Delete()
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ctrl.Run(gctx) })
	g.Go(func() error { return watchConfig(gctx, ctrl, notifier, root) })

	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl+C to stop.")
	return g.Wait()
}

func runDashboard(ctx context.Context, cancel context.CancelFunc, root string, cfg config.Config, store session.Store) error {
	var ctrl *session.Controller
	actions := tui.Actions{
		CommitNow: func() {
			ctrl.Do(ctx, func() { ctrl.CommitNow(ctx) })
		},
		Toggle: func() {
			ctrl.Do(ctx, func() {
				if ctrl.State() == session.Enabled {
					ctrl.Disable()
					return
				}
				ctrl.Enable(ctx, root)
			})
		},
	}
	p := tui.NewProgram(ctx, tui.New(actions))
	bridge := tui.NewBridge(p)

	var prompter notify.Prompter = bridge
	if watchYes {
		prompter = notify.Fixed{Answer: true}
	}
	ctrl = session.NewController(session.Options{
		Config:   cfg,
		Notifier: bridge,
		Prompter: prompter,
		Store:    store,
		Logger:   logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		defer bridge.Close()
		return tui.Run(gctx, p)
	})
	g.Go(func() error { return ctrl.Run(gctx) })
	g.Go(func() error { return watchConfig(gctx, ctrl, bridge, root) })

	// A failed enable leaves the dashboard open so it can be retried with e.
	if err := ctrl.Do(gctx, func() { ctrl.Enable(gctx, root) }); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("enable not submitted", "error", err)
	}
	return g.Wait()
}

// watchConfig reloads the controller whenever the global or project config
// file changes, until ctx is done.
func watchConfig(ctx context.Context, ctrl *session.Controller, n notify.Notifier, root string) error {
	paths := make([]string, 0, len(config.ProjectFiles)+1)
	if global, err := config.GlobalPath(); err == nil {
		paths = append(paths, global)
	}
	for _, name := range config.ProjectFiles {
		paths = append(paths, filepath.Join(root, name))
	}

	onError := func(err error) { logger.Debug("config watch", "error", err) }
	sub, err := watch.Files(paths, onError, func(path string) {
		logger.Debug("config file changed", "path", path)
		ctrl.Do(ctx, func() {
			cfg, err := loadMerged(root)
			if err != nil {
				logger.Warn("config reload failed", "error", err)
				n.Notify(notify.Warning, "Configuration not applied: "+err.Error())
				return
			}
			ctrl.Reload(cfg)
		})
	})
	if err != nil {
		logger.Warn("config watch unavailable", "error", err)
		<-ctx.Done()
		return nil
	}
	<-ctx.Done()
	return sub.Close()
}

func init() {
	watchCmd.Flags().BoolVar(&watchTUI, "tui", false, "show the live dashboard")
	watchCmd.Flags().BoolVarP(&watchYes, "yes", "y", false, "answer yes to every prompt")
	rootCmd.AddCommand(watchCmd)
}
