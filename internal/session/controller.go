// Package session owns the auto-commit lifecycle for one workspace: the
// enabled/disabled state, the filesystem watch, the debounce timer and the
// single loop on which every commit attempt runs.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fakeyudi/autocommit/internal/config"
	"github.com/fakeyudi/autocommit/internal/filter"
	"github.com/fakeyudi/autocommit/internal/gitexec"
	"github.com/fakeyudi/autocommit/internal/notify"
	"github.com/fakeyudi/autocommit/internal/orchestrator"
	"github.com/fakeyudi/autocommit/internal/repo"
	"github.com/fakeyudi/autocommit/internal/scheduler"
	"github.com/fakeyudi/autocommit/internal/tracker"
	"github.com/fakeyudi/autocommit/internal/watch"
)

var (
	// ErrNotEnabled is returned by CommitNow when auto-commit is off.
	ErrNotEnabled = errors.New("auto-commit is not enabled")

	// ErrStopped is returned by Do once Run has returned.
	ErrStopped = errors.New("session loop stopped")
)

// Subscriber installs a recursive filesystem watch.
type Subscriber func(root string, opts watch.Options, fn func(watch.Event)) (io.Closer, error)

// WatchSubscriber is the fsnotify-backed Subscriber.
func WatchSubscriber(root string, opts watch.Options, fn func(watch.Event)) (io.Closer, error) {
	return watch.Subscribe(root, opts, fn)
}

// Options wires a Controller. Nil collaborators get working defaults.
type Options struct {
	Config    config.Config
	Guard     *repo.Guard
	Exec      *gitexec.Executor
	Notifier  notify.Notifier
	Prompter  notify.Prompter
	Store     Store
	Subscribe Subscriber
	Logger    *slog.Logger
}

type taggedEvent struct {
	gen uint64
	ev  watch.Event
}

// Controller is the lifecycle state machine. Enable, Disable, HandleChange,
// CommitNow and Reload must run on the loop goroutine (through Do) or before
// Run starts; Do, Snapshot and State are safe from any goroutine.
type Controller struct {
	cfg       config.Config
	guard     *repo.Guard
	exec      *gitexec.Executor
	orch      *orchestrator.Orchestrator
	notifier  notify.Notifier
	prompter  notify.Prompter
	store     Store
	subscribe Subscriber
	log       *slog.Logger

	sched   *scheduler.Scheduler
	tracker *tracker.Tracker

	state    State
	root     string
	sess     *Session
	sub      io.Closer
	gen      uint64
	patterns []string

	commits     int
	pushes      int
	failures    int
	lastCommit  time.Time
	lastOutcome string

	events chan taggedEvent
	work   chan func()
	quit   chan struct{}
	stop   sync.Once

	mu   sync.Mutex
	snap Snapshot
}

// NewController returns a disabled Controller.
func NewController(opts Options) *Controller {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	cfg := opts.Config
	exec := opts.Exec
	if exec == nil {
		exec = gitexec.New(cfg.MaxRetries, cfg.RetryDelay(), cfg.CommandTimeout(), log)
	}
	guard := opts.Guard
	if guard == nil {
		guard = repo.NewGuard(log)
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.Discard
	}
	prompter := opts.Prompter
	if prompter == nil {
		prompter = notify.Fixed{}
	}
	subscribe := opts.Subscribe
	if subscribe == nil {
		subscribe = WatchSubscriber
	}

	c := &Controller{
		cfg:       cfg,
		guard:     guard,
		exec:      exec,
		orch:      orchestrator.New(exec, guard, prompter, log),
		notifier:  notifier,
		prompter:  prompter,
		store:     opts.Store,
		subscribe: subscribe,
		log:       log,
		sched:     scheduler.New(cfg.CommitDelay()),
		tracker:   tracker.New(cfg.ExcludePatterns, log),
		events:    make(chan taggedEvent, 256),
		work:      make(chan func(), 16),
		quit:      make(chan struct{}),
	}
	c.snap = Snapshot{PID: os.Getpid(), State: Disabled}
	return c
}

// Enable starts auto-commit for root. When already enabled, the previous
// watch and timer are torn down first.
func (c *Controller) Enable(ctx context.Context, root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	root = filepath.Clean(abs)

	if c.state == Enabled {
		c.teardown()
	}

	if err := c.guard.EnsureToolAvailable(ctx); err != nil {
		c.notifier.Notify(notify.Error, "Auto-commit not enabled: git is not available.")
		return err
	}

	root, err = c.ensureRepository(ctx, root)
	if err != nil {
		c.publish()
		return err
	}

	c.orch.Reset()
	if c.cfg.PushAfterCommit && !c.guard.RemoteExists(ctx, root) {
		c.orch.OfferRemote(ctx, root)
	}

	c.tracker.Clear()
	if err := c.install(root); err != nil {
		c.notifier.Notify(notify.Error, fmt.Sprintf("Auto-commit not enabled: cannot watch %s: %v", root, err))
		c.publish()
		return err
	}

	c.state = Enabled
	c.root = root
	c.sess = &Session{ID: uuid.NewString(), Root: root, StartTime: time.Now()}
	c.log.Info("auto-commit enabled", "root", root, "session", c.sess.ID, "delay", c.cfg.CommitDelay())
	c.notifier.Notify(notify.Info, fmt.Sprintf("Auto-commit enabled for %s. Changes are committed after %s without edits.", root, c.cfg.CommitDelay()))
	c.publish()
	return nil
}

// ensureRepository returns the repository root for dir, offering to
// initialize one when dir is not inside a repository.
func (c *Controller) ensureRepository(ctx context.Context, dir string) (string, error) {
	if gitexec.HasRepository(dir) {
		return dir, nil
	}
	if c.guard.IsRepository(ctx, dir) {
		top, err := c.guard.TopLevel(ctx, dir)
		if err == nil && gitexec.HasRepository(top) {
			c.log.Debug("using enclosing work tree", "dir", dir, "root", top)
			return top, nil
		}
	}

	ok, err := c.prompter.Confirm(ctx, fmt.Sprintf("%s is not a git repository. Initialize one?", dir))
	if err != nil || !ok {
		c.notifier.Notify(notify.Warning, "Auto-commit not enabled: "+dir+" is not a git repository.")
		return "", fmt.Errorf("%s: %w", dir, repo.ErrNotARepository)
	}
	if err := c.guard.Initialize(ctx, dir); err != nil {
		c.notifier.Notify(notify.Error, "Auto-commit not enabled: "+err.Error())
		return "", err
	}
	return dir, nil
}

// install subscribes to root with the current exclusion patterns.
func (c *Controller) install(root string) error {
	c.gen++
	gen := c.gen
	patterns := slices.Clone(c.cfg.ExcludePatterns)
	sub, err := c.subscribe(root, watch.Options{
		SkipDir: func(rel string) bool { return filter.IsExcluded(rel, patterns, nil) },
		OnError: func(err error) { c.log.Warn("watch error", "error", err) },
	}, func(ev watch.Event) {
		select {
		case c.events <- taggedEvent{gen: gen, ev: ev}:
		case <-c.quit:
		}
	})
	if err != nil {
		return err
	}
	c.sub = sub
	c.patterns = patterns
	return nil
}

// Disable stops auto-commit. An attempt already running is not interrupted
// because attempts run on the same loop.
func (c *Controller) Disable() {
	if c.state != Enabled {
		return
	}
	root := c.sess.Root
	c.teardown()
	c.log.Info("auto-commit disabled", "root", root)
	c.notifier.Notify(notify.Info, "Auto-commit disabled.")
	c.publish()
}

// teardown releases the watch and timer and clears pending changes.
func (c *Controller) teardown() {
	if c.sub != nil {
		if err := c.sub.Close(); err != nil {
			c.log.Debug("closing watch", "error", err)
		}
		c.sub = nil
	}
	c.gen++
	c.sched.Cancel()
	c.tracker.Clear()
	c.state = Disabled
	c.sess = nil
}

// HandleChange records a change and restarts the debounce window.
// Excluded paths are ignored entirely.
func (c *Controller) HandleChange(ev watch.Event) {
	if c.state != Enabled {
		return
	}
	if c.tracker.Excluded(ev.Rel) {
		return
	}
	if c.tracker.Record(ev.Rel) {
		c.log.Debug("change recorded", "path", ev.Rel, "kind", ev.Kind)
	}
	c.sched.Schedule(c.sess.Root)
	c.publish()
}

// CommitNow runs a forced attempt immediately, cancelling the pending timer.
func (c *Controller) CommitNow(ctx context.Context) (orchestrator.Outcome, error) {
	if c.state != Enabled {
		c.notifier.Notify(notify.Warning, "Auto-commit is not enabled.")
		return orchestrator.Outcome{}, ErrNotEnabled
	}
	c.sched.Cancel()
	return c.attempt(ctx, true), nil
}

// attempt runs one commit attempt and applies its outcome.
func (c *Controller) attempt(ctx context.Context, forced bool) orchestrator.Outcome {
	out := c.orch.Run(ctx, orchestrator.Request{
		Root:    c.sess.Root,
		Config:  c.cfg,
		Tracker: c.tracker,
		Forced:  forced,
	})

	switch out.Kind {
	case orchestrator.Committed:
		c.commits++
		c.lastCommit = out.CommittedAt
		if out.Pushed {
			c.pushes++
		}
	case orchestrator.Failed:
		c.failures++
	}
	c.lastOutcome = out.Summary()
	orchestrator.Report(c.notifier, out, c.cfg)

	if out.RepositoryVanished() {
		c.teardown()
		c.log.Error("repository vanished, auto-commit disabled")
		c.notifier.Notify(notify.Error, "Auto-commit disabled: the repository no longer exists.")
	}
	c.publish()
	return out
}

// Reload applies a new configuration. An invalid configuration is rejected
// and the current one stays in effect.
func (c *Controller) Reload(cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		c.log.Warn("configuration rejected", "error", err)
		c.notifier.Notify(notify.Warning, "Configuration not applied: "+err.Error())
		return err
	}
	for _, bad := range filter.Invalid(cfg.ExcludePatterns) {
		c.log.Warn("exclude pattern will never match", "pattern", bad)
	}

	c.cfg = cfg
	c.sched.SetDelay(cfg.CommitDelay())
	c.tracker.SetPatterns(cfg.ExcludePatterns)
	c.exec.MaxRetries = cfg.MaxRetries
	c.exec.RetryDelay = cfg.RetryDelay()
	c.exec.Timeout = cfg.CommandTimeout()

	if c.state == Enabled && !slices.Equal(c.patterns, cfg.ExcludePatterns) {
		root := c.sess.Root
		if c.sub != nil {
			c.sub.Close()
			c.sub = nil
		}
		if err := c.install(root); err != nil {
			c.log.Error("re-installing watch failed", "error", err)
			c.teardown()
			c.notifier.Notify(notify.Error, fmt.Sprintf("Auto-commit disabled: cannot watch %s: %v", root, err))
			c.publish()
			return err
		}
	}
	c.log.Info("configuration reloaded")
	c.publish()
	return nil
}

// Config returns the configuration in effect.
func (c *Controller) Config() config.Config {
	return c.cfg
}

// Run is the control loop. It returns when ctx is done, disabling
// auto-commit and removing the persisted snapshot on the way out.
func (c *Controller) Run(ctx context.Context) error {
	defer func() {
		c.stop.Do(func() { close(c.quit) })
		c.Disable()
		if c.store != nil {
			if err := c.store.Delete(); err != nil {
				c.log.Warn("removing status snapshot", "error", err)
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case te := <-c.events:
			if te.gen == c.gen {
				c.HandleChange(te.ev)
			}
		case <-c.sched.C():
			c.sched.Done()
			if c.state == Enabled {
				c.attempt(ctx, false)
			}
		case fn := <-c.work:
			fn()
		}
	}
}

// Do submits fn to run on the loop goroutine.
func (c *Controller) Do(ctx context.Context, fn func()) error {
	select {
	case <-c.quit:
		return ErrStopped
	default:
	}
	select {
	case c.work <- fn:
		return nil
	case <-c.quit:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns the lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap.State
}

// Snapshot returns the latest published status.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.snap
	if s.LastCommit != nil {
		lc := *s.LastCommit
		s.LastCommit = &lc
	}
	return s
}

// publish refreshes the snapshot, persists it and updates the status
// indicator.
func (c *Controller) publish() {
	s := Snapshot{
		PID:         os.Getpid(),
		State:       c.state,
		Root:        c.root,
		Pending:     c.tracker.Count(),
		Commits:     c.commits,
		Pushes:      c.pushes,
		Failures:    c.failures,
		LastOutcome: c.lastOutcome,
		UpdatedAt:   time.Now(),
	}
	if c.sess != nil {
		s.SessionID = c.sess.ID
		s.StartTime = c.sess.StartTime
	}
	if !c.lastCommit.IsZero() {
		lc := c.lastCommit
		s.LastCommit = &lc
	}

	c.mu.Lock()
	c.snap = s
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.Save(&s); err != nil {
			c.log.Warn("saving status snapshot", "error", err)
		}
	}
	c.notifier.Status(notify.Status{
		Enabled:    s.State == Enabled,
		Root:       s.Root,
		Pending:    s.Pending,
		LastCommit: c.lastCommit,
	})
}
