package session

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakeyudi/autocommit/internal/config"
	"github.com/fakeyudi/autocommit/internal/gitexec"
	"github.com/fakeyudi/autocommit/internal/notify"
	"github.com/fakeyudi/autocommit/internal/orchestrator"
	"github.com/fakeyudi/autocommit/internal/repo"
	"github.com/fakeyudi/autocommit/internal/watch"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// fakeWatch counts live subscriptions and lets tests inject events.
type fakeWatch struct {
	mu     sync.Mutex
	active int
	total  int
	fn     func(watch.Event)
}

func (f *fakeWatch) subscribe(_ string, _ watch.Options, fn func(watch.Event)) (io.Closer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active++
	f.total++
	f.fn = fn
	var once sync.Once
	return closerFunc(func() error {
		once.Do(func() {
			f.mu.Lock()
			f.active--
			f.mu.Unlock()
		})
		return nil
	}), nil
}

func (f *fakeWatch) emit(rel string) {
	f.mu.Lock()
	fn := f.fn
	f.mu.Unlock()
	fn(watch.Event{Rel: rel, Kind: watch.Changed})
}

func (f *fakeWatch) counts() (active, total int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active, f.total
}

type fakeGit struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
}

func (g *fakeGit) run(_ context.Context, _ string, args ...string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, args[0])
	if err, ok := g.fail[args[0]]; ok {
		return "", err
	}
	switch args[0] {
	case "--version":
		return "git version 2.45.0\n", nil
	case "status":
		return " M a.txt\n", nil
	case "symbolic-ref":
		return "main\n", nil
	}
	return "", nil
}

func (g *fakeGit) count(sub string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, c := range g.calls {
		if c == sub {
			n++
		}
	}
	return n
}

type recorder struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recorder) Notify(level notify.Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, level.String()+": "+msg)
}

func (r *recorder) Status(notify.Status) {}

func (r *recorder) matching(substr string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.msgs {
		if strings.Contains(m, substr) {
			n++
		}
	}
	return n
}

type harness struct {
	c     *Controller
	git   *fakeGit
	watch *fakeWatch
	notes *recorder
	root  string
}

func testConfig() config.Config {
	cfg := config.Defaults()
	cfg.CommitDelayMs = 40
	cfg.PushAfterCommit = false
	cfg.MaxRetries = 0
	return cfg
}

func newHarness(t *testing.T, prompter notify.Prompter) *harness {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))

	h := &harness{git: &fakeGit{fail: map[string]error{}}, watch: &fakeWatch{}, notes: &recorder{}, root: root}
	h.c = NewController(Options{
		Config:    testConfig(),
		Guard:     &repo.Guard{Runner: h.git.run, LookPath: func(string) (string, error) { return "/usr/bin/git", nil }},
		Exec:      &gitexec.Executor{Runner: h.git.run},
		Notifier:  h.notes,
		Prompter:  prompter,
		Subscribe: h.watch.subscribe,
	})
	return h
}

func TestEnableTwiceKeepsOneWatch(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	require.NoError(t, h.c.Enable(ctx, h.root))
	h.c.HandleChange(watch.Event{Rel: "a.txt"})
	require.True(t, h.c.sched.Pending())

	require.NoError(t, h.c.Enable(ctx, h.root))

	active, total := h.watch.counts()
	assert.Equal(t, 1, active)
	assert.Equal(t, 2, total)
	assert.False(t, h.c.sched.Pending(), "re-enable cancels the previous timer")
	assert.Equal(t, Enabled, h.c.State())
	assert.Equal(t, 2, h.notes.matching("Auto-commit enabled"))
	assert.Equal(t, 0, h.notes.matching("disabled"))
}

func TestEnableDeclinedInitStaysDisabled(t *testing.T) {
	h := newHarness(t, notify.Fixed{Answer: false})
	h.git.fail["rev-parse"] = errors.New("not a git repository")
	dir := t.TempDir()

	err := h.c.Enable(context.Background(), dir)

	require.ErrorIs(t, err, repo.ErrNotARepository)
	assert.Equal(t, Disabled, h.c.State())
	_, total := h.watch.counts()
	assert.Equal(t, 0, total, "no watch installed")
	assert.Equal(t, 0, h.git.count("init"))
	assert.Equal(t, 1, h.notes.matching("not a git repository"))
}

func TestEnableToolUnavailable(t *testing.T) {
	h := newHarness(t, nil)
	h.c.guard.LookPath = func(string) (string, error) { return "", errors.New("not found") }

	err := h.c.Enable(context.Background(), h.root)

	require.ErrorIs(t, err, repo.ErrToolUnavailable)
	assert.Equal(t, Disabled, h.c.State())
}

func TestExcludedPathsDoNotSchedule(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.c.Enable(context.Background(), h.root))

	h.c.HandleChange(watch.Event{Rel: "node_modules/lib/index.js"})
	h.c.HandleChange(watch.Event{Rel: "logs/debug.log"})

	assert.Equal(t, 0, h.c.tracker.Count())
	assert.False(t, h.c.sched.Pending())

	h.c.HandleChange(watch.Event{Rel: "src/main.go"})
	assert.Equal(t, 1, h.c.tracker.Count())
	assert.True(t, h.c.sched.Pending())
}

func TestDisableCancelsPendingAttempt(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.c.Enable(context.Background(), h.root))
	h.c.HandleChange(watch.Event{Rel: "a.txt"})

	h.c.Disable()

	assert.Equal(t, Disabled, h.c.State())
	assert.False(t, h.c.sched.Pending())
	assert.Equal(t, 0, h.c.Snapshot().Pending)
	active, _ := h.watch.counts()
	assert.Equal(t, 0, active)
	assert.Equal(t, 1, h.notes.matching("Auto-commit disabled."))

	h.c.Disable()
	assert.Equal(t, 1, h.notes.matching("Auto-commit disabled."), "disabling twice notifies once")
}

func TestRepositoryVanishedDisables(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.c.Enable(context.Background(), h.root))
	require.NoError(t, os.RemoveAll(filepath.Join(h.root, ".git")))

	out, err := h.c.CommitNow(context.Background())

	require.NoError(t, err)
	assert.Equal(t, orchestrator.Failed, out.Kind)
	assert.True(t, out.RepositoryVanished())
	assert.Equal(t, Disabled, h.c.State())
	assert.Equal(t, 1, h.c.Snapshot().Failures)
}

func TestCommitNowRequiresEnabled(t *testing.T) {
	h := newHarness(t, nil)
	_, err := h.c.CommitNow(context.Background())
	assert.ErrorIs(t, err, ErrNotEnabled)
}

func TestCommitNowCommits(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.c.Enable(context.Background(), h.root))
	h.c.HandleChange(watch.Event{Rel: "a.txt"})

	out, err := h.c.CommitNow(context.Background())

	require.NoError(t, err)
	assert.Equal(t, orchestrator.Committed, out.Kind)
	assert.False(t, h.c.sched.Pending())
	snap := h.c.Snapshot()
	assert.Equal(t, 1, snap.Commits)
	assert.Equal(t, 0, snap.Pending)
	require.NotNil(t, snap.LastCommit)
}

func TestReloadRejectsInvalidConfig(t *testing.T) {
	h := newHarness(t, nil)
	bad := config.Defaults()
	bad.CommitDelayMs = 10

	err := h.c.Reload(bad)

	require.ErrorIs(t, err, config.ErrInvalidConfiguration)
	assert.Equal(t, 40, h.c.Config().CommitDelayMs, "previous configuration stays in effect")
	assert.Equal(t, 1, h.notes.matching("Configuration not applied"))
}

func TestReloadReinstallsWatchOnPatternChange(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.c.Enable(context.Background(), h.root))

	cfg := config.Defaults()
	cfg.ExcludePatterns = []string{"**/tmp/**"}
	require.NoError(t, h.c.Reload(cfg))

	active, total := h.watch.counts()
	assert.Equal(t, 1, active)
	assert.Equal(t, 2, total)
	assert.Equal(t, 30*time.Second, h.c.sched.Delay())
	assert.True(t, h.c.tracker.Excluded("tmp/x"))
}

func TestRunCommitsOnceAfterQuietPeriod(t *testing.T) {
	h := newHarness(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, h.c.Enable(ctx, h.root))
	h.c.sched.SetDelay(150 * time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- h.c.Run(ctx) }()

	for _, p := range []string{"a.txt", "b.txt", "a.txt", "c.txt"} {
		h.watch.emit(p)
		time.Sleep(5 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return h.git.count("commit") == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, 1, h.git.count("commit"))
	assert.Equal(t, 1, h.c.Snapshot().Commits)

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, Disabled, h.c.State())
	assert.ErrorIs(t, h.c.Do(context.Background(), func() {}), ErrStopped)
}

func TestDoRunsOnLoop(t *testing.T) {
	h := newHarness(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.c.Run(ctx)

	ran := make(chan struct{})
	require.NoError(t, h.c.Do(ctx, func() { close(ran) }))
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("submitted function never ran")
	}
}
