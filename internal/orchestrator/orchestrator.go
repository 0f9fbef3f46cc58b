// Package orchestrator runs a single auto-commit attempt: verify the
// repository, check for changes, build the message, stage, commit and
// optionally push.
package orchestrator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/fakeyudi/autocommit/internal/config"
	"github.com/fakeyudi/autocommit/internal/gitexec"
	"github.com/fakeyudi/autocommit/internal/notify"
	"github.com/fakeyudi/autocommit/internal/repo"
	"github.com/fakeyudi/autocommit/internal/tracker"
)

// FallbackBranch fills {branch} in the message when HEAD is not on a branch.
// It is never pushed.
const FallbackBranch = "main"

// Request describes one attempt.
type Request struct {
	Root    string
	Config  config.Config
	Tracker *tracker.Tracker
	// Forced attempts skip the working-tree check.
	Forced bool
}

// Orchestrator performs commit attempts. It is not safe for concurrent use;
// callers serialize attempts.
type Orchestrator struct {
	Exec     *gitexec.Executor
	Guard    *repo.Guard
	Prompter notify.Prompter
	Logger   *slog.Logger
	Now      func() time.Time

	remoteOffered bool
}

// New returns an Orchestrator.
func New(exec *gitexec.Executor, guard *repo.Guard, prompter notify.Prompter, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{Exec: exec, Guard: guard, Prompter: prompter, Logger: logger, Now: time.Now}
}

// Reset forgets that a remote was already offered, so the next attempt
// without a remote asks again.
func (o *Orchestrator) Reset() {
	o.remoteOffered = false
}

// Run performs one attempt. The tracker is cleared whenever the attempt ends
// in Committed or NothingToCommit.
func (o *Orchestrator) Run(ctx context.Context, req Request) Outcome {
	log := o.logger().With("root", req.Root, "forced", req.Forced)
	cfg := req.Config

	if !gitexec.HasRepository(req.Root) {
		return o.fail(log, StepVerify, fmt.Errorf("%s: %w", req.Root, gitexec.ErrRepositoryVanished), req)
	}

	var status string
	if !req.Forced && cfg.CommitOnlyWithChanges {
		out, err := o.Exec.Execute(ctx, req.Root, "status", "--porcelain")
		if err != nil {
			return o.fail(log, StepStatus, err, req)
		}
		if strings.TrimSpace(out) == "" {
			log.Debug("working tree clean")
			req.Tracker.Clear()
			return Outcome{Kind: NothingToCommit, Forced: req.Forced}
		}
		status = out
	} else if out, err := o.Exec.Execute(ctx, req.Root, "status", "--porcelain"); err == nil {
		status = out
	}

	files := len(repo.StatusPaths(status))
	branch, onBranch := o.Guard.CurrentBranch(ctx, req.Root)
	label := branch
	if !onBranch {
		label = FallbackBranch
	}
	msg := BuildMessage(cfg.CommitMessageTemplate, Vars{
		Date:   o.now().Format(DateLayout),
		Branch: label,
		Files:  strconv.Itoa(files),
	}, cfg.DetailedCommitMessage, req.Tracker.Summary(cfg.MaxFilesToList))

	if _, err := o.Exec.Execute(ctx, req.Root, "add", "-A"); err != nil {
		return o.fail(log, StepStage, err, req)
	}

	out, err := o.Exec.Execute(ctx, req.Root, "commit", "-m", msg)
	if err != nil {
		return o.fail(log, StepCommit, err, req)
	}
	if out == gitexec.NothingToCommit {
		log.Debug("commit had nothing to record")
		req.Tracker.Clear()
		return Outcome{Kind: NothingToCommit, Forced: req.Forced}
	}

	result := Outcome{
		Kind:        Committed,
		Forced:      req.Forced,
		Files:       files,
		Message:     msg,
		CommittedAt: o.now(),
	}
	req.Tracker.Clear()
	log.Info("committed", "files", files, "branch", label)

	if !cfg.PushAfterCommit {
		return result
	}
	if !onBranch {
		branch, onBranch = o.Guard.CurrentBranch(ctx, req.Root)
	}
	if !onBranch {
		log.Warn("push skipped, HEAD is not on a branch")
		result.Note = "HEAD is detached, push skipped"
		return result
	}
	o.push(ctx, log, req, branch, &result)
	return result
}

// push pushes the current branch, filling in the push fields of result.
// A failed or skipped push never undoes the commit.
func (o *Orchestrator) push(ctx context.Context, log *slog.Logger, req Request, branch string, result *Outcome) {
	remote, ok := o.Guard.PushRemote(ctx, req.Root)
	if !ok {
		result.Note = "no remote configured"
		if url := o.OfferRemote(ctx, req.Root); url != "" {
			result.Note = "remote origin added, pushing from the next commit"
		}
		return
	}

	if req.Config.ConfirmBeforePush {
		yes, err := o.prompter().Confirm(ctx, fmt.Sprintf("Push %s to %s?", branch, remote))
		if err != nil {
			log.Warn("push confirmation failed", "error", err)
		}
		if err != nil || !yes {
			result.Note = "push skipped"
			return
		}
	}

	if _, err := o.Exec.Execute(ctx, req.Root, "push", "-u", remote, branch); err != nil {
		log.Warn("push failed", "remote", remote, "error", err)
		result.PushErr = &StepError{Step: StepPush, Err: err}
		return
	}
	result.Pushed = true
	log.Info("pushed", "remote", remote, "branch", branch)
}

// OfferRemote asks for a remote URL and adds it as origin. It asks at most
// once until Reset. It returns the URL that was added, or "".
func (o *Orchestrator) OfferRemote(ctx context.Context, root string) string {
	if o.remoteOffered {
		return ""
	}
	o.remoteOffered = true

	url, err := o.prompter().Input(ctx, "No git remote is configured. Remote URL to push to (empty to skip):", "git@github.com:user/repo.git")
	if err != nil || url == "" {
		return ""
	}
	if err := o.Guard.AddRemote(ctx, root, "origin", url); err != nil {
		o.logger().Warn("adding remote failed", "root", root, "error", err)
		return ""
	}
	return url
}

func (o *Orchestrator) fail(log *slog.Logger, step Step, err error, req Request) Outcome {
	log.Error("commit attempt failed", "step", step, "error", err)
	return Outcome{
		Kind:   Failed,
		Forced: req.Forced,
		Step:   step,
		Err:    &StepError{Step: step, Err: err},
	}
}

func (o *Orchestrator) prompter() notify.Prompter {
	if o.Prompter != nil {
		return o.Prompter
	}
	return notify.Fixed{}
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o *Orchestrator) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
