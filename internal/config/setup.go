package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
)

// setupAnswers holds the raw form values; numeric fields are edited as text.
type setupAnswers struct {
	delaySeconds string
	push         bool
	confirmPush  bool
	template     string
	detailed     bool
	notify       bool
	excludes     string
}

// RunSetup runs the interactive setup wizard seeded from existing and
// returns the resulting config file. Nothing is written to disk.
func RunSetup(existing Config) (*File, error) {
	a := answersFrom(existing)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Quiet period before committing (seconds)").
				Value(&a.delaySeconds).
				Validate(validateDelay),
			huh.NewInput().
				Title("Commit message template").
				Description("Placeholders: {date} {files}").
				Value(&a.template),
			huh.NewInput().
				Title("Exclude patterns").
				Description("Comma separated glob patterns").
				Value(&a.excludes),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Push after each commit?").
				Value(&a.push).
				Affirmative("Yes").
				Negative("No"),
			huh.NewConfirm().
				Title("Ask before pushing?").
				Value(&a.confirmPush).
				Affirmative("Yes").
				Negative("No"),
			huh.NewConfirm().
				Title("List changed files in the commit body?").
				Value(&a.detailed).
				Affirmative("Yes").
				Negative("No"),
			huh.NewConfirm().
				Title("Show a notification after each commit?").
				Value(&a.notify).
				Affirmative("Yes").
				Negative("No"),
		),
	)
	if err := form.Run(); err != nil {
		return nil, err
	}

	cfg, err := a.apply(existing)
	if err != nil {
		return nil, err
	}
	return FileFrom(cfg), nil
}

func answersFrom(c Config) *setupAnswers {
	return &setupAnswers{
		delaySeconds: strconv.Itoa(c.CommitDelayMs / 1000),
		push:         c.PushAfterCommit,
		confirmPush:  c.ConfirmBeforePush,
		template:     c.CommitMessageTemplate,
		detailed:     c.DetailedCommitMessage,
		notify:       c.NotifyOnCommit,
		excludes:     strings.Join(c.ExcludePatterns, ", "),
	}
}

// apply folds the answers onto base and validates the result.
func (a *setupAnswers) apply(base Config) (Config, error) {
	secs, err := strconv.Atoi(strings.TrimSpace(a.delaySeconds))
	if err != nil {
		return Config{}, NewConfigError("commitDelayMs", a.delaySeconds, err)
	}
	c := base
	c.CommitDelayMs = secs * 1000
	c.PushAfterCommit = a.push
	c.ConfirmBeforePush = a.confirmPush
	if t := strings.TrimSpace(a.template); t != "" {
		c.CommitMessageTemplate = t
	}
	c.DetailedCommitMessage = a.detailed
	c.NotifyOnCommit = a.notify
	c.ExcludePatterns = splitPatterns(a.excludes)
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func validateDelay(s string) error {
	secs, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("enter a whole number of seconds")
	}
	if secs*1000 < MinCommitDelayMs {
		return fmt.Errorf("must be at least %d seconds", MinCommitDelayMs/1000)
	}
	return nil
}

func splitPatterns(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
