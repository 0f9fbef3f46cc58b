package notify

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/huh"
)

// Form asks questions with huh forms on the controlling terminal.
type Form struct{}

func (Form) Confirm(ctx context.Context, question string) (bool, error) {
	var ok bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(question).
				Value(&ok).
				Affirmative("Yes").
				Negative("No"),
		),
	)
	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}

func (Form) Input(ctx context.Context, question, placeholder string) (string, error) {
	var answer string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(question).
				Placeholder(placeholder).
				Value(&answer),
		),
	)
	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

// Fixed answers every question without asking; used when no terminal is
// attached.
type Fixed struct {
	Answer bool
	Text   string
}

func (f Fixed) Confirm(context.Context, string) (bool, error) {
	return f.Answer, nil
}

func (f Fixed) Input(context.Context, string, string) (string, error) {
	return f.Text, nil
}
