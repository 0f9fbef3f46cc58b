package notify

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))
)

// Console writes styled notifications to w, one per line. Status updates
// are printed only when the enabled flag changes.
type Console struct {
	mu   sync.Mutex
	w    io.Writer
	now  func() time.Time
	last *Status
}

// NewConsole returns a Console writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w, now: time.Now}
}

func (c *Console) Notify(level Level, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "%s %s %s\n",
		timeStyle.Render(c.now().Format("15:04:05")),
		levelBadge(level),
		msg)
}

func (c *Console) Status(s Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last != nil && c.last.Enabled == s.Enabled {
		c.last = &s
		return
	}
	c.last = &s
	fmt.Fprintln(c.w, statusStyle.Render(FormatStatus(s)))
}

// FormatStatus renders s as a single status-bar line.
func FormatStatus(s Status) string {
	if !s.Enabled {
		return "○ auto-commit off"
	}
	line := fmt.Sprintf("● auto-commit on  %s  pending: %d", s.Root, s.Pending)
	if !s.LastCommit.IsZero() {
		line += "  last commit: " + s.LastCommit.Format("15:04:05")
	}
	return line
}

func levelBadge(level Level) string {
	switch level {
	case Warning:
		return warnStyle.Render("WARN ")
	case Error:
		return errorStyle.Render("ERROR")
	default:
		return infoStyle.Render("INFO ")
	}
}
