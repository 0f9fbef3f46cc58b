// Package tui provides a Bubble Tea dashboard for a running auto-commit
// session: status bar, notification log and prompts.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fakeyudi/autocommit/internal/notify"
)

// ── Styles ────────────

var (
	// Title bar at the very top
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	enabledStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("82"))

	disabledStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("245"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true)

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("178"))

	infoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	promptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("237")).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)
)

// maxEntries bounds the notification log.
const maxEntries = 500

// ── Messages ────────────

type notifyMsg struct {
	level notify.Level
	text  string
	at    time.Time
}

type statusMsg notify.Status

type confirmMsg struct {
	question string
	reply    chan<- bool
}

type inputMsg struct {
	question    string
	placeholder string
	reply       chan<- string
}

// ── Model ────────────────────

// Actions are the session operations the dashboard can trigger. They must
// not block; the session runs them on its own loop.
type Actions struct {
	CommitNow func()
	Toggle    func()
}

type promptMode int

const (
	promptNone promptMode = iota
	promptConfirm
	promptInput
)

// Model is the root Bubble Tea model for the dashboard.
type Model struct {
	actions  Actions
	status   notify.Status
	entries  []notifyMsg
	viewport viewport.Model
	width    int
	height   int
	ready    bool

	mode         promptMode
	question     string
	confirmReply chan<- bool
	inputReply   chan<- string
	input        textinput.Model
}

// New creates a dashboard model.
func New(actions Actions) Model {
	ti := textinput.New()
	ti.CharLimit = 512
	return Model{actions: actions, input: ti}
}

// ── Bubble Tea interface ───────────────

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch m.mode {
		case promptConfirm:
			return m.updateConfirm(msg)
		case promptInput:
			return m.updateInput(msg)
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "c":
			return m, m.run(m.actions.CommitNow)
		case "e":
			return m, m.run(m.actions.Toggle)
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case notifyMsg:
		m.entries = append(m.entries, msg)
		if len(m.entries) > maxEntries {
			m.entries = m.entries[len(m.entries)-maxEntries:]
		}
		m.refresh()
		return m, nil

	case statusMsg:
		m.status = notify.Status(msg)
		return m, nil

	case confirmMsg:
		m.cancelPrompt()
		m.mode = promptConfirm
		m.question = msg.question
		m.confirmReply = msg.reply
		return m, nil

	case inputMsg:
		m.cancelPrompt()
		m.mode = promptInput
		m.question = msg.question
		m.inputReply = msg.reply
		m.input.SetValue("")
		m.input.Placeholder = msg.placeholder
		cmd := m.input.Focus()
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.initViewport()
		return m, nil
	}
	return m, nil
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.confirmReply <- true
	case "n", "N", "esc":
		m.confirmReply <- false
	case "ctrl+c":
		m.confirmReply <- false
		return m, tea.Quit
	default:
		return m, nil
	}
	m.mode = promptNone
	m.confirmReply = nil
	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.inputReply <- strings.TrimSpace(m.input.Value())
	case "esc":
		m.inputReply <- ""
	case "ctrl+c":
		m.inputReply <- ""
		return m, tea.Quit
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	m.mode = promptNone
	m.inputReply = nil
	m.input.Blur()
	return m, nil
}

// cancelPrompt answers an outstanding prompt negatively before a new one
// replaces it. Reply channels are buffered, so this never blocks.
func (m *Model) cancelPrompt() {
	switch m.mode {
	case promptConfirm:
		m.confirmReply <- false
	case promptInput:
		m.inputReply <- ""
	}
	m.mode = promptNone
}

func (m Model) run(fn func()) tea.Cmd {
	if fn == nil {
		return nil
	}
	return func() tea.Msg {
		fn()
		return nil
	}
}

func (m Model) View() string {
	if !m.ready {
		return "Loading…"
	}

	// ── Row 1: title bar ──────────────────────────────────────────────────────
	title := titleStyle.Width(m.width).Render("  autocommit  " + m.status.Root)

	// ── Row 2: status indicator ───────────────────────────────────────────────
	status := renderStatus(m.status)

	// ── Row 3…N-2: notification log ──────────────────────────────────────────
	content := m.viewport.View()

	// ── Row N-1: prompt ───────────────────────────────────────────────────────
	var prompt string
	switch m.mode {
	case promptConfirm:
		prompt = promptStyle.Width(m.width).Render(m.question + "  [y/n]")
	case promptInput:
		prompt = promptStyle.Width(m.width).Render(m.question + " " + m.input.View())
	}

	// ── Row N: hint bar ───────────────────────────────────────────────────────
	hint := "  c commit now  e enable/disable  ↑/↓ scroll  q quit"
	switch m.mode {
	case promptConfirm:
		hint = "  y yes  n no"
	case promptInput:
		hint = "  enter submit  esc cancel"
	}
	statusBar := statusBarStyle.Width(m.width).Render(hint)

	return lipgloss.JoinVertical(lipgloss.Left, title, status, content, prompt, statusBar)
}

// ── Rendering ─────────────────────────────────────────────────────────────────

func (m *Model) initViewport() {
	// title(1) + status(1) + prompt(1) + statusBar(1) = 4 fixed rows
	vpHeight := m.height - 4
	if vpHeight < 1 {
		vpHeight = 1
	}
	m.viewport = viewport.New(m.width, vpHeight)
	m.refresh()
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderLog())
	m.viewport.GotoBottom()
}

func (m *Model) renderLog() string {
	var sb strings.Builder
	for _, e := range m.entries {
		sb.WriteString(timeStyle.Render(e.at.Format("15:04:05")))
		sb.WriteString("  ")
		sb.WriteString(levelBadge(e.level))
		sb.WriteString("  ")
		sb.WriteString(e.text)
		sb.WriteString("\n")
	}
	return sb.String()
}

func renderStatus(s notify.Status) string {
	if !s.Enabled {
		return disabledStyle.Render("  ○ auto-commit off")
	}
	parts := []string{
		enabledStyle.Render("  ● auto-commit on"),
		labelStyle.Render("pending") + " " + fmt.Sprint(s.Pending),
	}
	last := "never"
	if !s.LastCommit.IsZero() {
		last = s.LastCommit.Format("15:04:05")
	}
	parts = append(parts, labelStyle.Render("last commit")+" "+last)
	return strings.Join(parts, "   ")
}

func levelBadge(level notify.Level) string {
	switch level {
	case notify.Warning:
		return warnStyle.Render("WARN ")
	case notify.Error:
		return errorStyle.Render("ERROR")
	default:
		return infoStyle.Render("INFO ")
	}
}

// Run starts the dashboard and blocks until it quits or ctx is done.
func Run(ctx context.Context, p *tea.Program) error {
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

// NewProgram returns a full-screen program for m bound to ctx.
func NewProgram(ctx context.Context, m Model) *tea.Program {
	return tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
}
