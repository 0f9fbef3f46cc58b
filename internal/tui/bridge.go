package tui

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fakeyudi/autocommit/internal/notify"
)

// Bridge implements notify.Notifier and notify.Prompter on top of a running
// dashboard program.
type Bridge struct {
	send func(tea.Msg)
	now  func() time.Time
	done chan struct{}
	once sync.Once
}

// NewBridge returns a Bridge delivering to p.
func NewBridge(p *tea.Program) *Bridge {
	return &Bridge{send: p.Send, now: time.Now, done: make(chan struct{})}
}

// Close makes outstanding and future prompts return a negative answer and
// stops delivering messages. Call it once the program has exited.
func (b *Bridge) Close() {
	b.once.Do(func() { close(b.done) })
}

func (b *Bridge) closed() bool {
	select {
	case <-b.done:
		return true
	default:
		return false
	}
}

func (b *Bridge) Notify(level notify.Level, msg string) {
	if b.closed() {
		return
	}
	b.send(notifyMsg{level: level, text: msg, at: b.now()})
}

func (b *Bridge) Status(s notify.Status) {
	if b.closed() {
		return
	}
	b.send(statusMsg(s))
}

func (b *Bridge) Confirm(ctx context.Context, question string) (bool, error) {
	if b.closed() {
		return false, nil
	}
	reply := make(chan bool, 1)
	b.send(confirmMsg{question: question, reply: reply})
	select {
	case ok := <-reply:
		return ok, nil
	case <-b.done:
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (b *Bridge) Input(ctx context.Context, question, placeholder string) (string, error) {
	if b.closed() {
		return "", nil
	}
	reply := make(chan string, 1)
	b.send(inputMsg{question: question, placeholder: placeholder, reply: reply})
	select {
	case s := <-reply:
		return s, nil
	case <-b.done:
		return "", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
