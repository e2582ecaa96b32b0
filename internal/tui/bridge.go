package tui

import (
	"sync"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/labdesk/labctl/pkg/client"
)

// noticeMsg is a client notice delivered into the program.
type noticeMsg client.Notice

// redirectLoginMsg asks the app to show the login view.
type redirectLoginMsg struct{}

// Bridge connects the API client to the running program: it is the
// client's Notifier and Navigator. Create it before the client, then
// Attach the program once it exists. Messages sent before Attach are dropped.
type Bridge struct {
	mu      sync.Mutex
	program *tea.Program
	onLogin atomic.Bool
}

// NewBridge returns an unattached Bridge.
func NewBridge() *Bridge {
	return &Bridge{}
}

// Attach routes future notices and redirects to p.
func (b *Bridge) Attach(p *tea.Program) {
	b.mu.Lock()
	b.program = p
	b.mu.Unlock()
}

func (b *Bridge) send(msg tea.Msg) {
	b.mu.Lock()
	p := b.program
	b.mu.Unlock()
	if p == nil {
		return
	}
	// Send blocks until the event loop reads it; callers may be inside a
	// command goroutine the loop is waiting on.
	go p.Send(msg)
}

// Notify implements client.Notifier.
func (b *Bridge) Notify(n client.Notice) {
	b.send(noticeMsg(n))
}

// OnLoginRoute implements client.Navigator.
func (b *Bridge) OnLoginRoute() bool {
	return b.onLogin.Load()
}

// RedirectToLogin implements client.Navigator.
func (b *Bridge) RedirectToLogin() {
	b.send(redirectLoginMsg{})
}

func (b *Bridge) setRoute(v view) {
	if b == nil {
		return
	}
	b.onLogin.Store(v.auth())
}
