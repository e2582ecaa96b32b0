package client

import "sync"

// TokenStore supplies the bearer token and is told to forget it on 401.
// session.Store is the production implementation.
type TokenStore interface {
	Token() string
	ClearToken()
}

// Level is the severity of a Notice.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

// Notice is a transient user-facing notification.
type Notice struct {
	Level Level
	Text  string
}

// Notifier shows notices to the user. Notify must not block.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

// Notify calls f.
func (f NotifierFunc) Notify(n Notice) { f(n) }

// Navigator knows the current route and can send the user to login.
type Navigator interface {
	OnLoginRoute() bool
	RedirectToLogin()
}

// MemoryTokens is an in-memory TokenStore for scripts and tests.
type MemoryTokens struct {
	mu    sync.RWMutex
	token string
}

// NewMemoryTokens returns a MemoryTokens holding token.
func NewMemoryTokens(token string) *MemoryTokens {
	return &MemoryTokens{token: token}
}

// Token returns the current token.
func (m *MemoryTokens) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// SetToken replaces the token.
func (m *MemoryTokens) SetToken(token string) {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
}

// ClearToken forgets the token.
func (m *MemoryTokens) ClearToken() {
	m.SetToken("")
}
