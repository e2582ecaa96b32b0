package client

import (
	"sync"
	"time"
)

// redirectScheduler sends the user to login after a grace delay so the
// unauthorized notice stays readable. At most one redirect is pending.
type redirectScheduler struct {
	nav   Navigator
	delay time.Duration

	mu      sync.Mutex
	pending bool
	timer   *time.Timer
}

func newRedirectScheduler(nav Navigator, delay time.Duration) *redirectScheduler {
	return &redirectScheduler{nav: nav, delay: delay}
}

// schedule arms the redirect. It returns false when one is already pending,
// when there is no navigator, or when the user is already on login.
func (s *redirectScheduler) schedule() bool {
	if s == nil || s.nav == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending || s.nav.OnLoginRoute() {
		return false
	}
	s.pending = true
	s.timer = time.AfterFunc(s.delay, s.fire)
	return true
}

func (s *redirectScheduler) fire() {
	s.nav.RedirectToLogin()
	s.mu.Lock()
	s.pending = false
	s.timer = nil
	s.mu.Unlock()
}

// stop cancels a pending redirect.
func (s *redirectScheduler) stop() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil && s.timer.Stop() {
		s.pending = false
		s.timer = nil
	}
}

// isPending reports whether a redirect is armed.
func (s *redirectScheduler) isPending() bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}
