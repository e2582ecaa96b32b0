// Package session holds the signed-in user's token and cached profile and
// keeps them in step with persistent storage.
package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/labdesk/labctl/internal/storage"
	"github.com/labdesk/labctl/pkg/domain"
)

// Authenticator exchanges credentials for a token and profile.
// *client.Client satisfies it.
type Authenticator interface {
	Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResult, error)
}

// Store is the session: token plus advisory profile. It is safe for
// concurrent use and satisfies client.TokenStore.
type Store struct {
	st     storage.Storage
	logger *zap.Logger

	mu      sync.RWMutex
	token   string
	profile *domain.UserProfile
}

// New returns a Store backed by st and loads any saved session.
func New(st storage.Storage, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{st: st, logger: logger}
	if err := s.Reload(); err != nil {
		logger.Warn("load session", zap.Error(err))
	}
	return s
}

// Reload re-reads the session from storage. A stored profile that does not
// parse is discarded and removed.
func (s *Store) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, err := s.st.Get(storage.KeyToken)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		tok = nil
	case err != nil:
		return fmt.Errorf("session.Reload: %w", err)
	}
	s.token = string(bytes.TrimSpace(tok))

	s.profile = nil
	raw, err := s.st.Get(storage.KeyUserInfo)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("session.Reload: %w", err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" || string(raw) == "undefined" {
		return nil
	}
	var p domain.UserProfile
	if err := json.Unmarshal(raw, &p); err != nil {
		s.logger.Warn("discarding corrupt stored profile", zap.Error(err))
		if delErr := s.st.Delete(storage.KeyUserInfo); delErr != nil {
			return fmt.Errorf("session.Reload: %w", delErr)
		}
		return nil
	}
	s.profile = &p
	return nil
}

// Token returns the bearer token, empty when signed out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Profile returns the cached profile.
func (s *Store) Profile() (domain.UserProfile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return domain.UserProfile{}, false
	}
	return *s.profile, true
}

// Snapshot returns token and profile read together.
func (s *Store) Snapshot() (string, *domain.UserProfile) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return s.token, nil
	}
	p := *s.profile
	return s.token, &p
}

// LoggedIn reports whether a token is held.
func (s *Store) LoggedIn() bool {
	return s.Token() != ""
}

// IsAdmin reports whether the cached profile carries the admin flag. It is
// advisory; the server enforces roles.
func (s *Store) IsAdmin() bool {
	p, ok := s.Profile()
	return ok && p.IsAdmin()
}

// UserID returns the cached profile's user id, or 0.
func (s *Store) UserID() int64 {
	p, _ := s.Profile()
	return p.UserID
}

// SetToken replaces the token.
func (s *Store) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return s.persistToken()
}

// SetProfile replaces the cached profile.
func (s *Store) SetProfile(p domain.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = &p
	return s.persistProfile()
}

// UpdateProfile edits the cached profile in place. It fails when no profile is cached.
func (s *Store) UpdateProfile(fn func(*domain.UserProfile)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return errors.New("session.UpdateProfile: not signed in")
	}
	p := *s.profile
	fn(&p)
	s.profile = &p
	return s.persistProfile()
}

// Login authenticates and stores the result. Token and profile change
// together; no reader sees one without the other.
func (s *Store) Login(ctx context.Context, auth Authenticator, req domain.LoginRequest) (*domain.LoginResult, error) {
	res, err := auth.Login(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.Adopt(res.Token, res.Profile); err != nil {
		return nil, err
	}
	return res, nil
}

// Adopt stores a token and profile obtained elsewhere, such as a
// registration that signs the user in or a bound WeChat login.
func (s *Store) Adopt(token string, p domain.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.profile = &p
	if err := s.persistToken(); err != nil {
		return err
	}
	return s.persistProfile()
}

// Logout forgets the session and removes it from storage.
func (s *Store) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.profile = nil
	return errors.Join(
		s.st.Delete(storage.KeyToken),
		s.st.Delete(storage.KeyUserInfo),
	)
}

// ClearToken drops the session after the server rejected the token.
func (s *Store) ClearToken() {
	if err := s.Logout(); err != nil {
		s.logger.Warn("clear session", zap.Error(err))
	}
}

// TokenExpiry reads the exp claim of a JWT token without verifying its
// signature. ok is false for opaque tokens or tokens without exp.
func (s *Store) TokenExpiry() (exp time.Time, ok bool) {
	tok := s.Token()
	if tok == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err != nil {
		return time.Time{}, false
	}
	at, err := claims.GetExpirationTime()
	if err != nil || at == nil {
		return time.Time{}, false
	}
	return at.Time, true
}

// Settings returns the stored app settings, writing the defaults on first use.
func (s *Store) Settings() domain.AppSettings {
	raw, err := s.st.Get(storage.KeySettings)
	if err == nil {
		settings := domain.DefaultAppSettings()
		if json.Unmarshal(raw, &settings) == nil {
			return settings
		}
		s.logger.Warn("discarding corrupt app settings")
	}
	settings := domain.DefaultAppSettings()
	if err := s.SaveSettings(settings); err != nil {
		s.logger.Warn("save default settings", zap.Error(err))
	}
	return settings
}

// SaveSettings stores app settings.
func (s *Store) SaveSettings(settings domain.AppSettings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("session.SaveSettings: %w", err)
	}
	if err := s.st.Set(storage.KeySettings, data); err != nil {
		return fmt.Errorf("session.SaveSettings: %w", err)
	}
	return nil
}

// persistToken writes s.token. Caller holds s.mu.
func (s *Store) persistToken() error {
	if s.token == "" {
		return s.st.Delete(storage.KeyToken)
	}
	if err := s.st.Set(storage.KeyToken, []byte(s.token)); err != nil {
		return fmt.Errorf("session: save token: %w", err)
	}
	return nil
}

// persistProfile writes s.profile. Caller holds s.mu.
func (s *Store) persistProfile() error {
	if s.profile == nil {
		return s.st.Delete(storage.KeyUserInfo)
	}
	data, err := json.Marshal(s.profile)
	if err != nil {
		return fmt.Errorf("session: encode profile: %w", err)
	}
	if err := s.st.Set(storage.KeyUserInfo, data); err != nil {
		return fmt.Errorf("session: save profile: %w", err)
	}
	return nil
}
