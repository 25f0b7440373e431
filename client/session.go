// Package client is a typed HTTP client for the API together with the
// session it signs requests with.
package client

import (
	"sync"
	"time"

	"github.com/appcontrol-api/models"
)

// Session holds the bearer token and the user it was issued for. It is
// safe for concurrent use. Only Client mutates it, through Login,
// Register, Refresh and Logout, or by clearing it when the server rejects
// the token.
type Session struct {
	mu        sync.RWMutex
	token     string
	user      *models.User
	expiresAt time.Time
	now       func() time.Time
}

// NewSession returns an empty session
func NewSession() *Session {
	return &Session{now: time.Now}
}

// Token returns the current bearer token, or "" when signed out or expired
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.expiredLocked() {
		return ""
	}
	return s.token
}

// User returns a copy of the signed in user, or nil
func (s *Session) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil || s.expiredLocked() {
		return nil
	}
	user := *s.user
	return &user
}

// ExpiresAt returns when the current token stops being accepted
func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// Authenticated reports whether the session holds an unexpired token
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

func (s *Session) expiredLocked() bool {
	return s.token == "" || (!s.expiresAt.IsZero() && !s.now().Before(s.expiresAt))
}

func (s *Session) set(token string, user models.User, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.user = &user
	s.expiresAt = expiresAt
}

func (s *Session) setUser(user models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != "" {
		s.user = &user
	}
}

func (s *Session) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = nil
	s.expiresAt = time.Time{}
}
