// Package auth issues the session tokens that identify hub visitors and
// the administrator.
package auth

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Config captures the administrator credentials and session lifetime.
type Config struct {
	Username   string
	Password   string
	SessionTTL time.Duration
}

// Session is the identity bound to a session cookie.
type Session struct {
	Token     string
	User      string
	Admin     bool
	ExpiresAt time.Time
}

// Manager issues and validates session tokens.
type Manager struct {
	username string
	password string
	ttl      time.Duration
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]Session
}

// ErrInvalidCredentials indicates that the username/password pair was rejected.
var ErrInvalidCredentials = errors.New("invalid credentials")

const sweepThreshold = 1024

// NewManager returns a Manager initialised with the supplied config. An
// empty password disables administrator login.
func NewManager(cfg Config) *Manager {
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{
		username: strings.ToLower(strings.TrimSpace(cfg.Username)),
		password: cfg.Password,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]Session),
	}
}

// Guest starts an anonymous session with a generated user name.
func (m *Manager) Guest() Session {
	id := uuid.NewString()
	return m.issue("guest-"+id[:8], false)
}

// Login validates the administrator credentials and starts an admin session.
func (m *Manager) Login(username, password string) (Session, error) {
	if m == nil {
		return Session{}, ErrInvalidCredentials
	}
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || password == "" || m.password == "" {
		return Session{}, ErrInvalidCredentials
	}
	if username != m.username || password != m.password {
		return Session{}, ErrInvalidCredentials
	}
	return m.issue(username, true), nil
}

func (m *Manager) issue(user string, admin bool) Session {
	s := Session{
		Token:     uuid.NewString(),
		User:      user,
		Admin:     admin,
		ExpiresAt: m.now().UTC().Add(m.ttl),
	}
	m.mu.Lock()
	if len(m.sessions) >= sweepThreshold {
		m.sweepLocked()
	}
	m.sessions[s.Token] = s
	m.mu.Unlock()
	return s
}

// sweepLocked drops expired sessions. Guests that never come back would
// otherwise accumulate.
func (m *Manager) sweepLocked() {
	now := m.now().UTC()
	for token, s := range m.sessions {
		if now.After(s.ExpiresAt) {
			delete(m.sessions, token)
		}
	}
}

// Len reports the number of stored sessions, expired ones included.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Lookup returns the live session for token.
func (m *Manager) Lookup(token string) (Session, bool) {
	if m == nil {
		return Session{}, false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return Session{}, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[token]
	if !ok {
		return Session{}, false
	}
	if m.now().UTC().After(s.ExpiresAt) {
		delete(m.sessions, token)
		return Session{}, false
	}
	return s, true
}

// Logout forgets token.
func (m *Manager) Logout(token string) {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
}
