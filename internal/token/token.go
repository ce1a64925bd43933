// Package token keeps the bearer token and derives the authentication state
// from its claims. The client never verifies the signature; that is the
// server's job. Expiry is the only claim checked locally.
package token

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Status is the authentication state derived from the stored token.
type Status struct {
	Authenticated bool
	CustomerID    string
	Role          string
}

// Source yields the current authentication status. The syncer depends on
// this, not on the concrete manager.
type Source interface {
	Status() Status
}

// Manager persists the bearer token under a single file and parses it on
// demand.
type Manager struct {
	mu   sync.RWMutex
	path string
	tok  string
	log  *zap.Logger
	now  func() time.Time
}

func NewManager(path string, log *zap.Logger) *Manager {
	m := &Manager{path: path, log: log, now: time.Now}
	if data, err := os.ReadFile(path); err == nil {
		m.tok = string(data)
	}
	return m
}

// Token returns the raw bearer token, or "" when logged out.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tok
}

// Set stores a new bearer token and persists it.
func (m *Manager) Set(tok string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tok = tok
	if err := os.WriteFile(m.path, []byte(tok), 0o600); err != nil {
		return fmt.Errorf("persist token failed: %w", err)
	}
	return nil
}

// Clear evicts the token. Called on logout and on any 401 from the backend.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tok == "" {
		return
	}
	m.tok = ""
	if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
		m.log.Warn("failed to remove persisted token", zap.Error(err))
	}
}

// Status decodes the token payload without signature verification and
// compares its expiry claim to the clock.
func (m *Manager) Status() Status {
	tok := m.Token()
	if tok == "" {
		return Status{}
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err != nil {
		m.log.Warn("unparsable bearer token", zap.Error(err))
		return Status{}
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil || !exp.After(m.now()) {
		return Status{}
	}

	st := Status{Authenticated: true}
	if id, ok := claims["user_id"].(string); ok {
		st.CustomerID = id
	} else if sub, err := claims.GetSubject(); err == nil {
		st.CustomerID = sub
	}
	if role, ok := claims["role"].(string); ok {
		st.Role = role
	}
	return st
}
