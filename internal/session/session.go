package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"

	"campusportal/portal/internal/auth"
	"campusportal/portal/internal/role"
)

// Persisted key names. Both are written and removed together.
const (
	TokenKey = "token"
	UserKey  = "user"
)

// ErrNotFound is returned by a Store when nothing is persisted.
var ErrNotFound = errors.New("session_not_found")

// Session is the authenticated identity plus its bearer token.
type Session struct {
	Token  string
	Claims auth.Claims
}

// Role is derived from the claims on every call; it is never stored separately.
func (s *Session) Role() role.Role {
	if s == nil {
		return role.Unknown
	}
	r, _ := role.Parse(s.Claims.Role)
	return r
}

// Store is durable key-value storage for the session.
type Store interface {
	Load(ctx context.Context) (token string, user []byte, err error)
	Save(ctx context.Context, token string, user []byte) error
	Delete(ctx context.Context) error
}

// Manager owns the active session. It is the only writer of the Store.
type Manager struct {
	store  Store
	logger *zap.Logger

	mu      sync.RWMutex
	current *Session
}

func NewManager(store Store, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{store: store, logger: logger}
}

// Restore loads the persisted session at startup. Missing or corrupt data is
// treated as logged out and never returned as an error.
func (m *Manager) Restore(ctx context.Context) *Session {
	token, user, err := m.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			m.logger.Warn("session_restore_failed", zap.Error(err))
		}
		m.set(nil)
		return nil
	}
	var claims auth.Claims
	if token == "" || len(user) == 0 {
		m.set(nil)
		return nil
	}
	if err := json.Unmarshal(user, &claims); err != nil {
		m.logger.Warn("session_restore_corrupt", zap.Error(err))
		m.set(nil)
		return nil
	}
	s := &Session{Token: token, Claims: claims}
	m.set(s)
	m.logger.Info("session_restored", zap.String("role", s.Role().String()))
	return s
}

// Establish persists token and claims and makes them the active session,
// replacing any previous one.
func (m *Manager) Establish(ctx context.Context, token string, claims auth.Claims) (*Session, error) {
	user, err := json.Marshal(claims)
	if err != nil {
		return nil, err
	}
	if err := m.store.Save(ctx, token, user); err != nil {
		return nil, err
	}
	s := &Session{Token: token, Claims: claims}
	m.set(s)
	return s, nil
}

// Clear removes the persisted session and logs out.
func (m *Manager) Clear(ctx context.Context) error {
	m.set(nil)
	return m.store.Delete(ctx)
}

// Current returns the active session or nil.
func (m *Manager) Current() *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

func (m *Manager) set(s *Session) {
	m.mu.Lock()
	m.current = s
	m.mu.Unlock()
}

type sessionKey struct{}

// WithSession attaches s to ctx for request-scoped handlers.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey{}).(*Session)
	return s
}
