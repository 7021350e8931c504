package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/MaestroMatt79/marching-knights-portal/pkg/core/model"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/db"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/utils/ids"
)

// DefaultSessionTTL applies when no TTL is configured
const DefaultSessionTTL = 12 * time.Hour

// Sessions keeps bearer tokens in their own storage entry, apart from the document
type Sessions struct {
	mu       sync.Mutex
	backend  db.Backend
	logger   *zap.Logger
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]model.Session
}

// SessionsOption customizes Sessions at OpenSessions
type SessionsOption func(*Sessions)

// WithSessionClock overrides the clock used for expiry
func WithSessionClock(now func() time.Time) SessionsOption {
	return func(m *Sessions) { m.now = now }
}

// OpenSessions loads unexpired sessions from the backend
func OpenSessions(ctx context.Context, backend db.Backend, ttl time.Duration, logger *zap.Logger, opts ...SessionsOption) (*Sessions, error) {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	m := &Sessions{
		backend:  backend,
		logger:   logger,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]model.Session),
	}
	for _, opt := range opts {
		opt(m)
	}

	data, err := backend.Get(ctx, db.KeySessions)
	if errors.Is(err, db.ErrNotFound) {
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}

	var stored []model.Session
	if err := json.Unmarshal(data, &stored); err != nil {
		logger.Warn("Stored sessions are corrupt, starting empty", zap.Error(err))
		return m, nil
	}

	now := m.now()
	for _, sess := range stored {
		if sess.Token != "" && now.Before(sess.ExpiresAt) {
			m.sessions[sess.Token] = sess
		}
	}
	return m, nil
}

// Create opens a session for actor
func (m *Sessions) Create(ctx context.Context, actor model.Actor) (model.Session, error) {
	if actor.Role == model.RoleGuest || !actor.Role.IsValid() {
		return model.Session{}, invalid("role", "cannot open a session for role %q", actor.Role)
	}

	now := m.now().UTC()
	sess := model.Session{
		Token:     ids.NewToken(),
		Role:      actor.Role,
		Name:      actor.Name,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[sess.Token] = sess
	if err := m.persist(ctx); err != nil {
		delete(m.sessions, sess.Token)
		return model.Session{}, err
	}
	return sess, nil
}

// Lookup returns the live session for token
func (m *Sessions) Lookup(token string) (model.Session, bool) {
	if token == "" {
		return model.Session{}, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[token]
	if !ok || !m.now().Before(sess.ExpiresAt) {
		return model.Session{}, false
	}
	return sess, true
}

// Actor resolves token to an actor; unknown or expired tokens act as guest
func (m *Sessions) Actor(token string) model.Actor {
	if sess, ok := m.Lookup(token); ok {
		return sess.Actor()
	}
	return model.Guest
}

// Revoke ends the session for token. Unknown tokens are ignored.
func (m *Sessions) Revoke(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[token]
	if !ok {
		return nil
	}
	delete(m.sessions, token)
	if err := m.persist(ctx); err != nil {
		m.sessions[token] = sess
		return err
	}
	return nil
}

// persist writes all unexpired sessions; callers hold m.mu
func (m *Sessions) persist(ctx context.Context) error {
	now := m.now()
	live := make([]model.Session, 0, len(m.sessions))
	for token, sess := range m.sessions {
		if !now.Before(sess.ExpiresAt) {
			delete(m.sessions, token)
			continue
		}
		live = append(live, sess)
	}

	data, err := json.Marshal(live)
	if err != nil {
		return fmt.Errorf("failed to encode sessions: %w", err)
	}
	if err := m.backend.Put(ctx, db.KeySessions, data); err != nil {
		return fmt.Errorf("failed to save sessions: %w", err)
	}
	return nil
}
