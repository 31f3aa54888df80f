package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/models"
)

// Manager owns the session lifecycle on top of a Store: created by Login,
// read by every guarded request, destroyed by Logout.
type Manager struct {
	store Store
	ttl   time.Duration
	now   func() time.Time

	mu       sync.RWMutex
	onLogout []func(ctx context.Context, id string)
}

// NewManager returns a Manager. ttl bounds sessions whose token carries no
// exp claim; zero means such sessions live until logout.
func NewManager(store Store, ttl time.Duration) *Manager {
	return &Manager{store: store, ttl: ttl, now: time.Now}
}

// OnLogout registers a callback run whenever a session id is logged out.
func (m *Manager) OnLogout(fn func(ctx context.Context, id string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onLogout = append(m.onLogout, fn)
}

// Login stores token and role under id. Calling it again with the same
// arguments leaves a single identical session.
func (m *Manager) Login(ctx context.Context, id, token string, role models.Role) (models.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return models.Session{}, ErrNoToken
	}
	if !role.Valid() {
		return models.Session{}, models.ErrUnknownRole
	}
	now := m.now()
	s := models.Session{Token: token, Role: role}
	if exp, ok := TokenExpiry(token); ok {
		s.ExpiresAt = exp
	} else if m.ttl > 0 {
		s.ExpiresAt = now.Add(m.ttl)
	}
	if s.Expired(now) {
		return models.Session{}, ErrNoSession
	}
	if err := m.store.Save(ctx, id, s); err != nil {
		return models.Session{}, fmt.Errorf("save session: %w", err)
	}
	slog.DebugContext(ctx, "session stored", "role", role, "expires_at", s.ExpiresAt)
	return s, nil
}

// Get returns the live session for id. Missing and expired sessions both
// yield ErrNoSession.
func (m *Manager) Get(ctx context.Context, id string) (models.Session, error) {
	if id == "" {
		return models.Session{}, ErrNoSession
	}
	s, err := m.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.Session{}, ErrNoSession
		}
		return models.Session{}, fmt.Errorf("load session: %w", err)
	}
	if s.Expired(m.now()) {
		_ = m.Logout(ctx, id)
		return models.Session{}, ErrNoSession
	}
	return s, nil
}

// PurgeExpired removes every expired session from stores that support bulk
// removal and runs the logout hooks for each removed id.
func (m *Manager) PurgeExpired(ctx context.Context) (int, error) {
	p, ok := m.store.(Purger)
	if !ok {
		return 0, nil
	}
	ids, err := p.PurgeExpired(ctx, m.now())
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	hooks := m.hooks()
	for _, id := range ids {
		for _, fn := range hooks {
			fn(ctx, id)
		}
	}
	return len(ids), nil
}

func (m *Manager) hooks() []func(context.Context, string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]func(context.Context, string){}, m.onLogout...)
}

// Logout clears everything tied to id. Hooks run even when the store fails.
func (m *Manager) Logout(ctx context.Context, id string) error {
	var err error
	if id != "" {
		if derr := m.store.Delete(ctx, id); derr != nil {
			slog.ErrorContext(ctx, "session delete failed", "err", derr)
			err = fmt.Errorf("delete session: %w", derr)
		}
	}
	for _, fn := range m.hooks() {
		fn(ctx, id)
	}
	return err
}
