// Package session holds the client-side proof of authentication: the backend
// token and the role it was issued for.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/models"
)

var (
	ErrNotFound  = errors.New("session not found")
	ErrNoSession = errors.New("no active session")
	ErrNoToken   = errors.New("token required")
)

// Store persists sessions by id. The id is the portal cookie value on the
// server and the profile name in the CLI.
type Store interface {
	Save(ctx context.Context, id string, s models.Session) error
	Get(ctx context.Context, id string) (models.Session, error)
	Delete(ctx context.Context, id string) error
}

// Purger is implemented by stores that can drop expired sessions in bulk.
// It returns the ids it removed.
type Purger interface {
	PurgeExpired(ctx context.Context, now time.Time) ([]string, error)
}

type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]models.Session)}
}

func (m *MemoryStore) Save(_ context.Context, id string, s models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = s
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return models.Session{}, ErrNotFound
	}
	return s, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *MemoryStore) PurgeExpired(_ context.Context, now time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id, s := range m.sessions {
		if s.Expired(now) {
			delete(m.sessions, id)
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
