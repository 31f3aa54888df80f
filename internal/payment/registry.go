package payment

import (
	"context"
	"sync"
)

// Registry keeps one Flow per session id. Flows live in memory only, so a
// restart or logout drops any in-flight intent.
type Registry struct {
	backend Backend

	mu    sync.Mutex
	flows map[string]*Flow
}

func NewRegistry(backend Backend) *Registry {
	return &Registry{backend: backend, flows: make(map[string]*Flow)}
}

// For returns the flow for sessionID, creating an idle one on first use.
func (r *Registry) For(sessionID string) *Flow {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.flows[sessionID]
	if !ok {
		f = NewFlow(r.backend)
		r.flows[sessionID] = f
	}
	return f
}

// Drop forgets the flow of sessionID. Its signature matches
// session.Manager.OnLogout.
func (r *Registry) Drop(_ context.Context, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.flows, sessionID)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.flows)
}
