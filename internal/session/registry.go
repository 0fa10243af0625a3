package session

import (
	"context"
	"sync"

	"github.com/onlyformurshi/zameel-admin-gateway/internal/logger"
	"github.com/onlyformurshi/zameel-admin-gateway/internal/tokenstore"
)

// StoreFactory builds a token store scoped to a visitor namespace.
type StoreFactory func(namespace string) tokenstore.Store

// Registry hands out one Manager per visitor session. Managers are
// created on demand; a manager rebuilt after a process restart
// re-derives its state from the durable token store, so nothing is
// lost with the process.
type Registry struct {
	mu        sync.Mutex
	managers  map[string]*Manager
	newStore  StoreFactory
	gw        Gateway
	loginPath string
}

func NewRegistry(newStore StoreFactory, gw Gateway, loginPath string) *Registry {
	return &Registry{
		managers:  make(map[string]*Manager),
		newStore:  newStore,
		gw:        gw,
		loginPath: loginPath,
	}
}

// Get returns the manager for the given visitor session, creating it
// if needed.
func (r *Registry) Get(sessionID string) *Manager {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.managers[sessionID]; ok {
		return m
	}

	m := NewManager(r.newStore(sessionID), r.gw, r.loginPath)
	r.managers[sessionID] = m
	return m
}

// Drop discards the in-memory manager for a visitor session. Called
// after logout; durable state is already cleared by then.
func (r *Registry) Drop(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.managers, sessionID)
}

// Discard retires a session ID: durable session material is wiped
// and the in-memory manager forgotten. Purely local, nothing is sent
// to the backend.
func (r *Registry) Discard(ctx context.Context, sessionID string) {
	r.mu.Lock()
	m, ok := r.managers[sessionID]
	delete(r.managers, sessionID)
	r.mu.Unlock()

	store := r.newStore(sessionID)
	if ok {
		store = m.store
	}
	if err := store.ClearAll(ctx); err != nil {
		logger.Warn("failed to clear discarded session", map[string]any{
			"error": err.Error(),
		})
	}
}

// Len reports how many managers are live.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.managers)
}
