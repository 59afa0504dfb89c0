package chat

import (
	"context"
	"sync"

	"github.com/easeaico/sketch-friends/internal/llm"
	"github.com/easeaico/sketch-friends/internal/store"
)

// Manager hands out the single active session. Requesting a different
// character than the active one discards the old session entirely, so
// turn count and the ended flag reset even mid-session.
type Manager struct {
	provider llm.Provider
	store    store.Store

	mu        sync.Mutex
	current   *Session
	currentID string
}

// NewManager creates a Manager with no active session.
func NewManager(provider llm.Provider, st store.Store) *Manager {
	return &Manager{provider: provider, store: st}
}

// Session returns the active session for characterID, creating a fresh
// one when none is active or a different character was targeted.
func (m *Manager) Session(ctx context.Context, characterID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil && m.currentID == characterID {
		return m.current, nil
	}

	session, err := NewSession(ctx, m.provider, m.store, characterID)
	if err != nil {
		return nil, err
	}
	m.current = session
	m.currentID = characterID
	return session, nil
}

// Reset drops the active session, e.g. on navigation away.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = nil
	m.currentID = ""
}
