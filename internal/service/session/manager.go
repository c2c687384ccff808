package session

import (
	"sync"

	"github.com/google/uuid"
)

// Manager owns the per-conversation contexts. Independent sessions run in
// parallel; the map itself is the only shared state here.
type Manager struct {
	mu           sync.RWMutex
	contexts     map[string]*Context
	books        TitleChecker
	historyLimit int
}

// NewManager builds a manager whose contexts validate book titles through the
// given checker.
func NewManager(books TitleChecker, historyLimit int) *Manager {
	return &Manager{
		contexts:     make(map[string]*Context),
		books:        books,
		historyLimit: historyLimit,
	}
}

// Start provisions a new session and returns its identifier.
func (m *Manager) Start() string {
	id := uuid.NewString()
	m.mu.Lock()
	m.contexts[id] = newContext(m.books, m.historyLimit)
	m.mu.Unlock()
	return id
}

// Get returns the context for a session, creating it on first use so front
// ends may supply their own session identifiers.
func (m *Manager) Get(sessionID string) *Context {
	m.mu.RLock()
	ctx, ok := m.contexts[sessionID]
	m.mu.RUnlock()
	if ok {
		return ctx
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if ctx, ok := m.contexts[sessionID]; ok {
		return ctx
	}
	ctx = newContext(m.books, m.historyLimit)
	m.contexts[sessionID] = ctx
	return ctx
}

// End destroys a session's context entirely.
func (m *Manager) End(sessionID string) {
	m.mu.Lock()
	delete(m.contexts, sessionID)
	m.mu.Unlock()
}
