package ticket

import (
	"context"
	"sync"

	model "github.com/aurora-press/editorial-assistant/internal/model/ticket"
)

// Persistence is the port to whatever medium keeps tickets. The store's
// contract does not depend on the medium; memory and sqlite implementations
// are provided.
type Persistence interface {
	Save(ctx context.Context, t model.Ticket) error
	Load(ctx context.Context, id string) (model.Ticket, error)
	List(ctx context.Context) ([]model.Ticket, error)
	Close() error
}

// MemoryPersistence keeps tickets for the lifetime of the process. Default
// for the CLI and for tests.
type MemoryPersistence struct {
	mu      sync.RWMutex
	tickets map[string]model.Ticket
}

// NewMemoryPersistence returns an empty in-memory medium.
func NewMemoryPersistence() *MemoryPersistence {
	return &MemoryPersistence{tickets: make(map[string]model.Ticket)}
}

func (m *MemoryPersistence) Save(_ context.Context, t model.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickets[t.ID] = t
	return nil
}

func (m *MemoryPersistence) Load(_ context.Context, id string) (model.Ticket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tickets[id]
	if !ok {
		return model.Ticket{}, ErrNotFound
	}
	return t, nil
}

func (m *MemoryPersistence) List(_ context.Context) ([]model.Ticket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Ticket, 0, len(m.tickets))
	for _, t := range m.tickets {
		out = append(out, t)
	}
	return out, nil
}

func (m *MemoryPersistence) Close() error { return nil }
