package ticket

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	model "github.com/aurora-press/editorial-assistant/internal/model/ticket"
)

var (
	ErrNotFound          = errors.New("ticket not found")
	ErrInvalidTransition = errors.New("invalid ticket status transition")
	ErrMissingFields     = errors.New("ticket subject and description are required")
)

const (
	idPrefix   = "TCK-"
	idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	idLength   = 6
)

// Store is the single authority over tickets. All mutations go through it and
// are serialized by a mutex, so concurrent sessions never collide on an ID or
// observe a half-applied status change. Callers receive value snapshots.
type Store struct {
	mu          sync.Mutex
	tickets     map[string]model.Ticket
	persistence Persistence
	rng         *rand.Rand
	logger      *zap.Logger
	now         func() time.Time
}

// NewStore builds a store over the given persistence medium, preloading any
// previously saved tickets so IDs stay unique across restarts.
func NewStore(ctx context.Context, persistence Persistence, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		tickets:     make(map[string]model.Ticket),
		persistence: persistence,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:      logger,
		now:         time.Now,
	}

	existing, err := persistence.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load existing tickets: %w", err)
	}
	for _, t := range existing {
		s.tickets[t.ID] = t
	}
	return s, nil
}

// Open creates a fresh ticket with status open and a unique TCK id.
func (s *Store) Open(ctx context.Context, subject, description string) (model.Ticket, error) {
	if subject == "" || description == "" {
		return model.Ticket{}, ErrMissingFields
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := model.Ticket{
		ID:          s.newID(),
		Subject:     subject,
		Description: description,
		Status:      model.StatusOpen,
		CreatedAt:   s.now().UTC(),
	}

	if err := s.persistence.Save(ctx, t); err != nil {
		return model.Ticket{}, fmt.Errorf("persist ticket %s: %w", t.ID, err)
	}
	s.tickets[t.ID] = t

	s.logger.Info("ticket opened", zap.String("ticketId", t.ID), zap.String("subject", t.Subject))
	return t, nil
}

// Advance moves a ticket to the next status, enforcing the forward-only
// transition table. On rejection the stored status is unchanged.
func (s *Store) Advance(ctx context.Context, id string, next model.Status) (model.Ticket, error) {
	if !next.Valid() {
		return model.Ticket{}, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, next)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tickets[id]
	if !ok {
		return model.Ticket{}, ErrNotFound
	}
	if !t.Status.CanTransition(next) {
		return model.Ticket{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, next)
	}

	updated := t
	updated.Status = next
	if err := s.persistence.Save(ctx, updated); err != nil {
		return model.Ticket{}, fmt.Errorf("persist ticket %s: %w", id, err)
	}
	s.tickets[id] = updated

	s.logger.Info("ticket advanced",
		zap.String("ticketId", id),
		zap.String("from", string(t.Status)),
		zap.String("to", string(next)))
	return updated, nil
}

// Get returns a snapshot of a ticket.
func (s *Store) Get(_ context.Context, id string) (model.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tickets[id]
	if !ok {
		return model.Ticket{}, ErrNotFound
	}
	return t, nil
}

// newID generates a TCK-XXXXXX identifier, retrying on collision. The caller
// must hold s.mu.
func (s *Store) newID() string {
	for {
		buf := make([]byte, idLength)
		for i := range buf {
			buf[i] = idAlphabet[s.rng.Intn(len(idAlphabet))]
		}
		id := idPrefix + string(buf)
		if _, taken := s.tickets[id]; !taken {
			return id
		}
	}
}
