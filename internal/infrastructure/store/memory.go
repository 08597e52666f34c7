package store

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/janhq/drivethru-server/internal/domain/order"
	"github.com/janhq/drivethru-server/internal/domain/session"
)

// MemorySessionStore is a mutex-based in-memory session store.
// Thread-safe via sync.RWMutex.
type MemorySessionStore struct {
	mu        sync.RWMutex
	sessions  map[string]*session.Session
	laneIndex map[string]string // lane -> session ID
	log       zerolog.Logger
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore(log zerolog.Logger) *MemorySessionStore {
	return &MemorySessionStore{
		sessions:  make(map[string]*session.Session),
		laneIndex: make(map[string]string),
		log:       log.With().Str("component", "session-store").Logger(),
	}
}

// Create stores a new session and makes it current for its lane.
func (s *MemorySessionStore) Create(ctx context.Context, sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[sess.ID]; exists {
		return session.ErrSessionAlreadyExists
	}
	s.sessions[sess.ID] = sess
	s.laneIndex[sess.LaneID] = sess.ID
	return nil
}

// Get retrieves a session by ID.
func (s *MemorySessionStore) Get(ctx context.Context, id string) (*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	return sess, nil
}

// GetByLane retrieves the current session of a lane.
func (s *MemorySessionStore) GetByLane(ctx context.Context, laneID string) (*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.laneIndex[laneID]
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	sess, ok := s.sessions[id]
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	return sess, nil
}

// Save replaces a stored session.
func (s *MemorySessionStore) Save(ctx context.Context, sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sess.ID]; !ok {
		return session.ErrSessionNotFound
	}
	s.sessions[sess.ID] = sess
	return nil
}

// Delete removes a session by ID.
func (s *MemorySessionStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return session.ErrSessionNotFound
	}
	if s.laneIndex[sess.LaneID] == id {
		delete(s.laneIndex, sess.LaneID)
	}
	delete(s.sessions, id)
	return nil
}

// List returns all sessions.
func (s *MemorySessionStore) List(ctx context.Context) ([]*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*session.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		result = append(result, sess)
	}
	return result, nil
}

// MemoryOrderStore is an in-memory order store. Orders are copied on the
// way in and out so callers never share state with the store.
type MemoryOrderStore struct {
	mu           sync.RWMutex
	orders       map[string]*order.Order
	sessionIndex map[string]string // session -> order ID
	log          zerolog.Logger
}

// NewMemoryOrderStore creates a new in-memory order store.
func NewMemoryOrderStore(log zerolog.Logger) *MemoryOrderStore {
	return &MemoryOrderStore{
		orders:       make(map[string]*order.Order),
		sessionIndex: make(map[string]string),
		log:          log.With().Str("component", "order-store").Logger(),
	}
}

// Create stores a new order.
func (s *MemoryOrderStore) Create(ctx context.Context, o *order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders[o.ID] = o.Clone()
	s.sessionIndex[o.SessionID] = o.ID
	return nil
}

// Get retrieves an order by ID.
func (s *MemoryOrderStore) Get(ctx context.Context, id string) (*order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	return o.Clone(), nil
}

// GetBySession retrieves the order linked to a session.
func (s *MemoryOrderStore) GetBySession(ctx context.Context, sessionID string) (*order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.sessionIndex[sessionID]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	o, ok := s.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	return o.Clone(), nil
}

// Save replaces the stored order.
func (s *MemoryOrderStore) Save(ctx context.Context, o *order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[o.ID]; !ok {
		return order.ErrOrderNotFound
	}
	s.orders[o.ID] = o.Clone()
	return nil
}

// Clear empties an order's lines.
func (s *MemoryOrderStore) Clear(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return order.ErrOrderNotFound
	}
	o.Clear()
	return nil
}

// Finalize marks an order confirmed.
func (s *MemoryOrderStore) Finalize(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return order.ErrOrderNotFound
	}
	o.Status = order.StatusConfirmed
	return nil
}

// Delete removes an order.
func (s *MemoryOrderStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return order.ErrOrderNotFound
	}
	if s.sessionIndex[o.SessionID] == id {
		delete(s.sessionIndex, o.SessionID)
	}
	delete(s.orders, id)
	return nil
}

var (
	_ session.Store = (*MemorySessionStore)(nil)
	_ order.Store   = (*MemoryOrderStore)(nil)
)
