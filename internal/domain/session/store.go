package session

import "context"

// Store defines the interface for session storage. Stores keep a lane
// index so each lane has at most one current session.
type Store interface {
	// Create stores a new session.
	Create(ctx context.Context, s *Session) error

	// Get retrieves a session by ID.
	Get(ctx context.Context, id string) (*Session, error)

	// GetByLane retrieves the current session of a lane.
	GetByLane(ctx context.Context, laneID string) (*Session, error)

	// Save replaces a stored session.
	Save(ctx context.Context, s *Session) error

	// Delete removes a session by ID.
	Delete(ctx context.Context, id string) error

	// List returns all sessions (for idle reaping).
	List(ctx context.Context) ([]*Session, error)
}
