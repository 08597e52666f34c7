package order

import "context"

// Store persists orders. Implementations partition by order id and must be
// safe for concurrent use across different orders.
type Store interface {
	// Create stores a new order.
	Create(ctx context.Context, o *Order) error

	// Get retrieves an order by ID.
	Get(ctx context.Context, id string) (*Order, error)

	// GetBySession retrieves the order linked to a session.
	GetBySession(ctx context.Context, sessionID string) (*Order, error)

	// Save replaces the stored order.
	Save(ctx context.Context, o *Order) error

	// Clear empties an order's lines.
	Clear(ctx context.Context, id string) error

	// Finalize marks an order confirmed.
	Finalize(ctx context.Context, id string) error

	// Delete removes an order.
	Delete(ctx context.Context, id string) error
}

// Archiver writes confirmed orders to durable storage.
type Archiver interface {
	Archive(ctx context.Context, o *Order) error
}
