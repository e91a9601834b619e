package story

import (
	"context"
	"errors"
)

// Common errors for store operations.
var (
	// ErrSessionNotFound is returned when a session doesn't exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrStoreClosed is returned when operating on a closed store.
	ErrStoreClosed = errors.New("session store is closed")
)

// Store abstracts the session registry. The registry is shared across all
// concurrent requests, so implementations must be safe for concurrent
// insertion and lookup. Turn-level serialization is the engine's job, not
// the store's.
type Store interface {
	// Create registers a new session.
	Create(ctx context.Context, sess *Session) error

	// Get retrieves a session by ID.
	// Returns ErrSessionNotFound if the session doesn't exist.
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Save persists the mutated session after a turn.
	Save(ctx context.Context, sess *Session) error

	// Delete removes a session.
	// Returns ErrSessionNotFound if the session doesn't exist.
	Delete(ctx context.Context, sessionID string) error

	// List returns all registered sessions.
	List(ctx context.Context) ([]*Session, error)

	// Close releases any resources held by the store.
	Close() error
}
