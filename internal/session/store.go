package session

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no session exists for the given identifier.
var ErrNotFound = errors.New("session not found")

// Store is the persistence interface for session records. The in-memory
// implementation is the default; a persistent backend only needs to satisfy
// this interface.
type Store interface {
	// Get returns the record for the given session identifier.
	Get(ctx context.Context, id string) (*Record, error)

	// Set creates or replaces the record keyed by its ID.
	Set(ctx context.Context, rec *Record) error

	// Delete removes the record. Deleting a missing record is not an error.
	Delete(ctx context.Context, id string) error
}
