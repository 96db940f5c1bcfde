package memory

import (
	"context"
	"time"
)

// Store persists memories together with their person, place and link
// relationships.
//
// Every method is a single atomic unit of work: a memory and the
// relationships written with it appear and disappear together. Methods
// taking a userID only see memories owned by that user and report a missing
// or foreign memory as apperrors.ErrMemoryNotFound.
//
// People and places are merged by (userID, name). Links are only created to
// memories that exist and belong to the same user; anything else is dropped
// without an error.
type Store interface {
	// Create persists a normalized memory and returns its new id.
	Create(ctx context.Context, in CreateInput, createdAt time.Time) (string, error)
	// List returns every memory of userID ordered by creation time.
	List(ctx context.Context, userID string) ([]Memory, error)
	// Get returns one memory of userID.
	Get(ctx context.Context, id, userID string) (*Memory, error)
	// Update applies scalar changes and replaces every relation set present in in.
	Update(ctx context.Context, id, userID string, in UpdateInput) error
	// Delete removes the memory and all of its relationships. People and
	// places stay behind even when nothing references them anymore.
	Delete(ctx context.Context, id, userID string) error
	// Ping checks that the backing database is reachable.
	Ping(ctx context.Context) error
	// Close releases the underlying resources.
	Close(ctx context.Context) error
}
