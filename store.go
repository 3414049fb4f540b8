package schedule

import (
	"context"
	"time"
)

// Store defines the persistence operations for schedule records.
// Any database can implement this interface; see the mongodb and sqlite
// packages.
//
// Implementations must be safe for concurrent use and store the schedule in
// its wire form (see Envelope) so other consumers can read it.
type Store interface {
	// Insert adds a new record. An empty ID is replaced with a generated one.
	Insert(ctx context.Context, rec *Record) error

	// Get returns the record with the given ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*Record, error)

	// List returns all records ordered by creation time.
	List(ctx context.Context) ([]*Record, error)

	// Due returns records whose NextRun is at or before at, earliest first.
	Due(ctx context.Context, at time.Time) ([]*Record, error)

	// Update modifies a record's fields, or returns ErrNotFound.
	Update(ctx context.Context, id string, u RecordUpdate) error

	// Remove deletes a record, or returns ErrNotFound.
	Remove(ctx context.Context, id string) error
}
