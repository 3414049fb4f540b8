package schedule

import (
	"time"

	"github.com/google/uuid"
)

// Record is a validated schedule as kept by a Store and read by a dispatcher.
type Record struct {
	// ID is the unique identifier for the record.
	ID string

	// Spec is the canonical schedule, as returned by Validate.
	Spec Spec

	// NextRun is the next instant the schedule is due.
	// - nil means the schedule has run for the last time (a fired Once)
	// - Past instants mean the schedule is due now
	NextRun *time.Time

	// CreatedAt is the "now" the record was validated against.
	CreatedAt time.Time
}

// RecordUpdate represents fields that can be updated on a record.
type RecordUpdate struct {
	// NextRun updates the record's next run instant.
	// Use a pointer to *time.Time to distinguish between:
	// - nil: don't update this field
	// - pointer to nil time: clear next_run (schedule finished)
	// - pointer to valid time: set next_run to that time
	NextRun **time.Time
}

// NewRecordUpdate creates a RecordUpdate that sets NextRun to the given time.
func NewRecordUpdate(next *time.Time) RecordUpdate {
	return RecordUpdate{NextRun: &next}
}

// NewRecord validates s against now and returns a record with a fresh ID
// and its first run instant.
func NewRecord(s Spec, now time.Time) (*Record, error) {
	canonical, err := Validate(s, now)
	if err != nil {
		return nil, err
	}
	next, err := NextRun(canonical, now)
	if err != nil {
		return nil, err
	}
	return &Record{
		ID:        uuid.NewString(),
		Spec:      canonical,
		NextRun:   next,
		CreatedAt: now.UTC(),
	}, nil
}

// Advance returns the update a dispatcher applies after running rec at
// firedAt. The next instant is recomputed from the schedule's zone rather
// than by adding a fixed period, so DST transitions are honoured.
func Advance(rec *Record, firedAt time.Time) (RecordUpdate, error) {
	after := firedAt
	if rec.NextRun != nil && rec.NextRun.After(after) {
		after = *rec.NextRun
	}
	next, err := NextRun(rec.Spec, after)
	if err != nil {
		return RecordUpdate{}, err
	}
	return NewRecordUpdate(next), nil
}

// Apply returns a copy of rec with u applied.
func (u RecordUpdate) Apply(rec Record) Record {
	if u.NextRun != nil {
		rec.NextRun = *u.NextRun
	}
	return rec
}
