package schedule

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"
)

// MockStore is a simple in-memory store for testing
type MockStore struct {
	mu      sync.Mutex
	records map[string]*Record
}

func NewMockStore() *MockStore {
	return &MockStore{
		records: make(map[string]*Record),
	}
}

func (s *MockStore) Insert(ctx context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[rec.ID]; ok {
		return errors.New("duplicate id")
	}
	cp := *rec
	s.records[rec.ID] = &cp
	return nil
}

func (s *MockStore) Get(ctx context.Context, id string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *MockStore) List(ctx context.Context) ([]*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*Record
	for _, rec := range s.records {
		cp := *rec
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MockStore) Due(ctx context.Context, at time.Time) ([]*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*Record
	for _, rec := range s.records {
		if rec.NextRun == nil || rec.NextRun.After(at) {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NextRun.Before(*out[j].NextRun) })
	return out, nil
}

func (s *MockStore) Update(ctx context.Context, id string, u RecordUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	updated := u.Apply(*rec)
	s.records[id] = &updated
	return nil
}

func (s *MockStore) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return ErrNotFound
	}
	delete(s.records, id)
	return nil
}

var _ Store = (*MockStore)(nil)

func TestNewRecord(t *testing.T) {
	now := mustTime(t, "2026-03-01T12:00:00Z")

	t.Run("computes first run and canonical spec", func(t *testing.T) {
		rec, err := NewRecord(Weekly{Weekdays: []int{3, 3}, Time: clockPtr("09:00"), Timezone: "UTC"}, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.ID == "" {
			t.Error("expected generated ID")
		}
		if w := rec.Spec.(Weekly); len(w.Weekdays) != 1 {
			t.Errorf("expected deduplicated weekdays, got %v", w.Weekdays)
		}
		if rec.NextRun == nil || !rec.NextRun.Equal(mustTime(t, "2026-03-04T09:00:00Z")) {
			t.Errorf("expected next run 2026-03-04T09:00:00Z, got %v", rec.NextRun)
		}
		if !rec.CreatedAt.Equal(now) {
			t.Errorf("expected created at %s, got %s", now, rec.CreatedAt)
		}
	})

	t.Run("invalid spec returns validation error", func(t *testing.T) {
		_, err := NewRecord(Daily{Timezone: "UTC"}, now)
		if !errors.Is(err, &ValidationError{Reason: ReasonNoTimesProvided}) {
			t.Errorf("expected NoTimesProvided, got %v", err)
		}
	})

	t.Run("ids are unique", func(t *testing.T) {
		a, _ := NewRecord(Daily{Times: []Clock{{9, 0}}, Timezone: "UTC"}, now)
		b, _ := NewRecord(Daily{Times: []Clock{{9, 0}}, Timezone: "UTC"}, now)
		if a.ID == b.ID {
			t.Error("expected distinct IDs")
		}
	})
}

func TestAdvance(t *testing.T) {
	now := mustTime(t, "2026-03-01T12:00:00Z")

	t.Run("recurring moves to next occurrence", func(t *testing.T) {
		rec, _ := NewRecord(Daily{Times: []Clock{{9, 0}}, Timezone: "UTC"}, now)
		u, err := Advance(rec, *rec.NextRun)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got := u.Apply(*rec)
		if got.NextRun == nil || !got.NextRun.Equal(mustTime(t, "2026-03-03T09:00:00Z")) {
			t.Errorf("expected 2026-03-03T09:00:00Z, got %v", got.NextRun)
		}
	})

	t.Run("late firing skips missed occurrences", func(t *testing.T) {
		rec, _ := NewRecord(Daily{Times: []Clock{{9, 0}}, Timezone: "UTC"}, now)
		u, err := Advance(rec, mustTime(t, "2026-03-05T10:00:00Z"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if next := *u.NextRun; next == nil || !next.Equal(mustTime(t, "2026-03-06T09:00:00Z")) {
			t.Errorf("expected 2026-03-06T09:00:00Z, got %v", next)
		}
	})

	t.Run("early firing still advances past the scheduled run", func(t *testing.T) {
		rec, _ := NewRecord(Daily{Times: []Clock{{9, 0}}, Timezone: "UTC"}, now)
		u, _ := Advance(rec, rec.NextRun.Add(-time.Second))
		if next := *u.NextRun; next == nil || !next.Equal(mustTime(t, "2026-03-03T09:00:00Z")) {
			t.Errorf("expected 2026-03-03T09:00:00Z, got %v", next)
		}
	})

	t.Run("once clears next run", func(t *testing.T) {
		rec, _ := NewRecord(Once{Date: datePtr("2026-03-02"), Time: clockPtr("09:00"), Timezone: "UTC"}, now)
		u, err := Advance(rec, *rec.NextRun)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if u.NextRun == nil || *u.NextRun != nil {
			t.Errorf("expected update clearing next run, got %v", u.NextRun)
		}
	})
}

func TestRecordUpdate_Apply(t *testing.T) {
	at := mustTime(t, "2026-03-01T12:00:00Z")
	rec := Record{ID: "x", NextRun: &at}

	if got := (RecordUpdate{}).Apply(rec); got.NextRun != &at {
		t.Error("empty update must leave next run alone")
	}
	if got := NewRecordUpdate(nil).Apply(rec); got.NextRun != nil {
		t.Error("expected next run cleared")
	}
}

// Drives a store the way a dispatcher would: poll Due, run, Advance.
func TestDispatchCycle(t *testing.T) {
	ctx := context.Background()
	store := NewMockStore()
	now := mustTime(t, "2026-03-06T12:00:00Z")

	specs := []Spec{
		Daily{Times: []Clock{{9, 0}}, Timezone: "America/New_York"},
		Once{Date: datePtr("2026-03-07"), Time: clockPtr("10:00"), Timezone: "UTC"},
		Biweekly{Weekdays: []int{6}, Time: clockPtr("08:00"), Timezone: "UTC", Anchor: datePtr("2026-03-07")},
	}
	for _, s := range specs {
		rec, err := NewRecord(s, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := store.Insert(ctx, rec); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	fired := map[Kind][]string{}
	for clock := now; clock.Before(now.Add(16 * 24 * time.Hour)); clock = clock.Add(time.Hour) {
		due, err := store.Due(ctx, clock)
		if err != nil {
			t.Fatalf("due: %v", err)
		}
		for _, rec := range due {
			fired[rec.Spec.Kind()] = append(fired[rec.Spec.Kind()], rec.NextRun.UTC().Format(time.RFC3339))
			u, err := Advance(rec, clock)
			if err != nil {
				t.Fatalf("advance: %v", err)
			}
			if err := store.Update(ctx, rec.ID, u); err != nil {
				t.Fatalf("update: %v", err)
			}
		}
	}

	if got := fired[KindOnce]; len(got) != 1 || got[0] != "2026-03-07T10:00:00Z" {
		t.Errorf("once fired %v", got)
	}
	if got := fired[KindBiweekly]; len(got) != 2 || got[0] != "2026-03-07T08:00:00Z" || got[1] != "2026-03-21T08:00:00Z" {
		t.Errorf("biweekly fired %v", got)
	}
	daily := fired[KindDaily]
	if len(daily) != 16 {
		t.Fatalf("expected 16 daily runs, got %d: %v", len(daily), daily)
	}
	if daily[0] != "2026-03-06T14:00:00Z" || daily[2] != "2026-03-08T13:00:00Z" {
		t.Errorf("daily runs did not follow DST: %v", daily[:3])
	}

	recs, _ := store.List(ctx)
	for _, rec := range recs {
		if rec.Spec.Kind() == KindOnce && rec.NextRun != nil {
			t.Errorf("expected finished once to have no next run, got %v", rec.NextRun)
		}
	}
}
