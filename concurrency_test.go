package schedule

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// TestConcurrentEvaluation checks that validation, next-run computation and
// previews give the same answers when many goroutines share the zone cache.
func TestConcurrentEvaluation(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping concurrency test in short mode")
	}

	const (
		numWorkers = 50
		numRounds  = 200
	)

	zones := []string{"UTC", "Asia/Kolkata", "America/New_York", "Europe/London", "Australia/Lord_Howe", "Pacific/Chatham"}
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	var specs []Spec
	for _, z := range zones {
		specs = append(specs,
			Daily{Times: []Clock{{2, 30}, {9, 0}}, Timezone: z},
			Weekly{Weekdays: []int{0, 3}, Time: clockPtr("01:30"), Timezone: z},
			Biweekly{Weekdays: []int{5}, Time: clockPtr("23:00"), Timezone: z, Anchor: datePtr("2026-03-06")},
			Monthly{Days: []int{29, 31}, Time: clockPtr("12:00"), Timezone: z},
		)
	}

	// Sequential answers to compare against.
	type result struct {
		preview string
		runs    string
	}
	want := make([]result, len(specs))
	for i, s := range specs {
		runs, err := Upcoming(s, now, 10)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", Preview(s), err)
		}
		want[i] = result{preview: Preview(s), runs: fmt.Sprint(formatRuns(runs))}
	}

	var (
		wg         sync.WaitGroup
		mismatches atomic.Int64
	)
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for r := 0; r < numRounds; r++ {
				i := (worker + r) % len(specs)
				canonical, err := Validate(specs[i], now)
				if err != nil {
					mismatches.Add(1)
					continue
				}
				runs, err := Upcoming(canonical, now, 10)
				if err != nil {
					mismatches.Add(1)
					continue
				}
				got := result{preview: Preview(canonical), runs: fmt.Sprint(formatRuns(runs))}
				if got != want[i] {
					mismatches.Add(1)
				}
			}
		}(w)
	}
	wg.Wait()

	if n := mismatches.Load(); n != 0 {
		t.Errorf("expected identical results across goroutines, got %d mismatches", n)
	}
}

// TestConcurrentDispatchers runs several pollers against one store. Each
// record is owned by exactly one poller, so every occurrence must fire
// exactly once.
func TestConcurrentDispatchers(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping concurrency test in short mode")
	}

	const (
		numDispatchers = 8
		numRecords     = 400
		days           = 3
	)

	ctx := context.Background()
	store := NewMockStore()
	start := time.Date(2026, time.March, 7, 0, 0, 0, 0, time.UTC)

	var ids []string
	for i := 0; i < numRecords; i++ {
		s := Daily{Times: []Clock{{i % 24, i % 60}}, Timezone: "America/New_York"}
		rec, err := NewRecord(s, start)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := store.Insert(ctx, rec); err != nil {
			t.Fatalf("insert: %v", err)
		}
		ids = append(ids, rec.ID)
	}
	owner := make(map[string]int, len(ids))
	for i, id := range ids {
		owner[id] = i % numDispatchers
	}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		fires = make(map[string]map[time.Time]int)
	)
	for d := 0; d < numDispatchers; d++ {
		wg.Add(1)
		go func(dispatcher int) {
			defer wg.Done()
			for clock := start; clock.Before(start.Add(days*24*time.Hour)); clock = clock.Add(time.Minute) {
				due, err := store.Due(ctx, clock)
				if err != nil {
					t.Errorf("due: %v", err)
					return
				}
				for _, rec := range due {
					if owner[rec.ID] != dispatcher {
						continue
					}
					mu.Lock()
					if fires[rec.ID] == nil {
						fires[rec.ID] = make(map[time.Time]int)
					}
					fires[rec.ID][*rec.NextRun]++
					mu.Unlock()

					u, err := Advance(rec, clock)
					if err != nil {
						t.Errorf("advance: %v", err)
						return
					}
					if err := store.Update(ctx, rec.ID, u); err != nil {
						t.Errorf("update: %v", err)
						return
					}
				}
			}
		}(d)
	}
	wg.Wait()

	end := start.Add(days * 24 * time.Hour)
	for _, id := range ids {
		rec, err := store.Get(ctx, id)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		want := 0
		for next, _ := NextRun(rec.Spec, start); next != nil && next.Before(end); next, _ = NextRun(rec.Spec, *next) {
			want++
		}

		runs := fires[id]
		if len(runs) != want {
			t.Errorf("record %s: expected %d distinct runs, got %d", id, want, len(runs))
		}
		for at, n := range runs {
			if n != 1 {
				t.Errorf("record %s: run at %s fired %d times", id, at, n)
			}
		}
	}
}
