package schedule

import (
	"testing"
	"time"
)

func formatRuns(runs []time.Time) []string {
	out := make([]string, len(runs))
	for i, r := range runs {
		out[i] = r.UTC().Format(time.RFC3339)
	}
	return out
}

func expectRuns(t *testing.T, s Spec, after string, want ...string) {
	t.Helper()
	runs, err := Upcoming(s, mustTime(t, after), len(want))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := formatRuns(runs)
	if len(got) != len(want) {
		t.Fatalf("expected %d runs, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("run %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestNextRun_Once(t *testing.T) {
	s := Once{Date: datePtr("2026-03-08"), Time: clockPtr("09:30"), Timezone: "Asia/Kolkata"}

	next, err := NextRun(s, mustTime(t, "2026-03-01T00:00:00Z"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next == nil || !next.Equal(mustTime(t, "2026-03-08T04:00:00Z")) {
		t.Errorf("expected 2026-03-08T04:00:00Z, got %v", next)
	}

	next, err = NextRun(s, mustTime(t, "2026-03-08T04:00:00Z"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next != nil {
		t.Errorf("expected nil once the run has passed, got %v", next)
	}

	expectRuns(t, s, "2026-03-01T00:00:00Z", "2026-03-08T04:00:00Z")
}

func TestNextRun_DailyKeepsWallClockAcrossDST(t *testing.T) {
	s := Daily{Times: []Clock{{9, 0}}, Timezone: "America/New_York"}
	expectRuns(t, s, "2026-03-06T12:00:00Z",
		"2026-03-06T14:00:00Z",
		"2026-03-07T14:00:00Z",
		"2026-03-08T13:00:00Z",
		"2026-03-09T13:00:00Z",
	)
	expectRuns(t, s, "2026-10-31T12:00:00Z",
		"2026-10-31T13:00:00Z",
		"2026-11-01T14:00:00Z",
	)
}

func TestNextRun_DailyMultipleTimes(t *testing.T) {
	// Listed out of order; runs come out in time order.
	s := Daily{Times: []Clock{{17, 0}, {9, 0}}, Timezone: "UTC"}
	expectRuns(t, s, "2026-03-01T10:00:00Z",
		"2026-03-01T17:00:00Z",
		"2026-03-02T09:00:00Z",
		"2026-03-02T17:00:00Z",
	)
}

func TestNextRun_DailyInGap(t *testing.T) {
	s := Daily{Times: []Clock{{2, 30}}, Timezone: "America/New_York"}
	expectRuns(t, s, "2026-03-07T12:00:00Z",
		"2026-03-08T07:30:00Z", // 03:30 EDT
		"2026-03-09T06:30:00Z",
	)
}

func TestNextRun_DailyAcrossZoneDateLine(t *testing.T) {
	// 23:30 UTC on Mar 1 is 08:30 on Mar 2 in Tokyo.
	s := Daily{Times: []Clock{{9, 0}}, Timezone: "Asia/Tokyo"}
	expectRuns(t, s, "2026-03-01T23:30:00Z", "2026-03-02T00:00:00Z")
}

func TestNextRun_Weekly(t *testing.T) {
	// 2026-03-02 is a Monday.
	s := Weekly{Weekdays: []int{1, 3}, Time: clockPtr("09:00"), Timezone: "UTC"}
	expectRuns(t, s, "2026-03-02T09:00:00Z",
		"2026-03-04T09:00:00Z",
		"2026-03-09T09:00:00Z",
		"2026-03-11T09:00:00Z",
	)
}

func TestNextRun_Biweekly(t *testing.T) {
	// Anchor Monday 2026-03-02: weeks starting Mar 2 and Mar 16 are active.
	s := Biweekly{Weekdays: []int{1, 5}, Time: clockPtr("10:00"), Timezone: "UTC", Anchor: datePtr("2026-03-02")}
	expectRuns(t, s, "2026-03-01T00:00:00Z",
		"2026-03-02T10:00:00Z",
		"2026-03-06T10:00:00Z",
		"2026-03-16T10:00:00Z",
		"2026-03-20T10:00:00Z",
		"2026-03-30T10:00:00Z",
	)

	if _, err := NextRun(Biweekly{Weekdays: []int{1}, Time: clockPtr("10:00"), Timezone: "UTC"}, time.Now()); err == nil {
		t.Error("expected error for biweekly without anchor")
	}
}

func TestNextRun_MonthlySkipsShortMonths(t *testing.T) {
	s := Monthly{Days: []int{31}, Time: clockPtr("12:00"), Timezone: "UTC"}
	expectRuns(t, s, "2026-01-31T12:00:00Z",
		"2026-03-31T12:00:00Z",
		"2026-05-31T12:00:00Z",
		"2026-07-31T12:00:00Z",
		"2026-08-31T12:00:00Z",
	)

	leap := Monthly{Days: []int{29}, Time: clockPtr("00:00"), Timezone: "UTC"}
	expectRuns(t, leap, "2027-01-30T00:00:00Z", "2027-03-29T00:00:00Z")
	expectRuns(t, leap, "2028-01-30T00:00:00Z", "2028-02-29T00:00:00Z")
}

func TestNextRun_Errors(t *testing.T) {
	now := time.Now()
	specs := map[string]Spec{
		"nil":          nil,
		"bad zone":     Daily{Times: []Clock{{9, 0}}, Timezone: "Nowhere"},
		"no times":     Daily{Timezone: "UTC"},
		"weekly time":  Weekly{Weekdays: []int{1}, Timezone: "UTC"},
		"monthly time": Monthly{Days: []int{1}, Timezone: "UTC"},
		"once date":    Once{Time: clockPtr("09:00"), Timezone: "UTC"},
	}
	for name, s := range specs {
		if _, err := NextRun(s, now); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestActiveWeek(t *testing.T) {
	anchor := MustDate("2026-03-04") // Wednesday
	tests := []struct {
		date string
		want bool
	}{
		{"2026-03-04", true},
		{"2026-03-10", true},
		{"2026-03-11", false},
		{"2026-03-17", false},
		{"2026-03-18", true},
		{"2026-03-03", false}, // day before the anchor: floor(-1/7) = -1
		{"2026-02-25", false},
		{"2026-02-24", true},
		{"2026-02-18", true},
	}
	for _, tt := range tests {
		if got := ActiveWeek(anchor, MustDate(tt.date)); got != tt.want {
			t.Errorf("%s: expected %t, got %t", tt.date, tt.want, got)
		}
	}

	if d := DaysBetween(MustDate("2026-03-10"), MustDate("2026-03-01")); d != -9 {
		t.Errorf("expected -9 days, got %d", d)
	}
}
