package schedule

import (
	"fmt"
	"sort"
	"time"
)

// searchDays bounds the day-by-day scan for the next occurrence. Sparse
// monthly schedules (day 31 only) need at most two months.
const searchDays = 400

// NextRun calculates the first run instant of s strictly after after.
// Returns nil if there is none: a Once whose target has passed.
//
// Each occurrence is converted with the zone's rules for that day, so a
// daily 09:00 stays at 09:00 local time across DST transitions. s should be
// the canonical result of Validate; NextRun returns an error for a spec
// Validate would reject on structural grounds.
func NextRun(s Spec, after time.Time) (*time.Time, error) {
	if s == nil {
		return nil, &ValidationError{Reason: ReasonUnsupportedType}
	}
	loc, err := LoadZone(s.Zone())
	if err != nil {
		return nil, err
	}

	switch v := s.(type) {
	case Once:
		if v.Date == nil || v.Time == nil {
			return nil, &ValidationError{Reason: ReasonMissingDateOrTime}
		}
		at := toUTC(v.Date.At(*v.Time), loc)
		if !at.After(after) {
			return nil, nil
		}
		return &at, nil
	case Daily:
		if len(v.Times) == 0 {
			return nil, &ValidationError{Reason: ReasonNoTimesProvided}
		}
		return scan(after, loc, v.Times, func(Date) bool { return true })
	case Weekly:
		if v.Time == nil {
			return nil, &ValidationError{Reason: ReasonMissingTime}
		}
		days := weekdaySet(v.Weekdays)
		return scan(after, loc, []Clock{*v.Time}, func(d Date) bool { return days[d.Weekday()] })
	case Biweekly:
		if v.Time == nil {
			return nil, &ValidationError{Reason: ReasonMissingTime}
		}
		if v.Anchor == nil {
			return nil, fmt.Errorf("biweekly schedule has no anchor; validate it first")
		}
		days, anchor := weekdaySet(v.Weekdays), *v.Anchor
		return scan(after, loc, []Clock{*v.Time}, func(d Date) bool {
			return days[d.Weekday()] && ActiveWeek(anchor, d)
		})
	case Monthly:
		if v.Time == nil {
			return nil, &ValidationError{Reason: ReasonMissingTime}
		}
		days := make(map[int]bool, len(v.Days))
		for _, d := range v.Days {
			days[d] = true
		}
		return scan(after, loc, []Clock{*v.Time}, func(d Date) bool { return days[d.Day] })
	default:
		return nil, fmt.Errorf("unsupported schedule type %T", s)
	}
}

// Upcoming returns up to n run instants of s after after, in order.
func Upcoming(s Spec, after time.Time, n int) ([]time.Time, error) {
	var runs []time.Time
	for len(runs) < n {
		next, err := NextRun(s, after)
		if err != nil {
			return runs, err
		}
		if next == nil {
			break
		}
		runs = append(runs, *next)
		after = *next
	}
	return runs, nil
}

// scan walks local dates from the day before after, returning the earliest
// instant after after on the first matching date that has one.
func scan(after time.Time, loc *time.Location, times []Clock, match func(Date) bool) (*time.Time, error) {
	ordered := append([]Clock(nil), times...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].minutes() < ordered[j].minutes() })

	start := DateOf(after.In(loc)).AddDays(-1)
	for i := 0; i <= searchDays; i++ {
		d := start.AddDays(i)
		if !match(d) {
			continue
		}
		var best time.Time
		for _, c := range ordered {
			at := toUTC(d.At(c), loc)
			if at.After(after) && (best.IsZero() || at.Before(best)) {
				best = at
			}
		}
		if !best.IsZero() {
			return &best, nil
		}
	}
	return nil, fmt.Errorf("no occurrence within %d days of %s", searchDays, after.Format(time.RFC3339))
}

func weekdaySet(days []int) map[time.Weekday]bool {
	set := make(map[time.Weekday]bool, len(days))
	for _, d := range days {
		set[time.Weekday(d)] = true
	}
	return set
}
