package schedule

import (
	"fmt"
	"sync"
	"time"

	// Embed the IANA database so zone lookups behave the same on every host.
	_ "time/tzdata"
)

// Wall holds wall-clock calendar components. It carries no UTC offset and is
// only meaningful when paired with a zone.
type Wall struct {
	Year   int
	Month  time.Month
	Day    int
	Hour   int
	Minute int
	Second int
}

// wallOf returns the components t displays in its own location.
func wallOf(t time.Time) Wall {
	y, mo, d := t.Date()
	h, mi, s := t.Clock()
	return Wall{Year: y, Month: mo, Day: d, Hour: h, Minute: mi, Second: s}
}

// naive reads w as if it were UTC. Subtracting a zone offset from the result
// yields the instant w denotes in that zone.
func (w Wall) naive() time.Time {
	return time.Date(w.Year, w.Month, w.Day, w.Hour, w.Minute, w.Second, 0, time.UTC)
}

// Date returns the calendar date part of w.
func (w Wall) Date() Date { return Date{Year: w.Year, Month: w.Month, Day: w.Day} }

// Clock returns the hour and minute of w.
func (w Wall) Clock() Clock { return Clock{Hour: w.Hour, Minute: w.Minute} }

func (w Wall) String() string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d", w.Year, int(w.Month), w.Day, w.Hour, w.Minute, w.Second)
}

// Resolution describes how ResolveWall mapped a wall-clock time to an instant.
type Resolution int

const (
	// Exact means the wall-clock time occurs exactly once in the zone.
	Exact Resolution = iota

	// ShiftedForward means the wall-clock time fell in a spring-forward gap
	// and was moved forward by the length of the gap.
	ShiftedForward

	// Ambiguous means the wall-clock time occurs twice because of a
	// fall-back transition; the earlier instant was chosen.
	Ambiguous
)

func (r Resolution) String() string {
	switch r {
	case Exact:
		return "exact"
	case ShiftedForward:
		return "shifted-forward"
	case Ambiguous:
		return "ambiguous"
	default:
		return fmt.Sprintf("Resolution(%d)", int(r))
	}
}

// zones caches loaded locations by identifier. Entries are never mutated
// once stored.
var zones sync.Map

// LoadZone returns the location named by an IANA identifier such as
// "Asia/Kolkata". The empty string and "Local" are rejected: schedules are
// always anchored to an explicit zone, never to the host's.
func LoadZone(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return nil, &TimezoneError{Zone: name}
	}
	if loc, ok := zones.Load(name); ok {
		return loc.(*time.Location), nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, &TimezoneError{Zone: name, Err: err}
	}
	actual, _ := zones.LoadOrStore(name, loc)
	return actual.(*time.Location), nil
}

// IsValidTimezone reports whether name is a recognized IANA identifier.
func IsValidTimezone(name string) bool {
	_, err := LoadZone(name)
	return err == nil
}

// ToUTC returns the instant at which the wall clock in zone shows w.
func ToUTC(w Wall, zone string) (time.Time, error) {
	t, _, err := ResolveWall(w, zone)
	return t, err
}

// ResolveWall is ToUTC that also reports how DST transitions affected the
// result.
func ResolveWall(w Wall, zone string) (time.Time, Resolution, error) {
	loc, err := LoadZone(zone)
	if err != nil {
		return time.Time{}, Exact, err
	}
	t, res := resolve(w, loc)
	return t, res, nil
}

// FromUTC returns the wall-clock components t shows in zone.
func FromUTC(t time.Time, zone string) (Wall, error) {
	loc, err := LoadZone(zone)
	if err != nil {
		return Wall{}, err
	}
	return wallOf(t.In(loc)), nil
}

// OffsetHours returns the zone's UTC offset in effect at the given instant,
// in signed fractional hours (5.5 for Asia/Kolkata). The offset is looked up
// on every call since it moves across DST transitions.
func OffsetHours(zone string, at time.Time) (float64, error) {
	loc, err := LoadZone(zone)
	if err != nil {
		return 0, err
	}
	_, offset := at.In(loc).Zone()
	return float64(offset) / 3600, nil
}

func toUTC(w Wall, loc *time.Location) time.Time {
	t, _ := resolve(w, loc)
	return t
}

// resolve maps w to an instant in loc. time.Date leaves the choice of offset
// unspecified around transitions, so the candidates are checked explicitly.
func resolve(w Wall, loc *time.Location) (time.Time, Resolution) {
	naive := w.naive()
	guess := time.Date(w.Year, w.Month, w.Day, w.Hour, w.Minute, w.Second, 0, loc)

	var (
		best    time.Time
		matches int
	)
	for _, offset := range candidateOffsets(guess) {
		c := naive.Add(-time.Duration(offset) * time.Second)
		if !wallOf(c.In(loc)).naive().Equal(naive) {
			continue
		}
		if matches == 0 || c.Before(best) {
			best = c
		}
		matches++
	}

	switch {
	case matches == 1:
		return best.UTC(), Exact
	case matches > 1:
		return best.UTC(), Ambiguous
	}

	// Spring-forward gap. Reading w with the offset in force before the
	// transition lands after it, w plus the gap length on the new wall clock.
	if wallOf(guess).naive().After(naive) {
		return guess.UTC(), ShiftedForward
	}
	_, before := guess.Zone()
	return naive.Add(-time.Duration(before) * time.Second).UTC(), ShiftedForward
}

// candidateOffsets returns the offset in force at t and the offsets of the
// zone periods on either side of it.
func candidateOffsets(t time.Time) []int {
	_, offset := t.Zone()
	offsets := []int{offset}
	start, end := t.ZoneBounds()
	if !start.IsZero() {
		_, prev := start.Add(-time.Second).In(t.Location()).Zone()
		offsets = appendUnique(offsets, prev)
	}
	if !end.IsZero() {
		_, next := end.In(t.Location()).Zone()
		offsets = appendUnique(offsets, next)
	}
	return offsets
}

func appendUnique(xs []int, x int) []int {
	for _, v := range xs {
		if v == x {
			return xs
		}
	}
	return append(xs, x)
}
