package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Kind names a schedule variant. The values double as the "schedule_type"
// field of the wire format.
type Kind string

const (
	KindOnce     Kind = "once"
	KindDaily    Kind = "daily"
	KindWeekly   Kind = "weekly"
	KindBiweekly Kind = "biweekly"
	KindMonthly  Kind = "monthly"
)

// Spec is a schedule description. The set of implementations is closed:
// Once, Daily, Weekly, Biweekly and Monthly. Consumers switch on the
// concrete type.
type Spec interface {
	Kind() Kind

	// Zone returns the IANA identifier the schedule's wall-clock times are
	// expressed in.
	Zone() string

	isSpec()
}

// Once runs a single time at Date and Time in Timezone.
type Once struct {
	Date     *Date
	Time     *Clock
	Timezone string
}

// Daily runs every day at each of Times, in the order given.
type Daily struct {
	Times    []Clock
	Timezone string
}

// Weekly runs at Time on each of Weekdays, where 0 is Sunday and 6 is
// Saturday.
type Weekly struct {
	Weekdays []int
	Time     *Clock
	Timezone string
}

// Biweekly runs like Weekly but only in every other week. Anchor fixes
// which weeks are active: see ActiveWeek.
type Biweekly struct {
	Weekdays []int
	Time     *Clock
	Timezone string
	Anchor   *Date
}

// Monthly runs at Time on each of Days (1-31) of every month. Months that
// lack a listed day are skipped for that day.
type Monthly struct {
	Days     []int
	Time     *Clock
	Timezone string
}

func (Once) Kind() Kind     { return KindOnce }
func (Daily) Kind() Kind    { return KindDaily }
func (Weekly) Kind() Kind   { return KindWeekly }
func (Biweekly) Kind() Kind { return KindBiweekly }
func (Monthly) Kind() Kind  { return KindMonthly }

func (s Once) Zone() string     { return s.Timezone }
func (s Daily) Zone() string    { return s.Timezone }
func (s Weekly) Zone() string   { return s.Timezone }
func (s Biweekly) Zone() string { return s.Timezone }
func (s Monthly) Zone() string  { return s.Timezone }

func (Once) isSpec()     {}
func (Daily) isSpec()    {}
func (Weekly) isSpec()   {}
func (Biweekly) isSpec() {}
func (Monthly) isSpec()  {}

// Clock is a wall-clock time of day with minute precision.
type Clock struct {
	Hour   int
	Minute int
}

var reClock = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

// ParseClock parses "HH:MM" (or "H:MM") in 24-hour form.
func ParseClock(s string) (Clock, error) {
	m := reClock.FindStringSubmatch(s)
	if m == nil {
		return Clock{}, &ParseError{Input: s, Reason: "want HH:MM"}
	}
	h, _ := strconv.Atoi(m[1])
	mi, _ := strconv.Atoi(m[2])
	c := Clock{Hour: h, Minute: mi}
	if !c.Valid() {
		return Clock{}, &ParseError{Input: s, Reason: "time of day out of range"}
	}
	return c, nil
}

// MustClock is ParseClock for literals known to be valid.
func MustClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Valid reports whether 0 <= Hour < 24 and 0 <= Minute < 60.
func (c Clock) Valid() bool {
	return c.Hour >= 0 && c.Hour < 24 && c.Minute >= 0 && c.Minute < 60
}

func (c Clock) String() string { return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute) }

func (c Clock) minutes() int { return c.Hour*60 + c.Minute }

// Date is a calendar date with no time of day and no zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses a "YYYY-MM-DD" date.
func ParseDate(s string) (Date, error) {
	ts, err := ParseTimestamp(s)
	if err != nil {
		return Date{}, err
	}
	if ts.Layout != LayoutDate {
		return Date{}, &ParseError{Input: s, Reason: "want YYYY-MM-DD"}
	}
	return ts.Wall.Date(), nil
}

// MustDate is ParseDate for literals known to be valid.
func MustDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// DateOf returns the date t shows in its own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Valid reports whether d names a real calendar date.
func (d Date) Valid() bool {
	return d.Month >= time.January && d.Month <= time.December && DateOf(d.midnight()) == d
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Weekday returns the day of the week d falls on.
func (d Date) Weekday() time.Weekday { return d.midnight().Weekday() }

// AddDays returns the date n days after d.
func (d Date) AddDays(n int) Date { return DateOf(d.midnight().AddDate(0, 0, n)) }

// At combines d with a time of day.
func (d Date) At(c Clock) Wall {
	return Wall{Year: d.Year, Month: d.Month, Day: d.Day, Hour: c.Hour, Minute: c.Minute}
}

func (d Date) midnight() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of calendar days from a to b, negative
// when b is before a.
func DaysBetween(a, b Date) int {
	return int((b.midnight().Unix() - a.midnight().Unix()) / 86400)
}

// ActiveWeek reports whether date falls in an active week of a biweekly
// schedule anchored at anchor: floor(days/7) mod 2 == 0, with floor division
// so dates before the anchor alternate the same way.
func ActiveWeek(anchor, date Date) bool {
	days := DaysBetween(anchor, date)
	weeks := days / 7
	if days%7 != 0 && days < 0 {
		weeks--
	}
	return weeks%2 == 0
}
