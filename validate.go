package schedule

import (
	"time"
)

// MinLeadTime is how far after "now" a Once schedule must fall.
const MinLeadTime = 5 * time.Minute

// Validate checks s against the rules of its variant and returns its
// canonical form: slices are copied, repeated weekdays and days of month are
// dropped (first occurrence wins), and a Biweekly without an Anchor is
// anchored to now's date in the schedule's zone.
//
// now is only consulted for the Once lead-time rule and the Biweekly anchor
// default. Failures are returned as *ValidationError.
func Validate(s Spec, now time.Time) (Spec, error) {
	if s == nil {
		return nil, &ValidationError{Reason: ReasonUnsupportedType}
	}
	if s.Zone() == "" {
		return nil, &ValidationError{Reason: ReasonMissingTimezone}
	}
	loc, err := LoadZone(s.Zone())
	if err != nil {
		return nil, invalid(ReasonInvalidTimezone, "%s", s.Zone())
	}

	switch v := s.(type) {
	case Once:
		return validateOnce(v, loc, now)
	case Daily:
		return validateDaily(v)
	case Weekly:
		days, err := validateWeekdays(v.Weekdays, v.Time)
		if err != nil {
			return nil, err
		}
		t := *v.Time
		return Weekly{Weekdays: days, Time: &t, Timezone: v.Timezone}, nil
	case Biweekly:
		return validateBiweekly(v, loc, now)
	case Monthly:
		return validateMonthly(v)
	default:
		return nil, invalid(ReasonUnsupportedType, "%T", s)
	}
}

func validateOnce(s Once, loc *time.Location, now time.Time) (Spec, error) {
	if s.Date == nil || s.Time == nil {
		return nil, &ValidationError{Reason: ReasonMissingDateOrTime}
	}
	if !s.Date.Valid() {
		return nil, invalid(ReasonInvalidDate, "%s", s.Date)
	}
	if !s.Time.Valid() {
		return nil, invalid(ReasonInvalidTime, "%s", s.Time)
	}
	target := toUTC(s.Date.At(*s.Time), loc)
	if target.Before(now.Add(MinLeadTime)) {
		return nil, invalid(ReasonTooSoon, "%s is less than %s after %s",
			target.Format(time.RFC3339), MinLeadTime, now.UTC().Format(time.RFC3339))
	}
	d, t := *s.Date, *s.Time
	return Once{Date: &d, Time: &t, Timezone: s.Timezone}, nil
}

func validateDaily(s Daily) (Spec, error) {
	if len(s.Times) == 0 {
		return nil, &ValidationError{Reason: ReasonNoTimesProvided}
	}
	seen := make(map[Clock]bool, len(s.Times))
	for _, t := range s.Times {
		if !t.Valid() {
			return nil, invalid(ReasonInvalidTime, "%s", t)
		}
		if seen[t] {
			return nil, invalid(ReasonDuplicateTime, "%s", t)
		}
		seen[t] = true
	}
	return Daily{Times: append([]Clock(nil), s.Times...), Timezone: s.Timezone}, nil
}

func validateBiweekly(s Biweekly, loc *time.Location, now time.Time) (Spec, error) {
	days, err := validateWeekdays(s.Weekdays, s.Time)
	if err != nil {
		return nil, err
	}
	anchor := DateOf(now.In(loc))
	if s.Anchor != nil {
		if !s.Anchor.Valid() {
			return nil, invalid(ReasonInvalidDate, "anchor %s", s.Anchor)
		}
		anchor = *s.Anchor
	}
	t := *s.Time
	return Biweekly{Weekdays: days, Time: &t, Timezone: s.Timezone, Anchor: &anchor}, nil
}

func validateWeekdays(weekdays []int, t *Clock) ([]int, error) {
	if len(weekdays) == 0 {
		return nil, &ValidationError{Reason: ReasonNoWeekdaysProvided}
	}
	for _, d := range weekdays {
		if d < 0 || d > 6 {
			return nil, invalid(ReasonInvalidWeekday, "%d", d)
		}
	}
	if err := validateTime(t); err != nil {
		return nil, err
	}
	return dedupe(weekdays), nil
}

func validateMonthly(s Monthly) (Spec, error) {
	if len(s.Days) == 0 {
		return nil, &ValidationError{Reason: ReasonNoDaysProvided}
	}
	for _, d := range s.Days {
		if d < 1 || d > 31 {
			return nil, invalid(ReasonInvalidDayOfMonth, "%d", d)
		}
	}
	if err := validateTime(s.Time); err != nil {
		return nil, err
	}
	t := *s.Time
	return Monthly{Days: dedupe(s.Days), Time: &t, Timezone: s.Timezone}, nil
}

func validateTime(t *Clock) error {
	if t == nil {
		return &ValidationError{Reason: ReasonMissingTime}
	}
	if !t.Valid() {
		return invalid(ReasonInvalidTime, "%s", t)
	}
	return nil
}

// dedupe returns a copy of xs without repeats, keeping first occurrences.
func dedupe(xs []int) []int {
	out := make([]int, 0, len(xs))
	seen := make(map[int]bool, len(xs))
	for _, x := range xs {
		if !seen[x] {
			seen[x] = true
			out = append(out, x)
		}
	}
	return out
}
