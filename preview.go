package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Preview renders s as a short sentence, e.g.
//
//	Weekly: Every Monday, Wednesday at 09:00 (UTC)
//
// Lists are rendered in the order stored in s. An incomplete spec, or one
// Preview does not recognize, renders as the empty string.
func Preview(s Spec) string {
	switch v := s.(type) {
	case Once:
		if v.Timezone == "" || v.Date == nil || !v.Date.Valid() || v.Time == nil || !v.Time.Valid() {
			return ""
		}
		date := v.Date.midnight().Format("Jan 2, 2006")
		return fmt.Sprintf("Once: %s at %s (%s)", date, v.Time, v.Timezone)
	case Daily:
		times, ok := joinClocks(v.Times)
		if v.Timezone == "" || !ok {
			return ""
		}
		return fmt.Sprintf("Daily: Every day at %s (%s)", times, v.Timezone)
	case Weekly:
		names, ok := joinWeekdays(v.Weekdays)
		if v.Timezone == "" || !ok || v.Time == nil || !v.Time.Valid() {
			return ""
		}
		return fmt.Sprintf("Weekly: Every %s at %s (%s)", names, v.Time, v.Timezone)
	case Biweekly:
		names, ok := joinWeekdays(v.Weekdays)
		if v.Timezone == "" || !ok || v.Time == nil || !v.Time.Valid() {
			return ""
		}
		return fmt.Sprintf("Biweekly: Every other %s at %s (%s)", names, v.Time, v.Timezone)
	case Monthly:
		days, ok := joinDays(v.Days)
		if v.Timezone == "" || !ok || v.Time == nil || !v.Time.Valid() {
			return ""
		}
		return fmt.Sprintf("Monthly: Days %s of every month at %s (%s)", days, v.Time, v.Timezone)
	default:
		return ""
	}
}

func joinClocks(cs []Clock) (string, bool) {
	if len(cs) == 0 {
		return "", false
	}
	parts := make([]string, len(cs))
	for i, c := range cs {
		if !c.Valid() {
			return "", false
		}
		parts[i] = c.String()
	}
	return strings.Join(parts, ", "), true
}

func joinWeekdays(days []int) (string, bool) {
	if len(days) == 0 {
		return "", false
	}
	parts := make([]string, len(days))
	for i, d := range days {
		if d < 0 || d > 6 {
			return "", false
		}
		parts[i] = time.Weekday(d).String()
	}
	return strings.Join(parts, ", "), true
}

func joinDays(days []int) (string, bool) {
	if len(days) == 0 {
		return "", false
	}
	parts := make([]string, len(days))
	for i, d := range days {
		if d < 1 || d > 31 {
			return "", false
		}
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ", "), true
}
