package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser accepts the 6-field format with seconds that CronSpecs emits:
// "second minute hour day-of-month month day-of-week", optionally prefixed
// with "CRON_TZ=<zone> ".
var cronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// CronSpecs compiles a recurring schedule into cron expressions for
// dispatchers built on a cron engine. Each expression carries the schedule's
// zone as a CRON_TZ prefix so the engine keeps wall-clock semantics.
//
// Returns nil for a Once, which has no recurrence. A Daily yields one
// expression per time of day. A Biweekly yields its weekly expression; the
// engine must additionally drop occurrences for which ActiveWeek is false
// (see NeedsParityFilter).
//
// Cron engines skip wall-clock times that fall in a DST gap instead of
// shifting them forward; NextRun is the reference for exact instants.
func CronSpecs(s Spec) ([]string, error) {
	var exprs []string
	switch v := s.(type) {
	case Once:
		return nil, nil
	case Daily:
		for _, t := range v.Times {
			exprs = append(exprs, cronExpr(v.Timezone, t, "*", "*"))
		}
	case Weekly:
		if v.Time == nil {
			return nil, &ValidationError{Reason: ReasonMissingTime}
		}
		exprs = append(exprs, cronExpr(v.Timezone, *v.Time, "*", joinInts(v.Weekdays)))
	case Biweekly:
		if v.Time == nil {
			return nil, &ValidationError{Reason: ReasonMissingTime}
		}
		exprs = append(exprs, cronExpr(v.Timezone, *v.Time, "*", joinInts(v.Weekdays)))
	case Monthly:
		if v.Time == nil {
			return nil, &ValidationError{Reason: ReasonMissingTime}
		}
		exprs = append(exprs, cronExpr(v.Timezone, *v.Time, joinInts(v.Days), "*"))
	default:
		return nil, fmt.Errorf("unsupported schedule type %T", s)
	}

	// Parse what we emit so a bad zone or field never reaches the engine.
	for _, expr := range exprs {
		if _, err := cronParser.Parse(expr); err != nil {
			return nil, fmt.Errorf("invalid cron expression %q: %w", expr, err)
		}
	}
	return exprs, nil
}

// NeedsParityFilter reports whether cron expressions from CronSpecs
// over-match s and must be filtered with ActiveWeek.
func NeedsParityFilter(s Spec) bool {
	_, ok := s.(Biweekly)
	return ok
}

// CronNext returns the next activation of a cron expression after t.
func CronNext(expr string, t time.Time) (time.Time, error) {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return sched.Next(t), nil
}

func cronExpr(zone string, t Clock, dom, dow string) string {
	return fmt.Sprintf("CRON_TZ=%s 0 %d %d %s * %s", zone, t.Minute, t.Hour, dom, dow)
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, ",")
}
