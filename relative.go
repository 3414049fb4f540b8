package schedule

import (
	"fmt"
	"time"
)

// FormatRelative describes target relative to now using the single coarsest
// unit that fits: "in 3 days", "1 hour ago", "in 5 minutes". Deltas under a
// minute either way are "just now". Counts are truncated, so 90 minutes is
// "1 hour".
func FormatRelative(target, now time.Time) string {
	delta := int64(target.Sub(now) / time.Second)
	future := delta > 0
	if delta < 0 {
		delta = -delta
	}

	var (
		n    int64
		unit string
	)
	switch {
	case delta >= 86400:
		n, unit = delta/86400, "day"
	case delta >= 3600:
		n, unit = delta/3600, "hour"
	case delta >= 60:
		n, unit = delta/60, "minute"
	default:
		return "just now"
	}
	if n != 1 {
		unit += "s"
	}
	if future {
		return fmt.Sprintf("in %d %s", n, unit)
	}
	return fmt.Sprintf("%d %s ago", n, unit)
}
