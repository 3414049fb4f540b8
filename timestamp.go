package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Layout identifies one of the timestamp encodings ParseTimestamp accepts.
type Layout int

const (
	// LayoutRFC3339 is RFC3339 / ISO-8601 with an explicit offset or "Z",
	// e.g. "2026-03-08T09:30:00+05:30".
	LayoutRFC3339 Layout = iota + 1

	// LayoutDayFirst is "DD-MM-YYYY HH:MM:SS".
	LayoutDayFirst

	// LayoutDateTime is "YYYY-MM-DD HH:MM:SS".
	LayoutDateTime

	// LayoutDate is "YYYY-MM-DD"; the time of day is midnight.
	LayoutDate

	// LayoutCompact is the fixed-width "YYYYMMDDHHMI" with no separators.
	LayoutCompact
)

func (l Layout) String() string {
	switch l {
	case LayoutRFC3339:
		return "rfc3339"
	case LayoutDayFirst:
		return "dd-mm-yyyy hh:mm:ss"
	case LayoutDateTime:
		return "yyyy-mm-dd hh:mm:ss"
	case LayoutDate:
		return "yyyy-mm-dd"
	case LayoutCompact:
		return "yyyymmddhhmi"
	default:
		return fmt.Sprintf("Layout(%d)", int(l))
	}
}

// Timestamp is the result of ParseTimestamp.
//
// When TZAware is true the input carried an offset: Instant is the absolute
// time and Wall holds the components as written. Otherwise Wall is a bare
// wall-clock value that needs a zone (see ToUTC) before it denotes an
// instant, and Instant is zero.
type Timestamp struct {
	Wall
	TZAware bool
	Instant time.Time
	Layout  Layout
}

// String re-encodes the timestamp in the layout it was parsed from.
func (ts Timestamp) String() string {
	if ts.Layout == LayoutRFC3339 {
		return ts.Instant.Format(time.RFC3339)
	}
	return ts.Wall.Format(ts.Layout)
}

// Format encodes w in one of the offset-free layouts. LayoutCompact drops
// seconds and LayoutDate drops the time of day.
func (w Wall) Format(l Layout) string {
	switch l {
	case LayoutDayFirst:
		return fmt.Sprintf("%02d-%02d-%04d %02d:%02d:%02d", w.Day, int(w.Month), w.Year, w.Hour, w.Minute, w.Second)
	case LayoutDateTime:
		return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d", w.Year, int(w.Month), w.Day, w.Hour, w.Minute, w.Second)
	case LayoutDate:
		return fmt.Sprintf("%04d-%02d-%02d", w.Year, int(w.Month), w.Day)
	case LayoutCompact:
		return fmt.Sprintf("%04d%02d%02d%02d%02d", w.Year, int(w.Month), w.Day, w.Hour, w.Minute)
	case LayoutRFC3339:
		return w.naive().Format("2006-01-02T15:04:05Z")
	default:
		return w.String()
	}
}

type grammar struct {
	layout Layout
	re     *regexp.Regexp

	// fields maps year, month, day, hour, minute, second to submatch
	// indexes; 0 means the field is absent and defaults to zero.
	fields [6]int
}

// Grammars in the order they are tried.
var grammars = []grammar{
	{
		layout: LayoutRFC3339,
		re:     regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})[Tt](\d{2}):(\d{2}):(\d{2})(\.\d{1,9})?([Zz]|[+-]\d{2}:?\d{2})$`),
		fields: [6]int{1, 2, 3, 4, 5, 6},
	},
	{
		layout: LayoutDayFirst,
		re:     regexp.MustCompile(`^(\d{2})-(\d{2})-(\d{4}) (\d{2}):(\d{2}):(\d{2})$`),
		fields: [6]int{3, 2, 1, 4, 5, 6},
	},
	{
		layout: LayoutDateTime,
		re:     regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2}) (\d{2}):(\d{2}):(\d{2})$`),
		fields: [6]int{1, 2, 3, 4, 5, 6},
	},
	{
		layout: LayoutDate,
		re:     regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`),
		fields: [6]int{1, 2, 3, 0, 0, 0},
	},
	{
		layout: LayoutCompact,
		re:     regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})(\d{2})(\d{2})$`),
		fields: [6]int{1, 2, 3, 4, 5, 0},
	},
}

// ParseTimestamp parses s using the first matching layout, in the order
// LayoutRFC3339, LayoutDayFirst, LayoutDateTime, LayoutDate, LayoutCompact.
//
// Fields are checked by rebuilding the calendar date: "2026-02-30" or
// "2026-13-01 00:00:00" fail with a *ParseError instead of being normalized
// into a neighbouring date.
func ParseTimestamp(s string) (Timestamp, error) {
	for _, g := range grammars {
		m := g.re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		return g.parse(s, m)
	}
	return Timestamp{}, &ParseError{Input: s, Reason: "unrecognized timestamp format"}
}

func (g grammar) parse(s string, m []string) (Timestamp, error) {
	var v [6]int
	for i, idx := range g.fields {
		if idx == 0 {
			continue
		}
		n, err := strconv.Atoi(m[idx])
		if err != nil {
			return Timestamp{}, &ParseError{Input: s, Reason: err.Error()}
		}
		v[i] = n
	}
	w := Wall{Year: v[0], Month: time.Month(v[1]), Day: v[2], Hour: v[3], Minute: v[4], Second: v[5]}
	if got := wallOf(w.naive()); got != w {
		return Timestamp{}, &ParseError{Input: s, Reason: fmt.Sprintf("%s is not a real calendar time", w)}
	}

	ts := Timestamp{Wall: w, Layout: g.layout}
	if g.layout != LayoutRFC3339 {
		return ts, nil
	}

	offset, err := parseOffset(m[8])
	if err != nil {
		return Timestamp{}, &ParseError{Input: s, Reason: err.Error()}
	}
	var nanos int
	if frac := m[7]; frac != "" {
		digits := frac[1:] + strings.Repeat("0", 9-len(frac[1:]))
		nanos, _ = strconv.Atoi(digits)
	}
	ts.TZAware = true
	ts.Instant = w.naive().Add(time.Duration(nanos) - time.Duration(offset)*time.Second).UTC()
	return ts, nil
}

// parseOffset converts "Z", "+05:30" or "-0800" to seconds east of UTC.
func parseOffset(s string) (int, error) {
	if s == "Z" || s == "z" {
		return 0, nil
	}
	sign := 1
	if s[0] == '-' {
		sign = -1
	}
	digits := strings.ReplaceAll(s[1:], ":", "")
	hh, _ := strconv.Atoi(digits[:2])
	mm, _ := strconv.Atoi(digits[2:])
	if hh > 23 || mm > 59 {
		return 0, fmt.Errorf("offset %s out of range", s)
	}
	return sign * (hh*3600 + mm*60), nil
}
