// Package schedule models job schedules written in wall-clock time and a named
// time zone, and turns them into validated, canonical, UTC-anchored values that
// a dispatcher can compute concrete run instants from.
//
// A schedule is one of five closed variants: Once, Daily, Weekly, Biweekly and
// Monthly. Validate checks a variant against an explicit "now" and returns its
// canonical form. ToUTC and FromUTC convert between wall-clock components and
// instants, resolving DST transitions deterministically:
//
//   - a local time inside a spring-forward gap is shifted forward by the gap length
//   - a local time repeated by a fall-back transition resolves to its first occurrence
//
// Nothing in this package reads the system clock or a process-wide time zone,
// so every function is safe for concurrent use.
package schedule
