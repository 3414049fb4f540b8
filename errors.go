package schedule

import (
	"errors"
	"fmt"
)

var (
	// ErrParse is matched by every *ParseError.
	ErrParse = errors.New("parse error")

	// ErrInvalidTimezone is matched by every *TimezoneError.
	ErrInvalidTimezone = errors.New("invalid timezone")

	// ErrNotFound is returned by stores when no record has the requested ID.
	ErrNotFound = errors.New("schedule record not found")
)

// ParseError reports a string that matched none of the supported encodings,
// or whose fields do not form a real calendar date.
type ParseError struct {
	// Input is the offending string, verbatim.
	Input string

	// Reason describes what was wrong with it.
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %q: %s", e.Input, e.Reason)
}

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// TimezoneError reports a zone identifier missing from the IANA database.
type TimezoneError struct {
	Zone string
	Err  error
}

func (e *TimezoneError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid timezone %q: %v", e.Zone, e.Err)
	}
	return fmt.Sprintf("invalid timezone %q", e.Zone)
}

func (e *TimezoneError) Is(target error) bool { return target == ErrInvalidTimezone }

func (e *TimezoneError) Unwrap() error { return e.Err }

// Reason identifies why a schedule failed validation. Callers may show it
// verbatim or map it to a localized message.
type Reason string

const (
	ReasonMissingTimezone    Reason = "MissingTimezone"
	ReasonInvalidTimezone    Reason = "InvalidTimezone"
	ReasonMissingDateOrTime  Reason = "MissingDateOrTime"
	ReasonInvalidDate        Reason = "InvalidDate"
	ReasonTooSoon            Reason = "TooSoon"
	ReasonNoTimesProvided    Reason = "NoTimesProvided"
	ReasonInvalidTime        Reason = "InvalidTime"
	ReasonDuplicateTime      Reason = "DuplicateTime"
	ReasonNoWeekdaysProvided Reason = "NoWeekdaysProvided"
	ReasonInvalidWeekday     Reason = "InvalidWeekday"
	ReasonMissingTime        Reason = "MissingTime"
	ReasonNoDaysProvided     Reason = "NoDaysProvided"
	ReasonInvalidDayOfMonth  Reason = "InvalidDayOfMonth"
	ReasonUnsupportedType    Reason = "UnsupportedType"
)

// ValidationError is returned by Validate. Two validation errors match under
// errors.Is when their reasons are equal, so callers can write
//
//	errors.Is(err, &ValidationError{Reason: ReasonTooSoon})
type ValidationError struct {
	Reason Reason

	// Detail names the offending value, if there is one.
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("invalid schedule: %s (%s)", e.Reason, e.Detail)
	}
	return fmt.Sprintf("invalid schedule: %s", e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Reason == e.Reason
}

func invalid(reason Reason, format string, args ...any) *ValidationError {
	return &ValidationError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}
