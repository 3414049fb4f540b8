package schedule

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Envelope is the persisted and transmitted form of a schedule:
//
//	{ "schedule_type": "weekly",
//	  "schedule_data": { "day_of_week": [1,3], "time": "09:00", "timezone": "Asia/Kolkata" } }
//
// List-valued fields (day_of_week, day_of_month and the daily "time") are
// written as a bare scalar when they hold exactly one value and as an array
// otherwise. Decoding accepts either form.
type Envelope struct {
	ScheduleType Kind            `json:"schedule_type"`
	ScheduleData json.RawMessage `json:"schedule_data"`
}

type onceData struct {
	Date     string `json:"date,omitempty"`
	Time     *Clock `json:"time,omitempty"`
	DateTime string `json:"datetime,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

type dailyData struct {
	Time     clockList `json:"time,omitempty"`
	Timezone string    `json:"timezone,omitempty"`
}

type weeklyData struct {
	DayOfWeek intList `json:"day_of_week,omitempty"`
	Time      *Clock  `json:"time,omitempty"`
	Timezone  string  `json:"timezone,omitempty"`
}

type biweeklyData struct {
	DayOfWeek  intList `json:"day_of_week,omitempty"`
	Time       *Clock  `json:"time,omitempty"`
	Timezone   string  `json:"timezone,omitempty"`
	AnchorDate string  `json:"anchor_date,omitempty"`
}

type monthlyData struct {
	DayOfMonth intList `json:"day_of_month,omitempty"`
	Time       *Clock  `json:"time,omitempty"`
	Timezone   string  `json:"timezone,omitempty"`
}

// Encode converts s to its wire envelope.
func Encode(s Spec) (Envelope, error) {
	var data any
	switch v := s.(type) {
	case Once:
		d := onceData{Time: v.Time, Timezone: v.Timezone}
		if v.Date != nil {
			d.Date = v.Date.String()
		}
		data = d
	case Daily:
		data = dailyData{Time: v.Times, Timezone: v.Timezone}
	case Weekly:
		data = weeklyData{DayOfWeek: v.Weekdays, Time: v.Time, Timezone: v.Timezone}
	case Biweekly:
		d := biweeklyData{DayOfWeek: v.Weekdays, Time: v.Time, Timezone: v.Timezone}
		if v.Anchor != nil {
			d.AnchorDate = v.Anchor.String()
		}
		data = d
	case Monthly:
		data = monthlyData{DayOfMonth: v.Days, Time: v.Time, Timezone: v.Timezone}
	default:
		return Envelope{}, fmt.Errorf("cannot encode schedule of type %T", s)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s schedule: %w", s.Kind(), err)
	}
	return Envelope{ScheduleType: s.Kind(), ScheduleData: raw}, nil
}

// Marshal encodes s as envelope JSON.
func Marshal(s Spec) ([]byte, error) {
	env, err := Encode(s)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

// Unmarshal decodes envelope JSON into a Spec. The result is not validated.
func Unmarshal(b []byte) (Spec, error) {
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("decode schedule envelope: %w", err)
	}
	return env.Decode()
}

// Decode converts the envelope to a Spec. Unknown fields in schedule_data
// are rejected. The result is not validated.
//
// A Once may carry either "date" plus "time" or a single "datetime" in any
// layout ParseTimestamp accepts. A datetime with an offset is converted into
// the schedule's zone; seconds are dropped.
func (e Envelope) Decode() (Spec, error) {
	switch e.ScheduleType {
	case KindOnce:
		var d onceData
		if err := e.decodeData(&d); err != nil {
			return nil, err
		}
		return d.spec()
	case KindDaily:
		var d dailyData
		if err := e.decodeData(&d); err != nil {
			return nil, err
		}
		return Daily{Times: d.Time, Timezone: d.Timezone}, nil
	case KindWeekly:
		var d weeklyData
		if err := e.decodeData(&d); err != nil {
			return nil, err
		}
		return Weekly{Weekdays: d.DayOfWeek, Time: d.Time, Timezone: d.Timezone}, nil
	case KindBiweekly:
		var d biweeklyData
		if err := e.decodeData(&d); err != nil {
			return nil, err
		}
		s := Biweekly{Weekdays: d.DayOfWeek, Time: d.Time, Timezone: d.Timezone}
		if d.AnchorDate != "" {
			anchor, err := ParseDate(d.AnchorDate)
			if err != nil {
				return nil, err
			}
			s.Anchor = &anchor
		}
		return s, nil
	case KindMonthly:
		var d monthlyData
		if err := e.decodeData(&d); err != nil {
			return nil, err
		}
		return Monthly{Days: d.DayOfMonth, Time: d.Time, Timezone: d.Timezone}, nil
	default:
		return nil, fmt.Errorf("unknown schedule_type %q", e.ScheduleType)
	}
}

func (e Envelope) decodeData(v any) error {
	if len(e.ScheduleData) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(e.ScheduleData))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode %s schedule_data: %w", e.ScheduleType, err)
	}
	return nil
}

func (d onceData) spec() (Spec, error) {
	s := Once{Time: d.Time, Timezone: d.Timezone}
	if d.Date != "" {
		date, err := ParseDate(d.Date)
		if err != nil {
			return nil, err
		}
		s.Date = &date
	}
	if d.DateTime == "" {
		return s, nil
	}
	if s.Date != nil || s.Time != nil {
		return nil, fmt.Errorf("once schedule_data: datetime cannot be combined with date or time")
	}

	ts, err := ParseTimestamp(d.DateTime)
	if err != nil {
		return nil, err
	}
	w := ts.Wall
	if ts.TZAware && d.Timezone != "" {
		if w, err = FromUTC(ts.Instant, d.Timezone); err != nil {
			return nil, err
		}
	}
	date, clock := w.Date(), w.Clock()
	s.Date, s.Time = &date, &clock
	return s, nil
}

// MarshalJSON writes c as "HH:MM".
func (c Clock) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON reads "HH:MM".
func (c *Clock) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("time of day must be a string: %w", err)
	}
	parsed, err := ParseClock(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// intList is a list that collapses to a scalar when it has one element.
type intList []int

func (l intList) MarshalJSON() ([]byte, error) {
	if len(l) == 1 {
		return json.Marshal(l[0])
	}
	return json.Marshal([]int(l))
}

func (l *intList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '[' {
		var xs []int
		if err := json.Unmarshal(b, &xs); err != nil {
			return err
		}
		*l = xs
		return nil
	}
	var x int
	if err := json.Unmarshal(b, &x); err != nil {
		return err
	}
	*l = intList{x}
	return nil
}

// clockList is a list of times of day that collapses to a scalar when it
// has one element.
type clockList []Clock

func (l clockList) MarshalJSON() ([]byte, error) {
	if len(l) == 1 {
		return json.Marshal(l[0])
	}
	return json.Marshal([]Clock(l))
}

func (l *clockList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '[' {
		var cs []Clock
		if err := json.Unmarshal(b, &cs); err != nil {
			return err
		}
		*l = cs
		return nil
	}
	var c Clock
	if err := json.Unmarshal(b, &c); err != nil {
		return err
	}
	*l = clockList{c}
	return nil
}
