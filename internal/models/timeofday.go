package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	secondsPerMinute = 60
	secondsPerDay    = 24 * 60 * 60
)

// TimeOfDay is a wall-clock time measured in seconds since midnight.
type TimeOfDay int

// ParseTimeOfDay accepts "HH:MM" and "HH:MM:SS".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}

	limits := []int{23, 59, 59}
	var fields [3]int
	for i, p := range parts {
		if len(p) != 2 {
			return 0, fmt.Errorf("invalid time of day %q", s)
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > limits[i] {
			return 0, fmt.Errorf("invalid time of day %q", s)
		}
		fields[i] = n
	}

	return TimeOfDay(fields[0]*3600 + fields[1]*60 + fields[2]), nil
}

// ParseClock accepts "HH:MM" only. Use it for times coming from people, so every
// stored time renders back to the exact value that was entered.
func ParseClock(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	if len(s) != len(TimeLayout) {
		return 0, fmt.Errorf("invalid clock time %q, want HH:MM", s)
	}
	return ParseTimeOfDay(s)
}

// MustTimeOfDay panics on malformed input. Intended for literals and tests.
func MustTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

// ClockOf returns the time of day of t in its own location.
func ClockOf(t time.Time) TimeOfDay {
	h, m, s := t.Clock()
	return TimeOfDay(h*3600 + m*60 + s)
}

func (t TimeOfDay) Hour() int   { return int(t) / 3600 }
func (t TimeOfDay) Minute() int { return int(t) % 3600 / 60 }
func (t TimeOfDay) Second() int { return int(t) % 60 }

// TruncateMinute drops the seconds.
func (t TimeOfDay) TruncateMinute() TimeOfDay {
	return t - t%secondsPerMinute
}

// AddMinutes wraps around midnight.
func (t TimeOfDay) AddMinutes(minutes int) TimeOfDay {
	v := (int(t) + minutes*secondsPerMinute) % secondsPerDay
	if v < 0 {
		v += secondsPerDay
	}
	return TimeOfDay(v)
}

// On anchors t to the calendar day of date.
func (t TimeOfDay) On(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), 0, date.Location())
}

// String renders "HH:MM".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// Full renders "HH:MM:SS".
func (t TimeOfDay) Full() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour(), t.Minute(), t.Second())
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value stores the canonical "HH:MM:SS" form so text comparison matches numeric order.
func (t TimeOfDay) Value() (driver.Value, error) {
	return t.Full(), nil
}

func (t *TimeOfDay) Scan(src interface{}) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("cannot scan %T into TimeOfDay", src)
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Overlaps reports whether [s1,e1) and [s2,e2) intersect.
func Overlaps(s1, e1, s2, e2 TimeOfDay) bool {
	return s1 < e2 && e1 > s2
}

// OnGrid reports whether t sits on a whole-minute multiple of slotMinutes from start.
func OnGrid(t, start TimeOfDay, slotMinutes int) bool {
	if slotMinutes <= 0 || t < start {
		return false
	}
	diff := int(t-start) / secondsPerMinute
	return diff%slotMinutes == 0
}

// DateKey renders the calendar day of t as "2006-01-02".
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// SameDay compares calendar days, ignoring clock and location.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// BeforeDay reports whether the calendar day of a precedes that of b.
func BeforeDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if ay != by {
		return ay < by
	}
	if am != bm {
		return am < bm
	}
	return ad < bd
}
