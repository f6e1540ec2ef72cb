// Package timeutil holds calendar helpers shared by the domain packages:
// the reference zone used for persisted instants, calendar dates, and the
// period window resolver in period.go.
package timeutil

import (
	"fmt"
	"strings"
	"time"
)

// ReferenceZone is the zone every persisted instant and calendar date is
// normalized into before comparison.
var ReferenceZone = time.UTC

// Common layouts.
const (
	DateFormat     = "2006-01-02"
	DateTimeFormat = time.RFC3339
)

// Clock supplies the current instant. Domain code never calls time.Now
// directly.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock returns the wall clock.
func SystemClock() Clock { return ClockFunc(time.Now) }

// FixedClock always returns t. Intended for tests.
func FixedClock(t time.Time) Clock { return ClockFunc(func() time.Time { return t }) }

// ToReference converts t into the reference zone.
func ToReference(t time.Time) time.Time {
	return t.In(ReferenceZone)
}

// DateOf returns the calendar date of t in the reference zone, as a time at
// 00:00 in that zone.
func DateOf(t time.Time) time.Time {
	y, m, d := t.In(ReferenceZone).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, ReferenceZone)
}

// StartOfDay returns 00:00 of t's day in t's own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// AddDays shifts a calendar date by n days without touching the clock.
func AddDays(date time.Time, n int) time.Time {
	return date.AddDate(0, 0, n)
}

// IsSameDay reports whether a and b fall on the same reference-zone date.
func IsSameDay(a, b time.Time) bool {
	return DateOf(a).Equal(DateOf(b))
}

// DaysBetween returns the signed number of calendar days from a to b in the
// reference zone.
func DaysBetween(a, b time.Time) int {
	return int(civilDays(DateOf(b)) - civilDays(DateOf(a)))
}

// FormatDate renders the reference-zone date of t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return DateOf(t).Format(DateFormat)
}

// ParseDate parses YYYY-MM-DD into a reference-zone date.
func ParseDate(value string) (time.Time, error) {
	t, err := time.ParseInLocation(DateFormat, strings.TrimSpace(value), ReferenceZone)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", value, err)
	}
	return t, nil
}

// ParseInstant parses an RFC3339 timestamp. A timestamp without an offset
// is read as reference-zone time. The result is in the reference zone.
func ParseInstant(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ToReference(t), nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.ParseInLocation(layout, value, ReferenceZone); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse instant %q: unsupported format", value)
}

// LoadLocation resolves an IANA zone name, falling back to the reference
// zone for empty or unknown names.
func LoadLocation(name string) *time.Location {
	if strings.TrimSpace(name) == "" {
		return ReferenceZone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return ReferenceZone
	}
	return loc
}
