package timeutil

import (
	"fmt"
	"strings"
	"time"
)

// PeriodKind is the calendar unit a window is measured in.
type PeriodKind string

const (
	PeriodDay   PeriodKind = "day"
	PeriodWeek  PeriodKind = "week"
	PeriodMonth PeriodKind = "month"
)

// ParsePeriodKind parses "day", "week" or "month".
func ParsePeriodKind(s string) (PeriodKind, error) {
	switch k := PeriodKind(strings.ToLower(strings.TrimSpace(s))); k {
	case PeriodDay, PeriodWeek, PeriodMonth:
		return k, nil
	default:
		return "", fmt.Errorf("unknown period kind %q", s)
	}
}

// Window is the half-open interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t lies in [Start, End). Instants are compared,
// so zones do not matter.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// UTC returns the window with both bounds converted to the reference zone,
// ready for comparison against stored timestamps.
func (w Window) UTC() Window {
	return Window{Start: ToReference(w.Start), End: ToReference(w.End)}
}

// StartDate is the calendar date on which the window starts, in the
// window's own location.
func (w Window) StartDate() time.Time {
	y, m, d := w.Start.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, ReferenceZone)
}

// Epoch baselines. 1970-01-05 is the first Monday after the Unix epoch.
const (
	epochYear        = 1970
	firstMondayIndex = 4
)

// Resolve returns the window of kind containing instant, in instant's
// location. Windows are grouped in blocks of interval units counted from
// the epoch, so two instants share a window only if they fall in the same
// block. firstDayOfWeek uses time.Weekday numbering and is taken modulo 7.
// An interval below 1 is treated as 1; unknown kinds resolve as days.
func Resolve(kind PeriodKind, instant time.Time, firstDayOfWeek int, interval int) Window {
	if interval < 1 {
		interval = 1
	}
	loc := instant.Location()
	y, m, d := instant.Date()
	day := civilDays(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))

	switch kind {
	case PeriodWeek:
		first := mod(firstDayOfWeek, 7)
		weekStart := day - int64(mod(int(instant.Weekday())-first, 7))
		baseline := int64(firstMondayIndex - mod(int(time.Monday)-first, 7))
		weeks := floorDiv(weekStart-baseline, 7)
		block := floorDiv(weeks, int64(interval)) * int64(interval)
		start := baseline + block*7
		return Window{
			Start: dateFromDays(start, loc),
			End:   dateFromDays(start+int64(interval)*7, loc),
		}

	case PeriodMonth:
		months := int64(y-epochYear)*12 + int64(m-1)
		block := floorDiv(months, int64(interval)) * int64(interval)
		return Window{
			Start: monthStart(block, loc),
			End:   monthStart(block+int64(interval), loc),
		}

	default:
		start := floorDiv(day, int64(interval)) * int64(interval)
		return Window{
			Start: dateFromDays(start, loc),
			End:   dateFromDays(start+int64(interval), loc),
		}
	}
}

// civilDays counts days from 1970-01-01 to the Y/M/D of t.
func civilDays(t time.Time) int64 {
	y, m, d := t.Date()
	return floorDiv(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix(), 86400)
}

// dateFromDays is midnight in loc of the date n days after 1970-01-01.
func dateFromDays(n int64, loc *time.Location) time.Time {
	u := time.Unix(n*86400, 0).UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, loc)
}

// monthStart is the 1st of the month that is n months after 1970-01.
// Only day 1 is ever constructed, so there is no day overflow.
func monthStart(n int64, loc *time.Location) time.Time {
	year := epochYear + int(floorDiv(n, 12))
	month := time.Month(mod(int(n-floorDiv(n, 12)*12), 12) + 1)
	return time.Date(year, month, 1, 0, 0, 0, 0, loc)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func mod(a, b int) int {
	r := a % b
	if r < 0 {
		r += b
	}
	return r
}
