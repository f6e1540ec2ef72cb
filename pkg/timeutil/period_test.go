package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func utc(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

func TestResolve(t *testing.T) {
	wednesday := utc(2024, time.May, 15, 13, 45)

	tests := []struct {
		name      string
		kind      PeriodKind
		instant   time.Time
		firstDay  int
		interval  int
		wantStart time.Time
		wantEnd   time.Time
	}{
		{"week starting monday", PeriodWeek, wednesday, 1, 1, utc(2024, time.May, 13, 0, 0), utc(2024, time.May, 20, 0, 0)},
		{"week starting sunday", PeriodWeek, wednesday, 0, 1, utc(2024, time.May, 12, 0, 0), utc(2024, time.May, 19, 0, 0)},
		{"week starting saturday", PeriodWeek, wednesday, 6, 1, utc(2024, time.May, 11, 0, 0), utc(2024, time.May, 18, 0, 0)},
		{"first day normalized modulo 7", PeriodWeek, wednesday, 8, 1, utc(2024, time.May, 13, 0, 0), utc(2024, time.May, 20, 0, 0)},
		{"negative first day normalized", PeriodWeek, wednesday, -6, 1, utc(2024, time.May, 13, 0, 0), utc(2024, time.May, 20, 0, 0)},
		{"biweekly block", PeriodWeek, utc(2024, time.May, 22, 9, 0), 1, 2, utc(2024, time.May, 13, 0, 0), utc(2024, time.May, 27, 0, 0)},
		{"day", PeriodDay, wednesday, 1, 1, utc(2024, time.May, 15, 0, 0), utc(2024, time.May, 16, 0, 0)},
		{"every third day", PeriodDay, wednesday, 1, 3, utc(2024, time.May, 14, 0, 0), utc(2024, time.May, 17, 0, 0)},
		{"zero interval treated as one", PeriodDay, wednesday, 1, 0, utc(2024, time.May, 15, 0, 0), utc(2024, time.May, 16, 0, 0)},
		{"before epoch", PeriodDay, utc(1969, time.December, 31, 23, 0), 1, 1, utc(1969, time.December, 31, 0, 0), utc(1970, time.January, 1, 0, 0)},
		{"month", PeriodMonth, wednesday, 1, 1, utc(2024, time.May, 1, 0, 0), utc(2024, time.June, 1, 0, 0)},
		{"quarter rolls over year", PeriodMonth, utc(2024, time.December, 31, 23, 59), 1, 3, utc(2024, time.October, 1, 0, 0), utc(2025, time.January, 1, 0, 0)},
		{"five month block", PeriodMonth, utc(2024, time.December, 5, 0, 0), 1, 5, utc(2024, time.August, 1, 0, 0), utc(2025, time.January, 1, 0, 0)},
		{"month from day 31", PeriodMonth, utc(2024, time.January, 31, 12, 0), 1, 1, utc(2024, time.January, 1, 0, 0), utc(2024, time.February, 1, 0, 0)},
		{"unknown kind resolves as day", PeriodKind("fortnight"), wednesday, 1, 1, utc(2024, time.May, 15, 0, 0), utc(2024, time.May, 16, 0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := Resolve(tt.kind, tt.instant, tt.firstDay, tt.interval)
			assert.True(t, tt.wantStart.Equal(w.Start), "start: want %s got %s", tt.wantStart, w.Start)
			assert.True(t, tt.wantEnd.Equal(w.End), "end: want %s got %s", tt.wantEnd, w.End)
			assert.True(t, w.Contains(tt.instant))
			assert.False(t, w.Contains(w.End), "end is exclusive")
		})
	}
}

func TestResolve_EveryInstantInWindowResolvesToSameWindow(t *testing.T) {
	for _, kind := range []PeriodKind{PeriodDay, PeriodWeek, PeriodMonth} {
		for _, interval := range []int{1, 2, 3, 7} {
			w := Resolve(kind, utc(2023, time.February, 27, 5, 0), 1, interval)
			for probe := w.Start; probe.Before(w.End); probe = probe.Add(13 * time.Hour) {
				got := Resolve(kind, probe, 1, interval)
				assert.True(t, w.Start.Equal(got.Start), "%s/%d at %s", kind, interval, probe)
			}
			next := Resolve(kind, w.End, 1, interval)
			assert.True(t, w.End.Equal(next.Start), "%s/%d windows must tile", kind, interval)
		}
	}
}

func TestResolve_UsesInstantLocation(t *testing.T) {
	plus5 := time.FixedZone("UTC+5", 5*60*60)
	instant := time.Date(2024, time.May, 15, 2, 0, 0, 0, plus5)

	w := Resolve(PeriodDay, instant, 1, 1)

	assert.Equal(t, plus5, w.Start.Location())
	assert.True(t, utc(2024, time.May, 14, 19, 0).Equal(w.UTC().Start))
	assert.Equal(t, time.UTC, w.UTC().Start.Location())
	assert.Equal(t, "2024-05-15", w.StartDate().Format(DateFormat))
}

func TestParsePeriodKind(t *testing.T) {
	k, err := ParsePeriodKind(" Week ")
	require.NoError(t, err)
	assert.Equal(t, PeriodWeek, k)

	_, err = ParsePeriodKind("year")
	assert.Error(t, err)
}
