package progress

import (
	"time"

	"github.com/google/uuid"

	"github.com/lifequest/lifequest-core/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// STREAK
// ══════════════════════════════════════════════════════════════════════════════

// Streak tracks consecutive active calendar days of a user in one category.
type Streak struct {
	UserID       uuid.UUID
	CategoryID   int64
	Current      int
	Best         int
	LastActivity *time.Time // reference-zone calendar date
}

// NewStreak returns an empty streak with no activity.
func NewStreak(userID uuid.UUID, categoryID int64) *Streak {
	return &Streak{UserID: userID, CategoryID: categoryID}
}

// StreakOutcome is the transition taken by Record.
type StreakOutcome int

const (
	StreakStarted StreakOutcome = iota
	StreakSameDay
	StreakExtended
	StreakReset
	StreakBackfill
)

func (o StreakOutcome) String() string {
	switch o {
	case StreakStarted:
		return "started"
	case StreakSameDay:
		return "same_day"
	case StreakExtended:
		return "extended"
	case StreakReset:
		return "reset"
	case StreakBackfill:
		return "backfill"
	default:
		return "unknown"
	}
}

// Changed reports whether the outcome mutated the streak.
func (o StreakOutcome) Changed() bool {
	return o == StreakStarted || o == StreakExtended || o == StreakReset
}

// Record registers activity on the calendar date of day. Dates earlier
// than LastActivity leave the streak untouched.
func (s *Streak) Record(day time.Time) StreakOutcome {
	date := timeutil.DateOf(day)

	if s.LastActivity == nil {
		s.Current = 1
		s.Best = max(s.Best, 1)
		s.LastActivity = &date
		return StreakStarted
	}

	switch gap := timeutil.DaysBetween(*s.LastActivity, date); {
	case gap == 0:
		return StreakSameDay
	case gap == 1:
		s.Current++
		s.Best = max(s.Best, s.Current)
		s.LastActivity = &date
		return StreakExtended
	case gap < 0:
		return StreakBackfill
	default:
		s.Current = 1
		s.Best = max(s.Best, s.Current)
		s.LastActivity = &date
		return StreakReset
	}
}
