package progress

import (
	"time"

	"github.com/google/uuid"

	"github.com/lifequest/lifequest-core/internal/domain/shared"
	"github.com/lifequest/lifequest-core/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// PERIOD SNAPSHOTS
// ══════════════════════════════════════════════════════════════════════════════

// SnapshotKey identifies one cumulative bucket.
type SnapshotKey struct {
	UserID      uuid.UUID
	CategoryID  int64
	Period      timeutil.PeriodKind
	PeriodStart time.Time // calendar date
}

// Validate rejects keys that cannot address a bucket.
func (k SnapshotKey) Validate() error {
	if k.UserID == uuid.Nil || k.CategoryID == 0 || k.PeriodStart.IsZero() {
		return shared.ErrInvalidSnapKey
	}
	if k.Period != timeutil.PeriodDay && k.Period != timeutil.PeriodWeek {
		return shared.ErrInvalidSnapKey
	}
	return nil
}

// SnapshotDelta is the amount added to a bucket by one event.
type SnapshotDelta struct {
	Points int64
	XP     int64
}

// Snapshot is the running total of one bucket.
type Snapshot struct {
	SnapshotKey
	Points     int64
	XP         int64
	ComputedAt time.Time
}

// Add applies delta. Totals only grow since deltas are non-negative.
func (s *Snapshot) Add(delta SnapshotDelta, at time.Time) {
	s.Points += delta.Points
	s.XP += delta.XP
	s.ComputedAt = at.UTC()
}

// SnapshotKeysFor returns the day and week buckets containing occurredAt.
// Both are interval-1 windows computed on the reference-zone date.
func SnapshotKeysFor(userID uuid.UUID, categoryID int64, occurredAt time.Time, firstDayOfWeek int) []SnapshotKey {
	at := timeutil.ToReference(occurredAt)
	day := timeutil.Resolve(timeutil.PeriodDay, at, firstDayOfWeek, 1)
	week := timeutil.Resolve(timeutil.PeriodWeek, at, firstDayOfWeek, 1)

	return []SnapshotKey{
		{UserID: userID, CategoryID: categoryID, Period: timeutil.PeriodDay, PeriodStart: day.StartDate()},
		{UserID: userID, CategoryID: categoryID, Period: timeutil.PeriodWeek, PeriodStart: week.StartDate()},
	}
}
