package progress

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lifequest/lifequest-core/pkg/timeutil"
)

// LevelRepository persists LevelState rows.
type LevelRepository interface {
	// LockOrCreate returns the user's level state, creating the initial
	// state if absent. The row stays locked until the transaction ends.
	LockOrCreate(ctx context.Context, userID uuid.UUID) (*LevelState, error)

	// Save writes back a state obtained from LockOrCreate.
	Save(ctx context.Context, state *LevelState) error

	// Get returns the state without locking, or nil if none exists.
	Get(ctx context.Context, userID uuid.UUID) (*LevelState, error)
}

// StreakRepository persists Streak rows.
type StreakRepository interface {
	// LockOrCreate returns the streak for (user, category), creating an
	// empty one if absent. The row stays locked until the transaction ends.
	LockOrCreate(ctx context.Context, userID uuid.UUID, categoryID int64) (*Streak, error)

	// Save writes back a streak obtained from LockOrCreate.
	Save(ctx context.Context, streak *Streak) error

	// MaxCurrent returns the highest current streak of the user, limited
	// to the category with categoryKey unless it is empty.
	MaxCurrent(ctx context.Context, userID uuid.UUID, categoryKey string) (int, error)
}

// SnapshotRepository persists Snapshot rows.
type SnapshotRepository interface {
	// Upsert adds delta to the bucket, creating it with zero totals first
	// if needed, and returns the resulting row.
	Upsert(ctx context.Context, key SnapshotKey, delta SnapshotDelta, at time.Time) (*Snapshot, error)

	// ListForPeriod returns the user's buckets of one period start.
	ListForPeriod(ctx context.Context, userID uuid.UUID, period timeutil.PeriodKind, periodStart time.Time) ([]Snapshot, error)
}
