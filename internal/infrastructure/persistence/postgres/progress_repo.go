package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lifequest/lifequest-core/internal/domain/progress"
	"github.com/lifequest/lifequest-core/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEVEL REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

type levelRepo struct {
	q Querier
}

var _ progress.LevelRepository = (*levelRepo)(nil)

const selectLevel = `
	SELECT user_id, current_level, current_xp, last_update_at FROM user_levels WHERE user_id = $1
`

func (r *levelRepo) LockOrCreate(ctx context.Context, userID uuid.UUID) (*progress.LevelState, error) {
	_, err := r.q.Exec(ctx, `
		INSERT INTO user_levels (user_id, current_level, current_xp, xp_to_next)
		VALUES ($1, 1, 0, $2)
		ON CONFLICT (user_id) DO NOTHING
	`, userID, progress.Threshold(1))
	if err != nil {
		return nil, fmt.Errorf("failed to create level: %w", err)
	}

	var s progress.LevelState
	err = r.q.QueryRow(ctx, selectLevel+" FOR UPDATE", userID).Scan(&s.UserID, &s.Level, &s.XP, &s.LastUpdateAt)
	if err != nil {
		return nil, fmt.Errorf("failed to lock level: %w", err)
	}
	return &s, nil
}

func (r *levelRepo) Save(ctx context.Context, s *progress.LevelState) error {
	_, err := r.q.Exec(ctx, `
		UPDATE user_levels
		SET current_level = $2, current_xp = $3, xp_to_next = $4, last_update_at = $5
		WHERE user_id = $1
	`, s.UserID, s.Level, s.XP, s.XPToNext(), s.LastUpdateAt)
	if err != nil {
		return fmt.Errorf("failed to save level: %w", err)
	}
	return nil
}

func (r *levelRepo) Get(ctx context.Context, userID uuid.UUID) (*progress.LevelState, error) {
	var s progress.LevelState
	err := r.q.QueryRow(ctx, selectLevel, userID).Scan(&s.UserID, &s.Level, &s.XP, &s.LastUpdateAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get level: %w", err)
	}
	return &s, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// STREAK REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

type streakRepo struct {
	q Querier
}

var _ progress.StreakRepository = (*streakRepo)(nil)

func (r *streakRepo) LockOrCreate(ctx context.Context, userID uuid.UUID, categoryID int64) (*progress.Streak, error) {
	_, err := r.q.Exec(ctx, `
		INSERT INTO streaks (user_id, category_id) VALUES ($1, $2)
		ON CONFLICT (user_id, category_id) DO NOTHING
	`, userID, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to create streak: %w", err)
	}

	var s progress.Streak
	err = r.q.QueryRow(ctx, `
		SELECT user_id, category_id, current_streak_days, best_streak_days, last_activity_date
		FROM streaks
		WHERE user_id = $1 AND category_id = $2
		FOR UPDATE
	`, userID, categoryID).Scan(&s.UserID, &s.CategoryID, &s.Current, &s.Best, &s.LastActivity)
	if err != nil {
		return nil, fmt.Errorf("failed to lock streak: %w", err)
	}
	if s.LastActivity != nil {
		d := timeutil.DateOf(*s.LastActivity)
		s.LastActivity = &d
	}
	return &s, nil
}

func (r *streakRepo) Save(ctx context.Context, s *progress.Streak) error {
	_, err := r.q.Exec(ctx, `
		UPDATE streaks
		SET current_streak_days = $3, best_streak_days = $4, last_activity_date = $5
		WHERE user_id = $1 AND category_id = $2
	`, s.UserID, s.CategoryID, s.Current, s.Best, s.LastActivity)
	if err != nil {
		return fmt.Errorf("failed to save streak: %w", err)
	}
	return nil
}

func (r *streakRepo) MaxCurrent(ctx context.Context, userID uuid.UUID, categoryKey string) (int, error) {
	var best int
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(MAX(s.current_streak_days), 0)
		FROM streaks s
		JOIN categories c ON c.id = s.category_id
		WHERE s.user_id = $1 AND ($2 = '' OR c.key = $2)
	`, userID, categoryKey).Scan(&best)
	if err != nil {
		return 0, fmt.Errorf("failed to read max streak: %w", err)
	}
	return best, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SNAPSHOT REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

type snapshotRepo struct {
	q Querier
}

var _ progress.SnapshotRepository = (*snapshotRepo)(nil)

func (r *snapshotRepo) Upsert(ctx context.Context, key progress.SnapshotKey, delta progress.SnapshotDelta, at time.Time) (*progress.Snapshot, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	snap := progress.Snapshot{SnapshotKey: key}
	err := r.q.QueryRow(ctx, `
		INSERT INTO progress_snapshots (
			user_id, category_id, period, period_start_date, points_total, xp_total, computed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, category_id, period, period_start_date) DO UPDATE SET
			points_total = progress_snapshots.points_total + EXCLUDED.points_total,
			xp_total = progress_snapshots.xp_total + EXCLUDED.xp_total,
			computed_at = EXCLUDED.computed_at
		RETURNING points_total, xp_total, computed_at
	`,
		key.UserID, key.CategoryID, string(key.Period), key.PeriodStart,
		delta.Points, delta.XP, at.UTC(),
	).Scan(&snap.Points, &snap.XP, &snap.ComputedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert snapshot: %w", err)
	}
	return &snap, nil
}

func (r *snapshotRepo) ListForPeriod(ctx context.Context, userID uuid.UUID, period timeutil.PeriodKind, periodStart time.Time) ([]progress.Snapshot, error) {
	rows, err := r.q.Query(ctx, `
		SELECT category_id, points_total, xp_total, computed_at
		FROM progress_snapshots
		WHERE user_id = $1 AND period = $2 AND period_start_date = $3
	`, userID, string(period), periodStart)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var out []progress.Snapshot
	for rows.Next() {
		s := progress.Snapshot{SnapshotKey: progress.SnapshotKey{UserID: userID, Period: period, PeriodStart: periodStart}}
		if err := rows.Scan(&s.CategoryID, &s.Points, &s.XP, &s.ComputedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
