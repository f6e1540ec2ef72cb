package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/lifequest/lifequest-core/internal/domain/tasklog"
	"github.com/lifequest/lifequest-core/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// TASK LOG REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

type taskLogRepo struct {
	q Querier
}

var _ tasklog.Repository = (*taskLogRepo)(nil)

func (r *taskLogRepo) Insert(ctx context.Context, e *tasklog.Event) error {
	var quantity *string
	if e.Quantity != nil {
		s := e.Quantity.String()
		quantity = &s
	}

	_, err := r.q.Exec(ctx, `
		INSERT INTO task_logs (
			id, user_id, user_task_id, category_id, occurred_at, quantity,
			unit, notes, xp_awarded, points_awarded, source, created_at
		) VALUES ($1, $2, $3, $4, $5, CAST($6::text AS NUMERIC), $7, $8, $9, $10, $11, $12)
	`,
		e.ID, e.UserID, e.TaskID, e.CategoryID, e.OccurredAt, quantity,
		e.Unit, e.Notes, e.XPAwarded, e.PointsAwarded, string(e.Source), e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert task log: %w", err)
	}
	return nil
}

func (r *taskLogRepo) InsertXPEvent(ctx context.Context, x *tasklog.XPEvent) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO xp_events (id, user_id, category_id, source_type, source_id, delta_xp, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, x.ID, x.UserID, x.CategoryID, string(x.SourceType), x.SourceID, x.Delta, x.OccurredAt)
	if err != nil {
		return fmt.Errorf("failed to insert xp event: %w", err)
	}
	return nil
}

func (r *taskLogRepo) count(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	if err := r.q.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count task logs: %w", err)
	}
	return n, nil
}

func (r *taskLogRepo) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM task_logs WHERE user_id = $1`, userID)
}

func (r *taskLogRepo) CountByCategoryKey(ctx context.Context, userID uuid.UUID, categoryKey string) (int64, error) {
	return r.count(ctx, `
		SELECT COUNT(*)
		FROM task_logs l
		JOIN categories c ON c.id = l.category_id
		WHERE l.user_id = $1 AND c.key = $2
	`, userID, categoryKey)
}

func (r *taskLogRepo) CountForTask(ctx context.Context, userID, taskID uuid.UUID, window timeutil.Window) (int64, error) {
	return r.count(ctx, `
		SELECT COUNT(*)
		FROM task_logs
		WHERE user_id = $1 AND user_task_id = $2 AND occurred_at >= $3 AND occurred_at < $4
	`, userID, taskID, window.Start, window.End)
}
