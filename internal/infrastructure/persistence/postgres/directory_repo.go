package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/lifequest/lifequest-core/internal/domain/directory"
	"github.com/lifequest/lifequest-core/internal/domain/shared"
	"github.com/lifequest/lifequest-core/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// DIRECTORY REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

type directoryRepo struct {
	q Querier
}

var (
	_ directory.UserDirectory   = (*directoryRepo)(nil)
	_ directory.CategoryCatalog = (*directoryRepo)(nil)
	_ directory.TaskCatalog     = (*directoryRepo)(nil)
)

func (r *directoryRepo) GetUser(ctx context.Context, id uuid.UUID) (*directory.User, error) {
	var u directory.User
	err := r.q.QueryRow(ctx, `
		SELECT id, timezone, first_day_of_week FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.Timezone, &u.FirstDayOfWeek)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

func (r *directoryRepo) GetCategory(ctx context.Context, id int64) (*directory.Category, error) {
	var c directory.Category
	err := r.q.QueryRow(ctx, `
		SELECT id, key, name FROM categories WHERE id = $1
	`, id).Scan(&c.ID, &c.Key, &c.Name)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &c, nil
}

func (r *directoryRepo) EnabledSettings(ctx context.Context, userID uuid.UUID) ([]directory.CategorySetting, error) {
	rows, err := r.q.Query(ctx, `
		SELECT s.user_id, s.category_id, c.key, s.weekly_target_points, s.is_enabled
		FROM user_category_settings s
		JOIN categories c ON c.id = s.category_id
		WHERE s.user_id = $1 AND s.is_enabled
		ORDER BY c.order_index, c.id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query category settings: %w", err)
	}
	defer rows.Close()

	var out []directory.CategorySetting
	for rows.Next() {
		var s directory.CategorySetting
		if err := rows.Scan(&s.UserID, &s.CategoryID, &s.CategoryKey, &s.WeeklyTargetPoints, &s.Enabled); err != nil {
			return nil, fmt.Errorf("failed to scan category setting: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *directoryRepo) ResolveTask(ctx context.Context, taskID, userID uuid.UUID) (*directory.TaskRef, error) {
	var (
		t          directory.TaskRef
		period     string
		templateID *int64
		tpl        directory.Template
	)
	err := r.q.QueryRow(ctx, `
		SELECT t.id, t.user_id, t.category_id, t.is_active, t.custom_xp, t.custom_points,
		       t.schedule_period, t.schedule_interval, t.target_occurrences,
		       tt.id, tt.default_xp, tt.default_points, tt.unit
		FROM user_tasks t
		LEFT JOIN task_templates tt ON tt.id = t.template_id
		WHERE t.id = $1 AND t.user_id = $2 AND t.is_active
	`, taskID, userID).Scan(
		&t.ID, &t.UserID, &t.CategoryID, &t.Active, &t.XPOverride, &t.PointsOverride,
		&period, &t.ScheduleInterval, &t.TargetOccurrences,
		&templateID, &tpl.DefaultXP, &tpl.DefaultPoints, &tpl.Unit,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to resolve task: %w", err)
	}

	if kind, err := timeutil.ParsePeriodKind(period); err == nil {
		t.SchedulePeriod = kind
	}
	if templateID != nil {
		tpl.ID = *templateID
		t.Template = &tpl
	}
	return &t, nil
}
