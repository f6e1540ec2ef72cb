package reward

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lifequest/lifequest-core/internal/domain/directory"
	"github.com/lifequest/lifequest-core/internal/domain/progress"
	"github.com/lifequest/lifequest-core/internal/domain/tasklog"
	"github.com/lifequest/lifequest-core/pkg/timeutil"
)

// RepositoryFacts answers Facts from the aggregate repositories of one
// unit of work.
type RepositoryFacts struct {
	TaskLogs   tasklog.Repository
	Streaks    progress.StreakRepository
	Snapshots  progress.SnapshotRepository
	Categories directory.CategoryCatalog
}

var _ Facts = (*RepositoryFacts)(nil)

func (f *RepositoryFacts) CountTaskLogs(ctx context.Context, userID uuid.UUID) (int64, error) {
	return f.TaskLogs.CountByUser(ctx, userID)
}

func (f *RepositoryFacts) CountTaskLogsInCategory(ctx context.Context, userID uuid.UUID, categoryKey string) (int64, error) {
	return f.TaskLogs.CountByCategoryKey(ctx, userID, categoryKey)
}

func (f *RepositoryFacts) MaxCurrentStreak(ctx context.Context, userID uuid.UUID, categoryKey string) (int, error) {
	return f.Streaks.MaxCurrent(ctx, userID, categoryKey)
}

func (f *RepositoryFacts) WeeklyBalance(ctx context.Context, userID uuid.UUID, weekStart time.Time) ([]CategoryBalance, error) {
	settings, err := f.Categories.EnabledSettings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load category settings: %w", err)
	}
	if len(settings) == 0 {
		return nil, nil
	}

	snaps, err := f.Snapshots.ListForPeriod(ctx, userID, timeutil.PeriodWeek, weekStart)
	if err != nil {
		return nil, fmt.Errorf("load week snapshots: %w", err)
	}
	earned := make(map[int64]int64, len(snaps))
	for _, s := range snaps {
		earned[s.CategoryID] = s.Points
	}

	out := make([]CategoryBalance, 0, len(settings))
	for _, s := range settings {
		out = append(out, CategoryBalance{
			CategoryID:   s.CategoryID,
			CategoryKey:  s.CategoryKey,
			TargetPoints: s.WeeklyTargetPoints,
			EarnedPoints: earned[s.CategoryID],
		})
	}
	return out, nil
}
