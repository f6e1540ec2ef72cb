package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifequest/lifequest-core/internal/domain/directory"
	"github.com/lifequest/lifequest-core/internal/domain/progress"
	"github.com/lifequest/lifequest-core/internal/domain/reward"
	"github.com/lifequest/lifequest-core/internal/domain/shared"
	"github.com/lifequest/lifequest-core/internal/domain/tasklog"
	"github.com/lifequest/lifequest-core/internal/domain/uow"
	"github.com/lifequest/lifequest-core/pkg/timeutil"
)

func seeded(t *testing.T) (*Store, uuid.UUID) {
	t.Helper()
	s := NewStore()
	userID := uuid.New()
	s.PutUser(directory.User{ID: userID, Timezone: "UTC", FirstDayOfWeek: 1})
	s.PutCategory(directory.Category{ID: 1, Key: "fitness", Name: "Fitness"})
	s.PutCategory(directory.Category{ID: 2, Key: "study", Name: "Study"})
	return s, userID
}

func TestWithinTx_CommitsOnSuccess(t *testing.T) {
	s, userID := seeded(t)
	ctx := context.Background()

	err := s.WithinTx(ctx, func(ctx context.Context, st uow.Store) error {
		level, err := st.Levels().LockOrCreate(ctx, userID)
		require.NoError(t, err)
		_, err = level.ApplyXP(130, time.Now())
		require.NoError(t, err)
		return st.Levels().Save(ctx, level)
	})
	require.NoError(t, err)

	level, ok := s.Level(userID)
	require.True(t, ok)
	assert.Equal(t, 2, level.Level)
	assert.Equal(t, int64(30), level.XP)
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	s, userID := seeded(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(ctx context.Context, st uow.Store) error {
		require.NoError(t, st.TaskLogs().Insert(ctx, &tasklog.Event{ID: uuid.New(), UserID: userID, CategoryID: 1}))
		_, err := st.Snapshots().Upsert(ctx, progress.SnapshotKey{
			UserID: userID, CategoryID: 1, Period: timeutil.PeriodDay, PeriodStart: time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC),
		}, progress.SnapshotDelta{Points: 5, XP: 5}, time.Now())
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, s.Events(userID))
	assert.Zero(t, s.SnapshotCount())
}

func TestWithinTx_InjectedFault(t *testing.T) {
	s, userID := seeded(t)
	ctx := context.Background()
	boom := errors.New("disk full")
	s.InjectFault("streaks.save", boom)

	err := s.WithinTx(ctx, func(ctx context.Context, st uow.Store) error {
		streak, err := st.Streaks().LockOrCreate(ctx, userID, 1)
		require.NoError(t, err)
		streak.Record(time.Now())
		return st.Streaks().Save(ctx, streak)
	})
	assert.ErrorIs(t, err, boom)
	_, ok := s.Streak(userID, 1)
	assert.False(t, ok)

	s.InjectFault("streaks.save", nil)
	err = s.WithinTx(ctx, func(ctx context.Context, st uow.Store) error {
		streak, err := st.Streaks().LockOrCreate(ctx, userID, 1)
		require.NoError(t, err)
		streak.Record(time.Now())
		return st.Streaks().Save(ctx, streak)
	})
	require.NoError(t, err)
	_, ok = s.Streak(userID, 1)
	assert.True(t, ok)
}

func TestWithinTx_CancelledContext(t *testing.T) {
	s, _ := seeded(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.WithinTx(ctx, func(context.Context, uow.Store) error { called = true; return nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestResolveTask(t *testing.T) {
	s, userID := seeded(t)
	active := directory.TaskRef{ID: uuid.New(), UserID: userID, CategoryID: 1, Active: true}
	inactive := directory.TaskRef{ID: uuid.New(), UserID: userID, CategoryID: 1}
	foreign := directory.TaskRef{ID: uuid.New(), UserID: uuid.New(), CategoryID: 1, Active: true}
	for _, task := range []directory.TaskRef{active, inactive, foreign} {
		s.PutTask(task)
	}

	_ = s.WithinTx(context.Background(), func(ctx context.Context, st uow.Store) error {
		got, err := st.Tasks().ResolveTask(ctx, active.ID, userID)
		require.NoError(t, err)
		assert.Equal(t, active.ID, got.ID)

		for _, id := range []uuid.UUID{inactive.ID, foreign.ID, uuid.New()} {
			_, err := st.Tasks().ResolveTask(ctx, id, userID)
			assert.True(t, shared.IsNotFound(err))
		}
		return nil
	})
}

func TestSnapshots_UpsertAccumulatesAndLists(t *testing.T) {
	s, userID := seeded(t)
	weekStart := time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC)
	key := progress.SnapshotKey{UserID: userID, CategoryID: 1, Period: timeutil.PeriodWeek, PeriodStart: weekStart}

	err := s.WithinTx(context.Background(), func(ctx context.Context, st uow.Store) error {
		for range 3 {
			if _, err := st.Snapshots().Upsert(ctx, key, progress.SnapshotDelta{Points: 4, XP: 10}, weekStart); err != nil {
				return err
			}
		}
		other := key
		other.CategoryID = 2
		_, err := st.Snapshots().Upsert(ctx, other, progress.SnapshotDelta{Points: 1}, weekStart)
		return err
	})
	require.NoError(t, err)

	snap, ok := s.Snapshot(key)
	require.True(t, ok)
	assert.Equal(t, int64(12), snap.Points)
	assert.Equal(t, int64(30), snap.XP)

	_ = s.WithinTx(context.Background(), func(ctx context.Context, st uow.Store) error {
		list, err := st.Snapshots().ListForPeriod(ctx, userID, timeutil.PeriodWeek, weekStart)
		require.NoError(t, err)
		assert.Len(t, list, 2)

		_, err = st.Snapshots().Upsert(ctx, progress.SnapshotKey{UserID: userID, CategoryID: 1}, progress.SnapshotDelta{}, weekStart)
		assert.True(t, shared.IsValidation(err))
		return nil
	})
}

func TestCountsAndStreaks(t *testing.T) {
	s, userID := seeded(t)
	taskID := uuid.New()
	base := time.Date(2024, 5, 15, 9, 0, 0, 0, time.UTC)

	err := s.WithinTx(context.Background(), func(ctx context.Context, st uow.Store) error {
		for i, cat := range []int64{1, 1, 2} {
			e := &tasklog.Event{ID: uuid.New(), UserID: userID, CategoryID: cat, OccurredAt: base.Add(time.Duration(i) * 24 * time.Hour)}
			if cat == 1 {
				e.TaskID = &taskID
			}
			if err := st.TaskLogs().Insert(ctx, e); err != nil {
				return err
			}
		}
		for _, cat := range []int64{1, 2} {
			streak, err := st.Streaks().LockOrCreate(ctx, userID, cat)
			if err != nil {
				return err
			}
			for d := range int(cat) * 2 {
				streak.Record(base.AddDate(0, 0, d))
			}
			if err := st.Streaks().Save(ctx, streak); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	_ = s.WithinTx(context.Background(), func(ctx context.Context, st uow.Store) error {
		n, _ := st.TaskLogs().CountByUser(ctx, userID)
		assert.Equal(t, int64(3), n)
		n, _ = st.TaskLogs().CountByCategoryKey(ctx, userID, "fitness")
		assert.Equal(t, int64(2), n)
		n, _ = st.TaskLogs().CountForTask(ctx, userID, taskID, timeutil.Window{Start: base, End: base.Add(24 * time.Hour)})
		assert.Equal(t, int64(1), n)

		best, _ := st.Streaks().MaxCurrent(ctx, userID, "")
		assert.Equal(t, 4, best)
		best, _ = st.Streaks().MaxCurrent(ctx, userID, "fitness")
		assert.Equal(t, 2, best)
		return nil
	})
}

func TestGrantsAreUnique(t *testing.T) {
	s, userID := seeded(t)
	rewardID := uuid.New()
	at := time.Now()

	_ = s.WithinTx(context.Background(), func(ctx context.Context, st uow.Store) error {
		inserted, err := st.Grants().InsertGrant(ctx, reward.Grant{UserID: userID, RewardID: rewardID, GrantedAt: at})
		require.NoError(t, err)
		assert.True(t, inserted)
		inserted, err = st.Grants().InsertGrant(ctx, reward.Grant{UserID: userID, RewardID: rewardID, GrantedAt: at})
		require.NoError(t, err)
		assert.False(t, inserted)

		added, _ := st.Grants().AddCosmetic(ctx, userID, "golden_frame", at)
		assert.True(t, added)
		added, _ = st.Grants().AddCosmetic(ctx, userID, "golden_frame", at)
		assert.False(t, added)
		return nil
	})

	assert.Equal(t, 1, s.GrantCount(userID))
	assert.True(t, s.OwnsCosmetic(userID, "golden_frame"))
}

func TestCatalog_UpsertByKey(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	first := &reward.Definition{Key: "first_steps", Name: "First steps", ConditionType: "tasks_completed", Threshold: "1", Active: true}
	require.NoError(t, s.UpsertDefinition(ctx, first))
	require.NotEqual(t, uuid.Nil, first.ID)

	again := &reward.Definition{Key: "first_steps", Name: "Renamed", ConditionType: "tasks_completed", Threshold: "1", Active: true}
	require.NoError(t, s.UpsertDefinition(ctx, again))
	assert.Equal(t, first.ID, again.ID)

	require.NoError(t, s.UpsertDefinition(ctx, &reward.Definition{Key: "archived", Active: false}))
	require.NoError(t, s.UpsertDefinition(ctx, &reward.Definition{Key: "a_badge", Active: true}))

	defs, err := s.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "a_badge", defs[0].Key)
	assert.Equal(t, "Renamed", defs[1].Name)
}
