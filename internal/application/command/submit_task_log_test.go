package command

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifequest/lifequest-core/internal/domain/directory"
	"github.com/lifequest/lifequest-core/internal/domain/progress"
	"github.com/lifequest/lifequest-core/internal/domain/reward"
	"github.com/lifequest/lifequest-core/internal/domain/shared"
	"github.com/lifequest/lifequest-core/internal/infrastructure/persistence/memory"
	"github.com/lifequest/lifequest-core/pkg/timeutil"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *recordingPublisher) Publish(e shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []shared.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]shared.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

type fixture struct {
	store     *memory.Store
	handler   *SubmitTaskLogHandler
	publisher *recordingPublisher
	userID    uuid.UUID
	taskID    uuid.UUID
	now       time.Time
}

const fitness int64 = 1

func ptr[T any](v T) *T { return &v }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	userID := uuid.New()
	taskID := uuid.New()
	now := time.Date(2024, 5, 15, 18, 0, 0, 0, time.UTC)

	store.PutUser(directory.User{ID: userID, Timezone: "UTC", FirstDayOfWeek: 1})
	store.PutCategory(directory.Category{ID: fitness, Key: "fitness", Name: "Fitness"})
	store.PutSetting(directory.CategorySetting{UserID: userID, CategoryID: fitness, CategoryKey: "fitness", WeeklyTargetPoints: 20, Enabled: true})
	store.PutTask(directory.TaskRef{
		ID:         taskID,
		UserID:     userID,
		CategoryID: fitness,
		Active:     true,
		XPOverride: ptr(int64(40)),
		Template:   &directory.Template{ID: 7, DefaultXP: ptr(int64(15)), DefaultPoints: ptr(int64(5)), Unit: ptr("km")},
	})

	pub := &recordingPublisher{}
	h := NewSubmitTaskLogHandler(store, store, nil, pub, timeutil.FixedClock(now), nil)
	return &fixture{store: store, handler: h, publisher: pub, userID: userID, taskID: taskID, now: now}
}

func (f *fixture) taskCmd(at time.Time) SubmitTaskLogCommand {
	return SubmitTaskLogCommand{UserID: f.userID, TaskID: &f.taskID, OccurredAt: &at}
}

func TestSubmitTaskLog_TaskWithQuantity(t *testing.T) {
	f := newFixture(t)
	at := time.Date(2024, 5, 15, 9, 30, 0, 0, time.UTC)
	cmd := f.taskCmd(at)
	cmd.Quantity = ptr(decimal.NewFromInt(2))

	res, err := f.handler.Handle(context.Background(), cmd)
	require.NoError(t, err)

	assert.Equal(t, int64(80), res.Event.XPAwarded)
	assert.Equal(t, int64(10), res.Event.PointsAwarded)
	assert.Equal(t, fitness, res.Event.CategoryID)
	require.NotNil(t, res.Event.Unit)
	assert.Equal(t, "km", *res.Event.Unit)

	level, ok := f.store.Level(f.userID)
	require.True(t, ok)
	assert.Equal(t, 1, level.Level)
	assert.Equal(t, int64(80), level.XP)
	assert.Equal(t, int64(100), level.XPToNext())

	streak, ok := f.store.Streak(f.userID, fitness)
	require.True(t, ok)
	assert.Equal(t, 1, streak.Current)
	assert.Equal(t, 1, streak.Best)
	assert.Equal(t, progress.StreakStarted, res.StreakOutcome)

	day, ok := f.store.Snapshot(progress.SnapshotKey{UserID: f.userID, CategoryID: fitness, Period: timeutil.PeriodDay, PeriodStart: time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC)})
	require.True(t, ok)
	assert.Equal(t, int64(10), day.Points)
	assert.Equal(t, int64(80), day.XP)

	week, ok := f.store.Snapshot(progress.SnapshotKey{UserID: f.userID, CategoryID: fitness, Period: timeutil.PeriodWeek, PeriodStart: time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC)})
	require.True(t, ok)
	assert.Equal(t, int64(10), week.Points)

	ledger := f.store.XPEvents(f.userID)
	require.Len(t, ledger, 1)
	assert.Equal(t, int64(80), ledger[0].Delta)

	assert.Equal(t, []shared.EventType{shared.EventTaskLogged, shared.EventStreakUpdated}, f.publisher.types())
}

func TestSubmitTaskLog_CategoryOnlyAwardsNothing(t *testing.T) {
	f := newFixture(t)

	res, err := f.handler.Handle(context.Background(), SubmitTaskLogCommand{UserID: f.userID, CategoryID: ptr(fitness)})
	require.NoError(t, err)

	assert.Zero(t, res.Event.XPAwarded)
	assert.Zero(t, res.Event.PointsAwarded)
	assert.True(t, res.Event.OccurredAt.Equal(f.now))
	assert.Empty(t, f.store.XPEvents(f.userID))

	level, ok := f.store.Level(f.userID)
	require.True(t, ok)
	assert.Equal(t, 1, level.Level)
	assert.Zero(t, level.XP)
	assert.Equal(t, 2, f.store.SnapshotCount())
}

func TestSubmitTaskLog_Rejections(t *testing.T) {
	f := newFixture(t)
	other := uuid.New()
	f.store.PutTask(directory.TaskRef{ID: other, UserID: uuid.New(), CategoryID: fitness, Active: true})

	tests := []struct {
		name     string
		cmd      SubmitTaskLogCommand
		notFound bool
	}{
		{"unknown user", SubmitTaskLogCommand{UserID: uuid.New(), CategoryID: ptr(fitness)}, true},
		{"foreign task", SubmitTaskLogCommand{UserID: f.userID, TaskID: &other}, true},
		{"unknown task", SubmitTaskLogCommand{UserID: f.userID, TaskID: ptr(uuid.New())}, true},
		{"unknown category", SubmitTaskLogCommand{UserID: f.userID, CategoryID: ptr(int64(99))}, true},
		{"no task or category", SubmitTaskLogCommand{UserID: f.userID}, false},
		{"zero quantity", SubmitTaskLogCommand{UserID: f.userID, CategoryID: ptr(fitness), Quantity: ptr(decimal.Zero)}, false},
		{"missing user", SubmitTaskLogCommand{CategoryID: ptr(fitness)}, false},
		{"quantity finer than cents", SubmitTaskLogCommand{UserID: f.userID, TaskID: &f.taskID, Quantity: ptr(decimal.RequireFromString("1.005"))}, false},
		{"quantity above column range", SubmitTaskLogCommand{UserID: f.userID, TaskID: &f.taskID, Quantity: ptr(decimal.RequireFromString("1e18"))}, false},
		{"award above integer range", SubmitTaskLogCommand{UserID: f.userID, TaskID: &f.taskID, Quantity: ptr(decimal.RequireFromString("99999999.99"))}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.handler.Handle(context.Background(), tt.cmd)
			require.Error(t, err)
			if tt.notFound {
				assert.True(t, shared.IsNotFound(err), err)
			} else {
				assert.True(t, shared.IsValidation(err), err)
			}
		})
	}

	assert.Empty(t, f.store.Events(f.userID))
	assert.Zero(t, f.store.SnapshotCount())
	assert.Empty(t, f.publisher.types())
}

func TestSubmitTaskLog_FailureRollsBackEverything(t *testing.T) {
	f := newFixture(t)
	f.store.InjectFault("snapshots.upsert", errors.New("write failed"))

	_, err := f.handler.Handle(context.Background(), f.taskCmd(f.now))
	require.Error(t, err)

	assert.Empty(t, f.store.Events(f.userID))
	assert.Empty(t, f.store.XPEvents(f.userID))
	_, ok := f.store.Level(f.userID)
	assert.False(t, ok)
	_, ok = f.store.Streak(f.userID, fitness)
	assert.False(t, ok)
	assert.Empty(t, f.publisher.types())
}

func TestSubmitTaskLog_GrantsRewardOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.UpsertDefinition(ctx, &reward.Definition{
		Key: "five_done", Name: "Five done", Kind: reward.KindCosmetic, ItemKey: "bronze_frame",
		ConditionType: reward.ConditionTasksCompleted, Threshold: "5", Active: true,
	}))

	for i := range 7 {
		res, err := f.handler.Handle(ctx, SubmitTaskLogCommand{UserID: f.userID, CategoryID: ptr(fitness)})
		require.NoError(t, err)
		if i == 4 {
			require.Len(t, res.Rewards, 1)
			assert.Equal(t, "five_done", res.Rewards[0].Key)
		} else {
			assert.Empty(t, res.Rewards, "submission %d", i+1)
		}
	}

	assert.Equal(t, 1, f.store.GrantCount(f.userID))
	assert.True(t, f.store.OwnsCosmetic(f.userID, "bronze_frame"))
	assert.Contains(t, f.publisher.types(), shared.EventRewardUnlocked)
}

func TestSubmitTaskLog_LevelUpAndStreakBackfill(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.handler.Handle(ctx, f.taskCmd(time.Date(2024, 5, 14, 8, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	_, err = f.handler.Handle(ctx, f.taskCmd(time.Date(2024, 5, 15, 8, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	res, err := f.handler.Handle(ctx, f.taskCmd(time.Date(2024, 5, 12, 8, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	assert.Equal(t, progress.StreakBackfill, res.StreakOutcome)
	assert.Equal(t, 2, res.Streak.Current)
	assert.True(t, res.LevelChange.LeveledUp())
	assert.Equal(t, 2, res.Level.Level)
	assert.Equal(t, int64(20), res.Level.XP)
	assert.Contains(t, f.publisher.types(), shared.EventLevelUp)
}

func TestSubmitTaskLog_ConcurrentSubmissionsAreSerialized(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	const n = 25

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.handler.Handle(ctx, f.taskCmd(f.now))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	level, ok := f.store.Level(f.userID)
	require.True(t, ok)
	assert.Equal(t, int64(n*40), level.TotalXP())

	week, ok := f.store.Snapshot(progress.SnapshotKey{UserID: f.userID, CategoryID: fitness, Period: timeutil.PeriodWeek, PeriodStart: time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC)})
	require.True(t, ok)
	assert.Equal(t, int64(n*5), week.Points)
	assert.Len(t, f.store.Events(f.userID), n)
}
