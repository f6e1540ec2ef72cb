package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lifequest/lifequest-core/internal/domain/directory"
	"github.com/lifequest/lifequest-core/internal/domain/progress"
	"github.com/lifequest/lifequest-core/internal/domain/reward"
	"github.com/lifequest/lifequest-core/internal/domain/shared"
	"github.com/lifequest/lifequest-core/internal/domain/tasklog"
	"github.com/lifequest/lifequest-core/internal/domain/uow"
	"github.com/lifequest/lifequest-core/pkg/timeutil"
)

// tx is the uow.Store of one transaction. It implements every repository
// on the transaction's private copy.
type tx struct {
	d      *data
	faults map[string]error
}

var _ uow.Store = (*tx)(nil)

func (t *tx) Users() directory.UserDirectory       { return t }
func (t *tx) Categories() directory.CategoryCatalog { return t }
func (t *tx) Tasks() directory.TaskCatalog          { return t }
func (t *tx) TaskLogs() tasklog.Repository          { return t }
func (t *tx) Levels() progress.LevelRepository      { return levels{t} }
func (t *tx) Streaks() progress.StreakRepository    { return streaks{t} }
func (t *tx) Snapshots() progress.SnapshotRepository {
	return snapshots{t}
}
func (t *tx) Grants() reward.GrantRepository { return t }

func (t *tx) fault(op string) error {
	return t.faults[op]
}

// ══════════════════════════════════════════════════════════════════════════════
// DIRECTORY
// ══════════════════════════════════════════════════════════════════════════════

func (t *tx) GetUser(ctx context.Context, id uuid.UUID) (*directory.User, error) {
	u, ok := t.d.users[id]
	if !ok {
		return nil, shared.ErrUserNotFound
	}
	return &u, nil
}

func (t *tx) GetCategory(ctx context.Context, id int64) (*directory.Category, error) {
	c, ok := t.d.categories[id]
	if !ok {
		return nil, shared.ErrCategoryNotFound
	}
	return &c, nil
}

func (t *tx) EnabledSettings(ctx context.Context, userID uuid.UUID) ([]directory.CategorySetting, error) {
	var out []directory.CategorySetting
	for _, s := range t.d.settings[userID] {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out, nil
}

func (t *tx) ResolveTask(ctx context.Context, taskID, userID uuid.UUID) (*directory.TaskRef, error) {
	task, ok := t.d.tasks[taskID]
	if !ok || !task.Active || task.UserID != userID {
		return nil, shared.ErrTaskNotFound
	}
	return &task, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// TASK LOGS
// ══════════════════════════════════════════════════════════════════════════════

func (t *tx) Insert(ctx context.Context, event *tasklog.Event) error {
	if err := t.fault("tasklogs.insert"); err != nil {
		return err
	}
	t.d.events = append(t.d.events, *event)
	return nil
}

func (t *tx) InsertXPEvent(ctx context.Context, xp *tasklog.XPEvent) error {
	if err := t.fault("tasklogs.insert_xp"); err != nil {
		return err
	}
	t.d.xpEvents = append(t.d.xpEvents, *xp)
	return nil
}

func (t *tx) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	for _, e := range t.d.events {
		if e.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (t *tx) CountByCategoryKey(ctx context.Context, userID uuid.UUID, categoryKey string) (int64, error) {
	var n int64
	for _, e := range t.d.events {
		if e.UserID == userID && t.d.categories[e.CategoryID].Key == categoryKey {
			n++
		}
	}
	return n, nil
}

func (t *tx) CountForTask(ctx context.Context, userID, taskID uuid.UUID, window timeutil.Window) (int64, error) {
	var n int64
	for _, e := range t.d.events {
		if e.UserID == userID && e.TaskID != nil && *e.TaskID == taskID && window.Contains(e.OccurredAt) {
			n++
		}
	}
	return n, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS
// ══════════════════════════════════════════════════════════════════════════════

type levels struct{ *tx }

func (r levels) LockOrCreate(ctx context.Context, userID uuid.UUID) (*progress.LevelState, error) {
	if err := r.fault("levels.lock"); err != nil {
		return nil, err
	}
	if l, ok := r.d.levels[userID]; ok {
		return &l, nil
	}
	l := progress.NewLevelState(userID)
	r.d.levels[userID] = *l
	return l, nil
}

func (r levels) Save(ctx context.Context, state *progress.LevelState) error {
	if err := r.fault("levels.save"); err != nil {
		return err
	}
	r.d.levels[state.UserID] = *state
	return nil
}

func (r levels) Get(ctx context.Context, userID uuid.UUID) (*progress.LevelState, error) {
	l, ok := r.d.levels[userID]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

type streaks struct{ *tx }

func (r streaks) LockOrCreate(ctx context.Context, userID uuid.UUID, categoryID int64) (*progress.Streak, error) {
	if err := r.fault("streaks.lock"); err != nil {
		return nil, err
	}
	key := streakKey{userID, categoryID}
	if s, ok := r.d.streaks[key]; ok {
		return &s, nil
	}
	s := progress.NewStreak(userID, categoryID)
	r.d.streaks[key] = *s
	return s, nil
}

func (r streaks) Save(ctx context.Context, s *progress.Streak) error {
	if err := r.fault("streaks.save"); err != nil {
		return err
	}
	r.d.streaks[streakKey{s.UserID, s.CategoryID}] = *s
	return nil
}

func (r streaks) MaxCurrent(ctx context.Context, userID uuid.UUID, categoryKey string) (int, error) {
	best := 0
	for k, s := range r.d.streaks {
		if k.userID != userID {
			continue
		}
		if categoryKey != "" && r.d.categories[k.categoryID].Key != categoryKey {
			continue
		}
		best = max(best, s.Current)
	}
	return best, nil
}

type snapshots struct{ *tx }

func (r snapshots) Upsert(ctx context.Context, key progress.SnapshotKey, delta progress.SnapshotDelta, at time.Time) (*progress.Snapshot, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if err := r.fault("snapshots.upsert"); err != nil {
		return nil, err
	}
	k := keyOf(key)
	snap, ok := r.d.snapshots[k]
	if !ok {
		snap = progress.Snapshot{SnapshotKey: key}
	}
	snap.Add(delta, at)
	r.d.snapshots[k] = snap
	return &snap, nil
}

func (r snapshots) ListForPeriod(ctx context.Context, userID uuid.UUID, period timeutil.PeriodKind, periodStart time.Time) ([]progress.Snapshot, error) {
	start := periodStart.Format(timeutil.DateFormat)
	var out []progress.Snapshot
	for k, s := range r.d.snapshots {
		if k.userID == userID && k.period == period && k.periodStart == start {
			out = append(out, s)
		}
	}
	return out, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// GRANTS
// ══════════════════════════════════════════════════════════════════════════════

func (t *tx) GrantedIDs(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	out := map[uuid.UUID]struct{}{}
	for k := range t.d.grants {
		if k.userID == userID {
			out[k.rewardID] = struct{}{}
		}
	}
	return out, nil
}

func (t *tx) InsertGrant(ctx context.Context, g reward.Grant) (bool, error) {
	if err := t.fault("grants.insert"); err != nil {
		return false, err
	}
	k := grantKey{g.UserID, g.RewardID}
	if _, exists := t.d.grants[k]; exists {
		return false, nil
	}
	t.d.grants[k] = g
	return true, nil
}

func (t *tx) AddCosmetic(ctx context.Context, userID uuid.UUID, itemKey string, at time.Time) (bool, error) {
	k := cosmeticKey{userID, itemKey}
	if _, owned := t.d.cosmetics[k]; owned {
		return false, nil
	}
	t.d.cosmetics[k] = at
	return true, nil
}
