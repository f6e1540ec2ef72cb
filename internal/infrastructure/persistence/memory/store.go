// Package memory is an in-process implementation of the storage ports.
// Transactions are serialized and work on a private copy of the data that
// replaces the committed copy only when the transaction succeeds. It backs
// STORAGE_DRIVER=memory and the application tests.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lifequest/lifequest-core/internal/domain/directory"
	"github.com/lifequest/lifequest-core/internal/domain/progress"
	"github.com/lifequest/lifequest-core/internal/domain/reward"
	"github.com/lifequest/lifequest-core/internal/domain/tasklog"
	"github.com/lifequest/lifequest-core/internal/domain/uow"
	"github.com/lifequest/lifequest-core/pkg/timeutil"
)

type streakKey struct {
	userID     uuid.UUID
	categoryID int64
}

type snapshotKey struct {
	userID      uuid.UUID
	categoryID  int64
	period      timeutil.PeriodKind
	periodStart string
}

func keyOf(k progress.SnapshotKey) snapshotKey {
	return snapshotKey{k.UserID, k.CategoryID, k.Period, k.PeriodStart.Format(timeutil.DateFormat)}
}

type grantKey struct {
	userID   uuid.UUID
	rewardID uuid.UUID
}

type cosmeticKey struct {
	userID  uuid.UUID
	itemKey string
}

type data struct {
	users      map[uuid.UUID]directory.User
	categories map[int64]directory.Category
	settings   map[uuid.UUID][]directory.CategorySetting
	tasks      map[uuid.UUID]directory.TaskRef
	events     []tasklog.Event
	xpEvents   []tasklog.XPEvent
	levels     map[uuid.UUID]progress.LevelState
	streaks    map[streakKey]progress.Streak
	snapshots  map[snapshotKey]progress.Snapshot
	rewards    map[uuid.UUID]reward.Definition
	grants     map[grantKey]reward.Grant
	cosmetics  map[cosmeticKey]time.Time
}

func newData() *data {
	return &data{
		users:      map[uuid.UUID]directory.User{},
		categories: map[int64]directory.Category{},
		settings:   map[uuid.UUID][]directory.CategorySetting{},
		tasks:      map[uuid.UUID]directory.TaskRef{},
		levels:     map[uuid.UUID]progress.LevelState{},
		streaks:    map[streakKey]progress.Streak{},
		snapshots:  map[snapshotKey]progress.Snapshot{},
		rewards:    map[uuid.UUID]reward.Definition{},
		grants:     map[grantKey]reward.Grant{},
		cosmetics:  map[cosmeticKey]time.Time{},
	}
}

// clone copies every table. Stored values are never mutated in place, so
// a shallow copy of each map is enough.
func (d *data) clone() *data {
	settings := make(map[uuid.UUID][]directory.CategorySetting, len(d.settings))
	for k, v := range d.settings {
		settings[k] = slices.Clone(v)
	}
	return &data{
		users:      maps.Clone(d.users),
		categories: maps.Clone(d.categories),
		settings:   settings,
		tasks:      maps.Clone(d.tasks),
		events:     slices.Clone(d.events),
		xpEvents:   slices.Clone(d.xpEvents),
		levels:     maps.Clone(d.levels),
		streaks:    maps.Clone(d.streaks),
		snapshots:  maps.Clone(d.snapshots),
		rewards:    maps.Clone(d.rewards),
		grants:     maps.Clone(d.grants),
		cosmetics:  maps.Clone(d.cosmetics),
	}
}

// Store holds the committed data.
type Store struct {
	mu        sync.Mutex
	committed *data
	faults    map[string]error
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{committed: newData(), faults: map[string]error{}}
}

var _ uow.Transactor = (*Store)(nil)

// WithinTx runs fn against a private copy and commits it if fn succeeds
// and ctx is still live.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, store uow.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.committed.clone()
	if err := fn(ctx, &tx{d: work, faults: s.faults}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.committed = work
	return nil
}

// InjectFault makes the named operation fail with err inside transactions,
// e.g. "snapshots.upsert". A nil err clears the fault.
func (s *Store) InjectFault(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.faults, op)
		return
	}
	s.faults[op] = err
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) read(fn func(d *data)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.committed)
}

func (s *Store) write(fn func(d *data)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.committed)
}
