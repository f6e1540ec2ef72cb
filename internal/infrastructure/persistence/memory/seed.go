package memory

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/lifequest/lifequest-core/internal/domain/directory"
	"github.com/lifequest/lifequest-core/internal/domain/progress"
	"github.com/lifequest/lifequest-core/internal/domain/reward"
	"github.com/lifequest/lifequest-core/internal/domain/tasklog"
)

// ══════════════════════════════════════════════════════════════════════════════
// COLLABORATOR DATA
// ══════════════════════════════════════════════════════════════════════════════

func (s *Store) PutUser(u directory.User) {
	s.write(func(d *data) { d.users[u.ID] = u })
}

func (s *Store) PutCategory(c directory.Category) {
	s.write(func(d *data) { d.categories[c.ID] = c })
}

func (s *Store) PutTask(t directory.TaskRef) {
	s.write(func(d *data) { d.tasks[t.ID] = t })
}

// PutSetting adds or replaces the user's setting for a category.
func (s *Store) PutSetting(cs directory.CategorySetting) {
	s.write(func(d *data) {
		list := slices.DeleteFunc(slices.Clone(d.settings[cs.UserID]), func(x directory.CategorySetting) bool {
			return x.CategoryID == cs.CategoryID
		})
		d.settings[cs.UserID] = append(list, cs)
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// REWARD CATALOG
// ══════════════════════════════════════════════════════════════════════════════

var (
	_ reward.Catalog       = (*Store)(nil)
	_ reward.CatalogWriter = (*Store)(nil)
)

// ListActive implements reward.Catalog.
func (s *Store) ListActive(ctx context.Context) ([]reward.Definition, error) {
	var out []reward.Definition
	s.read(func(d *data) {
		for _, def := range d.rewards {
			if def.Active {
				out = append(out, def)
			}
		}
	})
	slices.SortFunc(out, func(a, b reward.Definition) int { return strings.Compare(a.Key, b.Key) })
	return out, nil
}

// UpsertDefinition implements reward.CatalogWriter.
func (s *Store) UpsertDefinition(ctx context.Context, def *reward.Definition) error {
	s.write(func(d *data) {
		for id, existing := range d.rewards {
			if existing.Key == def.Key {
				def.ID = id
				break
			}
		}
		if def.ID == uuid.Nil {
			def.ID = uuid.New()
		}
		d.rewards[def.ID] = *def
	})
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// COMMITTED STATE
// ══════════════════════════════════════════════════════════════════════════════

func (s *Store) Level(userID uuid.UUID) (progress.LevelState, bool) {
	var (
		l  progress.LevelState
		ok bool
	)
	s.read(func(d *data) { l, ok = d.levels[userID] })
	return l, ok
}

func (s *Store) Streak(userID uuid.UUID, categoryID int64) (progress.Streak, bool) {
	var (
		st progress.Streak
		ok bool
	)
	s.read(func(d *data) { st, ok = d.streaks[streakKey{userID, categoryID}] })
	return st, ok
}

func (s *Store) Snapshot(key progress.SnapshotKey) (progress.Snapshot, bool) {
	var (
		snap progress.Snapshot
		ok   bool
	)
	s.read(func(d *data) { snap, ok = d.snapshots[keyOf(key)] })
	return snap, ok
}

func (s *Store) Events(userID uuid.UUID) []tasklog.Event {
	var out []tasklog.Event
	s.read(func(d *data) {
		for _, e := range d.events {
			if e.UserID == userID {
				out = append(out, e)
			}
		}
	})
	return out
}

func (s *Store) XPEvents(userID uuid.UUID) []tasklog.XPEvent {
	var out []tasklog.XPEvent
	s.read(func(d *data) {
		for _, e := range d.xpEvents {
			if e.UserID == userID {
				out = append(out, e)
			}
		}
	})
	return out
}

func (s *Store) GrantCount(userID uuid.UUID) int {
	n := 0
	s.read(func(d *data) {
		for k := range d.grants {
			if k.userID == userID {
				n++
			}
		}
	})
	return n
}

func (s *Store) OwnsCosmetic(userID uuid.UUID, itemKey string) bool {
	var ok bool
	s.read(func(d *data) { _, ok = d.cosmetics[cosmeticKey{userID, itemKey}] })
	return ok
}

// SnapshotCount returns the number of stored snapshot rows.
func (s *Store) SnapshotCount() int {
	var n int
	s.read(func(d *data) { n = len(d.snapshots) })
	return n
}
