// Package uow defines the transactional boundary ingestion runs in.
package uow

import (
	"context"

	"github.com/lifequest/lifequest-core/internal/domain/directory"
	"github.com/lifequest/lifequest-core/internal/domain/progress"
	"github.com/lifequest/lifequest-core/internal/domain/reward"
	"github.com/lifequest/lifequest-core/internal/domain/tasklog"
)

// Store exposes repositories bound to one transaction.
type Store interface {
	Users() directory.UserDirectory
	Categories() directory.CategoryCatalog
	Tasks() directory.TaskCatalog
	TaskLogs() tasklog.Repository
	Levels() progress.LevelRepository
	Streaks() progress.StreakRepository
	Snapshots() progress.SnapshotRepository
	Grants() reward.GrantRepository
}

// Transactor runs fn atomically. If fn returns an error, or ctx ends
// before commit, nothing fn wrote is kept. Implementations may call fn
// more than once when the storage aborts a transaction because of a
// conflicting one; fn must not have side effects outside the Store.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, store Store) error) error
}
