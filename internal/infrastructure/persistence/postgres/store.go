package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/lifequest/lifequest-core/internal/domain/directory"
	"github.com/lifequest/lifequest-core/internal/domain/progress"
	"github.com/lifequest/lifequest-core/internal/domain/reward"
	"github.com/lifequest/lifequest-core/internal/domain/shared"
	"github.com/lifequest/lifequest-core/internal/domain/tasklog"
	"github.com/lifequest/lifequest-core/internal/domain/uow"
	"github.com/lifequest/lifequest-core/pkg/logger"
	"github.com/lifequest/lifequest-core/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// UNIT OF WORK
// ══════════════════════════════════════════════════════════════════════════════

// Store runs units of work in SERIALIZABLE transactions. A transaction
// aborted with a serialization failure or deadlock is re-run from the
// start, so the work function must not keep state between attempts.
type Store struct {
	conn    *Connection
	retrier *retry.Retrier
	logger  *logger.Logger
}

var _ uow.Transactor = (*Store)(nil)

// NewStore creates a Store that makes at most maxAttempts attempts per
// unit of work.
func NewStore(conn *Connection, maxAttempts int, log *logger.Logger, opts ...retry.Option) *Store {
	if log == nil {
		log = logger.Nop()
	}
	log = log.With(logger.Component("postgres_store"))

	opts = append([]retry.Option{
		retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			log.Warn("retrying transaction after conflict", logger.Attempt(attempt), logger.Duration("delay", delay), logger.Err(err))
		}),
	}, opts...)

	return &Store{
		conn:    conn,
		retrier: retry.TransactionRetrier(maxAttempts, IsSerializationFailure, opts...),
		logger:  log,
	}
}

// WithinTx implements uow.Transactor.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, store uow.Store) error) error {
	err := s.retrier.Do(ctx, func(ctx context.Context) error {
		return s.conn.WithTx(ctx, SerializableTxOptions, func(tx pgx.Tx) error {
			return fn(ctx, &txStore{q: tx})
		})
	})
	if err != nil && IsSerializationFailure(err) {
		return shared.WrapError("storage", "WithinTx", shared.ErrConcurrentModification, "transaction kept conflicting", err)
	}
	return err
}

// Ping checks the database.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

// txStore binds every repository to one transaction.
type txStore struct {
	q Querier
}

func (t *txStore) Users() directory.UserDirectory         { return &directoryRepo{q: t.q} }
func (t *txStore) Categories() directory.CategoryCatalog  { return &directoryRepo{q: t.q} }
func (t *txStore) Tasks() directory.TaskCatalog           { return &directoryRepo{q: t.q} }
func (t *txStore) TaskLogs() tasklog.Repository           { return &taskLogRepo{q: t.q} }
func (t *txStore) Levels() progress.LevelRepository       { return &levelRepo{q: t.q} }
func (t *txStore) Streaks() progress.StreakRepository     { return &streakRepo{q: t.q} }
func (t *txStore) Snapshots() progress.SnapshotRepository { return &snapshotRepo{q: t.q} }
func (t *txStore) Grants() reward.GrantRepository         { return &grantRepo{q: t.q} }
