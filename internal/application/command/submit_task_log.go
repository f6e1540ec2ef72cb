// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lifequest/lifequest-core/internal/domain/progress"
	"github.com/lifequest/lifequest-core/internal/domain/reward"
	"github.com/lifequest/lifequest-core/internal/domain/shared"
	"github.com/lifequest/lifequest-core/internal/domain/tasklog"
	"github.com/lifequest/lifequest-core/internal/domain/uow"
	"github.com/lifequest/lifequest-core/pkg/logger"
	"github.com/lifequest/lifequest-core/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT TASK LOG COMMAND
// Records one completed task occurrence and updates level, streak, day and
// week snapshots and reward grants in a single transaction.
// ══════════════════════════════════════════════════════════════════════════════

// SubmitTaskLogCommand is one task log submission.
type SubmitTaskLogCommand struct {
	UserID uuid.UUID

	// TaskID refers to one of the user's tasks. When set, the task decides
	// the category and the base amounts.
	TaskID *uuid.UUID

	// CategoryID is required when TaskID is nil.
	CategoryID *int64

	// OccurredAt defaults to now. It is stored in the reference zone.
	OccurredAt *time.Time

	// Quantity multiplies the awarded XP and points. Defaults to 1.
	Quantity *decimal.Decimal

	Unit   *string
	Notes  *string
	Source tasklog.Source

	CorrelationID string
}

// Validate checks the fields that need no storage access.
func (c SubmitTaskLogCommand) Validate() error {
	if c.UserID == uuid.Nil {
		return shared.ErrInvalidUserID
	}
	if c.Quantity != nil && !tasklog.ValidQuantity(*c.Quantity) {
		return shared.ErrInvalidQuantity
	}
	return nil
}

// SubmitTaskLogResult is what a committed submission produced.
type SubmitTaskLogResult struct {
	Event         *tasklog.Event
	Rewards       []reward.Definition
	Level         progress.LevelState
	LevelChange   progress.LevelChange
	Streak        progress.Streak
	StreakOutcome progress.StreakOutcome
	Snapshots     []progress.Snapshot
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// SubmitTaskLogHandler handles SubmitTaskLogCommand.
type SubmitTaskLogHandler struct {
	tx        uow.Transactor
	catalog   reward.Catalog
	engine    *reward.Engine
	publisher shared.EventPublisher
	clock     timeutil.Clock
	logger    *logger.Logger
}

// NewSubmitTaskLogHandler creates a SubmitTaskLogHandler. publisher may be
// nil; clock defaults to the system clock.
func NewSubmitTaskLogHandler(
	tx uow.Transactor,
	catalog reward.Catalog,
	engine *reward.Engine,
	publisher shared.EventPublisher,
	clock timeutil.Clock,
	log *logger.Logger,
) *SubmitTaskLogHandler {
	if clock == nil {
		clock = timeutil.SystemClock()
	}
	if log == nil {
		log = logger.Nop()
	}
	if engine == nil {
		engine = reward.NewEngine(nil, log)
	}
	return &SubmitTaskLogHandler{
		tx:        tx,
		catalog:   catalog,
		engine:    engine,
		publisher: publisher,
		clock:     clock,
		logger:    log.With(logger.Component("submit_task_log")),
	}
}

// Handle validates and applies the submission. NotFound and validation
// errors are returned as shared.DomainError values; nothing is persisted
// when any error is returned.
func (h *SubmitTaskLogHandler) Handle(ctx context.Context, cmd SubmitTaskLogCommand) (*SubmitTaskLogResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if cmd.Source == "" {
		cmd.Source = tasklog.SourceManual
	}

	start := h.clock.Now()
	now := start.UTC()
	occurredAt := now
	if cmd.OccurredAt != nil {
		occurredAt = timeutil.ToReference(*cmd.OccurredAt)
	}

	defs, err := h.catalog.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("submit_task_log: load reward catalog: %w", err)
	}

	var result *SubmitTaskLogResult
	err = h.tx.WithinTx(ctx, func(ctx context.Context, store uow.Store) error {
		r, err := h.apply(ctx, store, cmd, occurredAt, now, defs)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		if !shared.IsNotFound(err) && !shared.IsValidation(err) {
			h.logger.Error("task log submission failed", logger.UserID(cmd.UserID), logger.Err(err))
		}
		return nil, err
	}

	h.publish(cmd, result)

	h.logger.Info("task log recorded",
		logger.UserID(cmd.UserID),
		logger.EventID(result.Event.ID),
		logger.CategoryID(result.Event.CategoryID),
		logger.XPAmount(result.Event.XPAwarded),
		logger.Points(result.Event.PointsAwarded),
		logger.Int("rewards_unlocked", len(result.Rewards)),
		logger.Latency(h.clock.Now().Sub(start)),
	)
	return result, nil
}

// apply runs inside the transaction. It may run more than once.
func (h *SubmitTaskLogHandler) apply(
	ctx context.Context,
	store uow.Store,
	cmd SubmitTaskLogCommand,
	occurredAt, now time.Time,
	defs []reward.Definition,
) (*SubmitTaskLogResult, error) {
	user, err := store.Users().GetUser(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}

	var (
		categoryID         int64
		baseXP, basePoints int64
		unit               = cmd.Unit
	)
	switch {
	case cmd.TaskID != nil:
		task, err := store.Tasks().ResolveTask(ctx, *cmd.TaskID, user.ID)
		if err != nil {
			return nil, err
		}
		categoryID = task.CategoryID
		baseXP, basePoints = task.BaseXP(), task.BasePoints()
		if unit == nil {
			unit = task.DefaultUnit()
		}
	case cmd.CategoryID != nil:
		categoryID = *cmd.CategoryID
	default:
		return nil, shared.ErrCategoryRequired
	}

	if _, err := store.Categories().GetCategory(ctx, categoryID); err != nil {
		return nil, err
	}

	xp, err := tasklog.Award(baseXP, cmd.Quantity)
	if err != nil {
		return nil, err
	}
	points, err := tasklog.Award(basePoints, cmd.Quantity)
	if err != nil {
		return nil, err
	}

	event := &tasklog.Event{
		ID:            uuid.New(),
		UserID:        user.ID,
		TaskID:        cmd.TaskID,
		CategoryID:    categoryID,
		OccurredAt:    occurredAt,
		Quantity:      cmd.Quantity,
		Unit:          unit,
		Notes:         cmd.Notes,
		XPAwarded:     xp,
		PointsAwarded: points,
		Source:        cmd.Source,
		CreatedAt:     now,
	}
	if err := store.TaskLogs().Insert(ctx, event); err != nil {
		return nil, fmt.Errorf("insert task log: %w", err)
	}
	if event.XPAwarded > 0 {
		if err := store.TaskLogs().InsertXPEvent(ctx, event.LedgerEntry()); err != nil {
			return nil, fmt.Errorf("insert xp event: %w", err)
		}
	}

	level, err := store.Levels().LockOrCreate(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("load level: %w", err)
	}
	change, err := level.ApplyXP(event.XPAwarded, occurredAt)
	if err != nil {
		return nil, err
	}
	if err := store.Levels().Save(ctx, level); err != nil {
		return nil, fmt.Errorf("save level: %w", err)
	}

	streak, err := store.Streaks().LockOrCreate(ctx, user.ID, categoryID)
	if err != nil {
		return nil, fmt.Errorf("load streak: %w", err)
	}
	outcome := streak.Record(occurredAt)
	if outcome.Changed() {
		if err := store.Streaks().Save(ctx, streak); err != nil {
			return nil, fmt.Errorf("save streak: %w", err)
		}
	}

	delta := progress.SnapshotDelta{Points: event.PointsAwarded, XP: event.XPAwarded}
	keys := progress.SnapshotKeysFor(user.ID, categoryID, occurredAt, user.FirstDayOfWeek)
	snapshots := make([]progress.Snapshot, 0, len(keys))
	for _, key := range keys {
		snap, err := store.Snapshots().Upsert(ctx, key, delta, occurredAt)
		if err != nil {
			return nil, fmt.Errorf("upsert %s snapshot: %w", key.Period, err)
		}
		snapshots = append(snapshots, *snap)
	}

	facts := &reward.RepositoryFacts{
		TaskLogs:   store.TaskLogs(),
		Streaks:    store.Streaks(),
		Snapshots:  store.Snapshots(),
		Categories: store.Categories(),
	}
	subject := reward.Subject{UserID: user.ID, FirstDayOfWeek: user.FirstDayOfWeek, AsOf: now}
	unlocked, err := h.engine.Evaluate(ctx, defs, store.Grants(), facts, subject)
	if err != nil {
		return nil, fmt.Errorf("evaluate rewards: %w", err)
	}

	return &SubmitTaskLogResult{
		Event:         event,
		Rewards:       unlocked,
		Level:         *level,
		LevelChange:   change,
		Streak:        *streak,
		StreakOutcome: outcome,
		Snapshots:     snapshots,
	}, nil
}

func (h *SubmitTaskLogHandler) publish(cmd SubmitTaskLogCommand, r *SubmitTaskLogResult) {
	if h.publisher == nil {
		return
	}
	userID := r.Event.UserID.String()
	at := r.Event.CreatedAt

	events := []shared.Event{
		shared.TaskLoggedEvent{
			BaseEvent:  h.base(shared.EventTaskLogged, userID, at, cmd.CorrelationID),
			EventID:    r.Event.ID.String(),
			CategoryID: r.Event.CategoryID,
			XP:         r.Event.XPAwarded,
			Points:     r.Event.PointsAwarded,
		},
	}
	if r.LevelChange.LeveledUp() {
		events = append(events, shared.LevelUpEvent{
			BaseEvent: h.base(shared.EventLevelUp, userID, at, cmd.CorrelationID),
			FromLevel: r.LevelChange.FromLevel,
			ToLevel:   r.LevelChange.ToLevel,
		})
	}
	if r.StreakOutcome.Changed() {
		events = append(events, shared.StreakUpdatedEvent{
			BaseEvent:  h.base(shared.EventStreakUpdated, userID, at, cmd.CorrelationID),
			CategoryID: r.Streak.CategoryID,
			Current:    r.Streak.Current,
			Best:       r.Streak.Best,
			Outcome:    r.StreakOutcome.String(),
		})
	}
	for _, def := range r.Rewards {
		events = append(events, shared.RewardUnlockedEvent{
			BaseEvent: h.base(shared.EventRewardUnlocked, userID, at, cmd.CorrelationID),
			RewardID:  def.ID.String(),
			RewardKey: def.Key,
		})
	}

	for _, e := range events {
		if err := h.publisher.Publish(e); err != nil {
			h.logger.Warn("failed to publish event", logger.String("event_type", string(e.EventType())), logger.Err(err))
		}
	}
}

func (h *SubmitTaskLogHandler) base(t shared.EventType, userID string, at time.Time, correlationID string) shared.BaseEvent {
	b := shared.NewBaseEvent(t, userID, at)
	b.CorrelationID = correlationID
	return b
}
