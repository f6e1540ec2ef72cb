// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lifequest/lifequest-core/internal/domain/shared"
	"github.com/lifequest/lifequest-core/internal/domain/uow"
	"github.com/lifequest/lifequest-core/pkg/logger"
	"github.com/lifequest/lifequest-core/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET TASK PROGRESS QUERY
// Reports how many occurrences of a scheduled task were logged in the
// schedule window that contains the given instant.
// ══════════════════════════════════════════════════════════════════════════════

// GetTaskProgressQuery selects a task of a user.
type GetTaskProgressQuery struct {
	UserID uuid.UUID
	TaskID uuid.UUID

	// At defaults to now.
	At *time.Time
}

// Validate checks the identifiers.
func (q GetTaskProgressQuery) Validate() error {
	if q.UserID == uuid.Nil || q.TaskID == uuid.Nil {
		return shared.NewDomainError("query", "GetTaskProgress", shared.ErrInvalidID, "user id and task id are required")
	}
	return nil
}

// TaskProgress is the state of the current schedule window.
type TaskProgress struct {
	TaskID    uuid.UUID           `json:"task_id"`
	Period    timeutil.PeriodKind `json:"period"`
	Interval  int                 `json:"interval"`
	Window    timeutil.Window     `json:"-"`
	StartsAt  time.Time           `json:"window_start"`
	EndsAt    time.Time           `json:"window_end"`
	Target    int64               `json:"target"`
	Logged    int64               `json:"logged"`
	Remaining int64               `json:"remaining"`
	Completed bool                `json:"completed"`
}

// GetTaskProgressHandler handles GetTaskProgressQuery.
type GetTaskProgressHandler struct {
	tx     uow.Transactor
	clock  timeutil.Clock
	logger *logger.Logger
}

// NewGetTaskProgressHandler creates a GetTaskProgressHandler.
func NewGetTaskProgressHandler(tx uow.Transactor, clock timeutil.Clock, log *logger.Logger) *GetTaskProgressHandler {
	if clock == nil {
		clock = timeutil.SystemClock()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &GetTaskProgressHandler{tx: tx, clock: clock, logger: log.With(logger.Component("get_task_progress"))}
}

// Handle resolves the window in the user's zone and counts the task's
// events inside it.
func (h *GetTaskProgressHandler) Handle(ctx context.Context, q GetTaskProgressQuery) (*TaskProgress, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	at := h.clock.Now()
	if q.At != nil {
		at = *q.At
	}

	var result *TaskProgress
	err := h.tx.WithinTx(ctx, func(ctx context.Context, store uow.Store) error {
		user, err := store.Users().GetUser(ctx, q.UserID)
		if err != nil {
			return err
		}
		task, err := store.Tasks().ResolveTask(ctx, q.TaskID, user.ID)
		if err != nil {
			return err
		}

		period, interval := task.Schedule()
		window := timeutil.Resolve(period, at.In(user.Location()), user.FirstDayOfWeek, interval).UTC()

		logged, err := store.TaskLogs().CountForTask(ctx, user.ID, task.ID, window)
		if err != nil {
			return fmt.Errorf("count task logs: %w", err)
		}

		target := int64(task.Target())
		result = &TaskProgress{
			TaskID:    task.ID,
			Period:    period,
			Interval:  interval,
			Window:    window,
			StartsAt:  window.Start,
			EndsAt:    window.End,
			Target:    target,
			Logged:    logged,
			Remaining: max(target-logged, 0),
			Completed: logged >= target,
		}
		return nil
	})
	if err != nil {
		if !shared.IsNotFound(err) {
			h.logger.Error("task progress query failed", logger.UserID(q.UserID), logger.TaskID(q.TaskID), logger.Err(err))
		}
		return nil, err
	}
	return result, nil
}
