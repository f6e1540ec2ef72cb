package tasklog

import (
	"context"

	"github.com/google/uuid"

	"github.com/lifequest/lifequest-core/pkg/timeutil"
)

// Repository persists events and XP ledger lines.
type Repository interface {
	// Insert stores a new event.
	Insert(ctx context.Context, event *Event) error

	// InsertXPEvent appends a ledger line.
	InsertXPEvent(ctx context.Context, xp *XPEvent) error

	// CountByUser counts all events of the user.
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)

	// CountByCategoryKey counts the user's events in the category with key.
	CountByCategoryKey(ctx context.Context, userID uuid.UUID, categoryKey string) (int64, error)

	// CountForTask counts events of one task whose occurred-at lies in the
	// UTC window.
	CountForTask(ctx context.Context, userID, taskID uuid.UUID, window timeutil.Window) (int64, error)
}
