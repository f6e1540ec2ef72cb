package directory

import (
	"context"

	"github.com/google/uuid"
)

// UserDirectory reads user profiles.
type UserDirectory interface {
	// GetUser returns shared.ErrUserNotFound if the user does not exist.
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
}

// CategoryCatalog reads categories and per-user category settings.
type CategoryCatalog interface {
	// GetCategory returns shared.ErrCategoryNotFound if absent.
	GetCategory(ctx context.Context, id int64) (*Category, error)

	// EnabledSettings returns the user's enabled category settings.
	EnabledSettings(ctx context.Context, userID uuid.UUID) ([]CategorySetting, error)
}

// TaskCatalog resolves user tasks.
type TaskCatalog interface {
	// ResolveTask returns shared.ErrTaskNotFound unless the task exists,
	// is active and belongs to userID.
	ResolveTask(ctx context.Context, taskID, userID uuid.UUID) (*TaskRef, error)
}
