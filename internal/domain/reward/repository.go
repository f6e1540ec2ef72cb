package reward

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Catalog is the read path into reward definitions.
type Catalog interface {
	// ListActive returns active definitions ordered by key.
	ListActive(ctx context.Context) ([]Definition, error)
}

// CatalogWriter stores definitions. Used by catalog seeding.
type CatalogWriter interface {
	// UpsertDefinition inserts or updates a definition matched by key.
	UpsertDefinition(ctx context.Context, def *Definition) error
}

// GrantRepository persists grants and cosmetic ownership.
type GrantRepository interface {
	// GrantedIDs returns the ids of rewards already granted to the user.
	GrantedIDs(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]struct{}, error)

	// InsertGrant stores g unless the pair already exists. inserted is
	// false when another grant for the pair was already present.
	InsertGrant(ctx context.Context, g Grant) (inserted bool, err error)

	// AddCosmetic records ownership of itemKey unless already owned.
	AddCosmetic(ctx context.Context, userID uuid.UUID, itemKey string, at time.Time) (added bool, err error)
}

// CategoryBalance is one enabled category with its weekly target and the
// points earned in the week being evaluated.
type CategoryBalance struct {
	CategoryID   int64
	CategoryKey  string
	TargetPoints int64
	EarnedPoints int64
}

// Facts answers the questions evaluators ask about a user.
type Facts interface {
	CountTaskLogs(ctx context.Context, userID uuid.UUID) (int64, error)
	CountTaskLogsInCategory(ctx context.Context, userID uuid.UUID, categoryKey string) (int64, error)
	// MaxCurrentStreak considers all categories when categoryKey is empty.
	MaxCurrentStreak(ctx context.Context, userID uuid.UUID, categoryKey string) (int, error)
	// WeeklyBalance lists enabled categories with points of the week that
	// starts on weekStart.
	WeeklyBalance(ctx context.Context, userID uuid.UUID, weekStart time.Time) ([]CategoryBalance, error)
}
