package query

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lifequest/lifequest-core/internal/domain/progress"
	"github.com/lifequest/lifequest-core/internal/domain/uow"
	"github.com/lifequest/lifequest-core/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET USER LEVEL QUERY
// ══════════════════════════════════════════════════════════════════════════════

// LevelView is the read model of a user's level.
type LevelView struct {
	UserID       uuid.UUID  `json:"user_id"`
	Level        int        `json:"level"`
	XP           int64      `json:"xp"`
	XPToNext     int64      `json:"xp_to_next"`
	TotalXP      int64      `json:"total_xp"`
	LastUpdateAt *time.Time `json:"last_update_at,omitempty"`
}

// NewLevelView builds the view of s.
func NewLevelView(s *progress.LevelState) *LevelView {
	return &LevelView{
		UserID:       s.UserID,
		Level:        s.Level,
		XP:           s.XP,
		XPToNext:     s.XPToNext(),
		TotalXP:      s.TotalXP(),
		LastUpdateAt: s.LastUpdateAt,
	}
}

// LevelCache is an optional read cache of level views.
type LevelCache interface {
	GetLevel(ctx context.Context, userID uuid.UUID) (*LevelView, bool)
	SetLevel(ctx context.Context, view *LevelView)
}

// GetUserLevelHandler returns a user's level, served from the cache when
// possible.
type GetUserLevelHandler struct {
	tx     uow.Transactor
	cache  LevelCache
	logger *logger.Logger
}

// NewGetUserLevelHandler creates a GetUserLevelHandler. cache may be nil.
func NewGetUserLevelHandler(tx uow.Transactor, cache LevelCache, log *logger.Logger) *GetUserLevelHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &GetUserLevelHandler{tx: tx, cache: cache, logger: log.With(logger.Component("get_user_level"))}
}

// Handle returns the level view. Users without any XP yet get the initial
// state.
func (h *GetUserLevelHandler) Handle(ctx context.Context, userID uuid.UUID) (*LevelView, error) {
	if h.cache != nil {
		if view, ok := h.cache.GetLevel(ctx, userID); ok {
			return view, nil
		}
	}

	var view *LevelView
	err := h.tx.WithinTx(ctx, func(ctx context.Context, store uow.Store) error {
		if _, err := store.Users().GetUser(ctx, userID); err != nil {
			return err
		}
		state, err := store.Levels().Get(ctx, userID)
		if err != nil {
			return fmt.Errorf("load level: %w", err)
		}
		if state == nil {
			state = progress.NewLevelState(userID)
		}
		view = NewLevelView(state)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		h.cache.SetLevel(ctx, view)
	}
	return view, nil
}
