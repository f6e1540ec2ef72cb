package query

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifequest/lifequest-core/internal/application/command"
	"github.com/lifequest/lifequest-core/internal/domain/directory"
	"github.com/lifequest/lifequest-core/internal/domain/shared"
	"github.com/lifequest/lifequest-core/internal/infrastructure/persistence/memory"
)

type mapLevelCache struct {
	views map[uuid.UUID]*LevelView
	hits  int
}

func (c *mapLevelCache) GetLevel(_ context.Context, id uuid.UUID) (*LevelView, bool) {
	v, ok := c.views[id]
	if ok {
		c.hits++
	}
	return v, ok
}

func (c *mapLevelCache) SetLevel(_ context.Context, v *LevelView) { c.views[v.UserID] = v }

func TestGetUserLevel(t *testing.T) {
	store := memory.NewStore()
	userID, taskID := uuid.New(), uuid.New()
	xp := int64(130)
	store.PutUser(directory.User{ID: userID})
	store.PutCategory(directory.Category{ID: 1, Key: "study"})
	store.PutTask(directory.TaskRef{ID: taskID, UserID: userID, CategoryID: 1, Active: true, XPOverride: &xp})

	cache := &mapLevelCache{views: map[uuid.UUID]*LevelView{}}
	h := NewGetUserLevelHandler(store, cache, nil)
	ctx := context.Background()

	view, err := h.Handle(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Level)
	assert.Equal(t, int64(100), view.XPToNext)

	_, err = command.NewSubmitTaskLogHandler(store, store, nil, nil, nil, nil).
		Handle(ctx, command.SubmitTaskLogCommand{UserID: userID, TaskID: &taskID})
	require.NoError(t, err)

	delete(cache.views, userID)
	view, err = h.Handle(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, view.Level)
	assert.Equal(t, int64(30), view.XP)
	assert.Equal(t, int64(125), view.XPToNext)
	assert.Equal(t, int64(130), view.TotalXP)

	_, err = h.Handle(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)

	_, err = h.Handle(ctx, uuid.New())
	assert.True(t, shared.IsNotFound(err))
}
