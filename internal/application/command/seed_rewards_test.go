package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifequest/lifequest-core/internal/domain/reward"
	"github.com/lifequest/lifequest-core/internal/infrastructure/persistence/memory"
)

func TestSeedRewards_UpsertsByKey(t *testing.T) {
	store := memory.NewStore()
	h := NewSeedRewardsHandler(store, nil, nil)
	ctx := context.Background()

	defs := []reward.Definition{
		{Key: "first_log", Name: "First", Kind: reward.KindBadge, ConditionType: "tasks_completed", Threshold: "1", Active: true},
		{Key: "mystery", Name: "Mystery", Kind: reward.KindBadge, ConditionType: "moon_phase", Threshold: "1", Active: true},
	}
	res, err := h.Handle(ctx, defs)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Upserted)
	assert.Equal(t, []string{"mystery"}, res.UnknownConditions)
	firstID := defs[0].ID
	require.NotZero(t, firstID)

	again := []reward.Definition{
		{Key: "first_log", Name: "First Step", Kind: reward.KindBadge, ConditionType: "tasks_completed", Threshold: "2", Active: true},
	}
	_, err = h.Handle(ctx, again)
	require.NoError(t, err)
	assert.Equal(t, firstID, again[0].ID)

	active, err := store.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "first_log", active[0].Key)
	assert.Equal(t, "First Step", active[0].Name)
	assert.Equal(t, "2", active[0].Threshold)
}
