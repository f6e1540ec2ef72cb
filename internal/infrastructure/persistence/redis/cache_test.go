package redis

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifequest/lifequest-core/internal/application/query"
	"github.com/lifequest/lifequest-core/internal/domain/reward"
	"github.com/lifequest/lifequest-core/pkg/circuitbreaker"
)

// testCache connects to REDIS_TEST_ADDR and flushes the selected DB.
func testCache(t *testing.T) *Cache {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	client := goredis.NewClient(&goredis.Options{Addr: addr, DB: 15})
	ctx := context.Background()
	require.NoError(t, client.Ping(ctx).Err())
	require.NoError(t, client.FlushDB(ctx).Err())
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client)
}

type countingCatalog struct {
	defs  []reward.Definition
	calls int
	err   error
}

func (c *countingCatalog) ListActive(context.Context) ([]reward.Definition, error) {
	c.calls++
	return c.defs, c.err
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "reward:catalog:active", RewardCatalogKey())
	assert.Equal(t, "level:abc", LevelKey("abc"))
	assert.Equal(t, "pubsub:events", PubSubChannel("events"))
	assert.Equal(t, "localhost:6379", DefaultConfig().Addr())
}

func TestCache_GetMiss(t *testing.T) {
	c := testCache(t)
	var v map[string]int
	assert.ErrorIs(t, c.Get(context.Background(), "missing", &v), ErrCacheMiss)
	assert.ErrorIs(t, c.Set(context.Background(), "", 1, time.Minute), ErrCacheKeyEmpty)
}

func TestRewardCatalogCache_ReadThrough(t *testing.T) {
	c := testCache(t)
	ctx := context.Background()
	src := &countingCatalog{defs: []reward.Definition{
		{ID: uuid.New(), Key: "first_steps", ConditionType: reward.ConditionTasksCompleted, Threshold: "1", Active: true},
	}}
	cached := NewRewardCatalogCache(c, src, time.Minute, nil)

	for range 3 {
		defs, err := cached.ListActive(ctx)
		require.NoError(t, err)
		require.Len(t, defs, 1)
		assert.Equal(t, "first_steps", defs[0].Key)
	}
	assert.Equal(t, 1, src.calls)

	require.NoError(t, cached.Invalidate(ctx))
	_, err := cached.ListActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)

	src.err = errors.New("db down")
	require.NoError(t, cached.Invalidate(ctx))
	_, err = cached.ListActive(ctx)
	assert.Error(t, err)
}

func TestLevelCache_Invalidate(t *testing.T) {
	c := testCache(t)
	ctx := context.Background()
	lc := NewLevelCache(c, nil)
	userID := uuid.New()

	lc.SetLevel(ctx, &query.LevelView{UserID: userID, Level: 3, XP: 25, XPToNext: 150})
	view, ok := lc.GetLevel(ctx, userID)
	require.True(t, ok)
	assert.Equal(t, 3, view.Level)

	require.NoError(t, lc.Invalidate(ctx, userID.String()))

	_, ok = lc.GetLevel(ctx, userID)
	assert.False(t, ok)
}

func TestCache_BreakerOpensOnUnreachableRedis(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	cb := circuitbreaker.New("test", circuitbreaker.WithFailureThreshold(2), circuitbreaker.WithIsFailure(IsBreakerFailure))
	c := NewCache(client).WithBreaker(cb)
	ctx := context.Background()

	var v map[string]int
	for i := 0; i < 2; i++ {
		err := c.Get(ctx, "k", &v)
		require.Error(t, err)
		assert.False(t, circuitbreaker.IsRejected(err))
	}
	assert.Equal(t, circuitbreaker.StateOpen, cb.State())

	assert.ErrorIs(t, c.Get(ctx, "k", &v), circuitbreaker.ErrCircuitOpen)
	assert.ErrorIs(t, c.Set(ctx, "k", 1, time.Minute), circuitbreaker.ErrCircuitOpen)
	assert.ErrorIs(t, c.Delete(ctx, "k"), circuitbreaker.ErrCircuitOpen)
}

func TestIsBreakerFailure(t *testing.T) {
	assert.False(t, IsBreakerFailure(ErrCacheMiss))
	assert.False(t, IsBreakerFailure(ErrCacheSerialization))
	assert.True(t, IsBreakerFailure(errors.New("dial tcp: connection refused")))
}
