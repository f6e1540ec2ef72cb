package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lifequest/lifequest-core/internal/domain/reward"
)

type stubRefresher struct {
	defs []reward.Definition
	err  error
	n    int
}

func (r *stubRefresher) Refresh(context.Context) ([]reward.Definition, error) {
	r.n++
	return r.defs, r.err
}

func TestRefreshRewardCatalogJob(t *testing.T) {
	ok := &stubRefresher{defs: []reward.Definition{{Key: "first_log"}}}
	job := NewRefreshRewardCatalogJob(ok, nil)

	assert.Equal(t, "refresh_reward_catalog", job.Name())
	assert.NotEmpty(t, job.Description())
	assert.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 1, ok.n)

	cause := errors.New("redis down")
	err := NewRefreshRewardCatalogJob(&stubRefresher{err: cause}, nil).Run(context.Background())
	assert.ErrorIs(t, err, cause)
}
