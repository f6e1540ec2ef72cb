// Package jobs contains the periodic jobs run by the scheduler.
package jobs

import (
	"context"
	"fmt"

	"github.com/lifequest/lifequest-core/internal/domain/reward"
	"github.com/lifequest/lifequest-core/pkg/logger"
)

// CatalogRefresher reloads the reward catalog into a cache.
type CatalogRefresher interface {
	Refresh(ctx context.Context) ([]reward.Definition, error)
}

// RefreshRewardCatalogJob keeps the cached reward catalog in step with
// storage so that definitions edited outside the service take effect
// without waiting for the cache TTL.
type RefreshRewardCatalogJob struct {
	refresher CatalogRefresher
	logger    *logger.Logger
}

// NewRefreshRewardCatalogJob creates the job.
func NewRefreshRewardCatalogJob(refresher CatalogRefresher, log *logger.Logger) *RefreshRewardCatalogJob {
	if log == nil {
		log = logger.Nop()
	}
	return &RefreshRewardCatalogJob{refresher: refresher, logger: log.With(logger.Component("refresh_reward_catalog"))}
}

// Name implements scheduler.Job.
func (j *RefreshRewardCatalogJob) Name() string { return "refresh_reward_catalog" }

// Description implements scheduler.Job.
func (j *RefreshRewardCatalogJob) Description() string {
	return "Reload active reward definitions into the cache"
}

// Run implements scheduler.Job.
func (j *RefreshRewardCatalogJob) Run(ctx context.Context) error {
	defs, err := j.refresher.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("refresh reward catalog: %w", err)
	}
	j.logger.Info("reward catalog refreshed", logger.Int("definitions", len(defs)))
	return nil
}
