package command

import (
	"context"
	"fmt"

	"github.com/lifequest/lifequest-core/internal/domain/reward"
	"github.com/lifequest/lifequest-core/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SEED REWARDS COMMAND
// Upserts reward definitions by key.
// ══════════════════════════════════════════════════════════════════════════════

// SeedRewardsResult summarizes a seeding run.
type SeedRewardsResult struct {
	Upserted int
	// UnknownConditions lists keys whose condition base has no evaluator.
	// Such rewards are stored but never granted.
	UnknownConditions []string
}

// SeedRewardsHandler writes definitions to the catalog.
type SeedRewardsHandler struct {
	writer   reward.CatalogWriter
	registry *reward.Registry
	logger   *logger.Logger
}

// NewSeedRewardsHandler creates a SeedRewardsHandler. registry defaults to
// reward.DefaultRegistry.
func NewSeedRewardsHandler(writer reward.CatalogWriter, registry *reward.Registry, log *logger.Logger) *SeedRewardsHandler {
	if registry == nil {
		registry = reward.DefaultRegistry()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &SeedRewardsHandler{writer: writer, registry: registry, logger: log.With(logger.Component("seed_rewards"))}
}

// Handle upserts defs in order and stops at the first failure.
func (h *SeedRewardsHandler) Handle(ctx context.Context, defs []reward.Definition) (*SeedRewardsResult, error) {
	res := &SeedRewardsResult{}
	for i := range defs {
		def := defs[i]
		if _, known := h.registry.Lookup(def.Condition().Base); !known {
			res.UnknownConditions = append(res.UnknownConditions, def.Key)
			h.logger.Warn("reward has unknown condition type",
				logger.RewardKey(def.Key),
				logger.String("condition_type", def.ConditionType),
			)
		}
		if err := h.writer.UpsertDefinition(ctx, &def); err != nil {
			return res, fmt.Errorf("seed reward %s: %w", def.Key, err)
		}
		defs[i].ID = def.ID
		res.Upserted++
	}

	h.logger.Info("reward catalog seeded",
		logger.Int("upserted", res.Upserted),
		logger.Int("unknown_conditions", len(res.UnknownConditions)),
	)
	return res, nil
}
