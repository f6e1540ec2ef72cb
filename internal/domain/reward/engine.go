package reward

import (
	"context"
	"fmt"

	"github.com/lifequest/lifequest-core/pkg/logger"
)

// Engine grants rewards whose conditions a subject satisfies.
type Engine struct {
	registry *Registry
	logger   *logger.Logger
}

// NewEngine creates an Engine. A nil registry means DefaultRegistry.
func NewEngine(registry *Registry, log *logger.Logger) *Engine {
	if registry == nil {
		registry = DefaultRegistry()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{registry: registry, logger: log.With(logger.Component("reward_engine"))}
}

// Registry exposes the evaluator registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Evaluate checks every active definition not yet granted to the subject
// and returns the ones granted by this call. Unknown condition bases and
// unparsable thresholds are skipped. Errors come only from storage.
func (e *Engine) Evaluate(ctx context.Context, defs []Definition, grants GrantRepository, facts Facts, subject Subject) ([]Definition, error) {
	if len(defs) == 0 {
		return nil, nil
	}

	granted, err := grants.GrantedIDs(ctx, subject.UserID)
	if err != nil {
		return nil, fmt.Errorf("load granted rewards: %w", err)
	}

	var unlocked []Definition
	for i := range defs {
		def := &defs[i]
		if !def.Active {
			continue
		}
		if _, done := granted[def.ID]; done {
			continue
		}

		threshold, ok := ParseThreshold(def.Threshold)
		if !ok {
			e.logger.Debug("skipping reward with unparsable threshold", logger.RewardKey(def.Key))
			continue
		}

		cond := def.Condition()
		ev, known := e.registry.Lookup(cond.Base)
		if !known {
			e.logger.Debug("skipping reward with unknown condition", logger.RewardKey(def.Key), logger.String("condition", cond.Base))
			continue
		}

		met, err := ev.Evaluate(ctx, facts, subject, threshold, def.Qualifier())
		if err != nil {
			return nil, fmt.Errorf("evaluate reward %s: %w", def.Key, err)
		}
		if !met {
			continue
		}

		inserted, err := grants.InsertGrant(ctx, Grant{UserID: subject.UserID, RewardID: def.ID, GrantedAt: subject.AsOf.UTC()})
		if err != nil {
			return nil, fmt.Errorf("grant reward %s: %w", def.Key, err)
		}
		if !inserted {
			continue
		}
		granted[def.ID] = struct{}{}

		if def.GrantsCosmetic() {
			if _, err := grants.AddCosmetic(ctx, subject.UserID, def.ItemKey, subject.AsOf.UTC()); err != nil {
				return nil, fmt.Errorf("add cosmetic %s: %w", def.ItemKey, err)
			}
		}
		unlocked = append(unlocked, *def)
	}
	return unlocked, nil
}
