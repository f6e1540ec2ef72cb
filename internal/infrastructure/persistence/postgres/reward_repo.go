package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lifequest/lifequest-core/internal/domain/reward"
)

// ══════════════════════════════════════════════════════════════════════════════
// GRANT REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

type grantRepo struct {
	q Querier
}

var _ reward.GrantRepository = (*grantRepo)(nil)

func (r *grantRepo) GrantedIDs(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	rows, err := r.q.Query(ctx, `SELECT reward_id FROM user_rewards WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query grants: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]struct{})
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan grant: %w", err)
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

func (r *grantRepo) InsertGrant(ctx context.Context, g reward.Grant) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		INSERT INTO user_rewards (user_id, reward_id, granted_at) VALUES ($1, $2, $3)
		ON CONFLICT (user_id, reward_id) DO NOTHING
	`, g.UserID, g.RewardID, g.GrantedAt)
	if err != nil {
		return false, fmt.Errorf("failed to insert grant: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *grantRepo) AddCosmetic(ctx context.Context, userID uuid.UUID, itemKey string, at time.Time) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		INSERT INTO user_cosmetics (user_id, item_key, acquired_at) VALUES ($1, $2, $3)
		ON CONFLICT (user_id, item_key) DO NOTHING
	`, userID, itemKey, at)
	if err != nil {
		return false, fmt.Errorf("failed to add cosmetic: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// REWARD CATALOG
// ══════════════════════════════════════════════════════════════════════════════

// RewardCatalog reads and writes reward definitions outside submission
// transactions.
type RewardCatalog struct {
	conn *Connection
}

var (
	_ reward.Catalog       = (*RewardCatalog)(nil)
	_ reward.CatalogWriter = (*RewardCatalog)(nil)
)

// NewRewardCatalog creates a RewardCatalog.
func NewRewardCatalog(conn *Connection) *RewardCatalog {
	return &RewardCatalog{conn: conn}
}

// ListActive returns active definitions ordered by key.
func (c *RewardCatalog) ListActive(ctx context.Context) ([]reward.Definition, error) {
	rows, err := c.conn.Query(ctx, `
		SELECT id, key, name, description, kind, condition_type, threshold, category_key, item_key, is_active
		FROM rewards
		WHERE is_active
		ORDER BY key
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rewards: %w", err)
	}
	defer rows.Close()

	var out []reward.Definition
	for rows.Next() {
		var (
			d    reward.Definition
			kind string
		)
		if err := rows.Scan(&d.ID, &d.Key, &d.Name, &d.Description, &kind, &d.ConditionType, &d.Threshold, &d.CategoryKey, &d.ItemKey, &d.Active); err != nil {
			return nil, fmt.Errorf("failed to scan reward: %w", err)
		}
		d.Kind = reward.Kind(kind)
		out = append(out, d)
	}
	return out, rows.Err()
}

// UpsertDefinition inserts def or updates the definition with the same key,
// and sets def.ID.
func (c *RewardCatalog) UpsertDefinition(ctx context.Context, def *reward.Definition) error {
	if def.ID == uuid.Nil {
		def.ID = uuid.New()
	}
	err := c.conn.QueryRow(ctx, `
		INSERT INTO rewards (id, key, name, description, kind, condition_type, threshold, category_key, item_key, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (key) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			kind = EXCLUDED.kind,
			condition_type = EXCLUDED.condition_type,
			threshold = EXCLUDED.threshold,
			category_key = EXCLUDED.category_key,
			item_key = EXCLUDED.item_key,
			is_active = EXCLUDED.is_active,
			updated_at = NOW()
		RETURNING id
	`,
		def.ID, def.Key, def.Name, def.Description, string(def.Kind),
		def.ConditionType, def.Threshold, def.CategoryKey, def.ItemKey, def.Active,
	).Scan(&def.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert reward %s: %w", def.Key, err)
	}
	return nil
}
