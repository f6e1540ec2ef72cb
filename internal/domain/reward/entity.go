// Package reward evaluates the reward catalog against a user's aggregates
// and records at-most-once grants.
package reward

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind is the kind of side effect a reward has.
type Kind string

const (
	KindBadge    Kind = "badge"
	KindCosmetic Kind = "cosmetic"
	KindTitle    Kind = "title"
)

// Definition is a catalog entry.
type Definition struct {
	ID            uuid.UUID
	Key           string
	Name          string
	Description   string
	Kind          Kind
	ConditionType string // "base" or "base:qualifier"
	Threshold     string // decimal in a string
	// CategoryKey scopes category conditions whose type has no qualifier.
	CategoryKey string
	// ItemKey is the cosmetic granted with a cosmetic reward.
	ItemKey string
	Active  bool
}

// Condition is a parsed condition type.
type Condition struct {
	Base      string
	Qualifier string
}

// ParseCondition splits on the first ':'.
func ParseCondition(conditionType string) Condition {
	base, qualifier, _ := strings.Cut(strings.TrimSpace(conditionType), ":")
	return Condition{Base: strings.TrimSpace(base), Qualifier: strings.TrimSpace(qualifier)}
}

// Condition parses the definition's condition type.
func (d *Definition) Condition() Condition {
	return ParseCondition(d.ConditionType)
}

// Qualifier is the condition qualifier, else CategoryKey.
func (d *Definition) Qualifier() string {
	if q := d.Condition().Qualifier; q != "" {
		return q
	}
	return d.CategoryKey
}

// ParseThreshold parses a catalog threshold. ok is false for blank or
// malformed values.
func ParseThreshold(raw string) (threshold decimal.Decimal, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// GrantsCosmetic reports whether granting d adds a cosmetic item.
func (d *Definition) GrantsCosmetic() bool {
	return d.Kind == KindCosmetic && d.ItemKey != ""
}

// Grant records that a user unlocked a reward. Unique per (UserID, RewardID).
type Grant struct {
	UserID    uuid.UUID
	RewardID  uuid.UUID
	GrantedAt time.Time
}
