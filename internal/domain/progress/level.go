// Package progress holds the per-user aggregates maintained by task log
// ingestion: level state, per-category streaks and period snapshots.
package progress

import (
	"time"

	"github.com/google/uuid"

	"github.com/lifequest/lifequest-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEVEL STATE
// ══════════════════════════════════════════════════════════════════════════════

const (
	baseThreshold      int64 = 100
	thresholdIncrement int64 = 25
)

// Threshold is the XP needed to go from level to level+1.
func Threshold(level int) int64 {
	return baseThreshold + thresholdIncrement*int64(max(level-1, 0))
}

// LevelState is the XP accumulator of one user.
type LevelState struct {
	UserID       uuid.UUID
	Level        int
	XP           int64 // progress within the current level
	LastUpdateAt *time.Time
}

// NewLevelState returns the initial state: level 1, no XP.
func NewLevelState(userID uuid.UUID) *LevelState {
	return &LevelState{UserID: userID, Level: 1}
}

// XPToNext is the threshold of the current level.
func (s *LevelState) XPToNext() int64 {
	return Threshold(s.Level)
}

// LevelChange describes the effect of one ApplyXP call.
type LevelChange struct {
	Delta     int64
	FromLevel int
	ToLevel   int
}

// LeveledUp reports whether at least one level was gained.
func (c LevelChange) LeveledUp() bool {
	return c.ToLevel > c.FromLevel
}

// ApplyXP adds delta and consumes thresholds until XP < XPToNext.
// LastUpdateAt moves to at when the level changed or delta is positive.
func (s *LevelState) ApplyXP(delta int64, at time.Time) (LevelChange, error) {
	if delta < 0 {
		return LevelChange{}, shared.ErrNegativeXP
	}
	if s.Level < 1 {
		s.Level = 1
	}

	change := LevelChange{Delta: delta, FromLevel: s.Level}
	s.XP += delta
	for s.XP >= s.XPToNext() {
		s.XP -= s.XPToNext()
		s.Level++
	}
	change.ToLevel = s.Level

	if change.LeveledUp() || delta > 0 {
		at := at.UTC()
		s.LastUpdateAt = &at
	}
	return change, nil
}

// TotalXP is the XP earned since level 1.
func (s *LevelState) TotalXP() int64 {
	var total int64
	for l := 1; l < s.Level; l++ {
		total += Threshold(l)
	}
	return total + s.XP
}
