// Package tasklog defines the immutable record of one completed task
// occurrence and the XP ledger entry written alongside it.
package tasklog

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lifequest/lifequest-core/internal/domain/shared"
	"github.com/lifequest/lifequest-core/pkg/timeutil"
)

// Source tags where an event came from.
type Source string

const (
	SourceManual Source = "manual"
	SourceImport Source = "import"
	SourceAPI    Source = "api"
)

// Event is one logged task occurrence. It is never mutated after insert.
type Event struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	TaskID        *uuid.UUID
	CategoryID    int64
	OccurredAt    time.Time
	Quantity      *decimal.Decimal
	Unit          *string
	Notes         *string
	XPAwarded     int64
	PointsAwarded int64
	Source        Source
	CreatedAt     time.Time
}

// Quantity bounds follow the NUMERIC(10,2) column.
const QuantityScale = 2

var MaxQuantity = decimal.New(1, 8).Sub(decimal.New(1, -QuantityScale))

// ValidQuantity reports whether q is positive, fits the column and carries
// no more than QuantityScale decimal places.
func ValidQuantity(q decimal.Decimal) bool {
	if !q.IsPositive() || q.GreaterThan(MaxQuantity) {
		return false
	}
	return q.Equal(q.Truncate(QuantityScale))
}

// Multiplier is the quantity, or one when none was given.
func Multiplier(quantity *decimal.Decimal) decimal.Decimal {
	if quantity == nil {
		return decimal.NewFromInt(1)
	}
	return *quantity
}

// Award multiplies base by the quantity and truncates the product. Awards
// are stored as INTEGER, so a product outside int32 is rejected.
func Award(base int64, quantity *decimal.Decimal) (int64, error) {
	product := Multiplier(quantity).Mul(decimal.NewFromInt(base)).Truncate(0)
	if product.GreaterThan(decimal.NewFromInt(math.MaxInt32)) || product.LessThan(decimal.NewFromInt(math.MinInt32)) {
		return 0, shared.ErrAwardOutOfRange
	}
	return product.IntPart(), nil
}

// XPSourceType classifies XP ledger entries.
type XPSourceType string

const XPSourceTaskLog XPSourceType = "task_log"

// XPEvent is a ledger line recording XP granted to a user.
type XPEvent struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	CategoryID *int64
	SourceType XPSourceType
	SourceID   *uuid.UUID
	Delta      int64
	OccurredAt time.Time
}

// LedgerEntry builds the XP ledger line for e.
func (e *Event) LedgerEntry() *XPEvent {
	categoryID := e.CategoryID
	eventID := e.ID
	return &XPEvent{
		ID:         uuid.New(),
		UserID:     e.UserID,
		CategoryID: &categoryID,
		SourceType: XPSourceTaskLog,
		SourceID:   &eventID,
		Delta:      e.XPAwarded,
		OccurredAt: timeutil.ToReference(e.OccurredAt),
	}
}
