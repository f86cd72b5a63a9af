package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/barstockwise/backend/pkg/enums"
)

// Ingredient is a raw kitchen stock item tracked in its native unit.
//
// QuantityRemaining may legitimately go negative: recipe consumption is not
// floored, and a negative remainder is the out-of-stock signal rather than a
// silently clamped zero.
type Ingredient struct {
	ID                uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name              string          `gorm:"column:name;not null"`
	Unit              enums.Unit      `gorm:"column:unit;not null"`
	QuantityRemaining decimal.Decimal `gorm:"column:quantity_remaining;type:numeric(10,3);not null"`
	AlertThreshold    decimal.Decimal `gorm:"column:alert_threshold;type:numeric(10,3);not null"`
	UnitPrice         decimal.Decimal `gorm:"column:unit_price;type:numeric(10,2);not null"`
	IsActive          bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// CanFulfill reports whether remaining stock covers the requested quantity,
// expressed in the ingredient's native unit.
func (i Ingredient) CanFulfill(quantity decimal.Decimal) bool {
	return i.QuantityRemaining.GreaterThanOrEqual(quantity)
}

// IsLow reports whether remaining stock sits at or under the alert threshold.
func (i Ingredient) IsLow() bool {
	return i.QuantityRemaining.LessThanOrEqual(i.AlertThreshold)
}
