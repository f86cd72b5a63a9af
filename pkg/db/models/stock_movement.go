package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/barstockwise/backend/pkg/enums"
)

// StockMovement is the append-only audit trail for finished-goods stock. Every
// mutation of Product.CurrentStock records the before/after pair here, so the
// product's stock always equals the StockAfter of its most recent movement.
type StockMovement struct {
	ID          uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID   uuid.UUID            `gorm:"column:product_id;type:uuid;not null;index"`
	Type        enums.MovementType   `gorm:"column:type;not null"`
	Reason      enums.MovementReason `gorm:"column:reason;not null"`
	Quantity    int                  `gorm:"column:quantity;not null"`
	StockBefore int                  `gorm:"column:stock_before;not null"`
	StockAfter  int                  `gorm:"column:stock_after;not null"`
	UnitPrice   *decimal.Decimal     `gorm:"column:unit_price;type:numeric(10,2)"`
	TotalAmount *decimal.Decimal     `gorm:"column:total_amount;type:numeric(12,2)"`
	SaleID      *uuid.UUID           `gorm:"column:sale_id;type:uuid"`
	PurchaseID  *uuid.UUID           `gorm:"column:purchase_id;type:uuid"`
	Reference   *string              `gorm:"column:reference"`
	Notes       *string              `gorm:"column:notes"`
	CreatedByID *uuid.UUID           `gorm:"column:created_by_id;type:uuid"`
	CreatedAt   time.Time            `gorm:"column:created_at;autoCreateTime;index"`
}

// IngredientMovement is the append-only audit trail for raw ingredient stock,
// in the ingredient's native unit.
type IngredientMovement struct {
	ID           uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	IngredientID uuid.UUID            `gorm:"column:ingredient_id;type:uuid;not null;index"`
	Type         enums.MovementType   `gorm:"column:type;not null"`
	Reason       enums.MovementReason `gorm:"column:reason;not null"`
	Quantity     decimal.Decimal      `gorm:"column:quantity;type:numeric(10,3);not null"`
	StockBefore  decimal.Decimal      `gorm:"column:stock_before;type:numeric(10,3);not null"`
	StockAfter   decimal.Decimal      `gorm:"column:stock_after;type:numeric(10,3);not null"`
	SaleID       *uuid.UUID           `gorm:"column:sale_id;type:uuid"`
	Reference    *string              `gorm:"column:reference"`
	Notes        *string              `gorm:"column:notes"`
	CreatedByID  *uuid.UUID           `gorm:"column:created_by_id;type:uuid"`
	CreatedAt    time.Time            `gorm:"column:created_at;autoCreateTime;index"`
}
