package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/barstockwise/backend/pkg/enums"
)

// Purchase is a supplier delivery of finished goods. Receiving it adds stock
// and records one `in` movement per item.
type Purchase struct {
	ID           uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Reference    string               `gorm:"column:reference;not null;uniqueIndex"`
	SupplierName *string              `gorm:"column:supplier_name"`
	Status       enums.PurchaseStatus `gorm:"column:status;not null;default:pending"`
	TotalAmount  decimal.Decimal      `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Notes        *string              `gorm:"column:notes"`
	Items        []PurchaseItem       `gorm:"foreignKey:PurchaseID;constraint:OnDelete:CASCADE"`
	ReceivedAt   *time.Time           `gorm:"column:received_at"`
	CreatedByID  *uuid.UUID           `gorm:"column:created_by_id;type:uuid"`
	CreatedAt    time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// PurchaseItem is one product line of a purchase. QuantityReceived of zero
// means the ordered quantity was delivered in full.
type PurchaseItem struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PurchaseID       uuid.UUID       `gorm:"column:purchase_id;type:uuid;not null;index"`
	ProductID        uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	QuantityOrdered  int             `gorm:"column:quantity_ordered;not null"`
	QuantityReceived int             `gorm:"column:quantity_received;not null;default:0"`
	UnitPrice        decimal.Decimal `gorm:"column:unit_price;type:numeric(10,2);not null"`
}

// EffectiveQuantity returns the received quantity, falling back to the ordered
// quantity when nothing was recorded at delivery.
func (i PurchaseItem) EffectiveQuantity() int {
	if i.QuantityReceived > 0 {
		return i.QuantityReceived
	}
	return i.QuantityOrdered
}
