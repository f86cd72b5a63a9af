package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/barstockwise/backend/pkg/enums"
)

// Sale is a customer order moving through the service workflow. Once paid it is
// frozen; no field may change afterwards.
type Sale struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Reference       string              `gorm:"column:reference;not null;uniqueIndex"`
	TableID         *uuid.UUID          `gorm:"column:table_id;type:uuid"`
	CustomerName    *string             `gorm:"column:customer_name"`
	ServerID        *uuid.UUID          `gorm:"column:server_id;type:uuid"`
	Status          enums.SaleStatus    `gorm:"column:status;not null;default:pending;index"`
	PaymentMethod   enums.PaymentMethod `gorm:"column:payment_method;not null"`
	CreditAccountID *uuid.UUID          `gorm:"column:credit_account_id;type:uuid;index"`
	TotalAmount     decimal.Decimal     `gorm:"column:total_amount;type:numeric(12,2);not null"`
	DiscountAmount  decimal.Decimal     `gorm:"column:discount_amount;type:numeric(12,2);not null"`
	Notes           *string             `gorm:"column:notes"`
	Items           []SaleItem          `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// IsCreditFinanced reports whether this sale runs a customer's tab: paid on
// credit and linked to an account.
func (s Sale) IsCreditFinanced() bool {
	return s.PaymentMethod == enums.PaymentMethodCredit && s.CreditAccountID != nil
}

// SaleItem is one product line on a sale. Items are owned by exactly one sale
// and become immutable once the sale is paid.
type SaleItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SaleID    uuid.UUID       `gorm:"column:sale_id;type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(10,2);not null"`
	Notes     *string         `gorm:"column:notes"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// Subtotal returns quantity times unit price.
func (i SaleItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
