package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/barstockwise/backend/pkg/enums"
)

// CreditTransaction is an immutable ledger entry against a credit account.
// Rows are append-only: they are never updated or deleted, and their creation
// is the only legitimate way an account balance changes.
//
// Amount is always positive for debt and payment entries; adjustments carry a
// signed amount.
type CreditTransaction struct {
	ID            uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID     uuid.UUID             `gorm:"column:account_id;type:uuid;not null;index"`
	Type          enums.TransactionType `gorm:"column:type;not null"`
	Amount        decimal.Decimal       `gorm:"column:amount;type:numeric(12,2);not null"`
	PaymentMethod *enums.PaymentMethod  `gorm:"column:payment_method"`
	SaleID        *uuid.UUID            `gorm:"column:sale_id;type:uuid"`
	Notes         *string               `gorm:"column:notes"`
	CreatedByID   *uuid.UUID            `gorm:"column:created_by_id;type:uuid"`
	CreatedAt     time.Time             `gorm:"column:created_at;autoCreateTime"`
}

// BalanceDelta returns the signed effect this entry has on the account balance
// under the positive-when-owing convention.
func (t CreditTransaction) BalanceDelta() decimal.Decimal {
	switch t.Type {
	case enums.TransactionTypeDebt:
		return t.Amount
	case enums.TransactionTypePayment:
		return t.Amount.Neg()
	case enums.TransactionTypeAdjustment:
		return t.Amount
	default:
		return decimal.Zero
	}
}
