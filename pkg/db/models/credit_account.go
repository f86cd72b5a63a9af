package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/barstockwise/backend/pkg/enums"
)

// CreditAccount is the running tab for a customer who pays later.
//
// CurrentBalance is a denormalized mirror of the transaction ledger: a positive
// value is the amount owed. It must only ever change through the creation of a
// CreditTransaction, never by direct assignment.
type CreditAccount struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerName   string              `gorm:"column:customer_name;not null"`
	Phone          *string             `gorm:"column:phone"`
	Email          *string             `gorm:"column:email"`
	CreditLimit    decimal.Decimal     `gorm:"column:credit_limit;type:numeric(12,2);not null"`
	CurrentBalance decimal.Decimal     `gorm:"column:current_balance;type:numeric(12,2);not null"`
	Status         enums.AccountStatus `gorm:"column:status;not null;default:active"`
	Notes          *string             `gorm:"column:notes"`
	CreatedByID    *uuid.UUID          `gorm:"column:created_by_id;type:uuid"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// AvailableCredit returns the remaining headroom under the account's limit.
func (a CreditAccount) AvailableCredit() decimal.Decimal {
	return a.CreditLimit.Sub(a.CurrentBalance)
}

// IsOverLimit reports whether the owed balance exceeds the credit limit.
func (a CreditAccount) IsOverLimit() bool {
	return a.CurrentBalance.GreaterThan(a.CreditLimit)
}
