package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/barstockwise/backend/pkg/enums"
)

// Product is a finished good sold over the counter. CurrentStock counts whole
// sellable units; recipe-backed products additionally consume raw ingredients
// when a sale is paid.
type Product struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name           string          `gorm:"column:name;not null"`
	Code           *string         `gorm:"column:code;uniqueIndex"`
	Unit           enums.Unit      `gorm:"column:unit;not null;default:piece"`
	PurchasePrice  decimal.Decimal `gorm:"column:purchase_price;type:numeric(10,2);not null"`
	SellingPrice   decimal.Decimal `gorm:"column:selling_price;type:numeric(10,2);not null"`
	CurrentStock   int             `gorm:"column:current_stock;not null;default:0"`
	AlertThreshold int             `gorm:"column:alert_threshold;not null;default:0"`
	IsActive       bool            `gorm:"column:is_active;not null;default:true"`
	Recipe         *Recipe         `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
