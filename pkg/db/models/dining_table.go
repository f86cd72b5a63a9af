package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/barstockwise/backend/pkg/enums"
)

// DiningTable is a physical table in the room, occupied and released by the
// sale workflow.
type DiningTable struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Number        string            `gorm:"column:number;not null;uniqueIndex"`
	Location      *string           `gorm:"column:location"`
	Capacity      int               `gorm:"column:capacity;not null;default:4"`
	Status        enums.TableStatus `gorm:"column:status;not null;default:available"`
	OccupiedSince *time.Time        `gorm:"column:occupied_since"`
	CurrentSaleID *uuid.UUID        `gorm:"column:current_sale_id;type:uuid"`
	CustomerName  *string           `gorm:"column:customer_name"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName avoids the reserved word "tables".
func (DiningTable) TableName() string {
	return "dining_tables"
}
