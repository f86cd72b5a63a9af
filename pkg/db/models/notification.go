package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/barstockwise/backend/pkg/enums"
)

// Notification is a persisted stock or table alert for the back office.
type Notification struct {
	ID           uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Type         enums.NotificationType `gorm:"column:type;not null"`
	Message      string                 `gorm:"column:message;not null"`
	IngredientID *uuid.UUID             `gorm:"column:ingredient_id;type:uuid"`
	ProductID    *uuid.UUID             `gorm:"column:product_id;type:uuid"`
	TableID      *uuid.UUID             `gorm:"column:table_id;type:uuid"`
	ReadAt       *time.Time             `gorm:"column:read_at"`
	CreatedAt    time.Time              `gorm:"column:created_at;autoCreateTime;index"`
}
