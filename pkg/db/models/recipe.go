package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/barstockwise/backend/pkg/enums"
)

// Recipe maps one kitchen product to the raw ingredients it consumes.
type Recipe struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID   uuid.UUID          `gorm:"column:product_id;type:uuid;not null;uniqueIndex"`
	Name        string             `gorm:"column:name;not null"`
	Description *string            `gorm:"column:description"`
	Ingredients []RecipeIngredient `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// RecipeIngredient is one line of a recipe. Unit may differ from the
// ingredient's native unit; consumption converts before deducting.
type RecipeIngredient struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RecipeID        uuid.UUID       `gorm:"column:recipe_id;type:uuid;not null;index"`
	IngredientID    uuid.UUID       `gorm:"column:ingredient_id;type:uuid;not null"`
	QuantityPerDish decimal.Decimal `gorm:"column:quantity_per_dish;type:numeric(10,3);not null"`
	Unit            enums.Unit      `gorm:"column:unit;not null"`
	Position        int             `gorm:"column:position;not null;default:0"`
	Ingredient      *Ingredient     `gorm:"foreignKey:IngredientID"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
}
