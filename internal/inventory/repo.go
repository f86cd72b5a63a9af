package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/barstockwise/backend/pkg/db/models"
	"github.com/barstockwise/backend/pkg/enums"
)

// Repository manages persistence for stock levels and their movement trails.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindProductForUpdate(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	UpdateProductStock(ctx context.Context, productID uuid.UUID, stock int) error
	CreateStockMovement(ctx context.Context, movement *models.StockMovement) error
	HasSaleStockMovements(ctx context.Context, saleID uuid.UUID) (bool, error)
	ListStockMovements(ctx context.Context, productID *uuid.UUID, limit int) ([]models.StockMovement, error)

	FindIngredientForUpdate(ctx context.Context, ingredientID uuid.UUID) (*models.Ingredient, error)
	UpdateIngredientQuantity(ctx context.Context, ingredientID uuid.UUID, quantity decimal.Decimal) error
	CreateIngredientMovement(ctx context.Context, movement *models.IngredientMovement) error
	ListIngredientMovements(ctx context.Context, ingredientID *uuid.UUID, limit int) ([]models.IngredientMovement, error)

	FindRecipeByProductID(ctx context.Context, productID uuid.UUID) (*models.Recipe, error)

	FindPurchaseForUpdate(ctx context.Context, purchaseID uuid.UUID) (*models.Purchase, error)
	MarkPurchaseReceived(ctx context.Context, purchaseID uuid.UUID, receivedAt time.Time) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an inventory repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindProductForUpdate(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", productID).
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) UpdateProductStock(ctx context.Context, productID uuid.UUID, stock int) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Update("current_stock", stock).Error
}

func (r *repository) CreateStockMovement(ctx context.Context, movement *models.StockMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

func (r *repository) HasSaleStockMovements(ctx context.Context, saleID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.StockMovement{}).
		Where("sale_id = ? AND reason = ?", saleID, enums.MovementReasonSale).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) ListStockMovements(ctx context.Context, productID *uuid.UUID, limit int) ([]models.StockMovement, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if productID != nil {
		query = query.Where("product_id = ?", *productID)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	var movements []models.StockMovement
	if err := query.Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

func (r *repository) FindIngredientForUpdate(ctx context.Context, ingredientID uuid.UUID) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", ingredientID).
		First(&ingredient).Error; err != nil {
		return nil, err
	}
	return &ingredient, nil
}

func (r *repository) UpdateIngredientQuantity(ctx context.Context, ingredientID uuid.UUID, quantity decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.Ingredient{}).
		Where("id = ?", ingredientID).
		Update("quantity_remaining", quantity).Error
}

func (r *repository) CreateIngredientMovement(ctx context.Context, movement *models.IngredientMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

func (r *repository) ListIngredientMovements(ctx context.Context, ingredientID *uuid.UUID, limit int) ([]models.IngredientMovement, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if ingredientID != nil {
		query = query.Where("ingredient_id = ?", *ingredientID)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	var movements []models.IngredientMovement
	if err := query.Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

func (r *repository) FindRecipeByProductID(ctx context.Context, productID uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := r.db.WithContext(ctx).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Ingredients.Ingredient").
		Where("product_id = ?", productID).
		First(&recipe).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (r *repository) FindPurchaseForUpdate(ctx context.Context, purchaseID uuid.UUID) (*models.Purchase, error) {
	var purchase models.Purchase
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Items").
		Where("id = ?", purchaseID).
		First(&purchase).Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *repository) MarkPurchaseReceived(ctx context.Context, purchaseID uuid.UUID, receivedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Purchase{}).
		Where("id = ?", purchaseID).
		Updates(map[string]any{
			"status":      enums.PurchaseStatusReceived,
			"received_at": receivedAt,
		}).Error
}
