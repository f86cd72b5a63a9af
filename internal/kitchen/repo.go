package kitchen

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/barstockwise/backend/pkg/db/models"
)

// Repository manages read access to recipes and their ingredients.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindRecipeByProductID(ctx context.Context, productID uuid.UUID) (*models.Recipe, error)
	FindProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	ListIngredients(ctx context.Context, activeOnly bool) ([]models.Ingredient, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a kitchen repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
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

func (r *repository) FindProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		Where("id = ?", productID).
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) ListIngredients(ctx context.Context, activeOnly bool) ([]models.Ingredient, error) {
	query := r.db.WithContext(ctx).Order("name ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var ingredients []models.Ingredient
	if err := query.Find(&ingredients).Error; err != nil {
		return nil, err
	}
	return ingredients, nil
}
