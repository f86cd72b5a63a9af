package kitchen

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/barstockwise/backend/pkg/db/models"
	pkgerrors "github.com/barstockwise/backend/pkg/errors"
)

// Service answers whether kitchen products can be prepared from the stock on
// hand, expressed in each ingredient's native unit.
type Service interface {
	CheckAvailability(ctx context.Context, productID uuid.UUID, quantity int) (*Availability, error)
	ListIngredients(ctx context.Context, activeOnly bool) ([]models.Ingredient, error)
}

// MissingIngredient is one recipe line the current stock cannot cover.
type MissingIngredient struct {
	IngredientID uuid.UUID       `json:"ingredient_id"`
	Name         string          `json:"name"`
	Required     decimal.Decimal `json:"required"`
	Available    decimal.Decimal `json:"available"`
	Unit         string          `json:"unit"`
}

// Availability is the outcome of a recipe feasibility check.
type Availability struct {
	ProductID     uuid.UUID           `json:"product_id"`
	Quantity      int                 `json:"quantity"`
	HasRecipe     bool                `json:"has_recipe"`
	CanBePrepared bool                `json:"can_be_prepared"`
	Missing       []MissingIngredient `json:"missing_ingredients"`
}

type service struct {
	repo Repository
}

// NewService wires a kitchen service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("kitchen repository required")
	}
	return &service{repo: repo}, nil
}

// CheckAvailability walks the product's recipe and reports every ingredient the
// requested quantity would overdraw. Products without a recipe are always
// preparable from the kitchen's point of view; their finished-goods stock is
// the sale workflow's concern.
func (s *service) CheckAvailability(ctx context.Context, productID uuid.UUID, quantity int) (*Availability, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	if _, err := s.repo.FindProduct(ctx, productID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	result := &Availability{
		ProductID:     productID,
		Quantity:      quantity,
		CanBePrepared: true,
		Missing:       []MissingIngredient{},
	}

	recipe, err := s.repo.FindRecipeByProductID(ctx, productID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return result, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load recipe")
	}
	result.HasRecipe = true

	qty := decimal.NewFromInt(int64(quantity))
	for _, line := range recipe.Ingredients {
		if line.Ingredient == nil {
			return nil, pkgerrors.New(pkgerrors.CodeConflict,
				fmt.Sprintf("recipe line %s references a missing ingredient", line.ID))
		}
		required, err := RequiredQuantity(line, qty)
		if err != nil {
			return nil, err
		}
		if line.Ingredient.CanFulfill(required) {
			continue
		}
		result.CanBePrepared = false
		result.Missing = append(result.Missing, MissingIngredient{
			IngredientID: line.IngredientID,
			Name:         line.Ingredient.Name,
			Required:     required,
			Available:    line.Ingredient.QuantityRemaining,
			Unit:         line.Ingredient.Unit.String(),
		})
	}

	return result, nil
}

func (s *service) ListIngredients(ctx context.Context, activeOnly bool) ([]models.Ingredient, error) {
	ingredients, err := s.repo.ListIngredients(ctx, activeOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ingredients")
	}
	return ingredients, nil
}

// RequiredQuantity returns how much of the line's ingredient the given number
// of dishes consumes, converted into the ingredient's native unit.
func RequiredQuantity(line models.RecipeIngredient, dishes decimal.Decimal) (decimal.Decimal, error) {
	if line.Ingredient == nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeConflict,
			fmt.Sprintf("recipe line %s references a missing ingredient", line.ID))
	}
	total := line.QuantityPerDish.Mul(dishes)
	return ConvertQuantity(total, line.Unit, line.Ingredient.Unit)
}
