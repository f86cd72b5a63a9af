package kitchen

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/barstockwise/backend/pkg/db/models"
	"github.com/barstockwise/backend/pkg/enums"
	pkgerrors "github.com/barstockwise/backend/pkg/errors"
)

type fakeRepository struct {
	findRecipeFn      func(ctx context.Context, productID uuid.UUID) (*models.Recipe, error)
	findProductFn     func(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	listIngredientsFn func(ctx context.Context, activeOnly bool) ([]models.Ingredient, error)
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository {
	return f
}

func (f *fakeRepository) FindRecipeByProductID(ctx context.Context, productID uuid.UUID) (*models.Recipe, error) {
	if f.findRecipeFn != nil {
		return f.findRecipeFn(ctx, productID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) FindProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	if f.findProductFn != nil {
		return f.findProductFn(ctx, productID)
	}
	return &models.Product{ID: productID}, nil
}

func (f *fakeRepository) ListIngredients(ctx context.Context, activeOnly bool) ([]models.Ingredient, error) {
	if f.listIngredientsFn != nil {
		return f.listIngredientsFn(ctx, activeOnly)
	}
	return nil, nil
}

func recipeWith(lines ...models.RecipeIngredient) *models.Recipe {
	return &models.Recipe{
		ID:          uuid.New(),
		ProductID:   uuid.New(),
		Name:        "house cocktail",
		Ingredients: lines,
	}
}

func line(remaining, perDish string, lineUnit, nativeUnit enums.Unit) models.RecipeIngredient {
	ingredientID := uuid.New()
	return models.RecipeIngredient{
		ID:              uuid.New(),
		IngredientID:    ingredientID,
		QuantityPerDish: decimal.RequireFromString(perDish),
		Unit:            lineUnit,
		Ingredient: &models.Ingredient{
			ID:                ingredientID,
			Name:              "rum",
			Unit:              nativeUnit,
			QuantityRemaining: decimal.RequireFromString(remaining),
		},
	}
}

func TestCheckAvailability_NoRecipe(t *testing.T) {
	repo := &fakeRepository{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	got, err := svc.CheckAvailability(context.Background(), uuid.New(), 3)
	if err != nil {
		t.Fatalf("CheckAvailability error: %v", err)
	}
	if got.HasRecipe {
		t.Fatal("expected no recipe")
	}
	if !got.CanBePrepared {
		t.Fatal("recipe-less products are always preparable")
	}
}

func TestCheckAvailability_SufficientStock(t *testing.T) {
	// 2 dishes x 250g = 500g = 0.5kg against 1kg remaining.
	repo := &fakeRepository{
		findRecipeFn: func(ctx context.Context, productID uuid.UUID) (*models.Recipe, error) {
			return recipeWith(line("1", "250", enums.UnitGram, enums.UnitKilogram)), nil
		},
	}
	svc, _ := NewService(repo)

	got, err := svc.CheckAvailability(context.Background(), uuid.New(), 2)
	if err != nil {
		t.Fatalf("CheckAvailability error: %v", err)
	}
	if !got.CanBePrepared {
		t.Fatalf("expected preparable, missing=%v", got.Missing)
	}
	if len(got.Missing) != 0 {
		t.Fatalf("expected no missing ingredients, got %v", got.Missing)
	}
}

func TestCheckAvailability_ReportsMissing(t *testing.T) {
	// 5 dishes x 300ml = 1.5l against 1l remaining.
	repo := &fakeRepository{
		findRecipeFn: func(ctx context.Context, productID uuid.UUID) (*models.Recipe, error) {
			return recipeWith(line("1", "300", enums.UnitMillilitre, enums.UnitLitre)), nil
		},
	}
	svc, _ := NewService(repo)

	got, err := svc.CheckAvailability(context.Background(), uuid.New(), 5)
	if err != nil {
		t.Fatalf("CheckAvailability error: %v", err)
	}
	if got.CanBePrepared {
		t.Fatal("expected not preparable")
	}
	if len(got.Missing) != 1 {
		t.Fatalf("expected one missing ingredient, got %d", len(got.Missing))
	}
	missing := got.Missing[0]
	if !missing.Required.Equal(decimal.RequireFromString("1.5")) {
		t.Fatalf("expected required 1.5, got %s", missing.Required)
	}
	if !missing.Available.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("expected available 1, got %s", missing.Available)
	}
}

func TestCheckAvailability_UnknownUnitPairFails(t *testing.T) {
	repo := &fakeRepository{
		findRecipeFn: func(ctx context.Context, productID uuid.UUID) (*models.Recipe, error) {
			return recipeWith(line("10", "1", enums.UnitPiece, enums.UnitLitre)), nil
		},
	}
	svc, _ := NewService(repo)

	_, err := svc.CheckAvailability(context.Background(), uuid.New(), 1)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for unknown unit pair, got %v", err)
	}
}

func TestCheckAvailability_Validation(t *testing.T) {
	svc, _ := NewService(&fakeRepository{})

	if _, err := svc.CheckAvailability(context.Background(), uuid.Nil, 1); err == nil {
		t.Fatal("expected error for missing product id")
	}
	if _, err := svc.CheckAvailability(context.Background(), uuid.New(), 0); err == nil {
		t.Fatal("expected error for non-positive quantity")
	}
}

func TestCheckAvailability_ProductNotFound(t *testing.T) {
	repo := &fakeRepository{
		findProductFn: func(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}
	svc, _ := NewService(repo)

	_, err := svc.CheckAvailability(context.Background(), uuid.New(), 1)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
