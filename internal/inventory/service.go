package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/barstockwise/backend/internal/kitchen"
	"github.com/barstockwise/backend/pkg/db/models"
	"github.com/barstockwise/backend/pkg/enums"
	pkgerrors "github.com/barstockwise/backend/pkg/errors"
	"github.com/barstockwise/backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// alertSink receives stock alerts after the mutating transaction committed.
// Delivery is fire-and-forget; failures must never surface to the caller.
type alertSink interface {
	Dispatch(ctx context.Context, alerts []StockAlert)
}

// StockAlert flags a product or ingredient that crossed its alert threshold
// during a stock mutation.
type StockAlert struct {
	Type         enums.NotificationType `json:"type"`
	ProductID    *uuid.UUID             `json:"product_id,omitempty"`
	IngredientID *uuid.UUID             `json:"ingredient_id,omitempty"`
	Name         string                 `json:"name"`
	Remaining    decimal.Decimal        `json:"remaining"`
	Unit         string                 `json:"unit"`
}

// IngredientDeduction reports one recipe-driven ingredient decrement.
type IngredientDeduction struct {
	IngredientID uuid.UUID       `json:"ingredient_id"`
	Name         string          `json:"name"`
	Consumed     decimal.Decimal `json:"consumed"`
	Remaining    decimal.Decimal `json:"remaining"`
	Unit         string          `json:"unit"`
}

// DeductionResult summarizes what a paid sale consumed.
type DeductionResult struct {
	SaleID     uuid.UUID             `json:"sale_id"`
	Deductions []IngredientDeduction `json:"ingredient_deductions"`
	Alerts     []StockAlert          `json:"stock_alerts"`
}

// AdjustIngredientInput is a manual stock correction for one ingredient.
type AdjustIngredientInput struct {
	IngredientID uuid.UUID
	Quantity     decimal.Decimal
	Reason       enums.MovementReason
	Notes        *string
	ActorID      *uuid.UUID
}

// Service owns every mutation of finished-goods and ingredient stock. All
// writes leave a movement record; stock levels are never touched without one.
type Service interface {
	DeductForSaleInTx(ctx context.Context, tx *gorm.DB, sale *models.Sale, actorID *uuid.UUID) (*DeductionResult, error)
	RestoreForSaleInTx(ctx context.Context, tx *gorm.DB, sale *models.Sale, actorID *uuid.UUID) error
	PrepareRecipe(ctx context.Context, productID uuid.UUID, quantity int, actorID *uuid.UUID) ([]IngredientDeduction, error)
	ReceivePurchase(ctx context.Context, purchaseID uuid.UUID, actorID *uuid.UUID) (*models.Purchase, error)
	AdjustIngredient(ctx context.Context, input AdjustIngredientInput) (*models.Ingredient, error)
	ListStockMovements(ctx context.Context, productID *uuid.UUID, limit int) ([]models.StockMovement, error)
	ListIngredientMovements(ctx context.Context, ingredientID *uuid.UUID, limit int) ([]models.IngredientMovement, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	alerts  alertSink
	metrics *metrics.EngineMetrics
}

// NewService wires the inventory service with its dependencies. The alert sink
// may be nil when no notification fan-out is configured.
func NewService(repo Repository, tx txRunner, alerts alertSink, engineMetrics *metrics.EngineMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, alerts: alerts, metrics: engineMetrics}, nil
}

// DeductForSaleInTx runs the deduction cascade for a sale that just turned
// paid, inside the caller's transaction. Finished-goods stock floors at zero;
// ingredient stock does not, a negative remainder being the out-of-stock
// signal. Alerts are returned for the caller to dispatch after commit.
func (s *service) DeductForSaleInTx(ctx context.Context, tx *gorm.DB, sale *models.Sale, actorID *uuid.UUID) (*DeductionResult, error) {
	if sale == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale required")
	}
	if len(sale.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeConflict,
			fmt.Sprintf("sale %s has no items to deduct", sale.ID))
	}

	repo := s.repo.WithTx(tx)
	result := &DeductionResult{
		SaleID:     sale.ID,
		Deductions: []IngredientDeduction{},
		Alerts:     []StockAlert{},
	}

	for _, item := range sale.Items {
		product, err := repo.FindProductForUpdate(ctx, item.ProductID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound,
					fmt.Sprintf("product %s not found", item.ProductID))
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock product")
		}

		before := product.CurrentStock
		after := before - item.Quantity
		if after < 0 {
			after = 0
		}

		// The movement records what actually left the shelf, which can be
		// less than the line quantity when the floor clamps the decrement.
		// Replaying movements must reconstruct the stored stock exactly.
		if deducted := before - after; deducted > 0 {
			if err := repo.UpdateProductStock(ctx, product.ID, after); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product stock")
			}

			unitPrice := item.UnitPrice
			totalAmount := unitPrice.Mul(decimal.NewFromInt(int64(deducted)))
			movement := &models.StockMovement{
				ID:          uuid.New(),
				ProductID:   product.ID,
				Type:        enums.MovementTypeOut,
				Reason:      enums.MovementReasonSale,
				Quantity:    deducted,
				StockBefore: before,
				StockAfter:  after,
				UnitPrice:   &unitPrice,
				TotalAmount: &totalAmount,
				SaleID:      &sale.ID,
				Reference:   &sale.Reference,
				CreatedByID: actorID,
			}
			if err := repo.CreateStockMovement(ctx, movement); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record stock movement")
			}

			if alert := productAlert(product, after); alert != nil {
				result.Alerts = append(result.Alerts, *alert)
			}
		}

		deductions, alerts, err := s.cascadeRecipe(ctx, repo, sale, item, actorID)
		if err != nil {
			return nil, err
		}
		result.Deductions = append(result.Deductions, deductions...)
		result.Alerts = append(result.Alerts, alerts...)
	}

	s.metrics.IncDeduction("ok")
	for _, alert := range result.Alerts {
		s.metrics.IncStockAlert(alert.Type.String())
	}
	return result, nil
}

// cascadeRecipe consumes the raw ingredients behind one sale line, converting
// each recipe quantity into the ingredient's native unit first.
func (s *service) cascadeRecipe(ctx context.Context, repo Repository, sale *models.Sale, item models.SaleItem, actorID *uuid.UUID) ([]IngredientDeduction, []StockAlert, error) {
	recipe, err := repo.FindRecipeByProductID(ctx, item.ProductID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, nil
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load recipe")
	}

	dishes := decimal.NewFromInt(int64(item.Quantity))
	var deductions []IngredientDeduction
	var alerts []StockAlert

	for _, line := range recipe.Ingredients {
		required, err := kitchen.RequiredQuantity(line, dishes)
		if err != nil {
			return nil, nil, err
		}

		ingredient, err := repo.FindIngredientForUpdate(ctx, line.IngredientID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound,
					fmt.Sprintf("ingredient %s not found", line.IngredientID))
			}
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock ingredient")
		}

		before := ingredient.QuantityRemaining
		after := before.Sub(required)

		if err := repo.UpdateIngredientQuantity(ctx, ingredient.ID, after); err != nil {
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update ingredient stock")
		}

		movement := &models.IngredientMovement{
			ID:           uuid.New(),
			IngredientID: ingredient.ID,
			Type:         enums.MovementTypeOut,
			Reason:       enums.MovementReasonSale,
			Quantity:     required,
			StockBefore:  before,
			StockAfter:   after,
			SaleID:       &sale.ID,
			Reference:    &sale.Reference,
			CreatedByID:  actorID,
		}
		if err := repo.CreateIngredientMovement(ctx, movement); err != nil {
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record ingredient movement")
		}

		deductions = append(deductions, IngredientDeduction{
			IngredientID: ingredient.ID,
			Name:         ingredient.Name,
			Consumed:     required,
			Remaining:    after,
			Unit:         ingredient.Unit.String(),
		})

		if alert := ingredientAlert(ingredient, after); alert != nil {
			alerts = append(alerts, *alert)
		}
	}

	return deductions, alerts, nil
}

// PrepareRecipe consumes a recipe's ingredients outside a sale, for kitchen
// batch preparation. The same unit conversion and alerting rules as the sale
// cascade apply.
func (s *service) PrepareRecipe(ctx context.Context, productID uuid.UUID, quantity int, actorID *uuid.UUID) ([]IngredientDeduction, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	var deductions []IngredientDeduction
	var alerts []StockAlert

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		recipe, err := repo.FindRecipeByProductID(ctx, productID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound,
					fmt.Sprintf("product %s has no recipe", productID))
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load recipe")
		}

		dishes := decimal.NewFromInt(int64(quantity))
		for _, line := range recipe.Ingredients {
			required, err := kitchen.RequiredQuantity(line, dishes)
			if err != nil {
				return err
			}

			ingredient, err := repo.FindIngredientForUpdate(ctx, line.IngredientID)
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					return pkgerrors.New(pkgerrors.CodeNotFound,
						fmt.Sprintf("ingredient %s not found", line.IngredientID))
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock ingredient")
			}

			before := ingredient.QuantityRemaining
			after := before.Sub(required)

			if err := repo.UpdateIngredientQuantity(ctx, ingredient.ID, after); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update ingredient stock")
			}

			movement := &models.IngredientMovement{
				ID:           uuid.New(),
				IngredientID: ingredient.ID,
				Type:         enums.MovementTypeOut,
				Reason:       enums.MovementReasonPreparation,
				Quantity:     required,
				StockBefore:  before,
				StockAfter:   after,
				CreatedByID:  actorID,
			}
			if err := repo.CreateIngredientMovement(ctx, movement); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record ingredient movement")
			}

			deductions = append(deductions, IngredientDeduction{
				IngredientID: ingredient.ID,
				Name:         ingredient.Name,
				Consumed:     required,
				Remaining:    after,
				Unit:         ingredient.Unit.String(),
			})

			if alert := ingredientAlert(ingredient, after); alert != nil {
				alerts = append(alerts, *alert)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatchAlerts(ctx, alerts)
	return deductions, nil
}

// RestoreForSaleInTx puts finished-goods stock back for a cancelled sale that
// had already been deducted. Ingredient consumption is deliberately not
// reversed; cooked stock cannot return to the shelf.
func (s *service) RestoreForSaleInTx(ctx context.Context, tx *gorm.DB, sale *models.Sale, actorID *uuid.UUID) error {
	if sale == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "sale required")
	}

	repo := s.repo.WithTx(tx)
	deducted, err := repo.HasSaleStockMovements(ctx, sale.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check sale movements")
	}
	if !deducted {
		return nil
	}

	for _, item := range sale.Items {
		product, err := repo.FindProductForUpdate(ctx, item.ProductID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock product")
		}

		before := product.CurrentStock
		after := before + item.Quantity

		if err := repo.UpdateProductStock(ctx, product.ID, after); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore product stock")
		}

		movement := &models.StockMovement{
			ID:          uuid.New(),
			ProductID:   product.ID,
			Type:        enums.MovementTypeIn,
			Reason:      enums.MovementReasonCancellation,
			Quantity:    item.Quantity,
			StockBefore: before,
			StockAfter:  after,
			SaleID:      &sale.ID,
			Reference:   &sale.Reference,
			CreatedByID: actorID,
		}
		if err := repo.CreateStockMovement(ctx, movement); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record restore movement")
		}
	}

	return nil
}

// ReceivePurchase books a supplier delivery into finished-goods stock. Calling
// it again for an already received purchase is a no-op.
func (s *service) ReceivePurchase(ctx context.Context, purchaseID uuid.UUID, actorID *uuid.UUID) (*models.Purchase, error) {
	if purchaseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase id required")
	}

	var received *models.Purchase
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		purchase, err := repo.FindPurchaseForUpdate(ctx, purchaseID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase")
		}

		if purchase.Status == enums.PurchaseStatusReceived {
			received = purchase
			return nil
		}
		if purchase.Status == enums.PurchaseStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "cancelled purchase cannot be received")
		}

		now := time.Now().UTC()
		for _, item := range purchase.Items {
			product, err := repo.FindProductForUpdate(ctx, item.ProductID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock product")
			}

			qty := item.EffectiveQuantity()
			before := product.CurrentStock
			after := before + qty

			if err := repo.UpdateProductStock(ctx, product.ID, after); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product stock")
			}

			unitPrice := item.UnitPrice
			totalAmount := item.UnitPrice.Mul(decimal.NewFromInt(int64(qty)))
			movement := &models.StockMovement{
				ID:          uuid.New(),
				ProductID:   product.ID,
				Type:        enums.MovementTypeIn,
				Reason:      enums.MovementReasonPurchase,
				Quantity:    qty,
				StockBefore: before,
				StockAfter:  after,
				UnitPrice:   &unitPrice,
				TotalAmount: &totalAmount,
				PurchaseID:  &purchase.ID,
				Reference:   &purchase.Reference,
				CreatedByID: actorID,
			}
			if err := repo.CreateStockMovement(ctx, movement); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record purchase movement")
			}
		}

		if err := repo.MarkPurchaseReceived(ctx, purchase.ID, now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark purchase received")
		}

		purchase.Status = enums.PurchaseStatusReceived
		purchase.ReceivedAt = &now
		received = purchase
		return nil
	})
	if err != nil {
		return nil, err
	}

	return received, nil
}

// AdjustIngredient applies a signed manual correction to ingredient stock with
// a full movement record. Negative remainders are allowed.
func (s *service) AdjustIngredient(ctx context.Context, input AdjustIngredientInput) (*models.Ingredient, error) {
	if input.IngredientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ingredient id required")
	}
	if input.Quantity.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be non-zero")
	}
	if !input.Reason.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("invalid movement reason %q", input.Reason))
	}

	var adjusted *models.Ingredient
	var alerts []StockAlert
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		ingredient, err := repo.FindIngredientForUpdate(ctx, input.IngredientID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "ingredient not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock ingredient")
		}

		before := ingredient.QuantityRemaining
		after := before.Add(input.Quantity)

		if err := repo.UpdateIngredientQuantity(ctx, ingredient.ID, after); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update ingredient stock")
		}

		movement := &models.IngredientMovement{
			ID:           uuid.New(),
			IngredientID: ingredient.ID,
			Type:         enums.MovementTypeAdjustment,
			Reason:       input.Reason,
			Quantity:     input.Quantity,
			StockBefore:  before,
			StockAfter:   after,
			Notes:        input.Notes,
			CreatedByID:  input.ActorID,
		}
		if err := repo.CreateIngredientMovement(ctx, movement); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record adjustment movement")
		}

		ingredient.QuantityRemaining = after
		adjusted = ingredient

		if alert := ingredientAlert(ingredient, after); alert != nil {
			alerts = append(alerts, *alert)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatchAlerts(ctx, alerts)
	return adjusted, nil
}

func (s *service) ListStockMovements(ctx context.Context, productID *uuid.UUID, limit int) ([]models.StockMovement, error) {
	movements, err := s.repo.ListStockMovements(ctx, productID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock movements")
	}
	return movements, nil
}

func (s *service) ListIngredientMovements(ctx context.Context, ingredientID *uuid.UUID, limit int) ([]models.IngredientMovement, error) {
	movements, err := s.repo.ListIngredientMovements(ctx, ingredientID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ingredient movements")
	}
	return movements, nil
}

func (s *service) dispatchAlerts(ctx context.Context, alerts []StockAlert) {
	if s.alerts == nil || len(alerts) == 0 {
		return
	}
	for _, alert := range alerts {
		s.metrics.IncStockAlert(alert.Type.String())
	}
	s.alerts.Dispatch(ctx, alerts)
}

func productAlert(product *models.Product, after int) *StockAlert {
	id := product.ID
	switch {
	case after == 0:
		return &StockAlert{
			Type:      enums.NotificationTypeStockOut,
			ProductID: &id,
			Name:      product.Name,
			Remaining: decimal.Zero,
			Unit:      product.Unit.String(),
		}
	case after <= product.AlertThreshold:
		return &StockAlert{
			Type:      enums.NotificationTypeStockLow,
			ProductID: &id,
			Name:      product.Name,
			Remaining: decimal.NewFromInt(int64(after)),
			Unit:      product.Unit.String(),
		}
	}
	return nil
}

func ingredientAlert(ingredient *models.Ingredient, after decimal.Decimal) *StockAlert {
	id := ingredient.ID
	switch {
	case after.LessThanOrEqual(decimal.Zero):
		return &StockAlert{
			Type:         enums.NotificationTypeStockOut,
			IngredientID: &id,
			Name:         ingredient.Name,
			Remaining:    after,
			Unit:         ingredient.Unit.String(),
		}
	case after.LessThanOrEqual(ingredient.AlertThreshold):
		return &StockAlert{
			Type:         enums.NotificationTypeStockLow,
			IngredientID: &id,
			Name:         ingredient.Name,
			Remaining:    after,
			Unit:         ingredient.Unit.String(),
		}
	}
	return nil
}
