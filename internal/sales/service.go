package sales

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/barstockwise/backend/internal/credits"
	"github.com/barstockwise/backend/internal/inventory"
	"github.com/barstockwise/backend/internal/kitchen"
	"github.com/barstockwise/backend/internal/tables"
	"github.com/barstockwise/backend/pkg/db/models"
	"github.com/barstockwise/backend/pkg/enums"
	pkgerrors "github.com/barstockwise/backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// creditLedger books and reverses credit sale debt on the customer's account.
type creditLedger interface {
	RecordDebtInTx(ctx context.Context, tx *gorm.DB, input credits.RecordDebtInput) error
	ReverseDebtInTx(ctx context.Context, tx *gorm.DB, input credits.RecordDebtInput) error
	LockAccountInTx(ctx context.Context, tx *gorm.DB, accountID uuid.UUID) error
}

// notifier fans out alerts after the mutating transaction committed.
type notifier interface {
	Dispatch(ctx context.Context, alerts []inventory.StockAlert)
	NotifyTableFreed(ctx context.Context, tableID uuid.UUID, number string)
}

// Service runs the sale workflow from order to settlement or cancellation.
type Service interface {
	Create(ctx context.Context, input CreateSaleInput) (*models.Sale, error)
	AddItems(ctx context.Context, saleID uuid.UUID, items []CreateSaleItemInput, actorID *uuid.UUID) (*models.Sale, error)
	Get(ctx context.Context, saleID uuid.UUID) (*models.Sale, error)
	List(ctx context.Context, params ListSalesParams) ([]models.Sale, error)
	UpdateStatus(ctx context.Context, saleID uuid.UUID, target enums.SaleStatus, actorID *uuid.UUID) (*models.Sale, error)
	MarkPaid(ctx context.Context, saleID uuid.UUID, actorID *uuid.UUID) (*PaidOutcome, error)
	Cancel(ctx context.Context, saleID uuid.UUID, actorID *uuid.UUID) (*models.Sale, error)
}

// CreateSaleItemInput is one requested product line.
type CreateSaleItemInput struct {
	ProductID uuid.UUID
	Quantity  int
	UnitPrice decimal.Decimal
	Notes     *string
}

// CreateSaleInput opens a new sale.
type CreateSaleInput struct {
	TableID         *uuid.UUID
	CustomerName    *string
	ServerID        *uuid.UUID
	PaymentMethod   enums.PaymentMethod
	CreditAccountID *uuid.UUID
	DiscountAmount  decimal.Decimal
	Notes           *string
	Items           []CreateSaleItemInput
}

type service struct {
	repo      Repository
	tx        txRunner
	settler   *Settler
	inventory inventory.Service
	kitchen   kitchen.Service
	tables    tables.Service
	ledger    creditLedger
	notify    notifier
}

// NewService wires the sale workflow. The notifier may be nil when no alert
// fan-out is configured.
func NewService(
	repo Repository,
	tx txRunner,
	settler *Settler,
	inventorySvc inventory.Service,
	kitchenSvc kitchen.Service,
	tablesSvc tables.Service,
	ledger creditLedger,
	notify notifier,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if settler == nil {
		return nil, fmt.Errorf("settler required")
	}
	if inventorySvc == nil {
		return nil, fmt.Errorf("inventory service required")
	}
	if kitchenSvc == nil {
		return nil, fmt.Errorf("kitchen service required")
	}
	if tablesSvc == nil {
		return nil, fmt.Errorf("tables service required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("credit ledger required")
	}
	return &service{
		repo:      repo,
		tx:        tx,
		settler:   settler,
		inventory: inventorySvc,
		kitchen:   kitchenSvc,
		tables:    tablesSvc,
		ledger:    ledger,
		notify:    notify,
	}, nil
}

// Create opens a sale after checking every recipe-backed item can still be
// prepared. A credit-financed sale books its debt on the account and a table,
// when given, is claimed for the sale, all in one transaction.
func (s *service) Create(ctx context.Context, input CreateSaleInput) (*models.Sale, error) {
	if err := s.validateCreate(input); err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, item := range input.Items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	if input.DiscountAmount.GreaterThan(total) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount exceeds sale total")
	}
	total = total.Sub(input.DiscountAmount)

	for _, item := range input.Items {
		availability, err := s.kitchen.CheckAvailability(ctx, item.ProductID, item.Quantity)
		if err != nil {
			return nil, err
		}
		if !availability.CanBePrepared {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("product %s cannot be prepared with current stock", item.ProductID)).
				WithDetails(availability.Missing)
		}
	}

	sale := &models.Sale{
		ID:              uuid.New(),
		Reference:       generateReference(),
		TableID:         input.TableID,
		CustomerName:    input.CustomerName,
		ServerID:        input.ServerID,
		Status:          enums.SaleStatusPending,
		PaymentMethod:   input.PaymentMethod,
		CreditAccountID: input.CreditAccountID,
		TotalAmount:     total,
		DiscountAmount:  input.DiscountAmount,
		Notes:           input.Notes,
	}
	for _, item := range input.Items {
		sale.Items = append(sale.Items, models.SaleItem{
			ID:        uuid.New(),
			SaleID:    sale.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Notes:     item.Notes,
		})
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, sale); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create sale")
		}
		if input.TableID != nil {
			if err := s.tables.OccupyInTx(ctx, tx, *input.TableID, sale.ID, input.CustomerName); err != nil {
				return err
			}
		}
		if sale.IsCreditFinanced() {
			return s.ledger.RecordDebtInTx(ctx, tx, credits.RecordDebtInput{
				AccountID:   *sale.CreditAccountID,
				SaleID:      sale.ID,
				Amount:      sale.TotalAmount,
				CreatedByID: input.ServerID,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

func (s *service) validateCreate(input CreateSaleInput) error {
	if err := validateItems(input.Items); err != nil {
		return err
	}
	if !input.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if input.PaymentMethod == enums.PaymentMethodCredit && input.CreditAccountID == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "credit sales need a credit account")
	}
	if input.DiscountAmount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount cannot be negative")
	}
	return nil
}

func validateItems(items []CreateSaleItemInput) error {
	if len(items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "a sale needs at least one item")
	}
	for _, item := range items {
		if item.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "item product id required")
		}
		if item.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
		if item.UnitPrice.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "item unit price cannot be negative")
		}
	}
	return nil
}

// AddItems appends lines to an open sale, recomputing its total and booking
// the extra debt when the sale runs on credit. A paid or cancelled sale can no
// longer change.
func (s *service) AddItems(ctx context.Context, saleID uuid.UUID, items []CreateSaleItemInput, actorID *uuid.UUID) (*models.Sale, error) {
	if saleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale id required")
	}
	if err := validateItems(items); err != nil {
		return nil, err
	}

	for _, item := range items {
		availability, err := s.kitchen.CheckAvailability(ctx, item.ProductID, item.Quantity)
		if err != nil {
			return nil, err
		}
		if !availability.CanBePrepared {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("product %s cannot be prepared with current stock", item.ProductID)).
				WithDetails(availability.Missing)
		}
	}

	var sale *models.Sale
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := s.lockAccountFirst(ctx, tx, repo, saleID); err != nil {
			return err
		}

		current, err := repo.FindByIDForUpdate(ctx, saleID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock sale")
		}
		if current.Status == enums.SaleStatusPaid || current.Status == enums.SaleStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("sale %s is %s and its items can no longer change", current.Reference, current.Status))
		}

		delta := decimal.Zero
		var rows []models.SaleItem
		for _, item := range items {
			row := models.SaleItem{
				ID:        uuid.New(),
				SaleID:    current.ID,
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
				Notes:     item.Notes,
			}
			delta = delta.Add(row.Subtotal())
			rows = append(rows, row)
		}
		if err := repo.AddItems(ctx, rows); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add sale items")
		}

		newTotal := current.TotalAmount.Add(delta)
		if err := repo.UpdateTotalAmount(ctx, current.ID, newTotal); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update sale total")
		}

		if current.IsCreditFinanced() {
			if err := s.ledger.RecordDebtInTx(ctx, tx, credits.RecordDebtInput{
				AccountID:   *current.CreditAccountID,
				SaleID:      current.ID,
				Amount:      delta,
				CreatedByID: actorID,
			}); err != nil {
				return err
			}
		}

		current.Items = append(current.Items, rows...)
		current.TotalAmount = newTotal
		sale = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

// lockAccountFirst takes the credit account lock before the sale row lock.
// Payment settlement holds the account while it settles sales, so every other
// path touching both rows must acquire them in that order. The account id on
// a sale never changes, which makes the unlocked peek safe.
func (s *service) lockAccountFirst(ctx context.Context, tx *gorm.DB, repo Repository, saleID uuid.UUID) error {
	peek, err := repo.FindByID(ctx, saleID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sale")
	}
	if !peek.IsCreditFinanced() {
		return nil
	}
	return s.ledger.LockAccountInTx(ctx, tx, *peek.CreditAccountID)
}

func (s *service) Get(ctx context.Context, saleID uuid.UUID) (*models.Sale, error) {
	if saleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale id required")
	}
	sale, err := s.repo.FindByID(ctx, saleID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sale")
	}
	return sale, nil
}

func (s *service) List(ctx context.Context, params ListSalesParams) ([]models.Sale, error) {
	sales, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sales")
	}
	return sales, nil
}

// UpdateStatus advances a sale through the workflow. Transitions into paid and
// cancelled carry side effects and route through their dedicated pipelines.
func (s *service) UpdateStatus(ctx context.Context, saleID uuid.UUID, target enums.SaleStatus, actorID *uuid.UUID) (*models.Sale, error) {
	if saleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale id required")
	}
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid sale status %q", target))
	}

	switch target {
	case enums.SaleStatusPaid:
		outcome, err := s.MarkPaid(ctx, saleID, actorID)
		if err != nil {
			return nil, err
		}
		return outcome.Sale, nil
	case enums.SaleStatusCancelled:
		return s.Cancel(ctx, saleID, actorID)
	}

	var sale *models.Sale
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindByIDForUpdate(ctx, saleID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock sale")
		}
		if current.Status == target {
			sale = current
			return nil
		}
		if !current.Status.CanTransitionTo(target) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("sale %s cannot move from %s to %s", current.Reference, current.Status, target))
		}
		if err := repo.UpdateStatus(ctx, current.ID, target); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update sale status")
		}
		current.Status = target
		sale = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

// MarkPaid settles the sale through the paid pipeline and dispatches any
// stock alerts once the transaction committed.
func (s *service) MarkPaid(ctx context.Context, saleID uuid.UUID, actorID *uuid.UUID) (*PaidOutcome, error) {
	if saleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale id required")
	}

	var outcome *PaidOutcome
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		outcome, err = s.settler.SettleInTx(ctx, tx, saleID, actorID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.notify != nil {
		if len(outcome.Alerts) > 0 {
			s.notify.Dispatch(ctx, outcome.Alerts)
		}
		if outcome.FreedTable != nil {
			s.notify.NotifyTableFreed(ctx, outcome.FreedTable.ID, outcome.FreedTable.Number)
		}
	}
	return outcome, nil
}

// Cancel voids a sale. Finished-goods stock already deducted comes back with
// cancellation movements; ingredient consumption stays spent, the dishes were
// cooked. A credit-financed sale has its booked debt reversed and the table,
// when held, is released.
func (s *service) Cancel(ctx context.Context, saleID uuid.UUID, actorID *uuid.UUID) (*models.Sale, error) {
	if saleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale id required")
	}

	var (
		sale  *models.Sale
		freed *models.DiningTable
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := s.lockAccountFirst(ctx, tx, repo, saleID); err != nil {
			return err
		}

		current, err := repo.FindByIDForUpdate(ctx, saleID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock sale")
		}
		if current.Status == enums.SaleStatusCancelled {
			sale = current
			return nil
		}
		if !current.Status.CanTransitionTo(enums.SaleStatusCancelled) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("sale %s is %s and cannot be cancelled", current.Reference, current.Status))
		}

		if err := s.inventory.RestoreForSaleInTx(ctx, tx, current, actorID); err != nil {
			return err
		}
		if current.IsCreditFinanced() {
			if err := s.ledger.ReverseDebtInTx(ctx, tx, credits.RecordDebtInput{
				AccountID:   *current.CreditAccountID,
				SaleID:      current.ID,
				Amount:      current.TotalAmount,
				CreatedByID: actorID,
			}); err != nil {
				return err
			}
		}
		if current.TableID != nil {
			freed, err = s.tables.ReleaseForSaleInTx(ctx, tx, *current.TableID, current.ID)
			if err != nil {
				return err
			}
		}
		if err := repo.UpdateStatus(ctx, current.ID, enums.SaleStatusCancelled); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel sale")
		}
		current.Status = enums.SaleStatusCancelled
		sale = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.notify != nil && freed != nil {
		s.notify.NotifyTableFreed(ctx, freed.ID, freed.Number)
	}
	return sale, nil
}

// generateReference builds a human-readable sale reference like
// SALE-20260829-3F2A1C.
func generateReference() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:6]
	return fmt.Sprintf("SALE-%s-%s", time.Now().UTC().Format("20060102"), suffix)
}
