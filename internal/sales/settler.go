package sales

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/barstockwise/backend/internal/inventory"
	"github.com/barstockwise/backend/internal/tables"
	"github.com/barstockwise/backend/pkg/db/models"
	"github.com/barstockwise/backend/pkg/enums"
	pkgerrors "github.com/barstockwise/backend/pkg/errors"
)

// PaidOutcome is what a successful paid transition produced.
type PaidOutcome struct {
	Sale       *models.Sale
	Deductions []inventory.IngredientDeduction
	Alerts     []inventory.StockAlert
	FreedTable *models.DiningTable
}

// Settler runs the paid-transition pipeline: status change, stock deduction
// and table release in one transaction. Both the direct mark-paid operation
// and payment-driven settlement go through it, so a sale turns paid the same
// way regardless of who triggered it.
type Settler struct {
	repo      Repository
	inventory inventory.Service
	tables    tables.Service
}

// NewSettler wires the paid pipeline with its collaborators.
func NewSettler(repo Repository, inventorySvc inventory.Service, tablesSvc tables.Service) (*Settler, error) {
	if repo == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	if inventorySvc == nil {
		return nil, fmt.Errorf("inventory service required")
	}
	if tablesSvc == nil {
		return nil, fmt.Errorf("tables service required")
	}
	return &Settler{repo: repo, inventory: inventorySvc, tables: tablesSvc}, nil
}

// MarkPaidInTx settles a sale inside the caller's transaction and returns the
// stock alerts the deduction raised. An already-paid sale is a no-op so the
// deduction cannot fire twice.
func (s *Settler) MarkPaidInTx(ctx context.Context, tx *gorm.DB, saleID uuid.UUID) ([]inventory.StockAlert, error) {
	outcome, err := s.SettleInTx(ctx, tx, saleID, nil)
	if err != nil {
		return nil, err
	}
	return outcome.Alerts, nil
}

// SettleInTx is MarkPaidInTx with the full outcome, for callers that also
// care about deductions and the freed table.
func (s *Settler) SettleInTx(ctx context.Context, tx *gorm.DB, saleID uuid.UUID, actorID *uuid.UUID) (*PaidOutcome, error) {
	repo := s.repo.WithTx(tx)

	sale, err := repo.FindByIDForUpdate(ctx, saleID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock sale")
	}

	if sale.Status == enums.SaleStatusPaid {
		return &PaidOutcome{Sale: sale}, nil
	}
	if !sale.Status.CanTransitionTo(enums.SaleStatusPaid) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("sale %s cannot move from %s to paid", sale.Reference, sale.Status))
	}

	deduction, err := s.inventory.DeductForSaleInTx(ctx, tx, sale, actorID)
	if err != nil {
		return nil, err
	}

	if err := repo.UpdateStatus(ctx, sale.ID, enums.SaleStatusPaid); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark sale paid")
	}
	sale.Status = enums.SaleStatusPaid

	outcome := &PaidOutcome{
		Sale:       sale,
		Deductions: deduction.Deductions,
		Alerts:     deduction.Alerts,
	}
	if sale.TableID != nil {
		freed, err := s.tables.ReleaseForSaleInTx(ctx, tx, *sale.TableID, sale.ID)
		if err != nil {
			return nil, err
		}
		outcome.FreedTable = freed
	}
	return outcome, nil
}
