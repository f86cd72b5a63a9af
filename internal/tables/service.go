package tables

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/barstockwise/backend/pkg/db/models"
	"github.com/barstockwise/backend/pkg/enums"
	pkgerrors "github.com/barstockwise/backend/pkg/errors"
)

// Service couples dining tables to the sale workflow: a sale occupies its
// table on creation and frees it on payment or cancellation.
type Service interface {
	OccupyInTx(ctx context.Context, tx *gorm.DB, tableID, saleID uuid.UUID, customerName *string) error
	ReleaseForSaleInTx(ctx context.Context, tx *gorm.DB, tableID, saleID uuid.UUID) (*models.DiningTable, error)
	List(ctx context.Context) ([]models.DiningTable, error)
}

type service struct {
	repo Repository
}

// NewService wires a tables service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("tables repository required")
	}
	return &service{repo: repo}, nil
}

// OccupyInTx claims a table for a sale. A table already running another open
// sale cannot be claimed; re-claiming for the same sale is a no-op.
func (s *service) OccupyInTx(ctx context.Context, tx *gorm.DB, tableID, saleID uuid.UUID, customerName *string) error {
	if tableID == uuid.Nil || saleID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "table id and sale id required")
	}

	repo := s.repo.WithTx(tx)
	table, err := repo.FindForUpdate(ctx, tableID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "table not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock table")
	}

	if table.Status == enums.TableStatusOccupied {
		if table.CurrentSaleID != nil && *table.CurrentSaleID == saleID {
			return nil
		}
		return pkgerrors.New(pkgerrors.CodeConflict,
			fmt.Sprintf("table %s is already occupied", table.Number))
	}

	if err := repo.Occupy(ctx, tableID, saleID, customerName, time.Now().UTC()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "occupy table")
	}
	return nil
}

// ReleaseForSaleInTx frees a table held by the given sale and returns it.
// Releasing a table the sale does not hold is a no-op returning nil, so
// release stays idempotent across the payment and cancellation paths.
func (s *service) ReleaseForSaleInTx(ctx context.Context, tx *gorm.DB, tableID, saleID uuid.UUID) (*models.DiningTable, error) {
	if tableID == uuid.Nil {
		return nil, nil
	}

	repo := s.repo.WithTx(tx)
	table, err := repo.FindForUpdate(ctx, tableID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock table")
	}

	if table.CurrentSaleID == nil || *table.CurrentSaleID != saleID {
		return nil, nil
	}

	if err := repo.Release(ctx, tableID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release table")
	}
	return table, nil
}

func (s *service) List(ctx context.Context) ([]models.DiningTable, error) {
	tables, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tables")
	}
	return tables, nil
}
