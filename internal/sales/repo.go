package sales

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/barstockwise/backend/pkg/db/models"
	"github.com/barstockwise/backend/pkg/enums"
)

// Repository exposes persistence helpers for sales and their line items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, sale *models.Sale) error
	AddItems(ctx context.Context, items []models.SaleItem) error
	FindByID(ctx context.Context, saleID uuid.UUID) (*models.Sale, error)
	FindByIDForUpdate(ctx context.Context, saleID uuid.UUID) (*models.Sale, error)
	UpdateStatus(ctx context.Context, saleID uuid.UUID, status enums.SaleStatus) error
	UpdateTotalAmount(ctx context.Context, saleID uuid.UUID, total decimal.Decimal) error
	List(ctx context.Context, params ListSalesParams) ([]models.Sale, error)
}

// ListSalesParams filters the sales listing.
type ListSalesParams struct {
	Status          *enums.SaleStatus
	CreditAccountID *uuid.UUID
	TableID         *uuid.UUID
	Limit           int
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a sales repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, sale *models.Sale) error {
	return r.db.WithContext(ctx).Create(sale).Error
}

func (r *repository) AddItems(ctx context.Context, items []models.SaleItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) FindByID(ctx context.Context, saleID uuid.UUID) (*models.Sale, error) {
	var sale models.Sale
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", saleID).
		First(&sale).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, saleID uuid.UUID) (*models.Sale, error) {
	var sale models.Sale
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Items").
		Where("id = ?", saleID).
		First(&sale).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *repository) UpdateStatus(ctx context.Context, saleID uuid.UUID, status enums.SaleStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Sale{}).
		Where("id = ?", saleID).
		UpdateColumn("status", status).Error
}

func (r *repository) UpdateTotalAmount(ctx context.Context, saleID uuid.UUID, total decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.Sale{}).
		Where("id = ?", saleID).
		UpdateColumn("total_amount", total).Error
}

func (r *repository) List(ctx context.Context, params ListSalesParams) ([]models.Sale, error) {
	query := r.db.WithContext(ctx).
		Preload("Items").
		Order("created_at DESC, id DESC")
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.CreditAccountID != nil {
		query = query.Where("credit_account_id = ?", *params.CreditAccountID)
	}
	if params.TableID != nil {
		query = query.Where("table_id = ?", *params.TableID)
	}
	if params.Limit > 0 {
		query = query.Limit(params.Limit)
	}
	var sales []models.Sale
	if err := query.Find(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}
