package tables

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/barstockwise/backend/pkg/db/models"
	"github.com/barstockwise/backend/pkg/enums"
)

// Repository manages persistence for dining tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindForUpdate(ctx context.Context, tableID uuid.UUID) (*models.DiningTable, error)
	Occupy(ctx context.Context, tableID uuid.UUID, saleID uuid.UUID, customerName *string, since time.Time) error
	Release(ctx context.Context, tableID uuid.UUID) error
	List(ctx context.Context) ([]models.DiningTable, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a tables repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindForUpdate(ctx context.Context, tableID uuid.UUID) (*models.DiningTable, error) {
	var table models.DiningTable
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", tableID).
		First(&table).Error; err != nil {
		return nil, err
	}
	return &table, nil
}

func (r *repository) Occupy(ctx context.Context, tableID uuid.UUID, saleID uuid.UUID, customerName *string, since time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.DiningTable{}).
		Where("id = ?", tableID).
		Updates(map[string]any{
			"status":          enums.TableStatusOccupied,
			"current_sale_id": saleID,
			"customer_name":   customerName,
			"occupied_since":  since,
		}).Error
}

func (r *repository) Release(ctx context.Context, tableID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.DiningTable{}).
		Where("id = ?", tableID).
		Updates(map[string]any{
			"status":          enums.TableStatusAvailable,
			"current_sale_id": nil,
			"customer_name":   nil,
			"occupied_since":  nil,
		}).Error
}

func (r *repository) List(ctx context.Context) ([]models.DiningTable, error) {
	var tables []models.DiningTable
	if err := r.db.WithContext(ctx).Order("number ASC").Find(&tables).Error; err != nil {
		return nil, err
	}
	return tables, nil
}
