package credits

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/barstockwise/backend/pkg/db/models"
	"github.com/barstockwise/backend/pkg/enums"
)

// Repository exposes persistence helpers for credit accounts and their ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindAccount(ctx context.Context, accountID uuid.UUID) (*models.CreditAccount, error)
	FindAccountForUpdate(ctx context.Context, accountID uuid.UUID) (*models.CreditAccount, error)
	ListAccounts(ctx context.Context, status *enums.AccountStatus) ([]models.CreditAccount, error)
	CreateTransaction(ctx context.Context, transaction *models.CreditTransaction) error
	UpdateAccountBalance(ctx context.Context, accountID uuid.UUID, balance decimal.Decimal) error
	ListTransactions(ctx context.Context, accountID uuid.UUID, limit int) ([]models.CreditTransaction, error)
	SumTransactions(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error)
	ListUnpaidCreditSales(ctx context.Context, accountID uuid.UUID) ([]models.Sale, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a credits repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindAccount(ctx context.Context, accountID uuid.UUID) (*models.CreditAccount, error) {
	var account models.CreditAccount
	if err := r.db.WithContext(ctx).
		Where("id = ?", accountID).
		First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repository) FindAccountForUpdate(ctx context.Context, accountID uuid.UUID) (*models.CreditAccount, error) {
	var account models.CreditAccount
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", accountID).
		First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repository) ListAccounts(ctx context.Context, status *enums.AccountStatus) ([]models.CreditAccount, error) {
	query := r.db.WithContext(ctx).Model(&models.CreditAccount{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var accounts []models.CreditAccount
	if err := query.Order("customer_name ASC").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *repository) CreateTransaction(ctx context.Context, transaction *models.CreditTransaction) error {
	return r.db.WithContext(ctx).Create(transaction).Error
}

func (r *repository) UpdateAccountBalance(ctx context.Context, accountID uuid.UUID, balance decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.CreditAccount{}).
		Where("id = ?", accountID).
		UpdateColumn("current_balance", balance).Error
}

func (r *repository) ListTransactions(ctx context.Context, accountID uuid.UUID, limit int) ([]models.CreditTransaction, error) {
	query := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var transactions []models.CreditTransaction
	if err := query.Find(&transactions).Error; err != nil {
		return nil, err
	}
	return transactions, nil
}

// SumTransactions replays the ledger and returns the signed balance it implies.
func (r *repository) SumTransactions(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	var transactions []models.CreditTransaction
	if err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at ASC, id ASC").
		Find(&transactions).Error; err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, transaction := range transactions {
		total = total.Add(transaction.BalanceDelta())
	}
	return total, nil
}

// ListUnpaidCreditSales returns the account's delivered-but-unsettled credit
// sales, oldest first. The ordering drives FIFO settlement and must not change.
func (r *repository) ListUnpaidCreditSales(ctx context.Context, accountID uuid.UUID) ([]models.Sale, error) {
	var sales []models.Sale
	if err := r.db.WithContext(ctx).
		Where("credit_account_id = ? AND payment_method = ? AND status = ?",
			accountID, enums.PaymentMethodCredit, enums.SaleStatusCompleted).
		Order("created_at ASC, id ASC").
		Find(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}
