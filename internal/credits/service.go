package credits

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/barstockwise/backend/internal/inventory"
	"github.com/barstockwise/backend/pkg/db/models"
	"github.com/barstockwise/backend/pkg/enums"
	pkgerrors "github.com/barstockwise/backend/pkg/errors"
	"github.com/barstockwise/backend/pkg/metrics"
)

// txRunner abstracts the database transaction wrapper.
type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// salePayer runs the paid-transition pipeline for a sale settled by a payment.
// It executes inside the settlement transaction so the status change, stock
// deduction and table release commit together with the ledger entry.
type salePayer interface {
	MarkPaidInTx(ctx context.Context, tx *gorm.DB, saleID uuid.UUID) ([]inventory.StockAlert, error)
}

// alertSink receives stock alerts after the settlement transaction committed.
type alertSink interface {
	Dispatch(ctx context.Context, alerts []inventory.StockAlert)
}

// Service is the credit settlement engine plus account/ledger reads.
type Service interface {
	ApplyPayment(ctx context.Context, input ApplyPaymentInput) (*SettlementResult, error)
	ApplyAdjustment(ctx context.Context, input ApplyAdjustmentInput) (*models.CreditTransaction, error)
	Reconcile(ctx context.Context, accountID uuid.UUID) (*ReconcileResult, error)
	RecordDebtInTx(ctx context.Context, tx *gorm.DB, input RecordDebtInput) error
	ReverseDebtInTx(ctx context.Context, tx *gorm.DB, input RecordDebtInput) error
	LockAccountInTx(ctx context.Context, tx *gorm.DB, accountID uuid.UUID) error
	GetAccount(ctx context.Context, accountID uuid.UUID) (*models.CreditAccount, error)
	ListAccounts(ctx context.Context, status *enums.AccountStatus) ([]models.CreditAccount, error)
	ListTransactions(ctx context.Context, accountID uuid.UUID, limit int) ([]models.CreditTransaction, error)
}

// ApplyPaymentInput carries a payment against an account's outstanding balance.
type ApplyPaymentInput struct {
	AccountID     uuid.UUID
	Amount        decimal.Decimal
	PaymentMethod enums.PaymentMethod
	Notes         *string
	CreatedByID   *uuid.UUID
}

// ApplyAdjustmentInput carries a signed manual correction to an account balance.
type ApplyAdjustmentInput struct {
	AccountID   uuid.UUID
	Amount      decimal.Decimal
	Notes       *string
	CreatedByID *uuid.UUID
}

// RecordDebtInput books a credit-financed sale onto the customer's tab.
type RecordDebtInput struct {
	AccountID   uuid.UUID
	SaleID      uuid.UUID
	Amount      decimal.Decimal
	CreatedByID *uuid.UUID
}

// SettledSale is one sale fully covered by a payment.
type SettledSale struct {
	SaleID    uuid.UUID       `json:"sale_id"`
	Reference string          `json:"reference"`
	Amount    decimal.Decimal `json:"amount"`
}

// PartialSettlement is the single sale a payment could only partially cover.
type PartialSettlement struct {
	SaleID            uuid.UUID       `json:"sale_id"`
	Reference         string          `json:"reference"`
	AmountApplied     decimal.Decimal `json:"amount_applied"`
	AmountOutstanding decimal.Decimal `json:"amount_outstanding"`
}

// SettlementResult reports how a payment was allocated across unpaid sales.
type SettlementResult struct {
	TransactionID    uuid.UUID          `json:"transaction_id"`
	AccountID        uuid.UUID          `json:"account_id"`
	AmountApplied    decimal.Decimal    `json:"amount_applied"`
	NewBalance       decimal.Decimal    `json:"new_balance"`
	FullySettled     []SettledSale      `json:"fully_settled"`
	PartiallySettled *PartialSettlement `json:"partially_settled,omitempty"`
}

// ReconcileResult compares the stored balance against a ledger replay.
type ReconcileResult struct {
	AccountID     uuid.UUID       `json:"account_id"`
	StoredBalance decimal.Decimal `json:"stored_balance"`
	LedgerBalance decimal.Decimal `json:"ledger_balance"`
	Drift         decimal.Decimal `json:"drift"`
	Corrected     bool            `json:"corrected"`
}

type service struct {
	repo    Repository
	tx      txRunner
	payer   salePayer
	alerts  alertSink
	metrics *metrics.EngineMetrics
}

// NewService wires the settlement engine. The alert sink may be nil when no
// notification fan-out is configured.
func NewService(repo Repository, tx txRunner, payer salePayer, alerts alertSink, engineMetrics *metrics.EngineMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("credits repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if payer == nil {
		return nil, fmt.Errorf("sale payer required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		payer:   payer,
		alerts:  alerts,
		metrics: engineMetrics,
	}, nil
}

// ApplyPayment books a payment on the account ledger and allocates it across
// the account's unpaid credit sales, oldest first. Sales the payment fully
// covers run the paid pipeline inside the same transaction; at most one sale
// ends up partially covered and keeps its status. The balance decreases by
// exactly the payment amount regardless of the allocation.
func (s *service) ApplyPayment(ctx context.Context, input ApplyPaymentInput) (*SettlementResult, error) {
	if input.AccountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id required")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}
	if !input.PaymentMethod.IsValid() || input.PaymentMethod == enums.PaymentMethodCredit {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method must be a real tender, not credit")
	}

	started := time.Now()
	var (
		result *SettlementResult
		alerts []inventory.StockAlert
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		account, err := repo.FindAccountForUpdate(ctx, input.AccountID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "credit account not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock credit account")
		}
		if input.Amount.GreaterThan(account.CurrentBalance) {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf(
				"payment of %s exceeds outstanding balance %s",
				input.Amount, account.CurrentBalance))
		}

		transaction := &models.CreditTransaction{
			ID:            uuid.New(),
			AccountID:     account.ID,
			Type:          enums.TransactionTypePayment,
			Amount:        input.Amount,
			PaymentMethod: &input.PaymentMethod,
			Notes:         input.Notes,
			CreatedByID:   input.CreatedByID,
		}
		if err := repo.CreateTransaction(ctx, transaction); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment transaction")
		}

		newBalance := account.CurrentBalance.Sub(input.Amount)
		if err := repo.UpdateAccountBalance(ctx, account.ID, newBalance); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update account balance")
		}

		// The unpaid-sales read happens inside the same transaction as the
		// mutations so a concurrent payment cannot double-allocate.
		unpaid, err := repo.ListUnpaidCreditSales(ctx, account.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list unpaid credit sales")
		}

		settlement := &SettlementResult{
			TransactionID: transaction.ID,
			AccountID:     account.ID,
			AmountApplied: input.Amount,
			NewBalance:    newBalance,
			FullySettled:  []SettledSale{},
		}
		remaining := input.Amount
		for _, sale := range unpaid {
			if remaining.IsZero() {
				break
			}
			if remaining.GreaterThanOrEqual(sale.TotalAmount) {
				saleAlerts, err := s.payer.MarkPaidInTx(ctx, tx, sale.ID)
				if err != nil {
					return err
				}
				alerts = append(alerts, saleAlerts...)
				settlement.FullySettled = append(settlement.FullySettled, SettledSale{
					SaleID:    sale.ID,
					Reference: sale.Reference,
					Amount:    sale.TotalAmount,
				})
				remaining = remaining.Sub(sale.TotalAmount)
				continue
			}
			settlement.PartiallySettled = &PartialSettlement{
				SaleID:            sale.ID,
				Reference:         sale.Reference,
				AmountApplied:     remaining,
				AmountOutstanding: sale.TotalAmount.Sub(remaining),
			}
			remaining = decimal.Zero
		}

		result = settlement
		return nil
	})
	if err != nil {
		s.metrics.ObserveSettlement("error", time.Since(started))
		s.metrics.IncPaymentApplied("error")
		return nil, err
	}

	s.metrics.ObserveSettlement("ok", time.Since(started))
	s.metrics.IncPaymentApplied("ok")
	for range result.FullySettled {
		s.metrics.IncSaleSettled("full")
	}
	if result.PartiallySettled != nil {
		s.metrics.IncSaleSettled("partial")
	}
	s.dispatchAlerts(ctx, alerts)
	return result, nil
}

// ApplyAdjustment books a signed manual correction. It never touches sale
// settlement; the only constraint is that the balance stays non-negative.
func (s *service) ApplyAdjustment(ctx context.Context, input ApplyAdjustmentInput) (*models.CreditTransaction, error) {
	if input.AccountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id required")
	}
	if input.Amount.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "adjustment amount must be non-zero")
	}

	var transaction *models.CreditTransaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		account, err := repo.FindAccountForUpdate(ctx, input.AccountID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "credit account not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock credit account")
		}

		newBalance := account.CurrentBalance.Add(input.Amount)
		if newBalance.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf(
				"adjustment of %s would drive balance below zero (current %s)",
				input.Amount, account.CurrentBalance))
		}

		transaction = &models.CreditTransaction{
			ID:          uuid.New(),
			AccountID:   account.ID,
			Type:        enums.TransactionTypeAdjustment,
			Amount:      input.Amount,
			Notes:       input.Notes,
			CreatedByID: input.CreatedByID,
		}
		if err := repo.CreateTransaction(ctx, transaction); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record adjustment transaction")
		}
		if err := repo.UpdateAccountBalance(ctx, account.ID, newBalance); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update account balance")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return transaction, nil
}

// Reconcile replays the account ledger and repairs the stored balance if the
// two disagree. The ledger is authoritative.
func (s *service) Reconcile(ctx context.Context, accountID uuid.UUID) (*ReconcileResult, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id required")
	}

	var result *ReconcileResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		account, err := repo.FindAccountForUpdate(ctx, accountID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "credit account not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock credit account")
		}

		ledger, err := repo.SumTransactions(ctx, accountID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replay ledger")
		}

		result = &ReconcileResult{
			AccountID:     accountID,
			StoredBalance: account.CurrentBalance,
			LedgerBalance: ledger,
			Drift:         account.CurrentBalance.Sub(ledger),
		}
		if result.Drift.IsZero() {
			return nil
		}
		if err := repo.UpdateAccountBalance(ctx, accountID, ledger); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "correct account balance")
		}
		result.Corrected = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RecordDebtInTx books a credit-financed sale onto the account inside the
// caller's transaction. The account must be active and stay under its limit.
func (s *service) RecordDebtInTx(ctx context.Context, tx *gorm.DB, input RecordDebtInput) error {
	if input.AccountID == uuid.Nil || input.SaleID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "account id and sale id required")
	}
	if !input.Amount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "debt amount must be positive")
	}

	repo := s.repo.WithTx(tx)
	account, err := repo.FindAccountForUpdate(ctx, input.AccountID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "credit account not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock credit account")
	}
	if account.Status != enums.AccountStatusActive {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf(
			"credit account is %s and cannot take on new debt", account.Status))
	}

	newBalance := account.CurrentBalance.Add(input.Amount)
	if newBalance.GreaterThan(account.CreditLimit) {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf(
			"sale of %s exceeds available credit %s",
			input.Amount, account.AvailableCredit()))
	}

	transaction := &models.CreditTransaction{
		ID:          uuid.New(),
		AccountID:   account.ID,
		Type:        enums.TransactionTypeDebt,
		Amount:      input.Amount,
		SaleID:      &input.SaleID,
		CreatedByID: input.CreatedByID,
	}
	if err := repo.CreateTransaction(ctx, transaction); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record debt transaction")
	}
	if err := repo.UpdateAccountBalance(ctx, account.ID, newBalance); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update account balance")
	}
	return nil
}

// LockAccountInTx takes the account row lock inside the caller's transaction.
// Every path that touches both an account and one of its sales must lock the
// account first, the order payment settlement uses.
func (s *service) LockAccountInTx(ctx context.Context, tx *gorm.DB, accountID uuid.UUID) error {
	if accountID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "account id required")
	}
	if _, err := s.repo.WithTx(tx).FindAccountForUpdate(ctx, accountID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "credit account not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock credit account")
	}
	return nil
}

// ReverseDebtInTx backs out the debt a cancelled credit sale booked, inside
// the caller's transaction. Payments already applied are not refunded, so the
// reversal is capped at the current balance to keep it non-negative.
func (s *service) ReverseDebtInTx(ctx context.Context, tx *gorm.DB, input RecordDebtInput) error {
	if input.AccountID == uuid.Nil || input.SaleID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "account id and sale id required")
	}
	if !input.Amount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "reversal amount must be positive")
	}

	repo := s.repo.WithTx(tx)
	account, err := repo.FindAccountForUpdate(ctx, input.AccountID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "credit account not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock credit account")
	}

	reversal := decimal.Min(input.Amount, account.CurrentBalance)
	if reversal.IsZero() {
		return nil
	}

	notes := "sale cancelled"
	transaction := &models.CreditTransaction{
		ID:          uuid.New(),
		AccountID:   account.ID,
		Type:        enums.TransactionTypeAdjustment,
		Amount:      reversal.Neg(),
		SaleID:      &input.SaleID,
		Notes:       &notes,
		CreatedByID: input.CreatedByID,
	}
	if err := repo.CreateTransaction(ctx, transaction); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record debt reversal")
	}
	if err := repo.UpdateAccountBalance(ctx, account.ID, account.CurrentBalance.Sub(reversal)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update account balance")
	}
	return nil
}

func (s *service) GetAccount(ctx context.Context, accountID uuid.UUID) (*models.CreditAccount, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id required")
	}
	account, err := s.repo.FindAccount(ctx, accountID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "credit account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load credit account")
	}
	return account, nil
}

func (s *service) ListAccounts(ctx context.Context, status *enums.AccountStatus) ([]models.CreditAccount, error) {
	accounts, err := s.repo.ListAccounts(ctx, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list credit accounts")
	}
	return accounts, nil
}

func (s *service) ListTransactions(ctx context.Context, accountID uuid.UUID, limit int) ([]models.CreditTransaction, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id required")
	}
	transactions, err := s.repo.ListTransactions(ctx, accountID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transactions")
	}
	return transactions, nil
}

func (s *service) dispatchAlerts(ctx context.Context, alerts []inventory.StockAlert) {
	if s.alerts == nil || len(alerts) == 0 {
		return
	}
	s.alerts.Dispatch(ctx, alerts)
}
