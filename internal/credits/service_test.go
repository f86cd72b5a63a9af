package credits

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/barstockwise/backend/internal/inventory"
	"github.com/barstockwise/backend/pkg/db/models"
	"github.com/barstockwise/backend/pkg/enums"
	pkgerrors "github.com/barstockwise/backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:credits_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	statements := []string{
		`CREATE TABLE IF NOT EXISTS credit_accounts (
  id TEXT PRIMARY KEY,
  customer_name TEXT NOT NULL,
  phone TEXT,
  email TEXT,
  credit_limit NUMERIC NOT NULL,
  current_balance NUMERIC NOT NULL,
  status TEXT NOT NULL DEFAULT 'active',
  notes TEXT,
  created_by_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS credit_transactions (
  id TEXT PRIMARY KEY,
  account_id TEXT NOT NULL,
  type TEXT NOT NULL,
  amount NUMERIC NOT NULL,
  payment_method TEXT,
  sale_id TEXT,
  notes TEXT,
  created_by_id TEXT,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS sales (
  id TEXT PRIMARY KEY,
  reference TEXT NOT NULL UNIQUE,
  table_id TEXT,
  customer_name TEXT,
  server_id TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  payment_method TEXT NOT NULL,
  credit_account_id TEXT,
  total_amount NUMERIC NOT NULL,
  discount_amount NUMERIC NOT NULL DEFAULT 0,
  notes TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	}
	for _, statement := range statements {
		if err := conn.Exec(statement).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return conn
}

type testTxRunner struct {
	db *gorm.DB
}

func (r *testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(tx)
	})
}

// fakePayer marks sales paid through the settlement transaction and can be
// told to fail on a specific sale.
type fakePayer struct {
	paid   []uuid.UUID
	failOn uuid.UUID
	alerts []inventory.StockAlert
}

func (f *fakePayer) MarkPaidInTx(ctx context.Context, tx *gorm.DB, saleID uuid.UUID) ([]inventory.StockAlert, error) {
	if f.failOn == saleID {
		return nil, errors.New("deduction blew up")
	}
	if err := tx.WithContext(ctx).
		Model(&models.Sale{}).
		Where("id = ?", saleID).
		UpdateColumn("status", enums.SaleStatusPaid).Error; err != nil {
		return nil, err
	}
	f.paid = append(f.paid, saleID)
	return f.alerts, nil
}

type recordingSink struct {
	received []inventory.StockAlert
}

func (r *recordingSink) Dispatch(ctx context.Context, alerts []inventory.StockAlert) {
	r.received = append(r.received, alerts...)
}

func seedAccount(t *testing.T, conn *gorm.DB, limit, balance int64) *models.CreditAccount {
	t.Helper()
	account := &models.CreditAccount{
		ID:             uuid.New(),
		CustomerName:   "Ama Serwaa",
		CreditLimit:    decimal.NewFromInt(limit),
		CurrentBalance: decimal.NewFromInt(balance),
		Status:         enums.AccountStatusActive,
	}
	if err := conn.Create(account).Error; err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return account
}

func seedCreditSale(t *testing.T, conn *gorm.DB, accountID uuid.UUID, total int64, createdAt time.Time) *models.Sale {
	t.Helper()
	sale := &models.Sale{
		ID:              uuid.New(),
		Reference:       "SALE-" + uuid.NewString()[:8],
		Status:          enums.SaleStatusCompleted,
		PaymentMethod:   enums.PaymentMethodCredit,
		CreditAccountID: &accountID,
		TotalAmount:     decimal.NewFromInt(total),
		DiscountAmount:  decimal.Zero,
		CreatedAt:       createdAt,
	}
	if err := conn.Create(sale).Error; err != nil {
		t.Fatalf("seed sale: %v", err)
	}
	return sale
}

func seedDebt(t *testing.T, conn *gorm.DB, accountID uuid.UUID, amount int64, saleID *uuid.UUID, createdAt time.Time) {
	t.Helper()
	transaction := &models.CreditTransaction{
		ID:        uuid.New(),
		AccountID: accountID,
		Type:      enums.TransactionTypeDebt,
		Amount:    decimal.NewFromInt(amount),
		SaleID:    saleID,
		CreatedAt: createdAt,
	}
	if err := conn.Create(transaction).Error; err != nil {
		t.Fatalf("seed debt: %v", err)
	}
}

func newTestService(t *testing.T, conn *gorm.DB, payer salePayer, sink alertSink) Service {
	t.Helper()
	svc, err := NewService(NewRepository(conn), &testTxRunner{db: conn}, payer, sink, nil)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func reloadAccount(t *testing.T, conn *gorm.DB, id uuid.UUID) models.CreditAccount {
	t.Helper()
	var account models.CreditAccount
	if err := conn.First(&account, "id = ?", id).Error; err != nil {
		t.Fatalf("reload account: %v", err)
	}
	return account
}

func reloadSale(t *testing.T, conn *gorm.DB, id uuid.UUID) models.Sale {
	t.Helper()
	var sale models.Sale
	if err := conn.First(&sale, "id = ?", id).Error; err != nil {
		t.Fatalf("reload sale: %v", err)
	}
	return sale
}

func TestApplyPayment_FIFOPartial(t *testing.T) {
	conn := newTestDB(t)
	payer := &fakePayer{}
	svc := newTestService(t, conn, payer, nil)
	ctx := context.Background()

	account := seedAccount(t, conn, 50000, 15000)
	base := time.Now().UTC().Add(-2 * time.Hour)
	older := seedCreditSale(t, conn, account.ID, 9000, base)
	newer := seedCreditSale(t, conn, account.ID, 6000, base.Add(time.Hour))
	seedDebt(t, conn, account.ID, 9000, &older.ID, base)
	seedDebt(t, conn, account.ID, 6000, &newer.ID, base.Add(time.Hour))

	result, err := svc.ApplyPayment(ctx, ApplyPaymentInput{
		AccountID:     account.ID,
		Amount:        decimal.NewFromInt(10000),
		PaymentMethod: enums.PaymentMethodCash,
	})
	if err != nil {
		t.Fatalf("apply payment: %v", err)
	}

	if len(result.FullySettled) != 1 || result.FullySettled[0].SaleID != older.ID {
		t.Fatalf("oldest sale should settle first: %+v", result.FullySettled)
	}
	if result.PartiallySettled == nil || result.PartiallySettled.SaleID != newer.ID {
		t.Fatalf("newer sale should be the partial one: %+v", result.PartiallySettled)
	}
	if !result.PartiallySettled.AmountApplied.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("expected 1000 applied, got %s", result.PartiallySettled.AmountApplied)
	}
	if !result.PartiallySettled.AmountOutstanding.Equal(decimal.NewFromInt(5000)) {
		t.Fatalf("expected 5000 outstanding, got %s", result.PartiallySettled.AmountOutstanding)
	}
	if !result.NewBalance.Equal(decimal.NewFromInt(5000)) {
		t.Fatalf("balance should drop by exactly the payment: %s", result.NewBalance)
	}

	if got := reloadSale(t, conn, older.ID).Status; got != enums.SaleStatusPaid {
		t.Fatalf("older sale should be paid, got %s", got)
	}
	if got := reloadSale(t, conn, newer.ID).Status; got != enums.SaleStatusCompleted {
		t.Fatalf("partially covered sale must keep its status, got %s", got)
	}
	if !reloadAccount(t, conn, account.ID).CurrentBalance.Equal(decimal.NewFromInt(5000)) {
		t.Fatal("stored balance should match result")
	}
}

func TestApplyPayment_ExactFullSettlement(t *testing.T) {
	conn := newTestDB(t)
	payer := &fakePayer{}
	svc := newTestService(t, conn, payer, nil)
	ctx := context.Background()

	account := seedAccount(t, conn, 20000, 9000)
	sale := seedCreditSale(t, conn, account.ID, 9000, time.Now().UTC().Add(-time.Hour))
	seedDebt(t, conn, account.ID, 9000, &sale.ID, time.Now().UTC().Add(-time.Hour))

	result, err := svc.ApplyPayment(ctx, ApplyPaymentInput{
		AccountID:     account.ID,
		Amount:        decimal.NewFromInt(9000),
		PaymentMethod: enums.PaymentMethodMobile,
	})
	if err != nil {
		t.Fatalf("apply payment: %v", err)
	}
	if len(result.FullySettled) != 1 || result.PartiallySettled != nil {
		t.Fatalf("expected one full settlement and no partial: %+v", result)
	}
	if !result.NewBalance.IsZero() {
		t.Fatalf("balance should land exactly at 0, got %s", result.NewBalance)
	}
	if got := reloadSale(t, conn, sale.ID).Status; got != enums.SaleStatusPaid {
		t.Fatalf("sale should be paid, got %s", got)
	}
}

func TestApplyPayment_OverpayRejectedWithoutMutation(t *testing.T) {
	conn := newTestDB(t)
	payer := &fakePayer{}
	svc := newTestService(t, conn, payer, nil)
	ctx := context.Background()

	account := seedAccount(t, conn, 20000, 4000)
	sale := seedCreditSale(t, conn, account.ID, 4000, time.Now().UTC().Add(-time.Hour))

	_, err := svc.ApplyPayment(ctx, ApplyPaymentInput{
		AccountID:     account.ID,
		Amount:        decimal.NewFromInt(5000),
		PaymentMethod: enums.PaymentMethodCash,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	if !reloadAccount(t, conn, account.ID).CurrentBalance.Equal(decimal.NewFromInt(4000)) {
		t.Fatal("balance must be untouched after a rejected payment")
	}
	if got := reloadSale(t, conn, sale.ID).Status; got != enums.SaleStatusCompleted {
		t.Fatalf("sale must be untouched, got %s", got)
	}
	var count int64
	if err := conn.Model(&models.CreditTransaction{}).Count(&count).Error; err != nil {
		t.Fatalf("count transactions: %v", err)
	}
	if count != 0 {
		t.Fatalf("no ledger entry may exist, found %d", count)
	}
}

func TestApplyPayment_MidWalkFailureRollsEverythingBack(t *testing.T) {
	conn := newTestDB(t)
	ctx := context.Background()

	account := seedAccount(t, conn, 50000, 15000)
	base := time.Now().UTC().Add(-2 * time.Hour)
	first := seedCreditSale(t, conn, account.ID, 7000, base)
	second := seedCreditSale(t, conn, account.ID, 8000, base.Add(time.Hour))

	svc := newTestService(t, conn, &fakePayer{failOn: second.ID}, nil)

	_, err := svc.ApplyPayment(ctx, ApplyPaymentInput{
		AccountID:     account.ID,
		Amount:        decimal.NewFromInt(15000),
		PaymentMethod: enums.PaymentMethodCash,
	})
	if err == nil {
		t.Fatal("expected the settlement to fail")
	}

	if !reloadAccount(t, conn, account.ID).CurrentBalance.Equal(decimal.NewFromInt(15000)) {
		t.Fatal("balance must be restored after rollback")
	}
	if got := reloadSale(t, conn, first.ID).Status; got != enums.SaleStatusCompleted {
		t.Fatalf("first sale must roll back to completed, got %s", got)
	}
	var count int64
	if err := conn.Model(&models.CreditTransaction{}).Count(&count).Error; err != nil {
		t.Fatalf("count transactions: %v", err)
	}
	if count != 0 {
		t.Fatalf("ledger must be empty after rollback, found %d", count)
	}
}

func TestApplyPayment_DispatchesAlertsAfterCommit(t *testing.T) {
	conn := newTestDB(t)
	sink := &recordingSink{}
	payer := &fakePayer{alerts: []inventory.StockAlert{
		{Type: enums.NotificationTypeStockLow, Name: "Mojito", Remaining: decimal.NewFromInt(2)},
	}}
	svc := newTestService(t, conn, payer, sink)
	ctx := context.Background()

	account := seedAccount(t, conn, 20000, 5000)
	seedCreditSale(t, conn, account.ID, 5000, time.Now().UTC().Add(-time.Hour))

	if _, err := svc.ApplyPayment(ctx, ApplyPaymentInput{
		AccountID:     account.ID,
		Amount:        decimal.NewFromInt(5000),
		PaymentMethod: enums.PaymentMethodCard,
	}); err != nil {
		t.Fatalf("apply payment: %v", err)
	}
	if len(sink.received) != 1 || sink.received[0].Name != "Mojito" {
		t.Fatalf("alerts should reach the sink: %+v", sink.received)
	}
}

func TestApplyPayment_RejectsCreditTender(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, &fakePayer{}, nil)

	_, err := svc.ApplyPayment(context.Background(), ApplyPaymentInput{
		AccountID:     uuid.New(),
		Amount:        decimal.NewFromInt(100),
		PaymentMethod: enums.PaymentMethodCredit,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestApplyAdjustment(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, &fakePayer{}, nil)
	ctx := context.Background()

	account := seedAccount(t, conn, 20000, 3000)

	transaction, err := svc.ApplyAdjustment(ctx, ApplyAdjustmentInput{
		AccountID: account.ID,
		Amount:    decimal.NewFromInt(-1000),
	})
	if err != nil {
		t.Fatalf("apply adjustment: %v", err)
	}
	if transaction.Type != enums.TransactionTypeAdjustment {
		t.Fatalf("unexpected type %s", transaction.Type)
	}
	if !reloadAccount(t, conn, account.ID).CurrentBalance.Equal(decimal.NewFromInt(2000)) {
		t.Fatal("adjustment should move the balance directly")
	}

	// Driving the balance negative is rejected.
	_, err = svc.ApplyAdjustment(ctx, ApplyAdjustmentInput{
		AccountID: account.ID,
		Amount:    decimal.NewFromInt(-5000),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestReconcile_BalanceConservation(t *testing.T) {
	conn := newTestDB(t)
	payer := &fakePayer{}
	svc := newTestService(t, conn, payer, nil)
	ctx := context.Background()

	account := seedAccount(t, conn, 50000, 0)
	base := time.Now().UTC().Add(-3 * time.Hour)

	// Run debt, payment and adjustment through the service, then verify the
	// stored balance matches a full ledger replay.
	if err := conn.Transaction(func(tx *gorm.DB) error {
		return svc.RecordDebtInTx(ctx, tx, RecordDebtInput{
			AccountID: account.ID,
			SaleID:    uuid.New(),
			Amount:    decimal.NewFromInt(12000),
		})
	}); err != nil {
		t.Fatalf("record debt: %v", err)
	}
	seedCreditSale(t, conn, account.ID, 12000, base)

	if _, err := svc.ApplyPayment(ctx, ApplyPaymentInput{
		AccountID:     account.ID,
		Amount:        decimal.NewFromInt(7000),
		PaymentMethod: enums.PaymentMethodCash,
	}); err != nil {
		t.Fatalf("apply payment: %v", err)
	}
	if _, err := svc.ApplyAdjustment(ctx, ApplyAdjustmentInput{
		AccountID: account.ID,
		Amount:    decimal.NewFromInt(-500),
	}); err != nil {
		t.Fatalf("apply adjustment: %v", err)
	}

	result, err := svc.Reconcile(ctx, account.ID)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if !result.LedgerBalance.Equal(decimal.NewFromInt(4500)) {
		t.Fatalf("ledger should imply 4500, got %s", result.LedgerBalance)
	}
	if !result.Drift.IsZero() || result.Corrected {
		t.Fatalf("balance and ledger should already agree: %+v", result)
	}
}

func TestReconcile_RepairsDrift(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, &fakePayer{}, nil)
	ctx := context.Background()

	account := seedAccount(t, conn, 50000, 9999)
	seedDebt(t, conn, account.ID, 4000, nil, time.Now().UTC().Add(-time.Hour))

	result, err := svc.Reconcile(ctx, account.ID)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if !result.Corrected {
		t.Fatal("drifted balance should be corrected")
	}
	if !reloadAccount(t, conn, account.ID).CurrentBalance.Equal(decimal.NewFromInt(4000)) {
		t.Fatal("stored balance should now follow the ledger")
	}
}

func TestRecordDebtInTx_Guards(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, &fakePayer{}, nil)
	ctx := context.Background()

	over := seedAccount(t, conn, 5000, 4000)
	err := conn.Transaction(func(tx *gorm.DB) error {
		return svc.RecordDebtInTx(ctx, tx, RecordDebtInput{
			AccountID: over.ID,
			SaleID:    uuid.New(),
			Amount:    decimal.NewFromInt(2000),
		})
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected credit limit rejection, got %v", err)
	}

	suspended := seedAccount(t, conn, 5000, 0)
	if err := conn.Model(&models.CreditAccount{}).
		Where("id = ?", suspended.ID).
		UpdateColumn("status", enums.AccountStatusSuspended).Error; err != nil {
		t.Fatalf("suspend account: %v", err)
	}
	err = conn.Transaction(func(tx *gorm.DB) error {
		return svc.RecordDebtInTx(ctx, tx, RecordDebtInput{
			AccountID: suspended.ID,
			SaleID:    uuid.New(),
			Amount:    decimal.NewFromInt(100),
		})
	})
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict for suspended account, got %v", err)
	}
}
