package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/barstockwise/backend/internal/credits"
	"github.com/barstockwise/backend/pkg/db/models"
	"github.com/barstockwise/backend/pkg/enums"
	"github.com/barstockwise/backend/pkg/logger"
)

type fakeLedgerReconciler struct {
	accounts   []models.CreditAccount
	listErr    error
	reconciled []uuid.UUID
	corrected  map[uuid.UUID]bool
	failOn     uuid.UUID
}

func (f *fakeLedgerReconciler) ListAccounts(ctx context.Context, status *enums.AccountStatus) ([]models.CreditAccount, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.accounts, nil
}

func (f *fakeLedgerReconciler) Reconcile(ctx context.Context, accountID uuid.UUID) (*credits.ReconcileResult, error) {
	if accountID == f.failOn {
		return nil, errors.New("replay failed")
	}
	f.reconciled = append(f.reconciled, accountID)
	return &credits.ReconcileResult{
		AccountID: accountID,
		Drift:     decimal.Zero,
		Corrected: f.corrected[accountID],
	}, nil
}

func newLedgerReconcileJob(t *testing.T, reconciler *fakeLedgerReconciler) Job {
	t.Helper()
	job, err := NewLedgerReconcileJob(LedgerReconcileJobParams{
		Logger:  logger.New(logger.Options{ServiceName: "test"}),
		Credits: reconciler,
	})
	if err != nil {
		t.Fatalf("NewLedgerReconcileJob: %v", err)
	}
	return job
}

func TestLedgerReconcileJobReplaysEveryActiveAccount(t *testing.T) {
	first := models.CreditAccount{ID: uuid.New()}
	second := models.CreditAccount{ID: uuid.New()}
	reconciler := &fakeLedgerReconciler{
		accounts:  []models.CreditAccount{first, second},
		corrected: map[uuid.UUID]bool{second.ID: true},
	}

	job := newLedgerReconcileJob(t, reconciler)
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(reconciler.reconciled) != 2 {
		t.Fatalf("expected 2 accounts reconciled, got %d", len(reconciler.reconciled))
	}
}

func TestLedgerReconcileJobReportsFailures(t *testing.T) {
	broken := models.CreditAccount{ID: uuid.New()}
	healthy := models.CreditAccount{ID: uuid.New()}
	reconciler := &fakeLedgerReconciler{
		accounts: []models.CreditAccount{broken, healthy},
		failOn:   broken.ID,
	}

	job := newLedgerReconcileJob(t, reconciler)
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error when an account fails to reconcile")
	}
	if len(reconciler.reconciled) != 1 {
		t.Fatalf("expected the healthy account to still be reconciled, got %d", len(reconciler.reconciled))
	}
}

func TestLedgerReconcileJobPropagatesListErrors(t *testing.T) {
	reconciler := &fakeLedgerReconciler{listErr: errors.New("db down")}
	job := newLedgerReconcileJob(t, reconciler)
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
