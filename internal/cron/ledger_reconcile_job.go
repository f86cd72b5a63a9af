package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/barstockwise/backend/internal/credits"
	"github.com/barstockwise/backend/pkg/db/models"
	"github.com/barstockwise/backend/pkg/enums"
	"github.com/barstockwise/backend/pkg/logger"
)

type ledgerReconciler interface {
	ListAccounts(ctx context.Context, status *enums.AccountStatus) ([]models.CreditAccount, error)
	Reconcile(ctx context.Context, accountID uuid.UUID) (*credits.ReconcileResult, error)
}

// LedgerReconcileJobParams configure the nightly ledger replay.
type LedgerReconcileJobParams struct {
	Logger  *logger.Logger
	Credits ledgerReconciler
}

// NewLedgerReconcileJob replays every active account's transaction ledger and
// repairs stored balances that have drifted.
func NewLedgerReconcileJob(params LedgerReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Credits == nil {
		return nil, fmt.Errorf("credits service required")
	}
	return &ledgerReconcileJob{
		logg:    params.Logger,
		credits: params.Credits,
	}, nil
}

type ledgerReconcileJob struct {
	logg    *logger.Logger
	credits ledgerReconciler
}

func (j *ledgerReconcileJob) Name() string { return "ledger-reconcile" }

func (j *ledgerReconcileJob) Run(ctx context.Context) error {
	status := enums.AccountStatusActive
	accounts, err := j.credits.ListAccounts(ctx, &status)
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}

	var corrected int
	var failed int
	for _, account := range accounts {
		result, err := j.credits.Reconcile(ctx, account.ID)
		if err != nil {
			failed++
			errCtx := j.logg.WithAccountID(ctx, account.ID.String())
			j.logg.Error(errCtx, "ledger reconcile failed for account", err)
			continue
		}
		if result.Corrected {
			corrected++
			driftCtx := j.logg.WithFields(ctx, map[string]any{
				"account_id":     account.ID.String(),
				"stored_balance": result.StoredBalance.String(),
				"ledger_balance": result.LedgerBalance.String(),
				"drift":          result.Drift.String(),
			})
			j.logg.Warn(driftCtx, "repaired drifted account balance")
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"accounts_checked": len(accounts),
		"corrected":        corrected,
		"failed":           failed,
	})
	j.logg.Info(logCtx, "ledger reconcile complete")

	if failed > 0 {
		return fmt.Errorf("ledger reconcile: %d accounts failed", failed)
	}
	return nil
}
