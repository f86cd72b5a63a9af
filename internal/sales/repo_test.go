package sales

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barstockwise/backend/pkg/db/models"
	"github.com/barstockwise/backend/pkg/enums"
)

func seedRepoSale(t *testing.T, repo Repository, status enums.SaleStatus, accountID *uuid.UUID, createdAt time.Time) *models.Sale {
	t.Helper()
	sale := &models.Sale{
		ID:              uuid.New(),
		Reference:       "SALE-TEST-" + uuid.NewString()[:6],
		Status:          status,
		PaymentMethod:   enums.PaymentMethodCash,
		CreditAccountID: accountID,
		TotalAmount:     decimal.NewFromInt(4500),
		DiscountAmount:  decimal.Zero,
		CreatedAt:       createdAt,
		Items: []models.SaleItem{
			{ID: uuid.New(), ProductID: uuid.New(), Quantity: 3, UnitPrice: decimal.NewFromInt(1500)},
		},
	}
	if accountID != nil {
		sale.PaymentMethod = enums.PaymentMethodCredit
	}
	require.NoError(t, repo.Create(context.Background(), sale))
	return sale
}

func TestRepositoryFindByIDPreloadsItems(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)

	created := seedRepoSale(t, repo, enums.SaleStatusPending, nil, time.Now().UTC())

	found, err := repo.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, created.Reference, found.Reference)
	assert.Equal(t, 3, found.Items[0].Quantity)
}

func TestRepositoryListFilters(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	accountID := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)
	seedRepoSale(t, repo, enums.SaleStatusPending, nil, base)
	completed := seedRepoSale(t, repo, enums.SaleStatusCompleted, &accountID, base.Add(time.Minute))
	seedRepoSale(t, repo, enums.SaleStatusCompleted, nil, base.Add(2*time.Minute))

	status := enums.SaleStatusCompleted
	list, err := repo.List(ctx, ListSalesParams{Status: &status})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = repo.List(ctx, ListSalesParams{Status: &status, CreditAccountID: &accountID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, completed.ID, list[0].ID)

	list, err = repo.List(ctx, ListSalesParams{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRepositoryUpdateStatus(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	sale := seedRepoSale(t, repo, enums.SaleStatusPending, nil, time.Now().UTC())
	require.NoError(t, repo.UpdateStatus(ctx, sale.ID, enums.SaleStatusPreparing))

	found, err := repo.FindByIDForUpdate(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.SaleStatusPreparing, found.Status)
}
