package tables

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/barstockwise/backend/pkg/db/models"
	"github.com/barstockwise/backend/pkg/enums"
	pkgerrors "github.com/barstockwise/backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:tables_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	ddl := `CREATE TABLE IF NOT EXISTS dining_tables (
  id TEXT PRIMARY KEY,
  number TEXT NOT NULL UNIQUE,
  location TEXT,
  capacity INTEGER NOT NULL DEFAULT 4,
  status TEXT NOT NULL DEFAULT 'available',
  occupied_since DATETIME,
  current_sale_id TEXT,
  customer_name TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	if err := conn.Exec(ddl).Error; err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return conn
}

func seedTable(t *testing.T, conn *gorm.DB, number string) *models.DiningTable {
	t.Helper()
	table := &models.DiningTable{
		ID:       uuid.New(),
		Number:   number,
		Capacity: 4,
		Status:   enums.TableStatusAvailable,
	}
	if err := conn.Create(table).Error; err != nil {
		t.Fatalf("seed table: %v", err)
	}
	return table
}

func TestOccupyAndRelease(t *testing.T) {
	conn := newTestDB(t)
	svc, err := NewService(NewRepository(conn))
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	ctx := context.Background()

	table := seedTable(t, conn, "T1")
	saleID := uuid.New()
	name := "walk-in"

	if err := conn.Transaction(func(tx *gorm.DB) error {
		return svc.OccupyInTx(ctx, tx, table.ID, saleID, &name)
	}); err != nil {
		t.Fatalf("occupy: %v", err)
	}

	var reloaded models.DiningTable
	if err := conn.First(&reloaded, "id = ?", table.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Status != enums.TableStatusOccupied || reloaded.CurrentSaleID == nil || *reloaded.CurrentSaleID != saleID {
		t.Fatalf("table not occupied as expected: %+v", reloaded)
	}
	if reloaded.OccupiedSince == nil {
		t.Fatal("expected occupied_since to be set")
	}

	// Re-claiming for the same sale is a no-op.
	if err := conn.Transaction(func(tx *gorm.DB) error {
		return svc.OccupyInTx(ctx, tx, table.ID, saleID, &name)
	}); err != nil {
		t.Fatalf("re-occupy same sale: %v", err)
	}

	// Another sale cannot claim the occupied table.
	err = conn.Transaction(func(tx *gorm.DB) error {
		return svc.OccupyInTx(ctx, tx, table.ID, uuid.New(), nil)
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}

	var released *models.DiningTable
	if err := conn.Transaction(func(tx *gorm.DB) error {
		released, err = svc.ReleaseForSaleInTx(ctx, tx, table.ID, saleID)
		return err
	}); err != nil {
		t.Fatalf("release: %v", err)
	}
	if released == nil || released.Number != "T1" {
		t.Fatalf("release should return the freed table, got %+v", released)
	}
	reloaded = models.DiningTable{}
	if err := conn.First(&reloaded, "id = ?", table.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Status != enums.TableStatusAvailable || reloaded.CurrentSaleID != nil {
		t.Fatalf("table not released: %+v", reloaded)
	}
}

func TestReleaseForeignSaleIsNoop(t *testing.T) {
	conn := newTestDB(t)
	svc, _ := NewService(NewRepository(conn))
	ctx := context.Background()

	table := seedTable(t, conn, "T2")
	owner := uuid.New()
	if err := conn.Transaction(func(tx *gorm.DB) error {
		return svc.OccupyInTx(ctx, tx, table.ID, owner, nil)
	}); err != nil {
		t.Fatalf("occupy: %v", err)
	}

	var released *models.DiningTable
	if err := conn.Transaction(func(tx *gorm.DB) error {
		var err error
		released, err = svc.ReleaseForSaleInTx(ctx, tx, table.ID, uuid.New())
		return err
	}); err != nil {
		t.Fatalf("release foreign: %v", err)
	}
	if released != nil {
		t.Fatalf("foreign release must report nothing freed, got %+v", released)
	}

	var reloaded models.DiningTable
	if err := conn.First(&reloaded, "id = ?", table.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Status != enums.TableStatusOccupied {
		t.Fatalf("foreign release must not free the table: %+v", reloaded)
	}
}
