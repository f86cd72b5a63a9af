package migrate_test

import (
	"strings"
	"testing"
)

func TestProductsMigrationFloorsStockAtZero(t *testing.T) {
	content := readMigration(t, "*_create_products.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS products",
		"CHECK (current_stock >= 0)",
		"DROP TABLE IF EXISTS products",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestIngredientsMigrationAllowsNegativeStock(t *testing.T) {
	content := readMigration(t, "*_create_ingredients.sql")

	if !strings.Contains(content, "CREATE TABLE IF NOT EXISTS ingredients") {
		t.Errorf("missing ingredients table")
	}
	if strings.Contains(content, "CHECK (quantity_remaining >= 0)") {
		t.Errorf("ingredient stock must not be floored at zero")
	}
}

func TestMovementMigrationsRecordBeforeAfter(t *testing.T) {
	content := readMigration(t, "*_create_stock_movements.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS stock_movements",
		"CREATE TABLE IF NOT EXISTS ingredient_movements",
		"stock_before",
		"stock_after",
		"FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE",
		"FOREIGN KEY (ingredient_id) REFERENCES ingredients(id) ON DELETE CASCADE",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
