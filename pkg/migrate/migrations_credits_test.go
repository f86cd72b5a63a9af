package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCreditAccountsMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_credit_accounts.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS credit_accounts",
		"CHECK (credit_limit >= 0)",
		"CHECK (current_balance >= 0)",
		"DROP TABLE IF EXISTS credit_accounts",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCreditTransactionsMigrationReferencesAccounts(t *testing.T) {
	content := readMigration(t, "*_create_credit_transactions.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS credit_transactions",
		"FOREIGN KEY (account_id) REFERENCES credit_accounts(id)",
		"FOREIGN KEY (sale_id) REFERENCES sales(id)",
		"DROP TABLE IF EXISTS credit_transactions",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %q found", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
