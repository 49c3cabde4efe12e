package migrate_test

import (
	"strings"
	"testing"

	"github.com/AmadouLah/pneumback-sub001/pkg/migrate"
)

func TestPaymentInvoicesMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_payment_invoices.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS payment_invoices",
		"idx_payment_invoices_token",
		"FOREIGN KEY (quote_request_id) REFERENCES quote_requests(id) ON DELETE CASCADE",
		"CHECK (total_amount > 0)",
		"CHECK (status IN ('unpaid', 'pending', 'paid', 'failed'))",
		"manual_review BOOLEAN NOT NULL DEFAULT FALSE",
		"DROP TABLE IF EXISTS payment_invoices",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("migrations dir invalid: %v", err)
	}
}
