package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/calderaops/procurehub-backend/pkg/migrate"
)

func TestBillableItemsMigrationContainsUniqueIndex(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_billable_items.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no billable items migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TYPE billable_source_type AS ENUM",
		"CREATE TABLE IF NOT EXISTS billable_items",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_billable_items_source_item",
		"ON billable_items (source_type, source_id, cart_item_id)",
		"DROP TABLE IF EXISTS billable_items",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationsDirValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("ValidateDir: %v", err)
	}
}
