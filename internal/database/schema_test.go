package database

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const migrationsDir = "../../migrations"

func TestMigrationFilesExist(t *testing.T) {
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		t.Fatal("Migrations directory does not exist")
	}

	expectedMigrations := []string{
		"00001_create_users_table.sql",
		"00002_create_products_table.sql",
		"00003_create_product_reviews_table.sql",
		"00004_create_orders_table.sql",
		"00005_create_order_items_table.sql",
		"00006_create_order_status_history_table.sql",
		"00007_create_counters_table.sql",
		"00008_create_banners_table.sql",
		"00009_create_user_favorites_table.sql",
	}

	for _, migration := range expectedMigrations {
		path := filepath.Join(migrationsDir, migration)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			t.Errorf("Migration file %s does not exist", migration)
		}
	}
}

func TestMigrationFilesHaveUpAndDown(t *testing.T) {
	files, err := os.ReadDir(migrationsDir)
	if err != nil {
		t.Fatalf("Failed to read migrations directory: %v", err)
	}

	sqlFileCount := 0
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		sqlFileCount++
		content, err := os.ReadFile(filepath.Join(migrationsDir, file.Name()))
		if err != nil {
			t.Errorf("Failed to read migration file %s: %v", file.Name(), err)
			continue
		}

		contentStr := string(content)

		for _, directive := range []string{
			"-- +goose Up",
			"-- +goose Down",
			"-- +goose StatementBegin",
			"-- +goose StatementEnd",
		} {
			if !strings.Contains(contentStr, directive) {
				t.Errorf("Migration file %s missing %q directive", file.Name(), directive)
			}
		}
	}

	if sqlFileCount == 0 {
		t.Error("No SQL migration files found")
	}
}

func TestMigrationFilesCreateExpectedTables(t *testing.T) {
	expectedTables := map[string]string{
		"users":                "00001_create_users_table.sql",
		"products":             "00002_create_products_table.sql",
		"product_reviews":      "00003_create_product_reviews_table.sql",
		"orders":               "00004_create_orders_table.sql",
		"order_items":          "00005_create_order_items_table.sql",
		"order_status_history": "00006_create_order_status_history_table.sql",
		"counters":             "00007_create_counters_table.sql",
		"banners":              "00008_create_banners_table.sql",
		"user_favorites":       "00009_create_user_favorites_table.sql",
	}

	for tableName, migrationFile := range expectedTables {
		content, err := os.ReadFile(filepath.Join(migrationsDir, migrationFile))
		if err != nil {
			t.Errorf("Failed to read migration file %s: %v", migrationFile, err)
			continue
		}

		contentStr := string(content)

		if !strings.Contains(contentStr, "CREATE TABLE IF NOT EXISTS "+tableName) {
			t.Errorf("Migration file %s does not create table %s", migrationFile, tableName)
		}
		if !strings.Contains(contentStr, "DROP TABLE IF EXISTS "+tableName) {
			t.Errorf("Migration file %s does not drop table %s in down section", migrationFile, tableName)
		}
	}
}

// The stock guard lives in the schema as well as in the repository: even a
// buggy query can never drive stock negative.
func TestProductsTableGuardsStock(t *testing.T) {
	content, err := os.ReadFile(filepath.Join(migrationsDir, "00002_create_products_table.sql"))
	if err != nil {
		t.Fatalf("Failed to read products migration: %v", err)
	}

	contentStr := string(content)

	if !strings.Contains(contentStr, "CHECK (stock >= 0)") {
		t.Error("Products table missing non-negative stock constraint")
	}

	for _, column := range []string{
		"images JSONB",
		"colors JSONB",
		"sizes JSONB",
		"is_active BOOLEAN",
		"is_featured BOOLEAN",
		"average_rating NUMERIC",
		"sold_count INTEGER",
	} {
		if !strings.Contains(contentStr, column) {
			t.Errorf("Products table missing column definition: %s", column)
		}
	}
}

// The pricing identity is enforced by the database itself, so no code path
// can persist inconsistent amounts.
func TestOrdersTableEnforcesAmountIdentity(t *testing.T) {
	content, err := os.ReadFile(filepath.Join(migrationsDir, "00004_create_orders_table.sql"))
	if err != nil {
		t.Fatalf("Failed to read orders migration: %v", err)
	}

	contentStr := string(content)

	if !strings.Contains(contentStr, "CHECK (final_amount = total_amount - discount_amount + shipping_cost)") {
		t.Error("Orders table missing the amount identity constraint")
	}
	if !strings.Contains(contentStr, "order_number VARCHAR(50) UNIQUE NOT NULL") {
		t.Error("Orders table missing unique order_number")
	}
}

func TestReviewsTableOnePerUser(t *testing.T) {
	content, err := os.ReadFile(filepath.Join(migrationsDir, "00003_create_product_reviews_table.sql"))
	if err != nil {
		t.Fatalf("Failed to read reviews migration: %v", err)
	}

	contentStr := string(content)

	if !strings.Contains(contentStr, "UNIQUE (product_id, user_id)") {
		t.Error("Reviews table missing unique constraint on (product_id, user_id)")
	}
	if !strings.Contains(contentStr, "CHECK (rating BETWEEN 1 AND 5)") {
		t.Error("Reviews table missing rating range constraint")
	}
}

func TestCountersTableBacksOrderNumbers(t *testing.T) {
	content, err := os.ReadFile(filepath.Join(migrationsDir, "00007_create_counters_table.sql"))
	if err != nil {
		t.Fatalf("Failed to read counters migration: %v", err)
	}

	if !strings.Contains(string(content), "name VARCHAR(50) PRIMARY KEY") {
		t.Error("Counters table must key counters by name")
	}
}
