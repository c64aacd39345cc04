package core_test

import (
	"context"
	"os"
	"testing"

	"consignment-tracker/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// setupTestDB connects to the dedicated test database, applies the schema,
// wipes all tables, and seeds two products and one partner with fixed ids.
// Set TEST_DATABASE_URL in your .env or environment to run integration tests.
func setupTestDB(t *testing.T) (*pgxpool.Pool, context.Context) {
	t.Helper()
	_ = godotenv.Load("../../.env")

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set — skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	schema, err := os.ReadFile("../../migrations/001_initial.sql")
	if err != nil {
		t.Fatalf("Failed to read schema: %v", err)
	}
	if _, err := pool.Exec(ctx, string(schema)); err != nil {
		t.Fatalf("Failed to apply schema: %v", err)
	}

	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE products, partners, consignments, sales, images, inventory_logs RESTART IDENTITY CASCADE;

		INSERT INTO products (id, sku, name, category, cost_price, retail_price, stock, min_stock_alert, material) VALUES
		('p1', 'EAR-001', 'Silver Hoop Earrings',   'Earrings',  45, 128, 20, 5, '925 Silver'),
		('p2', 'NCK-001', 'Pearl Pendant Necklace', 'Necklaces', 80, 228, 10, 3, 'Freshwater Pearl');

		INSERT INTO partners (id, name, contact, phone, default_commission_rate) VALUES
		('pt1', 'Riverside Boutique', 'May Chen', '555-0142', 20),
		('pt2', 'Hillside Gallery',   'Jo Park',  '555-0177', 25);
	`)
	if err != nil {
		t.Fatalf("Failed to seed test database: %v", err)
	}

	return pool, ctx
}

func getStock(t *testing.T, ctx context.Context, pool *pgxpool.Pool, productID string) int {
	t.Helper()
	var stock int
	if err := pool.QueryRow(ctx, "SELECT stock FROM products WHERE id = $1", productID).Scan(&stock); err != nil {
		t.Fatalf("Failed to read stock for %s: %v", productID, err)
	}
	return stock
}

func countLogs(t *testing.T, ctx context.Context, pool *pgxpool.Pool, logType core.LogType) int {
	t.Helper()
	var n int
	if err := pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM inventory_logs WHERE type = $1", string(logType)).Scan(&n); err != nil {
		t.Fatalf("Failed to count %s logs: %v", logType, err)
	}
	return n
}

// draftConsignment creates a DRAFT order for pt1 with the given p1 quantity at
// retail price.
func draftConsignment(t *testing.T, ctx context.Context, svc core.ConsignmentService, qty int) *core.ConsignmentOrder {
	t.Helper()
	order, err := svc.CreateConsignment(ctx, "pt1", []core.ConsignmentItem{
		{ProductID: "p1", Quantity: qty, UnitPrice: decimal.NewFromInt(128), CommissionRate: decimal.NewFromInt(20)},
	})
	if err != nil {
		t.Fatalf("CreateConsignment failed: %v", err)
	}
	return order
}
