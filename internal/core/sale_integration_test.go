package core_test

import (
	"errors"
	"testing"

	"consignment-tracker/internal/core"

	"github.com/shopspring/decimal"
)

func TestDirectSale_DeductsStockWithoutLogging(t *testing.T) {
	pool, ctx := setupTestDB(t)
	defer pool.Close()
	svc := core.NewSaleService(pool)

	cash := "CASH"
	record, updated, err := svc.AddDirectSale(ctx, []core.SaleItem{
		{ProductID: "p1", Quantity: 2, Price: decimal.NewFromInt(128)},
		{ProductID: "p2", Quantity: 1, Price: decimal.NewFromInt(228)},
	}, &cash)
	if err != nil {
		t.Fatalf("AddDirectSale failed: %v", err)
	}
	if record.Type != core.SaleDirect {
		t.Errorf("Expected DIRECT sale, got %s", record.Type)
	}
	// 2×128 + 1×228 = 484
	if !record.TotalAmount.Equal(decimal.NewFromInt(484)) {
		t.Errorf("Expected totalAmount 484, got %s", record.TotalAmount)
	}
	if record.PaymentMethod == nil || *record.PaymentMethod != "CASH" {
		t.Errorf("Expected payment method CASH, got %v", record.PaymentMethod)
	}
	if record.RelatedConsignmentID != nil {
		t.Errorf("Direct sale must not reference a consignment, got %v", record.RelatedConsignmentID)
	}
	if len(updated) != 2 || updated[0].Stock != 18 || updated[1].Stock != 9 {
		t.Errorf("Expected updated stocks 18 and 9, got %+v", updated)
	}

	// Checkout sales are audited by the sale record alone; the movement log
	// stays untouched.
	var n int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM inventory_logs").Scan(&n); err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 0 {
		t.Errorf("Expected no inventory logs from a direct sale, got %d", n)
	}
}

func TestDirectSale_Guards(t *testing.T) {
	pool, ctx := setupTestDB(t)
	defer pool.Close()
	svc := core.NewSaleService(pool)

	if _, _, err := svc.AddDirectSale(ctx, []core.SaleItem{
		{ProductID: "p2", Quantity: 11, Price: decimal.NewFromInt(228)},
	}, nil); !errors.Is(err, core.ErrInsufficientStock) {
		t.Fatalf("Expected ErrInsufficientStock, got %v", err)
	}
	if got := getStock(t, ctx, pool, "p2"); got != 10 {
		t.Errorf("Expected stock unchanged at 10, got %d", got)
	}

	// A multi-line sale fails whole when any line fails.
	if _, _, err := svc.AddDirectSale(ctx, []core.SaleItem{
		{ProductID: "p1", Quantity: 1, Price: decimal.NewFromInt(128)},
		{ProductID: "missing", Quantity: 1, Price: decimal.NewFromInt(99)},
	}, nil); !errors.Is(err, core.ErrProductNotFound) {
		t.Fatalf("Expected ErrProductNotFound, got %v", err)
	}
	if got := getStock(t, ctx, pool, "p1"); got != 20 {
		t.Errorf("Expected p1 untouched after failed multi-line sale, got %d", got)
	}

	if _, _, err := svc.AddDirectSale(ctx, nil, nil); !errors.Is(err, core.ErrValidation) {
		t.Errorf("Expected ErrValidation for empty sale, got %v", err)
	}
}

func TestSales_FilterByType(t *testing.T) {
	pool, ctx := setupTestDB(t)
	defer pool.Close()
	saleSvc := core.NewSaleService(pool)
	consignSvc := core.NewConsignmentService(pool, core.NewLogBook(pool))

	if _, _, err := saleSvc.AddDirectSale(ctx, []core.SaleItem{
		{ProductID: "p1", Quantity: 1, Price: decimal.NewFromInt(128)},
	}, nil); err != nil {
		t.Fatalf("AddDirectSale failed: %v", err)
	}

	order := draftConsignment(t, ctx, consignSvc, 2)
	if _, err := consignSvc.ConfirmConsignment(ctx, order.ID); err != nil {
		t.Fatalf("ConfirmConsignment failed: %v", err)
	}
	if _, _, err := consignSvc.RegisterSale(ctx, order.ID, []core.SaleItem{
		{ProductID: "p1", Quantity: 1, Price: decimal.NewFromInt(128)},
	}); err != nil {
		t.Fatalf("RegisterSale failed: %v", err)
	}

	all, err := saleSvc.GetSales(ctx, nil)
	if err != nil {
		t.Fatalf("GetSales failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Expected 2 sales, got %d", len(all))
	}

	direct := core.SaleDirect
	filtered, err := saleSvc.GetSales(ctx, &direct)
	if err != nil {
		t.Fatalf("GetSales filtered failed: %v", err)
	}
	if len(filtered) != 1 || filtered[0].Type != core.SaleDirect {
		t.Errorf("Expected one DIRECT sale, got %+v", filtered)
	}
}
