package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"consignment-tracker/internal/backup"
	"consignment-tracker/internal/core"
	"consignment-tracker/internal/db"
	"consignment-tracker/internal/migrate"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	logBook := core.NewLogBook(pool)
	backupService := backup.NewService(pool, logBook)

	if len(os.Args) < 2 {
		usage()
	}

	switch os.Args[1] {
	case "export":
		doc, err := backupService.Export(ctx)
		if err != nil {
			log.Fatalf("Export failed: %v", err)
		}
		out := os.Stdout
		if len(os.Args) > 2 {
			f, err := os.Create(os.Args[2])
			if err != nil {
				log.Fatalf("Cannot create %s: %v", os.Args[2], err)
			}
			defer f.Close()
			out = f
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			log.Fatalf("Encode failed: %v", err)
		}

	case "import":
		if len(os.Args) < 3 {
			log.Fatal("Usage: app import <backup.json>")
		}
		f, err := os.Open(os.Args[2])
		if err != nil {
			log.Fatalf("Cannot open %s: %v", os.Args[2], err)
		}
		defer f.Close()
		var doc backup.Document
		if err := json.NewDecoder(f).Decode(&doc); err != nil {
			log.Fatalf("Invalid backup document: %v", err)
		}
		if err := backupService.Import(ctx, &doc); err != nil {
			log.Fatalf("Import failed: %v", err)
		}
		fmt.Printf("Imported %d products, %d partners, %d consignments, %d sales, %d logs\n",
			len(doc.Products), len(doc.Partners), len(doc.Consignments), len(doc.Sales), len(doc.InventoryLogs))

	case "migrate-logs":
		n, err := migrate.LegacyLogs(ctx, pool)
		if err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		if n == 0 {
			fmt.Println("No legacy log tables found, nothing to do")
		} else {
			fmt.Printf("Migrated %d legacy log entries\n", n)
		}

	case "seed":
		if err := seed(ctx, pool, logBook); err != nil {
			log.Fatalf("Seed failed: %v", err)
		}
		fmt.Println("Seeded sample data")

	default:
		usage()
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: app <command>

Commands:
  export [file]         write a full backup document to file (or stdout)
  import <file>         restore a backup document
  migrate-logs          fold legacy log tables into inventory_logs
  seed                  insert sample products and partners`)
	os.Exit(2)
}

func seed(ctx context.Context, pool *pgxpool.Pool, logBook *core.LogBook) error {
	products := core.NewProductService(pool, logBook)
	partners := core.NewPartnerService(pool)

	samples := []core.ProductInput{
		{SKU: "EAR-001", Name: "Silver Hoop Earrings", Category: "Earrings",
			CostPrice: decimal.NewFromInt(45), RetailPrice: decimal.NewFromInt(128),
			Stock: 20, MinStockAlert: 5, Material: "925 Silver"},
		{SKU: "NCK-001", Name: "Pearl Pendant Necklace", Category: "Necklaces",
			CostPrice: decimal.NewFromInt(80), RetailPrice: decimal.NewFromInt(228),
			Stock: 12, MinStockAlert: 3, Material: "Freshwater Pearl"},
		{SKU: "BRC-001", Name: "Gold-Plated Bangle", Category: "Bracelets",
			CostPrice: decimal.NewFromInt(60), RetailPrice: decimal.NewFromInt(168),
			Stock: 15, MinStockAlert: 4, Material: "Gold-Plated Brass"},
	}
	for _, input := range samples {
		if _, err := products.CreateProduct(ctx, input); err != nil {
			return fmt.Errorf("seed product %s: %w", input.SKU, err)
		}
	}

	if _, err := partners.CreatePartner(ctx, core.PartnerInput{
		Name:                  "Riverside Boutique",
		Contact:               "May Chen",
		Phone:                 "555-0142",
		Address:               "12 Riverside Walk",
		DefaultCommissionRate: decimal.NewFromInt(20),
	}); err != nil {
		return fmt.Errorf("seed partner: %w", err)
	}
	return nil
}
