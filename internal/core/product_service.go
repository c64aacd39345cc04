package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type AdjustmentType string

const (
	AdjustmentIn  AdjustmentType = "IN"
	AdjustmentOut AdjustmentType = "OUT"
)

// Adjustment reason codes offered by the UI. The engine stores whatever
// string it is given; these are the conventional values.
const (
	ReasonPurchase       = "PURCHASE"
	ReasonCustomerReturn = "RETURN"
	ReasonInventoryGain  = "INVENTORY_GAIN"
	ReasonDamage         = "DAMAGE"
	ReasonInventoryLoss  = "INVENTORY_LOSS"
	ReasonOther          = "OTHER"
)

// ProductInput holds the fields for creating a product. ImageData, when
// non-empty, is stored as a blob and referenced from the product's imageUrl.
type ProductInput struct {
	SKU           string
	Name          string
	Category      string
	CostPrice     decimal.Decimal
	RetailPrice   decimal.Decimal
	Stock         int
	MinStockAlert int
	Material      string
	Description   string
	ImageData     []byte
	ImageMime     string
}

// ProductUpdate is a partial update; nil fields are left unchanged.
type ProductUpdate struct {
	SKU           *string
	Name          *string
	Category      *string
	CostPrice     *decimal.Decimal
	RetailPrice   *decimal.Decimal
	MinStockAlert *int
	Material      *string
	Description   *string
	ImageData     []byte
	ImageMime     string
}

// AdjustmentInput describes a manual stock correction.
type AdjustmentInput struct {
	ProductID string
	Type      AdjustmentType
	Reason    string
	Quantity  int
	Note      string
}

// ProductService manages the product catalog, product images, and manual
// stock adjustments. Stock mutations driven by consignments and sales live in
// ConsignmentService and SaleService; all of them go through the same
// row-lock-then-update discipline.
type ProductService interface {
	CreateProduct(ctx context.Context, input ProductInput) (*Product, error)
	UpdateProduct(ctx context.Context, id string, update ProductUpdate) (*Product, error)
	// DeleteProduct removes the product and its image. Historical log entries
	// keep referencing the id; those references are tolerated, not repaired.
	DeleteProduct(ctx context.Context, id string) error
	GetProduct(ctx context.Context, id string) (*Product, error)
	GetProducts(ctx context.Context) ([]Product, error)
	GetImage(ctx context.Context, id string) (*Image, error)
	// AddStockAdjustment applies a manual IN/OUT correction and appends the
	// matching ADJUSTMENT_IN / ADJUSTMENT_OUT log entry atomically.
	AddStockAdjustment(ctx context.Context, input AdjustmentInput) (*Product, *InventoryLogEntry, error)
}

type productService struct {
	pool    *pgxpool.Pool
	logBook *LogBook
}

func NewProductService(pool *pgxpool.Pool, logBook *LogBook) ProductService {
	return &productService{pool: pool, logBook: logBook}
}

const productColumns = "id, sku, name, category, cost_price, retail_price, stock, min_stock_alert, image_url, material, description, create_at"

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Category, &p.CostPrice, &p.RetailPrice,
		&p.Stock, &p.MinStockAlert, &p.ImageURL, &p.Material, &p.Description, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *productService) CreateProduct(ctx context.Context, input ProductInput) (*Product, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("product name is required: %w", ErrValidation)
	}
	if input.Stock < 0 {
		return nil, fmt.Errorf("initial stock cannot be negative: %w", ErrValidation)
	}

	id := uuid.NewString()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var imageURL *string
	if len(input.ImageData) > 0 {
		ref, err := storeImageTx(ctx, tx, id, input.ImageData, input.ImageMime)
		if err != nil {
			return nil, err
		}
		imageURL = &ref
	}

	p, err := scanProduct(tx.QueryRow(ctx, `
		INSERT INTO products (id, sku, name, category, cost_price, retail_price, stock, min_stock_alert, image_url, material, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+productColumns,
		id, input.SKU, input.Name, input.Category, input.CostPrice, input.RetailPrice,
		input.Stock, input.MinStockAlert, imageURL, input.Material, input.Description,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit product creation: %w", err)
	}
	return p, nil
}

func (s *productService) UpdateProduct(ctx context.Context, id string, update ProductUpdate) (*Product, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var sets []string
	var args []any
	set := func(column string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.SKU != nil {
		set("sku", *update.SKU)
	}
	if update.Name != nil {
		set("name", *update.Name)
	}
	if update.Category != nil {
		set("category", *update.Category)
	}
	if update.CostPrice != nil {
		set("cost_price", *update.CostPrice)
	}
	if update.RetailPrice != nil {
		set("retail_price", *update.RetailPrice)
	}
	if update.MinStockAlert != nil {
		set("min_stock_alert", *update.MinStockAlert)
	}
	if update.Material != nil {
		set("material", *update.Material)
	}
	if update.Description != nil {
		set("description", *update.Description)
	}
	if len(update.ImageData) > 0 {
		ref, err := storeImageTx(ctx, tx, id, update.ImageData, update.ImageMime)
		if err != nil {
			return nil, err
		}
		set("image_url", ref)
	}

	if len(sets) == 0 {
		return s.GetProduct(ctx, id)
	}

	args = append(args, id)
	p, err := scanProduct(tx.QueryRow(ctx,
		fmt.Sprintf("UPDATE products SET %s WHERE id = $%d RETURNING %s",
			strings.Join(sets, ", "), len(args), productColumns),
		args...,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("product %s: %w", id, ErrProductNotFound)
		}
		return nil, fmt.Errorf("failed to update product %s: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit product update: %w", err)
	}
	return p, nil
}

func (s *productService) DeleteProduct(ctx context.Context, id string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete product %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %s: %w", id, ErrProductNotFound)
	}
	if _, err := tx.Exec(ctx, "DELETE FROM images WHERE id = $1", imageID(id)); err != nil {
		return fmt.Errorf("failed to delete product image: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *productService) GetProduct(ctx context.Context, id string) (*Product, error) {
	p, err := scanProduct(s.pool.QueryRow(ctx,
		"SELECT "+productColumns+" FROM products WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("product %s: %w", id, ErrProductNotFound)
		}
		return nil, fmt.Errorf("failed to fetch product %s: %w", id, err)
	}
	return p, nil
}

func (s *productService) GetProducts(ctx context.Context) ([]Product, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+productColumns+" FROM products ORDER BY create_at, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (s *productService) GetImage(ctx context.Context, id string) (*Image, error) {
	var img Image
	err := s.pool.QueryRow(ctx,
		"SELECT id, data, mime_type FROM images WHERE id = $1", id,
	).Scan(&img.ID, &img.Data, &img.MimeType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("image %s: %w", id, ErrProductNotFound)
		}
		return nil, fmt.Errorf("failed to fetch image %s: %w", id, err)
	}
	return &img, nil
}

func (s *productService) AddStockAdjustment(ctx context.Context, input AdjustmentInput) (*Product, *InventoryLogEntry, error) {
	if input.Quantity <= 0 {
		return nil, nil, fmt.Errorf("adjustment quantity must be positive, got %d: %w", input.Quantity, ErrValidation)
	}
	if input.Type != AdjustmentIn && input.Type != AdjustmentOut {
		return nil, nil, fmt.Errorf("unknown adjustment type %q: %w", input.Type, ErrValidation)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var stock int
	err = tx.QueryRow(ctx,
		"SELECT stock FROM products WHERE id = $1 FOR UPDATE", input.ProductID,
	).Scan(&stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, fmt.Errorf("product %s: %w", input.ProductID, ErrProductNotFound)
		}
		return nil, nil, fmt.Errorf("failed to lock product %s: %w", input.ProductID, err)
	}

	delta := input.Quantity
	logType := LogAdjustmentIn
	if input.Type == AdjustmentOut {
		delta = -input.Quantity
		logType = LogAdjustmentOut
	}
	if stock+delta < 0 {
		return nil, nil, fmt.Errorf("product %s has %d on hand, cannot remove %d: %w",
			input.ProductID, stock, input.Quantity, ErrInsufficientStock)
	}

	p, err := scanProduct(tx.QueryRow(ctx,
		"UPDATE products SET stock = stock + $1 WHERE id = $2 RETURNING "+productColumns,
		delta, input.ProductID,
	))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to adjust stock for product %s: %w", input.ProductID, err)
	}

	reason := input.Reason
	note := input.Note
	entry, err := s.logBook.AppendInTx(ctx, tx, InventoryLogEntry{
		Type:      logType,
		ProductID: &input.ProductID,
		Items:     []LogItem{{ProductID: input.ProductID, Quantity: input.Quantity}},
		Reason:    &reason,
		Note:      &note,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to log stock adjustment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to commit stock adjustment: %w", err)
	}
	return p, entry, nil
}

// imageID derives the image row key for a product, matching the historical
// "img_<productId>" convention that imageUrl references ("local:img_<id>").
func imageID(productID string) string {
	return "img_" + productID
}

func storeImageTx(ctx context.Context, tx pgx.Tx, productID string, data []byte, mime string) (string, error) {
	imgID := imageID(productID)
	_, err := tx.Exec(ctx, `
		INSERT INTO images (id, data, mime_type)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, mime_type = EXCLUDED.mime_type
	`, imgID, data, mime)
	if err != nil {
		return "", fmt.Errorf("failed to store image for product %s: %w", productID, err)
	}
	return "local:" + imgID, nil
}
