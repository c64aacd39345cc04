package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// SaleService records direct over-the-counter sales and serves sale history.
// Consignment sales are created by ConsignmentService; both paths share the
// same sales table and row shape.
type SaleService interface {
	// AddDirectSale deducts stock for every item and records a DIRECT sale.
	// Unlike consignment flows it produces no inventory log entry: the sale
	// record itself is the audit artifact.
	AddDirectSale(ctx context.Context, items []SaleItem, paymentMethod *string) (*SaleRecord, []Product, error)

	GetSales(ctx context.Context, saleType *SaleType) ([]SaleRecord, error)
}

type saleService struct {
	pool *pgxpool.Pool
}

func NewSaleService(pool *pgxpool.Pool) SaleService {
	return &saleService{pool: pool}
}

func (s *saleService) AddDirectSale(ctx context.Context, items []SaleItem, paymentMethod *string) (*SaleRecord, []Product, error) {
	if len(items) == 0 {
		return nil, nil, fmt.Errorf("sale must have at least one item: %w", ErrValidation)
	}
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, nil, fmt.Errorf("item %s quantity must be positive, got %d: %w",
				it.ProductID, it.Quantity, ErrValidation)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// A direct sale of an unknown product is an error, not a skip: the
	// customer is standing at the counter with goods that must exist.
	updated := make([]Product, 0, len(items))
	for _, it := range items {
		if err := deductStockTx(ctx, tx, it.ProductID, it.Quantity); err != nil {
			return nil, nil, err
		}
		p, err := scanProduct(tx.QueryRow(ctx,
			"SELECT "+productColumns+" FROM products WHERE id = $1", it.ProductID))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to reread product %s: %w", it.ProductID, err)
		}
		updated = append(updated, *p)
	}

	record := &SaleRecord{
		ID:            uuid.NewString(),
		Type:          SaleDirect,
		Items:         items,
		PaymentMethod: paymentMethod,
	}
	for _, it := range items {
		record.TotalAmount = record.TotalAmount.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	if err := insertSaleTx(ctx, tx, record); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to commit sale: %w", err)
	}
	return record, updated, nil
}

func (s *saleService) GetSales(ctx context.Context, saleType *SaleType) ([]SaleRecord, error) {
	query := "SELECT " + saleColumns + " FROM sales"
	var args []any
	if saleType != nil {
		query += " WHERE type = $1"
		args = append(args, string(*saleType))
	}
	query += " ORDER BY date DESC, id"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}
	defer rows.Close()

	var sales []SaleRecord
	for rows.Next() {
		rec, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, *rec)
	}
	return sales, rows.Err()
}

const saleColumns = "id, type, items, total_amount, date, related_consignment_id, payment_method"

func scanSale(row pgx.Row) (*SaleRecord, error) {
	var rec SaleRecord
	var saleType string
	var itemsJSON []byte
	err := row.Scan(&rec.ID, &saleType, &itemsJSON, &rec.TotalAmount, &rec.Date,
		&rec.RelatedConsignmentID, &rec.PaymentMethod)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan sale: %w", err)
	}
	rec.Type = SaleType(saleType)
	if err := json.Unmarshal(itemsJSON, &rec.Items); err != nil {
		return nil, fmt.Errorf("failed to decode items for sale %s: %w", rec.ID, err)
	}
	return &rec, nil
}

// insertSaleTx writes a sale row inside the caller's transaction. Used by both
// the direct-sale path and consignment sale registration.
func insertSaleTx(ctx context.Context, tx pgx.Tx, record *SaleRecord) error {
	if record.Date.IsZero() {
		record.Date = time.Now().UTC()
	}
	itemsJSON, err := json.Marshal(record.Items)
	if err != nil {
		return fmt.Errorf("failed to encode sale items: %w", err)
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO sales (id, type, items, total_amount, date, related_consignment_id, payment_method)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, record.ID, string(record.Type), itemsJSON, record.TotalAmount, record.Date,
		record.RelatedConsignmentID, record.PaymentMethod)
	if err != nil {
		return fmt.Errorf("failed to insert sale %s: %w", record.ID, err)
	}
	return nil
}
