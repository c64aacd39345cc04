package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ConsignmentService owns the consignment order lifecycle: creation,
// confirmation (the only transition with stock side effects), progressive
// sale/return reconciliation, manual completion, and the structural merge of
// orders belonging to one partner. Every mutation that touches more than one
// entity runs in a single transaction with row locks, so concurrent processes
// cannot double-apply a transition.
type ConsignmentService interface {
	CreateConsignment(ctx context.Context, partnerID string, items []ConsignmentItem) (*ConsignmentOrder, error)

	// ConfirmConsignment transitions DRAFT → CONFIRMED: deducts stock for
	// every item and appends one SEND log snapshotting the shipment.
	// Irreversible; there is no un-confirm.
	ConfirmConsignment(ctx context.Context, id string) (*ConsignmentOrder, error)

	// CompleteConsignment transitions CONFIRMED → COMPLETED. Allowed only
	// when every item's remaining quantity is zero.
	CompleteConsignment(ctx context.Context, id string) (*ConsignmentOrder, error)

	// RegisterSale records quantities the partner reports as sold: grows the
	// soldItems accumulator, creates a CONSIGNMENT SaleRecord, appends one
	// SOLD log. Rejects registrations that would exceed remaining stock.
	RegisterSale(ctx context.Context, id string, items []SaleItem) (*ConsignmentOrder, *SaleRecord, error)

	// ReturnItems records goods physically coming back: grows returnedItems,
	// restores product stock, appends one RETURN log. Same remaining-quantity
	// ceiling as RegisterSale.
	ReturnItems(ctx context.Context, id string, items []QuantityItem) (*ConsignmentOrder, error)

	// MergeConsignments folds every source order into the target and deletes
	// the sources. Target must be CONFIRMED, all orders must belong to the
	// same partner, and COMPLETED sources are rejected.
	MergeConsignments(ctx context.Context, targetID string, sourceIDs []string) (*ConsignmentOrder, error)

	// DeleteConsignment removes a DRAFT order. Confirmed orders cannot be
	// deleted directly; merging is the only path that removes them.
	DeleteConsignment(ctx context.Context, id string) error

	GetConsignment(ctx context.Context, id string) (*ConsignmentOrder, error)
	GetConsignments(ctx context.Context, partnerID *string, status *ConsignmentStatus) ([]ConsignmentOrder, error)
}

type consignmentService struct {
	pool    *pgxpool.Pool
	logBook *LogBook
}

func NewConsignmentService(pool *pgxpool.Pool, logBook *LogBook) ConsignmentService {
	return &consignmentService{pool: pool, logBook: logBook}
}

func (s *consignmentService) CreateConsignment(ctx context.Context, partnerID string, items []ConsignmentItem) (*ConsignmentOrder, error) {
	if partnerID == "" {
		return nil, fmt.Errorf("partner is required: %w", ErrValidation)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("consignment must have at least one item: %w", ErrValidation)
	}
	// One line per product: Shipped and Remaining resolve quantities by
	// productId, so a second line for the same product would ship stock the
	// reconciliation arithmetic never sees.
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("item %s quantity must be positive, got %d: %w",
				it.ProductID, it.Quantity, ErrValidation)
		}
		if seen[it.ProductID] {
			return nil, fmt.Errorf("duplicate item line for product %s: %w", it.ProductID, ErrValidation)
		}
		seen[it.ProductID] = true
	}

	order := &ConsignmentOrder{
		ID:            uuid.NewString(),
		PartnerID:     partnerID,
		Status:        StatusDraft,
		Items:         items,
		SoldItems:     []QuantityItem{},
		ReturnedItems: []QuantityItem{},
	}
	order.TotalValue = order.ComputeTotalValue()

	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return nil, fmt.Errorf("failed to encode items: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM partners WHERE id = $1)", partnerID,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check partner %s: %w", partnerID, err)
	}
	if !exists {
		return nil, fmt.Errorf("partner %s: %w", partnerID, ErrPartnerNotFound)
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO consignments (id, partner_id, status, items, sold_items, returned_items, total_value)
		VALUES ($1, $2, $3, $4, '[]', '[]', $5)
		RETURNING create_at
	`, order.ID, order.PartnerID, string(order.Status), itemsJSON, order.TotalValue).Scan(&order.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create consignment: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return order, nil
}

func (s *consignmentService) ConfirmConsignment(ctx context.Context, id string) (*ConsignmentOrder, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	order, err := fetchOrderForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if order.Status != StatusDraft {
		return nil, fmt.Errorf("consignment %s cannot be confirmed: status is %s (must be DRAFT): %w",
			id, order.Status, ErrInvalidStatus)
	}

	for _, it := range order.Items {
		if err := deductStockTx(ctx, tx, it.ProductID, it.Quantity); err != nil {
			// Products deleted since drafting ship on paper only.
			if errors.Is(err, ErrProductNotFound) {
				continue
			}
			return nil, err
		}
	}

	order.Status = StatusConfirmed
	if _, err := tx.Exec(ctx,
		"UPDATE consignments SET status = $1 WHERE id = $2", string(order.Status), id,
	); err != nil {
		return nil, fmt.Errorf("failed to confirm consignment %s: %w", id, err)
	}

	logItems := make([]LogItem, 0, len(order.Items))
	for _, it := range order.Items {
		price := it.UnitPrice
		logItems = append(logItems, LogItem{ProductID: it.ProductID, Quantity: it.Quantity, Price: &price})
	}
	if _, err := s.logBook.AppendInTx(ctx, tx, InventoryLogEntry{
		Type:      LogSend,
		PartnerID: &order.PartnerID,
		Items:     logItems,
	}); err != nil {
		return nil, fmt.Errorf("failed to log shipment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit confirmation: %w", err)
	}
	return order, nil
}

func (s *consignmentService) CompleteConsignment(ctx context.Context, id string) (*ConsignmentOrder, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	order, err := fetchOrderForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if order.Status != StatusConfirmed {
		return nil, fmt.Errorf("consignment %s cannot be completed: status is %s (must be CONFIRMED): %w",
			id, order.Status, ErrInvalidStatus)
	}
	if remaining := order.OutstandingRemainder(); remaining > 0 {
		return nil, fmt.Errorf("consignment %s has %d units unreconciled: %w",
			id, remaining, ErrOutstandingRemainder)
	}

	order.Status = StatusCompleted
	if _, err := tx.Exec(ctx,
		"UPDATE consignments SET status = $1 WHERE id = $2", string(order.Status), id,
	); err != nil {
		return nil, fmt.Errorf("failed to complete consignment %s: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit completion: %w", err)
	}
	return order, nil
}

func (s *consignmentService) RegisterSale(ctx context.Context, id string, items []SaleItem) (*ConsignmentOrder, *SaleRecord, error) {
	if len(items) == 0 {
		return nil, nil, fmt.Errorf("sale registration must have at least one item: %w", ErrValidation)
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

	order, err := fetchOrderForUpdate(ctx, tx, id)
	if err != nil {
		return nil, nil, err
	}
	if order.Status != StatusConfirmed {
		return nil, nil, fmt.Errorf("consignment %s is %s, sales can only be registered on CONFIRMED orders: %w",
			id, order.Status, ErrInvalidStatus)
	}

	for _, it := range items {
		if it.Quantity > order.Remaining(it.ProductID) {
			return nil, nil, fmt.Errorf("product %s: %d requested but only %d remaining on consignment %s: %w",
				it.ProductID, it.Quantity, order.Remaining(it.ProductID), id, ErrOverAllocation)
		}
		order.SoldItems = accumulate(order.SoldItems, it.ProductID, it.Quantity)
	}

	if err := persistOrderItemsTx(ctx, tx, order); err != nil {
		return nil, nil, err
	}

	record := &SaleRecord{
		ID:                   uuid.NewString(),
		Type:                 SaleConsignment,
		Items:                items,
		RelatedConsignmentID: &order.ID,
	}
	for _, it := range items {
		record.TotalAmount = record.TotalAmount.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	if err := insertSaleTx(ctx, tx, record); err != nil {
		return nil, nil, err
	}

	logItems := make([]LogItem, 0, len(items))
	for _, it := range items {
		price := it.Price
		logItems = append(logItems, LogItem{ProductID: it.ProductID, Quantity: it.Quantity, Price: &price})
	}
	if _, err := s.logBook.AppendInTx(ctx, tx, InventoryLogEntry{
		Type:      LogSold,
		PartnerID: &order.PartnerID,
		Items:     logItems,
	}); err != nil {
		return nil, nil, fmt.Errorf("failed to log consignment sale: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to commit sale registration: %w", err)
	}
	return order, record, nil
}

func (s *consignmentService) ReturnItems(ctx context.Context, id string, items []QuantityItem) (*ConsignmentOrder, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("return must have at least one item: %w", ErrValidation)
	}
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("item %s quantity must be positive, got %d: %w",
				it.ProductID, it.Quantity, ErrValidation)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	order, err := fetchOrderForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if order.Status != StatusConfirmed {
		return nil, fmt.Errorf("consignment %s is %s, returns can only be registered on CONFIRMED orders: %w",
			id, order.Status, ErrInvalidStatus)
	}

	for _, it := range items {
		if it.Quantity > order.Remaining(it.ProductID) {
			return nil, fmt.Errorf("product %s: %d returned but only %d remaining on consignment %s: %w",
				it.ProductID, it.Quantity, order.Remaining(it.ProductID), id, ErrOverAllocation)
		}
		order.ReturnedItems = accumulate(order.ReturnedItems, it.ProductID, it.Quantity)

		// Goods physically come back. A product deleted since shipment keeps
		// its log trail but has no stock row to restore.
		if err := addStockTx(ctx, tx, it.ProductID, it.Quantity); err != nil {
			return nil, err
		}
	}

	if err := persistOrderItemsTx(ctx, tx, order); err != nil {
		return nil, err
	}

	logItems := make([]LogItem, 0, len(items))
	for _, it := range items {
		logItems = append(logItems, LogItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	if _, err := s.logBook.AppendInTx(ctx, tx, InventoryLogEntry{
		Type:      LogReturn,
		PartnerID: &order.PartnerID,
		Items:     logItems,
	}); err != nil {
		return nil, fmt.Errorf("failed to log return: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit return: %w", err)
	}
	return order, nil
}

func (s *consignmentService) MergeConsignments(ctx context.Context, targetID string, sourceIDs []string) (*ConsignmentOrder, error) {
	if len(sourceIDs) == 0 {
		return nil, fmt.Errorf("merge requires at least one source consignment: %w", ErrValidation)
	}
	for _, src := range sourceIDs {
		if src == targetID {
			return nil, fmt.Errorf("consignment %s cannot be merged into itself: %w", targetID, ErrValidation)
		}
	}
	// Lock sources in a stable order so concurrent merges over overlapping
	// sets cannot deadlock each other.
	sources := slices.Clone(sourceIDs)
	slices.Sort(sources)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	target, err := fetchOrderForUpdate(ctx, tx, targetID)
	if err != nil {
		return nil, err
	}
	if target.Status != StatusConfirmed {
		return nil, fmt.Errorf("merge target %s is %s (must be CONFIRMED): %w",
			targetID, target.Status, ErrInvalidStatus)
	}

	for _, srcID := range sources {
		src, err := fetchOrderForUpdate(ctx, tx, srcID)
		if err != nil {
			return nil, err
		}
		if src.PartnerID != target.PartnerID {
			return nil, fmt.Errorf("consignment %s belongs to partner %s, target belongs to %s: %w",
				srcID, src.PartnerID, target.PartnerID, ErrPartnerMismatch)
		}
		if src.Status == StatusCompleted {
			return nil, fmt.Errorf("consignment %s is COMPLETED and cannot be merged: %w", srcID, ErrInvalidStatus)
		}
		mergeOrderInto(target, src)
	}

	target.TotalValue = target.ComputeTotalValue()
	if err := persistOrderItemsTx(ctx, tx, target); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx,
		"UPDATE consignments SET total_value = $1 WHERE id = $2", target.TotalValue, targetID,
	); err != nil {
		return nil, fmt.Errorf("failed to update merged total: %w", err)
	}

	// Sources are consumed by the merge; the target now carries their full
	// history, so deleting them loses no quantity accounting.
	for _, srcID := range sources {
		if _, err := tx.Exec(ctx, "DELETE FROM consignments WHERE id = $1", srcID); err != nil {
			return nil, fmt.Errorf("failed to delete merged consignment %s: %w", srcID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit merge: %w", err)
	}
	return target, nil
}

func (s *consignmentService) DeleteConsignment(ctx context.Context, id string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	order, err := fetchOrderForUpdate(ctx, tx, id)
	if err != nil {
		return err
	}
	if order.Status != StatusDraft {
		return fmt.Errorf("consignment %s is %s, only DRAFT orders can be deleted: %w",
			id, order.Status, ErrInvalidStatus)
	}

	if _, err := tx.Exec(ctx, "DELETE FROM consignments WHERE id = $1", id); err != nil {
		return fmt.Errorf("failed to delete consignment %s: %w", id, err)
	}
	return tx.Commit(ctx)
}

func (s *consignmentService) GetConsignment(ctx context.Context, id string) (*ConsignmentOrder, error) {
	order, err := scanOrder(s.pool.QueryRow(ctx,
		"SELECT "+consignmentColumns+" FROM consignments WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("consignment %s: %w", id, ErrConsignmentNotFound)
		}
		return nil, fmt.Errorf("failed to fetch consignment %s: %w", id, err)
	}
	return order, nil
}

func (s *consignmentService) GetConsignments(ctx context.Context, partnerID *string, status *ConsignmentStatus) ([]ConsignmentOrder, error) {
	query := "SELECT " + consignmentColumns + " FROM consignments WHERE 1=1"
	var args []any
	if partnerID != nil {
		args = append(args, *partnerID)
		query += fmt.Sprintf(" AND partner_id = $%d", len(args))
	}
	if status != nil {
		args = append(args, string(*status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY create_at, id"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query consignments: %w", err)
	}
	defer rows.Close()

	var orders []ConsignmentOrder
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	return orders, rows.Err()
}

// ── Shared row plumbing ──────────────────────────────────────────────────────

const consignmentColumns = "id, partner_id, status, items, sold_items, returned_items, total_value, create_at"

func scanOrder(row pgx.Row) (*ConsignmentOrder, error) {
	var o ConsignmentOrder
	var status string
	var itemsJSON, soldJSON, returnedJSON []byte
	err := row.Scan(&o.ID, &o.PartnerID, &status, &itemsJSON, &soldJSON, &returnedJSON, &o.TotalValue, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	o.Status = ConsignmentStatus(status)
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return nil, fmt.Errorf("failed to decode items for consignment %s: %w", o.ID, err)
	}
	if err := json.Unmarshal(soldJSON, &o.SoldItems); err != nil {
		return nil, fmt.Errorf("failed to decode soldItems for consignment %s: %w", o.ID, err)
	}
	if err := json.Unmarshal(returnedJSON, &o.ReturnedItems); err != nil {
		return nil, fmt.Errorf("failed to decode returnedItems for consignment %s: %w", o.ID, err)
	}
	return &o, nil
}

// fetchOrderForUpdate locks the order row for the duration of the caller's
// transaction. This is the per-entity mutual exclusion that makes concurrent
// confirm/sale/merge attempts serialize instead of double-applying.
func fetchOrderForUpdate(ctx context.Context, tx pgx.Tx, id string) (*ConsignmentOrder, error) {
	order, err := scanOrder(tx.QueryRow(ctx,
		"SELECT "+consignmentColumns+" FROM consignments WHERE id = $1 FOR UPDATE", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("consignment %s: %w", id, ErrConsignmentNotFound)
		}
		return nil, fmt.Errorf("failed to lock consignment %s: %w", id, err)
	}
	return order, nil
}

func persistOrderItemsTx(ctx context.Context, tx pgx.Tx, order *ConsignmentOrder) error {
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to encode items: %w", err)
	}
	soldJSON, err := json.Marshal(order.SoldItems)
	if err != nil {
		return fmt.Errorf("failed to encode soldItems: %w", err)
	}
	returnedJSON, err := json.Marshal(order.ReturnedItems)
	if err != nil {
		return fmt.Errorf("failed to encode returnedItems: %w", err)
	}
	_, err = tx.Exec(ctx, `
		UPDATE consignments
		SET items = $1, sold_items = $2, returned_items = $3
		WHERE id = $4
	`, itemsJSON, soldJSON, returnedJSON, order.ID)
	if err != nil {
		return fmt.Errorf("failed to persist consignment %s: %w", order.ID, err)
	}
	return nil
}

// deductStockTx locks the product row and deducts qty, rejecting deductions
// that would drive stock negative.
func deductStockTx(ctx context.Context, tx pgx.Tx, productID string, qty int) error {
	var stock int
	err := tx.QueryRow(ctx,
		"SELECT stock FROM products WHERE id = $1 FOR UPDATE", productID,
	).Scan(&stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("product %s: %w", productID, ErrProductNotFound)
		}
		return fmt.Errorf("failed to lock product %s: %w", productID, err)
	}
	if stock < qty {
		return fmt.Errorf("product %s has %d on hand, need %d: %w", productID, stock, qty, ErrInsufficientStock)
	}
	if _, err := tx.Exec(ctx,
		"UPDATE products SET stock = stock - $1 WHERE id = $2", qty, productID,
	); err != nil {
		return fmt.Errorf("failed to deduct stock for product %s: %w", productID, err)
	}
	return nil
}

// addStockTx restores qty to a product. Missing products are skipped: returns
// against a since-deleted product still log, they just have no row to credit.
func addStockTx(ctx context.Context, tx pgx.Tx, productID string, qty int) error {
	if _, err := tx.Exec(ctx,
		"UPDATE products SET stock = stock + $1 WHERE id = $2", qty, productID,
	); err != nil {
		return fmt.Errorf("failed to restore stock for product %s: %w", productID, err)
	}
	return nil
}
