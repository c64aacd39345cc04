package core

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LogBook is the append-only writer and reader for inventory_logs, the sole
// audit trail of stock movements tied to consignments and manual adjustments.
// Entries are written exclusively through AppendInTx so that a movement record
// can never land without the entity writes it describes, and vice versa.
type LogBook struct {
	pool *pgxpool.Pool
}

func NewLogBook(pool *pgxpool.Pool) *LogBook {
	return &LogBook{pool: pool}
}

// AppendInTx inserts one log entry within the caller's transaction and
// returns it with the assigned id and date. A zero entry.Date means "now".
func (l *LogBook) AppendInTx(ctx context.Context, tx pgx.Tx, entry InventoryLogEntry) (*InventoryLogEntry, error) {
	if entry.Date.IsZero() {
		entry.Date = time.Now().UTC()
	}
	itemsJSON, err := json.Marshal(entry.Items)
	if err != nil {
		return nil, fmt.Errorf("failed to encode log items: %w", err)
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO inventory_logs (type, date, partner_id, product_id, items, reason, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, string(entry.Type), entry.Date, entry.PartnerID, entry.ProductID, itemsJSON, entry.Reason, entry.Note).Scan(&entry.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert inventory log: %w", err)
	}
	return &entry, nil
}

// LogFilter narrows GetLogs. Nil fields match everything.
type LogFilter struct {
	Type      *LogType
	PartnerID *string
	ProductID *string
	From      *time.Time
	To        *time.Time
}

// GetLogs returns log entries newest first.
func (l *LogBook) GetLogs(ctx context.Context, filter LogFilter) ([]InventoryLogEntry, error) {
	query := `
		SELECT id, type, date, partner_id, product_id, items, reason, note
		FROM inventory_logs
		WHERE 1=1
	`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Type != nil {
		query += " AND type = " + arg(string(*filter.Type))
	}
	if filter.PartnerID != nil {
		query += " AND partner_id = " + arg(*filter.PartnerID)
	}
	if filter.ProductID != nil {
		// Adjustment entries carry product_id directly; consignment entries
		// only reference products inside the items payload.
		p := arg(*filter.ProductID)
		query += fmt.Sprintf(" AND (product_id = %s OR items @> jsonb_build_array(jsonb_build_object('productId', %s::text)))", p, p)
	}
	if filter.From != nil {
		query += " AND date >= " + arg(*filter.From)
	}
	if filter.To != nil {
		query += " AND date <= " + arg(*filter.To)
	}
	query += " ORDER BY date DESC, id DESC"

	rows, err := l.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory logs: %w", err)
	}
	defer rows.Close()

	var entries []InventoryLogEntry
	for rows.Next() {
		entry, err := scanLogEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// GetAllLogs returns every entry oldest first; used by the backup exporter.
func (l *LogBook) GetAllLogs(ctx context.Context) ([]InventoryLogEntry, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT id, type, date, partner_id, product_id, items, reason, note
		FROM inventory_logs
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory logs: %w", err)
	}
	defer rows.Close()

	var entries []InventoryLogEntry
	for rows.Next() {
		entry, err := scanLogEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

func scanLogEntry(rows pgx.Rows) (*InventoryLogEntry, error) {
	var e InventoryLogEntry
	var typ string
	var itemsJSON []byte
	if err := rows.Scan(&e.ID, &typ, &e.Date, &e.PartnerID, &e.ProductID, &itemsJSON, &e.Reason, &e.Note); err != nil {
		return nil, fmt.Errorf("failed to scan inventory log: %w", err)
	}
	e.Type = LogType(typ)
	if err := json.Unmarshal(itemsJSON, &e.Items); err != nil {
		return nil, fmt.Errorf("failed to decode log items for entry %d: %w", e.ID, err)
	}
	return &e, nil
}
