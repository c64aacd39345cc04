// Package migrate folds the two legacy audit tables (consignment_logs and
// stock_adjustments) into the unified inventory_logs table. The migration is
// a one-shot: once the legacy tables are gone it reports zero work.
package migrate

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// LegacyLogs merges rows from consignment_logs and stock_adjustments into
// inventory_logs, preserving original timestamps and item payloads, then drops
// the legacy tables. Returns the number of rows migrated. Running against a
// database without legacy tables is a no-op.
func LegacyLogs(ctx context.Context, pool *pgxpool.Pool) (int, error) {
	hasConsignmentLogs, err := tableExists(ctx, pool, "consignment_logs")
	if err != nil {
		return 0, err
	}
	hasAdjustments, err := tableExists(ctx, pool, "stock_adjustments")
	if err != nil {
		return 0, err
	}
	if !hasConsignmentLogs && !hasAdjustments {
		return 0, nil
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin migration transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	migrated := 0

	if hasConsignmentLogs {
		tag, err := tx.Exec(ctx, `
			INSERT INTO inventory_logs (type, date, partner_id, items)
			SELECT type, date, partner_id, items
			FROM consignment_logs
			ORDER BY date, id
		`)
		if err != nil {
			return 0, fmt.Errorf("failed to migrate consignment_logs: %w", err)
		}
		migrated += int(tag.RowsAffected())
		if _, err := tx.Exec(ctx, "DROP TABLE consignment_logs"); err != nil {
			return 0, fmt.Errorf("failed to drop consignment_logs: %w", err)
		}
	}

	if hasAdjustments {
		// Adjustments carried one product per row; the unified shape wraps it
		// in a single-element items array.
		tag, err := tx.Exec(ctx, `
			INSERT INTO inventory_logs (type, date, product_id, items, reason, note)
			SELECT
				CASE WHEN type = 'IN' THEN 'ADJUSTMENT_IN' ELSE 'ADJUSTMENT_OUT' END,
				date,
				product_id,
				jsonb_build_array(jsonb_build_object('productId', product_id, 'quantity', quantity)),
				reason,
				note
			FROM stock_adjustments
			ORDER BY date, id
		`)
		if err != nil {
			return 0, fmt.Errorf("failed to migrate stock_adjustments: %w", err)
		}
		migrated += int(tag.RowsAffected())
		if _, err := tx.Exec(ctx, "DROP TABLE stock_adjustments"); err != nil {
			return 0, fmt.Errorf("failed to drop stock_adjustments: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit log migration: %w", err)
	}
	return migrated, nil
}

func tableExists(ctx context.Context, pool *pgxpool.Pool, name string) (bool, error) {
	var reg *string
	err := pool.QueryRow(ctx, "SELECT to_regclass('public.' || $1)::text", name).Scan(&reg)
	if err != nil {
		return false, fmt.Errorf("failed to check for table %s: %w", name, err)
	}
	return reg != nil, nil
}
