// Package backup serializes the full database to a single JSON document and
// restores from one. The document shape (camelCase fields, data-URL image
// payloads, version "1.0") is the interchange format older exports already
// use, so both directions preserve it exactly.
package backup

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"consignment-tracker/internal/core"
)

const documentVersion = "1.0"

// ImageRecord carries a stored image as a data URL
// ("data:image/png;base64,....").
type ImageRecord struct {
	ID   string `json:"id"`
	Data string `json:"data"`
	Type string `json:"type"`
}

type Document struct {
	Version       string                   `json:"version"`
	ExportTime    time.Time                `json:"exportTime"`
	Products      []core.Product           `json:"products"`
	Partners      []core.Partner           `json:"partners"`
	Consignments  []core.ConsignmentOrder  `json:"consignments"`
	Sales         []core.SaleRecord        `json:"sales"`
	InventoryLogs []core.InventoryLogEntry `json:"inventoryLogs"`
	Images        []ImageRecord            `json:"images"`
}

type Service struct {
	pool    *pgxpool.Pool
	logBook *core.LogBook
}

func NewService(pool *pgxpool.Pool, logBook *core.LogBook) *Service {
	return &Service{pool: pool, logBook: logBook}
}

// Export snapshots every table into a Document. Logs are exported in id order
// so a restored database replays them with the same sequence.
func (s *Service) Export(ctx context.Context) (*Document, error) {
	doc := &Document{
		Version:    documentVersion,
		ExportTime: time.Now().UTC(),
	}

	var err error
	if doc.Products, err = s.exportProducts(ctx); err != nil {
		return nil, err
	}
	if doc.Partners, err = s.exportPartners(ctx); err != nil {
		return nil, err
	}
	if doc.Consignments, err = s.exportConsignments(ctx); err != nil {
		return nil, err
	}
	if doc.Sales, err = s.exportSales(ctx); err != nil {
		return nil, err
	}
	if doc.InventoryLogs, err = s.logBook.GetAllLogs(ctx); err != nil {
		return nil, fmt.Errorf("failed to export inventory logs: %w", err)
	}
	if doc.Images, err = s.exportImages(ctx); err != nil {
		return nil, err
	}
	return doc, nil
}

// Import restores a Document in one transaction. Rows are upserted by primary
// key, so importing into a non-empty database overwrites matching ids and
// leaves the rest alone.
func (s *Service) Import(ctx context.Context, doc *Document) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, p := range doc.Products {
		_, err := tx.Exec(ctx, `
			INSERT INTO products (id, sku, name, category, cost_price, retail_price, stock, min_stock_alert, image_url, material, description, create_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (id) DO UPDATE SET
				sku = EXCLUDED.sku, name = EXCLUDED.name, category = EXCLUDED.category,
				cost_price = EXCLUDED.cost_price, retail_price = EXCLUDED.retail_price,
				stock = EXCLUDED.stock, min_stock_alert = EXCLUDED.min_stock_alert,
				image_url = EXCLUDED.image_url, material = EXCLUDED.material,
				description = EXCLUDED.description, create_at = EXCLUDED.create_at
		`, p.ID, p.SKU, p.Name, p.Category, p.CostPrice, p.RetailPrice, p.Stock,
			p.MinStockAlert, p.ImageURL, p.Material, p.Description, p.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to import product %s: %w", p.ID, err)
		}
	}

	for _, p := range doc.Partners {
		_, err := tx.Exec(ctx, `
			INSERT INTO partners (id, name, contact, phone, address, default_commission_rate, create_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name, contact = EXCLUDED.contact, phone = EXCLUDED.phone,
				address = EXCLUDED.address, default_commission_rate = EXCLUDED.default_commission_rate,
				create_at = EXCLUDED.create_at
		`, p.ID, p.Name, p.Contact, p.Phone, p.Address, p.DefaultCommissionRate, p.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to import partner %s: %w", p.ID, err)
		}
	}

	for _, c := range doc.Consignments {
		itemsJSON, soldJSON, returnedJSON, err := encodeOrderCollections(&c)
		if err != nil {
			return fmt.Errorf("failed to encode consignment %s: %w", c.ID, err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO consignments (id, partner_id, status, items, sold_items, returned_items, total_value, create_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO UPDATE SET
				partner_id = EXCLUDED.partner_id, status = EXCLUDED.status,
				items = EXCLUDED.items, sold_items = EXCLUDED.sold_items,
				returned_items = EXCLUDED.returned_items, total_value = EXCLUDED.total_value,
				create_at = EXCLUDED.create_at
		`, c.ID, c.PartnerID, string(c.Status), itemsJSON, soldJSON, returnedJSON, c.TotalValue, c.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to import consignment %s: %w", c.ID, err)
		}
	}

	for _, rec := range doc.Sales {
		itemsJSON, err := json.Marshal(rec.Items)
		if err != nil {
			return fmt.Errorf("failed to encode sale %s: %w", rec.ID, err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO sales (id, type, items, total_amount, date, related_consignment_id, payment_method)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE SET
				type = EXCLUDED.type, items = EXCLUDED.items, total_amount = EXCLUDED.total_amount,
				date = EXCLUDED.date, related_consignment_id = EXCLUDED.related_consignment_id,
				payment_method = EXCLUDED.payment_method
		`, rec.ID, string(rec.Type), itemsJSON, rec.TotalAmount, rec.Date,
			rec.RelatedConsignmentID, rec.PaymentMethod)
		if err != nil {
			return fmt.Errorf("failed to import sale %s: %w", rec.ID, err)
		}
	}

	for _, entry := range doc.InventoryLogs {
		itemsJSON, err := json.Marshal(entry.Items)
		if err != nil {
			return fmt.Errorf("failed to encode log %d: %w", entry.ID, err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO inventory_logs (id, type, date, partner_id, product_id, items, reason, note)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO UPDATE SET
				type = EXCLUDED.type, date = EXCLUDED.date, partner_id = EXCLUDED.partner_id,
				product_id = EXCLUDED.product_id, items = EXCLUDED.items,
				reason = EXCLUDED.reason, note = EXCLUDED.note
		`, entry.ID, string(entry.Type), entry.Date, entry.PartnerID, entry.ProductID,
			itemsJSON, entry.Reason, entry.Note)
		if err != nil {
			return fmt.Errorf("failed to import log %d: %w", entry.ID, err)
		}
	}
	// Explicit ids bypass the sequence; realign it so future appends don't
	// collide with imported rows.
	if _, err := tx.Exec(ctx, `
		SELECT setval(pg_get_serial_sequence('inventory_logs', 'id'),
			GREATEST((SELECT COALESCE(MAX(id), 0) FROM inventory_logs), 1),
			(SELECT COUNT(*) > 0 FROM inventory_logs))
	`); err != nil {
		return fmt.Errorf("failed to realign log sequence: %w", err)
	}

	for _, img := range doc.Images {
		data, err := decodeImageData(img.Data)
		if err != nil {
			return fmt.Errorf("failed to decode image %s: %w", img.ID, err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO images (id, data, mime_type)
			VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, mime_type = EXCLUDED.mime_type
		`, img.ID, data, img.Type)
		if err != nil {
			return fmt.Errorf("failed to import image %s: %w", img.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}
	return nil
}

func (s *Service) exportProducts(ctx context.Context) ([]core.Product, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, sku, name, category, cost_price, retail_price, stock, min_stock_alert, image_url, material, description, create_at
		FROM products ORDER BY create_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to export products: %w", err)
	}
	defer rows.Close()

	out := []core.Product{}
	for rows.Next() {
		var p core.Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.Category, &p.CostPrice, &p.RetailPrice,
			&p.Stock, &p.MinStockAlert, &p.ImageURL, &p.Material, &p.Description, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Service) exportPartners(ctx context.Context) ([]core.Partner, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, contact, phone, address, default_commission_rate, create_at
		FROM partners ORDER BY create_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to export partners: %w", err)
	}
	defer rows.Close()

	out := []core.Partner{}
	for rows.Next() {
		var p core.Partner
		if err := rows.Scan(&p.ID, &p.Name, &p.Contact, &p.Phone, &p.Address,
			&p.DefaultCommissionRate, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan partner: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Service) exportConsignments(ctx context.Context) ([]core.ConsignmentOrder, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, partner_id, status, items, sold_items, returned_items, total_value, create_at
		FROM consignments ORDER BY create_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to export consignments: %w", err)
	}
	defer rows.Close()

	out := []core.ConsignmentOrder{}
	for rows.Next() {
		var c core.ConsignmentOrder
		var status string
		var itemsJSON, soldJSON, returnedJSON []byte
		if err := rows.Scan(&c.ID, &c.PartnerID, &status, &itemsJSON, &soldJSON, &returnedJSON,
			&c.TotalValue, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan consignment: %w", err)
		}
		c.Status = core.ConsignmentStatus(status)
		if err := json.Unmarshal(itemsJSON, &c.Items); err != nil {
			return nil, fmt.Errorf("failed to decode items for consignment %s: %w", c.ID, err)
		}
		if err := json.Unmarshal(soldJSON, &c.SoldItems); err != nil {
			return nil, fmt.Errorf("failed to decode soldItems for consignment %s: %w", c.ID, err)
		}
		if err := json.Unmarshal(returnedJSON, &c.ReturnedItems); err != nil {
			return nil, fmt.Errorf("failed to decode returnedItems for consignment %s: %w", c.ID, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Service) exportSales(ctx context.Context) ([]core.SaleRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, type, items, total_amount, date, related_consignment_id, payment_method
		FROM sales ORDER BY date, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to export sales: %w", err)
	}
	defer rows.Close()

	out := []core.SaleRecord{}
	for rows.Next() {
		var rec core.SaleRecord
		var saleType string
		var itemsJSON []byte
		if err := rows.Scan(&rec.ID, &saleType, &itemsJSON, &rec.TotalAmount, &rec.Date,
			&rec.RelatedConsignmentID, &rec.PaymentMethod); err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		rec.Type = core.SaleType(saleType)
		if err := json.Unmarshal(itemsJSON, &rec.Items); err != nil {
			return nil, fmt.Errorf("failed to decode items for sale %s: %w", rec.ID, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Service) exportImages(ctx context.Context) ([]ImageRecord, error) {
	rows, err := s.pool.Query(ctx, "SELECT id, data, mime_type FROM images ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to export images: %w", err)
	}
	defer rows.Close()

	out := []ImageRecord{}
	for rows.Next() {
		var id, mime string
		var data []byte
		if err := rows.Scan(&id, &data, &mime); err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		out = append(out, ImageRecord{
			ID:   id,
			Data: fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data)),
			Type: mime,
		})
	}
	return out, rows.Err()
}

func encodeOrderCollections(c *core.ConsignmentOrder) ([]byte, []byte, []byte, error) {
	itemsJSON, err := json.Marshal(c.Items)
	if err != nil {
		return nil, nil, nil, err
	}
	soldJSON, err := json.Marshal(c.SoldItems)
	if err != nil {
		return nil, nil, nil, err
	}
	returnedJSON, err := json.Marshal(c.ReturnedItems)
	if err != nil {
		return nil, nil, nil, err
	}
	return itemsJSON, soldJSON, returnedJSON, nil
}

// decodeImageData accepts both data URLs and bare base64, since older exports
// mixed the two.
func decodeImageData(s string) ([]byte, error) {
	if i := strings.Index(s, "base64,"); i >= 0 {
		s = s[i+len("base64,"):]
	}
	return base64.StdEncoding.DecodeString(s)
}
