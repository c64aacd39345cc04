package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog item with an on-hand stock count. Stock is kept
// non-negative by every mutating operation; the column itself does not
// enforce it. ImageURL, when set, is a "local:<imageId>" reference into the
// images table. JSON tags follow the historical backup document shape
// (camelCase, "createAt"), which export/import must reproduce exactly.
type Product struct {
	ID            string          `json:"id"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	CostPrice     decimal.Decimal `json:"costPrice"`
	RetailPrice   decimal.Decimal `json:"retailPrice"`
	Stock         int             `json:"stock"`
	MinStockAlert int             `json:"minStockAlert"`
	ImageURL      *string         `json:"imageUrl,omitempty"`
	Material      string          `json:"material"`
	Description   string          `json:"description"`
	CreatedAt     time.Time       `json:"createAt"`
}

// LowStock reports whether on-hand stock has fallen to the alert threshold.
func (p *Product) LowStock() bool {
	return p.MinStockAlert > 0 && p.Stock <= p.MinStockAlert
}

// Partner is a consignment partner master record. Partners are never deleted;
// inventory logs reference them indefinitely.
type Partner struct {
	ID                    string          `json:"id"`
	Name                  string          `json:"name"`
	Contact               string          `json:"contact"`
	Phone                 string          `json:"phone"`
	Address               string          `json:"address"`
	DefaultCommissionRate decimal.Decimal `json:"defaultCommissionRate"`
	CreatedAt             time.Time       `json:"createAt"`
}

type SaleType string

const (
	SaleDirect      SaleType = "DIRECT"
	SaleConsignment SaleType = "CONSIGNMENT"
)

// SaleItem is one line of a sale at the price actually charged.
type SaleItem struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// SaleRecord is immutable once created. DIRECT records come from checkout,
// CONSIGNMENT records from partner sale registration (tagged with the
// originating order via RelatedConsignmentID).
type SaleRecord struct {
	ID                   string          `json:"id"`
	Type                 SaleType        `json:"type"`
	Items                []SaleItem      `json:"items"`
	TotalAmount          decimal.Decimal `json:"totalAmount"`
	Date                 time.Time       `json:"date"`
	RelatedConsignmentID *string         `json:"relatedConsignmentId,omitempty"`
	PaymentMethod        *string         `json:"paymentMethod,omitempty"`
}

type LogType string

const (
	LogSend          LogType = "SEND"
	LogSold          LogType = "SOLD"
	LogReturn        LogType = "RETURN"
	LogAdjustmentIn  LogType = "ADJUSTMENT_IN"
	LogAdjustmentOut LogType = "ADJUSTMENT_OUT"
)

// LogItem is one product line inside an inventory log entry. Price is set on
// SEND (unit price shipped at) and SOLD (price reported by the partner) and
// absent on returns and adjustments.
type LogItem struct {
	ProductID string           `json:"productId"`
	Quantity  int              `json:"quantity"`
	Price     *decimal.Decimal `json:"price,omitempty"`
}

// InventoryLogEntry is an append-only audit record of a stock movement.
// Entries are never mutated or deleted; product references may dangle after
// a product is removed, which readers must tolerate.
type InventoryLogEntry struct {
	ID        int64     `json:"id"`
	Type      LogType   `json:"type"`
	Date      time.Time `json:"date"`
	PartnerID *string   `json:"partnerId,omitempty"`
	ProductID *string   `json:"productId,omitempty"`
	Items     []LogItem `json:"items"`
	Reason    *string   `json:"reason,omitempty"`
	Note      *string   `json:"note,omitempty"`
}

// Image is a stored product photo blob.
type Image struct {
	ID       string `json:"id"`
	Data     []byte `json:"-"`
	MimeType string `json:"type"`
}
