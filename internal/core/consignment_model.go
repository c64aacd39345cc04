package core

import (
	"time"

	"github.com/shopspring/decimal"
)

type ConsignmentStatus string

// Status progresses through the state machine:
//
//	DRAFT → CONFIRMED → COMPLETED
//
// DRAFT orders have no stock effect. Confirmation deducts stock and is
// irreversible; there is no cancel or un-confirm path. Completion is a manual
// transition, allowed only once every item has been fully reconciled.
const (
	StatusDraft     ConsignmentStatus = "DRAFT"
	StatusConfirmed ConsignmentStatus = "CONFIRMED"
	StatusCompleted ConsignmentStatus = "COMPLETED"
)

// ConsignmentItem is one shipped line. Quantity is immutable once the order
// is confirmed; UnitPrice and CommissionRate are snapshots taken at creation.
type ConsignmentItem struct {
	ProductID      string          `json:"productId"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unitPrice"`
	CommissionRate decimal.Decimal `json:"commissionRate"`
}

// QuantityItem is a per-product quantity accumulator used for the soldItems
// and returnedItems collections.
type QuantityItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// ConsignmentOrder is a batch of goods in a partner's custody.
// Invariant, per product: Sold + Returned ≤ shipped Quantity at all times.
type ConsignmentOrder struct {
	ID            string            `json:"id"`
	PartnerID     string            `json:"partnerId"`
	Status        ConsignmentStatus `json:"status"`
	Items         []ConsignmentItem `json:"items"`
	SoldItems     []QuantityItem    `json:"soldItems"`
	ReturnedItems []QuantityItem    `json:"returnedItems"`
	TotalValue    decimal.Decimal   `json:"totalValue"`
	CreatedAt     time.Time         `json:"createAt"`
}

// Shipped returns the confirmed shipment quantity for a product, 0 if the
// product is not on the order.
func (o *ConsignmentOrder) Shipped(productID string) int {
	for _, it := range o.Items {
		if it.ProductID == productID {
			return it.Quantity
		}
	}
	return 0
}

// Sold returns the accumulated reported-sold quantity for a product.
func (o *ConsignmentOrder) Sold(productID string) int {
	return quantityOf(o.SoldItems, productID)
}

// Returned returns the accumulated returned quantity for a product.
func (o *ConsignmentOrder) Returned(productID string) int {
	return quantityOf(o.ReturnedItems, productID)
}

// Remaining is shipped − sold − returned for one product.
func (o *ConsignmentOrder) Remaining(productID string) int {
	return o.Shipped(productID) - o.Sold(productID) - o.Returned(productID)
}

// OutstandingRemainder sums Remaining over every item on the order.
func (o *ConsignmentOrder) OutstandingRemainder() int {
	total := 0
	for _, it := range o.Items {
		total += o.Remaining(it.ProductID)
	}
	return total
}

// ComputeTotalValue is Σ quantity × unitPrice over the shipped items.
func (o *ConsignmentOrder) ComputeTotalValue() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

func quantityOf(items []QuantityItem, productID string) int {
	for _, it := range items {
		if it.ProductID == productID {
			return it.Quantity
		}
	}
	return 0
}

// accumulate adds qty to the entry for productID, appending a new entry if
// the product is not present yet.
func accumulate(items []QuantityItem, productID string, qty int) []QuantityItem {
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity += qty
			return items
		}
	}
	return append(items, QuantityItem{ProductID: productID, Quantity: qty})
}

// mergeOrderInto folds every collection of src into dst by productId: existing
// entries add quantities, unseen products are appended (items keep the source
// line's unitPrice and commissionRate). dst.TotalValue is not recomputed here.
func mergeOrderInto(dst, src *ConsignmentOrder) {
	for _, it := range src.Items {
		merged := false
		for i := range dst.Items {
			if dst.Items[i].ProductID == it.ProductID {
				dst.Items[i].Quantity += it.Quantity
				merged = true
				break
			}
		}
		if !merged {
			dst.Items = append(dst.Items, it)
		}
	}
	for _, it := range src.SoldItems {
		dst.SoldItems = accumulate(dst.SoldItems, it.ProductID, it.Quantity)
	}
	for _, it := range src.ReturnedItems {
		dst.ReturnedItems = accumulate(dst.ReturnedItems, it.ProductID, it.Quantity)
	}
}
