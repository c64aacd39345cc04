// Package sync propagates state changes between processes. Every write
// operation publishes one or more messages; peers apply them to their
// in-memory snapshot without rereading the database.
package sync

import (
	"encoding/json"
	"time"
)

// Actions carried on the wire. Data holds the affected entity (or its id for
// deletions) encoded as JSON.
const (
	ActionAddProduct              = "ADD_PRODUCT"
	ActionUpdateProduct           = "UPDATE_PRODUCT"
	ActionDeleteProduct           = "DELETE_PRODUCT"
	ActionAddPartner              = "ADD_PARTNER"
	ActionUpdatePartner           = "UPDATE_PARTNER"
	ActionAddConsignment          = "ADD_CONSIGNMENT"
	ActionUpdateConsignment       = "UPDATE_CONSIGNMENT"
	ActionUpdateConsignmentStatus = "UPDATE_CONSIGNMENT_STATUS"
	ActionDeleteConsignment       = "DELETE_CONSIGNMENT"
	ActionAddSale                 = "ADD_SALE"
	ActionStockAdjustment         = "STOCK_ADJUSTMENT"
	ActionReloadAll               = "RELOAD_ALL"
)

type Message struct {
	Action    string          `json:"action"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
	SenderID  string          `json:"senderId"`
}

// NewMessage stamps the current time and encodes data. A nil data payload is
// valid (RELOAD_ALL carries none).
func NewMessage(action, senderID string, data any) (Message, error) {
	msg := Message{
		Action:    action,
		Timestamp: time.Now().UnixMilli(),
		SenderID:  senderID,
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return Message{}, err
		}
		msg.Data = raw
	}
	return msg, nil
}
