package web

import (
	"encoding/json"
	"net/http"
	"time"

	"consignment-tracker/internal/backup"
	"consignment-tracker/internal/core"
)

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var saleType *core.SaleType
	if v := q.Get("type"); v != "" {
		st := core.SaleType(v)
		saleType = &st
	}
	var from, to *time.Time
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, r, "invalid 'from' timestamp", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		from = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, r, "invalid 'to' timestamp", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		to = &t
	}
	writeJSON(w, h.svc.ListSales(r.Context(), saleType, from, to))
}

type directSaleRequest struct {
	Items         []core.SaleItem `json:"items"`
	PaymentMethod *string         `json:"paymentMethod"`
}

func (h *Handler) addDirectSale(w http.ResponseWriter, r *http.Request) {
	var req directSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, "invalid JSON body", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	record, err := h.svc.AddDirectSale(r.Context(), req.Items, req.PaymentMethod)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, record)
}

func (h *Handler) listLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := core.LogFilter{}
	if v := q.Get("type"); v != "" {
		t := core.LogType(v)
		filter.Type = &t
	}
	if v := q.Get("partnerId"); v != "" {
		filter.PartnerID = &v
	}
	if v := q.Get("productId"); v != "" {
		filter.ProductID = &v
	}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, r, "invalid 'from' timestamp", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		filter.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, r, "invalid 'to' timestamp", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		filter.To = &t
	}

	logs, err := h.svc.GetLogs(r.Context(), filter)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, logs)
}

func (h *Handler) exportBackup(w http.ResponseWriter, r *http.Request) {
	doc, err := h.svc.ExportBackup(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="backup.json"`)
	writeJSON(w, doc)
}

func (h *Handler) importBackup(w http.ResponseWriter, r *http.Request) {
	var doc backup.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, r, "invalid backup document", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	if err := h.svc.ImportBackup(r.Context(), &doc); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, map[string]string{"status": "imported"})
}
