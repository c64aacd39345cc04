package web

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"consignment-tracker/internal/core"
)

func (h *Handler) listConsignments(w http.ResponseWriter, r *http.Request) {
	var partnerID *string
	if v := r.URL.Query().Get("partnerId"); v != "" {
		partnerID = &v
	}
	var status *core.ConsignmentStatus
	if v := r.URL.Query().Get("status"); v != "" {
		st := core.ConsignmentStatus(v)
		status = &st
	}
	writeJSON(w, h.svc.ListConsignments(r.Context(), partnerID, status))
}

func (h *Handler) getConsignment(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.GetConsignment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, c)
}

type consignmentRequest struct {
	PartnerID string                 `json:"partnerId"`
	Items     []core.ConsignmentItem `json:"items"`
}

func (h *Handler) createConsignment(w http.ResponseWriter, r *http.Request) {
	var req consignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, "invalid JSON body", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	c, err := h.svc.CreateConsignment(r.Context(), req.PartnerID, req.Items)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, c)
}

func (h *Handler) confirmConsignment(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.ConfirmConsignment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, c)
}

func (h *Handler) completeConsignment(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.CompleteConsignment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, c)
}

type registerSaleRequest struct {
	Items []core.SaleItem `json:"items"`
}

func (h *Handler) registerSale(w http.ResponseWriter, r *http.Request) {
	var req registerSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, "invalid JSON body", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	c, record, err := h.svc.RegisterSale(r.Context(), chi.URLParam(r, "id"), req.Items)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"consignment": c, "sale": record})
}

type returnItemsRequest struct {
	Items []core.QuantityItem `json:"items"`
}

func (h *Handler) returnItems(w http.ResponseWriter, r *http.Request) {
	var req returnItemsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, "invalid JSON body", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	c, err := h.svc.ReturnItems(r.Context(), chi.URLParam(r, "id"), req.Items)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, c)
}

type mergeRequest struct {
	TargetID  string   `json:"targetId"`
	SourceIDs []string `json:"sourceIds"`
}

func (h *Handler) mergeConsignments(w http.ResponseWriter, r *http.Request) {
	var req mergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, "invalid JSON body", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	c, err := h.svc.MergeConsignments(r.Context(), req.TargetID, req.SourceIDs)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, c)
}

func (h *Handler) deleteConsignment(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteConsignment(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
