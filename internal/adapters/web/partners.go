package web

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"consignment-tracker/internal/core"
)

type partnerRequest struct {
	Name                  string          `json:"name"`
	Contact               string          `json:"contact"`
	Phone                 string          `json:"phone"`
	Address               string          `json:"address"`
	DefaultCommissionRate decimal.Decimal `json:"defaultCommissionRate"`
}

func (h *Handler) listPartners(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.ListPartners(r.Context()))
}

func (h *Handler) getPartner(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetPartner(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, p)
}

func (h *Handler) createPartner(w http.ResponseWriter, r *http.Request) {
	var req partnerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, "invalid JSON body", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	p, err := h.svc.CreatePartner(r.Context(), core.PartnerInput{
		Name:                  req.Name,
		Contact:               req.Contact,
		Phone:                 req.Phone,
		Address:               req.Address,
		DefaultCommissionRate: req.DefaultCommissionRate,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, p)
}

func (h *Handler) updatePartner(w http.ResponseWriter, r *http.Request) {
	var req partnerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, "invalid JSON body", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	p, err := h.svc.UpdatePartner(r.Context(), chi.URLParam(r, "id"), core.PartnerInput{
		Name:                  req.Name,
		Contact:               req.Contact,
		Phone:                 req.Phone,
		Address:               req.Address,
		DefaultCommissionRate: req.DefaultCommissionRate,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, p)
}
