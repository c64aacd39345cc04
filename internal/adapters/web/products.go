package web

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"consignment-tracker/internal/core"
)

type productRequest struct {
	SKU           *string          `json:"sku"`
	Name          *string          `json:"name"`
	Category      *string          `json:"category"`
	CostPrice     *decimal.Decimal `json:"costPrice"`
	RetailPrice   *decimal.Decimal `json:"retailPrice"`
	Stock         *int             `json:"stock"`
	MinStockAlert *int             `json:"minStockAlert"`
	Material      *string          `json:"material"`
	Description   *string          `json:"description"`
	// Image payload as base64 (a data URL prefix is tolerated).
	ImageData string `json:"imageData"`
	ImageType string `json:"imageType"`
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.ListProducts(r.Context()))
}

func (h *Handler) listLowStockProducts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.ListLowStockProducts(r.Context()))
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, p)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, "invalid JSON body", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	input := core.ProductInput{}
	if req.SKU != nil {
		input.SKU = *req.SKU
	}
	if req.Name != nil {
		input.Name = *req.Name
	}
	if req.Category != nil {
		input.Category = *req.Category
	}
	if req.CostPrice != nil {
		input.CostPrice = *req.CostPrice
	}
	if req.RetailPrice != nil {
		input.RetailPrice = *req.RetailPrice
	}
	if req.Stock != nil {
		input.Stock = *req.Stock
	}
	if req.MinStockAlert != nil {
		input.MinStockAlert = *req.MinStockAlert
	}
	if req.Material != nil {
		input.Material = *req.Material
	}
	if req.Description != nil {
		input.Description = *req.Description
	}
	if req.ImageData != "" {
		data, err := decodeBase64Image(req.ImageData)
		if err != nil {
			writeError(w, r, "invalid image data", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		input.ImageData = data
		input.ImageMime = req.ImageType
	}

	p, err := h.svc.CreateProduct(r.Context(), input)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, p)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, "invalid JSON body", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	update := core.ProductUpdate{
		SKU:           req.SKU,
		Name:          req.Name,
		Category:      req.Category,
		CostPrice:     req.CostPrice,
		RetailPrice:   req.RetailPrice,
		MinStockAlert: req.MinStockAlert,
		Material:      req.Material,
		Description:   req.Description,
	}
	if req.ImageData != "" {
		data, err := decodeBase64Image(req.ImageData)
		if err != nil {
			writeError(w, r, "invalid image data", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		update.ImageData = data
		update.ImageMime = req.ImageType
	}

	p, err := h.svc.UpdateProduct(r.Context(), chi.URLParam(r, "id"), update)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, p)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getImage(w http.ResponseWriter, r *http.Request) {
	img, err := h.svc.GetImage(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", img.MimeType)
	_, _ = w.Write(img.Data)
}

type adjustmentRequest struct {
	Type     string `json:"type"`
	Reason   string `json:"reason"`
	Quantity int    `json:"quantity"`
	Note     string `json:"note"`
}

func (h *Handler) addStockAdjustment(w http.ResponseWriter, r *http.Request) {
	var req adjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, "invalid JSON body", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	p, entry, err := h.svc.AddStockAdjustment(r.Context(), core.AdjustmentInput{
		ProductID: chi.URLParam(r, "id"),
		Type:      core.AdjustmentType(req.Type),
		Reason:    req.Reason,
		Quantity:  req.Quantity,
		Note:      req.Note,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"product": p, "log": entry})
}

func decodeBase64Image(s string) ([]byte, error) {
	if i := strings.Index(s, "base64,"); i >= 0 {
		s = s[i+len("base64,"):]
	}
	return base64.StdEncoding.DecodeString(s)
}
