package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"consignment-tracker/internal/core"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeDomainError maps engine sentinel errors onto HTTP statuses and stable
// machine codes. Anything unmapped is a 500.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrValidation):
		writeError(w, r, err.Error(), "VALIDATION", http.StatusBadRequest)
	case errors.Is(err, core.ErrProductNotFound):
		writeError(w, r, err.Error(), "PRODUCT_NOT_FOUND", http.StatusNotFound)
	case errors.Is(err, core.ErrPartnerNotFound):
		writeError(w, r, err.Error(), "PARTNER_NOT_FOUND", http.StatusNotFound)
	case errors.Is(err, core.ErrConsignmentNotFound):
		writeError(w, r, err.Error(), "CONSIGNMENT_NOT_FOUND", http.StatusNotFound)
	case errors.Is(err, core.ErrInsufficientStock):
		writeError(w, r, err.Error(), "INSUFFICIENT_STOCK", http.StatusConflict)
	case errors.Is(err, core.ErrOverAllocation):
		writeError(w, r, err.Error(), "OVER_ALLOCATION", http.StatusConflict)
	case errors.Is(err, core.ErrInvalidStatus):
		writeError(w, r, err.Error(), "INVALID_STATUS", http.StatusConflict)
	case errors.Is(err, core.ErrOutstandingRemainder):
		writeError(w, r, err.Error(), "OUTSTANDING_REMAINDER", http.StatusConflict)
	case errors.Is(err, core.ErrPartnerMismatch):
		writeError(w, r, err.Error(), "PARTNER_MISMATCH", http.StatusConflict)
	default:
		writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}
