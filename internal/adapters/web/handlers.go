// Package web is the HTTP adapter over the application facade. Handlers only
// translate: decode the request, call one facade method, encode the result.
package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"consignment-tracker/internal/app"
)

type Handler struct {
	svc    *app.Service
	router chi.Router
}

// NewHandler wires the chi router with all routes.
func NewHandler(svc *app.Service, allowedOrigins string) http.Handler {
	h := &Handler{svc: svc}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(CORS(allowedOrigins))

	r.Get("/api/health", h.health)

	r.Group(func(r chi.Router) {
		// Backup imports carry every image in one document; everything else
		// stays under the tighter default.
		r.Use(RequestBodyLimit(64 << 20)) // 64 MB
		r.Get("/api/backup/export", h.exportBackup)
		r.Post("/api/backup/import", h.importBackup)
	})

	r.Group(func(r chi.Router) {
		r.Use(RequestBodyLimit(8 << 20)) // 8 MB, image uploads included

		r.Route("/api/products", func(r chi.Router) {
			r.Get("/", h.listProducts)
			r.Post("/", h.createProduct)
			r.Get("/low-stock", h.listLowStockProducts)
			r.Get("/{id}", h.getProduct)
			r.Patch("/{id}", h.updateProduct)
			r.Delete("/{id}", h.deleteProduct)
			r.Post("/{id}/adjustments", h.addStockAdjustment)
		})
		r.Get("/api/images/{id}", h.getImage)

		r.Route("/api/partners", func(r chi.Router) {
			r.Get("/", h.listPartners)
			r.Post("/", h.createPartner)
			r.Get("/{id}", h.getPartner)
			r.Put("/{id}", h.updatePartner)
		})

		r.Route("/api/consignments", func(r chi.Router) {
			r.Get("/", h.listConsignments)
			r.Post("/", h.createConsignment)
			r.Post("/merge", h.mergeConsignments)
			r.Get("/{id}", h.getConsignment)
			r.Delete("/{id}", h.deleteConsignment)
			r.Post("/{id}/confirm", h.confirmConsignment)
			r.Post("/{id}/complete", h.completeConsignment)
			r.Post("/{id}/sales", h.registerSale)
			r.Post("/{id}/returns", h.returnItems)
		})

		r.Route("/api/sales", func(r chi.Router) {
			r.Get("/", h.listSales)
			r.Post("/", h.addDirectSale)
		})

		r.Get("/api/logs", h.listLogs)
	})

	h.router = r
	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}
