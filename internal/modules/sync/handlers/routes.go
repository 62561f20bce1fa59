package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the price sync routes.
// Mounted under /api/portfolio by the server.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/prices/sync", h.HandleSyncPrices)
}
