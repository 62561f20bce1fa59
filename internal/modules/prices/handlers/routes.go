package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the price store routes.
// Mounted under /api/portfolio by the server.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/prices/history", h.HandleGetHistory)
}
