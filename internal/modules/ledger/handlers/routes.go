package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the ledger routes.
// Mounted under /api/portfolio by the server.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/transactions", h.HandleCreateTransaction)
	r.Get("/symbols", h.HandleGetSymbols)
}
