package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the portfolio valuation routes.
// Mounted under /api/portfolio by the server.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/daily-summary", h.HandleDailySummary)
	r.Get("/performance", h.HandlePerformance)
	r.Get("/analytics", h.HandleAnalytics)
}
