// Package handlers provides HTTP handlers for the price store.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/temadison/stockdash/internal/domain"
	"github.com/temadison/stockdash/internal/modules/prices"
)

// Handler handles price store HTTP requests
type Handler struct {
	repo *prices.PriceRepository
	log  zerolog.Logger
}

// NewHandler creates a new price handler
func NewHandler(repo *prices.PriceRepository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "prices").Logger(),
	}
}

type pricePointDTO struct {
	Symbol     string  `json:"symbol"`
	Date       string  `json:"date"`
	ClosePrice float64 `json:"closePrice"`
}

// HandleGetHistory handles GET /api/portfolio/prices/history.
// symbol is required; startDate and endDate bound the range inclusively.
// Prices are returned newest first.
func (h *Handler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	symbol := domain.NormalizeSymbol(r.URL.Query().Get("symbol"))
	if symbol == "" {
		h.writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	start, err := parseDayParam(r, "startDate")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := parseDayParam(r, "endDate")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if start != nil && end != nil && start.After(*end) {
		h.writeError(w, http.StatusBadRequest, "startDate must be on or before endDate")
		return
	}

	points, err := h.repo.History(symbol, start, end)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to load price history")
		h.writeError(w, http.StatusInternalServerError, "failed to load price history")
		return
	}

	history := make([]pricePointDTO, 0, len(points))
	for _, point := range points {
		history = append(history, pricePointDTO{
			Symbol:     point.Symbol,
			Date:       domain.FormatDay(point.Date),
			ClosePrice: point.Close,
		})
	}

	h.writeJSON(w, http.StatusOK, history)
}

// parseDayParam reads an optional YYYY-MM-DD query parameter.
// A missing or blank parameter yields nil.
func parseDayParam(r *http.Request, name string) (*time.Time, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return nil, nil
	}
	day, err := domain.ParseDay(value)
	if err != nil {
		return nil, err
	}
	return &day, nil
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes a JSON error response
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
