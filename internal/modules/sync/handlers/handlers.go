// Package handlers provides the HTTP trigger for price sync runs.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	syncsvc "github.com/temadison/stockdash/internal/modules/sync"
)

// Handler handles price sync HTTP requests
type Handler struct {
	service *syncsvc.Service
	log     zerolog.Logger
}

// NewHandler creates a new sync handler
func NewHandler(service *syncsvc.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "sync").Logger(),
	}
}

type syncRequest struct {
	Stocks []string `json:"stocks"`
}

// HandleSyncPrices handles POST /api/portfolio/prices/sync.
// An empty or absent body syncs every purchased symbol.
func (h *Handler) HandleSyncPrices(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var result syncsvc.Result
	var err error
	if len(req.Stocks) > 0 {
		result, err = h.service.SyncSymbols(req.Stocks)
	} else {
		result, err = h.service.SyncAll()
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Price sync failed")
		h.writeError(w, http.StatusInternalServerError, "price sync failed")
		return
	}

	h.writeJSON(w, http.StatusOK, result)
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
