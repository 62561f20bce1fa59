// Package handlers provides HTTP handlers for the transaction ledger.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/temadison/stockdash/internal/domain"
	"github.com/temadison/stockdash/internal/modules/ledger"
)

// Handler handles ledger HTTP requests
type Handler struct {
	repo *ledger.TransactionRepository
	log  zerolog.Logger
}

// NewHandler creates a new ledger handler
func NewHandler(repo *ledger.TransactionRepository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "ledger").Logger(),
	}
}

type createTransactionRequest struct {
	Account   string  `json:"account"`
	Symbol    string  `json:"symbol"`
	Side      string  `json:"side"`
	TradeDate string  `json:"tradeDate"`
	Quantity  float64 `json:"quantity"`
	Price     float64 `json:"price"`
	Fee       float64 `json:"fee"`
}

// HandleCreateTransaction handles POST /api/portfolio/transactions.
// The ledger is append-only; there is no update or delete endpoint.
func (h *Handler) HandleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tx := domain.Transaction{
		Account:  req.Account,
		Symbol:   req.Symbol,
		Side:     domain.TransactionSide(req.Side),
		Quantity: req.Quantity,
		Price:    req.Price,
		Fee:      req.Fee,
	}
	if req.TradeDate != "" {
		day, err := domain.ParseDay(req.TradeDate)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		tx.TradeDate = day
	}

	if err := tx.Validate(); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.repo.Create(tx); err != nil {
		h.log.Error().Err(err).Str("symbol", tx.Symbol).Msg("Failed to create transaction")
		h.writeError(w, http.StatusInternalServerError, "failed to create transaction")
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]string{"status": "created"})
}

// HandleGetSymbols handles GET /api/portfolio/symbols.
// Returns every symbol with at least one BUY transaction.
func (h *Handler) HandleGetSymbols(w http.ResponseWriter, r *http.Request) {
	symbols, err := h.repo.DistinctBuySymbols()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list symbols")
		h.writeError(w, http.StatusInternalServerError, "failed to list symbols")
		return
	}
	if symbols == nil {
		symbols = []string{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"symbols": symbols})
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
