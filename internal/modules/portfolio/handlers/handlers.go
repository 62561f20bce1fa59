// Package handlers provides HTTP handlers for portfolio valuation queries.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/temadison/stockdash/internal/domain"
	"github.com/temadison/stockdash/internal/modules/portfolio"
)

// Handler handles portfolio valuation HTTP requests
type Handler struct {
	service *portfolio.Service
	log     zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(service *portfolio.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "portfolio").Logger(),
	}
}

type positionDTO struct {
	Symbol       string  `json:"symbol"`
	Quantity     float64 `json:"quantity"`
	CurrentPrice float64 `json:"currentPrice"`
	MarketValue  float64 `json:"marketValue"`
}

type accountSummaryDTO struct {
	AccountName string        `json:"accountName"`
	AsOfDate    string        `json:"asOfDate"`
	TotalValue  float64       `json:"totalValue"`
	Positions   []positionDTO `json:"positions"`
}

type stockValueDTO struct {
	Symbol      string  `json:"symbol"`
	MarketValue float64 `json:"marketValue"`
}

type performancePointDTO struct {
	Date       string          `json:"date"`
	TotalValue float64         `json:"totalValue"`
	Stocks     []stockValueDTO `json:"stocks"`
}

type analyticsDTO struct {
	Account     string   `json:"account"`
	StartDate   string   `json:"startDate,omitempty"`
	EndDate     string   `json:"endDate,omitempty"`
	StartValue  float64  `json:"startValue"`
	EndValue    float64  `json:"endValue"`
	NetGainLoss float64  `json:"netGainLoss"`
	ElapsedDays int      `json:"elapsedDays"`
	TotalReturn *float64 `json:"totalReturn"`
	CAGR        *float64 `json:"cagr"`
}

// HandleDailySummary handles GET /api/portfolio/daily-summary.
// The optional date parameter defaults to the latest stored price date.
func (h *Handler) HandleDailySummary(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseDayParam(r, "date")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snapshots, err := h.service.DailySummary(asOf)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute daily summary")
		h.writeError(w, http.StatusInternalServerError, "failed to compute daily summary")
		return
	}

	summaries := make([]accountSummaryDTO, 0, len(snapshots))
	for _, snapshot := range snapshots {
		summaries = append(summaries, toAccountSummaryDTO(snapshot))
	}

	h.writeJSON(w, http.StatusOK, summaries)
}

// HandlePerformance handles GET /api/portfolio/performance.
// account defaults to the TOTAL aggregate; startDate and endDate default to
// the full stored price range.
func (h *Handler) HandlePerformance(w http.ResponseWriter, r *http.Request) {
	account, start, end, ok := h.parseSeriesParams(w, r)
	if !ok {
		return
	}

	points, err := h.service.Performance(account, start, end)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	series := make([]performancePointDTO, 0, len(points))
	for _, point := range points {
		series = append(series, toPerformancePointDTO(point))
	}

	h.writeJSON(w, http.StatusOK, series)
}

// HandleAnalytics handles GET /api/portfolio/analytics
func (h *Handler) HandleAnalytics(w http.ResponseWriter, r *http.Request) {
	account, start, end, ok := h.parseSeriesParams(w, r)
	if !ok {
		return
	}

	result, err := h.service.Analytics(account, start, end)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, toAnalyticsDTO(result))
}

// parseSeriesParams reads the account and date range parameters shared by the
// performance and analytics endpoints. On failure it writes the 400 response
// and returns ok=false.
func (h *Handler) parseSeriesParams(w http.ResponseWriter, r *http.Request) (string, *time.Time, *time.Time, bool) {
	account := r.URL.Query().Get("account")
	if account == "" {
		account = portfolio.TotalAccount
	}

	start, err := parseDayParam(r, "startDate")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return "", nil, nil, false
	}
	end, err := parseDayParam(r, "endDate")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return "", nil, nil, false
	}

	return account, start, end, true
}

func toAccountSummaryDTO(snapshot domain.AccountSnapshot) accountSummaryDTO {
	positions := make([]positionDTO, 0, len(snapshot.Positions))
	for _, position := range snapshot.Positions {
		positions = append(positions, positionDTO{
			Symbol:       position.Symbol,
			Quantity:     position.Quantity,
			CurrentPrice: position.CurrentPrice,
			MarketValue:  position.MarketValue,
		})
	}
	return accountSummaryDTO{
		AccountName: snapshot.AccountName,
		AsOfDate:    domain.FormatDay(snapshot.AsOfDate),
		TotalValue:  snapshot.TotalValue,
		Positions:   positions,
	}
}

func toPerformancePointDTO(point domain.PerformancePoint) performancePointDTO {
	stocks := make([]stockValueDTO, 0, len(point.Stocks))
	for _, stock := range point.Stocks {
		stocks = append(stocks, stockValueDTO{
			Symbol:      stock.Symbol,
			MarketValue: stock.MarketValue,
		})
	}
	return performancePointDTO{
		Date:       domain.FormatDay(point.Date),
		TotalValue: point.TotalValue,
		Stocks:     stocks,
	}
}

func toAnalyticsDTO(result portfolio.AnalyticsResult) analyticsDTO {
	dto := analyticsDTO{
		Account:     result.Account,
		StartValue:  result.StartValue,
		EndValue:    result.EndValue,
		NetGainLoss: result.NetGainLoss,
		ElapsedDays: result.ElapsedDays,
		TotalReturn: result.TotalReturn,
		CAGR:        result.CAGR,
	}
	if !result.StartDate.IsZero() {
		dto.StartDate = domain.FormatDay(result.StartDate)
	}
	if !result.EndDate.IsZero() {
		dto.EndDate = domain.FormatDay(result.EndDate)
	}
	return dto
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
