package portfolio

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/temadison/stockdash/internal/domain"
	"github.com/temadison/stockdash/internal/modules/analytics"
)

// LedgerReader provides the transaction snapshot the engine replays.
// Implemented by ledger.TransactionRepository.
type LedgerReader interface {
	ListAll() ([]domain.Transaction, error)
}

// PriceReader provides the price-store snapshot.
// Implemented by prices.PriceRepository.
type PriceReader interface {
	AllSeries() ([]domain.PricePoint, error)
}

// Service loads consistent read snapshots from the repositories and runs the
// valuation engine over them. Each query loads fresh snapshots; nothing is
// cached between calls.
type Service struct {
	ledgerRepo LedgerReader
	priceRepo  PriceReader
	log        zerolog.Logger
}

// NewService creates a new portfolio valuation service
func NewService(ledgerRepo LedgerReader, priceRepo PriceReader, log zerolog.Logger) *Service {
	return &Service{
		ledgerRepo: ledgerRepo,
		priceRepo:  priceRepo,
		log:        log.With().Str("service", "portfolio").Logger(),
	}
}

// AnalyticsResult summarizes the change between the first and last points of
// a performance series. TotalReturn and CAGR are nil when not available.
type AnalyticsResult struct {
	Account     string
	StartDate   time.Time
	EndDate     time.Time
	StartValue  float64
	EndValue    float64
	NetGainLoss float64
	ElapsedDays int
	TotalReturn *float64
	CAGR        *float64
}

// DailySummary values every account as of the given date. A nil date defaults
// to the latest date in the price store, falling back to today only when the
// store is empty.
func (s *Service) DailySummary(asOf *time.Time) ([]domain.AccountSnapshot, error) {
	ledger, book, err := s.loadSnapshots()
	if err != nil {
		return nil, err
	}

	date := time.Time{}
	if asOf != nil {
		date = *asOf
	} else if latest, ok := book.LatestDate(); ok {
		date = latest
	} else {
		date = today()
	}

	snapshots := DailySummary(ledger, book, date)

	s.log.Debug().
		Str("as_of", domain.FormatDay(date)).
		Int("accounts", len(snapshots)).
		Msg("Daily summary computed")

	return snapshots, nil
}

// Performance builds the valuation time series for one account (or the TOTAL
// aggregate) over an inclusive date range. Nil bounds default to the earliest
// and latest dates in the price store.
func (s *Service) Performance(accountFilter string, startDate, endDate *time.Time) ([]domain.PerformancePoint, error) {
	ledger, book, err := s.loadSnapshots()
	if err != nil {
		return nil, err
	}

	start, end, ok := resolveRange(book, startDate, endDate)
	if !ok {
		// No price data at all: no candidate dates, so an empty series
		return []domain.PerformancePoint{}, nil
	}
	if start.After(end) {
		return nil, fmt.Errorf("startDate must be on or before endDate")
	}

	return PerformanceSeries(ledger, book, accountFilter, start, end), nil
}

// Analytics derives net gain/loss, total return and CAGR from the first and
// last points of the performance series for the given account and range.
func (s *Service) Analytics(accountFilter string, startDate, endDate *time.Time) (AnalyticsResult, error) {
	points, err := s.Performance(accountFilter, startDate, endDate)
	if err != nil {
		return AnalyticsResult{}, err
	}

	result := AnalyticsResult{Account: accountFilter}
	if len(points) == 0 {
		return result, nil
	}

	first := points[0]
	last := points[len(points)-1]

	result.StartDate = first.Date
	result.EndDate = last.Date
	result.StartValue = first.TotalValue
	result.EndValue = last.TotalValue
	result.NetGainLoss = analytics.NetGainLoss(first.TotalValue, last.TotalValue)
	result.ElapsedDays = analytics.DaysBetween(first.Date, last.Date)

	if totalReturn, ok := analytics.ComputeReturn(first.TotalValue, last.TotalValue); ok {
		result.TotalReturn = &totalReturn
	}
	if cagr, ok := analytics.ComputeCAGR(first.TotalValue, last.TotalValue, first.Date, last.Date); ok {
		result.CAGR = &cagr
	}

	return result, nil
}

// loadSnapshots reads the ledger and price store once per query so the engine
// works over a consistent pair of immutable snapshots.
func (s *Service) loadSnapshots() ([]domain.Transaction, PriceBook, error) {
	ledger, err := s.ledgerRepo.ListAll()
	if err != nil {
		return nil, PriceBook{}, fmt.Errorf("failed to load ledger snapshot: %w", err)
	}

	points, err := s.priceRepo.AllSeries()
	if err != nil {
		return nil, PriceBook{}, fmt.Errorf("failed to load price snapshot: %w", err)
	}

	return ledger, NewPriceBook(points), nil
}

// resolveRange fills missing range bounds from the price book.
// ok is false when a bound is missing and the book has no dates to supply it.
func resolveRange(book PriceBook, startDate, endDate *time.Time) (time.Time, time.Time, bool) {
	var start, end time.Time

	if startDate != nil {
		start = *startDate
	} else if earliest, ok := book.EarliestDate(); ok {
		start = earliest
	} else {
		return time.Time{}, time.Time{}, false
	}

	if endDate != nil {
		end = *endDate
	} else if latest, ok := book.LatestDate(); ok {
		end = latest
	} else {
		return time.Time{}, time.Time{}, false
	}

	return start, end, true
}

func today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
