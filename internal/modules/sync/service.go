// Package sync pulls daily close prices from the market data provider into
// the price store. It never mutates the transaction ledger.
package sync

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/temadison/stockdash/internal/clients/alphavantage"
	"github.com/temadison/stockdash/internal/domain"
)

// Per-symbol sync statuses reported to callers
const (
	StatusStored            = "stored"
	StatusAlreadyUpToDate   = "already_up_to_date"
	StatusNoNewRows         = "no_new_rows"
	StatusNoPurchaseHistory = "no_purchase_history"
	StatusRateLimited       = "rate_limited"
	StatusNoData            = "no_data"
	StatusUnknown           = "unknown"
)

// SeriesFetcher retrieves the daily close series for a symbol.
// Implemented by alphavantage.Client.
type SeriesFetcher interface {
	FetchDailySeries(symbol string) alphavantage.SeriesResult
}

// LedgerStore is the read-only view of the ledger the sync needs
type LedgerStore interface {
	DistinctBuySymbols() ([]string, error)
	FirstBuyDates(symbols []string) (map[string]time.Time, error)
}

// PriceStore is the price-store surface the sync writes through
type PriceStore interface {
	LatestDate(symbol string) (time.Time, bool, error)
	InsertIgnoringDuplicates(points []domain.PricePoint) (int, error)
}

// Result summarizes one sync run
type Result struct {
	SymbolsRequested     int               `json:"symbolsRequested"`
	SymbolsWithPurchases int               `json:"symbolsWithPurchases"`
	PricesStored         int               `json:"pricesStored"`
	StoredBySymbol       map[string]int    `json:"storedBySymbol"`
	StatusBySymbol       map[string]string `json:"statusBySymbol"`
	SkippedSymbols       []string          `json:"skippedSymbols"`
}

// Service orchestrates price sync runs. Concurrent runs for the same symbol
// are serialized with per-symbol locks so a scheduled run and a manual run
// cannot interleave writes for one symbol.
type Service struct {
	ledgerStore LedgerStore
	priceStore  PriceStore
	fetcher     SeriesFetcher
	log         zerolog.Logger
	now         func() time.Time

	mu          sync.Mutex
	symbolLocks map[string]*sync.Mutex
}

// NewService creates a new price sync service
func NewService(ledgerStore LedgerStore, priceStore PriceStore, fetcher SeriesFetcher, log zerolog.Logger) *Service {
	return &Service{
		ledgerStore: ledgerStore,
		priceStore:  priceStore,
		fetcher:     fetcher,
		log:         log.With().Str("service", "price_sync").Logger(),
		now:         time.Now,
		symbolLocks: make(map[string]*sync.Mutex),
	}
}

// SyncAll syncs every symbol with at least one BUY in the ledger
func (s *Service) SyncAll() (Result, error) {
	symbols, err := s.ledgerStore.DistinctBuySymbols()
	if err != nil {
		return Result{}, fmt.Errorf("failed to list sync targets: %w", err)
	}
	return s.SyncSymbols(symbols)
}

// SyncSymbols syncs the requested symbols. Symbols without purchase history
// are skipped, and once the provider rate limits the remaining symbols are
// skipped without further requests.
func (s *Service) SyncSymbols(symbols []string) (Result, error) {
	normalized := normalizeSymbols(symbols)

	result := Result{
		SymbolsRequested: len(normalized),
		StoredBySymbol:   make(map[string]int),
		StatusBySymbol:   make(map[string]string),
		SkippedSymbols:   []string{},
	}

	firstBuys, err := s.ledgerStore.FirstBuyDates(normalized)
	if err != nil {
		return result, fmt.Errorf("failed to load first buy dates: %w", err)
	}
	result.SymbolsWithPurchases = len(firstBuys)

	rateLimited := false
	for _, symbol := range normalized {
		firstBuy, hasPurchases := firstBuys[symbol]
		if !hasPurchases {
			s.skip(&result, symbol, StatusNoPurchaseHistory)
			continue
		}
		if rateLimited {
			s.skip(&result, symbol, StatusRateLimited)
			continue
		}

		status, stored, err := s.syncSymbol(symbol, firstBuy)
		if err != nil {
			return result, err
		}

		result.StatusBySymbol[symbol] = status
		if status == StatusStored {
			result.StoredBySymbol[symbol] = stored
			result.PricesStored += stored
		} else {
			result.SkippedSymbols = append(result.SkippedSymbols, symbol)
		}
		if status == StatusRateLimited {
			rateLimited = true
		}
	}

	s.log.Info().
		Int("requested", result.SymbolsRequested).
		Int("with_purchases", result.SymbolsWithPurchases).
		Int("stored", result.PricesStored).
		Int("skipped", len(result.SkippedSymbols)).
		Msg("Price sync finished")

	return result, nil
}

// syncSymbol syncs one symbol while holding its lock
func (s *Service) syncSymbol(symbol string, firstBuy time.Time) (string, int, error) {
	lock := s.lockFor(symbol)
	lock.Lock()
	defer lock.Unlock()

	latest, hasLatest, err := s.priceStore.LatestDate(symbol)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read latest stored date for %s: %w", symbol, err)
	}
	if hasLatest && !latest.Before(s.yesterday()) {
		return StatusAlreadyUpToDate, 0, nil
	}

	fetched := s.fetcher.FetchDailySeries(symbol)
	switch fetched.Status {
	case alphavantage.FetchRateLimited:
		return StatusRateLimited, 0, nil
	case alphavantage.FetchNoData:
		return StatusNoData, 0, nil
	case alphavantage.FetchOK:
		// fall through to store
	default:
		// Invalid symbols and transport failures are both opaque to callers
		return StatusUnknown, 0, nil
	}

	points := make([]domain.PricePoint, 0, len(fetched.Series))
	for _, close := range fetched.Series {
		// Prices on or before the first purchase never affect a valuation
		if !close.Date.After(firstBuy) {
			continue
		}
		points = append(points, domain.PricePoint{
			Symbol: symbol,
			Date:   close.Date,
			Close:  close.Close,
		})
	}

	inserted, err := s.priceStore.InsertIgnoringDuplicates(points)
	if err != nil {
		return "", 0, fmt.Errorf("failed to store prices for %s: %w", symbol, err)
	}
	if inserted == 0 {
		return StatusNoNewRows, 0, nil
	}

	s.log.Info().Str("symbol", symbol).Int("stored", inserted).Msg("Stored new close prices")
	return StatusStored, inserted, nil
}

func (s *Service) skip(result *Result, symbol, status string) {
	result.StatusBySymbol[symbol] = status
	result.SkippedSymbols = append(result.SkippedSymbols, symbol)
}

func (s *Service) lockFor(symbol string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.symbolLocks[symbol]
	if !ok {
		lock = &sync.Mutex{}
		s.symbolLocks[symbol] = lock
	}
	return lock
}

// yesterday is the freshness threshold: a symbol whose latest stored date is
// yesterday or later has nothing new to fetch.
func (s *Service) yesterday() time.Time {
	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return today.AddDate(0, 0, -1)
}

// normalizeSymbols uppercases, trims, drops blanks, dedupes and sorts so a
// run processes symbols in a deterministic order
func normalizeSymbols(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	normalized := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		cleaned := domain.NormalizeSymbol(symbol)
		if cleaned == "" || seen[cleaned] {
			continue
		}
		seen[cleaned] = true
		normalized = append(normalized, cleaned)
	}
	sort.Strings(normalized)
	return normalized
}
