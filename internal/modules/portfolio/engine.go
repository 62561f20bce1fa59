// Package portfolio implements the valuation engine: position reconstruction
// from the transaction ledger, as-of price lookup, daily account summaries and
// multi-day performance series.
//
// The engine is a pure, synchronous computation over immutable snapshots of
// the ledger and the price store. It holds no state of its own and performs no
// I/O; every result is recomputed from its inputs on each call, so any number
// of invocations may run concurrently against the same snapshots.
package portfolio

import (
	"sort"
	"strings"
	"time"

	"github.com/temadison/stockdash/internal/domain"
)

// TotalAccount is the account-filter sentinel meaning "aggregate across all
// accounts". Matching is case-insensitive.
const TotalAccount = "TOTAL"

// asOfClose returns the latest close at or before asOf from an ascending
// series. Missing days resolve to the most recent prior close, never the next
// available price. ok is false when the series is empty or every point
// postdates asOf.
func asOfClose(series []domain.PricePoint, asOf time.Time) (float64, bool) {
	price := 0.0
	found := false
	for _, point := range series {
		if point.Date.After(asOf) {
			break
		}
		price = point.Close
		found = true
	}
	return price, found
}

// fallbackTradePrice returns the execution price of the most recent ledger
// transaction for the symbol at or before asOf, scanning the full ledger.
// Later entries win ties on equal dates (insertion order).
func fallbackTradePrice(ledger []domain.Transaction, symbol string, asOf time.Time) (float64, bool) {
	var price float64
	var bestDate time.Time
	found := false
	for _, tx := range ledger {
		if tx.Symbol != symbol || tx.TradeDate.After(asOf) {
			continue
		}
		if !found || !tx.TradeDate.Before(bestDate) {
			price = tx.Price
			bestDate = tx.TradeDate
			found = true
		}
	}
	return price, found
}

// positionAccumulator tracks the running state for one (account, symbol) pair
// during a ledger replay.
type positionAccumulator struct {
	quantity float64 // signed: BUY adds, SELL subtracts
	fees     float64 // every transaction's fee counts, regardless of side
}

// ReconstructPositions replays the ledger for one account as of one date and
// returns the open positions, sorted by symbol ascending. Symbols whose net
// quantity is zero or negative are dropped silently. When a symbol has no
// close at or before asOf the most recent trade price stands in; when neither
// exists the position values at zero rather than being excluded.
func ReconstructPositions(ledger []domain.Transaction, book PriceBook, account string, asOf time.Time) []domain.Position {
	accumulators := make(map[string]*positionAccumulator)
	for _, tx := range ledger {
		if tx.Account != account || tx.TradeDate.After(asOf) {
			continue
		}
		acc := accumulators[tx.Symbol]
		if acc == nil {
			acc = &positionAccumulator{}
			accumulators[tx.Symbol] = acc
		}
		acc.quantity += tx.SignedQuantity()
		acc.fees += tx.Fee
	}

	symbols := make([]string, 0, len(accumulators))
	for symbol, acc := range accumulators {
		if acc.quantity > 0 {
			symbols = append(symbols, symbol)
		}
	}
	sort.Strings(symbols)

	positions := make([]domain.Position, 0, len(symbols))
	for _, symbol := range symbols {
		acc := accumulators[symbol]

		price, ok := asOfClose(book.Series(symbol), asOf)
		if !ok {
			price, ok = fallbackTradePrice(ledger, symbol, asOf)
		}
		if !ok {
			price = 0
		}

		positions = append(positions, domain.Position{
			Symbol:       symbol,
			Quantity:     acc.quantity,
			CurrentPrice: price,
			MarketValue:  domain.Round2(acc.quantity*price - acc.fees),
		})
	}

	return positions
}

// DailySummary values every account in the ledger as of one date and returns
// one snapshot per account, sorted by account name ascending. Accounts with no
// open positions still appear with a zero total and an empty position list.
func DailySummary(ledger []domain.Transaction, book PriceBook, asOf time.Time) []domain.AccountSnapshot {
	accounts := distinctAccounts(ledger)

	snapshots := make([]domain.AccountSnapshot, 0, len(accounts))
	for _, account := range accounts {
		positions := ReconstructPositions(ledger, book, account, asOf)

		total := 0.0
		for _, position := range positions {
			total += position.MarketValue
		}

		snapshots = append(snapshots, domain.AccountSnapshot{
			AccountName: account,
			AsOfDate:    asOf,
			TotalValue:  domain.Round2(total),
			Positions:   positions,
		})
	}

	return snapshots
}

// PerformanceSeries builds one performance point per distinct price date in
// [start, end] (inclusive), valuing the selected accounts at each date and
// merging position values by symbol. The accountFilter selects a single
// account by case-insensitive exact match, or every account when it is blank
// or the TOTAL sentinel.
func PerformanceSeries(ledger []domain.Transaction, book PriceBook, accountFilter string, start, end time.Time) []domain.PerformancePoint {
	selected := selectAccounts(ledger, accountFilter)
	dates := book.DatesWithin(start, end)

	points := make([]domain.PerformancePoint, 0, len(dates))
	for _, date := range dates {
		merged := make(map[string]float64)
		for _, account := range selected {
			for _, position := range ReconstructPositions(ledger, book, account, date) {
				merged[position.Symbol] += position.MarketValue
			}
		}

		symbols := make([]string, 0, len(merged))
		for symbol := range merged {
			symbols = append(symbols, symbol)
		}
		sort.Strings(symbols)

		stocks := make([]domain.StockValue, 0, len(symbols))
		total := 0.0
		for _, symbol := range symbols {
			value := domain.Round2(merged[symbol])
			stocks = append(stocks, domain.StockValue{Symbol: symbol, MarketValue: value})
			total += value
		}

		points = append(points, domain.PerformancePoint{
			Date:       date,
			TotalValue: domain.Round2(total),
			Stocks:     stocks,
		})
	}

	return points
}

// distinctAccounts enumerates the account identifiers appearing anywhere in
// the ledger, sorted ascending.
func distinctAccounts(ledger []domain.Transaction) []string {
	seen := make(map[string]bool)
	var accounts []string
	for _, tx := range ledger {
		if !seen[tx.Account] {
			seen[tx.Account] = true
			accounts = append(accounts, tx.Account)
		}
	}
	sort.Strings(accounts)
	return accounts
}

// selectAccounts resolves an account filter against the ledger's accounts
func selectAccounts(ledger []domain.Transaction, accountFilter string) []string {
	accounts := distinctAccounts(ledger)

	filter := strings.TrimSpace(accountFilter)
	if filter == "" || strings.EqualFold(filter, TotalAccount) {
		return accounts
	}

	var selected []string
	for _, account := range accounts {
		if strings.EqualFold(account, filter) {
			selected = append(selected, account)
		}
	}
	return selected
}
