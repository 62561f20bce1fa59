// Package domain contains the core types shared across modules.
// Domain types are pure data and have no infrastructure dependencies.
package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// DayFormat is the calendar-day layout used everywhere dates cross a boundary
// (API parameters, database columns, logs).
const DayFormat = "2006-01-02"

// TransactionSide identifies the direction of a ledger transaction
type TransactionSide string

const (
	// SideBuy increases the net quantity of a holding
	SideBuy TransactionSide = "BUY"
	// SideSell decreases the net quantity of a holding
	SideSell TransactionSide = "SELL"
)

// Transaction is a single immutable entry in the append-only trade ledger
type Transaction struct {
	ID        int64
	Account   string
	Symbol    string
	Side      TransactionSide
	TradeDate time.Time // calendar day at UTC midnight
	Quantity  float64
	Price     float64 // execution price
	Fee       float64
}

// Validate checks transaction fields before the ledger accepts them
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Account) == "" {
		return fmt.Errorf("account is required")
	}
	if strings.TrimSpace(t.Symbol) == "" {
		return fmt.Errorf("symbol is required")
	}
	if t.Side != SideBuy && t.Side != SideSell {
		return fmt.Errorf("side must be BUY or SELL, got %q", t.Side)
	}
	if t.TradeDate.IsZero() {
		return fmt.Errorf("trade date is required")
	}
	if t.Quantity <= 0 {
		return fmt.Errorf("quantity must be positive")
	}
	if t.Price <= 0 {
		return fmt.Errorf("price must be positive")
	}
	if t.Fee < 0 {
		return fmt.Errorf("fee must not be negative")
	}
	return nil
}

// SignedQuantity returns the quantity with BUY positive and SELL negative
func (t Transaction) SignedQuantity() float64 {
	if t.Side == SideSell {
		return -t.Quantity
	}
	return t.Quantity
}

// PricePoint is one end-of-day close for a symbol
type PricePoint struct {
	Symbol string
	Date   time.Time
	Close  float64
}

// Position is a reconstructed holding. Derived, never stored; only symbols with
// net quantity > 0 are represented.
type Position struct {
	Symbol       string
	Quantity     float64
	CurrentPrice float64
	MarketValue  float64
}

// AccountSnapshot is a point-in-time valuation of one account
type AccountSnapshot struct {
	AccountName string
	AsOfDate    time.Time
	TotalValue  float64
	Positions   []Position // sorted by symbol ascending
}

// StockValue is a per-symbol market value inside a performance point
type StockValue struct {
	Symbol      string
	MarketValue float64
}

// PerformancePoint is one date in a performance time series
type PerformancePoint struct {
	Date       time.Time
	TotalValue float64
	Stocks     []StockValue // sorted by symbol ascending
}

// NormalizeSymbol trims whitespace and uppercases a symbol identifier.
// Applied once at every external boundary before lookups.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// NormalizeAccount trims whitespace from an account identifier. Account
// matching is case-insensitive, so the original casing is preserved.
func NormalizeAccount(account string) string {
	return strings.TrimSpace(account)
}

// roundEpsilon counters binary floating-point representation error on cent
// boundaries (e.g. 1649.9999999999998 must round to 1650.00, not 1649.99).
const roundEpsilon = 1e-9

// Round2 rounds a monetary value to 2 decimal places, half away from zero.
// The epsilon is added before rounding so values sitting a hair below a cent
// boundary land on it.
func Round2(value float64) float64 {
	if value < 0 {
		return -Round2(-value)
	}
	return math.Floor(value*100+0.5+roundEpsilon) / 100
}

// ParseDay parses an ISO calendar date (YYYY-MM-DD) into a UTC midnight time
func ParseDay(value string) (time.Time, error) {
	day, err := time.Parse(DayFormat, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return day.UTC(), nil
}

// FormatDay formats a time as an ISO calendar date
func FormatDay(t time.Time) string {
	return t.Format(DayFormat)
}

// Day builds a UTC midnight time for a calendar day
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
