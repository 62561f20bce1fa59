package portfolio

import (
	"sort"
	"time"

	"github.com/temadison/stockdash/internal/domain"
)

// PriceBook is an immutable read snapshot of the price store: one ascending
// close series per symbol plus the distinct set of dates appearing anywhere.
type PriceBook struct {
	series map[string][]domain.PricePoint
	dates  []time.Time // distinct, ascending
}

// NewPriceBook groups price points by symbol and orders each series (and the
// global date set) ascending by date.
func NewPriceBook(points []domain.PricePoint) PriceBook {
	series := make(map[string][]domain.PricePoint)
	dateSet := make(map[time.Time]bool)

	for _, point := range points {
		symbol := domain.NormalizeSymbol(point.Symbol)
		series[symbol] = append(series[symbol], point)
		dateSet[point.Date] = true
	}

	for symbol := range series {
		points := series[symbol]
		sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	}

	dates := make([]time.Time, 0, len(dateSet))
	for date := range dateSet {
		dates = append(dates, date)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	return PriceBook{series: series, dates: dates}
}

// Series returns the ascending close series for a symbol (nil when unknown)
func (b PriceBook) Series(symbol string) []domain.PricePoint {
	return b.series[domain.NormalizeSymbol(symbol)]
}

// Dates returns every distinct price date across all symbols, ascending
func (b PriceBook) Dates() []time.Time {
	return b.dates
}

// DatesWithin returns the distinct price dates inside [start, end], ascending
func (b PriceBook) DatesWithin(start, end time.Time) []time.Time {
	var within []time.Time
	for _, date := range b.dates {
		if date.Before(start) {
			continue
		}
		if date.After(end) {
			break
		}
		within = append(within, date)
	}
	return within
}

// EarliestDate returns the earliest price date in the book.
// ok is false when the book is empty.
func (b PriceBook) EarliestDate() (time.Time, bool) {
	if len(b.dates) == 0 {
		return time.Time{}, false
	}
	return b.dates[0], true
}

// LatestDate returns the latest price date in the book.
// ok is false when the book is empty.
func (b PriceBook) LatestDate() (time.Time, bool) {
	if len(b.dates) == 0 {
		return time.Time{}, false
	}
	return b.dates[len(b.dates)-1], true
}
