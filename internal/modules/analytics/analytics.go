// Package analytics provides return and growth-rate computations over two
// valuation points. All functions are stateless; callers supply the values and
// dates, typically the first and last points of a performance series.
package analytics

import (
	"math"
	"time"
)

// daysPerYear is the Gregorian mean year, accounting for leap years on average
const daysPerYear = 365.2425

// DaysBetween returns the number of calendar days from start to end, clamped
// to zero when end precedes start.
func DaysBetween(start, end time.Time) int {
	days := math.Round(end.Sub(start).Hours() / 24)
	if days < 0 {
		return 0
	}
	return int(days)
}

// NetGainLoss returns the absolute value change between two valuation points
func NetGainLoss(startValue, endValue float64) float64 {
	return endValue - startValue
}

// ComputeReturn returns the total return between two valuation points.
// ok is false when startValue is not positive; the return is then not
// available rather than zero.
func ComputeReturn(startValue, endValue float64) (float64, bool) {
	if startValue <= 0 {
		return 0, false
	}
	return (endValue - startValue) / startValue, true
}

// ComputeCAGR returns the compound annual growth rate between two valuation
// points. ok is false unless both values are positive and the elapsed period
// is positive; sign transitions intentionally yield "not available" rather
// than a complex root.
func ComputeCAGR(startValue, endValue float64, start, end time.Time) (float64, bool) {
	years := float64(DaysBetween(start, end)) / daysPerYear
	if startValue <= 0 || endValue <= 0 || years <= 0 {
		return 0, false
	}
	return math.Pow(endValue/startValue, 1/years) - 1, true
}
