package portfolio

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temadison/stockdash/internal/domain"
)

type fakeLedger struct {
	transactions []domain.Transaction
}

func (f *fakeLedger) ListAll() ([]domain.Transaction, error) {
	return f.transactions, nil
}

type fakePrices struct {
	points []domain.PricePoint
}

func (f *fakePrices) AllSeries() ([]domain.PricePoint, error) {
	return f.points, nil
}

func newTestService(transactions []domain.Transaction, points []domain.PricePoint) *Service {
	return NewService(&fakeLedger{transactions}, &fakePrices{points}, zerolog.Nop())
}

func TestServiceDailySummary_DefaultsToLatestPriceDate(t *testing.T) {
	svc := newTestService(
		[]domain.Transaction{
			buy("acct", "AAPL", day(2025, time.January, 1), 10, 150, 1),
		},
		[]domain.PricePoint{
			point("AAPL", day(2025, time.January, 1), 150),
			point("AAPL", day(2025, time.February, 1), 165),
		},
	)

	snapshots, err := svc.DailySummary(nil)
	require.NoError(t, err)

	require.Len(t, snapshots, 1)
	// Valued at the latest stored price date, not today
	assert.Equal(t, day(2025, time.February, 1), snapshots[0].AsOfDate)
	assert.Equal(t, 1649.0, snapshots[0].TotalValue)
}

func TestServiceDailySummary_ExplicitDate(t *testing.T) {
	svc := newTestService(
		[]domain.Transaction{
			buy("acct", "AAPL", day(2025, time.January, 1), 10, 150, 1),
		},
		[]domain.PricePoint{
			point("AAPL", day(2025, time.January, 1), 150),
			point("AAPL", day(2025, time.February, 1), 165),
		},
	)

	asOf := day(2025, time.January, 15)
	snapshots, err := svc.DailySummary(&asOf)
	require.NoError(t, err)

	require.Len(t, snapshots, 1)
	assert.Equal(t, 1499.0, snapshots[0].TotalValue) // 10 x 150 - 1
}

func TestServiceDailySummary_EmptyLedger(t *testing.T) {
	svc := newTestService(nil, nil)

	snapshots, err := svc.DailySummary(nil)
	require.NoError(t, err)
	assert.Empty(t, snapshots)
}

func TestServicePerformance_DefaultsToFullPriceRange(t *testing.T) {
	svc := newTestService(
		[]domain.Transaction{
			buy("acct", "AAPL", day(2025, time.January, 1), 10, 150, 0),
		},
		[]domain.PricePoint{
			point("AAPL", day(2025, time.January, 2), 160),
			point("AAPL", day(2025, time.January, 9), 170),
			point("AAPL", day(2025, time.January, 16), 180),
		},
	)

	points, err := svc.Performance(TotalAccount, nil, nil)
	require.NoError(t, err)

	require.Len(t, points, 3)
	assert.Equal(t, day(2025, time.January, 2), points[0].Date)
	assert.Equal(t, day(2025, time.January, 16), points[2].Date)
}

func TestServicePerformance_NoPriceDataIsEmptySeries(t *testing.T) {
	svc := newTestService(
		[]domain.Transaction{
			buy("acct", "AAPL", day(2025, time.January, 1), 10, 150, 0),
		},
		nil,
	)

	points, err := svc.Performance(TotalAccount, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestServicePerformance_StartAfterEndFails(t *testing.T) {
	svc := newTestService(
		[]domain.Transaction{
			buy("acct", "AAPL", day(2025, time.January, 1), 10, 150, 0),
		},
		[]domain.PricePoint{
			point("AAPL", day(2025, time.January, 2), 160),
		},
	)

	start := day(2025, time.February, 1)
	end := day(2025, time.January, 1)
	_, err := svc.Performance(TotalAccount, &start, &end)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "startDate must be on or before endDate")
}

func TestServiceAnalytics(t *testing.T) {
	svc := newTestService(
		[]domain.Transaction{
			buy("acct", "AAPL", day(2024, time.January, 1), 10, 100, 0),
		},
		[]domain.PricePoint{
			point("AAPL", day(2024, time.January, 1), 100),
			point("AAPL", day(2026, time.January, 1), 121),
		},
	)

	result, err := svc.Analytics(TotalAccount, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 1000.0, result.StartValue)
	assert.Equal(t, 1210.0, result.EndValue)
	assert.Equal(t, 210.0, result.NetGainLoss)
	assert.Equal(t, 731, result.ElapsedDays)

	require.NotNil(t, result.TotalReturn)
	assert.InDelta(t, 0.21, *result.TotalReturn, 1e-9)

	require.NotNil(t, result.CAGR)
	assert.InDelta(t, 0.10, *result.CAGR, 0.001)
}

func TestServiceAnalytics_EmptySeriesHasNoRatios(t *testing.T) {
	svc := newTestService(nil, nil)

	result, err := svc.Analytics(TotalAccount, nil, nil)
	require.NoError(t, err)

	assert.Nil(t, result.TotalReturn)
	assert.Nil(t, result.CAGR)
	assert.Equal(t, 0.0, result.NetGainLoss)
}
