package prices

import (
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temadison/stockdash/internal/domain"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE daily_close_prices (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol      TEXT NOT NULL,
			price_date  TEXT NOT NULL,
			close_price REAL NOT NULL CHECK (close_price > 0),
			created_at  INTEGER NOT NULL,
			UNIQUE (symbol, price_date)
		)
	`)
	require.NoError(t, err)
	return db
}

func newTestRepo(t *testing.T) *PriceRepository {
	t.Helper()
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	return NewPriceRepository(setupTestDB(t), logger)
}

func point(symbol string, date time.Time, close float64) domain.PricePoint {
	return domain.PricePoint{Symbol: symbol, Date: date, Close: close}
}

func seedRepo(t *testing.T, repo *PriceRepository) {
	t.Helper()
	inserted, err := repo.InsertIgnoringDuplicates([]domain.PricePoint{
		point("AAPL", domain.Day(2025, time.January, 6), 158),
		point("AAPL", domain.Day(2025, time.January, 2), 160),
		point("AAPL", domain.Day(2025, time.January, 3), 162.5),
		point("MSFT", domain.Day(2025, time.January, 2), 410),
	})
	require.NoError(t, err)
	require.Equal(t, 4, inserted)
}

func TestHistory_DescendingWithRange(t *testing.T) {
	repo := newTestRepo(t)
	seedRepo(t, repo)

	points, err := repo.History("AAPL", nil, nil)
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, domain.Day(2025, time.January, 6), points[0].Date)
	assert.Equal(t, domain.Day(2025, time.January, 2), points[2].Date)

	start := domain.Day(2025, time.January, 3)
	end := domain.Day(2025, time.January, 6)
	points, err = repo.History("aapl", &start, &end)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, 158.0, points[0].Close)
	assert.Equal(t, 162.5, points[1].Close)
}

func TestSeriesAscending(t *testing.T) {
	repo := newTestRepo(t)
	seedRepo(t, repo)

	points, err := repo.SeriesAscending("AAPL")
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, domain.Day(2025, time.January, 2), points[0].Date)
	assert.Equal(t, domain.Day(2025, time.January, 6), points[2].Date)
}

func TestAllSeries(t *testing.T) {
	repo := newTestRepo(t)
	seedRepo(t, repo)

	points, err := repo.AllSeries()
	require.NoError(t, err)
	require.Len(t, points, 4)
	// Symbol ascending, then date ascending within symbol
	assert.Equal(t, "AAPL", points[0].Symbol)
	assert.Equal(t, domain.Day(2025, time.January, 2), points[0].Date)
	assert.Equal(t, "MSFT", points[3].Symbol)
}

func TestLatestDate(t *testing.T) {
	repo := newTestRepo(t)
	seedRepo(t, repo)

	latest, ok, err := repo.LatestDate("AAPL")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.Day(2025, time.January, 6), latest)

	_, ok, err = repo.LatestDate("TSLA")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGlobalLatestDate(t *testing.T) {
	repo := newTestRepo(t)

	_, ok, err := repo.GlobalLatestDate()
	require.NoError(t, err)
	assert.False(t, ok)

	seedRepo(t, repo)

	latest, ok, err := repo.GlobalLatestDate()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.Day(2025, time.January, 6), latest)
}

func TestExistingDates(t *testing.T) {
	repo := newTestRepo(t)
	seedRepo(t, repo)

	dates, err := repo.ExistingDates("AAPL")
	require.NoError(t, err)
	assert.Len(t, dates, 3)
	assert.True(t, dates[domain.Day(2025, time.January, 2)])
	assert.False(t, dates[domain.Day(2025, time.January, 4)])
}

func TestInsertIgnoringDuplicates(t *testing.T) {
	repo := newTestRepo(t)
	seedRepo(t, repo)

	// One duplicate, one new row
	inserted, err := repo.InsertIgnoringDuplicates([]domain.PricePoint{
		point("AAPL", domain.Day(2025, time.January, 2), 999),
		point("AAPL", domain.Day(2025, time.January, 7), 159),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)

	// The duplicate insert did not overwrite the stored close
	points, err := repo.SeriesAscending("AAPL")
	require.NoError(t, err)
	assert.Equal(t, 160.0, points[0].Close)
	require.Len(t, points, 4)
}
