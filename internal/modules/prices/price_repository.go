// Package prices provides access to the per-symbol daily close price store.
package prices

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/temadison/stockdash/internal/domain"
)

// PriceRepository handles daily close price database operations
type PriceRepository struct {
	historyDB *sql.DB
	log       zerolog.Logger
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(historyDB *sql.DB, log zerolog.Logger) *PriceRepository {
	return &PriceRepository{
		historyDB: historyDB,
		log:       log.With().Str("repo", "price").Logger(),
	}
}

// History returns close prices for a symbol, optionally bounded by an
// inclusive date range, ordered by date DESCENDING. This is the shape API
// callers expect; the valuation engine uses SeriesAscending instead.
func (r *PriceRepository) History(symbol string, startDate, endDate *time.Time) ([]domain.PricePoint, error) {
	query := "SELECT symbol, price_date, close_price FROM daily_close_prices WHERE symbol = ?"
	args := []interface{}{domain.NormalizeSymbol(symbol)}

	if startDate != nil {
		query += " AND price_date >= ?"
		args = append(args, domain.FormatDay(*startDate))
	}
	if endDate != nil {
		query += " AND price_date <= ?"
		args = append(args, domain.FormatDay(*endDate))
	}
	query += " ORDER BY price_date DESC"

	return r.queryPoints(query, args...)
}

// SeriesAscending returns the full close series for a symbol ordered by date
// ascending, the order the valuation engine consumes.
func (r *PriceRepository) SeriesAscending(symbol string) ([]domain.PricePoint, error) {
	query := "SELECT symbol, price_date, close_price FROM daily_close_prices WHERE symbol = ? ORDER BY price_date ASC"
	return r.queryPoints(query, domain.NormalizeSymbol(symbol))
}

// AllSeries returns every stored close price ordered by symbol then date
// ascending. This is the engine's read snapshot of the whole price store.
func (r *PriceRepository) AllSeries() ([]domain.PricePoint, error) {
	query := "SELECT symbol, price_date, close_price FROM daily_close_prices ORDER BY symbol ASC, price_date ASC"
	return r.queryPoints(query)
}

// LatestDate returns the most recent price date stored for a symbol.
// Returns ok=false when the symbol has no stored prices.
func (r *PriceRepository) LatestDate(symbol string) (time.Time, bool, error) {
	query := "SELECT MAX(price_date) FROM daily_close_prices WHERE symbol = ?"

	var dateStr sql.NullString
	err := r.historyDB.QueryRow(query, domain.NormalizeSymbol(symbol)).Scan(&dateStr)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !dateStr.Valid) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to query latest price date: %w", err)
	}

	day, err := domain.ParseDay(dateStr.String)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid price date for %s: %w", symbol, err)
	}
	return day, true, nil
}

// GlobalLatestDate returns the most recent price date across all symbols.
// Used as the default as-of date for valuations when none is supplied.
func (r *PriceRepository) GlobalLatestDate() (time.Time, bool, error) {
	var dateStr sql.NullString
	err := r.historyDB.QueryRow("SELECT MAX(price_date) FROM daily_close_prices").Scan(&dateStr)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !dateStr.Valid) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to query global latest price date: %w", err)
	}

	day, err := domain.ParseDay(dateStr.String)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid price date: %w", err)
	}
	return day, true, nil
}

// ExistingDates returns the set of stored price dates for a symbol
func (r *PriceRepository) ExistingDates(symbol string) (map[time.Time]bool, error) {
	query := "SELECT price_date FROM daily_close_prices WHERE symbol = ?"

	rows, err := r.historyDB.Query(query, domain.NormalizeSymbol(symbol))
	if err != nil {
		return nil, fmt.Errorf("failed to query existing price dates: %w", err)
	}
	defer rows.Close()

	dates := make(map[time.Time]bool)
	for rows.Next() {
		var dateStr string
		if err := rows.Scan(&dateStr); err != nil {
			return nil, fmt.Errorf("failed to scan price date: %w", err)
		}
		day, err := domain.ParseDay(dateStr)
		if err != nil {
			return nil, fmt.Errorf("invalid price date for %s: %w", symbol, err)
		}
		dates[day] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price dates: %w", err)
	}

	return dates, nil
}

// InsertIgnoringDuplicates stores new price points, skipping any whose
// (symbol, price_date) already exists. Returns the number of rows inserted.
func (r *PriceRepository) InsertIgnoringDuplicates(points []domain.PricePoint) (int, error) {
	if len(points) == 0 {
		return 0, nil
	}

	query := `
		INSERT OR IGNORE INTO daily_close_prices (symbol, price_date, close_price, created_at)
		VALUES (?, ?, ?, ?)
	`

	now := time.Now().Unix()
	inserted := 0
	for _, point := range points {
		result, err := r.historyDB.Exec(query,
			domain.NormalizeSymbol(point.Symbol),
			domain.FormatDay(point.Date),
			point.Close,
			now,
		)
		if err != nil {
			return inserted, fmt.Errorf("failed to insert price for %s on %s: %w",
				point.Symbol, domain.FormatDay(point.Date), err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return inserted, fmt.Errorf("failed to read insert result: %w", err)
		}
		inserted += int(affected)
	}

	return inserted, nil
}

func (r *PriceRepository) queryPoints(query string, args ...interface{}) ([]domain.PricePoint, error) {
	rows, err := r.historyDB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query prices: %w", err)
	}
	defer rows.Close()

	var points []domain.PricePoint
	for rows.Next() {
		var point domain.PricePoint
		var dateStr string
		if err := rows.Scan(&point.Symbol, &dateStr, &point.Close); err != nil {
			return nil, fmt.Errorf("failed to scan price point: %w", err)
		}
		day, err := domain.ParseDay(dateStr)
		if err != nil {
			return nil, fmt.Errorf("invalid price date: %w", err)
		}
		point.Date = day
		points = append(points, point)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating prices: %w", err)
	}

	return points, nil
}
