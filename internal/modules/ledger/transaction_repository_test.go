package ledger

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
		CREATE TABLE trade_transactions (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			account     TEXT NOT NULL,
			symbol      TEXT NOT NULL,
			side        TEXT NOT NULL CHECK (side IN ('BUY', 'SELL')),
			trade_date  TEXT NOT NULL,
			quantity    REAL NOT NULL CHECK (quantity > 0),
			price       REAL NOT NULL CHECK (price > 0),
			fee         REAL NOT NULL DEFAULT 0 CHECK (fee >= 0),
			created_at  INTEGER NOT NULL
		)
	`)
	require.NoError(t, err)
	return db
}

func newTestRepo(t *testing.T) *TransactionRepository {
	t.Helper()
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	return NewTransactionRepository(setupTestDB(t), logger)
}

func buy(account, symbol string, date time.Time, qty, price, fee float64) domain.Transaction {
	return domain.Transaction{
		Account: account, Symbol: symbol, Side: domain.SideBuy,
		TradeDate: date, Quantity: qty, Price: price, Fee: fee,
	}
}

func sell(account, symbol string, date time.Time, qty, price, fee float64) domain.Transaction {
	return domain.Transaction{
		Account: account, Symbol: symbol, Side: domain.SideSell,
		TradeDate: date, Quantity: qty, Price: price, Fee: fee,
	}
}

func TestCreateAndListAll(t *testing.T) {
	repo := newTestRepo(t)

	// Inserted out of date order on purpose
	require.NoError(t, repo.Create(buy("Brokerage", "msft", domain.Day(2025, time.February, 1), 5, 400, 0)))
	require.NoError(t, repo.Create(buy("Brokerage", " aapl ", domain.Day(2025, time.January, 15), 10, 150, 1)))

	transactions, err := repo.ListAll()
	require.NoError(t, err)
	require.Len(t, transactions, 2)

	// Replay order is trade date ascending
	assert.Equal(t, "AAPL", transactions[0].Symbol)
	assert.Equal(t, domain.Day(2025, time.January, 15), transactions[0].TradeDate)
	assert.Equal(t, "MSFT", transactions[1].Symbol)
	assert.Equal(t, 1.0, transactions[0].Fee)
}

func TestListAll_SameDayKeepsInsertionOrder(t *testing.T) {
	repo := newTestRepo(t)
	day := domain.Day(2025, time.January, 15)

	require.NoError(t, repo.Create(buy("A", "AAPL", day, 10, 150, 0)))
	require.NoError(t, repo.Create(sell("A", "AAPL", day, 4, 155, 0)))

	transactions, err := repo.ListAll()
	require.NoError(t, err)
	require.Len(t, transactions, 2)
	assert.Equal(t, domain.SideBuy, transactions[0].Side)
	assert.Equal(t, domain.SideSell, transactions[1].Side)
}

func TestCreate_RejectsInvalid(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.Create(domain.Transaction{
		Account: "A", Symbol: "AAPL", Side: "HOLD",
		TradeDate: domain.Day(2025, time.January, 15), Quantity: 10, Price: 150,
	})
	require.Error(t, err)

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestDistinctAccounts(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.Create(buy("Retirement", "VTI", domain.Day(2025, time.January, 1), 10, 250, 0)))
	require.NoError(t, repo.Create(buy("Brokerage", "AAPL", domain.Day(2025, time.January, 2), 10, 150, 0)))
	require.NoError(t, repo.Create(sell("Brokerage", "AAPL", domain.Day(2025, time.January, 3), 5, 155, 0)))

	accounts, err := repo.DistinctAccounts()
	require.NoError(t, err)
	assert.Equal(t, []string{"Brokerage", "Retirement"}, accounts)
}

func TestDistinctBuySymbols(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.Create(buy("A", "MSFT", domain.Day(2025, time.January, 1), 5, 400, 0)))
	require.NoError(t, repo.Create(buy("A", "AAPL", domain.Day(2025, time.January, 2), 10, 150, 0)))
	require.NoError(t, repo.Create(sell("A", "NVDA", domain.Day(2025, time.January, 3), 2, 120, 0)))

	symbols, err := repo.DistinctBuySymbols()
	require.NoError(t, err)
	// NVDA was only ever sold
	assert.Equal(t, []string{"AAPL", "MSFT"}, symbols)
}

func TestHasPurchaseHistory(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.Create(buy("A", "AAPL", domain.Day(2025, time.January, 2), 10, 150, 0)))
	require.NoError(t, repo.Create(sell("A", "NVDA", domain.Day(2025, time.January, 3), 2, 120, 0)))

	has, err := repo.HasPurchaseHistory("aapl")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = repo.HasPurchaseHistory("NVDA")
	require.NoError(t, err)
	assert.False(t, has)

	has, err = repo.HasPurchaseHistory("TSLA")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestFirstBuyDates(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.Create(buy("A", "AAPL", domain.Day(2025, time.March, 1), 5, 160, 0)))
	require.NoError(t, repo.Create(buy("A", "AAPL", domain.Day(2025, time.January, 2), 10, 150, 0)))
	require.NoError(t, repo.Create(buy("B", "MSFT", domain.Day(2025, time.February, 1), 5, 400, 0)))
	require.NoError(t, repo.Create(sell("A", "NVDA", domain.Day(2025, time.January, 3), 2, 120, 0)))

	dates, err := repo.FirstBuyDates([]string{"AAPL", "MSFT", "NVDA", "TSLA"})
	require.NoError(t, err)

	require.Len(t, dates, 2)
	assert.Equal(t, domain.Day(2025, time.January, 2), dates["AAPL"])
	assert.Equal(t, domain.Day(2025, time.February, 1), dates["MSFT"])

	dates, err = repo.FirstBuyDates(nil)
	require.NoError(t, err)
	assert.Empty(t, dates)
}
