// Package ledger provides access to the append-only trade transaction ledger.
package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/temadison/stockdash/internal/domain"
)

// transactionColumns is the list of columns for the trade_transactions table.
// Used to avoid SELECT * which can break when schema changes.
// Column order must match the scan helpers below.
const transactionColumns = `id, account, symbol, side, trade_date, quantity, price, fee`

// TransactionRepository handles ledger database operations.
// The ledger is append-only: there are no update or delete operations.
type TransactionRepository struct {
	ledgerDB *sql.DB
	log      zerolog.Logger
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(ledgerDB *sql.DB, log zerolog.Logger) *TransactionRepository {
	return &TransactionRepository{
		ledgerDB: ledgerDB,
		log:      log.With().Str("repo", "transaction").Logger(),
	}
}

// Create appends a new transaction to the ledger.
// Symbol and account identifiers are normalized before insertion.
func (r *TransactionRepository) Create(tx domain.Transaction) error {
	tx.Symbol = domain.NormalizeSymbol(tx.Symbol)
	tx.Account = domain.NormalizeAccount(tx.Account)

	if err := tx.Validate(); err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	query := `
		INSERT INTO trade_transactions
		(account, symbol, side, trade_date, quantity, price, fee, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.ledgerDB.Exec(query,
		tx.Account,
		tx.Symbol,
		string(tx.Side),
		domain.FormatDay(tx.TradeDate),
		tx.Quantity,
		tx.Price,
		tx.Fee,
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	r.log.Info().
		Str("account", tx.Account).
		Str("symbol", tx.Symbol).
		Str("side", string(tx.Side)).
		Float64("quantity", tx.Quantity).
		Msg("Transaction created")

	return nil
}

// ListAll returns the full ledger ordered by trade date ascending, then
// insertion order. The valuation engine consumes this as its read snapshot.
func (r *TransactionRepository) ListAll() ([]domain.Transaction, error) {
	query := "SELECT " + transactionColumns + " FROM trade_transactions ORDER BY trade_date ASC, id ASC"

	rows, err := r.ledgerDB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// DistinctAccounts returns every account identifier appearing in the ledger,
// sorted ascending. Account enumeration is derived from the ledger, not from
// any external registry.
func (r *TransactionRepository) DistinctAccounts() ([]string, error) {
	query := "SELECT DISTINCT account FROM trade_transactions ORDER BY account ASC"

	rows, err := r.ledgerDB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []string
	for rows.Next() {
		var account string
		if err := rows.Scan(&account); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}

	return accounts, nil
}

// DistinctBuySymbols returns every symbol with at least one BUY transaction,
// sorted ascending. These are the symbols eligible for price sync.
func (r *TransactionRepository) DistinctBuySymbols() ([]string, error) {
	query := "SELECT DISTINCT symbol FROM trade_transactions WHERE side = ? ORDER BY symbol ASC"

	rows, err := r.ledgerDB.Query(query, string(domain.SideBuy))
	if err != nil {
		return nil, fmt.Errorf("failed to list buy symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, symbol)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating symbols: %w", err)
	}

	return symbols, nil
}

// HasPurchaseHistory reports whether at least one BUY transaction exists for
// the symbol. The price sync collaborator uses this predicate to decide
// whether a symbol is a sync target.
func (r *TransactionRepository) HasPurchaseHistory(symbol string) (bool, error) {
	query := "SELECT 1 FROM trade_transactions WHERE symbol = ? AND side = ? LIMIT 1"

	var exists int
	err := r.ledgerDB.QueryRow(query, domain.NormalizeSymbol(symbol), string(domain.SideBuy)).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check purchase history: %w", err)
	}

	return true, nil
}

// FirstBuyDates returns the earliest BUY trade date per symbol for the given
// symbols. Symbols with no BUY history are absent from the result.
func (r *TransactionRepository) FirstBuyDates(symbols []string) (map[string]time.Time, error) {
	if len(symbols) == 0 {
		return map[string]time.Time{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(symbols)), ",")
	query := `
		SELECT symbol, MIN(trade_date)
		FROM trade_transactions
		WHERE side = ? AND symbol IN (` + placeholders + `)
		GROUP BY symbol
	`

	args := make([]interface{}, 0, len(symbols)+1)
	args = append(args, string(domain.SideBuy))
	for _, symbol := range symbols {
		args = append(args, domain.NormalizeSymbol(symbol))
	}

	rows, err := r.ledgerDB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query first buy dates: %w", err)
	}
	defer rows.Close()

	result := make(map[string]time.Time)
	for rows.Next() {
		var symbol, dateStr string
		if err := rows.Scan(&symbol, &dateStr); err != nil {
			return nil, fmt.Errorf("failed to scan first buy date: %w", err)
		}
		day, err := domain.ParseDay(dateStr)
		if err != nil {
			return nil, fmt.Errorf("invalid trade date in ledger for %s: %w", symbol, err)
		}
		result[symbol] = day
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating first buy dates: %w", err)
	}

	return result, nil
}

// Count returns the number of ledger transactions
func (r *TransactionRepository) Count() (int, error) {
	var count int
	if err := r.ledgerDB.QueryRow("SELECT COUNT(*) FROM trade_transactions").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

func scanTransactions(rows *sql.Rows) ([]domain.Transaction, error) {
	var transactions []domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		var side, dateStr string

		if err := rows.Scan(&tx.ID, &tx.Account, &tx.Symbol, &side, &dateStr, &tx.Quantity, &tx.Price, &tx.Fee); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		day, err := domain.ParseDay(dateStr)
		if err != nil {
			return nil, fmt.Errorf("invalid trade date in ledger: %w", err)
		}
		tx.Side = domain.TransactionSide(side)
		tx.TradeDate = day

		transactions = append(transactions, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return transactions, nil
}
