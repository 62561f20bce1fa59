// Package seed populates an empty ledger with demo data for local development.
package seed

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/temadison/stockdash/internal/domain"
	"github.com/temadison/stockdash/internal/modules/ledger"
)

// demoTransactions is a small two-account portfolio with buys, a partial sell
// and fees, enough to exercise every valuation path from the UI.
var demoTransactions = []domain.Transaction{
	{Account: "Brokerage", Symbol: "AAPL", Side: domain.SideBuy, TradeDate: domain.Day(2024, time.March, 4), Quantity: 10, Price: 172.50, Fee: 1.00},
	{Account: "Brokerage", Symbol: "MSFT", Side: domain.SideBuy, TradeDate: domain.Day(2024, time.March, 18), Quantity: 5, Price: 412.20, Fee: 1.00},
	{Account: "Brokerage", Symbol: "AAPL", Side: domain.SideBuy, TradeDate: domain.Day(2024, time.June, 10), Quantity: 5, Price: 193.10, Fee: 1.00},
	{Account: "Brokerage", Symbol: "AAPL", Side: domain.SideSell, TradeDate: domain.Day(2024, time.October, 7), Quantity: 4, Price: 226.80, Fee: 1.00},
	{Account: "Retirement", Symbol: "VTI", Side: domain.SideBuy, TradeDate: domain.Day(2024, time.April, 1), Quantity: 20, Price: 258.40, Fee: 0},
	{Account: "Retirement", Symbol: "VTI", Side: domain.SideBuy, TradeDate: domain.Day(2024, time.July, 1), Quantity: 8, Price: 271.15, Fee: 0},
	{Account: "Retirement", Symbol: "MSFT", Side: domain.SideBuy, TradeDate: domain.Day(2024, time.August, 12), Quantity: 3, Price: 406.75, Fee: 0.50},
}

// Run seeds the demo ledger when the ledger is empty. An already populated
// ledger is left untouched so seeding is safe to leave enabled.
func Run(repo *ledger.TransactionRepository, log zerolog.Logger) error {
	log = log.With().Str("component", "seed").Logger()

	count, err := repo.Count()
	if err != nil {
		return fmt.Errorf("failed to check ledger before seeding: %w", err)
	}
	if count > 0 {
		log.Debug().Int("transactions", count).Msg("Ledger already populated, skipping demo seed")
		return nil
	}

	for _, tx := range demoTransactions {
		if err := repo.Create(tx); err != nil {
			return fmt.Errorf("failed to seed demo transaction: %w", err)
		}
	}

	log.Info().Int("transactions", len(demoTransactions)).Msg("Seeded demo ledger")
	return nil
}
