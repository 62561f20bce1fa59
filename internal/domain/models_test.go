package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionValidate(t *testing.T) {
	valid := Transaction{
		Account:   "Brokerage",
		Symbol:    "AAPL",
		Side:      SideBuy,
		TradeDate: Day(2025, time.January, 1),
		Quantity:  10,
		Price:     150,
		Fee:       1,
	}

	testCases := []struct {
		name    string
		mutate  func(tx *Transaction)
		wantErr string
	}{
		{name: "valid transaction", mutate: func(tx *Transaction) {}},
		{name: "blank account", mutate: func(tx *Transaction) { tx.Account = "  " }, wantErr: "account is required"},
		{name: "blank symbol", mutate: func(tx *Transaction) { tx.Symbol = "" }, wantErr: "symbol is required"},
		{name: "bad side", mutate: func(tx *Transaction) { tx.Side = "SHORT" }, wantErr: "side must be BUY or SELL"},
		{name: "zero date", mutate: func(tx *Transaction) { tx.TradeDate = time.Time{} }, wantErr: "trade date is required"},
		{name: "zero quantity", mutate: func(tx *Transaction) { tx.Quantity = 0 }, wantErr: "quantity must be positive"},
		{name: "negative price", mutate: func(tx *Transaction) { tx.Price = -1 }, wantErr: "price must be positive"},
		{name: "negative fee", mutate: func(tx *Transaction) { tx.Fee = -0.5 }, wantErr: "fee must not be negative"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tx := valid
			tc.mutate(&tx)
			err := tx.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
			}
		})
	}
}

func TestSignedQuantity(t *testing.T) {
	buy := Transaction{Side: SideBuy, Quantity: 10}
	sell := Transaction{Side: SideSell, Quantity: 4}

	assert.Equal(t, 10.0, buy.SignedQuantity())
	assert.Equal(t, -4.0, sell.SignedQuantity())
}

func TestNormalizeSymbol(t *testing.T) {
	assert.Equal(t, "AAPL", NormalizeSymbol("  aapl "))
	assert.Equal(t, "MSFT", NormalizeSymbol("MSFT"))
	assert.Equal(t, "", NormalizeSymbol("   "))
}

func TestNormalizeAccount(t *testing.T) {
	// Case is preserved; matching happens case-insensitively elsewhere
	assert.Equal(t, "Brokerage", NormalizeAccount("  Brokerage "))
}

func TestRound2(t *testing.T) {
	testCases := []struct {
		name     string
		input    float64
		expected float64
	}{
		{"exact", 1649.0, 1649.0},
		{"half rounds up", 10.005, 10.01},
		{"representation error below cent boundary", 1649.9999999999998, 1650.0},
		{"truncates below half", 10.004, 10.0},
		{"negative half rounds away from zero", -10.005, -10.01},
		{"negative representation error", -1649.9999999999998, -1650.0},
		{"zero", 0, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, Round2(tc.input), 1e-12)
		})
	}
}

func TestParseDay(t *testing.T) {
	day, err := ParseDay(" 2025-02-01 ")
	require.NoError(t, err)
	assert.Equal(t, Day(2025, time.February, 1), day)

	_, err = ParseDay("02/01/2025")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected YYYY-MM-DD")
}

func TestFormatDay(t *testing.T) {
	assert.Equal(t, "2025-02-01", FormatDay(Day(2025, time.February, 1)))
}
