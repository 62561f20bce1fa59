package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	_ "modernc.org/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temadison/stockdash/internal/modules/ledger"
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

func newTestRouter(t *testing.T) (chi.Router, *ledger.TransactionRepository) {
	t.Helper()
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	repo := ledger.NewTransactionRepository(setupTestDB(t), logger)
	handler := NewHandler(repo, logger)

	r := chi.NewRouter()
	r.Route("/api/portfolio", handler.RegisterRoutes)
	return r, repo
}

func postJSON(router chi.Router, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleCreateTransaction(t *testing.T) {
	router, repo := newTestRouter(t)

	w := postJSON(router, "/api/portfolio/transactions", `{
		"account": "Brokerage",
		"symbol": "aapl",
		"side": "BUY",
		"tradeDate": "2025-01-15",
		"quantity": 10,
		"price": 150.25,
		"fee": 1.5
	}`)

	require.Equal(t, http.StatusCreated, w.Code)

	transactions, err := repo.ListAll()
	require.NoError(t, err)
	require.Len(t, transactions, 1)
	assert.Equal(t, "AAPL", transactions[0].Symbol) // normalized on write
	assert.Equal(t, "Brokerage", transactions[0].Account)
	assert.Equal(t, 10.0, transactions[0].Quantity)
}

func TestHandleCreateTransaction_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"malformed json", `{not json`, "invalid request body"},
		{"missing account", `{"symbol":"AAPL","side":"BUY","tradeDate":"2025-01-15","quantity":10,"price":150}`, "account is required"},
		{"bad side", `{"account":"A","symbol":"AAPL","side":"HOLD","tradeDate":"2025-01-15","quantity":10,"price":150}`, "side must be BUY or SELL"},
		{"bad date", `{"account":"A","symbol":"AAPL","side":"BUY","tradeDate":"15/01/2025","quantity":10,"price":150}`, "expected YYYY-MM-DD"},
		{"missing date", `{"account":"A","symbol":"AAPL","side":"BUY","quantity":10,"price":150}`, "trade date is required"},
		{"zero quantity", `{"account":"A","symbol":"AAPL","side":"BUY","tradeDate":"2025-01-15","quantity":0,"price":150}`, "quantity must be positive"},
		{"negative fee", `{"account":"A","symbol":"AAPL","side":"BUY","tradeDate":"2025-01-15","quantity":10,"price":150,"fee":-1}`, "fee must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, repo := newTestRouter(t)

			w := postJSON(router, "/api/portfolio/transactions", tt.body)

			require.Equal(t, http.StatusBadRequest, w.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Contains(t, body["error"], tt.want)

			count, err := repo.Count()
			require.NoError(t, err)
			assert.Equal(t, 0, count) // rejected writes never reach the ledger
		})
	}
}

func TestHandleGetSymbols(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, body := range []string{
		`{"account":"A","symbol":"MSFT","side":"BUY","tradeDate":"2025-01-10","quantity":5,"price":400}`,
		`{"account":"A","symbol":"AAPL","side":"BUY","tradeDate":"2025-01-15","quantity":10,"price":150}`,
		`{"account":"A","symbol":"NVDA","side":"SELL","tradeDate":"2025-01-20","quantity":2,"price":120}`,
	} {
		w := postJSON(router, "/api/portfolio/transactions", body)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	req := httptest.NewRequest("GET", "/api/portfolio/symbols", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string][]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	// SELL-only symbols are not purchase candidates
	assert.Equal(t, []string{"AAPL", "MSFT"}, body["symbols"])
}

func TestHandleGetSymbols_Empty(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest("GET", "/api/portfolio/symbols", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"symbols":[]}`, w.Body.String())
}
