// Package alphavantage provides a client for the Alpha Vantage market data API.
// The free tier allows 25 requests per day, so the client enforces a daily
// budget and minimum spacing between requests, and caches responses.
package alphavantage

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultBaseURL = "https://www.alphavantage.co/query"

	// DailyRequestLimit is the free-tier request budget per day
	DailyRequestLimit = 25

	// minRequestSpacing keeps requests comfortably under the per-minute limit
	minRequestSpacing = 1800 * time.Millisecond

	timeSeriesDailyKey = "Time Series (Daily)"
	dailyCloseKey      = "4. close"
)

// ErrRateLimitExceeded is returned when the daily request budget is exhausted
type ErrRateLimitExceeded struct{}

func (e ErrRateLimitExceeded) Error() string {
	return fmt.Sprintf("alpha vantage daily rate limit of %d requests exceeded", DailyRequestLimit)
}

// FetchStatus classifies the outcome of a series fetch
type FetchStatus string

const (
	// FetchOK - series retrieved successfully
	FetchOK FetchStatus = "ok"
	// FetchRateLimited - the API reported a rate limit, or the daily budget is spent
	FetchRateLimited FetchStatus = "rate_limited"
	// FetchNoData - the API returned no series for the symbol
	FetchNoData FetchStatus = "no_data"
	// FetchInvalidSymbol - the API rejected the symbol
	FetchInvalidSymbol FetchStatus = "invalid_symbol"
	// FetchError - transport or protocol failure
	FetchError FetchStatus = "error"
)

// DailyClose is one end-of-day close from the API
type DailyClose struct {
	Date  time.Time
	Close float64
}

// SeriesResult is the outcome of a daily series fetch. Series is ordered by
// date ascending and empty unless Status is FetchOK.
type SeriesResult struct {
	Series []DailyClose
	Status FetchStatus
}

type cacheEntry struct {
	data      interface{}
	expiresAt time.Time
}

// Client is an Alpha Vantage API client with daily budgeting and caching
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger

	mu           sync.Mutex
	requestCount int
	countDay     time.Time
	lastRequest  time.Time
	cache        map[string]cacheEntry
}

// NewClient creates a new Alpha Vantage client
func NewClient(apiKey string, log zerolog.Logger) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log.With().Str("client", "alphavantage").Logger(),
		cache:      make(map[string]cacheEntry),
	}
}

// SetBaseURL overrides the API endpoint (used in tests)
func (c *Client) SetBaseURL(baseURL string) {
	if baseURL != "" {
		c.baseURL = baseURL
	}
}

// FetchDailySeries retrieves the daily close series for a symbol.
// Failures are reported through the result status, never as an error value,
// so callers can map outcomes to sync statuses without unwrapping.
func (c *Client) FetchDailySeries(symbol string) SeriesResult {
	if c.apiKey == "" {
		return SeriesResult{Status: FetchNoData}
	}

	cacheKey := buildCacheKey("TIME_SERIES_DAILY", map[string]string{"symbol": symbol})
	if cached, ok := c.getFromCache(cacheKey); ok {
		if result, ok := cached.(SeriesResult); ok {
			return result
		}
	}

	if err := c.checkRateLimit(); err != nil {
		c.log.Warn().Str("symbol", symbol).Msg("Daily request budget exhausted")
		return SeriesResult{Status: FetchRateLimited}
	}
	c.awaitSpacing()

	query := url.Values{}
	query.Set("function", "TIME_SERIES_DAILY")
	query.Set("symbol", symbol)
	query.Set("outputsize", "compact")
	query.Set("apikey", c.apiKey)

	resp, err := c.httpClient.Get(c.baseURL + "?" + query.Encode())
	if err != nil {
		c.log.Warn().Err(err).Str("symbol", symbol).Msg("Daily series request failed")
		return SeriesResult{Status: FetchError}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return SeriesResult{Status: FetchRateLimited}
	}
	if resp.StatusCode != http.StatusOK {
		c.log.Warn().Int("status", resp.StatusCode).Str("symbol", symbol).Msg("Daily series request rejected")
		return SeriesResult{Status: FetchError}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return SeriesResult{Status: FetchError}
	}

	result := parseSeriesResponse(body, symbol, c.log)
	if result.Status == FetchOK {
		// A full compact series does not change within a day
		c.setCache(cacheKey, result, 12*time.Hour)
	}
	return result
}

// GetRemainingRequests returns how many requests are left in today's budget
func (c *Client) GetRemainingRequests() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rolloverLocked()
	return DailyRequestLimit - c.requestCount
}

// ResetDailyCounter clears the daily request counter
func (c *Client) ResetDailyCounter() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requestCount = 0
	c.countDay = todayUTC()
}

// checkRateLimit consumes one request from the daily budget
func (c *Client) checkRateLimit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rolloverLocked()
	if c.requestCount >= DailyRequestLimit {
		return ErrRateLimitExceeded{}
	}
	c.requestCount++
	return nil
}

// rolloverLocked resets the counter when the day changes. Caller holds mu.
func (c *Client) rolloverLocked() {
	today := todayUTC()
	if !c.countDay.Equal(today) {
		c.countDay = today
		c.requestCount = 0
	}
}

// awaitSpacing sleeps long enough to keep minimum spacing between requests
func (c *Client) awaitSpacing() {
	c.mu.Lock()
	elapsed := time.Since(c.lastRequest)
	wait := time.Duration(0)
	if elapsed < minRequestSpacing {
		wait = minRequestSpacing - elapsed
	}
	c.lastRequest = time.Now().Add(wait)
	c.mu.Unlock()

	if wait > 0 {
		time.Sleep(wait)
	}
}

func (c *Client) getFromCache(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.cache[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.data, true
}

func (c *Client) setCache(key string, data interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[key] = cacheEntry{data: data, expiresAt: time.Now().Add(ttl)}
}

// ClearCache removes all cached responses
func (c *Client) ClearCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]cacheEntry)
}

// buildCacheKey builds a deterministic cache key from function and params.
// The apikey is never part of the key.
func buildCacheKey(function string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "apikey" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(function)
	for _, k := range keys {
		b.WriteString("|")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(params[k])
	}
	return b.String()
}

// parseSeriesResponse maps an API payload to a series result
func parseSeriesResponse(body []byte, symbol string, log zerolog.Logger) SeriesResult {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Msg("Unable to parse daily series response")
		return SeriesResult{Status: FetchError}
	}

	if raw, ok := payload["Error Message"]; ok {
		var message string
		_ = json.Unmarshal(raw, &message)
		log.Warn().Str("symbol", symbol).Str("message", message).Msg("Daily series request returned an error")
		if strings.Contains(strings.ToLower(message), "invalid api call") {
			return SeriesResult{Status: FetchInvalidSymbol}
		}
		return SeriesResult{Status: FetchError}
	}

	// "Note" and "Information" both signal throttling on the free tier
	for _, key := range []string{"Note", "Information"} {
		if raw, ok := payload[key]; ok {
			var message string
			_ = json.Unmarshal(raw, &message)
			log.Warn().Str("symbol", symbol).Str("message", message).Msg("Daily series request rate limited")
			return SeriesResult{Status: FetchRateLimited}
		}
	}

	raw, ok := payload[timeSeriesDailyKey]
	if !ok {
		return SeriesResult{Status: FetchNoData}
	}

	var series map[string]map[string]string
	if err := json.Unmarshal(raw, &series); err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Msg("Unable to parse daily series payload")
		return SeriesResult{Status: FetchError}
	}
	if len(series) == 0 {
		return SeriesResult{Status: FetchNoData}
	}

	closes := make([]DailyClose, 0, len(series))
	for dateStr, fields := range series {
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			continue
		}
		close := parseFloat64(fields[dailyCloseKey])
		if close <= 0 {
			continue
		}
		closes = append(closes, DailyClose{Date: date.UTC(), Close: close})
	}
	sort.Slice(closes, func(i, j int) bool { return closes[i].Date.Before(closes[j].Date) })

	if len(closes) == 0 {
		return SeriesResult{Status: FetchNoData}
	}
	return SeriesResult{Series: closes, Status: FetchOK}
}

func todayUTC() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// parseFloat64 parses API numeric strings, treating blanks and "None" as zero
func parseFloat64(value string) float64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || trimmed == "None" {
		return 0
	}
	parsed, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0
	}
	return parsed
}
