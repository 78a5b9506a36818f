// Package rates fetches display exchange rates from the Frankfurter API and
// caches them in memory. Conversion is best effort: any failure degrades to
// "no rate available" and never blocks or fails the caller.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// DefaultURL is the Frankfurter latest-rates endpoint.
const DefaultURL = "https://api.frankfurter.app/latest"

// Table is one fetched rate set. Rates maps currency codes to the value of
// one unit of Base.
type Table struct {
	Base      string             `json:"base"`
	Rates     map[string]float64 `json:"rates"`
	RateDate  string             `json:"rateDate"` // yyyy-MM-dd from the API
	FetchedAt time.Time          `json:"fetchedAt"`
}

// Client fetches and caches exchange rates.
type Client struct {
	http *http.Client
	url  string
	now  func() time.Time

	mu     sync.Mutex
	cached *Table
}

// New creates a Client for the given endpoint (DefaultURL when empty) with
// bounded connect/read timeouts.
func New(url string) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{
		http: &http.Client{Timeout: 10 * time.Second},
		url:  url,
		now:  time.Now,
	}
}

// Rates returns the rate table for the base currency, fetching only when
// the cache is stale. On fetch failure the previous table is returned if
// one exists, else nil — never an error that callers must not ignore.
func (c *Client) Rates(ctx context.Context, base string) *Table {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != nil && c.cacheValid(c.cached, base) {
		return c.cached
	}

	table, err := c.fetch(ctx, base)
	if err != nil {
		slog.Warn("Exchange rate fetch failed", "base", base, "error", err)
		return c.cached
	}
	c.cached = table
	return table
}

// Frankfurter publishes new reference rates at 16:00 CET every working day;
// the cache is valid if it was fetched after the most recent 16:01 CET.
func (c *Client) cacheValid(cached *Table, base string) bool {
	if cached.Base != base {
		return false
	}

	cet, err := time.LoadLocation("CET")
	if err != nil {
		// No zone data: fall back to a 24h lifetime.
		return c.now().Sub(cached.FetchedAt) < 24*time.Hour
	}

	now := c.now().In(cet)
	lastUpdate := time.Date(now.Year(), now.Month(), now.Day(), 16, 1, 0, 0, cet)
	if now.Before(lastUpdate) {
		lastUpdate = lastUpdate.Add(-24 * time.Hour)
	}
	return !cached.FetchedAt.Before(lastUpdate)
}

type frankfurterResponse struct {
	Base  string             `json:"base"`
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

func (c *Client) fetch(ctx context.Context, base string) (*Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+"?from="+base, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rates: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate API returned %s", resp.Status)
	}

	var body frankfurterResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode rate response: %w", err)
	}

	rates := make(map[string]float64, len(body.Rates)+1)
	rates[base] = 1.0
	for currency, rate := range body.Rates {
		rates[currency] = rate
	}

	return &Table{
		Base:      base,
		Rates:     rates,
		RateDate:  body.Date,
		FetchedAt: c.now(),
	}, nil
}

// Convert translates amount between two currencies using the table,
// crossing through the base when neither side is the base. The second
// return is false when no rate is available.
func Convert(amount float64, from, to string, table *Table) (float64, bool) {
	if from == to {
		return amount, true
	}
	if table == nil {
		return 0, false
	}

	if table.Base == from {
		rate, ok := table.Rates[to]
		if !ok {
			return 0, false
		}
		return amount * rate, true
	}

	if table.Base == to {
		rate, ok := table.Rates[from]
		if !ok || rate == 0 {
			return 0, false
		}
		return amount / rate, true
	}

	fromRate, okFrom := table.Rates[from]
	toRate, okTo := table.Rates[to]
	if !okFrom || !okTo || fromRate == 0 {
		return 0, false
	}
	return amount * (toRate / fromRate), true
}
