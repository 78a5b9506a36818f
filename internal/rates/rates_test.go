package rates

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *int) {
	t.Helper()
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL), &calls
}

func serveRates(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"base":"EUR","date":"2026-08-28","rates":{"KRW":1500.0,"JPY":160.0}}`))
}

func TestRatesCaching(t *testing.T) {
	client, calls := newTestClient(t, serveRates)
	ctx := context.Background()

	table := client.Rates(ctx, "EUR")
	if table == nil {
		t.Fatal("expected a rate table")
	}
	if table.Rates["EUR"] != 1.0 {
		t.Errorf("base rate = %v, want 1.0", table.Rates["EUR"])
	}
	if table.Rates["KRW"] != 1500.0 {
		t.Errorf("KRW rate = %v, want 1500", table.Rates["KRW"])
	}
	if table.RateDate != "2026-08-28" {
		t.Errorf("rate date = %s", table.RateDate)
	}

	// Second call within the refresh window hits the cache.
	client.Rates(ctx, "EUR")
	if *calls != 1 {
		t.Errorf("expected 1 fetch, got %d", *calls)
	}

	// A different base invalidates the cache.
	client.Rates(ctx, "KRW")
	if *calls != 2 {
		t.Errorf("expected 2 fetches, got %d", *calls)
	}
}

func TestRatesRefreshAfterBoundary(t *testing.T) {
	client, calls := newTestClient(t, serveRates)
	ctx := context.Background()

	now := time.Now()
	client.now = func() time.Time { return now }
	client.Rates(ctx, "EUR")

	// Two days later the 16:01 CET boundary has certainly passed.
	client.now = func() time.Time { return now.Add(48 * time.Hour) }
	client.Rates(ctx, "EUR")
	if *calls != 2 {
		t.Errorf("expected refetch after refresh boundary, got %d fetches", *calls)
	}
}

func TestRatesDegradesOnFailure(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	if table := client.Rates(context.Background(), "EUR"); table != nil {
		t.Errorf("expected nil table on fetch failure, got %+v", table)
	}
}

func TestConvert(t *testing.T) {
	table := &Table{
		Base:  "EUR",
		Rates: map[string]float64{"EUR": 1.0, "KRW": 1500.0, "JPY": 160.0},
	}

	tests := []struct {
		name     string
		amount   float64
		from, to string
		table    *Table
		want     float64
		ok       bool
	}{
		{name: "same currency needs no table", amount: 42, from: "KRW", to: "KRW", table: nil, want: 42, ok: true},
		{name: "no table", amount: 42, from: "EUR", to: "KRW", table: nil, ok: false},
		{name: "from base", amount: 2, from: "EUR", to: "KRW", table: table, want: 3000, ok: true},
		{name: "to base", amount: 3000, from: "KRW", to: "EUR", table: table, want: 2, ok: true},
		{name: "cross via base", amount: 160, from: "JPY", to: "KRW", table: table, want: 1500, ok: true},
		{name: "unknown currency", amount: 1, from: "EUR", to: "XXX", table: table, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Convert(tt.amount, tt.from, tt.to, tt.table)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && math.Abs(got-tt.want) > 0.001 {
				t.Errorf("converted = %v, want %v", got, tt.want)
			}
		})
	}
}
