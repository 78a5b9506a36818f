package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/mbp16/travelnote/internal/config"
	"github.com/mbp16/travelnote/internal/storage/sqlite"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	store, err := sqlite.New(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cfg := config.Config{Port: 0, PhotoDir: filepath.Join(dir, "photos")}
	return New(cfg, store)
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, into any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), into); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
}

func TestTripLifecycle(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/trips", map[string]any{
		"name": "Tokyo", "startDate": 100, "endDate": 200, "currency": "JPY",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create trip: got %d, want 201 (%s)", rec.Code, rec.Body)
	}
	var trip struct {
		ID int64 `json:"id"`
	}
	decode(t, rec, &trip)
	if trip.ID == 0 {
		t.Fatal("create trip: no id assigned")
	}

	t.Run("creating selects the trip", func(t *testing.T) {
		rec := doJSON(t, s, http.MethodGet, "/api/trips/active", nil)
		var resp struct {
			Trip *struct {
				ID int64 `json:"id"`
			} `json:"trip"`
		}
		decode(t, rec, &resp)
		if resp.Trip == nil || resp.Trip.ID != trip.ID {
			t.Errorf("active trip = %+v, want id %d", resp.Trip, trip.ID)
		}
	})

	t.Run("update", func(t *testing.T) {
		rec := doJSON(t, s, http.MethodPut, fmt.Sprintf("/api/trips/%d", trip.ID), map[string]any{
			"name": "Osaka", "startDate": 100, "endDate": 300, "currency": "JPY",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("update trip: got %d (%s)", rec.Code, rec.Body)
		}
		rec = doJSON(t, s, http.MethodGet, fmt.Sprintf("/api/trips/%d", trip.ID), nil)
		var got struct {
			Name string `json:"name"`
		}
		decode(t, rec, &got)
		if got.Name != "Osaka" {
			t.Errorf("trip name = %q, want Osaka", got.Name)
		}
	})

	t.Run("delete clears the selection", func(t *testing.T) {
		rec := doJSON(t, s, http.MethodDelete, fmt.Sprintf("/api/trips/%d", trip.ID), nil)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("delete trip: got %d", rec.Code)
		}
		rec = doJSON(t, s, http.MethodGet, "/api/trips/active", nil)
		var resp struct {
			Trip any `json:"trip"`
		}
		decode(t, rec, &resp)
		if resp.Trip != nil {
			t.Errorf("active trip after delete = %v, want null", resp.Trip)
		}
	})

	t.Run("invalid id", func(t *testing.T) {
		rec := doJSON(t, s, http.MethodGet, "/api/trips/nope", nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("got %d, want 400", rec.Code)
		}
	})

	t.Run("missing trip", func(t *testing.T) {
		rec := doJSON(t, s, http.MethodGet, "/api/trips/9999", nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("got %d, want 404", rec.Code)
		}
	})
}

func TestBalancesEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/trips", map[string]any{"name": "Trip", "currency": "EUR"})
	var trip struct {
		ID int64 `json:"id"`
	}
	decode(t, rec, &trip)

	var alice, bob struct {
		ID int64 `json:"id"`
	}
	decode(t, doJSON(t, s, http.MethodPost, fmt.Sprintf("/api/trips/%d/persons", trip.ID), map[string]any{"name": "Alice"}), &alice)
	decode(t, doJSON(t, s, http.MethodPost, fmt.Sprintf("/api/trips/%d/persons", trip.ID), map[string]any{"name": "Bob"}), &bob)

	rec = doJSON(t, s, http.MethodPost, fmt.Sprintf("/api/persons/%d/cash", alice.ID), map[string]any{"amount": 500.0, "description": "atm"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create cash entry: got %d (%s)", rec.Code, rec.Body)
	}

	// Alice fronts 300 in cash; she consumes 100 and Bob 200.
	rec = doJSON(t, s, http.MethodPost, fmt.Sprintf("/api/trips/%d/expenses", trip.ID), map[string]any{
		"title":       "dinner",
		"totalAmount": 300.0,
		"payments":    []map[string]any{{"personId": alice.ID, "amount": 300.0, "method": "CASH"}},
		"expenseUsers": []map[string]any{
			{"personId": alice.ID, "amount": 100.0},
			{"personId": bob.ID, "amount": 200.0},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create expense: got %d (%s)", rec.Code, rec.Body)
	}

	rec = doJSON(t, s, http.MethodGet, fmt.Sprintf("/api/trips/%d/balances", trip.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("balances: got %d (%s)", rec.Code, rec.Body)
	}

	var resp struct {
		Balances []struct {
			Person struct {
				Name string `json:"name"`
			} `json:"person"`
			RemainingCash float64 `json:"remainingCash"`
			Net           float64 `json:"net"`
		} `json:"balances"`
		Transfers []struct {
			FromName string  `json:"fromName"`
			ToName   string  `json:"toName"`
			Amount   float64 `json:"amount"`
		} `json:"transfers"`
		Residual float64 `json:"residual"`
	}
	decode(t, rec, &resp)

	if len(resp.Balances) != 2 {
		t.Fatalf("got %d balance rows, want 2", len(resp.Balances))
	}
	if got := resp.Balances[0]; got.Person.Name != "Alice" || got.RemainingCash != 200 || got.Net != 200 {
		t.Errorf("Alice row = %+v, want remainingCash 200 net 200", got)
	}
	if got := resp.Balances[1]; got.Person.Name != "Bob" || got.Net != -200 {
		t.Errorf("Bob row = %+v, want net -200", got)
	}
	if len(resp.Transfers) != 1 || resp.Transfers[0].FromName != "Bob" || resp.Transfers[0].ToName != "Alice" || resp.Transfers[0].Amount != 200 {
		t.Errorf("transfers = %+v, want Bob pays Alice 200", resp.Transfers)
	}
	if math.Abs(resp.Residual) > 0.001 {
		t.Errorf("residual = %v, want ~0", resp.Residual)
	}

	t.Run("unknown payment method rejected", func(t *testing.T) {
		rec := doJSON(t, s, http.MethodPost, fmt.Sprintf("/api/trips/%d/expenses", trip.ID), map[string]any{
			"title":    "weird",
			"payments": []map[string]any{{"personId": alice.ID, "amount": 1.0, "method": "CHECK"}},
		})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("got %d, want 400", rec.Code)
		}
	})
}

func TestExportImportEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/trips", map[string]any{"name": "Rome", "currency": "EUR"})
	var trip struct {
		ID int64 `json:"id"`
	}
	decode(t, rec, &trip)
	doJSON(t, s, http.MethodPost, fmt.Sprintf("/api/trips/%d/persons", trip.ID), map[string]any{"name": "Carol"})

	rec = doJSON(t, s, http.MethodGet, "/api/export?format=json", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export: got %d (%s)", rec.Code, rec.Body)
	}
	exported := rec.Body.Bytes()

	req := httptest.NewRequest(http.MethodPost, "/api/import", bytes.NewReader(exported))
	rec = httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("import: got %d (%s)", rec.Code, rec.Body)
	}
	var result struct {
		Trips   int `json:"trips"`
		Persons int `json:"persons"`
	}
	decode(t, rec, &result)
	if result.Trips != 1 || result.Persons != 1 {
		t.Errorf("import result = %+v, want 1 trip 1 person", result)
	}

	t.Run("garbage leaves a 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/import", bytes.NewReader([]byte("{not json")))
		rec := httptest.NewRecorder()
		s.echo.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("got %d, want 400", rec.Code)
		}
	})

	t.Run("import clears the active trip", func(t *testing.T) {
		rec := doJSON(t, s, http.MethodGet, "/api/trips/active", nil)
		var resp struct {
			Trip any `json:"trip"`
		}
		decode(t, rec, &resp)
		if resp.Trip != nil {
			t.Errorf("active trip after import = %v, want null", resp.Trip)
		}
	})

	t.Run("reset empties the store", func(t *testing.T) {
		rec := doJSON(t, s, http.MethodPost, "/api/reset", nil)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("reset: got %d", rec.Code)
		}
		rec = doJSON(t, s, http.MethodGet, "/api/trips", nil)
		var trips []any
		decode(t, rec, &trips)
		if len(trips) != 0 {
			t.Errorf("got %d trips after reset, want 0", len(trips))
		}
	})
}

func TestSettingsEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/settings", nil)
	var settings struct {
		StandardCurrency string `json:"standardCurrency"`
	}
	decode(t, rec, &settings)
	if settings.StandardCurrency != "KRW" {
		t.Errorf("default currency = %q, want KRW", settings.StandardCurrency)
	}

	rec = doJSON(t, s, http.MethodPut, "/api/settings", map[string]any{"standardCurrency": "EUR"})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("put settings: got %d", rec.Code)
	}
	rec = doJSON(t, s, http.MethodGet, "/api/settings", nil)
	decode(t, rec, &settings)
	if settings.StandardCurrency != "EUR" {
		t.Errorf("currency = %q, want EUR", settings.StandardCurrency)
	}

	t.Run("widget pin falls back to active trip", func(t *testing.T) {
		rec := doJSON(t, s, http.MethodPost, "/api/trips", map[string]any{"name": "Lisbon", "currency": "EUR"})
		var trip struct {
			ID int64 `json:"id"`
		}
		decode(t, rec, &trip)

		rec = doJSON(t, s, http.MethodGet, "/api/widgets/7/trip", nil)
		var resp struct {
			Trip *struct {
				ID int64 `json:"id"`
			} `json:"trip"`
		}
		decode(t, rec, &resp)
		if resp.Trip == nil || resp.Trip.ID != trip.ID {
			t.Errorf("widget trip = %+v, want active trip %d", resp.Trip, trip.ID)
		}

		rec = doJSON(t, s, http.MethodPut, "/api/widgets/7/trip", map[string]any{"tripId": trip.ID})
		if rec.Code != http.StatusNoContent {
			t.Fatalf("pin widget: got %d", rec.Code)
		}
	})
}
