package marketdata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	domrepo "stockmood/internal/domain/repository"
)

func TestFetchDaily(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/daily" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("symbol") != "AAPL" || r.URL.Query().Get("range") != "3mo" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		if r.Header.Get("Authorization") != "Bearer k" {
			t.Errorf("missing auth header")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"date":"2024-01-01","open":100,"high":102,"low":99,"close":101,"volume":1000000},
			{"date":"2024-01-02","open":101,"high":103,"low":100,"close":102,"volume":1200000}
		]`))
	}))
	defer srv.Close()

	p := New(Config{BaseURL: srv.URL, APIKey: "k"}, nil)
	table, err := p.FetchDaily(context.Background(), "AAPL", domrepo.Period3Mo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table.Symbol != "AAPL" || len(table.Rows) != 2 {
		t.Fatalf("table wrong: %s, %d rows", table.Symbol, len(table.Rows))
	}
	if *table.Rows[1].Close != 102 {
		t.Fatalf("row parsed wrong: %+v", table.Rows[1])
	}
}

func TestFetchDailyUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "symbol not found", http.StatusNotFound)
	}))
	defer srv.Close()

	p := New(Config{BaseURL: srv.URL}, nil)
	if _, err := p.FetchDaily(context.Background(), "NOPE", domrepo.Period1Mo); err == nil {
		t.Fatal("expected error for upstream 404")
	}
}

func TestFetchDailyEmptySymbol(t *testing.T) {
	p := New(Config{BaseURL: "http://unused"}, nil)
	if _, err := p.FetchDaily(context.Background(), "", domrepo.Period1Mo); err == nil {
		t.Fatal("expected error for empty symbol")
	}
}

func TestFetchDailyRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"date":"2024-01-01","open":100,"high":102,"low":99,"close":101,"volume":1000000}]`))
	}))
	defer srv.Close()

	p := New(Config{BaseURL: srv.URL, RatePerSec: 0.001, Burst: 1}, nil)
	if _, err := p.FetchDaily(context.Background(), "AAPL", domrepo.Period1Mo); err != nil {
		t.Fatalf("first request should pass: %v", err)
	}
	_, err := p.FetchDaily(context.Background(), "AAPL", domrepo.Period1Mo)
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}
