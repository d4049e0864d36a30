package usecase

import (
	"context"
	"testing"

	"stockmood/internal/domain/models"
	"stockmood/pkg/logger"
)

func TestBatchRunKeepsInputOrder(t *testing.T) {
	b := NewBatchCoordinator(newTestAnalyzer(), 2, logger.Nop())
	tables := []models.RawTable{
		steadyTable("AAPL", 30),
		steadyTable("MSFT", 30),
		steadyTable("GOOG", 30),
	}
	rows, results := b.Run(context.Background(), tables)

	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	for i, want := range []string{"AAPL", "MSFT", "GOOG"} {
		if rows[i].Symbol != want {
			t.Fatalf("row %d: expected %s, got %s", i, want, rows[i].Symbol)
		}
		if rows[i].Err != "" {
			t.Fatalf("row %d: unexpected error %q", i, rows[i].Err)
		}
		if rows[i].QualityScore != 100 {
			t.Fatalf("row %d: quality %v", i, rows[i].QualityScore)
		}
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
}

func TestBatchRunIsolatesFailures(t *testing.T) {
	b := NewBatchCoordinator(newTestAnalyzer(), 2, logger.Nop())
	tables := []models.RawTable{
		steadyTable("AAPL", 30),
		{Symbol: "EMPTY"},
		steadyTable("GOOG", 30),
	}
	rows, results := b.Run(context.Background(), tables)

	if rows[1].Symbol != "EMPTY" || rows[1].Err == "" {
		t.Fatalf("expected error row for EMPTY, got %+v", rows[1])
	}
	if rows[0].Err != "" || rows[2].Err != "" {
		t.Fatalf("healthy symbols must not fail: %+v %+v", rows[0], rows[2])
	}
	if _, ok := results["EMPTY"]; ok {
		t.Fatal("failed symbol must not appear in results")
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	// error rows carry no aggregates
	if rows[1].AvgVolatility != 0 || rows[1].TotalReturn != 0 || rows[1].QualityScore != 0 {
		t.Fatalf("error row must stay zeroed: %+v", rows[1])
	}
}

func TestBatchRunDefaultConcurrency(t *testing.T) {
	b := NewBatchCoordinator(newTestAnalyzer(), 0, nil)
	if b.concurrency != DefaultBatchConcurrency {
		t.Fatalf("expected default concurrency, got %d", b.concurrency)
	}
	rows, _ := b.Run(context.Background(), nil)
	if len(rows) != 0 {
		t.Fatalf("expected no rows for empty batch, got %d", len(rows))
	}
}
