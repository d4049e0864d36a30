package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"stockmood/internal/domain/models"
	"stockmood/internal/services/behavior"
	"stockmood/internal/services/cleaning"
	"stockmood/internal/services/features"
	"stockmood/pkg/logger"
)

func fp(v float64) *float64 { return &v }

func steadyTable(symbol string, n int) models.RawTable {
	table := models.RawTable{Symbol: symbol}
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		base := 100 + float64(i%5)*0.2
		table.Rows = append(table.Rows, models.RawRow{
			Date:   day.AddDate(0, 0, i).Format("2006-01-02"),
			Open:   fp(base),
			High:   fp(base + 2),
			Low:    fp(base - 2),
			Close:  fp(base + 1),
			Volume: fp(1_000_000 + float64(i%3)*1000),
		})
	}
	return table
}

func newTestAnalyzer() *Analyzer {
	return NewAnalyzer(
		cleaning.NewCleaner(),
		features.NewEngineer(features.Config{RollingWindow: 5, MomentumLookback: 5}),
		behavior.NewDetector(behavior.DefaultThresholds()),
		nil,
		logger.Nop(),
	)
}

func TestAnalyzeCleanTable(t *testing.T) {
	a := newTestAnalyzer()
	result, err := a.Analyze(context.Background(), steadyTable("AAPL", 30))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Symbol != "AAPL" {
		t.Fatalf("symbol: got %s", result.Symbol)
	}
	if len(result.Rows) != 30 {
		t.Fatalf("expected 30 rows, got %d", len(result.Rows))
	}
	if result.Quality.Score != 100 || result.Quality.Rating != cleaning.RatingExcellent {
		t.Fatalf("quality: got %v/%s", result.Quality.Score, result.Quality.Rating)
	}
	if result.Summary.Total != 30 {
		t.Fatalf("summary total: got %d", result.Summary.Total)
	}
	// calm series: every session Normal, so the calm insight is present
	if result.Summary.Behaviors[string(models.BehaviorNormal)] != 30 {
		t.Fatalf("behavior counts: %v", result.Summary.Behaviors)
	}
	if len(result.Insights) != 1 || result.Insights[0].Type != "success" {
		t.Fatalf("insights: %v", result.Insights)
	}
}

func TestAnalyzeEmptyTable(t *testing.T) {
	a := newTestAnalyzer()
	_, err := a.Analyze(context.Background(), models.RawTable{Symbol: "EMPTY"})
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestAnalyzeUnusableTable(t *testing.T) {
	a := newTestAnalyzer()
	table := models.RawTable{Symbol: "BAD", Rows: []models.RawRow{
		{Date: "not a date", Close: fp(100)},
		{Date: "also bad", Close: fp(101)},
	}}
	_, err := a.Analyze(context.Background(), table)
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestAnalyzeCancelledContext(t *testing.T) {
	a := newTestAnalyzer()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := a.Analyze(ctx, steadyTable("AAPL", 10)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
