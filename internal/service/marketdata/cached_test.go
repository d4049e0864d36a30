package marketdata

import (
	"context"
	"testing"
	"time"

	"stockmood/internal/domain/models"
	domrepo "stockmood/internal/domain/repository"
	"stockmood/pkg/cache"
)

type countingSource struct {
	calls int
	table models.RawTable
}

func (s *countingSource) FetchDaily(_ context.Context, _ string, _ domrepo.Period) (models.RawTable, error) {
	s.calls++
	return s.table, nil
}

func TestCachedSourceHitsCache(t *testing.T) {
	v := 100.0
	src := &countingSource{table: models.RawTable{
		Symbol: "AAPL",
		Rows:   []models.RawRow{{Date: "2024-01-01", Open: &v, High: &v, Low: &v, Close: &v, Volume: &v}},
	}}
	cs := NewCachedSource(src, cache.NewMemoryCache(), time.Minute, nil)

	for i := 0; i < 3; i++ {
		table, err := cs.FetchDaily(context.Background(), "AAPL", domrepo.Period3Mo)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if table.Symbol != "AAPL" || len(table.Rows) != 1 || *table.Rows[0].Close != 100 {
			t.Fatalf("table wrong after fetch %d: %+v", i, table)
		}
	}
	if src.calls != 1 {
		t.Fatalf("expected one upstream call, got %d", src.calls)
	}
}

func TestCachedSourceSeparatesPeriods(t *testing.T) {
	src := &countingSource{table: models.RawTable{Symbol: "AAPL"}}
	cs := NewCachedSource(src, cache.NewMemoryCache(), time.Minute, nil)

	_, _ = cs.FetchDaily(context.Background(), "AAPL", domrepo.Period1Mo)
	_, _ = cs.FetchDaily(context.Background(), "AAPL", domrepo.Period1Y)
	if src.calls != 2 {
		t.Fatalf("different periods must not share entries, got %d calls", src.calls)
	}
}
