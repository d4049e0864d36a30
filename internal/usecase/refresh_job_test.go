package usecase

import (
	"context"
	"fmt"
	"testing"

	"stockmood/internal/domain/models"
	domrepo "stockmood/internal/domain/repository"
)

type fakeSource struct {
	tables map[string]models.RawTable
	calls  int
}

func (f *fakeSource) FetchDaily(_ context.Context, symbol string, _ domrepo.Period) (models.RawTable, error) {
	f.calls++
	table, ok := f.tables[symbol]
	if !ok {
		return models.RawTable{}, fmt.Errorf("unknown symbol %s", symbol)
	}
	return table, nil
}

type fakeStorage struct {
	stored []*models.SymbolResult
}

func (f *fakeStorage) Init(context.Context) error   { return nil }
func (f *fakeStorage) Health(context.Context) error { return nil }
func (f *fakeStorage) Close() error                 { return nil }
func (f *fakeStorage) StoreResult(_ context.Context, r *models.SymbolResult) error {
	f.stored = append(f.stored, r)
	return nil
}

func TestRefreshJobHandle(t *testing.T) {
	source := &fakeSource{tables: map[string]models.RawTable{
		"AAPL": steadyTable("AAPL", 30),
	}}
	storage := &fakeStorage{}
	job := NewRefreshJob(newTestAnalyzer(), source, storage, nil, nil)

	payload := map[string]interface{}{"ticker": "aapl", "period": "1mo"}
	if err := job.Handle(context.Background(), payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(storage.stored) != 1 || storage.stored[0].Symbol != "AAPL" {
		t.Fatalf("result not stored: %+v", storage.stored)
	}
}

func TestRefreshJobFetchErrorIsRetryable(t *testing.T) {
	source := &fakeSource{tables: map[string]models.RawTable{}}
	job := NewRefreshJob(newTestAnalyzer(), source, nil, nil, nil)

	payload := map[string]interface{}{"ticker": "NOPE"}
	if err := job.Handle(context.Background(), payload); err == nil {
		t.Fatal("fetch failure must surface so the queue retries")
	}
}

func TestRefreshJobIgnoresEmptyTicker(t *testing.T) {
	job := NewRefreshJob(newTestAnalyzer(), &fakeSource{}, nil, nil, nil)

	payload := map[string]interface{}{"period": "1mo"}
	if err := job.Handle(context.Background(), payload); err != nil {
		t.Fatalf("empty ticker must not be retried: %v", err)
	}
}
