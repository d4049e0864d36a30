package repository

import (
	"context"

	"stockmood/internal/domain/models"
)

// BarSource fetches raw daily bars for a symbol over a named period.
type BarSource interface {
	FetchDaily(ctx context.Context, symbol string, period Period) (models.RawTable, error)
}

// Storage persists classified sessions for later querying.
type Storage interface {
	Init(ctx context.Context) error // ensure tables, health checks
	StoreResult(ctx context.Context, result *models.SymbolResult) error
	Health(ctx context.Context) error // ping
	Close() error
}

// Publisher emits behavior alerts to downstream consumers. Implementations
// select the alert-worthy rows themselves; callers pass the full session list.
type Publisher interface {
	PublishAlerts(ctx context.Context, symbol string, rows []models.BehaviorRow) error
	Close() error
}

// Metrics records pipeline observability counters.
type Metrics interface {
	RecordAnalysis(symbol, status string)
	RecordRowsCleaned(symbol string, kept, removed int)
	RecordError(kind string)
	RecordQualityScore(symbol string, score float64)
	RecordLatency(stage string, seconds float64)
}
