package usecase

import (
	"context"

	"golang.org/x/sync/errgroup"

	"stockmood/internal/domain/models"
	"stockmood/pkg/logger"
)

// DefaultBatchConcurrency bounds how many symbols are analyzed at once.
const DefaultBatchConcurrency = 4

// BatchCoordinator fans one analysis out per symbol. One symbol's failure
// never aborts the batch; it becomes an error row in the comparison table.
type BatchCoordinator struct {
	analyzer    *Analyzer
	concurrency int
	log         *logger.Logger
}

func NewBatchCoordinator(analyzer *Analyzer, concurrency int, log *logger.Logger) *BatchCoordinator {
	if concurrency <= 0 {
		concurrency = DefaultBatchConcurrency
	}
	if log == nil {
		log = logger.Nop()
	}
	return &BatchCoordinator{analyzer: analyzer, concurrency: concurrency, log: log}
}

// Run analyzes every table concurrently and returns one comparison row per
// input, in input order, plus the full results keyed by symbol. Failed symbols
// appear only in the comparison rows, with Err set.
func (b *BatchCoordinator) Run(ctx context.Context, tables []models.RawTable) ([]models.BatchRow, map[string]*models.SymbolResult) {
	rows := make([]models.BatchRow, len(tables))
	results := make([]*models.SymbolResult, len(tables))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for i, table := range tables {
		i, table := i, table
		g.Go(func() error {
			result, err := b.analyzer.Analyze(gctx, table)
			if err != nil {
				b.log.Warn("symbol analysis failed",
					logger.String("symbol", table.Symbol),
					logger.Error(err))
				rows[i] = models.BatchRow{Symbol: table.Symbol, Err: err.Error()}
				return nil
			}
			results[i] = result
			rows[i] = comparisonRow(result)
			return nil
		})
	}
	_ = g.Wait()

	bySymbol := make(map[string]*models.SymbolResult, len(tables))
	for _, r := range results {
		if r != nil {
			bySymbol[r.Symbol] = r
		}
	}
	return rows, bySymbol
}

func comparisonRow(result *models.SymbolResult) models.BatchRow {
	return models.BatchRow{
		Symbol:             result.Symbol,
		PanicSellingDays:   result.Summary.Behaviors[string(models.BehaviorPanicSelling)],
		FOMODays:           result.Summary.Behaviors[string(models.BehaviorFOMOBuying)],
		OverconfidenceDays: result.Summary.Behaviors[string(models.BehaviorOverconfidence)],
		AvgVolatility:      result.Summary.AvgVolatility,
		TotalReturn:        result.Summary.TotalReturn,
		QualityScore:       result.Quality.Score,
	}
}
