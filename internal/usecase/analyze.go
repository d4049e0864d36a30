package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stockmood/internal/domain/models"
	domrepo "stockmood/internal/domain/repository"
	"stockmood/internal/services/behavior"
	"stockmood/internal/services/cleaning"
	"stockmood/internal/services/features"
	"stockmood/internal/services/insights"
	"stockmood/pkg/logger"
)

// ErrNoData means cleaning left no usable rows for the symbol.
var ErrNoData = errors.New("no usable rows after cleaning")

// Analyzer runs the full per-symbol pipeline: clean, score, derive features,
// classify, summarize. It is stateless between calls and safe for concurrent
// use.
type Analyzer struct {
	cleaner  *cleaning.Cleaner
	engineer *features.Engineer
	detector *behavior.Detector
	metrics  domrepo.Metrics
	log      *logger.Logger
}

func NewAnalyzer(cleaner *cleaning.Cleaner, engineer *features.Engineer, detector *behavior.Detector, metrics domrepo.Metrics, log *logger.Logger) *Analyzer {
	if log == nil {
		log = logger.Nop()
	}
	return &Analyzer{
		cleaner:  cleaner,
		engineer: engineer,
		detector: detector,
		metrics:  metrics,
		log:      log,
	}
}

// Analyze processes one symbol's raw table end to end. Quality grading always
// happens, even when the table turns out unusable; in that case the error
// carries the symbol name and ErrNoData.
func (a *Analyzer) Analyze(ctx context.Context, table models.RawTable) (*models.SymbolResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	bars, audit := a.cleaner.Clean(table.Rows)
	quality := cleaning.Score(audit)
	if a.metrics != nil {
		a.metrics.RecordRowsCleaned(table.Symbol, audit.RowsAfter, audit.Removed())
		a.metrics.RecordQualityScore(table.Symbol, quality.Score)
	}
	a.log.Debug("cleaned table",
		logger.String("symbol", table.Symbol),
		logger.Int("rows_before", audit.RowsBefore),
		logger.Int("rows_after", audit.RowsAfter),
		logger.Float64("quality", quality.Score))

	if len(bars) == 0 {
		if a.metrics != nil {
			a.metrics.RecordAnalysis(table.Symbol, "failed")
			a.metrics.RecordError("no_data")
		}
		return nil, fmt.Errorf("%s: %w", table.Symbol, ErrNoData)
	}

	rows := a.detector.Detect(a.engineer.Compute(bars))
	result := &models.SymbolResult{
		Symbol:   table.Symbol,
		Rows:     rows,
		Quality:  quality,
		Summary:  insights.Summarize(rows),
		Insights: insights.Generate(rows),
	}

	if a.metrics != nil {
		a.metrics.RecordAnalysis(table.Symbol, "ok")
		a.metrics.RecordLatency("analyze", time.Since(start).Seconds())
	}
	a.log.Info("analyzed symbol",
		logger.String("symbol", table.Symbol),
		logger.Int("sessions", len(rows)),
		logger.String("risk", result.Summary.RiskLabel),
		logger.Duration("took", time.Since(start)))
	return result, nil
}
