package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domrepo "stockmood/internal/domain/repository"
	"stockmood/pkg/logger"
	"stockmood/pkg/queue"
)

// RefreshMessageType is the queue message type for background refreshes.
const RefreshMessageType = "behavior.refresh"

// RefreshPayload asks for one symbol to be re-analyzed in the background.
type RefreshPayload struct {
	Ticker string `json:"ticker"`
	Period string `json:"period"`
}

// RefreshJob fetches a symbol, runs the analysis and persists the outcome.
// It is the consumer side of the refresh queue; the HTTP layer only enqueues.
type RefreshJob struct {
	analyzer  *Analyzer
	source    domrepo.BarSource
	storage   domrepo.Storage
	publisher domrepo.Publisher
	log       *logger.Logger
}

func NewRefreshJob(
	analyzer *Analyzer,
	source domrepo.BarSource,
	storage domrepo.Storage,
	publisher domrepo.Publisher,
	log *logger.Logger,
) *RefreshJob {
	if log == nil {
		log = logger.Nop()
	}
	return &RefreshJob{
		analyzer:  analyzer,
		source:    source,
		storage:   storage,
		publisher: publisher,
		log:       log,
	}
}

func (j *RefreshJob) Name() string { return "behavior-refresh" }

func (j *RefreshJob) Type() string { return RefreshMessageType }

func (j *RefreshJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[RefreshPayload](payload)
	if err != nil {
		return fmt.Errorf("refresh payload: %w", err)
	}
	ticker := strings.ToUpper(strings.TrimSpace(p.Ticker))
	if ticker == "" {
		// malformed message, retrying will not help
		j.log.Warn("refresh message without ticker")
		return nil
	}
	period := domrepo.NormalizePeriod(p.Period)

	table, err := j.source.FetchDaily(ctx, ticker, period)
	if err != nil {
		return fmt.Errorf("refresh %s: %w", ticker, err)
	}

	result, err := j.analyzer.Analyze(ctx, table)
	if err != nil {
		if errors.Is(err, ErrNoData) {
			j.log.Warn("refresh skipped, no usable rows", logger.String("ticker", ticker))
			return nil
		}
		return fmt.Errorf("refresh %s: %w", ticker, err)
	}

	if j.storage != nil {
		if err := j.storage.StoreResult(ctx, result); err != nil {
			return fmt.Errorf("refresh %s: store: %w", ticker, err)
		}
	}
	if j.publisher != nil {
		if err := j.publisher.PublishAlerts(ctx, ticker, result.Rows); err != nil {
			j.log.Warn("refresh alert publish failed",
				logger.String("ticker", ticker), logger.Error(err))
		}
	}

	j.log.Info("refresh complete",
		logger.String("ticker", ticker),
		logger.String("period", string(period)),
		logger.Int("sessions", len(result.Rows)))
	return nil
}
