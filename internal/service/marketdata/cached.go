package marketdata

import (
	"context"
	"encoding/json"
	"time"

	"stockmood/internal/domain/models"
	domrepo "stockmood/internal/domain/repository"
	"stockmood/pkg/cache"
	"stockmood/pkg/logger"
)

// CachedSource wraps a BarSource with a cache keyed by symbol and period.
// Entries are stored as JSON strings so memory and Redis backends behave the
// same.
type CachedSource struct {
	src   domrepo.BarSource
	cache cache.Service
	ttl   time.Duration
	log   *logger.Logger
}

func NewCachedSource(src domrepo.BarSource, c cache.Service, ttl time.Duration, log *logger.Logger) *CachedSource {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if log == nil {
		log = logger.Nop()
	}
	return &CachedSource{src: src, cache: c, ttl: ttl, log: log}
}

// FetchDaily implements repository.BarSource. Cache failures are not fatal;
// the wrapped source is always the fallback.
func (s *CachedSource) FetchDaily(ctx context.Context, symbol string, period domrepo.Period) (models.RawTable, error) {
	key := cache.GenerateKeyWithParams("bars", symbol, string(period))

	var cached string
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		var table models.RawTable
		if err := json.Unmarshal([]byte(cached), &table); err == nil {
			s.log.Debug("bars cache hit", logger.String("key", key))
			return table, nil
		}
		_ = s.cache.Delete(ctx, key)
	}

	table, err := s.src.FetchDaily(ctx, symbol, period)
	if err != nil {
		return models.RawTable{}, err
	}
	if data, err := json.Marshal(table); err == nil {
		if err := s.cache.Set(ctx, key, string(data), s.ttl); err != nil {
			s.log.Warn("bars cache set failed", logger.String("key", key), logger.Error(err))
		}
	}
	return table, nil
}
