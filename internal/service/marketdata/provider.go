package marketdata

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"stockmood/internal/domain/models"
	domrepo "stockmood/internal/domain/repository"
	"stockmood/internal/ingest"
	"stockmood/internal/service/ratelimit"
	xhttp "stockmood/pkg/http"
	"stockmood/pkg/logger"
)

// Config holds the daily-bars provider settings. RatePerSec of zero disables
// upstream throttling.
type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	RatePerSec float64
	Burst      float64
}

// ErrRateLimited is returned when the upstream request budget is exhausted.
var ErrRateLimited = errors.New("marketdata: rate limited")

// Provider fetches daily OHLCV bars from an HTTP market data API. The API is
// expected to answer GET {base}/v1/daily?symbol=X&range=3mo with a JSON array
// of OHLCV records. Rows come back raw; all repair happens in the cleaner.
type Provider struct {
	cfg     Config
	client  *xhttp.Client
	limiter *ratelimit.Limiter
	log     *logger.Logger
}

func New(cfg Config, log *logger.Logger) *Provider {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	p := &Provider{
		cfg:    cfg,
		client: xhttp.NewClient(xhttp.WithTimeout(cfg.Timeout)),
		log:    log,
	}
	if cfg.RatePerSec > 0 {
		if p.cfg.Burst < 1 {
			p.cfg.Burst = cfg.RatePerSec
		}
		p.limiter = ratelimit.New()
	}
	return p
}

// FetchDaily implements repository.BarSource.
func (p *Provider) FetchDaily(ctx context.Context, symbol string, period domrepo.Period) (models.RawTable, error) {
	if symbol == "" {
		return models.RawTable{}, fmt.Errorf("marketdata: empty symbol")
	}
	if p.limiter != nil && !p.limiter.Allow("upstream", p.cfg.Burst, p.cfg.RatePerSec) {
		return models.RawTable{}, fmt.Errorf("%w: %s", ErrRateLimited, symbol)
	}
	period = domrepo.NormalizePeriod(string(period))

	headers := map[string]string{}
	if p.cfg.APIKey != "" {
		headers["Authorization"] = "Bearer " + p.cfg.APIKey
	}

	var body []byte
	start := time.Now()
	err := p.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodGet,
		URL:     p.cfg.BaseURL + "/v1/daily",
		Headers: headers,
		QueryParams: map[string][]string{
			"symbol": {symbol},
			"range":  {string(period)},
		},
	}, &body)
	if err != nil {
		return models.RawTable{}, fmt.Errorf("marketdata: fetch %s: %w", symbol, err)
	}

	rows, err := ingest.ReadJSON(bytes.NewReader(body))
	if err != nil {
		return models.RawTable{}, fmt.Errorf("marketdata: parse %s: %w", symbol, err)
	}
	p.log.Debug("fetched daily bars",
		logger.String("symbol", symbol),
		logger.String("period", string(period)),
		logger.Int("rows", len(rows)),
		logger.Duration("took", time.Since(start)))
	return models.RawTable{Symbol: symbol, Rows: rows}, nil
}
