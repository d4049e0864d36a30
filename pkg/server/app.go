package server

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"stockmood/internal/domain/models"
	domrepo "stockmood/internal/domain/repository"
	"stockmood/internal/export"
	"stockmood/internal/handler/api"
	"stockmood/internal/ingest"
	"stockmood/internal/repository"
	"stockmood/internal/service/marketdata"
	"stockmood/internal/services/behavior"
	"stockmood/internal/services/cleaning"
	"stockmood/internal/services/features"
	"stockmood/internal/usecase"
	"stockmood/pkg/cache"
	pkgch "stockmood/pkg/clickhouse"
	"stockmood/pkg/config"
	xhttp "stockmood/pkg/http"
	pkgkafka "stockmood/pkg/kafka"
	applogger "stockmood/pkg/logger"
	"stockmood/pkg/metrics"
	"stockmood/pkg/queue"
)

// App wires the analysis pipeline to its infrastructure and owns the
// lifecycle of everything that needs closing.
type App struct {
	cfg      *config.Config
	log      *applogger.Logger
	analyzer *usecase.Analyzer
	batch    *usecase.BatchCoordinator
	source   domrepo.BarSource

	httpServer *xhttp.Server
	chClient   *pkgch.Client
	storage    domrepo.Storage
	producer   *pkgkafka.Producer
	publisher  domrepo.Publisher
	redis      *cache.RedisCache
	queue      *queue.RedisQueue
}

// New builds the full dependency graph from config. Optional backends
// (cache, ClickHouse, Kafka) are wired only when enabled.
func New(cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	log, err := applogger.New(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	recorder := metrics.New()
	analyzer := usecase.NewAnalyzer(
		cleaning.NewCleaner(cleaning.WithIQRMultiplier(cfg.Analysis.IQRMultiplier)),
		features.NewEngineer(cfg.Analysis.Features),
		behavior.NewDetector(cfg.Analysis.Thresholds),
		recorder,
		log,
	)

	app := &App{
		cfg:      cfg,
		log:      log,
		analyzer: analyzer,
		batch:    usecase.NewBatchCoordinator(analyzer, cfg.Analysis.Concurrency, log),
	}

	var source domrepo.BarSource = marketdata.New(marketdata.Config{
		BaseURL:    cfg.Provider.BaseURL,
		APIKey:     cfg.Provider.APIKey,
		Timeout:    cfg.Provider.Timeout,
		RatePerSec: cfg.Provider.RatePerSec,
		Burst:      cfg.Provider.Burst,
	}, log)

	if cfg.Cache.Enabled {
		svc, err := app.buildCache()
		if err != nil {
			app.Close()
			return nil, err
		}
		source = marketdata.NewCachedSource(source, svc, cfg.Cache.TTL, log)
	}
	app.source = source

	if cfg.ClickHouse.Enabled {
		if err := app.buildStorage(); err != nil {
			app.Close()
			return nil, err
		}
	}
	if cfg.Kafka.Enabled {
		if err := app.buildPublisher(); err != nil {
			app.Close()
			return nil, err
		}
	}
	if cfg.Queue.Enabled {
		if err := app.buildQueue(); err != nil {
			app.Close()
			return nil, err
		}
	}

	var refresh queue.QueueService
	if app.queue != nil {
		refresh = app.queue
	}
	handler := api.NewAnalyzeHandler(log, analyzer, app.batch, source,
		app.storage, app.publisher, refresh, cfg.Provider.Tickers)
	app.httpServer = xhttp.NewServer(handler,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithMetrics(cfg.Metrics.Enabled, cfg.Metrics.Path),
		xhttp.WithLogger(log),
	)
	return app, nil
}

func (a *App) buildCache() (cache.Service, error) {
	if !a.cfg.Cache.Redis.Enabled {
		return cache.NewMemoryCache(), nil
	}
	rc, err := a.redisCache()
	if err != nil {
		return nil, err
	}
	// memory in front of redis, reads fill L1
	return cache.NewLayeredCache(rc), nil
}

func (a *App) redisCache() (*cache.RedisCache, error) {
	if a.redis != nil {
		return a.redis, nil
	}
	host, portStr, err := net.SplitHostPort(a.cfg.Cache.Redis.Addr)
	if err != nil {
		return nil, fmt.Errorf("redis addr: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("redis addr: %w", err)
	}
	rc, err := cache.NewRedisCache(cache.RedisConfig{
		Host:     host,
		Port:     port,
		Password: a.cfg.Cache.Redis.Password,
		DB:       a.cfg.Cache.Redis.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	a.redis = rc
	return rc, nil
}

func (a *App) buildQueue() error {
	rc, err := a.redisCache()
	if err != nil {
		return err
	}
	q := queue.NewRedisQueue(a.log, queue.QueueConfig{
		Workers:    a.cfg.Queue.Workers,
		RetryLimit: a.cfg.Queue.RetryLimit,
		RetryDelay: a.cfg.Queue.RetryDelay,
	}, rc.Client())
	q.RegisterJob(usecase.NewRefreshJob(a.analyzer, a.source, a.storage, a.publisher, a.log))
	if err := q.Start(); err != nil {
		return fmt.Errorf("queue: %w", err)
	}
	a.queue = q
	return nil
}

func (a *App) buildStorage() error {
	ch := a.cfg.ClickHouse
	client, err := pkgch.NewClient(pkgch.Config{
		Host:             ch.Host,
		Port:             ch.Port,
		Database:         ch.Database,
		User:             ch.User,
		Password:         ch.Password,
		UseHTTP:          ch.UseHTTP,
		AsyncInsert:      ch.AsyncInsert,
		WaitForAsync:     ch.WaitForAsync,
		DialTimeout:      ch.DialTimeout,
		ReadTimeout:      ch.ReadTimeout,
		MaxExecutionTime: ch.MaxExecutionTime,
	})
	if err != nil {
		return fmt.Errorf("clickhouse: %w", err)
	}
	a.chClient = client

	storage := repository.NewClickHouseResults(client, ch.Database)
	if err := storage.Init(context.Background()); err != nil {
		return fmt.Errorf("clickhouse schema: %w", err)
	}
	a.storage = storage
	a.log.Info("clickhouse ready", applogger.String("database", ch.Database))
	return nil
}

func (a *App) buildPublisher() error {
	k := a.cfg.Kafka
	producer, err := pkgkafka.NewProducer(pkgkafka.Config{
		Brokers:      k.Brokers,
		RequiredAcks: k.RequiredAcks,
		Compression:  k.Compression,
		MaxAttempts:  k.Producer.MaxAttempts,
		Linger:       k.Producer.Linger,
		BatchBytes:   k.Producer.BatchBytes,
		BatchSize:    k.Producer.BatchSize,
		WriteTimeout: k.Producer.WriteTimeout,
		ReadTimeout:  k.Producer.ReadTimeout,
		Async:        k.Producer.Async,
		HashByKey:    true,
	})
	if err != nil {
		return fmt.Errorf("kafka: %w", err)
	}
	a.producer = producer
	a.publisher = repository.NewAlertPublisher(producer, k.Topic)
	a.log.Info("kafka producer ready",
		applogger.Strings("brokers", k.Brokers), applogger.String("topic", k.Topic))
	return nil
}

// Run starts the HTTP server and blocks until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if err := a.httpServer.Start(); err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	a.log.Info("started",
		applogger.String("env", a.cfg.Environment),
		applogger.Int("port", a.cfg.Server.Port))

	<-ctx.Done()
	a.log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Warn("http shutdown error", applogger.Error(err))
	}
	return a.Close()
}

// RunBatch analyzes the given files once and writes the comparison table to
// stdout and, when outDir is non-empty, to CSV and XLSX files there.
func (a *App) RunBatch(ctx context.Context, paths []string, outDir string) error {
	if len(paths) == 0 {
		return fmt.Errorf("no input files")
	}

	tables := make([]models.RawTable, 0, len(paths))
	for _, path := range paths {
		table, err := ingest.ReadFile(path, "")
		if err != nil {
			a.log.Warn("read failed", applogger.String("file", path), applogger.Error(err))
			symbol := strings.ToUpper(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
			table = models.RawTable{Symbol: symbol}
		}
		tables = append(tables, table)
	}

	rows, results := a.batch.Run(ctx, tables)
	if a.storage != nil {
		for _, result := range results {
			if err := a.storage.StoreResult(ctx, result); err != nil {
				a.log.Warn("persist result failed",
					applogger.String("ticker", result.Symbol), applogger.Error(err))
			}
		}
	}

	export.RenderBatchTable(os.Stdout, rows)

	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("output dir: %w", err)
		}
		if err := writeFile(filepath.Join(outDir, "comparison.csv"), rows, export.WriteBatchCSV); err != nil {
			return err
		}
		if err := writeFile(filepath.Join(outDir, "comparison.xlsx"), rows, export.WriteBatchXLSX); err != nil {
			return err
		}
		a.log.Info("comparison written", applogger.String("dir", outDir))
	}
	return a.Close()
}

func writeFile(path string, rows []models.BatchRow, write func(w io.Writer, rows []models.BatchRow) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if err := write(f, rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Close releases infrastructure clients. Safe to call more than once.
func (a *App) Close() error {
	if a.queue != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := a.queue.Stop(ctx); err != nil {
			a.log.Warn("queue stop error", applogger.Error(err))
		}
		cancel()
		a.queue = nil
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.log.Warn("kafka close error", applogger.Error(err))
		}
		a.producer = nil
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
		a.chClient = nil
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn("redis close error", applogger.Error(err))
		}
		a.redis = nil
	}
	return nil
}
