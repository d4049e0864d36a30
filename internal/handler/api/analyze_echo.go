package api

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"stockmood/internal/domain/models"
	domrepo "stockmood/internal/domain/repository"
	"stockmood/internal/ingest"
	"stockmood/internal/usecase"
	xhttp "stockmood/pkg/http"
	xlogger "stockmood/pkg/logger"
	"stockmood/pkg/queue"
)

// AnalyzeHandler exposes the behavior pipeline over HTTP. Storage and
// publisher are optional; when present, every successful analysis is persisted
// and its non-Normal sessions are published as alerts, both best-effort.
type AnalyzeHandler struct {
	logger    *xlogger.Logger
	analyzer  *usecase.Analyzer
	batch     *usecase.BatchCoordinator
	source    domrepo.BarSource
	storage   domrepo.Storage
	publisher domrepo.Publisher
	refresh   queue.QueueService
	tickers   []string
}

func NewAnalyzeHandler(
	logger *xlogger.Logger,
	analyzer *usecase.Analyzer,
	batch *usecase.BatchCoordinator,
	source domrepo.BarSource,
	storage domrepo.Storage,
	publisher domrepo.Publisher,
	refresh queue.QueueService,
	tickers []string,
) *AnalyzeHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &AnalyzeHandler{
		logger:    logger,
		analyzer:  analyzer,
		batch:     batch,
		source:    source,
		storage:   storage,
		publisher: publisher,
		refresh:   refresh,
		tickers:   tickers,
	}
}

func (h *AnalyzeHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/health", h.Health)
	g.GET("/tickers", h.Tickers)
	g.GET("/analyze", h.Analyze)
	g.POST("/analyze-file", h.AnalyzeFile)
	g.POST("/batch", h.Batch)
	g.POST("/refresh", h.Refresh)
}

func (h *AnalyzeHandler) Health(c echo.Context) error {
	status := map[string]string{"status": "ok"}
	if h.storage != nil {
		if err := h.storage.Health(c.Request().Context()); err != nil {
			status["storage"] = "down"
		} else {
			status["storage"] = "up"
		}
	}
	return xhttp.SuccessResponse(c, status)
}

func (h *AnalyzeHandler) Tickers(c echo.Context) error {
	return xhttp.ListResponse(c, h.tickers, int64(len(h.tickers)))
}

func (h *AnalyzeHandler) Analyze(c echo.Context) error {
	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	period := domrepo.NormalizePeriod(req.Period)
	limit := xhttp.ParseIntDefault(c.QueryParam("limit"), 0)
	ctx := c.Request().Context()

	table, err := h.source.FetchDaily(ctx, strings.ToUpper(req.Ticker), period)
	if err != nil {
		h.logger.Error("fetch bars failed", xlogger.String("ticker", req.Ticker), xlogger.Error(err))
		return xhttp.AppErrorResponse(c,
			xhttp.NotFoundErrorf("no data for %s", req.Ticker).WithError(err))
	}

	result, err := h.analyzer.Analyze(ctx, table)
	if err != nil {
		if errors.Is(err, usecase.ErrNoData) {
			return xhttp.AppErrorResponse(c,
				xhttp.BadRequestErrorf("%s has no usable rows", req.Ticker))
		}
		h.logger.Error("analyze failed", xlogger.String("ticker", req.Ticker), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("analysis failed").WithError(err))
	}

	h.store(c, result)
	h.alert(c, result)
	return xhttp.SuccessResponse(c, analyzeView(result, string(period), limit))
}

func (h *AnalyzeHandler) AnalyzeFile(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
			Code: "ERR_REQUIRED", Field: "file", Message: "file is required",
		}})
	}
	src, err := fileHeader.Open()
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.InternalError("read upload").WithError(err))
	}
	defer src.Close()

	ticker := strings.ToUpper(strings.TrimSpace(c.FormValue("ticker")))
	if ticker == "" {
		name := fileHeader.Filename
		ticker = strings.ToUpper(strings.TrimSuffix(name, filepath.Ext(name)))
	}

	rows, err := ingest.Read(src, filepath.Ext(fileHeader.Filename))
	if err != nil {
		if errors.Is(err, ingest.ErrUnsupportedFormat) {
			return xhttp.AppErrorResponse(c,
				xhttp.BadRequestError("unsupported file format, use csv, xlsx or json"))
		}
		return xhttp.AppErrorResponse(c,
			xhttp.BadRequestErrorf("could not parse file: %v", err))
	}

	result, err := h.analyzer.Analyze(c.Request().Context(), models.RawTable{Symbol: ticker, Rows: rows})
	if err != nil {
		if errors.Is(err, usecase.ErrNoData) {
			return xhttp.AppErrorResponse(c,
				xhttp.BadRequestError("file has no usable rows"))
		}
		return xhttp.AppErrorResponse(c, xhttp.InternalError("analysis failed").WithError(err))
	}

	h.store(c, result)
	return xhttp.SuccessResponse(c, analyzeView(result, "file", 0))
}

func (h *AnalyzeHandler) Batch(c echo.Context) error {
	req := &models.BatchRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	period := domrepo.NormalizePeriod(req.Period)
	ctx := c.Request().Context()

	tables := make([]models.RawTable, 0, len(req.Tickers))
	for _, ticker := range req.Tickers {
		ticker = strings.ToUpper(strings.TrimSpace(ticker))
		table, err := h.source.FetchDaily(ctx, ticker, period)
		if err != nil {
			// leave an empty table so the coordinator reports the failure
			h.logger.Warn("fetch bars failed", xlogger.String("ticker", ticker), xlogger.Error(err))
			table = models.RawTable{Symbol: ticker}
		}
		tables = append(tables, table)
	}

	rows, results := h.batch.Run(ctx, tables)
	for _, result := range results {
		h.store(c, result)
	}
	return xhttp.SuccessResponse(c, &BatchView{Period: string(period), Rows: rows})
}

// Refresh queues a background re-analysis of one symbol. The worker fetches,
// classifies and persists; the request only acknowledges the enqueue.
func (h *AnalyzeHandler) Refresh(c echo.Context) error {
	if h.refresh == nil {
		return xhttp.AppErrorResponse(c,
			xhttp.BadRequestError("background refresh is not enabled"))
	}
	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ticker := strings.ToUpper(req.Ticker)
	period := domrepo.NormalizePeriod(req.Period)

	err := h.refresh.PublishMessage(c.Request().Context(), usecase.RefreshMessageType,
		usecase.RefreshPayload{Ticker: ticker, Period: string(period)})
	if err != nil {
		h.logger.Error("enqueue refresh failed", xlogger.String("ticker", ticker), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("enqueue failed").WithError(err))
	}
	return xhttp.SuccessResponse(c, map[string]string{
		"ticker": ticker,
		"period": string(period),
		"state":  "queued",
	})
}

func (h *AnalyzeHandler) store(c echo.Context, result *models.SymbolResult) {
	if h.storage == nil || result == nil {
		return
	}
	if err := h.storage.StoreResult(c.Request().Context(), result); err != nil {
		h.logger.Warn("persist result failed",
			xlogger.String("ticker", result.Symbol), xlogger.Error(err))
	}
}

func (h *AnalyzeHandler) alert(c echo.Context, result *models.SymbolResult) {
	if h.publisher == nil || result == nil {
		return
	}
	if err := h.publisher.PublishAlerts(c.Request().Context(), result.Symbol, result.Rows); err != nil {
		h.logger.Warn("publish alerts failed",
			xlogger.String("ticker", result.Symbol), xlogger.Error(err))
	}
}
