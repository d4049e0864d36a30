package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stockmood/pkg/http/middleware"
	applogger "stockmood/pkg/logger"
)

// serverOptions is the resolved option set; callers configure it through
// ServerOption values only.
type serverOptions struct {
	host            string
	port            int
	readTimeout     time.Duration
	writeTimeout    time.Duration
	shutdownTimeout time.Duration
	cors            bool
	metrics         bool
	metricsPath     string
	logger          *applogger.Logger
}

type ServerOption func(*serverOptions)

func WithHost(host string) ServerOption {
	return func(o *serverOptions) { o.host = host }
}

func WithPort(port int) ServerOption {
	return func(o *serverOptions) { o.port = port }
}

func WithTimeouts(read, write, shutdown time.Duration) ServerOption {
	return func(o *serverOptions) {
		o.readTimeout = read
		o.writeTimeout = write
		o.shutdownTimeout = shutdown
	}
}

func WithCORS(enabled bool) ServerOption {
	return func(o *serverOptions) { o.cors = enabled }
}

// WithMetrics toggles the prometheus middleware and scrape endpoint.
func WithMetrics(enabled bool, path string) ServerOption {
	return func(o *serverOptions) {
		o.metrics = enabled
		if path != "" {
			o.metricsPath = path
		}
	}
}

func WithLogger(l *applogger.Logger) ServerOption {
	return func(o *serverOptions) { o.logger = l }
}

// Server runs an echo instance with the standard middleware chain:
// recover, request logging, prometheus, CORS.
type Server struct {
	echo *echo.Echo
	opts serverOptions
	log  *applogger.Logger
}

func NewServer(handler Handler, opts ...ServerOption) *Server {
	o := serverOptions{
		host:            "0.0.0.0",
		port:            8080,
		readTimeout:     10 * time.Second,
		writeTimeout:    30 * time.Second,
		shutdownTimeout: 10 * time.Second,
		cors:            true,
		metrics:         true,
		metricsPath:     "/metrics",
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = applogger.Nop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = o.readTimeout
	e.Server.WriteTimeout = o.writeTimeout

	e.Use(middleware.Recover(o.logger))
	e.Use(middleware.RequestLogging(o.logger))
	if o.metrics {
		e.Use(middleware.Metrics())
	}
	if o.cors {
		e.Use(middleware.CORS(defaultCORS()))
	}

	if handler != nil {
		handler.RegisterRoutes(e)
	}
	if o.metrics {
		e.GET(o.metricsPath, echo.WrapHandler(promhttp.Handler()))
	}

	return &Server{echo: e, opts: o, log: o.logger}
}

func defaultCORS() middleware.CORSConfig {
	return middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
		},
	}
}

// Start begins serving in the background; startup errors other than a
// clean close are logged, not returned.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.opts.host, s.opts.port)
	go func() {
		s.log.Info("http server listening", applogger.String("addr", addr))
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("http server stopped", applogger.Error(err))
		}
	}()
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	s.log.Info("http server stopped")
	return nil
}
