package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	applogger "stockmood/pkg/logger"
)

// RequestLogging logs every request with method, path, status and latency.
func RequestLogging(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			start := time.Now()

			err := next(c)

			if l != nil {
				l.Info("http request",
					applogger.String("method", req.Method),
					applogger.String("path", req.URL.Path),
					applogger.Int("status", c.Response().Status),
					applogger.Duration("latency_ms", time.Since(start)),
				)
			}
			return err
		}
	}
}
