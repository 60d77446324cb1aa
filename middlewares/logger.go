package middlewares

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/dmitrymomot/rapid/internal"
)

// RequestLoggerConfig configures the request logger middleware.
type RequestLoggerConfig struct {
	SkipPaths []string // Exact paths that are never logged
}

// RequestLoggerOption configures RequestLoggerConfig.
type RequestLoggerOption func(*RequestLoggerConfig)

// WithSkipPaths disables logging for the given request paths.
func WithSkipPaths(paths ...string) RequestLoggerOption {
	return func(cfg *RequestLoggerConfig) {
		cfg.SkipPaths = append(cfg.SkipPaths, paths...)
	}
}

// RequestLogger returns middleware that logs one line per request once the
// response is complete. Server errors log at error level, client errors at
// warn level, everything else at info level.
func RequestLogger(opts ...RequestLoggerOption) internal.Middleware {
	cfg := &RequestLoggerConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			r := c.Request()
			if slices.Contains(cfg.SkipPaths, r.URL.Path) {
				return next(c)
			}

			start := time.Now()
			err := next(c)

			status := http.StatusOK
			var size int64
			if rw := c.ResponseWriter(); rw != nil {
				status = rw.Status()
				size = rw.Size()
			}
			if err != nil {
				status = internal.ToHTTPError(err, false).Code
			}

			level := slog.LevelInfo
			switch {
			case status >= http.StatusInternalServerError:
				level = slog.LevelError
			case status >= http.StatusBadRequest:
				level = slog.LevelWarn
			}

			c.Logger().LogAttrs(c.Request().Context(), level, "request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Int64("size", size),
				slog.Duration("duration", time.Since(start)),
			)
			return err
		}
	}
}
