package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config controls log output. It is decoded from the "log" section of the
// application config; Sentry settings come from the "sentry" section.
type Config struct {
	// Level is one of debug, info, warn, error. Defaults to info.
	Level string `yaml:"level"`
	// Format is json or text. Defaults to json.
	Format string `yaml:"format"`

	Sentry SentryConfig `yaml:"-"`

	// Output defaults to stdout.
	Output io.Writer `yaml:"-"`
}

// ParseLevel maps a level name to slog.Level, falling back to info.
func ParseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return l
}

func (c Config) handler() slog.Handler {
	out := c.Output
	if out == nil {
		out = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: ParseLevel(c.Level)}
	if strings.EqualFold(c.Format, "text") {
		return slog.NewTextHandler(out, opts)
	}
	return slog.NewJSONHandler(out, opts)
}

// New creates a logger with optional context extractors.
func New(cfg Config, extractors ...ContextExtractor) *slog.Logger {
	return slog.New(NewLogHandlerDecorator(cfg.handler(), extractors...))
}

// NewNope creates a logger that discards all output.
func NewNope() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ForEnv picks the logger for an application environment: output is
// discarded in test, sent to Sentry as well when a DSN is configured,
// and written to stdout otherwise.
func ForEnv(env string, cfg Config, extractors ...ContextExtractor) *slog.Logger {
	switch {
	case env == "test":
		return NewNope()
	case cfg.Sentry.DSN != "":
		if cfg.Sentry.Environment == "" {
			cfg.Sentry.Environment = env
		}
		return NewWithSentry(cfg, extractors...)
	default:
		return New(cfg, extractors...)
	}
}
