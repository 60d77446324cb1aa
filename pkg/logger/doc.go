// Package logger builds the slog loggers used by rapid applications.
//
// [ForEnv] picks the logger for an environment: a discarding logger in test,
// JSON (or text) output otherwise, fanned out to Sentry when a DSN is set.
//
//	log := logger.ForEnv("production", logger.Config{
//	    Level:  "info",
//	    Sentry: logger.SentryConfig{DSN: dsn},
//	}, requestIDExtractor)
//
// # Context Extractors
//
// A [ContextExtractor] pulls one attribute out of the context on every log
// call, so request scoped values such as request IDs show up in every line:
//
//	requestIDExtractor := func(ctx context.Context) (slog.Attr, bool) {
//	    if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
//	        return slog.String("request_id", id), true
//	    }
//	    return slog.Attr{}, false
//	}
//
// [NewLogHandlerDecorator] adds extractors to any slog.Handler.
//
// # Sentry
//
// Errors create Sentry issues; warnings and errors are stored as Sentry logs.
// A missing DSN or a failed SDK init falls back to local output only.
package logger
