package logger

import (
	"context"
	"log/slog"
)

// ContextExtractor pulls a request-scoped attribute, such as the request id,
// out of the context passed to the logger.
type ContextExtractor func(ctx context.Context) (slog.Attr, bool)

// LogHandlerDecorator adds the attributes of its extractors to every record.
// Extractors run on each call, so values set later in a request are seen.
type LogHandlerDecorator struct {
	next       slog.Handler
	extractors []ContextExtractor
}

// NewLogHandlerDecorator wraps next. Nil extractors are dropped. When next
// is already a decorator the extractors are appended to its own instead of
// nesting a second decorator.
func NewLogHandlerDecorator(next slog.Handler, extractors ...ContextExtractor) slog.Handler {
	var base []ContextExtractor
	if d, ok := next.(*LogHandlerDecorator); ok {
		next, base = d.next, d.extractors
	}

	all := make([]ContextExtractor, 0, len(base)+len(extractors))
	all = append(all, base...)
	for _, ex := range extractors {
		if ex != nil {
			all = append(all, ex)
		}
	}
	return &LogHandlerDecorator{next: next, extractors: all}
}

// Decorate returns l with the extractors added to its handler.
// l is returned unchanged when there are no extractors.
func Decorate(l *slog.Logger, extractors ...ContextExtractor) *slog.Logger {
	if l == nil || len(extractors) == 0 {
		return l
	}
	return slog.New(NewLogHandlerDecorator(l.Handler(), extractors...))
}

func (h *LogHandlerDecorator) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *LogHandlerDecorator) Handle(ctx context.Context, rec slog.Record) error {
	if ctx != nil {
		for _, ex := range h.extractors {
			if attr, ok := ex(ctx); ok {
				rec.AddAttrs(attr)
			}
		}
	}
	return h.next.Handle(ctx, rec)
}

func (h *LogHandlerDecorator) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LogHandlerDecorator{next: h.next.WithAttrs(attrs), extractors: h.extractors}
}

func (h *LogHandlerDecorator) WithGroup(name string) slog.Handler {
	return &LogHandlerDecorator{next: h.next.WithGroup(name), extractors: h.extractors}
}
