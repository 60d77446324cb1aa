package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/rapid/pkg/logger"
)

type ctxKey struct{}

func extractor(ctx context.Context) (slog.Attr, bool) {
	if v, ok := ctx.Value(ctxKey{}).(string); ok {
		return slog.String("request_id", v), true
	}
	return slog.Attr{}, false
}

func TestNew(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(logger.Config{Output: &buf}, extractor, nil)

	ctx := context.WithValue(context.Background(), ctxKey{}, "abc-123")
	log.InfoContext(ctx, "hello", slog.Int("status", 200))
	log.DebugContext(ctx, "hidden")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, "abc-123", line["request_id"])
	assert.EqualValues(t, 200, line["status"])
}

func TestNewTextDebug(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(logger.Config{Output: &buf, Level: "debug", Format: "text"})
	log.Debug("visible")
	assert.Contains(t, buf.String(), "msg=visible")
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.LevelDebug, logger.ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, logger.ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, logger.ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, logger.ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, logger.ParseLevel("loud"))
}

func TestForEnv(t *testing.T) {
	t.Parallel()

	t.Run("test env discards", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger.ForEnv("test", logger.Config{Output: &buf}).Error("nope")
		assert.Zero(t, buf.Len())
	})

	t.Run("development writes", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger.ForEnv("development", logger.Config{Output: &buf}).Info("yes")
		assert.Contains(t, buf.String(), `"msg":"yes"`)
	})
}

func TestNewWithSentryWithoutDSN(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger.NewWithSentry(logger.Config{Output: &buf}).Warn("local only")
	assert.Contains(t, buf.String(), "local only")
}

func TestDecorate(t *testing.T) {
	t.Parallel()

	t.Run("adds extractors to a custom logger", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.Decorate(slog.New(slog.NewJSONHandler(&buf, nil)), extractor)

		log.InfoContext(context.WithValue(context.Background(), ctxKey{}, "req-9"), "hello")

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "req-9", line["request_id"])
	})

	t.Run("does not nest decorators", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.Config{Output: &buf}, extractor)
		log = logger.Decorate(log, func(context.Context) (slog.Attr, bool) {
			return slog.String("app", "demo"), true
		})

		_, ok := log.Handler().(*logger.LogHandlerDecorator)
		require.True(t, ok)

		log.InfoContext(context.WithValue(context.Background(), ctxKey{}, "req-1"), "hello")
		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "req-1", line["request_id"])
		assert.Equal(t, "demo", line["app"])
	})

	t.Run("no extractors keeps the logger", func(t *testing.T) {
		t.Parallel()

		log := logger.NewNope()
		assert.Same(t, log, logger.Decorate(log))
	})
}
