package internal_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/rapid/internal"
	"github.com/dmitrymomot/rapid/pkg/health"
)

func TestWebserverConfigPorts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		port    any
		want    []int
		wantErr bool
	}{
		{name: "unset", port: nil, want: []int{9090}},
		{name: "number", port: 8080, want: []int{8080}},
		{name: "numeric string", port: "3000", want: []int{3000}},
		{name: "auto", port: "auto", want: []int{0}},
		{name: "empty string", port: "", want: []int{9090}},
		{name: "list", port: []any{8080, "8081"}, want: []int{8080, 8081}},
		{name: "int list", port: []int{1, 2}, want: []int{1, 2}},
		{name: "out of range", port: 70000, wantErr: true},
		{name: "garbage", port: "http", wantErr: true},
		{name: "bad type", port: true, wantErr: true},
		{name: "bad list item", port: []any{8080, "x"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := internal.WebserverConfig{Port: tt.port}.Ports()
			if tt.wantErr {
				require.ErrorIs(t, err, internal.ErrInvalidPort)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestHTTPServerListen(t *testing.T) {
	t.Parallel()

	t.Run("requires start", func(t *testing.T) {
		t.Parallel()

		ws, err := internal.NewHTTPServer(newTestApp(t), internal.WebserverConfig{Port: "auto"})
		require.NoError(t, err)
		require.ErrorIs(t, ws.Listen(context.Background()), internal.ErrNotStarted)
		require.Nil(t, ws.Router())
		require.Nil(t, ws.Handler())
	})

	t.Run("auto port serves health and api", func(t *testing.T) {
		t.Parallel()

		ws, err := internal.NewHTTPServer(newTestApp(t), internal.WebserverConfig{Address: "127.0.0.1", Port: "auto"})
		require.NoError(t, err)
		require.NoError(t, ws.Start(context.Background()))
		ws.Router().GET("/ping", func(c internal.Context) error {
			return c.String(http.StatusOK, "pong")
		})
		require.NoError(t, ws.Listen(context.Background()))
		t.Cleanup(func() { _ = ws.Stop(context.Background()) })
		require.ErrorIs(t, ws.Listen(context.Background()), internal.ErrAlreadyStarted)

		base := fmt.Sprintf("http://127.0.0.1:%d", ws.Port())

		resp, err := http.Get(base + "/health/live")
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "OK", string(body))

		resp, err = http.Get(base + "/api/ping")
		require.NoError(t, err)
		body, _ = io.ReadAll(resp.Body)
		resp.Body.Close()
		require.Equal(t, "pong", string(body))
	})

	t.Run("falls back to the next candidate port", func(t *testing.T) {
		t.Parallel()

		busy, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		t.Cleanup(func() { _ = busy.Close() })
		busyPort := busy.Addr().(*net.TCPAddr).Port

		ws, err := internal.NewHTTPServer(newTestApp(t), internal.WebserverConfig{
			Address: "127.0.0.1",
			Port:    []any{busyPort, "auto"},
		})
		require.NoError(t, err)
		require.NoError(t, ws.Start(context.Background()))
		require.NoError(t, ws.Listen(context.Background()))
		t.Cleanup(func() { _ = ws.Stop(context.Background()) })

		require.NotEqual(t, busyPort, ws.Port())
		require.NotZero(t, ws.Port())
	})

	t.Run("no port available", func(t *testing.T) {
		t.Parallel()

		busy, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		t.Cleanup(func() { _ = busy.Close() })

		ws, err := internal.NewHTTPServer(newTestApp(t), internal.WebserverConfig{
			Address: "127.0.0.1",
			Port:    strconv.Itoa(busy.Addr().(*net.TCPAddr).Port),
		})
		require.NoError(t, err)
		require.NoError(t, ws.Start(context.Background()))
		require.ErrorIs(t, ws.Listen(context.Background()), internal.ErrNoPortAvailable)
	})

	t.Run("stop is idempotent", func(t *testing.T) {
		t.Parallel()

		ws, err := internal.NewHTTPServer(newTestApp(t), internal.WebserverConfig{Address: "127.0.0.1", Port: "auto"})
		require.NoError(t, err)
		require.NoError(t, ws.Start(context.Background()))
		require.NoError(t, ws.Listen(context.Background()))

		require.NoError(t, ws.Stop(context.Background()))
		require.NoError(t, ws.Stop(context.Background()))

		// Errors is closed once serving ends.
		_, open := <-ws.Errors()
		require.False(t, open)
	})
}

func TestHTTPServerFallbackHandlers(t *testing.T) {
	t.Parallel()

	ws := newTestServer(t, newTestApp(t))
	ws.Router().GET("/items", func(c internal.Context) error { return c.Success([]int{1}) })

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		ws.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
		require.Equal(t, http.StatusNotFound, w.Code)
		require.JSONEq(t, `{"error":{"message":"Not found."}}`, w.Body.String())
	})

	t.Run("method not allowed", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		ws.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/items", nil))
		require.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})

	t.Run("start twice", func(t *testing.T) {
		t.Parallel()
		require.ErrorIs(t, ws.Start(context.Background()), internal.ErrAlreadyStarted)
	})
}

func TestReadinessChecks(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, internal.WithHealthCheck("cache", func(context.Context) error {
		return errors.New("cache down")
	}))
	ws := newTestServer(t, app)

	w := httptest.NewRecorder()
	ws.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAppHealthcheck(t *testing.T) {
	t.Parallel()

	require.NoError(t, newTestApp(t).Healthcheck(t.Context()))

	app := newTestApp(t, internal.WithHealthCheck("cache", func(context.Context) error {
		return errors.New("cache down")
	}))
	err := app.Healthcheck(t.Context())
	require.ErrorIs(t, err, health.ErrCheckFailed)
	assert.Contains(t, err.Error(), "cache: cache down")
}
