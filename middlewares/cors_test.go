package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/rapid/internal"
	"github.com/dmitrymomot/rapid/middlewares"
)

func corsRequest(method, origin string) *http.Request {
	req := httptest.NewRequest(method, "/api/items", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	if method == http.MethodOptions {
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	}
	return req
}

func TestCORS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		opts       []middlewares.CORSOption
		origin     string
		wantOrigin string
		wantCreds  string
	}{
		{name: "any origin by default", origin: "http://example.com", wantOrigin: "*"},
		{name: "no origin header", origin: ""},
		{
			name:       "listed origin is echoed",
			opts:       []middlewares.CORSOption{middlewares.WithAllowOrigins("http://allowed.com")},
			origin:     "http://allowed.com",
			wantOrigin: "http://allowed.com",
		},
		{
			name:   "unlisted origin",
			opts:   []middlewares.CORSOption{middlewares.WithAllowOrigins("http://allowed.com")},
			origin: "http://blocked.com",
		},
		{
			name: "origin func overrides list",
			opts: []middlewares.CORSOption{
				middlewares.WithAllowOrigins("http://static.com"),
				middlewares.WithAllowOriginFunc(func(o string) bool { return o == "http://dynamic.com" }),
			},
			origin: "http://static.com",
		},
		{
			name:       "credentials echo the origin",
			opts:       []middlewares.CORSOption{middlewares.WithAllowCredentials()},
			origin:     "http://example.com",
			wantOrigin: "http://example.com",
			wantCreds:  "true",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app := startApp(t, func(r internal.Router) {
				r.GET("/items", ok("items"))
			}, internal.WithMiddleware(middlewares.CORS(tt.opts...)))

			w := serve(app, corsRequest(http.MethodGet, tt.origin))
			require.Equal(t, http.StatusOK, w.Code)
			require.Equal(t, "items", w.Body.String())
			require.Equal(t, tt.wantOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			require.Equal(t, tt.wantCreds, w.Header().Get("Access-Control-Allow-Credentials"))
		})
	}

	t.Run("preflight", func(t *testing.T) {
		t.Parallel()

		app := startApp(t, func(r internal.Router) {
			r.POST("/items", ok("created"))
		}, internal.WithMiddleware(middlewares.CORS(
			middlewares.WithAllowMethods("GET", "POST"),
			middlewares.WithAllowHeaders("Content-Type", "Authorization"),
			middlewares.WithExposeHeaders("X-Request-ID"),
			middlewares.WithMaxAge(30*time.Minute),
		)))

		w := serve(app, corsRequest(http.MethodOptions, "http://app.example.com"))
		require.Equal(t, http.StatusNoContent, w.Code)
		require.Equal(t, "GET, POST", w.Header().Get("Access-Control-Allow-Methods"))
		require.Equal(t, "Content-Type, Authorization", w.Header().Get("Access-Control-Allow-Headers"))
		require.Equal(t, "X-Request-ID", w.Header().Get("Access-Control-Expose-Headers"))
		require.Equal(t, "1800", w.Header().Get("Access-Control-Max-Age"))
		require.ElementsMatch(t,
			[]string{"Origin", "Access-Control-Request-Method", "Access-Control-Request-Headers"},
			w.Header().Values("Vary"))
	})
}

func TestCORSFromConfig(t *testing.T) {
	t.Parallel()

	t.Run("configured", func(t *testing.T) {
		t.Parallel()

		app := startApp(t, func(r internal.Router) {
			r.GET("/items", ok("items"))
		},
			internal.WithMiddleware(middlewares.CORSFromConfig()),
			internal.WithConfig(map[string]any{"webserver": map[string]any{
				"cors": map[string]any{
					"allowOrigins":     []any{"http://app.example.com"},
					"allowCredentials": true,
					"maxAge":           "1h",
				},
			}}),
		)

		w := serve(app, corsRequest(http.MethodGet, "http://app.example.com"))
		require.Equal(t, "http://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
		require.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

		w = serve(app, corsRequest(http.MethodOptions, "http://app.example.com"))
		require.Equal(t, http.StatusNoContent, w.Code)
		require.Equal(t, "3600", w.Header().Get("Access-Control-Max-Age"))

		w = serve(app, corsRequest(http.MethodGet, "http://evil.example.com"))
		require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("not configured", func(t *testing.T) {
		t.Parallel()

		app := startApp(t, func(r internal.Router) {
			r.GET("/items", ok("items"))
		}, internal.WithMiddleware(middlewares.CORSFromConfig()))

		w := serve(app, corsRequest(http.MethodGet, "http://app.example.com"))
		require.Equal(t, http.StatusOK, w.Code)
		require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}
