package middlewares_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/rapid/internal"
	"github.com/dmitrymomot/rapid/middlewares"
)

func whoami(c internal.Context) error {
	claims := middlewares.Claims(c)
	return c.String(http.StatusOK, claims["username"].(string))
}

func TestHeaderAuth(t *testing.T) {
	t.Parallel()

	app := startApp(t, func(r internal.Router) {
		r.GET("/secure", whoami, middlewares.HeaderAuth())
		r.GET("/insecure", ok("Welcome guest!"))
	})

	tests := []struct {
		name    string
		header  string
		status  int
		message string
	}{
		{name: "valid token", header: signToken(t, app, map[string]any{"username": "user"}), status: http.StatusOK},
		{name: "missing token", status: http.StatusUnauthorized, message: "Authentication required."},
		{name: "garbage token", header: "Bearer nope", status: http.StatusUnauthorized, message: "Invalid authentication token."},
		{
			name:    "expired token",
			header:  signToken(t, app, map[string]any{"username": "user", "exp": time.Now().Add(-time.Hour).Unix()}),
			status:  http.StatusUnauthorized,
			message: "Authenticated session expired.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/api/secure", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := serve(app, req)
			require.Equal(t, tt.status, w.Code)
			if tt.message != "" {
				require.JSONEq(t, `{"error":{"message":"`+tt.message+`"}}`, w.Body.String())
			} else {
				require.Equal(t, "user", w.Body.String())
			}
		})
	}

	t.Run("open routes are untouched", func(t *testing.T) {
		t.Parallel()

		w := serve(app, httptest.NewRequest(http.MethodGet, "/api/insecure", nil))
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "Welcome guest!", w.Body.String())
	})

	t.Run("token from another secret", func(t *testing.T) {
		t.Parallel()

		other := startApp(t, func(internal.Router) {})
		req := httptest.NewRequest(http.MethodGet, "/api/secure", nil)
		req.Header.Set("Authorization", signToken(t, other, map[string]any{"username": "user"}))
		require.Equal(t, http.StatusUnauthorized, serve(app, req).Code)
	})
}

func TestAuthUserLoader(t *testing.T) {
	t.Parallel()

	type user struct{ Name string }
	errLookup := errors.New("user store down")

	loader := func(_ context.Context, claims map[string]any) (any, error) {
		switch claims["username"] {
		case "alice":
			return &user{Name: "Alice (fresh)"}, nil
		case "broken":
			return nil, errLookup
		}
		return nil, nil
	}

	app := startApp(t, func(r internal.Router) {
		r.GET("/me", func(c internal.Context) error {
			u, found := middlewares.User[*user](c)
			require.True(t, found)
			require.Nil(t, middlewares.Claims(c))
			return c.String(http.StatusOK, u.Name)
		}, middlewares.HeaderAuth(middlewares.WithUserLoader(loader)))
	})

	request := func(username string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.Header.Set("Authorization", signToken(t, app, map[string]any{"username": username}))
		return serve(app, req)
	}

	w := request("alice")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Alice (fresh)", w.Body.String())

	require.Equal(t, http.StatusUnauthorized, request("deleted").Code)
	require.Equal(t, http.StatusInternalServerError, request("broken").Code)
}

func TestCookieAuth(t *testing.T) {
	t.Parallel()

	t.Run("default cookie with bearer prefix", func(t *testing.T) {
		t.Parallel()

		app := startApp(t, func(r internal.Router) {
			r.GET("/secure", whoami, middlewares.CookieAuth())
		})

		req := httptest.NewRequest(http.MethodGet, "/api/secure", nil)
		req.AddCookie(&http.Cookie{Name: middlewares.DefaultAuthCookie, Value: signToken(t, app, map[string]any{"username": "user"})})
		w := serve(app, req)
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "user", w.Body.String())
	})

	t.Run("configured cookie name", func(t *testing.T) {
		t.Parallel()

		app := startApp(t, func(r internal.Router) {
			r.GET("/secure", whoami, middlewares.CookieAuth())
		}, internal.WithConfig(map[string]any{"authCookie": "session"}))
		token := signToken(t, app, map[string]any{"username": "user"})

		req := httptest.NewRequest(http.MethodGet, "/api/secure", nil)
		req.AddCookie(&http.Cookie{Name: middlewares.DefaultAuthCookie, Value: token})
		require.Equal(t, http.StatusUnauthorized, serve(app, req).Code)

		req = httptest.NewRequest(http.MethodGet, "/api/secure", nil)
		req.AddCookie(&http.Cookie{Name: "session", Value: token})
		require.Equal(t, http.StatusOK, serve(app, req).Code)
	})

	t.Run("header is ignored", func(t *testing.T) {
		t.Parallel()

		app := startApp(t, func(r internal.Router) {
			r.GET("/secure", whoami, middlewares.CookieAuth())
		})

		req := httptest.NewRequest(http.MethodGet, "/api/secure", nil)
		req.Header.Set("Authorization", signToken(t, app, map[string]any{"username": "user"}))
		require.Equal(t, http.StatusUnauthorized, serve(app, req).Code)
	})
}
