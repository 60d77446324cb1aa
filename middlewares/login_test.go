package middlewares_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/rapid/internal"
	"github.com/dmitrymomot/rapid/middlewares"
)

type account struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

func resolveAccount(_ context.Context, creds middlewares.Credentials) (any, error) {
	switch {
	case creds.Username == "crash":
		return nil, errors.New("user store down")
	case creds.Username == "user" && creds.Password == "secret":
		return &account{ID: 1, Username: "user"}, nil
	}
	var missing *account
	return missing, nil
}

func loginApp(t *testing.T) *internal.App {
	t.Helper()

	return startApp(t, func(r internal.Router) {
		r.POST("/auth/login", func(c internal.Context) error {
			return c.Success(map[string]any{
				"authToken": c.State()[middlewares.AuthTokenKey],
				"user":      c.State()[middlewares.UserKey],
			})
		}, middlewares.MustLogin(resolveAccount))
		r.GET("/auth/secure", whoami, middlewares.HeaderAuth())
	})
}

func postLogin(app *internal.App, body string) *httptest.ResponseRecorder {
	return serve(app, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body)))
}

func TestLogin(t *testing.T) {
	t.Parallel()

	app := loginApp(t)

	t.Run("valid credentials", func(t *testing.T) {
		t.Parallel()

		w := postLogin(app, `{"username":"user","password":"secret"}`)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			AuthToken string  `json:"authToken"`
			User      account `json:"user"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.True(t, strings.HasPrefix(resp.AuthToken, "Bearer "))
		require.Equal(t, account{ID: 1, Username: "user"}, resp.User)

		req := httptest.NewRequest(http.MethodGet, "/api/auth/secure", nil)
		req.Header.Set("Authorization", resp.AuthToken)
		w = serve(app, req)
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "user", w.Body.String())
	})

	t.Run("wrong password", func(t *testing.T) {
		t.Parallel()

		w := postLogin(app, `{"username":"user","password":"nope"}`)
		require.Equal(t, http.StatusUnauthorized, w.Code)
		require.JSONEq(t, `{"error":{"message":"Invalid username or password."}}`, w.Body.String())
	})

	t.Run("missing fields", func(t *testing.T) {
		t.Parallel()

		require.Equal(t, http.StatusBadRequest, postLogin(app, `{"username":"user"}`).Code)
		require.Equal(t, http.StatusBadRequest, postLogin(app, `{"password":"secret"}`).Code)
		require.Equal(t, http.StatusBadRequest, postLogin(app, `{"username":1,"password":"secret"}`).Code)
	})

	t.Run("resolver failure", func(t *testing.T) {
		t.Parallel()

		w := postLogin(app, `{"username":"crash","password":"x"}`)
		require.Equal(t, http.StatusInternalServerError, w.Code)
		require.Contains(t, w.Body.String(), "user store down")
	})

	t.Run("requires a resolver", func(t *testing.T) {
		t.Parallel()

		_, err := middlewares.Login(nil)
		require.ErrorIs(t, err, middlewares.ErrNoResolver)
		require.Panics(t, func() { middlewares.MustLogin(nil) })
	})
}
