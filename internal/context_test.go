package internal_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/rapid/internal"
)

// newTestApp creates an app in the test environment without a database.
func newTestApp(t *testing.T, opts ...internal.Option) *internal.App {
	t.Helper()

	opts = append([]internal.Option{
		internal.WithEnv("test"),
		internal.WithoutDatabase(),
	}, opts...)
	return internal.New(t.TempDir(), opts...)
}

// newTestServer starts the router of a webserver for app without binding a port.
func newTestServer(t *testing.T, app *internal.App, mw ...internal.Middleware) *internal.HTTPServer {
	t.Helper()

	ws, err := internal.NewHTTPServer(app, internal.DefaultWebserverConfig())
	require.NoError(t, err)
	ws.Use(mw...)
	require.NoError(t, ws.Start(context.Background()))
	return ws
}

// requestVia serves req through a handler registered at pattern under /api.
func requestVia(t *testing.T, pattern string, req *http.Request, fn func(c internal.Context) error) *httptest.ResponseRecorder {
	t.Helper()

	ws := newTestServer(t, newTestApp(t))
	ws.Router().Handle(req.Method, pattern, fn)

	w := httptest.NewRecorder()
	ws.Handler().ServeHTTP(w, req)
	return w
}

func TestContextImplementsContext(t *testing.T) {
	t.Parallel()

	type key struct{}
	req := httptest.NewRequest(http.MethodGet, "/api/", nil)
	req = req.WithContext(context.WithValue(req.Context(), key{}, "v"))

	requestVia(t, "/", req, func(c internal.Context) error {
		var ctx context.Context = c
		require.Equal(t, "v", ctx.Value(key{}))
		require.NoError(t, ctx.Err())
		require.NotNil(t, c.App())
		return nil
	})
}

func TestContextParams(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/api/users/7/posts/9", nil)
	requestVia(t, "/users/{user}/posts/{post}", req, func(c internal.Context) error {
		require.Equal(t, "7", c.Param("user"))
		require.Equal(t, map[string]string{"user": "7", "post": "9"}, c.Params())
		return nil
	})
}

func TestContextBody(t *testing.T) {
	t.Parallel()

	t.Run("decodes numbers", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodPost, "/api/", strings.NewReader(`{"n":10,"f":1.5,"s":"x","list":[1,2]}`))
		requestVia(t, "/", req, func(c internal.Context) error {
			body, err := c.Body()
			require.NoError(t, err)
			require.Equal(t, int64(10), body["n"])
			require.InDelta(t, 1.5, body["f"], 0.0001)
			require.Equal(t, "x", body["s"])
			require.Equal(t, []any{int64(1), int64(2)}, body["list"])

			again, err := c.Body()
			require.NoError(t, err)
			require.Equal(t, body, again)
			return nil
		})
	})

	t.Run("empty body", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodPost, "/api/", nil)
		requestVia(t, "/", req, func(c internal.Context) error {
			body, err := c.Body()
			require.NoError(t, err)
			require.Empty(t, body)
			return nil
		})
	})

	t.Run("invalid json is a bad request", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodPost, "/api/", strings.NewReader(`{`))
		w := requestVia(t, "/", req, func(c internal.Context) error {
			_, err := c.Body()
			return err
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
		require.JSONEq(t, `{"error":{"message":"Invalid JSON body."}}`, w.Body.String())
	})

	t.Run("bind", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodPost, "/api/", strings.NewReader(`{"name":"alice","age":30}`))
		requestVia(t, "/", req, func(c internal.Context) error {
			var dst struct {
				Name string `json:"name"`
				Age  int    `json:"age"`
			}
			require.NoError(t, c.Bind(&dst))
			require.Equal(t, "alice", dst.Name)
			require.Equal(t, 30, dst.Age)
			return nil
		})
	})
}

func TestContextStateSharedWithMiddleware(t *testing.T) {
	t.Parallel()

	mw := func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			c.State()["user"] = "alice"
			return next(c)
		}
	}

	ws := newTestServer(t, newTestApp(t), mw)
	ws.Router().GET("/", func(c internal.Context) error {
		return c.Success(c.State())
	})

	w := httptest.NewRecorder()
	ws.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"user":"alice"}`, w.Body.String())
}

func TestContextSuccess(t *testing.T) {
	t.Parallel()

	t.Run("value", func(t *testing.T) {
		t.Parallel()

		w := requestVia(t, "/", httptest.NewRequest(http.MethodGet, "/api/", nil), func(c internal.Context) error {
			return c.Success(map[string]int{"id": 1})
		})
		require.Equal(t, http.StatusOK, w.Code)
		require.Contains(t, w.Header().Get("Content-Type"), "application/json")
		require.JSONEq(t, `{"id":1}`, w.Body.String())
	})

	t.Run("nil", func(t *testing.T) {
		t.Parallel()

		w := requestVia(t, "/", httptest.NewRequest(http.MethodGet, "/api/", nil), func(c internal.Context) error {
			return c.Success(nil)
		})
		require.Equal(t, http.StatusNoContent, w.Code)
		require.Empty(t, w.Body.String())
	})
}

func TestContextCookies(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/api/", nil)
	req.AddCookie(&http.Cookie{Name: "in", Value: "cookie-value"})

	w := requestVia(t, "/", req, func(c internal.Context) error {
		v, err := c.Cookie("in")
		require.NoError(t, err)
		require.Equal(t, "cookie-value", v)

		_, err = c.Cookie("missing")
		require.ErrorIs(t, err, http.ErrNoCookie)

		c.SetCookie("out", "token", 3600)
		return c.NoContent(http.StatusNoContent)
	})

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, "out", cookies[0].Name)
	require.Equal(t, "token", cookies[0].Value)
	require.True(t, cookies[0].HttpOnly)
	require.False(t, cookies[0].Secure)
	require.Equal(t, "/", cookies[0].Path)
}

func TestContextErrorRendering(t *testing.T) {
	t.Parallel()

	t.Run("http error", func(t *testing.T) {
		t.Parallel()

		w := requestVia(t, "/", httptest.NewRequest(http.MethodGet, "/api/", nil), func(c internal.Context) error {
			return c.Error(http.StatusConflict, "Already exists.", internal.WithErrorCode("DUP"))
		})
		require.Equal(t, http.StatusConflict, w.Code)
		require.JSONEq(t, `{"error":{"message":"Already exists.","code":"DUP"}}`, w.Body.String())
	})

	t.Run("written response is kept", func(t *testing.T) {
		t.Parallel()

		w := requestVia(t, "/", httptest.NewRequest(http.MethodGet, "/api/", nil), func(c internal.Context) error {
			_ = c.String(http.StatusAccepted, "partial")
			return internal.ErrInternal("late failure")
		})
		require.Equal(t, http.StatusAccepted, w.Code)
		require.Equal(t, "partial", w.Body.String())
	})
}
