package middlewares_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/rapid/internal"
)

// startApp starts a test app whose API routes are declared by routes.
func startApp(t *testing.T, routes func(r internal.Router), opts ...internal.Option) *internal.App {
	t.Helper()

	opts = append([]internal.Option{internal.WithEnv("test"), internal.WithoutDatabase()}, opts...)
	app := internal.New(t.TempDir(), opts...)
	app.AddRoutes(func(_ context.Context, app *internal.App) (internal.RouteResult, error) {
		routes(app.API())
		return internal.Attached(), nil
	})
	t.Cleanup(func() { _ = app.Stop(context.Background()) })
	require.NoError(t, app.Start(context.Background()))
	return app
}

func serve(app *internal.App, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	app.Webserver().Handler().ServeHTTP(w, req)
	return w
}

// signToken returns a "Bearer " prefixed token for claims.
func signToken(t *testing.T, app *internal.App, claims any) string {
	t.Helper()

	svc, err := app.JWT()
	require.NoError(t, err)
	token, err := svc.ModelToJWT(claims)
	require.NoError(t, err)
	return token
}

func ok(body string) internal.HandlerFunc {
	return func(c internal.Context) error {
		return c.String(http.StatusOK, body)
	}
}
