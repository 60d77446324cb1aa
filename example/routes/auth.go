// Package routes holds the route modules of the example application.
package routes

import (
	"context"
	"net/http"

	"github.com/dmitrymomot/rapid"
	"github.com/dmitrymomot/rapid/example/controllers"
	"github.com/dmitrymomot/rapid/middlewares"
)

// Auth mounts the login and auth check endpoints under /api/auth.
// It is registered at routes/auth.route.
func Auth(_ context.Context, app *rapid.App) (rapid.RouteResult, error) {
	login := middlewares.MustLogin(func(ctx context.Context, creds middlewares.Credentials) (any, error) {
		users, ok := rapid.ControllerAs[*controllers.UserController](app, "userController")
		if !ok {
			return nil, nil
		}
		return users.Login(ctx, creds)
	})

	g := rapid.NewRouteGroup("/auth")
	g.POST("/login", func(c rapid.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"authToken": c.State()[middlewares.AuthTokenKey],
			"user":      c.State()[middlewares.UserKey],
		})
	}, login)
	g.GET("/secure", func(c rapid.Context) error {
		return c.String(http.StatusOK, "Success")
	}, middlewares.Auth())
	g.GET("/insecure", func(c rapid.Context) error {
		return c.String(http.StatusOK, "Success")
	})
	return rapid.Mount(g), nil
}
