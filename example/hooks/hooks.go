// Package hooks holds the lifecycle hooks of the example application.
package hooks

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/rapid"
)

// Lifecycle logs where the application listens and when it stops.
var Lifecycle = rapid.HooksOf(rapid.Hooks{
	rapid.RapidDidStart: func(ctx context.Context, app *rapid.App) error {
		if ws := app.Webserver(); ws != nil && ws.Port() > 0 {
			app.Logger().InfoContext(ctx, "example ready", slog.Int("port", ws.Port()))
		}
		return nil
	},
	rapid.RapidWillStop: func(ctx context.Context, app *rapid.App) error {
		app.Logger().InfoContext(ctx, "example stopping")
		return nil
	},
})
