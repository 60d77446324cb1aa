package internal

import (
	"io/fs"
	"log/slog"

	"github.com/dmitrymomot/rapid/pkg/discover"
	"github.com/dmitrymomot/rapid/pkg/health"
	"github.com/dmitrymomot/rapid/pkg/logger"
)

// Option configures the application.
type Option func(*App)

// WithEnv sets the deployment environment instead of reading RAPID_ENV.
func WithEnv(env string) Option {
	return func(a *App) {
		a.env, a.envErr = ParseEnv(env)
	}
}

// WithConfig adds config overrides. They are merged after every discovered
// and added config source, in the order given.
func WithConfig(cfg ...map[string]any) Option {
	return func(a *App) {
		a.overrides = append(a.overrides, cfg...)
	}
}

// WithLogger sets a custom logger.
// Config-driven logger settings are ignored; log extractors still apply.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
			a.loggerSet = true
		}
	}
}

// WithLogExtractors adds context extractors to the logger,
// e.g. to include the request ID in every entry.
func WithLogExtractors(extractors ...logger.ContextExtractor) Option {
	return func(a *App) {
		a.logExtractors = append(a.logExtractors, extractors...)
	}
}

// WithSource sets the module source used for discovery.
// Defaults to the application root directory.
func WithSource(src discover.Source) Option {
	return func(a *App) {
		if src != nil {
			a.source = src
		}
	}
}

// WithCatalog overlays an in-process catalog of Go values on the root
// directory, so discovery sees both.
func WithCatalog(c *discover.Catalog) Option {
	return func(a *App) {
		if c != nil {
			a.source = discover.Overlay(discover.Dir(a.root), c)
		}
	}
}

// WithBestEffortDiscovery logs and skips modules that fail to load
// instead of aborting startup.
func WithBestEffortDiscovery() Option {
	return func(a *App) {
		a.discovery = discover.BestEffort
	}
}

// WithStrictResolution makes every extension kind fail startup on the first
// resolution error, including models, controllers and routes.
func WithStrictResolution() Option {
	return func(a *App) {
		a.strict = true
	}
}

// WithDatabase injects the database collaborator.
func WithDatabase(db Database) Option {
	return func(a *App) {
		a.db = db
	}
}

// WithoutDatabase skips every database phase, including models.
func WithoutDatabase() Option {
	return func(a *App) {
		a.dbDisabled = true
	}
}

// WithMigrations sets the migrations file system for the default database.
// Defaults to the migrations directory under the root.
func WithMigrations(fsys fs.FS) Option {
	return func(a *App) {
		a.migrations = fsys
	}
}

// WithWebserver injects the webserver collaborator.
func WithWebserver(ws Webserver) Option {
	return func(a *App) {
		a.webserver = ws
	}
}

// WithSocketServer injects the socket collaborator.
func WithSocketServer(s SocketServer) Option {
	return func(a *App) {
		a.sockets = s
	}
}

// WithMiddleware adds application middleware, applied in the order provided.
func WithMiddleware(mw ...Middleware) Option {
	return func(a *App) {
		a.middlewares = append(a.middlewares, mw...)
	}
}

// WithErrorHandler replaces the JSON error renderer.
func WithErrorHandler(h ErrorHandler) Option {
	return func(a *App) {
		a.errorHandler = h
	}
}

// WithHealthCheck adds a named readiness check to /health/ready.
func WithHealthCheck(name string, fn health.CheckFunc) Option {
	return func(a *App) {
		if name != "" && fn != nil {
			a.healthChecks[name] = fn
		}
	}
}
