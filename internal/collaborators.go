package internal

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dmitrymomot/rapid/pkg/db"
	"github.com/dmitrymomot/rapid/pkg/logger"
	"github.com/dmitrymomot/rapid/pkg/socket"
)

// Database is the database collaborator driven by the lifecycle.
type Database interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Drop(ctx context.Context) error
	Migrate(ctx context.Context) ([]string, error)
	Rollback(ctx context.Context) ([]string, error)
}

// Webserver is the HTTP collaborator driven by the lifecycle.
// Start builds the router; Listen binds the port and serves in the
// background.
type Webserver interface {
	Start(ctx context.Context) error
	Listen(ctx context.Context) error
	Stop(ctx context.Context) error
	Use(mw ...Middleware)
	Router() Router
	Port() int
	Handler() http.Handler
	Mount(pattern string, h http.Handler)
}

// SocketServer is the real-time collaborator, started on top of the
// webserver. Channel factories receive it to declare namespaces.
type SocketServer interface {
	Start(ctx context.Context, m socket.Mounter) error
	Stop(ctx context.Context) error
	Namespace(name string) *socket.Namespace
}

// serveErrors is implemented by webservers that report serve failures
// after Listen returned.
type serveErrors interface {
	Errors() <-chan error
}

type collaborator int

const (
	collabDatabase collaborator = iota
	collabWebserver
	collabSockets
)

func (c collaborator) String() string {
	switch c {
	case collabDatabase:
		return "database"
	case collabWebserver:
		return "webserver"
	case collabSockets:
		return "sockets"
	default:
		return fmt.Sprintf("collaborator(%d)", int(c))
	}
}

// configureLogger rebuilds the default logger from the "log" and "sentry"
// config sections. A logger given with WithLogger is kept.
func (a *App) configureLogger() error {
	if a.loggerSet {
		a.logger = logger.Decorate(a.logger, a.logExtractors...)
		return nil
	}
	var cfg logger.Config
	if err := a.config.Decode("log", &cfg); err != nil {
		return err
	}
	if err := a.config.Decode("sentry", &cfg.Sentry); err != nil {
		return err
	}
	if cfg.Sentry.Environment == "" {
		cfg.Sentry.Environment = a.env.String()
	}
	a.logger = logger.ForEnv(a.env.String(), cfg, a.logExtractors...)
	return nil
}

// prepareCollaborators builds the default database and webserver from the
// resolved config unless they were injected.
func (a *App) prepareCollaborators() error {
	dbCfg := db.DefaultConfig()
	if err := a.config.Decode("database", &dbCfg); err != nil {
		return err
	}
	if dbCfg.Disabled {
		a.dbDisabled = true
	}
	if a.db == nil && !a.dbDisabled {
		if a.env.IsTest() {
			dbCfg = dbCfg.ForTest()
		}
		migrations := a.migrations
		if migrations == nil {
			dir := dbCfg.MigrationsDir
			if !filepath.IsAbs(dir) {
				dir = a.Path(dir)
			}
			migrations = os.DirFS(dir)
		}
		a.db = db.New(dbCfg,
			db.WithLogger(a.logger),
			db.WithEnv(a.env.String()),
			db.WithMigrations(migrations),
		)
	}

	if a.webserver == nil && !a.flags.DisableWebserver {
		wsCfg := DefaultWebserverConfig()
		if a.env.IsTest() {
			wsCfg.Port = "auto"
		}
		if err := a.config.Decode("webserver", &wsCfg); err != nil {
			return err
		}
		ws, err := NewHTTPServer(a, wsCfg)
		if err != nil {
			return err
		}
		a.webserver = ws
	}
	return nil
}

// prepareSockets builds the socket server when socket.enabled is set.
func (a *App) prepareSockets(ctx context.Context) error {
	if a.sockets != nil {
		return nil
	}
	var cfg socket.Config
	if err := a.config.Decode("socket", &cfg); err != nil {
		return err
	}
	if !cfg.Enabled {
		return nil
	}

	opts := []socket.Option{socket.WithLogger(a.logger)}
	if cfg.RedisURL != "" {
		broker, err := socket.OpenRedisBroker(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		opts = append(opts, socket.WithBroker(broker))
	}
	a.sockets = socket.NewServer(cfg, opts...)
	// Stop closes the broker even when the socket phase never runs.
	a.markAttempted(collabSockets)
	a.logger.Debug("socket server configured", slog.String("path", cfg.Path))
	return nil
}
