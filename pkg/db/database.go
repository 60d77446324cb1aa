package db

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

const envProduction = "production"

// Database owns the application's PostgreSQL pool and its lifecycle:
// creating the database on first start, migrations, and teardown.
type Database struct {
	cfg        Config
	env        string
	migrations fs.FS
	logger     *slog.Logger

	mu   sync.Mutex
	pool *pgxpool.Pool
}

// Option configures a Database.
type Option func(*Database)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Database) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithEnv sets the application environment. Drops are ignored in production.
func WithEnv(env string) Option {
	return func(d *Database) { d.env = env }
}

// WithMigrations sets the file system holding goose SQL migrations.
func WithMigrations(fsys fs.FS) Option {
	return func(d *Database) { d.migrations = fsys }
}

// New creates a Database. Nothing is opened until Start.
func New(cfg Config, opts ...Option) *Database {
	d := &Database{
		cfg:    cfg,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name returns the database name.
func (d *Database) Name() string { return d.cfg.DatabaseName() }

// Config returns the effective configuration.
func (d *Database) Config() Config { return d.cfg }

// Pool returns the connection pool, or nil before Start.
func (d *Database) Pool() *pgxpool.Pool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pool
}

// Start creates the database if it does not exist and opens the pool.
func (d *Database) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pool != nil {
		return nil
	}

	ok, err := exists(ctx, d.cfg)
	if err != nil {
		return err
	}
	if !ok {
		if err := createDatabase(ctx, d.cfg); err != nil {
			return err
		}
		d.logger.InfoContext(ctx, "created database", slog.String("database", d.Name()))
	}

	pool, err := Connect(ctx, d.cfg)
	if err != nil {
		return err
	}
	d.pool = pool
	d.logger.InfoContext(ctx, "connected to database", slog.String("database", d.Name()))
	return nil
}

// Stop closes the pool. With DropWhenFinished the database is dropped too.
// Calling Stop on a stopped database is a no-op.
func (d *Database) Stop(ctx context.Context) error {
	d.mu.Lock()
	pool := d.pool
	d.pool = nil
	d.mu.Unlock()

	if pool == nil {
		return nil
	}
	pool.Close()
	d.logger.InfoContext(ctx, "disconnected from database", slog.String("database", d.Name()))

	if d.cfg.DropWhenFinished {
		return d.Drop(ctx)
	}
	return nil
}

// Drop deletes the database. It is ignored in production.
func (d *Database) Drop(ctx context.Context) error {
	if d.env == envProduction {
		d.logger.WarnContext(ctx, "ignoring database drop in production environment")
		return nil
	}
	if err := dropDatabase(ctx, d.cfg); err != nil {
		return err
	}
	d.logger.InfoContext(ctx, "dropped database", slog.String("database", d.Name()))
	return nil
}

// Healthcheck pings the database.
func (d *Database) Healthcheck(ctx context.Context) error {
	pool := d.Pool()
	if pool == nil {
		return errors.Join(ErrHealthcheckFailed, ErrNotStarted)
	}
	if err := pool.Ping(ctx); err != nil {
		return errors.Join(ErrHealthcheckFailed, err)
	}
	return nil
}
