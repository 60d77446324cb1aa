package db

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
)

// Migrate applies every pending migration and returns the applied file names.
// A missing or empty migrations source is not an error.
func (d *Database) Migrate(ctx context.Context) ([]string, error) {
	provider, err := d.provider()
	if err != nil {
		if errors.Is(err, goose.ErrNoMigrations) {
			d.logger.InfoContext(ctx, "no migrations found")
			return nil, nil
		}
		return nil, err
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return nil, errors.Join(ErrApplyMigrations, err)
	}

	applied := make([]string, 0, len(results))
	for _, r := range results {
		applied = append(applied, r.Source.Path)
		d.logger.InfoContext(ctx, "ran migration",
			slog.String("migration", r.Source.Path),
			slog.Duration("duration", r.Duration),
		)
	}
	if len(applied) == 0 {
		d.logger.InfoContext(ctx, "all migrations are up to date")
	}
	return applied, nil
}

// Rollback reverts the most recently applied migration and returns its name.
// Nothing to roll back is not an error.
func (d *Database) Rollback(ctx context.Context) ([]string, error) {
	provider, err := d.provider()
	if err != nil {
		if errors.Is(err, goose.ErrNoMigrations) {
			return nil, nil
		}
		return nil, err
	}

	r, err := provider.Down(ctx)
	if err != nil {
		if errors.Is(err, goose.ErrNoNextVersion) {
			d.logger.InfoContext(ctx, "no migrations to roll back")
			return nil, nil
		}
		return nil, errors.Join(ErrRollbackMigrations, err)
	}

	d.logger.InfoContext(ctx, "rolled back migration", slog.String("migration", r.Source.Path))
	return []string{r.Source.Path}, nil
}

func (d *Database) provider() (*goose.Provider, error) {
	pool := d.Pool()
	if pool == nil {
		return nil, ErrNotStarted
	}
	if d.migrations == nil {
		return nil, goose.ErrNoMigrations
	}

	store, err := database.NewStore(database.DialectPostgres, d.cfg.MigrationsTable)
	if err != nil {
		return nil, errors.Join(ErrMigrationsSource, err)
	}

	// The sql.DB shares the pool's connections; closing it would close them.
	sqlDB := stdlib.OpenDBFromPool(pool)

	provider, err := goose.NewProvider("", sqlDB, d.migrations, goose.WithStore(store))
	if err != nil {
		if errors.Is(err, goose.ErrNoMigrations) || errors.Is(err, fs.ErrNotExist) {
			return nil, goose.ErrNoMigrations
		}
		return nil, errors.Join(ErrMigrationsSource, err)
	}
	return provider, nil
}
