package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SQLSTATE returned when connecting to a database that does not exist.
const codeInvalidCatalogName = "3D000"

// maintenanceDB is the database used to create and drop application databases.
const maintenanceDB = "postgres"

// Connect opens a connection pool for cfg, retrying with a linear backoff
// while the server is unreachable.
func Connect(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnString())
	if err != nil {
		return nil, errors.Join(ErrFailedToParseDBConfig, err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	if cfg.HealthCheckPeriod > 0 {
		poolConfig.HealthCheckPeriod = cfg.HealthCheckPeriod
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}

	var lastErr error
	attempts := max(cfg.RetryAttempts, 1)
	for i := range attempts {
		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}
		lastErr = err

		// A missing database will not appear by waiting.
		if isMissingDatabase(err) || i == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrFailedToOpenDBConnection, ctx.Err())
		case <-time.After(time.Duration(i+1) * cfg.RetryInterval):
		}
	}

	return nil, errors.Join(ErrFailedToOpenDBConnection, lastErr)
}

// exists reports whether the configured database exists.
func exists(ctx context.Context, cfg Config) (bool, error) {
	conn, err := pgx.Connect(ctx, cfg.ConnString())
	if err != nil {
		if isMissingDatabase(err) {
			return false, nil
		}
		return false, errors.Join(ErrFailedToOpenDBConnection, err)
	}
	defer conn.Close(ctx)

	if err := conn.Ping(ctx); err != nil {
		if isMissingDatabase(err) {
			return false, nil
		}
		return false, errors.Join(ErrFailedToOpenDBConnection, err)
	}
	return true, nil
}

// execMaintenance runs sql against the maintenance database.
func execMaintenance(ctx context.Context, cfg Config, sql string) error {
	conn, err := pgx.Connect(ctx, cfg.connStringFor(maintenanceDB))
	if err != nil {
		return errors.Join(ErrFailedToOpenDBConnection, err)
	}
	defer conn.Close(ctx)

	_, err = conn.Exec(ctx, sql)
	return err
}

func createDatabase(ctx context.Context, cfg Config) error {
	sql := "CREATE DATABASE " + pgx.Identifier{cfg.DatabaseName()}.Sanitize()
	if err := execMaintenance(ctx, cfg, sql); err != nil {
		return errors.Join(ErrCreateDatabase, err)
	}
	return nil
}

func dropDatabase(ctx context.Context, cfg Config) error {
	sql := "DROP DATABASE IF EXISTS " + pgx.Identifier{cfg.DatabaseName()}.Sanitize() + " WITH (FORCE)"
	if err := execMaintenance(ctx, cfg, sql); err != nil {
		return errors.Join(ErrDropDatabase, err)
	}
	return nil
}

func isMissingDatabase(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeInvalidCatalogName
}
