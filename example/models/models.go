// Package models holds the database models of the example application.
package models

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/rapid"
	"github.com/dmitrymomot/rapid/pkg/db"
)

// ErrNoPool is returned when the app database is not the default one.
var ErrNoPool = errors.New("models: database has no connection pool")

func poolOf(app *rapid.App) (*pgxpool.Pool, error) {
	d, err := databaseOf(app)
	if err != nil {
		return nil, err
	}
	return d.Pool(), nil
}

func databaseOf(app *rapid.App) (*db.Database, error) {
	d, ok := app.Database().(*db.Database)
	if !ok || d.Pool() == nil {
		return nil, ErrNoPool
	}
	return d, nil
}

// InTx runs fn in a database transaction. Model calls made with the
// context passed to fn join it.
func InTx(ctx context.Context, app *rapid.App, fn func(ctx context.Context) error) error {
	d, err := databaseOf(app)
	if err != nil {
		return err
	}
	return d.WithTx(ctx, func(ctx context.Context, _ pgx.Tx) error {
		return fn(ctx)
	})
}

// Resolve returns the model registered under name, typed.
func Resolve[T any](app *rapid.App, name string) (T, error) {
	m, ok := rapid.ModelAs[T](app, name)
	if !ok {
		return m, rapid.ErrInternal("model " + name + " is not attached")
	}
	return m, nil
}
