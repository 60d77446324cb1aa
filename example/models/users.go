package models

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/rapid"
	"github.com/dmitrymomot/rapid/pkg/db"
	"github.com/dmitrymomot/rapid/pkg/password"
)

// User is a row of the users table.
type User struct {
	ID        int64     `db:"id"         json:"id"`
	Name      string    `db:"name"       json:"name"`
	Username  string    `db:"username"   json:"username"`
	Password  string    `db:"password"   json:"-"`
	Age       *int32    `db:"age"        json:"age,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Users is the users model.
type Users struct {
	pool *pgxpool.Pool
}

// UsersModel is the model factory registered at models/user.model.
func UsersModel(_ context.Context, app *rapid.App) (any, error) {
	pool, err := poolOf(app)
	if err != nil {
		return nil, err
	}
	return &Users{pool: pool}, nil
}

// ModelName implements rapid.ModelNamer.
func (*Users) ModelName() string { return "User" }

// List returns every user, oldest first.
func (u *Users) List(ctx context.Context) ([]User, error) {
	rows, err := db.QuerierFrom(ctx, u.pool).Query(ctx, `SELECT * FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[User])
}

// ByID returns the user with id, or nil.
func (u *Users) ByID(ctx context.Context, id int64) (*User, error) {
	rows, err := db.QuerierFrom(ctx, u.pool).Query(ctx, `SELECT * FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	return oneOrNil(pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[User]))
}

// ByUsername returns the user with username, or nil.
func (u *Users) ByUsername(ctx context.Context, username string) (*User, error) {
	rows, err := db.QuerierFrom(ctx, u.pool).Query(ctx, `SELECT * FROM users WHERE username = $1`, username)
	if err != nil {
		return nil, err
	}
	return oneOrNil(pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[User]))
}

// Create hashes the plain password and inserts the user.
func (u *Users) Create(ctx context.Context, name, username, plain string) (*User, error) {
	hash, err := password.Hash(plain)
	if err != nil {
		return nil, err
	}
	rows, err := db.QuerierFrom(ctx, u.pool).Query(ctx,
		`INSERT INTO users (name, username, password) VALUES ($1, $2, $3) RETURNING *`,
		name, username, hash,
	)
	if err != nil {
		return nil, err
	}
	return pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[User])
}

func oneOrNil[T any](v *T, err error) (*T, error) {
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return v, err
}
