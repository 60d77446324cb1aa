package models

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/rapid"
	"github.com/dmitrymomot/rapid/pkg/db"
)

// Post is a row of the posts table.
type Post struct {
	ID        int64     `db:"id"         json:"id"`
	AuthorID  int64     `db:"author_id"  json:"authorId"`
	Title     string    `db:"title"      json:"title"`
	Content   string    `db:"content"    json:"content"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Posts is the posts model.
type Posts struct {
	pool *pgxpool.Pool
}

// PostsModel is the model factory registered at models/post.model.
func PostsModel(_ context.Context, app *rapid.App) (any, error) {
	pool, err := poolOf(app)
	if err != nil {
		return nil, err
	}
	return &Posts{pool: pool}, nil
}

// ModelName implements rapid.ModelNamer.
func (*Posts) ModelName() string { return "Post" }

// ByAuthor returns the posts of a user, newest first.
func (p *Posts) ByAuthor(ctx context.Context, authorID int64) ([]Post, error) {
	rows, err := db.QuerierFrom(ctx, p.pool).Query(ctx,
		`SELECT * FROM posts WHERE author_id = $1 ORDER BY created_at DESC, id DESC`, authorID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[Post])
}

// Create inserts a post.
func (p *Posts) Create(ctx context.Context, authorID int64, title, content string) (*Post, error) {
	rows, err := db.QuerierFrom(ctx, p.pool).Query(ctx,
		`INSERT INTO posts (author_id, title, content) VALUES ($1, $2, $3) RETURNING *`,
		authorID, title, content,
	)
	if err != nil {
		return nil, err
	}
	return pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[Post])
}
