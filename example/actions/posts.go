// Package actions holds the actions of the example application.
package actions

import (
	"context"
	"net/http"

	"github.com/dmitrymomot/rapid"
	"github.com/dmitrymomot/rapid/example/models"
	"github.com/dmitrymomot/rapid/middlewares"
)

var createPostSchema = map[string]any{
	"type":     "object",
	"required": []any{"title", "content"},
	"properties": map[string]any{
		"title":   map[string]any{"type": "string", "minLength": 2},
		"content": map[string]any{"type": "string", "minLength": 1},
	},
}

// Posts registers the post actions. It is registered at actions/posts.action.
func Posts(_ context.Context, app *rapid.App) error {
	_, err := app.Action("createPost", func(ctx context.Context, props map[string]any) (any, error) {
		posts, err := models.Resolve[*models.Posts](app, "Post")
		if err != nil {
			return nil, err
		}
		claims, _ := props[middlewares.UserKey].(map[string]any)
		authorID, _ := claims["id"].(float64)
		if authorID == 0 {
			return nil, rapid.ErrUnauthorized("Authentication required.")
		}
		return posts.Create(ctx, int64(authorID), props["title"].(string), props["content"].(string))
	},
		rapid.WithSchema(createPostSchema),
		rapid.WithEndpoint(http.MethodPost, "/posts", middlewares.Auth()),
	)
	return err
}
