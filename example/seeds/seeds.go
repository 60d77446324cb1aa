// Package seeds holds the seeds of the example application.
package seeds

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/rapid"
	"github.com/dmitrymomot/rapid/example/models"
)

// Users creates the demo users in one transaction. It runs before Posts.
var Users = rapid.NewSeed("users", func(ctx context.Context, app *rapid.App) error {
	users, err := models.Resolve[*models.Users](app, "User")
	if err != nil {
		return err
	}
	return models.InTx(ctx, app, func(ctx context.Context) error {
		for _, u := range []struct{ name, username, password string }{
			{"Jim", "jim", "secret"},
			{"Sarah", "sarah", "pineapple"},
		} {
			if _, err := users.Create(ctx, u.name, u.username, u.password); err != nil {
				return fmt.Errorf("seed user %s: %w", u.username, err)
			}
		}
		return nil
	})
}).WithRunOrder(1)

// Posts creates one post per demo user.
var Posts = rapid.NewSeed("posts", func(ctx context.Context, app *rapid.App) error {
	users, err := models.Resolve[*models.Users](app, "User")
	if err != nil {
		return err
	}
	posts, err := models.Resolve[*models.Posts](app, "Post")
	if err != nil {
		return err
	}

	for username, post := range map[string][2]string{
		"jim":   {"First post", "Hello world!"},
		"sarah": {"Second post", "Lorem ipsum"},
	} {
		u, err := users.ByUsername(ctx, username)
		if err != nil {
			return err
		}
		if u == nil {
			return fmt.Errorf("seed posts: user %s not found", username)
		}
		if _, err := posts.Create(ctx, u.ID, post[0], post[1]); err != nil {
			return err
		}
	}
	return nil
}).WithRunOrder(2)
