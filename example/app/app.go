// Package app assembles the example application.
package app

import (
	"github.com/dmitrymomot/rapid"
	"github.com/dmitrymomot/rapid/example/actions"
	"github.com/dmitrymomot/rapid/example/channels"
	"github.com/dmitrymomot/rapid/example/controllers"
	"github.com/dmitrymomot/rapid/example/hooks"
	"github.com/dmitrymomot/rapid/example/migrations"
	"github.com/dmitrymomot/rapid/example/models"
	"github.com/dmitrymomot/rapid/example/routes"
	"github.com/dmitrymomot/rapid/example/seeds"
)

// Catalog registers the code modules under the paths Autoload discovers.
func Catalog() *rapid.Catalog {
	return rapid.NewCatalog().
		MustRegister("models/user.model", models.UsersModel).
		MustRegister("models/post.model", models.PostsModel).
		MustRegister("controllers/user.controller", controllers.UserControllerFactory).
		MustRegister("routes/auth.route", routes.Auth).
		MustRegister("actions/posts.action", actions.Posts).
		MustRegister("seeds/users.seed", seeds.Users).
		MustRegister("seeds/posts.seed", seeds.Posts).
		MustRegister("hooks/lifecycle.hook", hooks.Lifecycle).
		MustRegister("channels/chat.channel", channels.Chat)
}

// New creates the example application rooted at root, the directory that
// holds the config files.
func New(root string, opts ...rapid.Option) *rapid.App {
	base := []rapid.Option{
		rapid.WithCatalog(Catalog()),
		rapid.WithMigrations(migrations.FS),
	}
	return rapid.New(root, append(base, opts...)...).Autoload()
}
