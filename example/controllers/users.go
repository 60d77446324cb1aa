// Package controllers holds the controllers of the example application.
package controllers

import (
	"context"
	"net/http"

	"github.com/dmitrymomot/rapid"
	"github.com/dmitrymomot/rapid/example/models"
	"github.com/dmitrymomot/rapid/middlewares"
	"github.com/dmitrymomot/rapid/pkg/password"
)

// UserController serves the user endpoints and checks credentials.
type UserController struct {
	users *models.Users
	posts *models.Posts
}

// UserControllerFactory is registered at controllers/user.controller.
func UserControllerFactory(_ context.Context, app *rapid.App) (any, error) {
	users, err := models.Resolve[*models.Users](app, "User")
	if err != nil {
		return nil, err
	}
	posts, err := models.Resolve[*models.Posts](app, "Post")
	if err != nil {
		return nil, err
	}
	return &UserController{users: users, posts: posts}, nil
}

// Routes implements rapid.Handler.
func (h *UserController) Routes(r rapid.Router) {
	r.Route("/users", func(r rapid.Router) {
		r.Use(middlewares.Auth())
		r.GET("/", h.list)
		r.GET("/me", h.me)
		r.GET("/{id}", h.show)
		r.GET("/{id}/posts", h.posts)
	})
}

// Login returns the user matching creds, or nil.
func (h *UserController) Login(ctx context.Context, creds middlewares.Credentials) (any, error) {
	user, err := h.users.ByUsername(ctx, creds.Username)
	if err != nil || user == nil {
		return nil, err
	}
	if !password.Verify(creds.Password, user.Password) {
		return nil, nil
	}
	return user, nil
}

func (h *UserController) list(c rapid.Context) error {
	users, err := h.users.List(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

func (h *UserController) me(c rapid.Context) error {
	id, _ := middlewares.Claims(c)["id"].(float64)
	return h.render(c, int64(id))
}

func (h *UserController) show(c rapid.Context) error {
	return h.render(c, rapid.Param[int64](c, "id"))
}

func (h *UserController) render(c rapid.Context, id int64) error {
	user, err := h.users.ByID(c, id)
	if err != nil {
		return err
	}
	if user == nil {
		return rapid.ErrNotFound("User not found.")
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserController) posts(c rapid.Context) error {
	posts, err := h.posts.ByAuthor(c, rapid.Param[int64](c, "id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, posts)
}
