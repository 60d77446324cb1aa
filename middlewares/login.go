package middlewares

import (
	"context"
	"errors"
	"reflect"

	"github.com/dmitrymomot/rapid/internal"
)

// ErrNoResolver is returned by Login when called without a resolver.
var ErrNoResolver = errors.New("rapid: login requires a user resolver")

// Credentials are read from the "username" and "password" body fields.
type Credentials struct {
	Username string
	Password string
}

// UserResolver returns the user matching creds, or nil when they are wrong.
type UserResolver func(ctx context.Context, creds Credentials) (any, error)

// Login returns middleware that authenticates the request body credentials.
// On success the signed token ("Bearer " prefixed) is stored in state under
// "authToken" and the user under "user", and the chain continues.
// Wrong credentials end the request with 401. Resolver failures are 500.
func Login(resolve UserResolver) (internal.Middleware, error) {
	if resolve == nil {
		return nil, ErrNoResolver
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			body, err := c.Body()
			if err != nil {
				return err
			}

			username, _ := body["username"].(string)
			password, _ := body["password"].(string)
			if username == "" || password == "" {
				return internal.ErrBadRequest("Username and password are required.")
			}

			user, err := resolve(c, Credentials{Username: username, Password: password})
			if err != nil {
				return internal.ErrInternal(err.Error(), internal.WithError(err))
			}
			if isNil(user) {
				return internal.ErrUnauthorized("Invalid username or password.")
			}

			svc, err := c.App().JWT()
			if err != nil {
				return err
			}
			token, err := svc.ModelToJWT(user)
			if err != nil {
				return err
			}

			c.State()[AuthTokenKey] = token
			c.State()[UserKey] = user
			return next(c)
		}
	}, nil
}

// MustLogin is Login that panics without a resolver.
func MustLogin(resolve UserResolver) internal.Middleware {
	mw, err := Login(resolve)
	if err != nil {
		panic(err)
	}
	return mw
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
