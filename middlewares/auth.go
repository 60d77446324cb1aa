package middlewares

import (
	"context"
	"errors"

	"github.com/dmitrymomot/rapid/internal"
	"github.com/dmitrymomot/rapid/pkg/jwt"
)

// State keys written by the auth middlewares.
const (
	UserKey      = "user"
	AuthTokenKey = "authToken"
)

// DefaultAuthCookie is read by CookieAuth when authCookie is not configured.
const DefaultAuthCookie = "authToken"

// UserLoader turns verified token claims into the user stored in state.
// Use it to replace the signed snapshot with a fresh copy of the model.
type UserLoader func(ctx context.Context, claims map[string]any) (any, error)

// AuthConfig configures the auth middlewares.
type AuthConfig struct {
	Extractor    internal.Extractor
	Loader       UserLoader
	extractorSet bool
}

// AuthOption configures AuthConfig.
type AuthOption func(*AuthConfig)

// WithAuthExtractor sets a custom token extractor chain.
func WithAuthExtractor(ext internal.Extractor) AuthOption {
	return func(cfg *AuthConfig) {
		cfg.Extractor = ext
		cfg.extractorSet = true
	}
}

// WithUserLoader resolves the user from the token claims on every request.
func WithUserLoader(fn UserLoader) AuthOption {
	return func(cfg *AuthConfig) {
		cfg.Loader = fn
	}
}

// HeaderAuth returns middleware that requires a valid token in the
// Authorization header. The verified claims are stored in state under "user".
func HeaderAuth(opts ...AuthOption) internal.Middleware {
	cfg := &AuthConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if !cfg.extractorSet {
		cfg.Extractor = internal.NewExtractor(internal.FromBearerToken())
	}
	return authenticate(cfg)
}

// CookieAuth returns middleware that reads the token from a cookie.
// The cookie name is the authCookie config value, "authToken" by default.
// A leading "Bearer " in the cookie value is ignored.
func CookieAuth(opts ...AuthOption) internal.Middleware {
	cfg := &AuthConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.extractorSet {
		return authenticate(cfg)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			name := c.App().Config().String("authCookie", DefaultAuthCookie)
			withCookie := *cfg
			withCookie.Extractor = internal.NewExtractor(internal.FromBearerCookie(name))
			return authenticate(&withCookie)(next)(c)
		}
	}
}

// Auth is HeaderAuth.
func Auth(opts ...AuthOption) internal.Middleware {
	return HeaderAuth(opts...)
}

func authenticate(cfg *AuthConfig) internal.Middleware {
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			token, ok := cfg.Extractor.Extract(c)
			if !ok || token == "" {
				return internal.ErrUnauthorized("Authentication required.")
			}

			svc, err := c.App().JWT()
			if err != nil {
				return err
			}

			claims, err := svc.VerifyAuthToken(token)
			if err != nil {
				switch {
				case errors.Is(err, jwt.ErrExpiredToken):
					return internal.ErrUnauthorized("Authenticated session expired.", internal.WithError(err))
				default:
					return internal.ErrUnauthorized("Invalid authentication token.", internal.WithError(err))
				}
			}

			var user any = claims
			if cfg.Loader != nil {
				user, err = cfg.Loader(c, claims)
				if err != nil {
					return err
				}
				if user == nil {
					return internal.ErrUnauthorized("Invalid authentication token.")
				}
			}

			c.State()[UserKey] = user
			return next(c)
		}
	}
}

// Claims returns the verified token claims of the request.
// Returns nil when no auth middleware ran or a UserLoader replaced them.
func Claims(c internal.Context) map[string]any {
	claims, _ := internal.StateValue[map[string]any](c, UserKey)
	return claims
}

// User returns the authenticated user stored in state as T.
func User[T any](c internal.Context) (T, bool) {
	return internal.StateValue[T](c, UserKey)
}
