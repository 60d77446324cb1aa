package middlewares

import (
	"errors"

	"github.com/dmitrymomot/rapid/internal"
	"github.com/dmitrymomot/rapid/pkg/socket"
)

// SocketAuth returns a handshake middleware for socket namespaces.
// The token comes from the authToken query parameter or, when absent, from
// the auth cookie. Verified claims are stored on the connection under "user".
// Missing or invalid tokens reject the handshake with socket.ErrUnauthorized.
func SocketAuth(app *internal.App) socket.MiddlewareFunc {
	return func(c *socket.Conn) error {
		r := c.Request()

		token := r.URL.Query().Get(AuthTokenKey)
		if token == "" {
			if ck, err := r.Cookie(app.Config().String("authCookie", DefaultAuthCookie)); err == nil {
				token = ck.Value
			}
		}
		if token == "" {
			return socket.ErrUnauthorized
		}

		svc, err := app.JWT()
		if err != nil {
			return errors.Join(socket.ErrUnauthorized, err)
		}
		claims, err := svc.VerifyAuthToken(token)
		if err != nil {
			return errors.Join(socket.ErrUnauthorized, err)
		}

		c.Set(UserKey, claims)
		return nil
	}
}

// SocketUser returns the claims SocketAuth stored on c.
func SocketUser(c *socket.Conn) map[string]any {
	v, _ := c.Get(UserKey)
	claims, _ := v.(map[string]any)
	return claims
}
