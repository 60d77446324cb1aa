package internal

// Handler declares routes on a router.
// Controllers implementing Handler get their routes attached to the API
// router during the routes phase.
//
// Example:
//
//	type UserController struct {
//	    users *models.Users
//	}
//
//	func (h *UserController) Routes(r rapid.Router) {
//	    r.GET("/users/{id}", h.show)
//	}
type Handler interface {
	Routes(r Router)
}

// HandlerFunc is the signature for route handlers.
// It receives a Context and returns an error.
// Returning a non-nil error triggers the error handler.
type HandlerFunc func(c Context) error

// Middleware wraps a HandlerFunc to add cross-cutting concerns.
// Middleware can inspect/modify the request, short-circuit processing,
// or wrap the response.
//
// Example:
//
//	func Auth(next rapid.HandlerFunc) rapid.HandlerFunc {
//	    return func(c rapid.Context) error {
//	        if c.Header("Authorization") == "" {
//	            return rapid.ErrUnauthorized("missing token")
//	        }
//	        return next(c)
//	    }
//	}
type Middleware func(next HandlerFunc) HandlerFunc

// ErrorHandler handles errors returned from handlers.
type ErrorHandler func(Context, error) error
