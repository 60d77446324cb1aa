package internal

import (
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Router is the interface route modules use to declare routes.
// It provides HTTP method routing and grouping capabilities.
type Router interface {
	// GET registers a handler for GET requests.
	GET(path string, h HandlerFunc, mw ...Middleware)

	// POST registers a handler for POST requests.
	POST(path string, h HandlerFunc, mw ...Middleware)

	// PUT registers a handler for PUT requests.
	PUT(path string, h HandlerFunc, mw ...Middleware)

	// PATCH registers a handler for PATCH requests.
	PATCH(path string, h HandlerFunc, mw ...Middleware)

	// DELETE registers a handler for DELETE requests.
	DELETE(path string, h HandlerFunc, mw ...Middleware)

	// Handle registers a handler for an arbitrary method.
	Handle(method, path string, h HandlerFunc, mw ...Middleware)

	// Group creates an inline route group.
	// All routes defined inside fn share no common pattern prefix.
	Group(fn func(r Router))

	// Route creates a route group with a pattern prefix.
	// All routes defined inside fn share the pattern prefix.
	Route(pattern string, fn func(r Router))

	// Use appends middleware to the router's middleware stack.
	// It must be called before any route is registered on the same router.
	Use(mw ...Middleware)

	// Mount attaches an http.Handler at the given pattern.
	Mount(pattern string, h http.Handler)
}

// routerAdapter wraps chi.Router to implement the Router interface.
type routerAdapter struct {
	router chi.Router
	app    *App
}

func newRouterAdapter(r chi.Router, app *App) *routerAdapter {
	return &routerAdapter{router: r, app: app}
}

func (r *routerAdapter) GET(path string, h HandlerFunc, mw ...Middleware) {
	r.router.Get(path, r.wrap(h, mw...))
}

func (r *routerAdapter) POST(path string, h HandlerFunc, mw ...Middleware) {
	r.router.Post(path, r.wrap(h, mw...))
}

func (r *routerAdapter) PUT(path string, h HandlerFunc, mw ...Middleware) {
	r.router.Put(path, r.wrap(h, mw...))
}

func (r *routerAdapter) PATCH(path string, h HandlerFunc, mw ...Middleware) {
	r.router.Patch(path, r.wrap(h, mw...))
}

func (r *routerAdapter) DELETE(path string, h HandlerFunc, mw ...Middleware) {
	r.router.Delete(path, r.wrap(h, mw...))
}

func (r *routerAdapter) Handle(method, path string, h HandlerFunc, mw ...Middleware) {
	r.router.Method(strings.ToUpper(method), path, r.wrap(h, mw...))
}

func (r *routerAdapter) Group(fn func(Router)) {
	r.router.Group(func(cr chi.Router) {
		fn(newRouterAdapter(cr, r.app))
	})
}

func (r *routerAdapter) Route(pattern string, fn func(Router)) {
	r.router.Route(pattern, func(cr chi.Router) {
		fn(newRouterAdapter(cr, r.app))
	})
}

func (r *routerAdapter) Use(mw ...Middleware) {
	for _, m := range mw {
		r.router.Use(r.app.adaptMiddleware(m))
	}
}

func (r *routerAdapter) Mount(pattern string, h http.Handler) {
	r.router.Mount(pattern, h)
}

func (r *routerAdapter) wrap(h HandlerFunc, mw ...Middleware) http.HandlerFunc {
	// Last registered = first executed.
	mw = slices.Clone(mw)
	slices.Reverse(mw)
	for _, m := range mw {
		h = m(h)
	}
	return r.app.adaptHandler(h)
}

// adaptHandler converts a HandlerFunc into an http.HandlerFunc.
func (a *App) adaptHandler(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		c := newContext(w, req, a)
		if err := h(c); err != nil {
			a.handleError(c, err)
		}
	}
}

// adaptMiddleware converts a Middleware to chi middleware.
// This adapter allows middleware to be written using the Context interface
// while satisfying chi's http.Handler-based middleware signature.
func (a *App) adaptMiddleware(mw Middleware) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			nextFunc := func(c Context) error {
				next.ServeHTTP(c.Response(), c.Request())
				return nil
			}
			c := newContext(w, r, a)
			if err := mw(nextFunc)(c); err != nil {
				a.handleError(c, err)
			}
		})
	}
}

// handleError renders err unless a response was already written.
func (a *App) handleError(c Context, err error) {
	if c.Written() {
		return
	}
	if a.errorHandler != nil {
		if herr := a.errorHandler(c, err); herr != nil {
			a.logger.ErrorContext(c, "error handler failed", "error", herr)
		}
		return
	}
	_ = DefaultErrorHandler(c, err)
}

// DefaultErrorHandler writes err as the JSON error envelope.
// Server errors are logged; their message is generic in production.
func DefaultErrorHandler(c Context, err error) error {
	httpErr := ToHTTPError(err, c.App().Env().IsProduction())
	if httpErr.RequestID == "" {
		if id, ok := c.Get(RequestIDKey{}).(string); ok {
			httpErr = withRequestID(httpErr, id)
		}
	}
	if httpErr.Code >= http.StatusInternalServerError {
		c.LogError("request failed", "error", err, "status", httpErr.Code)
	}
	return c.JSON(httpErr.Code, httpErr.Response())
}

// RouteKind tells the orchestrator how a route module delivered its routes.
type RouteKind int

const (
	// RouteAttached means the module declared routes directly on the API router.
	RouteAttached RouteKind = iota
	// RouteMounted means the module built a separate RouteGroup to mount.
	RouteMounted
)

// RouteResult is returned by route factories.
type RouteResult struct {
	Group *RouteGroup
	Kind  RouteKind
}

// Attached reports routes that were declared directly on the API router.
func Attached() RouteResult {
	return RouteResult{Kind: RouteAttached}
}

// Mount asks the orchestrator to mount g onto the API router.
func Mount(g *RouteGroup) RouteResult {
	return RouteResult{Kind: RouteMounted, Group: g}
}

// RouteGroup records routes that are replayed onto the API router later.
// It lets route modules build their routes before the webserver exists.
type RouteGroup struct {
	prefix string
	ops    []func(Router)
}

// NewRouteGroup creates a RouteGroup. Routes are placed under prefix, if given.
func NewRouteGroup(prefix ...string) *RouteGroup {
	g := &RouteGroup{}
	if len(prefix) > 0 {
		g.prefix = prefix[0]
	}
	return g
}

// Prefix returns the group's path prefix.
func (g *RouteGroup) Prefix() string { return g.prefix }

// Len returns the number of recorded operations.
func (g *RouteGroup) Len() int { return len(g.ops) }

func (g *RouteGroup) record(op func(Router)) {
	g.ops = append(g.ops, op)
}

func (g *RouteGroup) GET(path string, h HandlerFunc, mw ...Middleware) {
	g.Handle(http.MethodGet, path, h, mw...)
}

func (g *RouteGroup) POST(path string, h HandlerFunc, mw ...Middleware) {
	g.Handle(http.MethodPost, path, h, mw...)
}

func (g *RouteGroup) PUT(path string, h HandlerFunc, mw ...Middleware) {
	g.Handle(http.MethodPut, path, h, mw...)
}

func (g *RouteGroup) PATCH(path string, h HandlerFunc, mw ...Middleware) {
	g.Handle(http.MethodPatch, path, h, mw...)
}

func (g *RouteGroup) DELETE(path string, h HandlerFunc, mw ...Middleware) {
	g.Handle(http.MethodDelete, path, h, mw...)
}

func (g *RouteGroup) Handle(method, path string, h HandlerFunc, mw ...Middleware) {
	mw = slices.Clone(mw)
	g.record(func(r Router) { r.Handle(method, path, h, mw...) })
}

func (g *RouteGroup) Group(fn func(Router)) {
	g.record(func(r Router) { r.Group(fn) })
}

func (g *RouteGroup) Route(pattern string, fn func(Router)) {
	g.record(func(r Router) { r.Route(pattern, fn) })
}

func (g *RouteGroup) Use(mw ...Middleware) {
	mw = slices.Clone(mw)
	g.record(func(r Router) { r.Use(mw...) })
}

func (g *RouteGroup) Mount(pattern string, h http.Handler) {
	g.record(func(r Router) { r.Mount(pattern, h) })
}

// attach replays the recorded operations onto r inside an isolated group,
// so middleware registered on g does not leak to sibling routes.
func (g *RouteGroup) attach(r Router) {
	replay := func(r Router) {
		for _, op := range g.ops {
			op(r)
		}
	}
	if g.prefix != "" && g.prefix != "/" {
		r.Route(g.prefix, replay)
		return
	}
	r.Group(replay)
}
