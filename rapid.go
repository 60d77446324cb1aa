package rapid

import (
	"io/fs"
	"log/slog"

	"github.com/dmitrymomot/rapid/internal"
	"github.com/dmitrymomot/rapid/middlewares"
	"github.com/dmitrymomot/rapid/pkg/discover"
	"github.com/dmitrymomot/rapid/pkg/health"
	"github.com/dmitrymomot/rapid/pkg/logger"
	"github.com/dmitrymomot/rapid/pkg/validator"
)

// Type aliases - public API
type (
	// App orchestrates the application lifecycle: discovery, config,
	// database, models, actions, controllers, seeds, webserver, sockets,
	// channels and routes.
	App = internal.App

	// Option configures the application.
	Option = internal.Option

	// Env is a deployment environment tag.
	Env = internal.Env

	// State is a lifecycle state of the App.
	State = internal.State

	// Flags gate the optional startup phases.
	Flags = internal.Flags

	// Kind is an extension kind.
	Kind = internal.Kind

	// Router is the interface handlers use to declare routes.
	Router = internal.Router

	// RouteGroup collects routes mounted under a prefix.
	RouteGroup = internal.RouteGroup

	// RouteResult tells the orchestrator what a route factory produced.
	RouteResult = internal.RouteResult

	// Context provides request/response access and helper methods.
	Context = internal.Context

	// Handler declares routes on a router.
	Handler = internal.Handler

	// HandlerFunc is the signature for route handlers.
	HandlerFunc = internal.HandlerFunc

	// Middleware wraps a HandlerFunc to add cross-cutting concerns.
	Middleware = internal.Middleware

	// ErrorHandler handles errors returned from handlers.
	ErrorHandler = internal.ErrorHandler

	// ResponseWriter records the status and size of a response.
	ResponseWriter = internal.ResponseWriter

	// Event is a lifecycle hook event.
	Event = internal.Event

	// HookFunc runs on a lifecycle event.
	HookFunc = internal.HookFunc

	// Hooks maps events to hook functions.
	Hooks = internal.Hooks

	// HookFactory builds Hooks once per Start.
	HookFactory = internal.HookFactory

	// HookDefinition is a literal Hooks value or a HookFactory.
	HookDefinition = internal.HookDefinition

	// ConfigSource is a literal config map or a function producing one.
	ConfigSource = internal.ConfigSource

	// ConfigFunc builds a config fragment.
	ConfigFunc = internal.ConfigFunc

	// ModelFactory creates a model.
	ModelFactory = internal.ModelFactory

	// ControllerFactory creates a controller.
	ControllerFactory = internal.ControllerFactory

	// RouteFactory declares or mounts routes.
	RouteFactory = internal.RouteFactory

	// ActionFactory registers actions.
	ActionFactory = internal.ActionFactory

	// ChannelFactory declares socket namespaces.
	ChannelFactory = internal.ChannelFactory

	// SeedFunc populates the database.
	SeedFunc = internal.SeedFunc

	// Seed is a named seed with an optional run order.
	Seed = internal.Seed

	// ModelNamer overrides the registry name of a model.
	ModelNamer = internal.ModelNamer

	// Named overrides the registry name of a controller.
	Named = internal.Named

	// Action is a named, validated unit of business logic.
	Action = internal.Action

	// ActionHandler runs an action with validated props.
	ActionHandler = internal.ActionHandler

	// ValidateFunc is a custom action validator.
	ValidateFunc = internal.ValidateFunc

	// ActionOption configures an action.
	ActionOption = internal.ActionOption

	// ActionEndpoint exposes an action over HTTP.
	ActionEndpoint = internal.ActionEndpoint

	// Database is the database collaborator.
	Database = internal.Database

	// Webserver is the HTTP collaborator.
	Webserver = internal.Webserver

	// SocketServer is the real-time collaborator.
	SocketServer = internal.SocketServer

	// WebserverConfig is the webserver config section.
	WebserverConfig = internal.WebserverConfig

	// HTTPServer is the default Webserver.
	HTTPServer = internal.HTTPServer

	// HTTPError is an error with an HTTP status code.
	HTTPError = internal.HTTPError

	// HTTPErrorOption configures an HTTPError.
	HTTPErrorOption = internal.HTTPErrorOption

	// ErrorResponse is the JSON error envelope.
	ErrorResponse = internal.ErrorResponse

	// ErrorBody is the payload of ErrorResponse.
	ErrorBody = internal.ErrorBody

	// PhaseError reports the startup phase that failed.
	PhaseError = internal.PhaseError

	// ResolveError reports an extension item that failed to resolve.
	ResolveError = internal.ResolveError

	// Extractor pulls a value from a request, trying sources in order.
	Extractor = internal.Extractor

	// ExtractorSource is a single extraction source.
	ExtractorSource = internal.ExtractorSource

	// ValidationErrors lists the failed fields of a validation.
	ValidationErrors = validator.ValidationErrors

	// FieldError is a single validation failure.
	FieldError = validator.FieldError

	// Catalog registers code modules under virtual paths for discovery.
	Catalog = discover.Catalog

	// ContextExtractor extracts a slog attribute from context.
	ContextExtractor = logger.ContextExtractor
)

// Environments.
const (
	EnvDevelopment = internal.EnvDevelopment
	EnvTest        = internal.EnvTest
	EnvProduction  = internal.EnvProduction
	EnvVar         = internal.EnvVar
)

// Lifecycle states.
const (
	StateCreated              = internal.StateCreated
	StateDiscovering          = internal.StateDiscovering
	StateHooksResolving       = internal.StateHooksResolving
	StateDatabaseClearing     = internal.StateDatabaseClearing
	StateDatabaseStarting     = internal.StateDatabaseStarting
	StateRollingBack          = internal.StateRollingBack
	StateMigrating            = internal.StateMigrating
	StateModelsAttaching      = internal.StateModelsAttaching
	StateActionsAttaching     = internal.StateActionsAttaching
	StateControllersAttaching = internal.StateControllersAttaching
	StateSeeding              = internal.StateSeeding
	StateMiddlewareAttaching  = internal.StateMiddlewareAttaching
	StateWebserverStarting    = internal.StateWebserverStarting
	StateSocketStarting       = internal.StateSocketStarting
	StateChannelsAttaching    = internal.StateChannelsAttaching
	StateRoutesAttaching      = internal.StateRoutesAttaching
	StateWebserverListening   = internal.StateWebserverListening
	StateStarted              = internal.StateStarted
	StateStopping             = internal.StateStopping
	StateStopped              = internal.StateStopped
	StateFailed               = internal.StateFailed
)

// Lifecycle events, in firing order.
const (
	RapidWillStart        = internal.RapidWillStart
	DatabaseWillClear     = internal.DatabaseWillClear
	DatabaseDidClear      = internal.DatabaseDidClear
	DatabaseWillStart     = internal.DatabaseWillStart
	DatabaseDidStart      = internal.DatabaseDidStart
	RollbackWillRun       = internal.RollbackWillRun
	RollbackDidRun        = internal.RollbackDidRun
	MigrationsWillRun     = internal.MigrationsWillRun
	MigrationsDidRun      = internal.MigrationsDidRun
	ModelsWillAttach      = internal.ModelsWillAttach
	ModelsDidAttach       = internal.ModelsDidAttach
	ActionsWillAttach     = internal.ActionsWillAttach
	ActionsDidAttach      = internal.ActionsDidAttach
	ControllersWillAttach = internal.ControllersWillAttach
	ControllersDidAttach  = internal.ControllersDidAttach
	SeedsWillRun          = internal.SeedsWillRun
	SeedsDidRun           = internal.SeedsDidRun
	MiddlewareWillAttach  = internal.MiddlewareWillAttach
	MiddlewareDidAttach   = internal.MiddlewareDidAttach
	WebserverWillStart    = internal.WebserverWillStart
	WebserverDidStart     = internal.WebserverDidStart
	SocketWillStart       = internal.SocketWillStart
	SocketDidStart        = internal.SocketDidStart
	ChannelsWillAttach    = internal.ChannelsWillAttach
	ChannelsDidAttach     = internal.ChannelsDidAttach
	RoutesWillAttach      = internal.RoutesWillAttach
	RoutesDidAttach       = internal.RoutesDidAttach
	WebserverWillListen   = internal.WebserverWillListen
	WebserverDidListen    = internal.WebserverDidListen
	RapidDidStart         = internal.RapidDidStart
	RapidWillStop         = internal.RapidWillStop
	BeforeStop            = internal.BeforeStop
	Stop                  = internal.Stop
	RapidDidStop          = internal.RapidDidStop
)

// Extension kinds.
const (
	KindConfig     = internal.KindConfig
	KindModel      = internal.KindModel
	KindController = internal.KindController
	KindRoute      = internal.KindRoute
	KindAction     = internal.KindAction
	KindSeed       = internal.KindSeed
	KindHook       = internal.KindHook
	KindChannel    = internal.KindChannel
)

// Errors returned by the orchestrator.
var (
	ErrAlreadyStarted    = internal.ErrAlreadyStarted
	ErrInvalidEnv        = internal.ErrInvalidEnv
	ErrDuplicateAction   = internal.ErrDuplicateAction
	ErrInvalidAction     = internal.ErrInvalidAction
	ErrActionNotFound    = internal.ErrActionNotFound
	ErrUnsupportedModule = internal.ErrUnsupportedModule
	ErrUnknownEvent      = internal.ErrUnknownEvent
	ErrInvalidPort       = internal.ErrInvalidPort
	ErrNoPortAvailable   = internal.ErrNoPortAvailable
	ErrWebserverDisabled = internal.ErrWebserverDisabled
	ErrDatabaseDisabled  = internal.ErrDatabaseDisabled
	ErrNotListening      = internal.ErrNotListening
	ErrNotStarted        = internal.ErrNotStarted
)

// Constructors

// New creates an App rooted at root.
//
// The webserver gets the default middleware stack before any middleware
// passed with WithMiddleware: request id, panic recovery, request logging,
// CORS (webserver.cors) and request timeout (webserver.timeout). The
// default logger includes the request id of every request-scoped entry.
//
// Example:
//
//	app := rapid.New(".", rapid.WithCatalog(catalog)).Autoload()
//	if err := app.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
func New(root string, opts ...Option) *App {
	defaults := []Option{
		internal.WithLogExtractors(middlewares.RequestIDExtractor()),
		internal.WithMiddleware(
			middlewares.RequestID(),
			middlewares.Recover(),
			middlewares.RequestLogger(middlewares.WithSkipPaths("/health/live", "/health/ready")),
			middlewares.CORSFromConfig(),
			middlewares.TimeoutFromConfig(),
		),
	}
	return internal.New(root, append(defaults, opts...)...)
}

// Bare creates an App without the default middleware stack.
func Bare(root string, opts ...Option) *App {
	return internal.New(root, opts...)
}

// NewCatalog creates an empty module catalog.
func NewCatalog() *Catalog {
	return discover.NewCatalog()
}

// NewSeed creates a seed.
func NewSeed(name string, fn SeedFunc) Seed {
	return internal.NewSeed(name, fn)
}

// HooksOf wraps a literal Hooks value.
func HooksOf(h Hooks) HookDefinition {
	return internal.HooksOf(h)
}

// HooksFrom wraps a hook factory.
func HooksFrom(fn HookFactory) HookDefinition {
	return internal.HooksFrom(fn)
}

// ConfigValues wraps a literal config map.
func ConfigValues(m map[string]any) ConfigSource {
	return internal.ConfigValues(m)
}

// ConfigFrom wraps a config function.
func ConfigFrom(fn ConfigFunc) ConfigSource {
	return internal.ConfigFrom(fn)
}

// Attached reports routes declared directly on app.API().
func Attached() RouteResult {
	return internal.Attached()
}

// Mount reports a route group to mount on the API router.
func Mount(g *RouteGroup) RouteResult {
	return internal.Mount(g)
}

// NewRouteGroup creates a route group under the joined prefix.
func NewRouteGroup(prefix ...string) *RouteGroup {
	return internal.NewRouteGroup(prefix...)
}

// ParseEvent returns the event with the given name.
func ParseEvent(name string) (Event, error) {
	return internal.ParseEvent(name)
}

// ParseEnv validates an environment tag.
func ParseEnv(s string) (Env, error) {
	return internal.ParseEnv(s)
}

// App options

// WithEnv sets the environment instead of reading RAPID_ENV.
func WithEnv(env string) Option {
	return internal.WithEnv(env)
}

// WithConfig adds config overrides, merged over every other source.
func WithConfig(cfg ...map[string]any) Option {
	return internal.WithConfig(cfg...)
}

// WithLogger sets a fully custom logger.
func WithLogger(l *slog.Logger) Option {
	return internal.WithLogger(l)
}

// WithLogExtractors adds context extractors to the default logger.
func WithLogExtractors(extractors ...ContextExtractor) Option {
	return internal.WithLogExtractors(extractors...)
}

// WithSource sets the module source used for discovery.
func WithSource(src discover.Source) Option {
	return internal.WithSource(src)
}

// WithCatalog adds a catalog of code modules on top of the root directory.
func WithCatalog(c *Catalog) Option {
	return internal.WithCatalog(c)
}

// WithBestEffortDiscovery logs and skips modules that fail to load.
func WithBestEffortDiscovery() Option {
	return internal.WithBestEffortDiscovery()
}

// WithStrictResolution makes every resolution error abort Start.
func WithStrictResolution() Option {
	return internal.WithStrictResolution()
}

// WithDatabase injects the database collaborator.
func WithDatabase(db Database) Option {
	return internal.WithDatabase(db)
}

// WithoutDatabase disables the database and model phases.
func WithoutDatabase() Option {
	return internal.WithoutDatabase()
}

// WithMigrations sets the migration files of the default database.
func WithMigrations(fsys fs.FS) Option {
	return internal.WithMigrations(fsys)
}

// WithWebserver injects the webserver collaborator.
func WithWebserver(ws Webserver) Option {
	return internal.WithWebserver(ws)
}

// WithSocketServer injects the socket server collaborator.
func WithSocketServer(s SocketServer) Option {
	return internal.WithSocketServer(s)
}

// WithMiddleware adds application middleware, applied in the order provided.
func WithMiddleware(mw ...Middleware) Option {
	return internal.WithMiddleware(mw...)
}

// WithErrorHandler replaces the JSON error renderer.
func WithErrorHandler(h ErrorHandler) Option {
	return internal.WithErrorHandler(h)
}

// WithHealthCheck adds a named readiness check.
func WithHealthCheck(name string, fn health.CheckFunc) Option {
	return internal.WithHealthCheck(name, fn)
}

// Action options

// WithSchema validates action props against a JSON schema.
func WithSchema(schema map[string]any) ActionOption {
	return internal.WithSchema(schema)
}

// WithValidator validates action props with a custom function.
func WithValidator(fn ValidateFunc) ActionOption {
	return internal.WithValidator(fn)
}

// WithEndpoint exposes an action on the API router.
func WithEndpoint(method, path string, mw ...Middleware) ActionOption {
	return internal.WithEndpoint(method, path, mw...)
}

// Errors

// DefaultErrorHandler renders errors as the JSON error envelope.
func DefaultErrorHandler(c Context, err error) error {
	return internal.DefaultErrorHandler(c, err)
}

// NewHTTPError creates an HTTPError.
func NewHTTPError(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.NewHTTPError(code, message, opts...)
}

// WithErrorCode sets a machine-readable error code.
func WithErrorCode(code string) HTTPErrorOption {
	return internal.WithErrorCode(code)
}

// WithRequestID sets the request id of the error response.
func WithRequestID(id string) HTTPErrorOption {
	return internal.WithRequestID(id)
}

// WithError attaches the underlying error.
func WithError(err error) HTTPErrorOption {
	return internal.WithError(err)
}

// WithDetails attaches field errors or other details.
func WithDetails(details any) HTTPErrorOption {
	return internal.WithDetails(details)
}

// ErrBadRequest creates a 400 error.
func ErrBadRequest(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrBadRequest(message, opts...)
}

// ErrUnauthorized creates a 401 error.
func ErrUnauthorized(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrUnauthorized(message, opts...)
}

// ErrForbidden creates a 403 error.
func ErrForbidden(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrForbidden(message, opts...)
}

// ErrNotFound creates a 404 error.
func ErrNotFound(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrNotFound(message, opts...)
}

// ErrConflict creates a 409 error.
func ErrConflict(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrConflict(message, opts...)
}

// ErrInternal creates a 500 error.
func ErrInternal(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrInternal(message, opts...)
}

// IsHTTPError reports whether err is or wraps an HTTPError.
func IsHTTPError(err error) bool {
	return internal.IsHTTPError(err)
}

// AsHTTPError returns the HTTPError in err's chain, or nil.
func AsHTTPError(err error) *HTTPError {
	return internal.AsHTTPError(err)
}

// Extractors

// NewExtractor creates an extractor that tries sources in order.
func NewExtractor(sources ...ExtractorSource) Extractor {
	return internal.NewExtractor(sources...)
}

// FromHeader extracts a request header.
func FromHeader(name string) ExtractorSource { return internal.FromHeader(name) }

// FromQuery extracts a query parameter.
func FromQuery(name string) ExtractorSource { return internal.FromQuery(name) }

// FromCookie extracts a cookie value.
func FromCookie(name string) ExtractorSource { return internal.FromCookie(name) }

// FromParam extracts a URL parameter.
func FromParam(name string) ExtractorSource { return internal.FromParam(name) }

// FromForm extracts a form value.
func FromForm(name string) ExtractorSource { return internal.FromForm(name) }

// FromBearerToken extracts the token of the Authorization header.
func FromBearerToken() ExtractorSource { return internal.FromBearerToken() }

// FromBearerCookie extracts a cookie value without its "Bearer " prefix.
func FromBearerCookie(name string) ExtractorSource { return internal.FromBearerCookie(name) }

// FromState extracts a string from request state.
func FromState(key string) ExtractorSource { return internal.FromState(key) }

// Generic helpers

// Param returns a URL parameter converted to T.
func Param[T ~string | ~int | ~int64 | ~float64 | ~bool](c Context, name string) T {
	return internal.Param[T](c, name)
}

// Query returns a query parameter converted to T.
func Query[T ~string | ~int | ~int64 | ~float64 | ~bool](c Context, name string) T {
	return internal.Query[T](c, name)
}

// QueryDefault returns a query parameter converted to T, or defaultValue.
func QueryDefault[T ~string | ~int | ~int64 | ~float64 | ~bool](c Context, name string, defaultValue T) T {
	return internal.QueryDefault(c, name, defaultValue)
}

// ContextValue returns the request value stored under key as T.
func ContextValue[T any](c Context, key any) T {
	return internal.ContextValue[T](c, key)
}

// StateValue returns the state value stored under key as T.
func StateValue[T any](c Context, key string) (T, bool) {
	return internal.StateValue[T](c, key)
}

// ModelAs returns the model registered under name as T.
func ModelAs[T any](a *App, name string) (T, bool) {
	return internal.ModelAs[T](a, name)
}

// ControllerAs returns the controller registered under name as T.
func ControllerAs[T any](a *App, name string) (T, bool) {
	return internal.ControllerAs[T](a, name)
}
