package internal

import (
	"context"
	"io/fs"
	"log/slog"
	"maps"
	"path/filepath"
	"sync"

	"github.com/dmitrymomot/rapid/pkg/config"
	"github.com/dmitrymomot/rapid/pkg/discover"
	"github.com/dmitrymomot/rapid/pkg/health"
	"github.com/dmitrymomot/rapid/pkg/jwt"
	"github.com/dmitrymomot/rapid/pkg/logger"
)

// App is the lifecycle orchestrator.
// It owns the application root, environment, config, the added extension
// items, the resolved registries and the collaborators started for it.
// Every factory, hook and middleware receives the App explicitly; nothing
// is stored in package state, so several Apps can run in one process.
type App struct {
	root   string
	env    Env
	envErr error

	logger        *slog.Logger
	loggerSet     bool
	logExtractors []logger.ContextExtractor

	config     *config.Config
	overrides  []map[string]any
	source     discover.Source
	discoverer *discover.Discoverer
	discovery  discover.Policy
	strict     bool

	mu    sync.Mutex
	state State
	flags Flags

	configs         []entry[ConfigSource]
	models          []entry[ModelFactory]
	controllers     []entry[ControllerFactory]
	routes          []entry[RouteFactory]
	actionFactories []entry[ActionFactory]
	seeds           []Seed
	hookDefs        []HookDefinition
	channels        []entry[ChannelFactory]

	regMu           sync.RWMutex
	modelReg        map[string]any
	controllerReg   map[string]any
	controllerOrder []string
	actions         map[string]*Action
	actionOrder     []string

	hooks []Hooks

	db         Database
	dbDisabled bool
	migrations fs.FS
	webserver  Webserver
	sockets    SocketServer
	attempted  map[collaborator]bool
	tornDown   map[collaborator]bool
	stopErr    error

	middlewares  []Middleware
	errorHandler ErrorHandler
	healthChecks health.Checks

	jwtOnce sync.Once
	jwtSvc  *jwt.Service
	jwtErr  error
}

// New creates an App rooted at root.
// The environment is read from RAPID_ENV unless WithEnv is given; an invalid
// value makes Start fail with ErrInvalidEnv.
func New(root string, opts ...Option) *App {
	if root == "" {
		root = "."
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}

	env, envErr := EnvFromOS()
	a := &App{
		root:          root,
		env:           env,
		envErr:        envErr,
		config:        config.New(),
		modelReg:      make(map[string]any),
		controllerReg: make(map[string]any),
		actions:       make(map[string]*Action),
		attempted:     make(map[collaborator]bool),
		tornDown:      make(map[collaborator]bool),
		healthChecks:  make(health.Checks),
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.envErr != nil && a.env == "" {
		a.env = EnvDevelopment
	}
	if a.logger == nil {
		a.logger = logger.ForEnv(a.env.String(), logger.Config{}, a.logExtractors...)
	}
	if a.source == nil {
		a.source = discover.Dir(a.root)
	}
	a.discoverer = discover.New(a.source,
		discover.WithPolicy(a.discovery),
		discover.WithLogger(a.logger),
	)
	return a
}

// Root returns the application root directory.
func (a *App) Root() string { return a.root }

// Path joins elements onto the application root.
func (a *App) Path(elem ...string) string {
	return filepath.Join(append([]string{a.root}, elem...)...)
}

// Env returns the deployment environment.
func (a *App) Env() Env { return a.env }

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger { return a.logger }

// Config returns the resolved configuration.
// It is read-only once discovery has finished.
func (a *App) Config() *config.Config { return a.config }

// Source returns the module source used for discovery.
func (a *App) Source() discover.Source { return a.source }

// State returns the current lifecycle state.
func (a *App) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Database returns the database collaborator, or nil when disabled.
func (a *App) Database() Database { return a.db }

// Webserver returns the webserver collaborator, or nil when disabled.
func (a *App) Webserver() Webserver { return a.webserver }

// SocketServer returns the socket collaborator, or nil when sockets are off.
func (a *App) SocketServer() SocketServer { return a.sockets }

// API returns the router mounted under /api.
// It is nil until the webserver has started.
func (a *App) API() Router {
	if a.webserver == nil {
		return nil
	}
	return a.webserver.Router()
}

// Use appends application middleware. It is attached to the webserver
// during the middleware phase, before any route.
func (a *App) Use(mw ...Middleware) *App {
	a.middlewares = append(a.middlewares, mw...)
	return a
}

// Models returns a copy of the model registry.
func (a *App) Models() map[string]any {
	a.regMu.RLock()
	defer a.regMu.RUnlock()
	return maps.Clone(a.modelReg)
}

// Model returns the model registered under name.
func (a *App) Model(name string) (any, bool) {
	a.regMu.RLock()
	defer a.regMu.RUnlock()
	m, ok := a.modelReg[name]
	return m, ok
}

// Controllers returns a copy of the controller registry.
func (a *App) Controllers() map[string]any {
	a.regMu.RLock()
	defer a.regMu.RUnlock()
	return maps.Clone(a.controllerReg)
}

// Controller returns the controller registered under name.
func (a *App) Controller(name string) (any, bool) {
	a.regMu.RLock()
	defer a.regMu.RUnlock()
	c, ok := a.controllerReg[name]
	return c, ok
}

// JWT returns the token service. The secret comes from jwt.secret in config
// or from <root>/.jwtsecret, which is created on first use.
func (a *App) JWT() (*jwt.Service, error) {
	a.jwtOnce.Do(func() {
		secret := a.config.String("jwt.secret", "")
		if secret == "" {
			s, err := jwt.SecretFromFile(a.Path(".jwtsecret"))
			if err != nil {
				a.jwtErr = err
				return
			}
			secret = s
		}
		var opts []jwt.Option
		if ttl := a.config.Duration("jwt.ttl", 0); ttl > 0 {
			opts = append(opts, jwt.WithTTL(ttl))
		}
		a.jwtSvc, a.jwtErr = jwt.NewFromString(secret, opts...)
	})
	return a.jwtSvc, a.jwtErr
}

// Healthcheck runs the readiness checks once and returns
// health.ErrCheckFailed naming every check that failed.
func (a *App) Healthcheck(ctx context.Context) error {
	return health.Run(ctx, a.healthChecksFor(), health.WithLogger(a.logger)).Err()
}

// healthChecksFor collects the readiness checks of the running collaborators.
func (a *App) healthChecksFor() health.Checks {
	checks := maps.Clone(a.healthChecks)
	if hc, ok := a.db.(healthchecker); ok && a.db != nil {
		checks["database"] = hc.Healthcheck
	}
	if hc, ok := a.sockets.(healthchecker); ok && a.sockets != nil {
		checks["sockets"] = hc.Healthcheck
	}
	return checks
}

type healthchecker interface {
	Healthcheck(ctx context.Context) error
}
