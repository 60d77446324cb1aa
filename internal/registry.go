package internal

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"unicode"
)

// Kind is an extension kind.
type Kind int

const (
	KindConfig Kind = iota
	KindModel
	KindController
	KindRoute
	KindAction
	KindSeed
	KindHook
	KindChannel
)

var kindNames = [...]string{
	KindConfig:     "config",
	KindModel:      "model",
	KindController: "controller",
	KindRoute:      "route",
	KindAction:     "action",
	KindSeed:       "seed",
	KindHook:       "hook",
	KindChannel:    "channel",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// BestEffort reports whether resolution errors of this kind are logged and
// skipped by default instead of aborting startup.
func (k Kind) BestEffort() bool {
	switch k {
	case KindModel, KindController, KindRoute:
		return true
	default:
		return false
	}
}

// entry is an added extension item with the name used in logs.
type entry[T any] struct {
	name  string
	value T
}

// ConfigFunc builds a config fragment. It sees the config merged so far.
type ConfigFunc func(app *App) (map[string]any, error)

// ConfigSource is either a literal config map or a function producing one.
type ConfigSource struct {
	Name   string
	values map[string]any
	fn     ConfigFunc
}

// ConfigValues wraps a literal config map.
func ConfigValues(m map[string]any) ConfigSource {
	return ConfigSource{values: m}
}

// ConfigFrom wraps a config function.
func ConfigFrom(fn ConfigFunc) ConfigSource {
	return ConfigSource{fn: fn}
}

func (s ConfigSource) resolve(app *App) (map[string]any, error) {
	if s.fn != nil {
		return s.fn(app)
	}
	return s.values, nil
}

// ModelFactory creates a model. The result is registered under its
// ModelName, or its type name.
type ModelFactory func(ctx context.Context, app *App) (any, error)

// ControllerFactory creates a controller. The result is registered under
// its Name, or its camel-cased type name.
type ControllerFactory func(ctx context.Context, app *App) (any, error)

// RouteFactory declares routes on app.API() and returns Attached(), or
// builds a RouteGroup and returns Mount(group).
type RouteFactory func(ctx context.Context, app *App) (RouteResult, error)

// ActionFactory registers actions through app.Action.
type ActionFactory func(ctx context.Context, app *App) error

// ChannelFactory declares socket namespaces.
type ChannelFactory func(ctx context.Context, app *App, sockets SocketServer) error

// SeedFunc populates the database.
type SeedFunc func(ctx context.Context, app *App) error

// Seed is a named seed with an optional run order.
// Seeds sharing a run order run concurrently.
type Seed struct {
	Name    string
	Run     SeedFunc
	order   int
	ordered bool
}

// NewSeed creates a seed.
func NewSeed(name string, fn SeedFunc) Seed {
	return Seed{Name: name, Run: fn}
}

// WithRunOrder returns a copy of s with an explicit run order.
func (s Seed) WithRunOrder(order int) Seed {
	s.order, s.ordered = order, true
	return s
}

// RunOrder implements runorder.Ordered.
func (s Seed) RunOrder() (int, bool) {
	return s.order, s.ordered
}

// ModelNamer overrides the registry name of a model.
type ModelNamer interface {
	ModelName() string
}

// Named overrides the registry name of a controller.
type Named interface {
	Name() string
}

// AddConfigs appends config sources, merged after discovered config files.
func (a *App) AddConfigs(sources ...ConfigSource) *App {
	for _, s := range sources {
		a.configs = append(a.configs, entry[ConfigSource]{name: s.Name, value: s})
	}
	return a
}

// AddModels appends model factories.
func (a *App) AddModels(factories ...ModelFactory) *App {
	for _, f := range factories {
		a.models = append(a.models, entry[ModelFactory]{value: f})
	}
	return a
}

// AddControllers appends controller factories.
func (a *App) AddControllers(factories ...ControllerFactory) *App {
	for _, f := range factories {
		a.controllers = append(a.controllers, entry[ControllerFactory]{value: f})
	}
	return a
}

// AddRoutes appends route factories.
func (a *App) AddRoutes(factories ...RouteFactory) *App {
	for _, f := range factories {
		a.routes = append(a.routes, entry[RouteFactory]{value: f})
	}
	return a
}

// AddActions appends action factories.
func (a *App) AddActions(factories ...ActionFactory) *App {
	for _, f := range factories {
		a.actionFactories = append(a.actionFactories, entry[ActionFactory]{value: f})
	}
	return a
}

// AddSeeds appends seeds.
func (a *App) AddSeeds(seeds ...Seed) *App {
	a.seeds = append(a.seeds, seeds...)
	return a
}

// AddHooks appends hook definitions.
func (a *App) AddHooks(defs ...HookDefinition) *App {
	a.hookDefs = append(a.hookDefs, defs...)
	return a
}

// AddChannels appends channel factories.
func (a *App) AddChannels(factories ...ChannelFactory) *App {
	for _, f := range factories {
		a.channels = append(a.channels, entry[ChannelFactory]{value: f})
	}
	return a
}

// resolveFailed applies the resolution policy of kind to err.
// It returns nil when the error was logged and should be skipped.
func (a *App) resolveFailed(ctx context.Context, kind Kind, name string, err error) error {
	rerr := &ResolveError{Err: err, Kind: kind, Name: name}
	if a.strict || !kind.BestEffort() {
		return rerr
	}
	a.logger.WarnContext(ctx, "skipping extension",
		slog.String("kind", kind.String()),
		slog.String("name", name),
		slog.Any("error", err),
	)
	return nil
}

// resolveConfig merges the added config sources and overrides, then
// freezes the config.
func (a *App) resolveConfig() error {
	for _, e := range a.configs {
		m, err := e.value.resolve(a)
		if err != nil {
			return &ResolveError{Err: err, Kind: KindConfig, Name: e.name}
		}
		if err := a.config.Merge(m); err != nil {
			return err
		}
	}
	for _, m := range a.overrides {
		if err := a.config.Merge(m); err != nil {
			return err
		}
	}
	a.config.Freeze()
	return nil
}

func (a *App) resolveModels(ctx context.Context) error {
	for _, e := range a.models {
		if e.value == nil {
			continue
		}
		m, err := e.value(ctx, a)
		if err != nil {
			if err := a.resolveFailed(ctx, KindModel, e.name, err); err != nil {
				return err
			}
			continue
		}
		if isNilValue(m) {
			continue
		}
		name := modelName(m)
		a.regMu.Lock()
		if _, dup := a.modelReg[name]; dup {
			a.logger.WarnContext(ctx, "model replaced", slog.String("name", name))
		}
		a.modelReg[name] = m
		a.regMu.Unlock()
		a.logger.DebugContext(ctx, "model attached", slog.String("name", name))
	}
	return nil
}

func (a *App) resolveControllers(ctx context.Context) error {
	for _, e := range a.controllers {
		if e.value == nil {
			continue
		}
		c, err := e.value(ctx, a)
		if err != nil {
			if err := a.resolveFailed(ctx, KindController, e.name, err); err != nil {
				return err
			}
			continue
		}
		if isNilValue(c) {
			continue
		}
		name := controllerName(c)
		a.regMu.Lock()
		if _, dup := a.controllerReg[name]; dup {
			a.logger.WarnContext(ctx, "controller replaced", slog.String("name", name))
		} else {
			a.controllerOrder = append(a.controllerOrder, name)
		}
		a.controllerReg[name] = c
		a.regMu.Unlock()
		a.logger.DebugContext(ctx, "controller attached", slog.String("name", name))
	}
	return nil
}

func (a *App) resolveActions(ctx context.Context) error {
	for _, e := range a.actionFactories {
		if e.value == nil {
			continue
		}
		if err := e.value(ctx, a); err != nil {
			if err := a.resolveFailed(ctx, KindAction, e.name, err); err != nil {
				return err
			}
		}
	}
	a.logger.DebugContext(ctx, "actions attached", slog.Int("count", len(a.Actions())))
	return nil
}

// resolveRoutes attaches route factories, then controllers implementing
// Handler, then action endpoints.
func (a *App) resolveRoutes(ctx context.Context) error {
	api := a.API()
	if api == nil {
		return ErrWebserverDisabled
	}

	for _, e := range a.routes {
		if e.value == nil {
			continue
		}
		err := guard(func() error {
			res, err := e.value(ctx, a)
			if err != nil {
				return err
			}
			if res.Kind == RouteMounted && res.Group != nil {
				res.Group.attach(api)
			}
			return nil
		})
		if err != nil {
			if err := a.resolveFailed(ctx, KindRoute, e.name, err); err != nil {
				return err
			}
		}
	}

	a.regMu.RLock()
	handlers := make([]entry[Handler], 0, len(a.controllerOrder))
	for _, name := range a.controllerOrder {
		if h, ok := a.controllerReg[name].(Handler); ok {
			handlers = append(handlers, entry[Handler]{name: name, value: h})
		}
	}
	a.regMu.RUnlock()
	for _, h := range handlers {
		if err := guard(func() error { h.value.Routes(api); return nil }); err != nil {
			if err := a.resolveFailed(ctx, KindController, h.name, err); err != nil {
				return err
			}
		}
	}

	return guard(func() error {
		a.attachActionEndpoints(api)
		return nil
	})
}

// guard runs fn and turns a panic into an error. Router registration
// panics on conflicting patterns, so route modules run under it.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = fmt.Errorf("%w: %w", ErrPanic, e)
				return
			}
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return fn()
}

func (a *App) resolveChannels(ctx context.Context) error {
	for _, e := range a.channels {
		if e.value == nil {
			continue
		}
		if err := e.value(ctx, a, a.sockets); err != nil {
			if err := a.resolveFailed(ctx, KindChannel, e.name, err); err != nil {
				return err
			}
		}
	}
	return nil
}

func modelName(v any) string {
	if n, ok := v.(ModelNamer); ok && n.ModelName() != "" {
		return n.ModelName()
	}
	return typeName(v)
}

func controllerName(v any) string {
	if n, ok := v.(Named); ok && n.Name() != "" {
		return n.Name()
	}
	return camelCase(typeName(v))
}

func typeName(v any) string {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}

// camelCase lowercases the leading run of upper-case letters:
// UserController -> userController, HTTPClient -> httpClient, API -> api.
func camelCase(s string) string {
	runes := []rune(s)
	n := 0
	for n < len(runes) && unicode.IsUpper(runes[n]) {
		n++
	}
	if n > 1 && n < len(runes) {
		// The last upper-case letter starts the next word.
		n--
	}
	for i := range n {
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}

func isNilValue(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
