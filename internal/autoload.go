package internal

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"reflect"
	"strings"

	"github.com/dmitrymomot/rapid/pkg/config"
	"github.com/dmitrymomot/rapid/pkg/discover"
)

// Default discovery patterns, relative to the application root.
var (
	ModelPatterns      = []string{"models/**.model"}
	ControllerPatterns = []string{"controllers/**.controller"}
	RoutePatterns      = []string{"routes/**.route", "routers/**.router"}
	ActionPatterns     = []string{"actions/**.action"}
	SeedPatterns       = []string{"seeds/**.seed"}
	HookPatterns       = []string{"hooks/**.hook"}
	ChannelPatterns    = []string{"channels/**.channel"}
)

// Autoload enqueues discovery of every extension kind with the default
// patterns. Nothing is loaded until Start.
func (a *App) Autoload() *App {
	return a.DiscoverConfigs().
		DiscoverModels(ModelPatterns...).
		DiscoverControllers(ControllerPatterns...).
		DiscoverRoutes(RoutePatterns...).
		DiscoverActions(ActionPatterns...).
		DiscoverSeeds(SeedPatterns...).
		DiscoverHooks(HookPatterns...).
		DiscoverChannels(ChannelPatterns...)
}

// DiscoverConfigs enqueues config files. Without patterns it loads
// config/config.default.* and then config/config.<env>.*, falling back to
// config/config.* when no environment file exists.
func (a *App) DiscoverConfigs(patterns ...string) *App {
	if len(patterns) > 0 {
		a.discoverer.Enqueue(patterns, a.onConfig)
		return a
	}

	envMatched := false
	a.discoverer.Enqueue([]string{"config/config.default.*"}, a.onConfig)
	a.discoverer.Enqueue([]string{"config/config." + a.env.String() + ".*"}, func(ctx context.Context, m discover.Module) error {
		envMatched = true
		return a.onConfig(ctx, m)
	})
	a.discoverer.Enqueue([]string{"config/config.*"}, func(ctx context.Context, m discover.Module) error {
		if envMatched {
			return nil
		}
		base := path.Base(m.Path)
		if base != "config"+path.Ext(base) || !config.Supported(base) {
			return nil
		}
		return a.onConfig(ctx, m)
	})
	return a
}

// DiscoverModels enqueues model modules.
func (a *App) DiscoverModels(patterns ...string) *App {
	a.discoverer.Enqueue(patterns, a.onModel)
	return a
}

// DiscoverControllers enqueues controller modules.
func (a *App) DiscoverControllers(patterns ...string) *App {
	a.discoverer.Enqueue(patterns, a.onController)
	return a
}

// DiscoverRoutes enqueues route modules.
func (a *App) DiscoverRoutes(patterns ...string) *App {
	a.discoverer.Enqueue(patterns, a.onRoute)
	return a
}

// DiscoverActions enqueues action modules.
func (a *App) DiscoverActions(patterns ...string) *App {
	a.discoverer.Enqueue(patterns, a.onAction)
	return a
}

// DiscoverSeeds enqueues seed modules.
func (a *App) DiscoverSeeds(patterns ...string) *App {
	a.discoverer.Enqueue(patterns, a.onSeed)
	return a
}

// DiscoverHooks enqueues hook modules.
func (a *App) DiscoverHooks(patterns ...string) *App {
	a.discoverer.Enqueue(patterns, a.onHook)
	return a
}

// DiscoverChannels enqueues channel modules.
func (a *App) DiscoverChannels(patterns ...string) *App {
	a.discoverer.Enqueue(patterns, a.onChannel)
	return a
}

func unsupported(kind Kind, m discover.Module) error {
	return &ResolveError{
		Err:  fmt.Errorf("%w: %T", ErrUnsupportedModule, m.Value),
		Kind: kind,
		Name: m.Path,
	}
}

func (a *App) discovered(ctx context.Context, kind Kind, m discover.Module) {
	a.logger.DebugContext(ctx, "module discovered",
		slog.String("kind", kind.String()),
		slog.String("path", m.Path),
	)
}

// onConfig merges a discovered config module right away, so later
// config functions see it.
func (a *App) onConfig(ctx context.Context, m discover.Module) error {
	var values map[string]any
	switch v := m.Value.(type) {
	case map[string]any:
		values = v
	case ConfigSource:
		res, err := v.resolve(a)
		if err != nil {
			return &ResolveError{Err: err, Kind: KindConfig, Name: m.Path}
		}
		values = res
	case ConfigFunc:
		res, err := v(a)
		if err != nil {
			return &ResolveError{Err: err, Kind: KindConfig, Name: m.Path}
		}
		values = res
	case func(*App) (map[string]any, error):
		res, err := v(a)
		if err != nil {
			return &ResolveError{Err: err, Kind: KindConfig, Name: m.Path}
		}
		values = res
	default:
		return unsupported(KindConfig, m)
	}
	a.discovered(ctx, KindConfig, m)
	return a.config.Merge(values)
}

func (a *App) onModel(ctx context.Context, m discover.Module) error {
	var f ModelFactory
	switch v := m.Value.(type) {
	case ModelFactory:
		f = v
	case func(context.Context, *App) (any, error):
		f = v
	default:
		if isFunc(v) {
			return unsupported(KindModel, m)
		}
		f = func(context.Context, *App) (any, error) { return v, nil }
	}
	a.models = append(a.models, entry[ModelFactory]{name: m.Path, value: f})
	a.discovered(ctx, KindModel, m)
	return nil
}

func (a *App) onController(ctx context.Context, m discover.Module) error {
	var f ControllerFactory
	switch v := m.Value.(type) {
	case ControllerFactory:
		f = v
	case func(context.Context, *App) (any, error):
		f = v
	default:
		if isFunc(v) {
			return unsupported(KindController, m)
		}
		f = func(context.Context, *App) (any, error) { return v, nil }
	}
	a.controllers = append(a.controllers, entry[ControllerFactory]{name: m.Path, value: f})
	a.discovered(ctx, KindController, m)
	return nil
}

func (a *App) onRoute(ctx context.Context, m discover.Module) error {
	var f RouteFactory
	switch v := m.Value.(type) {
	case RouteFactory:
		f = v
	case func(context.Context, *App) (RouteResult, error):
		f = v
	case *RouteGroup:
		f = func(context.Context, *App) (RouteResult, error) { return Mount(v), nil }
	case func(Router):
		f = func(_ context.Context, app *App) (RouteResult, error) {
			v(app.API())
			return Attached(), nil
		}
	default:
		return unsupported(KindRoute, m)
	}
	a.routes = append(a.routes, entry[RouteFactory]{name: m.Path, value: f})
	a.discovered(ctx, KindRoute, m)
	return nil
}

func (a *App) onAction(ctx context.Context, m discover.Module) error {
	var f ActionFactory
	switch v := m.Value.(type) {
	case ActionFactory:
		f = v
	case func(context.Context, *App) error:
		f = v
	default:
		return unsupported(KindAction, m)
	}
	a.actionFactories = append(a.actionFactories, entry[ActionFactory]{name: m.Path, value: f})
	a.discovered(ctx, KindAction, m)
	return nil
}

func (a *App) onSeed(ctx context.Context, m discover.Module) error {
	var s Seed
	switch v := m.Value.(type) {
	case Seed:
		s = v
	case SeedFunc:
		s = NewSeed("", v)
	case func(context.Context, *App) error:
		s = NewSeed("", v)
	default:
		return unsupported(KindSeed, m)
	}
	if s.Name == "" {
		s.Name = moduleName(m.Path)
	}
	a.seeds = append(a.seeds, s)
	a.discovered(ctx, KindSeed, m)
	return nil
}

func (a *App) onHook(ctx context.Context, m discover.Module) error {
	var d HookDefinition
	switch v := m.Value.(type) {
	case HookDefinition:
		d = v
	case Hooks:
		d = HooksOf(v)
	case HookFactory:
		d = HooksFrom(v)
	case func(context.Context, *App) (Hooks, error):
		d = HooksFrom(v)
	default:
		return unsupported(KindHook, m)
	}
	if d.Name == "" {
		d.Name = moduleName(m.Path)
	}
	a.hookDefs = append(a.hookDefs, d)
	a.discovered(ctx, KindHook, m)
	return nil
}

func (a *App) onChannel(ctx context.Context, m discover.Module) error {
	var f ChannelFactory
	switch v := m.Value.(type) {
	case ChannelFactory:
		f = v
	case func(context.Context, *App, SocketServer) error:
		f = v
	default:
		return unsupported(KindChannel, m)
	}
	a.channels = append(a.channels, entry[ChannelFactory]{name: m.Path, value: f})
	a.discovered(ctx, KindChannel, m)
	return nil
}

// moduleName strips the directory and kind extension from a module path:
// "seeds/users.seed" -> "users".
func moduleName(p string) string {
	base := path.Base(p)
	return strings.TrimSuffix(base, path.Ext(base))
}

func isFunc(v any) bool {
	return v != nil && reflect.TypeOf(v).Kind() == reflect.Func
}
