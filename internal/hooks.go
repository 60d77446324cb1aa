package internal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/rapid/pkg/runorder"
)

// Event is a lifecycle event emitted to hooks.
type Event int

// Events in firing order.
const (
	RapidWillStart Event = iota
	DatabaseWillClear
	DatabaseDidClear
	DatabaseWillStart
	DatabaseDidStart
	RollbackWillRun
	RollbackDidRun
	MigrationsWillRun
	MigrationsDidRun
	ModelsWillAttach
	ModelsDidAttach
	ActionsWillAttach
	ActionsDidAttach
	ControllersWillAttach
	ControllersDidAttach
	SeedsWillRun
	SeedsDidRun
	MiddlewareWillAttach
	MiddlewareDidAttach
	WebserverWillStart
	WebserverDidStart
	SocketWillStart
	SocketDidStart
	ChannelsWillAttach
	ChannelsDidAttach
	RoutesWillAttach
	RoutesDidAttach
	WebserverWillListen
	WebserverDidListen
	RapidDidStart
	RapidWillStop
	BeforeStop
	Stop
	RapidDidStop
)

var eventNames = [...]string{
	RapidWillStart:        "rapidWillStart",
	DatabaseWillClear:     "databaseWillClear",
	DatabaseDidClear:      "databaseDidClear",
	DatabaseWillStart:     "databaseWillStart",
	DatabaseDidStart:      "databaseDidStart",
	RollbackWillRun:       "rollbackWillRun",
	RollbackDidRun:        "rollbackDidRun",
	MigrationsWillRun:     "migrationsWillRun",
	MigrationsDidRun:      "migrationsDidRun",
	ModelsWillAttach:      "modelsWillAttach",
	ModelsDidAttach:       "modelsDidAttach",
	ActionsWillAttach:     "actionsWillAttach",
	ActionsDidAttach:      "actionsDidAttach",
	ControllersWillAttach: "controllersWillAttach",
	ControllersDidAttach:  "controllersDidAttach",
	SeedsWillRun:          "seedsWillRun",
	SeedsDidRun:           "seedsDidRun",
	MiddlewareWillAttach:  "middlewareWillAttach",
	MiddlewareDidAttach:   "middlewareDidAttach",
	WebserverWillStart:    "webserverWillStart",
	WebserverDidStart:     "webserverDidStart",
	SocketWillStart:       "socketWillStart",
	SocketDidStart:        "socketDidStart",
	ChannelsWillAttach:    "channelsWillAttach",
	ChannelsDidAttach:     "channelsDidAttach",
	RoutesWillAttach:      "routesWillAttach",
	RoutesDidAttach:       "routesDidAttach",
	WebserverWillListen:   "webserverWillListen",
	WebserverDidListen:    "webserverDidListen",
	RapidDidStart:         "rapidDidStart",
	RapidWillStop:         "rapidWillStop",
	BeforeStop:            "beforeStop",
	Stop:                  "stop",
	RapidDidStop:          "rapidDidStop",
}

func (e Event) String() string {
	if e < 0 || int(e) >= len(eventNames) {
		return fmt.Sprintf("Event(%d)", int(e))
	}
	return eventNames[e]
}

// ParseEvent maps an event name back to its Event.
func ParseEvent(name string) (Event, error) {
	for i, n := range eventNames {
		if n == name {
			return Event(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownEvent, name)
}

// Events returns every event in firing order.
func Events() []Event {
	out := make([]Event, len(eventNames))
	for i := range eventNames {
		out[i] = Event(i)
	}
	return out
}

// HookFunc handles one lifecycle event.
type HookFunc func(ctx context.Context, app *App) error

// Hooks maps lifecycle events to their handlers.
type Hooks map[Event]HookFunc

// HookFactory builds Hooks from a running app.
type HookFactory func(ctx context.Context, app *App) (Hooks, error)

// HookDefinition is either a factory or a literal Hooks value,
// with an optional run order.
// Definitions sharing a run order are resolved concurrently.
type HookDefinition struct {
	Name    string
	factory HookFactory
	hooks   Hooks
	order   int
	ordered bool
}

// HooksOf wraps a literal Hooks value.
func HooksOf(h Hooks) HookDefinition {
	return HookDefinition{hooks: h}
}

// HooksFrom wraps a hook factory.
func HooksFrom(fn HookFactory) HookDefinition {
	return HookDefinition{factory: fn}
}

// WithRunOrder returns a copy of d with an explicit run order.
func (d HookDefinition) WithRunOrder(order int) HookDefinition {
	d.order, d.ordered = order, true
	return d
}

// Named returns a copy of d labeled for logging.
func (d HookDefinition) Named(name string) HookDefinition {
	d.Name = name
	return d
}

// RunOrder implements runorder.Ordered.
func (d HookDefinition) RunOrder() (int, bool) {
	return d.order, d.ordered
}

func (d HookDefinition) empty() bool {
	return d.factory == nil && len(d.hooks) == 0
}

func (d HookDefinition) resolve(ctx context.Context, app *App) (Hooks, error) {
	if d.factory != nil {
		return d.factory(ctx, app)
	}
	return d.hooks, nil
}

// resolveHooks turns the added definitions into the ordered hook list.
// Factories within one run-order group run concurrently.
func (a *App) resolveHooks(ctx context.Context) error {
	defs := make([]HookDefinition, 0, len(a.hookDefs))
	for _, d := range a.hookDefs {
		if !d.empty() {
			defs = append(defs, d)
		}
	}

	staged, err := runorder.Run(ctx, runorder.Group(defs), func(ctx context.Context, d HookDefinition) (Hooks, error) {
		h, err := d.resolve(ctx, a)
		if err != nil {
			if d.Name != "" {
				return nil, fmt.Errorf("hook %q: %w", d.Name, err)
			}
			return nil, err
		}
		return h, nil
	})
	if err != nil {
		return err
	}

	resolved := make([]Hooks, 0, len(defs))
	for _, h := range runorder.Flatten(staged) {
		if len(h) > 0 {
			resolved = append(resolved, h)
		}
	}
	a.hooks = resolved
	a.logger.Debug("resolved hooks", slog.Int("count", len(resolved)))
	return nil
}

// emit calls every hook handling event, one after another.
// The first handler error stops the walk and is returned.
func (a *App) emit(ctx context.Context, event Event) error {
	a.logger.Debug("lifecycle event", slog.String("event", event.String()))
	for _, h := range a.hooks {
		fn, ok := h[event]
		if !ok || fn == nil {
			continue
		}
		if err := fn(ctx, a); err != nil {
			return fmt.Errorf("%s: %w", event, err)
		}
	}
	return nil
}

// emitSafe emits a shutdown event. Handler errors are logged and swallowed.
func (a *App) emitSafe(ctx context.Context, event Event) {
	for _, h := range a.hooks {
		fn, ok := h[event]
		if !ok || fn == nil {
			continue
		}
		if err := fn(ctx, a); err != nil {
			a.logger.Error("hook failed", slog.String("event", event.String()), slog.Any("error", err))
		}
	}
}
