package internal

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrymomot/rapid/pkg/validator"
)

// ActionHandler runs an action with validated props.
type ActionHandler func(ctx context.Context, props map[string]any) (any, error)

// ValidateFunc is a custom props check. It runs after schema validation.
type ValidateFunc func(ctx context.Context, props map[string]any) error

// ActionOption configures an action.
type ActionOption func(*actionConfig)

type actionConfig struct {
	schema     map[string]any
	validators []ValidateFunc
	endpoints  []ActionEndpoint
}

// ActionEndpoint exposes an action over HTTP on the API router.
type ActionEndpoint struct {
	Method      string
	Path        string
	Middlewares []Middleware
}

// WithSchema validates props against a JSON schema before the handler runs.
// Top-level values are coerced to the declared types first, so "10" passes
// as an integer.
func WithSchema(schema map[string]any) ActionOption {
	return func(c *actionConfig) {
		c.schema = schema
	}
}

// WithValidator adds a custom props check.
func WithValidator(fn ValidateFunc) ActionOption {
	return func(c *actionConfig) {
		if fn != nil {
			c.validators = append(c.validators, fn)
		}
	}
}

// WithEndpoint mounts the action at method and path on the API router.
// Props are built from URL params, query, JSON body and request state.
func WithEndpoint(method, path string, mw ...Middleware) ActionOption {
	return func(c *actionConfig) {
		c.endpoints = append(c.endpoints, ActionEndpoint{
			Method:      strings.ToUpper(method),
			Path:        path,
			Middlewares: mw,
		})
	}
}

// Action is a named, validated unit of business logic that can be invoked
// directly or over HTTP.
type Action struct {
	name       string
	app        *App
	handler    ActionHandler
	schema     *validator.Schema
	validators []ValidateFunc
	endpoints  []ActionEndpoint
}

// Name returns the action name.
func (act *Action) Name() string { return act.name }

// Endpoints returns the HTTP endpoints of the action.
func (act *Action) Endpoints() []ActionEndpoint { return act.endpoints }

// Validate checks props and returns the coerced copy the handler receives.
func (act *Action) Validate(ctx context.Context, props map[string]any) (map[string]any, error) {
	props = maps.Clone(props)
	if props == nil {
		props = make(map[string]any)
	}
	if act.schema != nil {
		out, err := act.schema.Validate(props)
		if err != nil {
			return nil, err
		}
		props = out
	}
	for _, fn := range act.validators {
		if err := fn(ctx, props); err != nil {
			return nil, err
		}
	}
	return props, nil
}

// Run validates props and calls the handler. The handler is not called
// when validation fails.
func (act *Action) Run(ctx context.Context, props map[string]any) (any, error) {
	start := time.Now()
	result, err := act.run(ctx, props)

	if act.app.config.Bool("logActions", false) {
		attrs := []any{
			slog.String("action", act.name),
			slog.Duration("duration", time.Since(start)),
		}
		if err != nil {
			act.app.logger.InfoContext(ctx, "action FAIL", append(attrs, slog.Any("error", err))...)
		} else {
			act.app.logger.InfoContext(ctx, "action SUCCESS", attrs...)
		}
	}
	return result, err
}

func (act *Action) run(ctx context.Context, props map[string]any) (any, error) {
	props, err := act.Validate(ctx, props)
	if err != nil {
		return nil, err
	}
	return act.handler(ctx, props)
}

// Action registers an action. Names are unique per app: registering a name
// twice fails with ErrDuplicateAction.
func (a *App) Action(name string, handler ActionHandler, opts ...ActionOption) (*Action, error) {
	if name == "" || handler == nil {
		return nil, fmt.Errorf("%w: name and handler are required", ErrInvalidAction)
	}

	var cfg actionConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	act := &Action{
		name:       name,
		app:        a,
		handler:    handler,
		validators: cfg.validators,
		endpoints:  cfg.endpoints,
	}
	if cfg.schema != nil {
		schema, err := validator.Compile(cfg.schema, validator.WithCoercion())
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrInvalidAction, name, err)
		}
		act.schema = schema
	}
	for _, ep := range act.endpoints {
		if ep.Path == "" || !validMethod(ep.Method) {
			return nil, fmt.Errorf("%w: %q: bad endpoint %s %q", ErrInvalidAction, name, ep.Method, ep.Path)
		}
	}

	a.regMu.Lock()
	defer a.regMu.Unlock()
	if _, ok := a.actions[name]; ok {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateAction, name)
	}
	a.actions[name] = act
	a.actionOrder = append(a.actionOrder, name)
	a.logger.Debug("action registered", slog.String("name", name))
	return act, nil
}

// MustAction is like Action but panics on error.
func (a *App) MustAction(name string, handler ActionHandler, opts ...ActionOption) *Action {
	act, err := a.Action(name, handler, opts...)
	if err != nil {
		panic(err)
	}
	return act
}

// LookupAction returns the action registered under name.
func (a *App) LookupAction(name string) (*Action, bool) {
	a.regMu.RLock()
	defer a.regMu.RUnlock()
	act, ok := a.actions[name]
	return act, ok
}

// Actions returns the registered actions in registration order.
func (a *App) Actions() []*Action {
	a.regMu.RLock()
	defer a.regMu.RUnlock()
	out := make([]*Action, 0, len(a.actionOrder))
	for _, name := range a.actionOrder {
		out = append(out, a.actions[name])
	}
	return out
}

// RunAction runs the action registered under name.
func (a *App) RunAction(ctx context.Context, name string, props map[string]any) (any, error) {
	act, ok := a.LookupAction(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrActionNotFound, name)
	}
	return act.Run(ctx, props)
}

func validMethod(m string) bool {
	switch m {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}
