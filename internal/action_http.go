package internal

import (
	"log/slog"
	"net/http"
)

// attachActionEndpoints mounts every action endpoint on r.
func (a *App) attachActionEndpoints(r Router) {
	for _, act := range a.Actions() {
		for _, ep := range act.endpoints {
			r.Handle(ep.Method, ep.Path, act.httpHandler(ep.Method), ep.Middlewares...)
			a.logger.Debug("action endpoint attached",
				slog.String("action", act.name),
				slog.String("method", ep.Method),
				slog.String("path", ep.Path),
			)
		}
	}
}

// httpHandler runs the action with props built from the request.
// Later sources win: URL params, query, body, then request state.
func (act *Action) httpHandler(method string) HandlerFunc {
	return func(c Context) error {
		props, err := actionProps(c, method)
		if err != nil {
			return err
		}
		result, err := act.Run(c, props)
		if err != nil {
			return err
		}
		return c.Success(result)
	}
}

func actionProps(c Context, method string) (map[string]any, error) {
	props := make(map[string]any)
	for k, v := range c.Params() {
		props[k] = v
	}
	for k, v := range QueryValues(c) {
		props[k] = v
	}

	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		body, err := c.Body()
		if err != nil {
			return nil, err
		}
		for k, v := range body {
			props[k] = v
		}
	}

	for k, v := range c.State() {
		props[k] = v
	}
	return props, nil
}
