package internal

import "strconv"

// ContextValue returns the request context value stored under key as T,
// or the zero value.
func ContextValue[T any](c Context, key any) T {
	if v, ok := c.Get(key).(T); ok {
		return v
	}
	var zero T
	return zero
}

// Param returns a typed URL parameter, or the zero value if it cannot be parsed.
func Param[T ~string | ~int | ~int64 | ~float64 | ~bool](c Context, name string) T {
	v, _ := convertParam[T](c.Param(name))
	return v
}

// Query returns a typed query parameter, or the zero value if it cannot be parsed.
func Query[T ~string | ~int | ~int64 | ~float64 | ~bool](c Context, name string) T {
	v, _ := convertParam[T](c.Query(name))
	return v
}

// QueryDefault retrieves a typed query parameter with a default value.
// Returns defaultValue if the parameter is empty or cannot be parsed.
func QueryDefault[T ~string | ~int | ~int64 | ~float64 | ~bool](c Context, name string, defaultValue T) T {
	raw := c.Query(name)
	if raw == "" {
		return defaultValue
	}
	v, ok := convertParam[T](raw)
	if !ok {
		return defaultValue
	}
	return v
}

// StateValue returns the request state entry under key as T.
func StateValue[T any](c Context, key string) (T, bool) {
	v, ok := c.State()[key].(T)
	return v, ok
}

// ModelAs returns the resolved model registered under name as T.
func ModelAs[T any](a *App, name string) (T, bool) {
	m, ok := a.Model(name)
	if !ok {
		var zero T
		return zero, false
	}
	v, ok := m.(T)
	return v, ok
}

// ControllerAs returns the resolved controller registered under name as T.
func ControllerAs[T any](a *App, name string) (T, bool) {
	ctrl, ok := a.Controller(name)
	if !ok {
		var zero T
		return zero, false
	}
	v, ok := ctrl.(T)
	return v, ok
}

// convertParam converts a raw string to the target type T.
// Returns the converted value and true on success, or the zero value and false on failure.
func convertParam[T ~string | ~int | ~int64 | ~float64 | ~bool](raw string) (T, bool) {
	var zero T
	switch any(zero).(type) {
	case string:
		return any(raw).(T), true
	case int:
		v, err := strconv.Atoi(raw)
		if err != nil {
			return zero, false
		}
		return any(v).(T), true
	case int64:
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return zero, false
		}
		return any(v).(T), true
	case float64:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return zero, false
		}
		return any(v).(T), true
	case bool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return zero, false
		}
		return any(v).(T), true
	}
	return zero, false
}

// QueryValues returns the query string as a map. Repeated keys become
// a list of strings, single keys a string.
func QueryValues(c Context) map[string]any {
	query := c.Request().URL.Query()
	out := make(map[string]any, len(query))
	for k, vs := range query {
		switch len(vs) {
		case 0:
		case 1:
			out[k] = vs[0]
		default:
			list := make([]any, len(vs))
			for i, v := range vs {
				list[i] = v
			}
			out[k] = list
		}
	}
	return out
}
