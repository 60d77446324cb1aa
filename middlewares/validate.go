package middlewares

import (
	"maps"

	"github.com/dmitrymomot/rapid/internal"
	"github.com/dmitrymomot/rapid/pkg/validator"
)

type validatedQueryKey struct{}

// ValidateQuery returns middleware that checks the query string against a
// JSON schema. Values are coerced to the declared property types first, so
// "?limit=10" satisfies {"type": "number"}. Failures end the request with a
// 400 error listing every failed field.
//
// The schema is always treated as an object schema. ValidateQuery panics if
// the schema does not compile.
func ValidateQuery(schema map[string]any, opts ...validator.Option) internal.Middleware {
	compiled := validator.MustCompile(objectSchema(schema), append([]validator.Option{validator.WithCoercion()}, opts...)...)

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			query, err := compiled.Validate(internal.QueryValues(c))
			if err != nil {
				return err
			}
			c.Set(validatedQueryKey{}, query)
			return next(c)
		}
	}
}

// ValidateBody returns middleware that checks the JSON body against a JSON
// schema. Values are not coerced. The error message is the first failure.
// ValidateBody panics if the schema does not compile.
func ValidateBody(schema map[string]any, opts ...validator.Option) internal.Middleware {
	compiled := validator.MustCompile(objectSchema(schema), opts...)

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			body, err := c.Body()
			if err != nil {
				return err
			}
			if _, err := compiled.Validate(body); err != nil {
				return err
			}
			return next(c)
		}
	}
}

// ValidatedQuery returns the coerced query set by ValidateQuery.
// Without it, the raw query values are returned.
func ValidatedQuery(c internal.Context) map[string]any {
	if q, ok := c.Get(validatedQueryKey{}).(map[string]any); ok {
		return q
	}
	return internal.QueryValues(c)
}

func objectSchema(schema map[string]any) map[string]any {
	out := maps.Clone(schema)
	if out == nil {
		out = make(map[string]any)
	}
	out["type"] = "object"
	return out
}
