package validator

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"
	"reflect"
	"strings"

	"github.com/golobby/cast"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const schemaResource = "schema.json"

// Schema is a compiled JSON schema for map shaped input.
type Schema struct {
	compiled   *jsonschema.Schema
	properties map[string][]string
	coerce     bool
	lang       language.Tag
}

// Option configures a Schema.
type Option func(*Schema)

// WithCoercion converts top-level string values to the type declared for
// their property before validating, e.g. "10" becomes 10 for a number.
func WithCoercion() Option {
	return func(s *Schema) { s.coerce = true }
}

// WithLanguage sets the language used for error messages. Defaults to English.
func WithLanguage(tag language.Tag) Option {
	return func(s *Schema) { s.lang = tag }
}

// Compile compiles a JSON schema given as a Go map.
func Compile(schema map[string]any, opts ...Option) (*Schema, error) {
	s := &Schema{lang: language.English}
	for _, opt := range opts {
		opt(s)
	}

	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, errors.Join(ErrInvalidSchema, err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Join(ErrInvalidSchema, err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaResource, doc); err != nil {
		return nil, errors.Join(ErrInvalidSchema, err)
	}
	compiled, err := c.Compile(schemaResource)
	if err != nil {
		return nil, errors.Join(ErrInvalidSchema, err)
	}

	s.compiled = compiled
	s.properties = propertyTypes(schema)
	return s, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(schema map[string]any, opts ...Option) *Schema {
	s, err := Compile(schema, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// Validate checks input against the schema and returns the value the caller
// should use from then on: a coerced copy when coercion is enabled, input
// itself otherwise. Constraint violations are reported as ValidationErrors.
func (s *Schema) Validate(input map[string]any) (map[string]any, error) {
	out := input
	if s.coerce {
		out = s.Coerce(input)
	}

	instance, err := toInstance(out)
	if err != nil {
		return nil, err
	}

	if err := s.compiled.Validate(instance); err != nil {
		var ve *jsonschema.ValidationError
		if !errors.As(err, &ve) {
			return nil, err
		}
		return nil, convert(ve, message.NewPrinter(s.lang))
	}
	return out, nil
}

// Coerce returns a copy of input with top-level values converted to the types
// declared in the schema properties. Values that cannot be converted are kept.
func (s *Schema) Coerce(input map[string]any) map[string]any {
	out := maps.Clone(input)
	if out == nil {
		out = make(map[string]any)
	}
	for name, types := range s.properties {
		v, ok := out[name]
		if !ok {
			continue
		}
		out[name] = coerceValue(v, types)
	}
	return out
}

func toInstance(v map[string]any) (any, error) {
	if v == nil {
		v = map[string]any{}
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Join(ErrInvalidInput, err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Join(ErrInvalidInput, err)
	}
	return inst, nil
}

func convert(root *jsonschema.ValidationError, p *message.Printer) ValidationErrors {
	var out ValidationErrors
	var walk func(ve *jsonschema.ValidationError)
	walk = func(ve *jsonschema.ValidationError) {
		if len(ve.Causes) > 0 {
			for _, c := range ve.Causes {
				walk(c)
			}
			return
		}

		field := strings.Join(ve.InstanceLocation, ".")
		if req, ok := ve.ErrorKind.(*kind.Required); ok {
			for _, missing := range req.Missing {
				out = append(out, FieldError{
					Field:   joinField(field, missing),
					Keyword: "required",
					Message: p.Sprintf("missing property %q", missing),
				})
			}
			return
		}

		var keyword string
		if path := ve.ErrorKind.KeywordPath(); len(path) > 0 {
			keyword = path[len(path)-1]
		}
		out = append(out, FieldError{
			Field:   field,
			Keyword: keyword,
			Message: ve.ErrorKind.LocalizedString(p),
		})
	}
	walk(root)
	return out
}

func joinField(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

// propertyTypes maps each top-level property to its declared types.
func propertyTypes(schema map[string]any) map[string][]string {
	props, _ := schema["properties"].(map[string]any)
	out := make(map[string][]string, len(props))
	for name, def := range props {
		d, ok := def.(map[string]any)
		if !ok {
			continue
		}
		switch t := d["type"].(type) {
		case string:
			out[name] = []string{t}
		case []string:
			out[name] = t
		case []any:
			for _, v := range t {
				if s, ok := v.(string); ok {
					out[name] = append(out[name], s)
				}
			}
		}
	}
	return out
}

func coerceValue(v any, types []string) any {
	for _, t := range types {
		if matchesType(v, t) {
			return v
		}
	}
	for _, t := range types {
		if c, ok := coerceTo(v, t); ok {
			return c
		}
	}
	return v
}

func matchesType(v any, t string) bool {
	switch t {
	case "string":
		_, ok := v.(string)
		return ok
	case "boolean":
		_, ok := v.(bool)
		return ok
	case "null":
		return v == nil
	case "number":
		_, ok := number(v)
		return ok
	case "integer":
		f, ok := number(v)
		return ok && f == math.Trunc(f)
	case "object":
		_, ok := v.(map[string]any)
		return ok
	case "array":
		_, ok := v.([]any)
		return ok
	}
	return false
}

func coerceTo(v any, t string) (any, bool) {
	switch t {
	case "number":
		if s, ok := v.(string); ok {
			return parse[float64](s)
		}
		if b, ok := v.(bool); ok {
			return boolToNumber(b), true
		}
	case "integer":
		if s, ok := v.(string); ok {
			return parse[int64](s)
		}
		if b, ok := v.(bool); ok {
			return int64(boolToNumber(b)), true
		}
	case "boolean":
		switch x := v.(type) {
		case string:
			return parse[bool](x)
		case nil:
			return false, true
		}
		if f, ok := number(v); ok && (f == 0 || f == 1) {
			return f == 1, true
		}
	case "string":
		switch x := v.(type) {
		case nil:
			return "", true
		case bool:
			return fmt.Sprint(x), true
		}
		if _, ok := number(v); ok {
			return fmt.Sprint(v), true
		}
	case "null":
		if v == "" || v == false {
			return nil, true
		}
		if f, ok := number(v); ok && f == 0 {
			return nil, true
		}
	case "array":
		if v != nil {
			return []any{v}, true
		}
	}
	return nil, false
}

func parse[T any](s string) (any, bool) {
	v, err := cast.FromType(strings.TrimSpace(s), reflect.TypeFor[T]())
	if err != nil {
		return nil, false
	}
	return v, true
}

func boolToNumber(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
