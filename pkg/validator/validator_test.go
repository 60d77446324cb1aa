package validator_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/rapid/pkg/validator"
)

func fooBarSchema(t *testing.T, opts ...validator.Option) *validator.Schema {
	t.Helper()
	s, err := validator.Compile(map[string]any{
		"type":     "object",
		"required": []string{"foo", "bar"},
		"properties": map[string]any{
			"foo": map[string]any{"type": "string"},
			"bar": map[string]any{"type": "number"},
		},
	}, opts...)
	require.NoError(t, err)
	return s
}

func TestSchemaValidate(t *testing.T) {
	t.Parallel()

	t.Run("valid input passes through", func(t *testing.T) {
		t.Parallel()
		in := map[string]any{"foo": "a", "bar": 10}
		out, err := fooBarSchema(t).Validate(in)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})

	t.Run("coerces string numbers", func(t *testing.T) {
		t.Parallel()
		out, err := fooBarSchema(t, validator.WithCoercion()).Validate(map[string]any{"foo": "a", "bar": "10"})
		require.NoError(t, err)
		assert.EqualValues(t, 10, out["bar"])
		assert.Equal(t, "a", out["foo"])
	})

	t.Run("coercion does not mutate input", func(t *testing.T) {
		t.Parallel()
		in := map[string]any{"foo": "a", "bar": "10"}
		_, err := fooBarSchema(t, validator.WithCoercion()).Validate(in)
		require.NoError(t, err)
		assert.Equal(t, "10", in["bar"])
	})

	t.Run("string number rejected without coercion", func(t *testing.T) {
		t.Parallel()
		_, err := fooBarSchema(t).Validate(map[string]any{"foo": "a", "bar": "10"})
		require.Error(t, err)

		errs := validator.ExtractValidationErrors(err)
		require.Len(t, errs, 1)
		assert.Equal(t, "bar", errs[0].Field)
		assert.Equal(t, "type", errs[0].Keyword)
	})

	t.Run("missing field", func(t *testing.T) {
		t.Parallel()
		_, err := fooBarSchema(t).Validate(map[string]any{"foo": "a"})
		require.Error(t, err)
		assert.True(t, validator.IsValidationError(err))

		errs := validator.ExtractValidationErrors(err)
		require.Len(t, errs, 1)
		assert.Equal(t, validator.FieldError{
			Field:   "bar",
			Keyword: "required",
			Message: `missing property "bar"`,
		}, errs[0])
	})

	t.Run("nil input", func(t *testing.T) {
		t.Parallel()
		_, err := fooBarSchema(t).Validate(nil)
		errs := validator.ExtractValidationErrors(err)
		assert.True(t, errs.Has("foo"))
		assert.True(t, errs.Has("bar"))
	})

	t.Run("unmarshalable input", func(t *testing.T) {
		t.Parallel()
		_, err := fooBarSchema(t).Validate(map[string]any{"foo": make(chan int)})
		require.ErrorIs(t, err, validator.ErrInvalidInput)
	})
}

func TestCoerce(t *testing.T) {
	t.Parallel()

	s := validator.MustCompile(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"count":   map[string]any{"type": "integer"},
			"ratio":   map[string]any{"type": "number"},
			"enabled": map[string]any{"type": "boolean"},
			"name":    map[string]any{"type": "string"},
			"maybe":   map[string]any{"type": []any{"null", "integer"}},
		},
	})

	out := s.Coerce(map[string]any{
		"count":   "3",
		"ratio":   "0.5",
		"enabled": "true",
		"name":    12,
		"maybe":   "",
		"extra":   "kept",
	})

	assert.Equal(t, int64(3), out["count"])
	assert.Equal(t, 0.5, out["ratio"])
	assert.Equal(t, true, out["enabled"])
	assert.Equal(t, "12", out["name"])
	assert.Nil(t, out["maybe"])
	assert.Equal(t, "kept", out["extra"])

	bad := s.Coerce(map[string]any{"count": "three"})
	assert.Equal(t, "three", bad["count"])
}

func TestCompileInvalidSchema(t *testing.T) {
	t.Parallel()

	_, err := validator.Compile(map[string]any{"type": 12})
	require.ErrorIs(t, err, validator.ErrInvalidSchema)

	assert.Panics(t, func() {
		validator.MustCompile(map[string]any{"type": 12})
	})
}

func TestValidationErrors(t *testing.T) {
	t.Parallel()

	errs := validator.ValidationErrors{
		{Field: "email", Keyword: "required", Message: "is required"},
		{Field: "password", Keyword: "minLength", Message: "too short"},
		{Field: "", Keyword: "type", Message: "got string, want object"},
	}

	assert.Equal(t, "email: is required; password: too short; got string, want object", errs.Error())
	assert.Equal(t, "is required", errs.Message())
	assert.Len(t, errs.Get("password"), 1)
	assert.False(t, errs.Has("name"))
	assert.Equal(t, "validation failed", validator.ValidationErrors{}.Message())

	wrapped := fmt.Errorf("create user: %w", errs)
	assert.True(t, validator.IsValidationError(wrapped))
	assert.Equal(t, errs, validator.ExtractValidationErrors(wrapped))
	assert.Nil(t, validator.ExtractValidationErrors(errors.New("plain")))
}

func TestValidationErrorsTranslate(t *testing.T) {
	t.Parallel()

	translations := map[string]string{
		"validation.required": "The %s field is required.",
	}
	translate := func(key string, values map[string]any) string {
		tmpl, ok := translations[key]
		if !ok {
			return key
		}
		return fmt.Sprintf(tmpl, values["field"])
	}

	t.Run("translates known keywords", func(t *testing.T) {
		t.Parallel()
		errs := validator.ValidationErrors{
			{Field: "email", Keyword: "required", Message: "is required"},
			{Field: "age", Keyword: "minimum", Message: "too small"},
		}
		errs.Translate(translate)
		assert.Equal(t, "The email field is required.", errs[0].Message)
		assert.Equal(t, "too small", errs[1].Message)
	})

	t.Run("nil fn is no-op", func(t *testing.T) {
		t.Parallel()
		errs := validator.ValidationErrors{{Field: "email", Keyword: "required", Message: "is required"}}
		errs.Translate(nil)
		assert.Equal(t, "is required", errs[0].Message)
	})
}
