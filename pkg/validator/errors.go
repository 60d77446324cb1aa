package validator

import (
	"errors"
	"strings"
)

var (
	ErrInvalidSchema = errors.New("validator: invalid schema")
	ErrInvalidInput  = errors.New("validator: input is not JSON compatible")
)

// FieldError describes one failed constraint.
type FieldError struct {
	// Field is the dotted path of the offending value; empty for the root.
	Field string `json:"field"`
	// Keyword is the schema keyword that failed, e.g. "required" or "type".
	Keyword string `json:"keyword"`
	Message string `json:"message"`
}

// ValidationErrors is returned when input does not satisfy a schema.
type ValidationErrors []FieldError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		if fe.Field == "" {
			parts = append(parts, fe.Message)
			continue
		}
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return strings.Join(parts, "; ")
}

// Message returns the first error message, or a generic one.
func (e ValidationErrors) Message() string {
	if len(e) == 0 {
		return "validation failed"
	}
	return e[0].Message
}

// Has reports whether any error refers to field.
func (e ValidationErrors) Has(field string) bool {
	for _, fe := range e {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// Get returns the errors that refer to field.
func (e ValidationErrors) Get(field string) []FieldError {
	var out []FieldError
	for _, fe := range e {
		if fe.Field == field {
			out = append(out, fe)
		}
	}
	return out
}

// Translate rewrites messages in place using fn.
// The key passed to fn is "validation.<keyword>"; values carry the field name.
// A nil fn, or fn returning the key unchanged, keeps the original message.
func (e ValidationErrors) Translate(fn func(key string, values map[string]any) string) {
	if fn == nil {
		return
	}
	for i := range e {
		key := "validation." + e[i].Keyword
		msg := fn(key, map[string]any{"field": e[i].Field})
		if msg != "" && msg != key {
			e[i].Message = msg
		}
	}
}

// IsValidationError reports whether err wraps ValidationErrors.
func IsValidationError(err error) bool {
	var ve ValidationErrors
	return errors.As(err, &ve)
}

// ExtractValidationErrors returns the ValidationErrors wrapped by err, or nil.
func ExtractValidationErrors(err error) ValidationErrors {
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}
