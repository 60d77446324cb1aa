package internal_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/rapid/internal"
	"github.com/dmitrymomot/rapid/pkg/validator"
)

func TestIsHTTPError(t *testing.T) {
	t.Parallel()

	t.Run("direct HTTPError", func(t *testing.T) {
		t.Parallel()
		err := internal.NewHTTPError(http.StatusNotFound, "not found")
		require.True(t, internal.IsHTTPError(err))
	})

	t.Run("wrapped HTTPError", func(t *testing.T) {
		t.Parallel()
		err := fmt.Errorf("handler failed: %w", internal.ErrBadRequest("bad request"))
		require.True(t, internal.IsHTTPError(err))
	})

	t.Run("unrelated error", func(t *testing.T) {
		t.Parallel()
		require.False(t, internal.IsHTTPError(errors.New("something went wrong")))
	})

	t.Run("nil error", func(t *testing.T) {
		t.Parallel()
		require.False(t, internal.IsHTTPError(nil))
	})
}

func TestAsHTTPError(t *testing.T) {
	t.Parallel()

	t.Run("wrapped HTTPError preserves fields", func(t *testing.T) {
		t.Parallel()
		httpErr := internal.ErrForbidden("forbidden", internal.WithErrorCode("AUTH_001"))
		err := fmt.Errorf("middleware: %w", httpErr)

		got := internal.AsHTTPError(err)
		require.NotNil(t, got)
		require.Equal(t, http.StatusForbidden, got.Code)
		require.Equal(t, "forbidden", got.Message)
		require.Equal(t, "AUTH_001", got.ErrorCode)
	})

	t.Run("unrelated error returns nil", func(t *testing.T) {
		t.Parallel()
		require.Nil(t, internal.AsHTTPError(errors.New("plain error")))
	})
}

func TestToHTTPError(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")

	tests := []struct {
		name       string
		err        error
		production bool
		code       int
		message    string
	}{
		{"http error passes through", internal.ErrNotFound("No such user."), false, http.StatusNotFound, "No such user."},
		{"client error kept in production", internal.ErrUnauthorized("Token expired."), true, http.StatusUnauthorized, "Token expired."},
		{"server error masked in production", internal.ErrInternal("db is down"), true, http.StatusInternalServerError, "Internal Server Error"},
		{"unknown error detailed in development", cause, false, http.StatusInternalServerError, "connection refused"},
		{"unknown error generic in production", cause, true, http.StatusInternalServerError, "Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := internal.ToHTTPError(tt.err, tt.production)
			require.Equal(t, tt.code, got.Code)
			require.Equal(t, tt.message, got.Message)
		})
	}

	t.Run("validation errors become 400 with fields", func(t *testing.T) {
		t.Parallel()
		ve := validator.ValidationErrors{{Field: "name", Keyword: "required", Message: "is required"}}
		got := internal.ToHTTPError(fmt.Errorf("action: %w", ve), true)
		require.Equal(t, http.StatusBadRequest, got.Code)
		require.Equal(t, []validator.FieldError(ve), got.Errors)
		require.True(t, validator.IsValidationError(got))
	})
}

func TestPhaseError(t *testing.T) {
	t.Parallel()

	err := &internal.PhaseError{Err: internal.ErrNoPortAvailable, State: internal.StateWebserverListening}
	require.ErrorIs(t, err, internal.ErrNoPortAvailable)
	require.Equal(t, "rapid: webserver listening: rapid: no port available", err.Error())

	var pe *internal.PhaseError
	require.ErrorAs(t, fmt.Errorf("start: %w", err), &pe)
	require.Equal(t, internal.StateWebserverListening, pe.State)
}
