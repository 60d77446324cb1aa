package internal

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrymomot/rapid/pkg/validator"
)

// Orchestrator errors.
var (
	ErrAlreadyStarted    = errors.New("rapid: already started")
	ErrInvalidEnv        = errors.New("rapid: invalid environment")
	ErrDuplicateAction   = errors.New("rapid: duplicate action")
	ErrInvalidAction     = errors.New("rapid: invalid action")
	ErrActionNotFound    = errors.New("rapid: action not found")
	ErrUnsupportedModule = errors.New("rapid: unsupported module value")
	ErrUnknownEvent      = errors.New("rapid: unknown lifecycle event")
	ErrInvalidPort       = errors.New("rapid: invalid port")
	ErrNoPortAvailable   = errors.New("rapid: no port available")
	ErrWebserverDisabled = errors.New("rapid: webserver disabled")
	ErrDatabaseDisabled  = errors.New("rapid: database disabled")
	ErrNotListening      = errors.New("rapid: webserver is not listening")
	ErrNotStarted        = errors.New("rapid: not started")
	ErrStopped           = errors.New("rapid: stopped during startup")
	ErrPanic             = errors.New("rapid: recovered panic")
)

// PhaseError reports the startup phase that failed.
type PhaseError struct {
	Err   error
	State State
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("rapid: %s: %v", e.State, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

// ResolveError reports an extension item that failed to resolve.
type ResolveError struct {
	Err  error
	Kind Kind
	Name string
}

func (e *ResolveError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("resolve %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("resolve %s %q: %v", e.Kind, e.Name, e.Err)
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}

// HTTPError represents an HTTP error with all data needed for rendering.
type HTTPError struct {
	// Err is the underlying error (for logging, not exposed to users).
	Err error

	// Message is the user-facing error message.
	Message string

	// ErrorCode is an application-specific error code.
	ErrorCode string

	// RequestID is the request tracking ID.
	RequestID string

	// Errors carries field-level details, e.g. validation failures.
	Errors any

	// Code is the HTTP status code (e.g., 404, 500).
	Code int
}

func (e *HTTPError) Error() string {
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func (e *HTTPError) StatusCode() int {
	return e.Code
}

func (e *HTTPError) StatusText() string {
	return http.StatusText(e.Code)
}

// HTTPErrorOption configures an HTTPError.
type HTTPErrorOption func(*HTTPError)

// NewHTTPError creates a new HTTPError with the given status code and message.
func NewHTTPError(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	e := &HTTPError{
		Code:    code,
		Message: message,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func WithErrorCode(code string) HTTPErrorOption {
	return func(e *HTTPError) {
		e.ErrorCode = code
	}
}

func WithRequestID(id string) HTTPErrorOption {
	return func(e *HTTPError) {
		e.RequestID = id
	}
}

func WithError(err error) HTTPErrorOption {
	return func(e *HTTPError) {
		e.Err = err
	}
}

func WithDetails(details any) HTTPErrorOption {
	return func(e *HTTPError) {
		e.Errors = details
	}
}

// Convenience constructors for common HTTP errors.

func ErrBadRequest(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, message, opts...)
}

func ErrUnauthorized(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusUnauthorized, message, opts...)
}

func ErrForbidden(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusForbidden, message, opts...)
}

func ErrNotFound(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusNotFound, message, opts...)
}

func ErrConflict(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusConflict, message, opts...)
}

func ErrInternal(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusInternalServerError, message, opts...)
}

// Helper functions for error inspection.

func IsHTTPError(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr)
}

// AsHTTPError extracts the HTTPError from an error if present.
// Returns nil if the error is not an HTTPError.
func AsHTTPError(err error) *HTTPError {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return nil
}

// ErrorBody is the "error" member of a JSON error response.
type ErrorBody struct {
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"requestId,omitempty"`
	Errors    any    `json:"errors,omitempty"`
}

// ErrorResponse is the JSON envelope written for failed requests.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ToHTTPError normalizes any handler error into an HTTPError.
// Validation errors become 400 responses with their field list.
// Unknown errors become 500; production hides their message.
func ToHTTPError(err error, production bool) *HTTPError {
	if ve := validator.ExtractValidationErrors(err); ve != nil {
		return ErrBadRequest(ve.Message(), WithError(err), WithDetails([]validator.FieldError(ve)))
	}
	if httpErr := AsHTTPError(err); httpErr != nil {
		if production && httpErr.Code >= http.StatusInternalServerError {
			masked := *httpErr
			masked.Message = http.StatusText(httpErr.Code)
			masked.Errors = nil
			return &masked
		}
		return httpErr
	}
	msg := err.Error()
	if production {
		msg = http.StatusText(http.StatusInternalServerError)
	}
	return ErrInternal(msg, WithError(err))
}

// RequestIDKey is the request context key of the request ID.
type RequestIDKey struct{}

func withRequestID(e *HTTPError, id string) *HTTPError {
	cp := *e
	cp.RequestID = id
	return &cp
}

// Response builds the JSON envelope for e.
func (e *HTTPError) Response() ErrorResponse {
	return ErrorResponse{Error: ErrorBody{
		Message:   e.Message,
		Code:      e.ErrorCode,
		RequestID: e.RequestID,
		Errors:    e.Errors,
	}}
}
