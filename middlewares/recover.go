package middlewares

import (
	"runtime"

	"github.com/dmitrymomot/rapid/internal"
)

// DefaultStackSize is the default maximum stack trace size in bytes.
const DefaultStackSize = 4096

// RecoverConfig configures the recover middleware.
type RecoverConfig struct {
	StackSize    int  // Max stack trace size (default: 4096)
	DisableStack bool // Skip stack capture entirely
}

// RecoverOption configures RecoverConfig.
type RecoverOption func(*RecoverConfig)

// WithRecoverStackSize sets the maximum stack trace size.
func WithRecoverStackSize(size int) RecoverOption {
	return func(cfg *RecoverConfig) {
		cfg.StackSize = size
	}
}

// WithoutRecoverStack disables stack capture.
func WithoutRecoverStack() RecoverOption {
	return func(cfg *RecoverConfig) {
		cfg.DisableStack = true
	}
}

// Recover returns middleware that turns a panic in the chain into a
// PanicError. The error handler renders it as a 500 response, so one bad
// request never takes the webserver down.
func Recover(opts ...RecoverOption) internal.Middleware {
	cfg := &RecoverConfig{StackSize: DefaultStackSize}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				pe := newPanicError(r, cfg)
				c.LogError("panic recovered", "panic", r, "stack", string(pe.Stack))
				err = pe
			}()
			return next(c)
		}
	}
}

func newPanicError(v any, cfg *RecoverConfig) *PanicError {
	pe := &PanicError{Value: v}
	if !cfg.DisableStack && cfg.StackSize > 0 {
		stack := make([]byte, cfg.StackSize)
		pe.Stack = stack[:runtime.Stack(stack, false)]
	}
	return pe
}
