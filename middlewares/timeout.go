package middlewares

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrymomot/rapid/internal"
)

// DefaultTimeout is used when Timeout gets a non-positive duration.
const DefaultTimeout = 30 * time.Second

type timeoutContextKey struct{}

// Timeout returns middleware that answers 504 when the rest of the chain
// takes longer than timeout.
//
// The handler keeps running after the deadline. Long operations should use
// GetTimeoutContext(c) and stop when it is done.
func Timeout(timeout time.Duration) internal.Middleware {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			ctx, cancel := context.WithTimeout(c.Context(), timeout)
			defer cancel()

			c.Set(timeoutContextKey{}, ctx)

			done := make(chan error, 1)
			go func() {
				defer func() {
					if r := recover(); r != nil {
						done <- newPanicError(r, &RecoverConfig{StackSize: DefaultStackSize})
					}
				}()
				done <- next(c)
			}()

			select {
			case err := <-done:
				return err
			case <-ctx.Done():
				if errors.Is(ctx.Err(), context.DeadlineExceeded) {
					c.LogWarn("request timeout", "timeout", timeout.String())
					return internal.NewHTTPError(http.StatusGatewayTimeout, "Request timeout.",
						internal.WithError(&TimeoutError{Duration: timeout}))
				}
				return ctx.Err()
			}
		}
	}
}

// TimeoutFromConfig is Timeout with the webserver.timeout config value,
// read on the first request. Without that key requests are not limited.
func TimeoutFromConfig() internal.Middleware {
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		var (
			once    sync.Once
			limited internal.HandlerFunc
		)
		return func(c internal.Context) error {
			once.Do(func() {
				limited = next
				if timeout := c.App().Config().Duration("webserver.timeout", 0); timeout > 0 {
					limited = Timeout(timeout)(next)
				}
			})
			return limited(c)
		}
	}
}

// GetTimeoutContext returns the context that is cancelled at the request
// deadline, or the request context when no Timeout middleware ran.
func GetTimeoutContext(c internal.Context) context.Context {
	if v, ok := c.Get(timeoutContextKey{}).(context.Context); ok {
		return v
	}
	return c.Context()
}
