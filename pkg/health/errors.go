package health

import "errors"

var (
	// ErrCheckFailed is returned by Response.Err when a check failed.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrCheckTimeout wraps the error of a check that ran past the timeout.
	ErrCheckTimeout = errors.New("health: check timeout")
)
