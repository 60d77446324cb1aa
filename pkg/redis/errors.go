package redis

import "errors"

// Connection errors. Scheme and parse failures both match ErrFailedToParseURL.
var (
	ErrEmptyConnectionURL = errors.New("redis: empty connection URL")
	ErrFailedToParseURL   = errors.New("redis: failed to parse connection URL")
	ErrUnsupportedScheme  = errors.New("redis: URL scheme must be redis:// or rediss://")
	ErrConnectionFailed   = errors.New("redis: failed to establish connection")
	ErrHealthcheckFailed  = errors.New("redis: healthcheck failed")
)
