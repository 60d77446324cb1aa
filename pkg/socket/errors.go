package socket

import "errors"

var (
	ErrAlreadyStarted   = errors.New("socket: server already started")
	ErrServerClosed     = errors.New("socket: server closed")
	ErrConnClosed       = errors.New("socket: connection closed")
	ErrSendBufferFull   = errors.New("socket: send buffer full")
	ErrUnknownNamespace = errors.New("socket: unknown namespace")
	ErrUnauthorized     = errors.New("socket: authentication error")
	ErrInvalidMessage   = errors.New("socket: invalid message")
	ErrBrokerFailed     = errors.New("socket: broker failed")
)
