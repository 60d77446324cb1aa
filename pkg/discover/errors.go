package discover

import "errors"

var (
	ErrInvalidPattern    = errors.New("discover: invalid glob pattern")
	ErrNotFound          = errors.New("discover: module not found")
	ErrLoadFailed        = errors.New("discover: failed to load module")
	ErrUnsupportedModule = errors.New("discover: unsupported module file")
	ErrAlreadyRegistered = errors.New("discover: path already registered")
)
