package config

import "errors"

var (
	ErrFrozen            = errors.New("config: configuration is frozen")
	ErrDecode            = errors.New("config: failed to decode section")
	ErrUnsupportedFormat = errors.New("config: unsupported file format")
	ErrReadFile          = errors.New("config: failed to read file")
	ErrParseFile         = errors.New("config: failed to parse file")
)
