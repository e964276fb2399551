package repl

import "errors"

// Sentinel errors.
var (
	ErrOutOfBounds  = errors.New("index out of range")
	ErrEditDeclined = errors.New("decline edit")
	ErrNoSession    = errors.New("no resource to query")
	ErrUsage        = errors.New("usage")
)
