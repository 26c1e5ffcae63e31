package store

import "errors"

var (
	// ErrCorruptFile indicates the backing file could not be parsed at load.
	// This is a fatal startup condition, not a recoverable one.
	ErrCorruptFile = errors.New("corrupt phrase file")
)
