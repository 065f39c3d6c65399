package store

import "errors"

// Common store errors.
var (
	// ErrNotFound is returned when the store holds no loaded dataset.
	ErrNotFound = errors.New("no dataset loaded")
)
