package dataset

import "errors"

// Common dataset errors.
var (
	// ErrNoFiles is returned when discovery matches no Turtle sources.
	ErrNoFiles = errors.New("no .ttl files matched")
)
