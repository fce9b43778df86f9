package storage

import "errors"

// Sentinel errors for storage operations.
var (
	// ErrNotFound is returned when a binding does not exist.
	ErrNotFound = errors.New("binding not found")

	// ErrConflict is returned when a binding with the given module id
	// already exists.
	ErrConflict = errors.New("binding already exists")
)
