package store

import "errors"

var (
	// ErrNotFound is returned when no appointment matches the given id
	ErrNotFound = errors.New("appointment not found")
)
