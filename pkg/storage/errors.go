package storage

import (
	"errors"
)

var (
	// ErrNotFound is returned when no element has the requested id.
	ErrNotFound = errors.New("not found")

	// ErrCollision is returned when an element with the same id already exists.
	ErrCollision = errors.New("item already exists")

	ErrCancelled = errors.New("request has been cancelled")
)
