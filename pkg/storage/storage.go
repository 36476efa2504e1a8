//go:generate mockgen -source storage.go -destination ../../internal/mocks/mock_storage.go -package mocks ElementDatastore

// Package storage contains the element lookup contract used by the hydration
// step and the engines implementing it.
package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/ember-nexus/nexus-search/pkg/element"
)

// ElementReader loads elements by id.
type ElementReader interface {
	// GetElement returns the element with the given id, or ErrNotFound.
	GetElement(ctx context.Context, id uuid.UUID) (*element.Element, error)
}

// ElementDatastore is an ElementReader with lifecycle management.
type ElementDatastore interface {
	ElementReader

	// IsReady reports whether the datastore is ready to accept traffic.
	IsReady(ctx context.Context) (ReadinessStatus, error)

	// Close closes the datastore and cleans up any residual resources.
	Close()
}

// ReadinessStatus represents the readiness status of the datastore.
type ReadinessStatus struct {
	// Message is a human-friendly status message for the current datastore status.
	Message string

	IsReady bool
}
