// Package memory contains an in-memory element datastore for development and tests.
package memory

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/ember-nexus/nexus-search/pkg/element"
	"github.com/ember-nexus/nexus-search/pkg/storage"
)

var tracer = otel.Tracer("pkg/storage/memory")

// MemoryBackend keeps elements in a map guarded by a read/write lock.
type MemoryBackend struct {
	mu       sync.RWMutex
	elements map[uuid.UUID]*element.Element
}

var _ storage.ElementDatastore = (*MemoryBackend)(nil)

// New creates a MemoryBackend seeded with elements.
func New(elements ...*element.Element) *MemoryBackend {
	backend := &MemoryBackend{
		elements: make(map[uuid.UUID]*element.Element, len(elements)),
	}
	for _, e := range elements {
		backend.elements[e.ID] = clone(e)
	}
	return backend
}

// Put stores e. It fails with storage.ErrCollision if the id is taken.
func (m *MemoryBackend) Put(ctx context.Context, e *element.Element) error {
	_, span := tracer.Start(ctx, "memory.Put")
	defer span.End()

	if err := e.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.elements[e.ID]; exists {
		return fmt.Errorf("element '%s': %w", e.ID, storage.ErrCollision)
	}
	m.elements[e.ID] = clone(e)
	return nil
}

// GetElement see [storage.ElementReader].GetElement.
func (m *MemoryBackend) GetElement(ctx context.Context, id uuid.UUID) (*element.Element, error) {
	_, span := tracer.Start(ctx, "memory.GetElement")
	defer span.End()

	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.elements[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return clone(e), nil
}

// IsReady see [storage.ElementDatastore].IsReady.
func (m *MemoryBackend) IsReady(context.Context) (storage.ReadinessStatus, error) {
	return storage.ReadinessStatus{IsReady: true}, nil
}

// Close see [storage.ElementDatastore].Close.
func (m *MemoryBackend) Close() {}

func clone(e *element.Element) *element.Element {
	c := *e
	c.Properties = maps.Clone(e.Properties)
	return &c
}
