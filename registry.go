package cadstore

import (
	"context"
	"sort"
	"sync"
)

// Registry is the process-scoped map from objectTypeId to its handler
// (C3). It is safe for concurrent reads and writes. A freshly
// constructed Registry is empty; applications populate it (typically
// via RegisterStandardObjectTypes plus their own registrations) before
// constructing the first Storage against it.
type Registry struct {
	mu       sync.RWMutex
	handlers map[int]ObjectTypeHandler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[int]ObjectTypeHandler)}
}

// defaultRegistry is the process-wide registry used by Storage when no
// explicit Registry is supplied. It starts empty; RegisterStandardObjectTypes
// must be called (directly or via NewStorage's default wiring) before
// bootstrap.
var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Register adds typeId -> handler. Duplicate registration is a no-op:
// the first registration wins and the duplicate is logged.
func (r *Registry) Register(handler ObjectTypeHandler) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	typeID := handler.TypeID()
	if _, exists := r.handlers[typeID]; exists {
		GetLogger().Error("duplicate object type registration", "typeId", typeID)
		return ErrDuplicateObjectType
	}
	r.handlers[typeID] = handler
	return nil
}

// Get returns the handler registered for typeID, if any.
func (r *Registry) Get(typeID int) (ObjectTypeHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[typeID]
	return h, ok
}

// InitDB calls InitDB on every registered handler in ascending typeId
// order, so DDL output is reproducible.
func (r *Registry) InitDB(ctx context.Context, exec Executor) error {
	r.mu.RLock()
	typeIDs := make([]int, 0, len(r.handlers))
	for id := range r.handlers {
		typeIDs = append(typeIDs, id)
	}
	sort.Ints(typeIDs)
	handlers := make([]ObjectTypeHandler, len(typeIDs))
	for i, id := range typeIDs {
		handlers[i] = r.handlers[id]
	}
	r.mu.RUnlock()

	for _, h := range handlers {
		if err := h.InitDB(ctx, exec); err != nil {
			return err
		}
	}
	return nil
}

// Reset clears all registrations. It exists for tests: Go test binaries
// share the package-level defaultRegistry across subtests, and tests
// that exercise registration semantics need a clean slate.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = make(map[int]ObjectTypeHandler)
}

// RegisterStandardObjectTypes registers the built-in handlers (Ucs,
// Line) on r, as a convenience. Applications may register further types
// on r before constructing the first Storage against it
// (NewStorageWithRegistry runs the schema bootstrap).
func RegisterStandardObjectTypes(r *Registry) {
	_ = r.Register(newUcsHandler())
	_ = r.Register(newLineHandler())
}
