package cadstore

import (
	"context"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// newTestStorage returns a Storage backed by a fresh in-memory SQLite
// database and its own private registry, so tests never collide with
// each other (or with the package-level default registry) over
// registrations.
func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	registry := NewRegistry()
	RegisterStandardObjectTypes(registry)
	s, err := NewStorageWithRegistry(":memory:", registry)
	if err != nil {
		t.Fatalf("NewStorageWithRegistry: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

var testCtx = context.Background()
