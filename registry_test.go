package cadstore

import "testing"

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	h := newLineHandler()
	if err := r.Register(h); err != nil {
		t.Fatalf("Register: %v", err)
	}
	got, ok := r.Get(ObjectTypeLine)
	if !ok {
		t.Fatal("Get did not find registered handler")
	}
	if got.TypeID() != ObjectTypeLine {
		t.Errorf("TypeID() = %d, want %d", got.TypeID(), ObjectTypeLine)
	}
}

func TestRegistryGetUnregistered(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Get(12345); ok {
		t.Error("Get should not find an unregistered type")
	}
}

func TestRegistryDuplicateRegistration(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(newLineHandler()); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	err := r.Register(newLineHandler())
	if err != ErrDuplicateObjectType {
		t.Errorf("second Register = %v, want ErrDuplicateObjectType", err)
	}
}

func TestRegistryReset(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(newLineHandler())
	r.Reset()
	if _, ok := r.Get(ObjectTypeLine); ok {
		t.Error("Get should find nothing after Reset")
	}
}

func TestRegisterStandardObjectTypes(t *testing.T) {
	r := NewRegistry()
	RegisterStandardObjectTypes(r)
	if _, ok := r.Get(ObjectTypeLine); !ok {
		t.Error("Line handler not registered")
	}
	if _, ok := r.Get(ObjectTypeUcs); !ok {
		t.Error("Ucs handler not registered")
	}
}

func TestRegistryInitDB(t *testing.T) {
	s := newTestStorage(t)
	// NewStorageWithRegistry already called bootstrap (which calls
	// InitDB); a second call must be idempotent since all DDL uses
	// CREATE TABLE IF NOT EXISTS.
	if err := s.registry.InitDB(testCtx, s.exec); err != nil {
		t.Fatalf("second InitDB call: %v", err)
	}
}
