package cadstore

import "context"

// Non-entity object-type ids live below this threshold; entity types
// (drawing geometry) live at or above it. queryAllEntities relies on
// this split instead of a join against a type table.
const entityTypeIDThreshold = 100

// Object is the generic persisted row every storable type extends.
type Object struct {
	ID           int64
	ObjectTypeID int
	UndoStatus   bool
}

func (o *Object) base() *Object { return o }

// storableObject is implemented (via embedding) by every concrete type
// this package defines. Storage.SaveObject dispatches on objectTypeID
// rather than on a runtime type switch.
type storableObject interface {
	base() *Object
	objectTypeID() int
}

// ObjectTypeHandler is the capability every concrete storable type
// implements: initialise its own tables, load a fresh instance, save
// (insert or update), and delete. Handlers compose their parent handler
// rather than inheriting from it; chain-to-parent calls are explicit.
type ObjectTypeHandler interface {
	// TypeID returns the objectTypeId this handler is registered under.
	TypeID() int

	// InitDB creates this handler's own tables idempotently. Must call
	// the parent handler's InitDB first (parent-before-child).
	InitDB(ctx context.Context, exec Executor) error

	// LoadNew allocates a fresh concrete object and populates it from
	// row id. Returns ErrNotFound if no row exists.
	LoadNew(ctx context.Context, exec Executor, id int64) (any, error)

	// SaveObject upserts obj (which must be the concrete type this
	// handler owns): insert when isNew, update otherwise. Must call the
	// parent handler's SaveObject first on insert so the base Object
	// row (and any entity row) exists before the child's row
	// references it.
	SaveObject(ctx context.Context, exec Executor, obj any, isNew bool) error

	// DeleteObject deletes this handler's own row first, then chains to
	// the parent handler's delete (child-before-parent).
	DeleteObject(ctx context.Context, exec Executor, id int64) error
}

const ddlObject = `CREATE TABLE IF NOT EXISTS Object (
	id INTEGER PRIMARY KEY,
	objectTypeId INTEGER,
	undoStatus INTEGER
)`

// baseObjectHandler implements C4, the handler for the generic Object
// row. Every concrete handler embeds one and chains to it first on
// init/load/save-insert, last on delete.
type baseObjectHandler struct{}

func (h *baseObjectHandler) initDB(ctx context.Context, exec Executor) error {
	if _, err := exec.Exec(ctx, ddlObject); err != nil {
		return err
	}
	return nil
}

// loadObject populates obj.ID; objectTypeId and undoStatus are already
// known to the caller by the time it dispatches here (queryObject reads
// them to pick the handler in the first place).
func (h *baseObjectHandler) loadObject(ctx context.Context, exec Executor, obj *Object, id int64) error {
	obj.ID = id
	return nil
}

func (h *baseObjectHandler) saveObject(ctx context.Context, exec Executor, obj *Object, isNew bool) error {
	if !isNew {
		return nil
	}
	result, err := exec.Exec(ctx, `INSERT INTO Object (id, objectTypeId, undoStatus) VALUES (NULL, ?, 0)`, obj.ObjectTypeID)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	obj.ID = id
	obj.UndoStatus = false
	return nil
}

func (h *baseObjectHandler) deleteObject(ctx context.Context, exec Executor, id int64) error {
	_, err := exec.Exec(ctx, `DELETE FROM Object WHERE id = ?`, id)
	return err
}
