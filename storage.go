package cadstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
)

// Storage is the top-level API used by applications (C8): object CRUD,
// entity selection, bounding-box aggregation, transaction save/replay/
// prune, undo/redo bit toggling, and variable storage.
//
// A Storage instance owns its SQL connection exclusively for its
// lifetime; it is not safe for concurrent callers without external
// synchronisation (the underlying embedded engine is assumed
// single-writer).
type Storage struct {
	db       *DB
	registry *Registry
	exec     Executor
	activeTx *Tx
}

// NewStorage opens (and, if necessary, creates) a SQLite-backed store at
// dsn (a file path, or ":memory:"), registers the standard object types
// on the process-wide default registry, and bootstraps the schema.
func NewStorage(dsn string, opts ...Option) (*Storage, error) {
	registry := DefaultRegistry()
	RegisterStandardObjectTypes(registry)
	return NewStorageWithRegistry(dsn, registry, opts...)
}

// NewStorageWithRegistry is like NewStorage but dispatches through an
// explicit registry instead of the process-wide default. Applications
// that need additional object types beyond the standard set construct
// their own Registry, register their handlers, then call this.
func NewStorageWithRegistry(dsn string, registry *Registry, opts ...Option) (*Storage, error) {
	db, err := Open("sqlite3", dsn, opts...)
	if err != nil {
		return nil, err
	}

	s := &Storage{db: db, registry: registry, exec: db}
	if err := bootstrap(context.Background(), s.exec, registry); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

// BeginTransaction starts a driver transaction; subsequent Storage calls
// run against it until CommitTransaction or RollbackTransaction. Callers
// use this to bracket multi-step operations (e.g. several SaveObject
// calls plus a SaveTransaction) atomically, per the ordering guarantees
// in the concurrency model.
func (s *Storage) BeginTransaction(ctx context.Context) error {
	if s.activeTx != nil {
		return fmt.Errorf("cadstore: transaction already active")
	}
	tx, err := s.db.Begin(ctx, nil)
	if err != nil {
		return err
	}
	s.activeTx = tx
	s.exec = tx
	return nil
}

// CommitTransaction commits the transaction started by BeginTransaction.
func (s *Storage) CommitTransaction() error {
	if s.activeTx == nil {
		return fmt.Errorf("cadstore: no active transaction")
	}
	err := s.activeTx.Commit()
	s.activeTx = nil
	s.exec = s.db
	return err
}

// RollbackTransaction aborts the transaction started by BeginTransaction.
func (s *Storage) RollbackTransaction() error {
	if s.activeTx == nil {
		return fmt.Errorf("cadstore: no active transaction")
	}
	err := s.activeTx.Rollback()
	s.activeTx = nil
	s.exec = s.db
	return err
}

// --- object queries -------------------------------------------------

// QueryAllObjects returns the ids of all live objects.
func (s *Storage) QueryAllObjects(ctx context.Context) (ObjectIDSet, error) {
	return idsFromQuery(ctx, s.exec, `SELECT id FROM Object WHERE undoStatus = 0`)
}

// QueryAllEntities returns the ids of all live drawing entities.
func (s *Storage) QueryAllEntities(ctx context.Context) (ObjectIDSet, error) {
	return queryAllEntities(ctx, s.exec)
}

// QueryAllUcs returns the ids of all live coordinate systems.
func (s *Storage) QueryAllUcs(ctx context.Context) (ObjectIDSet, error) {
	return idsFromQuery(ctx, s.exec, `SELECT id FROM Object WHERE undoStatus = 0 AND objectTypeId = ?`, ObjectTypeUcs)
}

func (s *Storage) getObjectTypeID(ctx context.Context, id int64) (int, bool, error) {
	var typeID int
	err := s.exec.GetInto(ctx, `SELECT objectTypeId FROM Object WHERE id = ? AND undoStatus = 0`, []any{id}, &typeID)
	if errors.Is(err, ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return typeID, true, nil
}

// QueryObject looks up objectTypeId for id, resolves the registered
// handler, and loads a fresh concrete instance (*Line, *Ucs, ...) as
// `any`. Returns (nil, nil), not an error, if id is absent, hidden, or
// maps to an unregistered type. A non-nil error indicates a driver
// failure.
func (s *Storage) QueryObject(ctx context.Context, id int64) (any, error) {
	typeID, found, err := s.getObjectTypeID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	handler, ok := s.registry.Get(typeID)
	if !ok {
		GetLogger().Warn("unknown object type during load", "objectTypeId", typeID, "id", id)
		return nil, nil
	}

	obj, err := handler.LoadNew(ctx, s.exec, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			GetLogger().Warn("missing row while loading object", "id", id)
			return nil, nil
		}
		return nil, err
	}
	return obj, nil
}

// QueryEntity loads id and narrows it to *Entity. Returns (nil, nil) if
// id is absent or not an entity type.
func (s *Storage) QueryEntity(ctx context.Context, id int64) (*Entity, error) {
	obj, err := s.QueryObject(ctx, id)
	if err != nil || obj == nil {
		return nil, err
	}
	el, ok := obj.(entityLike)
	if !ok {
		GetLogger().Warn("type narrowing to entity failed", "id", id)
		return nil, nil
	}
	return el.asEntity(), nil
}

// QueryUcs loads id and narrows it to *Ucs. Returns (nil, nil) if id is
// absent or not a Ucs.
func (s *Storage) QueryUcs(ctx context.Context, id int64) (*Ucs, error) {
	obj, err := s.QueryObject(ctx, id)
	if err != nil || obj == nil {
		return nil, err
	}
	ucs, ok := obj.(*Ucs)
	if !ok {
		GetLogger().Warn("type narrowing to ucs failed", "id", id)
		return nil, nil
	}
	return ucs, nil
}

// SaveObject upserts obj: isNew is obj's base id == -1. Dispatch is by
// obj's own objectTypeID, not a stored field, since a fresh object has
// no base Object row yet to read one from.
func (s *Storage) SaveObject(ctx context.Context, obj storableObject) error {
	b := obj.base()
	isNew := b.ID == -1
	typeID := obj.objectTypeID()
	if isNew {
		b.ObjectTypeID = typeID
	}

	handler, ok := s.registry.Get(typeID)
	if !ok {
		return ErrUnknownObjectType
	}
	return handler.SaveObject(ctx, s.exec, obj, isNew)
}

// DeleteObject resolves id's type and dispatches to the handler's
// delete. Hidden (undone) objects are deleted as well. Deleting an
// unknown or already-absent id is a logged no-op, matching the
// failure-semantics table.
func (s *Storage) DeleteObject(ctx context.Context, id int64) error {
	var typeID int
	err := s.exec.GetInto(ctx, `SELECT objectTypeId FROM Object WHERE id = ?`, []any{id}, &typeID)
	if errors.Is(err, ErrNotFound) {
		GetLogger().Warn("delete of unknown object", "id", id)
		return nil
	}
	if err != nil {
		return err
	}
	handler, ok := s.registry.Get(typeID)
	if !ok {
		GetLogger().Warn("delete: unregistered object type", "objectTypeId", typeID, "id", id)
		return nil
	}
	return handler.DeleteObject(ctx, s.exec, id)
}

// --- undo status ------------------------------------------------------

// ToggleUndoStatus flips Object.undoStatus for id: 0 to 1 (undo, the
// object disappears from live queries) or 1 to 0 (redo).
func (s *Storage) ToggleUndoStatus(ctx context.Context, id int64) error {
	_, err := s.exec.Exec(ctx, `UPDATE Object SET undoStatus = NOT(undoStatus) WHERE id = ?`, id)
	return err
}

// ToggleUndoStatuses flips undoStatus for every id in ids.
func (s *Storage) ToggleUndoStatuses(ctx context.Context, ids ObjectIDSet) error {
	for id := range ids {
		if err := s.ToggleUndoStatus(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// GetUndoStatus reports whether id currently has undoStatus set.
func (s *Storage) GetUndoStatus(ctx context.Context, id int64) (bool, error) {
	var status int
	if err := s.exec.GetInto(ctx, `SELECT undoStatus FROM Object WHERE id = ?`, []any{id}, &status); err != nil {
		return false, err
	}
	return status != 0, nil
}

// --- selection façade ---------------------------------------------------

// QuerySelectedEntities returns the ids of all live, currently selected
// entities.
func (s *Storage) QuerySelectedEntities(ctx context.Context) (ObjectIDSet, error) {
	return querySelectedEntities(ctx, s.exec)
}

// ClearEntitySelection deselects every currently selected entity.
func (s *Storage) ClearEntitySelection(ctx context.Context, affected ObjectIDSet) error {
	return clearEntitySelection(ctx, s.exec, affected)
}

// SelectEntity selects a single entity. With add true it is added to the
// current selection; with add false every other entity is deselected.
func (s *Storage) SelectEntity(ctx context.Context, id int64, add bool, affected ObjectIDSet) error {
	return selectEntity(ctx, s.exec, id, add, affected)
}

// SelectEntities selects a set of entities. With add true they are added
// to the current selection; with add false the selection becomes exactly
// ids.
func (s *Storage) SelectEntities(ctx context.Context, ids ObjectIDSet, add bool, affected ObjectIDSet) error {
	return selectEntities(ctx, s.exec, ids, add, affected)
}

// GetBoundingBox returns the componentwise min/max bounding box over all
// live entities.
func (s *Storage) GetBoundingBox(ctx context.Context) (BoundingBox, error) {
	return getBoundingBox(ctx, s.exec)
}

// --- transaction log --------------------------------------------------

// GetLastTransactionID reads the LastTransaction entry from Variables.
func (s *Storage) GetLastTransactionID(ctx context.Context) (int64, error) {
	var raw string
	if err := s.exec.GetInto(ctx, `SELECT value FROM Variables WHERE key = ?`, []any{lastTransactionKey}, &raw); err != nil {
		return 0, err
	}
	return strconv.ParseInt(raw, 10, 64)
}

// SetLastTransactionID writes the LastTransaction entry in Variables.
func (s *Storage) SetLastTransactionID(ctx context.Context, id int64) error {
	_, err := s.exec.Exec(ctx, `UPDATE Variables SET value = ? WHERE key = ?`, strconv.FormatInt(id, 10), lastTransactionKey)
	return err
}

// GetMaxTransactionID returns max(id) over Transaction2, or -1 if empty.
func (s *Storage) GetMaxTransactionID(ctx context.Context) (int64, error) {
	row, err := s.exec.QueryRowMap(ctx, `SELECT MAX(id) AS maxId FROM Transaction2`)
	if err != nil {
		return 0, err
	}
	if row["maxid"] == nil {
		return -1, nil
	}
	return toInt64(row["maxid"]), nil
}

// SaveTransaction persists t: if t.Undoable is false this is a no-op. On
// success t.ID is assigned lastTransactionId+1, the ordering is prune
// (DeleteTransactionsFrom), insert the transaction row, insert the
// affected-object rows, insert the property-change rows, then advance
// lastTransactionId.
func (s *Storage) SaveTransaction(ctx context.Context, t *Transaction) error {
	if !t.Undoable {
		return nil
	}
	if err := t.Validate(); err != nil {
		return err
	}

	lastID, err := s.GetLastTransactionID(ctx)
	if err != nil {
		return err
	}
	t.ID = lastID + 1

	if err := s.DeleteTransactionsFrom(ctx, t.ID); err != nil {
		return err
	}

	if _, err := s.exec.Exec(ctx, `INSERT INTO Transaction2 (id, parentId, text) VALUES (?, NULL, ?)`, t.ID, t.Text); err != nil {
		return err
	}

	for oid := range t.Affected {
		if _, err := s.exec.Exec(ctx, `INSERT INTO AffectedObjects (tid, oid) VALUES (?, ?)`, t.ID, oid); err != nil {
			return err
		}
	}

	for oid, changes := range t.Changes {
		for _, change := range changes {
			if _, err := s.exec.Exec(ctx,
				`INSERT INTO PropertyChanges (tid, oid, pid, dataType, oldValue, newValue) VALUES (?, ?, ?, ?, ?, ?)`,
				t.ID, oid, change.PropertyTypeID, int(change.OldValue.Type), change.OldValue.encode(), change.NewValue.encode()); err != nil {
				return err
			}
		}
	}

	return s.SetLastTransactionID(ctx, t.ID)
}

// GetTransaction reconstructs the change-set stored under id. A driver
// error reading the label is recovered locally by substituting an empty
// label instead of surfacing the failure.
func (s *Storage) GetTransaction(ctx context.Context, id int64) (*Transaction, error) {
	var text string
	if err := s.exec.GetInto(ctx, `SELECT text FROM Transaction2 WHERE id = ?`, []any{id}, &text); err != nil {
		GetLogger().Warn("failed to read transaction label, substituting empty", "id", id, "error", err)
		text = ""
	}

	affected := NewIDSet()
	err := s.exec.QueryDo(ctx, `SELECT oid FROM AffectedObjects WHERE tid = ?`, []any{id}, func(rows *sql.Rows) error {
		var oid int64
		if err := rows.Scan(&oid); err != nil {
			return err
		}
		affected.Add(oid)
		return nil
	})
	if err != nil {
		return nil, err
	}

	changes := make(map[int64][]PropertyChange)
	err = s.exec.QueryDo(ctx, `SELECT oid, pid, dataType, oldValue, newValue FROM PropertyChanges WHERE tid = ?`, []any{id}, func(rows *sql.Rows) error {
		var oid int64
		var pid int
		var dataType int
		var oldRaw, newRaw []byte
		if err := rows.Scan(&oid, &pid, &dataType, &oldRaw, &newRaw); err != nil {
			return err
		}
		oldValue, err := decodePropertyValue(DataType(dataType), oldRaw)
		if err != nil {
			return err
		}
		newValue, err := decodePropertyValue(DataType(dataType), newRaw)
		if err != nil {
			return err
		}
		changes[oid] = append(changes[oid], PropertyChange{
			ObjectID:       oid,
			PropertyTypeID: pid,
			OldValue:       oldValue,
			NewValue:       newValue,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Transaction{ID: id, Text: text, Undoable: true, Affected: affected, Changes: changes}, nil
}

// DeleteTransactionsFrom prunes every transaction with id >= cut: this
// is the branch-cut that invalidates redo history when a new
// transaction is saved over it. Any object referenced exclusively by
// transactions in the cut region (no surviving reference below it) is
// physically deleted via DeleteObject.
func (s *Storage) DeleteTransactionsFrom(ctx context.Context, cut int64) error {
	orphanCandidates := NewIDSet()
	err := s.exec.QueryDo(ctx, `SELECT DISTINCT oid FROM AffectedObjects WHERE tid >= ?`, []any{cut}, func(rows *sql.Rows) error {
		var oid int64
		if err := rows.Scan(&oid); err != nil {
			return err
		}
		orphanCandidates.Add(oid)
		return nil
	})
	if err != nil {
		return err
	}

	for oid := range orphanCandidates {
		var refsBelowCut int
		err := s.exec.GetInto(ctx, `SELECT COUNT(*) FROM AffectedObjects WHERE tid < ? AND oid = ?`, []any{cut, oid}, &refsBelowCut)
		if err != nil {
			return err
		}
		if refsBelowCut == 0 {
			if err := s.DeleteObject(ctx, oid); err != nil {
				return err
			}
		}
	}

	if _, err := s.exec.Exec(ctx, `DELETE FROM AffectedObjects WHERE tid >= ?`, cut); err != nil {
		return err
	}
	if _, err := s.exec.Exec(ctx, `DELETE FROM PropertyChanges WHERE tid >= ?`, cut); err != nil {
		return err
	}
	_, err = s.exec.Exec(ctx, `DELETE FROM Transaction2 WHERE id >= ?`, cut)
	return err
}
