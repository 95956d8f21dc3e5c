package cadstore

import (
	"context"
	"database/sql"
)

// Entity is the superclass of all drawing entities: it extends Object
// with selection status and a bounding box.
type Entity struct {
	Object
	SelectionStatus bool
	Box             BoundingBox
}

// entityLike is implemented by every concrete entity type (Line, ...) so
// storage.go can narrow a loaded object to its Entity view without a
// type switch per concrete type.
type entityLike interface {
	asEntity() *Entity
}

func (e *Entity) asEntity() *Entity { return e }

const ddlEntity = `CREATE TABLE IF NOT EXISTS Entity (
	id INTEGER PRIMARY KEY,
	selectionStatus INTEGER,
	minX REAL, minY REAL, minZ REAL,
	maxX REAL, maxY REAL, maxZ REAL
)`

// entityHandler implements C5: the handler for the Entity row, plus the
// set-at-a-time selection primitives and bounding-box aggregation that
// operate directly on the Entity table.
type entityHandler struct {
	base baseObjectHandler
}

func (h *entityHandler) initDB(ctx context.Context, exec Executor) error {
	if err := h.base.initDB(ctx, exec); err != nil {
		return err
	}
	_, err := exec.Exec(ctx, ddlEntity)
	return err
}

func (h *entityHandler) loadObject(ctx context.Context, exec Executor, ent *Entity, id int64) error {
	if err := h.base.loadObject(ctx, exec, &ent.Object, id); err != nil {
		return err
	}
	var selectionStatus int
	var minX, minY, minZ, maxX, maxY, maxZ float64
	err := exec.GetInto(ctx,
		`SELECT selectionStatus, minX, minY, minZ, maxX, maxY, maxZ FROM Entity WHERE id = ?`,
		[]any{id}, &selectionStatus, &minX, &minY, &minZ, &maxX, &maxY, &maxZ)
	if err != nil {
		return err
	}
	ent.SelectionStatus = selectionStatus != 0
	ent.Box = BoundingBox{Min: Vector3{minX, minY, minZ}, Max: Vector3{maxX, maxY, maxZ}}
	return nil
}

func (h *entityHandler) saveObject(ctx context.Context, exec Executor, ent *Entity, isNew bool) error {
	if err := h.base.saveObject(ctx, exec, &ent.Object, isNew); err != nil {
		return err
	}
	selectionStatus := 0
	if ent.SelectionStatus {
		selectionStatus = 1
	}
	if isNew {
		_, err := exec.Exec(ctx,
			`INSERT INTO Entity (id, selectionStatus, minX, minY, minZ, maxX, maxY, maxZ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			ent.ID, selectionStatus, ent.Box.Min.X, ent.Box.Min.Y, ent.Box.Min.Z, ent.Box.Max.X, ent.Box.Max.Y, ent.Box.Max.Z)
		return err
	}
	_, err := exec.Exec(ctx,
		`UPDATE Entity SET selectionStatus = ?, minX = ?, minY = ?, minZ = ?, maxX = ?, maxY = ?, maxZ = ? WHERE id = ?`,
		selectionStatus, ent.Box.Min.X, ent.Box.Min.Y, ent.Box.Min.Z, ent.Box.Max.X, ent.Box.Max.Y, ent.Box.Max.Z, ent.ID)
	return err
}

func (h *entityHandler) deleteObject(ctx context.Context, exec Executor, id int64) error {
	if _, err := exec.Exec(ctx, `DELETE FROM Entity WHERE id = ?`, id); err != nil {
		return err
	}
	return h.base.deleteObject(ctx, exec, id)
}

// queryAllEntities returns the ids of all live entities: objectTypeId
// >= entityTypeIDThreshold, undoStatus = 0, joined to Entity.
func queryAllEntities(ctx context.Context, exec Executor) (ObjectIDSet, error) {
	return idsFromQuery(ctx, exec,
		`SELECT Entity.id FROM Entity JOIN Object ON Object.id = Entity.id
		 WHERE Object.undoStatus = 0 AND Object.objectTypeId >= ?`, entityTypeIDThreshold)
}

// querySelectedEntities returns the ids of all live, currently selected
// entities.
func querySelectedEntities(ctx context.Context, exec Executor) (ObjectIDSet, error) {
	return idsFromQuery(ctx, exec,
		`SELECT Entity.id FROM Entity JOIN Object ON Object.id = Entity.id
		 WHERE Object.undoStatus = 0 AND Object.objectTypeId >= ? AND Entity.selectionStatus = 1`, entityTypeIDThreshold)
}

func idsFromQuery(ctx context.Context, exec Executor, query string, args ...any) (ObjectIDSet, error) {
	out := NewIDSet()
	err := exec.QueryDo(ctx, query, args, func(rows *sql.Rows) error {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return err
		}
		out.Add(id)
		return nil
	})
	return out, err
}

// clearEntitySelection sets selectionStatus = 0 for every currently
// selected row. If affected is non-nil, the ids whose state changes are
// recorded into it before the update runs.
func clearEntitySelection(ctx context.Context, exec Executor, affected ObjectIDSet) error {
	if affected != nil {
		selected, err := querySelectedEntities(ctx, exec)
		if err != nil {
			return err
		}
		for id := range selected {
			affected.Add(id)
		}
	}
	_, err := exec.Exec(ctx, `UPDATE Entity SET selectionStatus = 0 WHERE selectionStatus = 1`)
	return err
}

// selectEntity implements the single-id selection primitive. When add is
// true, id is added to the current selection (idempotent) and the
// affected set is exactly {id}. When add is false, the operation is
// exclusive: id becomes selected and every other row is deselected. The
// affected set is computed as the symmetric difference between the
// previously selected ids and {id}.
func selectEntity(ctx context.Context, exec Executor, id int64, add bool, affected ObjectIDSet) error {
	if add {
		if affected != nil {
			affected.Add(id)
		}
		_, err := exec.Exec(ctx, `UPDATE Entity SET selectionStatus = 1 WHERE id = ?`, id)
		return err
	}

	if affected != nil {
		rows, err := exec.QueryAll(ctx,
			`SELECT id FROM Entity WHERE (id = ? AND selectionStatus = 0) OR (id != ? AND selectionStatus = 1)`,
			id, id)
		if err != nil {
			return err
		}
		for _, row := range rows {
			affected.Add(toInt64(row["id"]))
		}
	}

	_, err := exec.Exec(ctx,
		`UPDATE Entity SET selectionStatus = CASE WHEN id = ? THEN 1 ELSE 0 END
		 WHERE (id = ? AND selectionStatus = 0) OR (id != ? AND selectionStatus = 1)`,
		id, id, id)
	return err
}

// selectEntities implements the set selection primitive. When add is
// true, every id in ids is selected and the affected set is ids itself.
// When add is false, the final selection is exactly ids: everything
// currently selected is first deselected, then every id in ids is
// selected. The affected set is the symmetric difference between the
// previously selected ids and ids, so an id selected both before and
// after is excluded rather than reported twice.
func selectEntities(ctx context.Context, exec Executor, ids ObjectIDSet, add bool, affected ObjectIDSet) error {
	if add {
		for id := range ids {
			if affected != nil {
				affected.Add(id)
			}
			if _, err := exec.Exec(ctx, `UPDATE Entity SET selectionStatus = 1 WHERE id = ?`, id); err != nil {
				return err
			}
		}
		return nil
	}

	var preSelected ObjectIDSet
	if affected != nil {
		var err error
		preSelected, err = querySelectedEntities(ctx, exec)
		if err != nil {
			return err
		}
	}

	if _, err := exec.Exec(ctx, `UPDATE Entity SET selectionStatus = 0 WHERE selectionStatus = 1`); err != nil {
		return err
	}
	for id := range ids {
		if _, err := exec.Exec(ctx, `UPDATE Entity SET selectionStatus = 1 WHERE id = ?`, id); err != nil {
			return err
		}
	}

	if affected != nil {
		for id := range preSelected.SymmetricDifference(ids) {
			affected.Add(id)
		}
	}
	return nil
}

// getBoundingBox returns the componentwise min/max of the bounding boxes
// of all live entities. An empty store returns the degenerate box
// (0,0,0)-(0,0,0).
func getBoundingBox(ctx context.Context, exec Executor) (BoundingBox, error) {
	row, err := exec.QueryRowMap(ctx,
		`SELECT MIN(minX) AS minX, MIN(minY) AS minY, MIN(minZ) AS minZ,
		        MAX(maxX) AS maxX, MAX(maxY) AS maxY, MAX(maxZ) AS maxZ
		 FROM Entity JOIN Object ON Object.id = Entity.id
		 WHERE Object.undoStatus = 0`)
	if err != nil {
		return degenerateBoundingBox(), err
	}
	if row["minx"] == nil {
		return degenerateBoundingBox(), nil
	}
	return BoundingBox{
		Min: Vector3{toFloat64(row["minx"]), toFloat64(row["miny"]), toFloat64(row["minz"])},
		Max: Vector3{toFloat64(row["maxx"]), toFloat64(row["maxy"]), toFloat64(row["maxz"])},
	}, nil
}
