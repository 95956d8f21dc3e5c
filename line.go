package cadstore

import "context"

// ObjectTypeLine is the registered objectTypeId for Line. It is >= the
// entity threshold since a line is a drawing entity.
const ObjectTypeLine = 100

// Line is a straight drawing entity between two points.
type Line struct {
	Entity
	Start Vector3
	End   Vector3
}

func (l *Line) objectTypeID() int { return ObjectTypeLine }

// NewLine returns an unsaved Line between start and end. Its id is -1
// until Storage.SaveObject assigns one.
func NewLine(start, end Vector3) *Line {
	line := &Line{Start: start, End: end}
	line.ID = -1
	line.ObjectTypeID = ObjectTypeLine
	line.Box = BoundingBox{Min: start, Max: start}.union(BoundingBox{Min: end, Max: end})
	return line
}

const ddlLine = `CREATE TABLE IF NOT EXISTS Line (
	id INTEGER PRIMARY KEY,
	x1 REAL, y1 REAL, z1 REAL,
	x2 REAL, y2 REAL, z2 REAL
)`

// lineHandler implements C6 for Line. It chains into the entity handler
// (which in turn chains into the base object handler), then owns its own
// Line row.
type lineHandler struct {
	entity entityHandler
}

func newLineHandler() *lineHandler { return &lineHandler{} }

func (h *lineHandler) TypeID() int { return ObjectTypeLine }

func (h *lineHandler) InitDB(ctx context.Context, exec Executor) error {
	if err := h.entity.initDB(ctx, exec); err != nil {
		return err
	}
	_, err := exec.Exec(ctx, ddlLine)
	return err
}

func (h *lineHandler) LoadNew(ctx context.Context, exec Executor, id int64) (any, error) {
	line := &Line{}
	line.ObjectTypeID = ObjectTypeLine
	if err := h.entity.loadObject(ctx, exec, &line.Entity, id); err != nil {
		return nil, err
	}
	err := exec.GetInto(ctx,
		`SELECT x1, y1, z1, x2, y2, z2 FROM Line WHERE id = ?`,
		[]any{id}, &line.Start.X, &line.Start.Y, &line.Start.Z, &line.End.X, &line.End.Y, &line.End.Z)
	if err != nil {
		return nil, err
	}
	return line, nil
}

func (h *lineHandler) SaveObject(ctx context.Context, exec Executor, obj any, isNew bool) error {
	line, ok := obj.(*Line)
	if !ok {
		return ErrTypeMismatch
	}
	line.ObjectTypeID = ObjectTypeLine
	if err := h.entity.saveObject(ctx, exec, &line.Entity, isNew); err != nil {
		return err
	}
	if isNew {
		_, err := exec.Exec(ctx,
			`INSERT INTO Line (id, x1, y1, z1, x2, y2, z2) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			line.ID, line.Start.X, line.Start.Y, line.Start.Z, line.End.X, line.End.Y, line.End.Z)
		return err
	}
	_, err := exec.Exec(ctx,
		`UPDATE Line SET x1 = ?, y1 = ?, z1 = ?, x2 = ?, y2 = ?, z2 = ? WHERE id = ?`,
		line.Start.X, line.Start.Y, line.Start.Z, line.End.X, line.End.Y, line.End.Z, line.ID)
	return err
}

func (h *lineHandler) DeleteObject(ctx context.Context, exec Executor, id int64) error {
	if _, err := exec.Exec(ctx, `DELETE FROM Line WHERE id = ?`, id); err != nil {
		return err
	}
	return h.entity.deleteObject(ctx, exec, id)
}
