package cadstore

import "context"

// ObjectTypeUcs is the registered objectTypeId for Ucs. It is below the
// entity threshold: a coordinate system is not a drawing entity.
const ObjectTypeUcs = 1

// Ucs is a user coordinate system: an origin plus two axis directions.
// It is a direct child of the base object handler, not the entity
// handler.
type Ucs struct {
	Object
	Origin Vector3
	XAxis  Vector3
	YAxis  Vector3
}

func (u *Ucs) objectTypeID() int { return ObjectTypeUcs }

// NewUcs returns an unsaved Ucs with the given origin and axis
// directions. Its id is -1 until Storage.SaveObject assigns one.
func NewUcs(origin, xAxis, yAxis Vector3) *Ucs {
	ucs := &Ucs{Origin: origin, XAxis: xAxis, YAxis: yAxis}
	ucs.ID = -1
	ucs.ObjectTypeID = ObjectTypeUcs
	return ucs
}

const ddlUcs = `CREATE TABLE IF NOT EXISTS Ucs (
	id INTEGER PRIMARY KEY,
	originX REAL, originY REAL, originZ REAL,
	xAxisDirectionX REAL, xAxisDirectionY REAL, xAxisDirectionZ REAL,
	yAxisDirectionX REAL, yAxisDirectionY REAL, yAxisDirectionZ REAL
)`

// ucsHandler implements C6 for Ucs, chaining directly to the base object
// handler.
type ucsHandler struct {
	base baseObjectHandler
}

func newUcsHandler() *ucsHandler { return &ucsHandler{} }

func (h *ucsHandler) TypeID() int { return ObjectTypeUcs }

func (h *ucsHandler) InitDB(ctx context.Context, exec Executor) error {
	if err := h.base.initDB(ctx, exec); err != nil {
		return err
	}
	_, err := exec.Exec(ctx, ddlUcs)
	return err
}

func (h *ucsHandler) LoadNew(ctx context.Context, exec Executor, id int64) (any, error) {
	ucs := &Ucs{}
	ucs.ObjectTypeID = ObjectTypeUcs
	if err := h.base.loadObject(ctx, exec, &ucs.Object, id); err != nil {
		return nil, err
	}
	err := exec.GetInto(ctx,
		`SELECT originX, originY, originZ, xAxisDirectionX, xAxisDirectionY, xAxisDirectionZ,
		        yAxisDirectionX, yAxisDirectionY, yAxisDirectionZ
		 FROM Ucs WHERE id = ?`,
		[]any{id},
		&ucs.Origin.X, &ucs.Origin.Y, &ucs.Origin.Z,
		&ucs.XAxis.X, &ucs.XAxis.Y, &ucs.XAxis.Z,
		&ucs.YAxis.X, &ucs.YAxis.Y, &ucs.YAxis.Z)
	if err != nil {
		return nil, err
	}
	return ucs, nil
}

func (h *ucsHandler) SaveObject(ctx context.Context, exec Executor, obj any, isNew bool) error {
	ucs, ok := obj.(*Ucs)
	if !ok {
		return ErrTypeMismatch
	}
	ucs.ObjectTypeID = ObjectTypeUcs
	if err := h.base.saveObject(ctx, exec, &ucs.Object, isNew); err != nil {
		return err
	}
	if isNew {
		_, err := exec.Exec(ctx,
			`INSERT INTO Ucs (id, originX, originY, originZ, xAxisDirectionX, xAxisDirectionY, xAxisDirectionZ,
			                   yAxisDirectionX, yAxisDirectionY, yAxisDirectionZ)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			ucs.ID, ucs.Origin.X, ucs.Origin.Y, ucs.Origin.Z,
			ucs.XAxis.X, ucs.XAxis.Y, ucs.XAxis.Z,
			ucs.YAxis.X, ucs.YAxis.Y, ucs.YAxis.Z)
		return err
	}
	_, err := exec.Exec(ctx,
		`UPDATE Ucs SET originX = ?, originY = ?, originZ = ?,
		                xAxisDirectionX = ?, xAxisDirectionY = ?, xAxisDirectionZ = ?,
		                yAxisDirectionX = ?, yAxisDirectionY = ?, yAxisDirectionZ = ?
		 WHERE id = ?`,
		ucs.Origin.X, ucs.Origin.Y, ucs.Origin.Z,
		ucs.XAxis.X, ucs.XAxis.Y, ucs.XAxis.Z,
		ucs.YAxis.X, ucs.YAxis.Y, ucs.YAxis.Z,
		ucs.ID)
	return err
}

func (h *ucsHandler) DeleteObject(ctx context.Context, exec Executor, id int64) error {
	if _, err := exec.Exec(ctx, `DELETE FROM Ucs WHERE id = ?`, id); err != nil {
		return err
	}
	return h.base.deleteObject(ctx, exec, id)
}
