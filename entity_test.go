package cadstore

import "testing"

func saveLine(t *testing.T, s *Storage, start, end Vector3) *Line {
	t.Helper()
	line := NewLine(start, end)
	if err := s.SaveObject(testCtx, line); err != nil {
		t.Fatalf("SaveObject: %v", err)
	}
	return line
}

func TestQueryAllEntities(t *testing.T) {
	s := newTestStorage(t)
	a := saveLine(t, s, Vector3{}, Vector3{X: 1})
	b := saveLine(t, s, Vector3{}, Vector3{X: 2})
	// a Ucs is not an entity and must not appear in the result.
	ucs := NewUcs(Vector3{}, Vector3{X: 1}, Vector3{Y: 1})
	if err := s.SaveObject(testCtx, ucs); err != nil {
		t.Fatalf("SaveObject(ucs): %v", err)
	}

	ids, err := s.QueryAllEntities(testCtx)
	if err != nil {
		t.Fatalf("QueryAllEntities: %v", err)
	}
	if ids.Len() != 2 || !ids.Contains(a.ID) || !ids.Contains(b.ID) {
		t.Errorf("QueryAllEntities = %v, want {%d,%d}", ids.ToSortedSlice(), a.ID, b.ID)
	}
}

func TestSelectEntityAddIsAdditive(t *testing.T) {
	s := newTestStorage(t)
	a := saveLine(t, s, Vector3{}, Vector3{X: 1})
	b := saveLine(t, s, Vector3{}, Vector3{X: 2})

	affected := NewIDSet()
	if err := s.SelectEntity(testCtx, a.ID, true, affected); err != nil {
		t.Fatalf("SelectEntity(a, add): %v", err)
	}
	if err := s.SelectEntity(testCtx, b.ID, true, affected); err != nil {
		t.Fatalf("SelectEntity(b, add): %v", err)
	}

	selected, err := s.QuerySelectedEntities(testCtx)
	if err != nil {
		t.Fatalf("QuerySelectedEntities: %v", err)
	}
	if selected.Len() != 2 {
		t.Errorf("selected = %v, want both entities selected", selected.ToSortedSlice())
	}
	if affected.Len() != 2 {
		t.Errorf("affected = %v, want {%d,%d}", affected.ToSortedSlice(), a.ID, b.ID)
	}
}

func TestSelectEntityExclusive(t *testing.T) {
	s := newTestStorage(t)
	a := saveLine(t, s, Vector3{}, Vector3{X: 1})
	b := saveLine(t, s, Vector3{}, Vector3{X: 2})

	if err := s.SelectEntity(testCtx, a.ID, true, nil); err != nil {
		t.Fatalf("select a: %v", err)
	}

	affected := NewIDSet()
	if err := s.SelectEntity(testCtx, b.ID, false, affected); err != nil {
		t.Fatalf("SelectEntity(b, exclusive): %v", err)
	}

	selected, err := s.QuerySelectedEntities(testCtx)
	if err != nil {
		t.Fatalf("QuerySelectedEntities: %v", err)
	}
	if selected.Len() != 1 || !selected.Contains(b.ID) {
		t.Errorf("selected = %v, want {%d}", selected.ToSortedSlice(), b.ID)
	}
	// Both a (deselected) and b (selected) changed state.
	if !affected.Contains(a.ID) || !affected.Contains(b.ID) {
		t.Errorf("affected = %v, want {%d,%d}", affected.ToSortedSlice(), a.ID, b.ID)
	}
}

func TestClearEntitySelection(t *testing.T) {
	s := newTestStorage(t)
	a := saveLine(t, s, Vector3{}, Vector3{X: 1})
	if err := s.SelectEntity(testCtx, a.ID, true, nil); err != nil {
		t.Fatalf("select: %v", err)
	}

	affected := NewIDSet()
	if err := s.ClearEntitySelection(testCtx, affected); err != nil {
		t.Fatalf("ClearEntitySelection: %v", err)
	}

	selected, err := s.QuerySelectedEntities(testCtx)
	if err != nil {
		t.Fatalf("QuerySelectedEntities: %v", err)
	}
	if selected.Len() != 0 {
		t.Errorf("selected after clear = %v, want empty", selected.ToSortedSlice())
	}
	if !affected.Contains(a.ID) {
		t.Errorf("affected = %v, want {%d}", affected.ToSortedSlice(), a.ID)
	}
}

func TestSelectEntitiesSet(t *testing.T) {
	s := newTestStorage(t)
	a := saveLine(t, s, Vector3{}, Vector3{X: 1})
	b := saveLine(t, s, Vector3{}, Vector3{X: 2})
	c := saveLine(t, s, Vector3{}, Vector3{X: 3})

	if err := s.SelectEntity(testCtx, a.ID, true, nil); err != nil {
		t.Fatalf("select a: %v", err)
	}

	affected := NewIDSet()
	if err := s.SelectEntities(testCtx, NewIDSet(b.ID, c.ID), false, affected); err != nil {
		t.Fatalf("SelectEntities: %v", err)
	}

	selected, err := s.QuerySelectedEntities(testCtx)
	if err != nil {
		t.Fatalf("QuerySelectedEntities: %v", err)
	}
	if selected.Len() != 2 || !selected.Contains(b.ID) || !selected.Contains(c.ID) {
		t.Errorf("selected = %v, want {%d,%d}", selected.ToSortedSlice(), b.ID, c.ID)
	}
	if !affected.Contains(a.ID) || !affected.Contains(b.ID) || !affected.Contains(c.ID) {
		t.Errorf("affected = %v, want all three touched", affected.ToSortedSlice())
	}
}

// TestSelectEntitiesSetOverlap exercises selection replacement where the
// pre- and post-selection sets overlap: an id selected both before and
// after must be excluded from affected, since its net state didn't change.
func TestSelectEntitiesSetOverlap(t *testing.T) {
	s := newTestStorage(t)
	ids := make([]*Line, 5)
	for i := range ids {
		ids[i] = saveLine(t, s, Vector3{}, Vector3{X: float64(i + 1)})
	}

	pre := NewIDSet(ids[1].ID, ids[3].ID, ids[4].ID) // {2,4,5} by index
	if err := s.SelectEntities(testCtx, pre, true, nil); err != nil {
		t.Fatalf("select pre: %v", err)
	}

	post := NewIDSet(ids[0].ID, ids[1].ID, ids[2].ID) // {1,2,3} by index
	affected := NewIDSet()
	if err := s.SelectEntities(testCtx, post, false, affected); err != nil {
		t.Fatalf("SelectEntities: %v", err)
	}

	selected, err := s.QuerySelectedEntities(testCtx)
	if err != nil {
		t.Fatalf("QuerySelectedEntities: %v", err)
	}
	if !selected.Contains(ids[0].ID) || !selected.Contains(ids[1].ID) || !selected.Contains(ids[2].ID) || selected.Len() != 3 {
		t.Errorf("selected = %v, want {%d,%d,%d}", selected.ToSortedSlice(), ids[0].ID, ids[1].ID, ids[2].ID)
	}

	want := NewIDSet(ids[0].ID, ids[2].ID, ids[3].ID, ids[4].ID) // {1,3,4,5}, excludes 2
	if affected.Len() != want.Len() {
		t.Errorf("affected = %v, want %v", affected.ToSortedSlice(), want.ToSortedSlice())
	}
	for id := range want {
		if !affected.Contains(id) {
			t.Errorf("affected = %v, missing %d", affected.ToSortedSlice(), id)
		}
	}
	if affected.Contains(ids[1].ID) {
		t.Errorf("affected = %v, must not contain %d (selected before and after)", affected.ToSortedSlice(), ids[1].ID)
	}
}

func TestGetBoundingBoxEmpty(t *testing.T) {
	s := newTestStorage(t)
	box, err := s.GetBoundingBox(testCtx)
	if err != nil {
		t.Fatalf("GetBoundingBox: %v", err)
	}
	if box != degenerateBoundingBox() {
		t.Errorf("GetBoundingBox on empty store = %+v, want degenerate", box)
	}
}

func TestGetBoundingBoxUnion(t *testing.T) {
	s := newTestStorage(t)
	saveLine(t, s, Vector3{X: -5, Y: 0, Z: 0}, Vector3{X: 0, Y: 1, Z: 0})
	saveLine(t, s, Vector3{X: 0, Y: 0, Z: 0}, Vector3{X: 5, Y: -3, Z: 2})

	box, err := s.GetBoundingBox(testCtx)
	if err != nil {
		t.Fatalf("GetBoundingBox: %v", err)
	}
	want := BoundingBox{Min: Vector3{X: -5, Y: -3, Z: 0}, Max: Vector3{X: 5, Y: 1, Z: 2}}
	if box != want {
		t.Errorf("GetBoundingBox = %+v, want %+v", box, want)
	}
}

func TestGetBoundingBoxExcludesHiddenEntities(t *testing.T) {
	s := newTestStorage(t)
	a := saveLine(t, s, Vector3{X: -5}, Vector3{X: -1})
	saveLine(t, s, Vector3{X: 0}, Vector3{X: 1})

	if err := s.ToggleUndoStatus(testCtx, a.ID); err != nil {
		t.Fatalf("ToggleUndoStatus: %v", err)
	}

	box, err := s.GetBoundingBox(testCtx)
	if err != nil {
		t.Fatalf("GetBoundingBox: %v", err)
	}
	want := BoundingBox{Min: Vector3{X: 0}, Max: Vector3{X: 1}}
	if box != want {
		t.Errorf("GetBoundingBox after hiding a = %+v, want %+v", box, want)
	}
}
