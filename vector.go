package cadstore

// Vector3 is a point or direction in 3D space, used both for entity
// geometry (Line endpoints) and coordinate-system axes (Ucs).
type Vector3 struct {
	X, Y, Z float64
}

// BoundingBox is an axis-aligned box described by its min and max corners.
type BoundingBox struct {
	Min Vector3
	Max Vector3
}

// degenerateBoundingBox returns the zero-value box (0,0,0)-(0,0,0),
// used by GetBoundingBox when there are no live entities.
func degenerateBoundingBox() BoundingBox {
	return BoundingBox{}
}

// union returns the componentwise min/max of b and other.
func (b BoundingBox) union(other BoundingBox) BoundingBox {
	return BoundingBox{
		Min: Vector3{
			X: minF(b.Min.X, other.Min.X),
			Y: minF(b.Min.Y, other.Min.Y),
			Z: minF(b.Min.Z, other.Min.Z),
		},
		Max: Vector3{
			X: maxF(b.Max.X, other.Max.X),
			Y: maxF(b.Max.Y, other.Max.Y),
			Z: maxF(b.Max.Z, other.Max.Z),
		},
	}
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
