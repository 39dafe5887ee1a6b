package types

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Polygon is an ordered ring of vertices stored as JSONB. The ring
// does not need to repeat its first vertex; containment checks close
// it when required.
type Polygon []Point

// IsUsable reports whether the polygon has enough vertices to bound an
// area.
func (p Polygon) IsUsable() bool {
	return len(p) >= 3
}
