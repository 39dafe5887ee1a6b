package types

// Point is a WGS84 coordinate pair stored inside jsonb columns.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Polygon is a closed ring of points. The first and last vertex do not need
// to repeat; containment checks close the ring implicitly.
type Polygon []Point
