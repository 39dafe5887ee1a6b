package zones

import (
	"context"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"

	"github.com/mealdash/mealdash-backend/pkg/db/models"
	"github.com/mealdash/mealdash-backend/pkg/db/types"
	pkgerrors "github.com/mealdash/mealdash-backend/pkg/errors"
)

// Resolver maps a delivery point to the active zone containing it.
type Resolver interface {
	Resolve(ctx context.Context, point types.Point) (*models.Zone, error)
}

type resolver struct {
	repo Repository
}

// NewResolver builds a zone resolver over the provided repository.
func NewResolver(repo Repository) (Resolver, error) {
	if repo == nil {
		return nil, fmt.Errorf("zones repository required")
	}
	return &resolver{repo: repo}, nil
}

// Resolve returns the first active zone whose polygon contains the
// point, or nil when no zone matches.
func (r *resolver) Resolve(ctx context.Context, point types.Point) (*models.Zone, error) {
	zones, err := r.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list active zones")
	}
	for i := range zones {
		if Contains(zones[i].Polygon, point) {
			return &zones[i], nil
		}
	}
	return nil, nil
}

// Contains reports whether the polygon ring contains the point.
// Degenerate polygons with fewer than three vertices contain nothing.
func Contains(polygon types.Polygon, point types.Point) bool {
	if len(polygon) < 3 {
		return false
	}
	ring := make(orb.Ring, 0, len(polygon)+1)
	for _, p := range polygon {
		ring = append(ring, orb.Point{p.Lng, p.Lat})
	}
	if ring[0] != ring[len(ring)-1] {
		ring = append(ring, ring[0])
	}
	return planar.RingContains(ring, orb.Point{point.Lng, point.Lat})
}

// DistanceKm returns the haversine distance between two points in
// kilometers.
func DistanceKm(a, b types.Point) float64 {
	return geo.Distance(orb.Point{a.Lng, a.Lat}, orb.Point{b.Lng, b.Lat}) / 1000
}
