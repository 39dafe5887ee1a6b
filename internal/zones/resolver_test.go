package zones

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mealdash/mealdash-backend/pkg/db/models"
	"github.com/mealdash/mealdash-backend/pkg/db/types"
)

type stubZonesRepo struct {
	zones []models.Zone
	err   error
}

func (s *stubZonesRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubZonesRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Zone, error) {
	for i := range s.zones {
		if s.zones[i].ID == id {
			return &s.zones[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubZonesRepo) ListActive(ctx context.Context) ([]models.Zone, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.zones, nil
}

func squareZone(title string, minLat, minLng, maxLat, maxLng float64) models.Zone {
	return models.Zone{
		ID:     uuid.New(),
		Title:  title,
		Active: true,
		Polygon: types.Polygon{
			{Lat: minLat, Lng: minLng},
			{Lat: minLat, Lng: maxLng},
			{Lat: maxLat, Lng: maxLng},
			{Lat: maxLat, Lng: minLng},
		},
	}
}

func TestResolvePicksContainingZone(t *testing.T) {
	downtown := squareZone("downtown", 23.70, 90.35, 23.80, 90.45)
	uptown := squareZone("uptown", 23.80, 90.35, 23.90, 90.45)
	repo := &stubZonesRepo{zones: []models.Zone{downtown, uptown}}
	resolver, err := NewResolver(repo)
	if err != nil {
		t.Fatalf("construct resolver: %v", err)
	}

	zone, err := resolver.Resolve(context.Background(), types.Point{Lat: 23.85, Lng: 90.40})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if zone == nil || zone.ID != uptown.ID {
		t.Fatalf("expected uptown zone, got %+v", zone)
	}
}

func TestResolveReturnsNilOutsideAllZones(t *testing.T) {
	repo := &stubZonesRepo{zones: []models.Zone{squareZone("downtown", 23.70, 90.35, 23.80, 90.45)}}
	resolver, _ := NewResolver(repo)

	zone, err := resolver.Resolve(context.Background(), types.Point{Lat: 24.50, Lng: 91.00})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if zone != nil {
		t.Fatalf("expected no zone, got %s", zone.Title)
	}
}

func TestContainsDegeneratePolygon(t *testing.T) {
	if Contains(types.Polygon{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}}, types.Point{Lat: 1, Lng: 1}) {
		t.Fatal("two-point polygon should contain nothing")
	}
	if Contains(nil, types.Point{}) {
		t.Fatal("nil polygon should contain nothing")
	}
}

func TestDistanceKm(t *testing.T) {
	// One degree of latitude is roughly 111km.
	a := types.Point{Lat: 23.0, Lng: 90.0}
	b := types.Point{Lat: 24.0, Lng: 90.0}
	got := DistanceKm(a, b)
	if got < 105 || got > 115 {
		t.Fatalf("unexpected distance %f", got)
	}
}
