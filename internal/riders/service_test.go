package riders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mealdash/mealdash-backend/pkg/db/models"
	pkgerrors "github.com/mealdash/mealdash-backend/pkg/errors"
)

type stubRidersRepo struct {
	rider       *models.Rider
	updatedAvab *bool
	lat, lng    float64
	located     bool
}

func (s *stubRidersRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubRidersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Rider, error) {
	if s.rider == nil || s.rider.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.rider, nil
}

func (s *stubRidersRepo) ListAvailableByZone(ctx context.Context, zoneID uuid.UUID) ([]models.Rider, error) {
	panic("not implemented")
}

func (s *stubRidersRepo) UpdateAvailability(ctx context.Context, riderID uuid.UUID, available bool) error {
	s.updatedAvab = &available
	s.rider.Available = available
	return nil
}

func (s *stubRidersRepo) UpdateLocation(ctx context.Context, riderID uuid.UUID, lat, lng float64) error {
	s.lat, s.lng = lat, lng
	s.located = true
	return nil
}

func (s *stubRidersRepo) ClaimForAssignment(ctx context.Context, riderID uuid.UUID) (bool, error) {
	panic("not implemented")
}

func (s *stubRidersRepo) ReleaseAssignment(ctx context.Context, riderID uuid.UUID) error {
	panic("not implemented")
}

func TestSetAvailability(t *testing.T) {
	riderID := uuid.New()
	repo := &stubRidersRepo{rider: &models.Rider{ID: riderID, Active: true}}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}

	if err := svc.SetAvailability(context.Background(), riderID, true); err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if repo.updatedAvab == nil || !*repo.updatedAvab {
		t.Fatal("availability not updated")
	}
}

func TestSetAvailabilityIdempotent(t *testing.T) {
	riderID := uuid.New()
	repo := &stubRidersRepo{rider: &models.Rider{ID: riderID, Active: true, Available: true}}
	svc, _ := NewService(repo)

	if err := svc.SetAvailability(context.Background(), riderID, true); err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if repo.updatedAvab != nil {
		t.Fatal("no update expected when state unchanged")
	}
}

func TestSetUnavailableRejectedWhileAssigned(t *testing.T) {
	riderID := uuid.New()
	repo := &stubRidersRepo{rider: &models.Rider{ID: riderID, Active: true, Available: true, Assigned: true}}
	svc, _ := NewService(repo)

	err := svc.SetAvailability(context.Background(), riderID, false)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeBusinessRule {
		t.Fatalf("expected business rule error got %v", err)
	}
	if repo.updatedAvab != nil {
		t.Fatal("availability must not change")
	}
}

func TestUpdateLocationValidatesRange(t *testing.T) {
	riderID := uuid.New()
	repo := &stubRidersRepo{rider: &models.Rider{ID: riderID, Active: true}}
	svc, _ := NewService(repo)

	err := svc.UpdateLocation(context.Background(), riderID, 123.0, 90.0)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error got %v", err)
	}
	if repo.located {
		t.Fatal("location must not be stored")
	}

	if err := svc.UpdateLocation(context.Background(), riderID, 23.78, 90.40); err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if !repo.located || repo.lat != 23.78 || repo.lng != 90.40 {
		t.Fatalf("unexpected stored location %f %f", repo.lat, repo.lng)
	}
}
