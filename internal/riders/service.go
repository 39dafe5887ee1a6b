package riders

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mealdash/mealdash-backend/pkg/db/models"
	pkgerrors "github.com/mealdash/mealdash-backend/pkg/errors"
)

// Service defines rider self-service operations.
type Service interface {
	SetAvailability(ctx context.Context, riderID uuid.UUID, available bool) error
	UpdateLocation(ctx context.Context, riderID uuid.UUID, lat, lng float64) error
	Get(ctx context.Context, riderID uuid.UUID) (*models.Rider, error)
}

type service struct {
	repo Repository
}

// NewService builds a rider service with the required dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("riders repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) SetAvailability(ctx context.Context, riderID uuid.UUID, available bool) error {
	if riderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "rider id required")
	}
	rider, err := s.repo.FindByID(ctx, riderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "rider not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load rider")
	}
	if !rider.Active {
		return pkgerrors.New(pkgerrors.CodeForbidden, "rider is not active")
	}
	if rider.Available == available {
		return nil
	}
	if !available && rider.Assigned {
		return pkgerrors.New(pkgerrors.CodeBusinessRule, "rider has an active assignment")
	}
	if err := s.repo.UpdateAvailability(ctx, riderID, available); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update rider availability")
	}
	return nil
}

func (s *service) UpdateLocation(ctx context.Context, riderID uuid.UUID, lat, lng float64) error {
	if riderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "rider id required")
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return pkgerrors.New(pkgerrors.CodeValidation, "coordinates out of range")
	}
	if err := s.repo.UpdateLocation(ctx, riderID, lat, lng); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update rider location")
	}
	return nil
}

func (s *service) Get(ctx context.Context, riderID uuid.UUID) (*models.Rider, error) {
	rider, err := s.repo.FindByID(ctx, riderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "rider not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load rider")
	}
	return rider, nil
}
