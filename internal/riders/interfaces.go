package riders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mealdash/mealdash-backend/pkg/db/models"
)

// Repository exposes rider storage operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Rider, error)
	ListAvailableByZone(ctx context.Context, zoneID uuid.UUID) ([]models.Rider, error)
	UpdateAvailability(ctx context.Context, riderID uuid.UUID, available bool) error
	UpdateLocation(ctx context.Context, riderID uuid.UUID, lat, lng float64) error
	// ClaimForAssignment flips Assigned on an available, unassigned
	// rider. It reports false when the rider was already claimed or is
	// not available, without touching the row.
	ClaimForAssignment(ctx context.Context, riderID uuid.UUID) (bool, error)
	// ReleaseAssignment clears the Assigned flag.
	ReleaseAssignment(ctx context.Context, riderID uuid.UUID) error
}
