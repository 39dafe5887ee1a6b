package zones

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mealdash/mealdash-backend/pkg/db/models"
)

// Repository exposes zone storage operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Zone, error)
	ListActive(ctx context.Context) ([]models.Zone, error)
}
