package riders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mealdash/mealdash-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a riders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Rider, error) {
	var rider models.Rider
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rider).Error; err != nil {
		return nil, err
	}
	return &rider, nil
}

func (r *repository) ListAvailableByZone(ctx context.Context, zoneID uuid.UUID) ([]models.Rider, error) {
	var riders []models.Rider
	err := r.db.WithContext(ctx).
		Where("zone_id = ? AND available = ? AND active = ?", zoneID, true, true).
		Order("created_at ASC").
		Find(&riders).Error
	if err != nil {
		return nil, err
	}
	return riders, nil
}

func (r *repository) UpdateAvailability(ctx context.Context, riderID uuid.UUID, available bool) error {
	return r.db.WithContext(ctx).
		Model(&models.Rider{}).
		Where("id = ?", riderID).
		Update("available", available).Error
}

func (r *repository) UpdateLocation(ctx context.Context, riderID uuid.UUID, lat, lng float64) error {
	return r.db.WithContext(ctx).
		Model(&models.Rider{}).
		Where("id = ?", riderID).
		Updates(map[string]any{"lat": lat, "lng": lng}).Error
}

func (r *repository) ClaimForAssignment(ctx context.Context, riderID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Rider{}).
		Where("id = ? AND available = ? AND assigned = ? AND active = ?", riderID, true, false, true).
		Update("assigned", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) ReleaseAssignment(ctx context.Context, riderID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Rider{}).
		Where("id = ?", riderID).
		Update("assigned", false).Error
}
