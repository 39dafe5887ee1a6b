package chat

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mealdash/mealdash-backend/pkg/db/models"
)

// Repository exposes persistence helpers for order chat.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, message *models.ChatMessage) error
	ListByOrder(ctx context.Context, orderID uuid.UUID, limit int) ([]models.ChatMessage, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a chat repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, message *models.ChatMessage) error {
	return r.db.WithContext(ctx).Create(message).Error
}

// ListByOrder returns the conversation oldest first so clients can
// render it top to bottom.
func (r *repositoryImpl) ListByOrder(ctx context.Context, orderID uuid.UUID, limit int) ([]models.ChatMessage, error) {
	query := r.db.WithContext(ctx).
		Model(&models.ChatMessage{}).
		Where("order_id = ?", orderID).
		Order("created_at ASC, id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var messages []models.ChatMessage
	if err := query.Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}
