package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mealdash/mealdash-backend/pkg/enums"
)

// ChatMessage is a per-order conversation entry between the customer,
// the restaurant and the assigned rider.
type ChatMessage struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID    uuid.UUID       `gorm:"column:order_id;type:uuid;index;not null"`
	SenderID   uuid.UUID       `gorm:"column:sender_id;type:uuid;not null"`
	SenderRole enums.ActorRole `gorm:"column:sender_role;type:actor_role;not null"`
	Body       string          `gorm:"column:body;not null"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
}
