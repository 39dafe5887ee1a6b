package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mealdash/mealdash-backend/pkg/enums"
)

// Rider is a delivery agent. Riders are deactivated, never deleted.
type Rider struct {
	ID                uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name              string            `gorm:"column:name;not null"`
	Phone             *string           `gorm:"column:phone"`
	VehicleType       enums.VehicleType `gorm:"column:vehicle_type;type:vehicle_type;not null;default:'motorbike'"`
	Available         bool              `gorm:"column:available;not null;default:false"`
	Assigned          bool              `gorm:"column:assigned;not null;default:false"`
	Active            bool              `gorm:"column:active;not null;default:true"`
	Lat               float64           `gorm:"column:lat;not null;default:0"`
	Lng               float64           `gorm:"column:lng;not null;default:0"`
	ZoneID            uuid.UUID         `gorm:"column:zone_id;type:uuid;not null;index"`
	NotificationToken *string           `gorm:"column:notification_token"`
	CreatedAt         time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
