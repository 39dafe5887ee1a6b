package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mealdash/mealdash-backend/pkg/db/types"
	"github.com/mealdash/mealdash-backend/pkg/enums"
)

// Restaurant holds the order-sequence counter and the delivery cost
// configuration consumed by order placement.
type Restaurant struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name          string    `gorm:"column:name;not null"`
	OrderPrefix   string    `gorm:"column:order_prefix;not null"`
	OrderSequence int64     `gorm:"column:order_sequence;not null;default:0"`

	Lat float64 `gorm:"column:lat;not null"`
	Lng float64 `gorm:"column:lng;not null"`

	// DeliveryTime is the estimated preparation+delivery time in minutes.
	DeliveryTime   int                          `gorm:"column:delivery_time;not null;default:30"`
	CostType       enums.DeliveryCostType       `gorm:"column:cost_type;type:delivery_cost_type;not null;default:'fixed'"`
	DeliveryCost   decimal.Decimal              `gorm:"column:delivery_cost;type:numeric(12,2);not null;default:0"`
	MinDeliveryFee decimal.Decimal              `gorm:"column:min_delivery_fee;type:numeric(12,2);not null;default:0"`
	DeliveryBound  types.Polygon                `gorm:"column:delivery_bound;type:jsonb;serializer:json"`

	Active            bool      `gorm:"column:active;not null;default:true"`
	NotificationToken *string   `gorm:"column:notification_token"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
