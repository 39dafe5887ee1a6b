package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mealdash/mealdash-backend/pkg/db/types"
)

// Food is the menu item record order lines snapshot their price and
// title from at placement time.
type Food struct {
	ID           uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RestaurantID uuid.UUID             `gorm:"column:restaurant_id;type:uuid;index;not null"`
	Title        string                `gorm:"column:title;not null"`
	Description  *string               `gorm:"column:description"`
	Price        decimal.Decimal       `gorm:"column:price;type:numeric(12,2);not null"`
	Variations   []types.FoodVariation `gorm:"column:variations;type:jsonb;serializer:json"`
	Addons       []types.FoodAddon     `gorm:"column:addons;type:jsonb;serializer:json"`
	Available    bool                  `gorm:"column:available;not null;default:true"`
	CreatedAt    time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
