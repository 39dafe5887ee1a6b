package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mealdash/mealdash-backend/pkg/db/types"
)

// OrderItem captures the menu snapshot of each ordered line.
type OrderItem struct {
	ID                  uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID             uuid.UUID                 `gorm:"column:order_id;type:uuid;not null;index"`
	FoodID              uuid.UUID                 `gorm:"column:food_id;type:uuid;not null"`
	Title               string                    `gorm:"column:title;not null"`
	Variation           *types.VariationSelection `gorm:"column:variation;type:jsonb;serializer:json"`
	Addons              []types.AddonSelection    `gorm:"column:addons;type:jsonb;serializer:json"`
	Quantity            int                       `gorm:"column:quantity;not null"`
	UnitPrice           decimal.Decimal           `gorm:"column:unit_price;type:numeric(12,2);not null"`
	TotalPrice          decimal.Decimal           `gorm:"column:total_price;type:numeric(12,2);not null"`
	SpecialInstructions *string                   `gorm:"column:special_instructions"`
	CreatedAt           time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}
