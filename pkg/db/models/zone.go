package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mealdash/mealdash-backend/pkg/db/types"
)

// Zone is a polygonal delivery territory.
type Zone struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title     string          `gorm:"column:title;not null"`
	Polygon   types.Polygon   `gorm:"column:polygon;type:jsonb;serializer:json;not null"`
	Active    bool            `gorm:"column:active;not null;default:true"`
	TaxRate   decimal.Decimal `gorm:"column:tax_rate;type:numeric(5,2);not null;default:0"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
