package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Coupon struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code      string          `gorm:"column:code;uniqueIndex;not null"`
	Discount  decimal.Decimal `gorm:"column:discount;type:numeric(12,2);not null"`
	Percent   bool            `gorm:"column:percent;not null;default:false"`
	Active    bool            `gorm:"column:active;not null;default:true"`
	ExpiresAt *time.Time      `gorm:"column:expires_at"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// Valid reports whether the coupon can be applied at the given time.
func (c *Coupon) Valid(now time.Time) bool {
	if !c.Active {
		return false
	}
	if c.ExpiresAt != nil && now.After(*c.ExpiresAt) {
		return false
	}
	return true
}
