package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mealdash/mealdash-backend/pkg/enums"
)

// Order is the central order record. Rows are never deleted; cancellation and
// abort are terminal statuses, not deletions.
type Order struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code           string              `gorm:"column:code;not null;uniqueIndex"`
	Status         enums.OrderStatus   `gorm:"column:status;type:order_status;not null;default:'PENDING'"`
	PaymentMethod  enums.PaymentMethod `gorm:"column:payment_method;type:payment_method;not null;default:'COD'"`
	PaymentStatus  enums.PaymentStatus `gorm:"column:payment_status;type:payment_status;not null;default:'PENDING'"`
	OrderAmount    decimal.Decimal     `gorm:"column:order_amount;type:numeric(12,2);not null"`
	DeliveryCharge decimal.Decimal     `gorm:"column:delivery_charge;type:numeric(12,2);not null"`
	Tip            decimal.Decimal     `gorm:"column:tip;type:numeric(12,2);not null"`
	TaxAmount      decimal.Decimal     `gorm:"column:tax_amount;type:numeric(12,2);not null"`
	CouponDiscount decimal.Decimal     `gorm:"column:coupon_discount;type:numeric(12,2);not null;default:0"`
	CouponCode     *string             `gorm:"column:coupon_code"`

	DeliveryAddress string  `gorm:"column:delivery_address;not null"`
	DeliveryLabel   *string `gorm:"column:delivery_label"`
	DeliveryLat     float64 `gorm:"column:delivery_lat;not null"`
	DeliveryLng     float64 `gorm:"column:delivery_lng;not null"`

	IsPickedUp bool    `gorm:"column:is_picked_up;not null;default:false"`
	Ringed     bool    `gorm:"column:ringed;not null;default:false"`
	Reason     *string `gorm:"column:reason"`

	CompletionTime *time.Time `gorm:"column:completion_time"`
	AcceptedAt     *time.Time `gorm:"column:accepted_at"`
	AssignedAt     *time.Time `gorm:"column:assigned_at"`
	PickedAt       *time.Time `gorm:"column:picked_at"`
	DeliveredAt    *time.Time `gorm:"column:delivered_at"`
	CancelledAt    *time.Time `gorm:"column:cancelled_at"`

	RestaurantID uuid.UUID  `gorm:"column:restaurant_id;type:uuid;not null;index"`
	UserID       uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index"`
	RiderID      *uuid.UUID `gorm:"column:rider_id;type:uuid;index"`
	ZoneID       uuid.UUID  `gorm:"column:zone_id;type:uuid;not null;index"`

	Items    []OrderItem   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Messages []ChatMessage `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
