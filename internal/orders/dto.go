package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mealdash/mealdash-backend/pkg/db/models"
	"github.com/mealdash/mealdash-backend/pkg/enums"
)

// PlaceOrderItemInput is one requested line on a new order. Variation
// and addon ids must reference the restaurant's current menu snapshot.
type PlaceOrderItemInput struct {
	FoodID              uuid.UUID
	Quantity            int
	VariationID         *string
	AddonIDs            []string
	SpecialInstructions *string
}

// PlaceOrderInput captures everything needed to create an order.
type PlaceOrderInput struct {
	UserID          uuid.UUID
	RestaurantID    uuid.UUID
	PaymentMethod   enums.PaymentMethod
	Tip             decimal.Decimal
	CouponCode      *string
	DeliveryAddress string
	DeliveryLabel   *string
	DeliveryLat     float64
	DeliveryLng     float64
	IsPickedUp      bool
	Items           []PlaceOrderItemInput
}

// UpdateStatusInput carries a lifecycle transition request.
type UpdateStatusInput struct {
	OrderID   uuid.UUID
	Status    enums.OrderStatus
	Reason    *string
	ActorID   uuid.UUID
	ActorRole enums.ActorRole
}

// AssignRiderInput carries a dispatcher rider assignment.
type AssignRiderInput struct {
	OrderID uuid.UUID
	RiderID uuid.UUID
}

// OrderFilters describe the inputs supported by the order lists.
type OrderFilters struct {
	Status   *enums.OrderStatus
	DateFrom *time.Time
	DateTo   *time.Time
}

// OrderItemView is the rendered shape of one order line.
type OrderItemView struct {
	ID                  uuid.UUID                `json:"id"`
	FoodID              uuid.UUID                `json:"food_id"`
	Title               string                   `json:"title"`
	Variation           *string                  `json:"variation,omitempty"`
	Addons              []string                 `json:"addons,omitempty"`
	Quantity            int                      `json:"quantity"`
	UnitPrice           decimal.Decimal          `json:"unit_price"`
	TotalPrice          decimal.Decimal          `json:"total_price"`
	SpecialInstructions *string                  `json:"special_instructions,omitempty"`
}

// OrderView is the canonical order shape returned by reads and carried
// on bus snapshots.
type OrderView struct {
	ID             uuid.UUID           `json:"id"`
	Code           string              `json:"code"`
	Status         enums.OrderStatus   `json:"status"`
	PaymentMethod  enums.PaymentMethod `json:"payment_method"`
	PaymentStatus  enums.PaymentStatus `json:"payment_status"`
	OrderAmount    decimal.Decimal     `json:"order_amount"`
	ItemsAmount    decimal.Decimal     `json:"items_amount"`
	DeliveryCharge decimal.Decimal     `json:"delivery_charge"`
	Tip            decimal.Decimal     `json:"tip"`
	TaxAmount      decimal.Decimal     `json:"tax_amount"`
	CouponDiscount decimal.Decimal     `json:"coupon_discount"`
	CouponCode     *string             `json:"coupon_code,omitempty"`

	DeliveryAddress string  `json:"delivery_address"`
	DeliveryLabel   *string `json:"delivery_label,omitempty"`
	DeliveryLat     float64 `json:"delivery_lat"`
	DeliveryLng     float64 `json:"delivery_lng"`
	IsPickedUp      bool    `json:"is_picked_up"`
	Ringed          bool    `json:"ringed"`
	Reason          *string `json:"reason,omitempty"`

	CompletionTime *time.Time `json:"completion_time,omitempty"`
	AcceptedAt     *time.Time `json:"accepted_at,omitempty"`
	AssignedAt     *time.Time `json:"assigned_at,omitempty"`
	PickedAt       *time.Time `json:"picked_at,omitempty"`
	DeliveredAt    *time.Time `json:"delivered_at,omitempty"`
	CancelledAt    *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`

	RestaurantID uuid.UUID  `json:"restaurant_id"`
	UserID       uuid.UUID  `json:"user_id"`
	RiderID      *uuid.UUID `json:"rider_id,omitempty"`
	ZoneID       uuid.UUID  `json:"zone_id"`

	Items []OrderItemView `json:"items"`
}

// OrderList wraps paginated order views plus the next page cursor.
type OrderList struct {
	Orders     []OrderView `json:"orders"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

// NewOrderView renders a stored order into its canonical shape.
func NewOrderView(order *models.Order) OrderView {
	items := make([]OrderItemView, 0, len(order.Items))
	itemsAmount := decimal.Zero
	for _, item := range order.Items {
		view := OrderItemView{
			ID:                  item.ID,
			FoodID:              item.FoodID,
			Title:               item.Title,
			Quantity:            item.Quantity,
			UnitPrice:           item.UnitPrice,
			TotalPrice:          item.TotalPrice,
			SpecialInstructions: item.SpecialInstructions,
		}
		if item.Variation != nil {
			title := item.Variation.Title
			view.Variation = &title
		}
		for _, addon := range item.Addons {
			view.Addons = append(view.Addons, addon.Title)
		}
		items = append(items, view)
		itemsAmount = itemsAmount.Add(item.TotalPrice)
	}

	return OrderView{
		ID:              order.ID,
		Code:            order.Code,
		Status:          order.Status,
		PaymentMethod:   order.PaymentMethod,
		PaymentStatus:   order.PaymentStatus,
		OrderAmount:     order.OrderAmount,
		ItemsAmount:     itemsAmount,
		DeliveryCharge:  order.DeliveryCharge,
		Tip:             order.Tip,
		TaxAmount:       order.TaxAmount,
		CouponDiscount:  order.CouponDiscount,
		CouponCode:      order.CouponCode,
		DeliveryAddress: order.DeliveryAddress,
		DeliveryLabel:   order.DeliveryLabel,
		DeliveryLat:     order.DeliveryLat,
		DeliveryLng:     order.DeliveryLng,
		IsPickedUp:      order.IsPickedUp,
		Ringed:          order.Ringed,
		Reason:          order.Reason,
		CompletionTime:  order.CompletionTime,
		AcceptedAt:      order.AcceptedAt,
		AssignedAt:      order.AssignedAt,
		PickedAt:        order.PickedAt,
		DeliveredAt:     order.DeliveredAt,
		CancelledAt:     order.CancelledAt,
		CreatedAt:       order.CreatedAt,
		RestaurantID:    order.RestaurantID,
		UserID:          order.UserID,
		RiderID:         order.RiderID,
		ZoneID:          order.ZoneID,
		Items:           items,
	}
}
