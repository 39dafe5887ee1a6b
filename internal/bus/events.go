package bus

import (
	"github.com/google/uuid"

	"github.com/mealdash/mealdash-backend/pkg/enums"
)

// Payload types carried on each topic. They hold the correlation ids
// gateway predicates filter on plus a Body with the same shape as the
// matching synchronous read.

// OrderPlacedPayload is published on TopicOrderPlaced.
type OrderPlacedPayload struct {
	OrderID      uuid.UUID         `json:"order_id"`
	Code         string            `json:"code"`
	RestaurantID uuid.UUID         `json:"restaurant_id"`
	UserID       uuid.UUID         `json:"user_id"`
	ZoneID       uuid.UUID         `json:"zone_id"`
	Status       enums.OrderStatus `json:"status"`
	Body         any               `json:"body"`
}

// StatusChangedPayload is published on TopicStatusChanged.
type StatusChangedPayload struct {
	OrderID      uuid.UUID         `json:"order_id"`
	Code         string            `json:"code"`
	RestaurantID uuid.UUID         `json:"restaurant_id"`
	UserID       uuid.UUID         `json:"user_id"`
	Status       enums.OrderStatus `json:"status"`
	Reason       *string           `json:"reason,omitempty"`
}

// RiderAssignedPayload is published on TopicRiderAssigned. Removed is
// true when the event tells a previously assigned rider they were
// taken off the order.
type RiderAssignedPayload struct {
	OrderID uuid.UUID `json:"order_id"`
	Code    string    `json:"code"`
	RiderID uuid.UUID `json:"rider_id"`
	Removed bool      `json:"removed"`
	Body    any       `json:"body"`
}

// OrderSnapshotPayload is published on TopicOrderSnapshot after every
// order mutation.
type OrderSnapshotPayload struct {
	OrderID uuid.UUID `json:"order_id"`
	Body    any       `json:"body"`
}

// DispatcherBroadcastPayload is published on TopicDispatcherBroadcast
// when an order is offered to a zone's riders.
type DispatcherBroadcastPayload struct {
	OrderID    uuid.UUID   `json:"order_id"`
	Code       string      `json:"code"`
	ZoneID     uuid.UUID   `json:"zone_id"`
	RiderIDs   []uuid.UUID `json:"rider_ids"`
	RiderCount int         `json:"rider_count"`
	Body       any         `json:"body"`
}

// MessageSentPayload is published on TopicMessageSent for order chat.
type MessageSentPayload struct {
	OrderID   uuid.UUID       `json:"order_id"`
	MessageID uuid.UUID       `json:"message_id"`
	SenderID  uuid.UUID       `json:"sender_id"`
	Role      enums.ActorRole `json:"role"`
	Body      any             `json:"body"`
}
