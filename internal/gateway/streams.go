package gateway

import (
	"time"

	"github.com/google/uuid"

	"github.com/mealdash/mealdash-backend/internal/bus"
)

// Message is the envelope written to websocket clients.
type Message struct {
	Event string    `json:"event"`
	Data  any       `json:"data"`
	At    time.Time `json:"at"`
}

// Client-facing event names per bus topic.
const (
	EventOrderPlaced         = "order_placed"
	EventStatusChanged       = "status_changed"
	EventRiderAssigned       = "rider_assigned"
	EventRiderRemoved        = "rider_removed"
	EventOrderSnapshot       = "order_snapshot"
	EventDispatcherBroadcast = "order_broadcast"
	EventChatMessage         = "chat_message"
)

type subscriptionSpec struct {
	topic     bus.Topic
	predicate bus.Predicate
}

type streamSpec struct {
	name string
	subs []subscriptionSpec
}

// restaurantOrdersStream feeds a restaurant dashboard: its new orders
// and every status change on them.
func restaurantOrdersStream(restaurantID uuid.UUID) streamSpec {
	return streamSpec{
		name: "restaurant_orders",
		subs: []subscriptionSpec{
			{bus.TopicOrderPlaced, func(e bus.Event) bool {
				p, ok := e.Payload.(bus.OrderPlacedPayload)
				return ok && p.RestaurantID == restaurantID
			}},
			{bus.TopicStatusChanged, func(e bus.Event) bool {
				p, ok := e.Payload.(bus.StatusChangedPayload)
				return ok && p.RestaurantID == restaurantID
			}},
		},
	}
}

// userOrdersStream feeds a customer app: status changes and rider
// assignments on the user's orders.
func userOrdersStream(userID uuid.UUID) streamSpec {
	return streamSpec{
		name: "user_orders",
		subs: []subscriptionSpec{
			{bus.TopicStatusChanged, func(e bus.Event) bool {
				p, ok := e.Payload.(bus.StatusChangedPayload)
				return ok && p.UserID == userID
			}},
			{bus.TopicOrderPlaced, func(e bus.Event) bool {
				p, ok := e.Payload.(bus.OrderPlacedPayload)
				return ok && p.UserID == userID
			}},
		},
	}
}

// riderFeedStream feeds a rider app: direct assignments plus zone
// broadcasts that include the rider.
func riderFeedStream(riderID uuid.UUID) streamSpec {
	return streamSpec{
		name: "rider_feed",
		subs: []subscriptionSpec{
			{bus.TopicRiderAssigned, func(e bus.Event) bool {
				p, ok := e.Payload.(bus.RiderAssignedPayload)
				return ok && p.RiderID == riderID
			}},
			{bus.TopicDispatcherBroadcast, func(e bus.Event) bool {
				p, ok := e.Payload.(bus.DispatcherBroadcastPayload)
				if !ok {
					return false
				}
				for _, id := range p.RiderIDs {
					if id == riderID {
						return true
					}
				}
				return false
			}},
		},
	}
}

// orderSnapshotStream tracks one order's document as it changes.
func orderSnapshotStream(orderID uuid.UUID) streamSpec {
	return streamSpec{
		name: "order_snapshot",
		subs: []subscriptionSpec{
			{bus.TopicOrderSnapshot, func(e bus.Event) bool {
				p, ok := e.Payload.(bus.OrderSnapshotPayload)
				return ok && p.OrderID == orderID
			}},
		},
	}
}

// orderChatStream carries one order's conversation.
func orderChatStream(orderID uuid.UUID) streamSpec {
	return streamSpec{
		name: "order_chat",
		subs: []subscriptionSpec{
			{bus.TopicMessageSent, func(e bus.Event) bool {
				p, ok := e.Payload.(bus.MessageSentPayload)
				return ok && p.OrderID == orderID
			}},
		},
	}
}

// dispatcherFeedStream is the unfiltered broadcast feed for the
// dispatcher console.
func dispatcherFeedStream() streamSpec {
	return streamSpec{
		name: "dispatcher_feed",
		subs: []subscriptionSpec{
			{bus.TopicDispatcherBroadcast, nil},
			{bus.TopicRiderAssigned, nil},
		},
	}
}

// envelopeFor maps a bus event onto the client envelope. Rider
// assignment events split into assigned/removed for clients.
func envelopeFor(event bus.Event) Message {
	name := string(event.Topic)
	var data any = event.Payload

	switch payload := event.Payload.(type) {
	case bus.OrderPlacedPayload:
		name = EventOrderPlaced
	case bus.StatusChangedPayload:
		name = EventStatusChanged
	case bus.RiderAssignedPayload:
		name = EventRiderAssigned
		if payload.Removed {
			name = EventRiderRemoved
		}
	case bus.OrderSnapshotPayload:
		name = EventOrderSnapshot
		data = payload.Body
	case bus.DispatcherBroadcastPayload:
		name = EventDispatcherBroadcast
	case bus.MessageSentPayload:
		name = EventChatMessage
		data = payload.Body
	}

	return Message{Event: name, Data: data, At: event.PublishedAt}
}
