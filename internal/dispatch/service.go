package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/mealdash/mealdash-backend/internal/bus"
	"github.com/mealdash/mealdash-backend/pkg/db/models"
	pkgerrors "github.com/mealdash/mealdash-backend/pkg/errors"
	"github.com/mealdash/mealdash-backend/pkg/logger"
	"github.com/mealdash/mealdash-backend/pkg/metrics"
)

// OrderLoader reads the order a broadcast targets. Satisfied by the
// orders repository.
type OrderLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

// RiderLister narrows the riders repository to the zone fan-out query.
type RiderLister interface {
	ListAvailableByZone(ctx context.Context, zoneID uuid.UUID) ([]models.Rider, error)
}

// RiderPusher delivers one broadcast push to one rider. Failures are
// collected but never abort the fan-out.
type RiderPusher interface {
	PushRiderBroadcast(ctx context.Context, rider models.Rider, order *models.Order) error
}

// Service offers orders to the riders of the order's zone.
type Service interface {
	NotifyZoneRiders(ctx context.Context, order *models.Order) error
	NotifyRiders(ctx context.Context, orderID uuid.UUID) error
}

type service struct {
	riders  RiderLister
	orders  OrderLoader
	pusher  RiderPusher
	bus     bus.Bus
	logg    *logger.Logger
	metrics *metrics.DispatchMetrics
}

// NewService builds a dispatch service. Metrics may be nil.
func NewService(ridersRepo RiderLister, orders OrderLoader, pusher RiderPusher, b bus.Bus, logg *logger.Logger, m *metrics.DispatchMetrics) (Service, error) {
	if ridersRepo == nil {
		return nil, fmt.Errorf("riders repository required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order loader required")
	}
	if pusher == nil {
		return nil, fmt.Errorf("rider pusher required")
	}
	if b == nil {
		return nil, fmt.Errorf("event bus required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		riders:  ridersRepo,
		orders:  orders,
		pusher:  pusher,
		bus:     b,
		logg:    logg,
		metrics: m,
	}, nil
}

// NotifyZoneRiders fans the order out to every available rider of its
// zone. Per-rider push failures are collected and logged, never
// propagated; the broadcast event carries every targeted rider.
func (s *service) NotifyZoneRiders(ctx context.Context, order *models.Order) error {
	if order == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}

	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	ctx = s.logg.WithZoneID(ctx, order.ZoneID.String())

	zoneRiders, err := s.riders.ListAvailableByZone(ctx, order.ZoneID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list zone riders")
	}

	var pushErrs error
	riderIDs := make([]uuid.UUID, 0, len(zoneRiders))
	for _, rider := range zoneRiders {
		riderIDs = append(riderIDs, rider.ID)
		if err := s.pusher.PushRiderBroadcast(ctx, rider, order); err != nil {
			pushErrs = multierr.Append(pushErrs, fmt.Errorf("rider %s: %w", rider.ID, err))
		}
	}
	if pushErrs != nil {
		s.metrics.IncPushFailure("rider_broadcast")
		s.logg.Error(ctx, "rider broadcast pushes failed", pushErrs)
	}
	s.metrics.ObserveBroadcast(order.ZoneID.String(), len(riderIDs))

	s.bus.Publish(ctx, bus.TopicDispatcherBroadcast, bus.DispatcherBroadcastPayload{
		OrderID:    order.ID,
		Code:       order.Code,
		ZoneID:     order.ZoneID,
		RiderIDs:   riderIDs,
		RiderCount: len(riderIDs),
		Body:       broadcastBody(order, time.Now().UTC()),
	})
	return nil
}

// NotifyRiders re-broadcasts an order on dispatcher request. Safe to
// call repeatedly; it mutates nothing.
func (s *service) NotifyRiders(ctx context.Context, orderID uuid.UUID) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.Status.IsTerminal() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("order is already %s", order.Status))
	}
	if order.IsPickedUp {
		return pkgerrors.New(pkgerrors.CodeBusinessRule, "pickup orders are not dispatched to riders")
	}
	return s.NotifyZoneRiders(ctx, order)
}

type broadcastOrder struct {
	OrderID         uuid.UUID `json:"order_id"`
	Code            string    `json:"code"`
	DeliveryAddress string    `json:"delivery_address"`
	DeliveryLat     float64   `json:"delivery_lat"`
	DeliveryLng     float64   `json:"delivery_lng"`
	RestaurantID    uuid.UUID `json:"restaurant_id"`
	OfferedAt       time.Time `json:"offered_at"`
}

func broadcastBody(order *models.Order, at time.Time) broadcastOrder {
	return broadcastOrder{
		OrderID:         order.ID,
		Code:            order.Code,
		DeliveryAddress: order.DeliveryAddress,
		DeliveryLat:     order.DeliveryLat,
		DeliveryLng:     order.DeliveryLng,
		RestaurantID:    order.RestaurantID,
		OfferedAt:       at,
	}
}
