package dispatch

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mealdash/mealdash-backend/internal/bus"
	"github.com/mealdash/mealdash-backend/pkg/db/models"
	"github.com/mealdash/mealdash-backend/pkg/enums"
	pkgerrors "github.com/mealdash/mealdash-backend/pkg/errors"
	"github.com/mealdash/mealdash-backend/pkg/logger"
)

type stubRidersRepo struct {
	riders  []models.Rider
	listErr error
}

func (s *stubRidersRepo) ListAvailableByZone(ctx context.Context, zoneID uuid.UUID) ([]models.Rider, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.riders, nil
}

type stubOrderLoader struct {
	orders map[uuid.UUID]*models.Order
}

func (s *stubOrderLoader) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := s.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

type stubPusher struct {
	pushed  []uuid.UUID
	failFor map[uuid.UUID]error
}

func (s *stubPusher) PushRiderBroadcast(ctx context.Context, rider models.Rider, order *models.Order) error {
	s.pushed = append(s.pushed, rider.ID)
	if err, ok := s.failFor[rider.ID]; ok {
		return err
	}
	return nil
}

type stubBus struct {
	events []bus.Event
}

func (s *stubBus) Publish(ctx context.Context, topic bus.Topic, payload any) {
	s.events = append(s.events, bus.Event{Topic: topic, Payload: payload})
}

func (s *stubBus) Subscribe(topic bus.Topic, predicate bus.Predicate) *bus.Subscription {
	return nil
}

func (s *stubBus) Close() {}

type fixture struct {
	svc    Service
	riders *stubRidersRepo
	loader *stubOrderLoader
	pusher *stubPusher
	bus    *stubBus
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "dispatch-test", Output: io.Discard})
	f := &fixture{
		riders: &stubRidersRepo{},
		loader: &stubOrderLoader{orders: map[uuid.UUID]*models.Order{}},
		pusher: &stubPusher{failFor: map[uuid.UUID]error{}},
		bus:    &stubBus{},
	}
	svc, err := NewService(f.riders, f.loader, f.pusher, f.bus, logg, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	f.svc = svc
	return f
}

func testOrder(status enums.OrderStatus) *models.Order {
	return &models.Order{
		ID:           uuid.New(),
		Code:         "GB-7",
		RestaurantID: uuid.New(),
		UserID:       uuid.New(),
		ZoneID:       uuid.New(),
		Status:       status,
	}
}

func zoneRider() models.Rider {
	return models.Rider{ID: uuid.New(), Available: true, Active: true}
}

func TestNotifyZoneRidersPushesEveryRider(t *testing.T) {
	f := newFixture(t)
	r1, r2 := zoneRider(), zoneRider()
	f.riders.riders = []models.Rider{r1, r2}
	order := testOrder(enums.OrderStatusAccepted)

	if err := f.svc.NotifyZoneRiders(context.Background(), order); err != nil {
		t.Fatalf("notify zone riders: %v", err)
	}
	if len(f.pusher.pushed) != 2 {
		t.Fatalf("expected 2 pushes, got %d", len(f.pusher.pushed))
	}
	if len(f.bus.events) != 1 {
		t.Fatalf("expected 1 broadcast event, got %d", len(f.bus.events))
	}
	payload, ok := f.bus.events[0].Payload.(bus.DispatcherBroadcastPayload)
	if !ok {
		t.Fatalf("unexpected payload type %T", f.bus.events[0].Payload)
	}
	if payload.RiderCount != 2 || len(payload.RiderIDs) != 2 {
		t.Fatalf("expected 2 riders in payload, got %d", payload.RiderCount)
	}
	if payload.OrderID != order.ID || payload.ZoneID != order.ZoneID {
		t.Fatal("payload does not match order")
	}
}

func TestNotifyZoneRidersPushFailureDoesNotAbort(t *testing.T) {
	f := newFixture(t)
	r1, r2, r3 := zoneRider(), zoneRider(), zoneRider()
	f.riders.riders = []models.Rider{r1, r2, r3}
	f.pusher.failFor[r2.ID] = errors.New("device unreachable")
	order := testOrder(enums.OrderStatusAccepted)

	if err := f.svc.NotifyZoneRiders(context.Background(), order); err != nil {
		t.Fatalf("push failure must not propagate: %v", err)
	}
	if len(f.pusher.pushed) != 3 {
		t.Fatalf("expected all 3 pushes attempted, got %d", len(f.pusher.pushed))
	}
	payload := f.bus.events[0].Payload.(bus.DispatcherBroadcastPayload)
	if payload.RiderCount != 3 {
		t.Fatalf("failed push must still count its rider, got %d", payload.RiderCount)
	}
}

func TestNotifyZoneRidersEmptyZoneStillBroadcasts(t *testing.T) {
	f := newFixture(t)
	order := testOrder(enums.OrderStatusAccepted)

	if err := f.svc.NotifyZoneRiders(context.Background(), order); err != nil {
		t.Fatalf("notify zone riders: %v", err)
	}
	if len(f.pusher.pushed) != 0 {
		t.Fatalf("expected no pushes, got %d", len(f.pusher.pushed))
	}
	payload := f.bus.events[0].Payload.(bus.DispatcherBroadcastPayload)
	if payload.RiderCount != 0 {
		t.Fatalf("expected empty broadcast, got %d riders", payload.RiderCount)
	}
}

func TestNotifyRidersRebroadcastsOrder(t *testing.T) {
	f := newFixture(t)
	f.riders.riders = []models.Rider{zoneRider()}
	order := testOrder(enums.OrderStatusAccepted)
	f.loader.orders[order.ID] = order

	if err := f.svc.NotifyRiders(context.Background(), order.ID); err != nil {
		t.Fatalf("notify riders: %v", err)
	}
	if len(f.bus.events) != 1 {
		t.Fatalf("expected 1 broadcast event, got %d", len(f.bus.events))
	}
}

func TestNotifyRidersUnknownOrder(t *testing.T) {
	f := newFixture(t)

	err := f.svc.NotifyRiders(context.Background(), uuid.New())
	if err == nil {
		t.Fatal("expected error for unknown order")
	}
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestNotifyRidersTerminalOrderRejected(t *testing.T) {
	f := newFixture(t)
	order := testOrder(enums.OrderStatusDelivered)
	f.loader.orders[order.ID] = order

	err := f.svc.NotifyRiders(context.Background(), order.ID)
	if err == nil {
		t.Fatal("expected error for terminal order")
	}
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestNotifyRidersPickupOrderRejected(t *testing.T) {
	f := newFixture(t)
	order := testOrder(enums.OrderStatusAccepted)
	order.IsPickedUp = true
	f.loader.orders[order.ID] = order

	err := f.svc.NotifyRiders(context.Background(), order.ID)
	if err == nil {
		t.Fatal("expected error for pickup order")
	}
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeBusinessRule {
		t.Fatalf("expected business rule error, got %v", err)
	}
}
