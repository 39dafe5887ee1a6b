package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mealdash/mealdash-backend/internal/bus"
	"github.com/mealdash/mealdash-backend/pkg/config"
	"github.com/mealdash/mealdash-backend/pkg/enums"
	"github.com/mealdash/mealdash-backend/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "gateway-test", Output: io.Discard})
	return logg
}

func testBus(t *testing.T) bus.Bus {
	t.Helper()
	b, err := bus.New(bus.DefaultBuffer, testLogger(t), nil)
	if err != nil {
		t.Fatalf("bus: %v", err)
	}
	t.Cleanup(b.Close)
	return b
}

func testGateway(t *testing.T, b bus.Bus) *Gateway {
	t.Helper()
	cfg := config.GatewayConfig{WriteTimeout: time.Second, PingInterval: 10 * time.Second, SendBuffer: 8}
	g, err := New(b, cfg, testLogger(t), nil)
	if err != nil {
		t.Fatalf("gateway: %v", err)
	}
	return g
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var message Message
	if err := json.Unmarshal(data, &message); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	return message
}

func TestRestaurantStreamDeliversOwnOrdersOnly(t *testing.T) {
	b := testBus(t)
	g := testGateway(t, b)
	restaurantID := uuid.New()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		g.ServeRestaurantOrders(w, r, restaurantID)
	}))
	defer server.Close()

	conn := dial(t, server)
	// Subscription registration races the dial; give the handler a beat.
	time.Sleep(50 * time.Millisecond)

	b.Publish(context.Background(), bus.TopicOrderPlaced, bus.OrderPlacedPayload{
		OrderID:      uuid.New(),
		Code:         "GB-2",
		RestaurantID: uuid.New(),
	})
	b.Publish(context.Background(), bus.TopicOrderPlaced, bus.OrderPlacedPayload{
		OrderID:      uuid.New(),
		Code:         "GB-3",
		RestaurantID: restaurantID,
	})

	message := readEnvelope(t, conn)
	if message.Event != EventOrderPlaced {
		t.Fatalf("expected %s, got %s", EventOrderPlaced, message.Event)
	}
	data, ok := message.Data.(map[string]any)
	if !ok {
		t.Fatalf("unexpected data shape %T", message.Data)
	}
	if data["code"] != "GB-3" {
		t.Fatalf("expected the restaurant's own order, got %v", data["code"])
	}
}

func TestOrderChatStreamDeliversMessages(t *testing.T) {
	b := testBus(t)
	g := testGateway(t, b)
	orderID := uuid.New()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		g.ServeOrderChat(w, r, orderID)
	}))
	defer server.Close()

	conn := dial(t, server)
	time.Sleep(50 * time.Millisecond)

	b.Publish(context.Background(), bus.TopicMessageSent, bus.MessageSentPayload{
		OrderID:   orderID,
		MessageID: uuid.New(),
		Role:      enums.ActorRoleCustomer,
		Body:      map[string]any{"body": "is it on the way?"},
	})

	message := readEnvelope(t, conn)
	if message.Event != EventChatMessage {
		t.Fatalf("expected %s, got %s", EventChatMessage, message.Event)
	}
}

func TestRiderFeedPredicates(t *testing.T) {
	riderID := uuid.New()
	spec := riderFeedStream(riderID)
	if len(spec.subs) != 2 {
		t.Fatalf("expected 2 subscriptions, got %d", len(spec.subs))
	}

	assigned := spec.subs[0].predicate
	if !assigned(bus.Event{Payload: bus.RiderAssignedPayload{RiderID: riderID}}) {
		t.Fatal("own assignment must match")
	}
	if assigned(bus.Event{Payload: bus.RiderAssignedPayload{RiderID: uuid.New()}}) {
		t.Fatal("other rider's assignment must not match")
	}

	broadcast := spec.subs[1].predicate
	if !broadcast(bus.Event{Payload: bus.DispatcherBroadcastPayload{RiderIDs: []uuid.UUID{uuid.New(), riderID}}}) {
		t.Fatal("broadcast including the rider must match")
	}
	if broadcast(bus.Event{Payload: bus.DispatcherBroadcastPayload{RiderIDs: []uuid.UUID{uuid.New()}}}) {
		t.Fatal("broadcast excluding the rider must not match")
	}
	if broadcast(bus.Event{Payload: "garbage"}) {
		t.Fatal("foreign payload must not match")
	}
}

func TestEnvelopeForRiderRemoval(t *testing.T) {
	event := bus.Event{
		Topic:       bus.TopicRiderAssigned,
		Payload:     bus.RiderAssignedPayload{RiderID: uuid.New(), Removed: true},
		PublishedAt: time.Now().UTC(),
	}
	message := envelopeFor(event)
	if message.Event != EventRiderRemoved {
		t.Fatalf("expected %s, got %s", EventRiderRemoved, message.Event)
	}
}

func TestEnvelopeForSnapshotUnwrapsBody(t *testing.T) {
	body := map[string]any{"status": "picked"}
	event := bus.Event{
		Topic:   bus.TopicOrderSnapshot,
		Payload: bus.OrderSnapshotPayload{OrderID: uuid.New(), Body: body},
	}
	message := envelopeFor(event)
	if message.Event != EventOrderSnapshot {
		t.Fatalf("expected %s, got %s", EventOrderSnapshot, message.Event)
	}
	if _, ok := message.Data.(map[string]any); !ok {
		t.Fatalf("expected snapshot body, got %T", message.Data)
	}
}

func TestDisconnectDetachesSubscriptions(t *testing.T) {
	b := testBus(t)
	g := testGateway(t, b)
	orderID := uuid.New()

	done := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		g.ServeOrderSnapshot(w, r, orderID)
		close(done)
	}))
	defer server.Close()

	conn := dial(t, server)
	time.Sleep(50 * time.Millisecond)
	conn.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not return after disconnect")
	}
}
