package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mealdash/mealdash-backend/internal/bus"
	"github.com/mealdash/mealdash-backend/pkg/config"
	"github.com/mealdash/mealdash-backend/pkg/logger"
	"github.com/mealdash/mealdash-backend/pkg/metrics"
)

// Gateway bridges the in-process event bus onto websocket clients.
// Authentication happens before the upgrade; the gateway only fans
// events out. Slow clients lose events rather than stalling the bus.
type Gateway struct {
	bus      bus.Bus
	cfg      config.GatewayConfig
	logg     *logger.Logger
	metrics  *metrics.GatewayMetrics
	upgrader websocket.Upgrader
}

// New builds a gateway over the given bus. Metrics may be nil.
func New(b bus.Bus, cfg config.GatewayConfig, logg *logger.Logger, m *metrics.GatewayMetrics) (*Gateway, error) {
	if b == nil {
		return nil, fmt.Errorf("event bus required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 32
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	return &Gateway{
		bus:     b,
		cfg:     cfg,
		logg:    logg,
		metrics: m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}, nil
}

// ServeRestaurantOrders streams new orders and status changes for one
// restaurant.
func (g *Gateway) ServeRestaurantOrders(w http.ResponseWriter, r *http.Request, restaurantID uuid.UUID) {
	g.serve(w, r, restaurantOrdersStream(restaurantID))
}

// ServeUserOrders streams order progress for one customer.
func (g *Gateway) ServeUserOrders(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	g.serve(w, r, userOrdersStream(userID))
}

// ServeRiderFeed streams assignments and zone broadcasts for one rider.
func (g *Gateway) ServeRiderFeed(w http.ResponseWriter, r *http.Request, riderID uuid.UUID) {
	g.serve(w, r, riderFeedStream(riderID))
}

// ServeOrderSnapshot streams the live document of one order.
func (g *Gateway) ServeOrderSnapshot(w http.ResponseWriter, r *http.Request, orderID uuid.UUID) {
	g.serve(w, r, orderSnapshotStream(orderID))
}

// ServeOrderChat streams one order's conversation.
func (g *Gateway) ServeOrderChat(w http.ResponseWriter, r *http.Request, orderID uuid.UUID) {
	g.serve(w, r, orderChatStream(orderID))
}

// ServeDispatcherFeed streams every broadcast and assignment for the
// dispatcher console.
func (g *Gateway) ServeDispatcherFeed(w http.ResponseWriter, r *http.Request) {
	g.serve(w, r, dispatcherFeedStream())
}

func (g *Gateway) serve(w http.ResponseWriter, r *http.Request, spec streamSpec) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logg.Warn(r.Context(), "websocket upgrade failed")
		return
	}

	subs := make([]*bus.Subscription, 0, len(spec.subs))
	for _, s := range spec.subs {
		subs = append(subs, g.bus.Subscribe(s.topic, s.predicate))
	}

	client := &connection{
		conn:    conn,
		send:    make(chan Message, g.cfg.SendBuffer),
		done:    make(chan struct{}),
		gateway: g,
		channel: spec.name,
	}
	g.metrics.ConnOpened(spec.name)

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(sub *bus.Subscription) {
			defer wg.Done()
			client.forward(sub)
		}(sub)
	}

	go client.writePump(g.cfg.WriteTimeout, g.cfg.PingInterval)
	client.readPump()

	// The client went away. Detach from the bus, which ends the
	// forwarders, then release the writer.
	for _, sub := range subs {
		sub.Close()
	}
	wg.Wait()
	client.stop()
	g.metrics.ConnClosed(spec.name)
}

type connection struct {
	conn    *websocket.Conn
	send    chan Message
	done    chan struct{}
	gateway *Gateway
	channel string

	closeOnce sync.Once
}

// forward drains one bus subscription into the send buffer. Events are
// dropped when the client cannot keep up.
func (c *connection) forward(sub *bus.Subscription) {
	for event := range sub.C() {
		select {
		case c.send <- envelopeFor(event):
		case <-c.done:
			return
		default:
		}
	}
}

// readPump discards inbound frames; it exists to notice disconnects
// and answer pings. Returns when the peer closes.
func (c *connection) readPump() {
	c.conn.SetReadLimit(1024)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *connection) writePump(writeTimeout, pingInterval time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer c.conn.Close()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteControl(websocket.CloseMessage, nil, time.Now().Add(writeTimeout))
				return
			}
			payload, err := json.Marshal(message)
			if err != nil {
				continue
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
			c.gateway.metrics.IncSent(c.channel)
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *connection) stop() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}
