package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// BusMetrics records event-bus traffic per topic.
type BusMetrics struct {
	published *prometheus.CounterVec
	delivered *prometheus.CounterVec
	dropped   *prometheus.CounterVec
}

// NewBusMetrics registers the bus metrics on the provided registerer.
func NewBusMetrics(reg prometheus.Registerer) *BusMetrics {
	if reg == nil {
		return &BusMetrics{}
	}
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bus_events_published",
		Help: "Events published to the in-process bus.",
	}, []string{"topic"})
	delivered := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bus_events_delivered",
		Help: "Events delivered to matching subscribers.",
	}, []string{"topic"})
	dropped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bus_events_dropped",
		Help: "Events dropped because a subscriber buffer was full.",
	}, []string{"topic"})
	reg.MustRegister(published, delivered, dropped)
	return &BusMetrics{
		published: published,
		delivered: delivered,
		dropped:   dropped,
	}
}

// IncPublished increments the published counter for the topic.
func (b *BusMetrics) IncPublished(topic string) {
	if b == nil || b.published == nil {
		return
	}
	b.published.WithLabelValues(normalizeLabel(topic)).Inc()
}

// IncDelivered increments the delivered counter for the topic.
func (b *BusMetrics) IncDelivered(topic string) {
	if b == nil || b.delivered == nil {
		return
	}
	b.delivered.WithLabelValues(normalizeLabel(topic)).Inc()
}

// IncDropped increments the dropped counter for the topic.
func (b *BusMetrics) IncDropped(topic string) {
	if b == nil || b.dropped == nil {
		return
	}
	b.dropped.WithLabelValues(normalizeLabel(topic)).Inc()
}

// DispatchMetrics records rider assignment and broadcast activity.
type DispatchMetrics struct {
	assignDuration *prometheus.HistogramVec
	broadcastFan   *prometheus.HistogramVec
	pushFailures   *prometheus.CounterVec
}

// NewDispatchMetrics registers the dispatch metrics on the provided registerer.
func NewDispatchMetrics(reg prometheus.Registerer) *DispatchMetrics {
	if reg == nil {
		return &DispatchMetrics{}
	}
	assignDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dispatch_assign_duration_seconds",
		Help:    "Duration of rider assignment operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	broadcastFan := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dispatch_broadcast_riders",
		Help:    "Riders targeted per zone broadcast.",
		Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
	}, []string{"zone"})
	pushFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_push_failures",
		Help: "Push deliveries that exhausted their retries.",
	}, []string{"kind"})
	reg.MustRegister(assignDuration, broadcastFan, pushFailures)
	return &DispatchMetrics{
		assignDuration: assignDuration,
		broadcastFan:   broadcastFan,
		pushFailures:   pushFailures,
	}
}

// ObserveAssign records the duration of an assignment attempt.
func (d *DispatchMetrics) ObserveAssign(outcome string, duration time.Duration) {
	if d == nil || d.assignDuration == nil {
		return
	}
	d.assignDuration.WithLabelValues(normalizeLabel(outcome)).Observe(duration.Seconds())
}

// ObserveBroadcast records how many riders a zone broadcast reached.
func (d *DispatchMetrics) ObserveBroadcast(zone string, riders int) {
	if d == nil || d.broadcastFan == nil {
		return
	}
	d.broadcastFan.WithLabelValues(normalizeLabel(zone)).Observe(float64(riders))
}

// IncPushFailure increments the exhausted-retry counter for a push kind.
func (d *DispatchMetrics) IncPushFailure(kind string) {
	if d == nil || d.pushFailures == nil {
		return
	}
	d.pushFailures.WithLabelValues(normalizeLabel(kind)).Inc()
}

// GatewayMetrics records websocket connection activity.
type GatewayMetrics struct {
	connections *prometheus.GaugeVec
	sent        *prometheus.CounterVec
}

// NewGatewayMetrics registers the gateway metrics on the provided registerer.
func NewGatewayMetrics(reg prometheus.Registerer) *GatewayMetrics {
	if reg == nil {
		return &GatewayMetrics{}
	}
	connections := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "gateway_connections",
		Help: "Open websocket connections per channel.",
	}, []string{"channel"})
	sent := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_messages_sent",
		Help: "Messages written to websocket clients per channel.",
	}, []string{"channel"})
	reg.MustRegister(connections, sent)
	return &GatewayMetrics{
		connections: connections,
		sent:        sent,
	}
}

// ConnOpened increments the connection gauge for the channel.
func (g *GatewayMetrics) ConnOpened(channel string) {
	if g == nil || g.connections == nil {
		return
	}
	g.connections.WithLabelValues(normalizeLabel(channel)).Inc()
}

// ConnClosed decrements the connection gauge for the channel.
func (g *GatewayMetrics) ConnClosed(channel string) {
	if g == nil || g.connections == nil {
		return
	}
	g.connections.WithLabelValues(normalizeLabel(channel)).Dec()
}

// IncSent increments the sent counter for the channel.
func (g *GatewayMetrics) IncSent(channel string) {
	if g == nil || g.sent == nil {
		return
	}
	g.sent.WithLabelValues(normalizeLabel(channel)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
