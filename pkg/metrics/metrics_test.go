package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestBusMetricsCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBusMetrics(reg)

	m.IncPublished("order-placed")
	m.IncPublished("order-placed")
	m.IncDelivered("order-placed")
	m.IncDropped("")

	if got := testutil.ToFloat64(m.published.WithLabelValues("order-placed")); got != 2 {
		t.Fatalf("expected 2 published got %v", got)
	}
	if got := testutil.ToFloat64(m.delivered.WithLabelValues("order-placed")); got != 1 {
		t.Fatalf("expected 1 delivered got %v", got)
	}
	if got := testutil.ToFloat64(m.dropped.WithLabelValues("unknown")); got != 1 {
		t.Fatalf("empty topic should land on unknown, got %v", got)
	}
}

func TestGatewayConnectionGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewGatewayMetrics(reg)

	m.ConnOpened("orders")
	m.ConnOpened("orders")
	m.ConnClosed("orders")

	if got := testutil.ToFloat64(m.connections.WithLabelValues("orders")); got != 1 {
		t.Fatalf("expected gauge 1 got %v", got)
	}
}

func TestNilReceiversAreSafe(t *testing.T) {
	var bus *BusMetrics
	var dispatch *DispatchMetrics
	var gateway *GatewayMetrics

	bus.IncPublished("x")
	dispatch.ObserveAssign("ok", time.Second)
	dispatch.IncPushFailure("rider")
	gateway.IncSent("orders")
}
