package bus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mealdash/mealdash-backend/pkg/logger"
	"github.com/mealdash/mealdash-backend/pkg/metrics"
)

// Topic names the event streams carried by the in-process bus.
type Topic string

const (
	TopicOrderPlaced         Topic = "order-placed"
	TopicStatusChanged       Topic = "status-changed"
	TopicRiderAssigned       Topic = "rider-assigned"
	TopicOrderSnapshot       Topic = "order-snapshot"
	TopicDispatcherBroadcast Topic = "dispatcher-broadcast"
	TopicMessageSent         Topic = "message-sent"
)

// Event is a single message published on a topic. Payload carries the
// domain body; PublishedAt is stamped on publish.
type Event struct {
	ID          uuid.UUID
	Topic       Topic
	Payload     any
	PublishedAt time.Time
}

// Predicate filters events for a subscription. A nil predicate matches
// every event on the topic.
type Predicate func(Event) bool

// Bus is the in-process publish/subscribe fabric. Delivery is
// best-effort: subscribers that fall behind their buffer lose events.
type Bus interface {
	Publish(ctx context.Context, topic Topic, payload any)
	Subscribe(topic Topic, predicate Predicate) *Subscription
	Close()
}

// Subscription is one subscriber's view of a topic. Events arrive on C
// in the order they were published. Close detaches the subscription
// and closes C.
type Subscription struct {
	topic     Topic
	predicate Predicate
	ch        chan Event

	bus  *memoryBus
	id   uint64
	once sync.Once
}

// C returns the receive channel for matched events.
func (s *Subscription) C() <-chan Event {
	return s.ch
}

// Close detaches the subscription from the bus and closes the channel.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.bus.remove(s.topic, s.id)
		close(s.ch)
	})
}

type memoryBus struct {
	mu     sync.RWMutex
	subs   map[Topic]map[uint64]*Subscription
	nextID uint64
	closed bool

	buffer  int
	logg    *logger.Logger
	metrics *metrics.BusMetrics
}

// DefaultBuffer is the per-subscription channel depth when none is
// configured.
const DefaultBuffer = 32

// New builds an in-memory bus. The metrics argument may be nil.
func New(buffer int, logg *logger.Logger, m *metrics.BusMetrics) (Bus, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &memoryBus{
		subs:    make(map[Topic]map[uint64]*Subscription),
		buffer:  buffer,
		logg:    logg,
		metrics: m,
	}, nil
}

func (b *memoryBus) Publish(ctx context.Context, topic Topic, payload any) {
	event := Event{
		ID:          uuid.New(),
		Topic:       topic,
		Payload:     payload,
		PublishedAt: time.Now().UTC(),
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	b.metrics.IncPublished(string(topic))

	for _, sub := range b.subs[topic] {
		if sub.predicate != nil && !sub.predicate(event) {
			continue
		}
		select {
		case sub.ch <- event:
			b.metrics.IncDelivered(string(topic))
		default:
			b.metrics.IncDropped(string(topic))
			b.logg.Warn(b.logg.WithField(ctx, "topic", string(topic)), "bus subscriber buffer full, event dropped")
		}
	}
}

func (b *memoryBus) Subscribe(topic Topic, predicate Predicate) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &Subscription{
		topic:     topic,
		predicate: predicate,
		ch:        make(chan Event, b.buffer),
		bus:       b,
		id:        b.nextID,
	}
	b.nextID++

	if b.closed {
		// Hand back a detached subscription so callers can still
		// range over a closed channel.
		close(sub.ch)
		sub.once.Do(func() {})
		return sub
	}

	if b.subs[topic] == nil {
		b.subs[topic] = make(map[uint64]*Subscription)
	}
	b.subs[topic][sub.id] = sub
	return sub
}

func (b *memoryBus) remove(topic Topic, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if subs, ok := b.subs[topic]; ok {
		delete(subs, id)
		if len(subs) == 0 {
			delete(b.subs, topic)
		}
	}
}

// Close detaches and closes every subscription. Publish becomes a
// no-op afterwards.
func (b *memoryBus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	var all []*Subscription
	for _, subs := range b.subs {
		for _, sub := range subs {
			all = append(all, sub)
		}
	}
	b.subs = make(map[Topic]map[uint64]*Subscription)
	b.mu.Unlock()

	for _, sub := range all {
		sub.once.Do(func() {
			close(sub.ch)
		})
	}
}
