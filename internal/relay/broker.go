// Package relay is the in-process pub/sub bus that fans domain events out to
// websocket sessions and other interested goroutines. Delivery is best-effort
// and at-most-once: a publisher never blocks, and a subscriber that falls
// behind loses messages rather than stalling the publisher.
package relay

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Message is what subscribers receive. Payload is an event struct from the
// contracts package; subscribers type-switch on it.
type Message struct {
	Topic       string
	Payload     any
	PublishedAt time.Time
}

const defaultBufferSize = 16

// Broker routes messages by exact topic string. Per topic, messages are
// delivered to each live subscriber in publish order.
type Broker struct {
	mu     sync.RWMutex
	topics map[string]map[*Subscription]struct{}
	closed bool

	bufferSize int
	dropped    atomic.Uint64 // messages discarded due to full subscriber buffers
}

// Subscription is one subscriber's feed. Receive from C; Close when done.
type Subscription struct {
	C chan Message

	broker *Broker
	topic  string
	once   sync.Once
}

// Close detaches the subscription. Buffered messages stay readable until the
// channel is drained.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.broker.remove(s)
		close(s.C)
	})
}

// Topic this subscription listens on.
func (s *Subscription) Topic() string {
	return s.topic
}

func NewBroker() *Broker {
	return &Broker{
		topics:     make(map[string]map[*Subscription]struct{}),
		bufferSize: defaultBufferSize,
	}
}

// Subscribe registers interest in a topic. Each subscriber has its own buffer;
// a full buffer drops the newest message for that subscriber only.
func (b *Broker) Subscribe(topic string) *Subscription {
	sub := &Subscription{
		C:      make(chan Message, b.bufferSize),
		broker: b,
		topic:  topic,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(sub.C)
		return sub
	}
	subs, ok := b.topics[topic]
	if !ok {
		subs = make(map[*Subscription]struct{})
		b.topics[topic] = subs
	}
	subs[sub] = struct{}{}
	return sub
}

// Publish fans payload out to every current subscriber of topic. It never
// blocks; subscribers with full buffers are skipped.
func (b *Broker) Publish(topic string, payload any) {
	msg := Message{Topic: topic, Payload: payload, PublishedAt: time.Now().UTC()}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for sub := range b.topics[topic] {
		select {
		case sub.C <- msg:
		default:
			b.dropped.Add(1)
		}
	}
}

// Dropped reports how many messages were discarded because a subscriber's
// buffer was full.
func (b *Broker) Dropped() uint64 {
	return b.dropped.Load()
}

// Subscribers reports the live subscriber count for a topic.
func (b *Broker) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[topic])
}

// Close shuts the broker down and closes all subscriber channels.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for topic, subs := range b.topics {
		for sub := range subs {
			sub.once.Do(func() { close(sub.C) })
		}
		delete(b.topics, topic)
	}
}

func (b *Broker) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if subs, ok := b.topics[sub.topic]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(b.topics, sub.topic)
		}
	}
}

// Topic builders. Every publisher and subscriber goes through these so the
// strings stay consistent.

func TripLocationTopic(tripID string) string {
	return fmt.Sprintf("trip/%s/location", tripID)
}

func TripStatusTopic(tripID string) string {
	return fmt.Sprintf("trip/%s/status", tripID)
}

func DriverStatusTopic(driverID string) string {
	return fmt.Sprintf("driver/%s/status", driverID)
}

func DriverRequestsTopic(driverID string) string {
	return fmt.Sprintf("driver/%s/requests", driverID)
}
