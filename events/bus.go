// Package events is a small process-wide notification bus. Handlers run
// synchronously on the publisher's goroutine in subscription order, so two
// notifications published from one goroutine are never handled concurrently.
package events

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// EnvironmentUpdated is published whenever runtime configuration may have
// changed. It carries no payload.
const EnvironmentUpdated = "environment_updated"

// Handler reacts to a notification.
type Handler func(ctx context.Context)

type subscriber struct {
	id      string
	handler Handler
}

// Bus routes notifications to topic subscribers.
type Bus struct {
	mu   sync.RWMutex
	subs map[string][]subscriber
}

// NewBus returns an empty Bus.
func NewBus() *Bus {
	return &Bus{
		subs: make(map[string][]subscriber),
	}
}

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	ID    string
	Topic string

	bus  *Bus
	once sync.Once
}

// Unsubscribe removes the handler. Calling it more than once is harmless.
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		s.bus.remove(s.Topic, s.ID)
	})
}

// Subscribe registers h for topic.
func (b *Bus) Subscribe(topic string, h Handler) *Subscription {
	sub := &Subscription{
		ID:    uuid.New().String(),
		Topic: topic,
		bus:   b,
	}
	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], subscriber{id: sub.ID, handler: h})
	b.mu.Unlock()
	return sub
}

func (b *Bus) remove(topic, id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[topic]
	for i, s := range subs {
		if s.id == id {
			// copy so that a Publish iterating the old slice is unaffected
			next := make([]subscriber, 0, len(subs)-1)
			next = append(next, subs[:i]...)
			next = append(next, subs[i+1:]...)
			if len(next) == 0 {
				delete(b.subs, topic)
			} else {
				b.subs[topic] = next
			}
			return
		}
	}
}

// Publish calls every handler subscribed to topic and returns once they all
// returned. It reports how many handlers ran.
func (b *Bus) Publish(ctx context.Context, topic string) int {
	b.mu.RLock()
	subs := b.subs[topic]
	b.mu.RUnlock()

	for _, s := range subs {
		s.handler(ctx)
	}
	return len(subs)
}

// Subscribers returns the number of handlers on topic.
func (b *Bus) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}
