// Package bus is the in-process publish/subscribe dispatcher. Dispatch is
// strictly synchronous: Emit runs every handler to completion on the calling
// goroutine, in registration order. Handlers must not block for long.
package bus

import (
	"log/slog"
	"sync"
)

// Canonical topics emitted by the data layer.
const (
	TopicStateChanged = "state-changed"
	TopicStatsReady   = "stats-ready"
	TopicDataImported = "data-imported"
)

// Handler receives a deep copy of the emitted payload.
type Handler func(payload any)

// Subscription is the handle returned by On/Once. Unsubscribing requires the
// handle, so one subscriber can never accidentally detach another.
type Subscription struct {
	topic   string
	handler Handler
	once    bool
}

// Bus registers handlers per topic and dispatches payload copies to them.
// The zero value is not usable; construct with New.
type Bus struct {
	mu        sync.Mutex
	listeners map[string][]*Subscription
}

func New() *Bus {
	return &Bus{listeners: make(map[string][]*Subscription)}
}

// On registers a handler for a topic and returns its subscription handle.
func (b *Bus) On(topic string, handler Handler) *Subscription {
	sub := &Subscription{topic: topic, handler: handler}
	b.mu.Lock()
	b.listeners[topic] = append(b.listeners[topic], sub)
	b.mu.Unlock()
	return sub
}

// Once registers a handler that is deregistered after its first invocation.
func (b *Bus) Once(topic string, handler Handler) *Subscription {
	sub := &Subscription{topic: topic, handler: handler, once: true}
	b.mu.Lock()
	b.listeners[topic] = append(b.listeners[topic], sub)
	b.mu.Unlock()
	return sub
}

// Off removes a single subscription. Nil or already-removed handles are
// ignored.
func (b *Bus) Off(sub *Subscription) {
	if sub == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.remove(sub)
}

func (b *Bus) remove(sub *Subscription) {
	subs := b.listeners[sub.topic]
	for i, s := range subs {
		if s == sub {
			b.listeners[sub.topic] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.listeners[sub.topic]) == 0 {
		delete(b.listeners, sub.topic)
	}
}

// RemoveAllListeners drops every handler on a topic. This detaches
// subscribers that other code may rely on, so it logs a warning.
func (b *Bus) RemoveAllListeners(topic string) {
	b.mu.Lock()
	n := len(b.listeners[topic])
	delete(b.listeners, topic)
	b.mu.Unlock()
	if n > 0 {
		slog.Warn("removed all listeners for topic", "topic", topic, "count", n)
	}
}

// Emit dispatches payload to every handler registered for topic, in
// registration order, on the calling goroutine. The payload is deep-copied
// first so producers and consumers never share mutable state. A panicking
// handler is recovered and logged; later handlers still run. Emitting to a
// topic with no subscribers is a no-op.
func (b *Bus) Emit(topic string, payload any) {
	b.mu.Lock()
	subs := b.listeners[topic]
	if len(subs) == 0 {
		b.mu.Unlock()
		return
	}
	// Snapshot so handlers can subscribe/unsubscribe during dispatch.
	active := make([]*Subscription, len(subs))
	copy(active, subs)
	for _, sub := range subs {
		if sub.once {
			b.remove(sub)
		}
	}
	b.mu.Unlock()

	copied := clonePayload(payload)
	for _, sub := range active {
		b.dispatch(topic, sub, copied)
	}
}

func (b *Bus) dispatch(topic string, sub *Subscription, payload any) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("event handler panicked", "topic", topic, "panic", r)
		}
	}()
	sub.handler(payload)
}

// ListenerCount reports the number of handlers registered for a topic.
func (b *Bus) ListenerCount(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners[topic])
}

// Topics returns every topic that currently has at least one listener.
func (b *Bus) Topics() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	topics := make([]string, 0, len(b.listeners))
	for topic := range b.listeners {
		topics = append(topics, topic)
	}
	return topics
}
