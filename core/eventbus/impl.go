package eventbus

import (
	"fmt"

	"sgdet-annotate/core/event"
)

// subscription represents a single event subscription.
type subscription struct {
	id      string
	handler EventHandler
	box     int // 0 means subscribe to all events
}

// syncEventBus dispatches events inline on the publishing goroutine.
// The application is single-threaded, so no locking is required; the
// bus only guards against subscription changes made by handlers while
// a dispatch is in flight by iterating over a copy.
type syncEventBus struct {
	subscriptions map[string]*subscription
	order         []string
	closed        bool
	nextID        uint64
}

// New creates a new synchronous EventBus.
func New() EventBus {
	return &syncEventBus{
		subscriptions: make(map[string]*subscription),
	}
}

// Publish delivers the event to all matching subscribers in
// subscription order.
func (b *syncEventBus) Publish(e event.Event) {
	if b.closed {
		return
	}

	ids := make([]string, len(b.order))
	copy(ids, b.order)

	boxHandle := 0
	if be, ok := e.(event.BoxEvent); ok {
		boxHandle = be.BoxHandle()
	}

	for _, id := range ids {
		sub, ok := b.subscriptions[id]
		if !ok {
			continue // unsubscribed by an earlier handler
		}
		if sub.box != 0 && sub.box != boxHandle {
			continue
		}
		sub.handler(e)
	}
}

// Subscribe subscribes to all events.
func (b *syncEventBus) Subscribe(handler EventHandler) string {
	return b.subscribe(0, handler)
}

// SubscribeBox subscribes to events affecting a specific box handle.
func (b *syncEventBus) SubscribeBox(box int, handler EventHandler) string {
	return b.subscribe(box, handler)
}

func (b *syncEventBus) subscribe(box int, handler EventHandler) string {
	b.nextID++
	id := fmt.Sprintf("sub-%d", b.nextID)

	b.subscriptions[id] = &subscription{
		id:      id,
		handler: handler,
		box:     box,
	}
	b.order = append(b.order, id)
	return id
}

// Unsubscribe removes a subscription by its ID.
func (b *syncEventBus) Unsubscribe(subscriptionID string) {
	if _, ok := b.subscriptions[subscriptionID]; !ok {
		return
	}
	delete(b.subscriptions, subscriptionID)
	for i, id := range b.order {
		if id == subscriptionID {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}

// Close shuts down the event bus.
func (b *syncEventBus) Close() {
	b.closed = true
	b.subscriptions = make(map[string]*subscription)
	b.order = nil
}
