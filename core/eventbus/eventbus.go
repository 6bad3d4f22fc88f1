// Package eventbus provides the event bus for publishing and
// subscribing to events. Dispatch is synchronous: Publish invokes
// every subscriber inline before returning, preserving the strict
// one-event-at-a-time ordering the single UI thread relies on.
package eventbus

import (
	"sgdet-annotate/core/event"
)

// EventBus is the interface for the event bus.
type EventBus interface {
	// Publish delivers an event to all subscribers before returning.
	Publish(e event.Event)

	// Subscribe subscribes to all events.
	// Returns a subscription ID that can be used to unsubscribe.
	Subscribe(handler EventHandler) string

	// SubscribeBox subscribes to events affecting a specific box handle.
	// Only events implementing BoxEvent with a matching handle will be
	// delivered. Returns a subscription ID.
	SubscribeBox(box int, handler EventHandler) string

	// Unsubscribe removes a subscription by its ID.
	Unsubscribe(subscriptionID string)

	// Close shuts down the event bus. After Close, Publish is a no-op.
	Close()
}

// EventHandler is a function that handles an event.
type EventHandler func(e event.Event)
