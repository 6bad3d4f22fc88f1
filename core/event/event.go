// Package event defines all events published by the application layer.
// Events describe committed annotation state changes and are consumed
// by the presentation layer to re-render its views.
package event

// Event is the base interface for all events.
type Event interface {
	// EventName returns the name of the event for logging/debugging
	EventName() string
}

// BoxEvent is an event concerning a specific box.
type BoxEvent interface {
	Event
	// BoxHandle returns the affected box handle
	BoxHandle() int
}

// baseBoxEvent provides common implementation for box events.
type baseBoxEvent struct {
	box int
}

func (e *baseBoxEvent) BoxHandle() int {
	return e.box
}
