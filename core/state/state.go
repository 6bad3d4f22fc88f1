// Package state defines the bounding box lifecycle state machine.
package state

import "fmt"

// BoxState represents the lifecycle state of a bounding box.
type BoxState int

const (
	// StateUnlabeled is the transient state between draw-release and
	// label confirmation. An unlabeled box cannot be exported.
	StateUnlabeled BoxState = iota
	// StateLabeled indicates the box carries a confirmed label.
	StateLabeled
	// StateDeleted indicates the box has been removed from the model.
	StateDeleted
)

// String returns the string representation of the state.
func (s BoxState) String() string {
	switch s {
	case StateUnlabeled:
		return "Unlabeled"
	case StateLabeled:
		return "Labeled"
	case StateDeleted:
		return "Deleted"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// validTransitions defines the allowed state transitions.
// Key is the current state, value is a list of valid target states.
// A Labeled box may transition to Labeled again on relabel.
var validTransitions = map[BoxState][]BoxState{
	StateUnlabeled: {StateLabeled, StateDeleted},
	StateLabeled:   {StateLabeled, StateDeleted},
	StateDeleted:   {}, // Terminal state, no transitions allowed
}

// CanTransitionTo checks if transitioning from the current state to the target state is valid.
func (s BoxState) CanTransitionTo(target BoxState) bool {
	allowed, ok := validTransitions[s]
	if !ok {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if the state is a terminal state (no further transitions).
func (s BoxState) IsTerminal() bool {
	return s == StateDeleted
}

// IsExportable returns true if a box in this state may appear in a snapshot.
func (s BoxState) IsExportable() bool {
	return s == StateLabeled
}

// CanAnnotate returns true if attributes and relationships may be
// attached to a box in this state.
func (s BoxState) CanAnnotate() bool {
	return s == StateLabeled
}

// TransitionError represents an invalid state transition attempt.
type TransitionError struct {
	From   BoxState
	To     BoxState
	Reason string
}

func (e *TransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid box transition from %s to %s: %s", e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("invalid box transition from %s to %s", e.From, e.To)
}

// NewTransitionError creates a new TransitionError.
func NewTransitionError(from, to BoxState, reason string) *TransitionError {
	return &TransitionError{From: from, To: to, Reason: reason}
}
