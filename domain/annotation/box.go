// Package annotation implements the in-memory annotation model for the
// currently open image: boxes, per-box attributes, and pairwise
// relationships, with referential integrity enforced on every mutation.
package annotation

import (
	"fmt"

	"sgdet-annotate/core/state"
)

// BoxID is a handle to a box owned by the model. Handles are dense,
// model-allocated, and never reused within a session.
type BoxID int

// MaxAttributes is the maximum number of attributes a box may carry.
const MaxAttributes = 10

// Box represents one annotated object instance.
type Box struct {
	// ID is the model-allocated handle.
	ID BoxID

	// LabelID is a 1-based key into the label dictionary. Zero while
	// the box is unlabeled.
	LabelID int

	// LocalID disambiguates boxes sharing a label on screen, e.g. the
	// "1" in "bed:1". Display-only, never persisted.
	LocalID int

	// Geometry is the rectangle in original image pixel space.
	Geometry Rect

	// Attributes holds attribute IDs in assignment order.
	Attributes []int

	// State is the lifecycle state.
	State state.BoxState
}

// Labeled reports whether the box carries a confirmed label.
func (b *Box) Labeled() bool {
	return b.State == state.StateLabeled
}

// transition moves the box to the target lifecycle state, consulting
// the transition table. Every state change goes through here.
func (b *Box) transition(to state.BoxState) error {
	if b.State.CanTransitionTo(to) {
		b.State = to
		return nil
	}
	reason := ""
	if b.State.IsTerminal() {
		reason = "box is deleted"
	}
	return fmt.Errorf("%w: %w", ErrValidation, state.NewTransitionError(b.State, to, reason))
}

// HasAttribute reports whether the attribute ID is assigned to the box.
func (b *Box) HasAttribute(id int) bool {
	for _, a := range b.Attributes {
		if a == id {
			return true
		}
	}
	return false
}

// Clone creates a deep copy of the box.
func (b *Box) Clone() *Box {
	clone := &Box{
		ID:       b.ID,
		LabelID:  b.LabelID,
		LocalID:  b.LocalID,
		Geometry: b.Geometry,
		State:    b.State,
	}
	if len(b.Attributes) > 0 {
		clone.Attributes = make([]int, len(b.Attributes))
		copy(clone.Attributes, b.Attributes)
	}
	return clone
}
