package annotation

import (
	"errors"
	"fmt"
)

// Error categories. Every model failure wraps exactly one of these so
// callers can branch on the class of failure with errors.Is.
var (
	// ErrValidation covers bad input: degenerate or out-of-bounds
	// geometry, operations against a box in the wrong lifecycle state.
	ErrValidation = errors.New("validation error")
	// ErrReference covers unknown handles and dictionary IDs.
	ErrReference = errors.New("reference error")
	// ErrCapacity covers per-box limits.
	ErrCapacity = errors.New("capacity error")
	// ErrDuplicate covers repeated attribute or relationship additions.
	ErrDuplicate = errors.New("duplicate error")
	// ErrIntegrity marks an internal invariant violation. It must never
	// surface from correct model usage.
	ErrIntegrity = errors.New("integrity error")
)

// Specific model failures.
var (
	ErrInvalidGeometry       = fmt.Errorf("%w: invalid geometry", ErrValidation)
	ErrAlreadyLabeled        = fmt.Errorf("%w: box is already labeled", ErrValidation)
	ErrBoxNotLabeled         = fmt.Errorf("%w: box is not labeled", ErrValidation)
	ErrSelfRelationship      = fmt.Errorf("%w: source and target must differ", ErrValidation)
	ErrUnknownBox            = fmt.Errorf("%w: unknown box", ErrReference)
	ErrUnknownLabel          = fmt.Errorf("%w: unknown label", ErrReference)
	ErrUnknownAttribute      = fmt.Errorf("%w: unknown attribute", ErrReference)
	ErrUnknownPredicate      = fmt.Errorf("%w: unknown predicate", ErrReference)
	ErrUnknownRelationship   = fmt.Errorf("%w: unknown relationship", ErrReference)
	ErrAttributeNotFound     = fmt.Errorf("%w: attribute not assigned to box", ErrReference)
	ErrAttributeLimit        = fmt.Errorf("%w: attribute limit reached", ErrCapacity)
	ErrDuplicateAttribute    = fmt.Errorf("%w: attribute already assigned", ErrDuplicate)
	ErrDuplicateRelationship = fmt.Errorf("%w: relationship already exists", ErrDuplicate)
)

// GeometryError reports a rectangle that failed bounds validation,
// together with the image bounds it was checked against.
type GeometryError struct {
	Geometry Rect
	Width    int
	Height   int
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("%v: %v outside %dx%d image", ErrInvalidGeometry, e.Geometry, e.Width, e.Height)
}

func (e *GeometryError) Unwrap() error {
	return ErrInvalidGeometry
}
