package annotation

// RelationshipID is a handle to a relationship owned by the model.
type RelationshipID int

// Relationship is a directed edge between two labeled boxes.
type Relationship struct {
	// ID is the model-allocated handle.
	ID RelationshipID

	// SourceID and TargetID reference boxes currently in the model.
	// Source and target always differ.
	SourceID BoxID
	TargetID BoxID

	// PredicateID is a 1-based key into the predicate dictionary.
	PredicateID int
}

// References reports whether the relationship touches the given box
// as source or target.
func (r Relationship) References(id BoxID) bool {
	return r.SourceID == id || r.TargetID == id
}
