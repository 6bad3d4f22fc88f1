package annotation

import (
	"iter"

	"sgdet-annotate/core/state"
)

// Vocabulary reports membership of a dense integer ID in one of the
// imported dictionaries. Implemented by dictionary.Dictionary.
type Vocabulary interface {
	Contains(id int) bool
}

// Config holds the inputs the model validates mutations against. All
// fields are fixed for the lifetime of the model; opening a new image
// means building a new model.
type Config struct {
	Image      ImageMeta
	Labels     Vocabulary
	Attributes Vocabulary
	Predicates Vocabulary
}

// Model owns all boxes and relationships for the currently open image.
// Every operation is synchronous and atomic: it either succeeds or
// fails with the model state unchanged. The model is exclusively owned
// by the UI event loop; it performs no locking and no I/O.
type Model struct {
	image      ImageMeta
	labels     Vocabulary
	attributes Vocabulary
	predicates Vocabulary

	boxes   []*Box // creation order, including the unlabeled box
	byID    map[BoxID]*Box
	rels    []Relationship // insertion order
	nextBox BoxID
	nextRel RelationshipID
}

// NewModel creates an empty model for one image.
func NewModel(cfg Config) *Model {
	return &Model{
		image:      cfg.Image,
		labels:     cfg.Labels,
		attributes: cfg.Attributes,
		predicates: cfg.Predicates,
		byID:       make(map[BoxID]*Box),
	}
}

// Image returns the metadata of the image this model annotates.
func (m *Model) Image() ImageMeta {
	return m.image
}

// CreateBox adds an unlabeled box with the given geometry and returns
// its handle. Fails with ErrInvalidGeometry if the rectangle has zero
// area or lies outside the image bounds.
func (m *Model) CreateBox(geom Rect) (BoxID, error) {
	if err := geom.validate(m.image.Width, m.image.Height); err != nil {
		return 0, err
	}

	m.nextBox++
	box := &Box{
		ID:       m.nextBox,
		Geometry: geom,
		State:    state.StateUnlabeled,
	}
	m.boxes = append(m.boxes, box)
	m.byID[box.ID] = box
	return box.ID, nil
}

// LabelBox transitions an unlabeled box to Labeled with the given
// label and assigns its per-label local ID. Fails with
// ErrAlreadyLabeled on a labeled box (use RelabelBox instead) and
// ErrUnknownLabel if the ID is not in the label dictionary.
func (m *Model) LabelBox(id BoxID, labelID int) error {
	box, ok := m.byID[id]
	if !ok {
		return ErrUnknownBox
	}
	if box.Labeled() {
		return ErrAlreadyLabeled
	}
	if !vocabContains(m.labels, labelID) {
		return ErrUnknownLabel
	}
	if err := box.transition(state.StateLabeled); err != nil {
		return err
	}

	box.LabelID = labelID
	box.LocalID = m.maxLocalID(labelID, id) + 1
	return nil
}

// RelabelBox changes the label of a labeled box, recomputing its local
// ID under the new label scope. Relationships referencing the box are
// structurally unaffected; display strings derived from the label must
// be regenerated by the caller. Relabeling to the current label is a
// no-op.
func (m *Model) RelabelBox(id BoxID, newLabelID int) error {
	box, ok := m.byID[id]
	if !ok {
		return ErrUnknownBox
	}
	if !box.Labeled() {
		return ErrBoxNotLabeled
	}
	if !vocabContains(m.labels, newLabelID) {
		return ErrUnknownLabel
	}
	if box.LabelID == newLabelID {
		return nil
	}
	// Relabel is the Labeled -> Labeled transition.
	if err := box.transition(state.StateLabeled); err != nil {
		return err
	}

	box.LabelID = newLabelID
	box.LocalID = m.maxLocalID(newLabelID, id) + 1
	return nil
}

// ResizeBox replaces the box geometry, applying the same validation as
// CreateBox. Allowed both before and after labeling.
func (m *Model) ResizeBox(id BoxID, geom Rect) error {
	box, ok := m.byID[id]
	if !ok {
		return ErrUnknownBox
	}
	if err := geom.validate(m.image.Width, m.image.Height); err != nil {
		return err
	}

	box.Geometry = geom
	return nil
}

// DeleteBox removes the box together with its attributes and every
// relationship referencing it as source or target. Fails with
// ErrUnknownBox if the handle is invalid or already deleted.
func (m *Model) DeleteBox(id BoxID) error {
	box, ok := m.byID[id]
	if !ok {
		return ErrUnknownBox
	}
	if err := box.transition(state.StateDeleted); err != nil {
		return err
	}

	delete(m.byID, id)
	for i, b := range m.boxes {
		if b.ID == id {
			m.boxes = append(m.boxes[:i], m.boxes[i+1:]...)
			break
		}
	}

	kept := m.rels[:0]
	for _, rel := range m.rels {
		if !rel.References(id) {
			kept = append(kept, rel)
		}
	}
	m.rels = kept
	return nil
}

// AddAttribute assigns an attribute ID to a labeled box. Attributes
// are ordered, unique per box, and capped at MaxAttributes.
func (m *Model) AddAttribute(id BoxID, attributeID int) error {
	box, ok := m.byID[id]
	if !ok {
		return ErrUnknownBox
	}
	if !box.State.CanAnnotate() {
		return ErrBoxNotLabeled
	}
	if !vocabContains(m.attributes, attributeID) {
		return ErrUnknownAttribute
	}
	if box.HasAttribute(attributeID) {
		return ErrDuplicateAttribute
	}
	if len(box.Attributes) >= MaxAttributes {
		return ErrAttributeLimit
	}

	box.Attributes = append(box.Attributes, attributeID)
	return nil
}

// RemoveAttribute removes an assigned attribute from a box.
func (m *Model) RemoveAttribute(id BoxID, attributeID int) error {
	box, ok := m.byID[id]
	if !ok {
		return ErrUnknownBox
	}
	for i, a := range box.Attributes {
		if a == attributeID {
			box.Attributes = append(box.Attributes[:i], box.Attributes[i+1:]...)
			return nil
		}
	}
	return ErrAttributeNotFound
}

// AddRelationship adds a directed edge between two distinct labeled
// boxes and returns its handle. Identical duplicate edges (same
// source, predicate, and target) are rejected.
func (m *Model) AddRelationship(sourceID BoxID, predicateID int, targetID BoxID) (RelationshipID, error) {
	source, ok := m.byID[sourceID]
	if !ok {
		return 0, ErrUnknownBox
	}
	target, ok := m.byID[targetID]
	if !ok {
		return 0, ErrUnknownBox
	}
	if sourceID == targetID {
		return 0, ErrSelfRelationship
	}
	if !source.State.CanAnnotate() || !target.State.CanAnnotate() {
		return 0, ErrBoxNotLabeled
	}
	if !vocabContains(m.predicates, predicateID) {
		return 0, ErrUnknownPredicate
	}
	for _, rel := range m.rels {
		if rel.SourceID == sourceID && rel.TargetID == targetID && rel.PredicateID == predicateID {
			return 0, ErrDuplicateRelationship
		}
	}

	m.nextRel++
	rel := Relationship{
		ID:          m.nextRel,
		SourceID:    sourceID,
		TargetID:    targetID,
		PredicateID: predicateID,
	}
	m.rels = append(m.rels, rel)
	return rel.ID, nil
}

// RemoveRelationship removes a relationship by handle.
func (m *Model) RemoveRelationship(id RelationshipID) error {
	for i, rel := range m.rels {
		if rel.ID == id {
			m.rels = append(m.rels[:i], m.rels[i+1:]...)
			return nil
		}
	}
	return ErrUnknownRelationship
}

// RelationshipsForSource returns a lazy, restartable sequence of the
// relationships whose source is the given box, in insertion order.
// An unknown or deleted handle yields an empty sequence.
func (m *Model) RelationshipsForSource(id BoxID) iter.Seq[Relationship] {
	return func(yield func(Relationship) bool) {
		for _, rel := range m.rels {
			if rel.SourceID != id {
				continue
			}
			if !yield(rel) {
				return
			}
		}
	}
}

// Box returns a copy of the box with the given handle.
func (m *Model) Box(id BoxID) (Box, error) {
	box, ok := m.byID[id]
	if !ok {
		return Box{}, ErrUnknownBox
	}
	return *box.Clone(), nil
}

// Snapshot is a read-only view of committed annotation state, used for
// both rendering and export. Boxes appear in creation order and
// include only labeled boxes; relationships appear in insertion order.
type Snapshot struct {
	Boxes         []Box
	Relationships []Relationship
}

// Snapshot returns the committed state of the model. The returned
// slices are deep copies; mutating them does not affect the model.
func (m *Model) Snapshot() Snapshot {
	snap := Snapshot{
		Boxes:         make([]Box, 0, len(m.boxes)),
		Relationships: make([]Relationship, len(m.rels)),
	}
	for _, box := range m.boxes {
		if box.State.IsExportable() {
			snap.Boxes = append(snap.Boxes, *box.Clone())
		}
	}
	copy(snap.Relationships, m.rels)
	return snap
}

// maxLocalID returns the highest local ID among boxes labeled with
// labelID, excluding the given box. Local IDs are gap-preserving:
// deletions never renumber surviving boxes, so new labelings extend
// past the highest surviving ID.
func (m *Model) maxLocalID(labelID int, exclude BoxID) int {
	max := 0
	for _, box := range m.boxes {
		if box.ID == exclude || !box.Labeled() || box.LabelID != labelID {
			continue
		}
		if box.LocalID > max {
			max = box.LocalID
		}
	}
	return max
}

func vocabContains(v Vocabulary, id int) bool {
	return v != nil && v.Contains(id)
}
