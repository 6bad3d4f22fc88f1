package event

// ImageOpened is published when a new image becomes the annotation
// target. All prior annotation state has been discarded.
type ImageOpened struct {
	Path   string
	Width  int
	Height int
}

func NewImageOpened(path string, width, height int) *ImageOpened {
	return &ImageOpened{Path: path, Width: width, Height: height}
}

func (e *ImageOpened) EventName() string {
	return "ImageOpened"
}

// BoxCreated is published when a pending (unlabeled) box is drawn.
type BoxCreated struct {
	baseBoxEvent
}

func NewBoxCreated(box int) *BoxCreated {
	return &BoxCreated{baseBoxEvent{box: box}}
}

func (e *BoxCreated) EventName() string {
	return "BoxCreated"
}

// BoxLabeled is published when a pending box is confirmed with a label.
type BoxLabeled struct {
	baseBoxEvent
	LabelID int
	LocalID int
}

func NewBoxLabeled(box, labelID, localID int) *BoxLabeled {
	return &BoxLabeled{
		baseBoxEvent: baseBoxEvent{box: box},
		LabelID:      labelID,
		LocalID:      localID,
	}
}

func (e *BoxLabeled) EventName() string {
	return "BoxLabeled"
}

// BoxRelabeled is published when a labeled box changes label. Display
// strings derived from the old label are stale after this event.
type BoxRelabeled struct {
	baseBoxEvent
	OldLabelID int
	NewLabelID int
	LocalID    int
}

func NewBoxRelabeled(box, oldLabelID, newLabelID, localID int) *BoxRelabeled {
	return &BoxRelabeled{
		baseBoxEvent: baseBoxEvent{box: box},
		OldLabelID:   oldLabelID,
		NewLabelID:   newLabelID,
		LocalID:      localID,
	}
}

func (e *BoxRelabeled) EventName() string {
	return "BoxRelabeled"
}

// BoxResized is published when a box geometry changes.
type BoxResized struct {
	baseBoxEvent
}

func NewBoxResized(box int) *BoxResized {
	return &BoxResized{baseBoxEvent{box: box}}
}

func (e *BoxResized) EventName() string {
	return "BoxResized"
}

// BoxDeleted is published when a box is removed, after its attributes
// and relationships have been cascaded away.
type BoxDeleted struct {
	baseBoxEvent
	RelationshipsRemoved int
}

func NewBoxDeleted(box, relationshipsRemoved int) *BoxDeleted {
	return &BoxDeleted{
		baseBoxEvent:         baseBoxEvent{box: box},
		RelationshipsRemoved: relationshipsRemoved,
	}
}

func (e *BoxDeleted) EventName() string {
	return "BoxDeleted"
}

// AttributeAdded is published when an attribute is assigned to a box.
type AttributeAdded struct {
	baseBoxEvent
	AttributeID int
}

func NewAttributeAdded(box, attributeID int) *AttributeAdded {
	return &AttributeAdded{
		baseBoxEvent: baseBoxEvent{box: box},
		AttributeID:  attributeID,
	}
}

func (e *AttributeAdded) EventName() string {
	return "AttributeAdded"
}

// AttributeRemoved is published when an attribute is removed from a box.
type AttributeRemoved struct {
	baseBoxEvent
	AttributeID int
}

func NewAttributeRemoved(box, attributeID int) *AttributeRemoved {
	return &AttributeRemoved{
		baseBoxEvent: baseBoxEvent{box: box},
		AttributeID:  attributeID,
	}
}

func (e *AttributeRemoved) EventName() string {
	return "AttributeRemoved"
}

// RelationshipAdded is published when a directed edge is created.
type RelationshipAdded struct {
	Relationship int
	Source       int
	PredicateID  int
	Target       int
}

func NewRelationshipAdded(relationship, source, predicateID, target int) *RelationshipAdded {
	return &RelationshipAdded{
		Relationship: relationship,
		Source:       source,
		PredicateID:  predicateID,
		Target:       target,
	}
}

func (e *RelationshipAdded) EventName() string {
	return "RelationshipAdded"
}

// RelationshipRemoved is published when an edge is removed directly
// (not via box deletion cascade).
type RelationshipRemoved struct {
	Relationship int
}

func NewRelationshipRemoved(relationship int) *RelationshipRemoved {
	return &RelationshipRemoved{Relationship: relationship}
}

func (e *RelationshipRemoved) EventName() string {
	return "RelationshipRemoved"
}

// DictionaryImported is published when a token list import replaces
// one of the three dictionaries.
type DictionaryImported struct {
	Kind  string
	Count int
}

func NewDictionaryImported(kind string, count int) *DictionaryImported {
	return &DictionaryImported{Kind: kind, Count: count}
}

func (e *DictionaryImported) EventName() string {
	return "DictionaryImported"
}

// AnnotationsSaved is published after both export artifacts have been
// written successfully.
type AnnotationsSaved struct {
	RecordPath   string
	ColumnarPath string
	Boxes        int
}

func NewAnnotationsSaved(recordPath, columnarPath string, boxes int) *AnnotationsSaved {
	return &AnnotationsSaved{
		RecordPath:   recordPath,
		ColumnarPath: columnarPath,
		Boxes:        boxes,
	}
}

func (e *AnnotationsSaved) EventName() string {
	return "AnnotationsSaved"
}
