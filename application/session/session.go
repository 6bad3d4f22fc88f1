// Package session coordinates the annotation workflow for one image at
// a time: dictionary imports, model mutations, and saving the outputs.
// A session is exclusively owned by the UI event loop; every operation
// completes synchronously before the next input event is processed.
package session

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"sgdet-annotate/core/event"
	"sgdet-annotate/core/eventbus"
	"sgdet-annotate/domain/annotation"
	"sgdet-annotate/domain/dictionary"
	"sgdet-annotate/domain/export"
	"sgdet-annotate/infrastructure/imagefile"
	"sgdet-annotate/infrastructure/storage"
)

// ErrNoImageOpen is returned by operations that need an open image.
var ErrNoImageOpen = errors.New("no image open")

// Session holds the annotation state for the currently open image plus
// the imported dictionaries, which outlive individual images.
type Session struct {
	eventBus eventbus.EventBus
	store    *storage.Store
	logger   *slog.Logger

	labels     *dictionary.Dictionary
	attributes *dictionary.Dictionary
	predicates *dictionary.Dictionary

	model *annotation.Model
	img   image.Image
	dirty bool
}

// Config holds configuration for creating a new Session.
type Config struct {
	EventBus eventbus.EventBus
	Store    *storage.Store
	Logger   *slog.Logger
}

// New creates a session with no image open and no dictionaries loaded.
func New(cfg *Config) *Session {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Session{
		eventBus: cfg.EventBus,
		store:    cfg.Store,
		logger:   cfg.Logger,
	}
}

// vocabFunc adapts a lookup closure to annotation.Vocabulary so that
// dictionary imports take effect without rebuilding the open model.
type vocabFunc func(id int) bool

func (f vocabFunc) Contains(id int) bool { return f(id) }

// LoadDictionaries restores previously imported dictionaries from their
// mapping files in the output directory. Missing mappings are skipped.
func (s *Session) LoadDictionaries() error {
	for _, slot := range []struct {
		kind dictionary.Kind
		dst  **dictionary.Dictionary
	}{
		{dictionary.KindLabel, &s.labels},
		{dictionary.KindAttribute, &s.attributes},
		{dictionary.KindPredicate, &s.predicates},
	} {
		d, err := s.store.LoadMapping(slot.kind)
		if err != nil {
			return err
		}
		if d == nil {
			continue
		}
		*slot.dst = d
		s.logger.Info("dictionary restored", "kind", slot.kind, "tokens", d.Len())
	}
	return nil
}

// ImportDictionary loads a token list file, persists its mapping, and
// makes it the active dictionary of that kind. Any previous mapping of
// the same kind is replaced.
func (s *Session) ImportDictionary(kind dictionary.Kind, path string) (*dictionary.Dictionary, error) {
	d, err := dictionary.LoadFile(kind, path)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.SaveMapping(d); err != nil {
		return nil, err
	}

	switch kind {
	case dictionary.KindLabel:
		s.labels = d
	case dictionary.KindAttribute:
		s.attributes = d
	case dictionary.KindPredicate:
		s.predicates = d
	}

	s.eventBus.Publish(event.NewDictionaryImported(string(kind), d.Len()))
	return d, nil
}

// Labels returns the active label dictionary, or nil.
func (s *Session) Labels() *dictionary.Dictionary { return s.labels }

// Attributes returns the active attribute dictionary, or nil.
func (s *Session) Attributes() *dictionary.Dictionary { return s.attributes }

// Predicates returns the active predicate dictionary, or nil.
func (s *Session) Predicates() *dictionary.Dictionary { return s.predicates }

// OpenImage decodes the image at path and replaces all annotation state
// with a fresh model for it.
func (s *Session) OpenImage(path string) (image.Image, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	img, meta, err := imagefile.Open(abs)
	if err != nil {
		return nil, err
	}

	s.img = img
	s.model = annotation.NewModel(annotation.Config{
		Image:      meta,
		Labels:     vocabFunc(func(id int) bool { return s.labels != nil && s.labels.Contains(id) }),
		Attributes: vocabFunc(func(id int) bool { return s.attributes != nil && s.attributes.Contains(id) }),
		Predicates: vocabFunc(func(id int) bool { return s.predicates != nil && s.predicates.Contains(id) }),
	})
	s.dirty = false

	s.logger.Info("image opened", "path", abs, "width", meta.Width, "height", meta.Height)
	s.eventBus.Publish(event.NewImageOpened(abs, meta.Width, meta.Height))
	return img, nil
}

// HasImage reports whether an image is open.
func (s *Session) HasImage() bool { return s.model != nil }

// Image returns the decoded pixels of the open image, or nil.
func (s *Session) Image() image.Image { return s.img }

// Meta returns the metadata of the open image.
func (s *Session) Meta() annotation.ImageMeta {
	if s.model == nil {
		return annotation.ImageMeta{}
	}
	return s.model.Image()
}

// Dirty reports whether annotations changed since the last save.
func (s *Session) Dirty() bool { return s.dirty }

// HasAnnotations reports whether any labeled box exists, which is what
// the close intercept warns about.
func (s *Session) HasAnnotations() bool {
	return s.model != nil && len(s.model.Snapshot().Boxes) > 0
}

// CreateBox adds a pending unlabeled box.
func (s *Session) CreateBox(geom annotation.Rect) (annotation.BoxID, error) {
	if s.model == nil {
		return 0, ErrNoImageOpen
	}
	id, err := s.model.CreateBox(geom)
	if err != nil {
		return 0, err
	}
	s.dirty = true
	s.eventBus.Publish(event.NewBoxCreated(int(id)))
	return id, nil
}

// LabelBox confirms a pending box with a label.
func (s *Session) LabelBox(id annotation.BoxID, labelID int) error {
	if s.model == nil {
		return ErrNoImageOpen
	}
	if err := s.model.LabelBox(id, labelID); err != nil {
		return err
	}
	box, _ := s.model.Box(id)
	s.dirty = true
	s.eventBus.Publish(event.NewBoxLabeled(int(id), labelID, box.LocalID))
	return nil
}

// RelabelBox changes the label of a labeled box.
func (s *Session) RelabelBox(id annotation.BoxID, labelID int) error {
	if s.model == nil {
		return ErrNoImageOpen
	}
	before, err := s.model.Box(id)
	if err != nil {
		return err
	}
	if err := s.model.RelabelBox(id, labelID); err != nil {
		return err
	}
	after, _ := s.model.Box(id)
	if before.LabelID == after.LabelID {
		return nil
	}
	s.dirty = true
	s.eventBus.Publish(event.NewBoxRelabeled(int(id), before.LabelID, after.LabelID, after.LocalID))
	return nil
}

// ResizeBox replaces a box's geometry.
func (s *Session) ResizeBox(id annotation.BoxID, geom annotation.Rect) error {
	if s.model == nil {
		return ErrNoImageOpen
	}
	if err := s.model.ResizeBox(id, geom); err != nil {
		return err
	}
	s.dirty = true
	s.eventBus.Publish(event.NewBoxResized(int(id)))
	return nil
}

// DeleteBox removes a box and everything referencing it.
func (s *Session) DeleteBox(id annotation.BoxID) error {
	if s.model == nil {
		return ErrNoImageOpen
	}
	removed := 0
	for _, rel := range s.model.Snapshot().Relationships {
		if rel.References(id) {
			removed++
		}
	}
	if err := s.model.DeleteBox(id); err != nil {
		return err
	}
	s.dirty = true
	s.eventBus.Publish(event.NewBoxDeleted(int(id), removed))
	return nil
}

// AddAttribute assigns an attribute to a labeled box.
func (s *Session) AddAttribute(id annotation.BoxID, attributeID int) error {
	if s.model == nil {
		return ErrNoImageOpen
	}
	if err := s.model.AddAttribute(id, attributeID); err != nil {
		return err
	}
	s.dirty = true
	s.eventBus.Publish(event.NewAttributeAdded(int(id), attributeID))
	return nil
}

// RemoveAttribute removes an assigned attribute from a box.
func (s *Session) RemoveAttribute(id annotation.BoxID, attributeID int) error {
	if s.model == nil {
		return ErrNoImageOpen
	}
	if err := s.model.RemoveAttribute(id, attributeID); err != nil {
		return err
	}
	s.dirty = true
	s.eventBus.Publish(event.NewAttributeRemoved(int(id), attributeID))
	return nil
}

// AddRelationship adds a directed edge between two labeled boxes.
func (s *Session) AddRelationship(source annotation.BoxID, predicateID int, target annotation.BoxID) (annotation.RelationshipID, error) {
	if s.model == nil {
		return 0, ErrNoImageOpen
	}
	id, err := s.model.AddRelationship(source, predicateID, target)
	if err != nil {
		return 0, err
	}
	s.dirty = true
	s.eventBus.Publish(event.NewRelationshipAdded(int(id), int(source), predicateID, int(target)))
	return id, nil
}

// RemoveRelationship removes a relationship by handle.
func (s *Session) RemoveRelationship(id annotation.RelationshipID) error {
	if s.model == nil {
		return ErrNoImageOpen
	}
	if err := s.model.RemoveRelationship(id); err != nil {
		return err
	}
	s.dirty = true
	s.eventBus.Publish(event.NewRelationshipRemoved(int(id)))
	return nil
}

// Box returns a copy of a box.
func (s *Session) Box(id annotation.BoxID) (annotation.Box, error) {
	if s.model == nil {
		return annotation.Box{}, ErrNoImageOpen
	}
	return s.model.Box(id)
}

// Save encodes the committed annotations and writes the structured
// record and the columnar file next to each other in the output
// directory, both named after the image file.
func (s *Session) Save() (recordPath, columnarPath string, err error) {
	if s.model == nil {
		return "", "", ErrNoImageOpen
	}

	meta := s.model.Image()
	rec, col, err := export.Encode(s.model.Snapshot(), meta)
	if err != nil {
		return "", "", err
	}

	base := strings.TrimSuffix(filepath.Base(meta.Path), filepath.Ext(meta.Path))
	recordPath, columnarPath, err = s.store.SaveAnnotation(base, rec, col)
	if err != nil {
		return "", "", err
	}

	s.dirty = false
	s.eventBus.Publish(event.NewAnnotationsSaved(recordPath, columnarPath, len(rec.Labels)))
	return recordPath, columnarPath, nil
}

// BoxEntry is a display row for a labeled box.
type BoxEntry struct {
	ID         annotation.BoxID
	LabelID    int
	LocalID    int
	Display    string
	Geometry   annotation.Rect
	Attributes []int
}

// BoxEntries returns display rows for all labeled boxes, sorted by
// label ID then local ID.
func (s *Session) BoxEntries() []BoxEntry {
	if s.model == nil {
		return nil
	}
	snap := s.model.Snapshot()
	entries := make([]BoxEntry, 0, len(snap.Boxes))
	for _, box := range snap.Boxes {
		entries = append(entries, BoxEntry{
			ID:         box.ID,
			LabelID:    box.LabelID,
			LocalID:    box.LocalID,
			Display:    s.boxDisplay(box),
			Geometry:   box.Geometry,
			Attributes: box.Attributes,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].LabelID != entries[j].LabelID {
			return entries[i].LabelID < entries[j].LabelID
		}
		return entries[i].LocalID < entries[j].LocalID
	})
	return entries
}

// AttributeEntry is a display row for an assigned attribute.
type AttributeEntry struct {
	ID    int
	Token string
}

// AttributeEntries returns the assigned attributes of a box in
// assignment order.
func (s *Session) AttributeEntries(id annotation.BoxID) ([]AttributeEntry, error) {
	if s.model == nil {
		return nil, ErrNoImageOpen
	}
	box, err := s.model.Box(id)
	if err != nil {
		return nil, err
	}
	entries := make([]AttributeEntry, 0, len(box.Attributes))
	for _, a := range box.Attributes {
		entries = append(entries, AttributeEntry{ID: a, Token: s.token(s.attributes, a)})
	}
	return entries, nil
}

// RelationshipEntry is a display row for a relationship.
type RelationshipEntry struct {
	ID          annotation.RelationshipID
	SourceID    annotation.BoxID
	TargetID    annotation.BoxID
	PredicateID int
	Display     string
}

// RelationshipEntries returns display rows in insertion order. When
// source is nonzero only relationships with that source are returned.
func (s *Session) RelationshipEntries(source annotation.BoxID) []RelationshipEntry {
	if s.model == nil {
		return nil
	}

	var entries []RelationshipEntry
	add := func(rel annotation.Relationship) {
		entries = append(entries, RelationshipEntry{
			ID:          rel.ID,
			SourceID:    rel.SourceID,
			TargetID:    rel.TargetID,
			PredicateID: rel.PredicateID,
			Display:     s.relationshipDisplay(rel),
		})
	}

	if source != 0 {
		for rel := range s.model.RelationshipsForSource(source) {
			add(rel)
		}
		return entries
	}
	for _, rel := range s.model.Snapshot().Relationships {
		add(rel)
	}
	return entries
}

// boxDisplay renders a labeled box as "label:local_id".
func (s *Session) boxDisplay(box annotation.Box) string {
	return fmt.Sprintf("%s:%d", s.token(s.labels, box.LabelID), box.LocalID)
}

// relationshipDisplay renders "source --- predicate --- target".
func (s *Session) relationshipDisplay(rel annotation.Relationship) string {
	src, errS := s.model.Box(rel.SourceID)
	tgt, errT := s.model.Box(rel.TargetID)
	srcText, tgtText := "?", "?"
	if errS == nil {
		srcText = s.boxDisplay(src)
	}
	if errT == nil {
		tgtText = s.boxDisplay(tgt)
	}
	return fmt.Sprintf("%s --- %s --- %s", srcText, s.token(s.predicates, rel.PredicateID), tgtText)
}

// token resolves an ID against a dictionary, falling back to the bare
// number when the dictionary is missing or the ID is out of range.
func (s *Session) token(d *dictionary.Dictionary, id int) string {
	if d != nil {
		if tok, ok := d.Token(id); ok {
			return tok
		}
	}
	return strconv.Itoa(id)
}
