package session

import (
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"sgdet-annotate/core/event"
	"sgdet-annotate/core/eventbus"
	"sgdet-annotate/domain/annotation"
	"sgdet-annotate/domain/dictionary"
	"sgdet-annotate/infrastructure/storage"
)

func writeTestImage(t *testing.T, dir string, w, h int) string {
	t.Helper()
	path := filepath.Join(dir, "scene.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeTokenList(t *testing.T, dir, name string, lines string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(lines), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestSession(t *testing.T) (*Session, eventbus.EventBus, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewStore(filepath.Join(dir, "out"), nil)
	if err != nil {
		t.Fatal(err)
	}
	bus := eventbus.New()
	t.Cleanup(bus.Close)
	return New(&Config{EventBus: bus, Store: store}), bus, dir
}

// openScene opens a test image and imports the three dictionaries.
func openScene(t *testing.T, s *Session, dir string) {
	t.Helper()
	if _, err := s.ImportDictionary(dictionary.KindLabel,
		writeTokenList(t, dir, "labels.txt", "cat\ndog\ntable\n")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ImportDictionary(dictionary.KindAttribute,
		writeTokenList(t, dir, "attributes.txt", "black\nwhite\nsmall\n")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ImportDictionary(dictionary.KindPredicate,
		writeTokenList(t, dir, "predicates.txt", "on\nnear\n")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.OpenImage(writeTestImage(t, dir, 350, 466)); err != nil {
		t.Fatal(err)
	}
}

func labeledBox(t *testing.T, s *Session, geom annotation.Rect, labelID int) annotation.BoxID {
	t.Helper()
	id, err := s.CreateBox(geom)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.LabelBox(id, labelID); err != nil {
		t.Fatal(err)
	}
	return id
}

func TestOperationsWithoutImage(t *testing.T) {
	s, _, _ := newTestSession(t)

	if _, err := s.CreateBox(annotation.Rect{X: 0, Y: 0, Width: 10, Height: 10}); !errors.Is(err, ErrNoImageOpen) {
		t.Errorf("CreateBox error = %v, want ErrNoImageOpen", err)
	}
	if _, _, err := s.Save(); !errors.Is(err, ErrNoImageOpen) {
		t.Errorf("Save error = %v, want ErrNoImageOpen", err)
	}
	if s.HasImage() {
		t.Error("HasImage() = true before OpenImage")
	}
}

func TestOpenImagePublishesEvent(t *testing.T) {
	s, bus, dir := newTestSession(t)

	var opened *event.ImageOpened
	bus.Subscribe(func(e event.Event) {
		if ev, ok := e.(*event.ImageOpened); ok {
			opened = ev
		}
	})

	img, err := s.OpenImage(writeTestImage(t, dir, 350, 466))
	if err != nil {
		t.Fatalf("OpenImage() error = %v", err)
	}
	if img == nil {
		t.Fatal("OpenImage() returned nil image")
	}
	if opened == nil {
		t.Fatal("ImageOpened not published")
	}
	if opened.Width != 350 || opened.Height != 466 {
		t.Errorf("event size = %dx%d, want 350x466", opened.Width, opened.Height)
	}
	if !filepath.IsAbs(opened.Path) {
		t.Errorf("event path %q not absolute", opened.Path)
	}
}

func TestImportThenRestoreDictionaries(t *testing.T) {
	s, _, dir := newTestSession(t)
	openScene(t, s, dir)

	// A fresh session over the same store sees the persisted mappings.
	fresh := New(&Config{EventBus: eventbus.New(), Store: s.store})
	if err := fresh.LoadDictionaries(); err != nil {
		t.Fatalf("LoadDictionaries() error = %v", err)
	}
	if fresh.Labels() == nil || fresh.Labels().Len() != 3 {
		t.Fatalf("restored labels = %v", fresh.Labels())
	}
	if id, _ := fresh.Predicates().ID("near"); id != 2 {
		t.Errorf(`restored predicate ID("near") = %d, want 2`, id)
	}
}

func TestDictionaryImportAffectsOpenModel(t *testing.T) {
	s, _, dir := newTestSession(t)
	if _, err := s.OpenImage(writeTestImage(t, dir, 350, 466)); err != nil {
		t.Fatal(err)
	}

	id, err := s.CreateBox(annotation.Rect{X: 10, Y: 10, Width: 50, Height: 50})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.LabelBox(id, 1); !errors.Is(err, annotation.ErrUnknownLabel) {
		t.Fatalf("LabelBox before import: error = %v, want ErrUnknownLabel", err)
	}

	if _, err := s.ImportDictionary(dictionary.KindLabel,
		writeTokenList(t, dir, "labels.txt", "cat\n")); err != nil {
		t.Fatal(err)
	}
	if err := s.LabelBox(id, 1); err != nil {
		t.Errorf("LabelBox after import: error = %v", err)
	}
}

func TestBoxEntriesSortedAndDisplayed(t *testing.T) {
	s, _, dir := newTestSession(t)
	openScene(t, s, dir)

	// Created out of label order on purpose.
	labeledBox(t, s, annotation.Rect{X: 0, Y: 0, Width: 30, Height: 30}, 2)  // dog:1
	labeledBox(t, s, annotation.Rect{X: 40, Y: 0, Width: 30, Height: 30}, 1) // cat:1
	labeledBox(t, s, annotation.Rect{X: 80, Y: 0, Width: 30, Height: 30}, 1) // cat:2

	entries := s.BoxEntries()
	if len(entries) != 3 {
		t.Fatalf("BoxEntries() = %d entries, want 3", len(entries))
	}
	want := []string{"cat:1", "cat:2", "dog:1"}
	for i, w := range want {
		if entries[i].Display != w {
			t.Errorf("entries[%d].Display = %q, want %q", i, entries[i].Display, w)
		}
	}
}

func TestRelationshipEntriesFilterAndDisplay(t *testing.T) {
	s, _, dir := newTestSession(t)
	openScene(t, s, dir)

	cat := labeledBox(t, s, annotation.Rect{X: 0, Y: 0, Width: 30, Height: 30}, 1)
	table := labeledBox(t, s, annotation.Rect{X: 40, Y: 0, Width: 30, Height: 30}, 3)
	dog := labeledBox(t, s, annotation.Rect{X: 80, Y: 0, Width: 30, Height: 30}, 2)

	if _, err := s.AddRelationship(cat, 1, table); err != nil { // cat on table
		t.Fatal(err)
	}
	if _, err := s.AddRelationship(dog, 2, cat); err != nil { // dog near cat
		t.Fatal(err)
	}

	all := s.RelationshipEntries(0)
	if len(all) != 2 {
		t.Fatalf("RelationshipEntries(0) = %d entries, want 2", len(all))
	}
	if all[0].Display != "cat:1 --- on --- table:1" {
		t.Errorf("Display = %q", all[0].Display)
	}

	fromDog := s.RelationshipEntries(dog)
	if len(fromDog) != 1 {
		t.Fatalf("RelationshipEntries(dog) = %d entries, want 1", len(fromDog))
	}
	if fromDog[0].Display != "dog:1 --- near --- cat:1" {
		t.Errorf("Display = %q", fromDog[0].Display)
	}
}

func TestDeleteBoxReportsCascade(t *testing.T) {
	s, bus, dir := newTestSession(t)
	openScene(t, s, dir)

	cat := labeledBox(t, s, annotation.Rect{X: 0, Y: 0, Width: 30, Height: 30}, 1)
	table := labeledBox(t, s, annotation.Rect{X: 40, Y: 0, Width: 30, Height: 30}, 3)
	if _, err := s.AddRelationship(cat, 1, table); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddRelationship(table, 2, cat); err != nil {
		t.Fatal(err)
	}

	var deleted *event.BoxDeleted
	bus.Subscribe(func(e event.Event) {
		if ev, ok := e.(*event.BoxDeleted); ok {
			deleted = ev
		}
	})

	if err := s.DeleteBox(cat); err != nil {
		t.Fatalf("DeleteBox() error = %v", err)
	}
	if deleted == nil {
		t.Fatal("BoxDeleted not published")
	}
	if deleted.RelationshipsRemoved != 2 {
		t.Errorf("RelationshipsRemoved = %d, want 2", deleted.RelationshipsRemoved)
	}
	if len(s.RelationshipEntries(0)) != 0 {
		t.Error("relationships survived cascade")
	}
}

func TestSaveWritesOutputsAndClearsDirty(t *testing.T) {
	s, bus, dir := newTestSession(t)
	openScene(t, s, dir)

	cat := labeledBox(t, s, annotation.Rect{X: 10, Y: 10, Width: 100, Height: 100}, 1)
	if err := s.AddAttribute(cat, 3); err != nil {
		t.Fatal(err)
	}
	if !s.Dirty() {
		t.Fatal("Dirty() = false after mutations")
	}

	var saved *event.AnnotationsSaved
	bus.Subscribe(func(e event.Event) {
		if ev, ok := e.(*event.AnnotationsSaved); ok {
			saved = ev
		}
	})

	recordPath, columnarPath, err := s.Save()
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(recordPath); err != nil {
		t.Errorf("record missing: %v", err)
	}
	if _, err := os.Stat(columnarPath); err != nil {
		t.Errorf("columnar file missing: %v", err)
	}
	if filepath.Base(recordPath) != "scene.json" || filepath.Base(columnarPath) != "scene.h5" {
		t.Errorf("output names = %q, %q", filepath.Base(recordPath), filepath.Base(columnarPath))
	}
	if s.Dirty() {
		t.Error("Dirty() = true after save")
	}
	if saved == nil || saved.Boxes != 1 {
		t.Errorf("AnnotationsSaved = %+v, want 1 box", saved)
	}
}

func TestPendingBoxNotSavedOrListed(t *testing.T) {
	s, _, dir := newTestSession(t)
	openScene(t, s, dir)

	labeledBox(t, s, annotation.Rect{X: 10, Y: 10, Width: 50, Height: 50}, 1)
	if _, err := s.CreateBox(annotation.Rect{X: 100, Y: 100, Width: 50, Height: 50}); err != nil {
		t.Fatal(err)
	}

	if got := len(s.BoxEntries()); got != 1 {
		t.Errorf("BoxEntries() = %d entries, want 1 (pending box excluded)", got)
	}
}

// A box-scoped subscription tracks the lifecycle of one box the way
// the pending-box view does: it sees that box being labeled or deleted
// and nothing else.
func TestBoxScopedSubscription(t *testing.T) {
	s, bus, dir := newTestSession(t)
	openScene(t, s, dir)

	id, err := s.CreateBox(annotation.Rect{X: 10, Y: 10, Width: 40, Height: 40})
	if err != nil {
		t.Fatal(err)
	}

	var got []string
	sub := bus.SubscribeBox(int(id), func(e event.Event) {
		got = append(got, e.EventName())
	})
	defer bus.Unsubscribe(sub)

	labeledBox(t, s, annotation.Rect{X: 100, Y: 100, Width: 40, Height: 40}, 2) // other box
	if err := s.LabelBox(id, 1); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteBox(id); err != nil {
		t.Fatal(err)
	}

	want := []string{"BoxLabeled", "BoxDeleted"}
	if len(got) != len(want) {
		t.Fatalf("delivered events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %q, want %q", i, got[i], want[i])
		}
	}
}
