package export

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"sgdet-annotate/domain/annotation"
)

type rangeVocab int

func (v rangeVocab) Contains(id int) bool {
	return id >= 1 && id <= int(v)
}

func buildModel(t *testing.T, meta annotation.ImageMeta) *annotation.Model {
	t.Helper()
	return annotation.NewModel(annotation.Config{
		Image:      meta,
		Labels:     rangeVocab(50),
		Attributes: rangeVocab(50),
		Predicates: rangeVocab(50),
	})
}

func labelBox(t *testing.T, m *annotation.Model, geom annotation.Rect, label int) annotation.BoxID {
	t.Helper()
	id, err := m.CreateBox(geom)
	if err != nil {
		t.Fatalf("CreateBox error: %v", err)
	}
	if err := m.LabelBox(id, label); err != nil {
		t.Fatalf("LabelBox error: %v", err)
	}
	return id
}

func TestEncode_Shapes(t *testing.T) {
	meta := annotation.ImageMeta{Path: "/data/bedroom.jpg", Width: 350, Height: 466}
	m := buildModel(t, meta)

	a := labelBox(t, m, annotation.Rect{X: 10, Y: 10, Width: 100, Height: 100}, 1)
	b := labelBox(t, m, annotation.Rect{X: 50, Y: 50, Width: 80, Height: 80}, 1)
	c := labelBox(t, m, annotation.Rect{X: 200, Y: 200, Width: 40, Height: 60}, 3)
	m.AddRelationship(a, 5, b)
	m.AddRelationship(c, 2, a)

	rec, col, err := Encode(m.Snapshot(), meta)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}

	const n, mm = 3, 2
	if len(rec.Labels) != n || len(rec.Attribute) != n || len(rec.Boxes1024) != n || len(rec.Boxes512) != n {
		t.Errorf("per-box arrays have lengths %d/%d/%d/%d, want %d",
			len(rec.Labels), len(rec.Attribute), len(rec.Boxes1024), len(rec.Boxes512), n)
	}
	if len(rec.Relationships) != mm || len(rec.Predicates) != mm {
		t.Errorf("relationship arrays have lengths %d/%d, want %d",
			len(rec.Relationships), len(rec.Predicates), mm)
	}
	for i, pair := range rec.Relationships {
		if len(pair) != 2 {
			t.Fatalf("relationship %d has %d entries", i, len(pair))
		}
		for _, idx := range pair {
			if idx < 0 || idx >= n {
				t.Errorf("relationship %d index %d out of [0, %d)", i, idx, n)
			}
		}
	}

	// Export indices follow creation order: a=0, b=1, c=2.
	if rec.Relationships[0][0] != 0 || rec.Relationships[0][1] != 1 {
		t.Errorf("first edge = %v, want [0 1]", rec.Relationships[0])
	}
	if rec.Relationships[1][0] != 2 || rec.Relationships[1][1] != 0 {
		t.Errorf("second edge = %v, want [2 0]", rec.Relationships[1])
	}
	if rec.Predicates[0] != 5 || rec.Predicates[1] != 2 {
		t.Errorf("predicates = %v, want [5 2]", rec.Predicates)
	}

	// Columnar carries the same data flattened row-major.
	if col.NumBoxes != n || col.NumRelationships != mm {
		t.Errorf("columnar counts = %d/%d, want %d/%d", col.NumBoxes, col.NumRelationships, n, mm)
	}
	if len(col.Attribute) != n*AttributeSlots || len(col.Boxes1024) != n*4 || len(col.Relationships) != mm*2 {
		t.Errorf("columnar lengths = %d/%d/%d", len(col.Attribute), len(col.Boxes1024), len(col.Relationships))
	}
	for i := range rec.Labels {
		if col.Labels[i] != rec.Labels[i] {
			t.Errorf("labels diverge at %d: %d vs %d", i, col.Labels[i], rec.Labels[i])
		}
		for j := 0; j < 4; j++ {
			if col.Boxes512[i*4+j] != rec.Boxes512[i][j] {
				t.Errorf("boxes_512 diverge at [%d][%d]", i, j)
			}
		}
	}
	if col.Width != 350 || col.Height != 466 || col.ImageName != meta.Path {
		t.Errorf("columnar metadata = %q %dx%d", col.ImageName, col.Width, col.Height)
	}
}

func TestEncode_AttributePadding(t *testing.T) {
	meta := annotation.ImageMeta{Path: "img.png", Width: 350, Height: 466}
	m := buildModel(t, meta)
	id := labelBox(t, m, annotation.Rect{X: 10, Y: 10, Width: 100, Height: 100}, 1)
	for _, a := range []int{3, 2, 15} {
		if err := m.AddAttribute(id, a); err != nil {
			t.Fatalf("AddAttribute(%d) error: %v", a, err)
		}
	}

	rec, _, err := Encode(m.Snapshot(), meta)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}

	want := []int32{3, 2, 15, 0, 0, 0, 0, 0, 0, 0}
	got := rec.Attribute[0]
	if len(got) != len(want) {
		t.Fatalf("attribute row length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("attribute row = %v, want %v", got, want)
			break
		}
	}
}

func TestEncode_Scaling(t *testing.T) {
	// 350x466 portrait image: longest side 466 scales to 1024 and 512.
	meta := annotation.ImageMeta{Path: "img.png", Width: 350, Height: 466}
	m := buildModel(t, meta)
	labelBox(t, m, annotation.Rect{X: 10, Y: 10, Width: 100, Height: 100}, 1)

	rec, _, err := Encode(m.Snapshot(), meta)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}

	// factor = 1024/466; center (60, 60), size 100x100, rounded nearest.
	want1024 := []int32{132, 132, 220, 220}
	want512 := []int32{66, 66, 110, 110}
	for i := range want1024 {
		if rec.Boxes1024[0][i] != want1024[i] {
			t.Errorf("boxes_1024 = %v, want %v", rec.Boxes1024[0], want1024)
			break
		}
	}
	for i := range want512 {
		if rec.Boxes512[0][i] != want512[i] {
			t.Errorf("boxes_512 = %v, want %v", rec.Boxes512[0], want512)
			break
		}
	}

	if rec.Width != 350 || rec.Height != 466 {
		t.Errorf("record keeps unscaled dimensions, got %dx%d", rec.Width, rec.Height)
	}
}

func TestEncode_EmptySnapshotJSON(t *testing.T) {
	meta := annotation.ImageMeta{Path: "img.png", Width: 100, Height: 100}
	m := buildModel(t, meta)

	rec, col, err := Encode(m.Snapshot(), meta)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	if col.NumBoxes != 0 || col.NumRelationships != 0 {
		t.Errorf("columnar counts = %d/%d, want 0/0", col.NumBoxes, col.NumRelationships)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	s := string(data)
	if strings.Contains(s, "null") {
		t.Errorf("empty arrays must encode as [], got %s", s)
	}
	// Field order is part of the output contract.
	if !strings.HasPrefix(s, `{"image-name":"img.png","width":100,"height":100,"attribute":[]`) {
		t.Errorf("unexpected field layout: %s", s)
	}
}

func TestEncode_DanglingRelationshipIsIntegrityError(t *testing.T) {
	meta := annotation.ImageMeta{Path: "img.png", Width: 100, Height: 100}
	snap := annotation.Snapshot{
		Boxes: []annotation.Box{},
		Relationships: []annotation.Relationship{
			{ID: 1, SourceID: 7, TargetID: 8, PredicateID: 1},
		},
	}

	_, _, err := Encode(snap, meta)
	if !errors.Is(err, annotation.ErrIntegrity) {
		t.Errorf("Encode with dangling edge = %v, want ErrIntegrity", err)
	}
}
