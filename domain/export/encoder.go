// Package export converts a committed annotation snapshot into the two
// on-disk representations: the structured per-image record and the
// columnar int32 arrays. Encoding is pure and total given a consistent
// snapshot; any inconsistency is an internal defect, not a user error.
package export

import (
	"fmt"
	"math"

	"sgdet-annotate/domain/annotation"
)

// Scaled geometry targets: the image's longest side is scaled to these
// sizes, preserving aspect ratio, before box coordinates are emitted.
const (
	ScaleLarge = 1024
	ScaleSmall = 512
)

// AttributeSlots is the fixed width of an exported attribute row.
// Unused slots are padded with 0, which is why attribute IDs are
// 1-based.
const AttributeSlots = annotation.MaxAttributes

// Record is the structured per-image export, one object per annotated
// image. Field names and order follow the established output contract.
type Record struct {
	ImageName     string    `json:"image-name"`
	Width         int       `json:"width"`
	Height        int       `json:"height"`
	Attribute     [][]int32 `json:"attribute"`
	Boxes1024     [][]int32 `json:"boxes_1024"`
	Boxes512      [][]int32 `json:"boxes_512"`
	Labels        []int32   `json:"labels"`
	Relationships [][]int32 `json:"relationships"`
	Predicates    []int32   `json:"predicates"`
}

// Columnar carries the same six array fields flattened row-major for
// fixed-width int32 datasets, plus the scalar file metadata.
type Columnar struct {
	ImageName string
	Width     int32
	Height    int32

	// NumBoxes and NumRelationships are the dataset row counts.
	NumBoxes         int
	NumRelationships int

	Attribute     []int32 // NumBoxes x AttributeSlots
	Boxes1024     []int32 // NumBoxes x 4
	Boxes512      []int32 // NumBoxes x 4
	Labels        []int32 // NumBoxes
	Relationships []int32 // NumRelationships x 2
	Predicates    []int32 // NumRelationships
}

// Encode assigns each box a dense 0-based export index in snapshot
// order and produces both output forms over that shared index space:
// labels[i], attribute[i], boxes_1024[i], and boxes_512[i] all
// describe the same object i.
func Encode(snap annotation.Snapshot, meta annotation.ImageMeta) (*Record, *Columnar, error) {
	n := len(snap.Boxes)
	m := len(snap.Relationships)

	rec := &Record{
		ImageName:     meta.Path,
		Width:         meta.Width,
		Height:        meta.Height,
		Attribute:     make([][]int32, 0, n),
		Boxes1024:     make([][]int32, 0, n),
		Boxes512:      make([][]int32, 0, n),
		Labels:        make([]int32, 0, n),
		Relationships: make([][]int32, 0, m),
		Predicates:    make([]int32, 0, m),
	}
	col := &Columnar{
		ImageName:        meta.Path,
		Width:            int32(meta.Width),
		Height:           int32(meta.Height),
		NumBoxes:         n,
		NumRelationships: m,
		Attribute:        make([]int32, 0, n*AttributeSlots),
		Boxes1024:        make([]int32, 0, n*4),
		Boxes512:         make([]int32, 0, n*4),
		Labels:           make([]int32, 0, n),
		Relationships:    make([]int32, 0, m*2),
		Predicates:       make([]int32, 0, m),
	}

	longest := meta.LongestSide()
	index := make(map[annotation.BoxID]int32, n)

	for i, box := range snap.Boxes {
		index[box.ID] = int32(i)

		attrs := attributeRow(box.Attributes)
		large := scaleBox(box.Geometry, float64(ScaleLarge)/float64(longest))
		small := scaleBox(box.Geometry, float64(ScaleSmall)/float64(longest))

		rec.Attribute = append(rec.Attribute, attrs)
		rec.Boxes1024 = append(rec.Boxes1024, large)
		rec.Boxes512 = append(rec.Boxes512, small)
		rec.Labels = append(rec.Labels, int32(box.LabelID))

		col.Attribute = append(col.Attribute, attrs...)
		col.Boxes1024 = append(col.Boxes1024, large...)
		col.Boxes512 = append(col.Boxes512, small...)
		col.Labels = append(col.Labels, int32(box.LabelID))
	}

	for _, rel := range snap.Relationships {
		src, ok := index[rel.SourceID]
		if !ok {
			return nil, nil, fmt.Errorf("%w: relationship %d references box %d outside the snapshot",
				annotation.ErrIntegrity, rel.ID, rel.SourceID)
		}
		tgt, ok := index[rel.TargetID]
		if !ok {
			return nil, nil, fmt.Errorf("%w: relationship %d references box %d outside the snapshot",
				annotation.ErrIntegrity, rel.ID, rel.TargetID)
		}

		rec.Relationships = append(rec.Relationships, []int32{src, tgt})
		rec.Predicates = append(rec.Predicates, int32(rel.PredicateID))
		col.Relationships = append(col.Relationships, src, tgt)
		col.Predicates = append(col.Predicates, int32(rel.PredicateID))
	}

	return rec, col, nil
}

// attributeRow pads the assigned attribute IDs with zeros to the fixed
// export width.
func attributeRow(attrs []int) []int32 {
	row := make([]int32, AttributeSlots)
	for i, a := range attrs {
		row[i] = int32(a)
	}
	return row
}

// scaleBox converts a rectangle to [x_center, y_center, width, height]
// under a uniform scale factor, rounding to the nearest integer.
func scaleBox(r annotation.Rect, factor float64) []int32 {
	return []int32{
		int32(math.Round(r.CenterX() * factor)),
		int32(math.Round(r.CenterY() * factor)),
		int32(math.Round(float64(r.Width) * factor)),
		int32(math.Round(float64(r.Height) * factor)),
	}
}
