package presentation

import (
	"image"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"sgdet-annotate/domain/annotation"
)

// minDrawSize is the smallest box edge, in display pixels, that a drag
// must cover to produce a box. Smaller drags are discarded.
const minDrawSize float32 = 10

// minResizeSize is the smallest box edge, in display pixels, that a
// handle drag may shrink a box to.
const minResizeSize float32 = 5

// handleRadius is the hit radius around a resize handle, in display
// pixels.
const handleRadius float32 = 8

var (
	colorBox      = color.NRGBA{R: 220, A: 255}
	colorSelected = color.NRGBA{B: 220, A: 255}
	colorPending  = color.NRGBA{R: 220, G: 120, A: 255}
	colorLabel    = color.NRGBA{R: 255, G: 255, A: 255}
	colorHandle   = color.NRGBA{B: 220, A: 255}
)

// BoxDisplay is one box as the canvas renders it.
type BoxDisplay struct {
	ID       annotation.BoxID
	Label    string
	Geometry annotation.Rect
	Selected bool
	Pending  bool
}

// AnnotationCanvas displays the open image with box overlays and turns
// pointer gestures into annotation intents: drawing a new box, tapping
// a box, and resizing the selected box by its corner and edge handles.
type AnnotationCanvas struct {
	widget.BaseWidget

	base   *canvas.Image
	rubber *canvas.Rectangle
	root   *fyne.Container

	imgW, imgH int
	transform  viewTransform
	boxes      []BoxDisplay
	drawMode   bool

	onBoxDrawn    func(annotation.Rect)
	onBoxResized  func(annotation.BoxID, annotation.Rect)
	onTapped      func(id annotation.BoxID)
	onRightTapped func(id annotation.BoxID, abs fyne.Position)

	drag *canvasDrag
}

type canvasDrag struct {
	resizing bool
	box      annotation.BoxID
	handle   string
	orig     annotation.Rect
	from     fyne.Position
	to       fyne.Position
}

// NewAnnotationCanvas creates an empty annotation canvas.
func NewAnnotationCanvas() *AnnotationCanvas {
	c := &AnnotationCanvas{
		base:      canvas.NewImageFromImage(nil),
		rubber:    canvas.NewRectangle(color.Transparent),
		transform: viewTransform{scale: 1},
	}
	c.base.FillMode = canvas.ImageFillStretch
	c.rubber.StrokeColor = colorPending
	c.rubber.StrokeWidth = 2
	c.rubber.FillColor = color.Transparent
	c.rubber.Hide()
	c.root = container.NewWithoutLayout(c.base, c.rubber)
	c.ExtendBaseWidget(c)
	return c
}

// SetOnBoxDrawn sets the handler for a completed draw gesture. The
// rectangle is in image pixels, clamped to the image.
func (c *AnnotationCanvas) SetOnBoxDrawn(fn func(annotation.Rect)) { c.onBoxDrawn = fn }

// SetOnBoxResized sets the handler for a completed handle drag.
func (c *AnnotationCanvas) SetOnBoxResized(fn func(annotation.BoxID, annotation.Rect)) {
	c.onBoxResized = fn
}

// SetOnTapped sets the primary tap handler. The ID is 0 when the tap
// hit no box.
func (c *AnnotationCanvas) SetOnTapped(fn func(id annotation.BoxID)) { c.onTapped = fn }

// SetOnRightTapped sets the secondary tap handler for context menus.
func (c *AnnotationCanvas) SetOnRightTapped(fn func(id annotation.BoxID, abs fyne.Position)) {
	c.onRightTapped = fn
}

// SetImage replaces the displayed image. Pass nil to clear.
func (c *AnnotationCanvas) SetImage(img image.Image, w, h int) {
	c.base.Image = img
	c.imgW, c.imgH = w, h
	c.boxes = nil
	c.drag = nil
	c.relayout()
}

// SetBoxes replaces the rendered box overlays.
func (c *AnnotationCanvas) SetBoxes(boxes []BoxDisplay) {
	c.boxes = boxes
	c.relayout()
}

// SetDrawMode arms or disarms box drawing.
func (c *AnnotationCanvas) SetDrawMode(active bool) {
	c.drawMode = active
	if !active {
		c.drag = nil
		c.rubber.Hide()
	}
}

// DrawMode reports whether box drawing is armed.
func (c *AnnotationCanvas) DrawMode() bool { return c.drawMode }

// CreateRenderer creates the widget renderer.
func (c *AnnotationCanvas) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(c.root)
}

// MinSize keeps the canvas usable even before an image is open.
func (c *AnnotationCanvas) MinSize() fyne.Size {
	return fyne.NewSize(480, 360)
}

// Resize recomputes the view transform for the new viewport.
func (c *AnnotationCanvas) Resize(size fyne.Size) {
	c.BaseWidget.Resize(size)
	c.relayout()
}

// relayout rebuilds the overlay objects for the current transform.
// Must run on the UI thread.
func (c *AnnotationCanvas) relayout() {
	c.transform = newViewTransform(c.imgW, c.imgH, c.Size())

	objects := []fyne.CanvasObject{c.base}
	if c.base.Image != nil {
		c.base.Move(c.transform.toDisplay(0, 0))
		c.base.Resize(c.transform.displaySize(c.imgW, c.imgH))
		c.base.Show()
	} else {
		c.base.Hide()
	}

	for _, box := range c.boxes {
		pos, size := c.transform.rectToDisplay(box.Geometry)

		rect := canvas.NewRectangle(color.Transparent)
		rect.StrokeWidth = 3
		switch {
		case box.Pending:
			rect.StrokeColor = colorPending
		case box.Selected:
			rect.StrokeColor = colorSelected
		default:
			rect.StrokeColor = colorBox
		}
		rect.Move(pos)
		rect.Resize(size)
		objects = append(objects, rect)

		if box.Label != "" {
			text := canvas.NewText(box.Label, colorLabel)
			text.TextStyle = fyne.TextStyle{Bold: true}
			text.Move(fyne.NewPos(pos.X+size.Width/2-text.MinSize().Width/2, pos.Y-text.MinSize().Height-2))
			objects = append(objects, text)
		}

		if box.Selected || box.Pending {
			for _, hp := range handlePositions(pos, size) {
				dot := canvas.NewCircle(colorHandle)
				dot.Move(fyne.NewPos(hp.pos.X-4, hp.pos.Y-4))
				dot.Resize(fyne.NewSize(8, 8))
				objects = append(objects, dot)
			}
		}
	}

	objects = append(objects, c.rubber)
	c.root.Objects = objects
	c.root.Refresh()
}

type handlePoint struct {
	key string
	pos fyne.Position
}

// handlePositions returns the eight resize handles of a display rect:
// four corners and four edge midpoints.
func handlePositions(pos fyne.Position, size fyne.Size) []handlePoint {
	x1, y1 := pos.X, pos.Y
	x2, y2 := pos.X+size.Width, pos.Y+size.Height
	mx, my := (x1+x2)/2, (y1+y2)/2
	return []handlePoint{
		{"tl", fyne.NewPos(x1, y1)},
		{"tr", fyne.NewPos(x2, y1)},
		{"bl", fyne.NewPos(x1, y2)},
		{"br", fyne.NewPos(x2, y2)},
		{"tm", fyne.NewPos(mx, y1)},
		{"bm", fyne.NewPos(mx, y2)},
		{"ml", fyne.NewPos(x1, my)},
		{"mr", fyne.NewPos(x2, my)},
	}
}

// Tapped selects the smallest box under the pointer, or clears the
// selection when the tap hits background.
func (c *AnnotationCanvas) Tapped(e *fyne.PointEvent) {
	if c.drawMode || c.onTapped == nil || c.base.Image == nil {
		return
	}
	x, y := c.transform.toImage(e.Position)
	c.onTapped(smallestBoxAt(c.boxes, x, y))
}

// TappedSecondary opens the context menu for the box under the pointer.
func (c *AnnotationCanvas) TappedSecondary(e *fyne.PointEvent) {
	if c.onRightTapped == nil || c.base.Image == nil {
		return
	}
	x, y := c.transform.toImage(e.Position)
	if id := smallestBoxAt(c.boxes, x, y); id != 0 {
		c.onRightTapped(id, e.AbsolutePosition)
	}
}

// Dragged draws a new box in draw mode, or resizes the selected box
// when the drag starts on one of its handles.
func (c *AnnotationCanvas) Dragged(e *fyne.DragEvent) {
	if c.base.Image == nil {
		return
	}

	if c.drag == nil {
		from := fyne.NewPos(e.Position.X-e.Dragged.DX, e.Position.Y-e.Dragged.DY)
		c.drag = c.startDrag(from)
		if c.drag == nil {
			return
		}
	}
	c.drag.to = e.Position
	c.updateRubber()
}

func (c *AnnotationCanvas) startDrag(from fyne.Position) *canvasDrag {
	// Handle drags take priority so the pending box stays adjustable
	// while draw mode is armed.
	for _, box := range c.boxes {
		if !box.Selected && !box.Pending {
			continue
		}
		pos, size := c.transform.rectToDisplay(box.Geometry)
		for _, hp := range handlePositions(pos, size) {
			dx, dy := from.X-hp.pos.X, from.Y-hp.pos.Y
			if dx*dx+dy*dy <= handleRadius*handleRadius {
				return &canvasDrag{
					resizing: true,
					box:      box.ID,
					handle:   hp.key,
					orig:     box.Geometry,
					from:     from,
					to:       from,
				}
			}
		}
	}
	if c.drawMode && c.insideImage(from) {
		return &canvasDrag{from: from, to: from}
	}
	return nil
}

// DragEnd commits the gesture: a draw becomes a new box unless it is
// below the minimum size, a handle drag becomes a resize.
func (c *AnnotationCanvas) DragEnd() {
	drag := c.drag
	c.drag = nil
	c.rubber.Hide()
	if drag == nil {
		return
	}

	if drag.resizing {
		geom := c.resizedGeometry(drag)
		if c.onBoxResized != nil && geom != drag.orig {
			c.onBoxResized(drag.box, geom)
		}
		return
	}

	from := c.clampToDisplay(drag.from)
	to := c.clampToDisplay(drag.to)
	if abs32(to.X-from.X) < minDrawSize || abs32(to.Y-from.Y) < minDrawSize {
		return
	}
	x1, y1 := c.transform.toImage(from)
	x2, y2 := c.transform.toImage(to)
	if c.onBoxDrawn != nil {
		c.onBoxDrawn(rectFromImagePoints(x1, y1, x2, y2, c.imgW, c.imgH))
	}
}

// resizedGeometry applies a handle drag to the original geometry in
// image space, enforcing the minimum size and the image bounds.
func (c *AnnotationCanvas) resizedGeometry(drag *canvasDrag) annotation.Rect {
	to := c.clampToDisplay(drag.to)
	ix, iy := c.transform.toImage(to)

	x1 := float64(drag.orig.X)
	y1 := float64(drag.orig.Y)
	x2 := float64(drag.orig.X + drag.orig.Width)
	y2 := float64(drag.orig.Y + drag.orig.Height)

	switch drag.handle {
	case "tl":
		x1, y1 = ix, iy
	case "tr":
		x2, y1 = ix, iy
	case "bl":
		x1, y2 = ix, iy
	case "br":
		x2, y2 = ix, iy
	case "tm":
		y1 = iy
	case "bm":
		y2 = iy
	case "ml":
		x1 = ix
	case "mr":
		x2 = ix
	}

	minEdge := float64(minResizeSize) / c.transform.scale
	if x2-x1 < minEdge {
		if drag.handle == "tl" || drag.handle == "ml" || drag.handle == "bl" {
			x1 = x2 - minEdge
		} else {
			x2 = x1 + minEdge
		}
	}
	if y2-y1 < minEdge {
		if drag.handle == "tl" || drag.handle == "tm" || drag.handle == "tr" {
			y1 = y2 - minEdge
		} else {
			y2 = y1 + minEdge
		}
	}
	return rectFromImagePoints(x1, y1, x2, y2, c.imgW, c.imgH)
}

func (c *AnnotationCanvas) updateRubber() {
	var pos fyne.Position
	var size fyne.Size

	if c.drag.resizing {
		geom := c.resizedGeometry(c.drag)
		pos, size = c.transform.rectToDisplay(geom)
	} else {
		from := c.clampToDisplay(c.drag.from)
		to := c.clampToDisplay(c.drag.to)
		pos = fyne.NewPos(min32(from.X, to.X), min32(from.Y, to.Y))
		size = fyne.NewSize(abs32(to.X-from.X), abs32(to.Y-from.Y))
	}

	c.rubber.Move(pos)
	c.rubber.Resize(size)
	c.rubber.Show()
	c.rubber.Refresh()
}

// insideImage reports whether a display point lies on the image.
func (c *AnnotationCanvas) insideImage(p fyne.Position) bool {
	x, y := c.transform.toImage(p)
	return x >= 0 && y >= 0 && x <= float64(c.imgW) && y <= float64(c.imgH)
}

// clampToDisplay restricts a display point to the displayed image area.
func (c *AnnotationCanvas) clampToDisplay(p fyne.Position) fyne.Position {
	x, y := c.transform.toImage(p)
	x, y = clampToImage(x, y, c.imgW, c.imgH)
	return c.transform.toDisplay(x, y)
}

// smallestBoxAt returns the non-pending box with the smallest area
// containing the image-space point, or 0.
func smallestBoxAt(boxes []BoxDisplay, x, y float64) annotation.BoxID {
	var best annotation.BoxID
	bestArea := -1
	for _, box := range boxes {
		if box.Pending {
			continue
		}
		g := box.Geometry
		if x < float64(g.X) || y < float64(g.Y) ||
			x > float64(g.X+g.Width) || y > float64(g.Y+g.Height) {
			continue
		}
		if area := g.Area(); bestArea < 0 || area < bestArea {
			bestArea = area
			best = box.ID
		}
	}
	return best
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}
