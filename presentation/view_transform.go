package presentation

import (
	"fyne.io/fyne/v2"

	"sgdet-annotate/domain/annotation"
)

// viewTransform maps between original image pixels and display
// coordinates. The image is scaled to fit the viewport preserving
// aspect ratio and centered, so the transform is a uniform scale plus
// an offset.
type viewTransform struct {
	scale   float64
	offsetX float32
	offsetY float32
}

// newViewTransform computes the fit-and-center transform for an image
// of the given pixel size inside the given viewport. A zero viewport
// or image yields the identity transform.
func newViewTransform(imgW, imgH int, viewport fyne.Size) viewTransform {
	if imgW <= 0 || imgH <= 0 || viewport.Width <= 0 || viewport.Height <= 0 {
		return viewTransform{scale: 1}
	}
	scale := float64(viewport.Width) / float64(imgW)
	if s := float64(viewport.Height) / float64(imgH); s < scale {
		scale = s
	}
	dispW := float32(float64(imgW) * scale)
	dispH := float32(float64(imgH) * scale)
	return viewTransform{
		scale:   scale,
		offsetX: (viewport.Width - dispW) / 2,
		offsetY: (viewport.Height - dispH) / 2,
	}
}

// toDisplay converts an image-space point to display coordinates.
func (t viewTransform) toDisplay(x, y float64) fyne.Position {
	return fyne.NewPos(
		float32(x*t.scale)+t.offsetX,
		float32(y*t.scale)+t.offsetY,
	)
}

// toImage converts a display point to image-space coordinates.
func (t viewTransform) toImage(p fyne.Position) (float64, float64) {
	return float64(p.X-t.offsetX) / t.scale,
		float64(p.Y-t.offsetY) / t.scale
}

// rectToDisplay converts image-space geometry to a display position
// and size.
func (t viewTransform) rectToDisplay(r annotation.Rect) (fyne.Position, fyne.Size) {
	pos := t.toDisplay(float64(r.X), float64(r.Y))
	return pos, fyne.NewSize(
		float32(float64(r.Width)*t.scale),
		float32(float64(r.Height)*t.scale),
	)
}

// displaySize returns the on-screen size of the whole image.
func (t viewTransform) displaySize(imgW, imgH int) fyne.Size {
	return fyne.NewSize(
		float32(float64(imgW)*t.scale),
		float32(float64(imgH)*t.scale),
	)
}

// clampToImage restricts an image-space point to the image bounds.
func clampToImage(x, y float64, imgW, imgH int) (float64, float64) {
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	if x > float64(imgW) {
		x = float64(imgW)
	}
	if y > float64(imgH) {
		y = float64(imgH)
	}
	return x, y
}

// rectFromImagePoints builds integer geometry from two image-space
// corner points, normalizing their order.
func rectFromImagePoints(x1, y1, x2, y2 float64, imgW, imgH int) annotation.Rect {
	x1, y1 = clampToImage(x1, y1, imgW, imgH)
	x2, y2 = clampToImage(x2, y2, imgW, imgH)
	r := annotation.RectFromCorners(int(x1+0.5), int(y1+0.5), int(x2+0.5), int(y2+0.5))
	// Shrink onto the image if rounding pushed an edge past it.
	if r.X+r.Width > imgW {
		r.Width = imgW - r.X
	}
	if r.Y+r.Height > imgH {
		r.Height = imgH - r.Y
	}
	return r
}
