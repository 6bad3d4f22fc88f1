package annotation

import "fmt"

// Rect is an axis-aligned rectangle in original image pixel space.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// RectFromCorners builds a normalized Rect from two opposite corners
// in any order, as produced by a drag gesture.
func RectFromCorners(x1, y1, x2, y2 int) Rect {
	if x2 < x1 {
		x1, x2 = x2, x1
	}
	if y2 < y1 {
		y1, y2 = y2, y1
	}
	return Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", r.X, r.Y, r.Width, r.Height)
}

// Area returns the rectangle area in square pixels.
func (r Rect) Area() int {
	return r.Width * r.Height
}

// Contains reports whether the point (x, y) lies inside the rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height
}

// CenterX returns the horizontal center as a float for scaling.
func (r Rect) CenterX() float64 {
	return float64(r.X) + float64(r.Width)/2
}

// CenterY returns the vertical center as a float for scaling.
func (r Rect) CenterY() float64 {
	return float64(r.Y) + float64(r.Height)/2
}

// validate checks that the rectangle has nonzero area and lies fully
// within a width x height image.
func (r Rect) validate(width, height int) error {
	if r.Width <= 0 || r.Height <= 0 ||
		r.X < 0 || r.Y < 0 ||
		r.X+r.Width > width || r.Y+r.Height > height {
		return &GeometryError{Geometry: r, Width: width, Height: height}
	}
	return nil
}

// ImageMeta describes the currently open image.
type ImageMeta struct {
	// Path is the source file path, persisted verbatim as "image-name".
	Path string

	// Width and Height are the unscaled source dimensions in pixels.
	Width  int
	Height int
}

// LongestSide returns the larger of width and height.
func (m ImageMeta) LongestSide() int {
	if m.Width > m.Height {
		return m.Width
	}
	return m.Height
}
