package annotation

import "testing"

func TestRectFromCorners(t *testing.T) {
	tests := []struct {
		name           string
		x1, y1, x2, y2 int
		want           Rect
	}{
		{"top-left to bottom-right", 10, 20, 110, 220, Rect{10, 20, 100, 200}},
		{"bottom-right to top-left", 110, 220, 10, 20, Rect{10, 20, 100, 200}},
		{"mixed corners", 110, 20, 10, 220, Rect{10, 20, 100, 200}},
		{"degenerate", 5, 5, 5, 5, Rect{5, 5, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RectFromCorners(tt.x1, tt.y1, tt.x2, tt.y2); got != tt.want {
				t.Errorf("RectFromCorners() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRect_Contains(t *testing.T) {
	r := Rect{10, 10, 100, 100}

	if !r.Contains(10, 10) || !r.Contains(110, 110) || !r.Contains(50, 50) {
		t.Error("points on the boundary and inside should be contained")
	}
	if r.Contains(9, 50) || r.Contains(50, 111) {
		t.Error("points outside should not be contained")
	}
}

func TestRect_Centers(t *testing.T) {
	r := Rect{10, 20, 101, 41}
	if got := r.CenterX(); got != 60.5 {
		t.Errorf("CenterX() = %v, want 60.5", got)
	}
	if got := r.CenterY(); got != 40.5 {
		t.Errorf("CenterY() = %v, want 40.5", got)
	}
}

func TestImageMeta_LongestSide(t *testing.T) {
	if got := (ImageMeta{Width: 350, Height: 466}).LongestSide(); got != 466 {
		t.Errorf("LongestSide() = %d, want 466", got)
	}
	if got := (ImageMeta{Width: 800, Height: 600}).LongestSide(); got != 800 {
		t.Errorf("LongestSide() = %d, want 800", got)
	}
}
