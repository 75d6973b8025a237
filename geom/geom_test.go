package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	r := Rect{X0: 100, Y0: 200, X1: 10, Y1: 20}.Normalize()
	assert.Equal(t, Rect{X0: 10, Y0: 20, X1: 100, Y1: 200}, r)

	// already normalized rects are unchanged
	assert.Equal(t, r, r.Normalize())
}

func TestIntersects(t *testing.T) {
	base := Rect{X0: 10, Y0: 10, X1: 20, Y1: 20}

	tests := []struct {
		name string
		r    Rect
		want bool
	}{
		{"overlapping", Rect{X0: 15, Y0: 15, X1: 25, Y1: 25}, true},
		{"contained", Rect{X0: 12, Y0: 12, X1: 18, Y1: 18}, true},
		{"disjoint", Rect{X0: 30, Y0: 30, X1: 40, Y1: 40}, false},
		{"touching edge", Rect{X0: 20, Y0: 10, X1: 30, Y1: 20}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base.Intersects(tt.r); got != tt.want {
				t.Errorf("Intersects(%v) = %v, want %v", tt.r, got, tt.want)
			}
		})
	}
}

func TestUnion(t *testing.T) {
	a := Rect{X0: 0, Y0: 0, X1: 10, Y1: 10}
	b := Rect{X0: 5, Y0: 5, X1: 20, Y1: 30}
	assert.Equal(t, Rect{X0: 0, Y0: 0, X1: 20, Y1: 30}, a.Union(b))
	assert.Equal(t, a.Union(b), b.Union(a))
}

func TestMapperRoundTrip(t *testing.T) {
	// 150 DPI render of a US letter page, displayed at 80% zoom.
	m := NewMapper(792, 150, 0.8)

	tests := []struct {
		px, py float64
	}{
		{0, 0},
		{100, 250},
		{612 * m.Scale, 792 * m.Scale}, // bottom-right corner
		{33.7, 812.9},
	}
	for _, tt := range tests {
		pt := m.ToPoint(tt.px, tt.py)
		gx, gy := m.ToPixel(pt)
		if math.Abs(gx-tt.px) > 1e-6 || math.Abs(gy-tt.py) > 1e-6 {
			t.Errorf("round trip (%v,%v) -> %v -> (%v,%v)", tt.px, tt.py, pt, gx, gy)
		}
	}
}

func TestMapperFlipsY(t *testing.T) {
	m := NewMapper(792, 72, 1) // scale 1, pure axis flip

	// top-left pixel is the top-left of the page in point space
	pt := m.ToPoint(0, 0)
	assert.Equal(t, Point{X: 0, Y: 792}, pt)

	// a drag from the image top maps to the high-Y end of the page
	r := m.RectToPoints(10, 10, 110, 60)
	assert.Equal(t, Rect{X0: 10, Y0: 732, X1: 110, Y1: 782}, r)

	px0, py0, px1, py1 := m.RectToPixels(r)
	assert.InDelta(t, 10, px0, 1e-9)
	assert.InDelta(t, 10, py0, 1e-9)
	assert.InDelta(t, 110, px1, 1e-9)
	assert.InDelta(t, 60, py1, 1e-9)
}

func TestMapperZeroScale(t *testing.T) {
	var m Mapper
	assert.Equal(t, Point{}, m.ToPoint(50, 50))
}
