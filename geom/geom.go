// Package geom holds the small amount of geometry the redactor needs:
// axis-aligned rectangles in PDF point space and the linear mapping
// between rendered device pixels and document points.
package geom

import "fmt"

// Point is a position in PDF user space (points, 1/72 inch).
type Point struct {
	X float64
	Y float64
}

// Rect is an axis-aligned rectangle in PDF points.
// X0,Y0 is one corner and X1,Y1 the opposite one; call Normalize
// before relying on corner ordering.
type Rect struct {
	X0, Y0, X1, Y1 float64
}

// Normalize returns the rectangle with X0<=X1 and Y0<=Y1.
func (r Rect) Normalize() Rect {
	if r.X0 > r.X1 {
		r.X0, r.X1 = r.X1, r.X0
	}
	if r.Y0 > r.Y1 {
		r.Y0, r.Y1 = r.Y1, r.Y0
	}
	return r
}

func (r Rect) Width() float64  { return r.X1 - r.X0 }
func (r Rect) Height() float64 { return r.Y1 - r.Y0 }
func (r Rect) Area() float64   { return r.Width() * r.Height() }

// Contains reports whether p lies inside the rectangle (inclusive edges).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X0 && p.X <= r.X1 && p.Y >= r.Y0 && p.Y <= r.Y1
}

// Intersects reports whether the two rectangles overlap.
func (r Rect) Intersects(o Rect) bool {
	return r.X0 < o.X1 && o.X0 < r.X1 && r.Y0 < o.Y1 && o.Y0 < r.Y1
}

// Union returns the smallest rectangle covering both r and o.
func (r Rect) Union(o Rect) Rect {
	return Rect{
		X0: min(r.X0, o.X0),
		Y0: min(r.Y0, o.Y0),
		X1: max(r.X1, o.X1),
		Y1: max(r.Y1, o.Y1),
	}
}

// Expand grows the rectangle by d points on every side.
func (r Rect) Expand(d float64) Rect {
	return Rect{X0: r.X0 - d, Y0: r.Y0 - d, X1: r.X1 + d, Y1: r.Y1 + d}
}

func (r Rect) String() string {
	return fmt.Sprintf("(%.0f,%.0f)-(%.0f,%.0f)", r.X0, r.Y0, r.X1, r.Y1)
}
