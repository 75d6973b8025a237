package geom

// BasePointsPerInch is the PDF unit size. A page rendered at N DPI is
// scaled by N/72 relative to its point dimensions.
const BasePointsPerInch = 72.0

// Mapper converts between device pixels on a rendered page image and
// document points. Rendered images have their origin at the top-left
// while PDF user space grows upward from the bottom-left, so the mapper
// carries the page height to flip the Y axis.
//
// Scale is the single linear zoom factor: renderDPI/72 times any extra
// display zoom. Mark rectangles are always stored in points so they are
// independent of whatever scale the viewer happens to use.
type Mapper struct {
	Scale      float64 // pixels per point
	PageHeight float64 // points
}

// NewMapper builds a mapper for a page of the given height in points,
// rendered at dpi and displayed with an additional zoom factor.
func NewMapper(pageHeight, dpi, zoom float64) Mapper {
	return Mapper{
		Scale:      dpi / BasePointsPerInch * zoom,
		PageHeight: pageHeight,
	}
}

// ToPoint maps a device pixel position to PDF user space.
func (m Mapper) ToPoint(px, py float64) Point {
	if m.Scale == 0 {
		return Point{}
	}
	return Point{
		X: px / m.Scale,
		Y: m.PageHeight - py/m.Scale,
	}
}

// ToPixel maps a PDF point to device pixels on the rendered image.
func (m Mapper) ToPixel(p Point) (px, py float64) {
	return p.X * m.Scale, (m.PageHeight - p.Y) * m.Scale
}

// RectToPoints maps a pixel-space drag rectangle (top-left origin) to a
// normalized rectangle in PDF points.
func (m Mapper) RectToPoints(px0, py0, px1, py1 float64) Rect {
	a := m.ToPoint(px0, py0)
	b := m.ToPoint(px1, py1)
	return Rect{X0: a.X, Y0: a.Y, X1: b.X, Y1: b.Y}.Normalize()
}

// RectToPixels maps a point-space rectangle back to pixel space,
// returning pixel coordinates with x0<=x1 and y0<=y1.
func (m Mapper) RectToPixels(r Rect) (px0, py0, px1, py1 float64) {
	r = r.Normalize()
	x0, y1 := m.ToPixel(Point{X: r.X0, Y: r.Y0})
	x1, y0 := m.ToPixel(Point{X: r.X1, Y: r.Y1})
	return x0, y0, x1, y1
}
