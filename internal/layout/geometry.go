package layout

// Rect is an axis-aligned rectangle. Depending on context its
// coordinates are either normalized (0-1 fractions of the page) or
// absolute page points; PageGeometry converts between the two.
type Rect struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Width returns the horizontal extent of the rectangle.
func (r Rect) Width() float64 { return r.X2 - r.X1 }

// Height returns the vertical extent of the rectangle.
func (r Rect) Height() float64 { return r.Y2 - r.Y1 }

// CenterX returns the horizontal center of the rectangle.
func (r Rect) CenterX() float64 { return (r.X1 + r.X2) / 2 }

// CenterY returns the vertical center of the rectangle.
func (r Rect) CenterY() float64 { return (r.Y1 + r.Y2) / 2 }

// Clamp returns the rectangle restricted to the unit square. Degenerate
// input geometry is tolerated; the result always satisfies
// 0 <= X1 <= X2 <= 1 and 0 <= Y1 <= Y2 <= 1.
func (r Rect) Clamp() Rect {
	c := Rect{
		X1: clamp01(r.X1),
		Y1: clamp01(r.Y1),
		X2: clamp01(r.X2),
		Y2: clamp01(r.Y2),
	}
	if c.X2 < c.X1 {
		c.X2 = c.X1
	}
	if c.Y2 < c.Y1 {
		c.Y2 = c.Y1
	}
	return c
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Standard US-letter page dimensions in points.
const (
	DefaultPageWidth  = 612.0
	DefaultPageHeight = 792.0
)

// PageGeometry converts rectangles between normalized (0-1) and absolute
// page coordinates for a fixed page size.
type PageGeometry struct {
	Width  float64
	Height float64
}

// DefaultPageGeometry returns US-letter page geometry.
func DefaultPageGeometry() PageGeometry {
	return PageGeometry{Width: DefaultPageWidth, Height: DefaultPageHeight}
}

// NewPageGeometry creates a PageGeometry, substituting US-letter
// dimensions for non-positive input.
func NewPageGeometry(width, height float64) PageGeometry {
	if width <= 0 {
		width = DefaultPageWidth
	}
	if height <= 0 {
		height = DefaultPageHeight
	}
	return PageGeometry{Width: width, Height: height}
}

// ToAbsolute converts a normalized rectangle to page points.
func (g PageGeometry) ToAbsolute(r Rect) Rect {
	return Rect{
		X1: r.X1 * g.Width,
		Y1: r.Y1 * g.Height,
		X2: r.X2 * g.Width,
		Y2: r.Y2 * g.Height,
	}
}

// ToNormalized converts an absolute rectangle back to 0-1 fractions.
func (g PageGeometry) ToNormalized(r Rect) Rect {
	return Rect{
		X1: r.X1 / g.Width,
		Y1: r.Y1 / g.Height,
		X2: r.X2 / g.Width,
		Y2: r.Y2 / g.Height,
	}
}
