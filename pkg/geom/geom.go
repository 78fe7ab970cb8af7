// Package geom holds the logical (device independent) geometry types shared
// by the DOM, layout and display list packages.
package geom

import "math"

// Point is a logical position.
type Point struct {
	X float64
	Y float64
}

// Add returns p translated by o.
func (p Point) Add(o Point) Point { return Point{X: p.X + o.X, Y: p.Y + o.Y} }

// Size is a logical width and height.
type Size struct {
	Width  float64
	Height float64
}

// Rect is an axis aligned rectangle. X and Y are the top-left corner.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Edges holds the four sides of a box (top, right, bottom, left).
type Edges struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

// Horizontal returns left + right.
func (e Edges) Horizontal() float64 { return e.Left + e.Right }

// Vertical returns top + bottom.
func (e Edges) Vertical() float64 { return e.Top + e.Bottom }

// Add returns the side-wise sum of two edge sets.
func (e Edges) Add(o Edges) Edges {
	return Edges{Top: e.Top + o.Top, Right: e.Right + o.Right, Bottom: e.Bottom + o.Bottom, Left: e.Left + o.Left}
}

func (r Rect) Right() float64  { return r.X + r.Width }
func (r Rect) Bottom() float64 { return r.Y + r.Height }

func (r Rect) Size() Size { return Size{Width: r.Width, Height: r.Height} }

func (r Rect) Origin() Point { return Point{X: r.X, Y: r.Y} }

// ExpandedBy returns a rectangle expanded by the given edge sizes.
func (r Rect) ExpandedBy(e Edges) Rect {
	return Rect{
		X:      r.X - e.Left,
		Y:      r.Y - e.Top,
		Width:  r.Width + e.Left + e.Right,
		Height: r.Height + e.Top + e.Bottom,
	}
}

// ShrunkBy is the inverse of ExpandedBy. Sizes never go negative.
func (r Rect) ShrunkBy(e Edges) Rect {
	return Rect{
		X:      r.X + e.Left,
		Y:      r.Y + e.Top,
		Width:  math.Max(0, r.Width-e.Left-e.Right),
		Height: math.Max(0, r.Height-e.Top-e.Bottom),
	}
}

// Translate moves the rectangle by dx, dy.
func (r Rect) Translate(dx, dy float64) Rect {
	r.X += dx
	r.Y += dy
	return r
}

// Contains reports whether p lies inside r (right and bottom edges exclusive).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.Right() && p.Y >= r.Y && p.Y < r.Bottom()
}

// Intersects reports whether the two rectangles overlap with non-zero area.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.Right() && o.X < r.Right() && r.Y < o.Bottom() && o.Y < r.Bottom()
}

// Intersect returns the overlapping area; ok is false when there is none.
func (r Rect) Intersect(o Rect) (Rect, bool) {
	x0 := math.Max(r.X, o.X)
	y0 := math.Max(r.Y, o.Y)
	x1 := math.Min(r.Right(), o.Right())
	y1 := math.Min(r.Bottom(), o.Bottom())
	if x1 <= x0 || y1 <= y0 {
		return Rect{}, false
	}
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}, true
}

// Union returns the smallest rectangle containing both. An empty receiver
// (zero width and height) is treated as absent.
func (r Rect) Union(o Rect) Rect {
	if r.Width == 0 && r.Height == 0 {
		return o
	}
	if o.Width == 0 && o.Height == 0 {
		return r
	}
	x0 := math.Min(r.X, o.X)
	y0 := math.Min(r.Y, o.Y)
	x1 := math.Max(r.Right(), o.Right())
	y1 := math.Max(r.Bottom(), o.Bottom())
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}
