// Package displaylist flattens a laid out tree into the ordered drawing
// commands a paint sink executes. Building a list is a pure function of
// the layout tree and its computed styles: the same tree always yields an
// equal list.
package displaylist

import (
	"fmt"
	"math"
	"strings"

	"styledom/pkg/css"
	"styledom/pkg/dom"
	"styledom/pkg/geom"
	"styledom/pkg/text"
)

// Kind tags the content of an Item.
type Kind uint8

const (
	KindRect Kind = iota
	KindText
	KindImage
	KindGradient
	KindBoxShadow
	KindBorder
	KindScroll
	KindCustom
)

var kindNames = [...]string{"rect", "text", "image", "gradient", "box-shadow", "border", "scroll", "custom"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "?"
}

// Content is what an item draws.
type Content interface {
	Kind() Kind
}

// Rect fills the item bounds.
type Rect struct {
	Color css.Color
	// Radii are the corner radii clockwise from top-left.
	Radii [4]float64
}

// Text is a run of glyphs of one node on one line. Bounds is the run's
// glyph box; Baseline is absolute.
type Text struct {
	Text     string
	Font     text.FontKey
	Size     float64
	Color    css.Color
	Baseline float64
	// AlignRight draws the run against the right edge of its bounds. List
	// markers use it since their width is only known to the sink.
	AlignRight bool
	Decoration string
	Shadows    []css.Shadow
}

// Image draws a named image scaled to the item bounds.
type Image struct {
	Name string
}

// Gradient fills the item bounds with a gradient.
type Gradient struct {
	Gradient css.Gradient
	Radii    [4]float64
}

// BoxShadow is cast by the box in the item bounds.
type BoxShadow struct {
	Shadow css.Shadow
	Radii  [4]float64
}

// Border strokes the four sides inside the item bounds.
type Border struct {
	Widths geom.Edges
	// Colors and Styles are clockwise from the top.
	Colors [4]css.Color
	Styles [4]css.BorderStyle
	Radii  [4]float64
}

// Scroll marks a scroll container. Items that follow and share its clip
// are already translated by Offset.
type Scroll struct {
	ID          dom.NodeId
	ContentSize geom.Size
	Offset      geom.Point
}

// Custom hands the item bounds to an iframe or GL render callback.
type Custom struct {
	Type    dom.NodeType
	Content *dom.CustomContent
}

func (Rect) Kind() Kind      { return KindRect }
func (Text) Kind() Kind      { return KindText }
func (Image) Kind() Kind     { return KindImage }
func (Gradient) Kind() Kind  { return KindGradient }
func (BoxShadow) Kind() Kind { return KindBoxShadow }
func (Border) Kind() Kind    { return KindBorder }
func (Scroll) Kind() Kind    { return KindScroll }
func (Custom) Kind() Kind    { return KindCustom }

// Matrix is a 2D affine transform [a b c d e f]: x' = a*x + c*y + e and
// y' = b*x + d*y + f.
type Matrix [6]float64

// Identity is the matrix that changes nothing.
var Identity = Matrix{1, 0, 0, 1, 0, 0}

// Translation returns a matrix moving by dx, dy.
func Translation(dx, dy float64) Matrix { return Matrix{1, 0, 0, 1, dx, dy} }

// Mul returns m applied after n.
func (m Matrix) Mul(n Matrix) Matrix {
	return Matrix{
		m[0]*n[0] + m[2]*n[1],
		m[1]*n[0] + m[3]*n[1],
		m[0]*n[2] + m[2]*n[3],
		m[1]*n[2] + m[3]*n[3],
		m[0]*n[4] + m[2]*n[5] + m[4],
		m[1]*n[4] + m[3]*n[5] + m[5],
	}
}

// Apply transforms a point.
func (m Matrix) Apply(p geom.Point) geom.Point {
	return geom.Point{X: m[0]*p.X + m[2]*p.Y + m[4], Y: m[1]*p.X + m[3]*p.Y + m[5]}
}

// IsIdentity reports whether m is Identity.
func (m Matrix) IsIdentity() bool { return m == Identity }

// IsTranslation reports whether m only moves points.
func (m Matrix) IsTranslation() bool { return m[0] == 1 && m[1] == 0 && m[2] == 0 && m[3] == 1 }

// ApplyRect returns the bounding box of the transformed rectangle.
func (m Matrix) ApplyRect(r geom.Rect) geom.Rect {
	if m.IsTranslation() {
		return r.Translate(m[4], m[5])
	}
	corners := [4]geom.Point{
		m.Apply(geom.Point{X: r.X, Y: r.Y}),
		m.Apply(geom.Point{X: r.Right(), Y: r.Y}),
		m.Apply(geom.Point{X: r.X, Y: r.Bottom()}),
		m.Apply(geom.Point{X: r.Right(), Y: r.Bottom()}),
	}
	x0, y0 := math.Inf(1), math.Inf(1)
	x1, y1 := math.Inf(-1), math.Inf(-1)
	for _, c := range corners {
		x0, y0 = min(x0, c.X), min(y0, c.Y)
		x1, y1 = max(x1, c.X), max(y1, c.Y)
	}
	return geom.Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Item is one drawing command.
type Item struct {
	// Node is the source node, -1 for anonymous boxes.
	Node   dom.NodeId
	Bounds geom.Rect
	// Clip is in device coordinates and only applies when Clipped is set.
	Clip    geom.Rect
	Clipped bool
	// Transform maps Bounds to device coordinates.
	Transform Matrix
	Opacity   float64
	Content   Content
}

// List is the display list of one frame, back to front.
type List struct {
	Viewport geom.Size
	Items    []Item
}

// Len returns the number of items; a nil list has none.
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Items)
}

// Filter returns the items of the given kind.
func (l *List) Filter(k Kind) []Item {
	var out []Item
	for _, it := range l.Items {
		if it.Content.Kind() == k {
			out = append(out, it)
		}
	}
	return out
}

// DebugString prints one item per line.
func (l *List) DebugString() string {
	var b strings.Builder
	fmt.Fprintf(&b, "display list %gx%g\n", l.Viewport.Width, l.Viewport.Height)
	for _, it := range l.Items {
		r := it.Bounds
		fmt.Fprintf(&b, "%-10s #%d %g,%g %gx%g", it.Content.Kind(), it.Node, r.X, r.Y, r.Width, r.Height)
		switch c := it.Content.(type) {
		case Rect:
			fmt.Fprintf(&b, " %s", c.Color)
		case Text:
			fmt.Fprintf(&b, " %q %s", c.Text, c.Color)
		case Image:
			fmt.Fprintf(&b, " %s", c.Name)
		case Gradient:
			fmt.Fprintf(&b, " %s", c.Gradient)
		case BoxShadow:
			fmt.Fprintf(&b, " %s", c.Shadow)
		case Scroll:
			fmt.Fprintf(&b, " content=%gx%g offset=%g,%g", c.ContentSize.Width, c.ContentSize.Height, c.Offset.X, c.Offset.Y)
		}
		if it.Clipped {
			fmt.Fprintf(&b, " clip=%g,%g %gx%g", it.Clip.X, it.Clip.Y, it.Clip.Width, it.Clip.Height)
		}
		if it.Opacity < 1 {
			fmt.Fprintf(&b, " opacity=%g", it.Opacity)
		}
		if !it.Transform.IsIdentity() {
			fmt.Fprintf(&b, " transform=%v", [6]float64(it.Transform))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
