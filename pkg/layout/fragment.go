package layout

import (
	"slices"

	"go.uber.org/zap"

	"styledom/pkg/css"
	"styledom/pkg/geom"
	"styledom/pkg/style"
)

// breakPoint is a place the flow may be cut.
type breakPoint struct {
	y      float64
	forced bool
}

func isForced(k css.BreakKind, columns bool) bool {
	return k == css.BreakPage || (columns && k == css.BreakColumn)
}

// breakPoints collects the class A (between block siblings) and class B
// (between line boxes) break opportunities of t, sorted by position.
func (e *Engine) breakPoints(t *Tree, columns bool) []breakPoint {
	var out []breakPoint
	t.Walk(func(i int, n *Node) bool {
		if n.Inline != nil {
			out = append(out, e.lineBreakPoints(t, n)...)
		}
		var prev *Node
		for _, c := range n.Children {
			cn := &t.Nodes[c]
			if cn.IsIfcMember() || cn.Float != css.FloatNone || cn.Position == css.PositionAbsolute || cn.Position == css.PositionFixed {
				continue
			}
			if prev != nil {
				after, before := breakAfter(t, prev), breakBefore(t, cn)
				switch {
				case isForced(after, columns) || isForced(before, columns):
					out = append(out, breakPoint{y: cn.Rect.Y, forced: true})
				case after != css.BreakAvoid && before != css.BreakAvoid:
					out = append(out, breakPoint{y: prev.Rect.Bottom()})
				}
			}
			prev = cn
		}
		return true
	})
	slices.SortStableFunc(out, func(a, b breakPoint) int {
		switch {
		case a.y < b.y:
			return -1
		case a.y > b.y:
			return 1
		}
		return 0
	})
	return out
}

func nodeStyle(t *Tree, n *Node) *style.ComputedStyle {
	if n.Dom < 0 || t.Styled == nil {
		return nil
	}
	return t.Styled.Style(n.Dom)
}

func breakAfter(t *Tree, n *Node) css.BreakKind {
	if cs := nodeStyle(t, n); cs != nil {
		return cs.BreakAfter()
	}
	return css.BreakAuto
}

func breakBefore(t *Tree, n *Node) css.BreakKind {
	if cs := nodeStyle(t, n); cs != nil {
		return cs.BreakBefore()
	}
	return css.BreakAuto
}

// lineBreakPoints returns the breaks between the lines of an inline
// formatting context, honoring widows and orphans when enabled.
func (e *Engine) lineBreakPoints(t *Tree, n *Node) []breakPoint {
	lines := n.Inline.Layout.Lines
	top := n.ContentBox().Y
	widows, orphans := 1, 1
	if cs := nodeStyle(t, n); cs != nil && e.widowsOrphans {
		widows, orphans = max(1, cs.Widows()), max(1, cs.Orphans())
	}
	var out []breakPoint
	for i := 1; i < len(lines); i++ {
		if i < orphans || len(lines)-i < widows {
			continue
		}
		out = append(out, breakPoint{y: top + lines[i].Top})
	}
	return out
}

// Fragment cuts a laid out tree into pages of pageHeight. Each page is cut
// at a forced break or else at the last break opportunity that fits; a
// page without one is cut at its bottom edge.
func (e *Engine) Fragment(t *Tree, pageHeight float64) []*Tree {
	return e.fragment(t, pageHeight, false)
}

func (e *Engine) fragment(t *Tree, pageHeight float64, columns bool) []*Tree {
	if t.Root() == nil || pageHeight <= 0 {
		return []*Tree{t}
	}
	points := e.breakPoints(t, columns)
	total := t.Height()
	var out []*Tree
	for start := 0.0; start < total-epsilon || len(out) == 0; {
		limit := start + pageHeight
		end := limit
		best := -1.0
		for _, bp := range points {
			if bp.y <= start+epsilon || bp.y > limit+epsilon {
				continue
			}
			if bp.forced {
				best = bp.y
				break
			}
			best = bp.y
		}
		if best > start {
			end = best
		}
		out = append(out, t.slice(start, end, len(out)))
		start = end
	}
	e.logger.Debug("fragmented", zap.Int("fragments", len(out)), zap.Float64("height", pageHeight))
	return out
}

// slice copies the part of t between start and end into a new tree whose
// origin is start. Boxes crossing the slice edges appear in every slice
// they touch, and inline layouts keep only the lines starting inside.
func (t *Tree) slice(start, end float64, index int) *Tree {
	keep := make([]bool, len(t.Nodes))
	for i := range t.Nodes {
		r := t.Nodes[i].Rect
		if (r.Y < end && r.Bottom() > start) || (r.Height == 0 && r.Y >= start && r.Y < end) {
			for a := i; a >= 0 && !keep[a]; a = t.Nodes[a].Parent {
				keep[a] = true
			}
		}
	}
	keep[0] = true
	remap := make([]int, len(t.Nodes))
	out := &Tree{
		Anon:     t.Anon,
		Styled:   t.Styled,
		Viewport: geom.Size{Width: t.Viewport.Width, Height: end - start},
		Counters: t.Counters,
		Fragment: &FragmentInfo{Index: index, Page: index, Start: start, End: end},
	}
	for i := range t.Nodes {
		remap[i] = -1
		if !keep[i] {
			continue
		}
		n := t.Nodes[i]
		n.Children = nil
		if n.Parent >= 0 {
			n.Parent = remap[n.Parent]
		}
		if n.IfcRoot >= 0 {
			n.IfcRoot = remap[n.IfcRoot]
		}
		n.Rect = n.Rect.Translate(0, -start)
		n.Overflow = n.Overflow.Translate(0, -start)
		if n.Inline != nil {
			n.Inline = sliceInline(n.Inline, t.Nodes[i].ContentBox().Y, start, end)
		}
		remap[i] = len(out.Nodes)
		out.Nodes = append(out.Nodes, n)
		if n.Parent >= 0 {
			out.Nodes[n.Parent].Children = append(out.Nodes[n.Parent].Children, remap[i])
		}
	}
	out.index()
	return out
}

// sliceInline keeps the lines of an inline layout whose top lies in
// [start, end). top is the content box top of the inline formatting
// context in the unsliced tree.
func sliceInline(c *CachedInlineLayout, top, start, end float64) *CachedInlineLayout {
	src := c.Layout
	u := *src
	u.Lines, u.Items = nil, nil
	for _, line := range src.Lines {
		y := top + line.Top
		if y < start-epsilon || y >= end-epsilon {
			continue
		}
		first := len(u.Items)
		u.Items = append(u.Items, src.Items[line.First:line.Last]...)
		for k := first; k < len(u.Items); k++ {
			u.Items[k].LineIndex = len(u.Lines)
		}
		line.Index = len(u.Lines)
		line.First, line.Last = first, len(u.Items)
		u.Lines = append(u.Lines, line)
	}
	return &CachedInlineLayout{Content: c.Content, Constraints: c.Constraints, Layout: &u}
}

// LayoutPaged lays out s for a page width and cuts it into pages.
func (e *Engine) LayoutPaged(s *style.StyledDom, viewport geom.Size, pageHeight float64) []*Tree {
	return e.Fragment(e.Layout(s, viewport), pageHeight)
}

// LayoutColumns flows s through count columns of the given size separated
// by gap, starting a new row of columns when all are full. Fragments are
// positioned in their column.
func (e *Engine) LayoutColumns(s *style.StyledDom, size geom.Size, count int, gap float64) []*Tree {
	count = max(1, count)
	colW := max(0, (size.Width-gap*float64(count-1))/float64(count))
	frags := e.fragment(e.Layout(s, geom.Size{Width: colW, Height: size.Height}), size.Height, true)
	for i, f := range frags {
		col := i % count
		f.Fragment.Column, f.Fragment.Page = col, i/count
		f.translate(float64(col)*(colW+gap), 0)
		f.Viewport = size
	}
	return frags
}

func (t *Tree) translate(dx, dy float64) {
	for i := range t.Nodes {
		t.Nodes[i].Rect = t.Nodes[i].Rect.Translate(dx, dy)
		t.Nodes[i].Overflow = t.Nodes[i].Overflow.Translate(dx, dy)
	}
}
