package layout

import (
	"styledom/pkg/css"
	"styledom/pkg/dom"
	"styledom/pkg/geom"
)

// placeFloat lays out the float id under parent and places it in bfc.
// container is the block whose content box starts at origin and is
// cbWidth wide; y is the float's earliest top in that content box.
//
// CSS 2.1 §9.5: the float goes as high as possible, no higher than earlier
// floats, then as far left (or right) as possible, moving down past other
// floats until its margin box fits.
func (p *pass) placeFloat(id dom.NodeId, parent, container int, cbWidth, cbHeight float64, bfc *bfcCtx, origin geom.Point, y float64) int {
	cs := p.style(id)
	res := p.layoutBox(id, parent, sizing{mode: sizeShrink, avail: cbWidth, cbWidth: cbWidth, cbHeight: cbHeight, height: -1}, bfc, geom.Point{}, origin)
	n := p.node(res.idx)
	side := n.Float
	mw := n.Rect.Width + n.Margin.Horizontal()
	mh := n.Rect.Height + n.Margin.Vertical()

	top := max(origin.Y+y, bfc.space.LowestTop())
	if cl := cs.Clear(); cl != css.ClearNone {
		top = max(top, bfc.space.ClearanceY(cl))
	}
	left, right := origin.X, origin.X+cbWidth
	l, r := left, right
	for {
		l, r = bfc.space.Edges(left, right, top, mh)
		if r-l >= mw-epsilon || (l <= left+epsilon && r >= right-epsilon) {
			break
		}
		next, ok := bfc.space.NextBottom(top, mh)
		if !ok {
			break
		}
		top = next
	}
	x := l
	if side == css.FloatRight {
		x = r - mw
	}
	excl := Exclusion{Rect: geom.Rect{X: x, Y: top, Width: mw, Height: mh}, Side: side, Node: res.idx}
	bfc.space = bfc.space.Add(excl)
	p.e.floats.Add(bfc.root, excl)

	cn := p.node(container)
	n = p.node(res.idx)
	n.Offset = geom.Point{
		X: x - origin.X + n.Margin.Left + cn.Border.Left + cn.Padding.Left,
		Y: top - origin.Y + n.Margin.Top + cn.Border.Top + cn.Padding.Top,
	}
	n.Offset = n.Offset.Add(relativeOffset(cs, cbWidth, cbHeight))
	n.exclusion, n.exclusionRoot = excl, bfc.root
	for a := parent; a >= 0 && a != bfc.node; a = p.node(a).Parent {
		p.node(a).ContainsFloats = true
	}
	return res.idx
}
