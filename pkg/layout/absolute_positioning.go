package layout

import (
	"styledom/pkg/css"
	"styledom/pkg/geom"
)

// layoutAbsolutes lays out the queued out-of-flow boxes once the flow
// around them has final coordinates. Boxes queued while laying out an
// absolute box are handled in the same loop.
func (p *pass) layoutAbsolutes() {
	for k := 0; k < len(p.absolutes); k++ {
		p.layoutAbsolute(p.absolutes[k])
	}
}

type insets struct {
	left, right, top, bottom             float64
	hasLeft, hasRight, hasTop, hasBottom bool
}

func resolveInsets(get func(css.PropertyType) (float64, bool)) insets {
	var in insets
	in.left, in.hasLeft = get(css.PropLeft)
	in.right, in.hasRight = get(css.PropRight)
	in.top, in.hasTop = get(css.PropTop)
	in.bottom, in.hasBottom = get(css.PropBottom)
	return in
}

// layoutAbsolute sizes and places one absolutely positioned box following
// CSS 2.1 §10.3.7 (horizontal) and §10.6.4 (vertical).
func (p *pass) layoutAbsolute(a pendingAbsolute) {
	cs := p.style(a.id)
	cb, cbIdx := p.containingBlock(a.parent, cs.Position())
	cbW, cbH := cb.Width, cb.Height
	in := resolveInsets(func(prop css.PropertyType) (float64, bool) {
		if cs.IsAuto(prop) {
			return 0, false
		}
		base := cbW
		if prop == css.PropTop || prop == css.PropBottom {
			base = cbH
		}
		return cs.ResolveLength(prop, base, 0), true
	})
	margin := cs.Margin(cbW)

	sz := sizing{mode: sizeShrink, avail: cbW - in.left - in.right, cbWidth: cbW, cbHeight: cbH, height: -1}
	if cs.IsAuto(css.PropWidth) && in.hasLeft && in.hasRight {
		sz.mode = sizeFill
	}
	if cs.IsAuto(css.PropHeight) && in.hasTop && in.hasBottom {
		sz.height = max(0, cbH-in.top-in.bottom-margin.Vertical())
	}
	res := p.layoutBox(a.id, a.parent, sz, nil, geom.Point{}, geom.Point{})
	n := p.node(res.idx)
	margin = n.Margin
	w, h := n.Rect.Width, n.Rect.Height
	parent := p.node(a.parent).Rect.Origin()
	static := parent.Add(a.static)

	autoL, autoR := cs.AutoMargins()
	var x float64
	switch {
	case in.hasLeft && in.hasRight && autoL && autoR:
		// Equal margins center the box between the insets.
		free := cbW - in.left - in.right - w
		margin.Left, margin.Right = 0, 0
		if free >= 0 {
			margin.Left, margin.Right = free/2, free/2
		}
		x = cb.X + in.left + margin.Left
	case in.hasLeft:
		x = cb.X + in.left + margin.Left
	case in.hasRight:
		x = cb.Right() - in.right - margin.Right - w
	default:
		x = static.X + margin.Left
	}

	autoT, autoB := cs.AutoMarginsVertical()
	var y float64
	switch {
	case in.hasTop && in.hasBottom && autoT && autoB:
		free := cbH - in.top - in.bottom - h
		margin.Top, margin.Bottom = 0, 0
		if free >= 0 {
			margin.Top, margin.Bottom = free/2, free/2
		}
		y = cb.Y + in.top + margin.Top
	case in.hasTop:
		y = cb.Y + in.top + margin.Top
	case in.hasBottom:
		y = cb.Bottom() - in.bottom - margin.Bottom - h
	default:
		y = static.Y + margin.Top
	}

	n = p.node(res.idx)
	n.Margin = margin
	n.Offset = geom.Point{X: x - parent.X, Y: y - parent.Y}
	p.finalize(res.idx)
	for i := a.parent; i >= 0 && i != cbIdx; i = p.node(i).Parent {
		p.node(i).escapingAbs = true
	}
}
