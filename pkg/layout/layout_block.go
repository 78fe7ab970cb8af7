package layout

import (
	"styledom/pkg/css"
	"styledom/pkg/dom"
	"styledom/pkg/geom"
	"styledom/pkg/style"
)

type sizeMode uint8

const (
	// sizeFill stretches the margin box to the available width.
	sizeFill sizeMode = iota
	// sizeShrink uses the shrink-to-fit width.
	sizeShrink
	// sizeFixed takes the border box width from the caller.
	sizeFixed
)

// sizing is the input of one box layout.
type sizing struct {
	mode sizeMode
	// avail is the width available to the margin box.
	avail float64
	// cbWidth and cbHeight are the percentage bases; cbHeight is negative
	// when indefinite.
	cbWidth  float64
	cbHeight float64
	// width is the border box width for sizeFixed.
	width float64
	// height is a border box height imposed by the parent, negative for
	// none.
	height float64
}

// bfcCtx is the block formatting context a box takes part in.
type bfcCtx struct {
	root  dom.NodeId
	node  int
	space *ExclusionSpace
}

// boxResult is what a parent needs to continue its flow after a child.
type boxResult struct {
	idx             int
	bottom          marginAcc
	collapseThrough bool
}

func isPercent(cs *style.ComputedStyle, p css.PropertyType) bool {
	l, ok := cs.Length(p)
	return ok && l.Metric == css.Percent
}

// specifiedWidth returns the content width given by the width property.
func specifiedWidth(cs *style.ComputedStyle, cbWidth float64, bp geom.Edges) (float64, bool) {
	if cs.IsAuto(css.PropWidth) {
		return 0, false
	}
	w := cs.ResolveLength(css.PropWidth, cbWidth, 0)
	if cs.BoxSizing() == css.BoxSizingBorderBox {
		w -= bp.Horizontal()
	}
	return max(0, w), true
}

// clampWidth applies min-width and max-width to a content width.
func clampWidth(cs *style.ComputedStyle, w, cbWidth float64, bp geom.Edges) float64 {
	adjust := 0.0
	if cs.BoxSizing() == css.BoxSizingBorderBox {
		adjust = bp.Horizontal()
	}
	if !cs.IsAuto(css.PropMaxWidth) {
		w = min(w, cs.ResolveLength(css.PropMaxWidth, cbWidth, 0)-adjust)
	}
	w = max(w, cs.ResolveLength(css.PropMinWidth, cbWidth, 0)-adjust)
	return max(0, w)
}

// specifiedHeight returns the content height given by the height property.
// Percentages of an indefinite containing block height behave as auto.
func specifiedHeight(cs *style.ComputedStyle, cbHeight float64, bp geom.Edges) (float64, bool) {
	if cs.IsAuto(css.PropHeight) || (isPercent(cs, css.PropHeight) && cbHeight < 0) {
		return 0, false
	}
	h := cs.ResolveLength(css.PropHeight, cbHeight, 0)
	if cs.BoxSizing() == css.BoxSizingBorderBox {
		h -= bp.Vertical()
	}
	return max(0, h), true
}

// clampHeight applies min-height and max-height to a content height.
func clampHeight(cs *style.ComputedStyle, h, cbHeight float64, bp geom.Edges) float64 {
	adjust := 0.0
	if cs.BoxSizing() == css.BoxSizingBorderBox {
		adjust = bp.Vertical()
	}
	base := max(cbHeight, 0)
	if !cs.IsAuto(css.PropMaxHeight) && !(isPercent(cs, css.PropMaxHeight) && cbHeight < 0) {
		h = min(h, cs.ResolveLength(css.PropMaxHeight, base, 0)-adjust)
	}
	if !(isPercent(cs, css.PropMinHeight) && cbHeight < 0) {
		h = max(h, cs.ResolveLength(css.PropMinHeight, base, 0)-adjust)
	}
	return max(0, h)
}

// replacedSize returns the content size of an image, iframe or GL box:
// the intrinsic size, overridden by width and height with the aspect ratio
// kept when only one is given.
func (p *pass) replacedSize(id dom.NodeId, cs *style.ComputedStyle, cbWidth, cbHeight float64) (float64, float64) {
	var iw, ih float64
	if n := p.source(id); n != nil {
		switch {
		case n.Image != nil:
			iw, ih = n.Image.Width, n.Image.Height
		case n.Type == dom.NodeIFrame || n.Type == dom.NodeGL:
			iw, ih = 300, 150
		}
	}
	w, wOK := specifiedWidth(cs, cbWidth, geom.Edges{})
	h, hOK := specifiedHeight(cs, cbHeight, geom.Edges{})
	switch {
	case wOK && hOK:
	case wOK:
		h = iw
		if iw > 0 {
			h = w * ih / iw
		}
	case hOK:
		w = ih
		if ih > 0 {
			w = h * iw / ih
		}
	default:
		w, h = iw, ih
	}
	return w, h
}

// layoutBox lays out the box id and its subtree as a child of parent. at
// places the box in the parent's content box: at.X is the left margin edge
// and at.Y the top border edge. origin is the parent's content box origin
// in the float space of bfc.
func (p *pass) layoutBox(id dom.NodeId, parent int, sz sizing, bfc *bfcCtx, at, origin geom.Point) boxResult {
	cs := p.style(id)
	if r, ok := p.tryReuse(id, parent, sz, bfc, at, origin); ok {
		return r
	}
	if p.reuse != nil && p.reuse.fullRoot[id] {
		p.noReuse++
		defer func() { p.noReuse-- }()
	}
	idx := p.newNode(id, parent)
	kind := p.kindOf(id, cs)
	ctx := p.contextOf(id, cs)
	newBFC := p.establishesBFC(id, cs)

	margin := cs.Margin(sz.cbWidth)
	border := cs.Border()
	padding := cs.Padding(sz.cbWidth)
	bp := border.Add(padding)

	var w, h float64
	hOK := false
	switch {
	case kind == BoxReplaced:
		w, h = p.replacedSize(id, cs, sz.cbWidth, sz.cbHeight)
		hOK = true
	case sz.mode == sizeFixed:
		w = max(0, sz.width-bp.Horizontal())
	default:
		sw, ok := specifiedWidth(cs, sz.cbWidth, bp)
		switch {
		case ok:
			w = sw
		case sz.mode == sizeShrink:
			w = p.intrinsicSizes(id).ShrinkToFit(sz.avail - margin.Horizontal() - bp.Horizontal())
		default:
			w = sz.avail - margin.Horizontal() - bp.Horizontal()
		}
		w = clampWidth(cs, w, sz.cbWidth, bp)
	}
	if sz.mode == sizeFill {
		autoL, autoR := cs.AutoMargins()
		if free := sz.avail - w - bp.Horizontal() - margin.Horizontal(); free > 0 {
			switch {
			case autoL && autoR:
				margin.Left += free / 2
				margin.Right += free / 2
			case autoL:
				margin.Left += free
			case autoR:
				margin.Right += free
			}
		}
	}
	if !hOK {
		if sz.height >= 0 {
			h, hOK = max(0, sz.height-bp.Vertical()), true
		} else {
			h, hOK = specifiedHeight(cs, sz.cbHeight, bp)
		}
		if hOK {
			h = clampHeight(cs, h, sz.cbHeight, bp)
		}
	}

	n := p.node(idx)
	n.Kind, n.Context, n.NewBFC = kind, ctx, newBFC
	n.Margin, n.Border, n.Padding = margin, border, padding
	n.Position, n.Float = cs.Position(), cs.Float()
	n.input = sz
	n.Offset = geom.Point{X: at.X + margin.Left, Y: at.Y}
	if parent >= 0 {
		pn := p.node(parent)
		n.Offset = n.Offset.Add(geom.Point{X: pn.Border.Left + pn.Padding.Left, Y: pn.Border.Top + pn.Padding.Top})
	}

	contentOrigin := origin.Add(geom.Point{X: at.X + margin.Left + bp.Left, Y: at.Y + bp.Top})
	inner := bfc
	if newBFC || bfc == nil {
		inner = &bfcCtx{root: id, node: idx, space: NewExclusionSpace()}
		contentOrigin = geom.Point{}
		p.e.floats.Drop(id)
	}
	n.bfcRoot, n.bfcOrigin = inner.root, contentOrigin
	sensitive := !newBFC && bfc != nil && !bfc.space.IsEmpty()

	childCB := -1.0
	if hOK {
		childCB = h
	}
	collapseBottom := !hOK && p.parentCanCollapseBottomMargin(id, cs)
	collapseTop := p.parentCanCollapseTopMargin(id, cs)
	var contentH float64
	var through marginAcc
	lines := false
	switch ctx {
	case ContextBlock:
		contentH, through = p.layoutBlockChildren(idx, id, w, childCB, inner, contentOrigin, collapseTop, collapseBottom)
	case ContextInline:
		contentH = p.layoutInline(idx, id, w, inner, contentOrigin)
		lines = contentH > 0
	case ContextFlex:
		contentH = p.layoutFlex(idx, id, w, childCB)
	}
	if newBFC {
		contentH = max(contentH, inner.space.Bottom())
	}
	if !hOK {
		h = clampHeight(cs, contentH, sz.cbHeight, bp)
	}

	n = p.node(idx)
	n.Rect.Width = w + bp.Horizontal()
	n.Rect.Height = h + bp.Vertical()
	if !newBFC {
		for _, c := range n.Children {
			if cn := p.node(c); !cn.NewBFC && cn.floatSensitive {
				sensitive = true
			}
		}
		n.floatSensitive = n.floatSensitive || sensitive
	}

	res := boxResult{idx: idx, bottom: marginAcc{}.add(margin.Bottom)}
	if collapseBottom {
		res.bottom = res.bottom.merge(through)
	}
	res.collapseThrough = collapseTop && collapseBottom && !lines && n.Rect.Height == 0
	n.bottom, n.collapseThrough = res.bottom, res.collapseThrough
	n.Offset = n.Offset.Add(relativeOffset(cs, sz.cbWidth, sz.cbHeight))
	return res
}

// layoutBlockChildren runs the block formatting algorithm over the children
// of id, whose content box is w wide. It returns the content height and,
// when collapseBottom is set, the margins that collapse through the box's
// bottom edge instead of adding to its height.
func (p *pass) layoutBlockChildren(idx int, id dom.NodeId, w, cbH float64, bfc *bfcCtx, origin geom.Point, collapseTop, collapseBottom bool) (float64, marginAcc) {
	y := 0.0
	var pending marginAcc
	absorb := collapseTop
	baselineSet := false
	for c := range p.anon.Children(id) {
		cs := p.style(c)
		if cs.IsOutOfFlow() {
			p.deferAbsolute(c, idx, geom.Point{Y: y + pending.value()})
			continue
		}
		if cs.Float() != css.FloatNone {
			p.placeFloat(c, idx, idx, w, cbH, bfc, origin, y+pending.value())
			continue
		}
		chain := p.topChain(c, w)
		if absorb {
			// The first child's top margin is part of the parent's.
			absorb = false
		} else {
			pending = pending.merge(chain)
		}
		cy := y + pending.value()
		if cl := cs.Clear(); cl != css.ClearNone {
			if clearY := bfc.space.ClearanceY(cl) - origin.Y; clearY > cy {
				cy = clearY
			}
		}
		x, avail := 0.0, w
		if p.establishesBFC(c, cs) && !bfc.space.IsEmpty() {
			l, r := bfc.space.Edges(origin.X, origin.X+w, origin.Y+cy, 1)
			x, avail = l-origin.X, max(0, r-l)
		}
		res := p.layoutBox(c, idx, sizing{mode: sizeFill, avail: avail, cbWidth: w, cbHeight: cbH, height: -1}, bfc, geom.Point{X: x, Y: cy}, origin)
		child := p.node(res.idx)
		if !baselineSet && child.Baseline > 0 {
			pn := p.node(idx)
			pn.Baseline = pn.Border.Top + pn.Padding.Top + cy + child.Baseline
			baselineSet = true
		}
		if res.collapseThrough {
			pending = pending.merge(res.bottom)
			continue
		}
		y = cy + child.Rect.Height
		pending = res.bottom
	}
	if collapseBottom {
		return y, pending
	}
	return y + pending.value(), marginAcc{}
}

// deferAbsolute queues an out-of-flow box; static is its static position in
// the parent's content box.
func (p *pass) deferAbsolute(id dom.NodeId, parent int, static geom.Point) int {
	pn := p.node(parent)
	p.absolutes = append(p.absolutes, pendingAbsolute{
		id:     id,
		parent: parent,
		static: static.Add(geom.Point{X: pn.Border.Left + pn.Padding.Left, Y: pn.Border.Top + pn.Padding.Top}),
	})
	return len(p.absolutes) - 1
}
