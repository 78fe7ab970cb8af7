package layout

import (
	"slices"

	"go.uber.org/zap"

	"styledom/pkg/css"
	"styledom/pkg/dom"
	"styledom/pkg/geom"
	"styledom/pkg/style"
	"styledom/pkg/text"
)

// TextStyle converts a computed style to the text style of an inline item.
func TextStyle(cs *style.ComputedStyle) text.Style {
	return text.Style{
		Font: text.FontKey{
			Family: cs.FontFamily(),
			Weight: int(cs.FontWeight()),
			Italic: cs.FontStyle() == css.FontStyleItalic,
		},
		FontSize:      cs.FontSize(),
		LineHeight:    cs.LineHeight(),
		LetterSpacing: cs.LetterSpacing(),
		WordSpacing:   cs.WordSpacing(),
		WhiteSpace:    cs.WhiteSpace(),
		Hyphens:       cs.Hyphens(),
	}
}

// inlineConstraints are the constraints of the inline formatting context
// rooted at a block container w wide.
func (p *pass) inlineConstraints(cs *style.ComputedStyle, w float64, holes []text.Hole) text.Constraints {
	return text.Constraints{
		AvailableWidth: w,
		TextAlign:      cs.TextAlign(),
		TextJustify:    cs.TextJustify(),
		Direction:      cs.Direction(),
		CanBreak:       true,
		CanHyphenate:   p.e.hyphenate && cs.Hyphens() == css.HyphensAuto,
		Holes:          holes,
		MinLineHeight:  cs.LineHeight(),
	}
}

// inlineContent flattens the inline descendants of id in document order.
// object measures atomic inlines: their margin box and the distance from
// its top to their baseline.
func (p *pass) inlineContent(id dom.NodeId, object func(c dom.NodeId) (geom.Size, float64)) []text.InlineContent {
	var out []text.InlineContent
	var walk func(a dom.NodeId)
	walk = func(a dom.NodeId) {
		for c := range p.anon.Children(a) {
			cs := p.style(c)
			if cs.IsOutOfFlow() || cs.Float() != css.FloatNone {
				continue
			}
			src := p.anon.FromAnon(c)
			switch p.kindOf(c, cs) {
			case BoxText:
				out = append(out, text.InlineContent{Kind: text.ContentText, Node: src, Text: p.styled.Dom.Ptr(src).Text, Style: TextStyle(cs)})
			case BoxBreak:
				out = append(out, text.InlineContent{Kind: text.ContentBreak, Node: src, Style: TextStyle(cs)})
			case BoxInline:
				walk(c)
			default:
				size, baseline := object(c)
				out = append(out, text.InlineContent{Kind: text.ContentObject, Node: src, Size: size, Baseline: baseline, Style: TextStyle(cs)})
			}
		}
	}
	walk(id)
	return out
}

// layoutInline lays out the inline formatting context rooted at idx, whose
// content box is w wide and starts at origin in the float space of bfc.
// It returns the height of the line boxes.
//
// Inline boxes become nodes covering their text; their own margins,
// borders and padding do not take space in the lines. Floats met in the
// content are placed at the top of the context and out-of-flow boxes get
// the context's origin as their static position.
func (p *pass) layoutInline(idx int, id dom.NodeId, w float64, bfc *bfcCtx, origin geom.Point) float64 {
	cs := p.style(id)
	root := p.node(idx)
	inset := geom.Point{X: root.Border.Left + root.Padding.Left, Y: root.Border.Top + root.Padding.Top}

	members := map[dom.NodeId]int{}
	var order []int
	var relToRoot, absFix []int
	var build func(a dom.NodeId, parent int)
	build = func(a dom.NodeId, parent int) {
		for c := range p.anon.Children(a) {
			ccs := p.style(c)
			switch {
			case ccs.IsOutOfFlow():
				k := p.deferAbsolute(c, idx, geom.Point{})
				p.absolutes[k].parent = parent
				if parent != idx {
					absFix = append(absFix, k)
				}
				continue
			case ccs.Float() != css.FloatNone:
				fi := p.placeFloat(c, parent, idx, w, -1, bfc, origin, 0)
				if parent != idx {
					relToRoot = append(relToRoot, fi)
				}
				continue
			}
			src := p.anon.FromAnon(c)
			switch kind := p.kindOf(c, ccs); kind {
			case BoxText, BoxBreak, BoxInline:
				ni := p.newNode(c, parent)
				n := p.node(ni)
				n.Kind, n.IfcRoot = kind, idx
				n.Position = ccs.Position()
				if kind == BoxInline {
					n.Margin, n.Border, n.Padding = ccs.Margin(w), ccs.Border(), ccs.Padding(w)
				}
				members[src] = ni
				order = append(order, ni)
				if kind == BoxInline {
					build(c, ni)
				}
			default:
				res := p.layoutBox(c, parent, sizing{mode: sizeShrink, avail: w, cbWidth: w, cbHeight: -1, height: -1}, bfc, geom.Point{}, origin)
				p.node(res.idx).IfcRoot = idx
				members[src] = res.idx
				order = append(order, res.idx)
			}
		}
	}
	build(id, idx)

	content := p.inlineContent(id, func(c dom.NodeId) (geom.Size, float64) {
		n := p.node(members[p.anon.FromAnon(c)])
		size := geom.Size{Width: n.Rect.Width + n.Margin.Horizontal(), Height: n.Rect.Height + n.Margin.Vertical()}
		baseline := 0.0
		if n.Baseline > 0 {
			baseline = n.Margin.Top + n.Baseline
		}
		return size, baseline
	})

	holes := bfc.space.Holes(origin, w)
	c := p.inlineConstraints(cs, w, holes)
	var u *text.UnifiedLayout
	if prev := p.prevInline(id); prev.Valid(content, c) {
		u = prev.Layout
		p.tree.Stats.InlineCacheHits++
	} else {
		u = p.e.text.Layout(content, c)
		p.tree.Stats.Shaped++
		for _, err := range u.Warnings {
			p.e.logger.Warn("inline layout", zap.Int("dom", int(p.anon.FromAnon(id))), zap.Error(err))
		}
	}
	root = p.node(idx)
	root.Inline = &CachedInlineLayout{Content: content, Constraints: c, Layout: u}
	root.Baseline = inset.Y + u.FirstBaseline()
	if len(holes) > 0 && !root.NewBFC {
		root.floatSensitive = true
	}

	// Member rectangles relative to the root's border box.
	rel := map[int]geom.Rect{}
	for i := range u.Items {
		it := &u.Items[i]
		ni, ok := members[it.Item.Node]
		if !ok {
			continue
		}
		r := it.Bounds().Translate(inset.X, inset.Y)
		if it.Item.Kind == text.ItemObject {
			n := p.node(ni)
			rel[ni] = geom.Rect{X: r.X + n.Margin.Left, Y: r.Y + n.Margin.Top, Width: n.Rect.Width, Height: n.Rect.Height}
			continue
		}
		rel[ni] = rel[ni].Union(r)
	}
	desc := slices.Clone(order)
	slices.Reverse(desc)
	for _, ni := range desc {
		r, ok := rel[ni]
		if !ok {
			continue
		}
		if parent := p.node(ni).Parent; parent != idx {
			rel[parent] = rel[parent].Union(r)
		}
	}
	for _, ni := range order {
		n := p.node(ni)
		r := rel[ni]
		off := r.Origin()
		if n.Parent != idx {
			off = geom.Point{X: off.X - rel[n.Parent].X, Y: off.Y - rel[n.Parent].Y}
		}
		if n.Kind != BoxInlineBlock && n.Kind != BoxReplaced && n.Kind != BoxBlock && n.Kind != BoxFlex {
			n.Rect.Width, n.Rect.Height = r.Width, r.Height
		}
		var d geom.Point
		if n.Dom >= 0 {
			d = relativeOffset(p.styled.Style(n.Dom), w, -1)
		}
		n.Offset = off.Add(d)
	}
	for _, fi := range relToRoot {
		n := p.node(fi)
		pr := rel[n.Parent]
		n.Offset = geom.Point{X: n.Offset.X - pr.X, Y: n.Offset.Y - pr.Y}
	}
	for _, k := range absFix {
		a := &p.absolutes[k]
		pr := rel[a.parent]
		a.static = geom.Point{X: inset.X - pr.X, Y: inset.Y - pr.Y}
	}
	return u.Height()
}
