package displaylist

import (
	"strings"

	"go.uber.org/zap"

	"styledom/pkg/css"
	"styledom/pkg/dom"
	"styledom/pkg/geom"
	"styledom/pkg/layout"
	"styledom/pkg/style"
	"styledom/pkg/text"
)

// Option configures Build.
type Option func(*builder)

// WithScrollOffsets scrolls the content of scroll containers.
func WithScrollOffsets(offsets map[dom.NodeId]geom.Point) Option {
	return func(b *builder) { b.scroll = offsets }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *builder) { b.log = l.Named("displaylist") }
}

type builder struct {
	tree   *layout.Tree
	styled *style.StyledDom
	scroll map[dom.NodeId]geom.Point
	log    *zap.Logger
	items  []Item
}

// state is what a box passes down to its descendants.
type state struct {
	transform Matrix
	opacity   float64
	clip      geom.Rect
	clipped   bool
}

// Build returns the display list of a layout tree.
func Build(tree *layout.Tree, opts ...Option) *List {
	b := &builder{log: zap.NewNop()}
	for _, o := range opts {
		o(b)
	}
	out := &List{}
	if tree == nil || tree.Root() == nil || tree.Styled == nil {
		return out
	}
	out.Viewport = tree.Viewport
	b.tree, b.styled = tree, tree.Styled
	b.visit(0, state{transform: Identity, opacity: 1})
	out.Items = b.items
	b.log.Debug("display list built", zap.Int("items", len(out.Items)), zap.Int("boxes", len(tree.Nodes)))
	return out
}

func (b *builder) push(st state, node dom.NodeId, bounds geom.Rect, c Content) {
	b.items = append(b.items, Item{
		Node:      node,
		Bounds:    bounds,
		Clip:      st.clip,
		Clipped:   st.clipped,
		Transform: st.transform,
		Opacity:   st.opacity,
		Content:   c,
	})
}

func (b *builder) visit(i int, st state) {
	n := &b.tree.Nodes[i]
	var cs *style.ComputedStyle
	if n.Dom >= 0 {
		cs = b.styled.Style(n.Dom)
	}

	if cs != nil {
		st.opacity *= cs.Opacity()
		if st.opacity <= 0 {
			return
		}
		if ts := cs.Transforms(); len(ts) > 0 {
			cx := n.Rect.X + n.Rect.Width/2
			cy := n.Rect.Y + n.Rect.Height/2
			local := Translation(cx, cy).Mul(Matrix(css.ComposeTransforms(ts))).Mul(Translation(-cx, -cy))
			st.transform = st.transform.Mul(local)
		}
		if cs.Visible() && n.Kind != layout.BoxText {
			b.decorations(n, cs, st)
			b.replaced(n, st)
			b.marker(n, cs, st)
		}
	}

	inner := st
	if cs != nil && cs.ClipsContent() {
		padding := st.transform.ApplyRect(n.Rect.ShrunkBy(n.Border))
		if st.clipped {
			c, ok := st.clip.Intersect(padding)
			if !ok {
				return
			}
			padding = c
		}
		inner.clip, inner.clipped = padding, true
		if IsScrollContainer(cs) {
			off := b.scroll[n.Dom]
			b.push(st, n.Dom, n.Rect.ShrunkBy(n.Border), Scroll{
				ID:          n.Dom,
				ContentSize: n.Overflow.Size(),
				Offset:      off,
			})
			if off != (geom.Point{}) {
				inner.transform = st.transform.Mul(Translation(-off.X, -off.Y))
			}
		}
	}

	emitted := n.Inline == nil
	for _, c := range b.tree.PaintOrder(i) {
		child := &b.tree.Nodes[c]
		if !emitted && child.Position != css.PositionStatic && b.tree.ZIndex(c) >= 0 {
			b.textRuns(n, inner)
			emitted = true
		}
		b.visit(c, inner)
	}
	if !emitted {
		b.textRuns(n, inner)
	}
}

// IsScrollContainer reports whether a box scrolls its overflowing content.
func IsScrollContainer(cs *style.ComputedStyle) bool {
	for _, o := range [2]css.Overflow{cs.OverflowX(), cs.OverflowY()} {
		if o == css.OverflowScroll || o == css.OverflowAuto {
			return true
		}
	}
	return false
}

// decorations paints shadows, backgrounds and the border of one box.
func (b *builder) decorations(n *layout.Node, cs *style.ComputedStyle, st state) {
	box := n.Rect
	if box.Width <= 0 && box.Height <= 0 {
		return
	}
	radii := cs.Radii(box.Width)

	// The first shadow is on top.
	shadows := cs.BoxShadows()
	for k := len(shadows) - 1; k >= 0; k-- {
		if !shadows[k].Inset {
			b.push(st, n.Dom, box, BoxShadow{Shadow: shadows[k], Radii: radii})
		}
	}
	if bg := cs.BackgroundColor(); bg.A > 0 {
		b.push(st, n.Dom, box, Rect{Color: bg, Radii: radii})
	}
	gradients, image := cs.Background()
	for k := len(gradients) - 1; k >= 0; k-- {
		b.push(st, n.Dom, box, Gradient{Gradient: gradients[k], Radii: radii})
	}
	if image != "" {
		b.push(st, n.Dom, box.ShrunkBy(n.Border), Image{Name: image})
	}
	for k := len(shadows) - 1; k >= 0; k-- {
		if shadows[k].Inset {
			b.push(st, n.Dom, box, BoxShadow{Shadow: shadows[k], Radii: radii})
		}
	}

	if n.Border == (geom.Edges{}) {
		return
	}
	var border Border
	border.Widths = n.Border
	border.Radii = radii
	for s := style.SideTop; s <= style.SideLeft; s++ {
		border.Colors[s] = cs.BorderColor(s)
		border.Styles[s] = cs.BorderStyle(s)
	}
	b.push(st, n.Dom, box, border)
}

func (b *builder) replaced(n *layout.Node, st state) {
	if n.Kind != layout.BoxReplaced {
		return
	}
	data := b.styled.Dom.Ptr(n.Dom)
	content := n.ContentBox()
	switch {
	case data.Image != nil:
		b.push(st, n.Dom, content, Image{Name: data.Image.Name})
	case data.Custom != nil:
		b.push(st, n.Dom, content, Custom{Type: data.Type, Content: data.Custom})
	}
}

// marker paints the list marker left of a list item's content box.
func (b *builder) marker(n *layout.Node, cs *style.ComputedStyle, st state) {
	m, ok := b.tree.Counters.Marker(n.Dom)
	if !ok {
		return
	}
	size := cs.FontSize()
	content := n.ContentBox()
	baseline := content.Y + 0.8*size
	if n.Baseline > 0 {
		baseline = n.Rect.Y + n.Baseline
	}
	gap := size / 2
	width := 2 * size
	bounds := geom.Rect{X: content.X - gap - width, Y: baseline - 0.8*size, Width: width, Height: size}
	b.push(st, n.Dom, bounds, Text{
		Text:       m,
		Font:       layout.TextStyle(cs).Font,
		Size:       size,
		Color:      cs.TextColor(),
		Baseline:   baseline,
		AlignRight: true,
	})
}

// textRuns paints the text of an inline formatting context root. Adjacent
// items of the same node on the same line form one run.
func (b *builder) textRuns(root *layout.Node, st state) {
	u := root.Inline.Layout
	if u == nil {
		return
	}
	origin := root.ContentBox().Origin()
	for line := range u.Lines {
		items := u.LineItems(line)
		for k := 0; k < len(items); {
			it := items[k]
			if it.Item.Kind != text.ItemText && it.Item.Kind != text.ItemHyphen {
				k++
				continue
			}
			end := k + 1
			for end < len(items) && items[end].Item.Node == it.Item.Node &&
				(items[end].Item.Kind == text.ItemText || items[end].Item.Kind == text.ItemHyphen) {
				end++
			}
			b.run(items[k:end], origin, st)
			k = end
		}
	}
}

func (b *builder) run(items []text.PositionedItem, origin geom.Point, st state) {
	var s strings.Builder
	first := items[0]
	bounds := first.Bounds()
	for _, it := range items {
		s.WriteString(it.Item.Text)
		bounds = bounds.Union(it.Bounds())
	}
	str := s.String()
	if strings.TrimSpace(str) == "" {
		return
	}
	node := first.Item.Node
	cs := b.styled.Style(node)
	if !cs.Visible() {
		return
	}
	b.push(st, node, bounds.Translate(origin.X, origin.Y), Text{
		Text:       str,
		Font:       layout.TextStyle(cs).Font,
		Size:       first.Item.Size,
		Color:      cs.TextColor(),
		Baseline:   first.Baseline + origin.Y,
		Decoration: b.decoration(node),
		Shadows:    cs.TextShadows(),
	})
}

// decoration returns the text decoration of a text node. Decorations are
// not inherited but propagate to the text of the decorating box.
func (b *builder) decoration(id dom.NodeId) string {
	if d := b.styled.Style(id).TextDecoration(); d != "none" {
		return d
	}
	for a := range b.styled.Dom.Ancestors(id) {
		if d := b.styled.Style(a).TextDecoration(); d != "none" {
			return d
		}
	}
	return "none"
}
