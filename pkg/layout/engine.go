package layout

import (
	"go.uber.org/zap"

	"styledom/pkg/css"
	"styledom/pkg/dom"
	"styledom/pkg/geom"
	"styledom/pkg/style"
	"styledom/pkg/text"
)

const epsilon = 1e-6

// Engine lays out styled DOMs. It keeps the text layouter and the float
// cache between passes, so one engine should serve one document.
type Engine struct {
	text          *text.Layouter
	logger        *zap.Logger
	floats        *FloatCache
	widowsOrphans bool
	hyphenate     bool
	stats         Stats
}

type Option func(*Engine)

func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithTextLayouter shares a text layouter, and its shaping cache, with
// other engines.
func WithTextLayouter(l *text.Layouter) Option {
	return func(e *Engine) { e.text = l }
}

// WithWidowsOrphans toggles the widows and orphans policy of paged layout.
func WithWidowsOrphans(on bool) Option {
	return func(e *Engine) { e.widowsOrphans = on }
}

// WithHyphenation toggles automatic hyphenation for hyphens:auto text.
func WithHyphenation(on bool) Option {
	return func(e *Engine) { e.hyphenate = on }
}

// NewEngine returns an engine resolving fonts through provider.
func NewEngine(provider text.FontProvider, opts ...Option) *Engine {
	e := &Engine{
		logger:        zap.NewNop(),
		floats:        NewFloatCache(),
		widowsOrphans: true,
		hyphenate:     true,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	e.logger = e.logger.Named("layout")
	if e.text == nil {
		e.text = text.NewLayouter(provider, text.WithLogger(e.logger))
	}
	return e
}

// Text returns the engine's text layouter.
func (e *Engine) Text() *text.Layouter { return e.text }

// Floats returns the float cache.
func (e *Engine) Floats() *FloatCache { return e.floats }

// Stats returns the counters of the last pass.
func (e *Engine) Stats() Stats { return e.stats }

// Layout lays out s from scratch in a viewport of the given size.
func (e *Engine) Layout(s *style.StyledDom, viewport geom.Size) *Tree {
	e.floats.Clear()
	p := e.newPass(s, viewport, nil)
	t := p.run()
	t.Stats.Full = true
	e.finish(t)
	return t
}

func (e *Engine) finish(t *Tree) {
	e.stats = t.Stats
	e.logger.Debug("layout pass",
		zap.Int("boxes", len(t.Nodes)),
		zap.Int("laid", t.Stats.Laid),
		zap.Int("reused", t.Stats.Reused),
		zap.Int("shaped", t.Stats.Shaped),
		zap.Bool("full", t.Stats.Full))
}

// pendingAbsolute is an out-of-flow box waiting for its containing block.
type pendingAbsolute struct {
	id     dom.NodeId
	parent int
	// static is the static position relative to the parent's border box.
	static geom.Point
}

// pass is one layout run.
type pass struct {
	e         *Engine
	styled    *style.StyledDom
	anon      *AnonDom
	tree      *Tree
	viewport  geom.Size
	reuse     *reuseSet
	absolutes []pendingAbsolute
	anonStyle map[dom.NodeId]*style.ComputedStyle
	intrinsic map[dom.NodeId]MinMaxSizes
	// noReuse counts the enclosing subtrees that must be rebuilt.
	noReuse int
}

func (e *Engine) newPass(s *style.StyledDom, viewport geom.Size, reuse *reuseSet) *pass {
	anon := BuildAnonDom(s)
	t := &Tree{
		Anon:     anon,
		Styled:   s,
		Viewport: viewport,
	}
	return &pass{
		e:         e,
		styled:    s,
		anon:      anon,
		tree:      t,
		viewport:  viewport,
		reuse:     reuse,
		anonStyle: map[dom.NodeId]*style.ComputedStyle{},
		intrinsic: map[dom.NodeId]MinMaxSizes{},
	}
}

func (p *pass) run() *Tree {
	t := p.tree
	if p.anon.Len() == 0 {
		t.index()
		return t
	}
	vw, vh := p.viewport.Width, p.viewport.Height
	top := p.topChain(0, vw).value()
	p.layoutBox(0, -1, sizing{mode: sizeFill, avail: vw, cbWidth: vw, cbHeight: vh, height: -1}, nil, geom.Point{Y: top}, geom.Point{})
	p.finalize(0)
	p.layoutAbsolutes()
	p.computeOverflow()
	t.index()
	t.Counters = p.counters()
	return t
}

// style returns the computed style of an AnonDom node.
func (p *pass) style(id dom.NodeId) *style.ComputedStyle {
	n := p.anon.Get(id)
	if n.Source >= 0 {
		return p.styled.Style(n.Source)
	}
	if cs, ok := p.anonStyle[id]; ok {
		return cs
	}
	cs := anonymousStyle(p.styled.Style(n.Parent))
	p.anonStyle[id] = cs
	return cs
}

func (p *pass) source(id dom.NodeId) *dom.NodeData {
	src := p.anon.FromAnon(id)
	if src < 0 {
		return nil
	}
	return p.styled.Dom.Ptr(src)
}

func (p *pass) parentStyle(id dom.NodeId) *style.ComputedStyle {
	parent, ok := p.anon.Node(id).Parent()
	if !ok {
		return nil
	}
	return p.style(parent)
}

func isFlexDisplay(d css.Display) bool {
	return d == css.DisplayFlex || d == css.DisplayInlineFlex
}

// isFlexItem reports whether id is laid out by a flex container.
func (p *pass) isFlexItem(id dom.NodeId) bool {
	ps := p.parentStyle(id)
	return ps != nil && isFlexDisplay(ps.Display()) && !p.style(id).IsOutOfFlow()
}

// kindOf classifies a box. Floats, out-of-flow boxes, flex items and the
// root are blockified.
func (p *pass) kindOf(id dom.NodeId, cs *style.ComputedStyle) BoxKind {
	n := p.source(id)
	if n == nil {
		return BoxAnonymous
	}
	switch n.Type {
	case dom.NodeText:
		return BoxText
	case dom.NodeBr:
		return BoxBreak
	case dom.NodeImg, dom.NodeIFrame, dom.NodeGL:
		return BoxReplaced
	}
	d := cs.Display()
	if p.anon.IsRoot(id) || cs.Float() != css.FloatNone || cs.IsOutOfFlow() || p.isFlexItem(id) {
		if isFlexDisplay(d) {
			return BoxFlex
		}
		return BoxBlock
	}
	switch d {
	case css.DisplayBlock:
		return BoxBlock
	case css.DisplayFlex:
		return BoxFlex
	case css.DisplayInlineBlock, css.DisplayInlineFlex:
		return BoxInlineBlock
	}
	return BoxInline
}

// contextOf returns the formatting context a box lays its children out in.
func (p *pass) contextOf(id dom.NodeId, cs *style.ComputedStyle) FormattingContext {
	switch p.kindOf(id, cs) {
	case BoxText, BoxBreak, BoxReplaced, BoxInline:
		return ContextNone
	}
	if isFlexDisplay(cs.Display()) && p.anon.FromAnon(id) >= 0 {
		return ContextFlex
	}
	for c := range p.anon.Children(id) {
		ccs := p.style(c)
		if ccs.IsOutOfFlow() || ccs.Float() != css.FloatNone {
			continue
		}
		switch p.kindOf(c, ccs) {
		case BoxBlock, BoxAnonymous, BoxFlex:
			return ContextBlock
		case BoxReplaced:
			if ccs.Display() == css.DisplayBlock {
				return ContextBlock
			}
		}
		return ContextInline
	}
	return ContextBlock
}

// establishesBFC reports whether the box's children are isolated from
// outer floats.
func (p *pass) establishesBFC(id dom.NodeId, cs *style.ComputedStyle) bool {
	if p.anon.IsRoot(id) || cs.Float() != css.FloatNone || cs.IsOutOfFlow() || cs.ClipsContent() || p.isFlexItem(id) {
		return true
	}
	switch p.kindOf(id, cs) {
	case BoxInlineBlock, BoxFlex, BoxReplaced:
		return true
	}
	return false
}

// newNode appends a node for the AnonDom node id under parent.
func (p *pass) newNode(id dom.NodeId, parent int) int {
	t := p.tree
	t.Nodes = append(t.Nodes, Node{
		Dom:     p.anon.FromAnon(id),
		Anon:    id,
		Parent:  parent,
		IfcRoot: -1,
	})
	idx := len(t.Nodes) - 1
	if parent >= 0 {
		t.Nodes[parent].Children = append(t.Nodes[parent].Children, idx)
	}
	t.Stats.Laid++
	return idx
}

func (p *pass) node(i int) *Node { return &p.tree.Nodes[i] }

// finalize computes tree coordinates for the subtree of i from offsets.
func (p *pass) finalize(i int) {
	n := p.node(i)
	origin := n.Offset
	if n.Parent >= 0 {
		origin = origin.Add(p.node(n.Parent).Rect.Origin())
	}
	n.Rect.X, n.Rect.Y = origin.X, origin.Y
	for _, c := range n.Children {
		p.finalize(c)
	}
}

// computeOverflow unions border boxes bottom-up. Children always follow
// their parent in Nodes.
func (p *pass) computeOverflow() {
	nodes := p.tree.Nodes
	for i := range nodes {
		nodes[i].Overflow = nodes[i].Rect
	}
	for i := len(nodes) - 1; i > 0; i-- {
		if parent := nodes[i].Parent; parent >= 0 {
			nodes[parent].Overflow = nodes[parent].Overflow.Union(nodes[i].Overflow)
		}
	}
}

// relativeOffset resolves top/left/bottom/right for position:relative.
func relativeOffset(cs *style.ComputedStyle, cbWidth, cbHeight float64) geom.Point {
	if cs.Position() != css.PositionRelative {
		return geom.Point{}
	}
	var d geom.Point
	switch {
	case !cs.IsAuto(css.PropLeft):
		d.X = cs.ResolveLength(css.PropLeft, cbWidth, 0)
	case !cs.IsAuto(css.PropRight):
		d.X = -cs.ResolveLength(css.PropRight, cbWidth, 0)
	}
	switch {
	case !cs.IsAuto(css.PropTop):
		d.Y = cs.ResolveLength(css.PropTop, max(cbHeight, 0), 0)
	case !cs.IsAuto(css.PropBottom):
		d.Y = -cs.ResolveLength(css.PropBottom, max(cbHeight, 0), 0)
	}
	return d
}
