package layout

import (
	"math"
	"slices"

	"go.uber.org/zap"

	"styledom/pkg/css"
	"styledom/pkg/diff"
	"styledom/pkg/dom"
	"styledom/pkg/geom"
	"styledom/pkg/style"
)

// Invalidation tells a relayout what changed since the previous tree.
// Scopes are keyed by new node ids. Previous maps new ids to old ones and
// Migration old ids to new ones; both are nil when ids did not change.
type Invalidation struct {
	Scopes    map[dom.NodeId]css.RelayoutScope
	Previous  map[dom.NodeId]dom.NodeId
	Migration map[dom.NodeId]dom.NodeId
}

// InvalidationFrom collects the scopes of a frame's accumulated changes.
// res may be nil when the DOM was not rebuilt.
func InvalidationFrom(acc *diff.ChangeAccumulator, res *diff.Result) Invalidation {
	inv := Invalidation{Scopes: map[dom.NodeId]css.RelayoutScope{}}
	if acc != nil {
		for id, r := range acc.PerNode {
			if r.Scope > css.ScopeNone {
				inv.Scopes[id] = r.Scope
			}
		}
		for _, id := range acc.Mounted {
			inv.Scopes[id] = css.ScopeFull
		}
	}
	if res != nil && !res.IsIdentity() {
		inv.Previous, inv.Migration = res.Previous(), res.Migration()
	}
	return inv
}

// Identity reports whether node ids are unchanged.
func (inv Invalidation) Identity() bool { return inv.Previous == nil }

// MaxScope is the widest scope of any node.
func (inv Invalidation) MaxScope() css.RelayoutScope {
	scope := css.ScopeNone
	for _, s := range inv.Scopes {
		scope = css.MaxScope(scope, s)
	}
	return scope
}

// Relayout lays out s again, reusing what it can of prev, the tree of the
// previous frame. The result equals a fresh layout of s.
//
// Without changes prev is returned as is. When only text inside inline
// formatting contexts changed, those contexts alone are laid out again as
// long as their height stays the same. Otherwise a full pass runs that
// copies every clean subtree laid out for the same constraints and not
// shaped by floats.
func (e *Engine) Relayout(prev *Tree, s *style.StyledDom, viewport geom.Size, inv Invalidation) *Tree {
	if prev.Root() == nil {
		return e.Layout(s, viewport)
	}
	scope := inv.MaxScope()
	if inv.Identity() && scope == css.ScopeNone && viewport == prev.Viewport && prev.Styled != nil && prev.Styled.Len() == s.Len() {
		t := *prev
		t.Styled = s
		t.Stats = Stats{Reused: len(prev.Nodes)}
		e.finish(&t)
		return &t
	}
	if inv.Identity() && scope == css.ScopeIfcOnly && viewport == prev.Viewport {
		if t := e.relayoutInline(prev, s, inv); t != nil {
			e.finish(t)
			return t
		}
		e.logger.Debug("inline relayout changed block geometry, running full pass")
	}
	e.floats.Clear()
	p := e.newPass(s, viewport, nil)
	p.reuse = p.newReuseSet(prev, inv)
	t := p.run()
	e.finish(t)
	return t
}

// reuseSet answers which subtrees of the previous tree a pass may copy.
type reuseSet struct {
	prev *Tree
	inv  Invalidation
	// prevByAnon maps previous AnonDom ids to previous tree indices.
	prevByAnon []int
	// subtreeDirty is indexed by new AnonDom id.
	subtreeDirty []bool
	// fullRoot marks formatting context roots inside which nothing is
	// reused.
	fullRoot []bool
	counters *CounterCache
}

func (p *pass) newReuseSet(prev *Tree, inv Invalidation) *reuseSet {
	rs := &reuseSet{
		prev:         prev,
		inv:          inv,
		prevByAnon:   make([]int, prev.Anon.Len()),
		subtreeDirty: make([]bool, p.anon.Len()),
		fullRoot:     make([]bool, p.anon.Len()),
	}
	for i := range rs.prevByAnon {
		rs.prevByAnon[i] = -1
	}
	for i := range prev.Nodes {
		rs.prevByAnon[prev.Nodes[i].Anon] = i
	}
	// AnonDom ids are assigned in preorder, so children follow parents.
	for a := p.anon.Len() - 1; a >= 0; a-- {
		id := dom.NodeId(a)
		scope := css.ScopeNone
		if src := p.anon.FromAnon(id); src >= 0 {
			scope = inv.Scopes[src]
		}
		if scope > css.ScopeNone {
			rs.subtreeDirty[a] = true
		}
		if scope == css.ScopeFull {
			rs.fullRoot[p.bfcRootOf(id)] = true
		}
		if parent, ok := p.anon.Node(id).Parent(); ok && rs.subtreeDirty[a] {
			rs.subtreeDirty[parent] = true
		}
	}
	if inv.Identity() && inv.MaxScope() < css.ScopeFull {
		rs.counters = prev.Counters
	}
	p.e.logger.Debug("relayout",
		zap.Int("dirty", len(inv.Scopes)),
		zap.Stringer("scope", inv.MaxScope()),
		zap.Bool("identity", inv.Identity()))
	return rs
}

// bfcRootOf returns the nearest proper ancestor of id that establishes a
// block formatting context.
func (p *pass) bfcRootOf(id dom.NodeId) dom.NodeId {
	for a, ok := p.anon.Node(id).Parent(); ok; a, ok = p.anon.Node(a).Parent() {
		if p.establishesBFC(a, p.style(a)) {
			return a
		}
	}
	return 0
}

func (rs *reuseSet) toNew(old dom.NodeId) (dom.NodeId, bool) {
	if rs.inv.Identity() {
		return old, true
	}
	id, ok := rs.inv.Migration[old]
	return id, ok
}

func (rs *reuseSet) toOld(id dom.NodeId) (dom.NodeId, bool) {
	if rs.inv.Identity() {
		return id, true
	}
	old, ok := rs.inv.Previous[id]
	return old, ok
}

// wrapper finds the anonymous block with the given ordinal under a source
// node.
func wrapper(a *AnonDom, parent dom.NodeId, ordinal int) (dom.NodeId, bool) {
	if int(parent) < 0 || int(parent) >= len(a.ToAnon) || a.ToAnon[parent] < 0 {
		return 0, false
	}
	for c := range a.Children(a.ToAnon[parent]) {
		if n := a.Get(c); n.Source < 0 && n.Ordinal == ordinal {
			return c, true
		}
	}
	return 0, false
}

func anonOf(a *AnonDom, src dom.NodeId) (dom.NodeId, bool) {
	if int(src) < 0 || int(src) >= len(a.ToAnon) || a.ToAnon[src] < 0 {
		return 0, false
	}
	return a.ToAnon[src], true
}

// mapAnon translates a previous AnonDom id to the current AnonDom.
func (p *pass) mapAnon(prevAnon dom.NodeId) (dom.NodeId, bool) {
	rs := p.reuse
	pa := rs.prev.Anon.Get(prevAnon)
	if pa.Source >= 0 {
		src, ok := rs.toNew(pa.Source)
		if !ok {
			return 0, false
		}
		return anonOf(p.anon, src)
	}
	parent, ok := rs.toNew(pa.Parent)
	if !ok {
		return 0, false
	}
	return wrapper(p.anon, parent, pa.Ordinal)
}

// prevIndex returns the previous tree index of a current AnonDom node, -1
// when it had no box.
func (p *pass) prevIndex(id dom.NodeId) int {
	rs := p.reuse
	n := p.anon.Get(id)
	var prevAnon dom.NodeId
	var ok bool
	if n.Source >= 0 {
		var old dom.NodeId
		if old, ok = rs.toOld(n.Source); ok {
			prevAnon, ok = anonOf(rs.prev.Anon, old)
		}
	} else {
		var old dom.NodeId
		if old, ok = rs.toOld(n.Parent); ok {
			prevAnon, ok = wrapper(rs.prev.Anon, old, n.Ordinal)
		}
	}
	if !ok || int(prevAnon) >= len(rs.prevByAnon) {
		return -1
	}
	return rs.prevByAnon[prevAnon]
}

// prevInline returns the previous inline layout of an inline formatting
// context root.
func (p *pass) prevInline(id dom.NodeId) *CachedInlineLayout {
	if p.reuse == nil {
		return nil
	}
	i := p.prevIndex(id)
	if i < 0 {
		return nil
	}
	c := p.reuse.prev.Nodes[i].Inline
	if c == nil || p.reuse.inv.Identity() {
		return c
	}
	return p.migrateInline(c)
}

// migrateInline rewrites the node ids of a cached inline layout to the
// current DOM.
func (p *pass) migrateInline(c *CachedInlineLayout) *CachedInlineLayout {
	content := slices.Clone(c.Content)
	for i := range content {
		content[i].Node, _ = p.reuse.toNew(content[i].Node)
	}
	u := *c.Layout
	u.Items = slices.Clone(u.Items)
	for i := range u.Items {
		u.Items[i].Item.Node, _ = p.reuse.toNew(u.Items[i].Item.Node)
	}
	return &CachedInlineLayout{Content: content, Constraints: c.Constraints, Layout: &u}
}

// sameShape reports whether the previous subtree at index i maps node for
// node onto the current AnonDom subtree of id.
func (p *pass) sameShape(i int, id dom.NodeId) bool {
	prev := p.reuse.prev
	pn := &prev.Nodes[i]
	if prev.Anon.ChildCount(pn.Anon) != p.anon.ChildCount(id) {
		return false
	}
	for _, c := range pn.Children {
		ca, ok := p.mapAnon(prev.Nodes[c].Anon)
		if !ok || p.reuse.subtreeDirty[ca] || !p.sameShape(c, ca) {
			return false
		}
	}
	return true
}

// tryReuse copies the previous layout of id when nothing in its subtree
// changed, it is asked for the same size and floats cannot reach it.
func (p *pass) tryReuse(id dom.NodeId, parent int, sz sizing, bfc *bfcCtx, at, origin geom.Point) (boxResult, bool) {
	rs := p.reuse
	if rs == nil || p.noReuse > 0 || rs.subtreeDirty[id] {
		return boxResult{}, false
	}
	pi := p.prevIndex(id)
	if pi < 0 {
		return boxResult{}, false
	}
	pn := &rs.prev.Nodes[pi]
	switch {
	case pn.input != sz, pn.floatSensitive, pn.ContainsFloats, pn.escapingAbs, pn.Float != css.FloatNone:
		return boxResult{}, false
	case bfc == nil && !pn.NewBFC:
		return boxResult{}, false
	case bfc != nil && !pn.NewBFC && !bfc.space.IsEmpty():
		return boxResult{}, false
	case !p.sameShape(pi, id):
		return boxResult{}, false
	}

	c := copier{p: p, remap: map[int]int{}}
	bp := pn.Border.Add(pn.Padding)
	if !pn.NewBFC {
		c.outerOld, c.outerNew = pn.bfcRoot, bfc.root
		c.delta = origin.Add(geom.Point{X: at.X + pn.Margin.Left + bp.Left, Y: at.Y + bp.Top})
		c.delta = geom.Point{X: c.delta.X - pn.bfcOrigin.X, Y: c.delta.Y - pn.bfcOrigin.Y}
		c.shared = true
	}
	idx := c.copy(pi, id, parent)

	n := p.node(idx)
	n.IfcRoot = -1
	n.Offset = geom.Point{X: at.X + n.Margin.Left, Y: at.Y}
	if parent >= 0 {
		ppn := p.node(parent)
		n.Offset = n.Offset.Add(geom.Point{X: ppn.Border.Left + ppn.Padding.Left, Y: ppn.Border.Top + ppn.Padding.Top})
	}
	n.Offset = n.Offset.Add(relativeOffset(p.style(id), sz.cbWidth, sz.cbHeight))
	return boxResult{idx: idx, bottom: pn.bottom, collapseThrough: pn.collapseThrough}, true
}

// copier copies a previous subtree into the current tree.
type copier struct {
	p     *pass
	remap map[int]int
	// shared is set when the subtree lays out in an outer block formatting
	// context; its nodes move by delta in that context's float space.
	shared             bool
	outerOld, outerNew dom.NodeId
	delta              geom.Point
}

func (c *copier) copy(pi int, id dom.NodeId, parent int) int {
	p := c.p
	prev := p.reuse.prev
	src := &prev.Nodes[pi]
	n := *src
	n.Dom, n.Anon, n.Parent, n.Children = p.anon.FromAnon(id), id, parent, nil
	if n.IfcRoot >= 0 {
		n.IfcRoot = c.remap[src.IfcRoot]
	}
	if c.shared && src.bfcRoot == c.outerOld {
		n.bfcRoot = c.outerNew
		n.bfcOrigin = n.bfcOrigin.Add(c.delta)
	} else if a, ok := p.mapAnon(src.bfcRoot); ok {
		n.bfcRoot = a
	}
	if n.Inline != nil && !p.reuse.inv.Identity() {
		n.Inline = p.migrateInline(n.Inline)
	}
	p.tree.Nodes = append(p.tree.Nodes, n)
	idx := len(p.tree.Nodes) - 1
	c.remap[pi] = idx
	if parent >= 0 {
		p.tree.Nodes[parent].Children = append(p.tree.Nodes[parent].Children, idx)
	}
	p.tree.Stats.Reused++
	if n.NewBFC {
		p.e.floats.Drop(id)
	}
	if n.Float != css.FloatNone {
		if root, ok := p.mapAnon(src.exclusionRoot); ok {
			ex := src.exclusion
			ex.Node = idx
			p.tree.Nodes[idx].exclusion, p.tree.Nodes[idx].exclusionRoot = ex, root
			p.e.floats.Add(root, ex)
		}
	}
	for _, child := range src.Children {
		ca, _ := p.mapAnon(prev.Nodes[child].Anon)
		c.copy(child, ca, idx)
	}
	return idx
}

// relayoutInline lays out again only the inline formatting contexts with
// changed content. It returns nil when the change reaches block geometry:
// a context's height or first baseline moved, or its content holds floats
// or out-of-flow boxes.
func (e *Engine) relayoutInline(prev *Tree, s *style.StyledDom, inv Invalidation) *Tree {
	p := e.newPass(s, prev.Viewport, nil)
	if !sameAnon(p.anon, prev.Anon) {
		return nil
	}
	var roots []int
	for id, scope := range inv.Scopes {
		if scope != css.ScopeIfcOnly {
			continue
		}
		i := prev.IndexOf(id)
		if i < 0 {
			return nil
		}
		if n := &prev.Nodes[i]; n.IfcRoot >= 0 {
			i = n.IfcRoot
		}
		if prev.Nodes[i].Inline == nil {
			return nil
		}
		roots = append(roots, i)
	}
	slices.Sort(roots)
	roots = slices.Compact(roots)

	t := prev.clone()
	t.Styled = s
	t.Stats = Stats{}
	p.tree = t
	for _, r := range roots {
		if !p.relayoutIfc(r) {
			return nil
		}
	}
	t.compact()
	t.cacheFloats(e.floats)
	p.computeOverflow()
	t.index()
	t.Stats.Reused = len(t.Nodes) - t.Stats.Laid
	return t
}

// relayoutIfc replaces the members of the inline formatting context root
// r and reports whether its box kept its size and baseline.
func (p *pass) relayoutIfc(r int) bool {
	n := p.node(r)
	if n.Kind == BoxInlineBlock || n.IsIfcMember() || (n.Dom >= 0 && p.styled.Style(n.Dom).IsOutOfFlow()) {
		return false
	}
	for _, c := range n.Children {
		if cn := p.node(c); cn.Float != css.FloatNone || cn.Position == css.PositionAbsolute || cn.Position == css.PositionFixed {
			return false
		}
	}
	cs := p.style(n.Anon)
	bp := n.Border.Add(n.Padding)
	height, baseline := n.Rect.Height, n.Baseline

	// Floats placed before this context in its formatting context.
	space := NewExclusionSpace()
	for _, ex := range p.e.floats.Space(n.bfcRoot, n.bfcOrigin.Y, math.Inf(1)).Exclusions() {
		if ex.Node < r {
			space = space.Add(ex)
		}
	}
	n.Children = nil
	bfc := &bfcCtx{root: n.bfcRoot, node: r, space: space}
	contentH := p.layoutInline(r, n.Anon, n.Rect.Width-bp.Horizontal(), bfc, n.bfcOrigin)

	n = p.node(r)
	h, ok := specifiedHeight(cs, n.input.cbHeight, bp)
	if !ok {
		h = contentH
	}
	h = clampHeight(cs, h, n.input.cbHeight, bp)
	if abs(h+bp.Vertical()-height) > epsilon || abs(n.Baseline-baseline) > epsilon {
		return false
	}
	p.finalize(r)
	return true
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func sameAnon(a, b *AnonDom) bool {
	if a.Len() != b.Len() || !slices.Equal(a.Data(), b.Data()) {
		return false
	}
	for i := range a.Len() {
		pa, oka := a.Node(dom.NodeId(i)).Parent()
		pb, okb := b.Node(dom.NodeId(i)).Parent()
		if pa != pb || oka != okb {
			return false
		}
	}
	return true
}

// cacheFloats replaces the cached floats with the floats of t.
func (t *Tree) cacheFloats(fc *FloatCache) {
	fc.Clear()
	for i := range t.Nodes {
		if n := &t.Nodes[i]; n.Float != css.FloatNone {
			fc.Add(n.exclusionRoot, n.exclusion)
		}
	}
}

func (t *Tree) clone() *Tree {
	c := *t
	c.Nodes = slices.Clone(t.Nodes)
	for i := range c.Nodes {
		c.Nodes[i].Children = slices.Clone(c.Nodes[i].Children)
	}
	return &c
}

// compact drops unreachable nodes and renumbers the rest in preorder.
func (t *Tree) compact() {
	remap := make([]int, len(t.Nodes))
	for i := range remap {
		remap[i] = -1
	}
	var order []int
	var visit func(i int)
	visit = func(i int) {
		remap[i] = len(order)
		order = append(order, i)
		for _, c := range t.Nodes[i].Children {
			visit(c)
		}
	}
	visit(0)
	nodes := make([]Node, len(order))
	for k, i := range order {
		n := t.Nodes[i]
		if n.Parent >= 0 {
			n.Parent = remap[n.Parent]
		}
		if n.IfcRoot >= 0 {
			n.IfcRoot = remap[n.IfcRoot]
		}
		children := make([]int, len(n.Children))
		for j, c := range n.Children {
			children[j] = remap[c]
		}
		n.Children = children
		if n.Float != css.FloatNone {
			n.exclusion.Node = k
		}
		nodes[k] = n
	}
	t.Nodes = nodes
}
