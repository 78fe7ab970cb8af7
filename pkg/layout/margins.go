package layout

import (
	"styledom/pkg/css"
	"styledom/pkg/dom"
	"styledom/pkg/style"
)

// collapseMargins returns the collapsed margin value for two adjoining vertical margins.
// Per CSS 2.1: both positive => max, both negative => most negative, mixed => sum.
func collapseMargins(margin1, margin2 float64) float64 {
	return marginAcc{}.add(margin1).add(margin2).value()
}

// marginAcc is a set of adjoining margins that collapse into one: the
// largest positive plus the most negative.
type marginAcc struct {
	pos, neg float64
}

func (m marginAcc) add(v float64) marginAcc {
	if v > m.pos {
		m.pos = v
	}
	if v < m.neg {
		m.neg = v
	}
	return m
}

func (m marginAcc) merge(o marginAcc) marginAcc {
	return m.add(o.pos).add(o.neg)
}

func (m marginAcc) value() float64 { return m.pos + m.neg }

// shouldCollapseMargins returns true if the box participates in normal margin collapsing.
// Floated, absolutely/fixed positioned, inline-level, flex and overflow!=visible boxes do not
// collapse with their children.
func (p *pass) shouldCollapseMargins(id dom.NodeId, cs *style.ComputedStyle) bool {
	if p.anon.IsRoot(id) {
		return false
	}
	if cs.Float() != css.FloatNone || cs.IsOutOfFlow() || cs.ClipsContent() {
		return false
	}
	switch p.kindOf(id, cs) {
	case BoxBlock, BoxAnonymous:
		return p.contextOf(id, cs) != ContextFlex
	}
	return false
}

// parentCanCollapseTopMargin returns true if nothing separates the box's top
// margin from its first child's top margin.
func (p *pass) parentCanCollapseTopMargin(id dom.NodeId, cs *style.ComputedStyle) bool {
	if !p.shouldCollapseMargins(id, cs) || p.contextOf(id, cs) != ContextBlock {
		return false
	}
	return cs.BorderWidth(style.SideTop) == 0 && cs.ResolveLength(css.PropPaddingTop, 0, 0) == 0
}

// parentCanCollapseBottomMargin returns true if nothing separates the box's
// bottom margin from its last child's bottom margin.
func (p *pass) parentCanCollapseBottomMargin(id dom.NodeId, cs *style.ComputedStyle) bool {
	if !p.shouldCollapseMargins(id, cs) || p.contextOf(id, cs) != ContextBlock {
		return false
	}
	if !cs.IsAuto(css.PropHeight) || cs.ResolveLength(css.PropMinHeight, 0, 0) > 0 {
		return false
	}
	return cs.BorderWidth(style.SideBottom) == 0 && cs.ResolveLength(css.PropPaddingBottom, 0, 0) == 0
}

// firstInFlowChild returns the first child taking part in the normal flow.
func (p *pass) firstInFlowChild(id dom.NodeId) (dom.NodeId, bool) {
	for c := range p.anon.Children(id) {
		cs := p.style(c)
		if cs.IsOutOfFlow() || cs.Float() != css.FloatNone {
			continue
		}
		return c, true
	}
	return -1, false
}

// topChain returns the margins adjoining the top border edge of id: its own
// top margin and, while nothing separates them, those of its first in-flow
// descendants. It only reads styles, so a parent can place a child before
// laying it out.
func (p *pass) topChain(id dom.NodeId, cbWidth float64) marginAcc {
	cs := p.style(id)
	acc := marginAcc{}.add(cs.ResolveLength(css.PropMarginTop, cbWidth, 0))
	if !p.parentCanCollapseTopMargin(id, cs) {
		return acc
	}
	first, ok := p.firstInFlowChild(id)
	if !ok {
		return acc
	}
	return acc.merge(p.topChain(first, cbWidth))
}
