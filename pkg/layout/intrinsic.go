package layout

import (
	"styledom/pkg/css"
	"styledom/pkg/dom"
	"styledom/pkg/geom"
)

// intrinsicSizes returns the min-content and max-content widths of the
// content box of id. Results are memoized for the pass.
func (p *pass) intrinsicSizes(id dom.NodeId) MinMaxSizes {
	if m, ok := p.intrinsic[id]; ok {
		return m
	}
	cs := p.style(id)
	var m MinMaxSizes
	switch ctx := p.contextOf(id, cs); {
	case p.kindOf(id, cs) == BoxReplaced:
		w, _ := p.replacedSize(id, cs, 0, -1)
		m = MinMaxSizes{w, w}
	case ctx == ContextInline:
		// Atomic inlines count with their max-content contribution.
		content := p.inlineContent(id, func(c dom.NodeId) (geom.Size, float64) {
			return geom.Size{Width: p.contribution(c, 0).MaxContentSize}, 0
		})
		lo, hi := p.e.text.IntrinsicWidths(content, p.inlineConstraints(cs, 0, nil))
		m = MinMaxSizes{lo, hi}
	case ctx == ContextFlex:
		row := !cs.FlexDirection().IsColumn()
		wrap := cs.FlexWrap() != css.FlexWrapNoWrap
		for c := range p.anon.Children(id) {
			if p.style(c).IsOutOfFlow() {
				continue
			}
			cm := p.contribution(c, 0)
			if row {
				m.MaxContentSize += cm.MaxContentSize
				if wrap {
					m.MinContentSize = max(m.MinContentSize, cm.MinContentSize)
				} else {
					m.MinContentSize += cm.MinContentSize
				}
				continue
			}
			m.MinContentSize = max(m.MinContentSize, cm.MinContentSize)
			m.MaxContentSize = max(m.MaxContentSize, cm.MaxContentSize)
		}
	default:
		for c := range p.anon.Children(id) {
			if p.style(c).IsOutOfFlow() {
				continue
			}
			cm := p.contribution(c, 0)
			m.MinContentSize = max(m.MinContentSize, cm.MinContentSize)
			m.MaxContentSize = max(m.MaxContentSize, cm.MaxContentSize)
		}
	}
	m.MaxContentSize = max(m.MinContentSize, m.MaxContentSize)
	p.intrinsic[id] = m
	return m
}

// contribution returns the margin box widths of id at its min-content and
// max-content sizes. Percentage widths behave as auto.
func (p *pass) contribution(id dom.NodeId, cbWidth float64) MinMaxSizes {
	cs := p.style(id)
	bp := cs.Border().Add(cs.Padding(cbWidth))
	outer := bp.Horizontal() + cs.Margin(cbWidth).Horizontal()
	if p.kindOf(id, cs) != BoxReplaced && !isPercent(cs, css.PropWidth) {
		if w, ok := specifiedWidth(cs, cbWidth, bp); ok {
			w = clampWidth(cs, w, cbWidth, bp)
			return MinMaxSizes{w + outer, w + outer}
		}
	}
	m := p.intrinsicSizes(id)
	return MinMaxSizes{
		MinContentSize: clampWidth(cs, m.MinContentSize, cbWidth, bp) + outer,
		MaxContentSize: clampWidth(cs, m.MaxContentSize, cbWidth, bp) + outer,
	}
}
