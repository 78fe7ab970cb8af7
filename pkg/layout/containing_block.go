package layout

import (
	"styledom/pkg/css"
	"styledom/pkg/geom"
)

// containingBlock finds the containing block of an out-of-flow box whose
// parent box is parent: the padding box of the nearest positioned
// ancestor, or the viewport for fixed boxes and when there is none. The
// index is -1 for the viewport.
func (p *pass) containingBlock(parent int, position css.PositionType) (geom.Rect, int) {
	viewport := geom.Rect{Width: p.viewport.Width, Height: p.viewport.Height}
	if position == css.PositionFixed {
		return viewport, -1
	}
	for i := parent; i >= 0; i = p.node(i).Parent {
		if n := p.node(i); n.Position != css.PositionStatic {
			return n.Rect.ShrunkBy(n.Border), i
		}
	}
	return viewport, -1
}
