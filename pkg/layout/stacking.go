package layout

import (
	"slices"

	"styledom/pkg/css"
)

// paint layers of the children of one box, back to front.
const (
	layerNegativeZ = iota
	layerBlock
	layerFloat
	layerInline
	layerPositioned
	layerPositiveZ
)

// CreatesStackingContext returns true if the box isolates the z-order of
// its descendants: positioned with a z-index, translucent or transformed.
func (t *Tree) CreatesStackingContext(i int) bool {
	n := &t.Nodes[i]
	if n.Dom < 0 || t.Styled == nil {
		return false
	}
	cs := t.Styled.Style(n.Dom)
	if _, ok := cs.ZIndex(); ok && n.Position != css.PositionStatic {
		return true
	}
	return cs.Opacity() < 1 || len(cs.Transforms()) > 0
}

// ZIndex returns the z-index of a positioned box, 0 otherwise.
func (t *Tree) ZIndex(i int) int {
	n := &t.Nodes[i]
	if n.Dom < 0 || t.Styled == nil || n.Position == css.PositionStatic {
		return 0
	}
	z, _ := t.Styled.Style(n.Dom).ZIndex()
	return z
}

func (t *Tree) layer(i int) int {
	n := &t.Nodes[i]
	switch {
	case n.Position != css.PositionStatic:
		switch z := t.ZIndex(i); {
		case z < 0:
			return layerNegativeZ
		case z > 0:
			return layerPositiveZ
		}
		return layerPositioned
	case n.Float != css.FloatNone:
		return layerFloat
	case n.IsIfcMember():
		return layerInline
	}
	return layerBlock
}

// PaintOrder returns the children of box i back to front: negative
// z-index, in-flow blocks, floats, inline content, positioned boxes and
// finally positive z-index, each group in document order and z-index
// groups sorted by z-index.
func (t *Tree) PaintOrder(i int) []int {
	return t.paintOrder(i)
}

func (t *Tree) paintOrder(i int) []int {
	children := t.Nodes[i].Children
	if len(children) < 2 {
		return children
	}
	out := slices.Clone(children)
	slices.SortStableFunc(out, func(a, b int) int {
		la, lb := t.layer(a), t.layer(b)
		if la != lb {
			return la - lb
		}
		if la == layerNegativeZ || la == layerPositiveZ {
			return t.ZIndex(a) - t.ZIndex(b)
		}
		return 0
	})
	return out
}
