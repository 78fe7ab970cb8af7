package layout

import (
	"styledom/pkg/css"
	"styledom/pkg/dom"
	"styledom/pkg/geom"
)

// BoxKind tags what a layout node is.
type BoxKind uint8

const (
	BoxBlock BoxKind = iota
	// BoxAnonymous wraps a run of inline content among block siblings.
	BoxAnonymous
	BoxInline
	BoxInlineBlock
	BoxFlex
	BoxText
	// BoxReplaced is an image, iframe or GL surface.
	BoxReplaced
	BoxBreak
)

var boxKindNames = [...]string{"block", "anonymous", "inline", "inline-block", "flex", "text", "replaced", "break"}

func (k BoxKind) String() string {
	if int(k) < len(boxKindNames) {
		return boxKindNames[k]
	}
	return "?"
}

// IsAtomicInline reports whether the box is laid out as one unit inside a
// line.
func (k BoxKind) IsAtomicInline() bool { return k == BoxInlineBlock }

// FormattingContext is the context a box lays its children out in.
type FormattingContext uint8

const (
	ContextNone FormattingContext = iota
	ContextBlock
	ContextInline
	ContextFlex
)

func (c FormattingContext) String() string {
	switch c {
	case ContextBlock:
		return "bfc"
	case ContextInline:
		return "ifc"
	case ContextFlex:
		return "ffc"
	}
	return "-"
}

// Node is one box of a layout tree.
type Node struct {
	// Dom is the source node, or -1 for anonymous boxes.
	Dom dom.NodeId
	// Anon is the node's id in the tree's AnonDom.
	Anon    dom.NodeId
	Kind    BoxKind
	Context FormattingContext
	// NewBFC is set on boxes whose children do not see outer floats.
	NewBFC bool

	Parent   int
	Children []int

	// Offset is the border box position relative to the parent's border box.
	Offset geom.Point
	// Rect is the border box in tree coordinates.
	Rect    geom.Rect
	Margin  geom.Edges
	Border  geom.Edges
	Padding geom.Edges
	// Baseline is the first baseline from the top of the border box.
	Baseline float64

	Position css.PositionType
	Float    css.FloatType

	// Inline holds the laid out text of inline formatting context roots,
	// in content box coordinates.
	Inline *CachedInlineLayout
	// IfcRoot is the index of the enclosing inline formatting context root
	// for its members, -1 otherwise.
	IfcRoot int

	// Overflow is the union of the border boxes in the subtree.
	Overflow geom.Rect
	// ContainsFloats is set when floats of the node's subtree belong to an
	// outer block formatting context.
	ContainsFloats bool

	// input records what the node was laid out for; a relayout reuses the
	// subtree only for an equal input.
	input sizing
	// bottom is the collapsed margin leaving the box at its bottom edge.
	bottom          marginAcc
	collapseThrough bool
	// floatSensitive is set when outer floats shaped the subtree.
	floatSensitive bool
	// escapingAbs is set when an out-of-flow descendant is positioned
	// against a box outside the subtree.
	escapingAbs bool
	// bfcRoot and bfcOrigin place the content box in the float space of
	// the formatting context the box takes part in.
	bfcRoot   dom.NodeId
	bfcOrigin geom.Point
	// exclusion is the float's margin box in the float space of
	// exclusionRoot.
	exclusion     Exclusion
	exclusionRoot dom.NodeId
}

// ContentBox returns the content box in tree coordinates.
func (n *Node) ContentBox() geom.Rect {
	return n.Rect.ShrunkBy(n.Border.Add(n.Padding))
}

// MarginBox returns the margin box in tree coordinates.
func (n *Node) MarginBox() geom.Rect {
	return n.Rect.ExpandedBy(n.Margin)
}

// IsIfcMember reports whether the node's geometry comes from an inline
// layout.
func (n *Node) IsIfcMember() bool { return n.IfcRoot >= 0 }

// IsAnonymous reports whether the node has no source node.
func (n *Node) IsAnonymous() bool { return n.Dom < 0 }

// MinMaxSizes are the intrinsic inline sizes of a box's content.
type MinMaxSizes struct {
	MinContentSize float64
	MaxContentSize float64
}

// ShrinkToFit clamps available between the intrinsic sizes.
func (m MinMaxSizes) ShrinkToFit(available float64) float64 {
	return min(max(m.MinContentSize, available), m.MaxContentSize)
}

// Stats counts the work done by the last layout pass.
type Stats struct {
	// Laid is the number of boxes laid out.
	Laid int
	// Reused is the number of boxes copied from the previous tree.
	Reused int
	// Shaped is the number of inline formatting contexts that were shaped.
	Shaped int
	// InlineCacheHits counts inline layouts reused without shaping.
	InlineCacheHits int
	// Full is set when the pass rebuilt every box.
	Full bool
}
