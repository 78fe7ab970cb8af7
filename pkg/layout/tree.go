package layout

import (
	"fmt"
	"strings"

	"github.com/xlab/treeprint"

	"styledom/pkg/dom"
	"styledom/pkg/geom"
	"styledom/pkg/style"
)

// Tree is the result of a layout pass. Nodes[0] is the root box; children
// always follow their parent.
type Tree struct {
	Nodes    []Node
	Anon     *AnonDom
	Styled   *style.StyledDom
	Viewport geom.Size
	Counters *CounterCache
	// Fragment is set on the pages and columns of a fragmented layout.
	Fragment *FragmentInfo
	Stats    Stats

	byDom []int
}

// FragmentInfo places a fragment in the flow it was cut from.
type FragmentInfo struct {
	Index  int
	Page   int
	Column int
	// Start and End delimit the flow slice, in continuous layout coordinates.
	Start, End float64
}

func (t *Tree) index() {
	n := 0
	if t.Styled != nil {
		n = t.Styled.Len()
	}
	t.byDom = make([]int, n)
	for i := range t.byDom {
		t.byDom[i] = -1
	}
	for i := range t.Nodes {
		if d := t.Nodes[i].Dom; d >= 0 && int(d) < n {
			t.byDom[d] = i
		}
	}
}

// Root returns the root box, nil for an empty tree.
func (t *Tree) Root() *Node {
	if t == nil || len(t.Nodes) == 0 {
		return nil
	}
	return &t.Nodes[0]
}

// NodeOf returns the box of a source node.
func (t *Tree) NodeOf(id dom.NodeId) (*Node, bool) {
	i := t.IndexOf(id)
	if i < 0 {
		return nil, false
	}
	return &t.Nodes[i], true
}

// IndexOf returns the index of the box of a source node, -1 without one.
func (t *Tree) IndexOf(id dom.NodeId) int {
	if t == nil || int(id) < 0 || int(id) >= len(t.byDom) {
		return -1
	}
	return t.byDom[id]
}

// Bounds returns the border box of a source node.
func (t *Tree) Bounds(id dom.NodeId) (geom.Rect, bool) {
	n, ok := t.NodeOf(id)
	if !ok {
		return geom.Rect{}, false
	}
	return n.Rect, true
}

// BoundsMap returns the border box of every laid out source node.
func (t *Tree) BoundsMap() map[dom.NodeId]geom.Rect {
	out := map[dom.NodeId]geom.Rect{}
	if t == nil {
		return out
	}
	for i := range t.Nodes {
		if d := t.Nodes[i].Dom; d >= 0 {
			out[d] = t.Nodes[i].Rect
		}
	}
	return out
}

// IsIfcMember reports whether a source node is laid out by an inline
// formatting context.
func (t *Tree) IsIfcMember(id dom.NodeId) bool {
	n, ok := t.NodeOf(id)
	return ok && n.IsIfcMember()
}

// Height is the bottom of everything laid out.
func (t *Tree) Height() float64 {
	r := t.Root()
	if r == nil {
		return 0
	}
	return max(r.Overflow.Bottom(), r.MarginBox().Bottom())
}

// HitTest returns the source nodes under p, innermost first. Boxes painted
// later win over earlier siblings.
func (t *Tree) HitTest(p geom.Point) []dom.NodeId {
	if t.Root() == nil {
		return nil
	}
	var path []int
	var visit func(i int) bool
	visit = func(i int) bool {
		n := &t.Nodes[i]
		if !n.Overflow.Contains(p) && !n.Rect.Contains(p) {
			return false
		}
		order := t.paintOrder(i)
		for k := len(order) - 1; k >= 0; k-- {
			if visit(order[k]) {
				path = append(path, i)
				return true
			}
		}
		if n.Rect.Contains(p) {
			path = append(path, i)
			return true
		}
		return false
	}
	visit(0)
	var out []dom.NodeId
	for _, i := range path {
		if d := t.Nodes[i].Dom; d >= 0 {
			out = append(out, d)
		}
	}
	return out
}

// Walk calls f for every box in preorder. Returning false skips the
// subtree.
func (t *Tree) Walk(f func(i int, n *Node) bool) {
	if t.Root() == nil {
		return
	}
	var visit func(i int)
	visit = func(i int) {
		if !f(i, &t.Nodes[i]) {
			return
		}
		for _, c := range t.Nodes[i].Children {
			visit(c)
		}
	}
	visit(0)
}

// Label names a box for debugging, e.g. `div [block bfc] 8,8 784x40`.
func (t *Tree) Label(i int) string {
	n := &t.Nodes[i]
	var b strings.Builder
	switch {
	case n.Dom < 0:
		b.WriteString("(anonymous)")
	case t.Styled != nil:
		b.WriteString(t.Styled.Dom.Ptr(n.Dom).Label())
	default:
		fmt.Fprintf(&b, "#%d", n.Dom)
	}
	fmt.Fprintf(&b, " [%s", n.Kind)
	if n.Context != ContextNone {
		fmt.Fprintf(&b, " %s", n.Context)
	}
	b.WriteString("]")
	fmt.Fprintf(&b, " %g,%g %gx%g", n.Rect.X, n.Rect.Y, n.Rect.Width, n.Rect.Height)
	if n.Inline != nil {
		fmt.Fprintf(&b, " lines=%d", len(n.Inline.Layout.Lines))
	}
	return b.String()
}

// DebugString prints the box tree.
func (t *Tree) DebugString() string {
	if t.Root() == nil {
		return "(empty)"
	}
	tree := treeprint.New()
	var dump func(parent treeprint.Tree, i int)
	dump = func(parent treeprint.Tree, i int) {
		if len(t.Nodes[i].Children) == 0 {
			parent.AddNode(t.Label(i))
			return
		}
		branch := parent.AddBranch(t.Label(i))
		for _, c := range t.Nodes[i].Children {
			dump(branch, c)
		}
	}
	dump(tree, 0)
	return tree.String()
}
