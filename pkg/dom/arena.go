package dom

import (
	"fmt"
	"iter"
)

// NodeId indexes a node in an arena. Ids are dense and start at zero.
type NodeId int

// optId is the in-node encoding of an optional NodeId: 0 is "none" and
// n stands for NodeId(n-1).
type optId uint32

func some(id NodeId) optId { return optId(id + 1) }

func (o optId) get() (NodeId, bool) {
	if o == 0 {
		return 0, false
	}
	return NodeId(o - 1), true
}

// Node holds the links of one node. Links are indices, never pointers.
type Node struct {
	parent, prev, next, first, last optId
}

func (n Node) Parent() (NodeId, bool)          { return n.parent.get() }
func (n Node) PreviousSibling() (NodeId, bool) { return n.prev.get() }
func (n Node) NextSibling() (NodeId, bool)     { return n.next.get() }
func (n Node) FirstChild() (NodeId, bool)      { return n.first.get() }
func (n Node) LastChild() (NodeId, bool)       { return n.last.get() }

// Hierarchy is the link table of an arena.
type Hierarchy struct {
	nodes []Node
}

func (h *Hierarchy) Len() int { return len(h.nodes) }

// Node returns the links of id.
func (h *Hierarchy) Node(id NodeId) Node { return h.nodes[id] }

func (h *Hierarchy) push() NodeId {
	h.nodes = append(h.nodes, Node{})
	return NodeId(len(h.nodes) - 1)
}

// AppendChild links child as the last child of parent. child must be
// detached.
func (h *Hierarchy) AppendChild(parent, child NodeId) {
	p := &h.nodes[parent]
	c := &h.nodes[child]
	c.parent = some(parent)
	c.next = 0
	c.prev = p.last
	if last, ok := p.last.get(); ok {
		h.nodes[last].next = some(child)
	} else {
		p.first = some(child)
	}
	p.last = some(child)
}

// Detach unlinks id from its parent and siblings. Its subtree stays
// attached to it.
func (h *Hierarchy) Detach(id NodeId) {
	n := &h.nodes[id]
	if prev, ok := n.prev.get(); ok {
		h.nodes[prev].next = n.next
	} else if parent, ok := n.parent.get(); ok {
		h.nodes[parent].first = n.next
	}
	if next, ok := n.next.get(); ok {
		h.nodes[next].prev = n.prev
	} else if parent, ok := n.parent.get(); ok {
		h.nodes[parent].last = n.prev
	}
	n.parent, n.prev, n.next = 0, 0, 0
}

// Validate checks the link invariants and returns the first violation.
func (h *Hierarchy) Validate() error {
	seen := make([]bool, len(h.nodes))
	for i := range h.nodes {
		id := NodeId(i)
		n := h.nodes[i]
		if first, ok := n.first.get(); ok {
			if p, _ := h.nodes[first].parent.get(); p != id {
				return fmt.Errorf("node %d: first child %d has parent %d", id, first, p)
			}
			var last NodeId
			count := 0
			for c := range h.Children(id) {
				if seen[c] {
					return fmt.Errorf("node %d reachable twice", c)
				}
				seen[c] = true
				last = c
				count++
				if count > len(h.nodes) {
					return fmt.Errorf("node %d: child chain cycles", id)
				}
			}
			if l, _ := n.last.get(); l != last {
				return fmt.Errorf("node %d: last child %d, chain ends at %d", id, l, last)
			}
		}
	}
	return nil
}

// Ancestors yields the parent of id, then its parent, up to the root.
func (h *Hierarchy) Ancestors(id NodeId) iter.Seq[NodeId] {
	return func(yield func(NodeId) bool) {
		cur, ok := h.nodes[id].parent.get()
		for ok {
			if !yield(cur) {
				return
			}
			cur, ok = h.nodes[cur].parent.get()
		}
	}
}

// PrecedingSiblings yields the siblings before id, nearest first.
func (h *Hierarchy) PrecedingSiblings(id NodeId) iter.Seq[NodeId] {
	return h.chain(h.nodes[id].prev, func(n Node) optId { return n.prev })
}

// FollowingSiblings yields the siblings after id, nearest first.
func (h *Hierarchy) FollowingSiblings(id NodeId) iter.Seq[NodeId] {
	return h.chain(h.nodes[id].next, func(n Node) optId { return n.next })
}

// Children yields the children of id in document order.
func (h *Hierarchy) Children(id NodeId) iter.Seq[NodeId] {
	return h.chain(h.nodes[id].first, func(n Node) optId { return n.next })
}

// ReverseChildren yields the children of id from last to first.
func (h *Hierarchy) ReverseChildren(id NodeId) iter.Seq[NodeId] {
	return h.chain(h.nodes[id].last, func(n Node) optId { return n.prev })
}

func (h *Hierarchy) chain(start optId, step func(Node) optId) iter.Seq[NodeId] {
	return func(yield func(NodeId) bool) {
		cur, ok := start.get()
		for ok {
			if !yield(cur) {
				return
			}
			cur, ok = step(h.nodes[cur]).get()
		}
	}
}

// ChildCount returns the number of direct children of id.
func (h *Hierarchy) ChildCount(id NodeId) int {
	n := 0
	for range h.Children(id) {
		n++
	}
	return n
}

// IndexInParent returns the 1-based position of id among its siblings.
func (h *Hierarchy) IndexInParent(id NodeId) int {
	i := 1
	for range h.PrecedingSiblings(id) {
		i++
	}
	return i
}

// Descendants yields id and then its whole subtree in preorder.
func (h *Hierarchy) Descendants(id NodeId) iter.Seq[NodeId] {
	return func(yield func(NodeId) bool) {
		for edge := range h.Traverse(id) {
			if edge.Kind == EdgeStart && !yield(edge.Node) {
				return
			}
		}
	}
}

type EdgeKind uint8

const (
	EdgeStart EdgeKind = iota
	EdgeEnd
)

// NodeEdge marks entering or leaving a node during Traverse.
type NodeEdge struct {
	Kind EdgeKind
	Node NodeId
}

// Traverse walks the subtree of root emitting Start before a node's
// children and End after them, like open and close tags.
func (h *Hierarchy) Traverse(root NodeId) iter.Seq[NodeEdge] {
	return func(yield func(NodeEdge) bool) {
		if int(root) >= len(h.nodes) || root < 0 {
			return
		}
		cur := NodeEdge{Kind: EdgeStart, Node: root}
		for {
			if !yield(cur) {
				return
			}
			if cur.Kind == EdgeStart {
				if first, ok := h.nodes[cur.Node].first.get(); ok {
					cur = NodeEdge{Kind: EdgeStart, Node: first}
				} else {
					cur = NodeEdge{Kind: EdgeEnd, Node: cur.Node}
				}
				continue
			}
			if cur.Node == root {
				return
			}
			if next, ok := h.nodes[cur.Node].next.get(); ok {
				cur = NodeEdge{Kind: EdgeStart, Node: next}
			} else {
				parent, _ := h.nodes[cur.Node].parent.get()
				cur = NodeEdge{Kind: EdgeEnd, Node: parent}
			}
		}
	}
}

// Arena stores node payloads next to their hierarchy.
type Arena[T any] struct {
	Hierarchy
	data []T
}

// NewArena returns an empty arena with room for n nodes.
func NewArena[T any](n int) *Arena[T] {
	return &Arena[T]{
		Hierarchy: Hierarchy{nodes: make([]Node, 0, n)},
		data:      make([]T, 0, n),
	}
}

// NewNode adds a detached node.
func (a *Arena[T]) NewNode(data T) NodeId {
	a.data = append(a.data, data)
	return a.push()
}

func (a *Arena[T]) Get(id NodeId) T       { return a.data[id] }
func (a *Arena[T]) Ptr(id NodeId) *T      { return &a.data[id] }
func (a *Arena[T]) Set(id NodeId, data T) { a.data[id] = data }
func (a *Arena[T]) Data() []T             { return a.data }
func (a *Arena[T]) Links() *Hierarchy     { return &a.Hierarchy }

// AppendArena moves the nodes of other to the end of a, preserving their
// links, and returns the offset added to other's ids. Roots of other stay
// detached.
func (a *Arena[T]) AppendArena(other *Arena[T]) NodeId {
	offset := NodeId(len(a.data))
	shift := func(o optId) optId {
		if o == 0 {
			return 0
		}
		return o + optId(offset)
	}
	for _, n := range other.nodes {
		a.nodes = append(a.nodes, Node{
			parent: shift(n.parent),
			prev:   shift(n.prev),
			next:   shift(n.next),
			first:  shift(n.first),
			last:   shift(n.last),
		})
	}
	a.data = append(a.data, other.data...)
	return offset
}

// Transform maps every payload of a to a new arena with the same links.
func Transform[T, U any](a *Arena[T], f func(NodeId, T) U) *Arena[U] {
	out := &Arena[U]{
		Hierarchy: Hierarchy{nodes: append([]Node(nil), a.nodes...)},
		data:      make([]U, len(a.data)),
	}
	for i, d := range a.data {
		out.data[i] = f(NodeId(i), d)
	}
	return out
}
