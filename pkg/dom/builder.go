package dom

import (
	"slices"
	"strings"

	"styledom/pkg/css"
)

// Dom is a tree of nodes built by the application each frame. Builder
// methods take the receiver by value and return the modified copy.
type Dom struct {
	Node     NodeData
	Children []Dom
}

// New returns an empty node of the given type.
func New(t NodeType) Dom { return Dom{Node: NodeData{Type: t}} }

func Body() Dom   { return New(NodeBody) }
func Div() Dom    { return New(NodeDiv) }
func P() Dom      { return New(NodeP) }
func Span() Dom   { return New(NodeSpan) }
func Button() Dom { return New(NodeButton) }
func Br() Dom     { return New(NodeBr) }

// Text returns a text leaf.
func Text(s string) Dom {
	return Dom{Node: NodeData{Type: NodeText, Text: s}}
}

// Img returns an image node with an intrinsic size.
func Img(name string, width, height float64) Dom {
	return Dom{Node: NodeData{Type: NodeImg, Image: &ImageRef{Name: name, Width: width, Height: height}}}
}

// IFrame returns a node whose content is produced by callback.
func IFrame(callback, data any) Dom {
	return Dom{Node: NodeData{Type: NodeIFrame, Custom: &CustomContent{Callback: callback, Data: data}}}
}

// GL returns a node painted by a custom GL callback.
func GL(callback, data any) Dom {
	return Dom{Node: NodeData{Type: NodeGL, Custom: &CustomContent{Callback: callback, Data: data}}}
}

func (d Dom) WithChild(c Dom) Dom {
	d.Children = append(slices.Clip(d.Children), c)
	return d
}

func (d Dom) WithChildren(cs ...Dom) Dom {
	d.Children = append(slices.Clip(d.Children), cs...)
	return d
}

func (d Dom) WithID(id string) Dom {
	d.Node.IDs = slices.Clip(d.Node.IDs)
	d.Node.AddID(id)
	return d
}

// WithClass adds one or more whitespace separated classes.
func (d Dom) WithClass(classes string) Dom {
	d.Node.Classes = slices.Clip(d.Node.Classes)
	for _, c := range strings.Fields(classes) {
		d.Node.AddClass(c)
	}
	return d
}

// WithInlineStyle parses a style attribute body. Invalid declarations are
// dropped.
func (d Dom) WithInlineStyle(style string) Dom {
	decls, _ := css.ParseInlineStyle(style)
	return d.WithCSS(decls...)
}

// WithCSS sets typed inline declarations.
func (d Dom) WithCSS(decls ...css.Declaration) Dom {
	d.Node.InlineCSS = slices.Clip(d.Node.InlineCSS)
	for _, decl := range decls {
		d.Node.SetInlineProperty(decl)
	}
	return d
}

// WithProperty sets one typed inline property.
func (d Dom) WithProperty(p css.PropertyType, v css.Value) Dom {
	return d.WithCSS(css.Declaration{Property: css.Property{Type: p, Value: v}})
}

func (d Dom) WithCallback(filter EventFilter, cb Callback, data any) Dom {
	d.Node.Callbacks = append(slices.Clip(d.Node.Callbacks), CallbackEntry{Filter: filter, Callback: cb, Data: data})
	return d
}

// WithKey gives the node a stable identity across frames.
func (d Dom) WithKey(key string) Dom {
	d.Node.Key = key
	return d
}

func (d Dom) WithAccessibility(info AccessibilityInfo) Dom {
	d.Node.Accessibility = &info
	return d
}

// NodeCount returns the number of nodes in the tree.
func (d Dom) NodeCount() int {
	n := 1
	for _, c := range d.Children {
		n += c.NodeCount()
	}
	return n
}

// FlatDom is the arena form of a Dom. The root is node 0.
type FlatDom struct {
	*Arena[NodeData]
}

// Root returns the root id; ok is false for an empty DOM.
func (f *FlatDom) Root() (NodeId, bool) {
	return 0, f != nil && f.Arena != nil && f.Len() > 0
}

// Flatten converts the tree to an arena in preorder, so NodeIds follow
// document order.
func Flatten(d Dom) *FlatDom {
	a := NewArena[NodeData](d.NodeCount())
	var walk func(parent NodeId, hasParent bool, n *Dom)
	walk = func(parent NodeId, hasParent bool, n *Dom) {
		id := a.NewNode(n.Node.Clone())
		if hasParent {
			a.AppendChild(parent, id)
		}
		for i := range n.Children {
			walk(id, true, &n.Children[i])
		}
	}
	walk(0, false, &d)
	return &FlatDom{Arena: a}
}

// NewFlatDom wraps an existing arena.
func NewFlatDom(a *Arena[NodeData]) *FlatDom { return &FlatDom{Arena: a} }
