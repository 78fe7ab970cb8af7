package dom

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"styledom/pkg/css"
)

// sample builds:
//
//	body(0)
//	  div(1)
//	    p(2)
//	      "a"(3)
//	    p(4)
//	  span(5)
func sample() *FlatDom {
	return Flatten(Body().WithChildren(
		Div().WithChildren(
			P().WithChild(Text("a")),
			P(),
		),
		Span(),
	))
}

func TestFlatten_PreorderIds(t *testing.T) {
	f := sample()
	require.Equal(t, 6, f.Len())
	types := []NodeType{NodeBody, NodeDiv, NodeP, NodeText, NodeP, NodeSpan}
	for i, want := range types {
		assert.Equal(t, want, f.Get(NodeId(i)).Type, "node %d", i)
	}
	require.NoError(t, f.Validate())
}

func TestIterators(t *testing.T) {
	f := sample()
	assert.Equal(t, []NodeId{1, 5}, slices.Collect(f.Children(0)))
	assert.Equal(t, []NodeId{5, 1}, slices.Collect(f.ReverseChildren(0)))
	assert.Equal(t, []NodeId{2, 0}, slices.Collect(f.Ancestors(3)))
	assert.Equal(t, []NodeId{4}, slices.Collect(f.FollowingSiblings(2)))
	assert.Equal(t, []NodeId{2}, slices.Collect(f.PrecedingSiblings(4)))
	assert.Equal(t, []NodeId{1, 2, 3, 4}, slices.Collect(f.Descendants(1)))
	assert.Equal(t, []NodeId{0, 1, 2, 3, 4, 5}, slices.Collect(f.Descendants(0)))
	assert.Equal(t, 2, f.IndexInParent(4))
	assert.Empty(t, slices.Collect(f.Ancestors(0)))
}

func TestTraverse_StartEndPairs(t *testing.T) {
	f := sample()
	var b []string
	for e := range f.Traverse(1) {
		tag := f.Ptr(e.Node).Type.TagName()
		if e.Kind == EdgeStart {
			b = append(b, "<"+tag+">")
		} else {
			b = append(b, "</"+tag+">")
		}
	}
	assert.Equal(t, []string{"<div>", "<p>", "<text>", "</text>", "</p>", "<p>", "</p>", "</div>"}, b)
}

func TestIterators_EmptyArena(t *testing.T) {
	a := NewArena[int](0)
	assert.Empty(t, slices.Collect(a.Traverse(0)))
	assert.Empty(t, slices.Collect(a.Descendants(0)))
}

func TestArena_AppendAndTransform(t *testing.T) {
	a := NewArena[string](2)
	r := a.NewNode("r")
	c := a.NewNode("c")
	a.AppendChild(r, c)

	b := NewArena[string](2)
	br := b.NewNode("x")
	b.AppendChild(br, b.NewNode("y"))

	off := a.AppendArena(b)
	assert.Equal(t, NodeId(2), off)
	a.AppendChild(c, off)
	assert.Equal(t, []string{"r", "c", "x", "y"}, slices.Collect(func(yield func(string) bool) {
		for id := range a.Descendants(r) {
			if !yield(a.Get(id)) {
				return
			}
		}
	}))
	require.NoError(t, a.Validate())

	lens := Transform(a, func(_ NodeId, s string) int { return len(s) })
	assert.Equal(t, []NodeId{1}, slices.Collect(lens.Children(0)))
	assert.Equal(t, 1, lens.Get(3))
}

func TestDetach(t *testing.T) {
	f := sample()
	f.Detach(2)
	assert.Equal(t, []NodeId{4}, slices.Collect(f.Children(1)))
	_, ok := f.Node(2).Parent()
	assert.False(t, ok)
	require.NoError(t, f.Validate())
}

func TestBuilder_DoesNotAlias(t *testing.T) {
	base := Div().WithChild(Text("a"))
	one := base.WithChild(Text("b"))
	two := base.WithChild(Text("c"))
	assert.Equal(t, "b", one.Children[1].Node.Text)
	assert.Equal(t, "c", two.Children[1].Node.Text)
	assert.Len(t, base.Children, 1)
}

func TestBuilder_InlineStyle(t *testing.T) {
	d := Div().WithInlineStyle("width: 10px; width: 20px; color: red").WithClass("a b a").WithID("x")
	assert.Equal(t, []string{"a", "b"}, d.Node.Classes)
	assert.True(t, d.Node.HasID("x"))
	require.Len(t, d.Node.InlineCSS, 2)
	w, ok := d.Node.InlineProperty(css.PropWidth)
	require.True(t, ok)
	assert.Equal(t, css.PxLength(20), w.Property.Value)
}

func TestHashes(t *testing.T) {
	a := Text("hello").Node
	b := Text("world").Node
	assert.NotEqual(t, ContentHash(&a), ContentHash(&b))
	assert.Equal(t, StructuralHash(&a), StructuralHash(&b))

	d1 := Div().WithClass("x").Node
	d2 := Div().WithClass("y").Node
	assert.NotEqual(t, StructuralHash(&d1), StructuralHash(&d2))

	assert.Equal(t, sample().Hash(), sample().Hash())
	other := Flatten(Body().WithChild(Div()))
	assert.NotEqual(t, sample().Hash(), other.Hash())
}

func TestInlineHashes_SplitByScope(t *testing.T) {
	a := Div().WithInlineStyle("color: red; width: 10px").Node
	b := Div().WithInlineStyle("color: blue; width: 10px").Node
	assert.Equal(t, InlineLayoutHash(&a), InlineLayoutHash(&b))
	assert.NotEqual(t, InlinePaintHash(&a), InlinePaintHash(&b))
}

func TestDebugString(t *testing.T) {
	s := Flatten(Body().WithChild(Div().WithID("main").WithClass("c").WithChild(Text("hi")))).DebugString()
	assert.Contains(t, s, "[0] body")
	assert.Contains(t, s, "[1] div#main.c")
	assert.Contains(t, s, `[2] "hi"`)
}
