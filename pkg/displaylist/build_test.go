package displaylist

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"styledom/pkg/css"
	"styledom/pkg/dom"
	"styledom/pkg/geom"
	"styledom/pkg/layout"
	"styledom/pkg/style"
	"styledom/pkg/text"
)

func layoutOf(t *testing.T, d dom.Dom, sheet string) *layout.Tree {
	t.Helper()
	s, errs := css.ParseStylesheet(sheet)
	require.Empty(t, errs)
	styled := style.NewResolver().Cascade(dom.Flatten(d), s, style.UIState{})
	l := text.NewLayouter(text.FixedProvider{}, text.WithShaper(text.FixedShaper{}))
	e := layout.NewEngine(text.FixedProvider{}, layout.WithTextLayouter(l))
	return e.Layout(styled, geom.Size{Width: 400, Height: 300})
}

func kinds(items []Item) []Kind {
	out := make([]Kind, len(items))
	for i, it := range items {
		out[i] = it.Content.Kind()
	}
	return out
}

func nodes(items []Item) []dom.NodeId {
	out := make([]dom.NodeId, len(items))
	for i, it := range items {
		out[i] = it.Node
	}
	return out
}

func TestBuild_BoxDecorationOrder(t *testing.T) {
	tree := layoutOf(t, dom.Body().WithChild(dom.Div().WithInlineStyle(
		"height: 20px; background-color: red; border: 2px solid blue; box-shadow: 1px 1px 0 black",
	)), "body { margin: 0 }")
	l := Build(tree)

	require.Equal(t, []Kind{KindBoxShadow, KindRect, KindBorder}, kinds(l.Items))
	for _, it := range l.Items {
		assert.Equal(t, dom.NodeId(1), it.Node)
		assert.Equal(t, geom.Rect{X: 0, Y: 0, Width: 400, Height: 24}, it.Bounds)
		assert.Equal(t, Identity, it.Transform)
		assert.Equal(t, 1.0, it.Opacity)
		assert.False(t, it.Clipped)
	}
	assert.Equal(t, css.Color{R: 255, A: 255}, l.Items[1].Content.(Rect).Color)
	border := l.Items[2].Content.(Border)
	assert.Equal(t, geom.Edges{Top: 2, Right: 2, Bottom: 2, Left: 2}, border.Widths)
	assert.Equal(t, css.BorderStyleSolid, border.Styles[style.SideLeft])
	assert.Equal(t, css.Color{B: 255, A: 255}, border.Colors[style.SideTop])
	assert.Equal(t, geom.Size{Width: 400, Height: 300}, l.Viewport)
}

func TestBuild_TextRuns(t *testing.T) {
	tree := layoutOf(t, dom.Body().WithChild(dom.P().WithChild(dom.Text("hello world"))),
		"body { margin: 0; line-height: 20px } p { margin: 0; color: red; text-decoration: underline }")
	runs := Build(tree).Filter(KindText)

	require.Len(t, runs, 1)
	run := runs[0]
	txt := run.Content.(Text)
	assert.Equal(t, "hello world", txt.Text)
	assert.Equal(t, dom.NodeId(2), run.Node)
	assert.Equal(t, 0.0, run.Bounds.X)
	assert.Equal(t, 88.0, run.Bounds.Width)
	assert.Equal(t, css.Color{R: 255, A: 255}, txt.Color)
	assert.Equal(t, "underline", txt.Decoration)
	assert.Equal(t, 16.0, txt.Size)
	assert.Greater(t, txt.Baseline, 0.0)
	assert.Less(t, txt.Baseline, 20.0)
}

func TestBuild_TextRunsPerLine(t *testing.T) {
	tree := layoutOf(t, dom.Body().WithChild(dom.Div().WithInlineStyle("width: 88px").WithChild(dom.Text("aaaa bbbb cccc"))),
		"body { margin: 0; line-height: 20px }")
	runs := Build(tree).Filter(KindText)

	require.Len(t, runs, 2)
	assert.Less(t, runs[0].Bounds.Y, runs[1].Bounds.Y)
	assert.Contains(t, runs[1].Content.(Text).Text, "cccc")
}

func TestBuild_PaintOrderFollowsZIndex(t *testing.T) {
	tree := layoutOf(t, dom.Body().WithChildren(
		dom.Div().WithInlineStyle("height: 10px; background-color: blue"),
		dom.Div().WithInlineStyle("position: absolute; z-index: -1; width: 10px; height: 10px; background-color: red"),
		dom.Div().WithInlineStyle("position: relative; width: 10px; height: 10px; background-color: green"),
	), "")

	assert.Equal(t, []dom.NodeId{2, 1, 3}, nodes(Build(tree).Filter(KindRect)))
}

func TestBuild_ScrollContainerClipsAndOffsets(t *testing.T) {
	tree := layoutOf(t, dom.Body().WithChild(
		dom.Div().WithInlineStyle("overflow: scroll; width: 100px; height: 50px").WithChild(
			dom.Div().WithInlineStyle("height: 200px; background-color: red"),
		),
	), "body { margin: 0 }")
	l := Build(tree, WithScrollOffsets(map[dom.NodeId]geom.Point{1: {Y: 30}}))

	scrolls := l.Filter(KindScroll)
	require.Len(t, scrolls, 1)
	sc := scrolls[0].Content.(Scroll)
	assert.Equal(t, dom.NodeId(1), sc.ID)
	assert.Equal(t, 200.0, sc.ContentSize.Height)
	assert.Equal(t, geom.Point{Y: 30}, sc.Offset)

	rects := l.Filter(KindRect)
	require.Len(t, rects, 1)
	assert.True(t, rects[0].Clipped)
	assert.Equal(t, geom.Rect{X: 0, Y: 0, Width: 100, Height: 50}, rects[0].Clip)
	assert.Equal(t, Translation(0, -30), rects[0].Transform)
}

func TestBuild_Transforms(t *testing.T) {
	tree := layoutOf(t, dom.Body().WithChildren(
		dom.Div().WithInlineStyle("width: 100px; height: 50px; transform: translate(10px, 5px); background-color: red"),
		dom.Div().WithInlineStyle("width: 100px; height: 50px; transform: rotate(90deg); background-color: red"),
	), "body { margin: 0 }")
	rects := Build(tree).Filter(KindRect)
	require.Len(t, rects, 2)

	assert.Equal(t, Translation(10, 5), rects[0].Transform)

	// Rotation is about the border box center (50, 75).
	p := rects[1].Transform.Apply(geom.Point{X: 0, Y: 50})
	assert.InDelta(t, 75, p.X, 1e-9)
	assert.InDelta(t, 25, p.Y, 1e-9)
}

func TestBuild_OpacityAndVisibility(t *testing.T) {
	tree := layoutOf(t, dom.Body().WithChildren(
		dom.Div().WithInlineStyle("opacity: 0.5; background-color: red; height: 10px").WithChild(
			dom.Div().WithInlineStyle("opacity: 0.5; background-color: blue; height: 10px"),
		),
		dom.Div().WithInlineStyle("visibility: hidden; background-color: red; height: 10px"),
		dom.Div().WithInlineStyle("opacity: 0; background-color: red; height: 10px"),
	), "")
	rects := Build(tree).Filter(KindRect)

	require.Len(t, rects, 2)
	assert.Equal(t, 0.5, rects[0].Opacity)
	assert.Equal(t, 0.25, rects[1].Opacity)
}

func TestBuild_ListMarkers(t *testing.T) {
	tree := layoutOf(t, dom.Body().WithChild(
		dom.New(dom.NodeOl).WithChild(dom.New(dom.NodeLi).WithChild(dom.Text("a"))),
	), "")
	runs := Build(tree).Filter(KindText)

	require.Len(t, runs, 2)
	marker := runs[0]
	m := marker.Content.(Text)
	assert.Equal(t, "1.", m.Text)
	assert.True(t, m.AlignRight)
	assert.Equal(t, dom.NodeId(2), marker.Node)
	li, ok := tree.NodeOf(2)
	require.True(t, ok)
	assert.Equal(t, li.ContentBox().X-8, marker.Bounds.Right())
	assert.Equal(t, "a", runs[1].Content.(Text).Text)
}

func TestBuild_ReplacedContent(t *testing.T) {
	tree := layoutOf(t, dom.Body().WithChildren(
		dom.Img("cat.png", 20, 10),
		dom.GL("render", nil),
	), "body { margin: 0 }")
	l := Build(tree)

	images := l.Filter(KindImage)
	require.Len(t, images, 1)
	assert.Equal(t, "cat.png", images[0].Content.(Image).Name)
	assert.Equal(t, 20.0, images[0].Bounds.Width)
	assert.Equal(t, 10.0, images[0].Bounds.Height)

	custom := l.Filter(KindCustom)
	require.Len(t, custom, 1)
	assert.Equal(t, dom.NodeGL, custom[0].Content.(Custom).Type)
}

func TestBuild_Deterministic(t *testing.T) {
	d := dom.Body().WithChildren(
		dom.P().WithChild(dom.Text("one two three")),
		dom.Div().WithInlineStyle("background: linear-gradient(red, blue); height: 30px; border-radius: 4px"),
	)
	a := Build(layoutOf(t, d, ""))
	b := Build(layoutOf(t, d, ""))

	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("display lists differ (-a +b):\n%s", diff)
	}
	assert.Len(t, a.Filter(KindGradient), 1)
	assert.Equal(t, [4]float64{4, 4, 4, 4}, a.Filter(KindGradient)[0].Content.(Gradient).Radii)
	assert.Contains(t, a.DebugString(), `"one two three"`)
}

func TestBuild_EmptyTree(t *testing.T) {
	assert.Zero(t, Build(nil).Len())
	assert.Zero(t, (*List)(nil).Len())
}

func TestRecorder(t *testing.T) {
	var r Recorder
	assert.Nil(t, r.Last())
	first, second := &List{}, &List{}
	require.NoError(t, r.Paint(first))
	require.NoError(t, r.Paint(second))
	assert.Same(t, second, r.Last())
	assert.Len(t, r.Lists(), 2)
}

func TestMatrix(t *testing.T) {
	m := Translation(10, 0).Mul(Matrix{2, 0, 0, 2, 0, 0})
	assert.Equal(t, geom.Point{X: 12, Y: 2}, m.Apply(geom.Point{X: 1, Y: 1}))
	assert.Equal(t, geom.Rect{X: 10, Y: 0, Width: 20, Height: 20}, m.ApplyRect(geom.Rect{Width: 10, Height: 10}))
	assert.True(t, Identity.IsIdentity())
	assert.False(t, m.IsTranslation())
}
