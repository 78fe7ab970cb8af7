package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"styledom/pkg/dom"
	"styledom/pkg/geom"
)

func flexRow(style string, items ...dom.Dom) dom.Dom {
	return dom.Body().WithChild(dom.Div().WithInlineStyle("display: flex; " + style).WithChildren(items...))
}

func box(style string) dom.Dom { return dom.Div().WithInlineStyle(style) }

func TestFlex_GrowDistributesFreeSpace(t *testing.T) {
	tree := layoutDom(t, flexRow("width: 300px",
		box("flex-grow: 1; height: 10px"),
		box("flex-grow: 2; height: 10px"),
	), "", 800)

	assert.Equal(t, geom.Rect{X: 8, Y: 8, Width: 100, Height: 10}, bounds(t, tree, 2))
	assert.Equal(t, geom.Rect{X: 108, Y: 8, Width: 200, Height: 10}, bounds(t, tree, 3))
	n, _ := tree.NodeOf(1)
	assert.Equal(t, ContextFlex, n.Context)
	assert.Equal(t, 10.0, n.Rect.Height)
}

func TestFlex_ShrinkWeightedByBasis(t *testing.T) {
	tree := layoutDom(t, flexRow("width: 300px",
		box("width: 200px; height: 10px"),
		box("width: 100px; height: 10px; flex-shrink: 0"),
		box("width: 100px; height: 10px"),
	), "", 800)

	// 100px of overflow shared 2:1 by the shrinkable items.
	assert.InDelta(t, 133.333, bounds(t, tree, 2).Width, 0.01)
	assert.Equal(t, 100.0, bounds(t, tree, 3).Width)
	assert.InDelta(t, 66.667, bounds(t, tree, 4).Width, 0.01)
}

func TestFlex_MinWidthFreezesItem(t *testing.T) {
	tree := layoutDom(t, flexRow("width: 300px",
		box("width: 200px; min-width: 180px; height: 10px"),
		box("width: 200px; height: 10px"),
	), "", 800)

	assert.Equal(t, 180.0, bounds(t, tree, 2).Width)
	assert.Equal(t, 120.0, bounds(t, tree, 3).Width)
}

func TestFlex_JustifyContent(t *testing.T) {
	cases := []struct {
		justify string
		xs      []float64
	}{
		{"flex-start", []float64{0, 50}},
		{"flex-end", []float64{200, 250}},
		{"center", []float64{100, 150}},
		{"space-between", []float64{0, 250}},
		{"space-around", []float64{50, 200}},
		{"space-evenly", []float64{200.0 / 3, 2*200.0/3 + 50}},
	}
	for _, c := range cases {
		t.Run(c.justify, func(t *testing.T) {
			tree := layoutDom(t, flexRow("width: 300px; justify-content: "+c.justify,
				box("width: 50px; height: 10px"),
				box("width: 50px; height: 10px"),
			), "body { margin: 0 }", 800)

			assert.InDelta(t, c.xs[0], bounds(t, tree, 2).X, 0.001)
			assert.InDelta(t, c.xs[1], bounds(t, tree, 3).X, 0.001)
		})
	}
}

func TestFlex_RowReverse(t *testing.T) {
	tree := layoutDom(t, flexRow("width: 300px; flex-direction: row-reverse",
		box("width: 50px; height: 10px"),
		box("width: 60px; height: 10px"),
	), "body { margin: 0 }", 800)

	assert.Equal(t, 250.0, bounds(t, tree, 2).X)
	assert.Equal(t, 190.0, bounds(t, tree, 3).X)
}

func TestFlex_AlignItems(t *testing.T) {
	tree := layoutDom(t, flexRow("width: 300px; height: 100px; align-items: center",
		box("width: 50px; height: 20px"),
		box("width: 50px; height: 40px; align-self: flex-end"),
		box("width: 50px; align-self: stretch"),
	), "body { margin: 0 }", 800)

	assert.Equal(t, geom.Rect{X: 0, Y: 40, Width: 50, Height: 20}, bounds(t, tree, 2))
	assert.Equal(t, geom.Rect{X: 50, Y: 60, Width: 50, Height: 40}, bounds(t, tree, 3))
	assert.Equal(t, geom.Rect{X: 100, Y: 0, Width: 50, Height: 100}, bounds(t, tree, 4))
}

func TestFlex_StretchToTallestItem(t *testing.T) {
	tree := layoutDom(t, flexRow("width: 300px",
		box("width: 50px; height: 30px"),
		box("width: 50px"),
	), "body { margin: 0 }", 800)

	assert.Equal(t, 30.0, bounds(t, tree, 3).Height)
	assert.Equal(t, 30.0, bounds(t, tree, 1).Height)
}

func TestFlex_ContentSizedBasis(t *testing.T) {
	tree := layoutDom(t, flexRow("width: 300px",
		dom.Div().WithChild(dom.Text("aa")),
		dom.Div().WithChild(dom.Text("bbbb")),
	), "body { margin: 0; line-height: 20px }", 800)

	assert.Equal(t, geom.Rect{X: 0, Y: 0, Width: 16, Height: 20}, bounds(t, tree, 2))
	assert.Equal(t, geom.Rect{X: 16, Y: 0, Width: 32, Height: 20}, bounds(t, tree, 4))
}

func TestFlex_Wrap(t *testing.T) {
	tree := layoutDom(t, flexRow("width: 100px; flex-wrap: wrap",
		box("width: 60px; height: 10px"),
		box("width: 60px; height: 20px"),
		box("width: 30px; height: 5px"),
	), "body { margin: 0 }", 800)

	assert.Equal(t, geom.Point{X: 0, Y: 0}, bounds(t, tree, 2).Origin())
	assert.Equal(t, geom.Point{X: 0, Y: 10}, bounds(t, tree, 3).Origin())
	assert.Equal(t, geom.Point{X: 60, Y: 10}, bounds(t, tree, 4).Origin())
	assert.Equal(t, 30.0, bounds(t, tree, 1).Height)
}

func TestFlex_AlignContentSpaceBetween(t *testing.T) {
	tree := layoutDom(t, flexRow("width: 100px; height: 100px; flex-wrap: wrap; align-content: space-between; align-items: flex-start",
		box("width: 60px; height: 10px"),
		box("width: 60px; height: 20px"),
	), "body { margin: 0 }", 800)

	assert.Equal(t, 0.0, bounds(t, tree, 2).Y)
	assert.Equal(t, 80.0, bounds(t, tree, 3).Y)
}

func TestFlex_Column(t *testing.T) {
	tree := layoutDom(t, flexRow("flex-direction: column; width: 200px",
		box("height: 30px"),
		dom.Div().WithChild(dom.Text("hello")),
		box("height: 10px; width: 50px; align-self: center"),
	), "body { margin: 0; line-height: 20px }", 800)

	assert.Equal(t, geom.Rect{X: 0, Y: 0, Width: 200, Height: 30}, bounds(t, tree, 2))
	assert.Equal(t, geom.Rect{X: 0, Y: 30, Width: 200, Height: 20}, bounds(t, tree, 3))
	assert.Equal(t, geom.Rect{X: 75, Y: 50, Width: 50, Height: 10}, bounds(t, tree, 5))
	assert.Equal(t, 60.0, bounds(t, tree, 1).Height)
}

func TestFlex_ColumnGrow(t *testing.T) {
	tree := layoutDom(t, flexRow("flex-direction: column; height: 100px",
		box("height: 20px"),
		box("flex-grow: 1"),
	), "body { margin: 0 }", 800)

	assert.Equal(t, geom.Rect{X: 0, Y: 20, Width: 800, Height: 80}, bounds(t, tree, 3))
}

func TestFlex_Order(t *testing.T) {
	tree := layoutDom(t, flexRow("width: 300px",
		box("width: 50px; height: 10px; order: 2"),
		box("width: 50px; height: 10px"),
	), "body { margin: 0 }", 800)

	assert.Equal(t, 50.0, bounds(t, tree, 2).X)
	assert.Equal(t, 0.0, bounds(t, tree, 3).X)
}

func TestFlex_ProbesLeaveNoBoxes(t *testing.T) {
	tree := layoutDom(t, flexRow("width: 300px",
		dom.Div().WithChild(dom.Text("aa")),
		box("flex-grow: 1; height: 10px"),
	), "", 800)

	seen := map[dom.NodeId]int{}
	for i := range tree.Nodes {
		if d := tree.Nodes[i].Dom; d >= 0 {
			seen[d]++
		}
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, "node %d laid out %d times", id, n)
	}
	flex, _ := tree.NodeOf(1)
	assert.Len(t, flex.Children, 2)
}
