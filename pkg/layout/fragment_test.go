package layout

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"styledom/pkg/dom"
	"styledom/pkg/geom"
)

func blocks(n int, style string) []dom.Dom {
	out := make([]dom.Dom, n)
	for i := range out {
		out[i] = dom.Div().WithInlineStyle(style)
	}
	return out
}

func TestFragment_CutsBetweenBlocks(t *testing.T) {
	e := newTestEngine()
	s := styled(t, dom.Body().WithChildren(blocks(5, "height: 40px")...), "body { margin: 0 }")
	pages := e.LayoutPaged(s, geom.Size{Width: 200, Height: 100}, 100)

	require.Len(t, pages, 3)
	assert.Equal(t, 0.0, pages[0].Fragment.Start)
	assert.Equal(t, 80.0, pages[0].Fragment.End)
	assert.Equal(t, 160.0, pages[1].Fragment.End)

	_, ok := pages[0].Bounds(3)
	assert.False(t, ok, "the third block starts on the second page")
	assert.Equal(t, geom.Rect{X: 0, Y: 40, Width: 200, Height: 40}, bounds(t, pages[0], 2))
	assert.Equal(t, geom.Rect{X: 0, Y: 0, Width: 200, Height: 40}, bounds(t, pages[1], 3))
	assert.Equal(t, 2, pages[2].Fragment.Page)
	assert.Equal(t, geom.Rect{X: 0, Y: 0, Width: 200, Height: 40}, bounds(t, pages[2], 5))
}

func TestFragment_ForcedAndAvoidedBreaks(t *testing.T) {
	e := newTestEngine()
	s := styled(t, dom.Body().WithChildren(
		dom.Div().WithInlineStyle("height: 20px"),
		dom.Div().WithInlineStyle("height: 20px; break-before: page"),
		dom.Div().WithInlineStyle("height: 20px; break-after: avoid"),
		dom.Div().WithInlineStyle("height: 20px"),
	), "body { margin: 0 }")
	pages := e.LayoutPaged(s, geom.Size{Width: 200}, 50)

	require.Len(t, pages, 3)
	assert.Equal(t, 20.0, pages[0].Fragment.End)
	assert.Equal(t, 40.0, pages[1].Fragment.End, "no break between the avoiding pair")
	assert.Equal(t, 40.0, pages[2].Fragment.Start)
}

func TestFragment_WidowsAndOrphans(t *testing.T) {
	cases := []struct {
		name  string
		on    bool
		sheet string
		end   float64
		lines int
	}{
		{"defaults keep two lines on each side", true, "", 40, 2},
		{"unsatisfiable orphans cut at the page end", true, "div { orphans: 3 }", 50, 3},
		{"policy off ignores orphans", false, "div { orphans: 3 }", 40, 2},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e := newTestEngine(WithWidowsOrphans(c.on))
			// Two words per line: five lines of 20px.
			s := styled(t, dom.Body().WithChild(dom.Div().WithChild(dom.Text(strings.Repeat("aaaa ", 10)))),
				"body { margin: 0; line-height: 20px } "+c.sheet)
			pages := e.LayoutPaged(s, geom.Size{Width: 88}, 50)

			require.NotEmpty(t, pages)
			assert.Equal(t, c.end, pages[0].Fragment.End)
			div, ok := pages[0].NodeOf(1)
			require.True(t, ok)
			require.NotNil(t, div.Inline)
			assert.Len(t, div.Inline.Layout.Lines, c.lines)
		})
	}
}

func TestFragment_SlicedLinesAreRenumbered(t *testing.T) {
	e := newTestEngine()
	st := styled(t, dom.Body().WithChild(dom.Div().WithChild(dom.Text(strings.Repeat("aaaa ", 10)))),
		"body { margin: 0; line-height: 20px }")
	pages := e.LayoutPaged(st, geom.Size{Width: 88}, 40)

	require.GreaterOrEqual(t, len(pages), 2)
	div, ok := pages[1].NodeOf(1)
	require.True(t, ok)
	u := div.Inline.Layout
	require.NotEmpty(t, u.Lines)
	for i, line := range u.Lines {
		assert.Equal(t, i, line.Index)
		for _, it := range u.LineItems(i) {
			assert.Equal(t, i, it.LineIndex)
		}
	}
	assert.Equal(t, -40.0, div.Rect.Y, "the box continues from the previous page")
}

func TestFragment_OversizedBlockIsSliced(t *testing.T) {
	e := newTestEngine()
	s := styled(t, dom.Body().WithChild(dom.Div().WithInlineStyle("height: 250px")), "body { margin: 0 }")
	pages := e.LayoutPaged(s, geom.Size{Width: 100}, 100)

	require.Len(t, pages, 3)
	for i, p := range pages {
		assert.Equal(t, float64(i*100), p.Fragment.Start)
		assert.Equal(t, geom.Rect{X: 0, Y: float64(-i * 100), Width: 100, Height: 250}, bounds(t, p, 1))
	}
}

func TestFragment_Columns(t *testing.T) {
	e := newTestEngine()
	s := styled(t, dom.Body().WithChildren(
		dom.Div().WithInlineStyle("height: 30px"),
		dom.Div().WithInlineStyle("height: 30px; break-before: column"),
		dom.Div().WithInlineStyle("height: 30px"),
		dom.Div().WithInlineStyle("height: 30px"),
	), "body { margin: 0 }")
	cols := e.LayoutColumns(s, geom.Size{Width: 210, Height: 60}, 2, 10)

	require.Len(t, cols, 3)
	assert.Equal(t, 0, cols[0].Fragment.Column)
	assert.Equal(t, 1, cols[1].Fragment.Column)
	assert.Equal(t, 0, cols[2].Fragment.Column)
	assert.Equal(t, 1, cols[2].Fragment.Page)

	assert.Equal(t, geom.Rect{X: 0, Y: 0, Width: 100, Height: 30}, bounds(t, cols[0], 1))
	assert.Equal(t, geom.Rect{X: 110, Y: 0, Width: 100, Height: 30}, bounds(t, cols[1], 2))
	assert.Equal(t, geom.Rect{X: 110, Y: 30, Width: 100, Height: 30}, bounds(t, cols[1], 3))
	assert.Equal(t, geom.Size{Width: 210, Height: 60}, cols[0].Viewport)
}

func TestFragment_ColumnBreakIgnoredWhenPaged(t *testing.T) {
	e := newTestEngine()
	s := styled(t, dom.Body().WithChildren(
		dom.Div().WithInlineStyle("height: 30px"),
		dom.Div().WithInlineStyle("height: 30px; break-before: column"),
	), "body { margin: 0 }")
	pages := e.LayoutPaged(s, geom.Size{Width: 100}, 100)

	assert.Len(t, pages, 1)
}
