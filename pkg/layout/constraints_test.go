package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"styledom/pkg/css"
	"styledom/pkg/geom"
	"styledom/pkg/text"
)

func excl(x, y, w, h float64, side css.FloatType, node int) Exclusion {
	return Exclusion{Rect: geom.Rect{X: x, Y: y, Width: w, Height: h}, Side: side, Node: node}
}

func TestExclusionSpace_AddIsPersistent(t *testing.T) {
	empty := NewExclusionSpace()
	one := empty.Add(excl(0, 0, 50, 20, css.FloatLeft, 1))

	assert.True(t, empty.IsEmpty())
	assert.False(t, one.IsEmpty())
	assert.Len(t, one.Exclusions(), 1)
	assert.True(t, (*ExclusionSpace)(nil).IsEmpty())
}

func TestExclusionSpace_Edges(t *testing.T) {
	es := NewExclusionSpace().
		Add(excl(0, 0, 50, 20, css.FloatLeft, 1)).
		Add(excl(150, 0, 50, 40, css.FloatRight, 2))

	l, r := es.Edges(0, 200, 10, 5)
	assert.Equal(t, 50.0, l)
	assert.Equal(t, 150.0, r)
	assert.Equal(t, 150.0, es.AvailableInlineSize(0, 200, 25, 5))
	assert.Equal(t, 200.0, es.AvailableInlineSize(0, 200, 40, 5))

	next, ok := es.NextBottom(0, 10)
	assert.True(t, ok)
	assert.Equal(t, 20.0, next)
	_, ok = es.NextBottom(50, 10)
	assert.False(t, ok)

	assert.Equal(t, 20.0, es.ClearanceY(css.ClearLeft))
	assert.Equal(t, 40.0, es.ClearanceY(css.ClearBoth))
	assert.Equal(t, 40.0, es.Bottom())
}

func TestExclusionSpace_Holes(t *testing.T) {
	es := NewExclusionSpace().
		Add(excl(0, 0, 50, 20, css.FloatLeft, 1)).
		Add(excl(0, 30, 50, 20, css.FloatLeft, 2))

	holes := es.Holes(geom.Point{X: 10, Y: 25}, 100)
	assert.Equal(t, []text.Hole{{Rect: geom.Rect{X: -10, Y: 5, Width: 50, Height: 20}, Side: css.FloatLeft}}, holes)
}

func TestFloatCache_BandsAndDrop(t *testing.T) {
	fc := NewFloatCache()
	fc.Add(0, excl(0, 10, 50, 100, css.FloatLeft, 3))
	fc.Add(0, excl(0, 200, 50, 10, css.FloatLeft, 7))
	fc.Add(4, excl(0, 0, 10, 10, css.FloatRight, 9))

	assert.Equal(t, 3, fc.Len())
	top := fc.Space(0, 0, 64)
	assert.Equal(t, []Exclusion{excl(0, 10, 50, 100, css.FloatLeft, 3)}, top.Exclusions())
	assert.Len(t, fc.Space(0, 0, 1000).Exclusions(), 2, "a float spanning bands is returned once")

	fc.Drop(0)
	assert.Equal(t, 1, fc.Len())
	fc.Clear()
	assert.Zero(t, fc.Len())
}

func TestCachedInlineLayout_Valid(t *testing.T) {
	content := []text.InlineContent{{Kind: text.ContentText, Node: 1, Text: "a"}}
	cons := text.Constraints{AvailableWidth: 100}
	c := &CachedInlineLayout{Content: content, Constraints: cons, Layout: &text.UnifiedLayout{}}

	assert.True(t, c.Valid(content, cons))
	assert.False(t, c.Valid([]text.InlineContent{{Kind: text.ContentText, Node: 1, Text: "b"}}, cons))
	assert.False(t, c.Valid(content, text.Constraints{AvailableWidth: 90}))
	assert.False(t, c.Valid(content, text.Constraints{AvailableWidth: 100, Holes: []text.Hole{{Side: css.FloatLeft}}}))
	assert.False(t, (*CachedInlineLayout)(nil).Valid(content, cons))
}

func TestCollapseMargins(t *testing.T) {
	assert.Equal(t, 20.0, collapseMargins(10, 20))
	assert.Equal(t, -20.0, collapseMargins(-10, -20))
	assert.Equal(t, 10.0, collapseMargins(20, -10))
}
