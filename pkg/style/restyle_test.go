package style

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"styledom/pkg/css"
	"styledom/pkg/dom"
)

func TestCompileHoverGroups(t *testing.T) {
	sheet := css.MustParseStylesheet(`
.btn { color: black }
.btn:hover { background-color: red }
.tab:active .x { width: 10px }
:focus { color: blue }
`)
	groups := CompileHoverGroups(sheet)
	require.Len(t, groups, 3)
	assert.False(t, groups[0].AffectsLayout)
	assert.Equal(t, []css.PseudoKind{css.PseudoHover}, groups[0].Pseudos)
	assert.True(t, groups[1].AffectsLayout)
	assert.Equal(t, []css.PseudoKind{css.PseudoActive}, groups[1].Pseudos)
	assert.False(t, groups[2].AffectsLayout)
	assert.True(t, AnyAffectsLayout(groups))
}

func TestRestyle_PaintOnlyHover(t *testing.T) {
	r := NewResolver()
	sheet := css.MustParseStylesheet(".btn:hover { background-color: red }")
	s := r.Cascade(dom.Flatten(dom.Body().WithChild(dom.Button().WithClass("btn"))), sheet, UIState{})

	res := r.Restyle(s, NewUIState(0, 1))
	require.Len(t, res.Changes, 1)
	assert.Equal(t, dom.NodeId(1), res.Changes[0].Node)
	assert.Equal(t, css.PropBackgroundColor, res.Changes[0].Property)
	assert.Equal(t, css.KindUnset, res.Changes[0].Old.Kind)
	assert.False(t, res.AffectsLayout)
	assert.Equal(t, []dom.NodeId{0}, res.Restyled)
	assert.Equal(t, css.Color{R: 255, A: 255}, s.Style(1).BackgroundColor())

	res = r.Restyle(s, UIState{})
	require.Len(t, res.Changes, 1)
	assert.Equal(t, css.KindUnset, res.Changes[0].New.Kind)
	assert.Equal(t, css.Transparent, s.Style(1).BackgroundColor())
}

func TestRestyle_LayoutAffectingHover(t *testing.T) {
	r := NewResolver()
	sheet := css.MustParseStylesheet(".tab:hover .x { width: 10px }")
	s := r.Cascade(dom.Flatten(dom.Body().WithChild(
		dom.Div().WithClass("tab").WithChild(dom.Div().WithClass("x")),
	)), sheet, UIState{})

	res := r.Restyle(s, NewUIState(1))
	require.Len(t, res.Changes, 1)
	assert.Equal(t, dom.NodeId(2), res.Changes[0].Node)
	assert.True(t, res.AffectsLayout)
}

func TestRestyle_NoStateRules(t *testing.T) {
	r := NewResolver()
	s := r.Cascade(dom.Flatten(dom.Body().WithChild(dom.Div())), css.MustParseStylesheet("div { color: red }"), UIState{})
	res := r.Restyle(s, NewUIState(1))
	assert.Empty(t, res.Changes)
	assert.True(t, s.State.IsHovered(1))
}

func TestDiffStyles(t *testing.T) {
	var a, b ComputedStyle
	a.Set(css.PropWidth, css.PxLength(1), OriginOwn)
	a.Set(css.PropTextColor, css.ColorValue(css.Black), OriginOwn)
	b.Set(css.PropTextColor, css.ColorValue(css.White), OriginOwn)
	b.Set(css.PropOpacity, css.NumberValue(0.5), OriginOwn)

	changes := DiffStyles(3, &a, &b)
	require.Len(t, changes, 3)
	assert.Equal(t, css.PropWidth, changes[0].Property)
	assert.Equal(t, css.PropTextColor, changes[1].Property)
	assert.Equal(t, css.PropOpacity, changes[2].Property)
	assert.Empty(t, DiffStyles(3, &a, &a))
}

func TestRecascade_ReusesUnchangedNodes(t *testing.T) {
	r := NewResolver()
	sheet := css.MustParseStylesheet(".big { font-size: 30px } .red { color: red }")
	old := dom.Flatten(dom.Body().WithChildren(
		dom.Div().WithChild(dom.P()),
		dom.Div().WithClass("x").WithChild(dom.P()),
	))
	prev := r.Cascade(old, sheet, UIState{})

	cur := dom.Flatten(dom.Body().WithChildren(
		dom.Div().WithChild(dom.P()),
		dom.Div().WithClass("big").WithChild(dom.P()),
	))
	identity := map[dom.NodeId]dom.NodeId{0: 0, 1: 1, 2: 2, 3: 3, 4: 4}
	res := r.Recascade(prev, cur, identity)

	assert.Equal(t, 2, res.Restyled, "the changed div and its child")
	assert.Equal(t, 30.0, res.Styled.Style(4).FontSize())
	assert.Equal(t, 16.0, res.Styled.Style(2).FontSize())

	var nodes []dom.NodeId
	for _, c := range res.Changes {
		nodes = append(nodes, c.Node)
	}
	assert.Equal(t, []dom.NodeId{3, 4}, slices.Compact(nodes))

	full := r.Cascade(cur, sheet, UIState{})
	assert.Equal(t, full.Styles, res.Styled.Styles)
}

func TestRecascade_MountedNodesAreComputed(t *testing.T) {
	r := NewResolver()
	prev := r.Cascade(dom.Flatten(dom.Body()), nil, UIState{})
	cur := dom.Flatten(dom.Body().WithChild(dom.New(dom.NodeH1)))
	res := r.Recascade(prev, cur, map[dom.NodeId]dom.NodeId{0: 0})
	assert.Equal(t, 1, res.Restyled)
	assert.Empty(t, res.Changes)
	assert.InDelta(t, 32.0, res.Styled.Style(1).FontSize(), 0.001)
}
