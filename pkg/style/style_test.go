package style

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"styledom/pkg/css"
	"styledom/pkg/dom"
)

func cascade(t *testing.T, d dom.Dom, sheet string) *StyledDom {
	t.Helper()
	s, errs := css.ParseStylesheet(sheet)
	require.Empty(t, errs)
	return NewResolver().Cascade(dom.Flatten(d), s, UIState{})
}

func fontSize(t *testing.T, s *StyledDom, id dom.NodeId) float64 {
	t.Helper()
	v, ok := s.Style(id).Value(css.PropFontSize)
	require.True(t, ok, "node %d has no font-size", id)
	require.Equal(t, css.Px, v.Length.Metric)
	return v.Length.Number
}

func TestCascade_InheritsFontSize(t *testing.T) {
	s := cascade(t, dom.Div().WithInlineStyle("font-size:20px").WithChild(
		dom.P().WithChild(dom.Text("x")),
	), "")

	assert.Equal(t, 20.0, fontSize(t, s, 1))
	assert.Equal(t, 20.0, fontSize(t, s, 2))
	pw, _ := s.Style(1).Get(css.PropFontSize)
	assert.Equal(t, OriginInherited, pw.Origin)
}

func TestCascade_EmResolution(t *testing.T) {
	s := cascade(t, dom.Div().WithInlineStyle("font-size:20px").WithChild(
		dom.Div().WithInlineStyle("font-size:1.5em; width: 2em; padding-left: 10%"),
	), "")

	assert.Equal(t, 30.0, fontSize(t, s, 1))
	w, ok := s.Style(1).Length(css.PropWidth)
	require.True(t, ok)
	assert.Equal(t, css.PxValue(60), w)
	pl, _ := s.Style(1).Length(css.PropPaddingLeft)
	assert.Equal(t, css.Percent, pl.Metric, "percentages are resolved by layout")
}

func TestCascade_RemAndPercentFontSize(t *testing.T) {
	s := cascade(t, dom.Div().WithInlineStyle("font-size:10px").WithChildren(
		dom.Div().WithInlineStyle("font-size:200%"),
		dom.Div().WithInlineStyle("font-size:2rem"),
		dom.Div().WithInlineStyle("font-size:12pt"),
	), "")

	assert.Equal(t, 20.0, fontSize(t, s, 1))
	assert.Equal(t, 20.0, fontSize(t, s, 2))
	assert.Equal(t, 16.0, fontSize(t, s, 3))
}

func TestCascade_HeadingUserAgent(t *testing.T) {
	s := cascade(t, dom.Body().WithChild(dom.New(dom.NodeH1).WithChild(dom.Text("T"))), "")

	assert.InDelta(t, 32.0, fontSize(t, s, 1), 0.001)
	assert.Equal(t, css.DisplayBlock, s.Style(1).Display())
	assert.Equal(t, 700.0, s.Style(1).FontWeight())
	assert.InDelta(t, 0.67*32, s.Style(1).Margin(0).Top, 0.001)
	assert.Equal(t, 8.0, s.Style(0).Margin(0).Left)
	pw, _ := s.Style(1).Get(css.PropDisplay)
	assert.Equal(t, OriginUserAgent, pw.Origin)
}

func TestCascade_AuthorBeatsUserAgent(t *testing.T) {
	s := cascade(t, dom.Body().WithChild(dom.P()), "* { margin: 0 }")
	assert.Equal(t, 0.0, s.Style(1).Margin(0).Top)
	assert.Equal(t, 0.0, s.Style(0).Margin(0).Left)
}

func TestCascade_Specificity(t *testing.T) {
	sheet := `
#x { color: red }
.c { color: blue }
div { color: green; width: 5px }
.c { width: 10px }
.c { width: 20px }
.i { height: 1px !important }
`
	s := cascade(t, dom.Body().WithChildren(
		dom.Div().WithID("x").WithClass("c"),
		dom.Div().WithClass("c"),
		dom.Div().WithClass("c").WithInlineStyle("color: black"),
		dom.Div().WithClass("i").WithInlineStyle("height: 5px"),
	), sheet)

	assert.Equal(t, css.Color{R: 255, A: 255}, s.Style(1).TextColor())
	assert.Equal(t, css.Color{B: 255, A: 255}, s.Style(2).TextColor())
	assert.Equal(t, css.Black, s.Style(3).TextColor(), "inline beats classes")
	assert.Equal(t, 20.0, s.Style(2).ResolveLength(css.PropWidth, 0, -1), "later rule wins a tie")
	assert.Equal(t, 1.0, s.Style(4).ResolveLength(css.PropHeight, 0, -1), "important beats inline")
}

func TestCascade_InheritAndInitial(t *testing.T) {
	s := cascade(t, dom.Div().WithInlineStyle("width: 40px; color: red").WithChildren(
		dom.Div().WithInlineStyle("width: inherit"),
		dom.Div().WithInlineStyle("color: initial"),
	), "")

	w, ok := s.Style(1).Get(css.PropWidth)
	require.True(t, ok)
	assert.Equal(t, css.PxLength(40), w.Property.Value)
	assert.Equal(t, OriginOwn, w.Origin)

	c, ok := s.Style(2).Get(css.PropTextColor)
	require.True(t, ok)
	assert.Equal(t, OriginInherited, c.Origin, "initial removes the own value, inheritance fills it")
}

func TestCascade_InheritanceInvariant(t *testing.T) {
	s := cascade(t, dom.Body().WithInlineStyle("font-size: 18px; width: 300px; letter-spacing: 1px").WithChildren(
		dom.Div().WithClass("a").WithChild(dom.P().WithChild(dom.Text("one"))),
		dom.Span().WithChild(dom.Text("two")),
		dom.New(dom.NodeH2).WithChild(dom.Text("three")),
	), ".a { text-align: center; background-color: red; line-height: 1.5 }")

	for id := range s.Dom.Descendants(0) {
		parent, hasParent := s.Dom.Node(id).Parent()
		for _, pw := range s.Style(id).Properties {
			if !pw.Property.Type.Inheritable() {
				assert.NotEqual(t, OriginInherited, pw.Origin, "node %d %s", id, pw.Property.Type)
				continue
			}
			if pw.Origin != OriginInherited {
				continue
			}
			require.True(t, hasParent)
			pv, ok := s.Style(parent).Value(pw.Property.Type)
			require.True(t, ok)
			assert.True(t, pv.Equal(pw.Property.Value), "node %d %s", id, pw.Property.Type)
		}
		if hasParent {
			for _, p := range css.AllProperties() {
				if !p.Inheritable() {
					continue
				}
				if _, own := s.Style(id).Get(p); own {
					continue
				}
				_, inParent := s.Style(parent).Get(p)
				assert.False(t, inParent, "node %d misses inherited %s", id, p)
			}
		}
	}
}

func TestCascade_LineHeightNumberStaysRelative(t *testing.T) {
	s := cascade(t, dom.Div().WithInlineStyle("font-size: 10px; line-height: 2").WithChild(
		dom.Div().WithInlineStyle("font-size: 20px"),
	), "")
	assert.Equal(t, 20.0, s.Style(0).LineHeight())
	assert.Equal(t, 40.0, s.Style(1).LineHeight())
}

func TestCascade_EmptyDom(t *testing.T) {
	s := NewResolver().Cascade(dom.NewFlatDom(dom.NewArena[dom.NodeData](0)), nil, UIState{})
	assert.Equal(t, 0, s.Len())
}
