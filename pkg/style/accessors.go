package style

import (
	"styledom/pkg/css"
	"styledom/pkg/geom"
)

// NormalLineHeight is the multiple of the font size used for
// "line-height: normal".
const NormalLineHeight = 1.15

func (c *ComputedStyle) keyword(p css.PropertyType, def string) string {
	if v, ok := c.Value(p); ok && v.Kind == css.KindKeyword {
		return v.Keyword
	}
	return def
}

func (c *ComputedStyle) number(p css.PropertyType, def float64) float64 {
	if v, ok := c.Value(p); ok && v.Kind == css.KindNumber {
		return v.Number
	}
	return def
}

func (c *ComputedStyle) color(p css.PropertyType, def css.Color) css.Color {
	if v, ok := c.Value(p); ok && v.Kind == css.KindColor {
		return v.Color
	}
	return def
}

func (c *ComputedStyle) Display() css.Display {
	return css.Display(c.keyword(css.PropDisplay, string(css.DisplayInline)))
}

func (c *ComputedStyle) Position() css.PositionType {
	return css.PositionType(c.keyword(css.PropPosition, string(css.PositionStatic)))
}

// IsPositioned reports whether the box is a containing block for
// absolutely positioned descendants.
func (c *ComputedStyle) IsPositioned() bool { return c.Position() != css.PositionStatic }

// IsOutOfFlow reports whether the box is absolutely or fixed positioned.
func (c *ComputedStyle) IsOutOfFlow() bool {
	p := c.Position()
	return p == css.PositionAbsolute || p == css.PositionFixed
}

func (c *ComputedStyle) Float() css.FloatType {
	return css.FloatType(c.keyword(css.PropFloat, string(css.FloatNone)))
}

func (c *ComputedStyle) Clear() css.ClearType {
	return css.ClearType(c.keyword(css.PropClear, string(css.ClearNone)))
}

func (c *ComputedStyle) BoxSizing() css.BoxSizing {
	return css.BoxSizing(c.keyword(css.PropBoxSizing, string(css.BoxSizingContentBox)))
}

func (c *ComputedStyle) OverflowX() css.Overflow {
	return css.Overflow(c.keyword(css.PropOverflowX, string(css.OverflowVisible)))
}

func (c *ComputedStyle) OverflowY() css.Overflow {
	return css.Overflow(c.keyword(css.PropOverflowY, string(css.OverflowVisible)))
}

// ClipsContent reports whether overflow is anything but visible.
func (c *ComputedStyle) ClipsContent() bool {
	return c.OverflowX() != css.OverflowVisible || c.OverflowY() != css.OverflowVisible
}

// Length returns a length property. ok is false for auto, none or unset.
func (c *ComputedStyle) Length(p css.PropertyType) (css.PixelValue, bool) {
	if v, ok := c.Value(p); ok && v.Kind == css.KindLength {
		return v.Length, true
	}
	return css.PixelValue{}, false
}

// ResolveLength resolves p in px, with percentages taken of base. def is
// returned for auto or unset values.
func (c *ComputedStyle) ResolveLength(p css.PropertyType, base, def float64) float64 {
	l, ok := c.Length(p)
	if !ok {
		return def
	}
	return l.ToPixels(c.FontSize(), c.FontSize(), base)
}

// IsAuto reports whether p is unset or auto.
func (c *ComputedStyle) IsAuto(p css.PropertyType) bool {
	_, ok := c.Length(p)
	return !ok
}

// FontSize is the resolved font size in px.
func (c *ComputedStyle) FontSize() float64 {
	if l, ok := c.Length(css.PropFontSize); ok && l.Metric == css.Px {
		return l.Number
	}
	return css.DefaultFontSize
}

func (c *ComputedStyle) FontFamily() string {
	if v, ok := c.Value(css.PropFontFamily); ok && v.Kind == css.KindString {
		return v.Text
	}
	return "sans-serif"
}

func (c *ComputedStyle) FontWeight() float64 { return c.number(css.PropFontWeight, 400) }

func (c *ComputedStyle) FontStyle() css.FontStyle {
	return css.FontStyle(c.keyword(css.PropFontStyle, string(css.FontStyleNormal)))
}

// LineHeight is the resolved line height in px.
func (c *ComputedStyle) LineHeight() float64 {
	v, ok := c.Value(css.PropLineHeight)
	if ok {
		switch v.Kind {
		case css.KindNumber:
			return v.Number * c.FontSize()
		case css.KindLength:
			return v.Length.ToPixels(c.FontSize(), c.FontSize(), c.FontSize())
		}
	}
	return NormalLineHeight * c.FontSize()
}

func (c *ComputedStyle) LetterSpacing() float64 { return c.ResolveLength(css.PropLetterSpacing, 0, 0) }
func (c *ComputedStyle) WordSpacing() float64   { return c.ResolveLength(css.PropWordSpacing, 0, 0) }

// TextAlign maps start and end to left and right for ltr text.
func (c *ComputedStyle) TextAlign() css.TextAlign {
	a := css.TextAlign(c.keyword(css.PropTextAlign, string(css.TextAlignStart)))
	rtl := c.Direction() == css.DirectionRTL
	switch a {
	case css.TextAlignStart:
		if rtl {
			return css.TextAlignRight
		}
		return css.TextAlignLeft
	case css.TextAlignEnd:
		if rtl {
			return css.TextAlignLeft
		}
		return css.TextAlignRight
	}
	return a
}

func (c *ComputedStyle) TextJustify() css.TextJustify {
	return css.TextJustify(c.keyword(css.PropTextJustify, string(css.TextJustifyAuto)))
}

func (c *ComputedStyle) Direction() css.Direction {
	return css.Direction(c.keyword(css.PropDirection, string(css.DirectionLTR)))
}

func (c *ComputedStyle) WhiteSpace() css.WhiteSpace {
	return css.WhiteSpace(c.keyword(css.PropWhiteSpace, string(css.WhiteSpaceNormal)))
}

func (c *ComputedStyle) Hyphens() css.Hyphens {
	return css.Hyphens(c.keyword(css.PropHyphens, string(css.HyphensManual)))
}

func (c *ComputedStyle) TextColor() css.Color { return c.color(css.PropTextColor, css.Black) }

func (c *ComputedStyle) BackgroundColor() css.Color {
	return c.color(css.PropBackgroundColor, css.Transparent)
}

// Background returns background-image: gradients or an image name.
func (c *ComputedStyle) Background() ([]css.Gradient, string) {
	v, ok := c.Value(css.PropBackgroundContent)
	if !ok {
		return nil, ""
	}
	switch v.Kind {
	case css.KindGradients:
		return v.Gradients, ""
	case css.KindString:
		return nil, v.Text
	}
	return nil, ""
}

func (c *ComputedStyle) Opacity() float64 { return c.number(css.PropOpacity, 1) }

func (c *ComputedStyle) Transforms() []css.Transform {
	if v, ok := c.Value(css.PropTransform); ok && v.Kind == css.KindTransforms {
		return v.Transforms
	}
	return nil
}

func (c *ComputedStyle) BoxShadows() []css.Shadow {
	if v, ok := c.Value(css.PropBoxShadow); ok && v.Kind == css.KindShadows {
		return v.Shadows
	}
	return nil
}

func (c *ComputedStyle) TextShadows() []css.Shadow {
	if v, ok := c.Value(css.PropTextShadow); ok && v.Kind == css.KindShadows {
		return v.Shadows
	}
	return nil
}

func (c *ComputedStyle) Visible() bool {
	return c.keyword(css.PropVisibility, string(css.VisibilityVisible)) == string(css.VisibilityVisible)
}

// ZIndex returns the stacking order; ok is false for auto.
func (c *ComputedStyle) ZIndex() (int, bool) {
	if v, ok := c.Value(css.PropZIndex); ok && v.Kind == css.KindNumber {
		return int(v.Number), true
	}
	return 0, false
}

func (c *ComputedStyle) TextDecoration() string { return c.keyword(css.PropTextDecoration, "none") }

func (c *ComputedStyle) Cursor() string { return c.keyword(css.PropCursor, "auto") }

func (c *ComputedStyle) Filter() string {
	if v, ok := c.Value(css.PropFilter); ok && v.Kind == css.KindString {
		return v.Text
	}
	return ""
}

// Margin resolves the four margins; percentages are of the containing
// block width. Auto margins resolve to 0 here.
func (c *ComputedStyle) Margin(cbWidth float64) geom.Edges {
	return geom.Edges{
		Top:    c.ResolveLength(css.PropMarginTop, cbWidth, 0),
		Right:  c.ResolveLength(css.PropMarginRight, cbWidth, 0),
		Bottom: c.ResolveLength(css.PropMarginBottom, cbWidth, 0),
		Left:   c.ResolveLength(css.PropMarginLeft, cbWidth, 0),
	}
}

// AutoMargins reports which horizontal margins are auto.
func (c *ComputedStyle) AutoMargins() (left, right bool) {
	l, _ := c.Value(css.PropMarginLeft)
	r, _ := c.Value(css.PropMarginRight)
	return l.IsKeyword("auto"), r.IsKeyword("auto")
}

// AutoMarginsVertical reports which vertical margins are auto.
func (c *ComputedStyle) AutoMarginsVertical() (top, bottom bool) {
	t, _ := c.Value(css.PropMarginTop)
	b, _ := c.Value(css.PropMarginBottom)
	return t.IsKeyword("auto"), b.IsKeyword("auto")
}

func (c *ComputedStyle) Padding(cbWidth float64) geom.Edges {
	return geom.Edges{
		Top:    c.ResolveLength(css.PropPaddingTop, cbWidth, 0),
		Right:  c.ResolveLength(css.PropPaddingRight, cbWidth, 0),
		Bottom: c.ResolveLength(css.PropPaddingBottom, cbWidth, 0),
		Left:   c.ResolveLength(css.PropPaddingLeft, cbWidth, 0),
	}
}

// Side indexes the four box sides.
type Side uint8

const (
	SideTop Side = iota
	SideRight
	SideBottom
	SideLeft
)

var (
	borderWidthProps = [4]css.PropertyType{css.PropBorderTopWidth, css.PropBorderRightWidth, css.PropBorderBottomWidth, css.PropBorderLeftWidth}
	borderStyleProps = [4]css.PropertyType{css.PropBorderTopStyle, css.PropBorderRightStyle, css.PropBorderBottomStyle, css.PropBorderLeftStyle}
	borderColorProps = [4]css.PropertyType{css.PropBorderTopColor, css.PropBorderRightColor, css.PropBorderBottomColor, css.PropBorderLeftColor}
	radiusProps      = [4]css.PropertyType{css.PropBorderTopLeftRadius, css.PropBorderTopRightRadius, css.PropBorderBottomRightRadius, css.PropBorderBottomLeftRadius}
)

func (c *ComputedStyle) BorderStyle(s Side) css.BorderStyle {
	return css.BorderStyle(c.keyword(borderStyleProps[s], string(css.BorderStyleNone)))
}

// BorderWidth is 0 when the side has no visible style.
func (c *ComputedStyle) BorderWidth(s Side) float64 {
	switch c.BorderStyle(s) {
	case css.BorderStyleNone, "hidden":
		return 0
	}
	return c.ResolveLength(borderWidthProps[s], 0, 3)
}

// BorderColor defaults to the text color.
func (c *ComputedStyle) BorderColor(s Side) css.Color {
	return c.color(borderColorProps[s], c.TextColor())
}

func (c *ComputedStyle) Border() geom.Edges {
	return geom.Edges{
		Top:    c.BorderWidth(SideTop),
		Right:  c.BorderWidth(SideRight),
		Bottom: c.BorderWidth(SideBottom),
		Left:   c.BorderWidth(SideLeft),
	}
}

// Radii returns the corner radii clockwise from top-left.
func (c *ComputedStyle) Radii(boxWidth float64) [4]float64 {
	var out [4]float64
	for i, p := range radiusProps {
		out[i] = c.ResolveLength(p, boxWidth, 0)
	}
	return out
}

func (c *ComputedStyle) FlexDirection() css.FlexDirection {
	return css.FlexDirection(c.keyword(css.PropFlexDirection, string(css.FlexDirectionRow)))
}

func (c *ComputedStyle) FlexWrap() css.FlexWrap {
	return css.FlexWrap(c.keyword(css.PropFlexWrap, string(css.FlexWrapNoWrap)))
}

func (c *ComputedStyle) FlexGrow() float64   { return c.number(css.PropFlexGrow, 0) }
func (c *ComputedStyle) FlexShrink() float64 { return c.number(css.PropFlexShrink, 1) }
func (c *ComputedStyle) Order() int          { return int(c.number(css.PropOrder, 0)) }

func (c *ComputedStyle) JustifyContent() css.JustifyContent {
	return css.JustifyContent(c.keyword(css.PropJustifyContent, string(css.JustifyFlexStart)))
}

func (c *ComputedStyle) AlignItems() css.AlignItems {
	return css.AlignItems(c.keyword(css.PropAlignItems, string(css.AlignStretch)))
}

func (c *ComputedStyle) AlignSelf() css.AlignItems {
	return css.AlignItems(c.keyword(css.PropAlignSelf, string(css.AlignAuto)))
}

func (c *ComputedStyle) AlignContent() css.AlignContent {
	return css.AlignContent(c.keyword(css.PropAlignContent, string(css.AlignContentStretch)))
}

func (c *ComputedStyle) BreakBefore() css.BreakKind {
	return css.BreakKind(c.keyword(css.PropBreakBefore, string(css.BreakAuto)))
}

func (c *ComputedStyle) BreakAfter() css.BreakKind {
	return css.BreakKind(c.keyword(css.PropBreakAfter, string(css.BreakAuto)))
}

func (c *ComputedStyle) Widows() int  { return int(c.number(css.PropWidows, 2)) }
func (c *ComputedStyle) Orphans() int { return int(c.number(css.PropOrphans, 2)) }

func (c *ComputedStyle) CounterReset() string     { return c.text(css.PropCounterReset) }
func (c *ComputedStyle) CounterIncrement() string { return c.text(css.PropCounterIncrement) }

func (c *ComputedStyle) text(p css.PropertyType) string {
	if v, ok := c.Value(p); ok && v.Kind == css.KindString {
		return v.Text
	}
	return ""
}
