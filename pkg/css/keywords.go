package css

// Keyword types. Values are the CSS spelling so a computed keyword can be
// converted with a plain type conversion.

type Display string

const (
	DisplayBlock       Display = "block"
	DisplayInline      Display = "inline"
	DisplayInlineBlock Display = "inline-block"
	DisplayFlex        Display = "flex"
	DisplayInlineFlex  Display = "inline-flex"
	DisplayNone        Display = "none"
)

type PositionType string

const (
	PositionStatic   PositionType = "static"
	PositionRelative PositionType = "relative"
	PositionAbsolute PositionType = "absolute"
	PositionFixed    PositionType = "fixed"
)

type FloatType string

const (
	FloatNone  FloatType = "none"
	FloatLeft  FloatType = "left"
	FloatRight FloatType = "right"
)

type ClearType string

const (
	ClearNone  ClearType = "none"
	ClearLeft  ClearType = "left"
	ClearRight ClearType = "right"
	ClearBoth  ClearType = "both"
)

type Overflow string

const (
	OverflowVisible Overflow = "visible"
	OverflowHidden  Overflow = "hidden"
	OverflowScroll  Overflow = "scroll"
	OverflowAuto    Overflow = "auto"
)

type BoxSizing string

const (
	BoxSizingContentBox BoxSizing = "content-box"
	BoxSizingBorderBox  BoxSizing = "border-box"
)

type TextAlign string

const (
	TextAlignLeft    TextAlign = "left"
	TextAlignRight   TextAlign = "right"
	TextAlignCenter  TextAlign = "center"
	TextAlignJustify TextAlign = "justify"
	TextAlignStart   TextAlign = "start"
	TextAlignEnd     TextAlign = "end"
)

type TextJustify string

const (
	TextJustifyAuto           TextJustify = "auto"
	TextJustifyInterWord      TextJustify = "inter-word"
	TextJustifyInterCharacter TextJustify = "inter-character"
	TextJustifyNone           TextJustify = "none"
)

type Direction string

const (
	DirectionLTR  Direction = "ltr"
	DirectionRTL  Direction = "rtl"
	DirectionAuto Direction = "auto"
)

type WhiteSpace string

const (
	WhiteSpaceNormal WhiteSpace = "normal"
	WhiteSpaceNoWrap WhiteSpace = "nowrap"
	WhiteSpacePre    WhiteSpace = "pre"
)

type Hyphens string

const (
	HyphensNone   Hyphens = "none"
	HyphensManual Hyphens = "manual"
	HyphensAuto   Hyphens = "auto"
)

type FontStyle string

const (
	FontStyleNormal FontStyle = "normal"
	FontStyleItalic FontStyle = "italic"
)

type FlexDirection string

const (
	FlexDirectionRow           FlexDirection = "row"
	FlexDirectionRowReverse    FlexDirection = "row-reverse"
	FlexDirectionColumn        FlexDirection = "column"
	FlexDirectionColumnReverse FlexDirection = "column-reverse"
)

// IsColumn reports whether the main axis is vertical.
func (d FlexDirection) IsColumn() bool {
	return d == FlexDirectionColumn || d == FlexDirectionColumnReverse
}

func (d FlexDirection) IsReverse() bool {
	return d == FlexDirectionRowReverse || d == FlexDirectionColumnReverse
}

type FlexWrap string

const (
	FlexWrapNoWrap      FlexWrap = "nowrap"
	FlexWrapWrap        FlexWrap = "wrap"
	FlexWrapWrapReverse FlexWrap = "wrap-reverse"
)

type JustifyContent string

const (
	JustifyFlexStart    JustifyContent = "flex-start"
	JustifyFlexEnd      JustifyContent = "flex-end"
	JustifyCenter       JustifyContent = "center"
	JustifySpaceBetween JustifyContent = "space-between"
	JustifySpaceAround  JustifyContent = "space-around"
	JustifySpaceEvenly  JustifyContent = "space-evenly"
)

type AlignItems string

const (
	AlignStretch   AlignItems = "stretch"
	AlignFlexStart AlignItems = "flex-start"
	AlignFlexEnd   AlignItems = "flex-end"
	AlignCenter    AlignItems = "center"
	AlignBaseline  AlignItems = "baseline"
	AlignAuto      AlignItems = "auto"
)

// AlignContent packs the lines of a multi-line flex container.
type AlignContent string

const (
	AlignContentStretch      AlignContent = "stretch"
	AlignContentFlexStart    AlignContent = "flex-start"
	AlignContentFlexEnd      AlignContent = "flex-end"
	AlignContentCenter       AlignContent = "center"
	AlignContentSpaceBetween AlignContent = "space-between"
	AlignContentSpaceAround  AlignContent = "space-around"
)

type BorderStyle string

const (
	BorderStyleNone   BorderStyle = "none"
	BorderStyleSolid  BorderStyle = "solid"
	BorderStyleDashed BorderStyle = "dashed"
	BorderStyleDotted BorderStyle = "dotted"
	BorderStyleDouble BorderStyle = "double"
)

type Visibility string

const (
	VisibilityVisible Visibility = "visible"
	VisibilityHidden  Visibility = "hidden"
)

type BreakKind string

const (
	BreakAuto  BreakKind = "auto"
	BreakPage  BreakKind = "page"
	BreakAvoid BreakKind = "avoid"
	// BreakColumn forces a break in multi-column layout only.
	BreakColumn BreakKind = "column"
)

// keywords lists the accepted keywords of keyword-valued properties.
var keywords = map[PropertyType][]string{
	PropDisplay:        {"block", "inline", "inline-block", "flex", "inline-flex", "none"},
	PropPosition:       {"static", "relative", "absolute", "fixed"},
	PropFloat:          {"none", "left", "right"},
	PropClear:          {"none", "left", "right", "both"},
	PropBoxSizing:      {"content-box", "border-box"},
	PropOverflowX:      {"visible", "hidden", "scroll", "auto"},
	PropOverflowY:      {"visible", "hidden", "scroll", "auto"},
	PropFlexDirection:  {"row", "row-reverse", "column", "column-reverse"},
	PropFlexWrap:       {"nowrap", "wrap", "wrap-reverse"},
	PropJustifyContent: {"flex-start", "flex-end", "center", "space-between", "space-around", "space-evenly", "start", "end"},
	PropAlignItems:     {"stretch", "flex-start", "flex-end", "center", "baseline", "start", "end"},
	PropAlignSelf:      {"auto", "stretch", "flex-start", "flex-end", "center", "baseline", "start", "end"},
	PropAlignContent:   {"stretch", "flex-start", "flex-end", "center", "space-between", "space-around"},
	PropFontStyle:      {"normal", "italic", "oblique"},
	PropTextAlign:      {"left", "right", "center", "justify", "start", "end"},
	PropTextJustify:    {"auto", "inter-word", "inter-character", "none"},
	PropDirection:      {"ltr", "rtl", "auto"},
	PropWhiteSpace:     {"normal", "nowrap", "pre"},
	PropHyphens:        {"none", "manual", "auto"},
	PropCursor:         {"auto", "default", "pointer", "text", "move", "wait", "crosshair", "not-allowed", "grab", "help", "progress"},
	PropVisibility:     {"visible", "hidden", "collapse"},
	PropTextDecoration: {"none", "underline", "overline", "line-through"},
	PropBreakBefore:    {"auto", "page", "avoid", "column"},
	PropBreakAfter:     {"auto", "page", "avoid", "column"},

	PropBorderTopStyle:    borderStyles,
	PropBorderRightStyle:  borderStyles,
	PropBorderBottomStyle: borderStyles,
	PropBorderLeftStyle:   borderStyles,
}

var borderStyles = []string{"none", "hidden", "solid", "dashed", "dotted", "double", "groove", "ridge", "inset", "outset"}

func isKeywordOf(p PropertyType, k string) bool {
	for _, w := range keywords[p] {
		if w == k {
			return true
		}
	}
	return false
}
