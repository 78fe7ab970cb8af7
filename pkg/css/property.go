package css

import "sort"

// PropertyType identifies a longhand CSS property. Shorthands such as
// margin or border are expanded by the parser and never stored.
type PropertyType int

const (
	PropDisplay PropertyType = iota
	PropPosition
	PropFloat
	PropClear
	PropBoxSizing
	PropOverflowX
	PropOverflowY

	PropWidth
	PropHeight
	PropMinWidth
	PropMinHeight
	PropMaxWidth
	PropMaxHeight

	PropTop
	PropRight
	PropBottom
	PropLeft

	PropMarginTop
	PropMarginRight
	PropMarginBottom
	PropMarginLeft

	PropPaddingTop
	PropPaddingRight
	PropPaddingBottom
	PropPaddingLeft

	PropBorderTopWidth
	PropBorderRightWidth
	PropBorderBottomWidth
	PropBorderLeftWidth

	PropBorderTopStyle
	PropBorderRightStyle
	PropBorderBottomStyle
	PropBorderLeftStyle

	PropBorderTopColor
	PropBorderRightColor
	PropBorderBottomColor
	PropBorderLeftColor

	PropBorderTopLeftRadius
	PropBorderTopRightRadius
	PropBorderBottomRightRadius
	PropBorderBottomLeftRadius

	PropFlexDirection
	PropFlexWrap
	PropFlexGrow
	PropFlexShrink
	PropFlexBasis
	PropJustifyContent
	PropAlignItems
	PropAlignSelf
	PropAlignContent
	PropOrder

	PropFontFamily
	PropFontSize
	PropFontWeight
	PropFontStyle
	PropLineHeight
	PropLetterSpacing
	PropWordSpacing
	PropTextAlign
	PropTextJustify
	PropDirection
	PropWhiteSpace
	PropHyphens

	PropTextColor
	PropBackgroundColor
	PropBackgroundContent
	PropOpacity
	PropTransform
	PropBoxShadow
	PropTextShadow
	PropFilter
	PropCursor
	PropVisibility
	PropZIndex
	PropTextDecoration

	PropCounterReset
	PropCounterIncrement
	PropBreakBefore
	PropBreakAfter
	PropWidows
	PropOrphans

	numProperties
)

// NumProperties is the number of longhand property types.
const NumProperties = int(numProperties)

// category groups properties by which layout phase they influence.
type category uint8

const (
	categoryPaint category = iota
	categoryText
	categorySizing
	categoryStructural
)

type propertyInfo struct {
	name      string
	inherited bool
	category  category
}

var properties = [numProperties]propertyInfo{
	PropDisplay:   {"display", false, categoryStructural},
	PropPosition:  {"position", false, categoryStructural},
	PropFloat:     {"float", false, categoryStructural},
	PropClear:     {"clear", false, categoryStructural},
	PropBoxSizing: {"box-sizing", false, categorySizing},
	PropOverflowX: {"overflow-x", false, categoryStructural},
	PropOverflowY: {"overflow-y", false, categoryStructural},

	PropWidth:     {"width", false, categorySizing},
	PropHeight:    {"height", false, categorySizing},
	PropMinWidth:  {"min-width", false, categorySizing},
	PropMinHeight: {"min-height", false, categorySizing},
	PropMaxWidth:  {"max-width", false, categorySizing},
	PropMaxHeight: {"max-height", false, categorySizing},

	PropTop:    {"top", false, categoryStructural},
	PropRight:  {"right", false, categoryStructural},
	PropBottom: {"bottom", false, categoryStructural},
	PropLeft:   {"left", false, categoryStructural},

	PropMarginTop:    {"margin-top", false, categoryStructural},
	PropMarginRight:  {"margin-right", false, categoryStructural},
	PropMarginBottom: {"margin-bottom", false, categoryStructural},
	PropMarginLeft:   {"margin-left", false, categoryStructural},

	PropPaddingTop:    {"padding-top", false, categorySizing},
	PropPaddingRight:  {"padding-right", false, categorySizing},
	PropPaddingBottom: {"padding-bottom", false, categorySizing},
	PropPaddingLeft:   {"padding-left", false, categorySizing},

	PropBorderTopWidth:    {"border-top-width", false, categorySizing},
	PropBorderRightWidth:  {"border-right-width", false, categorySizing},
	PropBorderBottomWidth: {"border-bottom-width", false, categorySizing},
	PropBorderLeftWidth:   {"border-left-width", false, categorySizing},

	PropBorderTopStyle:    {"border-top-style", false, categorySizing},
	PropBorderRightStyle:  {"border-right-style", false, categorySizing},
	PropBorderBottomStyle: {"border-bottom-style", false, categorySizing},
	PropBorderLeftStyle:   {"border-left-style", false, categorySizing},

	PropBorderTopColor:    {"border-top-color", false, categoryPaint},
	PropBorderRightColor:  {"border-right-color", false, categoryPaint},
	PropBorderBottomColor: {"border-bottom-color", false, categoryPaint},
	PropBorderLeftColor:   {"border-left-color", false, categoryPaint},

	PropBorderTopLeftRadius:     {"border-top-left-radius", false, categoryPaint},
	PropBorderTopRightRadius:    {"border-top-right-radius", false, categoryPaint},
	PropBorderBottomRightRadius: {"border-bottom-right-radius", false, categoryPaint},
	PropBorderBottomLeftRadius:  {"border-bottom-left-radius", false, categoryPaint},

	PropFlexDirection:  {"flex-direction", false, categoryStructural},
	PropFlexWrap:       {"flex-wrap", false, categoryStructural},
	PropFlexGrow:       {"flex-grow", false, categoryStructural},
	PropFlexShrink:     {"flex-shrink", false, categoryStructural},
	PropFlexBasis:      {"flex-basis", false, categoryStructural},
	PropJustifyContent: {"justify-content", false, categoryStructural},
	PropAlignItems:     {"align-items", false, categoryStructural},
	PropAlignSelf:      {"align-self", false, categoryStructural},
	PropAlignContent:   {"align-content", false, categoryStructural},
	PropOrder:          {"order", false, categoryStructural},

	PropFontFamily:    {"font-family", true, categoryText},
	PropFontSize:      {"font-size", true, categoryText},
	PropFontWeight:    {"font-weight", true, categoryText},
	PropFontStyle:     {"font-style", true, categoryText},
	PropLineHeight:    {"line-height", true, categoryText},
	PropLetterSpacing: {"letter-spacing", true, categoryText},
	PropWordSpacing:   {"word-spacing", true, categoryText},
	PropTextAlign:     {"text-align", true, categoryText},
	PropTextJustify:   {"text-justify", true, categoryText},
	PropDirection:     {"direction", true, categoryText},
	PropWhiteSpace:    {"white-space", true, categoryText},
	PropHyphens:       {"hyphens", true, categoryText},

	PropTextColor:         {"color", true, categoryPaint},
	PropBackgroundColor:   {"background-color", false, categoryPaint},
	PropBackgroundContent: {"background-image", false, categoryPaint},
	PropOpacity:           {"opacity", false, categoryPaint},
	PropTransform:         {"transform", false, categoryPaint},
	PropBoxShadow:         {"box-shadow", false, categoryPaint},
	PropTextShadow:        {"text-shadow", true, categoryPaint},
	PropFilter:            {"filter", false, categoryPaint},
	PropCursor:            {"cursor", true, categoryPaint},
	PropVisibility:        {"visibility", true, categoryPaint},
	PropZIndex:            {"z-index", false, categoryPaint},
	PropTextDecoration:    {"text-decoration", false, categoryPaint},

	PropCounterReset:     {"counter-reset", false, categoryStructural},
	PropCounterIncrement: {"counter-increment", false, categoryStructural},
	PropBreakBefore:      {"break-before", false, categoryStructural},
	PropBreakAfter:       {"break-after", false, categoryStructural},
	PropWidows:           {"widows", true, categoryStructural},
	PropOrphans:          {"orphans", true, categoryStructural},
}

var propertiesByName = func() map[string]PropertyType {
	m := make(map[string]PropertyType, numProperties)
	for i := PropertyType(0); i < numProperties; i++ {
		m[properties[i].name] = i
	}
	return m
}()

// LookupProperty maps a CSS property name to its type.
func LookupProperty(name string) (PropertyType, bool) {
	p, ok := propertiesByName[name]
	return p, ok
}

// AllProperties returns every property type in ascending order.
func AllProperties() []PropertyType {
	all := make([]PropertyType, numProperties)
	for i := range all {
		all[i] = PropertyType(i)
	}
	return all
}

func (p PropertyType) valid() bool { return p >= 0 && p < numProperties }

// String returns the CSS name of the property.
func (p PropertyType) String() string {
	if !p.valid() {
		return "unknown"
	}
	return properties[p].name
}

// Inheritable reports whether the property is inherited by children that
// do not declare it themselves.
func (p PropertyType) Inheritable() bool {
	return p.valid() && properties[p].inherited
}

// RelayoutScope is the smallest layout phase that must rerun when a
// property changes. Scopes are totally ordered: None < IfcOnly <
// SizingOnly < Full.
type RelayoutScope uint8

const (
	// ScopeNone means paint only.
	ScopeNone RelayoutScope = iota
	// ScopeIfcOnly reruns text layout in the enclosing inline formatting context.
	ScopeIfcOnly
	// ScopeSizingOnly recomputes box dimensions, reusing child arrangements
	// whose available width did not change.
	ScopeSizingOnly
	// ScopeFull rebuilds from the nearest block formatting context root.
	ScopeFull
)

func (s RelayoutScope) String() string {
	switch s {
	case ScopeNone:
		return "None"
	case ScopeIfcOnly:
		return "IfcOnly"
	case ScopeSizingOnly:
		return "SizingOnly"
	case ScopeFull:
		return "Full"
	}
	return "invalid"
}

// MaxScope returns the larger of two scopes.
func MaxScope(a, b RelayoutScope) RelayoutScope {
	if a > b {
		return a
	}
	return b
}

// RelayoutScope classifies a change of this property. isIfcMember is true
// when the changed node takes part in an inline formatting context, in which
// case font and text properties only require the IFC to be reshaped.
func (p PropertyType) RelayoutScope(isIfcMember bool) RelayoutScope {
	if !p.valid() {
		return ScopeFull
	}
	switch properties[p].category {
	case categoryPaint:
		return ScopeNone
	case categoryText:
		if isIfcMember {
			return ScopeIfcOnly
		}
		return ScopeNone
	case categorySizing:
		return ScopeSizingOnly
	default:
		return ScopeFull
	}
}

// CanTriggerRelayout is the boolean form of RelayoutScope.
func (p PropertyType) CanTriggerRelayout() bool {
	if !p.valid() {
		return true
	}
	return properties[p].category != categoryPaint
}

// SortProperties sorts a slice of property types in place.
func SortProperties(ps []PropertyType) {
	sort.Slice(ps, func(i, j int) bool { return ps[i] < ps[j] })
}
