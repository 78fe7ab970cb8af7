package css

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DefaultFontSize is the document font size in px used for the root element.
const DefaultFontSize = 16.0

var (
	ErrUnknownProperty = errors.New("unknown property")
	ErrInvalidValue    = errors.New("invalid value")
)

// ParseLength parses "10px", "1.5em", "2rem", "12pt", "50%" or a bare "0".
func ParseLength(s string) (PixelValue, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return PixelValue{}, false
	}
	units := []struct {
		suffix string
		metric SizeMetric
	}{{"px", Px}, {"rem", Rem}, {"em", Em}, {"pt", Pt}, {"%", Percent}}
	for _, u := range units {
		if strings.HasSuffix(s, u.suffix) {
			f, err := strconv.ParseFloat(strings.TrimSuffix(s, u.suffix), 64)
			if err != nil {
				return PixelValue{}, false
			}
			return PixelValue{Metric: u.metric, Number: f}, true
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != 0 {
		return PixelValue{}, false
	}
	return PxValue(0), true
}

var fontSizeKeywords = map[string]float64{
	"xx-small": 9,
	"x-small":  10,
	"small":    13,
	"medium":   16,
	"large":    18,
	"x-large":  24,
	"xx-large": 32,
}

var borderWidthKeywords = map[string]float64{"thin": 1, "medium": 3, "thick": 5}

// ParseValue parses the value of one longhand property.
func ParseValue(p PropertyType, raw string) (Value, error) {
	raw = strings.TrimSpace(raw)
	lower := strings.ToLower(raw)
	bad := func() (Value, error) {
		return Value{}, fmt.Errorf("%w for %s: %q", ErrInvalidValue, p, raw)
	}
	if raw == "" {
		return bad()
	}
	if lower == "inherit" || lower == "initial" {
		return KeywordValue(lower), nil
	}

	if _, ok := keywords[p]; ok {
		if isKeywordOf(p, lower) {
			return KeywordValue(lower), nil
		}
		return bad()
	}

	switch p {
	case PropWidth, PropHeight, PropMinWidth, PropMinHeight, PropMaxWidth, PropMaxHeight,
		PropTop, PropRight, PropBottom, PropLeft,
		PropMarginTop, PropMarginRight, PropMarginBottom, PropMarginLeft,
		PropPaddingTop, PropPaddingRight, PropPaddingBottom, PropPaddingLeft,
		PropBorderTopLeftRadius, PropBorderTopRightRadius, PropBorderBottomRightRadius, PropBorderBottomLeftRadius,
		PropFlexBasis:
		if lower == "auto" || lower == "none" || lower == "content" {
			return KeywordValue(lower), nil
		}
		l, ok := ParseLength(lower)
		if !ok {
			return bad()
		}
		return LengthValue(l), nil

	case PropBorderTopWidth, PropBorderRightWidth, PropBorderBottomWidth, PropBorderLeftWidth:
		if w, ok := borderWidthKeywords[lower]; ok {
			return PxLength(w), nil
		}
		l, ok := ParseLength(lower)
		if !ok || l.Metric == Percent {
			return bad()
		}
		return LengthValue(l), nil

	case PropFontSize:
		if px, ok := fontSizeKeywords[lower]; ok {
			return PxLength(px), nil
		}
		l, ok := ParseLength(lower)
		if !ok {
			return bad()
		}
		return LengthValue(l), nil

	case PropLineHeight:
		if lower == "normal" {
			return KeywordValue(lower), nil
		}
		if f, err := strconv.ParseFloat(lower, 64); err == nil {
			return NumberValue(f), nil
		}
		l, ok := ParseLength(lower)
		if !ok {
			return bad()
		}
		return LengthValue(l), nil

	case PropLetterSpacing, PropWordSpacing:
		if lower == "normal" {
			return PxLength(0), nil
		}
		l, ok := ParseLength(lower)
		if !ok {
			return bad()
		}
		return LengthValue(l), nil

	case PropFontWeight:
		switch lower {
		case "normal":
			return NumberValue(400), nil
		case "bold":
			return NumberValue(700), nil
		case "lighter":
			return NumberValue(300), nil
		case "bolder":
			return NumberValue(800), nil
		}
		f, err := strconv.ParseFloat(lower, 64)
		if err != nil || f < 1 || f > 1000 {
			return bad()
		}
		return NumberValue(f), nil

	case PropFlexGrow, PropFlexShrink, PropOpacity, PropOrder, PropWidows, PropOrphans, PropZIndex:
		if p == PropZIndex && lower == "auto" {
			return KeywordValue(lower), nil
		}
		f, err := strconv.ParseFloat(lower, 64)
		if err != nil {
			return bad()
		}
		if p == PropOpacity {
			if strings.HasSuffix(lower, "%") {
				return bad()
			}
			f = clamp(f, 0, 1)
		}
		return NumberValue(f), nil

	case PropTextColor, PropBackgroundColor,
		PropBorderTopColor, PropBorderRightColor, PropBorderBottomColor, PropBorderLeftColor:
		if lower == "currentcolor" {
			return KeywordValue(lower), nil
		}
		c, ok := ParseColor(lower)
		if !ok {
			return bad()
		}
		return ColorValue(c), nil

	case PropBackgroundContent:
		if lower == "none" {
			return KeywordValue(lower), nil
		}
		if strings.HasPrefix(lower, "url(") && strings.HasSuffix(lower, ")") {
			return StringValue(strings.Trim(raw[4:len(raw)-1], `"' `)), nil
		}
		g, ok := ParseGradients(raw)
		if !ok {
			return bad()
		}
		return GradientsValue(g), nil

	case PropTransform:
		if lower == "none" {
			return KeywordValue(lower), nil
		}
		t, ok := ParseTransforms(lower)
		if !ok {
			return bad()
		}
		return Value{Kind: KindTransforms, Transforms: t}, nil

	case PropBoxShadow, PropTextShadow:
		if lower == "none" {
			return KeywordValue(lower), nil
		}
		s, ok := ParseShadows(raw)
		if !ok {
			return bad()
		}
		return Value{Kind: KindShadows, Shadows: s}, nil

	case PropFontFamily:
		return StringValue(normalizeFamily(raw)), nil

	case PropCounterReset, PropCounterIncrement, PropFilter:
		return StringValue(raw), nil
	}
	return bad()
}

func normalizeFamily(raw string) string {
	parts := strings.Split(raw, ",")
	for i, p := range parts {
		parts[i] = strings.Trim(strings.TrimSpace(p), `"'`)
	}
	return strings.Join(parts, ",")
}

// ExpandDeclaration turns a possibly-shorthand declaration into longhand
// declarations. Unknown properties and invalid values are reported as errors.
func ExpandDeclaration(name, value string, important bool) ([]Declaration, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	value = strings.TrimSpace(value)
	if strings.HasSuffix(strings.ToLower(value), "!important") {
		value = strings.TrimSpace(value[:len(value)-len("!important")])
		important = true
	}

	var pairs [][2]string
	switch name {
	case "margin", "padding":
		pairs = expandBoxProperty(name+"-%s", value)
	case "border-width", "border-style", "border-color":
		pairs = expandBoxProperty("border-%s-"+strings.TrimPrefix(name, "border-"), value)
	case "border":
		for _, side := range []string{"top", "right", "bottom", "left"} {
			pairs = append(pairs, expandBorderSide(side, value)...)
		}
	case "border-top", "border-right", "border-bottom", "border-left":
		pairs = expandBorderSide(strings.TrimPrefix(name, "border-"), value)
	case "border-radius":
		pairs = expandCorners(value)
	case "overflow":
		f := strings.Fields(value)
		if len(f) == 0 {
			return nil, fmt.Errorf("%w for overflow: %q", ErrInvalidValue, value)
		}
		y := f[0]
		if len(f) > 1 {
			y = f[1]
		}
		pairs = [][2]string{{"overflow-x", f[0]}, {"overflow-y", y}}
	case "background":
		if c, ok := ParseColor(value); ok {
			pairs = [][2]string{{"background-color", c.String()}}
		} else {
			pairs = [][2]string{{"background-image", value}}
		}
	case "flex":
		pairs = expandFlex(value)
	case "flex-flow":
		for _, f := range strings.Fields(value) {
			if isKeywordOf(PropFlexDirection, f) {
				pairs = append(pairs, [2]string{"flex-direction", f})
			} else {
				pairs = append(pairs, [2]string{"flex-wrap", f})
			}
		}
	case "page-break-before":
		pairs = [][2]string{{"break-before", value}}
	case "page-break-after":
		pairs = [][2]string{{"break-after", value}}
	default:
		pairs = [][2]string{{name, value}}
	}

	out := make([]Declaration, 0, len(pairs))
	for _, kv := range pairs {
		p, ok := LookupProperty(kv[0])
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownProperty, kv[0])
		}
		v, err := ParseValue(p, kv[1])
		if err != nil {
			return nil, err
		}
		out = append(out, Declaration{Property: Property{Type: p, Value: v}, Important: important})
	}
	return out, nil
}

// expandBoxProperty expands margin/padding style shorthand
// Supports: "10px" (all), "10px 20px" (vertical horizontal),
//
//	"10px 20px 30px" (top h bottom), "10px 20px 30px 40px" (t r b l)
func expandBoxProperty(format, value string) [][2]string {
	parts := splitTopLevel(value, ' ')
	var t, r, b, l string
	switch len(parts) {
	case 1:
		t, r, b, l = parts[0], parts[0], parts[0], parts[0]
	case 2:
		t, b = parts[0], parts[0]
		r, l = parts[1], parts[1]
	case 3:
		t, r, l, b = parts[0], parts[1], parts[1], parts[2]
	case 4:
		t, r, b, l = parts[0], parts[1], parts[2], parts[3]
	default:
		// Passing the raw text through makes ParseValue report it.
		t, r, b, l = value, value, value, value
	}
	return [][2]string{
		{fmt.Sprintf(format, "top"), t},
		{fmt.Sprintf(format, "right"), r},
		{fmt.Sprintf(format, "bottom"), b},
		{fmt.Sprintf(format, "left"), l},
	}
}

// expandBorderSide expands "1px solid black" for one side.
func expandBorderSide(side, value string) [][2]string {
	width, style, color := "medium", "none", "currentcolor"
	for _, part := range splitTopLevel(value, ' ') {
		lower := strings.ToLower(part)
		switch {
		case isKeywordOf(PropBorderTopStyle, lower):
			style = lower
		case borderWidthKeywords[lower] > 0:
			width = lower
		default:
			if _, ok := ParseLength(lower); ok {
				width = lower
			} else {
				color = part
			}
		}
	}
	return [][2]string{
		{"border-" + side + "-width", width},
		{"border-" + side + "-style", style},
		{"border-" + side + "-color", color},
	}
}

func expandCorners(value string) [][2]string {
	parts := splitTopLevel(value, ' ')
	var tl, tr, br, bl string
	switch len(parts) {
	case 1:
		tl, tr, br, bl = parts[0], parts[0], parts[0], parts[0]
	case 2:
		tl, br = parts[0], parts[0]
		tr, bl = parts[1], parts[1]
	case 3:
		tl, tr, bl, br = parts[0], parts[1], parts[1], parts[2]
	case 4:
		tl, tr, br, bl = parts[0], parts[1], parts[2], parts[3]
	default:
		tl, tr, br, bl = value, value, value, value
	}
	return [][2]string{
		{"border-top-left-radius", tl},
		{"border-top-right-radius", tr},
		{"border-bottom-right-radius", br},
		{"border-bottom-left-radius", bl},
	}
}

func expandFlex(value string) [][2]string {
	switch strings.ToLower(value) {
	case "none":
		return [][2]string{{"flex-grow", "0"}, {"flex-shrink", "0"}, {"flex-basis", "auto"}}
	case "auto":
		return [][2]string{{"flex-grow", "1"}, {"flex-shrink", "1"}, {"flex-basis", "auto"}}
	}
	grow, shrink, basis := "", "1", "0%"
	for _, f := range strings.Fields(value) {
		if _, err := strconv.ParseFloat(f, 64); err == nil {
			if grow == "" {
				grow = f
			} else {
				shrink = f
			}
			continue
		}
		basis = f
	}
	if grow == "" {
		grow = "1"
	}
	return [][2]string{{"flex-grow", grow}, {"flex-shrink", shrink}, {"flex-basis", basis}}
}
