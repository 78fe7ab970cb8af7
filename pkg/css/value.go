package css

import (
	"fmt"
	"strconv"
	"strings"
)

// SizeMetric is the unit of a length.
type SizeMetric uint8

const (
	Px SizeMetric = iota
	Em
	Rem
	Pt
	Percent
)

func (m SizeMetric) String() string {
	switch m {
	case Px:
		return "px"
	case Em:
		return "em"
	case Rem:
		return "rem"
	case Pt:
		return "pt"
	case Percent:
		return "%"
	}
	return "?"
}

// PixelValue is a number with a unit. After the cascade every length except
// percentages is stored in Px.
type PixelValue struct {
	Metric SizeMetric
	Number float64
}

// PxValue is shorthand for a pixel length.
func PxValue(n float64) PixelValue { return PixelValue{Metric: Px, Number: n} }

// ToPixels resolves the value. fontSize is the element's own font size,
// rootFontSize the root element's, percentBase the reference dimension.
func (v PixelValue) ToPixels(fontSize, rootFontSize, percentBase float64) float64 {
	switch v.Metric {
	case Em:
		return v.Number * fontSize
	case Rem:
		return v.Number * rootFontSize
	case Pt:
		return v.Number * 96.0 / 72.0
	case Percent:
		return v.Number / 100 * percentBase
	default:
		return v.Number
	}
}

func (v PixelValue) String() string {
	return strconv.FormatFloat(v.Number, 'f', -1, 64) + v.Metric.String()
}

// ValueKind discriminates the payload of a Value.
type ValueKind uint8

const (
	KindUnset ValueKind = iota
	KindKeyword
	KindLength
	KindNumber
	KindColor
	KindString
	KindGradients
	KindTransforms
	KindShadows
)

// Value is the parsed value of one longhand property.
type Value struct {
	Kind       ValueKind
	Keyword    string
	Length     PixelValue
	Number     float64
	Color      Color
	Text       string
	Gradients  []Gradient
	Transforms []Transform
	Shadows    []Shadow
}

func KeywordValue(k string) Value       { return Value{Kind: KindKeyword, Keyword: k} }
func LengthValue(l PixelValue) Value    { return Value{Kind: KindLength, Length: l} }
func NumberValue(n float64) Value       { return Value{Kind: KindNumber, Number: n} }
func ColorValue(c Color) Value          { return Value{Kind: KindColor, Color: c} }
func StringValue(s string) Value        { return Value{Kind: KindString, Text: s} }
func PxLength(n float64) Value          { return LengthValue(PxValue(n)) }
func GradientsValue(g []Gradient) Value { return Value{Kind: KindGradients, Gradients: g} }

// IsKeyword reports whether v is the given keyword.
func (v Value) IsKeyword(k string) bool { return v.Kind == KindKeyword && v.Keyword == k }

// Equal compares two values structurally.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindUnset:
		return true
	case KindKeyword:
		return v.Keyword == o.Keyword
	case KindLength:
		return v.Length == o.Length
	case KindNumber:
		return v.Number == o.Number
	case KindColor:
		return v.Color == o.Color
	case KindString:
		return v.Text == o.Text
	case KindGradients:
		if len(v.Gradients) != len(o.Gradients) {
			return false
		}
		for i := range v.Gradients {
			if !v.Gradients[i].Equal(o.Gradients[i]) {
				return false
			}
		}
		return true
	case KindTransforms:
		if len(v.Transforms) != len(o.Transforms) {
			return false
		}
		for i := range v.Transforms {
			if v.Transforms[i] != o.Transforms[i] {
				return false
			}
		}
		return true
	case KindShadows:
		if len(v.Shadows) != len(o.Shadows) {
			return false
		}
		for i := range v.Shadows {
			if v.Shadows[i] != o.Shadows[i] {
				return false
			}
		}
		return true
	}
	return false
}

func (v Value) String() string {
	switch v.Kind {
	case KindKeyword:
		return v.Keyword
	case KindLength:
		return v.Length.String()
	case KindNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case KindColor:
		return v.Color.String()
	case KindString:
		return v.Text
	case KindGradients:
		parts := make([]string, len(v.Gradients))
		for i, g := range v.Gradients {
			parts[i] = g.String()
		}
		return strings.Join(parts, ", ")
	case KindTransforms:
		parts := make([]string, len(v.Transforms))
		for i, t := range v.Transforms {
			parts[i] = t.String()
		}
		return strings.Join(parts, " ")
	case KindShadows:
		parts := make([]string, len(v.Shadows))
		for i, s := range v.Shadows {
			parts[i] = s.String()
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

// Property is a typed longhand property with its value.
type Property struct {
	Type  PropertyType
	Value Value
}

func (p Property) String() string {
	return fmt.Sprintf("%s: %s", p.Type, p.Value)
}

// Equal compares type and value.
func (p Property) Equal(o Property) bool {
	return p.Type == o.Type && p.Value.Equal(o.Value)
}

// Declaration is one property inside a rule block.
type Declaration struct {
	Property  Property
	Important bool
}
