package css

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type TransformKind uint8

const (
	TransformMatrix TransformKind = iota
	TransformTranslate
	TransformScale
	TransformRotate
	TransformSkew
)

var transformNames = map[TransformKind]string{
	TransformMatrix:    "matrix",
	TransformTranslate: "translate",
	TransformScale:     "scale",
	TransformRotate:    "rotate",
	TransformSkew:      "skew",
}

// Transform is one function of a transform list. Translations are in px,
// angles in degrees.
type Transform struct {
	Kind TransformKind
	// Args holds a..f for matrix, (x, y) for translate/scale/skew and the
	// angle in Args[0] for rotate.
	Args [6]float64
}

func (t Transform) String() string {
	n := 2
	switch t.Kind {
	case TransformMatrix:
		n = 6
	case TransformRotate:
		n = 1
	}
	args := make([]string, n)
	for i := range args {
		args[i] = strconv.FormatFloat(t.Args[i], 'f', -1, 64)
	}
	return fmt.Sprintf("%s(%s)", transformNames[t.Kind], strings.Join(args, ", "))
}

// Matrix returns the 2D affine matrix [a b c d e f] of the transform.
func (t Transform) Matrix() [6]float64 {
	switch t.Kind {
	case TransformMatrix:
		return t.Args
	case TransformTranslate:
		return [6]float64{1, 0, 0, 1, t.Args[0], t.Args[1]}
	case TransformScale:
		return [6]float64{t.Args[0], 0, 0, t.Args[1], 0, 0}
	case TransformRotate:
		r := t.Args[0] * math.Pi / 180
		return [6]float64{math.Cos(r), math.Sin(r), -math.Sin(r), math.Cos(r), 0, 0}
	case TransformSkew:
		return [6]float64{1, math.Tan(t.Args[1] * math.Pi / 180), math.Tan(t.Args[0] * math.Pi / 180), 1, 0, 0}
	}
	return [6]float64{1, 0, 0, 1, 0, 0}
}

// ComposeTransforms multiplies a transform list left to right.
func ComposeTransforms(ts []Transform) [6]float64 {
	m := [6]float64{1, 0, 0, 1, 0, 0}
	for _, t := range ts {
		n := t.Matrix()
		m = [6]float64{
			m[0]*n[0] + m[2]*n[1],
			m[1]*n[0] + m[3]*n[1],
			m[0]*n[2] + m[2]*n[3],
			m[1]*n[2] + m[3]*n[3],
			m[0]*n[4] + m[2]*n[5] + m[4],
			m[1]*n[4] + m[3]*n[5] + m[5],
		}
	}
	return m
}

// ParseTransforms parses a transform list such as "translate(10px, 5px) rotate(45deg)".
func ParseTransforms(value string) ([]Transform, bool) {
	var out []Transform
	for _, fn := range splitTopLevel(value, ' ') {
		open := strings.IndexByte(fn, '(')
		if open < 0 || !strings.HasSuffix(fn, ")") {
			return nil, false
		}
		name := strings.ToLower(fn[:open])
		args := strings.FieldsFunc(fn[open+1:len(fn)-1], func(r rune) bool { return r == ',' || r == ' ' })
		t, ok := parseTransformFunc(name, args)
		if !ok {
			return nil, false
		}
		out = append(out, t)
	}
	return out, len(out) > 0
}

func parseTransformFunc(name string, args []string) (Transform, bool) {
	nums := func(parse func(string) (float64, bool)) ([]float64, bool) {
		out := make([]float64, len(args))
		for i, a := range args {
			v, ok := parse(a)
			if !ok {
				return nil, false
			}
			out[i] = v
		}
		return out, true
	}
	number := func(s string) (float64, bool) {
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	}
	px := func(s string) (float64, bool) {
		l, ok := ParseLength(s)
		if !ok || l.Metric == Percent {
			return 0, false
		}
		return l.ToPixels(DefaultFontSize, DefaultFontSize, 0), true
	}
	angle := func(s string) (float64, bool) {
		if s == "0" {
			return 0, true
		}
		return parseAngle(s)
	}

	var t Transform
	switch name {
	case "matrix":
		v, ok := nums(number)
		if !ok || len(v) != 6 {
			return t, false
		}
		t.Kind = TransformMatrix
		copy(t.Args[:], v)
	case "translate", "translatex", "translatey":
		v, ok := nums(px)
		if !ok || len(v) == 0 || len(v) > 2 {
			return t, false
		}
		t.Kind = TransformTranslate
		switch {
		case name == "translatey":
			t.Args[1] = v[0]
		default:
			copy(t.Args[:], v)
		}
	case "scale", "scalex", "scaley":
		v, ok := nums(number)
		if !ok || len(v) == 0 || len(v) > 2 {
			return t, false
		}
		t.Kind = TransformScale
		t.Args[0], t.Args[1] = 1, 1
		switch {
		case name == "scalex":
			t.Args[0] = v[0]
		case name == "scaley":
			t.Args[1] = v[0]
		case len(v) == 1:
			t.Args[0], t.Args[1] = v[0], v[0]
		default:
			t.Args[0], t.Args[1] = v[0], v[1]
		}
	case "rotate":
		v, ok := nums(angle)
		if !ok || len(v) != 1 {
			return t, false
		}
		t.Kind = TransformRotate
		t.Args[0] = v[0]
	case "skew", "skewx", "skewy":
		v, ok := nums(angle)
		if !ok || len(v) == 0 || len(v) > 2 {
			return t, false
		}
		t.Kind = TransformSkew
		if name == "skewy" {
			t.Args[1] = v[0]
		} else {
			copy(t.Args[:], v)
		}
	default:
		return t, false
	}
	return t, true
}

// Shadow is one entry of a box-shadow or text-shadow list, in px.
type Shadow struct {
	OffsetX, OffsetY float64
	Blur, Spread     float64
	Color            Color
	Inset            bool
}

func (s Shadow) String() string {
	out := fmt.Sprintf("%gpx %gpx %gpx %gpx %s", s.OffsetX, s.OffsetY, s.Blur, s.Spread, s.Color)
	if s.Inset {
		out = "inset " + out
	}
	return out
}

// ParseShadows parses "2px 2px 4px rgba(0,0,0,0.5), inset 0 0 1px red".
func ParseShadows(value string) ([]Shadow, bool) {
	var out []Shadow
	for _, part := range splitTopLevel(value, ',') {
		var s Shadow
		s.Color = Black
		var lengths []float64
		for _, tok := range splitTopLevel(part, ' ') {
			if strings.EqualFold(tok, "inset") {
				s.Inset = true
				continue
			}
			if l, ok := ParseLength(tok); ok && l.Metric != Percent {
				lengths = append(lengths, l.ToPixels(DefaultFontSize, DefaultFontSize, 0))
				continue
			}
			c, ok := ParseColor(tok)
			if !ok {
				return nil, false
			}
			s.Color = c
		}
		if len(lengths) < 2 || len(lengths) > 4 {
			return nil, false
		}
		s.OffsetX, s.OffsetY = lengths[0], lengths[1]
		if len(lengths) > 2 {
			s.Blur = lengths[2]
		}
		if len(lengths) > 3 {
			s.Spread = lengths[3]
		}
		out = append(out, s)
	}
	return out, len(out) > 0
}
