package css

import (
	"fmt"
	"strconv"
	"strings"
)

// GradientType represents the type of CSS gradient
type GradientType int

const (
	GradientLinear GradientType = iota
	GradientRadial
)

// ColorStop is a color and an optional position along the gradient line.
type ColorStop struct {
	Color     Color
	Offset    PixelValue
	HasOffset bool
}

// Gradient is a parsed linear-gradient() or radial-gradient().
type Gradient struct {
	Type GradientType
	// Angle in degrees for linear gradients; 180 is "to bottom".
	Angle float64
	// Shape is "ellipse" or "circle" for radial gradients.
	Shape string
	Stops []ColorStop
}

// Equal compares two gradients.
func (g Gradient) Equal(o Gradient) bool {
	if g.Type != o.Type || g.Angle != o.Angle || g.Shape != o.Shape || len(g.Stops) != len(o.Stops) {
		return false
	}
	for i := range g.Stops {
		if g.Stops[i] != o.Stops[i] {
			return false
		}
	}
	return true
}

func (g Gradient) String() string {
	stops := make([]string, len(g.Stops))
	for i, s := range g.Stops {
		stops[i] = s.Color.String()
		if s.HasOffset {
			stops[i] += " " + s.Offset.String()
		}
	}
	if g.Type == GradientRadial {
		return fmt.Sprintf("radial-gradient(%s, %s)", g.Shape, strings.Join(stops, ", "))
	}
	return fmt.Sprintf("linear-gradient(%sdeg, %s)", strconv.FormatFloat(g.Angle, 'f', -1, 64), strings.Join(stops, ", "))
}

var sideAngles = map[string]float64{
	"to top":          0,
	"to top right":    45,
	"to right top":    45,
	"to right":        90,
	"to bottom right": 135,
	"to right bottom": 135,
	"to bottom":       180,
	"to bottom left":  225,
	"to left bottom":  225,
	"to left":         270,
	"to top left":     315,
	"to left top":     315,
}

// ParseGradient parses a single linear-gradient() or radial-gradient() value.
// Example: "linear-gradient(to right, blue 0, blue 150px, red 150px, red 300px)"
func ParseGradient(value string) (Gradient, bool) {
	value = strings.TrimSpace(value)
	var g Gradient
	var content string
	switch {
	case strings.HasPrefix(value, "linear-gradient(") && strings.HasSuffix(value, ")"):
		g.Type = GradientLinear
		g.Angle = 180
		content = value[len("linear-gradient(") : len(value)-1]
	case strings.HasPrefix(value, "radial-gradient(") && strings.HasSuffix(value, ")"):
		g.Type = GradientRadial
		g.Shape = "ellipse"
		content = value[len("radial-gradient(") : len(value)-1]
	default:
		return Gradient{}, false
	}

	parts := splitTopLevel(content, ',')
	if len(parts) == 0 {
		return Gradient{}, false
	}
	start := 0
	first := strings.ToLower(strings.TrimSpace(parts[0]))
	if g.Type == GradientLinear {
		if a, ok := sideAngles[strings.Join(strings.Fields(first), " ")]; ok {
			g.Angle = a
			start = 1
		} else if a, ok := parseAngle(first); ok {
			g.Angle = a
			start = 1
		}
	} else if strings.HasPrefix(first, "circle") || strings.HasPrefix(first, "ellipse") {
		g.Shape = strings.Fields(first)[0]
		start = 1
	}

	for _, p := range parts[start:] {
		stop, ok := parseColorStop(strings.TrimSpace(p))
		if !ok {
			return Gradient{}, false
		}
		g.Stops = append(g.Stops, stop)
	}
	if len(g.Stops) < 2 {
		return Gradient{}, false
	}
	return g, true
}

// ParseGradients parses a comma separated list of gradients.
func ParseGradients(value string) ([]Gradient, bool) {
	var out []Gradient
	for _, p := range splitTopLevel(value, ',') {
		g, ok := ParseGradient(p)
		if !ok {
			return nil, false
		}
		out = append(out, g)
	}
	return out, len(out) > 0
}

func parseAngle(s string) (float64, bool) {
	units := []struct {
		suffix string
		scale  float64
	}{{"deg", 1}, {"turn", 360}, {"grad", 0.9}, {"rad", 57.29577951308232}}
	for _, u := range units {
		if strings.HasSuffix(s, u.suffix) {
			f, err := strconv.ParseFloat(strings.TrimSuffix(s, u.suffix), 64)
			if err != nil {
				return 0, false
			}
			return f * u.scale, true
		}
	}
	return 0, false
}

// parseColorStop parses a color stop like "blue 150px" or "red 50%"
func parseColorStop(stop string) (ColorStop, bool) {
	parts := splitTopLevel(stop, ' ')
	if len(parts) == 0 {
		return ColorStop{}, false
	}
	c, ok := ParseColor(parts[0])
	if !ok {
		return ColorStop{}, false
	}
	cs := ColorStop{Color: c}
	if len(parts) >= 2 {
		off, ok := ParseLength(parts[1])
		if !ok {
			return ColorStop{}, false
		}
		cs.Offset = off
		cs.HasOffset = true
	}
	return cs, true
}

// splitTopLevel splits content by sep, respecting parentheses. Empty parts
// are dropped when sep is a space.
func splitTopLevel(content string, sep rune) []string {
	var parts []string
	var current strings.Builder
	depth := 0
	flush := func() {
		s := strings.TrimSpace(current.String())
		if s != "" || sep != ' ' {
			parts = append(parts, s)
		}
		current.Reset()
	}
	for _, ch := range content {
		switch {
		case ch == '(':
			depth++
			current.WriteRune(ch)
		case ch == ')':
			depth--
			current.WriteRune(ch)
		case ch == sep && depth == 0:
			flush()
		default:
			current.WriteRune(ch)
		}
	}
	if strings.TrimSpace(current.String()) != "" {
		flush()
	}
	return parts
}

// ResolvedStop is a color stop positioned on [0,1].
type ResolvedStop struct {
	Color  Color
	Offset float64
}

// ResolveStops converts stop offsets to fractions of a gradient line of the
// given length and fills in missing offsets by distributing evenly.
func (g Gradient) ResolveStops(length float64) []ResolvedStop {
	out := make([]ResolvedStop, len(g.Stops))
	for i, s := range g.Stops {
		out[i] = ResolvedStop{Color: s.Color, Offset: -1}
		if !s.HasOffset {
			continue
		}
		if s.Offset.Metric == Percent {
			out[i].Offset = s.Offset.Number / 100
		} else if length > 0 {
			out[i].Offset = s.Offset.ToPixels(0, 0, 0) / length
		}
	}
	if len(out) == 0 {
		return out
	}
	if out[0].Offset < 0 {
		out[0].Offset = 0
	}
	last := len(out) - 1
	if out[last].Offset < 0 {
		out[last].Offset = 1
	}
	for i := range out {
		if out[i].Offset >= 0 {
			continue
		}
		prev := i - 1
		next := i + 1
		for next < len(out) && out[next].Offset < 0 {
			next++
		}
		step := (out[next].Offset - out[prev].Offset) / float64(next-prev)
		out[i].Offset = out[prev].Offset + step*float64(i-prev)
	}
	// Stops never go backwards along the line.
	for i := 1; i < len(out); i++ {
		if out[i].Offset < out[i-1].Offset {
			out[i].Offset = out[i-1].Offset
		}
	}
	return out
}
