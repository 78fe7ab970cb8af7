package css

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Color is a non-premultiplied RGBA color.
type Color struct {
	R, G, B, A uint8
}

var (
	Black       = Color{0, 0, 0, 255}
	White       = Color{255, 255, 255, 255}
	Transparent = Color{0, 0, 0, 0}
)

var namedColors = map[string]Color{
	"red":         {255, 0, 0, 255},
	"green":       {0, 128, 0, 255},
	"blue":        {0, 0, 255, 255},
	"yellow":      {255, 255, 0, 255},
	"cyan":        {0, 255, 255, 255},
	"aqua":        {0, 255, 255, 255},
	"magenta":     {255, 0, 255, 255},
	"fuchsia":     {255, 0, 255, 255},
	"white":       {255, 255, 255, 255},
	"black":       {0, 0, 0, 255},
	"gray":        {128, 128, 128, 255},
	"grey":        {128, 128, 128, 255},
	"lightgray":   {211, 211, 211, 255},
	"darkgray":    {169, 169, 169, 255},
	"orange":      {255, 165, 0, 255},
	"purple":      {128, 0, 128, 255},
	"pink":        {255, 192, 203, 255},
	"brown":       {165, 42, 42, 255},
	"lime":        {0, 255, 0, 255},
	"navy":        {0, 0, 128, 255},
	"teal":        {0, 128, 128, 255},
	"olive":       {128, 128, 0, 255},
	"maroon":      {128, 0, 0, 255},
	"silver":      {192, 192, 192, 255},
	"transparent": {0, 0, 0, 0},
}

// ParseColor accepts named colors, #rgb, #rgba, #rrggbb, #rrggbbaa, rgb() and rgba().
func ParseColor(s string) (Color, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[s]; ok {
		return c, true
	}
	if strings.HasPrefix(s, "#") {
		return parseHexColor(s[1:])
	}
	if strings.HasPrefix(s, "rgb(") || strings.HasPrefix(s, "rgba(") {
		return parseRGBFunc(s)
	}
	return Color{}, false
}

func parseHexColor(h string) (Color, bool) {
	nibble := func(c byte) (uint8, bool) {
		v, err := strconv.ParseUint(string(c), 16, 8)
		return uint8(v), err == nil
	}
	switch len(h) {
	case 3, 4:
		var out [4]uint8
		out[3] = 255
		for i := 0; i < len(h); i++ {
			v, ok := nibble(h[i])
			if !ok {
				return Color{}, false
			}
			out[i] = v*16 + v
		}
		return Color{out[0], out[1], out[2], out[3]}, true
	case 6, 8:
		var out [4]uint8
		out[3] = 255
		for i := 0; i < len(h)/2; i++ {
			v, err := strconv.ParseUint(h[i*2:i*2+2], 16, 8)
			if err != nil {
				return Color{}, false
			}
			out[i] = uint8(v)
		}
		return Color{out[0], out[1], out[2], out[3]}, true
	}
	return Color{}, false
}

func parseRGBFunc(s string) (Color, bool) {
	open := strings.IndexByte(s, '(')
	if open < 0 || !strings.HasSuffix(s, ")") {
		return Color{}, false
	}
	args := strings.FieldsFunc(s[open+1:len(s)-1], func(r rune) bool {
		return r == ',' || r == ' ' || r == '/'
	})
	if len(args) != 3 && len(args) != 4 {
		return Color{}, false
	}
	var out [4]uint8
	out[3] = 255
	for i, a := range args {
		if i == 3 {
			f, ok := parseAlpha(a)
			if !ok {
				return Color{}, false
			}
			out[3] = uint8(clamp(f, 0, 1)*255 + 0.5)
			continue
		}
		if strings.HasSuffix(a, "%") {
			f, err := strconv.ParseFloat(strings.TrimSuffix(a, "%"), 64)
			if err != nil {
				return Color{}, false
			}
			out[i] = uint8(clamp(f, 0, 100)*255/100 + 0.5)
			continue
		}
		f, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return Color{}, false
		}
		out[i] = uint8(clamp(f, 0, 255) + 0.5)
	}
	return Color{out[0], out[1], out[2], out[3]}, true
}

func parseAlpha(a string) (float64, bool) {
	if strings.HasSuffix(a, "%") {
		f, err := strconv.ParseFloat(strings.TrimSuffix(a, "%"), 64)
		return f / 100, err == nil
	}
	f, err := strconv.ParseFloat(a, 64)
	return f, err == nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// RGBA converts to the standard library color type used by the paint sinks.
func (c Color) RGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

func (c Color) String() string {
	if c.A == 255 {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}
