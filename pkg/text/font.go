package text

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	gtfont "github.com/go-text/typesetting/font"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// Metrics are vertical font metrics in px.
type Metrics struct {
	Ascent  float64
	Descent float64
	LineGap float64
}

// Height is the font's normal line height.
func (m Metrics) Height() float64 { return m.Ascent + m.Descent + m.LineGap }

// Font measures glyphs at any size.
type Font interface {
	Name() string
	Metrics(size float64) Metrics
	// GlyphAdvance reports false when the font has no glyph for r.
	GlyphAdvance(r rune, size float64) (float64, bool)
	Kern(a, b rune, size float64) float64
	NotdefAdvance(size float64) float64
}

// TypesettingFont is implemented by fonts that can be shaped with
// HarfBuzz.
type TypesettingFont interface {
	Font
	TypesettingFace() (*gtfont.Face, error)
}

// FaceFont is implemented by fonts that can hand out an x/image face for
// rasterizing.
type FaceFont interface {
	Font
	Face(size float64) font.Face
}

// FontProvider resolves a font key to a font.
type FontProvider interface {
	Lookup(key FontKey) (Font, error)
}

func fx(v fixed.Int26_6) float64 { return float64(v) / 64 }

func toFixed(v float64) fixed.Int26_6 { return fixed.Int26_6(v*64 + 0.5) }

// sfntFont is an OpenType font parsed by x/image.
type sfntFont struct {
	name string
	data []byte
	f    *sfnt.Font

	mu    sync.Mutex
	faces map[float64]font.Face
	buf   sfnt.Buffer
	tf    *gtfont.Face
	tfErr error
	tfSet bool
}

// ParseFont parses TrueType or OpenType data.
func ParseFont(name string, data []byte) (Font, error) {
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", name, err)
	}
	return &sfntFont{name: name, data: data, f: f, faces: map[float64]font.Face{}}, nil
}

func (s *sfntFont) Name() string { return s.name }

func (s *sfntFont) face(size float64) font.Face {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.faces[size]; ok {
		return f
	}
	f, err := opentype.NewFace(s.f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingNone})
	if err != nil {
		return nil
	}
	s.faces[size] = f
	return f
}

// Face returns the face at size, nil when it cannot be built.
func (s *sfntFont) Face(size float64) font.Face { return s.face(size) }

func (s *sfntFont) Metrics(size float64) Metrics {
	f := s.face(size)
	if f == nil {
		return Metrics{Ascent: 0.8 * size, Descent: 0.2 * size}
	}
	m := f.Metrics()
	asc, desc := fx(m.Ascent), fx(m.Descent)
	return Metrics{Ascent: asc, Descent: desc, LineGap: max(0, fx(m.Height)-asc-desc)}
}

func (s *sfntFont) GlyphAdvance(r rune, size float64) (float64, bool) {
	f := s.face(size)
	if f == nil {
		return 0, false
	}
	a, ok := f.GlyphAdvance(r)
	return fx(a), ok
}

func (s *sfntFont) Kern(a, b rune, size float64) float64 {
	f := s.face(size)
	if f == nil {
		return 0
	}
	return fx(f.Kern(a, b))
}

func (s *sfntFont) NotdefAdvance(size float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, err := s.f.GlyphAdvance(&s.buf, 0, toFixed(size), font.HintingNone)
	if err != nil {
		return size / 2
	}
	return fx(a)
}

// TypesettingFace parses the same data for go-text. The face is built once.
func (s *sfntFont) TypesettingFace() (*gtfont.Face, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.tfSet {
		s.tf, s.tfErr = gtfont.ParseTTF(bytes.NewReader(s.data))
		s.tfSet = true
	}
	return s.tf, s.tfErr
}

type faceKey struct {
	family string
	bold   bool
	italic bool
}

// GoFontProvider serves the Go font family for the generic families and
// any fonts registered on it. Unknown families fall back to the fallback
// family; with an empty fallback Lookup fails with ErrMissingFont.
type GoFontProvider struct {
	mu       sync.Mutex
	faces    map[faceKey]Font
	fallback string
}

var builtinFaces = []struct {
	family       string
	bold, italic bool
	data         []byte
}{
	{"sans-serif", false, false, goregular.TTF},
	{"sans-serif", true, false, gobold.TTF},
	{"sans-serif", false, true, goitalic.TTF},
	{"sans-serif", true, true, gobolditalic.TTF},
	{"monospace", false, false, gomono.TTF},
	{"monospace", true, false, gomonobold.TTF},
}

// generic maps family names onto the built in faces.
var generic = map[string]string{
	"sans-serif": "sans-serif",
	"serif":      "sans-serif",
	"system-ui":  "sans-serif",
	"go":         "sans-serif",
	"monospace":  "monospace",
	"go mono":    "monospace",
}

// NewGoFontProvider parses the embedded Go fonts. Fonts that fail to parse
// are skipped.
func NewGoFontProvider() *GoFontProvider {
	p := &GoFontProvider{faces: map[faceKey]Font{}, fallback: "sans-serif"}
	for _, b := range builtinFaces {
		f, err := ParseFont("Go "+b.family, b.data)
		if err != nil {
			continue
		}
		p.faces[faceKey{b.family, b.bold, b.italic}] = f
	}
	return p
}

// SetFallback changes the family used when nothing in a family list
// matches. An empty family disables the fallback.
func (p *GoFontProvider) SetFallback(family string) {
	p.mu.Lock()
	p.fallback = strings.ToLower(family)
	p.mu.Unlock()
}

// Register adds a font under family.
func (p *GoFontProvider) Register(family string, bold, italic bool, data []byte) error {
	f, err := ParseFont(family, data)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.faces[faceKey{strings.ToLower(family), bold, italic}] = f
	p.mu.Unlock()
	return nil
}

func (p *GoFontProvider) Lookup(key FontKey) (Font, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, fam := range splitFamilies(key.Family) {
		if f := p.find(fam, key.Bold(), key.Italic); f != nil {
			return f, nil
		}
		if g, ok := generic[fam]; ok {
			if f := p.find(g, key.Bold(), key.Italic); f != nil {
				return f, nil
			}
		}
	}
	if p.fallback != "" {
		if f := p.find(p.fallback, key.Bold(), key.Italic); f != nil {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrMissingFont, key.Family)
}

// find degrades italic, then bold, before giving up on a family.
func (p *GoFontProvider) find(family string, bold, italic bool) Font {
	for _, k := range []faceKey{{family, bold, italic}, {family, bold, false}, {family, false, italic}, {family, false, false}} {
		if f, ok := p.faces[k]; ok {
			return f
		}
	}
	return nil
}

func splitFamilies(list string) []string {
	var out []string
	for _, f := range strings.Split(list, ",") {
		f = strings.ToLower(strings.Trim(strings.TrimSpace(f), `"'`))
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// FixedFont gives every rune the same advance, a fraction of the font
// size. Ascent and descent are 0.8 and 0.2 of the size.
type FixedFont struct {
	// Advance is the advance per rune in em.
	Advance float64
	// Missing lists runes the font has no glyph for.
	Missing string
}

func (f FixedFont) Name() string { return "fixed" }

func (f FixedFont) Metrics(size float64) Metrics {
	return Metrics{Ascent: 0.8 * size, Descent: 0.2 * size}
}

func (f FixedFont) advance() float64 {
	if f.Advance == 0 {
		return 0.5
	}
	return f.Advance
}

func (f FixedFont) GlyphAdvance(r rune, size float64) (float64, bool) {
	if strings.ContainsRune(f.Missing, r) {
		return 0, false
	}
	return f.advance() * size, true
}

func (f FixedFont) Kern(a, b rune, size float64) float64 { return 0 }

func (f FixedFont) NotdefAdvance(size float64) float64 { return f.advance() * size }

// FixedProvider returns the same FixedFont for every key.
type FixedProvider struct {
	Font FixedFont
}

func (p FixedProvider) Lookup(FontKey) (Font, error) { return p.Font, nil }
