package text

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
)

func TestGoFontProvider_Lookup(t *testing.T) {
	p := NewGoFontProvider()

	f, err := p.Lookup(FontKey{Family: `"Helvetica Neue", Arial, sans-serif`, Weight: 400})
	require.NoError(t, err)
	m := f.Metrics(16)
	assert.Greater(t, m.Ascent, 0.0)
	assert.Greater(t, m.Descent, 0.0)
	adv, ok := f.GlyphAdvance('a', 16)
	assert.True(t, ok)
	assert.Greater(t, adv, 0.0)

	bold, err := p.Lookup(FontKey{Family: "sans-serif", Weight: 700})
	require.NoError(t, err)
	assert.NotSame(t, f, bold)

	mono, err := p.Lookup(FontKey{Family: "monospace", Italic: true})
	require.NoError(t, err)
	i, _ := mono.GlyphAdvance('i', 16)
	w, _ := mono.GlyphAdvance('w', 16)
	assert.Equal(t, i, w)

	unknown, err := p.Lookup(FontKey{Family: "Nope"})
	require.NoError(t, err, "unknown families use the fallback")
	assert.Same(t, f, unknown)

	p.SetFallback("")
	_, err = p.Lookup(FontKey{Family: "Nope"})
	assert.ErrorIs(t, err, ErrMissingFont)
}

func TestParseFont_Invalid(t *testing.T) {
	_, err := ParseFont("junk", []byte("not a font"))
	assert.Error(t, err)
}

func TestHarfbuzzShaper(t *testing.T) {
	f, err := NewGoFontProvider().Lookup(FontKey{Family: "sans-serif"})
	require.NoError(t, err)

	text := []rune("xHello")
	glyphs, err := NewHarfbuzzShaper().Shape(Run{Text: text, Start: 1, End: 6, Font: f, Size: 16, Language: "en"})
	require.NoError(t, err)
	require.Len(t, glyphs, 5)
	for i, g := range glyphs {
		assert.Equal(t, i+1, g.Cluster)
		assert.Greater(t, g.Advance, 0.0)
	}
}

func TestHarfbuzzShaper_FallsBackForPlainFonts(t *testing.T) {
	glyphs, err := NewHarfbuzzShaper().Shape(Run{Text: []rune("ab"), End: 2, Font: FixedFont{}, Size: 10})
	require.NoError(t, err)
	require.Len(t, glyphs, 2)
	assert.Equal(t, 5.0, glyphs[0].Advance)
}

func TestFontFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Go-Regular.ttf"), goregular.TTF, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Go-Bold.otf"), []byte("not a font"), 0o600))

	fc := DirFontFiles(dir, "Go")
	assert.Equal(t, filepath.Join(dir, "Go-Regular.ttf"), fc.Regular)
	assert.Equal(t, filepath.Join(dir, "Go-Bold.otf"), fc.Path(true, false))
	assert.Equal(t, fc.Regular, fc.Path(false, true))

	p := NewGoFontProvider()
	p.SetFallback("")
	err := p.RegisterFiles(fc)
	assert.Error(t, err, "the bold file is not a font")

	f, err := p.Lookup(FontKey{Family: "Go", Weight: 400})
	require.NoError(t, err)
	assert.Equal(t, "Go", f.Name())
}
