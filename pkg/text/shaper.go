package text

import (
	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
)

// Run is one shaping request. Text is the whole paragraph so that shapers
// see context across the run boundaries; only [Start, End) is shaped.
type Run struct {
	Text     []rune
	Start    int
	End      int
	Font     Font
	Size     float64
	RTL      bool
	Script   language.Script
	Language string
}

// Shaper turns a run into glyphs in logical order. Glyph clusters are
// indices into Run.Text.
type Shaper interface {
	Shape(run Run) ([]Glyph, error)
}

// SimpleShaper maps each rune to one glyph using the font's advances and
// pair kerning. It forms no ligatures.
type SimpleShaper struct{}

func (SimpleShaper) Shape(run Run) ([]Glyph, error) {
	glyphs := make([]Glyph, 0, run.End-run.Start)
	for i := run.Start; i < run.End; i++ {
		r := run.Text[i]
		adv, ok := run.Font.GlyphAdvance(r, run.Size)
		id := uint32(r)
		if !ok {
			adv, id = run.Font.NotdefAdvance(run.Size), 0
		}
		if i+1 < run.End {
			adv += run.Font.Kern(r, run.Text[i+1], run.Size)
		}
		glyphs = append(glyphs, Glyph{ID: id, Cluster: i, Runes: 1, Advance: adv})
	}
	return glyphs, nil
}

// FixedShaper is a deterministic shaper for tests. It behaves like
// SimpleShaper and, with Ligatures set, joins "fi" into one glyph one
// rune wide.
type FixedShaper struct {
	Ligatures bool
}

func (s FixedShaper) Shape(run Run) ([]Glyph, error) {
	glyphs := make([]Glyph, 0, run.End-run.Start)
	for i := run.Start; i < run.End; i++ {
		r := run.Text[i]
		adv, ok := run.Font.GlyphAdvance(r, run.Size)
		id := uint32(r)
		if !ok {
			adv, id = run.Font.NotdefAdvance(run.Size), 0
		}
		if s.Ligatures && r == 'f' && i+1 < run.End && run.Text[i+1] == 'i' {
			glyphs = append(glyphs, Glyph{ID: 0xFB01, Cluster: i, Runes: 2, Advance: adv})
			i++
			continue
		}
		glyphs = append(glyphs, Glyph{ID: id, Cluster: i, Runes: 1, Advance: adv})
	}
	return glyphs, nil
}

// HarfbuzzShaper shapes with go-text's HarfBuzz port. Fonts that cannot be
// opened by go-text are shaped by Fallback.
type HarfbuzzShaper struct {
	hb       shaping.HarfbuzzShaper
	Fallback Shaper
}

func NewHarfbuzzShaper() *HarfbuzzShaper {
	return &HarfbuzzShaper{Fallback: SimpleShaper{}}
}

func (s *HarfbuzzShaper) Shape(run Run) ([]Glyph, error) {
	tf, ok := run.Font.(TypesettingFont)
	if !ok {
		return s.Fallback.Shape(run)
	}
	face, err := tf.TypesettingFace()
	if err != nil || face == nil {
		return s.Fallback.Shape(run)
	}
	dir := di.DirectionLTR
	if run.RTL {
		dir = di.DirectionRTL
	}
	out := s.hb.Shape(shaping.Input{
		Text:      run.Text,
		RunStart:  run.Start,
		RunEnd:    run.End,
		Direction: dir,
		Face:      face,
		Size:      toFixed(run.Size),
		Script:    run.Script,
		Language:  language.NewLanguage(run.Language),
	})
	glyphs := make([]Glyph, len(out.Glyphs))
	for i, g := range out.Glyphs {
		glyphs[i] = Glyph{
			ID:      uint32(g.GlyphID),
			Cluster: g.ClusterIndex,
			Runes:   g.RuneCount,
			Advance: fx(g.XAdvance),
			XOffset: fx(g.XOffset),
			YOffset: fx(g.YOffset),
		}
	}
	if run.RTL {
		// HarfBuzz returns right-to-left runs in visual order.
		for i, j := 0, len(glyphs)-1; i < j; i, j = i+1, j-1 {
			glyphs[i], glyphs[j] = glyphs[j], glyphs[i]
		}
	}
	return glyphs, nil
}
