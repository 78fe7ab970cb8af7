package app

import (
	"fmt"

	"go.uber.org/zap"

	"styledom/pkg/config"
	"styledom/pkg/layout"
	"styledom/pkg/style"
	"styledom/pkg/text"
)

// Stack is the style and layout machinery one window runs on. Windows of
// an app share the font provider but never a layout engine, whose caches
// belong to one tree.
type Stack struct {
	Fonts    text.FontProvider
	Resolver *style.Resolver
	Engine   *layout.Engine
}

// NewFonts returns the Go fonts plus the family configured in cfg.
func NewFonts(cfg config.Text) (*text.GoFontProvider, error) {
	p := text.NewGoFontProvider()
	if cfg.FontDir == "" || cfg.FontFamily == "" {
		return p, nil
	}
	if err := p.RegisterFiles(text.DirFontFiles(cfg.FontDir, cfg.FontFamily)); err != nil {
		return p, fmt.Errorf("register %s fonts: %w", cfg.FontFamily, err)
	}
	p.SetFallback(cfg.FontFamily)
	return p, nil
}

// NewShaper maps the configured shaper kind onto a shaper.
func NewShaper(kind string) (text.Shaper, error) {
	switch kind {
	case "", "simple":
		return text.SimpleShaper{}, nil
	case "harfbuzz":
		return text.NewHarfbuzzShaper(), nil
	}
	return nil, fmt.Errorf("%w: %q", config.ErrInvalidShaper, kind)
}

// NewStack builds a resolver and a layout engine from cfg.
func NewStack(cfg *config.Config, fonts text.FontProvider, log *zap.Logger) (*Stack, error) {
	if log == nil {
		log = zap.NewNop()
	}
	shaper, err := NewShaper(cfg.Text.ShaperKind)
	if err != nil {
		return nil, err
	}
	layouter := text.NewLayouter(fonts,
		text.WithLogger(log),
		text.WithShaper(shaper),
		text.WithLanguage(cfg.Text.Language),
		text.WithLastResortAdvance(cfg.Text.LastResortAdvance),
		text.WithCacheSize(cfg.Text.CacheSize),
	)
	return &Stack{
		Fonts: fonts,
		Resolver: style.NewResolver(
			style.WithLogger(log),
			style.WithDefaultFontSize(cfg.Layout.DefaultFontSize),
		),
		Engine: layout.NewEngine(fonts,
			layout.WithLogger(log),
			layout.WithTextLayouter(layouter),
			layout.WithHyphenation(cfg.Text.Hyphenate),
			layout.WithWidowsOrphans(cfg.Layout.WidowsOrphans),
		),
	}, nil
}
