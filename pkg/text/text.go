// Package text lays out inline content into lines. It resolves fonts
// through a FontProvider, shapes whole runs with a Shaper, resolves
// bidirectional levels, breaks lines greedily with optional hyphenation,
// justifies and positions every cluster. The result is a UnifiedLayout plus
// per-item metrics that the layout engine caches per inline formatting
// context.
package text

import (
	"errors"
	"math"

	"styledom/pkg/css"
	"styledom/pkg/dom"
	"styledom/pkg/geom"
)

var (
	// ErrMissingFont means no font of the requested family list could be
	// found. Layout continues with the last-resort font.
	ErrMissingFont = errors.New("text: missing font")
	// ErrShapingFailure means the shaper produced no glyphs for a non-empty
	// run. The run is drawn with .notdef glyphs.
	ErrShapingFailure = errors.New("text: shaping failure")
)

// FontKey selects a face. Family may be a comma separated fallback list.
type FontKey struct {
	Family string
	Weight int
	Italic bool
}

// Bold reports whether the weight maps to a bold face.
func (k FontKey) Bold() bool { return k.Weight >= 600 }

// Style is the text style of one inline content item.
type Style struct {
	Font     FontKey
	FontSize float64
	// LineHeight is in px; zero means the font's normal line height.
	LineHeight    float64
	LetterSpacing float64
	WordSpacing   float64
	WhiteSpace    css.WhiteSpace
	Hyphens       css.Hyphens
	Language      string
}

// ContentKind tags an InlineContent item.
type ContentKind uint8

const (
	ContentText ContentKind = iota
	// ContentObject is an atomic inline: an image or inline-block.
	ContentObject
	// ContentBreak is a forced line break.
	ContentBreak
)

// InlineContent is one styled piece of an inline formatting context in
// document order.
type InlineContent struct {
	Kind  ContentKind
	Node  dom.NodeId
	Text  string
	Style Style
	// Size is the margin box of an object.
	Size geom.Size
	// Baseline is the distance from the object's top to its baseline. Zero
	// puts the bottom edge on the baseline.
	Baseline float64
}

// WritingMode is recorded on constraints. Only horizontal-tb is laid out.
type WritingMode uint8

const (
	HorizontalTB WritingMode = iota
	VerticalRL
	VerticalLR
)

// Hole is a float excluding part of the line boxes, in the coordinate space
// of the inline formatting context's content box.
type Hole struct {
	Rect geom.Rect
	Side css.FloatType
}

// Constraints describe the space a paragraph is laid out in.
type Constraints struct {
	// AvailableWidth may be +Inf for max-content measurement.
	AvailableWidth float64
	TextAlign      css.TextAlign
	TextJustify    css.TextJustify
	Direction      css.Direction
	CanBreak       bool
	CanHyphenate   bool
	WritingMode    WritingMode
	Holes          []Hole
	// MinLineHeight is the strut of the block container.
	MinLineHeight float64
	TextIndent    float64
}

// HasFloats reports whether any hole shapes the lines.
func (c Constraints) HasFloats() bool { return len(c.Holes) > 0 }

// Unbounded reports whether lines can grow without limit.
func (c Constraints) Unbounded() bool { return math.IsInf(c.AvailableWidth, 1) }

// Glyph is one shaped glyph. Cluster is the rune index of the first rune
// of the glyph's cluster in the shaped text.
type Glyph struct {
	ID      uint32
	Cluster int
	Runes   int
	Advance float64
	XOffset float64
	YOffset float64
}

// ItemKind tags a ShapedItem.
type ItemKind uint8

const (
	ItemText ItemKind = iota
	ItemObject
	ItemBreak
	// ItemHyphen is the hyphen inserted at a hyphenation point.
	ItemHyphen
)

// ShapedItem is one cluster, object or break after shaping.
type ShapedItem struct {
	Kind    ItemKind
	Node    dom.NodeId
	Content int
	Text    string
	Glyphs  []Glyph
	Font    Font
	Size    float64
	Advance float64
	// Ascent and Descent are the glyph box around the baseline.
	Ascent  float64
	Descent float64
	// LineHeight is the contribution to the line box height.
	LineHeight float64
	Level      uint8
	// CanBreak reports a soft break opportunity after the item.
	CanBreak bool
	IsSpace  bool
}

// PositionedItem places a ShapedItem. Position is the top-left corner of
// the item's glyph box.
type PositionedItem struct {
	Item      ShapedItem
	Position  geom.Point
	LineIndex int
	Baseline  float64
}

// Bounds returns the item's rectangle.
func (p *PositionedItem) Bounds() geom.Rect {
	return geom.Rect{X: p.Position.X, Y: p.Position.Y, Width: p.Item.Advance, Height: p.Item.Ascent + p.Item.Descent}
}

// Line describes one line box.
type Line struct {
	Index    int
	Top      float64
	Height   float64
	Baseline float64
	// Left and Width are the line box after float holes were removed.
	Left  float64
	Width float64
	// ContentWidth excludes hanging trailing spaces.
	ContentWidth  float64
	WasHyphenated bool
	HardBreak     bool
	// Items indexes the line's items in UnifiedLayout.Items.
	First, Last int
}

// OverflowInfo reports content that does not fit the constraints.
type OverflowInfo struct {
	OverflowsX     bool
	OverflowLines  []int
	ContentBounds  geom.Rect
	AvailableWidth float64
}

// UnifiedLayout is the laid out paragraph. Items are in visual order within
// each line and lines follow each other.
type UnifiedLayout struct {
	Items     []PositionedItem
	Lines     []Line
	Overflow  OverflowInfo
	Direction css.Direction
	Warnings  []error
}

// Height is the bottom of the last line.
func (u *UnifiedLayout) Height() float64 {
	if u == nil || len(u.Lines) == 0 {
		return 0
	}
	l := u.Lines[len(u.Lines)-1]
	return l.Top + l.Height
}

// Width is the widest line's content.
func (u *UnifiedLayout) Width() float64 {
	if u == nil {
		return 0
	}
	w := 0.0
	for _, l := range u.Lines {
		w = max(w, l.ContentWidth)
	}
	return w
}

// FirstBaseline is the baseline of the first line, or zero without lines.
func (u *UnifiedLayout) FirstBaseline() float64 {
	if u == nil || len(u.Lines) == 0 {
		return 0
	}
	return u.Lines[0].Baseline
}

// LineItems returns the items of line i.
func (u *UnifiedLayout) LineItems(i int) []PositionedItem {
	l := u.Lines[i]
	return u.Items[l.First:l.Last]
}

// Translate returns a copy moved by d. The receiver is not modified.
func (u *UnifiedLayout) Translate(d geom.Point) *UnifiedLayout {
	out := *u
	out.Items = make([]PositionedItem, len(u.Items))
	for i, it := range u.Items {
		it.Position = it.Position.Add(d)
		it.Baseline += d.Y
		out.Items[i] = it
	}
	out.Lines = make([]Line, len(u.Lines))
	for i, l := range u.Lines {
		l.Top += d.Y
		l.Baseline += d.Y
		l.Left += d.X
		out.Lines[i] = l
	}
	out.Overflow.ContentBounds = u.Overflow.ContentBounds.Translate(d.X, d.Y)
	return &out
}

// InlineItemMetrics records the contribution of one positioned item.
type InlineItemMetrics struct {
	SourceNode             dom.NodeId
	AdvanceWidth           float64
	LineHeightContribution float64
	LineIndex              int
	XOffset                float64
	CanBreak               bool
}

// Metrics returns one record per item, parallel to Items.
func (u *UnifiedLayout) Metrics() []InlineItemMetrics {
	out := make([]InlineItemMetrics, len(u.Items))
	for i, it := range u.Items {
		out[i] = InlineItemMetrics{
			SourceNode:             it.Item.Node,
			AdvanceWidth:           it.Item.Advance,
			LineHeightContribution: it.Item.LineHeight,
			LineIndex:              it.LineIndex,
			XOffset:                it.Position.X,
			CanBreak:               it.Item.CanBreak,
		}
	}
	return out
}
