package text

import (
	"fmt"
	"math"
	"slices"
	"unicode"

	"github.com/go-text/typesetting/language"
	"go.uber.org/zap"

	"styledom/pkg/css"
	"styledom/pkg/geom"
)

const epsilon = 1e-6

const (
	objectRune = '\ufffc'
	breakRune  = '\u2028'
)

type shapeKey struct {
	text   string
	font   Font
	size   float64
	rtl    bool
	script language.Script
	lang   string
}

// CacheStats counts shaped-run cache lookups.
type CacheStats struct {
	Hits   int
	Misses int
}

// Layouter lays out paragraphs. It caches resolved fonts, shaped runs and
// hyphenators, so one Layouter must not be used from several goroutines at
// once.
type Layouter struct {
	provider   FontProvider
	shaper     Shaper
	logger     *zap.Logger
	lastResort Font
	language   string
	cacheSize  int

	shapeCache  map[shapeKey][]Glyph
	fonts       map[FontKey]Font
	hyphenators map[string]*Hyphenator
	stats       CacheStats
}

type Option func(*Layouter)

func WithLogger(logger *zap.Logger) Option {
	return func(l *Layouter) { l.logger = logger }
}

func WithShaper(s Shaper) Option {
	return func(l *Layouter) { l.shaper = s }
}

// WithLastResortAdvance sets the advance, in em, of the font used when no
// font can be found.
func WithLastResortAdvance(em float64) Option {
	return func(l *Layouter) { l.lastResort = FixedFont{Advance: em} }
}

// WithLanguage sets the language used for content without one.
func WithLanguage(lang string) Option {
	return func(l *Layouter) { l.language = lang }
}

// WithCacheSize bounds the number of shaped runs kept.
func WithCacheSize(n int) Option {
	return func(l *Layouter) { l.cacheSize = n }
}

func NewLayouter(provider FontProvider, opts ...Option) *Layouter {
	l := &Layouter{
		provider:    provider,
		shaper:      NewHarfbuzzShaper(),
		logger:      zap.NewNop(),
		lastResort:  FixedFont{Advance: 0.5},
		language:    "en",
		cacheSize:   4096,
		shapeCache:  map[shapeKey][]Glyph{},
		fonts:       map[FontKey]Font{},
		hyphenators: map[string]*Hyphenator{},
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.Named("text")
	return l
}

// Stats returns the shaped-run cache counters.
func (l *Layouter) Stats() CacheStats { return l.stats }

// ClearCache drops all shaped runs.
func (l *Layouter) ClearCache() {
	clear(l.shapeCache)
}

// Font resolves key, falling back to the last-resort font.
func (l *Layouter) Font(key FontKey) (Font, error) {
	if f, ok := l.fonts[key]; ok {
		return f, nil
	}
	var f Font
	err := ErrMissingFont
	if l.provider != nil {
		f, err = l.provider.Lookup(key)
	}
	if err != nil || f == nil {
		if err == nil {
			err = fmt.Errorf("%w: %q", ErrMissingFont, key.Family)
		}
		l.logger.Warn("font not found, using last resort", zap.String("family", key.Family), zap.Error(err))
		f = l.lastResort
		l.fonts[key] = f
		return f, err
	}
	l.fonts[key] = f
	return f, nil
}

func (l *Layouter) hyphenator(lang string) *Hyphenator {
	base := languageBase(lang)
	if h, ok := l.hyphenators[base]; ok {
		return h
	}
	var h *Hyphenator
	if p, ok := hyphenatorPatterns[base]; ok {
		h = NewHyphenator(p)
	} else {
		l.logger.Debug("no hyphenation patterns", zap.String("language", lang))
	}
	l.hyphenators[base] = h
	return h
}

// paragraph is the inline content flattened into one rune sequence.
type paragraph struct {
	runes   []rune
	content []int
	levels  []uint8
}

func collapsible(ws css.WhiteSpace) bool { return ws != css.WhiteSpacePre }

func (l *Layouter) flatten(content []InlineContent) *paragraph {
	p := &paragraph{}
	prevSpace := true
	for ci, c := range content {
		switch c.Kind {
		case ContentObject:
			p.runes = append(p.runes, objectRune)
			p.content = append(p.content, ci)
			prevSpace = false
		case ContentBreak:
			p.runes = append(p.runes, breakRune)
			p.content = append(p.content, ci)
			prevSpace = true
		default:
			for _, r := range c.Text {
				if !collapsible(c.Style.WhiteSpace) {
					if r == '\n' {
						r = breakRune
					} else if r == '\t' || r == '\r' {
						r = ' '
					}
					p.runes = append(p.runes, r)
					p.content = append(p.content, ci)
					continue
				}
				if unicode.IsSpace(r) {
					if prevSpace {
						continue
					}
					r = ' '
					prevSpace = true
				} else {
					prevSpace = false
				}
				p.runes = append(p.runes, r)
				p.content = append(p.content, ci)
			}
		}
	}
	// Drop the collapsible space ending the paragraph.
	if n := len(p.runes); n > 0 && p.runes[n-1] == ' ' && collapsible(content[p.content[n-1]].Style.WhiteSpace) {
		p.runes = p.runes[:n-1]
		p.content = p.content[:n-1]
	}
	return p
}

// Layout lays out content under c. It never fails: missing fonts and
// shaping failures are recorded in the result's Warnings.
func (l *Layouter) Layout(content []InlineContent, c Constraints) *UnifiedLayout {
	out := &UnifiedLayout{Overflow: OverflowInfo{AvailableWidth: c.AvailableWidth}}
	warn := func(err error) { out.Warnings = append(out.Warnings, err) }

	p := l.flatten(content)
	dir := ParagraphDirection(p.runes, c.Direction)
	out.Direction = dir
	rtl := dir == css.DirectionRTL
	p.levels = resolveLevels(p.runes, rtl)

	items := l.shapeParagraph(p, content, warn)
	if len(items) == 0 {
		return out
	}
	l.breakLines(out, items, content, c, rtl, warn)
	l.logger.Debug("paragraph laid out",
		zap.Int("items", len(out.Items)),
		zap.Int("lines", len(out.Lines)),
		zap.Float64("width", c.AvailableWidth))
	return out
}

// shapeParagraph shapes maximal runs sharing font, size, language, script
// and direction, then splits the glyph stream into clusters. Items with
// different styles but the same font are shaped together so that
// ligatures across style boundaries survive.
func (l *Layouter) shapeParagraph(p *paragraph, content []InlineContent, warn func(error)) []ShapedItem {
	var items []ShapedItem
	n := len(p.runes)
	for i := 0; i < n; {
		r := p.runes[i]
		ci := p.content[i]
		if r == objectRune || r == breakRune {
			items = append(items, l.placeholder(p, content, i))
			i++
			continue
		}
		st := content[ci].Style
		f := l.resolveFont(st.Font, warn)
		lang := st.Language
		if lang == "" {
			lang = l.language
		}
		script := language.LookupScript(r)
		j := i + 1
		for j < n {
			rj := p.runes[j]
			if rj == objectRune || rj == breakRune || p.levels[j]%2 != p.levels[i]%2 {
				break
			}
			sj := content[p.content[j]].Style
			if sj.FontSize != st.FontSize || sj.Language != st.Language || l.resolveFont(sj.Font, warn) != f {
				break
			}
			s := language.LookupScript(rj)
			if s != language.Common && s != language.Inherited {
				if script == language.Common || script == language.Inherited {
					script = s
				} else if s != script {
					break
				}
			}
			j++
		}
		run := Run{Text: p.runes, Start: i, End: j, Font: f, Size: st.FontSize, RTL: p.levels[i]%2 == 1, Script: script, Language: lang}
		items = append(items, l.clusters(p, content, run, l.shape(run, warn))...)
		i = j
	}
	markBreaks(items, content)
	return items
}

func (l *Layouter) resolveFont(key FontKey, warn func(error)) Font {
	f, err := l.Font(key)
	if err != nil {
		warn(err)
	}
	return f
}

func (l *Layouter) shape(run Run, warn func(error)) []Glyph {
	key := shapeKey{text: string(run.Text[run.Start:run.End]), font: run.Font, size: run.Size, rtl: run.RTL, script: run.Script, lang: run.Language}
	if g, ok := l.shapeCache[key]; ok {
		l.stats.Hits++
		return rebase(g, run.Start)
	}
	l.stats.Misses++
	glyphs, err := l.shaper.Shape(run)
	if err != nil || len(glyphs) == 0 {
		if err == nil {
			err = fmt.Errorf("%w: %s", ErrShapingFailure, run.Font.Name())
		} else {
			err = fmt.Errorf("%w: %s: %w", ErrShapingFailure, run.Font.Name(), err)
		}
		l.logger.Warn("shaping failed, using .notdef", zap.Error(err))
		warn(err)
		glyphs = make([]Glyph, 0, run.End-run.Start)
		for i := run.Start; i < run.End; i++ {
			glyphs = append(glyphs, Glyph{Cluster: i, Runes: 1, Advance: run.Font.NotdefAdvance(run.Size)})
		}
	}
	slices.SortStableFunc(glyphs, func(a, b Glyph) int { return a.Cluster - b.Cluster })
	if len(l.shapeCache) >= l.cacheSize {
		clear(l.shapeCache)
	}
	l.shapeCache[key] = rebase(glyphs, -run.Start)
	return glyphs
}

// rebase returns a copy of glyphs with clusters shifted by d.
func rebase(glyphs []Glyph, d int) []Glyph {
	out := make([]Glyph, len(glyphs))
	for i, g := range glyphs {
		g.Cluster += d
		out[i] = g
	}
	return out
}

func lineMetrics(st Style, m Metrics) (lineHeight float64) {
	if st.LineHeight > 0 {
		return st.LineHeight
	}
	return m.Height()
}

// clusters groups glyphs by cluster. A cluster belongs to the content item
// of its first rune.
func (l *Layouter) clusters(p *paragraph, content []InlineContent, run Run, glyphs []Glyph) []ShapedItem {
	var out []ShapedItem
	m := run.Font.Metrics(run.Size)
	for i := 0; i < len(glyphs); {
		start := glyphs[i].Cluster
		j := i + 1
		for j < len(glyphs) && glyphs[j].Cluster == start {
			j++
		}
		end := run.End
		if j < len(glyphs) {
			end = glyphs[j].Cluster
		}
		ci := p.content[start]
		st := content[ci].Style
		it := ShapedItem{
			Kind:       ItemText,
			Node:       content[ci].Node,
			Content:    ci,
			Text:       string(p.runes[start:end]),
			Glyphs:     glyphs[i:j:j],
			Font:       run.Font,
			Size:       run.Size,
			Ascent:     m.Ascent,
			Descent:    m.Descent,
			LineHeight: lineMetrics(st, m),
			Level:      p.levels[start],
			IsSpace:    end-start == 1 && p.runes[start] == ' ',
		}
		for _, g := range it.Glyphs {
			it.Advance += g.Advance
		}
		it.Advance += st.LetterSpacing
		if it.IsSpace {
			it.Advance += st.WordSpacing
		}
		out = append(out, it)
		i = j
	}
	return out
}

func (l *Layouter) placeholder(p *paragraph, content []InlineContent, i int) ShapedItem {
	ci := p.content[i]
	c := content[ci]
	if p.runes[i] == breakRune {
		m := Metrics{}
		lh := 0.0
		if c.Style.FontSize > 0 {
			if f, err := l.Font(c.Style.Font); err == nil {
				m = f.Metrics(c.Style.FontSize)
			}
			lh = lineMetrics(c.Style, m)
		}
		return ShapedItem{Kind: ItemBreak, Node: c.Node, Content: ci, Ascent: m.Ascent, Descent: m.Descent, LineHeight: lh, Level: p.levels[i]}
	}
	asc := c.Size.Height
	if c.Baseline > 0 {
		asc = c.Baseline
	}
	return ShapedItem{
		Kind:       ItemObject,
		Node:       c.Node,
		Content:    ci,
		Advance:    c.Size.Width,
		Ascent:     asc,
		Descent:    c.Size.Height - asc,
		LineHeight: c.Size.Height,
		Level:      p.levels[i],
		CanBreak:   true,
	}
}

func isIdeographic(s string) bool {
	for _, r := range s {
		if unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul) {
			return true
		}
	}
	return false
}

// markBreaks sets the soft break opportunities: after collapsible spaces,
// after hyphens, around ideographs and around atomic inlines.
func markBreaks(items []ShapedItem, content []InlineContent) {
	for i := range items {
		it := &items[i]
		if it.Kind != ItemText {
			if it.Kind == ItemObject && i > 0 {
				items[i-1].CanBreak = true
			}
			continue
		}
		ws := content[it.Content].Style.WhiteSpace
		if ws == css.WhiteSpacePre || ws == css.WhiteSpaceNoWrap {
			continue
		}
		switch {
		case it.IsSpace:
			it.CanBreak = true
		case it.Text == "-" && i+1 < len(items) && !items[i+1].IsSpace:
			it.CanBreak = true
		case isIdeographic(it.Text):
			it.CanBreak = true
			if i > 0 && items[i-1].Kind == ItemText {
				items[i-1].CanBreak = true
			}
		}
	}
}

// lineSpace finds the first band at or below y where a line of height est
// can hold at least need px beside the floats.
func lineSpace(c Constraints, y, est, need float64) (top, left, width float64) {
	for {
		left, right := 0.0, c.AvailableWidth
		lowest := math.Inf(1)
		for _, h := range c.Holes {
			if h.Rect.Y >= y+max(est, epsilon) || h.Rect.Bottom() <= y {
				continue
			}
			lowest = min(lowest, h.Rect.Bottom())
			if h.Side == css.FloatRight {
				right = min(right, h.Rect.X)
			} else {
				left = max(left, h.Rect.Right())
			}
		}
		if math.IsInf(lowest, 1) || right-left >= need {
			return y, left, max(0, right-left)
		}
		y = lowest
	}
}

// lineBreak is one decided line: items [start, end) plus an optional
// inserted hyphen.
type lineBreak struct {
	start, end int
	hyphen     *ShapedItem
	hard       bool
}

func (l *Layouter) nextBreak(items []ShapedItem, content []InlineContent, start int, avail float64, c Constraints, warn func(error)) lineBreak {
	width := 0.0
	lastBreak := -1
	for j := start; j < len(items); j++ {
		it := &items[j]
		if it.Kind == ItemBreak {
			return lineBreak{start: start, end: j + 1, hard: true}
		}
		if c.CanBreak && j > start && !it.IsSpace && width+it.Advance > avail+epsilon {
			if c.CanHyphenate {
				if lb, ok := l.hyphenate(items, content, start, j, avail, warn); ok {
					return lb
				}
			}
			if lastBreak >= start {
				return lineBreak{start: start, end: lastBreak + 1}
			}
			// No opportunity yet: the line overflows up to the next one.
			for k := j; k < len(items); k++ {
				if items[k].Kind == ItemBreak {
					return lineBreak{start: start, end: k + 1, hard: true}
				}
				if items[k].CanBreak {
					return lineBreak{start: start, end: k + 1}
				}
			}
			return lineBreak{start: start, end: len(items)}
		}
		width += it.Advance
		if it.CanBreak {
			lastBreak = j
		}
	}
	return lineBreak{start: start, end: len(items)}
}

// hyphenate tries to split the word containing items[j] so that its head
// and a hyphen still fit on the line.
func (l *Layouter) hyphenate(items []ShapedItem, content []InlineContent, start, j int, avail float64, warn func(error)) (lineBreak, bool) {
	isLetter := func(it *ShapedItem) bool { return it.Kind == ItemText && !it.IsSpace }
	if !isLetter(&items[j]) {
		return lineBreak{}, false
	}
	ws := j
	for ws > start && isLetter(&items[ws-1]) && !items[ws-1].CanBreak {
		ws--
	}
	we := j
	for we < len(items) && isLetter(&items[we]) {
		we++
		if items[we-1].CanBreak {
			break
		}
	}
	st := content[items[ws].Content].Style
	if st.Hyphens == css.HyphensNone {
		return lineBreak{}, false
	}
	lang := st.Language
	if lang == "" {
		lang = l.language
	}
	h := l.hyphenator(lang)
	if h == nil {
		return lineBreak{}, false
	}
	word := ""
	offsets := make([]int, 0, we-ws+1)
	n := 0
	for k := ws; k < we; k++ {
		offsets = append(offsets, n)
		word += items[k].Text
		n += len([]rune(items[k].Text))
	}
	points := h.Hyphenate(word)
	if len(points) == 0 {
		return lineBreak{}, false
	}
	head := 0.0
	for k := start; k < ws; k++ {
		head += items[k].Advance
	}
	for pi := len(points) - 1; pi >= 0; pi-- {
		k := slices.Index(offsets, points[pi])
		if k <= 0 {
			continue
		}
		split := ws + k
		w := head
		for m := ws; m < split; m++ {
			w += items[m].Advance
		}
		hy := l.hyphenItem(&items[split-1], content, warn)
		if w+hy.Advance <= avail+epsilon {
			return lineBreak{start: start, end: split, hyphen: &hy}, true
		}
	}
	return lineBreak{}, false
}

func (l *Layouter) hyphenItem(prev *ShapedItem, content []InlineContent, warn func(error)) ShapedItem {
	run := Run{Text: []rune{'-'}, Start: 0, End: 1, Font: prev.Font, Size: prev.Size, Script: language.Common, Language: l.language}
	glyphs := l.shape(run, warn)
	hy := *prev
	hy.Kind = ItemHyphen
	hy.Text = "-"
	hy.Glyphs = glyphs
	hy.Advance = 0
	hy.CanBreak = false
	hy.IsSpace = false
	for _, g := range glyphs {
		hy.Advance += g.Advance
	}
	return hy
}

// effectiveAlign maps logical alignments to physical ones.
func effectiveAlign(a css.TextAlign, rtl bool) css.TextAlign {
	switch a {
	case css.TextAlignStart, "":
		if rtl {
			return css.TextAlignRight
		}
		return css.TextAlignLeft
	case css.TextAlignEnd:
		if rtl {
			return css.TextAlignLeft
		}
		return css.TextAlignRight
	}
	return a
}

func (l *Layouter) breakLines(out *UnifiedLayout, items []ShapedItem, content []InlineContent, c Constraints, rtl bool, warn func(error)) {
	align := effectiveAlign(c.TextAlign, rtl)
	y := 0.0
	prevHard := true
	for i := 0; i < len(items); {
		if !prevHard {
			for i < len(items) && items[i].IsSpace && collapsible(content[items[i].Content].Style.WhiteSpace) {
				i++
			}
			if i == len(items) {
				break
			}
		}
		indent := 0.0
		if len(out.Lines) == 0 {
			indent = c.TextIndent
		}
		est := max(c.MinLineHeight, items[i].LineHeight)
		top, left, width := lineSpace(c, y, est, items[i].Advance+indent)
		avail := width - indent
		lb := l.nextBreak(items, content, i, avail, c, warn)

		line := slices.Clone(items[lb.start:lb.end])
		if lb.hyphen != nil {
			line = append(line, *lb.hyphen)
		}
		last := lb.end >= len(items)
		l.placeLine(out, line, lineGeometry{
			top: top, left: left, avail: avail, indent: indent,
			align: align, justify: c.TextJustify, rtl: rtl,
			minHeight: c.MinLineHeight, justifyLine: !last && !lb.hard,
			hyphenated: lb.hyphen != nil, hard: lb.hard, unbounded: c.Unbounded(),
		})
		y = top + out.Lines[len(out.Lines)-1].Height
		prevHard = lb.hard
		i = lb.end
	}
}

type lineGeometry struct {
	top, left, avail, indent float64
	align                    css.TextAlign
	justify                  css.TextJustify
	rtl                      bool
	minHeight                float64
	justifyLine              bool
	hyphenated               bool
	hard                     bool
	unbounded                bool
}

// trailingSpaces counts the hanging spaces at the logical end of a line,
// ignoring a final forced break.
func trailingSpaces(line []ShapedItem) (count int, width float64) {
	end := len(line)
	if end > 0 && line[end-1].Kind == ItemBreak {
		end--
	}
	for k := end - 1; k >= 0 && line[k].IsSpace; k-- {
		count++
		width += line[k].Advance
	}
	return count, width
}

func (l *Layouter) placeLine(out *UnifiedLayout, line []ShapedItem, g lineGeometry) {
	nTrail, trailW := trailingSpaces(line)
	contentEnd := len(line) - nTrail
	if len(line) > 0 && line[len(line)-1].Kind == ItemBreak {
		contentEnd--
	}
	contentW := 0.0
	for k := range line {
		contentW += line[k].Advance
	}
	contentW -= trailW

	if g.align == css.TextAlignJustify && g.justifyLine && !g.unbounded {
		contentW += justify(line[:max(contentEnd, 0)], g.avail-contentW, g.justify)
	}

	// Trailing whitespace takes the paragraph level (rule L1).
	base := uint8(0)
	if g.rtl {
		base = 1
	}
	levels := make([]uint8, len(line))
	for k := range line {
		levels[k] = line[k].Level
		if k >= contentEnd {
			levels[k] = base
		}
	}
	order := visualOrder(levels)

	offset := 0.0
	if !g.unbounded {
		switch g.align {
		case css.TextAlignRight:
			offset = g.avail - contentW
		case css.TextAlignCenter:
			offset = (g.avail - contentW) / 2
		case css.TextAlignJustify:
			if g.rtl {
				offset = g.avail - contentW
			}
		}
	}
	if !g.rtl {
		offset = max(0, offset)
	}
	x := g.left + offset
	if g.rtl {
		// Hanging spaces sit left of the right-anchored content.
		x -= trailW
	} else {
		x += g.indent
	}

	asc, desc := 0.0, 0.0
	for _, it := range line {
		if it.Kind == ItemBreak && len(line) > 1 {
			continue
		}
		half := (it.LineHeight - (it.Ascent + it.Descent)) / 2
		if it.Kind == ItemObject {
			half = 0
		}
		asc = max(asc, it.Ascent+half)
		desc = max(desc, it.Descent+half)
	}
	height := asc + desc
	if height < g.minHeight {
		asc += (g.minHeight - height) / 2
		height = g.minHeight
	}
	baseline := g.top + asc

	idx := len(out.Lines)
	first := len(out.Items)
	for _, k := range order {
		it := line[k]
		pos := geom.Point{X: x, Y: baseline - it.Ascent}
		pi := PositionedItem{Item: it, Position: pos, LineIndex: idx, Baseline: baseline}
		out.Items = append(out.Items, pi)
		if it.Advance > 0 || it.Kind == ItemObject {
			b := pi.Bounds()
			out.Overflow.ContentBounds = out.Overflow.ContentBounds.Union(b)
		}
		x += it.Advance
	}
	out.Lines = append(out.Lines, Line{
		Index:         idx,
		Top:           g.top,
		Height:        height,
		Baseline:      baseline,
		Left:          g.left,
		Width:         g.avail + g.indent,
		ContentWidth:  contentW,
		WasHyphenated: g.hyphenated,
		HardBreak:     g.hard,
		First:         first,
		Last:          len(out.Items),
	})
	if !g.unbounded && contentW > g.avail+epsilon {
		out.Overflow.OverflowsX = true
		out.Overflow.OverflowLines = append(out.Overflow.OverflowLines, idx)
	}
}

// justify spreads extra over the gaps of line and returns the width added.
func justify(line []ShapedItem, extra float64, mode css.TextJustify) float64 {
	if extra <= epsilon || mode == css.TextJustifyNone || len(line) < 2 {
		return 0
	}
	if mode != css.TextJustifyInterCharacter {
		spaces := 0
		for _, it := range line {
			if it.IsSpace {
				spaces++
			}
		}
		if spaces > 0 {
			per := extra / float64(spaces)
			for k := range line {
				if line[k].IsSpace {
					line[k].Advance += per
				}
			}
			return extra
		}
		if mode == css.TextJustifyInterWord {
			return 0
		}
	}
	per := extra / float64(len(line)-1)
	for k := range line[:len(line)-1] {
		line[k].Advance += per
	}
	return extra
}

// IntrinsicWidths returns the min-content and max-content widths of
// content.
func (l *Layouter) IntrinsicWidths(content []InlineContent, c Constraints) (minWidth, maxWidth float64) {
	c.Holes = nil
	c.CanBreak = true
	c.CanHyphenate = false
	c.TextAlign = css.TextAlignStart
	c.AvailableWidth = 0
	minWidth = l.Layout(content, c).Width()
	c.AvailableWidth = math.Inf(1)
	maxWidth = l.Layout(content, c).Width()
	return minWidth, max(minWidth, maxWidth)
}
