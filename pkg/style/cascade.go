package style

import (
	"slices"

	"go.uber.org/zap"

	"styledom/pkg/css"
	"styledom/pkg/dom"
)

// Resolver runs the cascade.
type Resolver struct {
	logger          *zap.Logger
	defaultFontSize float64
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// WithDefaultFontSize sets the root font size in px.
func WithDefaultFontSize(px float64) Option {
	return func(r *Resolver) {
		if px > 0 {
			r.defaultFontSize = px
		}
	}
}

// NewResolver returns a resolver with the given options applied.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{logger: zap.NewNop(), defaultFontSize: css.DefaultFontSize}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.Named("style")
	return r
}

// layer orders declaration sources before specificity is compared.
type layer uint8

const (
	layerUserAgent layer = iota
	layerAuthor
	layerInline
)

type candidate struct {
	decl  css.Declaration
	layer layer
	spec  css.Specificity
	order int
}

// less sorts important declarations after normal ones, then by layer,
// specificity and source order, so the last candidate for a property wins.
func (c candidate) less(o candidate) bool {
	if c.decl.Important != o.decl.Important {
		return !c.decl.Important
	}
	if c.layer != o.layer {
		return c.layer < o.layer
	}
	if c.spec != o.spec {
		return c.spec.Less(o.spec)
	}
	return c.order < o.order
}

// Cascade computes the style of every node of d.
func (r *Resolver) Cascade(d *dom.FlatDom, sheet *css.Stylesheet, state UIState) *StyledDom {
	if sheet == nil {
		sheet = &css.Stylesheet{}
	}
	s := &StyledDom{
		Dom:         d,
		Styles:      make([]ComputedStyle, d.Len()),
		State:       state.Clone(),
		Sheet:       sheet,
		HoverGroups: CompileHoverGroups(sheet),
	}
	root, ok := d.Root()
	if !ok {
		return s
	}
	for id := range d.Descendants(root) {
		s.Styles[id] = r.computeNode(s, id)
	}
	r.logger.Debug("cascade done",
		zap.Int("nodes", d.Len()),
		zap.Int("rules", len(sheet.Rules)),
		zap.Int("hover_groups", len(s.HoverGroups)))
	return s
}

// computeNode cascades one node. Its parent must already be computed.
func (r *Resolver) computeNode(s *StyledDom, id dom.NodeId) ComputedStyle {
	n := s.Dom.Ptr(id)
	var parent *ComputedStyle
	if p, ok := s.Dom.Node(id).Parent(); ok {
		parent = &s.Styles[p]
	}

	var cands []candidate
	add := func(decls []css.Declaration, l layer, spec css.Specificity) {
		for _, d := range decls {
			cands = append(cands, candidate{decl: d, layer: l, spec: spec, order: len(cands)})
		}
	}
	if parent == nil {
		add([]css.Declaration{{Property: css.Property{Type: css.PropFontSize, Value: css.PxLength(r.defaultFontSize)}}}, layerUserAgent, css.Specificity{})
		add(rootDeclarations, layerUserAgent, css.Specificity{})
	}
	add(UserAgentDeclarations(n.Type), layerUserAgent, css.Specificity{})
	if !n.IsText() {
		for i := range s.Sheet.Rules {
			rule := &s.Sheet.Rules[i]
			if Matches(s.Dom, id, rule.Path, &s.State) {
				add(rule.Declarations, layerAuthor, rule.Path.Specificity())
			}
		}
		add(n.InlineCSS, layerInline, css.InlineSpecificity)
	}
	slices.SortStableFunc(cands, func(a, b candidate) int {
		switch {
		case a.less(b):
			return -1
		case b.less(a):
			return 1
		}
		return 0
	})

	var cs ComputedStyle
	for _, c := range cands {
		origin := OriginOwn
		if c.layer == layerUserAgent {
			origin = OriginUserAgent
		}
		p := c.decl.Property
		switch {
		case p.Value.IsKeyword("initial"):
			cs.Remove(p.Type)
		case p.Value.IsKeyword("inherit"):
			if v, ok := parent.Value(p.Type); ok {
				cs.Set(p.Type, v, origin)
			} else {
				cs.Remove(p.Type)
			}
		default:
			cs.Set(p.Type, p.Value, origin)
		}
	}

	if parent != nil {
		for _, pw := range parent.Properties {
			if !pw.Property.Type.Inheritable() {
				continue
			}
			if _, ok := cs.Get(pw.Property.Type); !ok {
				cs.Set(pw.Property.Type, pw.Property.Value, OriginInherited)
			}
		}
	}

	r.resolveUnits(&cs, parent, s.rootFontSize(r.defaultFontSize))
	return cs
}

// rootFontSize is the resolved font size of the root, or def while the
// root itself is being computed.
func (s *StyledDom) rootFontSize(def float64) float64 {
	if len(s.Styles) == 0 {
		return def
	}
	if v, ok := s.Styles[0].Value(css.PropFontSize); ok && v.Kind == css.KindLength && v.Length.Metric == css.Px {
		return v.Length.Number
	}
	return def
}

// resolveUnits converts font-size against the parent, then every other em,
// rem and pt length against the node's own font size. Percentages are left
// for layout.
func (r *Resolver) resolveUnits(cs *ComputedStyle, parent *ComputedStyle, rootFont float64) {
	parentFont := r.defaultFontSize
	if parent != nil {
		parentFont = parent.FontSize()
	}
	own := parentFont
	if pw, ok := cs.Get(css.PropFontSize); ok && pw.Property.Value.Kind == css.KindLength {
		l := pw.Property.Value.Length
		switch l.Metric {
		case css.Percent:
			own = l.Number / 100 * parentFont
		default:
			own = l.ToPixels(parentFont, rootFont, parentFont)
		}
		cs.Set(css.PropFontSize, css.PxLength(own), pw.Origin)
	}
	if parent == nil {
		rootFont = own
	}
	for i := range cs.Properties {
		v := &cs.Properties[i].Property.Value
		if v.Kind != css.KindLength {
			continue
		}
		switch v.Length.Metric {
		case css.Em, css.Rem, css.Pt:
			*v = css.PxLength(v.Length.ToPixels(own, rootFont, 0))
		}
	}
}
