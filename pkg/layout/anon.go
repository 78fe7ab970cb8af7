package layout

import (
	"strings"

	"styledom/pkg/css"
	"styledom/pkg/dom"
	"styledom/pkg/style"
)

// AnonNode is one node of the layout structure. Source is -1 for an
// anonymous block that wraps a run of inline content; Parent and Ordinal
// then name the source parent and the wrapper's position among its
// siblings' wrappers.
type AnonNode struct {
	Source  dom.NodeId
	Parent  dom.NodeId
	Ordinal int
}

// AnonDom is the source tree with display:none subtrees removed and
// anonymous blocks inserted wherever a block container has both block-level
// and inline-level children. Whitespace-only inline runs between blocks
// are dropped.
type AnonDom struct {
	*dom.Arena[AnonNode]
	// ToAnon maps a source id to its AnonDom id, -1 when it is not laid out.
	ToAnon []dom.NodeId
	// Wrappers counts the anonymous blocks inserted under each source node.
	Wrappers []int
}

// FromAnon returns the source node of id, -1 for anonymous blocks.
func (a *AnonDom) FromAnon(id dom.NodeId) dom.NodeId { return a.Get(id).Source }

// IsRoot reports whether id is the root box.
func (a *AnonDom) IsRoot(id dom.NodeId) bool { return id == 0 && a.Len() > 0 }

type flowLevel uint8

const (
	levelInline flowLevel = iota
	levelBlock
	// levelOutOfFlow boxes join whatever run they appear in.
	levelOutOfFlow
)

// levelOf classifies a child. Every element child of a flex container is a
// flex item, so only text stays inline there.
func levelOf(n *dom.NodeData, cs *style.ComputedStyle, inFlex bool) flowLevel {
	if n.Type == dom.NodeText {
		return levelInline
	}
	if cs.IsOutOfFlow() || cs.Float() != css.FloatNone {
		return levelOutOfFlow
	}
	if inFlex {
		return levelBlock
	}
	switch cs.Display() {
	case css.DisplayBlock, css.DisplayFlex:
		return levelBlock
	}
	return levelInline
}

// isCollapsibleSpace reports whether a text node renders nothing between
// blocks.
func isCollapsibleSpace(n *dom.NodeData, cs *style.ComputedStyle) bool {
	return n.Type == dom.NodeText && strings.TrimSpace(n.Text) == "" && cs.WhiteSpace() != css.WhiteSpacePre
}

// BuildAnonDom derives the layout structure of a styled DOM.
func BuildAnonDom(s *style.StyledDom) *AnonDom {
	d := s.Dom
	n := 0
	if d != nil && d.Arena != nil {
		n = d.Len()
	}
	a := &AnonDom{
		Arena:    dom.NewArena[AnonNode](n),
		ToAnon:   make([]dom.NodeId, n),
		Wrappers: make([]int, n),
	}
	for i := range a.ToAnon {
		a.ToAnon[i] = -1
	}
	root, ok := d.Root()
	if !ok || s.Style(root).Display() == css.DisplayNone {
		return a
	}
	var walk func(src dom.NodeId) dom.NodeId
	walk = func(src dom.NodeId) dom.NodeId {
		id := a.NewNode(AnonNode{Source: src, Parent: -1})
		a.ToAnon[src] = id
		flex := isFlexDisplay(s.Style(src).Display())

		var kids []dom.NodeId
		hasBlock, hasInline := false, false
		for c := range d.Children(src) {
			cs := s.Style(c)
			if cs.Display() == css.DisplayNone {
				continue
			}
			kids = append(kids, c)
			switch levelOf(d.Ptr(c), cs, flex) {
			case levelBlock:
				hasBlock = true
			case levelInline:
				if !isCollapsibleSpace(d.Ptr(c), cs) {
					hasInline = true
				}
			}
		}
		if flex && hasInline {
			// Text runs of a flex container become anonymous flex items.
			hasBlock = true
		}
		if !hasBlock || !hasInline {
			for _, c := range kids {
				if hasBlock && isCollapsibleSpace(d.Ptr(c), s.Style(c)) {
					continue
				}
				a.AppendChild(id, walk(c))
			}
			return id
		}

		var run []dom.NodeId
		flush := func() {
			visible := false
			for _, c := range run {
				if levelOf(d.Ptr(c), s.Style(c), flex) == levelInline && !isCollapsibleSpace(d.Ptr(c), s.Style(c)) {
					visible = true
					break
				}
			}
			if !visible {
				for _, c := range run {
					if levelOf(d.Ptr(c), s.Style(c), flex) == levelOutOfFlow {
						a.AppendChild(id, walk(c))
					}
				}
				run = run[:0]
				return
			}
			w := a.NewNode(AnonNode{Source: -1, Parent: src, Ordinal: a.Wrappers[src]})
			a.Wrappers[src]++
			a.AppendChild(id, w)
			for _, c := range run {
				a.AppendChild(w, walk(c))
			}
			run = run[:0]
		}
		for _, c := range kids {
			switch levelOf(d.Ptr(c), s.Style(c), flex) {
			case levelBlock:
				flush()
				a.AppendChild(id, walk(c))
			case levelOutOfFlow:
				if len(run) == 0 {
					a.AppendChild(id, walk(c))
				} else {
					run = append(run, c)
				}
			default:
				run = append(run, c)
			}
		}
		flush()
		return id
	}
	walk(root)
	return a
}

// anonymousStyle is the style of a wrapper: the inherited properties of
// its parent, displayed as a block.
func anonymousStyle(parent *style.ComputedStyle) *style.ComputedStyle {
	out := &style.ComputedStyle{}
	if parent != nil {
		for _, p := range parent.Properties {
			if p.Property.Type.Inheritable() {
				out.Set(p.Property.Type, p.Property.Value, style.OriginInherited)
			}
		}
	}
	out.Set(css.PropDisplay, css.KeywordValue(string(css.DisplayBlock)), style.OriginUserAgent)
	return out
}
