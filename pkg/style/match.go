package style

import (
	"slices"

	"styledom/pkg/css"
	"styledom/pkg/dom"
)

// Matches reports whether path selects node id. The path is walked right
// to left: the rightmost content group has to hold on id itself, every
// further group on the parent (for '>') or on some ancestor (for ' ').
// Text nodes never match; they only inherit.
func Matches(d *dom.FlatDom, id dom.NodeId, path css.CssPath, state *UIState) bool {
	if d.Ptr(id).IsText() {
		return false
	}
	groups := slices.Collect(path.Groups())
	return matchFrom(d, groups, 0, id, state)
}

func matchFrom(d *dom.FlatDom, groups []css.ContentGroup, gi int, id dom.NodeId, state *UIState) bool {
	if !matchGroup(d, id, groups[gi].Selectors, state) {
		return false
	}
	if gi == len(groups)-1 {
		return true
	}
	if groups[gi].Reason == css.DirectChildren {
		parent, ok := d.Node(id).Parent()
		return ok && matchFrom(d, groups, gi+1, parent, state)
	}
	for a := range d.Ancestors(id) {
		if matchFrom(d, groups, gi+1, a, state) {
			return true
		}
	}
	return false
}

// matchGroup checks that every selector of a content group holds on id.
func matchGroup(d *dom.FlatDom, id dom.NodeId, sels []css.PathSelector, state *UIState) bool {
	n := d.Ptr(id)
	for _, s := range sels {
		if !matchSelector(d, id, n, s, state) {
			return false
		}
	}
	return true
}

func matchSelector(d *dom.FlatDom, id dom.NodeId, n *dom.NodeData, s css.PathSelector, state *UIState) bool {
	switch s.Kind {
	case css.SelectorGlobal:
		return true
	case css.SelectorType:
		return n.Type.TagName() == s.Name
	case css.SelectorClass:
		return n.HasClass(s.Name)
	case css.SelectorID:
		return n.HasID(s.Name)
	case css.SelectorPseudo:
		return matchPseudo(d, id, s, state)
	}
	return false
}

func matchPseudo(d *dom.FlatDom, id dom.NodeId, s css.PathSelector, state *UIState) bool {
	switch s.Pseudo {
	case css.PseudoHover:
		return state != nil && state.IsHovered(id)
	case css.PseudoActive:
		return state != nil && state.IsActive(id)
	case css.PseudoFocus:
		return state != nil && state.IsFocused(id)
	case css.PseudoFirst:
		_, ok := d.Node(id).PreviousSibling()
		return !ok
	case css.PseudoLast:
		_, ok := d.Node(id).NextSibling()
		return !ok
	case css.PseudoNthChild:
		return s.Nth.Matches(d.IndexInParent(id))
	}
	return false
}

// Select returns every node matched by path, in document order.
func Select(d *dom.FlatDom, path css.CssPath, state *UIState) []dom.NodeId {
	root, ok := d.Root()
	if !ok {
		return nil
	}
	var out []dom.NodeId
	for id := range d.Descendants(root) {
		if Matches(d, id, path, state) {
			out = append(out, id)
		}
	}
	return out
}
