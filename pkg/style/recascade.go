package style

import (
	"go.uber.org/zap"

	"styledom/pkg/css"
	"styledom/pkg/dom"
)

// RecascadeResult is the outcome of an incremental cascade.
type RecascadeResult struct {
	Styled *StyledDom
	// Changes lists property changes of matched nodes. Mounted nodes have
	// no predecessor and report nothing.
	Changes []PropertyChange
	// Restyled counts the nodes whose style was recomputed.
	Restyled int
}

// Recascade styles a new DOM reusing the styles of prev. previous maps new
// node ids to the old node they were matched to by the diff. A node is
// recomputed when it is new, when its data changed, when its position
// among its siblings changed, or when its parent was recomputed; every
// other node keeps its old style.
func (r *Resolver) Recascade(prev *StyledDom, d *dom.FlatDom, previous map[dom.NodeId]dom.NodeId) RecascadeResult {
	if prev == nil {
		s := r.Cascade(d, nil, UIState{})
		return RecascadeResult{Styled: s, Restyled: d.Len()}
	}
	s := &StyledDom{
		Dom:         d,
		Styles:      make([]ComputedStyle, d.Len()),
		State:       prev.State.Clone(),
		Sheet:       prev.Sheet,
		HoverGroups: prev.HoverGroups,
	}
	res := RecascadeResult{Styled: s}
	root, ok := d.Root()
	if !ok {
		return res
	}
	dirty := make([]bool, d.Len())
	for id := range d.Descendants(root) {
		old, matched := previous[id]
		parent, hasParent := d.Node(id).Parent()
		if !matched || int(old) >= prev.Dom.Len() || (hasParent && dirty[parent]) || !samePlace(prev.Dom, old, d, id) {
			dirty[id] = true
		} else if hasParent {
			oldParent, ok := prev.Dom.Node(old).Parent()
			if !ok || previous[parent] != oldParent {
				dirty[id] = true
			}
		} else if _, ok := prev.Dom.Node(old).Parent(); ok {
			dirty[id] = true
		}
		if !dirty[id] {
			s.Styles[id] = prev.Styles[old]
			continue
		}
		s.Styles[id] = r.computeNode(s, id)
		res.Restyled++
		if matched && int(old) < prev.Dom.Len() {
			res.Changes = append(res.Changes, DiffStyles(id, &prev.Styles[old], &s.Styles[id])...)
		}
	}
	r.logger.Debug("recascade", zap.Int("nodes", d.Len()), zap.Int("restyled", res.Restyled))
	return res
}

// samePlace reports whether the old and new node have the same selector
// relevant data and the same sibling position.
func samePlace(od *dom.FlatDom, old dom.NodeId, nd *dom.FlatDom, id dom.NodeId) bool {
	if dom.StructuralHash(od.Ptr(old)) != dom.StructuralHash(nd.Ptr(id)) {
		return false
	}
	if od.IndexInParent(old) != nd.IndexInParent(id) {
		return false
	}
	_, oldLast := od.Node(old).NextSibling()
	_, newLast := nd.Node(id).NextSibling()
	return oldLast == newLast
}

// SheetChanged reports whether sheet differs from the one s was built with.
func (s *StyledDom) SheetChanged(sheet *css.Stylesheet) bool {
	return s.Sheet != sheet
}
