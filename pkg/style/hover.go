package style

import (
	"slices"

	"go.uber.org/zap"

	"styledom/pkg/css"
	"styledom/pkg/dom"
)

// HoverGroup is a rule whose selector depends on :hover, :active or :focus.
type HoverGroup struct {
	Path         css.CssPath
	Declarations []css.Declaration
	// Pseudos lists the state pseudo-classes the path uses.
	Pseudos []css.PseudoKind
	// AffectsLayout is true when any declaration can trigger relayout.
	AffectsLayout bool
}

// CompileHoverGroups extracts the state-dependent rules of sheet.
func CompileHoverGroups(sheet *css.Stylesheet) []HoverGroup {
	if sheet == nil {
		return nil
	}
	var groups []HoverGroup
	for _, rule := range sheet.Rules {
		if !rule.Path.HasStatePseudo() {
			continue
		}
		g := HoverGroup{Path: rule.Path, Declarations: rule.Declarations}
		for _, s := range rule.Path.Selectors {
			if s.IsStatePseudo() && !slices.Contains(g.Pseudos, s.Pseudo) {
				g.Pseudos = append(g.Pseudos, s.Pseudo)
			}
		}
		for _, d := range rule.Declarations {
			if d.Property.Type.CanTriggerRelayout() {
				g.AffectsLayout = true
				break
			}
		}
		groups = append(groups, g)
	}
	return groups
}

// AnyAffectsLayout reports whether one of the groups can change layout.
func AnyAffectsLayout(groups []HoverGroup) bool {
	for _, g := range groups {
		if g.AffectsLayout {
			return true
		}
	}
	return false
}

// RestyleResult describes what a state change did to the computed styles.
type RestyleResult struct {
	Changes []PropertyChange
	// Restyled lists the roots of the recomputed subtrees.
	Restyled []dom.NodeId
	// AffectsLayout is true when any change can trigger relayout.
	AffectsLayout bool
}

// Restyle moves s to a new UI state, recomputing the subtrees of every node
// whose hover, active or focus state changed. Without state-dependent rules
// only the state is updated.
func (r *Resolver) Restyle(s *StyledDom, state UIState) RestyleResult {
	changed := s.State.changedNodes(state)
	s.State = state.Clone()
	var res RestyleResult
	if len(s.HoverGroups) == 0 || len(changed) == 0 {
		return res
	}

	dirty := make([]bool, s.Dom.Len())
	for _, id := range changed {
		if int(id) < 0 || int(id) >= s.Dom.Len() {
			continue
		}
		dirty[id] = true
	}
	root, ok := s.Dom.Root()
	if !ok {
		return res
	}
	for id := range s.Dom.Descendants(root) {
		if !dirty[id] {
			if p, ok := s.Dom.Node(id).Parent(); !ok || !dirty[p] {
				continue
			}
			dirty[id] = true
		} else if p, ok := s.Dom.Node(id).Parent(); !ok || !dirty[p] {
			res.Restyled = append(res.Restyled, id)
		}
		old := s.Styles[id]
		s.Styles[id] = r.computeNode(s, id)
		res.Changes = append(res.Changes, DiffStyles(id, &old, &s.Styles[id])...)
	}
	for _, c := range res.Changes {
		if c.Property.CanTriggerRelayout() {
			res.AffectsLayout = true
			break
		}
	}
	r.logger.Debug("restyle",
		zap.Int("state_changed", len(changed)),
		zap.Int("changes", len(res.Changes)),
		zap.Bool("affects_layout", res.AffectsLayout))
	return res
}
