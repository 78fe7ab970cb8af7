package diff

import (
	"slices"

	"styledom/pkg/css"
	"styledom/pkg/dom"
	"styledom/pkg/style"
)

// TextChange keeps both versions of a changed text node so the inline
// layout can be reshaped incrementally.
type TextChange struct {
	Old string
	New string
}

// NodeChangeReport is everything known to have changed on one node during
// a frame.
type NodeChangeReport struct {
	Changes    ChangeSet
	Scope      css.RelayoutScope
	Text       *TextChange
	Properties []css.PropertyType
}

// ChangeAccumulator collects DOM, text, CSS and image changes from the
// different sources of one frame and answers what has to be redone.
// Node ids are new-frame ids.
type ChangeAccumulator struct {
	PerNode   map[dom.NodeId]*NodeChangeReport
	MaxScope  css.RelayoutScope
	Mounted   []dom.NodeId
	Unmounted []dom.NodeId
}

func NewChangeAccumulator() *ChangeAccumulator {
	return &ChangeAccumulator{PerNode: map[dom.NodeId]*NodeChangeReport{}}
}

func (a *ChangeAccumulator) report(id dom.NodeId) *NodeChangeReport {
	r, ok := a.PerNode[id]
	if !ok {
		r = &NodeChangeReport{}
		a.PerNode[id] = r
	}
	return r
}

func (a *ChangeAccumulator) raise(r *NodeChangeReport, scope css.RelayoutScope) {
	r.Scope = css.MaxScope(r.Scope, scope)
	a.MaxScope = css.MaxScope(a.MaxScope, scope)
}

// AddDomChange records a structural change with its scope.
func (a *ChangeAccumulator) AddDomChange(id dom.NodeId, c ChangeSet, scope css.RelayoutScope) {
	if c.IsEmpty() {
		return
	}
	r := a.report(id)
	r.Changes |= c
	a.raise(r, scope)
}

// AddTextChange records new text content. Text changes only reshape the
// enclosing inline formatting context.
func (a *ChangeAccumulator) AddTextChange(id dom.NodeId, old, cur string) {
	if old == cur {
		return
	}
	r := a.report(id)
	r.Changes |= ChangeText
	if r.Text == nil {
		r.Text = &TextChange{Old: old}
	}
	r.Text.New = cur
	a.raise(r, css.ScopeIfcOnly)
}

// AddCSSChange records a changed computed property.
func (a *ChangeAccumulator) AddCSSChange(id dom.NodeId, p css.PropertyType, isIfcMember bool) {
	r := a.report(id)
	if !slices.Contains(r.Properties, p) {
		r.Properties = append(r.Properties, p)
	}
	scope := p.RelayoutScope(isIfcMember)
	if scope == css.ScopeNone {
		r.Changes |= ChangeStyledState
	} else {
		r.Changes |= ChangeInlineStyleLayout
	}
	a.raise(r, scope)
}

// AddImageChange records a replaced image. The box must be resized.
func (a *ChangeAccumulator) AddImageChange(id dom.NodeId) {
	r := a.report(id)
	r.Changes |= ChangeImage
	a.raise(r, css.ScopeSizingOnly)
}

func (a *ChangeAccumulator) AddMount(id dom.NodeId) {
	a.Mounted = append(a.Mounted, id)
	a.MaxScope = css.ScopeFull
}

func (a *ChangeAccumulator) AddUnmount(oldID dom.NodeId) {
	a.Unmounted = append(a.Unmounted, oldID)
	a.MaxScope = css.ScopeFull
}

// MergeRestyle folds computed-style changes in. isIfcMember reports whether
// a node participates in an inline formatting context.
func (a *ChangeAccumulator) MergeRestyle(changes []style.PropertyChange, isIfcMember func(dom.NodeId) bool) {
	for _, c := range changes {
		ifc := isIfcMember != nil && isIfcMember(c.Node)
		a.AddCSSChange(c.Node, c.Property, ifc)
	}
}

// MergeDiff folds a reconciliation result in. old and cur are the DOMs the
// result was computed from.
func (a *ChangeAccumulator) MergeDiff(res *Result, old, cur *dom.FlatDom) {
	for _, id := range res.Mounted {
		a.AddMount(id)
	}
	for _, id := range res.Unmounted {
		a.AddUnmount(id)
	}
	for _, nc := range res.Changes {
		if nc.Changes.IsEmpty() {
			continue
		}
		n := cur.Ptr(nc.New)
		c := nc.Changes
		if c.Has(ChangeText) {
			a.AddTextChange(nc.New, old.Ptr(nc.Old).Text, n.Text)
			c &^= ChangeText
			if c.IsEmpty() {
				continue
			}
		}
		a.AddDomChange(nc.New, c, ClassifyScope(c, n.InlineCSS))
	}
}

// NeedsLayout reports whether any change needs a layout pass.
func (a *ChangeAccumulator) NeedsLayout() bool { return a.MaxScope > css.ScopeNone }

// NeedsPaintOnly reports whether changes exist but none of them affects
// layout.
func (a *ChangeAccumulator) NeedsPaintOnly() bool {
	if a.NeedsLayout() {
		return false
	}
	for _, r := range a.PerNode {
		if r.Changes.NeedsPaint() {
			return true
		}
	}
	return false
}

// IsVisuallyUnchanged reports whether only callbacks or accessibility
// data changed.
func (a *ChangeAccumulator) IsVisuallyUnchanged() bool {
	return !a.NeedsLayout() && !a.NeedsPaintOnly()
}

func (a *ChangeAccumulator) IsEmpty() bool {
	return len(a.PerNode) == 0 && len(a.Mounted) == 0 && len(a.Unmounted) == 0
}

// Scope returns the scope recorded for id.
func (a *ChangeAccumulator) Scope(id dom.NodeId) css.RelayoutScope {
	if r, ok := a.PerNode[id]; ok {
		return r.Scope
	}
	return css.ScopeNone
}

// Dirty returns the nodes with a layout-affecting scope, sorted.
func (a *ChangeAccumulator) Dirty() []dom.NodeId {
	var out []dom.NodeId
	for id, r := range a.PerNode {
		if r.Scope > css.ScopeNone {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}
