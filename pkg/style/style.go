// Package style computes per-node styles: it matches stylesheet rules
// against a flat DOM, runs the cascade, inherits and resolves units, and
// recomputes styles when the hover, active or focus state changes.
package style

import (
	"maps"
	"slices"
	"sort"

	"styledom/pkg/css"
	"styledom/pkg/dom"
)

// UIState is the interaction state selectors can depend on.
type UIState struct {
	// Hovered holds every node under the cursor, the hit node and its
	// ancestors.
	Hovered map[dom.NodeId]bool
	// Active is true while the primary mouse button is held.
	Active   bool
	Focused  dom.NodeId
	HasFocus bool
}

// NewUIState returns a state with the given nodes hovered.
func NewUIState(hovered ...dom.NodeId) UIState {
	s := UIState{Hovered: make(map[dom.NodeId]bool, len(hovered))}
	for _, id := range hovered {
		s.Hovered[id] = true
	}
	return s
}

func (s UIState) IsHovered(id dom.NodeId) bool { return s.Hovered[id] }

// IsActive reports whether id is hovered while the mouse is down.
func (s UIState) IsActive(id dom.NodeId) bool { return s.Active && s.Hovered[id] }

func (s UIState) IsFocused(id dom.NodeId) bool { return s.HasFocus && s.Focused == id }

// WithFocus returns a copy of s with id focused.
func (s UIState) WithFocus(id dom.NodeId) UIState {
	s.Focused, s.HasFocus = id, true
	return s
}

// Clone returns a deep copy.
func (s UIState) Clone() UIState {
	s.Hovered = maps.Clone(s.Hovered)
	return s
}

// Equal compares two states.
func (s UIState) Equal(o UIState) bool {
	if s.Active != o.Active || s.HasFocus != o.HasFocus || (s.HasFocus && s.Focused != o.Focused) {
		return false
	}
	if len(s.Hovered) != len(o.Hovered) {
		return false
	}
	for id := range s.Hovered {
		if !o.Hovered[id] {
			return false
		}
	}
	return true
}

// changedNodes returns the nodes whose hover, active or focus state
// differs between s and o, sorted.
func (s UIState) changedNodes(o UIState) []dom.NodeId {
	set := map[dom.NodeId]bool{}
	for id := range s.Hovered {
		if !o.Hovered[id] || s.Active != o.Active {
			set[id] = true
		}
	}
	for id := range o.Hovered {
		if !s.Hovered[id] || s.Active != o.Active {
			set[id] = true
		}
	}
	if s.HasFocus && !o.IsFocused(s.Focused) {
		set[s.Focused] = true
	}
	if o.HasFocus && !s.IsFocused(o.Focused) {
		set[o.Focused] = true
	}
	return slices.Sorted(maps.Keys(set))
}

// Origin records where a computed property came from.
type Origin uint8

const (
	OriginUserAgent Origin = iota
	OriginOwn
	OriginInherited
)

func (o Origin) String() string {
	switch o {
	case OriginUserAgent:
		return "ua"
	case OriginOwn:
		return "own"
	case OriginInherited:
		return "inherited"
	}
	return "?"
}

// PropertyWithOrigin is one computed property.
type PropertyWithOrigin struct {
	Property css.Property
	Origin   Origin
}

// ComputedStyle is the cascaded style of one node, sorted by property type.
type ComputedStyle struct {
	Properties []PropertyWithOrigin
}

func (c *ComputedStyle) find(p css.PropertyType) (int, bool) {
	i := sort.Search(len(c.Properties), func(i int) bool { return c.Properties[i].Property.Type >= p })
	return i, i < len(c.Properties) && c.Properties[i].Property.Type == p
}

// Get returns the computed property p.
func (c *ComputedStyle) Get(p css.PropertyType) (PropertyWithOrigin, bool) {
	if c == nil {
		return PropertyWithOrigin{}, false
	}
	i, ok := c.find(p)
	if !ok {
		return PropertyWithOrigin{}, false
	}
	return c.Properties[i], true
}

// Value returns the computed value of p.
func (c *ComputedStyle) Value(p css.PropertyType) (css.Value, bool) {
	pw, ok := c.Get(p)
	return pw.Property.Value, ok
}

// Set stores p, keeping the slice sorted.
func (c *ComputedStyle) Set(p css.PropertyType, v css.Value, origin Origin) {
	entry := PropertyWithOrigin{Property: css.Property{Type: p, Value: v}, Origin: origin}
	i, ok := c.find(p)
	if ok {
		c.Properties[i] = entry
		return
	}
	c.Properties = slices.Insert(c.Properties, i, entry)
}

// Remove deletes p.
func (c *ComputedStyle) Remove(p css.PropertyType) {
	if i, ok := c.find(p); ok {
		c.Properties = slices.Delete(c.Properties, i, i+1)
	}
}

func (c *ComputedStyle) Len() int { return len(c.Properties) }

// Clone returns a copy that shares no storage with c.
func (c ComputedStyle) Clone() ComputedStyle {
	return ComputedStyle{Properties: slices.Clone(c.Properties)}
}

// StyledDom is a flat DOM together with the computed style of every node.
type StyledDom struct {
	Dom    *dom.FlatDom
	Styles []ComputedStyle
	State  UIState
	Sheet  *css.Stylesheet
	// HoverGroups are the rules of Sheet that depend on UI state.
	HoverGroups []HoverGroup
}

// Style returns the computed style of id.
func (s *StyledDom) Style(id dom.NodeId) *ComputedStyle {
	if int(id) < 0 || int(id) >= len(s.Styles) {
		return nil
	}
	return &s.Styles[id]
}

// Len returns the number of nodes.
func (s *StyledDom) Len() int { return len(s.Styles) }
