package diff

import (
	"reflect"
	"slices"
	"strings"

	"styledom/pkg/css"
	"styledom/pkg/dom"
)

// ChangeSet is a bit set describing what changed between two matched nodes.
type ChangeSet uint32

const (
	ChangeNodeType ChangeSet = 1 << iota
	ChangeText
	ChangeIDsAndClasses
	ChangeInlineStyleLayout
	ChangeChildren
	ChangeImage
	ChangeInlineStylePaint
	ChangeStyledState
	ChangeCallbacks
	ChangeAccessibility
)

// AffectsLayout are the changes that need a layout pass.
const AffectsLayout = ChangeNodeType | ChangeText | ChangeIDsAndClasses | ChangeInlineStyleLayout | ChangeChildren | ChangeImage

// AffectsPaint are the changes that need a new display list but no layout.
const AffectsPaint = ChangeInlineStylePaint | ChangeStyledState

var changeNames = []string{
	"node-type", "text", "ids-classes", "inline-layout", "children",
	"image", "inline-paint", "styled-state", "callbacks", "accessibility",
}

func (c ChangeSet) Has(flag ChangeSet) bool        { return c&flag == flag }
func (c ChangeSet) Intersects(mask ChangeSet) bool { return c&mask != 0 }
func (c ChangeSet) IsEmpty() bool                  { return c == 0 }
func (c ChangeSet) NeedsLayout() bool              { return c.Intersects(AffectsLayout) }
func (c ChangeSet) NeedsPaint() bool               { return c.Intersects(AffectsPaint) }

// IsVisuallyUnchanged reports whether only callbacks or accessibility
// info changed.
func (c ChangeSet) IsVisuallyUnchanged() bool { return !c.NeedsLayout() && !c.NeedsPaint() }

func (c ChangeSet) String() string {
	if c == 0 {
		return "none"
	}
	var parts []string
	for i, name := range changeNames {
		if c&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, "|")
}

// ComputeChanges compares two matched nodes field by field. A type change
// makes every other comparison meaningless and is reported alone.
func ComputeChanges(old, cur *dom.NodeData) ChangeSet {
	if old.Type != cur.Type {
		return ChangeNodeType
	}
	var c ChangeSet
	if old.Text != cur.Text {
		c |= ChangeText
	}
	if !sameImage(old.Image, cur.Image) {
		c |= ChangeImage
	}
	if !slices.Equal(old.IDs, cur.IDs) || !slices.Equal(old.Classes, cur.Classes) {
		c |= ChangeIDsAndClasses
	}
	c |= inlineChanges(old.InlineCSS, cur.InlineCSS)
	if !sameCallbacks(old.Callbacks, cur.Callbacks) {
		c |= ChangeCallbacks
	}
	if !old.Accessibility.Equal(cur.Accessibility) {
		c |= ChangeAccessibility
	}
	return c
}

func sameImage(a, b *dom.ImageRef) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// inlineChanges classifies changed, added and removed inline declarations
// into layout and paint changes.
func inlineChanges(old, cur []css.Declaration) ChangeSet {
	var c ChangeSet
	mark := func(p css.PropertyType) {
		if p.RelayoutScope(true) != css.ScopeNone {
			c |= ChangeInlineStyleLayout
		} else {
			c |= ChangeInlineStylePaint
		}
	}
	oldByType := make(map[css.PropertyType]css.Declaration, len(old))
	for _, d := range old {
		oldByType[d.Property.Type] = d
	}
	seen := make(map[css.PropertyType]bool, len(cur))
	for _, d := range cur {
		seen[d.Property.Type] = true
		o, ok := oldByType[d.Property.Type]
		if !ok || o.Important != d.Important || !o.Property.Equal(d.Property) {
			mark(d.Property.Type)
		}
	}
	for p := range oldByType {
		if !seen[p] {
			mark(p)
		}
	}
	return c
}

// sameCallbacks compares filters and function identity. Callback data is
// not compared.
func sameCallbacks(a, b []dom.CallbackEntry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Filter != b[i].Filter {
			return false
		}
		if reflect.ValueOf(a[i].Callback).Pointer() != reflect.ValueOf(b[i].Callback).Pointer() {
			return false
		}
	}
	return true
}

// ClassifyScope maps a change set to the relayout scope it needs. inline
// holds the new node's inline declarations.
func ClassifyScope(c ChangeSet, inline []css.Declaration) css.RelayoutScope {
	switch {
	case c.Intersects(ChangeNodeType | ChangeChildren | ChangeIDsAndClasses):
		return css.ScopeFull
	case c.Has(ChangeInlineStyleLayout):
		scope := css.ScopeNone
		for _, d := range inline {
			scope = css.MaxScope(scope, d.Property.Type.RelayoutScope(true))
		}
		if scope == css.ScopeNone {
			// A layout property was removed; its old scope is unknown.
			return css.ScopeSizingOnly
		}
		return scope
	case c.Has(ChangeText):
		return css.ScopeIfcOnly
	case c.Has(ChangeImage):
		return css.ScopeSizingOnly
	}
	return css.ScopeNone
}
