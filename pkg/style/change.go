package style

import (
	"fmt"

	"styledom/pkg/css"
	"styledom/pkg/dom"
)

// PropertyChange records one computed property that changed on a node.
// A missing side has Kind css.KindUnset.
type PropertyChange struct {
	Node     dom.NodeId
	Property css.PropertyType
	Old      css.Value
	New      css.Value
}

func (c PropertyChange) String() string {
	return fmt.Sprintf("node %d %s: %s -> %s", c.Node, c.Property, c.Old, c.New)
}

// DiffStyles lists the properties that differ between two styles of the
// same node, in property order.
func DiffStyles(id dom.NodeId, old, cur *ComputedStyle) []PropertyChange {
	var out []PropertyChange
	i, j := 0, 0
	for i < old.Len() || j < cur.Len() {
		switch {
		case j >= cur.Len() || (i < old.Len() && old.Properties[i].Property.Type < cur.Properties[j].Property.Type):
			p := old.Properties[i].Property
			out = append(out, PropertyChange{Node: id, Property: p.Type, Old: p.Value})
			i++
		case i >= old.Len() || cur.Properties[j].Property.Type < old.Properties[i].Property.Type:
			p := cur.Properties[j].Property
			out = append(out, PropertyChange{Node: id, Property: p.Type, New: p.Value})
			j++
		default:
			a, b := old.Properties[i].Property, cur.Properties[j].Property
			if !a.Value.Equal(b.Value) {
				out = append(out, PropertyChange{Node: id, Property: a.Type, Old: a.Value, New: b.Value})
			}
			i++
			j++
		}
	}
	return out
}
