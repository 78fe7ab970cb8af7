package script

import (
	"slices"
	"strings"

	"styledom/pkg/dom"
)

// patch is what scripts wrote to one element.
type patch struct {
	text    *string
	classes []string
	// classSet is true once className or classList was written.
	classSet bool
	// style keeps declarations in the order they were first set.
	style  []declaration
	hidden *bool
}

type declaration struct{ property, value string }

func (p *patch) setStyle(property, value string) {
	i := slices.IndexFunc(p.style, func(d declaration) bool { return d.property == property })
	switch {
	case value == "" && i >= 0:
		p.style = slices.Delete(p.style, i, i+1)
	case value == "":
	case i >= 0:
		p.style[i].value = value
	default:
		p.style = append(p.style, declaration{property, value})
	}
}

func (p *patch) styleValue(property string) string {
	for _, d := range p.style {
		if d.property == property {
			return d.value
		}
	}
	return ""
}

func (p *patch) cssText() string {
	parts := make([]string, 0, len(p.style)+1)
	for _, d := range p.style {
		parts = append(parts, d.property+": "+d.value)
	}
	if p.hidden != nil && *p.hidden {
		parts = append(parts, "display: none")
	}
	return strings.Join(parts, "; ")
}

// patchFor returns the patch of id, creating it and marking the host
// dirty.
func (h *Host) patchFor(id string) *patch {
	h.dirty = true
	p, ok := h.patches[id]
	if !ok {
		p = &patch{}
		h.patches[id] = p
	}
	return p
}

// Patched reports whether scripts wrote to any element.
func (h *Host) Patched() bool { return len(h.patches) > 0 }

// Reset drops all patches, e.g. after the page was reloaded.
func (h *Host) Reset() {
	clear(h.patches)
	clear(h.elements)
}

// Apply returns d with the patches replayed on the elements whose id
// they name. Text writes replace the children of an element; style writes
// override single inline properties.
func (h *Host) Apply(d dom.Dom) dom.Dom {
	if len(h.patches) == 0 {
		return d
	}
	return h.apply(d)
}

func (h *Host) apply(d dom.Dom) dom.Dom {
	for _, id := range d.Node.IDs {
		p, ok := h.patches[id]
		if !ok {
			continue
		}
		if p.classSet {
			d.Node.Classes = slices.Clone(p.classes)
		}
		if p.text != nil {
			d.Children = nil
			if *p.text != "" {
				d.Children = []dom.Dom{dom.Text(*p.text)}
			}
		}
		if css := p.cssText(); css != "" {
			d = d.WithInlineStyle(css)
		}
	}
	if len(d.Children) > 0 {
		children := make([]dom.Dom, len(d.Children))
		for i, c := range d.Children {
			children[i] = h.apply(c)
		}
		d.Children = children
	}
	return d
}

// lookup finds the first node carrying id in the last seen DOM.
func (h *Host) lookup(id string) (dom.NodeId, *dom.NodeData, bool) {
	if h.flat == nil || h.flat.Arena == nil {
		return 0, nil, false
	}
	for i := range h.flat.Len() {
		n := h.flat.Ptr(dom.NodeId(i))
		if n.HasID(id) {
			return dom.NodeId(i), n, true
		}
	}
	return 0, nil, false
}

// textContent concatenates the text below a node.
func textContent(d *dom.FlatDom, id dom.NodeId) string {
	var sb strings.Builder
	if n := d.Ptr(id); n.Type == dom.NodeText {
		sb.WriteString(n.Text)
	}
	for c := range d.Descendants(id) {
		if n := d.Ptr(c); n.Type == dom.NodeText {
			sb.WriteString(n.Text)
		}
	}
	return sb.String()
}
