package dom

import (
	"slices"

	"styledom/pkg/css"
)

// NodeType tags what a node is. Cascade, layout and paint switch on it.
type NodeType uint8

const (
	NodeBody NodeType = iota
	NodeDiv
	NodeP
	NodeH1
	NodeH2
	NodeH3
	NodeH4
	NodeH5
	NodeH6
	NodeSpan
	NodeA
	NodeButton
	NodeInput
	NodeTextArea
	NodeLabel
	NodeUl
	NodeOl
	NodeLi
	NodeBr
	NodeImg
	NodeText
	NodeIFrame
	NodeGL
)

var nodeTags = [...]string{
	NodeBody:     "body",
	NodeDiv:      "div",
	NodeP:        "p",
	NodeH1:       "h1",
	NodeH2:       "h2",
	NodeH3:       "h3",
	NodeH4:       "h4",
	NodeH5:       "h5",
	NodeH6:       "h6",
	NodeSpan:     "span",
	NodeA:        "a",
	NodeButton:   "button",
	NodeInput:    "input",
	NodeTextArea: "textarea",
	NodeLabel:    "label",
	NodeUl:       "ul",
	NodeOl:       "ol",
	NodeLi:       "li",
	NodeBr:       "br",
	NodeImg:      "img",
	NodeText:     "text",
	NodeIFrame:   "iframe",
	NodeGL:       "gl",
}

// TagName is the name used by type selectors.
func (t NodeType) TagName() string {
	if int(t) < len(nodeTags) {
		return nodeTags[t]
	}
	return "unknown"
}

func (t NodeType) String() string { return t.TagName() }

// NodeTypeFromTag maps an element name to its node type.
func NodeTypeFromTag(tag string) (NodeType, bool) {
	for i, name := range nodeTags {
		if name == tag {
			return NodeType(i), true
		}
	}
	return 0, false
}

// ImageRef names an image resource and its intrinsic size in px.
type ImageRef struct {
	Name          string
	Width, Height float64
}

// CustomContent is the render callback of an IFrame or GL node. Callback
// is opaque to the core.
type CustomContent struct {
	Callback any
	Data     any
}

// AccessibilityInfo is forwarded untouched to accessibility bridges.
type AccessibilityInfo struct {
	Role        string
	Label       string
	Description string
	States      []string
}

// Equal compares two optional accessibility records.
func (a *AccessibilityInfo) Equal(o *AccessibilityInfo) bool {
	if a == nil || o == nil {
		return a == o
	}
	return a.Role == o.Role && a.Label == o.Label && a.Description == o.Description && slices.Equal(a.States, o.States)
}

// CallbackEntry binds a callback and its data to an event filter.
type CallbackEntry struct {
	Filter   EventFilter
	Callback Callback
	Data     any
}

// NodeData is the payload of one DOM node.
type NodeData struct {
	Type NodeType
	// Text is the content of NodeText nodes.
	Text   string
	Image  *ImageRef
	Custom *CustomContent

	IDs     []string
	Classes []string
	// InlineCSS holds at most one declaration per property, in insertion order.
	InlineCSS []css.Declaration

	Callbacks     []CallbackEntry
	Key           string
	Accessibility *AccessibilityInfo
}

// HasID reports whether id is one of the node's ids.
func (n *NodeData) HasID(id string) bool { return slices.Contains(n.IDs, id) }

// HasClass reports whether class is one of the node's classes.
func (n *NodeData) HasClass(class string) bool { return slices.Contains(n.Classes, class) }

// HasKey reports whether the node carries an explicit identity key.
func (n *NodeData) HasKey() bool { return n.Key != "" }

// AddID adds id once.
func (n *NodeData) AddID(id string) {
	if !n.HasID(id) {
		n.IDs = append(n.IDs, id)
	}
}

// AddClass appends class unless present.
func (n *NodeData) AddClass(class string) {
	if !n.HasClass(class) {
		n.Classes = append(n.Classes, class)
	}
}

// SetInlineProperty stores d, replacing an earlier declaration of the same
// property.
func (n *NodeData) SetInlineProperty(d css.Declaration) {
	for i := range n.InlineCSS {
		if n.InlineCSS[i].Property.Type == d.Property.Type {
			n.InlineCSS[i] = d
			return
		}
	}
	n.InlineCSS = append(n.InlineCSS, d)
}

// InlineProperty returns the inline declaration for p.
func (n *NodeData) InlineProperty(p css.PropertyType) (css.Declaration, bool) {
	for _, d := range n.InlineCSS {
		if d.Property.Type == p {
			return d, true
		}
	}
	return css.Declaration{}, false
}

// HasCallback reports whether any callback listens for the event type.
func (n *NodeData) HasCallback(e EventType) bool {
	for _, c := range n.Callbacks {
		if c.Filter.Event == e {
			return true
		}
	}
	return false
}

// CallbacksFor returns the callbacks whose filter equals f.
func (n *NodeData) CallbacksFor(f EventFilter) []CallbackEntry {
	var out []CallbackEntry
	for _, c := range n.Callbacks {
		if c.Filter == f {
			out = append(out, c)
		}
	}
	return out
}

// IsText reports whether the node is a text leaf.
func (n *NodeData) IsText() bool { return n.Type == NodeText }

// Clone returns a copy that shares no slices with n.
func (n NodeData) Clone() NodeData {
	n.IDs = slices.Clone(n.IDs)
	n.Classes = slices.Clone(n.Classes)
	n.InlineCSS = slices.Clone(n.InlineCSS)
	n.Callbacks = slices.Clone(n.Callbacks)
	if n.Accessibility != nil {
		a := *n.Accessibility
		a.States = slices.Clone(a.States)
		n.Accessibility = &a
	}
	return n
}
