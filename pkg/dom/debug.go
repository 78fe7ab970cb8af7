package dom

import (
	"fmt"
	"strings"

	"github.com/xlab/treeprint"
)

// Label renders a node like a start tag, e.g. `div#main.a.b [key=x]`.
func (n *NodeData) Label() string {
	if n.Type == NodeText {
		return fmt.Sprintf("%q", n.Text)
	}
	var b strings.Builder
	b.WriteString(n.Type.TagName())
	for _, id := range n.IDs {
		b.WriteString("#" + id)
	}
	for _, c := range n.Classes {
		b.WriteString("." + c)
	}
	if n.Key != "" {
		fmt.Fprintf(&b, " [key=%s]", n.Key)
	}
	if len(n.InlineCSS) > 0 {
		parts := make([]string, len(n.InlineCSS))
		for i, d := range n.InlineCSS {
			parts[i] = d.Property.String()
		}
		fmt.Fprintf(&b, " {%s}", strings.Join(parts, "; "))
	}
	return b.String()
}

// DebugString prints the DOM as a tree.
func (f *FlatDom) DebugString() string {
	root, ok := f.Root()
	if !ok {
		return "(empty)"
	}
	tree := treeprint.New()
	f.dump(tree, root)
	return tree.String()
}

func (f *FlatDom) dump(parent treeprint.Tree, id NodeId) {
	label := fmt.Sprintf("[%d] %s", id, f.Ptr(id).Label())
	if f.ChildCount(id) == 0 {
		parent.AddNode(label)
		return
	}
	branch := parent.AddBranch(label)
	for c := range f.Children(id) {
		f.dump(branch, c)
	}
}
