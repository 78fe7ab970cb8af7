package dom

import (
	"encoding/binary"
	"hash"
	"hash/fnv"
	"math"
)

// ContentHash hashes everything about a node that is visible after layout:
// type, text, image, ids, classes, inline CSS, key and accessibility info.
// Callbacks are not hashed.
func ContentHash(n *NodeData) uint64 {
	h := fnv.New64a()
	writeStructure(h, n)
	writeString(h, n.Text)
	if n.Image != nil {
		writeString(h, n.Image.Name)
		writeFloat(h, n.Image.Width)
		writeFloat(h, n.Image.Height)
	}
	writeString(h, n.Key)
	if a := n.Accessibility; a != nil {
		writeString(h, a.Role)
		writeString(h, a.Label)
		writeString(h, a.Description)
		for _, s := range a.States {
			writeString(h, s)
		}
	}
	return h.Sum64()
}

// StructuralHash hashes type, classes, ids and inline CSS but not text, so
// a text node whose content changed still matches its predecessor.
func StructuralHash(n *NodeData) uint64 {
	h := fnv.New64a()
	writeStructure(h, n)
	return h.Sum64()
}

func writeStructure(h hash.Hash64, n *NodeData) {
	h.Write([]byte{byte(n.Type)})
	for _, id := range n.IDs {
		writeString(h, "#"+id)
	}
	for _, c := range n.Classes {
		writeString(h, "."+c)
	}
	for _, d := range n.InlineCSS {
		writeString(h, d.Property.String())
		if d.Important {
			h.Write([]byte{1})
		}
	}
}

// Hash hashes the whole DOM: every node's content hash plus the shape of
// the tree.
func (f *FlatDom) Hash() uint64 {
	h := fnv.New64a()
	root, ok := f.Root()
	if !ok {
		return h.Sum64()
	}
	var buf [8]byte
	for edge := range f.Traverse(root) {
		if edge.Kind == EdgeEnd {
			h.Write([]byte{0xff})
			continue
		}
		binary.LittleEndian.PutUint64(buf[:], ContentHash(f.Ptr(edge.Node)))
		h.Write(buf[:])
	}
	return h.Sum64()
}

// InlineLayoutHash hashes only inline declarations that can change layout.
func InlineLayoutHash(n *NodeData) uint64 {
	return inlineHash(n, true)
}

// InlinePaintHash hashes only paint-only inline declarations.
func InlinePaintHash(n *NodeData) uint64 {
	return inlineHash(n, false)
}

func inlineHash(n *NodeData, layout bool) uint64 {
	h := fnv.New64a()
	for _, d := range n.InlineCSS {
		if d.Property.Type.CanTriggerRelayout() != layout {
			continue
		}
		writeString(h, d.Property.String())
	}
	return h.Sum64()
}

func writeString(h hash.Hash64, s string) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(len(s)))
	h.Write(buf[:])
	h.Write([]byte(s))
}

func writeFloat(h hash.Hash64, f float64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
	h.Write(buf[:])
}
