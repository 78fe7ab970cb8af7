package diff

import (
	"styledom/pkg/dom"
)

// TransferStates moves per-node state (scroll offsets, focus, cursors) to
// the new node ids. State of unmounted nodes is dropped.
func TransferStates[S any](states map[dom.NodeId]S, migration map[dom.NodeId]dom.NodeId) map[dom.NodeId]S {
	out := make(map[dom.NodeId]S, len(states))
	for old, s := range states {
		if id, ok := migration[old]; ok {
			out[id] = s
		}
	}
	return out
}

// MergeStates is TransferStates for state that both frames may carry.
// merge is called with the new node's state and the migrated old one.
func MergeStates[S any](cur, old map[dom.NodeId]S, migration map[dom.NodeId]dom.NodeId, merge func(cur, old S) S) map[dom.NodeId]S {
	out := make(map[dom.NodeId]S, len(cur))
	for id, s := range cur {
		out[id] = s
	}
	for oldID, s := range old {
		id, ok := migration[oldID]
		if !ok {
			continue
		}
		if c, ok := out[id]; ok {
			out[id] = merge(c, s)
		} else {
			out[id] = s
		}
	}
	return out
}

// MigrateNode translates one old id. ok is false when the node was unmounted.
func MigrateNode(id dom.NodeId, migration map[dom.NodeId]dom.NodeId) (dom.NodeId, bool) {
	n, ok := migration[id]
	return n, ok
}
