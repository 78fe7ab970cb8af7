// Package diff reconciles the DOM of the previous frame with the DOM the
// application built for the current frame. Nodes are matched by explicit
// key, then by content hash, then by structural hash, FIFO among equal
// candidates. The result maps old node ids to new ones and carries the
// lifecycle events registered callbacks asked for.
package diff

import (
	"maps"
	"slices"
	"time"

	"go.uber.org/zap"

	"styledom/pkg/dom"
	"styledom/pkg/geom"
)

// NodeMove pairs an old node with the new node it was matched to.
type NodeMove struct {
	Old dom.NodeId
	New dom.NodeId
}

// LifecycleEvent is a Mount, Unmount, Update or Resize event.
type LifecycleEvent struct {
	Type      dom.EventType
	Target    dom.DomNodeId
	Timestamp time.Time
	// PreviousBounds is unset for mounts.
	PreviousBounds    geom.Rect
	HasPreviousBounds bool
	CurrentBounds     geom.Rect
}

// AmbiguityKind says which identity was not unique.
type AmbiguityKind uint8

const (
	DuplicateKey AmbiguityKind = iota
)

// Ambiguity records identities that were resolved first-wins.
type Ambiguity struct {
	Kind  AmbiguityKind
	Key   string
	Nodes []dom.NodeId
}

// NodeChange reports what changed on one matched pair.
type NodeChange struct {
	Old     dom.NodeId
	New     dom.NodeId
	Changes ChangeSet
	// PreviousBounds is the old node's layout rectangle.
	PreviousBounds geom.Rect
}

// Result is the outcome of one reconciliation.
type Result struct {
	// Moves is sorted by new id.
	Moves []NodeMove
	// Events holds unmounts, then mounts, then updates and resizes, each in
	// document order.
	Events      []LifecycleEvent
	Changes     []NodeChange
	Mounted     []dom.NodeId
	Unmounted   []dom.NodeId
	Ambiguities []Ambiguity

	// deferred is set when the diff ran without the new layout.
	deferred bool
	domID    dom.DomId
	now      time.Time
}

// Migration maps old node ids to new ones.
func (r *Result) Migration() map[dom.NodeId]dom.NodeId {
	m := make(map[dom.NodeId]dom.NodeId, len(r.Moves))
	for _, mv := range r.Moves {
		m[mv.Old] = mv.New
	}
	return m
}

// Previous maps new node ids to the old node they replace.
func (r *Result) Previous() map[dom.NodeId]dom.NodeId {
	m := make(map[dom.NodeId]dom.NodeId, len(r.Moves))
	for _, mv := range r.Moves {
		m[mv.New] = mv.Old
	}
	return m
}

// IsIdentity reports whether every node kept its id and nothing was
// mounted or unmounted.
func (r *Result) IsIdentity() bool {
	if len(r.Mounted) > 0 || len(r.Unmounted) > 0 {
		return false
	}
	for _, mv := range r.Moves {
		if mv.Old != mv.New {
			return false
		}
	}
	return true
}

// Layouts carries the node bounds of both frames, used for Resize events
// and event bounds. Missing entries count as empty rectangles.
type Layouts struct {
	Old map[dom.NodeId]geom.Rect
	New map[dom.NodeId]geom.Rect
}

// Reconciler diffs DOMs.
type Reconciler struct {
	logger *zap.Logger
}

// NewReconciler returns a reconciler logging to logger, which may be nil.
func NewReconciler(logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{logger: logger.Named("diff")}
}

// fifo is a queue of old node ids with the same hash.
type fifo []dom.NodeId

// pop returns the first id not yet consumed.
func (q *fifo) pop(consumed []bool) (dom.NodeId, bool) {
	for len(*q) > 0 {
		id := (*q)[0]
		*q = (*q)[1:]
		if !consumed[id] {
			return id, true
		}
	}
	return 0, false
}

// Diff matches the nodes of cur against old. Either DOM may be empty.
func (r *Reconciler) Diff(domID dom.DomId, old, cur *dom.FlatDom, layouts Layouts, now time.Time) *Result {
	oldNodes, curNodes := nodesOf(old), nodesOf(cur)
	res := &Result{deferred: layouts.New == nil, domID: domID, now: now}

	keyed := map[string]dom.NodeId{}
	dupKeys := map[string][]dom.NodeId{}
	byContent := map[uint64]*fifo{}
	byStructure := map[uint64]*fifo{}
	push := func(m map[uint64]*fifo, h uint64, id dom.NodeId) {
		q, ok := m[h]
		if !ok {
			q = &fifo{}
			m[h] = q
		}
		*q = append(*q, id)
	}
	for i := range oldNodes {
		id := dom.NodeId(i)
		n := &oldNodes[i]
		if n.HasKey() {
			if first, dup := keyed[n.Key]; dup {
				if len(dupKeys[n.Key]) == 0 {
					dupKeys[n.Key] = []dom.NodeId{first}
				}
				dupKeys[n.Key] = append(dupKeys[n.Key], id)
			} else {
				keyed[n.Key] = id
				continue
			}
		}
		push(byContent, dom.ContentHash(n), id)
		push(byStructure, dom.StructuralHash(n), id)
	}
	for _, key := range slices.Sorted(maps.Keys(dupKeys)) {
		ids := dupKeys[key]
		res.Ambiguities = append(res.Ambiguities, Ambiguity{Kind: DuplicateKey, Key: key, Nodes: ids})
		r.logger.Warn("duplicate key in previous dom, first wins", zap.String("key", key), zap.Int("count", len(ids)))
	}

	consumed := make([]bool, len(oldNodes))
	matchedByKey := make([]bool, len(curNodes))
	newToOld := make([]dom.NodeId, len(curNodes))
	matched := make([]bool, len(curNodes))
	for i := range curNodes {
		n := &curNodes[i]
		var oldID dom.NodeId
		ok := false
		if n.HasKey() {
			if id, hit := keyed[n.Key]; hit && !consumed[id] {
				oldID, ok = id, true
				matchedByKey[i] = true
			}
		}
		if !ok {
			if q := byContent[dom.ContentHash(n)]; q != nil {
				oldID, ok = q.pop(consumed)
			}
		}
		if !ok {
			if q := byStructure[dom.StructuralHash(n)]; q != nil {
				oldID, ok = q.pop(consumed)
			}
		}
		if ok {
			consumed[oldID] = true
			newToOld[i], matched[i] = oldID, true
			res.Moves = append(res.Moves, NodeMove{Old: oldID, New: dom.NodeId(i)})
		}
	}

	migration := res.Migration()
	target := func(id dom.NodeId) dom.DomNodeId { return dom.DomNodeId{Dom: domID, Node: id} }

	for i := range oldNodes {
		if consumed[i] {
			continue
		}
		id := dom.NodeId(i)
		res.Unmounted = append(res.Unmounted, id)
		if oldNodes[i].HasCallback(dom.EventUnmount) {
			b := layouts.Old[id]
			res.Events = append(res.Events, LifecycleEvent{Type: dom.EventUnmount, Target: target(id), Timestamp: now, PreviousBounds: b, HasPreviousBounds: true})
		}
	}
	for i := range curNodes {
		if matched[i] {
			continue
		}
		id := dom.NodeId(i)
		res.Mounted = append(res.Mounted, id)
		if curNodes[i].HasCallback(dom.EventMount) {
			res.Events = append(res.Events, LifecycleEvent{Type: dom.EventMount, Target: target(id), Timestamp: now, CurrentBounds: layouts.New[id]})
		}
	}
	for i := range curNodes {
		if !matched[i] {
			continue
		}
		id, oldID := dom.NodeId(i), newToOld[i]
		n := &curNodes[i]
		oldRect, newRect := layouts.Old[oldID], layouts.New[id]

		changes := ComputeChanges(&oldNodes[oldID], n)
		if !sameChildren(old, oldID, cur, id, migration) {
			changes |= ChangeChildren
		}
		res.Changes = append(res.Changes, NodeChange{Old: oldID, New: id, Changes: changes, PreviousBounds: oldRect})

		if matchedByKey[i] && dom.ContentHash(&oldNodes[oldID]) != dom.ContentHash(n) && n.HasCallback(dom.EventUpdate) {
			res.Events = append(res.Events, LifecycleEvent{Type: dom.EventUpdate, Target: target(id), Timestamp: now, PreviousBounds: oldRect, HasPreviousBounds: true, CurrentBounds: newRect})
		}
		if !res.deferred && oldRect.Size() != newRect.Size() && n.HasCallback(dom.EventResize) {
			res.Events = append(res.Events, LifecycleEvent{Type: dom.EventResize, Target: target(id), Timestamp: now, PreviousBounds: oldRect, HasPreviousBounds: true, CurrentBounds: newRect})
		}
	}

	r.logger.Debug("reconciled",
		zap.Int("old", len(oldNodes)),
		zap.Int("new", len(curNodes)),
		zap.Int("moves", len(res.Moves)),
		zap.Int("mounted", len(res.Mounted)),
		zap.Int("unmounted", len(res.Unmounted)),
		zap.Int("events", len(res.Events)))
	return res
}

// AttachBounds completes a diff that ran before the new layout existed:
// mount and update events get their current bounds and resize events are
// added for matched nodes whose size changed. Calling it again, or on a
// diff that had the new layout, does nothing.
func (r *Result) AttachBounds(cur *dom.FlatDom, bounds map[dom.NodeId]geom.Rect) {
	if !r.deferred {
		return
	}
	r.deferred = false
	nodes := nodesOf(cur)

	out := make([]LifecycleEvent, 0, len(r.Events))
	updates := map[dom.NodeId]LifecycleEvent{}
	for _, e := range r.Events {
		switch e.Type {
		case dom.EventMount:
			e.CurrentBounds = bounds[e.Target.Node]
		case dom.EventUpdate:
			e.CurrentBounds = bounds[e.Target.Node]
			updates[e.Target.Node] = e
			continue
		}
		out = append(out, e)
	}
	for _, c := range r.Changes {
		if e, ok := updates[c.New]; ok {
			out = append(out, e)
		}
		now := bounds[c.New]
		if c.PreviousBounds.Size() != now.Size() && int(c.New) < len(nodes) && nodes[c.New].HasCallback(dom.EventResize) {
			out = append(out, LifecycleEvent{
				Type:              dom.EventResize,
				Target:            dom.DomNodeId{Dom: r.domID, Node: c.New},
				Timestamp:         r.now,
				PreviousBounds:    c.PreviousBounds,
				HasPreviousBounds: true,
				CurrentBounds:     now,
			})
		}
	}
	r.Events = out
}

func nodesOf(d *dom.FlatDom) []dom.NodeData {
	if d == nil || d.Arena == nil {
		return nil
	}
	return d.Data()
}

// sameChildren reports whether the children of the new node are exactly
// the migrated children of the old node, in order.
func sameChildren(old *dom.FlatDom, oldID dom.NodeId, cur *dom.FlatDom, id dom.NodeId, migration map[dom.NodeId]dom.NodeId) bool {
	var want []dom.NodeId
	for c := range old.Children(oldID) {
		m, ok := migration[c]
		if !ok {
			return false
		}
		want = append(want, m)
	}
	i := 0
	for c := range cur.Children(id) {
		if i >= len(want) || want[i] != c {
			return false
		}
		i++
	}
	return i == len(want)
}
