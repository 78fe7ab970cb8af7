package diff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"styledom/pkg/css"
	"styledom/pkg/dom"
	"styledom/pkg/geom"
	"styledom/pkg/style"
	"styledom/pkg/task"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func noop(any, dom.CallbackInfo) task.Update { return task.DoNothing }

// siblings builds a DOM of parentless top-level nodes.
func siblings(nodes ...dom.Dom) *dom.FlatDom {
	a := dom.NewArena[dom.NodeData](len(nodes))
	for _, n := range nodes {
		a.NewNode(n.Node.Clone())
	}
	return dom.NewFlatDom(a)
}

func diff(old, cur *dom.FlatDom) *Result {
	return NewReconciler(nil).Diff(1, old, cur, Layouts{}, epoch)
}

func TestDiff_Identity(t *testing.T) {
	d := dom.Flatten(dom.Body().WithChildren(
		dom.Div().WithClass("a").WithChild(dom.Text("hello")),
		dom.P().WithKey("k").WithCallback(dom.ComponentFilter(dom.EventMount), noop, nil),
	))
	res := diff(d, d)
	assert.True(t, res.IsIdentity())
	assert.Empty(t, res.Events)
	assert.Len(t, res.Moves, d.Len())
	for _, c := range res.Changes {
		assert.True(t, c.Changes.IsEmpty(), "node %d: %s", c.New, c.Changes)
	}
}

func TestDiff_SingleNodeUnchanged(t *testing.T) {
	res := diff(dom.Flatten(dom.Div()), dom.Flatten(dom.Div()))
	assert.Equal(t, []NodeMove{{Old: 0, New: 0}}, res.Moves)
	assert.Empty(t, res.Events)
}

func TestDiff_KeyedReorder(t *testing.T) {
	a := dom.Div().WithKey("a")
	b := dom.Div().WithKey("b")
	c := dom.Div().WithKey("c")
	res := diff(siblings(a, b, c), siblings(c, b, a))
	assert.Equal(t, []NodeMove{{Old: 2, New: 0}, {Old: 1, New: 1}, {Old: 0, New: 2}}, res.Moves)
	assert.False(t, res.IsIdentity())
	assert.Equal(t, map[dom.NodeId]dom.NodeId{0: 2, 1: 1, 2: 0}, res.Migration())
	assert.Equal(t, map[dom.NodeId]dom.NodeId{0: 2, 1: 1, 2: 0}, res.Previous())
}

func TestDiff_IdenticalSiblingsMatchInOrder(t *testing.T) {
	old := dom.Flatten(dom.Body().WithChildren(dom.Div(), dom.Div()))
	cur := dom.Flatten(dom.Body().WithChildren(dom.Div(), dom.Div(), dom.Div()))
	res := diff(old, cur)
	assert.Equal(t, []NodeMove{{0, 0}, {1, 1}, {2, 2}}, res.Moves)
	assert.Equal(t, []dom.NodeId{3}, res.Mounted)
	assert.Empty(t, res.Unmounted)
	require.NotEmpty(t, res.Changes)
	assert.True(t, res.Changes[0].Changes.Has(ChangeChildren))
	assert.True(t, res.Changes[1].Changes.IsEmpty())
}

func TestDiff_TextChangeMatchesStructurally(t *testing.T) {
	old := dom.Flatten(dom.Body().WithChild(dom.Text("before")))
	cur := dom.Flatten(dom.Body().WithChild(dom.Text("after")))
	res := diff(old, cur)
	assert.True(t, res.IsIdentity())
	require.Len(t, res.Changes, 2)
	assert.True(t, res.Changes[0].Changes.IsEmpty())
	assert.Equal(t, ChangeText, res.Changes[1].Changes)
}

func TestDiff_ContentBeatsStructure(t *testing.T) {
	old := siblings(dom.Text("x"), dom.Text("y"))
	cur := siblings(dom.Text("y"))
	res := diff(old, cur)
	assert.Equal(t, []NodeMove{{Old: 1, New: 0}}, res.Moves)
	assert.Equal(t, []dom.NodeId{0}, res.Unmounted)
}

func TestDiff_LifecycleEventsNeedCallbacks(t *testing.T) {
	old := dom.Flatten(dom.Body().WithChild(dom.P()))
	cur := dom.Flatten(dom.Body().WithChild(dom.Span()))
	res := diff(old, cur)
	assert.Equal(t, []dom.NodeId{1}, res.Mounted)
	assert.Equal(t, []dom.NodeId{1}, res.Unmounted)
	assert.Empty(t, res.Events)
}

func TestDiff_EventOrder(t *testing.T) {
	old := dom.Flatten(dom.Body().WithChildren(
		dom.Div().WithKey("keep").WithClass("a").WithCallback(dom.ComponentFilter(dom.EventUpdate), noop, nil),
		dom.P().WithCallback(dom.ComponentFilter(dom.EventUnmount), noop, nil),
	))
	cur := dom.Flatten(dom.Body().WithChildren(
		dom.Span().WithCallback(dom.ComponentFilter(dom.EventMount), noop, nil),
		dom.Div().WithKey("keep").WithClass("b").
			WithCallback(dom.ComponentFilter(dom.EventUpdate), noop, nil).
			WithCallback(dom.ComponentFilter(dom.EventResize), noop, nil),
	))
	layouts := Layouts{
		Old: map[dom.NodeId]geom.Rect{1: {Width: 100, Height: 10}, 2: {Y: 10, Width: 100, Height: 20}},
		New: map[dom.NodeId]geom.Rect{1: {Width: 50, Height: 10}, 2: {Y: 10, Width: 200, Height: 10}},
	}
	res := NewReconciler(nil).Diff(7, old, cur, layouts, epoch)

	var types []dom.EventType
	for _, e := range res.Events {
		types = append(types, e.Type)
		assert.Equal(t, dom.DomId(7), e.Target.Dom)
		assert.Equal(t, epoch, e.Timestamp)
	}
	assert.Equal(t, []dom.EventType{dom.EventUnmount, dom.EventMount, dom.EventUpdate, dom.EventResize}, types)

	unmount := res.Events[0]
	assert.Equal(t, dom.NodeId(2), unmount.Target.Node)
	assert.True(t, unmount.HasPreviousBounds)
	assert.Equal(t, geom.Rect{Y: 10, Width: 100, Height: 20}, unmount.PreviousBounds)

	mount := res.Events[1]
	assert.Equal(t, dom.NodeId(1), mount.Target.Node)
	assert.False(t, mount.HasPreviousBounds)
	assert.Equal(t, geom.Rect{Width: 50, Height: 10}, mount.CurrentBounds)

	resize := res.Events[3]
	assert.Equal(t, dom.NodeId(2), resize.Target.Node)
	assert.Equal(t, geom.Rect{Width: 100, Height: 10}, resize.PreviousBounds)
	assert.Equal(t, geom.Rect{Y: 10, Width: 200, Height: 10}, resize.CurrentBounds)
}

func TestDiff_NoUpdateWithoutContentChange(t *testing.T) {
	n := dom.Div().WithKey("k").WithCallback(dom.ComponentFilter(dom.EventUpdate), noop, nil)
	res := diff(siblings(n), siblings(n))
	assert.Empty(t, res.Events)
}

func TestDiff_DuplicateKeysFirstWins(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	r := NewReconciler(zap.New(core))

	old := siblings(dom.Div().WithKey("k").WithClass("first"), dom.Div().WithKey("k").WithClass("second"))
	cur := siblings(dom.Div().WithKey("k").WithClass("other"), dom.Div().WithKey("k").WithClass("second"))
	res := r.Diff(1, old, cur, Layouts{}, epoch)

	require.Len(t, res.Ambiguities, 1)
	assert.Equal(t, Ambiguity{Kind: DuplicateKey, Key: "k", Nodes: []dom.NodeId{0, 1}}, res.Ambiguities[0])
	assert.Equal(t, []NodeMove{{Old: 0, New: 0}, {Old: 1, New: 1}}, res.Moves)
	assert.Equal(t, 1, logs.FilterMessage("duplicate key in previous dom, first wins").Len())
}

func TestDiff_EmptyDoms(t *testing.T) {
	res := diff(nil, dom.Flatten(dom.Div()))
	assert.Equal(t, []dom.NodeId{0}, res.Mounted)
	res = diff(dom.Flatten(dom.Div()), &dom.FlatDom{})
	assert.Equal(t, []dom.NodeId{0}, res.Unmounted)
	assert.True(t, diff(nil, nil).IsIdentity())
}

func TestComputeChanges(t *testing.T) {
	base := dom.Div().WithClass("a").WithProperty(css.PropWidth, css.PxLength(10)).Node

	t.Run("type change is reported alone", func(t *testing.T) {
		other := base.Clone()
		other.Type = dom.NodeP
		other.Classes = []string{"b"}
		assert.Equal(t, ChangeNodeType, ComputeChanges(&base, &other))
	})
	t.Run("inline layout", func(t *testing.T) {
		other := base.Clone()
		other.SetInlineProperty(css.Declaration{Property: css.Property{Type: css.PropWidth, Value: css.PxLength(20)}})
		c := ComputeChanges(&base, &other)
		assert.Equal(t, ChangeInlineStyleLayout, c)
		assert.Equal(t, css.ScopeSizingOnly, ClassifyScope(c, other.InlineCSS))
	})
	t.Run("inline paint", func(t *testing.T) {
		other := base.Clone()
		other.SetInlineProperty(css.Declaration{Property: css.Property{Type: css.PropBackgroundColor, Value: css.ColorValue(css.Black)}})
		c := ComputeChanges(&base, &other)
		assert.Equal(t, ChangeInlineStylePaint, c)
		assert.True(t, c.NeedsPaint())
		assert.False(t, c.NeedsLayout())
		assert.Equal(t, css.ScopeNone, ClassifyScope(c, other.InlineCSS))
	})
	t.Run("callbacks and accessibility are invisible", func(t *testing.T) {
		other := base.Clone()
		other.Callbacks = append(other.Callbacks, dom.CallbackEntry{Filter: dom.HoverFilter(dom.EventMouseUp), Callback: noop})
		other.Accessibility = &dom.AccessibilityInfo{Role: "button"}
		c := ComputeChanges(&base, &other)
		assert.Equal(t, ChangeCallbacks|ChangeAccessibility, c)
		assert.True(t, c.IsVisuallyUnchanged())
	})
	t.Run("classes", func(t *testing.T) {
		other := base.Clone()
		other.Classes = []string{"b"}
		c := ComputeChanges(&base, &other)
		assert.Equal(t, css.ScopeFull, ClassifyScope(c, other.InlineCSS))
	})
}

func TestChangeSet_String(t *testing.T) {
	assert.Equal(t, "none", ChangeSet(0).String())
	assert.Equal(t, "text|children", (ChangeText | ChangeChildren).String())
}

func TestClassifyScope(t *testing.T) {
	assert.Equal(t, css.ScopeIfcOnly, ClassifyScope(ChangeText, nil))
	assert.Equal(t, css.ScopeSizingOnly, ClassifyScope(ChangeImage, nil))
	assert.Equal(t, css.ScopeFull, ClassifyScope(ChangeChildren|ChangeText, nil))
	assert.Equal(t, css.ScopeSizingOnly, ClassifyScope(ChangeInlineStyleLayout, nil), "removed layout property")
	assert.Equal(t, css.ScopeNone, ClassifyScope(ChangeCallbacks, nil))
}

func TestTransferStates(t *testing.T) {
	states := map[dom.NodeId]float64{0: 1, 1: 2, 2: 3}
	migration := map[dom.NodeId]dom.NodeId{0: 0, 2: 5}
	assert.Equal(t, map[dom.NodeId]float64{0: 1, 5: 3}, TransferStates(states, migration))

	merged := MergeStates(map[dom.NodeId]float64{5: 10, 6: 1}, states, migration, func(cur, old float64) float64 { return cur + old })
	assert.Equal(t, map[dom.NodeId]float64{0: 1, 5: 13, 6: 1}, merged)

	id, ok := MigrateNode(2, migration)
	assert.True(t, ok)
	assert.Equal(t, dom.NodeId(5), id)
	_, ok = MigrateNode(1, migration)
	assert.False(t, ok)
}

func TestChangeAccumulator_MergeDiff(t *testing.T) {
	old := dom.Flatten(dom.Body().WithChildren(dom.P().WithChild(dom.Text("a")), dom.Img("x", 1, 1)))
	cur := dom.Flatten(dom.Body().WithChildren(dom.P().WithChild(dom.Text("b")), dom.Img("y", 1, 1)))
	res := diff(old, cur)

	acc := NewChangeAccumulator()
	acc.MergeDiff(res, old, cur)
	assert.Equal(t, css.ScopeIfcOnly, acc.Scope(2))
	require.NotNil(t, acc.PerNode[2].Text)
	assert.Equal(t, TextChange{Old: "a", New: "b"}, *acc.PerNode[2].Text)
	assert.Equal(t, css.ScopeSizingOnly, acc.Scope(3))
	assert.Equal(t, css.ScopeSizingOnly, acc.MaxScope)
	assert.Equal(t, []dom.NodeId{2, 3}, acc.Dirty())
	assert.True(t, acc.NeedsLayout())
}

func TestChangeAccumulator_PaintOnly(t *testing.T) {
	acc := NewChangeAccumulator()
	assert.True(t, acc.IsEmpty())
	assert.True(t, acc.IsVisuallyUnchanged())

	acc.MergeRestyle([]style.PropertyChange{
		{Node: 1, Property: css.PropBackgroundColor},
		{Node: 1, Property: css.PropTextColor},
	}, func(dom.NodeId) bool { return false })
	assert.False(t, acc.NeedsLayout())
	assert.True(t, acc.NeedsPaintOnly())
	assert.Equal(t, []css.PropertyType{css.PropBackgroundColor, css.PropTextColor}, acc.PerNode[1].Properties)

	acc.MergeRestyle([]style.PropertyChange{{Node: 2, Property: css.PropFontSize}}, func(dom.NodeId) bool { return true })
	assert.Equal(t, css.ScopeIfcOnly, acc.MaxScope)
	assert.False(t, acc.NeedsPaintOnly())

	acc.AddMount(4)
	assert.Equal(t, css.ScopeFull, acc.MaxScope)
}

func TestResult_AttachBounds(t *testing.T) {
	old := dom.Flatten(dom.Body().WithChildren(
		dom.Div().WithKey("keep").WithClass("a").
			WithCallback(dom.ComponentFilter(dom.EventUpdate), noop, nil).
			WithCallback(dom.ComponentFilter(dom.EventResize), noop, nil),
	))
	cur := dom.Flatten(dom.Body().WithChildren(
		dom.Span().WithCallback(dom.ComponentFilter(dom.EventMount), noop, nil),
		dom.Div().WithKey("keep").WithClass("b").
			WithCallback(dom.ComponentFilter(dom.EventUpdate), noop, nil).
			WithCallback(dom.ComponentFilter(dom.EventResize), noop, nil),
	))
	res := NewReconciler(nil).Diff(3, old, cur, Layouts{Old: map[dom.NodeId]geom.Rect{1: {Width: 100, Height: 10}}}, epoch)

	var before []dom.EventType
	for _, e := range res.Events {
		before = append(before, e.Type)
	}
	assert.Equal(t, []dom.EventType{dom.EventMount, dom.EventUpdate}, before, "resizes wait for layout")

	bounds := map[dom.NodeId]geom.Rect{0: {Width: 200, Height: 40}, 1: {Width: 30, Height: 10}, 2: {Y: 10, Width: 200, Height: 30}}
	res.AttachBounds(cur, bounds)

	var after []dom.EventType
	for _, e := range res.Events {
		after = append(after, e.Type)
	}
	require.Equal(t, []dom.EventType{dom.EventMount, dom.EventUpdate, dom.EventResize}, after)
	assert.Equal(t, bounds[1], res.Events[0].CurrentBounds)
	assert.Equal(t, bounds[2], res.Events[1].CurrentBounds)
	resize := res.Events[2]
	assert.Equal(t, dom.DomNodeId{Dom: 3, Node: 2}, resize.Target)
	assert.Equal(t, geom.Rect{Width: 100, Height: 10}, resize.PreviousBounds)
	assert.Equal(t, bounds[2], resize.CurrentBounds)

	res.AttachBounds(cur, nil)
	assert.Len(t, res.Events, 3, "second call is a no-op")
}
