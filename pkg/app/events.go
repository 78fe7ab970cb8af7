package app

import (
	"maps"
	"slices"
	"time"

	"go.uber.org/zap"

	"styledom/pkg/css"
	"styledom/pkg/diff"
	"styledom/pkg/displaylist"
	"styledom/pkg/dom"
	"styledom/pkg/geom"
	"styledom/pkg/task"
)

// transition is a hover or focus change of one node.
type transition struct {
	node  dom.NodeId
	event dom.EventType
}

// Dispatch queues an input event for the next frame. It is safe to call
// from any goroutine; a WindowResized event carrying a size resizes the
// window.
func (w *Window) Dispatch(ev dom.Event) {
	w.inboxMu.Lock()
	w.inbox = append(w.inbox, ev)
	w.inboxMu.Unlock()
}

// SetHover hovers id and its ancestors, as if the cursor had moved over
// it. MouseEnter and MouseLeave fire on the next frame.
func (w *Window) SetHover(id dom.NodeId) {
	w.setHovered(w.hoverPath(id))
}

// ClearHover hovers nothing.
func (w *Window) ClearHover() { w.setHovered(nil) }

// SetActive sets whether the primary button is held over the hovered
// nodes.
func (w *Window) SetActive(active bool) { w.state.Active = active }

// SetFocus moves the keyboard focus to id.
func (w *Window) SetFocus(id dom.NodeId) {
	if w.state.IsFocused(id) {
		return
	}
	if w.state.HasFocus {
		w.transitions = append(w.transitions, transition{w.state.Focused, dom.EventFocusLost})
	}
	w.state = w.state.WithFocus(id)
	w.transitions = append(w.transitions, transition{id, dom.EventFocusReceived})
}

// ClearFocus removes the keyboard focus.
func (w *Window) ClearFocus() {
	if !w.state.HasFocus {
		return
	}
	w.transitions = append(w.transitions, transition{w.state.Focused, dom.EventFocusLost})
	w.state.HasFocus = false
}

// Focused returns the focused node.
func (w *Window) Focused() (dom.NodeId, bool) { return w.state.Focused, w.state.HasFocus }

// Hovered returns the hovered nodes in document order.
func (w *Window) Hovered() []dom.NodeId {
	return slices.Sorted(maps.Keys(w.state.Hovered))
}

// hoverPath is id and its ancestors, innermost first.
func (w *Window) hoverPath(id dom.NodeId) []dom.NodeId {
	d := w.page.Dom
	if d == nil || int(id) < 0 || int(id) >= d.Len() {
		return nil
	}
	path := []dom.NodeId{id}
	for a := range d.Ancestors(id) {
		if a != id {
			path = append(path, a)
		}
	}
	return path
}

func (w *Window) setHovered(ids []dom.NodeId) {
	next := make(map[dom.NodeId]bool, len(ids))
	for _, id := range ids {
		next[id] = true
	}
	for _, id := range w.Hovered() {
		if !next[id] {
			w.transitions = append(w.transitions, transition{id, dom.EventMouseLeave})
		}
	}
	for _, id := range slices.Sorted(maps.Keys(next)) {
		if !w.state.Hovered[id] {
			w.transitions = append(w.transitions, transition{id, dom.EventMouseEnter})
		}
	}
	w.state.Hovered = next
}

// ScrollBy scrolls a scroll container, clamped to its content.
func (w *Window) ScrollBy(id dom.NodeId, delta geom.Point) bool {
	if w.tree == nil {
		return false
	}
	n, ok := w.tree.NodeOf(id)
	cs := w.styled.Style(id)
	if !ok || cs == nil || !displaylist.IsScrollContainer(cs) {
		return false
	}
	box := n.Rect.ShrunkBy(n.Border)
	maxX := max(0, n.Overflow.Right()-box.Right())
	maxY := max(0, n.Overflow.Bottom()-box.Bottom())
	cur := w.scroll[id]
	next := geom.Point{X: clamp(cur.X+delta.X, 0, maxX), Y: clamp(cur.Y+delta.Y, 0, maxY)}
	if next == cur {
		return false
	}
	w.scroll[id] = next
	w.repaint = true
	return true
}

func clamp(v, lo, hi float64) float64 { return max(lo, min(v, hi)) }

// dispatchInput delivers the queued events. Each event reaches window
// callbacks first, then the hover and focus transitions it caused, then
// hover, focus and Not callbacks on nodes in document order.
func (w *Window) dispatchInput() task.Update {
	w.inboxMu.Lock()
	events := w.inbox
	w.inbox = nil
	w.inboxMu.Unlock()

	update := w.flushTransitions()
	for _, ev := range events {
		update = update.Max(w.deliver(ev))
	}
	return update
}

func (w *Window) deliver(ev dom.Event) task.Update {
	update := task.DoNothing
	nodes := w.nodes()

	calls := w.collect(nodes, func(_ dom.NodeId, n *dom.NodeData) []dom.CallbackEntry {
		return n.CallbacksFor(dom.WindowFilter(ev.Type))
	})
	update = update.Max(w.run(calls, ev))

	hit := w.hit(ev)
	if ev.Source != dom.SourceSynthetic {
		w.track(ev, hit)
	}
	update = update.Max(w.flushTransitions())

	over := make(map[dom.NodeId]bool, len(hit))
	for _, id := range hit {
		over[id] = true
	}
	focused, hasFocus := w.Focused()
	calls = w.collect(nodes, func(id dom.NodeId, n *dom.NodeData) []dom.CallbackEntry {
		var out []dom.CallbackEntry
		if over[id] {
			out = append(out, n.CallbacksFor(dom.HoverFilter(ev.Type))...)
		} else {
			out = append(out, n.CallbacksFor(dom.NotFilter(ev.Type))...)
		}
		if hasFocus && focused == id {
			out = append(out, n.CallbacksFor(dom.FocusFilter(ev.Type))...)
		}
		return out
	})
	update = update.Max(w.run(calls, ev))

	switch ev.Type {
	case dom.EventScroll:
		for _, id := range hit {
			if w.ScrollBy(id, ev.ScrollDelta) {
				break
			}
		}
	case dom.EventWindowResized:
		if ev.WindowSize.Width > 0 && ev.WindowSize.Height > 0 {
			w.size = ev.WindowSize
		}
	case dom.EventWindowClose:
		w.Close()
	}
	return update
}

// hit returns the nodes under the event position, innermost first. Events
// without a position use the hovered nodes.
func (w *Window) hit(ev dom.Event) []dom.NodeId {
	switch ev.Type {
	case dom.EventMouseOver, dom.EventMouseDown, dom.EventLeftMouseDown, dom.EventRightMouseDown,
		dom.EventMouseUp, dom.EventLeftMouseUp, dom.EventRightMouseUp, dom.EventScroll:
		if w.tree == nil {
			return nil
		}
		return w.tree.HitTest(ev.Position)
	}
	hovered := w.Hovered()
	slices.Reverse(hovered)
	return hovered
}

// track moves the mouse state for user input.
func (w *Window) track(ev dom.Event, hit []dom.NodeId) {
	switch ev.Type {
	case dom.EventMouseOver:
		w.mouse = ev.Position
		w.setHovered(hit)
	case dom.EventMouseDown, dom.EventLeftMouseDown:
		w.mouse = ev.Position
		w.setHovered(hit)
		w.state.Active = true
		if id, ok := w.focusTarget(hit); ok {
			w.SetFocus(id)
		}
	case dom.EventMouseUp, dom.EventLeftMouseUp:
		w.state.Active = false
	}
}

// focusTarget is the innermost hit node listening for focus events.
func (w *Window) focusTarget(hit []dom.NodeId) (dom.NodeId, bool) {
	for _, id := range hit {
		n := w.page.Dom.Ptr(id)
		for _, cb := range n.Callbacks {
			if cb.Filter.Scope == dom.ScopeFocus {
				return id, true
			}
		}
	}
	return 0, false
}

// flushTransitions dispatches pending MouseEnter, MouseLeave, FocusReceived
// and FocusLost events. Callbacks may cause further transitions; those are
// dispatched in the same pass.
func (w *Window) flushTransitions() task.Update {
	update := task.DoNothing
	for i := 0; len(w.transitions) > 0 && i < maxTransitionRounds; i++ {
		pending := w.transitions
		w.transitions = nil
		for _, t := range pending {
			if w.page.Dom == nil || int(t.node) >= w.page.Dom.Len() {
				continue
			}
			filter := dom.HoverFilter(t.event)
			if t.event == dom.EventFocusReceived || t.event == dom.EventFocusLost {
				filter = dom.FocusFilter(t.event)
			}
			n := w.page.Dom.Ptr(t.node)
			var calls []call
			for _, cb := range n.CallbacksFor(filter) {
				calls = append(calls, call{t.node, cb})
			}
			update = update.Max(w.run(calls, dom.Event{Type: t.event, Source: dom.SourceUser, Position: w.mouse}))
		}
	}
	w.transitions = nil
	return update
}

// maxTransitionRounds bounds focus ping-pong between callbacks.
const maxTransitionRounds = 8

// dispatchLifecycle runs Mount, Unmount, Update and Resize callbacks in
// the order the diff emitted the events. Unmount targets are nodes of the
// previous DOM and run the callbacks registered there.
func (w *Window) dispatchLifecycle(old *dom.FlatDom, events []diff.LifecycleEvent) (task.Update, int) {
	update := task.DoNothing
	n := 0
	for _, e := range events {
		d := w.page.Dom
		if e.Type == dom.EventUnmount {
			d = old
		}
		if d == nil || int(e.Target.Node) >= d.Len() {
			continue
		}
		var calls []call
		for _, cb := range d.Ptr(e.Target.Node).CallbacksFor(dom.ComponentFilter(e.Type)) {
			calls = append(calls, call{e.Target.Node, cb})
		}
		ev := dom.Event{Type: e.Type, OldBounds: e.PreviousBounds, NewBounds: e.CurrentBounds}
		update = update.Max(w.run(calls, ev))
		n += len(calls)
	}
	return update, n
}

type call struct {
	node dom.NodeId
	cb   dom.CallbackEntry
}

func (w *Window) nodes() []dom.NodeData {
	if w.page.Dom == nil || w.page.Dom.Arena == nil {
		return nil
	}
	return w.page.Dom.Data()
}

// collect gathers callbacks in document order.
func (w *Window) collect(nodes []dom.NodeData, pick func(dom.NodeId, *dom.NodeData) []dom.CallbackEntry) []call {
	var out []call
	for i := range nodes {
		if len(nodes[i].Callbacks) == 0 {
			continue
		}
		for _, cb := range pick(dom.NodeId(i), &nodes[i]) {
			out = append(out, call{dom.NodeId(i), cb})
		}
	}
	return out
}

// run invokes calls in order until one stops propagation.
func (w *Window) run(calls []call, ev dom.Event) task.Update {
	update := task.DoNothing
	for _, c := range calls {
		u, stop := w.invoke(c, ev)
		update = update.Max(u)
		if stop {
			break
		}
	}
	return update
}

func (w *Window) invoke(c call, ev dom.Event) (u task.Update, stop bool) {
	info := &callbackInfo{w: w, node: c.node, event: ev}
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("callback panicked",
				zap.Int("node", int(c.node)),
				zap.Stringer("event", ev.Type),
				zap.Any("panic", r))
			u, stop = task.DoNothing, false
		}
	}()
	if c.cb.Callback == nil {
		return task.DoNothing, false
	}
	u = c.cb.Callback(c.cb.Data, info)
	return u, info.stopped
}

// callbackInfo is the view a callback gets of its window.
type callbackInfo struct {
	w       *Window
	node    dom.NodeId
	event   dom.Event
	stopped bool
}

var _ dom.CallbackInfo = (*callbackInfo)(nil)

func (c *callbackInfo) Now() time.Time                      { return c.w.Now() }
func (c *callbackInfo) AddTimer(t *task.Timer) task.TimerId { return c.w.AddTimer(t) }
func (c *callbackInfo) RemoveTimer(id task.TimerId)         { c.w.RemoveTimer(id) }
func (c *callbackInfo) StopThread(id task.ThreadId)         { c.w.StopThread(id) }

func (c *callbackInfo) StartThread(data, writebackData any, cb task.ThreadCallback) task.ThreadId {
	return c.w.StartThread(data, writebackData, cb)
}

func (c *callbackInfo) HitNode() dom.NodeId    { return c.node }
func (c *callbackInfo) Event() dom.Event       { return c.event }
func (c *callbackInfo) IsSynthetic() bool      { return c.event.Source == dom.SourceSynthetic }
func (c *callbackInfo) UserData() any          { return c.w.app.userData }
func (c *callbackInfo) Dom() *dom.FlatDom      { return c.w.page.Dom }
func (c *callbackInfo) Hovered() []dom.NodeId  { return c.w.Hovered() }
func (c *callbackInfo) SetFocus(id dom.NodeId) { c.w.SetFocus(id) }
func (c *callbackInfo) ClearFocus()            { c.w.ClearFocus() }
func (c *callbackInfo) StopPropagation()       { c.stopped = true }

func (c *callbackInfo) Focused() (dom.NodeId, bool) { return c.w.Focused() }

func (c *callbackInfo) NodeBounds(id dom.NodeId) (geom.Rect, bool) {
	if c.w.tree == nil {
		return geom.Rect{}, false
	}
	return c.w.tree.Bounds(id)
}

func (c *callbackInfo) ComputedProperty(id dom.NodeId, p css.PropertyType) (css.Value, bool) {
	if c.w.styled == nil {
		return css.Value{}, false
	}
	cs := c.w.styled.Style(id)
	if cs == nil {
		return css.Value{}, false
	}
	return cs.Value(p)
}

func (c *callbackInfo) CreateWindow(title string, size geom.Size) {
	c.w.app.queueWindow(WindowOptions{Title: title, Size: size})
}
