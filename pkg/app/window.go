package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"styledom/pkg/css"
	"styledom/pkg/diff"
	"styledom/pkg/displaylist"
	"styledom/pkg/dom"
	"styledom/pkg/geom"
	"styledom/pkg/layout"
	"styledom/pkg/style"
	"styledom/pkg/task"
)

// WindowOptions describes a window to open.
type WindowOptions struct {
	Title string
	Size  geom.Size
	// Sink receives the display list of every frame that changed
	// something. Nil keeps the list on the window only.
	Sink displaylist.PaintSink
}

// LayoutInfo is what the layout function knows about the window it
// builds a page for.
type LayoutInfo struct {
	Window uuid.UUID
	Title  string
	Size   geom.Size
	Frame  uint64
}

// Page is a DOM and the stylesheet that styles it, as returned by the
// layout function.
type Page struct {
	Dom   *dom.FlatDom
	Sheet *css.Stylesheet
	// Errors are the rules dropped while parsing Sheet. They are logged
	// when the page is adopted.
	Errors []css.ParseError
}

// NewPage flattens d.
func NewPage(d dom.Dom, sheet *css.Stylesheet) Page {
	return Page{Dom: dom.Flatten(d), Sheet: sheet}
}

// NewPageCSS flattens d and parses its stylesheet. Sheets are compared by
// identity, so a layout function that parses its CSS on every call
// restyles every node each time it runs.
func NewPageCSS(d dom.Dom, cssText string) Page {
	sheet, errs := css.ParseStylesheet(cssText)
	return Page{Dom: dom.Flatten(d), Sheet: sheet, Errors: errs}
}

// LayoutFunc builds the page of a window from the application data.
type LayoutFunc func(userData any, info LayoutInfo) Page

// FrameStats describes what one frame did.
type FrameStats struct {
	Frame uint64
	// Skipped is set when nothing changed and the previous frame stands.
	Skipped bool
	// Regenerated is set when the layout function ran.
	Regenerated bool
	// Identical is set when the regenerated page equals the previous one.
	Identical bool
	Scope     css.RelayoutScope
	Layout    layout.Stats
	Events    int
	Update    task.Update
}

// Window runs the frame pipeline of one page: it regenerates the DOM when
// asked, diffs it against the previous one, restyles what changed, lays
// out the smallest part it can and hands the display list to the sink.
// Frame and the state setters are called from the frame loop; Dispatch
// may be called from any goroutine.
type Window struct {
	id    uuid.UUID
	domID dom.DomId
	title string
	app   *App
	log   *zap.Logger

	stack      *Stack
	reconciler *diff.Reconciler
	timers     *task.TimerPool
	threads    *task.ThreadPool
	sink       displaylist.PaintSink
	ledger     *Ledger

	size     geom.Size
	laidOut  geom.Size
	frame    uint64
	page     Page
	styled   *style.StyledDom
	tree     *layout.Tree
	list     *displaylist.List
	state    style.UIState
	scroll   map[dom.NodeId]geom.Point
	mouse    geom.Point
	repaint  bool
	generate bool
	closed   bool

	inboxMu sync.Mutex
	inbox   []dom.Event
	// transitions are hover and focus events waiting for dispatch.
	transitions []transition
}

func newWindow(a *App, domID dom.DomId, opts WindowOptions) (*Window, error) {
	id := uuid.New()
	ledger := NewLedger(a.cfg.Debug.MaxMessages)
	log := ledger.Attach(a.log.Named("window").With(zap.Stringer("window", id)))
	stack, err := NewStack(a.cfg, a.fonts, log)
	if err != nil {
		return nil, err
	}
	size := opts.Size
	if size.Width <= 0 || size.Height <= 0 {
		size = geom.Size{Width: a.cfg.Layout.ViewportWidth, Height: a.cfg.Layout.ViewportHeight}
	}
	w := &Window{
		id:         id,
		domID:      domID,
		title:      opts.Title,
		app:        a,
		log:        log,
		stack:      stack,
		reconciler: diff.NewReconciler(log),
		timers:     task.NewTimerPool(log.Named("timers")),
		threads:    task.NewThreadPool(log.Named("threads")),
		sink:       opts.Sink,
		ledger:     ledger,
		size:       size,
		state:      style.NewUIState(),
		scroll:     map[dom.NodeId]geom.Point{},
		generate:   true,
	}
	return w, nil
}

func (w *Window) ID() uuid.UUID                  { return w.id }
func (w *Window) DomID() dom.DomId               { return w.domID }
func (w *Window) Title() string                  { return w.title }
func (w *Window) Size() geom.Size                { return w.size }
func (w *Window) Page() Page                     { return w.page }
func (w *Window) Styled() *style.StyledDom       { return w.styled }
func (w *Window) Tree() *layout.Tree             { return w.tree }
func (w *Window) DisplayList() *displaylist.List { return w.list }
func (w *Window) Ledger() *Ledger                { return w.ledger }
func (w *Window) Timers() *task.TimerPool        { return w.timers }
func (w *Window) Threads() *task.ThreadPool      { return w.threads }
func (w *Window) Closed() bool                   { return w.closed }

// State returns the UI state the next frame will be styled with.
func (w *Window) State() style.UIState { return w.state.Clone() }

// ScrollOffset returns the scroll position of a scroll container.
func (w *Window) ScrollOffset(id dom.NodeId) geom.Point { return w.scroll[id] }

// Regenerate makes the next frame call the layout function.
func (w *Window) Regenerate() { w.generate = true }

// SetSize resizes the window. The next frame lays out for the new size
// and fires WindowResized.
func (w *Window) SetSize(size geom.Size) {
	if size == w.size {
		return
	}
	w.size = size
	w.Dispatch(dom.Event{Type: dom.EventWindowResized, WindowSize: size})
}

// Close marks the window closed; the app drops it after the frame.
func (w *Window) Close() { w.closed = true }

func (w *Window) info() LayoutInfo {
	return LayoutInfo{Window: w.id, Title: w.title, Size: w.size, Frame: w.frame}
}

// request applies an update returned by a callback, timer or thread.
func (w *Window) request(u task.Update) {
	switch u {
	case task.RegenerateStyledDomForCurrentWindow:
		w.generate = true
	case task.RegenerateStyledDomForAllWindows:
		w.app.regenerateAll()
	}
}

// Frame runs one frame at now:
//
//  1. queued input is dispatched, then due timers run and thread messages
//     are delivered;
//  2. if asked to, the layout function builds a new page, which is diffed
//     against the previous one and restyled incrementally;
//  3. hover, active and focus changes restyle the affected subtrees;
//  4. the accumulated changes select the relayout scope;
//  5. the display list goes to the sink and lifecycle events are
//     dispatched.
//
// Callback panics are recovered and recorded in the ledger.
func (w *Window) Frame(now time.Time) (stats FrameStats, err error) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("frame panicked", zap.Uint64("frame", w.frame), zap.Any("panic", r))
			err = fmt.Errorf("frame %d: %v", w.frame, r)
		}
	}()
	w.frame++
	stats.Frame = w.frame

	update := w.dispatchInput()
	update = update.Max(w.timers.RunExpired(w, now, now))
	update = update.Max(w.threads.Poll(w))
	w.request(update)
	stats.Update = update

	regenerate := w.generate || w.page.Dom == nil
	stateChanged := w.styled != nil && !w.styled.State.Equal(w.state)
	if !regenerate && !stateChanged && !w.repaint && w.size == w.laidOut && w.tree != nil {
		stats.Skipped = true
		return stats, nil
	}

	acc := diff.NewChangeAccumulator()
	old := w.page.Dom
	var res *diff.Result
	if regenerate {
		w.generate = false
		stats.Regenerated = true
		page := w.app.layout(w.app.userData, w.info())
		res = w.adopt(page, acc, now)
		stats.Identical = res == nil
	}
	var previous map[dom.NodeId]dom.NodeId
	if res != nil && !res.IsIdentity() {
		previous = res.Previous()
	}
	if w.styled != nil && !w.styled.State.Equal(w.state) {
		rs := w.stack.Resolver.Restyle(w.styled, w.state)
		acc.MergeRestyle(rs.Changes, w.ifcMember(previous))
	}

	inv := layout.InvalidationFrom(acc, res)
	stats.Scope = inv.MaxScope()
	w.tree = w.stack.Engine.Relayout(w.tree, w.styled, w.size, inv)
	w.laidOut = w.size
	stats.Layout = w.tree.Stats
	if res != nil {
		res.AttachBounds(w.page.Dom, w.tree.BoundsMap())
	}

	w.repaint = false
	w.list = displaylist.Build(w.tree, displaylist.WithScrollOffsets(w.scroll), displaylist.WithLogger(w.log))
	if w.sink != nil {
		if err := w.sink.Paint(w.list); err != nil {
			w.log.Warn("paint failed", zap.Error(err))
		}
	}

	if res != nil {
		u, n := w.dispatchLifecycle(old, res.Events)
		w.request(u)
		stats.Update = stats.Update.Max(u)
		stats.Events = n
	}
	w.log.Debug("frame",
		zap.Uint64("frame", w.frame),
		zap.Stringer("scope", stats.Scope),
		zap.Int("laid", stats.Layout.Laid),
		zap.Int("reused", stats.Layout.Reused))
	return stats, nil
}

// adopt makes page the current page. It returns nil when page has the same
// content as the current one, in which case only its callbacks are taken.
func (w *Window) adopt(page Page, acc *diff.ChangeAccumulator, now time.Time) *diff.Result {
	for _, e := range page.Errors {
		w.log.Warn("css rule dropped", zap.Error(e))
	}
	if page.Dom == nil {
		page.Dom = dom.NewFlatDom(dom.NewArena[dom.NodeData](0))
	}
	old := w.page
	if old.Dom != nil && old.Sheet == page.Sheet && sameDom(old.Dom, page.Dom) {
		w.page.Dom = page.Dom
		if w.styled != nil {
			w.styled.Dom = page.Dom
		}
		return nil
	}

	var oldBounds map[dom.NodeId]geom.Rect
	if w.tree != nil {
		oldBounds = w.tree.BoundsMap()
	}
	res := w.reconciler.Diff(w.domID, old.Dom, page.Dom, diff.Layouts{Old: oldBounds}, now)
	acc.MergeDiff(res, old.Dom, page.Dom)
	migration := res.Migration()
	w.state = migrateState(w.state, migration)
	w.scroll = diff.TransferStates(w.scroll, migration)

	var previous map[dom.NodeId]dom.NodeId
	if !res.IsIdentity() {
		previous = res.Previous()
	}
	if w.styled == nil || w.styled.SheetChanged(page.Sheet) {
		styled := w.stack.Resolver.Cascade(page.Dom, page.Sheet, w.state)
		if w.styled != nil {
			acc.MergeRestyle(styleChanges(w.styled, styled, res.Moves), w.ifcMember(previous))
		}
		w.styled = styled
	} else {
		prev := *w.styled
		prev.State = migrateState(w.styled.State, migration)
		rc := w.stack.Resolver.Recascade(&prev, page.Dom, res.Previous())
		acc.MergeRestyle(rc.Changes, w.ifcMember(previous))
		w.styled = rc.Styled
	}
	w.page = page
	return res
}

func sameDom(a, b *dom.FlatDom) bool {
	if a == b {
		return true
	}
	return a.Len() == b.Len() && a.Hash() == b.Hash()
}

// styleChanges compares the styles of matched nodes after a full cascade.
func styleChanges(old, cur *style.StyledDom, moves []diff.NodeMove) []style.PropertyChange {
	var out []style.PropertyChange
	for _, mv := range moves {
		o, c := old.Style(mv.Old), cur.Style(mv.New)
		if o == nil || c == nil {
			continue
		}
		out = append(out, style.DiffStyles(mv.New, o, c)...)
	}
	return out
}

// ifcMember answers IFC membership of new node ids from the previous tree.
func (w *Window) ifcMember(previous map[dom.NodeId]dom.NodeId) func(dom.NodeId) bool {
	tree := w.tree
	return func(id dom.NodeId) bool {
		if tree == nil {
			return false
		}
		if previous != nil {
			old, ok := previous[id]
			if !ok {
				return false
			}
			id = old
		}
		return tree.IsIfcMember(id)
	}
}

func migrateState(s style.UIState, migration map[dom.NodeId]dom.NodeId) style.UIState {
	out := s.Clone()
	out.Hovered = diff.TransferStates(s.Hovered, migration)
	if s.HasFocus {
		out.Focused, out.HasFocus = diff.MigrateNode(s.Focused, migration)
	}
	return out
}

// Now implements task.Host.
func (w *Window) Now() time.Time { return w.app.clock.Now() }

// AddTimer registers a timer driven by this window's frames.
func (w *Window) AddTimer(t *task.Timer) task.TimerId { return w.timers.Add(t) }

func (w *Window) RemoveTimer(id task.TimerId) { w.timers.Remove(id) }

// StartThread runs cb on its own goroutine. Messages it sends back are
// delivered on the next frames.
func (w *Window) StartThread(data, writebackData any, cb task.ThreadCallback) task.ThreadId {
	return w.threads.Start(data, writebackData, cb)
}

func (w *Window) StopThread(id task.ThreadId) { w.threads.Stop(id) }

// shutdown terminates the window's threads and waits for them.
func (w *Window) shutdown(ctx context.Context) error {
	if err := w.threads.Shutdown(ctx); err != nil {
		return fmt.Errorf("window %s: %w", w.id, err)
	}
	return nil
}

var _ task.Host = (*Window)(nil)
