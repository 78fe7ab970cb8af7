package script

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"styledom/pkg/css"
	"styledom/pkg/dom"
	"styledom/pkg/geom"
	"styledom/pkg/task"
)

// fakeHost keeps timers in a pool driven by a manual clock.
type fakeHost struct {
	clock *task.ManualClock
	pool  *task.TimerPool
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		clock: task.NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		pool:  task.NewTimerPool(zap.NewNop()),
	}
}

func (f *fakeHost) Now() time.Time                                          { return f.clock.Now() }
func (f *fakeHost) AddTimer(t *task.Timer) task.TimerId                     { return f.pool.Add(t) }
func (f *fakeHost) RemoveTimer(id task.TimerId)                             { f.pool.Remove(id) }
func (f *fakeHost) StopThread(task.ThreadId)                                {}
func (f *fakeHost) StartThread(any, any, task.ThreadCallback) task.ThreadId { return 0 }

func (f *fakeHost) tick(t *testing.T, d time.Duration) task.Update {
	t.Helper()
	f.clock.Advance(d)
	return f.pool.RunExpired(f, f.Now(), f.Now())
}

// fakeInfo is the callback view of a node in a fixed DOM.
type fakeInfo struct {
	*fakeHost
	flat    *dom.FlatDom
	node    dom.NodeId
	event   dom.Event
	bounds  map[dom.NodeId]geom.Rect
	stopped bool
}

func (f *fakeInfo) HitNode() dom.NodeId            { return f.node }
func (f *fakeInfo) Event() dom.Event               { return f.event }
func (f *fakeInfo) IsSynthetic() bool              { return f.event.Source == dom.SourceSynthetic }
func (f *fakeInfo) UserData() any                  { return nil }
func (f *fakeInfo) Dom() *dom.FlatDom              { return f.flat }
func (f *fakeInfo) Hovered() []dom.NodeId          { return nil }
func (f *fakeInfo) Focused() (dom.NodeId, bool)    { return 0, false }
func (f *fakeInfo) SetFocus(dom.NodeId)            {}
func (f *fakeInfo) ClearFocus()                    {}
func (f *fakeInfo) CreateWindow(string, geom.Size) {}
func (f *fakeInfo) StopPropagation()               { f.stopped = true }
func (f *fakeInfo) NodeBounds(id dom.NodeId) (geom.Rect, bool) {
	b, ok := f.bounds[id]
	return b, ok
}
func (f *fakeInfo) ComputedProperty(dom.NodeId, css.PropertyType) (css.Value, bool) {
	return css.Value{}, false
}

var _ dom.CallbackInfo = (*fakeInfo)(nil)

func page() dom.Dom {
	return dom.Body().WithChildren(
		dom.Button().WithID("btn").WithClass("primary").WithChild(dom.Text("Go")),
		dom.P().WithID("out").WithChild(dom.Text("idle")),
	)
}

func click(t *testing.T, h *Host, code string, d dom.Dom) (task.Update, *fakeInfo) {
	t.Helper()
	cb, data, err := h.Handler("onclick", code)
	require.NoError(t, err)
	info := &fakeInfo{fakeHost: newFakeHost(), flat: dom.Flatten(d), node: 1, event: dom.Event{Type: dom.EventLeftMouseUp, Position: geom.Point{X: 3, Y: 4}}}
	return cb(data, info), info
}

func TestHost_TextPatch(t *testing.T) {
	h := New()
	u, _ := click(t, h, `document.getElementById("out").textContent = "clicked " + event.target.id`, page())
	assert.Equal(t, task.RegenerateStyledDomForCurrentWindow, u)

	out := h.Apply(page()).Children[1]
	require.Len(t, out.Children, 1)
	assert.Equal(t, "clicked btn", out.Children[0].Node.Text)
	assert.True(t, h.Patched())
}

func TestHost_ReadsWithoutWritesDoNothing(t *testing.T) {
	h := New()
	u, _ := click(t, h, `var s = document.getElementById("out").textContent + document.getElementById("btn").tagName`, page())
	assert.Equal(t, task.DoNothing, u)
	assert.Equal(t, "idleBUTTON", h.Get("s"))
	assert.False(t, h.Patched())
}

func TestHost_UnknownElementIsNull(t *testing.T) {
	h := New()
	_, _ = click(t, h, `var missing = document.getElementById("nope") === null`, page())
	assert.Equal(t, true, h.Get("missing"))
}

func TestHost_ClassList(t *testing.T) {
	h := New()
	_, _ = click(t, h, `
		var b = document.getElementById("btn");
		b.classList.add("active", "primary");
		var had = b.classList.toggle("primary");
		var n = b.classList.length;
		var first = b.classList[0];
	`, page())
	assert.Equal(t, false, h.Get("had"))
	assert.EqualValues(t, 1, h.Get("n"))
	assert.Equal(t, "active", h.Get("first"))
	assert.Equal(t, []string{"active"}, h.Apply(page()).Children[0].Node.Classes)
}

func TestHost_StylePatch(t *testing.T) {
	h := New()
	_, _ = click(t, h, `
		var s = document.getElementById("out").style;
		s.width = "40px";
		s.minHeight = "5px";
		s.minHeight = "";
		var text = s.cssText;
	`, page())
	assert.Equal(t, "width: 40px", h.Get("text"))

	out := h.Apply(page()).Children[1]
	require.Len(t, out.Node.InlineCSS, 1)
	assert.Equal(t, css.PropWidth, out.Node.InlineCSS[0].Property.Type)
}

func TestHost_Hidden(t *testing.T) {
	h := New()
	_, _ = click(t, h, `document.getElementById("btn").hidden = true`, page())
	btn := h.Apply(page()).Children[0]
	require.Len(t, btn.Node.InlineCSS, 1)
	assert.Equal(t, css.PropDisplay, btn.Node.InlineCSS[0].Property.Type)
}

func TestHost_EventObject(t *testing.T) {
	h := New()
	_, info := click(t, h, `var pos = event.x + "," + event.y + " " + event.type; event.stopPropagation()`, page())
	assert.Equal(t, "3,4 LeftMouseUp", h.Get("pos"))
	assert.True(t, info.stopped)
}

func TestHost_BoundingRect(t *testing.T) {
	h := New()
	cb, data, err := h.Handler("onclick", `var r = document.getElementById("out").getBoundingClientRect(); var w = r.width + "/" + r.bottom`)
	require.NoError(t, err)
	info := &fakeInfo{fakeHost: newFakeHost(), flat: dom.Flatten(page()), bounds: map[dom.NodeId]geom.Rect{3: {Y: 10, Width: 80, Height: 20}}}
	cb(data, info)
	assert.Equal(t, "80/30", h.Get("w"))
}

func TestHost_CompileError(t *testing.T) {
	_, _, err := New().Handler("onclick", `if (`)
	assert.ErrorIs(t, err, ErrCompile)
}

func TestHost_RuntimeErrorIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	h := New(WithLogger(zap.New(core)))
	u, _ := click(t, h, `undefinedFunction()`, page())
	assert.Equal(t, task.DoNothing, u)
	assert.Equal(t, 1, logs.FilterMessage("script error").Len())
}

func TestHost_RunAndConsole(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	h := New(WithLogger(zap.New(core)))
	err := h.Run(`console.log("hello", 1)`, `throw new Error("boom")`, `console.warn("after")`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "script 1")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "hello 1", entries[0].Message)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "script.console", entries[0].LoggerName)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
}

func TestHost_SetGlobal(t *testing.T) {
	h := New()
	require.NoError(t, h.Set("answer", 42))
	require.NoError(t, h.Run(`var doubled = answer * 2`))
	assert.EqualValues(t, 84, h.Get("doubled"))
	assert.Nil(t, h.Get("nothing"))
}

func TestHost_TimersWaitForBind(t *testing.T) {
	h := New()
	require.NoError(t, h.Run(`
		var ticks = 0;
		setTimeout(function () { document.getElementById("out").textContent = "late"; }, 100);
		var iv = setInterval(function () { ticks++; if (ticks === 3) clearInterval(iv); }, 10);
	`))
	assert.Equal(t, 2, h.Timers())

	host := newFakeHost()
	h.Bind(host)
	assert.Equal(t, 2, host.pool.Len())

	assert.Equal(t, task.DoNothing, host.tick(t, 10*time.Millisecond))
	host.tick(t, 10*time.Millisecond)
	host.tick(t, 10*time.Millisecond)
	assert.EqualValues(t, 3, h.Get("ticks"))
	assert.Equal(t, 1, host.pool.Len(), "cleared interval is removed")

	assert.Equal(t, task.RegenerateStyledDomForCurrentWindow, host.tick(t, 100*time.Millisecond))
	assert.Equal(t, 0, host.pool.Len())
	assert.Equal(t, 0, h.Timers())
	assert.Equal(t, "late", h.Apply(page()).Children[1].Children[0].Node.Text)
}

func TestHost_ClearBeforeBind(t *testing.T) {
	h := New()
	require.NoError(t, h.Run(`var id = setTimeout(function () {}, 5); clearTimeout(id);`))
	host := newFakeHost()
	h.Bind(host)
	assert.Equal(t, 0, host.pool.Len())
}

func TestHost_Reset(t *testing.T) {
	h := New()
	_, _ = click(t, h, `document.getElementById("out").textContent = "x"`, page())
	h.Reset()
	assert.False(t, h.Patched())
	assert.Equal(t, "idle", h.Apply(page()).Children[1].Children[0].Node.Text)
}
