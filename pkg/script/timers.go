package script

import (
	"math"
	"time"

	"github.com/dop251/goja"

	"styledom/pkg/task"
)

// jsTimer is a setTimeout or setInterval registration.
type jsTimer struct {
	id     int64
	fn     goja.Callable
	delay  time.Duration
	repeat bool
	// installed is the task timer once the timer reached a host.
	installed task.TimerId
	host      task.Host
}

// timerTable maps script timer ids to task timers. Timers created before
// any host is known wait in pending.
type timerTable struct {
	next    int64
	live    map[int64]*jsTimer
	pending []*jsTimer
}

func newTimerTable() *timerTable {
	return &timerTable{live: map[int64]*jsTimer{}}
}

func (h *Host) registerTimers() {
	_ = h.vm.Set("setTimeout", func(call goja.FunctionCall) goja.Value { return h.setTimer(call, false) })
	_ = h.vm.Set("setInterval", func(call goja.FunctionCall) goja.Value { return h.setTimer(call, true) })
	clearFn := func(call goja.FunctionCall) goja.Value {
		h.clearTimer(call.Argument(0).ToInteger())
		return goja.Undefined()
	}
	_ = h.vm.Set("clearTimeout", clearFn)
	_ = h.vm.Set("clearInterval", clearFn)
}

func (h *Host) setTimer(call goja.FunctionCall, repeat bool) goja.Value {
	fn, ok := goja.AssertFunction(call.Argument(0))
	if !ok {
		panic(h.vm.NewTypeError("timer callback is not a function"))
	}
	ms := call.Argument(1).ToFloat()
	if math.IsNaN(ms) || ms < 0 {
		ms = 0
	}
	t := h.timers
	t.next++
	jt := &jsTimer{id: t.next, fn: fn, delay: time.Duration(ms * float64(time.Millisecond)), repeat: repeat}
	t.live[jt.id] = jt

	host := h.host
	if host == nil {
		host = h.bound
	}
	if host == nil {
		t.pending = append(t.pending, jt)
	} else {
		h.installTimer(jt, host)
	}
	return h.vm.ToValue(jt.id)
}

func (h *Host) clearTimer(id int64) {
	t := h.timers
	jt, ok := t.live[id]
	if !ok {
		return
	}
	delete(t.live, id)
	if jt.host != nil {
		jt.host.RemoveTimer(jt.installed)
	}
}

// install moves pending timers to host.
func (t *timerTable) install(h *Host, host task.Host) {
	pending := t.pending
	t.pending = nil
	for _, jt := range pending {
		if _, ok := t.live[jt.id]; ok {
			h.installTimer(jt, host)
		}
	}
}

func (h *Host) installTimer(jt *jsTimer, host task.Host) {
	timer := task.NewTimer(host, nil, func(_ any, info *task.TimerCallbackInfo) task.TimerCallbackReturn {
		err := h.enter(info.Host, nil, func() error {
			_, err := jt.fn(goja.Undefined())
			return err
		})
		res := task.TimerCallbackReturn{ShouldUpdate: h.update(err), ShouldTerminate: task.Continue}
		if !jt.repeat {
			res.ShouldTerminate = task.Terminate
			delete(h.timers.live, jt.id)
		}
		return res
	})
	if jt.repeat {
		timer = timer.WithInterval(max(jt.delay, time.Millisecond))
	} else {
		timer = timer.WithDelay(jt.delay)
	}
	jt.host = host
	jt.installed = host.AddTimer(timer)
}

// Timers returns the number of active script timers.
func (h *Host) Timers() int { return len(h.timers.live) }
