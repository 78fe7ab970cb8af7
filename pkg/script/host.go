// Package script runs page JavaScript with goja. Scripts do not own the
// DOM: the application rebuilds it every time a window regenerates.
// Element writes are recorded as patches keyed by element id, and Apply
// replays them on each freshly built tree. A callback or timer that
// changed a patch asks for regeneration.
//
// A Host is not safe for concurrent use; it runs on the frame loop.
package script

import (
	"errors"
	"fmt"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"styledom/pkg/dom"
	"styledom/pkg/task"
)

var ErrCompile = errors.New("script does not compile")

// Option configures a Host.
type Option func(*Host)

func WithLogger(l *zap.Logger) Option {
	return func(h *Host) { h.log = l.Named("script") }
}

// Host is one JavaScript realm bound to a window.
type Host struct {
	vm  *goja.Runtime
	log *zap.Logger

	patches map[string]*patch
	dirty   bool
	// flat is the DOM the last callback saw; element lookups use it.
	flat *dom.FlatDom
	// host and info are set while a callback or timer runs.
	host  task.Host
	info  dom.CallbackInfo
	bound task.Host

	elements map[string]goja.Value
	timers   *timerTable
}

// New returns a host with the console, document and timer globals
// installed.
func New(opts ...Option) *Host {
	h := &Host{
		vm:       goja.New(),
		log:      zap.NewNop(),
		patches:  map[string]*patch{},
		elements: map[string]goja.Value{},
		timers:   newTimerTable(),
	}
	for _, o := range opts {
		o(h)
	}
	h.vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))
	registerConsole(h.vm, h.log)
	h.registerDocument()
	h.registerTimers()
	return h
}

// Set exposes a Go value to scripts as a global.
func (h *Host) Set(name string, v any) error {
	return h.vm.Set(name, v)
}

// Get returns a global as a Go value, nil when unset.
func (h *Host) Get(name string) any {
	v := h.vm.Get(name)
	if v == nil {
		return nil
	}
	return v.Export()
}

// Bind makes host the target of timers created outside of callbacks.
// Timers created before Bind are installed now.
func (h *Host) Bind(host task.Host) {
	h.bound = host
	h.timers.install(h, host)
}

// Run executes scripts in order. A failing script does not stop later
// ones; their errors are joined.
func (h *Host) Run(scripts ...string) error {
	var errs []error
	for i, src := range scripts {
		err := h.enter(h.bound, nil, func() error {
			_, err := h.vm.RunScript(fmt.Sprintf("script%d.js", i), src)
			return err
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("script %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// Handler compiles an inline event attribute into a callback. It matches
// markup.Handler.
func (h *Host) Handler(attr, code string) (dom.Callback, any, error) {
	prg, err := goja.Compile(attr, code, false)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", ErrCompile, attr, err)
	}
	return h.callback, prg, nil
}

// Callback wraps a JavaScript function for use with dom.WithCallback.
func (h *Host) Callback(fn goja.Callable) dom.Callback {
	return func(_ any, info dom.CallbackInfo) task.Update {
		return h.update(h.enter(info, info, func() error {
			_, err := fn(goja.Undefined(), h.eventObject(info))
			return err
		}))
	}
}

func (h *Host) callback(data any, info dom.CallbackInfo) task.Update {
	prg, ok := data.(*goja.Program)
	if !ok {
		h.log.Warn("callback data is not a script", zap.String("type", fmt.Sprintf("%T", data)))
		return task.DoNothing
	}
	return h.update(h.enter(info, info, func() error {
		if err := h.vm.Set("event", h.eventObject(info)); err != nil {
			return err
		}
		_, err := h.vm.RunProgram(prg)
		return err
	}))
}

// enter runs fn with host and info current. dirty is reset first so the
// caller can tell whether fn wrote a patch.
func (h *Host) enter(host task.Host, info dom.CallbackInfo, fn func() error) error {
	prevHost, prevInfo := h.host, h.info
	h.host, h.info = host, info
	if info != nil {
		h.flat = info.Dom()
	}
	h.dirty = false
	defer func() { h.host, h.info = prevHost, prevInfo }()
	return fn()
}

// update logs a script error and turns the dirty flag into an update.
func (h *Host) update(err error) task.Update {
	if err != nil {
		var ex *goja.Exception
		if errors.As(err, &ex) {
			h.log.Warn("script error", zap.String("exception", ex.Value().String()))
		} else {
			h.log.Warn("script error", zap.Error(err))
		}
	}
	if h.dirty {
		return task.RegenerateStyledDomForCurrentWindow
	}
	return task.DoNothing
}

func (h *Host) eventObject(info dom.CallbackInfo) *goja.Object {
	ev := info.Event()
	obj := h.vm.NewObject()
	_ = obj.Set("type", ev.Type.String())
	_ = obj.Set("x", ev.Position.X)
	_ = obj.Set("y", ev.Position.Y)
	_ = obj.Set("deltaX", ev.ScrollDelta.X)
	_ = obj.Set("deltaY", ev.ScrollDelta.Y)
	_ = obj.Set("isTrusted", !info.IsSynthetic())
	if ev.Key != 0 {
		_ = obj.Set("key", string(ev.Key))
	}
	if ev.Text != "" {
		_ = obj.Set("data", ev.Text)
	}
	if d := info.Dom(); d != nil {
		if id := info.HitNode(); int(id) < d.Len() {
			if ids := d.Ptr(id).IDs; len(ids) > 0 {
				_ = obj.Set("target", h.element(ids[0]))
			}
		}
	}
	_ = obj.Set("stopPropagation", func(goja.FunctionCall) goja.Value {
		info.StopPropagation()
		return goja.Undefined()
	})
	return obj
}
