package task

import (
	"slices"
	"time"

	"go.uber.org/zap"
)

// TerminateTimer tells the pool whether to keep a timer.
type TerminateTimer uint8

const (
	Continue TerminateTimer = iota
	Terminate
)

// TimerCallbackReturn is what a timer callback hands back to the pool.
type TimerCallbackReturn struct {
	ShouldUpdate    Update
	ShouldTerminate TerminateTimer
}

// TimerCallbackInfo is passed to every timer invocation.
type TimerCallbackInfo struct {
	Host       Host
	FrameStart time.Time
	// CallCount is the number of completed runs before this one.
	CallCount int
	// IsAboutToFinish is true on the last run before the timeout.
	IsAboutToFinish bool
}

type TimerCallback func(data any, info *TimerCallbackInfo) TimerCallbackReturn

// Timer runs a callback from the frame loop. Delay, Interval and Timeout
// are optional; zero means unset.
type Timer struct {
	Data     any
	Created  time.Time
	LastRun  time.Time
	RunCount int
	Delay    time.Duration
	Interval time.Duration
	Timeout  time.Duration
	Callback TimerCallback
}

// NewTimer creates a timer stamped with the clock's current time.
func NewTimer(clock Clock, data any, cb TimerCallback) *Timer {
	return &Timer{Data: data, Created: clock.Now(), Callback: cb}
}

// WithDelay postpones the first run.
func (t *Timer) WithDelay(d time.Duration) *Timer {
	t.Delay = d
	return t
}

// WithInterval runs the callback at most once per d.
func (t *Timer) WithInterval(d time.Duration) *Timer {
	t.Interval = d
	return t
}

// WithTimeout stops the timer d after its creation.
func (t *Timer) WithTimeout(d time.Duration) *Timer {
	t.Timeout = d
	return t
}

// InstantOfNextRun returns when the timer wants to run again.
func (t *Timer) InstantOfNextRun() time.Time {
	last := t.LastRun
	if last.IsZero() {
		last = t.Created
	}
	return last.Add(t.Delay).Add(t.Interval)
}

// IsAboutToFinish reports whether the timeout has elapsed at now.
func (t *Timer) IsAboutToFinish(now time.Time) bool {
	return t.Timeout > 0 && now.Sub(t.Created) > t.Timeout
}

// Invoke runs the callback if the interval since the last run (or since
// creation plus delay) has elapsed. Otherwise it returns DoNothing and
// Continue without touching the timer.
func (t *Timer) Invoke(host Host, frameStart, now time.Time) TimerCallbackReturn {
	if t.Interval > 0 {
		last := t.LastRun
		if last.IsZero() {
			last = t.Created.Add(t.Delay)
		}
		if now.Sub(last) < t.Interval {
			return TimerCallbackReturn{ShouldUpdate: DoNothing, ShouldTerminate: Continue}
		}
	}

	finish := t.IsAboutToFinish(now)
	info := &TimerCallbackInfo{
		Host:            host,
		FrameStart:      frameStart,
		CallCount:       t.RunCount,
		IsAboutToFinish: finish,
	}
	res := TimerCallbackReturn{}
	if t.Callback != nil {
		res = t.Callback(t.Data, info)
	}
	if finish {
		res.ShouldTerminate = Terminate
	}
	t.LastRun = now
	t.RunCount++
	return res
}

// TimerPool owns the timers of one window.
type TimerPool struct {
	timers map[TimerId]*Timer
	log    *zap.Logger
}

// NewTimerPool returns an empty pool.
func NewTimerPool(log *zap.Logger) *TimerPool {
	if log == nil {
		log = zap.NewNop()
	}
	return &TimerPool{timers: make(map[TimerId]*Timer), log: log}
}

// Add registers t and returns its id.
func (p *TimerPool) Add(t *Timer) TimerId {
	id := NewTimerId()
	p.timers[id] = t
	p.log.Debug("timer added", zap.Uint64("timer", uint64(id)), zap.Duration("interval", t.Interval))
	return id
}

// Remove drops a timer. Unknown ids are ignored.
func (p *TimerPool) Remove(id TimerId) {
	delete(p.timers, id)
}

func (p *TimerPool) Len() int { return len(p.timers) }

// Get returns the timer with the given id.
func (p *TimerPool) Get(id TimerId) (*Timer, bool) {
	t, ok := p.timers[id]
	return t, ok
}

// IDs returns the registered ids in creation order.
func (p *TimerPool) IDs() []TimerId {
	ids := make([]TimerId, 0, len(p.timers))
	for id := range p.timers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// NextRun returns the earliest InstantOfNextRun of all timers.
func (p *TimerPool) NextRun() (time.Time, bool) {
	var next time.Time
	found := false
	for _, t := range p.timers {
		at := t.InstantOfNextRun()
		if !found || at.Before(next) {
			next, found = at, true
		}
	}
	return next, found
}

// RunExpired invokes every timer whose next run is due at frameStart, in
// id order, and removes the ones that ask to terminate. The returned
// Update is the strongest one requested.
func (p *TimerPool) RunExpired(host Host, frameStart, now time.Time) Update {
	update := DoNothing
	for _, id := range p.IDs() {
		t, ok := p.timers[id]
		if !ok {
			// A previous callback removed it.
			continue
		}
		if frameStart.Before(t.InstantOfNextRun()) {
			continue
		}
		res := t.Invoke(host, frameStart, now)
		update = update.Max(res.ShouldUpdate)
		if res.ShouldTerminate == Terminate {
			p.log.Debug("timer terminated", zap.Uint64("timer", uint64(id)), zap.Int("runs", t.RunCount))
			delete(p.timers, id)
		}
	}
	return update
}
