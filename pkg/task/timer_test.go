package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func countingTimer(clock Clock, calls *int, ret TimerCallbackReturn) *Timer {
	return NewTimer(clock, nil, func(_ any, _ *TimerCallbackInfo) TimerCallbackReturn {
		*calls++
		return ret
	})
}

func TestTimer_IntervalGating(t *testing.T) {
	clock := NewManualClock(epoch)
	calls := 0
	timer := countingTimer(clock, &calls, TimerCallbackReturn{}).WithInterval(16 * time.Millisecond)

	now := clock.Advance(16 * time.Millisecond)
	timer.Invoke(nil, now, now)
	now = clock.Advance(10 * time.Millisecond)
	timer.Invoke(nil, now, now)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, timer.RunCount)

	now = clock.Advance(6 * time.Millisecond)
	timer.Invoke(nil, now, now)
	assert.Equal(t, 2, calls)
}

func TestTimer_DelayShiftsFirstRun(t *testing.T) {
	clock := NewManualClock(epoch)
	calls := 0
	timer := countingTimer(clock, &calls, TimerCallbackReturn{}).
		WithDelay(100 * time.Millisecond).
		WithInterval(10 * time.Millisecond)

	now := clock.Advance(50 * time.Millisecond)
	timer.Invoke(nil, now, now)
	assert.Equal(t, 0, calls)

	now = clock.Advance(60 * time.Millisecond)
	timer.Invoke(nil, now, now)
	assert.Equal(t, 1, calls)
}

func TestTimer_InstantOfNextRun(t *testing.T) {
	clock := NewManualClock(epoch)
	timer := NewTimer(clock, nil, nil).WithDelay(5 * time.Millisecond).WithInterval(20 * time.Millisecond)
	assert.Equal(t, epoch.Add(25*time.Millisecond), timer.InstantOfNextRun())

	timer.LastRun = epoch.Add(40 * time.Millisecond)
	assert.Equal(t, epoch.Add(65*time.Millisecond), timer.InstantOfNextRun())
}

func TestTimer_TimeoutForcesTermination(t *testing.T) {
	clock := NewManualClock(epoch)
	var finishing []bool
	timer := NewTimer(clock, nil, func(_ any, info *TimerCallbackInfo) TimerCallbackReturn {
		finishing = append(finishing, info.IsAboutToFinish)
		return TimerCallbackReturn{}
	}).WithTimeout(30 * time.Millisecond)

	now := clock.Advance(10 * time.Millisecond)
	assert.Equal(t, Continue, timer.Invoke(nil, now, now).ShouldTerminate)
	now = clock.Advance(25 * time.Millisecond)
	assert.Equal(t, Terminate, timer.Invoke(nil, now, now).ShouldTerminate)
	assert.Equal(t, []bool{false, true}, finishing)
}

func TestTimerPool_TerminateRemoves(t *testing.T) {
	clock := NewManualClock(epoch)
	pool := NewTimerPool(nil)
	calls := 0
	id := pool.Add(countingTimer(clock, &calls, TimerCallbackReturn{
		ShouldUpdate:    RegenerateStyledDomForCurrentWindow,
		ShouldTerminate: Terminate,
	}))
	keep := pool.Add(countingTimer(clock, &calls, TimerCallbackReturn{}))
	require.Equal(t, 2, pool.Len())

	now := clock.Advance(time.Millisecond)
	update := pool.RunExpired(nil, now, now)

	assert.Equal(t, RegenerateStyledDomForCurrentWindow, update)
	assert.Equal(t, 2, calls)
	_, ok := pool.Get(id)
	assert.False(t, ok)
	_, ok = pool.Get(keep)
	assert.True(t, ok)
}

func TestTimerPool_SkipsTimersNotDue(t *testing.T) {
	clock := NewManualClock(epoch)
	pool := NewTimerPool(nil)
	calls := 0
	pool.Add(countingTimer(clock, &calls, TimerCallbackReturn{}).WithInterval(time.Second))

	now := clock.Advance(500 * time.Millisecond)
	pool.RunExpired(nil, now, now)
	assert.Equal(t, 0, calls)

	next, ok := pool.NextRun()
	require.True(t, ok)
	assert.Equal(t, epoch.Add(time.Second), next)
}

func TestUpdate_Max(t *testing.T) {
	assert.Equal(t, RegenerateStyledDomForAllWindows, RegenerateStyledDomForCurrentWindow.Max(RegenerateStyledDomForAllWindows))
	assert.Equal(t, RegenerateStyledDomForCurrentWindow, RegenerateStyledDomForCurrentWindow.Max(DoNothing))
}
