package task

import (
	"sync/atomic"
	"time"
)

// TimerId identifies a timer within the process.
type TimerId uint64

// ThreadId identifies a background thread within the process.
type ThreadId uint64

var (
	maxTimerID  atomic.Uint64
	maxThreadID atomic.Uint64
)

// NewTimerId returns a process-unique timer id.
func NewTimerId() TimerId { return TimerId(maxTimerID.Add(1)) }

// NewThreadId returns a process-unique thread id.
func NewThreadId() ThreadId { return ThreadId(maxThreadID.Add(1)) }

// Host is the part of a window that callbacks, timers and thread
// write-backs may use to schedule more work.
type Host interface {
	Now() time.Time
	AddTimer(t *Timer) TimerId
	RemoveTimer(id TimerId)
	StartThread(data, writebackData any, cb ThreadCallback) ThreadId
	StopThread(id ThreadId)
}
