package task

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type ThreadSendKind uint8

const (
	// TerminateThread asks the thread to stop at the nearest opportunity.
	TerminateThread ThreadSendKind = iota
	// Tick is sent once per frame.
	Tick
	// Custom carries application data.
	Custom
)

// ThreadSendMsg travels from the main thread to a background thread.
type ThreadSendMsg struct {
	Kind ThreadSendKind
	Data any
}

type ThreadReceiveKind uint8

const (
	// WriteBack asks the main thread to run a callback with the thread's
	// write-back data.
	WriteBack ThreadReceiveKind = iota
	// UpdateRequest asks for a regeneration without running a callback.
	UpdateRequest
)

// WriteBackCallback runs on the main thread. writebackData is the value
// given when the thread was started, payload the value the thread sent.
type WriteBackCallback func(writebackData, payload any, host Host) Update

// ThreadReceiveMsg travels from a background thread to the main thread.
type ThreadReceiveMsg struct {
	Kind     ThreadReceiveKind
	Payload  any
	Callback WriteBackCallback
	Update   Update
}

// ThreadCallback is the body of a background thread. It should return when
// recv reports TerminateThread or its Done channel closes.
type ThreadCallback func(data any, send *ThreadSender, recv *ThreadReceiver)

// ThreadSender is the thread's end of the main-bound channel.
type ThreadSender struct {
	ch   chan<- ThreadReceiveMsg
	quit <-chan struct{}
}

// Send delivers msg to the main thread. It blocks while the buffer is full
// and returns false once the thread has been told to quit.
func (s *ThreadSender) Send(msg ThreadReceiveMsg) bool {
	select {
	case <-s.quit:
		return false
	default:
	}
	select {
	case s.ch <- msg:
		return true
	case <-s.quit:
		return false
	}
}

// ThreadReceiver is the thread's end of the thread-bound channel.
type ThreadReceiver struct {
	ch   <-chan ThreadSendMsg
	quit <-chan struct{}
}

// Recv returns the next pending message without blocking.
func (r *ThreadReceiver) Recv() (ThreadSendMsg, bool) {
	select {
	case m := <-r.ch:
		return m, true
	case <-r.quit:
		return ThreadSendMsg{Kind: TerminateThread}, true
	default:
		return ThreadSendMsg{}, false
	}
}

// C exposes the message channel for use in select statements.
func (r *ThreadReceiver) C() <-chan ThreadSendMsg { return r.ch }

// Done is closed when the main thread terminates the thread.
func (r *ThreadReceiver) Done() <-chan struct{} { return r.quit }

// Thread is the main thread's handle to a running goroutine.
type Thread struct {
	ID            ThreadId
	WritebackData any

	toThread   chan ThreadSendMsg
	fromThread chan ThreadReceiveMsg
	quit       chan struct{}
	quitOnce   sync.Once
	done       chan struct{}
}

const threadBuffer = 64

// StartThread runs cb on a new goroutine.
func StartThread(id ThreadId, data, writebackData any, cb ThreadCallback, log *zap.Logger) *Thread {
	t := &Thread{
		ID:            id,
		WritebackData: writebackData,
		toThread:      make(chan ThreadSendMsg, threadBuffer),
		fromThread:    make(chan ThreadReceiveMsg, threadBuffer),
		quit:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	send := &ThreadSender{ch: t.fromThread, quit: t.quit}
	recv := &ThreadReceiver{ch: t.toThread, quit: t.quit}
	go func() {
		defer close(t.done)
		defer func() {
			if r := recover(); r != nil && log != nil {
				log.Error("thread panicked", zap.Uint64("thread", uint64(id)), zap.Any("panic", r))
			}
		}()
		cb(data, send, recv)
	}()
	return t
}

// Send queues msg for the thread without blocking.
func (t *Thread) Send(msg ThreadSendMsg) bool {
	select {
	case t.toThread <- msg:
		return true
	default:
		return false
	}
}

// Finished reports whether the thread function has returned.
func (t *Thread) Finished() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Drain returns every message the thread has sent so far.
func (t *Thread) Drain() []ThreadReceiveMsg {
	var out []ThreadReceiveMsg
	for {
		select {
		case m := <-t.fromThread:
			out = append(out, m)
		default:
			return out
		}
	}
}

// Terminate sends TerminateThread and closes the quit channel.
func (t *Thread) Terminate() {
	t.Send(ThreadSendMsg{Kind: TerminateThread})
	t.quitOnce.Do(func() { close(t.quit) })
}

// Wait blocks until the thread function returns or ctx is done.
func (t *Thread) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("thread %d: %w", t.ID, ctx.Err())
	}
}

// ThreadPool owns the background threads of one window.
type ThreadPool struct {
	threads map[ThreadId]*Thread
	log     *zap.Logger
}

// NewThreadPool returns an empty pool.
func NewThreadPool(log *zap.Logger) *ThreadPool {
	if log == nil {
		log = zap.NewNop()
	}
	return &ThreadPool{threads: make(map[ThreadId]*Thread), log: log}
}

// Start launches a thread and registers it.
func (p *ThreadPool) Start(data, writebackData any, cb ThreadCallback) ThreadId {
	id := NewThreadId()
	p.threads[id] = StartThread(id, data, writebackData, cb, p.log)
	p.log.Debug("thread started", zap.Uint64("thread", uint64(id)))
	return id
}

// Stop terminates a thread. It is dropped from the pool on the next Poll
// once it has finished.
func (p *ThreadPool) Stop(id ThreadId) {
	if t, ok := p.threads[id]; ok {
		t.Terminate()
	}
}

func (p *ThreadPool) Len() int { return len(p.threads) }

// Tick sends a Tick message to every thread.
func (p *ThreadPool) Tick() {
	for _, t := range p.threads {
		t.Send(ThreadSendMsg{Kind: Tick})
	}
}

func (p *ThreadPool) ids() []ThreadId {
	ids := make([]ThreadId, 0, len(p.threads))
	for id := range p.threads {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Poll drains every thread without blocking, runs write-back callbacks on
// the calling goroutine and drops threads that have finished.
func (p *ThreadPool) Poll(host Host) Update {
	update := DoNothing
	for _, id := range p.ids() {
		t := p.threads[id]
		// Check before draining so nothing sent before exit is lost.
		finished := t.Finished()
		for _, m := range t.Drain() {
			switch m.Kind {
			case WriteBack:
				if m.Callback != nil {
					update = update.Max(m.Callback(t.WritebackData, m.Payload, host))
				}
			case UpdateRequest:
				update = update.Max(m.Update)
			}
		}
		if finished {
			p.log.Debug("thread finished", zap.Uint64("thread", uint64(id)))
			delete(p.threads, id)
		}
	}
	return update
}

// Shutdown terminates every thread and waits for all of them.
func (p *ThreadPool) Shutdown(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, id := range p.ids() {
		t := p.threads[id]
		t.Terminate()
		g.Go(func() error { return t.Wait(ctx) })
	}
	err := g.Wait()
	clear(p.threads)
	return err
}
