package task

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestThreadPool_WriteBack(t *testing.T) {
	pool := NewThreadPool(nil)
	var got []any
	writeback := func(wb, payload any, _ Host) Update {
		got = append(got, wb, payload)
		return RegenerateStyledDomForCurrentWindow
	}
	pool.Start(21, "state", func(data any, send *ThreadSender, _ *ThreadReceiver) {
		send.Send(ThreadReceiveMsg{Kind: WriteBack, Payload: data.(int) * 2, Callback: writeback})
	})

	var update Update
	require.Eventually(t, func() bool {
		update = update.Max(pool.Poll(nil))
		return pool.Len() == 0
	}, time.Second, time.Millisecond)

	assert.Equal(t, RegenerateStyledDomForCurrentWindow, update)
	assert.Equal(t, []any{"state", 42}, got)
}

func TestThreadPool_ShutdownStopsLoopingThreads(t *testing.T) {
	pool := NewThreadPool(nil)
	ticks := make(chan struct{}, 16)
	for range 3 {
		pool.Start(nil, nil, func(_ any, _ *ThreadSender, recv *ThreadReceiver) {
			for {
				select {
				case m := <-recv.C():
					if m.Kind == TerminateThread {
						return
					}
					if m.Kind == Tick {
						ticks <- struct{}{}
					}
				case <-recv.Done():
					return
				}
			}
		})
	}
	pool.Tick()
	for range 3 {
		<-ticks
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, pool.Shutdown(ctx))
	assert.Equal(t, 0, pool.Len())
}

func TestThreadSender_FailsAfterTerminate(t *testing.T) {
	sent := make(chan bool, 1)
	release := make(chan struct{})
	th := StartThread(NewThreadId(), nil, nil, func(_ any, send *ThreadSender, _ *ThreadReceiver) {
		<-release
		sent <- send.Send(ThreadReceiveMsg{Kind: UpdateRequest, Update: RegenerateStyledDomForAllWindows})
	}, nil)
	th.Terminate()
	close(release)

	assert.False(t, <-sent)
	require.NoError(t, th.Wait(context.Background()))
	assert.True(t, th.Finished())
}

func TestThread_RecoversPanics(t *testing.T) {
	th := StartThread(NewThreadId(), nil, nil, func(any, *ThreadSender, *ThreadReceiver) {
		panic("boom")
	}, nil)
	require.NoError(t, th.Wait(context.Background()))
}
