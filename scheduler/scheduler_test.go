package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func count(n *int32) TaskFn {
	return func(context.Context) error {
		atomic.AddInt32(n, 1)
		return nil
	}
}

func TestAddTicker_Fires(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()

	var n int32
	s.AddTicker("tick", 20*time.Millisecond, count(&n))

	time.Sleep(120 * time.Millisecond)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&n), int32(3))
}

func TestAddTicker_Replaces(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()

	var n1, n2 int32
	s.AddTicker("task", 20*time.Millisecond, count(&n1))
	time.Sleep(30 * time.Millisecond)
	s.AddTicker("task", 20*time.Millisecond, count(&n2))
	time.Sleep(80 * time.Millisecond)

	snap := atomic.LoadInt32(&n1)
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, snap, atomic.LoadInt32(&n1), "old ticker must stop after replacement")
	assert.Positive(t, atomic.LoadInt32(&n2))
	assert.Len(t, s.Tasks(), 1)
}

func TestRemove(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()

	var n int32
	s.AddTicker("task", 20*time.Millisecond, count(&n))
	time.Sleep(50 * time.Millisecond)
	s.Remove("task")
	time.Sleep(10 * time.Millisecond)
	snap := atomic.LoadInt32(&n)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, snap, atomic.LoadInt32(&n), "ticker must stop after Remove")

	assert.NotPanics(t, func() { s.Remove("nope") })
}

func TestStop_StopsAllTickers(t *testing.T) {
	s := New(zap.NewNop())

	var c1, c2 int32
	s.AddTicker("a", 20*time.Millisecond, count(&c1))
	s.AddTicker("b", 20*time.Millisecond, count(&c2))
	time.Sleep(50 * time.Millisecond)
	s.Stop()
	time.Sleep(30 * time.Millisecond)
	snap1, snap2 := atomic.LoadInt32(&c1), atomic.LoadInt32(&c2)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, snap1, atomic.LoadInt32(&c1))
	assert.Equal(t, snap2, atomic.LoadInt32(&c2))

	assert.NotPanics(t, s.Stop)
}

func TestStop_CancelsTaskContext(t *testing.T) {
	s := New(zap.NewNop())
	done := make(chan struct{})
	s.AddTicker("blocking", 10*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		close(done)
		return ctx.Err()
	})
	time.Sleep(30 * time.Millisecond)
	s.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task context was not cancelled")
	}
}

func TestTasks(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()

	require.Empty(t, s.Tasks())
	s.AddTicker("beta", time.Hour, count(new(int32)))
	s.AddTicker("alpha", time.Hour, count(new(int32)))

	tasks := s.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, "alpha", tasks[0].Name)
	assert.Equal(t, time.Hour, tasks[0].Interval)
	assert.Nil(t, tasks[0].LastRun)
	assert.Equal(t, "beta", tasks[1].Name)
}

func TestTasks_RecordsFailures(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()

	s.AddTicker("flaky", 15*time.Millisecond, func(context.Context) error {
		return errors.New("db down")
	})
	time.Sleep(60 * time.Millisecond)

	tasks := s.Tasks()
	require.Len(t, tasks, 1)
	assert.Positive(t, tasks[0].Runs)
	assert.Equal(t, tasks[0].Runs, tasks[0].Failures)
	assert.Equal(t, "db down", tasks[0].LastError)
	assert.NotNil(t, tasks[0].LastRun)
}

func TestTicker_PanicRecovery(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Stop()

	s.AddTicker("panic", 15*time.Millisecond, func(context.Context) error {
		panic("oops")
	})
	time.Sleep(80 * time.Millisecond)

	tasks := s.Tasks()
	require.Len(t, tasks, 1)
	assert.GreaterOrEqual(t, tasks[0].Runs, int64(2), "ticker keeps running after a panic")
	assert.Equal(t, "task panicked", tasks[0].LastError)
}
