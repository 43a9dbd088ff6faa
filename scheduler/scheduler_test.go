package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newNop() *zap.Logger { return zap.NewNop() }

func TestAddTicker_Fires(t *testing.T) {
	s := New(newNop())
	defer s.Stop()

	var count int32
	s.AddTicker("tick", 20*time.Millisecond, func() {
		atomic.AddInt32(&count, 1)
	})

	time.Sleep(120 * time.Millisecond)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&count), int32(3))
}

func TestAddTicker_Replaces(t *testing.T) {
	s := New(newNop())
	defer s.Stop()

	var count1, count2 int32
	s.AddTicker("task", 20*time.Millisecond, func() { atomic.AddInt32(&count1, 1) })
	time.Sleep(30 * time.Millisecond)
	s.AddTicker("task", 20*time.Millisecond, func() { atomic.AddInt32(&count2, 1) })
	time.Sleep(80 * time.Millisecond)

	// Old ticker should have stopped, new one should be running
	snap1 := atomic.LoadInt32(&count1)
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, snap1, atomic.LoadInt32(&count1), "old ticker must stop after replacement")
	assert.Positive(t, atomic.LoadInt32(&count2))
}

func TestRemove_Ticker(t *testing.T) {
	s := New(newNop())
	defer s.Stop()

	var count int32
	s.AddTicker("task", 20*time.Millisecond, func() { atomic.AddInt32(&count, 1) })
	time.Sleep(50 * time.Millisecond)
	s.Remove("task")
	snap := atomic.LoadInt32(&count)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, snap, atomic.LoadInt32(&count), "ticker must stop after Remove")
}

func TestTaskPanicRecovered(t *testing.T) {
	s := New(newNop())
	defer s.Stop()

	var after int32
	s.AddTicker("panicky", 20*time.Millisecond, func() {
		if atomic.AddInt32(&after, 1) == 1 {
			panic("task failure")
		}
	})
	time.Sleep(80 * time.Millisecond)
	// The ticker keeps firing after a panicking run.
	assert.Greater(t, atomic.LoadInt32(&after), int32(1))
}

func TestStop_Idempotent(t *testing.T) {
	s := New(newNop())
	s.Stop()
	s.Stop() // must not panic

	var count int32
	s.AddTicker("late", 20*time.Millisecond, func() { atomic.AddInt32(&count, 1) })
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&count), "tickers added after Stop never fire")
}

func TestListTickers(t *testing.T) {
	s := New(newNop())
	defer s.Stop()

	s.AddTicker("a", time.Hour, func() {})
	s.AddTicker("b", 20*time.Millisecond, func() {})
	time.Sleep(50 * time.Millisecond)

	names := make([]string, 0, 2)
	runs := map[string]int64{}
	for _, st := range s.ListTickers() {
		names = append(names, st.Name)
		runs[st.Name] = st.Runs
	}
	assert.ElementsMatch(t, []string{"a", "b"}, names)
	assert.Zero(t, runs["a"])
	assert.Positive(t, runs["b"])

	s.Remove("a")
	assert.Len(t, s.ListTickers(), 1)
}
