package query

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoop_RunOnceRunsInOrder(t *testing.T) {
	l := NewLoop()
	var order []int
	for i := 1; i <= 3; i++ {
		i := i
		require.True(t, l.Post(func() { order = append(order, i) }))
	}

	for l.RunOnce(0) {
	}
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestLoop_RunOnceWaitsBounded(t *testing.T) {
	l := NewLoop()
	start := time.Now()
	assert.False(t, l.RunOnce(20*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestLoop_RunStopsOnContext(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())

	var ran atomic.Int32
	l.Post(func() { ran.Add(1) })

	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()

	assert.Eventually(t, func() bool { return ran.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)
}

func TestLoop_SinglePumper(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = l.Run(ctx) }()
	require.Eventually(t, l.Pumping, time.Second, 5*time.Millisecond)

	assert.ErrorIs(t, l.Run(ctx), ErrLoopBusy)
	assert.False(t, l.RunOnce(10*time.Millisecond))
}

func TestLoop_NestedRunOnce(t *testing.T) {
	l := NewLoop()
	var order []string
	var nested bool
	require.True(t, l.Post(func() {
		order = append(order, "outer")
		assert.True(t, l.Owned())
		nested = l.RunOnce(time.Second)
		order = append(order, "outer-end")
	}))
	require.True(t, l.Post(func() { order = append(order, "inner") }))

	assert.True(t, l.RunOnce(0))
	assert.True(t, nested)
	assert.Equal(t, []string{"outer", "inner", "outer-end"}, order)
	assert.False(t, l.Pumping())
	assert.False(t, l.Owned())
}

func TestLoop_NotOwnedByOtherGoroutines(t *testing.T) {
	l := NewLoop()
	entered := make(chan struct{})
	release := make(chan struct{})
	require.True(t, l.Post(func() {
		close(entered)
		<-release
	}))
	go l.RunOnce(0)
	<-entered

	assert.True(t, l.Pumping())
	assert.False(t, l.Owned())
	assert.False(t, l.RunOnce(10*time.Millisecond))
	close(release)
	assert.Eventually(t, func() bool { return !l.Pumping() }, time.Second, 5*time.Millisecond)
}

func TestLoop_Close(t *testing.T) {
	l := NewLoop()
	l.Close()
	l.Close()

	assert.False(t, l.Post(func() {}))
	assert.NoError(t, l.Run(context.Background()))
}

func TestLoop_CloseAbortsWaitingSession(t *testing.T) {
	tr := &scriptedTransport{}
	c := newScriptedClient(tr)
	rec := &recorder{}

	s, err := c.Get(context.Background(), "https://api.example.com/", Options{Handler: rec.handle})
	require.NoError(t, err)
	c.Close()

	assert.ErrorIs(t, s.Wait(context.Background()), ErrLoopClosed)
	assert.Equal(t, 1, rec.count())
	assert.Equal(t, StateFailed, s.State())
}
