package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestJanitorSweepOnce(t *testing.T) {
	limiter := newTestLimiter(t, time.Minute, 1)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.Admit("a", start)
	limiter.Admit("b", start.Add(10*time.Minute))

	var gotRemoved, gotTracked int
	j := &Janitor{
		Limiter: limiter,
		Clock:   func() time.Time { return start.Add(10 * time.Minute) },
		OnSweep: func(removed, tracked int) {
			gotRemoved, gotTracked = removed, tracked
		},
	}

	require.Equal(t, 1, j.sweepOnce())
	require.Equal(t, 1, gotRemoved)
	require.Equal(t, 1, gotTracked)
}

func TestJanitorRunStopsOnCancel(t *testing.T) {
	limiter := newTestLimiter(t, time.Minute, 1)
	limiter.Admit("a", time.Now().Add(-time.Hour))

	var (
		mu    sync.Mutex
		calls int
	)
	j := &Janitor{
		Limiter:  limiter,
		Interval: 5 * time.Millisecond,
		OnSweep: func(removed, tracked int) {
			mu.Lock()
			calls++
			mu.Unlock()
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		j.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls > 0
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, 0, limiter.Len())

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop after cancel")
	}
}
