package ratelimit

import (
	"context"
	"time"
)

// SweepFunc is notified after every janitor pass.
type SweepFunc func(removed, tracked int)

// Janitor periodically sweeps expired records out of a Limiter.
type Janitor struct {
	Limiter  *Limiter
	Interval time.Duration
	Clock    func() time.Time
	OnSweep  SweepFunc
}

func (j *Janitor) now() time.Time {
	if j.Clock != nil {
		return j.Clock()
	}
	return time.Now()
}

// Run sweeps on every tick until ctx is cancelled. An interval <= 0 defaults to
// the limiter's window.
func (j *Janitor) Run(ctx context.Context) {
	if j == nil || j.Limiter == nil {
		return
	}
	interval := j.Interval
	if interval <= 0 {
		interval = j.Limiter.Config().Window
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.sweepOnce()
		}
	}
}

func (j *Janitor) sweepOnce() int {
	removed := j.Limiter.Sweep(j.now())
	if j.OnSweep != nil {
		j.OnSweep(removed, j.Limiter.Len())
	}
	return removed
}
