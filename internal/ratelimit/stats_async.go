package ratelimit

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

const (
	defaultAsyncBuffer  = 1024
	defaultAsyncTimeout = 250 * time.Millisecond
)

var (
	// ErrStatsQueueFull is returned when an event is dropped because the
	// background writer is behind.
	ErrStatsQueueFull = errors.New("rate limit stats queue full")
	// ErrStatsClosed is returned for events recorded after Close.
	ErrStatsClosed = errors.New("rate limit stats closed")
)

// AsyncStats hands events to a single background writer through a bounded
// queue. Record never blocks; when the queue is full the event is dropped.
type AsyncStats struct {
	next    StatsRecorder
	timeout time.Duration
	onError func(error)

	mu     sync.RWMutex
	closed bool
	events chan StatsEvent
	done   chan struct{}

	dropped atomic.Int64
}

// AsyncStatsOption configures AsyncStats.
type AsyncStatsOption func(*AsyncStats)

// WithAsyncBuffer sets the queue capacity.
func WithAsyncBuffer(n int) AsyncStatsOption {
	return func(s *AsyncStats) {
		if n > 0 {
			s.events = make(chan StatsEvent, n)
		}
	}
}

// WithAsyncTimeout bounds each write to the wrapped recorder.
func WithAsyncTimeout(d time.Duration) AsyncStatsOption {
	return func(s *AsyncStats) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithAsyncErrorHandler receives errors returned by the wrapped recorder.
func WithAsyncErrorHandler(fn func(error)) AsyncStatsOption {
	return func(s *AsyncStats) { s.onError = fn }
}

// NewAsyncStats starts the background writer for next.
func NewAsyncStats(next StatsRecorder, opts ...AsyncStatsOption) *AsyncStats {
	s := &AsyncStats{
		next:    next,
		timeout: defaultAsyncTimeout,
		events:  make(chan StatsEvent, defaultAsyncBuffer),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.run()
	return s
}

func (s *AsyncStats) run() {
	defer close(s.done)
	for ev := range s.events {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		err := s.next.Record(ctx, ev)
		cancel()
		if err != nil && s.onError != nil {
			s.onError(err)
		}
	}
}

// Record enqueues ev. ctx is not used; the write happens on the writer's own
// context after the caller has moved on.
func (s *AsyncStats) Record(_ context.Context, ev StatsEvent) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStatsClosed
	}
	select {
	case s.events <- ev:
		return nil
	default:
		s.dropped.Add(1)
		return ErrStatsQueueFull
	}
}

// Dropped returns the number of events discarded because the queue was full.
func (s *AsyncStats) Dropped() int64 {
	return s.dropped.Load()
}

// Close stops accepting events and waits for queued ones to be written, or for
// ctx to end. It is safe to call more than once.
func (s *AsyncStats) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
