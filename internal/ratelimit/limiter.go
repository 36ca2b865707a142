// Package ratelimit implements the per-client fixed-window limiter that guards
// the generation endpoint.
package ratelimit

import (
	"errors"
	"sync"
	"time"

	"github.com/spaolacci/murmur3"
)

const (
	// UnknownIdentifier buckets every request whose client address could not be derived.
	UnknownIdentifier = "unknown"

	DefaultWindow            = 5 * time.Minute
	DefaultMaxRequests       = 10
	DefaultShards            = 32
	DefaultSweepAfterWindows = 2
)

// Config holds limiter settings. They are fixed once the limiter is built.
type Config struct {
	Window            time.Duration
	MaxRequests       int
	Shards            int
	SweepAfterWindows int
}

func (c Config) withDefaults() Config {
	if c.Shards <= 0 {
		c.Shards = DefaultShards
	}
	if c.SweepAfterWindows <= 0 {
		c.SweepAfterWindows = DefaultSweepAfterWindows
	}
	return c
}

// Decision is the outcome of a single admission check.
type Decision struct {
	Admitted bool
	// RetryAfter is zero for admitted requests.
	RetryAfter time.Duration
}

// RetryAfterMillis returns the retry hint in whole milliseconds.
func (d Decision) RetryAfterMillis() int64 {
	return d.RetryAfter.Milliseconds()
}

// RetryAfterSeconds rounds the retry hint up to whole seconds, as used by the Retry-After header.
func (d Decision) RetryAfterSeconds() int64 {
	if d.RetryAfter <= 0 {
		return 0
	}
	secs := int64(d.RetryAfter / time.Second)
	if d.RetryAfter%time.Second != 0 {
		secs++
	}
	return secs
}

// Snapshot is a read-only view of one client's window.
type Snapshot struct {
	Identifier  string
	Count       int
	WindowStart time.Time
	Remaining   int
	ResetIn     time.Duration
}

type record struct {
	count       int
	windowStart time.Time
}

type shard struct {
	mu      sync.Mutex
	records map[string]*record
}

// Limiter counts requests per identifier inside fixed windows.
//
// The table is split into shards keyed by a murmur3 hash of the identifier; each
// shard has its own mutex, so identifiers on different shards never contend.
type Limiter struct {
	cfg    Config
	shards []*shard
}

// New builds a limiter. Window and MaxRequests must be positive.
func New(cfg Config) (*Limiter, error) {
	if cfg.Window <= 0 {
		return nil, errors.New("ratelimit: window must be positive")
	}
	if cfg.MaxRequests <= 0 {
		return nil, errors.New("ratelimit: max requests must be positive")
	}
	cfg = cfg.withDefaults()

	shards := make([]*shard, cfg.Shards)
	for i := range shards {
		shards[i] = &shard{records: make(map[string]*record)}
	}
	return &Limiter{cfg: cfg, shards: shards}, nil
}

// Config returns the settings the limiter was built with.
func (l *Limiter) Config() Config {
	return l.cfg
}

func (l *Limiter) shardFor(identifier string) *shard {
	h := murmur3.Sum64([]byte(identifier))
	return l.shards[h%uint64(len(l.shards))]
}

func normalize(identifier string) string {
	if identifier == "" {
		return UnknownIdentifier
	}
	return identifier
}

// Admit decides whether a request from identifier arriving at now may proceed.
// It never blocks on anything other than the identifier's shard lock.
func (l *Limiter) Admit(identifier string, now time.Time) Decision {
	identifier = normalize(identifier)
	s := l.shardFor(identifier)

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[identifier]
	if !ok {
		s.records[identifier] = &record{count: 1, windowStart: now}
		return Decision{Admitted: true}
	}

	if now.Sub(rec.windowStart) >= l.cfg.Window {
		// windowStart never moves backwards, even if the caller's clock does.
		if now.After(rec.windowStart) {
			rec.windowStart = now
		}
		rec.count = 1
		return Decision{Admitted: true}
	}

	if rec.count < l.cfg.MaxRequests {
		rec.count++
		return Decision{Admitted: true}
	}

	return Decision{Admitted: false, RetryAfter: retryAfter(rec.windowStart, l.cfg.Window, now)}
}

func retryAfter(windowStart time.Time, window time.Duration, now time.Time) time.Duration {
	wait := windowStart.Add(window).Sub(now)
	if wait < 0 {
		return 0
	}
	return wait
}

// Peek reports the state of identifier's window without counting a request.
func (l *Limiter) Peek(identifier string, now time.Time) (Snapshot, bool) {
	identifier = normalize(identifier)
	s := l.shardFor(identifier)

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[identifier]
	if !ok {
		return Snapshot{}, false
	}

	snap := Snapshot{
		Identifier:  identifier,
		Count:       rec.count,
		WindowStart: rec.windowStart,
		Remaining:   l.cfg.MaxRequests - rec.count,
		ResetIn:     retryAfter(rec.windowStart, l.cfg.Window, now),
	}
	if now.Sub(rec.windowStart) >= l.cfg.Window {
		snap.Count = 0
		snap.Remaining = l.cfg.MaxRequests
	}
	return snap, true
}

// Reset forgets identifier. It reports whether a record existed.
func (l *Limiter) Reset(identifier string) bool {
	identifier = normalize(identifier)
	s := l.shardFor(identifier)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[identifier]; !ok {
		return false
	}
	delete(s.records, identifier)
	return true
}

// Len returns the number of tracked identifiers.
func (l *Limiter) Len() int {
	total := 0
	for _, s := range l.shards {
		s.mu.Lock()
		total += len(s.records)
		s.mu.Unlock()
	}
	return total
}

// Sweep removes records whose window ended more than SweepAfterWindows windows
// before now, and returns how many were removed. Shards are locked one at a time.
func (l *Limiter) Sweep(now time.Time) int {
	idle := time.Duration(l.cfg.SweepAfterWindows) * l.cfg.Window
	removed := 0
	for _, s := range l.shards {
		s.mu.Lock()
		for id, rec := range s.records {
			if now.Sub(rec.windowStart.Add(l.cfg.Window)) > idle {
				delete(s.records, id)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed
}
