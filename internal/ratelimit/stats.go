package ratelimit

import (
	"context"
	"sync"
	"time"
)

// StatsEvent describes one admission decision for operator statistics.
// It is not limiter state; losing events never changes admission.
type StatsEvent struct {
	Identifier string
	Admitted   bool
	Method     string
	Path       string
	At         time.Time
}

// StatsRecorder persists decision statistics. Callers treat errors as best-effort.
type StatsRecorder interface {
	Record(ctx context.Context, ev StatsEvent) error
}

// NopStats discards every event.
type NopStats struct{}

func (NopStats) Record(context.Context, StatsEvent) error { return nil }

// Counters totals admitted and rejected decisions.
type Counters struct {
	Admitted int64 `json:"admitted"`
	Rejected int64 `json:"rejected"`
}

func (c *Counters) add(admitted bool) {
	if admitted {
		c.Admitted++
		return
	}
	c.Rejected++
}

// DefaultMaxClients caps per-client entries in MemoryStats.
const DefaultMaxClients = 10000

// OverflowClient collects decisions for clients seen after the cap was hit.
const OverflowClient = "(other)"

// MemoryStats keeps totals in process memory.
type MemoryStats struct {
	mu           sync.Mutex
	total        Counters
	byRoute      map[string]Counters
	byClient     map[string]Counters
	trackClients bool
	maxClients   int
}

// MemoryStatsOption configures MemoryStats.
type MemoryStatsOption func(*MemoryStats)

// WithMaxClients caps the per-client map. Values below one keep the default.
func WithMaxClients(n int) MemoryStatsOption {
	return func(s *MemoryStats) {
		if n > 0 {
			s.maxClients = n
		}
	}
}

// NewMemoryStats builds an in-memory recorder. Per-client totals are only kept
// when trackClients is set, for at most DefaultMaxClients clients unless
// overridden; later clients are folded into OverflowClient.
func NewMemoryStats(trackClients bool, opts ...MemoryStatsOption) *MemoryStats {
	s := &MemoryStats{
		byRoute:      make(map[string]Counters),
		byClient:     make(map[string]Counters),
		trackClients: trackClients,
		maxClients:   DefaultMaxClients,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStats) Record(_ context.Context, ev StatsEvent) error {
	route := routeKey(ev.Method, ev.Path)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.total.add(ev.Admitted)
	if route != "" {
		c := s.byRoute[route]
		c.add(ev.Admitted)
		s.byRoute[route] = c
	}
	if s.trackClients {
		id := normalize(ev.Identifier)
		c, ok := s.byClient[id]
		if !ok && len(s.byClient) >= s.maxClients {
			id = OverflowClient
			c = s.byClient[id]
		}
		c.add(ev.Admitted)
		s.byClient[id] = c
	}
	return nil
}

// PruneClients drops per-client entries for which keep returns false and
// reports how many were removed. The overflow bucket is always dropped so
// freed slots go back to real clients.
func (s *MemoryStats) PruneClients(keep func(identifier string) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id := range s.byClient {
		if id == OverflowClient || !keep(id) {
			delete(s.byClient, id)
			removed++
		}
	}
	return removed
}

// Total returns the overall counters.
func (s *MemoryStats) Total() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// ByRoute returns a copy of the per-route counters.
func (s *MemoryStats) ByRoute() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyCounters(s.byRoute)
}

// ByClient returns a copy of the per-client counters.
func (s *MemoryStats) ByClient() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyCounters(s.byClient)
}

func copyCounters(in map[string]Counters) map[string]Counters {
	out := make(map[string]Counters, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func routeKey(method, path string) string {
	switch {
	case method == "" && path == "":
		return ""
	case method == "":
		return path
	case path == "":
		return method
	default:
		return method + " " + path
	}
}
