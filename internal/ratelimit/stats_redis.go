package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisStatsPrefix = "resumeforge:ratelimit:stats"

// RedisStats writes decision counters into redis hashes:
//
//	<prefix>:total            admitted|rejected
//	<prefix>:minute:<YYYYMMDDhhmm>  admitted|rejected (expires after ttl)
//	<prefix>:route            "<method> <path>:admitted|rejected"
//	<prefix>:client:<id>      admitted|rejected (only with tracking enabled)
type RedisStats struct {
	rdb          redis.UniversalClient
	prefix       string
	ttl          time.Duration
	bucket       string
	trackClients bool
}

// RedisStatsOption configures RedisStats.
type RedisStatsOption func(*RedisStats)

func WithRedisPrefix(prefix string) RedisStatsOption {
	return func(s *RedisStats) {
		if p := strings.Trim(strings.TrimSpace(prefix), ":"); p != "" {
			s.prefix = p
		}
	}
}

func WithRedisTTL(ttl time.Duration) RedisStatsOption {
	return func(s *RedisStats) { s.ttl = ttl }
}

// WithRedisBucket selects the time series granularity: "minute" or "none".
func WithRedisBucket(bucket string) RedisStatsOption {
	return func(s *RedisStats) { s.bucket = strings.ToLower(strings.TrimSpace(bucket)) }
}

func WithRedisClientTracking(track bool) RedisStatsOption {
	return func(s *RedisStats) { s.trackClients = track }
}

// NewRedisStats wraps an existing redis client.
func NewRedisStats(rdb redis.UniversalClient, opts ...RedisStatsOption) *RedisStats {
	s := &RedisStats{
		rdb:    rdb,
		prefix: defaultRedisStatsPrefix,
		ttl:    24 * time.Hour,
		bucket: "minute",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewRedisClient parses a redis:// or rediss:// URL into a client with
// conservative timeouts.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(strings.TrimSpace(url))
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 2 * time.Second
	opts.WriteTimeout = 2 * time.Second
	opts.PoolTimeout = 3 * time.Second
	return redis.NewClient(opts), nil
}

func (s *RedisStats) Record(ctx context.Context, ev StatsEvent) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	field := decisionField(ev.Admitted)

	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, s.totalKey(), field, 1)

	if s.bucket == "minute" {
		key := s.minuteKey(at)
		pipe.HIncrBy(ctx, key, field, 1)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
	}

	if route := routeKey(ev.Method, ev.Path); route != "" {
		pipe.HIncrBy(ctx, s.prefix+":route", route+":"+field, 1)
	}

	if s.trackClients {
		key := s.prefix + ":client:" + normalize(ev.Identifier)
		pipe.HIncrBy(ctx, key, field, 1)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
	}

	_, err := pipe.Exec(ctx)
	return err
}

// Total reads the cumulative counters.
func (s *RedisStats) Total(ctx context.Context) (Counters, error) {
	var c Counters
	if s == nil || s.rdb == nil {
		return c, nil
	}
	values, err := s.rdb.HGetAll(ctx, s.totalKey()).Result()
	if err != nil {
		return c, err
	}
	c.Admitted, _ = strconv.ParseInt(values["admitted"], 10, 64)
	c.Rejected, _ = strconv.ParseInt(values["rejected"], 10, 64)
	return c, nil
}

// Ping checks connectivity.
func (s *RedisStats) Ping(ctx context.Context) error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Ping(ctx).Err()
}

// Close releases the underlying client.
func (s *RedisStats) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

func (s *RedisStats) totalKey() string {
	return s.prefix + ":total"
}

func (s *RedisStats) minuteKey(at time.Time) string {
	return fmt.Sprintf("%s:minute:%s", s.prefix, at.UTC().Format("200601021504"))
}

func decisionField(admitted bool) string {
	if admitted {
		return "admitted"
	}
	return "rejected"
}
