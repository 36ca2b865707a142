package cmd

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/resumeforge/resumeforge/internal/ailink"
	"github.com/resumeforge/resumeforge/internal/ailink/driver"
	"github.com/resumeforge/resumeforge/internal/ailink/prompt"
	"github.com/resumeforge/resumeforge/internal/config"
	"github.com/resumeforge/resumeforge/internal/observability"
	"github.com/resumeforge/resumeforge/internal/ratelimit"
	"github.com/resumeforge/resumeforge/internal/store"
)

func openStore(ctx context.Context, cfg config.StoreConfig) (*store.Store, error) {
	db, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// newTailorService builds the generation service. cache may be nil. The
// returned cleanup closes the trace file when --trace is set.
func newTailorService(cfg *config.Config, cache ailink.Cache) (*ailink.Service, func(), error) {
	cleanup := func() {}

	var tracer *driver.Tracer
	if path := strings.TrimSpace(traceFile); path != "" {
		t, err := driver.OpenTraceFile(path)
		if err != nil {
			return nil, cleanup, fmt.Errorf("open trace file: %w", err)
		}
		tracer = t
		cleanup = func() { _ = t.Close() }
		observability.CLILogger.Debug("Provider tracing enabled", zap.String("file", path))
	}

	drv, err := ailink.NewDriver(cfg.AILink, ailink.DriverOptions{Tracer: tracer})
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}

	prompts, err := prompt.DefaultRegistry(cfg.AILink.PromptsDir)
	if err != nil {
		cleanup()
		return nil, func() {}, fmt.Errorf("load prompts: %w", err)
	}

	var opts []ailink.Option
	if cache != nil {
		opts = append(opts, ailink.WithCache(cache))
	}
	return ailink.NewService(cfg.AILink, drv, prompts, opts...), cleanup, nil
}

// statsBackend is the decision stats recorder plus what serve needs to
// health-check and close it.
type statsBackend struct {
	recorder ratelimit.StatsRecorder
	ping     func(context.Context) error
	close    func() error
	// prune drops per-client entries the keep func rejects. Only the memory
	// backend holds them in process.
	prune func(keep func(string) bool) int
}

func newStatsBackend(ctx context.Context, cfg config.StatsConfig) (*statsBackend, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "none":
		return &statsBackend{recorder: ratelimit.NopStats{}}, nil
	case "memory":
		stats := ratelimit.NewMemoryStats(cfg.TrackClients, ratelimit.WithMaxClients(cfg.MaxClients))
		return &statsBackend{recorder: stats, prune: stats.PruneClients}, nil
	case "redis":
		rdb, err := ratelimit.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		stats := ratelimit.NewRedisStats(rdb,
			ratelimit.WithRedisPrefix(cfg.Prefix),
			ratelimit.WithRedisTTL(cfg.TTL),
			ratelimit.WithRedisBucket(cfg.Bucket),
			ratelimit.WithRedisClientTracking(cfg.TrackClients),
		)
		if err := stats.Ping(ctx); err != nil {
			_ = stats.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		return &statsBackend{recorder: stats, ping: stats.Ping, close: stats.Close}, nil
	default:
		return nil, fmt.Errorf("unsupported rate limit stats backend %q", cfg.Backend)
	}
}
