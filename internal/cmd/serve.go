package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/resumeforge/resumeforge/internal/ailink"
	"github.com/resumeforge/resumeforge/internal/config"
	errwrap "github.com/resumeforge/resumeforge/internal/errors"
	"github.com/resumeforge/resumeforge/internal/metrics"
	"github.com/resumeforge/resumeforge/internal/observability"
	"github.com/resumeforge/resumeforge/internal/ratelimit"
	"github.com/resumeforge/resumeforge/internal/server"
	"github.com/resumeforge/resumeforge/internal/server/handlers"
	"github.com/resumeforge/resumeforge/internal/store"
)

// AdminTokenEnv enables the admin signal endpoint when set.
const AdminTokenEnv = "RESUMEFORGE_ADMIN_TOKEN"

var (
	serverPort int
	serverHost string
)

// telemetryHealthChecker ensures telemetry system and exporter are available
type telemetryHealthChecker struct{}

func (telemetryHealthChecker) CheckHealth(ctx context.Context) error {
	if observability.TelemetrySystem == nil || observability.PrometheusExporter == nil {
		return errwrap.NewInternalError("telemetry system not initialized")
	}
	return nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web app",
	Long: `Start the HTTP server that serves the resume form and the generation
and export APIs.

POST /api/generate is limited per client address (10 requests per 5 minutes
by default; see ratelimit.window and ratelimit.max_requests).

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • Ctrl+C twice within 2s: Force quit
  • SIGHUP: Config file re-read (limiter settings need a restart)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		cfg, err := loadConfig()
		if err != nil {
			return errwrap.WrapConfigInvalid(ctx, err, "configuration invalid")
		}

		observability.InitServerLogger(config.AppName, cfg.Logging.Level, config.AppName)
		logger := observability.ServerLogger

		if cfg.Metrics.Enabled {
			if err := observability.InitMetrics(config.AppName, cfg.Metrics.Port); err != nil {
				logger.Error("Failed to initialize metrics", zap.Error(err))
				return errwrap.WrapInternal(ctx, err, "metrics initialization failed")
			}
		}

		limiter, err := ratelimit.New(cfg.RateLimit.Limiter())
		if err != nil {
			return errwrap.WrapConfigInvalid(ctx, err, "rate limiter configuration invalid")
		}

		stats, err := newStatsBackend(ctx, cfg.RateLimit.Stats)
		if err != nil {
			return errwrap.WrapExternalService(ctx, err, "rate limit stats backend unavailable")
		}

		hm := handlers.NewHealthManager(versionInfo.Version)
		hm.RegisterChecker("ratelimit", handlers.CheckerFunc(func(context.Context) error {
			if limiter == nil {
				return errwrap.NewInternalError("rate limiter not initialized")
			}
			return nil
		}))
		hm.RegisterChecker("ailink", handlers.CheckerFunc(func(context.Context) error {
			if !cfg.AILink.HasAPIKey() {
				return errwrap.NewConfigInvalidError("AI provider API key not configured")
			}
			return nil
		}))
		if cfg.Metrics.Enabled {
			hm.RegisterChecker("telemetry", telemetryHealthChecker{})
		}
		if stats.ping != nil {
			hm.RegisterChecker("ratelimit_stats", handlers.CheckerFunc(stats.ping))
		}

		var (
			db    *store.Store
			cache ailink.Cache
		)
		if cfg.Cache.Enabled {
			db, err = openStore(ctx, cfg.Store)
			if err != nil {
				// Generation still works without the cache.
				logger.Warn("Generation cache disabled: store unavailable", zap.Error(err))
			} else {
				cache = store.NewGenerationCache(db, cfg.Cache.TTL)
				hm.RegisterChecker("store", handlers.CheckerFunc(func(ctx context.Context) error {
					return db.DB.PingContext(ctx)
				}))
			}
		}

		service, closeTrace, err := newTailorService(cfg, cache)
		if err != nil {
			return errwrap.WrapConfigInvalid(ctx, err, "AI provider configuration invalid")
		}
		if !cfg.AILink.HasAPIKey() {
			logger.Warn("No AI provider API key configured; generation requests will fail",
				zap.String("env", config.OpenAIKeyEnv))
		}

		srv := server.New(cfg.Server, server.Dependencies{
			Limiter:    limiter,
			Stats:      stats.recorder,
			Tailor:     service,
			Health:     hm,
			AdminToken: strings.TrimSpace(os.Getenv(AdminTokenEnv)),
		})

		logger.Info("Initializing server",
			zap.String("service", config.AppName),
			zap.String("version", versionInfo.Version),
			zap.String("addr", srv.Addr()),
			zap.Duration("rate_window", cfg.RateLimit.Window),
			zap.Int("rate_max_requests", cfg.RateLimit.MaxRequests),
			zap.String("stats_backend", cfg.RateLimit.Stats.Backend),
			zap.Bool("trust_proxy", cfg.Server.TrustProxy),
			zap.Bool("cache", cache != nil),
			zap.String("model", cfg.AILink.Model))

		janitor := &ratelimit.Janitor{
			Limiter:  limiter,
			Interval: cfg.RateLimit.SweepInterval,
			OnSweep: func(removed, tracked int) {
				metrics.RecordRateLimitSweep(removed, tracked)
				pruned := 0
				if stats.prune != nil {
					now := time.Now()
					pruned = stats.prune(func(id string) bool {
						_, ok := limiter.Peek(id, now)
						return ok
					})
				}
				if removed > 0 || pruned > 0 {
					logger.Debug("Swept expired rate limit records",
						zap.Int("removed", removed),
						zap.Int("tracked", tracked),
						zap.Int("stats_clients_pruned", pruned))
				}
			},
		}
		go janitor.Run(ctx)

		if db != nil && cfg.Cache.PurgeInterval > 0 {
			go purgeGenerations(ctx, db, cfg.Cache.PurgeInterval)
		}

		// Shutdown handlers run LIFO: HTTP server first, then the background
		// workers and backends, then the logger flush.
		signals.OnShutdown(func(ctx context.Context) error {
			logger.Info("Flushing logger...")
			if err := logger.Sync(); err != nil {
				logger.Warn("Logger sync returned error (may be benign)", zap.Error(err))
			}
			return nil
		})

		signals.OnShutdown(func(ctx context.Context) error {
			cancel()
			closeTrace()
			if stats.close != nil {
				if err := stats.close(); err != nil {
					logger.Warn("Closing stats backend failed", zap.Error(err))
				}
			}
			if db != nil {
				if err := db.Close(); err != nil {
					logger.Warn("Closing store failed", zap.Error(err))
				}
			}
			if err := observability.StopMetrics(); err != nil {
				logger.Warn("Stopping metrics exporter failed", zap.Error(err))
			}
			return nil
		})

		signals.OnShutdown(func(ctx context.Context) error {
			logger.Info("Shutting down HTTP server...")
			shutdownCtx, cancelShutdown := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
			defer cancelShutdown()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				return errwrap.WrapInternal(ctx, err, "server shutdown failed")
			}

			logger.Info("HTTP server stopped gracefully")
			return nil
		})

		signals.OnReload(func(ctx context.Context) error {
			logger.Info("Received SIGHUP: re-reading config file")
			if err := viper.ReadInConfig(); err != nil {
				var notFound viper.ConfigFileNotFoundError
				if errors.As(err, &notFound) {
					logger.Info("No config file found - using defaults and environment variables")
					return nil
				}
				logger.Error("Failed to reload config file",
					zap.String("file", viper.ConfigFileUsed()),
					zap.Error(err))
				return errwrap.WrapConfigInvalid(ctx, err, "config reload failed")
			}
			logger.Info("Configuration re-read; restart to apply server and limiter changes",
				zap.String("file", viper.ConfigFileUsed()))
			return nil
		})

		if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
			Window:  2 * time.Second,
			Message: "Press Ctrl+C again within 2 seconds to force quit",
		}); err != nil {
			logger.Warn("Failed to enable double-tap force quit", zap.Error(err))
		}

		metrics.SetServerStartTime(time.Now())

		errChan := make(chan error, 1)
		go func() {
			logger.Info("Starting HTTP server...", zap.String("addr", srv.Addr()))
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()

		go func() {
			if err := signals.Listen(cmd.Context()); err != nil {
				logger.Error("Signal handler error", zap.Error(err))
				errChan <- err
			}
		}()

		if err := <-errChan; err != nil {
			return errwrap.WrapInternal(ctx, err, "server error")
		}

		return nil
	},
}

// purgeGenerations drops expired cache rows on every tick until ctx ends.
func purgeGenerations(ctx context.Context, db *store.Store, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := db.PurgeExpiredGenerations(ctx, time.Now())
			if err != nil {
				observability.ServerLogger.Warn("Purging expired generations failed", zap.Error(err))
				continue
			}
			if removed > 0 {
				observability.ServerLogger.Debug("Purged expired generations", zap.Int64("removed", removed))
			}
		}
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "localhost", "server host")
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "server port")

	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}
