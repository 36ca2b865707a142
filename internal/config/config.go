package config

import (
	"time"

	"github.com/resumeforge/resumeforge/internal/ailink"
	"github.com/resumeforge/resumeforge/internal/ratelimit"
)

// Config represents the complete application configuration. Values are
// layered as defaults < config file < .env/environment < flags.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	AILink    ailink.Config   `mapstructure:"ailink"`
	Store     StoreConfig     `mapstructure:"store"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Health    HealthConfig    `mapstructure:"health"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// TrustProxy derives client addresses from X-Forwarded-For / X-Real-IP.
	// Only enable behind a proxy that overwrites those headers.
	TrustProxy   bool     `mapstructure:"trust_proxy"`
	CORSOrigins  []string `mapstructure:"cors_origins"`
	MaxBodyBytes int64    `mapstructure:"max_body_bytes"`
}

// RateLimitConfig configures the generation endpoint limiter.
type RateLimitConfig struct {
	Window            time.Duration `mapstructure:"window"`
	MaxRequests       int           `mapstructure:"max_requests"`
	Shards            int           `mapstructure:"shards"`
	SweepInterval     time.Duration `mapstructure:"sweep_interval"`
	SweepAfterWindows int           `mapstructure:"sweep_after_windows"`
	Stats             StatsConfig   `mapstructure:"stats"`
}

// Limiter returns the limiter construction settings.
func (c RateLimitConfig) Limiter() ratelimit.Config {
	return ratelimit.Config{
		Window:            c.Window,
		MaxRequests:       c.MaxRequests,
		Shards:            c.Shards,
		SweepAfterWindows: c.SweepAfterWindows,
	}
}

// StatsConfig selects where admission decisions are counted.
// Backend is one of "none", "memory" or "redis".
type StatsConfig struct {
	Backend      string        `mapstructure:"backend"`
	RedisURL     string        `mapstructure:"redis_url"`
	Prefix       string        `mapstructure:"prefix"`
	TTL          time.Duration `mapstructure:"ttl"`
	Bucket       string        `mapstructure:"bucket"`
	TrackClients bool          `mapstructure:"track_clients"`
	// MaxClients caps per-client entries kept by the memory backend.
	MaxClients int `mapstructure:"max_clients"`
}

// StoreConfig contains database configuration for libsql/Turso
type StoreConfig struct {
	Driver    string `mapstructure:"driver"`
	Path      string `mapstructure:"path"`
	URL       string `mapstructure:"url"`
	AuthToken string `mapstructure:"auth_token"`
}

// CacheConfig controls the generation cache.
type CacheConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	TTL           time.Duration `mapstructure:"ttl"`
	PurgeInterval time.Duration `mapstructure:"purge_interval"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	// Level controls the minimum log level
	// Valid values: trace, debug, info, warn, error
	Level string `mapstructure:"level"`

	// Profile selects the logging complexity level
	// Valid values: SIMPLE, STRUCTURED
	Profile string `mapstructure:"profile"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	// Enabled controls whether metrics are exposed
	Enabled bool `mapstructure:"enabled"`

	// Port is the dedicated metrics endpoint port (Prometheus format)
	Port int `mapstructure:"port"`
}

// HealthConfig contains health check configuration
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
}
