// Package config provides centralized configuration management for resumeforge.
//
// Defaults are registered on a viper instance, overlaid by an optional YAML
// file, a .env file, environment variables and bound flags, then decoded into
// the typed Config with mapstructure hooks.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// AppName names the XDG directories and the default database file.
	AppName = "resumeforge"

	// EnvPrefix prefixes every environment variable.
	EnvPrefix = "RESUMEFORGE"

	// OpenAIKeyEnv is honoured when ailink.api_key is not set.
	OpenAIKeyEnv = "OPENAI_API_KEY"
)

var (
	// appConfig holds the current application configuration
	appConfig *Config
	configMu  sync.RWMutex
)

// EnvVarSpec defines environment variable mappings for config fields
type EnvVarSpec = gfconfig.EnvVarSpec

// Environment variable types
const (
	EnvString = gfconfig.EnvString
	EnvInt    = gfconfig.EnvInt
	EnvBool   = gfconfig.EnvBool
)

// SetDefaults registers default configuration values.
func SetDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "90s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.trust_proxy", false)
	v.SetDefault("server.cors_origins", []string{})
	v.SetDefault("server.max_body_bytes", 1<<20)

	// Rate limit defaults
	v.SetDefault("ratelimit.window", "5m")
	v.SetDefault("ratelimit.max_requests", 10)
	v.SetDefault("ratelimit.shards", 32)
	v.SetDefault("ratelimit.sweep_interval", "5m")
	v.SetDefault("ratelimit.sweep_after_windows", 2)
	v.SetDefault("ratelimit.stats.backend", "memory")
	v.SetDefault("ratelimit.stats.redis_url", "")
	v.SetDefault("ratelimit.stats.prefix", "resumeforge:ratelimit:stats")
	v.SetDefault("ratelimit.stats.ttl", "24h")
	v.SetDefault("ratelimit.stats.bucket", "minute")
	v.SetDefault("ratelimit.stats.track_clients", false)
	v.SetDefault("ratelimit.stats.max_clients", 10000)

	// AILink defaults
	v.SetDefault("ailink.provider", "openai")
	v.SetDefault("ailink.base_url", "")
	v.SetDefault("ailink.api_key", "")
	v.SetDefault("ailink.model", "gpt-4o-mini")
	v.SetDefault("ailink.temperature", 0.4)
	v.SetDefault("ailink.max_tokens", 0)
	v.SetDefault("ailink.timeout", "60s")
	v.SetDefault("ailink.requests_per_second", 2.0)
	v.SetDefault("ailink.burst", 4)
	v.SetDefault("ailink.prompt", "resume-tailor")
	v.SetDefault("ailink.prompts_dir", "")
	v.SetDefault("ailink.structured_output", true)
	v.SetDefault("ailink.raw_max_bytes", 16384)

	// Store defaults
	v.SetDefault("store.driver", "libsql")
	v.SetDefault("store.path", DefaultStorePath())
	v.SetDefault("store.url", "")
	v.SetDefault("store.auth_token", "")

	// Cache defaults
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.purge_interval", "1h")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.profile", "structured")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)

	// Health check defaults
	v.SetDefault("health.enabled", true)
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment without overriding variables that are already set. Missing
// files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("stat %s: %w", path, err)
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// BindEnv enables RESUMEFORGE_SECTION_KEY lookups for every key viper knows.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load decodes the viper state into a Config, applying short environment
// aliases (RESUMEFORGE_PORT, RESUMEFORGE_DB_PATH, ...) and the OPENAI_API_KEY
// fallback. The result becomes the current config.
func Load(v *viper.Viper) (*Config, error) {
	if v == nil {
		v = viper.GetViper()
	}

	envOverrides, err := gfconfig.LoadEnvOverrides(getEnvSpecs())
	if err != nil {
		return nil, fmt.Errorf("failed to load environment overrides: %w", err)
	}

	settings := v.AllSettings()
	mergeMaps(settings, envOverrides)

	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.StringToFloat64HookFunc(),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if strings.TrimSpace(cfg.AILink.APIKey) == "" {
		cfg.AILink.APIKey = strings.TrimSpace(os.Getenv(OpenAIKeyEnv))
	}
	if strings.TrimSpace(cfg.Store.URL) == "" && strings.TrimSpace(cfg.Store.Path) == "" {
		cfg.Store.Path = DefaultStorePath()
	}
	cfg.Server.CORSOrigins = compactStrings(cfg.Server.CORSOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	setConfig(cfg)
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	var problems []string
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.MaxBodyBytes <= 0 {
		problems = append(problems, "server.max_body_bytes must be positive")
	}
	if c.RateLimit.Window <= 0 {
		problems = append(problems, "ratelimit.window must be positive")
	}
	if c.RateLimit.MaxRequests <= 0 {
		problems = append(problems, "ratelimit.max_requests must be positive")
	}
	switch strings.ToLower(strings.TrimSpace(c.RateLimit.Stats.Backend)) {
	case "", "none", "memory":
	case "redis":
		if strings.TrimSpace(c.RateLimit.Stats.RedisURL) == "" {
			problems = append(problems, "ratelimit.stats.redis_url is required for the redis backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown ratelimit.stats.backend %q", c.RateLimit.Stats.Backend))
	}
	if c.AILink.Temperature < 0 || c.AILink.Temperature > 2 {
		problems = append(problems, "ailink.temperature must be between 0 and 2")
	}
	if c.AILink.RequestsPerSecond < 0 {
		problems = append(problems, "ailink.requests_per_second must not be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// GetConfig returns the current application configuration (thread-safe)
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

// setConfig updates the current configuration (thread-safe)
func setConfig(cfg *Config) {
	configMu.Lock()
	defer configMu.Unlock()
	appConfig = cfg
}

// getEnvSpecs returns short environment aliases for frequently set keys.
func getEnvSpecs() []EnvVarSpec {
	prefix := EnvPrefix + "_"

	return []EnvVarSpec{
		// Server config
		{Name: prefix + "HOST", Path: []string{"server", "host"}, Type: EnvString},
		{Name: prefix + "PORT", Path: []string{"server", "port"}, Type: EnvInt},
		{Name: prefix + "TRUST_PROXY", Path: []string{"server", "trust_proxy"}, Type: EnvBool},
		{Name: prefix + "CORS_ORIGINS", Path: []string{"server", "cors_origins"}, Type: EnvString},

		// Logging config
		{Name: prefix + "LOG_LEVEL", Path: []string{"logging", "level"}, Type: EnvString},
		{Name: prefix + "LOG_PROFILE", Path: []string{"logging", "profile"}, Type: EnvString},

		// Store config
		{Name: prefix + "DB_DRIVER", Path: []string{"store", "driver"}, Type: EnvString},
		{Name: prefix + "DB_PATH", Path: []string{"store", "path"}, Type: EnvString},
		{Name: prefix + "DB_URL", Path: []string{"store", "url"}, Type: EnvString},
		{Name: prefix + "DB_AUTH_TOKEN", Path: []string{"store", "auth_token"}, Type: EnvString},

		// Limiter config
		{Name: prefix + "RATE_WINDOW", Path: []string{"ratelimit", "window"}, Type: EnvString},
		{Name: prefix + "RATE_MAX_REQUESTS", Path: []string{"ratelimit", "max_requests"}, Type: EnvInt},
		{Name: prefix + "REDIS_URL", Path: []string{"ratelimit", "stats", "redis_url"}, Type: EnvString},

		// Metrics config
		{Name: prefix + "METRICS_ENABLED", Path: []string{"metrics", "enabled"}, Type: EnvBool},
		{Name: prefix + "METRICS_PORT", Path: []string{"metrics", "port"}, Type: EnvInt},
	}
}

// DefaultConfigPath returns the XDG-compliant path to the user config file.
func DefaultConfigPath() string {
	configDir := gfconfig.GetAppConfigDir(AppName)
	if strings.TrimSpace(configDir) == "" {
		return ""
	}
	return filepath.Join(configDir, "config.yaml")
}

// DefaultDataDir returns the XDG-compliant data directory for the app.
func DefaultDataDir() string {
	return gfconfig.GetAppDataDir(AppName)
}

// DefaultCacheDir returns the XDG-compliant cache directory for the app.
func DefaultCacheDir() string {
	return gfconfig.GetAppCacheDir(AppName)
}

// DefaultStorePath returns the XDG-compliant path to the database file.
func DefaultStorePath() string {
	dataDir := gfconfig.GetAppDataDir(AppName)
	if strings.TrimSpace(dataDir) == "" {
		return "./" + AppName + ".db"
	}
	return filepath.Join(dataDir, AppName+".db")
}

// mergeMaps deep-merges src into dst. Keys are lower-cased to match viper.
func mergeMaps(dst, src map[string]any) {
	for key, value := range src {
		key = strings.ToLower(key)
		srcMap, srcIsMap := value.(map[string]any)
		if !srcIsMap {
			dst[key] = value
			continue
		}
		dstMap, ok := dst[key].(map[string]any)
		if !ok {
			dstMap = map[string]any{}
			dst[key] = dstMap
		}
		mergeMaps(dstMap, srcMap)
	}
}

func compactStrings(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
