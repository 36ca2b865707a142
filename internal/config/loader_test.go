package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestViper(t *testing.T) *viper.Viper {
	t.Helper()
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv(OpenAIKeyEnv, "")
	v := viper.New()
	SetDefaults(v)
	BindEnv(v)
	return v
}

func TestLoad(t *testing.T) {
	t.Run("LoadDefaults", func(t *testing.T) {
		v := newTestViper(t)

		cfg, err := Load(v)
		require.NoError(t, err)
		require.NotNil(t, cfg)

		// Verify server defaults
		assert.Equal(t, "localhost", cfg.Server.Host)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
		assert.Equal(t, 90*time.Second, cfg.Server.WriteTimeout)
		assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
		assert.False(t, cfg.Server.TrustProxy)
		assert.Empty(t, cfg.Server.CORSOrigins)

		// Verify limiter defaults
		assert.Equal(t, 5*time.Minute, cfg.RateLimit.Window)
		assert.Equal(t, 10, cfg.RateLimit.MaxRequests)
		assert.Equal(t, 32, cfg.RateLimit.Shards)
		assert.Equal(t, "memory", cfg.RateLimit.Stats.Backend)

		// Verify ailink defaults
		assert.Equal(t, "openai", cfg.AILink.Provider)
		assert.Equal(t, "gpt-4o-mini", cfg.AILink.Model)
		assert.InDelta(t, 0.4, cfg.AILink.Temperature, 0.0001)
		assert.Equal(t, 60*time.Second, cfg.AILink.Timeout)
		assert.True(t, cfg.AILink.StructuredOutput)
		assert.Empty(t, cfg.AILink.APIKey)

		// Verify store defaults
		assert.Equal(t, "libsql", cfg.Store.Driver)
		expectedStorePath := filepath.Join(gfconfig.GetAppDataDir(AppName), AppName+".db")
		assert.Equal(t, expectedStorePath, cfg.Store.Path)

		assert.True(t, cfg.Cache.Enabled)
		assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
		assert.Equal(t, "info", cfg.Logging.Level)
		assert.Equal(t, 9090, cfg.Metrics.Port)

		assert.Same(t, cfg, GetConfig())
	})

	t.Run("NestedEnvironmentVariables", func(t *testing.T) {
		v := newTestViper(t)
		t.Setenv("RESUMEFORGE_RATELIMIT_WINDOW", "90s")
		t.Setenv("RESUMEFORGE_AILINK_MODEL", "gpt-4o")

		cfg, err := Load(v)
		require.NoError(t, err)
		assert.Equal(t, 90*time.Second, cfg.RateLimit.Window)
		assert.Equal(t, "gpt-4o", cfg.AILink.Model)
	})

	t.Run("ShortAliases", func(t *testing.T) {
		v := newTestViper(t)
		t.Setenv("RESUMEFORGE_PORT", "9999")
		t.Setenv("RESUMEFORGE_RATE_MAX_REQUESTS", "3")
		t.Setenv("RESUMEFORGE_DB_PATH", "/tmp/alias.db")
		t.Setenv("RESUMEFORGE_CORS_ORIGINS", "https://a.example, https://b.example")

		cfg, err := Load(v)
		require.NoError(t, err)
		assert.Equal(t, 9999, cfg.Server.Port)
		assert.Equal(t, 3, cfg.RateLimit.MaxRequests)
		assert.Equal(t, "/tmp/alias.db", cfg.Store.Path)
		assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	})

	t.Run("OpenAIKeyFallback", func(t *testing.T) {
		v := newTestViper(t)
		t.Setenv(OpenAIKeyEnv, " sk-fallback ")

		cfg, err := Load(v)
		require.NoError(t, err)
		assert.Equal(t, "sk-fallback", cfg.AILink.APIKey)
	})

	t.Run("ExplicitKeyWins", func(t *testing.T) {
		v := newTestViper(t)
		t.Setenv(OpenAIKeyEnv, "sk-fallback")
		t.Setenv("RESUMEFORGE_AILINK_API_KEY", "sk-explicit")

		cfg, err := Load(v)
		require.NoError(t, err)
		assert.Equal(t, "sk-explicit", cfg.AILink.APIKey)
	})

	t.Run("ConfigFile", func(t *testing.T) {
		v := newTestViper(t)
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("ratelimit:\n  window: 1m\n  max_requests: 2\nserver:\n  trust_proxy: true\n"), 0o600))
		v.SetConfigFile(path)
		require.NoError(t, v.ReadInConfig())

		cfg, err := Load(v)
		require.NoError(t, err)
		assert.Equal(t, time.Minute, cfg.RateLimit.Window)
		assert.Equal(t, 2, cfg.RateLimit.MaxRequests)
		assert.True(t, cfg.Server.TrustProxy)

		lc := cfg.RateLimit.Limiter()
		assert.Equal(t, time.Minute, lc.Window)
		assert.Equal(t, 2, lc.MaxRequests)
	})
}

func TestValidate(t *testing.T) {
	v := newTestViper(t)
	cfg, err := Load(v)
	require.NoError(t, err)

	bad := *cfg
	bad.RateLimit.MaxRequests = 0
	require.ErrorContains(t, bad.Validate(), "ratelimit.max_requests")

	bad = *cfg
	bad.RateLimit.Window = 0
	require.ErrorContains(t, bad.Validate(), "ratelimit.window")

	bad = *cfg
	bad.RateLimit.Stats.Backend = "redis"
	require.ErrorContains(t, bad.Validate(), "redis_url")

	bad = *cfg
	bad.RateLimit.Stats.Backend = "etcd"
	require.ErrorContains(t, bad.Validate(), "unknown ratelimit.stats.backend")

	bad = *cfg
	bad.AILink.Temperature = 3
	require.ErrorContains(t, bad.Validate(), "ailink.temperature")
}

func TestLoadRejectsInvalidEnv(t *testing.T) {
	v := newTestViper(t)
	t.Setenv("RESUMEFORGE_RATELIMIT_MAX_REQUESTS", "0")

	_, err := Load(v)
	require.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("RESUMEFORGE_TEST_DOTENV=from-file\nRESUMEFORGE_TEST_PRESET=from-file\n"), 0o600))

	t.Setenv("RESUMEFORGE_TEST_PRESET", "from-env")
	t.Cleanup(func() { _ = os.Unsetenv("RESUMEFORGE_TEST_DOTENV") })

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), path))
	assert.Equal(t, "from-file", os.Getenv("RESUMEFORGE_TEST_DOTENV"))
	assert.Equal(t, "from-env", os.Getenv("RESUMEFORGE_TEST_PRESET"))
}

func TestDefaultPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	assert.Equal(t, filepath.Join(gfconfig.GetAppConfigDir(AppName), "config.yaml"), DefaultConfigPath())
	assert.NotEmpty(t, DefaultDataDir())
	assert.NotEmpty(t, DefaultCacheDir())
}
