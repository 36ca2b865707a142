package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/ascii"
	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/resumeforge/resumeforge/internal/ailink"
	"github.com/resumeforge/resumeforge/internal/config"
	"github.com/resumeforge/resumeforge/internal/observability"
	"github.com/resumeforge/resumeforge/internal/ratelimit"
)

// doctorCheck is one diagnostic line. A warning does not fail the run.
type doctorCheck struct {
	name   string
	ok     bool
	warn   bool
	detail string
}

func (c doctorCheck) symbol() string {
	switch {
	case c.ok:
		return "✅"
	case c.warn:
		return "⚠️ "
	default:
		return "❌"
	}
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks",
	Long:  "Run diagnostic checks on the configuration, database, AI provider and rate limiter.",
	RunE: func(cmd *cobra.Command, args []string) error {
		checks := runDoctorChecks(cmd.Context())

		failed := 0
		lines := make([]string, 0, len(checks)+2)
		for i, c := range checks {
			line := fmt.Sprintf("[%d/%d] %-14s %s %s", i+1, len(checks), c.name, c.symbol(), c.detail)
			lines = append(lines, line)
			if !c.ok && !c.warn {
				failed++
			}
		}
		lines = append(lines, "")
		if failed == 0 {
			lines = append(lines, fmt.Sprintf("All checks passed. Your %s installation is healthy.", config.AppName))
		} else {
			lines = append(lines, fmt.Sprintf("%d check(s) failed. Review the output above for details.", failed))
		}

		_, _ = fmt.Fprint(cmd.OutOrStdout(), ascii.DrawBox(strings.Join(lines, "\n"), 0))
		if failed > 0 {
			return fmt.Errorf("%d doctor check(s) failed", failed)
		}
		return nil
	},
}

func runDoctorChecks(ctx context.Context) []doctorCheck {
	var checks []doctorCheck

	goVersion := runtime.Version()
	checks = append(checks, doctorCheck{name: "go", ok: true, detail: goVersion + " " + runtime.GOOS + "/" + runtime.GOARCH})

	version := crucible.GetVersion()
	checks = append(checks, doctorCheck{
		name:   "gofulmen",
		ok:     version.Gofulmen != "",
		detail: fmt.Sprintf("gofulmen %s, crucible %s", version.Gofulmen, version.Crucible),
	})

	configPath := config.DefaultConfigPath()
	switch {
	case configPath == "":
		checks = append(checks, doctorCheck{name: "config file", warn: true, detail: "config directory not resolved"})
	case fileExists(configPath):
		checks = append(checks, doctorCheck{name: "config file", ok: true, detail: configPath})
	default:
		checks = append(checks, doctorCheck{name: "config file", warn: true, detail: configPath + " (missing; run 'doctor init')"})
	}

	cfg, err := loadConfig()
	if err != nil {
		checks = append(checks, doctorCheck{name: "config", detail: err.Error()})
		return checks
	}
	checks = append(checks, doctorCheck{name: "config", ok: true, detail: "valid"})

	if cfg.Cache.Enabled {
		db, err := openStore(ctx, cfg.Store)
		if err != nil {
			checks = append(checks, doctorCheck{name: "database", detail: err.Error()})
		} else {
			_ = db.Close()
			checks = append(checks, doctorCheck{name: "database", ok: true, detail: describeStore(cfg.Store)})
		}
	} else {
		checks = append(checks, doctorCheck{name: "database", ok: true, detail: "generation cache disabled"})
	}

	switch {
	case !cfg.AILink.HasAPIKey():
		checks = append(checks, doctorCheck{name: "ai provider", detail: fmt.Sprintf("no API key (set %s or ailink.api_key)", config.OpenAIKeyEnv)})
	default:
		if _, err := ailink.NewDriver(cfg.AILink, ailink.DriverOptions{}); err != nil {
			checks = append(checks, doctorCheck{name: "ai provider", detail: fmt.Sprintf("%v (supported: %s)", err, strings.Join(ailink.SupportedProviders(), ", "))})
		} else {
			checks = append(checks, doctorCheck{name: "ai provider", ok: true, detail: fmt.Sprintf("%s, model %s", cfg.AILink.Provider, cfg.AILink.Model)})
		}
	}

	if _, err := ratelimit.New(cfg.RateLimit.Limiter()); err != nil {
		checks = append(checks, doctorCheck{name: "rate limiter", detail: err.Error()})
	} else {
		checks = append(checks, doctorCheck{
			name:   "rate limiter",
			ok:     true,
			detail: fmt.Sprintf("%d requests per %s per client", cfg.RateLimit.MaxRequests, cfg.RateLimit.Window),
		})
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	stats, err := newStatsBackend(pingCtx, cfg.RateLimit.Stats)
	if err != nil {
		checks = append(checks, doctorCheck{name: "stats backend", detail: err.Error()})
	} else {
		if stats.close != nil {
			_ = stats.close()
		}
		checks = append(checks, doctorCheck{name: "stats backend", ok: true, detail: cfg.RateLimit.Stats.Backend})
	}

	return checks
}

func describeStore(cfg config.StoreConfig) string {
	if strings.TrimSpace(cfg.URL) != "" {
		return "remote"
	}
	absPath, _ := filepath.Abs(cfg.Path)
	if info, err := os.Stat(absPath); err == nil {
		return fmt.Sprintf("%s (%s)", absPath, formatFileSize(info.Size()))
	}
	return absPath
}

var (
	doctorInitForce   bool
	doctorInitAPIKey  string
	doctorResetConfig bool
	doctorResetData   bool
	doctorResetAll    bool
)

var doctorInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := config.DefaultConfigPath()
		if configPath == "" {
			return fmt.Errorf("config path not resolved")
		}

		if _, err := os.Stat(configPath); err == nil && !doctorInitForce {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", configPath)
		}

		apiKey := strings.TrimSpace(doctorInitAPIKey)
		if strings.EqualFold(apiKey, "prompt") {
			key, err := promptForValue(cmd.InOrStdin(), cmd.OutOrStdout(), "Enter OpenAI API key (leave blank to skip): ")
			if err != nil {
				return err
			}
			apiKey = key
		}

		data, err := buildInitConfig(apiKey)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}

		mode := os.FileMode(0o644)
		if apiKey != "" {
			mode = 0o600
		}
		if err := os.WriteFile(configPath, data, mode); err != nil {
			return fmt.Errorf("write config file: %w", err)
		}

		observability.CLILogger.Info("Config initialized", zap.String("path", configPath))
		return nil
	},
}

var doctorConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show configuration status and paths",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := config.DefaultConfigPath()
		lines := []string{
			fmt.Sprintf("Config file:     %s (%s)", configPath, existenceStatus(fileExists(configPath))),
			fmt.Sprintf("Data directory:  %s (%s)", config.DefaultDataDir(), existenceStatus(fileExists(config.DefaultDataDir()))),
			fmt.Sprintf("Cache directory: %s (%s)", config.DefaultCacheDir(), existenceStatus(fileExists(config.DefaultCacheDir()))),
			"",
			fmt.Sprintf("%s: %s", config.OpenAIKeyEnv, envStatus(config.OpenAIKeyEnv)),
			fmt.Sprintf("%s_AILINK_API_KEY: %s", config.EnvPrefix, envStatus(config.EnvPrefix+"_AILINK_API_KEY")),
			fmt.Sprintf("%s: %s", AdminTokenEnv, envStatus(AdminTokenEnv)),
		}

		cfg, err := loadConfig()
		if err != nil {
			observability.CLILogger.Warn("Config load failed", zap.Error(err))
		} else {
			lines = append(lines,
				"",
				fmt.Sprintf("Listen:          %s:%d (trust_proxy=%t)", cfg.Server.Host, cfg.Server.Port, cfg.Server.TrustProxy),
				fmt.Sprintf("Rate limit:      %d per %s, stats=%s", cfg.RateLimit.MaxRequests, cfg.RateLimit.Window, cfg.RateLimit.Stats.Backend),
				fmt.Sprintf("AI provider:     %s / %s", cfg.AILink.Provider, cfg.AILink.Model),
				fmt.Sprintf("Database:        %s", describeStore(cfg.Store)),
				fmt.Sprintf("Cache:           enabled=%t ttl=%s", cfg.Cache.Enabled, cfg.Cache.TTL),
			)
		}

		_, _ = fmt.Fprint(cmd.OutOrStdout(), ascii.DrawBox(strings.Join(lines, "\n"), 0))
		return nil
	},
}

var doctorResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset user configuration and/or data",
	RunE: func(cmd *cobra.Command, args []string) error {
		if doctorResetAll {
			doctorResetConfig = true
			doctorResetData = true
		}

		if !doctorResetConfig && !doctorResetData {
			return fmt.Errorf("specify --config, --data, or --all")
		}

		if doctorResetConfig {
			configPath := config.DefaultConfigPath()
			if configPath == "" {
				observability.CLILogger.Warn("Config path not resolved; skipping config reset")
			} else if err := os.Remove(configPath); err == nil {
				observability.CLILogger.Info("Config removed", zap.String("path", configPath))
			} else if os.IsNotExist(err) {
				observability.CLILogger.Info("Config already removed", zap.String("path", configPath))
			} else {
				return fmt.Errorf("remove config file: %w", err)
			}
		}

		if doctorResetData {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.Store.URL != "" {
				return fmt.Errorf("remote store configured; database reset is not supported")
			}

			absPath, _ := filepath.Abs(cfg.Store.Path)
			if err := os.Remove(absPath); err == nil {
				observability.CLILogger.Info("Database removed", zap.String("path", absPath))
			} else if os.IsNotExist(err) {
				observability.CLILogger.Info("Database already removed", zap.String("path", absPath))
			} else {
				return fmt.Errorf("remove database: %w", err)
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.AddCommand(doctorInitCmd)
	doctorCmd.AddCommand(doctorConfigCmd)
	doctorCmd.AddCommand(doctorResetCmd)

	doctorInitCmd.Flags().BoolVar(&doctorInitForce, "force", false, "overwrite existing config file")
	doctorInitCmd.Flags().StringVar(&doctorInitAPIKey, "api-key", "", "set the AI provider API key or use 'prompt' to enter")

	doctorResetCmd.Flags().BoolVar(&doctorResetConfig, "config", false, "remove user config file")
	doctorResetCmd.Flags().BoolVar(&doctorResetData, "data", false, "remove local database")
	doctorResetCmd.Flags().BoolVar(&doctorResetAll, "all", false, "remove config and data")
}

// initConfigFile is the subset of settings 'doctor init' writes out.
type initConfigFile struct {
	Server struct {
		Host       string `yaml:"host"`
		Port       int    `yaml:"port"`
		TrustProxy bool   `yaml:"trust_proxy"`
	} `yaml:"server"`
	RateLimit struct {
		Window      string `yaml:"window"`
		MaxRequests int    `yaml:"max_requests"`
		Stats       struct {
			Backend string `yaml:"backend"`
		} `yaml:"stats"`
	} `yaml:"ratelimit"`
	AILink struct {
		Provider string `yaml:"provider"`
		Model    string `yaml:"model"`
		APIKey   string `yaml:"api_key,omitempty"`
	} `yaml:"ailink"`
	Cache struct {
		Enabled bool   `yaml:"enabled"`
		TTL     string `yaml:"ttl"`
	} `yaml:"cache"`
}

func buildInitConfig(apiKey string) ([]byte, error) {
	var file initConfigFile
	file.Server.Host = "localhost"
	file.Server.Port = 8080
	file.RateLimit.Window = ratelimit.DefaultWindow.String()
	file.RateLimit.MaxRequests = ratelimit.DefaultMaxRequests
	file.RateLimit.Stats.Backend = "memory"
	file.AILink.Provider = "openai"
	file.AILink.Model = ailink.DefaultModel
	file.AILink.APIKey = strings.TrimSpace(apiKey)
	file.Cache.Enabled = true
	file.Cache.TTL = (24 * time.Hour).String()

	data, err := yaml.Marshal(&file)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	header := fmt.Sprintf("# %s config - created by '%s doctor init'\n", config.AppName, config.AppName)
	if file.AILink.APIKey == "" {
		header += fmt.Sprintf("# Set the API key with %s or ailink.api_key.\n", config.OpenAIKeyEnv)
	}
	return append([]byte(header), data...), nil
}

func promptForValue(in io.Reader, out io.Writer, prompt string) (string, error) {
	if _, err := fmt.Fprint(out, prompt); err != nil {
		return "", err
	}
	value, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(value), nil
}

// formatFileSize returns a human-readable file size
func formatFileSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)
	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func existenceStatus(exists bool) string {
	if exists {
		return "exists"
	}
	return "missing"
}

func envStatus(name string) string {
	if strings.TrimSpace(os.Getenv(name)) != "" {
		return "(set)"
	}
	return "(not set)"
}
