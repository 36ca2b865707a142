package ailink

import (
	"strings"
	"time"
)

const (
	DefaultProvider    = "openai"
	DefaultModel       = "gpt-4o-mini"
	DefaultTemperature = 0.4
	DefaultTimeout     = 60 * time.Second
	maxTimeout         = 5 * time.Minute
)

// Config defines provider configuration for AILink.
type Config struct {
	// Provider selects the driver: "openai" or any OpenAI-compatible
	// endpoint such as "xai" (with BaseURL set accordingly).
	Provider    string        `mapstructure:"provider"`
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`

	// RequestsPerSecond paces outbound provider calls; zero disables pacing.
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`

	// Prompt is the slug of the tailoring prompt. PromptsDir may override
	// embedded prompts by slug.
	Prompt     string `mapstructure:"prompt"`
	PromptsDir string `mapstructure:"prompts_dir"`

	// StructuredOutput requests strict json_schema output from providers
	// that support it.
	StructuredOutput bool `mapstructure:"structured_output"`

	// RawMaxBytes caps the raw model text attached to decode failures.
	RawMaxBytes int `mapstructure:"raw_max_bytes"`
}

// WithDefaults fills unset fields.
func (c Config) WithDefaults() Config {
	if strings.TrimSpace(c.Provider) == "" {
		c.Provider = DefaultProvider
	}
	if strings.TrimSpace(c.Model) == "" {
		c.Model = DefaultModel
	}
	if c.Temperature <= 0 {
		c.Temperature = DefaultTemperature
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Timeout > maxTimeout {
		c.Timeout = maxTimeout
	}
	if c.Burst <= 0 {
		c.Burst = 1
	}
	if c.RawMaxBytes <= 0 {
		c.RawMaxBytes = 16 << 10
	}
	c.APIKey = strings.TrimSpace(c.APIKey)
	return c
}

// HasAPIKey reports whether a provider credential is configured.
func (c Config) HasAPIKey() bool {
	return strings.TrimSpace(c.APIKey) != ""
}
