package ailink

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/resumeforge/resumeforge/internal/ailink/driver"
	"github.com/resumeforge/resumeforge/internal/ailink/driver/openai"
)

// compatibleBaseURLs maps OpenAI-compatible providers to their default endpoint.
var compatibleBaseURLs = map[string]string{
	"openai": "",
	"xai":    "https://api.x.ai/v1",
}

// DriverOptions adjusts driver construction.
type DriverOptions struct {
	HTTPClient *http.Client
	Tracer     *driver.Tracer
}

// NewDriver builds the driver named by cfg.Provider.
func NewDriver(cfg Config, opts DriverOptions) (driver.Driver, error) {
	cfg = cfg.WithDefaults()

	providerType := strings.ToLower(strings.TrimSpace(cfg.Provider))
	defaultURL, ok := compatibleBaseURLs[providerType]
	if !ok {
		return nil, fmt.Errorf("unsupported ailink provider %q", cfg.Provider)
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultURL
	}

	client := openai.NewClient(baseURL, cfg.APIKey)
	client.Timeout = cfg.Timeout
	client.HTTPClient = opts.HTTPClient
	client.Tracer = opts.Tracer
	return client, nil
}

// SupportedProviders lists provider names accepted by NewDriver.
func SupportedProviders() []string {
	return []string{"openai", "xai"}
}
