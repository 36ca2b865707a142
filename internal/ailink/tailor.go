package ailink

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/resumeforge/resumeforge/internal/ailink/content"
	"github.com/resumeforge/resumeforge/internal/ailink/driver"
	"github.com/resumeforge/resumeforge/internal/ailink/prompt"
	"github.com/resumeforge/resumeforge/internal/metrics"
	"github.com/resumeforge/resumeforge/internal/observability"
	"github.com/resumeforge/resumeforge/internal/resume"
)

// Cache stores validated generations keyed by CacheKey.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key, promptSlug, model string, payload []byte) error
}

// Service turns a resume and job description into a tailored structured resume.
type Service struct {
	cfg     Config
	driver  driver.Driver
	prompts prompt.Registry
	cache   Cache
	pacer   *rate.Limiter
	group   singleflight.Group
}

// Option configures a Service.
type Option func(*Service)

// WithCache enables the generation cache.
func WithCache(c Cache) Option {
	return func(s *Service) { s.cache = c }
}

// NewService wires a driver and prompt registry. Outbound pacing is enabled
// when cfg.RequestsPerSecond is positive.
func NewService(cfg Config, drv driver.Driver, prompts prompt.Registry, opts ...Option) *Service {
	cfg = cfg.WithDefaults()
	s := &Service{cfg: cfg, driver: drv, prompts: prompts}
	if cfg.RequestsPerSecond > 0 {
		s.pacer = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the effective configuration.
func (s *Service) Config() Config {
	return s.cfg
}

// CacheKey derives the generation cache key.
func CacheKey(promptSlug, model, resumeText, jobDescription string) string {
	h := sha256.New()
	for _, part := range []string{promptSlug, model, resumeText, jobDescription} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Tailor runs one generation. Identical concurrent requests share a single
// provider call; a cached result is returned without calling the provider.
func (s *Service) Tailor(ctx context.Context, req TailorRequest) (*TailorResult, error) {
	if s == nil || s.driver == nil {
		return nil, errors.New("ailink driver not configured")
	}
	if s.prompts == nil {
		return nil, errors.New("ailink prompt registry not configured")
	}

	resumeText := strings.TrimSpace(req.ResumeText)
	jobDescription := strings.TrimSpace(req.JobDescription)
	if resumeText == "" || jobDescription == "" {
		return nil, ErrMissingInput
	}
	if !s.cfg.HasAPIKey() {
		return nil, ErrMissingAPIKey
	}

	slug := strings.TrimSpace(s.cfg.Prompt)
	if slug == "" {
		slug = prompt.TailorSlug
	}
	promptDef, err := s.prompts.Get(slug)
	if err != nil {
		return nil, err
	}

	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = s.cfg.Model
	}

	key := CacheKey(slug, model, resumeText, jobDescription)
	if cached := s.lookup(ctx, key, model); cached != nil {
		return cached, nil
	}

	// The shared call is detached from any single caller so one client
	// disconnecting does not fail the others waiting on it.
	detached := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		return s.generate(detached, promptDef, model, key, resumeText, jobDescription)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		shared := res.Val.(*TailorResult)
		out := *shared
		return &out, nil
	}
}

func (s *Service) lookup(ctx context.Context, key, model string) *TailorResult {
	if s.cache == nil {
		return nil
	}
	payload, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		logWarn("generation cache lookup failed", zap.Error(err))
		return nil
	}
	metrics.RecordGenerationCache(ok)
	if !ok {
		return nil
	}
	parsed, err := resume.Decode(payload)
	if err != nil {
		logWarn("discarding undecodable cached generation", zap.String("key", key), zap.Error(err))
		return nil
	}
	return &TailorResult{Resume: parsed, Raw: json.RawMessage(payload), Model: model, Cached: true}
}

func (s *Service) generate(ctx context.Context, def *prompt.Prompt, model, key, resumeText, jobDescription string) (result *TailorResult, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = ClassifyError(err).Code
		}
		metrics.RecordGeneration(s.driver.Name(), model, outcome, time.Since(start))
	}()

	if s.pacer != nil {
		if err := s.pacer.Wait(ctx); err != nil {
			// rate.Limiter reports a wait longer than the deadline without
			// waiting, so surface it as the deadline it would have hit.
			if ctx.Err() == nil {
				return nil, fmt.Errorf("provider pacing: %w", context.DeadlineExceeded)
			}
			return nil, fmt.Errorf("provider pacing: %w", ctx.Err())
		}
	}

	system, user, err := def.Render(map[string]string{
		"resume":          resumeText,
		"job_description": jobDescription,
	})
	if err != nil {
		return nil, err
	}

	temperature := s.cfg.Temperature
	if def.Config.Temperature != nil {
		temperature = *def.Config.Temperature
	}

	driverReq := &driver.Request{
		Model: model,
		Messages: []content.Message{
			content.Text("system", system),
			content.Text("user", user),
		},
		ResponseFormat: responseFormatFor(s.driver, s.cfg.StructuredOutput, def.Config.Slug),
		Temperature:    &temperature,
		PromptSlug:     def.Config.Slug,
	}
	if s.cfg.MaxTokens > 0 {
		maxTokens := s.cfg.MaxTokens
		driverReq.MaxTokens = &maxTokens
	}

	resp, err := s.driver.Complete(ctx, driverReq)
	if err != nil && isUnsupportedSchemaError(err) {
		logWarn("provider rejected json_schema output, retrying with json_object", zap.String("model", model))
		fallbackToJSONObject(driverReq)
		resp, err = s.driver.Complete(ctx, driverReq)
	}
	if err != nil {
		return nil, classifyDriverError(err)
	}

	raw := strings.TrimSpace(resp.Text())
	if raw == "" {
		return nil, ErrEmptyResponse
	}

	if !json.Valid([]byte(raw)) {
		return nil, &RawResponseError{
			Err: errors.New("decode response: invalid JSON"),
			Raw: truncateRaw([]byte(raw), s.cfg.RawMaxBytes),
		}
	}
	if err := resume.Validate([]byte(raw)); err != nil {
		return nil, &RawResponseError{Err: err, Raw: truncateRaw([]byte(raw), s.cfg.RawMaxBytes)}
	}
	parsed, err := resume.Decode([]byte(raw))
	if err != nil {
		return nil, &RawResponseError{Err: err, Raw: truncateRaw([]byte(raw), s.cfg.RawMaxBytes)}
	}

	normalized, err := json.Marshal(parsed)
	if err != nil {
		return nil, fmt.Errorf("encode resume: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, key, def.Config.Slug, model, normalized); err != nil {
			logWarn("generation cache store failed", zap.Error(err))
		}
	}

	return &TailorResult{
		Resume: parsed,
		Raw:    json.RawMessage(normalized),
		Model:  model,
		Usage:  resp.Usage,
	}, nil
}

// classifyDriverError keeps provider and context errors intact and marks the
// rest as transport failures.
func classifyDriverError(err error) error {
	var perr *driver.ProviderError
	switch {
	case errors.As(err, &perr):
		return err
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return err
	default:
		return &transportError{err: err}
	}
}

func logWarn(msg string, fields ...zap.Field) {
	if logger := observability.Logger(); logger != nil {
		logger.Warn(msg, fields...)
	}
}
