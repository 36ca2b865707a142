package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/resumeforge/resumeforge/internal/ailink"
	apperrors "github.com/resumeforge/resumeforge/internal/errors"
	"github.com/resumeforge/resumeforge/internal/metrics"
	"github.com/resumeforge/resumeforge/internal/observability"
	"github.com/resumeforge/resumeforge/internal/ratelimit"
	"github.com/resumeforge/resumeforge/internal/resume"
)

// DefaultMaxBodyBytes caps request bodies when no limit is configured.
const DefaultMaxBodyBytes = 1 << 20

// Tailorer produces a tailored resume.
type Tailorer interface {
	Tailor(ctx context.Context, req ailink.TailorRequest) (*ailink.TailorResult, error)
}

// GenerateRequest is the body of POST /api/generate.
type GenerateRequest struct {
	ResumeText     string `json:"resumeText"`
	JobDescription string `json:"jobDescription"`
}

// GenerateResponse is returned for an admitted, successful generation.
type GenerateResponse struct {
	Resume *resume.Resume `json:"resume"`
	Cached bool           `json:"cached"`
	Model  string         `json:"model"`
}

// GenerateHandler guards the tailoring service with the per-client limiter.
// Admission is decided before the body is read, so rejected requests never
// reach the provider.
type GenerateHandler struct {
	Limiter      *ratelimit.Limiter
	Stats        ratelimit.StatsRecorder
	Service      Tailorer
	Clock        func() time.Time
	MaxBodyBytes int64
}

func (h *GenerateHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock()
	}
	return time.Now()
}

func (h *GenerateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Limiter == nil || h.Service == nil {
		respondWithError(w, r, apperrors.NewServiceUnavailableError("Generation is not configured."))
		return
	}

	identifier := ratelimit.ClientIdentifier(r)
	now := h.now()
	decision := h.Limiter.Admit(identifier, now)
	h.record(r, identifier, decision, now)

	if !decision.Admitted {
		respondRateLimited(w, r, identifier, decision)
		return
	}

	var body GenerateRequest
	if env := decodeJSONBody(w, r, h.MaxBodyBytes, &body); env != nil {
		respondWithError(w, r, env)
		return
	}

	result, err := h.Service.Tailor(r.Context(), ailink.TailorRequest{
		ResumeText:     body.ResumeText,
		JobDescription: body.JobDescription,
	})
	if err != nil {
		respondWithError(w, r, failureEnvelope(r.Context(), err))
		return
	}

	writeJSON(w, http.StatusOK, GenerateResponse{
		Resume: result.Resume,
		Cached: result.Cached,
		Model:  result.Model,
	})
}

func (h *GenerateHandler) record(r *http.Request, identifier string, decision ratelimit.Decision, now time.Time) {
	metrics.RecordRateLimitDecision(r.URL.Path, decision.Admitted)

	if h.Stats == nil {
		return
	}
	// Record must not block; server.New wraps Stats in a ratelimit.AsyncStats.
	err := h.Stats.Record(r.Context(), ratelimit.StatsEvent{
		Identifier: identifier,
		Admitted:   decision.Admitted,
		Method:     r.Method,
		Path:       r.URL.Path,
		At:         now,
	})
	if err != nil {
		if logger := observability.ServerLogger; logger != nil {
			logger.Debug("rate limit stats event dropped", zap.Error(err))
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
