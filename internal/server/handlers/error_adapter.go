package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/resumeforge/resumeforge/internal/ailink"
	apperrors "github.com/resumeforge/resumeforge/internal/errors"
	"github.com/resumeforge/resumeforge/internal/observability"
	"github.com/resumeforge/resumeforge/internal/ratelimit"
)

// respondWithError writes err as the API envelope. Plain errors become
// INTERNAL_ERROR.
func respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	apperrors.RespondWithError(w, r, err)
}

// respondRateLimited rejects a request the limiter refused. The reply carries
// Retry-After and the window reset time, and never touches the request body.
func respondRateLimited(w http.ResponseWriter, r *http.Request, identifier string, decision ratelimit.Decision) {
	if logger := observability.ServerLogger; logger != nil {
		logger.Info("generation request rate limited",
			zap.String("client", identifier),
			zap.Int64("retry_after_ms", decision.RetryAfterMillis()))
	}
	apperrors.RespondWithError(w, r, apperrors.NewRateLimitError(decision))
}

// failureEnvelope converts a tailoring error into the API envelope. Provider
// failures keep their classified code; anything unclassified is hidden behind
// a generic 500.
func failureEnvelope(ctx context.Context, err error) error {
	f := ailink.ClassifyError(err)
	if f == nil {
		return apperrors.NewInternalError("Internal Server Error. Please try again later.")
	}
	return apperrors.WrapCode(ctx, f.Code, err, f.Message, f.Details)
}

// decodeJSONBody reads one JSON object from the request body. It returns an
// envelope describing the problem, or nil on success.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, limit int64, dst any) error {
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return apperrors.NewPayloadTooLargeError("Request body is too large.")
		case errors.Is(err, io.EOF):
			return apperrors.WrapInvalidInput(r.Context(), err, "Request body is required.")
		default:
			return apperrors.WrapInvalidInput(r.Context(), err, "Request body must be a JSON object.")
		}
	}
	return nil
}
