package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/resumeforge/resumeforge/internal/ratelimit"
)

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) HTTPErrorResponse {
	t.Helper()
	var body HTTPErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHTTPStatusFromCode(t *testing.T) {
	cases := map[string]int{
		CodeInvalidInput:      http.StatusBadRequest,
		CodeRateLimitExceeded: http.StatusTooManyRequests,
		CodePayloadTooLarge:   http.StatusRequestEntityTooLarge,
		CodeTimeout:           http.StatusGatewayTimeout,
		CodeExternalService:   http.StatusBadGateway,
		CodeConfigInvalid:     http.StatusInternalServerError,
		CodeInternal:          http.StatusInternalServerError,
		"SOMETHING_ELSE":      http.StatusInternalServerError,
	}
	for code, want := range cases {
		require.Equal(t, want, HTTPStatusFromCode(code), code)
	}
}

func TestRespondWithRateLimitError(t *testing.T) {
	decision := ratelimit.Decision{Admitted: false, RetryAfter: 90*time.Second + 200*time.Millisecond}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/generate", nil)

	RespondWithEnvelope(rec, req, NewRateLimitError(decision))

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "91", rec.Header().Get("Retry-After"))
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decodeResponse(t, rec)
	require.Equal(t, CodeRateLimitExceeded, body.Error.Code)
	require.Equal(t, RateLimitMessage, body.Error.Message)
	require.EqualValues(t, 90200, body.Error.Details["retry_after_ms"])
	require.EqualValues(t, 91, body.Error.Details["retry_after_seconds"])
	require.NotEmpty(t, body.Error.RequestID)
}

func TestRespondWithPlainErrorHidesInternals(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	RespondWithError(rec, req, stderrors.New("db password is hunter2"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeResponse(t, rec)
	require.Equal(t, CodeInternal, body.Error.Code)
	require.NotContains(t, rec.Body.String(), "hunter2")
	require.Empty(t, rec.Header().Get("Retry-After"))
}

func TestWrapCodeCarriesDetails(t *testing.T) {
	env := WrapCode(context.Background(), CodeExternalService, stderrors.New("boom"), "Invalid JSON from AI.", map[string]interface{}{"raw": "not json"})
	require.Equal(t, CodeExternalService, env.Code)
	require.NotEmpty(t, env.CorrelationID)

	details := ResponseDetails(env)
	require.Equal(t, "not json", details["raw"])
	require.NotContains(t, details, "wrapped_error")
}

func TestEnsureEnvelopePassesThrough(t *testing.T) {
	env := NewInvalidInputError("Missing resume or job description.")
	require.Same(t, env, EnsureEnvelope(env))
	require.Equal(t, CodeInternal, EnsureEnvelope(nil).Code)
}
