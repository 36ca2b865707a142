package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/fulmenhq/gofulmen/errors"
	"go.uber.org/zap"

	"github.com/resumeforge/resumeforge/internal/metrics"
	"github.com/resumeforge/resumeforge/internal/observability"
)

// trackingWriter remembers whether the response has started.
type trackingWriter struct {
	http.ResponseWriter
	started bool
}

func (tw *trackingWriter) WriteHeader(code int) {
	tw.started = true
	tw.ResponseWriter.WriteHeader(code)
}

func (tw *trackingWriter) Write(b []byte) (int, error) {
	tw.started = true
	return tw.ResponseWriter.Write(b)
}

// Recovery turns a panic into an INTERNAL_ERROR envelope. If the handler had
// already started the response, the connection is left as is.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tw := &trackingWriter{ResponseWriter: w}
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			endpoint := EndpointPattern(r)
			metrics.RecordPanic(endpoint)
			if observability.ServerLogger != nil {
				observability.ServerLogger.Error("Recovered from handler panic",
					zap.String("endpoint", endpoint),
					zap.String("request_id", GetRequestID(r.Context())),
					zap.Any("panic", rec),
					zap.ByteString("stack", debug.Stack()))
			}

			if tw.started {
				return
			}
			envelope := errors.NewErrorEnvelope("INTERNAL_ERROR", "Internal Server Error. Please try again later.").
				WithCorrelationID(GetRequestID(r.Context()))
			envelope, _ = envelope.WithSeverity(errors.SeverityCritical)
			writeEnvelope(w, envelope, http.StatusInternalServerError)
		}()

		next.ServeHTTP(tw, r)
	})
}

// ErrorHandler guarantees that every error status leaves as a JSON envelope.
// Handlers that reply with a bare http.Error (or any non-JSON body) on a 4xx
// or 5xx have their body replaced by an envelope whose code follows the
// status, so a 429 from any source reads as RATE_LIMIT_EXCEEDED and keeps
// its Retry-After header.
func ErrorHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ew := &envelopeWriter{ResponseWriter: w}
		next.ServeHTTP(ew, r)
		if !ew.intercepted {
			return
		}

		code := CodeForStatus(ew.status)
		metrics.RecordError(code, ew.status)
		metrics.RecordErrorByEndpoint(EndpointPattern(r), code)

		envelope := errors.NewErrorEnvelope(code, messageForStatus(ew.status)).
			WithCorrelationID(GetRequestID(r.Context()))
		if text := strings.TrimSpace(ew.body.String()); text != "" {
			envelope = envelope.WithDetails(map[string]interface{}{"detail": text})
		}
		writeEnvelope(w, envelope, ew.status)
	})
}

// envelopeWriter swallows non-JSON error responses so ErrorHandler can
// rewrite them.
type envelopeWriter struct {
	http.ResponseWriter
	wroteHeader bool
	intercepted bool
	status      int
	body        strings.Builder
}

const maxInterceptedBody = 512

func (ew *envelopeWriter) WriteHeader(code int) {
	if ew.wroteHeader {
		return
	}
	ew.wroteHeader = true
	if code >= 400 && !isJSON(ew.Header().Get("Content-Type")) {
		ew.intercepted = true
		ew.status = code
		return
	}
	ew.ResponseWriter.WriteHeader(code)
}

func (ew *envelopeWriter) Write(b []byte) (int, error) {
	if !ew.wroteHeader {
		ew.WriteHeader(http.StatusOK)
	}
	if ew.intercepted {
		if room := maxInterceptedBody - ew.body.Len(); room > 0 {
			if len(b) < room {
				room = len(b)
			}
			ew.body.Write(b[:room])
		}
		return len(b), nil
	}
	return ew.ResponseWriter.Write(b)
}

func isJSON(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "application/json")
}

// CodeForStatus maps a bare HTTP status onto an envelope code.
func CodeForStatus(status int) string {
	switch status {
	case http.StatusTooManyRequests:
		return "RATE_LIMIT_EXCEEDED"
	case http.StatusUnauthorized, http.StatusForbidden:
		return "UNAUTHORIZED"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case http.StatusBadGateway:
		return "EXTERNAL_SERVICE_ERROR"
	case http.StatusServiceUnavailable:
		return "SERVICE_UNAVAILABLE"
	case http.StatusGatewayTimeout:
		return "TIMEOUT"
	}
	if status < 500 {
		return "INVALID_INPUT"
	}
	return "INTERNAL_ERROR"
}

func messageForStatus(status int) string {
	if status == http.StatusTooManyRequests {
		return "Too many requests. Please wait a few minutes and try again."
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("HTTP %d", status)
}

// ErrorResponse mirrors the API error body. It is duplicated here because the
// errors package imports this one.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

func writeEnvelope(w http.ResponseWriter, envelope *errors.ErrorEnvelope, statusCode int) {
	response := ErrorResponse{
		Error: ErrorDetail{
			Code:      envelope.Code,
			Message:   envelope.Message,
			Details:   envelope.Details,
			RequestID: envelope.CorrelationID,
		},
	}

	h := w.Header()
	h.Del("Content-Length")
	h.Set("Content-Type", "application/json")
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}
