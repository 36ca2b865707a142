package ailink

import (
	"context"
	"errors"
	"strings"

	"github.com/resumeforge/resumeforge/internal/ailink/driver"
)

// ClassifyError maps a Tailor error onto the API error taxonomy. It returns
// nil for a nil error.
func ClassifyError(err error) *Failure {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrMissingInput):
		return &Failure{Code: "INVALID_INPUT", Message: "Missing resume or job description."}
	case errors.Is(err, ErrMissingAPIKey):
		return &Failure{Code: "CONFIG_INVALID", Message: "Missing OpenAI API key."}
	case errors.Is(err, ErrEmptyResponse):
		return &Failure{Code: "EXTERNAL_SERVICE_ERROR", Message: "No response from AI."}
	case errors.Is(err, context.DeadlineExceeded):
		return &Failure{Code: "TIMEOUT", Message: "AI provider request timed out."}
	case errors.Is(err, context.Canceled):
		return &Failure{Code: "TIMEOUT", Message: "Request was cancelled before the AI provider answered."}
	}

	var rawErr *RawResponseError
	if errors.As(err, &rawErr) && rawErr != nil {
		return &Failure{
			Code:    "EXTERNAL_SERVICE_ERROR",
			Message: "Invalid JSON from AI.",
			Details: map[string]any{"raw": rawErr.RawText()},
		}
	}

	var perr *driver.ProviderError
	if errors.As(err, &perr) && perr != nil {
		details := map[string]any{
			"provider":        perr.Provider,
			"provider_status": perr.StatusCode,
		}
		if msg := strings.TrimSpace(perr.Message); msg != "" {
			details["provider_message"] = msg
		}
		status := perr.StatusCode
		switch {
		case status == 401 || status == 403:
			return &Failure{Code: "EXTERNAL_SERVICE_ERROR", Message: "AI provider authentication failed.", Details: details}
		case status == 429:
			return &Failure{Code: "EXTERNAL_SERVICE_ERROR", Message: "AI provider is rate limiting requests.", Details: details}
		case status == 408 || status == 504:
			return &Failure{Code: "TIMEOUT", Message: "AI provider request timed out.", Details: details}
		case status >= 500 && status <= 599:
			return &Failure{Code: "EXTERNAL_SERVICE_ERROR", Message: "AI provider unavailable.", Details: details}
		default:
			return &Failure{Code: "EXTERNAL_SERVICE_ERROR", Message: "AI provider rejected the request.", Details: details}
		}
	}

	if isTransportError(err) {
		return &Failure{Code: "EXTERNAL_SERVICE_ERROR", Message: "AI provider request failed."}
	}

	return &Failure{Code: "INTERNAL_ERROR", Message: "Internal Server Error. Please try again later."}
}

// transportError marks failures talking to the provider that carry no status.
type transportError struct{ err error }

func (e *transportError) Error() string { return e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

func isTransportError(err error) bool {
	var terr *transportError
	return errors.As(err, &terr)
}
