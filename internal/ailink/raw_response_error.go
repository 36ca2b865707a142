package ailink

import (
	"encoding/json"
	"errors"
)

var (
	// ErrMissingInput is returned when the resume or job description is blank.
	ErrMissingInput = errors.New("missing resume or job description")
	// ErrMissingAPIKey is returned when no provider credential is configured.
	ErrMissingAPIKey = errors.New("missing provider api key")
	// ErrEmptyResponse is returned when the provider produced no text.
	ErrEmptyResponse = errors.New("empty response content")
)

// RawResponseError wraps an error with the raw response payload.
//
// The model returned text that failed JSON decoding or schema validation;
// callers still want the raw text for debugging.
type RawResponseError struct {
	Err error
	Raw json.RawMessage
}

func (e *RawResponseError) Error() string {
	if e == nil || e.Err == nil {
		return "ailink error"
	}
	return e.Err.Error()
}

func (e *RawResponseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// RawText returns the raw payload as a string.
func (e *RawResponseError) RawText() string {
	if e == nil {
		return ""
	}
	return string(e.Raw)
}
