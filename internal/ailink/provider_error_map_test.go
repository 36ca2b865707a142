package ailink

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/resumeforge/resumeforge/internal/ailink/driver"
)

func TestClassifyErrorStatusCodes(t *testing.T) {
	cases := []struct {
		name       string
		statusCode int
		wantCode   string
	}{
		{"auth", 401, "EXTERNAL_SERVICE_ERROR"},
		{"forbidden", 403, "EXTERNAL_SERVICE_ERROR"},
		{"rate", 429, "EXTERNAL_SERVICE_ERROR"},
		{"bad", 400, "EXTERNAL_SERVICE_ERROR"},
		{"unavail", 503, "EXTERNAL_SERVICE_ERROR"},
		{"gateway-timeout", 504, "TIMEOUT"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := &driver.ProviderError{Provider: "openai", StatusCode: tc.statusCode, Message: "boom"}
			mapped := ClassifyError(fmt.Errorf("tailor: %w", err))
			require.NotNil(t, mapped)
			require.Equal(t, tc.wantCode, mapped.Code)
			require.Equal(t, tc.statusCode, mapped.Details["provider_status"])
		})
	}
}

func TestClassifyErrorSentinels(t *testing.T) {
	require.Nil(t, ClassifyError(nil))

	f := ClassifyError(ErrMissingInput)
	require.Equal(t, "INVALID_INPUT", f.Code)
	require.Equal(t, "Missing resume or job description.", f.Message)

	f = ClassifyError(ErrMissingAPIKey)
	require.Equal(t, "CONFIG_INVALID", f.Code)
	require.Equal(t, "Missing OpenAI API key.", f.Message)

	f = ClassifyError(ErrEmptyResponse)
	require.Equal(t, "EXTERNAL_SERVICE_ERROR", f.Code)
	require.Equal(t, "No response from AI.", f.Message)

	f = ClassifyError(fmt.Errorf("call: %w", context.DeadlineExceeded))
	require.Equal(t, "TIMEOUT", f.Code)

	f = ClassifyError(&RawResponseError{Err: errors.New("decode"), Raw: []byte("Sure! Here it is")})
	require.Equal(t, "EXTERNAL_SERVICE_ERROR", f.Code)
	require.Equal(t, "Invalid JSON from AI.", f.Message)
	require.Equal(t, "Sure! Here it is", f.Details["raw"])

	f = ClassifyError(&transportError{err: errors.New("connection refused")})
	require.Equal(t, "EXTERNAL_SERVICE_ERROR", f.Code)

	f = ClassifyError(errors.New("something else"))
	require.Equal(t, "INTERNAL_ERROR", f.Code)
}
