package ailink

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/resumeforge/resumeforge/internal/ailink/driver"
)

func TestResponseFormatUsesJSONSchemaWhenSupported(t *testing.T) {
	drv := &scriptedDriver{name: "openai", schema: true}

	format := responseFormatFor(drv, true, "resume-tailor")
	require.NotNil(t, format)
	require.Equal(t, "json_schema", format.Type)
	require.NotNil(t, format.JSONSchema)
	require.True(t, format.JSONSchema.Strict)
	require.Equal(t, "resume_tailor", format.JSONSchema.Name)
	require.Equal(t, false, format.JSONSchema.Schema["additionalProperties"])
}

func TestResponseFormatFallsBackToJSONObject(t *testing.T) {
	require.Equal(t, "json_object", responseFormatFor(&scriptedDriver{schema: true}, false, "x").Type)
	require.Equal(t, "json_object", responseFormatFor(&scriptedDriver{schema: false}, true, "x").Type)
	require.Equal(t, "json_object", responseFormatFor(nil, true, "x").Type)
}

func TestFallbackToJSONObjectResetsSchema(t *testing.T) {
	req := &driver.Request{ResponseFormat: &driver.ResponseFormat{Type: "json_schema", JSONSchema: &driver.JSONSchema{Name: "x", Strict: true, Schema: map[string]any{"type": "object"}}}}
	fallbackToJSONObject(req)
	require.NotNil(t, req.ResponseFormat)
	require.Equal(t, "json_object", req.ResponseFormat.Type)
	require.Nil(t, req.ResponseFormat.JSONSchema)
}

func TestIsUnsupportedSchemaError(t *testing.T) {
	require.True(t, isUnsupportedSchemaError(&driver.ProviderError{StatusCode: 400, Message: "Invalid parameter: 'response_format' of type 'json_schema' is not supported with this model."}))
	require.False(t, isUnsupportedSchemaError(&driver.ProviderError{StatusCode: 500, Message: "response_format"}))
	require.False(t, isUnsupportedSchemaError(errors.New("response_format")))
	require.False(t, isUnsupportedSchemaError(nil))
}
