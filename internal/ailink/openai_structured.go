package ailink

import (
	"errors"
	"net/http"
	"strings"

	"github.com/resumeforge/resumeforge/internal/ailink/driver"
	"github.com/resumeforge/resumeforge/internal/resume"
)

// responseFormatFor picks strict json_schema output when enabled and the
// driver supports it, otherwise json_object.
func responseFormatFor(drv driver.Driver, structured bool, slug string) *driver.ResponseFormat {
	if !structured || drv == nil || !drv.Capabilities().SupportsJSONSchema {
		return &driver.ResponseFormat{Type: "json_object"}
	}

	name := strings.TrimSpace(slug)
	if name == "" {
		name = "resume"
	}
	// OpenAI requires name to be alphanumeric/underscore.
	name = strings.NewReplacer("-", "_", ".", "_", " ", "_").Replace(name)
	return &driver.ResponseFormat{
		Type: "json_schema",
		JSONSchema: &driver.JSONSchema{
			Name:   name,
			Strict: true,
			Schema: resume.ResponseSchema(),
		},
	}
}

func isUnsupportedSchemaError(err error) bool {
	if err == nil {
		return false
	}
	var perr *driver.ProviderError
	if errors.As(err, &perr) && perr != nil && perr.StatusCode == http.StatusBadRequest {
		msg := strings.ToLower(perr.Message)
		return strings.Contains(msg, "json_schema") || strings.Contains(msg, "response_format")
	}
	return false
}

func fallbackToJSONObject(req *driver.Request) {
	if req == nil || req.ResponseFormat == nil {
		return
	}
	req.ResponseFormat = &driver.ResponseFormat{Type: "json_object"}
}
