package ailink

import (
	"encoding/json"

	"github.com/resumeforge/resumeforge/internal/ailink/driver"
	"github.com/resumeforge/resumeforge/internal/resume"
)

// TailorRequest is the input to a single resume generation.
type TailorRequest struct {
	ResumeText     string
	JobDescription string
	// Model overrides the configured model when set.
	Model string
}

// TailorResult is a decoded, validated generation.
type TailorResult struct {
	Resume *resume.Resume  `json:"resume"`
	Raw    json.RawMessage `json:"-"`
	Model  string          `json:"model"`
	Usage  *driver.Usage   `json:"usage,omitempty"`
	Cached bool            `json:"cached"`
}

// Failure is a classified error ready for an API envelope.
type Failure struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
