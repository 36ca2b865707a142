// Package output renders CLI results as tables, JSON, or Markdown.
package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/resumeforge/resumeforge/internal/resume"
	"github.com/resumeforge/resumeforge/internal/store"
)

// Format represents an output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatMarkdown), "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// Formatter renders the values the CLI prints.
type Formatter interface {
	FormatResume(info resume.PersonalInfo, r *resume.Resume) (string, error)
	FormatSimulation(sim *Simulation) (string, error)
	FormatGenerations(gens []store.Generation) (string, error)
}

// NewFormatter returns a formatter for the requested format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatMarkdown:
		return &MarkdownFormatter{}
	default:
		return &TableFormatter{}
	}
}

// SimulationStep is one synthetic request replayed against a limiter.
type SimulationStep struct {
	Request    int           `json:"request"`
	Identifier string        `json:"identifier"`
	Offset     time.Duration `json:"offset_ns"`
	Admitted   bool          `json:"admitted"`
	Remaining  int           `json:"remaining"`
	RetryAfter time.Duration `json:"retry_after_ns,omitempty"`
}

// Simulation is the result of replaying a request schedule.
type Simulation struct {
	Window      time.Duration    `json:"window_ns"`
	MaxRequests int              `json:"max_requests"`
	Steps       []SimulationStep `json:"steps"`
}

// Totals counts admitted and rejected steps.
func (s *Simulation) Totals() (admitted, rejected int) {
	if s == nil {
		return 0, 0
	}
	for _, step := range s.Steps {
		if step.Admitted {
			admitted++
		} else {
			rejected++
		}
	}
	return admitted, rejected
}

func decisionLabel(admitted bool) string {
	if admitted {
		return "admitted"
	}
	return "rejected"
}

func shortKey(key string) string {
	if len(key) <= 12 {
		return key
	}
	return key[:12]
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
