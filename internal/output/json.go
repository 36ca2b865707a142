package output

import (
	"encoding/json"

	"github.com/resumeforge/resumeforge/internal/resume"
	"github.com/resumeforge/resumeforge/internal/store"
)

// JSONFormatter renders results as JSON.
type JSONFormatter struct {
	Indent bool
}

type resumeDocument struct {
	PersonalInfo resume.PersonalInfo `json:"personalInfo"`
	Resume       *resume.Resume      `json:"resume"`
}

type generationRow struct {
	Key        string `json:"key"`
	PromptSlug string `json:"prompt"`
	Model      string `json:"model"`
	HitCount   int64  `json:"hit_count"`
	CreatedAt  string `json:"created_at"`
	ExpiresAt  string `json:"expires_at"`
}

// FormatResume renders the personal info and resume as one JSON document.
func (f *JSONFormatter) FormatResume(info resume.PersonalInfo, r *resume.Resume) (string, error) {
	return f.marshal(resumeDocument{PersonalInfo: info, Resume: r})
}

// FormatSimulation renders the simulation steps.
func (f *JSONFormatter) FormatSimulation(sim *Simulation) (string, error) {
	if sim == nil {
		return "", nil
	}
	return f.marshal(sim)
}

// FormatGenerations renders cache entries without their payloads.
func (f *JSONFormatter) FormatGenerations(gens []store.Generation) (string, error) {
	rows := make([]generationRow, 0, len(gens))
	for _, g := range gens {
		rows = append(rows, generationRow{
			Key:        g.Key,
			PromptSlug: g.PromptSlug,
			Model:      g.Model,
			HitCount:   g.HitCount,
			CreatedAt:  formatTime(g.CreatedAt),
			ExpiresAt:  formatTime(g.ExpiresAt),
		})
	}
	return f.marshal(rows)
}

func (f *JSONFormatter) marshal(v any) (string, error) {
	var (
		data []byte
		err  error
	)

	if f.Indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return "", err
	}

	return string(data), nil
}
