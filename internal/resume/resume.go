// Package resume holds the structured resume produced by the tailoring service
// and the helpers shared by every renderer.
package resume

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Resume is the tailored resume returned by the model.
type Resume struct {
	Profile      string       `json:"profile"`
	Education    []Education  `json:"education"`
	Experience   []Experience `json:"experience"`
	Skills       []string     `json:"skills"`
	Projects     []Project    `json:"projects"`
	Certificates []string     `json:"certificates"`
}

type Education struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Year        string `json:"year"`
}

type Experience struct {
	Title   string   `json:"title"`
	Company string   `json:"company"`
	Dates   string   `json:"dates"`
	Details []string `json:"details"`
}

type Project struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// PersonalInfo is supplied by the user and never sent to the model.
type PersonalInfo struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	LinkedIn string `json:"linkedin"`
	GitHub   string `json:"github"`
	Location string `json:"location"`
}

// ErrNotObject is returned when the payload is valid JSON but not an object.
var ErrNotObject = errors.New("resume payload must be a JSON object")

// Decode parses a resume JSON object and normalizes it.
func Decode(raw []byte) (*Resume, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errors.New("empty resume payload")
	}
	if trimmed[0] != '{' {
		if json.Valid(trimmed) {
			return nil, ErrNotObject
		}
		return nil, fmt.Errorf("decode resume: invalid JSON")
	}

	var r Resume
	if err := json.Unmarshal(trimmed, &r); err != nil {
		return nil, fmt.Errorf("decode resume: %w", err)
	}
	r.Normalize()
	return &r, nil
}

// Normalize trims whitespace and drops empty list entries.
func (r *Resume) Normalize() {
	if r == nil {
		return
	}
	r.Profile = strings.TrimSpace(r.Profile)

	education := make([]Education, 0, len(r.Education))
	for _, ed := range r.Education {
		ed.Degree = strings.TrimSpace(ed.Degree)
		ed.Institution = strings.TrimSpace(ed.Institution)
		ed.Year = strings.TrimSpace(ed.Year)
		if ed.Degree == "" && ed.Institution == "" {
			continue
		}
		education = append(education, ed)
	}
	r.Education = education

	experience := make([]Experience, 0, len(r.Experience))
	for _, exp := range r.Experience {
		exp.Title = strings.TrimSpace(exp.Title)
		exp.Company = strings.TrimSpace(exp.Company)
		exp.Dates = strings.TrimSpace(exp.Dates)
		exp.Details = compact(exp.Details)
		if exp.Title == "" && exp.Company == "" && len(exp.Details) == 0 {
			continue
		}
		experience = append(experience, exp)
	}
	r.Experience = experience

	projects := make([]Project, 0, len(r.Projects))
	for _, p := range r.Projects {
		p.Name = strings.TrimSpace(p.Name)
		p.Description = strings.TrimSpace(p.Description)
		if p.Name == "" && p.Description == "" {
			continue
		}
		projects = append(projects, p)
	}
	r.Projects = projects

	r.Skills = compact(r.Skills)
	r.Certificates = compact(r.Certificates)
}

// IsEmpty reports whether the resume has no renderable content.
func (r *Resume) IsEmpty() bool {
	if r == nil {
		return true
	}
	return r.Profile == "" && len(r.Education) == 0 && len(r.Experience) == 0 &&
		len(r.Skills) == 0 && len(r.Projects) == 0 && len(r.Certificates) == 0
}

// Normalize trims every field.
func (p *PersonalInfo) Normalize() {
	if p == nil {
		return
	}
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(p.Email)
	p.Phone = strings.TrimSpace(p.Phone)
	p.LinkedIn = strings.TrimSpace(p.LinkedIn)
	p.GitHub = strings.TrimSpace(p.GitHub)
	p.Location = strings.TrimSpace(p.Location)
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
