package resume

import (
	"fmt"
	"strings"
)

// BlockKind tells a renderer how to style a line of text.
type BlockKind int

const (
	KindParagraph BlockKind = iota
	// KindEntry is a one-line entry such as an education or project line.
	KindEntry
	// KindEntryHeader introduces an experience entry; its bullets follow.
	KindEntryHeader
	KindBullet
	// KindListItem is one element of a flat list (skills, certificates).
	KindListItem
)

// Block is one line of a section before wrapping.
type Block struct {
	Kind BlockKind
	Text string
}

// Section is a titled group of blocks in document order.
type Section struct {
	Title  string
	Blocks []Block
	// Inline marks list sections that word-processor output joins onto one line.
	Inline bool
}

// Sections flattens a resume into renderable sections. Empty sections are omitted.
func Sections(r *Resume) []Section {
	if r == nil {
		return nil
	}

	var sections []Section

	if r.Profile != "" {
		sections = append(sections, Section{
			Title:  "Profile",
			Blocks: []Block{{Kind: KindParagraph, Text: r.Profile}},
		})
	}

	if len(r.Education) > 0 {
		blocks := make([]Block, 0, len(r.Education))
		for _, ed := range r.Education {
			blocks = append(blocks, Block{Kind: KindEntry, Text: EducationLine(ed)})
		}
		sections = append(sections, Section{Title: "Education", Blocks: blocks})
	}

	if len(r.Experience) > 0 {
		var blocks []Block
		for _, exp := range r.Experience {
			blocks = append(blocks, Block{Kind: KindEntryHeader, Text: ExperienceLine(exp)})
			for _, d := range exp.Details {
				blocks = append(blocks, Block{Kind: KindBullet, Text: d})
			}
		}
		sections = append(sections, Section{Title: "Experience", Blocks: blocks})
	}

	if len(r.Skills) > 0 {
		sections = append(sections, Section{Title: "Skills", Blocks: listBlocks(r.Skills), Inline: true})
	}

	if len(r.Projects) > 0 {
		blocks := make([]Block, 0, len(r.Projects))
		for _, p := range r.Projects {
			blocks = append(blocks, Block{Kind: KindEntry, Text: ProjectLine(p)})
		}
		sections = append(sections, Section{Title: "Projects", Blocks: blocks})
	}

	if len(r.Certificates) > 0 {
		sections = append(sections, Section{Title: "Certificates", Blocks: listBlocks(r.Certificates)})
	}

	return sections
}

func listBlocks(values []string) []Block {
	blocks := make([]Block, 0, len(values))
	for _, v := range values {
		blocks = append(blocks, Block{Kind: KindListItem, Text: v})
	}
	return blocks
}

// EducationLine formats "degree, institution (year)".
func EducationLine(ed Education) string {
	return fmt.Sprintf("%s, %s (%s)", ed.Degree, ed.Institution, ed.Year)
}

// ExperienceLine formats "title - company (dates)".
func ExperienceLine(exp Experience) string {
	return fmt.Sprintf("%s - %s (%s)", exp.Title, exp.Company, exp.Dates)
}

// ProjectLine formats "name: description".
func ProjectLine(p Project) string {
	return fmt.Sprintf("%s: %s", p.Name, p.Description)
}

// InlineText joins a section's blocks with ", ".
func (s Section) InlineText() string {
	parts := make([]string, 0, len(s.Blocks))
	for _, b := range s.Blocks {
		parts = append(parts, b.Text)
	}
	return strings.Join(parts, ", ")
}

// DisplayName returns the name to print in a document header.
func DisplayName(p PersonalInfo) string {
	if name := strings.TrimSpace(p.Name); name != "" {
		return name
	}
	return "Your Name"
}

// ContactLines returns "email | phone | location" and "linkedin | github",
// skipping empty parts and empty lines.
func ContactLines(p PersonalInfo) []string {
	var lines []string
	if line := joinNonEmpty(" | ", p.Email, p.Phone, p.Location); line != "" {
		lines = append(lines, line)
	}
	if line := joinNonEmpty(" | ", p.LinkedIn, p.GitHub); line != "" {
		lines = append(lines, line)
	}
	return lines
}

func joinNonEmpty(sep string, values ...string) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, sep)
}
