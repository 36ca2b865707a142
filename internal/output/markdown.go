package output

import (
	"fmt"
	"strings"

	"github.com/resumeforge/resumeforge/internal/resume"
	"github.com/resumeforge/resumeforge/internal/store"
)

// MarkdownFormatter renders results as Markdown.
type MarkdownFormatter struct{}

// FormatResume renders the resume as a Markdown document.
func (f *MarkdownFormatter) FormatResume(info resume.PersonalInfo, r *resume.Resume) (string, error) {
	if r == nil {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n\n", resume.DisplayName(info)))
	for _, line := range resume.ContactLines(info) {
		sb.WriteString(line + "  \n")
	}

	for _, section := range resume.Sections(r) {
		sb.WriteString(fmt.Sprintf("\n## %s\n\n", section.Title))
		if section.Inline {
			sb.WriteString(section.InlineText() + "\n")
			continue
		}
		for _, block := range section.Blocks {
			switch block.Kind {
			case resume.KindEntryHeader:
				sb.WriteString(fmt.Sprintf("**%s**\n\n", block.Text))
			case resume.KindBullet, resume.KindListItem:
				sb.WriteString("- " + block.Text + "\n")
			default:
				sb.WriteString(block.Text + "\n\n")
			}
		}
	}

	return strings.TrimRight(sb.String(), "\n") + "\n", nil
}

// FormatSimulation renders the simulation as a Markdown table.
func (f *MarkdownFormatter) FormatSimulation(sim *Simulation) (string, error) {
	if sim == nil {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## %d requests per %s\n\n", sim.MaxRequests, sim.Window))
	sb.WriteString("| # | Client | At | Decision | Remaining | Retry After |\n")
	sb.WriteString("|---|--------|----|----------|-----------|-------------|\n")
	for _, step := range sim.Steps {
		retry := ""
		if !step.Admitted {
			retry = step.RetryAfter.String()
		}
		sb.WriteString(fmt.Sprintf("| %d | %s | +%s | %s | %d | %s |\n",
			step.Request,
			escapeMarkdownCell(step.Identifier),
			step.Offset,
			decisionLabel(step.Admitted),
			step.Remaining,
			retry,
		))
	}

	admitted, rejected := sim.Totals()
	sb.WriteString(fmt.Sprintf("\n**Totals**: %d admitted, %d rejected\n", admitted, rejected))
	return sb.String(), nil
}

// FormatGenerations renders cache entries as a Markdown table.
func (f *MarkdownFormatter) FormatGenerations(gens []store.Generation) (string, error) {
	var sb strings.Builder
	sb.WriteString("| Key | Prompt | Model | Hits | Created | Expires |\n")
	sb.WriteString("|-----|--------|-------|------|---------|---------|\n")
	for _, g := range gens {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %d | %s | %s |\n",
			shortKey(g.Key),
			escapeMarkdownCell(g.PromptSlug),
			escapeMarkdownCell(g.Model),
			g.HitCount,
			formatTime(g.CreatedAt),
			formatTime(g.ExpiresAt),
		))
	}
	return sb.String(), nil
}

func escapeMarkdownCell(value string) string {
	return strings.ReplaceAll(value, "|", "\\|")
}
