package output

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/resumeforge/resumeforge/internal/resume"
	"github.com/resumeforge/resumeforge/internal/store"
)

// tableWrapWidth bounds the content column so long paragraphs stay readable.
const tableWrapWidth = 80

// TableFormatter renders results as ASCII tables.
type TableFormatter struct{}

// FormatResume renders one row per block, grouped by section.
func (f *TableFormatter) FormatResume(info resume.PersonalInfo, r *resume.Resume) (string, error) {
	if r == nil {
		return "", nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetTitle(resume.DisplayName(info))
	t.AppendHeader(table.Row{"Section", "Content"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, AutoMerge: true, VAlign: text.VAlignTop},
		{Number: 2, WidthMax: tableWrapWidth},
	})

	if contact := resume.ContactLines(info); len(contact) > 0 {
		t.AppendRow(table.Row{"Contact", strings.Join(contact, "\n")})
		t.AppendSeparator()
	}

	for _, section := range resume.Sections(r) {
		if section.Inline {
			t.AppendRow(table.Row{section.Title, section.InlineText()})
		} else {
			for _, block := range section.Blocks {
				t.AppendRow(table.Row{section.Title, blockText(block)})
			}
		}
		t.AppendSeparator()
	}

	return t.Render(), nil
}

// FormatSimulation renders each replayed request and a totals footer.
func (f *TableFormatter) FormatSimulation(sim *Simulation) (string, error) {
	if sim == nil {
		return "", nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetTitle(fmt.Sprintf("%d requests per %s", sim.MaxRequests, sim.Window))
	t.AppendHeader(table.Row{"#", "Client", "At", "Decision", "Remaining", "Retry After"})

	for _, step := range sim.Steps {
		retry := ""
		if !step.Admitted {
			retry = step.RetryAfter.String()
		}
		t.AppendRow(table.Row{
			step.Request,
			step.Identifier,
			"+" + step.Offset.String(),
			decisionLabel(step.Admitted),
			step.Remaining,
			retry,
		})
	}

	admitted, rejected := sim.Totals()
	t.AppendFooter(table.Row{"", "", "", fmt.Sprintf("%d admitted, %d rejected", admitted, rejected), "", ""})
	return t.Render(), nil
}

// FormatGenerations renders cache entries without their payloads.
func (f *TableFormatter) FormatGenerations(gens []store.Generation) (string, error) {
	if len(gens) == 0 {
		return "No cached generations.", nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Key", "Prompt", "Model", "Hits", "Created", "Expires"})
	for _, g := range gens {
		t.AppendRow(table.Row{
			shortKey(g.Key),
			g.PromptSlug,
			g.Model,
			g.HitCount,
			formatTime(g.CreatedAt),
			formatTime(g.ExpiresAt),
		})
	}
	t.AppendFooter(table.Row{"", "", "Total", len(gens), "", ""})
	return t.Render(), nil
}

func blockText(b resume.Block) string {
	if b.Kind == resume.KindBullet {
		return "• " + b.Text
	}
	return b.Text
}
