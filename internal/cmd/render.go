package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/resumeforge/resumeforge/internal/observability"
	"github.com/resumeforge/resumeforge/internal/resume"
)

var (
	renderInput  string
	renderFormat string
	renderOut    string
	renderInfo   resume.PersonalInfo
)

// renderFile accepts either a bare resume object or the export request shape
// {"personalInfo": {...}, "resume": {...}}.
type renderFile struct {
	PersonalInfo *resume.PersonalInfo `json:"personalInfo"`
	Resume       json.RawMessage      `json:"resume"`
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a structured resume JSON file as PDF or DOCX",
	Example: `  resumeforge render --input tailored.json --format pdf
  resumeforge render --input export.json --format docx --out out/resume.docx`,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(renderInput, cmd.InOrStdin())
		if err != nil {
			return err
		}

		info, parsed, err := decodeRenderInput(data)
		if err != nil {
			return err
		}
		mergePersonalInfo(&info, renderInfo)

		path, err := writeDocument(renderFormat, info, parsed, renderOut)
		if err != nil {
			return err
		}
		observability.CLILogger.Info("Document written", zap.String("path", path))
		return nil
	},
}

func decodeRenderInput(data []byte) (resume.PersonalInfo, *resume.Resume, error) {
	var wrapped renderFile
	if err := json.Unmarshal(data, &wrapped); err == nil && len(wrapped.Resume) > 0 {
		parsed, err := resume.Decode(wrapped.Resume)
		if err != nil {
			return resume.PersonalInfo{}, nil, err
		}
		var info resume.PersonalInfo
		if wrapped.PersonalInfo != nil {
			info = *wrapped.PersonalInfo
		}
		return info, parsed, nil
	}

	parsed, err := resume.Decode(data)
	if err != nil {
		return resume.PersonalInfo{}, nil, fmt.Errorf("input is not a resume: %w", err)
	}
	return resume.PersonalInfo{}, parsed, nil
}

// mergePersonalInfo lets flags override fields from the input file.
func mergePersonalInfo(dst *resume.PersonalInfo, flags resume.PersonalInfo) {
	set := func(field *string, value string) {
		if value != "" {
			*field = value
		}
	}
	set(&dst.Name, flags.Name)
	set(&dst.Email, flags.Email)
	set(&dst.Phone, flags.Phone)
	set(&dst.LinkedIn, flags.LinkedIn)
	set(&dst.GitHub, flags.GitHub)
	set(&dst.Location, flags.Location)
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringVarP(&renderInput, "input", "i", "", "resume JSON file (\"-\" for stdin)")
	renderCmd.Flags().StringVarP(&renderFormat, "format", "f", "pdf", "document format: pdf or docx")
	renderCmd.Flags().StringVar(&renderOut, "out", "", "document path (default \"<name>.<ext>\")")
	addPersonalInfoFlags(renderCmd, &renderInfo)

	_ = renderCmd.MarkFlagRequired("input")
}
