package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/resumeforge/resumeforge/internal/config"
	"github.com/resumeforge/resumeforge/internal/metrics"
	"github.com/resumeforge/resumeforge/internal/output"
	"github.com/resumeforge/resumeforge/internal/render"
	"github.com/resumeforge/resumeforge/internal/resume"
)

// addPersonalInfoFlags registers the contact flags shared by tailor and render.
func addPersonalInfoFlags(cmd *cobra.Command, info *resume.PersonalInfo) {
	cmd.Flags().StringVar(&info.Name, "name", "", "full name for the document header")
	cmd.Flags().StringVar(&info.Email, "email", "", "contact email")
	cmd.Flags().StringVar(&info.Phone, "phone", "", "contact phone")
	cmd.Flags().StringVar(&info.LinkedIn, "linkedin", "", "LinkedIn profile URL")
	cmd.Flags().StringVar(&info.GitHub, "github", "", "GitHub profile URL")
	cmd.Flags().StringVar(&info.Location, "location", "", "location line")
}

// readInput reads a file, or stdin when path is "-".
func readInput(path string, stdin io.Reader) ([]byte, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("input path is required")
	}
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// writeDocument renders r and writes it to outPath, or to "<name>.<ext>" in
// the current directory when outPath is empty. It returns the written path.
func writeDocument(format string, info resume.PersonalInfo, r *resume.Resume, outPath string) (string, error) {
	parsed, err := render.ParseFormat(format)
	if err != nil {
		return "", err
	}
	renderer, err := render.For(parsed)
	if err != nil {
		return "", err
	}
	if pdf, ok := renderer.(*render.PDFRenderer); ok {
		pdf.Creator = config.AppName + " " + versionInfo.Version
	}

	info.Normalize()
	doc := render.Document{Info: info, Resume: r}

	start := time.Now()
	var buf bytes.Buffer
	err = renderer.Render(&buf, doc)
	metrics.RecordExport(renderer.Extension(), err == nil, time.Since(start))
	if err != nil {
		return "", err
	}

	outPath = strings.TrimSpace(outPath)
	if outPath == "" {
		outPath = render.Filename(renderer, doc)
	}
	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", outPath, err)
	}
	return outPath, nil
}

func printResume(w io.Writer, format output.Format, info resume.PersonalInfo, r *resume.Resume) error {
	info.Normalize()
	rendered, err := output.NewFormatter(format).FormatResume(info, r)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, rendered)
	return err
}
