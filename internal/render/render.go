// Package render turns a tailored resume into downloadable documents.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/resumeforge/resumeforge/internal/resume"
)

// Format identifies an output document type.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

// Document is everything a renderer needs.
type Document struct {
	Info   resume.PersonalInfo
	Resume *resume.Resume
}

// Renderer writes a Document in one format.
type Renderer interface {
	Render(w io.Writer, doc Document) error
	ContentType() string
	Extension() string
}

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(value))) {
	case FormatPDF:
		return FormatPDF, nil
	case FormatDOCX, "word":
		return FormatDOCX, nil
	default:
		return "", fmt.Errorf("unsupported document format: %s", value)
	}
}

// For returns the renderer for format.
func For(format Format) (Renderer, error) {
	switch format {
	case FormatPDF:
		return &PDFRenderer{}, nil
	case FormatDOCX:
		return &DOCXRenderer{}, nil
	default:
		return nil, fmt.Errorf("unsupported document format: %s", format)
	}
}

// Filename returns the download name for doc in the renderer's format.
func Filename(r Renderer, doc Document) string {
	return resume.Filename(doc.Info, r.Extension())
}

func validate(doc Document) error {
	if doc.Resume == nil {
		return fmt.Errorf("resume is required")
	}
	return nil
}
