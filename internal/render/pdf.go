package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/resumeforge/resumeforge/internal/resume"
)

// Layout in millimetres on A4.
const (
	pdfLeft         = 15.0
	pdfTop          = 20.0
	pdfBottom       = 20.0
	pdfWrapWidth    = 180.0
	pdfLineHeight   = 6.0
	pdfSectionGap   = 10.0
	pdfSectionAfter = 4.0
)

// PDFRenderer writes an A4 PDF using the built-in Helvetica font.
type PDFRenderer struct {
	// Creator is written into the document metadata when set.
	Creator string
}

func (r *PDFRenderer) ContentType() string { return "application/pdf" }
func (r *PDFRenderer) Extension() string   { return "pdf" }

type pdfCursor struct {
	pdf    *fpdf.Fpdf
	tr     func(string) string
	y      float64
	height float64
}

// advance moves the cursor down by dy, starting a new page when the next line
// would cross the bottom margin.
func (c *pdfCursor) advance(dy float64) {
	c.y += dy
	if c.y > c.height-pdfBottom {
		c.pdf.AddPage()
		c.y = pdfTop
	}
}

func (c *pdfCursor) text(s string) {
	c.pdf.Text(pdfLeft, c.y, c.tr(s))
}

func (r *PDFRenderer) Render(w io.Writer, doc Document) error {
	if err := validate(doc); err != nil {
		return err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfLeft, pdfTop, pdfLeft)
	pdf.SetAutoPageBreak(false, pdfBottom)
	pdf.SetTitle(resume.Filename(doc.Info, ""), true)
	if r.Creator != "" {
		pdf.SetCreator(r.Creator, true)
	}
	pdf.AddPage()

	_, height := pdf.GetPageSize()
	c := &pdfCursor{
		pdf:    pdf,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
		y:      pdfTop,
		height: height,
	}

	pdf.SetFont("Helvetica", "B", 18)
	c.text(resume.DisplayName(doc.Info))
	c.advance(8)

	pdf.SetFont("Helvetica", "", 11)
	for i, line := range resume.ContactLines(doc.Info) {
		if i > 0 {
			c.advance(pdfLineHeight)
		}
		c.text(line)
	}

	for _, section := range resume.Sections(doc.Resume) {
		c.advance(pdfSectionGap)
		pdf.SetFont("Helvetica", "B", 14)
		c.text(section.Title)
		c.advance(pdfLineHeight)

		pdf.SetFont("Helvetica", "", 11)
		for _, block := range section.Blocks {
			if block.Kind == resume.KindEntryHeader {
				pdf.SetFont("Helvetica", "B", 11)
			}
			for _, line := range wrapLine(pdf, c.tr(pdfLine(block)), pdfWrapWidth) {
				c.advance(pdfLineHeight)
				pdf.Text(pdfLeft, c.y, line)
			}
			if block.Kind == resume.KindEntryHeader {
				pdf.SetFont("Helvetica", "", 11)
			}
		}
		c.advance(pdfSectionAfter)
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func pdfLine(b resume.Block) string {
	if b.Kind == resume.KindBullet {
		return "• " + b.Text
	}
	return b.Text
}

// wrapLine breaks already-translated text into lines no wider than width using
// the current font. Words longer than width get a line of their own.
func wrapLine(pdf *fpdf.Fpdf, text string, width float64) []string {
	words := strings.Split(text, " ")
	var (
		lines   []string
		current string
	)
	for _, word := range words {
		if word == "" {
			continue
		}
		if current == "" {
			current = word
			continue
		}
		candidate := current + " " + word
		if pdf.GetStringWidth(candidate) > width {
			lines = append(lines, current)
			current = word
			continue
		}
		current = candidate
	}
	if current != "" || len(lines) == 0 {
		lines = append(lines, current)
	}
	return lines
}
