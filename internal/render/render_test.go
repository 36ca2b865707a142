package render

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/require"

	"github.com/resumeforge/resumeforge/internal/resume"
)

func sampleDocument() Document {
	return Document{
		Info: resume.PersonalInfo{
			Name:     "Ada <Lovelace>",
			Email:    "ada@example.com",
			Location: "London",
		},
		Resume: &resume.Resume{
			Profile: "Analyst & programmer.",
			Experience: []resume.Experience{{
				Title:   "Engineer",
				Company: "Analytical Engines",
				Dates:   "1842 - 1843",
				Details: []string{"Wrote the first published algorithm " + strings.Repeat("for the engine ", 20)},
			}},
			Skills: []string{"Mathematics", "Notes"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" PDF ")
	require.NoError(t, err)
	require.Equal(t, FormatPDF, f)

	f, err = ParseFormat("word")
	require.NoError(t, err)
	require.Equal(t, FormatDOCX, f)

	_, err = ParseFormat("odt")
	require.Error(t, err)
}

func TestForAndFilename(t *testing.T) {
	r, err := For(FormatDOCX)
	require.NoError(t, err)
	require.Equal(t, "docx", r.Extension())
	require.Equal(t, "Ada Lovelace.docx", Filename(r, Document{Info: resume.PersonalInfo{Name: "Ada Lovelace"}}))

	_, err = For(Format("odt"))
	require.Error(t, err)
}

func TestRenderRequiresResume(t *testing.T) {
	var buf bytes.Buffer
	require.Error(t, (&PDFRenderer{}).Render(&buf, Document{}))
	require.Error(t, (&DOCXRenderer{}).Render(&buf, Document{}))
}

func TestPDFRender(t *testing.T) {
	var buf bytes.Buffer
	r := &PDFRenderer{Creator: "resumeforge test"}
	require.NoError(t, r.Render(&buf, sampleDocument()))
	require.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
	require.Equal(t, "application/pdf", r.ContentType())
}

func TestPDFRenderManyPages(t *testing.T) {
	doc := sampleDocument()
	for i := 0; i < 80; i++ {
		doc.Resume.Certificates = append(doc.Resume.Certificates, "Certificate of completion")
	}
	var buf bytes.Buffer
	require.NoError(t, (&PDFRenderer{}).Render(&buf, doc))
	require.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestDOCXRender(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&DOCXRenderer{}).Render(&buf, sampleDocument()))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	files := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		files[f.Name] = string(data)
	}
	require.Contains(t, files, "[Content_Types].xml")
	require.Contains(t, files, "word/styles.xml")

	body := files["word/document.xml"]
	require.Contains(t, body, "Ada &lt;Lovelace&gt;")
	require.Contains(t, body, "Analyst &amp; programmer.")
	require.Contains(t, body, `<w:pStyle w:val="Heading2"/>`)
	require.Contains(t, body, "• Wrote the first published algorithm")
	require.Contains(t, body, "Mathematics, Notes")
	require.Contains(t, body, "ada@example.com | London")
}

func TestPDFRenderEmptyResume(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&PDFRenderer{}).Render(&buf, Document{Resume: &resume.Resume{}}))
}

func TestWrapLine(t *testing.T) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 11)

	require.Equal(t, []string{""}, wrapLine(pdf, "", 50))
	require.Equal(t, []string{"short line"}, wrapLine(pdf, "short  line", 50))

	lines := wrapLine(pdf, strings.Repeat("word ", 60), 50)
	require.Greater(t, len(lines), 1)
	for _, line := range lines {
		require.LessOrEqual(t, pdf.GetStringWidth(line), 50.0)
	}
}
