package render

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"time"

	"github.com/resumeforge/resumeforge/internal/resume"
)

// Run sizes are in half-points.
const (
	docxNameSize    = 28
	docxContactSize = 20
	docxHeaderSize  = 24
	docxBodySize    = 22
)

// DOCXRenderer writes a minimal WordprocessingML package.
type DOCXRenderer struct{}

func (r *DOCXRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
}

func (r *DOCXRenderer) Extension() string { return "docx" }

func (r *DOCXRenderer) Render(w io.Writer, doc Document) error {
	if err := validate(doc); err != nil {
		return err
	}

	body, err := docxBody(doc)
	if err != nil {
		return err
	}

	parts := []struct {
		name    string
		content []byte
	}{
		{"[Content_Types].xml", []byte(docxContentTypes)},
		{"_rels/.rels", []byte(docxRootRels)},
		{"word/_rels/document.xml.rels", []byte(docxDocumentRels)},
		{"word/styles.xml", []byte(docxStyles)},
		{"word/document.xml", body},
	}

	zw := zip.NewWriter(w)
	modified := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, part := range parts {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     part.name,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return fmt.Errorf("docx part %s: %w", part.name, err)
		}
		if _, err := fw.Write(part.content); err != nil {
			return fmt.Errorf("docx part %s: %w", part.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}

type docxWriter struct {
	buf bytes.Buffer
	err error
}

func (d *docxWriter) raw(s string) {
	if d.err == nil {
		_, d.err = d.buf.WriteString(s)
	}
}

func (d *docxWriter) escaped(s string) {
	if d.err == nil {
		d.err = xml.EscapeText(&d.buf, []byte(s))
	}
}

// paragraph writes a single-run paragraph. style may be empty.
func (d *docxWriter) paragraph(style, text string, size int, bold bool) {
	d.raw("<w:p>")
	if style != "" {
		d.raw(`<w:pPr><w:pStyle w:val="` + style + `"/></w:pPr>`)
	}
	if text != "" {
		d.raw("<w:r>")
		if bold || size > 0 {
			d.raw("<w:rPr>")
			if bold {
				d.raw("<w:b/>")
			}
			if size > 0 {
				d.raw(fmt.Sprintf(`<w:sz w:val="%d"/>`, size))
			}
			d.raw("</w:rPr>")
		}
		d.raw(`<w:t xml:space="preserve">`)
		d.escaped(text)
		d.raw("</w:t></w:r>")
	}
	d.raw("</w:p>")
}

func docxBody(doc Document) ([]byte, error) {
	d := &docxWriter{}
	d.raw(xml.Header)
	d.raw(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)

	d.paragraph("", resume.DisplayName(doc.Info), docxNameSize, true)
	for _, line := range resume.ContactLines(doc.Info) {
		d.paragraph("", line, docxContactSize, false)
	}
	d.paragraph("", "", 0, false)

	for _, section := range resume.Sections(doc.Resume) {
		d.paragraph("Heading2", section.Title, 0, false)
		if section.Inline {
			d.paragraph("", section.InlineText(), docxBodySize, false)
			continue
		}
		for _, block := range section.Blocks {
			switch block.Kind {
			case resume.KindEntryHeader:
				d.paragraph("", block.Text, docxHeaderSize, true)
			case resume.KindBullet:
				d.paragraph("", "• "+block.Text, docxBodySize, false)
			default:
				d.paragraph("", block.Text, docxBodySize, false)
			}
		}
	}

	d.raw(`<w:sectPr><w:pgSz w:w="11906" w:h="16838"/><w:pgMar w:top="1134" w:right="1134" w:bottom="1134" w:left="1134" w:header="708" w:footer="708" w:gutter="0"/></w:sectPr>`)
	d.raw("</w:body></w:document>")
	if d.err != nil {
		return nil, fmt.Errorf("build docx body: %w", d.err)
	}
	return d.buf.Bytes(), nil
}

const docxContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>
</Types>`

const docxRootRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

const docxDocumentRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>
</Relationships>`

const docxStyles = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:docDefaults><w:rPrDefault><w:rPr><w:rFonts w:ascii="Calibri" w:hAnsi="Calibri" w:cs="Calibri"/><w:sz w:val="22"/></w:rPr></w:rPrDefault></w:docDefaults>
<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/></w:style>
<w:style w:type="paragraph" w:styleId="Heading2"><w:name w:val="heading 2"/><w:basedOn w:val="Normal"/><w:next w:val="Normal"/><w:pPr><w:keepNext/><w:spacing w:before="240" w:after="80"/><w:outlineLvl w:val="1"/></w:pPr><w:rPr><w:b/><w:sz w:val="26"/></w:rPr></w:style>
</w:styles>`
