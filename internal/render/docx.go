// Package render converts cleaned feedback text into Word documents. The
// same line-by-line transform feeds the merged batch document, the
// per-student zip entries, and the autosave copies.
package render

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"regexp"
	"strings"
)

// Doc accumulates rendered reports into one document body.
type Doc struct {
	body strings.Builder
}

func NewDoc() *Doc { return &Doc{} }

// Docx renders a single feedback text into a standalone document.
func Docx(text string) ([]byte, error) {
	d := NewDoc()
	d.AppendFeedback(text)
	return d.Bytes()
}

var boldSpanRe = regexp.MustCompile(`\*\*(.*?)\*\*`)

// AppendFeedback walks the feedback text line by line: headings for the
// score header and deeper markers, bullets for list lines, bold runs for
// double-asterisk spans, horizontal rules and blank lines dropped.
func (d *Doc) AppendFeedback(text string) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "# "), strings.HasPrefix(line, "STUDENT:"):
			d.heading(2, stripMarkup(strings.TrimPrefix(line, "# ")))
		case strings.HasPrefix(line, "### "):
			d.heading(3, stripMarkup(strings.TrimPrefix(line, "### ")))
		case strings.HasPrefix(line, "## "):
			d.heading(2, stripMarkup(strings.TrimPrefix(line, "## ")))
		case strings.HasPrefix(line, "---"), strings.HasPrefix(line, "___"):
			// horizontal rule, drop
		case strings.HasPrefix(line, "* "), strings.HasPrefix(line, "- "):
			d.bullet(line[2:])
		default:
			d.paragraph(line)
		}
	}
}

// PageBreak separates consecutive reports in a merged document.
func (d *Doc) PageBreak() {
	d.body.WriteString(`<w:p><w:r><w:br w:type="page"/></w:r></w:p>`)
}

func (d *Doc) heading(level int, text string) {
	style := "Heading2"
	if level == 3 {
		style = "Heading3"
	}
	d.body.WriteString(`<w:p><w:pPr><w:pStyle w:val="` + style + `"/></w:pPr>`)
	d.body.WriteString(`<w:r><w:t xml:space="preserve">` + esc(text) + `</w:t></w:r></w:p>`)
}

func (d *Doc) bullet(content string) {
	d.body.WriteString(`<w:p><w:pPr><w:pStyle w:val="ListParagraph"/>` +
		`<w:numPr><w:ilvl w:val="0"/><w:numId w:val="1"/></w:numPr></w:pPr>`)
	d.runs(content)
	d.body.WriteString(`</w:p>`)
}

func (d *Doc) paragraph(content string) {
	d.body.WriteString(`<w:p>`)
	d.runs(content)
	d.body.WriteString(`</w:p>`)
}

// runs splits content on **bold** spans: bold spans become bold runs, and
// any stray asterisks outside them are dropped as markdown noise.
func (d *Doc) runs(content string) {
	spans := boldSpanRe.FindAllStringSubmatchIndex(content, -1)
	pos := 0
	for _, s := range spans {
		if s[0] > pos {
			d.run(stripMarkup(content[pos:s[0]]), false)
		}
		d.run(stripMarkup(content[s[2]:s[3]]), true)
		pos = s[1]
	}
	if pos < len(content) {
		d.run(stripMarkup(content[pos:]), false)
	}
}

func (d *Doc) run(text string, bold bool) {
	if text == "" {
		return
	}
	d.body.WriteString(`<w:r>`)
	if bold {
		d.body.WriteString(`<w:rPr><w:b/></w:rPr>`)
	}
	d.body.WriteString(`<w:t xml:space="preserve">` + esc(text) + `</w:t></w:r>`)
}

// Bytes packs the accumulated body into a .docx (OOXML zip package).
func (d *Doc) Bytes() ([]byte, error) {
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	parts := []struct{ name, content string }{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", relsXML},
		{"word/_rels/document.xml.rels", documentRelsXML},
		{"word/styles.xml", stylesXML},
		{"word/numbering.xml", numberingXML},
		{"word/document.xml", documentHeader + d.body.String() + documentFooter},
	}
	for _, p := range parts {
		w, err := zw.Create(p.name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(p.content)); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func stripMarkup(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "*", ""))
}

func esc(s string) string {
	var b bytes.Buffer
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

const documentHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`

const documentFooter = `</w:body></w:document>`

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
  <Default Extension="xml" ContentType="application/xml"/>
  <Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
  <Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>
  <Override PartName="/word/numbering.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.numbering+xml"/>
</Types>`

const relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

const documentRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>
  <Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/numbering" Target="numbering.xml"/>
</Relationships>`

const stylesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:style w:type="paragraph" w:styleId="Heading2">
    <w:name w:val="heading 2"/>
    <w:pPr><w:spacing w:before="200" w:after="80"/></w:pPr>
    <w:rPr><w:b/><w:sz w:val="30"/></w:rPr>
  </w:style>
  <w:style w:type="paragraph" w:styleId="Heading3">
    <w:name w:val="heading 3"/>
    <w:pPr><w:spacing w:before="160" w:after="60"/></w:pPr>
    <w:rPr><w:b/><w:sz w:val="26"/></w:rPr>
  </w:style>
  <w:style w:type="paragraph" w:styleId="ListParagraph">
    <w:name w:val="List Paragraph"/>
    <w:pPr><w:ind w:left="720"/></w:pPr>
  </w:style>
</w:styles>`

const numberingXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:numbering xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:abstractNum w:abstractNumId="0">
    <w:lvl w:ilvl="0">
      <w:numFmt w:val="bullet"/>
      <w:lvlText w:val="•"/>
      <w:pPr><w:ind w:left="720" w:hanging="360"/></w:pPr>
    </w:lvl>
  </w:abstractNum>
  <w:num w:numId="1"><w:abstractNumId w:val="0"/></w:num>
</w:numbering>`
