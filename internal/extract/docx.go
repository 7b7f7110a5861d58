package extract

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Markers wrapped around runs whose formatting would otherwise be lost in
// transit as plain text. The grading service is told to honor these.
const (
	subOpen  = "<sub>"
	subClose = "</sub>"
	supOpen  = "<sup>"
	supClose = "</sup>"
)

const tableSeparator = "--- DETECTED TABLES ---"

// docxText walks word/document.xml in document order: body paragraphs
// first, then table content after a separator line, one row per line with
// cells joined by " | ". Subscript and superscript runs are wrapped with
// explicit markers.
func docxText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx package: %w", err)
	}
	var docFile *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", fmt.Errorf("word/document.xml not found in package")
	}
	rc, err := docFile.Open()
	if err != nil {
		return "", fmt.Errorf("open document.xml: %w", err)
	}
	defer rc.Close()
	return walkDocument(rc)
}

func walkDocument(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var bodyParas []string
	var tableLines []string

	var para strings.Builder
	var run strings.Builder
	var runVert string // "subscript" | "superscript" | ""
	inRun, inText := false, false

	tableDepth := 0
	var cellParas []string
	var rowCells []string

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("decode document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				tableDepth++
			case "tr":
				rowCells = rowCells[:0]
			case "tc":
				cellParas = cellParas[:0]
			case "p":
				para.Reset()
			case "r":
				inRun = true
				run.Reset()
				runVert = ""
			case "vertAlign":
				if inRun {
					for _, attr := range t.Attr {
						if attr.Name.Local == "val" {
							runVert = attr.Value
						}
					}
				}
			case "t":
				if inRun {
					inText = true
				}
			}

		case xml.CharData:
			if inText {
				run.Write(t)
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "r":
				inRun = false
				para.WriteString(wrapVert(run.String(), runVert))
			case "p":
				text := para.String()
				if tableDepth > 0 {
					cellParas = append(cellParas, text)
				} else {
					bodyParas = append(bodyParas, text)
				}
			case "tc":
				rowCells = append(rowCells, strings.TrimSpace(strings.Join(cellParas, " ")))
			case "tr":
				if tableDepth > 0 {
					tableLines = append(tableLines, strings.Join(rowCells, " | "))
				}
			case "tbl":
				tableDepth--
				if tableDepth == 0 {
					tableLines = append(tableLines, "")
				}
			}
		}
	}

	out := strings.Join(bodyParas, "\n")
	if len(tableLines) > 0 {
		out += "\n\n" + tableSeparator + "\n\n" + strings.Join(tableLines, "\n")
	}
	return out, nil
}

func wrapVert(text, vert string) string {
	switch vert {
	case "subscript":
		return subOpen + text + subClose
	case "superscript":
		return supOpen + text + supClose
	}
	return text
}

// docxImages pulls embedded raster images out of word/media, independent of
// paragraph order. Extraction failures are swallowed: images are an extra
// signal for the grader, never a reason to fail the file.
func docxImages(data []byte) []ImagePart {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil
	}
	var images []ImagePart
	for _, f := range zr.File {
		if !strings.HasPrefix(f.Name, "word/media/") {
			continue
		}
		mt, ok := imageMediaType(f.Name)
		if !ok {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			continue
		}
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		images = append(images, ImagePart{
			MediaType: mt,
			Base64:    base64.StdEncoding.EncodeToString(raw),
		})
	}
	return images
}

func imageMediaType(name string) (string, bool) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".png"):
		return "image/png", true
	case strings.HasSuffix(lower, ".jpg"), strings.HasSuffix(lower, ".jpeg"):
		return "image/jpeg", true
	case strings.HasSuffix(lower, ".gif"):
		return "image/gif", true
	}
	return "", false
}
