// Package extract produces model-ready payloads from report files: marked-up
// plain text plus embedded images for word documents, or a single encoded
// blob for PDFs and standalone images.
package extract

import (
	"encoding/base64"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tgreen520/IB-Lab-Grading-Assistant/internal/ingest"
)

// ImagePart is one base64-encoded raster image attachment.
type ImagePart struct {
	MediaType string
	Base64    string
}

// Content is the extracted payload for one report file. Exactly one of the
// two shapes is populated: Text (+ optional Images) for word documents, or
// Blob for PDFs and standalone images.
type Content struct {
	Text   string
	Images []ImagePart
	Blob   *ImagePart
}

// Text shorter than this usually means a failed or image-only extraction;
// the grader is warned rather than silently handed an empty report.
const minTextRunes = 50

const shortTextNote = "\n\n[SYSTEM NOTE: Very little text extracted.]"

// FromReport builds the payload for one file. It never fails: extraction
// errors become inline text so the batch always has something to grade.
func FromReport(f ingest.ReportFile) Content {
	if f.Kind == ingest.KindDocx {
		text, err := docxText(f.Data)
		if err != nil {
			text = fmt.Sprintf("Error reading .docx file: %v", err)
		} else if utf8.RuneCountInString(strings.TrimSpace(text)) < minTextRunes {
			text += shortTextNote
		}
		return Content{Text: text, Images: docxImages(f.Data)}
	}
	return Content{Blob: &ImagePart{
		MediaType: MediaType(f.Name),
		Base64:    base64.StdEncoding.EncodeToString(f.Data),
	}}
}

// MediaType maps a filename to the declared media type sent to the grading
// service. Unknown extensions fall back to JPEG, matching upstream behavior
// for odd raster formats.
func MediaType(name string) string {
	lower := strings.ToLower(name)
	i := strings.LastIndexByte(lower, '.')
	if i < 0 {
		return "image/jpeg"
	}
	switch lower[i+1:] {
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	case "pdf":
		return "application/pdf"
	}
	return "image/jpeg"
}
