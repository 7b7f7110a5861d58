// Package export turns a graded batch into its three download formats:
// one merged document, a zip of per-student documents, and a spreadsheet.
package export

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"fmt"
	"path"
	"strings"

	"github.com/tgreen520/IB-Lab-Grading-Assistant/internal/feedback"
	"github.com/tgreen520/IB-Lab-Grading-Assistant/internal/render"
	"github.com/tgreen520/IB-Lab-Grading-Assistant/internal/session"
)

// MergedDoc renders every result into a single document, one report per
// page, in batch order.
func MergedDoc(results []session.Result) ([]byte, error) {
	doc := render.NewDoc()
	for i, r := range results {
		if i > 0 {
			doc.PageBreak()
		}
		doc.AppendFeedback("STUDENT: " + r.Filename)
		doc.AppendFeedback(r.Feedback)
	}
	return doc.Bytes()
}

// ZipBundle packs one <base>_Feedback.docx per result into a zip archive.
func ZipBundle(results []session.Result) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, r := range results {
		docBytes, err := render.Docx("STUDENT: " + r.Filename + "\n\n" + r.Feedback)
		if err != nil {
			return nil, err
		}
		base := strings.TrimSuffix(r.Filename, path.Ext(r.Filename))
		w, err := zw.Create(base + "_Feedback.docx")
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(docBytes); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Spreadsheet flattens the batch to CSV. The byte-order mark up front
// keeps spreadsheet applications from garbling the emoji and degree signs
// the feedback carries. Columns are Filename, Overall Score, Overall
// Summary, then a Score/Feedback pair per rubric section seen anywhere in
// the batch, known sections first in rubric order.
func Spreadsheet(results []session.Result) ([]byte, error) {
	records := make([]feedback.Record, len(results))
	for i, r := range results {
		records[i] = feedback.ParseRecord(r.Feedback)
	}

	header := []string{"Filename", "Overall Score", "Overall Summary"}
	var sections []sectionColumn
	for _, id := range feedback.KnownSections {
		for _, rec := range records {
			if sec, ok := rec.Sections[id]; ok {
				sections = append(sections, sectionColumn{known: id, label: columnLabel(sec)})
				break
			}
		}
	}
	for _, rec := range records {
		for _, sec := range rec.Extra {
			col := sectionColumn{extraNumber: sec.Number, label: columnLabel(sec)}
			if !hasColumn(sections, col.label) {
				sections = append(sections, col)
			}
		}
	}
	for _, col := range sections {
		header = append(header, col.label+" Score", col.label+" Feedback")
	}

	var buf bytes.Buffer
	buf.WriteString("\xEF\xBB\xBF")
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for i, r := range results {
		rec := records[i]
		row := []string{r.Filename, r.Score, rec.Summary}
		for _, col := range sections {
			sec, ok := col.lookup(rec)
			if !ok {
				row = append(row, "", "")
				continue
			}
			row = append(row, sec.Score, sec.Body)
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type sectionColumn struct {
	known       feedback.SectionID // zero when the column came from Extra
	extraNumber int
	label       string
}

func (c sectionColumn) lookup(rec feedback.Record) (feedback.SectionRecord, bool) {
	if c.known != 0 {
		sec, ok := rec.Sections[c.known]
		return sec, ok
	}
	for _, sec := range rec.Extra {
		if columnLabel(sec) == c.label {
			return sec, true
		}
	}
	return feedback.SectionRecord{}, false
}

func columnLabel(sec feedback.SectionRecord) string {
	return fmt.Sprintf("%d. %s", sec.Number, sec.Name)
}

func hasColumn(cols []sectionColumn, label string) bool {
	for _, c := range cols {
		if c.label == label {
			return true
		}
	}
	return false
}
