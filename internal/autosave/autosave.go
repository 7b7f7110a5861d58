// Package autosave writes per-file recovery artifacts as a batch grades,
// so a crash mid-batch loses at most the file in flight.
package autosave

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/tgreen520/IB-Lab-Grading-Assistant/internal/feedback"
	"github.com/tgreen520/IB-Lab-Grading-Assistant/internal/render"
	"github.com/tgreen520/IB-Lab-Grading-Assistant/internal/session"
	"github.com/tgreen520/IB-Lab-Grading-Assistant/internal/storage"
)

const gradebookKey = "gradebook.csv"

// Saver lands feedback documents and a running gradebook under a prefix
// in the blob store.
type Saver struct {
	store  storage.BlobStore
	prefix string
}

func New(store storage.BlobStore, prefix string) *Saver {
	if prefix == "" {
		prefix = "recovery"
	}
	return &Saver{store: store, prefix: prefix}
}

// SaveFeedback renders one student's feedback to a standalone document
// named <base>_Feedback.docx.
func (s *Saver) SaveFeedback(filename, text string) error {
	doc, err := render.Docx(text)
	if err != nil {
		return err
	}
	base := strings.TrimSuffix(filename, path.Ext(filename))
	key := path.Join(s.prefix, base+"_Feedback.docx")
	_, err = s.store.Put(key, bytes.NewReader(doc))
	return err
}

// UpsertGradebook merges one result into gradebook.csv. The file is read
// back in full, the row keyed by Filename is replaced or appended, and
// the whole sheet is rewritten. Columns are the union of everything seen
// so far; rows missing a column get an empty cell.
func (s *Saver) UpsertGradebook(res session.Result) error {
	header, rows, err := s.readGradebook()
	if err != nil {
		return err
	}

	row := gradebookRow(res)
	for _, col := range rowColumns(res) {
		if !contains(header, col) {
			header = append(header, col)
		}
	}

	replaced := false
	for i, existing := range rows {
		if existing["Filename"] == res.Filename {
			rows[i] = row
			replaced = true
			break
		}
	}
	if !replaced {
		rows = append(rows, row)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		rec := make([]string, len(header))
		for i, col := range header {
			rec[i] = r[col]
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	_, err = s.store.Put(path.Join(s.prefix, gradebookKey), &buf)
	return err
}

func (s *Saver) readGradebook() (header []string, rows []map[string]string, err error) {
	rc, err := s.store.Get(path.Join(s.prefix, gradebookKey))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	defer rc.Close()

	r := csv.NewReader(rc)
	r.FieldsPerRecord = -1
	header, err = r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		row := map[string]string{}
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

// gradebookRow flattens a result: filename, overall score and summary,
// then a score and a feedback column per rubric section the feedback
// actually contains. The feedback text rides along so the sheet alone is
// enough to recover a crashed batch.
func gradebookRow(res session.Result) map[string]string {
	rec := feedback.ParseRecord(res.Feedback)
	row := map[string]string{
		"Filename":        res.Filename,
		"Overall Score":   res.Score,
		"Overall Summary": rec.Summary,
	}
	for _, sec := range rec.Sections {
		row[scoreColumn(sec)] = sec.Score
		row[feedbackColumn(sec)] = sec.Body
	}
	for _, sec := range rec.Extra {
		row[scoreColumn(sec)] = sec.Score
		row[feedbackColumn(sec)] = sec.Body
	}
	return row
}

func rowColumns(res session.Result) []string {
	cols := []string{"Filename", "Overall Score", "Overall Summary"}
	rec := feedback.ParseRecord(res.Feedback)
	for _, id := range feedback.KnownSections {
		if sec, ok := rec.Sections[id]; ok {
			cols = append(cols, scoreColumn(sec), feedbackColumn(sec))
		}
	}
	for _, sec := range rec.Extra {
		cols = append(cols, scoreColumn(sec), feedbackColumn(sec))
	}
	return cols
}

func scoreColumn(sec feedback.SectionRecord) string {
	return fmt.Sprintf("%d. %s Score", sec.Number, sec.Name)
}

func feedbackColumn(sec feedback.SectionRecord) string {
	return fmt.Sprintf("%d. %s Feedback", sec.Number, sec.Name)
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
