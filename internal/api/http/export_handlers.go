package http

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/tgreen520/IB-Lab-Grading-Assistant/internal/export"
)

const (
	docxMIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// GET /export/doc — every report's feedback in one document.
func (a *App) ExportDocHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results := a.Batch().Snapshot()
		if len(results) == 0 {
			http.Error(w, "nothing graded yet", http.StatusConflict)
			return
		}
		data, err := export.MergedDoc(results)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		serveDownload(w, r, "All_Feedback.docx", docxMIME, data)
	}
}

// GET /export/zip — one feedback document per student.
func (a *App) ExportZipHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results := a.Batch().Snapshot()
		if len(results) == 0 {
			http.Error(w, "nothing graded yet", http.StatusConflict)
			return
		}
		data, err := export.ZipBundle(results)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		serveDownload(w, r, "Feedback_Bundle.zip", "application/zip", data)
	}
}

// GET /export/csv — the flat gradebook spreadsheet.
func (a *App) ExportCSVHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results := a.Batch().Snapshot()
		if len(results) == 0 {
			http.Error(w, "nothing graded yet", http.StatusConflict)
			return
		}
		data, err := export.Spreadsheet(results)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		serveDownload(w, r, "Gradebook.csv", "text/csv; charset=utf-8", data)
	}
}

func serveDownload(w http.ResponseWriter, r *http.Request, filename, mime string, data []byte) {
	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Disposition", "attachment; filename=\""+filename+"\"")
	http.ServeContent(w, r, filename, time.Now(), bytesReader(data))
}

func bytesReader(b []byte) io.ReadSeeker {
	return nopCloserSeeker{r: bytes.NewReader(b)}
}

type nopCloserSeeker struct{ r *bytes.Reader }

func (n nopCloserSeeker) Read(p []byte) (int, error)         { return n.r.Read(p) }
func (n nopCloserSeeker) Seek(o int64, w int) (int64, error) { return n.r.Seek(o, w) }
