package http

import (
	"io"
	"net/http"

	"github.com/tgreen520/IB-Lab-Grading-Assistant/internal/ingest"
)

const maxUploadBytes = 256 << 20 // whole batch, all files

// POST /grade (multipart: files=report.docx, files=bundle.zip, ...)
// Grades every new file sequentially and responds when the batch is done.
// Files already graded in the working batch are skipped, so re-posting a
// partially failed batch only grades the gaps.
func (a *App) GradeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			http.Error(w, "multipart form required", http.StatusBadRequest)
			return
		}
		fhs := r.MultipartForm.File["files"]
		if len(fhs) == 0 {
			http.Error(w, "at least one file required", http.StatusBadRequest)
			return
		}

		var uploads []ingest.Upload
		for _, fh := range fhs {
			f, err := fh.Open()
			if err != nil {
				http.Error(w, "read "+fh.Filename+": "+err.Error(), http.StatusBadRequest)
				return
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				http.Error(w, "read "+fh.Filename+": "+err.Error(), http.StatusBadRequest)
				return
			}
			uploads = append(uploads, ingest.Upload{Name: fh.Filename, Data: data})
		}

		files, counts, ingestErrs := ingest.Normalize(uploads)

		batch := a.Batch()
		if err := a.Runner.Run(r.Context(), files, batch); err != nil {
			http.Error(w, "grading interrupted: "+err.Error(), http.StatusServiceUnavailable)
			return
		}

		warnings := make([]string, 0, len(ingestErrs))
		for _, err := range ingestErrs {
			warnings = append(warnings, err.Error())
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"counts":   counts,
			"warnings": warnings,
			"results":  batch.Snapshot(),
		})
	}
}

// GET /results
func (a *App) ResultsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]any{
			"results": a.Batch().Snapshot(),
		})
	}
}
