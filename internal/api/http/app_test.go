package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/tgreen520/IB-Lab-Grading-Assistant/internal/db"
	"github.com/tgreen520/IB-Lab-Grading-Assistant/internal/ingest"
	"github.com/tgreen520/IB-Lab-Grading-Assistant/internal/pipeline"
	"github.com/tgreen520/IB-Lab-Grading-Assistant/internal/session"
)

type stubGrader struct{}

func (stubGrader) Grade(_ context.Context, f ingest.ReportFile, _ string) string {
	return "# 📝 SCORE: 0/100\n1. FORMATTING: 9/10\nFeedback for " + f.Name
}

func testApp(t *testing.T) *App {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "api.db") + "?_pragma=busy_timeout(5000)"
	conn, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	runner := &pipeline.Runner{Grader: stubGrader{}, Model: "m"}
	return NewApp(runner, session.NewSQLStore(conn, "sqlite"))
}

func multipartBody(t *testing.T, names ...string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, n := range names {
		fw, err := mw.CreateFormFile("files", n)
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		fw.Write([]byte("%PDF-1.4 fake"))
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestGradeHandlerGradesUploads(t *testing.T) {
	app := testApp(t)
	body, ctype := multipartBody(t, "alice.pdf", "bob.pdf")

	req := httptest.NewRequest("POST", "/grade", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	app.GradeHandler()(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Results []session.Result `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(resp.Results))
	}
	if resp.Results[0].Score != "9" {
		t.Fatalf("score = %q, want recomputed 9", resp.Results[0].Score)
	}
}

func TestGradeHandlerRequiresFiles(t *testing.T) {
	app := testApp(t)
	req := httptest.NewRequest("POST", "/grade", strings.NewReader("not multipart"))
	rec := httptest.NewRecorder()
	app.GradeHandler()(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestExportBeforeGradingConflicts(t *testing.T) {
	app := testApp(t)
	req := httptest.NewRequest("GET", "/export/csv", nil)
	rec := httptest.NewRecorder()
	app.ExportCSVHandler()(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestExportCSVDownload(t *testing.T) {
	app := testApp(t)
	app.Batch().Upsert(session.Result{Filename: "alice.pdf", Score: "90", Feedback: "1. FORMATTING: 9/10\nGood."})

	req := httptest.NewRequest("GET", "/export/csv", nil)
	rec := httptest.NewRecorder()
	app.ExportCSVHandler()(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "Gradebook.csv") {
		t.Fatalf("content-disposition = %q", cd)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("\xEF\xBB\xBF")) {
		t.Fatal("csv download missing byte-order mark")
	}
}

func TestSessionSaveLoadRoundTripOverHTTP(t *testing.T) {
	app := testApp(t)
	app.Batch().Upsert(session.Result{Filename: "alice.pdf", Score: "90", Feedback: "done"})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/sessions", strings.NewReader(`{"name":"period-3"}`))
	app.SaveSessionHandler()(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("save status = %d: %s", rec.Code, rec.Body.String())
	}

	// Fresh batch, then load the saved one back.
	app.setBatch(session.NewBatch())
	r := chi.NewRouter()
	r.Post("/sessions/{name}/load", app.LoadSessionHandler())
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("POST", "/sessions/period-3/load", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("load status = %d: %s", rec.Code, rec.Body.String())
	}
	snap := app.Batch().Snapshot()
	if len(snap) != 1 || snap[0].Filename != "alice.pdf" {
		t.Fatalf("loaded batch = %+v", snap)
	}
}

func TestLoadMissingSession(t *testing.T) {
	app := testApp(t)
	r := chi.NewRouter()
	r.Post("/sessions/{name}/load", app.LoadSessionHandler())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("POST", "/sessions/nope/load", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
