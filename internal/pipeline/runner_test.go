package pipeline

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/tgreen520/IB-Lab-Grading-Assistant/internal/ingest"
	"github.com/tgreen520/IB-Lab-Grading-Assistant/internal/session"
)

type fakeGrader struct {
	calls []string
	reply func(name string) string
}

func (g *fakeGrader) Grade(_ context.Context, f ingest.ReportFile, _ string) string {
	g.calls = append(g.calls, f.Name)
	return g.reply(f.Name)
}

type fakeSaver struct {
	feedbacks []string
	rows      []session.Result
}

func (s *fakeSaver) SaveFeedback(filename, _ string) error {
	s.feedbacks = append(s.feedbacks, filename)
	return nil
}

func (s *fakeSaver) UpsertGradebook(res session.Result) error {
	s.rows = append(s.rows, res)
	return nil
}

func reports(names ...string) []ingest.ReportFile {
	out := make([]ingest.ReportFile, len(names))
	for i, n := range names {
		out[i] = ingest.ReportFile{Name: n, Kind: ingest.KindPDF, Data: []byte("%PDF")}
	}
	return out
}

func TestRunGradesAndAutosavesEveryFile(t *testing.T) {
	grader := &fakeGrader{reply: func(name string) string {
		return "<<<MATH: 10-0.5=9.5>>>\n# 📝 SCORE: 0/100\n1. FORMATTING: 9.5/10\nGood."
	}}
	saver := &fakeSaver{}
	batch := session.NewBatch()

	r := &Runner{Grader: grader, Saver: saver, Model: "m"}
	if err := r.Run(context.Background(), reports("a.pdf", "b.pdf"), batch); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(grader.calls) != 2 {
		t.Fatalf("grade calls = %v", grader.calls)
	}
	snap := batch.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("batch len = %d", len(snap))
	}
	// Scratch block stripped, total recomputed from the section score.
	if snap[0].Score != "9.5" {
		t.Fatalf("score = %q, want recomputed 9.5", snap[0].Score)
	}
	if strings.Contains(snap[0].Feedback, "<<<MATH") {
		t.Fatal("scratch block leaked into stored feedback")
	}
	if len(saver.feedbacks) != 2 || len(saver.rows) != 2 {
		t.Fatalf("autosave calls = %d docs, %d rows", len(saver.feedbacks), len(saver.rows))
	}
}

func TestRunSkipsAlreadyGradedFiles(t *testing.T) {
	grader := &fakeGrader{reply: func(name string) string { return "feedback for " + name }}
	batch := session.NewBatch()
	batch.Upsert(session.Result{Filename: "a.pdf", Score: "90", Feedback: "done"})

	r := &Runner{Grader: grader, Model: "m"}
	if err := r.Run(context.Background(), reports("a.pdf", "b.pdf"), batch); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(grader.calls) != 1 || grader.calls[0] != "b.pdf" {
		t.Fatalf("grade calls = %v, want only b.pdf", grader.calls)
	}
	if batch.Snapshot()[0].Feedback != "done" {
		t.Fatal("resumed run overwrote an existing result")
	}
}

func TestRunDelaysBeforeEveryCall(t *testing.T) {
	grader := &fakeGrader{reply: func(string) string { return "x" }}
	var slept []time.Duration
	r := &Runner{
		Grader: grader,
		Model:  "m",
		Delay:  2 * time.Second,
		Sleep: func(_ context.Context, d time.Duration) error {
			slept = append(slept, d)
			return nil
		},
	}
	if err := r.Run(context.Background(), reports("a.pdf", "b.pdf", "c.pdf"), batchOf()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(slept) != 3 {
		t.Fatalf("sleeps = %v, want one before each of the 3 calls", slept)
	}
	for _, d := range slept {
		if d != 2*time.Second {
			t.Fatalf("sleep duration = %v", d)
		}
	}
}

func TestRunErrorResultKeepsBatchMoving(t *testing.T) {
	grader := &fakeGrader{reply: func(name string) string {
		if name == "a.pdf" {
			return "⚠️ Error: overloaded"
		}
		return "# 📝 SCORE: 0/100\n1. FORMATTING: 8/10\nOK."
	}}
	batch := session.NewBatch()
	r := &Runner{Grader: grader, Model: "m"}
	if err := r.Run(context.Background(), reports("a.pdf", "b.pdf"), batch); err != nil {
		t.Fatalf("run: %v", err)
	}
	snap := batch.Snapshot()
	if snap[0].Score != "N/A" {
		t.Fatalf("error file score = %q, want N/A", snap[0].Score)
	}
	if snap[1].Score != "8" {
		t.Fatalf("second file score = %q", snap[1].Score)
	}
}

func TestRunStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	graded := 0
	grader := &fakeGrader{reply: func(string) string {
		graded++
		cancel()
		return "x"
	}}
	r := &Runner{Grader: grader, Model: "m"}
	err := r.Run(ctx, reports("a.pdf", "b.pdf", "c.pdf"), batchOf())
	if err == nil {
		t.Fatal("expected a cancellation error")
	}
	if graded != 1 {
		t.Fatalf("graded = %d, want 1", graded)
	}
}

func batchOf(results ...session.Result) *session.Batch {
	b := session.NewBatch()
	for _, r := range results {
		b.Upsert(r)
	}
	return b
}
