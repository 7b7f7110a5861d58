// Package pipeline drives a grading batch end to end: one file at a time
// through the grader, post-processing, the batch accumulator, and autosave.
package pipeline

import (
	"context"
	"log"
	"time"

	"github.com/tgreen520/IB-Lab-Grading-Assistant/internal/feedback"
	"github.com/tgreen520/IB-Lab-Grading-Assistant/internal/ingest"
	"github.com/tgreen520/IB-Lab-Grading-Assistant/internal/session"
)

// Grader is the per-file grading call. The production implementation
// never returns an error in-band; failures come back as error text.
type Grader interface {
	Grade(ctx context.Context, file ingest.ReportFile, model string) string
}

// Saver receives each finished result for crash recovery.
type Saver interface {
	SaveFeedback(filename, text string) error
	UpsertGradebook(res session.Result) error
}

// Runner grades files sequentially. Files the batch has already seen are
// skipped, so re-running after a crash picks up where it left off.
type Runner struct {
	Grader Grader
	Saver  Saver // nil disables autosave
	Model  string

	// Delay is the pause inserted before each grading call.
	Delay time.Duration
	// Sleep is swappable for tests; nil means a context-aware wait.
	Sleep func(ctx context.Context, d time.Duration) error
	// OnResult, when set, observes each result as it lands.
	OnResult func(res session.Result)
}

// Run grades every file not already present in the batch. It stops early
// only on context cancellation; per-file failures are recorded as error
// results and the batch keeps going.
func (r *Runner) Run(ctx context.Context, files []ingest.ReportFile, batch *session.Batch) error {
	sleep := r.Sleep
	if sleep == nil {
		sleep = waitCtx
	}
	for _, f := range files {
		if batch.Has(f.Name) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		// Politeness pause before every grading call, the first included.
		if r.Delay > 0 {
			if err := sleep(ctx, r.Delay); err != nil {
				return err
			}
		}

		raw := r.Grader.Grade(ctx, f, r.Model)
		text := feedback.Postprocess(raw)
		res := session.Result{
			Filename: f.Name,
			Score:    feedback.ParseScore(text),
			Feedback: text,
		}
		batch.Upsert(res)

		if r.Saver != nil {
			if err := r.Saver.SaveFeedback(res.Filename, res.Feedback); err != nil {
				log.Printf("pipeline: autosave feedback for %s: %v", res.Filename, err)
			}
			if err := r.Saver.UpsertGradebook(res); err != nil {
				log.Printf("pipeline: autosave gradebook for %s: %v", res.Filename, err)
			}
		}
		if r.OnResult != nil {
			r.OnResult(res)
		}
	}
	return nil
}

func waitCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
